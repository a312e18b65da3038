package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Enigmora/claudian"
	"github.com/Enigmora/claudian/llm/claude"
	"github.com/Enigmora/claudian/llm/gemini"
	"github.com/Enigmora/claudian/llm/openai"
	"github.com/Enigmora/claudian/mcpvault"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive chat session against a vault MCP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "provider",
				Value:   "claude",
				Sources: cli.EnvVars("CLAUDIAN_PROVIDER"),
				Usage:   "LLM provider (claude, openai, gemini)",
			},
			&cli.StringFlag{
				Name:    "anthropic-api-key",
				Sources: cli.EnvVars("ANTHROPIC_API_KEY"),
				Usage:   "API key for the Anthropic API",
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
				Usage:   "API key for the OpenAI API",
			},
			&cli.StringFlag{
				Name:    "gcp-project",
				Sources: cli.EnvVars("CLAUDIAN_GCP_PROJECT"),
				Usage:   "GCP project ID for Vertex AI",
			},
			&cli.StringFlag{
				Name:    "gcp-location",
				Value:   "us-central1",
				Sources: cli.EnvVars("CLAUDIAN_GCP_LOCATION"),
				Usage:   "GCP location for Vertex AI",
			},
			&cli.StringFlag{
				Name:    "mcp-server",
				Sources: cli.EnvVars("CLAUDIAN_MCP_SERVER"),
				Usage:   "Path to the vault MCP server executable",
			},
			&cli.StringSliceFlag{
				Name:  "mcp-arg",
				Usage: "Arguments for the vault MCP server",
			},
			&cli.StringFlag{
				Name:    "mcp-url",
				Sources: cli.EnvVars("CLAUDIAN_MCP_URL"),
				Usage:   "Base URL of a remote vault MCP server (SSE)",
			},
			&cli.StringFlag{
				Name:    "mode",
				Value:   string(claudian.ModeAutomatic),
				Sources: cli.EnvVars("CLAUDIAN_MODE"),
				Usage:   "Model routing mode (automatic, economic, maximum_quality)",
			},
			&cli.BoolFlag{
				Name:    "agent",
				Value:   true,
				Sources: cli.EnvVars("CLAUDIAN_AGENT"),
				Usage:   "Enable the agentic action loop",
			},
			&cli.StringFlag{
				Name:    "system-prompt",
				Sources: cli.EnvVars("CLAUDIAN_SYSTEM_PROMPT"),
				Usage:   "System prompt override",
			},
			&cli.BoolFlag{
				Name:  "yes",
				Usage: "Approve destructive actions without asking",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Sources: cli.EnvVars("CLAUDIAN_LOG_LEVEL"),
				Usage:   "Log level (debug, info, warn, error)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger, err := newLogger(cmd.String("log-level"))
			if err != nil {
				return err
			}

			llmClient, err := newLLMClient(ctx, cmd)
			if err != nil {
				return err
			}

			executor, err := newExecutor(cmd)
			if err != nil {
				return err
			}
			defer executor.Close()

			agent := claudian.New(llmClient, executor,
				claudian.WithMode(claudian.RoutingMode(cmd.String("mode"))),
				claudian.WithAgentMode(cmd.Bool("agent")),
				claudian.WithSystemPrompt(cmd.String("system-prompt")),
				claudian.WithLogger(logger),
				claudian.WithConfirm(confirmOnTerminal(cmd.Bool("yes"))),
				claudian.WithProgressHook(printProgress),
				claudian.WithStreamHook(printStreamIndicator),
			)

			return runREPL(ctx, agent)
		},
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lv,
	})), nil
}

func newLLMClient(ctx context.Context, cmd *cli.Command) (claudian.LLMClient, error) {
	switch provider := cmd.String("provider"); provider {
	case "claude":
		return claude.New(ctx, cmd.String("anthropic-api-key"))
	case "openai":
		return openai.New(ctx, cmd.String("openai-api-key"))
	case "gemini":
		return gemini.New(ctx, cmd.String("gcp-project"), cmd.String("gcp-location"))
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}

func newExecutor(cmd *cli.Command) (*mcpvault.Executor, error) {
	path := cmd.String("mcp-server")
	url := cmd.String("mcp-url")

	if path == "" && url == "" {
		return nil, fmt.Errorf("either --mcp-server or --mcp-url must be specified")
	}
	if path != "" && url != "" {
		return nil, fmt.Errorf("--mcp-server and --mcp-url are mutually exclusive")
	}

	if path != "" {
		return mcpvault.NewStdio(path, cmd.StringSlice("mcp-arg")), nil
	}
	return mcpvault.NewSSE(url), nil
}

func confirmOnTerminal(autoApprove bool) claudian.ConfirmFunc {
	return func(ctx context.Context, actions []claudian.VaultAction) (bool, error) {
		fmt.Println("The following actions modify or delete existing content:")
		for _, action := range actions {
			fmt.Printf("  - %s", action.Action)
			if action.Description != "" {
				fmt.Printf(": %s", action.Description)
			}
			fmt.Println()
		}

		if autoApprove {
			fmt.Println("Approved (--yes).")
			return true, nil
		}

		fmt.Print("Proceed? [y/N]: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	}
}

func printProgress(ctx context.Context, p claudian.Progress) error {
	if p.Result == nil {
		fmt.Printf("[%d/%d] %s...\n", p.Current, p.Total, p.Action.Action)
		return nil
	}
	mark := "ok"
	if !p.Result.Success {
		mark = "failed: " + p.Result.Error
	}
	fmt.Printf("[%d/%d] %s %s\n", p.Current, p.Total, p.Action.Action, mark)
	return nil
}

func printStreamIndicator(ctx context.Context, chars, actions int) error {
	fmt.Printf("\rthinking... %d chars, %d actions", chars, actions)
	return nil
}

func runREPL(ctx context.Context, agent *claudian.Agent) error {
	fmt.Println("claudian chat. Type 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		result, err := agent.Execute(ctx, line)
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		fmt.Println(result.Message)
		if result.Reason != claudian.TerminalCompleted {
			fmt.Printf("(stopped: %s)\n", result.Reason)
		}
	}

	return scanner.Err()
}
