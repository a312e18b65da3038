// Package mcpvault runs vault actions against an MCP server. Each
// action type maps to one MCP tool; the server owns all note and
// filesystem semantics.
package mcpvault

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Enigmora/claudian"
	"github.com/m-mizutani/goerr/v2"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultToolNames maps action types to the tool names exposed by the
// vault MCP server. Override with WithToolNames when a server uses a
// different naming scheme.
var defaultToolNames = map[claudian.ActionType]string{
	claudian.ActionCreateNote:       "create_note",
	claudian.ActionCreateFolder:     "create_folder",
	claudian.ActionDeleteNote:       "delete_note",
	claudian.ActionDeleteFolder:     "delete_folder",
	claudian.ActionMoveNote:         "move_note",
	claudian.ActionCopyNote:         "copy_note",
	claudian.ActionRenameNote:       "rename_note",
	claudian.ActionUpdateNote:       "update_note",
	claudian.ActionReplaceContent:   "replace_content",
	claudian.ActionEditorSetContent: "editor_set_content",
	claudian.ActionListFolder:       "list_folder",
	claudian.ActionReadNote:         "read_note",
	claudian.ActionSearchNotes:      "search_notes",
}

// Executor implements claudian.Executor over an MCP session.
type Executor struct {
	// For local MCP server
	path    string
	args    []string
	envVars []string

	// For remote MCP server
	baseURL string
	headers map[string]string

	toolNames map[claudian.ActionType]string

	client     *client.Client
	initResult *mcp.InitializeResult

	initMutex sync.Mutex
}

// Option is a function that configures an Executor.
type Option func(*Executor)

// WithEnvVars sets the environment variables for a stdio MCP server.
// It appends to the existing ones.
func WithEnvVars(envVars []string) Option {
	return func(x *Executor) {
		x.envVars = append(x.envVars, envVars...)
	}
}

// WithHeaders sets the headers for a remote MCP server. It replaces the
// existing headers setting.
func WithHeaders(headers map[string]string) Option {
	return func(x *Executor) {
		x.headers = headers
	}
}

// WithToolNames overrides the action-to-tool name mapping for servers
// that expose a different tool surface.
func WithToolNames(names map[claudian.ActionType]string) Option {
	return func(x *Executor) {
		for k, v := range names {
			x.toolNames[k] = v
		}
	}
}

// NewStdio creates an executor backed by a local MCP executable
// spawned over stdio.
func NewStdio(path string, args []string, options ...Option) *Executor {
	x := &Executor{
		path:      path,
		args:      args,
		toolNames: cloneToolNames(),
	}
	for _, opt := range options {
		opt(x)
	}
	return x
}

// NewSSE creates an executor backed by a remote MCP server over HTTP
// SSE.
func NewSSE(baseURL string, options ...Option) *Executor {
	x := &Executor{
		baseURL:   baseURL,
		toolNames: cloneToolNames(),
	}
	for _, opt := range options {
		opt(x)
	}
	return x
}

func cloneToolNames() map[claudian.ActionType]string {
	m := make(map[claudian.ActionType]string, len(defaultToolNames))
	for k, v := range defaultToolNames {
		m[k] = v
	}
	return m
}

// Start connects to the MCP server and performs the initialize
// handshake. It is idempotent; Execute and ExecuteAll call it lazily.
func (x *Executor) Start(ctx context.Context) error {
	x.initMutex.Lock()
	defer x.initMutex.Unlock()

	if x.initResult != nil {
		return nil
	}

	var tp transport.Interface
	if x.path != "" {
		tp = transport.NewStdio(x.path, x.envVars, x.args...)
	}

	if x.baseURL != "" {
		sse, err := transport.NewSSE(x.baseURL, transport.WithHeaders(x.headers))
		if err != nil {
			return goerr.Wrap(err, "failed to create SSE transport")
		}
		tp = sse
	}

	if tp == nil {
		return goerr.New("no transport")
	}

	x.client = client.NewClient(tp)

	if err := x.client.Start(ctx); err != nil {
		return goerr.Wrap(err, "failed to start MCP client")
	}

	var initRequest mcp.InitializeRequest
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "claudian",
		Version: "0.0.1",
	}

	resp, err := x.client.Initialize(ctx, initRequest)
	if err != nil {
		return goerr.Wrap(err, "failed to initialize MCP client")
	}
	x.initResult = resp

	return nil
}

// Close shuts down the MCP session.
func (x *Executor) Close() error {
	x.initMutex.Lock()
	defer x.initMutex.Unlock()

	if x.client == nil {
		return nil
	}
	if err := x.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close MCP client")
	}
	x.client = nil
	x.initResult = nil
	return nil
}

// Execute runs a single action through its MCP tool. Tool-level
// failures come back in the result; an error return means the session
// itself broke.
func (x *Executor) Execute(ctx context.Context, action claudian.VaultAction) (claudian.ActionResult, error) {
	if err := x.Start(ctx); err != nil {
		return claudian.ActionResult{}, err
	}

	tool, ok := x.toolNames[action.Action]
	if !ok {
		return claudian.ActionResult{
			Success: false,
			Action:  action,
			Error:   "unknown action type: " + string(action.Action),
		}, nil
	}

	resp, err := x.callTool(ctx, tool, action.Params)
	if err != nil {
		if ctx.Err() != nil {
			return claudian.ActionResult{}, goerr.Wrap(ctx.Err(), "execution cancelled")
		}
		return claudian.ActionResult{
			Success: false,
			Action:  action,
			Error:   err.Error(),
		}, nil
	}

	result := claudian.ActionResult{
		Success: !resp.IsError,
		Action:  action,
		Result:  contentToValue(resp.Content),
	}
	if resp.IsError {
		result.Error = contentToText(resp.Content)
	}
	return result, nil
}

// ExecuteAll runs actions strictly one at a time, in order. It keeps
// going past individual failures and stops early only when ctx is
// cancelled.
func (x *Executor) ExecuteAll(ctx context.Context, actions []claudian.VaultAction, onProgress func(claudian.Progress)) ([]claudian.ActionResult, error) {
	results := make([]claudian.ActionResult, 0, len(actions))

	for i, action := range actions {
		if err := ctx.Err(); err != nil {
			return results, goerr.Wrap(err, "execution cancelled",
				goerr.V("completed", i),
				goerr.V("total", len(actions)),
			)
		}

		if onProgress != nil {
			onProgress(claudian.Progress{
				Current: i + 1,
				Total:   len(actions),
				Action:  action,
			})
		}

		result, err := x.Execute(ctx, action)
		if err != nil {
			return results, err
		}
		results = append(results, result)

		if onProgress != nil {
			onProgress(claudian.Progress{
				Current: i + 1,
				Total:   len(actions),
				Action:  action,
				Result:  &result,
			})
		}
	}

	return results, nil
}

// OverwriteActions returns the subset of create actions whose target
// already exists in the vault. Actions already marked overwrite are
// not reported.
func (x *Executor) OverwriteActions(ctx context.Context, actions []claudian.VaultAction) ([]claudian.VaultAction, error) {
	if err := x.Start(ctx); err != nil {
		return nil, err
	}

	var overwrites []claudian.VaultAction
	for _, action := range actions {
		if action.Action != claudian.ActionCreateNote {
			continue
		}
		if b, ok := action.Params["overwrite"].(bool); ok && b {
			continue
		}
		path, ok := action.Params["path"].(string)
		if !ok || path == "" {
			continue
		}

		resp, err := x.callTool(ctx, x.toolNames[claudian.ActionReadNote], map[string]any{
			"path": path,
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, goerr.Wrap(ctx.Err(), "overwrite check cancelled")
			}
			continue
		}
		if !resp.IsError {
			overwrites = append(overwrites, action)
		}
	}

	return overwrites, nil
}

func (x *Executor) callTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	if x.initResult == nil {
		return nil, goerr.New("MCP client not initialized")
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	resp, err := x.client.CallTool(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to call tool", goerr.V("tool", name))
	}

	return resp, nil
}

// contentToValue extracts the first text content as structured data
// when it parses as JSON, or as a plain string otherwise.
func contentToValue(contents []mcp.Content) any {
	for _, c := range contents {
		if txt, ok := c.(mcp.TextContent); ok {
			var v any
			if err := json.Unmarshal([]byte(txt.Text), &v); err == nil {
				return v
			}
			return txt.Text
		}
	}
	return nil
}

func contentToText(contents []mcp.Content) string {
	for _, c := range contents {
		if txt, ok := c.(mcp.TextContent); ok {
			return txt.Text
		}
	}
	return "tool call failed"
}
