package claudian

import "regexp"

// The pattern registries below are data, not logic: adding a locale means
// appending entries, never touching control flow. Tags are semantic
// categories shared across locales, so a match in any language contributes
// the same category.

type taggedPattern struct {
	tag string
	re  *regexp.Regexp
}

// Claim categories. A claim is the model asserting in prose that it
// performed (or prepared) a vault operation.
const (
	claimCreate    = "create"
	claimMove      = "move"
	claimDelete    = "delete"
	claimRename    = "rename"
	claimUpdate    = "update"
	claimCompleted = "completed"
	claimPresent   = "present"
)

var claimPatterns = []taggedPattern{
	// English
	{claimCreate, regexp.MustCompile(`(?i)\b(?:i(?:'ve| have)? (?:created|made|added)|created (?:the|a|your) (?:note|file|folder))\b`)},
	{claimMove, regexp.MustCompile(`(?i)\b(?:i(?:'ve| have)? moved|moved (?:the|your) (?:note|file)s?)\b`)},
	{claimDelete, regexp.MustCompile(`(?i)\b(?:i(?:'ve| have)? (?:deleted|removed)|deleted (?:the|your))\b`)},
	{claimRename, regexp.MustCompile(`(?i)\bi(?:'ve| have)? renamed\b`)},
	{claimUpdate, regexp.MustCompile(`(?i)\b(?:i(?:'ve| have)? (?:updated|edited|modified)|updated (?:the|your))\b`)},
	{claimCompleted, regexp.MustCompile(`(?i)\b(?:task (?:is )?(?:done|complete[d]?)|i(?:'ve| have)? (?:finished|completed))\b`)},
	{claimPresent, regexp.MustCompile(`(?i)\b(?:here (?:is|are) the|i(?:'ve| have)? prepared)\b`)},
	// Japanese
	{claimCreate, regexp.MustCompile(`(?:作成|新規作成)(?:しました|いたしました)`)},
	{claimMove, regexp.MustCompile(`移動(?:しました|いたしました)`)},
	{claimDelete, regexp.MustCompile(`削除(?:しました|いたしました)`)},
	{claimRename, regexp.MustCompile(`(?:リネーム|名前を変更)(?:しました|いたしました)`)},
	{claimUpdate, regexp.MustCompile(`(?:更新|編集)(?:しました|いたしました)`)},
	{claimCompleted, regexp.MustCompile(`完了(?:しました|いたしました)`)},
	// Chinese
	{claimCreate, regexp.MustCompile(`已(?:创建|新建)|创建了`)},
	{claimMove, regexp.MustCompile(`已移动|移动了`)},
	{claimDelete, regexp.MustCompile(`已删除|删除了`)},
	{claimRename, regexp.MustCompile(`已重命名`)},
	{claimUpdate, regexp.MustCompile(`已(?:更新|修改)`)},
	{claimCompleted, regexp.MustCompile(`已完成`)},
}

// claimExpectedActions maps a claim category to the concrete action types
// that would substantiate it. Categories without an entry (completed,
// present) carry no expectation and are skipped by the mismatch check.
var claimExpectedActions = map[string][]ActionType{
	claimCreate: {ActionCreateNote, ActionCreateFolder},
	claimMove:   {ActionMoveNote, ActionRenameNote},
	claimDelete: {ActionDeleteNote, ActionDeleteFolder},
	claimRename: {ActionRenameNote, ActionMoveNote},
	claimUpdate: {ActionUpdateNote, ActionReplaceContent, ActionEditorSetContent},
}

// Confusion: the model denying a capability it actually has through the
// action protocol.
var confusionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bi (?:cannot|can't|am unable to|'m unable to) (?:create|delete|move|modify|access|edit)\b`),
	regexp.MustCompile(`(?i)\bi don't have (?:the ability|access|permission) to\b`),
	regexp.MustCompile(`(?i)\bas an ai(?: language model)?,? i\b`),
	regexp.MustCompile(`(?i)\bi(?:'m| am) (?:just|only) a (?:text|language) model\b`),
	regexp.MustCompile(`(?:ファイル|ノート)(?:を|に)(?:作成|アクセス)(?:できません|することはできません)`),
	regexp.MustCompile(`我(?:无法|不能)(?:创建|删除|访问|修改)`),
}

// Classifier tiers, checked deep-first. The first tier with a match wins.
var (
	deepPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:analy[zs]e deeply|deep(?:ly)? analy[zs]e|in[- ]depth analysis)\b`),
		regexp.MustCompile(`(?i)\bsynthesi[zs]e\b`),
		regexp.MustCompile(`(?i)\b(?:knowledge (?:graph|synthesis)|across (?:my|the) (?:vault|notes))\b`),
		regexp.MustCompile(`(?i)\b(?:strategic|comprehensive) (?:plan|review|analysis)\b`),
		regexp.MustCompile(`(?i)\bresearch (?:and|then) (?:summari[zs]e|write)\b`),
		regexp.MustCompile(`深く分析|知識を統合`),
		regexp.MustCompile(`深入分析|综合分析`),
	}

	complexPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:all|every|each) (?:notes?|files?) (?:in|under|of)\b`),
		regexp.MustCompile(`(?i)\b(?:cross[- ]reference|refactor|restructure|reorgani[zs]e)\b`),
		regexp.MustCompile(`(?i)\bmerge\b.*\b(?:notes?|files?)\b`),
		regexp.MustCompile(`(?i)\bbatch\b`),
		regexp.MustCompile(`(?i)\bfolder structure\b`),
		regexp.MustCompile(`(?:一括|まとめて)(?:処理|変更)`),
		regexp.MustCompile(`批量|重构`),
	}

	moderatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:write|draft|compose|create)\b.*\b(?:note|article|summary|document)\b`),
		regexp.MustCompile(`(?i)\b(?:summari[zs]e|translate|organi[zs]e|rewrite)\b`),
		regexp.MustCompile(`(?i)\bsearch (?:for|my|the)\b`),
		regexp.MustCompile(`(?i)\bfind\b.*\b(?:notes?|mentions?)\b`),
		regexp.MustCompile(`要約|翻訳|整理`),
		regexp.MustCompile(`总结|翻译|整理`),
	}

	simplePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:list|show|display)\b.*\b(?:files?|notes?|folders?)\b`),
		regexp.MustCompile(`(?i)\b(?:read|open)\b.*\b(?:note|file)\b`),
		regexp.MustCompile(`(?i)\b(?:copy|move|rename)\b.*\b(?:note|file)\b`),
		regexp.MustCompile(`(?i)\bwhat(?:'s| is) in\b`),
		regexp.MustCompile(`(?i)\b(?:how many|count)\b`),
		regexp.MustCompile(`一覧|リスト(?:して|を表示)`),
		regexp.MustCompile(`列出|查看`),
	}

	// Structured single-shot operations that demote a moderate match back
	// to simple under the rigid JSON protocol of agent mode.
	structuredOpPattern = regexp.MustCompile(`(?i)\b(?:list|show|copy|move)\b|一覧|列出`)
)

// Planner complexity cues, each with a weight contributed per match.
var complexityCues = []struct {
	weight float64
	re     *regexp.Regexp
}{
	{2.0, regexp.MustCompile(`(?i)\b(?:each|every|all) of\b|それぞれ|每个`)},
	{2.0, regexp.MustCompile(`(?i)\b(?:folder )?structure\b|\btree\b|フォルダ構成|目录结构`)},
	{1.5, regexp.MustCompile(`(?i)\b(?:generate|produce|populate|fill)\b|生成して|生成`)},
	{1.5, regexp.MustCompile(`(?i)\b(?:a )?(?:list|series|set) of\b|一連の|一系列`)},
	{1.0, regexp.MustCompile(`(?i)\b(?:detailed|comprehensive|thorough)\b|詳細な|详细`)},
	{1.0, regexp.MustCompile(`(?i)\bsub[- ]?folders?\b|\bcategor(?:y|ies)\b|サブフォルダ|子文件夹`)},
	{1.0, regexp.MustCompile(`(?i)\bnotes? (?:about|on|for)\b.*,`)},
}

var structureWordPattern = regexp.MustCompile(`(?i)\bfolder\b|\bstructure\b|\bdirectory\b|フォルダ|文件夹`)

var contentWordPattern = regexp.MustCompile(`(?i)\b(?:write|content|detailed|summary|article)\b|内容|記事`)

var actionVerbPattern = regexp.MustCompile(`(?i)\b(create|delete|move|copy|rename|update|write|organi[zs]e|merge|list|search)\b`)

var numberPattern = regexp.MustCompile(`\b(\d{1,3})\b`)
