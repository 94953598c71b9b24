package stream

import (
	"regexp"
	"strings"
)

// Protocol blocks are never shown to the user: tool calls and results are
// bookkeeping, thoughts are the model's scratch space. Patterns are
// non-greedy so adjacent blocks stay separate.
var cleanPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)<mcp_tool_call>.*?</mcp_tool_call>`),
	regexp.MustCompile(`(?s)<mcp_tool_result>.*?</mcp_tool_result>`),
	regexp.MustCompile(`(?s)<mcp_available_tools>.*?</mcp_available_tools>`),
	regexp.MustCompile(`(?s)<mcp_available_resources>.*?</mcp_available_resources>`),
	regexp.MustCompile(`(?s)<Assistant_Thought>.*?</Assistant_Thought>`),
}

var newlineCollapse = regexp.MustCompile(`\n{3,}`)

// CleanOutput strips all protocol blocks from a final answer and normalizes
// the whitespace holes they leave behind.
func CleanOutput(text string) string {
	result := text
	for _, pat := range cleanPatterns {
		result = pat.ReplaceAllString(result, "")
	}
	return newlineCollapse.ReplaceAllString(strings.TrimSpace(result), "\n\n")
}

// ExtractThought returns the content of the first thought block, trimmed,
// or "" when the text has none. Thoughts feed traces, not answers.
func ExtractThought(text string) string {
	match := thoughtPattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

var thoughtPattern = regexp.MustCompile(`(?s)<Assistant_Thought>(.*?)</Assistant_Thought>`)
