package model

// Protocol tags the model uses to embed structured blocks in free text.
// The interceptor watches for the tool-call pair; the other pairs appear in
// prompts and injected results and are stripped from final answers.
const (
	ToolCallOpenTag  = "<mcp_tool_call>"
	ToolCallCloseTag = "</mcp_tool_call>"

	ToolResultOpenTag  = "<mcp_tool_result>"
	ToolResultCloseTag = "</mcp_tool_result>"

	AvailableToolsOpenTag  = "<mcp_available_tools>"
	AvailableToolsCloseTag = "</mcp_available_tools>"

	AvailableResourcesOpenTag  = "<mcp_available_resources>"
	AvailableResourcesCloseTag = "</mcp_available_resources>"

	ThoughtOpenTag  = "<Assistant_Thought>"
	ThoughtCloseTag = "</Assistant_Thought>"
)

// WrapToolResult formats a tool's output as the result block injected back
// into the conversation after an invocation.
func WrapToolResult(result string) string {
	return ToolResultOpenTag + "\n" + result + "\n" + ToolResultCloseTag
}
