package prompt

import (
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"loom/model"
)

// Builder constructs the first-turn system prompt. The engine consumes this
// interface; Assembler is the canonical implementation.
type Builder interface {
	BuildInitialPrompt(userInput string, schemas []mcptypes.Tool, resources []mcptypes.Resource) (model.Message, error)
}

// defaultPreamble spells out the tool-call protocol: which block to emit,
// which tools exist, and what a well-formed call looks like. Models follow
// the format far more reliably with one correct and one incorrect example.
const defaultPreamble = `INSTRUCTIONS: You are an AI assistant that solves problems with the help of external tools.
When you need a tool, emit a <mcp_tool_call>...</mcp_tool_call> block containing valid, complete JSON of the form {"tool_name": "...", "arguments": {...}}.
Use ONLY tool names listed in the <mcp_available_tools> block below. Do NOT invent tool names. Do NOT emit malformed or incomplete JSON.
Before calling a tool, explain your thinking in an <Assistant_Thought>...</Assistant_Thought> block.
Emit one tool call at a time, then stop and wait for its <mcp_tool_result> block before continuing.
After receiving a result, continue your reasoning until every part of the user's question is answered completely.

CORRECT EXAMPLE:
<Assistant_Thought>I need to add two numbers, so I will use the add tool.</Assistant_Thought>
<mcp_tool_call>
{"tool_name": "add", "arguments": {"a": 3, "b": 4}}
</mcp_tool_call>

INCORRECT EXAMPLES (do NOT do this):
<mcp_tool_call>
{"tool_name": "calculator", "arguments": {"numbers": [3, 4]}}
</mcp_tool_call>
<mcp_tool_call>
{"tool_name": "add", "arguments": {"a": 3
</mcp_tool_call>`

// Assembler is the default Builder. A custom Preamble replaces the built-in
// instruction text; the block layout stays the same.
type Assembler struct {
	Preamble string
}

// NewAssembler returns an Assembler with the default instruction preamble.
func NewAssembler() *Assembler {
	return &Assembler{Preamble: defaultPreamble}
}

// BuildInitialPrompt produces the single system message for turn one:
// instruction preamble, the user's question, the available-tools block, and
// an available-resources block only when resources are supplied. The output
// is deterministic for identical inputs.
func (a *Assembler) BuildInitialPrompt(userInput string, schemas []mcptypes.Tool, resources []mcptypes.Resource) (model.Message, error) {
	preamble := a.Preamble
	if preamble == "" {
		preamble = defaultPreamble
	}

	toolsBlock, err := AvailableToolsBlock(schemas)
	if err != nil {
		return model.Message{}, err
	}

	parts := []string{preamble, "User: " + userInput, toolsBlock}
	if len(resources) > 0 {
		resourcesBlock, err := AvailableResourcesBlock(resources)
		if err != nil {
			return model.Message{}, err
		}
		parts = append(parts, resourcesBlock)
	}

	return model.NewMessage(model.RoleSystem, strings.Join(parts, "\n\n")), nil
}
