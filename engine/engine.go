// Package engine drives the tool-call interaction loop: assemble the prompt,
// stream the model's output through the interceptor, validate and execute
// any tool call it emits, inject the result, and stream again until the
// model produces a plain answer.
package engine

import (
	"context"
	"fmt"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"loom/config"
	"loom/model"
	"loom/prompt"
	"loom/state"
	"loom/tokens"
	"loom/tools"
	"loom/trace"
)

// ToolRunner executes validated tool calls. mcp.Client is the canonical
// implementation; anything with the same shape works (tests use scripted
// runners).
type ToolRunner interface {
	ExecuteToolCall(ctx context.Context, name string, arguments map[string]any) (string, error)
}

// ResourceLister supplies resource descriptors for the first-turn prompt.
// Optional; listing failures are tolerated and the prompt simply omits the
// resource block.
type ResourceLister interface {
	ListResources(ctx context.Context) ([]mcptypes.Resource, error)
}

// Config wires an Engine. Provider is required; Runner is required as soon
// as any tool schema is configured. Everything else has a usable default.
type Config struct {
	Provider  model.Provider
	Runner    ToolRunner
	Resources ResourceLister
	Sink      trace.Sink

	// Tools the model may call: listed in the prompt and enforced by the
	// validator. Read-only after construction.
	Tools []mcptypes.Tool

	// Assembler overrides the default prompt builder.
	Assembler prompt.Builder

	// Estimator overrides the default token heuristic used for trimming.
	Estimator tokens.Estimator

	// MaxContextTokens is the conversation token budget. Defaults to 6000.
	MaxContextTokens int

	// MaxIterations caps generation rounds per turn. Defaults to 6.
	MaxIterations int

	// ToolTimeout bounds each tool invocation. Defaults to 60s.
	ToolTimeout time.Duration

	// Sampler is forwarded to the provider on every generation.
	Sampler model.SamplerConfig

	// OnText observes emitted text in stream order, before any cleaning.
	// It must not block for long; the turn loop calls it inline.
	OnText func(text string)
}

const (
	defaultMaxContextTokens = 6000
	defaultMaxIterations    = 6
	defaultToolTimeout      = 60 * time.Second
)

// Engine runs one conversation. It is not safe for concurrent use: one turn
// at a time, snapshot/resume between turns only. Independent conversations
// get independent engines.
type Engine struct {
	provider  model.Provider
	runner    ToolRunner
	resources ResourceLister
	sink      trace.Sink

	assembler prompt.Builder
	validator *tools.Validator
	trimmer   *tokens.Trimmer
	schemas   []mcptypes.Tool
	sampler   model.SamplerConfig

	maxIterations int
	toolTimeout   time.Duration
	onText        func(string)

	state *state.Manager
	phase Phase
}

// New validates the configuration once and returns a ready engine. All
// collaborators are fixed at construction; nothing is re-read later.
func New(cfg Config) (*Engine, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("engine: provider is required")
	}
	if len(cfg.Tools) > 0 && cfg.Runner == nil {
		return nil, fmt.Errorf("engine: a tool runner is required when tools are configured")
	}
	for i, schema := range cfg.Tools {
		if schema.Name == "" {
			return nil, fmt.Errorf("engine: tool schema %d has no name", i)
		}
	}

	assembler := cfg.Assembler
	if assembler == nil {
		assembler = prompt.NewAssembler()
	}
	maxContext := cfg.MaxContextTokens
	if maxContext <= 0 {
		maxContext = defaultMaxContextTokens
	}
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}
	toolTimeout := cfg.ToolTimeout
	if toolTimeout <= 0 {
		toolTimeout = defaultToolTimeout
	}

	return &Engine{
		provider:      cfg.Provider,
		runner:        cfg.Runner,
		resources:     cfg.Resources,
		sink:          cfg.Sink,
		assembler:     assembler,
		validator:     tools.NewValidator(cfg.Tools),
		trimmer:       tokens.NewTrimmer(maxContext, cfg.Estimator),
		schemas:       cfg.Tools,
		sampler:       cfg.Sampler,
		maxIterations: maxIterations,
		toolTimeout:   toolTimeout,
		onText:        cfg.OnText,
		state:         state.NewManager(),
	}, nil
}

// DetailedResponse is ProcessDetailed's result: the final cleaned answer,
// the tool calls completed during the turn, and the turn's event trace.
type DetailedResponse struct {
	Result    string
	ToolCalls []model.ToolCallResult
	Traces    []trace.Event
}

// Phase reports where the turn loop currently is.
func (e *Engine) Phase() Phase {
	return e.phase
}

// ConversationID identifies the underlying conversation.
func (e *Engine) ConversationID() string {
	return e.state.ID()
}

// Process runs one full turn for the given user input and returns the final
// answer with all protocol blocks stripped.
func (e *Engine) Process(ctx context.Context, input string) (string, error) {
	detailed, err := e.ProcessDetailed(ctx, input)
	if err != nil {
		return "", err
	}
	return detailed.Result, nil
}

// ProcessDetailed runs one full turn and additionally reports the tool calls
// made and the structured events recorded along the way.
func (e *Engine) ProcessDetailed(ctx context.Context, input string) (*DetailedResponse, error) {
	if e.phase != PhaseAwaitingInput {
		return nil, fmt.Errorf("engine: a turn is already in flight (%s)", e.phase)
	}
	defer func() { e.phase = PhaseAwaitingInput }()

	e.state.ClearToolCalls()
	e.state.BeginTurn()

	var events []trace.Event
	record := func(ev trace.Event) {
		events = append(events, ev)
		if e.sink != nil {
			e.sink.LogEvent(ev)
		}
	}

	e.phase = PhasePrompting
	if e.state.MessageCount() == 0 {
		resources := e.listResources(ctx)
		sysMsg, err := e.assembler.BuildInitialPrompt(input, e.schemas, resources)
		if err != nil {
			return nil, err
		}
		e.state.AppendMessage(sysMsg)
		record(trace.MessageEvent(model.RoleSystem, sysMsg.Content))
	} else {
		e.state.AppendUserMessage(input)
		record(trace.MessageEvent(model.RoleUser, input))
	}

	e.state.SetMessages(e.trimmer.Trim(e.state.Messages()))

	final, err := e.generateAndIntercept(ctx, record)
	if err != nil {
		return nil, err
	}

	e.state.AppendAssistantChunk(final)
	record(trace.MessageEvent(model.RoleAssistant, final))

	if e.sink != nil {
		e.sink.LogCompleteTrace(trace.Trace{
			ConversationID: e.state.ID(),
			FinalOutput:    final,
		})
	}

	return &DetailedResponse{
		Result:    final,
		ToolCalls: e.state.LastToolCalls(),
		Traces:    events,
	}, nil
}

// listResources fetches the optional resource descriptors for the first
// prompt. Failures are tolerated: the conversation proceeds without a
// resource block.
func (e *Engine) listResources(ctx context.Context) []mcptypes.Resource {
	if e.resources == nil {
		return nil
	}
	resources, err := e.resources.ListResources(ctx)
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("Resource listing failed, continuing without resources: %v", err)
		}
		return nil
	}
	return resources
}

// Snapshot captures the conversation for persistence or transfer.
func (e *Engine) Snapshot() model.Snapshot {
	return e.state.Snapshot()
}

// Resume replaces the conversation with a snapshot's contents. It is a
// between-turns operation; resuming while a turn is in flight is an error.
func (e *Engine) Resume(snap model.Snapshot) error {
	if e.phase != PhaseAwaitingInput {
		return fmt.Errorf("engine: cannot resume while a turn is in flight (%s)", e.phase)
	}
	e.state.Resume(snap)
	return nil
}
