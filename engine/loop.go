package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"loom/config"
	"loom/mcp"
	"loom/model"
	"loom/stream"
	"loom/tools"
	"loom/trace"
)

// generateAndIntercept is the turn's inner loop: stream the model, and as
// long as each round ends in a tool call, execute it, inject the result,
// and stream again. Returns the final cleaned answer of the first round that
// produces no call.
func (e *Engine) generateAndIntercept(ctx context.Context, record func(trace.Event)) (string, error) {
	for round := 0; round < e.maxIterations; round++ {
		e.phase = PhaseStreaming
		buffer, call, err := e.streamOnce(ctx)
		if err != nil {
			return "", err
		}

		if thought := stream.ExtractThought(buffer); thought != "" {
			record(trace.ThoughtEvent(thought))
		}

		if call == nil {
			e.phase = PhaseDone
			return stream.CleanOutput(buffer), nil
		}

		// The assistant message keeps the call block intact so the model
		// sees its own calls in later rounds.
		e.state.AppendAssistantChunk(buffer)
		record(trace.MessageEvent(model.RoleAssistant, buffer))

		e.phase = PhaseInvokingTool
		result, executed, err := e.invokeTool(ctx, call)
		if err != nil {
			return "", err
		}

		e.phase = PhaseInjecting
		if executed != nil {
			e.state.AppendToolResult(executed.Name, executed.Arguments, executed.Result)
			record(trace.ToolCallEvent(executed.Name, executed.Arguments, executed.Result))
		} else {
			e.state.AppendToolError(result)
		}
		record(trace.MessageEvent(model.RoleTool, model.WrapToolResult(result)))

		// Cancellation during invocation is deferred: the committed result
		// is injected above, then the turn aborts here.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", &MaxIterationsError{Limit: e.maxIterations}
}

// streamOnce runs one generation round. The provider streams in its own
// goroutine and publishes fragments over a channel; the loop feeds them to a
// fresh interceptor. Detecting a call cancels the generation context, drains
// the producer, and returns the full assistant content (visible text plus
// the call block) alongside the captured request.
func (e *Engine) streamOnce(ctx context.Context) (string, *model.ToolCallRequest, error) {
	in := stream.NewInterceptor()

	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	fragments := make(chan string)
	errc := make(chan error, 1)
	req := model.GenerationRequest{
		Messages: e.state.Messages(),
		Sampler:  e.sampler,
	}

	go func() {
		defer close(fragments)
		errc <- e.provider.Stream(genCtx, req, func(fragment string) error {
			select {
			case fragments <- fragment:
				return nil
			case <-genCtx.Done():
				return genCtx.Err()
			}
		})
	}()

	var visible strings.Builder
	for fragment := range fragments {
		text, call := in.Feed(fragment)
		if text != "" {
			visible.WriteString(text)
			if e.onText != nil {
				e.onText(text)
			}
		}
		if call != nil {
			// Stop generating. Keep draining so the producer can exit;
			// the interceptor discards everything after the call anyway.
			cancel()
		}
	}
	streamErr := <-errc

	if call := in.Call(); call != nil {
		// The cancellation we triggered is expected; only the caller's
		// own cancellation aborts the turn before the invocation step.
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		content := visible.String() + model.ToolCallOpenTag + call.Raw + model.ToolCallCloseTag
		return content, call, nil
	}

	if streamErr != nil {
		// Model failures surface unmodified.
		return "", nil, streamErr
	}

	tail, err := in.Close()
	if err != nil {
		return "", nil, err
	}
	if tail != "" {
		visible.WriteString(tail)
		if e.onText != nil {
			e.onText(tail)
		}
	}
	return visible.String(), nil, nil
}

// invokeTool validates and executes one captured call. The three outcomes:
// a completed invocation (executed non-nil, result is the tool's output), a
// locally recovered failure (executed nil, result is the error payload the
// model will see), or a fatal error.
func (e *Engine) invokeTool(ctx context.Context, call *model.ToolCallRequest) (string, *model.ToolCallResult, error) {
	validated, err := e.validator.Validate(*call)
	if err != nil {
		var verr *tools.ValidationError
		if !errors.As(err, &verr) {
			return "", nil, err
		}
		if config.DebugLog != nil {
			config.DebugLog.Printf("Tool call rejected: %v", verr)
		}
		return verr.ResultPayload(), nil, nil
	}

	// Tools are not assumed cancellable: the invocation detaches from the
	// caller's context and runs under its own deadline, so an in-flight
	// call always completes or times out before the turn reacts.
	invokeCtx, cancelInvoke := context.WithTimeout(context.WithoutCancel(ctx), e.toolTimeout)
	defer cancelInvoke()

	result, err := e.runner.ExecuteToolCall(invokeCtx, validated.Name, validated.Arguments)
	if err != nil {
		if mcp.IsUnavailable(err) {
			return "", nil, &ToolExecutionError{Tool: validated.Name, Err: err}
		}
		if config.DebugLog != nil {
			config.DebugLog.Printf("Tool %q failed, feeding the error back: %v", validated.Name, err)
		}
		return fmt.Sprintf("ERROR: Failed to execute tool '%s': %v", validated.Name, err), nil, nil
	}

	return result, &model.ToolCallResult{
		Name:      validated.Name,
		Arguments: validated.Arguments,
		Result:    result,
	}, nil
}
