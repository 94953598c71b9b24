package stream

import (
	"strings"

	"loom/model"
	"loom/tools"
)

// State identifies what the interceptor is currently accumulating.
type State int

const (
	// Passthrough scans for the opening delimiter and emits everything
	// before it.
	Passthrough State = iota

	// AccumulatingOpenTag holds bytes that might be the start of the
	// opening delimiter, split across fragments.
	AccumulatingOpenTag

	// AccumulatingCallBody buffers the call payload until the closing
	// delimiter arrives. Nothing is emitted from this state.
	AccumulatingCallBody

	// Done means a call was detected; all further input is discarded.
	Done
)

func (s State) String() string {
	switch s {
	case Passthrough:
		return "passthrough"
	case AccumulatingOpenTag:
		return "accumulating-open-tag"
	case AccumulatingCallBody:
		return "accumulating-call-body"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Interceptor consumes a model's text stream fragment by fragment, emits
// plain text, and recognizes at most one embedded tool-call block per
// lifetime. Fragment boundaries carry no meaning: a delimiter may arrive
// split across any number of fragments, and a partial match that fails is
// re-emitted unchanged.
//
// One interceptor serves one generation stream. The engine creates a fresh
// one for every iteration of the turn loop.
type Interceptor struct {
	openTag  string
	closeTag string

	state   State
	pending []byte // possible open-tag prefix withheld from emission
	body    []byte // call body buffered since the open tag

	streamPos int // absolute offset of the next byte Feed will see
	callStart int // absolute offset where the open tag began

	call *model.ToolCallRequest
}

// NewInterceptor watches for the standard tool-call delimiters.
func NewInterceptor() *Interceptor {
	return NewTagInterceptor(model.ToolCallOpenTag, model.ToolCallCloseTag)
}

// NewTagInterceptor watches for custom delimiters. Empty tags fall back to
// the standard ones.
func NewTagInterceptor(openTag, closeTag string) *Interceptor {
	if openTag == "" {
		openTag = model.ToolCallOpenTag
	}
	if closeTag == "" {
		closeTag = model.ToolCallCloseTag
	}
	return &Interceptor{openTag: openTag, closeTag: closeTag}
}

// State returns the current machine state.
func (in *Interceptor) State() State {
	return in.state
}

// Done reports whether a tool call has been detected. Once true, the engine
// should cancel the underlying stream; any input still fed is discarded.
func (in *Interceptor) Done() bool {
	return in.state == Done
}

// Feed consumes one fragment. It returns the text that became safe to emit
// and, on the fragment that completes a call block, the captured request.
// After detection both returns stay empty.
func (in *Interceptor) Feed(fragment string) (string, *model.ToolCallRequest) {
	if in.state == Done || fragment == "" {
		in.streamPos += len(fragment)
		return "", nil
	}
	in.streamPos += len(fragment)

	if in.state == AccumulatingCallBody {
		in.body = append(in.body, fragment...)
		return "", in.checkBodyClosed()
	}

	// Passthrough / AccumulatingOpenTag: rescan withheld bytes plus the new
	// fragment as one window.
	window := append(in.pending, fragment...)
	in.pending = nil
	windowStart := in.streamPos - len(window)

	if idx := strings.Index(string(window), in.openTag); idx >= 0 {
		text := string(window[:idx])
		in.callStart = windowStart + idx
		in.state = AccumulatingCallBody
		in.body = append(in.body[:0], window[idx+len(in.openTag):]...)
		return text, in.checkBodyClosed()
	}

	keep := suffixPrefixLen(window, in.openTag)
	if keep > 0 {
		in.pending = append(in.pending, window[len(window)-keep:]...)
		in.state = AccumulatingOpenTag
	} else {
		in.state = Passthrough
	}
	return string(window[:len(window)-keep]), nil
}

// Close signals end of stream. Withheld bytes that never became a delimiter
// flush as plain text; a stream that ends inside a call body returns
// *TruncatedCallError.
func (in *Interceptor) Close() (string, error) {
	switch in.state {
	case AccumulatingCallBody:
		err := &TruncatedCallError{Partial: string(in.body)}
		in.state = Done
		return "", err
	case AccumulatingOpenTag:
		tail := string(in.pending)
		in.pending = nil
		in.state = Passthrough
		return tail, nil
	default:
		return "", nil
	}
}

// checkBodyClosed looks for the closing delimiter in the buffered body and
// finalizes the call when found.
func (in *Interceptor) checkBodyClosed() *model.ToolCallRequest {
	idx := strings.Index(string(in.body), in.closeTag)
	if idx < 0 {
		return nil
	}

	raw := string(in.body[:idx])
	req := &model.ToolCallRequest{
		Raw:   raw,
		Start: in.callStart,
		End:   in.callStart + len(in.openTag) + idx + len(in.closeTag),
	}
	if name, args, err := tools.ParsePayload(raw); err == nil {
		req.Name = name
		req.Arguments = args
	}

	in.call = req
	in.body = nil
	in.state = Done
	return req
}

// Call returns the detected request, or nil if none was detected.
func (in *Interceptor) Call() *model.ToolCallRequest {
	return in.call
}

// suffixPrefixLen returns the length of the longest suffix of window that is
// a proper prefix of tag. Those bytes might complete into the tag on the
// next fragment, so they cannot be emitted yet.
func suffixPrefixLen(window []byte, tag string) int {
	max := len(tag) - 1
	if len(window) < max {
		max = len(window)
	}
	for k := max; k > 0; k-- {
		if string(window[len(window)-k:]) == tag[:k] {
			return k
		}
	}
	return 0
}
