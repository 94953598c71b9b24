package mcp

import "errors"

// ErrServerUnavailable marks transport-level failures: the server was never
// started, has been stopped, or its connection is gone. These are
// non-recoverable within a turn. Tool-level failures are different: they
// come back as JSON-RPC error payloads the model can read and react to.
var ErrServerUnavailable = errors.New("mcp server unavailable")

// IsUnavailable reports whether err is, or wraps, a transport-level server
// failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrServerUnavailable)
}
