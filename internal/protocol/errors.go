package protocol

import (
	"errors"
	"fmt"

	"github.com/roach88/irbind/internal/bind"
)

// ErrStopServer, returned from a handler, makes the serving loop stop
// cleanly after the current message without closing the channel abruptly.
var ErrStopServer = errors.New("stop server")

// ErrStopEventHandler is ErrStopServer's counterpart for event handlers.
var ErrStopEventHandler = errors.New("stop event handler")

// NotImplementedError is returned when a decoded request names a method the
// bound server has no handler for.
type NotImplementedError struct {
	Protocol string
	Method   string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("method %s of %s is not implemented", e.Method, e.Protocol)
}

// DomainError carries a method's declared error value out of a handler. For
// result-bearing methods the serving loop folds it into the err variant of
// the result union instead of failing the connection.
type DomainError struct {
	Value bind.Value
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("domain error %v", e.Value)
}

// FrameworkError is DomainError's counterpart for the framework_err variant.
type FrameworkError struct {
	Code int32
}

func (e *FrameworkError) Error() string {
	return fmt.Sprintf("framework error %d", e.Code)
}

// ContractError is a fatal wire-contract violation: bad magic, an unknown
// ordinal, an unexpected transaction id, or a reply that cannot be encoded.
// The side that detects it closes the channel.
type ContractError struct {
	Protocol string
	Reason   string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("contract violation on %s: %s", e.Protocol, e.Reason)
}
