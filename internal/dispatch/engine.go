// Package dispatch runs the serving loop for one bound protocol role. The
// loop is a single-goroutine state machine over one channel: it reads a
// frame, routes it by ordinal, invokes the handler, replies when the method
// calls for it, and returns to reading. Readiness suspension replaces
// busy-retry: a read that would block parks on the channel's readiness
// signal instead of spinning.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/irbind/internal/bind"
	"github.com/roach88/irbind/internal/irdoc"
	"github.com/roach88/irbind/internal/journal"
	"github.com/roach88/irbind/internal/protocol"
	"github.com/roach88/irbind/internal/wire"
)

// State is the serving loop's observable phase.
type State int32

const (
	StateIdle State = iota
	StateReading
	StateDispatching
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateDispatching:
		return "dispatching"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// FrameworkCodeNotSupported is the framework_err code replied when a
// result-bearing method has no registered handler.
const FrameworkCodeNotSupported int32 = -2

// ResultUnions resolves a response payload identifier to its compiled
// result union. Implemented by the registry.
type ResultUnions interface {
	ResultUnion(rawIdent string) (*bind.Union, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithJournal makes the engine record every exchange it observes.
func WithJournal(j *journal.Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// Engine serves one binding on one channel.
//
// All mutations happen in the goroutine that calls Serve or ServeOne;
// State is the only member safe to read from outside it.
type Engine struct {
	binding protocol.Binding
	codec   wire.Codec
	ready   wire.Readiness
	results ResultUnions

	log     *slog.Logger
	journal *journal.Journal
	connID  string
	seq     int64

	state atomic.Int32
}

// New builds an engine for the binding. Each engine gets a fresh connection
// id for log and journal correlation.
func New(binding protocol.Binding, codec wire.Codec, ready wire.Readiness, results ResultUnions, opts ...Option) *Engine {
	e := &Engine{
		binding: binding,
		codec:   codec,
		ready:   ready,
		results: results,
		log:     slog.Default(),
		connID:  uuid.Must(uuid.NewV7()).String(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With("conn", e.connID, "protocol", binding.Protocol().Name())
	return e
}

// ConnID returns the engine's connection id.
func (e *Engine) ConnID() string { return e.connID }

// State returns the loop's current phase.
func (e *Engine) State() State { return State(e.state.Load()) }

func (e *Engine) setState(s State) { e.state.Store(int32(s)) }

// Serve runs the loop until the peer closes, a handler asks to stop, the
// context is cancelled, or a fatal error occurs. Fatal errors close the
// channel; clean stops close it too, after the in-flight message finishes.
func (e *Engine) Serve(ctx context.Context) error {
	defer e.binding.Channel().Close()
	for {
		err := e.ServeOne(ctx)
		switch {
		case err == nil:
			continue
		case errors.Is(err, protocol.ErrStopServer), errors.Is(err, protocol.ErrStopEventHandler):
			e.log.Debug("handler requested stop")
			e.setState(StateTerminated)
			return nil
		case errors.Is(err, wire.ErrPeerClosed):
			e.log.Debug("peer closed")
			e.setState(StateTerminated)
			return nil
		default:
			e.log.Error("serving loop failed", "error", err)
			e.setState(StateTerminated)
			return err
		}
	}
}

// ServeOne reads, dispatches and answers exactly one message. Stop
// sentinels and wire.ErrPeerClosed pass through for Serve to classify.
func (e *Engine) ServeOne(ctx context.Context) error {
	e.setState(StateReading)
	frame, err := e.readFrame(ctx)
	if err != nil {
		return err
	}

	hdr, err := wire.ParseHeader(frame.Bytes)
	if err != nil {
		return &protocol.ContractError{Protocol: e.protoName(), Reason: err.Error()}
	}
	method, ok := e.binding.Lookup(hdr.Ordinal)
	if !ok {
		return &protocol.ContractError{
			Protocol: e.protoName(),
			Reason:   fmt.Sprintf("unknown ordinal %d (txid %d)", hdr.Ordinal, hdr.Txid),
		}
	}
	if err := checkTxid(method, hdr); err != nil {
		return &protocol.ContractError{Protocol: e.protoName(), Reason: err.Error()}
	}

	req, err := e.decodeRequest(method, frame)
	if err != nil {
		return err
	}
	e.record(ctx, "recv", method, hdr.Txid, req)

	e.setState(StateDispatching)
	e.log.Debug("dispatching", "method", method.Name, "ordinal", method.Ordinal, "txid", hdr.Txid)
	result, derr := e.binding.Dispatch(ctx, method, req)
	if derr != nil && (errors.Is(derr, protocol.ErrStopServer) || errors.Is(derr, protocol.ErrStopEventHandler)) {
		return derr
	}

	reply, err := e.foldOutcome(method, result, derr)
	if err != nil {
		return err
	}
	if err := e.reply(ctx, method, hdr.Txid, reply); err != nil {
		return err
	}
	e.setState(StateIdle)
	return nil
}

func (e *Engine) protoName() string { return e.binding.Protocol().Name() }

// readFrame reads the next frame, parking on readiness when the channel has
// nothing pending.
func (e *Engine) readFrame(ctx context.Context) (wire.Frame, error) {
	for {
		frame, err := e.binding.Channel().Read()
		if err == nil {
			return frame, nil
		}
		if !errors.Is(err, wire.ErrWouldBlock) {
			return wire.Frame{}, err
		}
		if err := e.ready.AwaitReady(ctx, e.binding.Channel()); err != nil {
			return wire.Frame{}, err
		}
	}
}

// checkTxid enforces the transaction id contract: two-way requests carry a
// nonzero txid, one-way messages and events carry zero.
func checkTxid(method protocol.MethodInfo, hdr wire.Header) error {
	twoWay := method.RequiresResponse || method.EmptyResponse
	if twoWay && hdr.Txid == 0 {
		return fmt.Errorf("two-way method %s arrived with txid 0", method.Name)
	}
	if !twoWay && hdr.Txid != 0 {
		return fmt.Errorf("one-way method %s arrived with txid %d", method.Name, hdr.Txid)
	}
	return nil
}

func (e *Engine) decodeRequest(method protocol.MethodInfo, frame wire.Frame) (bind.Value, error) {
	if method.RequestIdent == "" {
		return nil, nil
	}
	raw, err := e.codec.DecodeRequest(e.binding.Protocol().Library(), method.RequestIdent,
		frame.Bytes[wire.HeaderSize:], frame.Handles)
	if err != nil {
		return nil, &protocol.ContractError{Protocol: e.protoName(), Reason: err.Error()}
	}
	value, ok := raw.(bind.Value)
	if !ok {
		return nil, &protocol.ContractError{
			Protocol: e.protoName(),
			Reason:   fmt.Sprintf("codec decoded %T, not a value", raw),
		}
	}
	return value, nil
}

// foldOutcome turns a handler outcome into the reply payload. For
// result-bearing methods domain and framework errors become union variants;
// everywhere else a handler error is fatal to the connection. A result that
// does not match the method's shape is a contract violation.
func (e *Engine) foldOutcome(method protocol.MethodInfo, result bind.Value, derr error) (bind.Value, error) {
	if derr == nil {
		if !method.RequiresResponse && !method.EmptyResponse && result != nil {
			return nil, &protocol.ContractError{
				Protocol: e.protoName(),
				Reason:   fmt.Sprintf("one-way method %s produced a response", method.Name),
			}
		}
		if method.RequiresResponse && result == nil {
			return nil, &protocol.ContractError{
				Protocol: e.protoName(),
				Reason:   fmt.Sprintf("two-way method %s produced no response", method.Name),
			}
		}
		if !method.HasResult {
			return result, nil
		}
		union, err := e.results.ResultUnion(method.ResponseIdent)
		if err != nil {
			return nil, err
		}
		return union.New(bind.Args{bind.VariantResponse: result})
	}

	var notImpl *protocol.NotImplementedError
	if errors.As(derr, &notImpl) && !method.HasResult && !method.RequiresResponse && !method.EmptyResponse {
		// One-way message for a missing handler: log and move on.
		e.log.Warn("no handler registered", "method", method.Name)
		return nil, nil
	}

	if method.HasResult {
		union, err := e.results.ResultUnion(method.ResponseIdent)
		if err != nil {
			return nil, err
		}
		var domain *protocol.DomainError
		if errors.As(derr, &domain) {
			return union.New(bind.Args{bind.VariantErr: domain.Value})
		}
		var framework *protocol.FrameworkError
		if errors.As(derr, &framework) {
			return union.New(bind.Args{bind.VariantFrameworkErr: bind.Int(framework.Code)})
		}
		if errors.As(derr, &notImpl) {
			return union.New(bind.Args{bind.VariantFrameworkErr: bind.Int(FrameworkCodeNotSupported)})
		}
	}
	return nil, fmt.Errorf("handler for %s: %w", method.Name, derr)
}

func (e *Engine) reply(ctx context.Context, method protocol.MethodInfo, txid uint32, payload bind.Value) error {
	if !method.RequiresResponse && !method.EmptyResponse {
		return nil
	}
	hdr := wire.Header{Txid: txid, Ordinal: method.Ordinal}
	typeName := ""
	if method.RequiresResponse {
		typeName = irdoc.NormalizeIdentifier(method.ResponseIdent)
	}
	frame, err := e.codec.EncodeMessage(hdr, e.binding.Protocol().Library(), typeName, payload)
	if err != nil {
		return &protocol.ContractError{
			Protocol: e.protoName(),
			Reason:   fmt.Sprintf("encode reply to %s: %v", method.Name, err),
		}
	}
	if err := e.binding.Channel().Write(frame); err != nil {
		return fmt.Errorf("reply to %s: %w", method.Name, err)
	}
	e.record(ctx, "send", method, txid, payload)
	return nil
}

// record journals one exchange when a journal is attached. Journal failures
// are logged, never fatal to the connection.
func (e *Engine) record(ctx context.Context, direction string, method protocol.MethodInfo, txid uint32, payload bind.Value) {
	if e.journal == nil {
		return
	}
	body := "null"
	if payload != nil {
		data, err := bind.MarshalValue(payload)
		if err != nil {
			e.log.Warn("journal marshal failed", "method", method.Name, "error", err)
			return
		}
		body = string(data)
	}
	e.seq++
	ex := journal.Exchange{
		ID:        uuid.Must(uuid.NewV7()).String(),
		ConnID:    e.connID,
		Seq:       e.seq,
		Direction: direction,
		Protocol:  e.protoName(),
		Method:    method.Name,
		Ordinal:   method.Ordinal,
		Txid:      txid,
		Payload:   body,
		At:        time.Now(),
	}
	if err := e.journal.WriteExchange(ctx, ex); err != nil {
		e.log.Warn("journal write failed", "method", method.Name, "error", err)
	}
}
