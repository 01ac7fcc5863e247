package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mbocsi/dutchctl/proto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/mbocsi/dutchctl/client")

// Session is one open connection to the room master and the room target it
// reported. The room target never changes after Open.
type Session struct {
	addr       string
	transport  Transport
	roomTarget string

	mu     sync.Mutex // one request in flight
	closed bool
}

// Open connects to the master and resolves the room target. On error the
// connection is already closed.
func Open(ctx context.Context, t Transport, ep MasterEndpoint) (*Session, error) {
	addr := ep.Addr()
	if err := t.Connect(addr); err != nil {
		return nil, &TransportError{Op: "connect", Addr: addr, Err: err}
	}

	s := &Session{addr: addr, transport: t}
	resp, err := s.RequestTarget(ctx, proto.TargetsRead{}, proto.WildcardTarget)
	if err != nil {
		s.closeAfterFailure()
		return nil, err
	}

	descs, err := proto.DecodeTargets(resp)
	if err != nil {
		s.closeAfterFailure()
		return nil, fmt.Errorf("read targets: %w", err)
	}

	s.roomTarget = proto.SelectRoomTarget(descs)
	if s.roomTarget == "" {
		slog.Warn("Master reported no room; commands will address an empty target",
			"addr", addr, "targets", len(descs), "error", ErrUnresolvedRoomTarget)
	} else {
		slog.Debug("Resolved room target", "addr", addr, "target", s.roomTarget)
	}
	return s, nil
}

func (s *Session) RoomTarget() string { return s.roomTarget }

func (s *Session) Addr() string { return s.addr }

// Request sends req to the room target and waits for the response.
func (s *Session) Request(ctx context.Context, req proto.Request) (proto.Envelope, error) {
	return s.RequestTarget(ctx, req, s.roomTarget)
}

// RequestTarget sends req to an explicit target, e.g. proto.WildcardTarget.
func (s *Session) RequestTarget(ctx context.Context, req proto.Request, target string) (proto.Envelope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return proto.Envelope{}, &TransportError{Op: "send", Addr: s.addr, Err: ErrSessionClosed}
	}

	_, span := tracer.Start(ctx, "dutch."+req.Endpoint())
	defer span.End()
	span.SetAttributes(
		attribute.String("dutch.method", string(req.Method())),
		attribute.String("dutch.endpoint", req.Endpoint()),
		attribute.String("dutch.target", target),
	)

	env, err := roundTrip(s.transport, s.addr, req, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return proto.Envelope{}, err
	}
	return env, nil
}

// Close releases the connection. Calling it again is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.transport.Close(); err != nil {
		return &TransportError{Op: "close", Addr: s.addr, Err: err}
	}
	slog.Debug("Session closed", "addr", s.addr)
	return nil
}

func (s *Session) closeAfterFailure() {
	if err := s.Close(); err != nil {
		slog.Warn("Failed to close session", "addr", s.addr, "error", err)
	}
}

// roundTrip performs exactly one send followed by one receive.
func roundTrip(t Transport, addr string, req proto.Request, target string) (proto.Envelope, error) {
	msg, err := proto.EncodeRequest(req, target)
	if err != nil {
		return proto.Envelope{}, err
	}

	slog.Debug("Sending request", "method", req.Method(), "endpoint", req.Endpoint(), "target", target)
	if err := t.Send(msg); err != nil {
		return proto.Envelope{}, &TransportError{Op: "send", Addr: addr, Err: err}
	}

	resp, err := t.Read()
	if err != nil {
		return proto.Envelope{}, &TransportError{Op: "receive", Addr: addr, Err: err}
	}

	env, err := proto.Decode(resp)
	if err != nil {
		return proto.Envelope{}, fmt.Errorf("%s %s: %w", req.Method(), req.Endpoint(), err)
	}
	slog.Debug("Response received", "endpoint", env.Meta.Endpoint, "size", len(resp))
	return env, nil
}
