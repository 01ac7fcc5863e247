package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Client runs one command per session: resolve the master, open a session,
// run, close. Commands are serialized.
type Client struct {
	Resolver     *Resolver
	NewTransport func() Transport
	Catalogue    *Catalogue

	mu sync.Mutex
}

func NewClient(resolver *Resolver, newTransport func() Transport, catalogue *Catalogue) *Client {
	return &Client{
		Resolver:     resolver,
		NewTransport: newTransport,
		Catalogue:    catalogue,
	}
}

// Run looks up command in the catalogue and runs it against target, a
// hostname or IPv4 address of either unit. Unknown or unavailable commands
// fail before anything is sent.
func (c *Client) Run(ctx context.Context, target, command string) (json.RawMessage, error) {
	cmd, ok := c.Catalogue.Lookup(command)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}
	if err := cmd.Available(); err != nil {
		return nil, err
	}
	return c.Do(ctx, target, command, cmd.Run)
}

// SetVolume sets the room gain in dB. An invalid gain fails before anything
// is sent.
func (c *Client) SetVolume(ctx context.Context, target string, gain float64) error {
	if err := ValidateGain(gain); err != nil {
		return err
	}
	_, err := c.Do(ctx, target, "volume", func(ctx context.Context, s *Session) (json.RawMessage, error) {
		return nil, s.SetVolume(ctx, gain)
	})
	return err
}

// Commands returns the command literals this client accepts.
func (c *Client) Commands() []string {
	return c.Catalogue.Names()
}

// Do runs action in a fresh session. The session is closed on every path.
func (c *Client) Do(ctx context.Context, target, name string, action Action) (out json.RawMessage, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := tracer.Start(ctx, "dutch.command")
	defer span.End()
	span.SetAttributes(attribute.String("dutch.command", name), attribute.String("dutch.seed", target))

	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Debug("Command failed", "command", name, "target", target, "duration", time.Since(start), "error", err)
			return
		}
		slog.Debug("Command complete", "command", name, "target", target, "duration", time.Since(start))
	}()

	ep, err := c.Resolver.Resolve(ctx, target, IsIPv4Address(target))
	if err != nil {
		return nil, err
	}

	session, err := Open(ctx, c.NewTransport(), ep)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			slog.Warn("Failed to close session", "addr", session.Addr(), "error", cerr)
		}
	}()

	return action(ctx, session)
}
