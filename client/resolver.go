package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/mbocsi/dutchctl/proto"
)

const (
	// ControlPort is where every unit answers master queries.
	ControlPort = 8768

	DefaultResolveAttempts = 5
	DefaultResolveBackoff  = 1 * time.Second

	// DefaultResolveTimeout bounds the whole hostname resolution step,
	// pauses included. Five fast failures with 1s pauses take about 4s.
	DefaultResolveTimeout = 5 * time.Second

	// DefaultAttemptTimeout bounds a single lookup so one stalled resolver
	// cannot use up the whole step.
	DefaultAttemptTimeout = 1 * time.Second
)

var ipv4Pattern = regexp.MustCompile(`^(25[0-5]|2[0-4]\d|[01]?\d?\d)(\.(25[0-5]|2[0-4]\d|[01]?\d?\d)){3}$`)

// IsIPv4Address reports whether s is a dotted-quad IPv4 literal.
func IsIPv4Address(s string) bool {
	return ipv4Pattern.MatchString(s)
}

type MasterEndpoint struct {
	Host string // IPv4 address
	Port int
}

func (e MasterEndpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e MasterEndpoint) String() string { return e.Addr() }

// Resolver finds the room master. Zero values of Attempts, Backoff, Timeout,
// AttemptTimeout and Port fall back to the defaults.
type Resolver struct {
	NewTransport func() Transport
	Lookup       Lookup
	Port         int
	Attempts     int
	Backoff      time.Duration

	// Timeout bounds the hostname resolution step; AttemptTimeout bounds
	// each lookup within it.
	Timeout        time.Duration
	AttemptTimeout time.Duration

	// Out receives the resolved master address; nil discards it.
	Out io.Writer

	sleep func(ctx context.Context, d time.Duration) error
}

func NewResolver(newTransport func() Transport, lookup Lookup) *Resolver {
	return &Resolver{
		NewTransport: newTransport,
		Lookup:       lookup,
		Port:         ControlPort,
		Attempts:     DefaultResolveAttempts,
		Backoff:      DefaultResolveBackoff,

		Timeout:        DefaultResolveTimeout,
		AttemptTimeout: DefaultAttemptTimeout,
	}
}

// Resolve returns the master endpoint for name. If treatAsAddress is set, name
// is taken to be the master's address and nothing is sent. Otherwise name is
// asked for the master's hostname, which is then resolved with retries.
func (r *Resolver) Resolve(ctx context.Context, name string, treatAsAddress bool) (MasterEndpoint, error) {
	port := r.Port
	if port == 0 {
		port = ControlPort
	}
	if treatAsAddress {
		return MasterEndpoint{Host: name, Port: port}, nil
	}

	hostname, masterPort, err := r.queryMaster(ctx, MasterEndpoint{Host: name, Port: port}.Addr())
	if err != nil {
		return MasterEndpoint{}, err
	}

	addr, err := r.lookupWithRetry(ctx, hostname)
	if err != nil {
		return MasterEndpoint{}, err
	}

	ep := MasterEndpoint{Host: addr, Port: masterPort}
	slog.Info("Resolved master", "seed", name, "hostname", hostname, "addr", ep.Addr())
	if r.Out != nil {
		fmt.Fprintf(r.Out, "master %s\n", ep.Addr())
	}
	return ep, nil
}

func (r *Resolver) queryMaster(ctx context.Context, addr string) (string, int, error) {
	_, span := tracer.Start(ctx, "dutch.master")
	defer span.End()

	t := r.NewTransport()
	if err := t.Connect(addr); err != nil {
		return "", 0, &TransportError{Op: "connect", Addr: addr, Err: err}
	}
	defer func() {
		if err := t.Close(); err != nil {
			slog.Warn("Failed to close master query connection", "addr", addr, "error", err)
		}
	}()

	resp, err := roundTrip(t, addr, proto.MasterRead{}, "")
	if err != nil {
		return "", 0, err
	}
	hostname, port, err := proto.DecodeMaster(resp)
	if err != nil {
		return "", 0, fmt.Errorf("query master at %s: %w", addr, err)
	}
	return hostname, port, nil
}

func (r *Resolver) lookupWithRetry(ctx context.Context, hostname string) (string, error) {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = DefaultResolveAttempts
	}
	backoff := r.Backoff
	if backoff <= 0 {
		backoff = DefaultResolveBackoff
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}
	attemptTimeout := r.AttemptTimeout
	if attemptTimeout <= 0 {
		attemptTimeout = DefaultAttemptTimeout
	}
	sleep := r.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		addr, err := r.lookupOnce(ctx, hostname, attemptTimeout)
		if err == nil {
			return addr, nil
		}
		lastErr = err
		slog.Warn("Failed to resolve master hostname", "hostname", hostname, "attempt", attempt, "error", err)

		if ctx.Err() != nil {
			return "", &NameResolutionError{Hostname: hostname, Attempts: attempt, Err: ctx.Err()}
		}
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, backoff); err != nil {
			return "", &NameResolutionError{Hostname: hostname, Attempts: attempt, Err: err}
		}
	}
	return "", &NameResolutionError{Hostname: hostname, Attempts: attempts, Err: lastErr}
}

func (r *Resolver) lookupOnce(ctx context.Context, hostname string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return r.Lookup.LookupIPv4(ctx, hostname)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
