package client

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const (
	DefaultDiscoveryService = "_http._tcp"
	defaultDiscoveryTimeout = 3 * time.Second
)

// DiscoveredService is one mDNS answer, e.g. a speaker's web interface.
type DiscoveredService struct {
	Name       string
	Host       string
	Address    string
	Port       int
	TXTRecords []string
}

// Seed returns the name to pass as a command target: the hostname when the
// unit advertises one, otherwise its address.
func (d DiscoveredService) Seed() string {
	if d.Host != "" {
		return strings.TrimSuffix(d.Host, ".")
	}
	return d.Address
}

// Discover browses serviceType on the local network until timeout and returns
// every answer with an IPv4 address, one per host. A timeout <= 0 uses the
// default; a context deadline shortens it.
func Discover(ctx context.Context, serviceType string, timeout time.Duration) ([]DiscoveredService, error) {
	if serviceType == "" {
		serviceType = DefaultDiscoveryService
	}
	timeout, err := discoveryTimeout(ctx, timeout)
	if err != nil {
		return nil, err
	}

	entriesCh := make(chan *mdns.ServiceEntry, 16)
	done := make(chan error, 1)

	go func() {
		defer close(entriesCh)
		params := mdns.DefaultParams(serviceType)
		params.Entries = entriesCh
		params.Timeout = timeout
		params.DisableIPv6 = true
		params.Logger = slog.NewLogLogger(slog.Default().Handler(), slog.LevelDebug)
		done <- mdns.QueryContext(ctx, params)
	}()

	var services []DiscoveredService
	seen := make(map[string]bool)
	for {
		select {
		case entry, ok := <-entriesCh:
			if !ok {
				if err := <-done; err != nil {
					return services, fmt.Errorf("mDNS query for %s: %w", serviceType, err)
				}
				return services, nil
			}
			if entry.AddrV4 == nil || seen[entry.Host] {
				continue
			}
			seen[entry.Host] = true

			svc := DiscoveredService{
				Name:       entry.Name,
				Host:       entry.Host,
				Address:    entry.AddrV4.String(),
				Port:       entry.Port,
				TXTRecords: entry.InfoFields,
			}
			slog.Info("Discovered service", "name", svc.Name, "host", svc.Host, "address", svc.Address, "port", svc.Port)
			services = append(services, svc)

		case <-ctx.Done():
			return services, ctx.Err()
		}
	}
}

// discoveryTimeout returns how long to listen: timeout, or the default when
// timeout <= 0, capped by the context deadline.
func discoveryTimeout(ctx context.Context, timeout time.Duration) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if timeout <= 0 {
		timeout = defaultDiscoveryTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, context.DeadlineExceeded
		}
		if remaining < timeout {
			timeout = remaining
		}
	}
	return timeout, nil
}
