package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// SystemLookup resolves through the operating system resolver.
type SystemLookup struct {
	Resolver *net.Resolver
}

func (l SystemLookup) LookupIPv4(ctx context.Context, host string) (string, error) {
	r := l.Resolver
	if r == nil {
		r = net.DefaultResolver
	}
	ips, err := r.LookupIP(ctx, "ip4", host)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", fmt.Errorf("no IPv4 address for %s", host)
	}
	return ips[0].String(), nil
}

var mdnsGroup = &net.UDPAddr{IP: net.IPv4(224, 0, 0, 251), Port: 5353}

const defaultMulticastTimeout = 1 * time.Second

// MulticastLookup sends a one-shot mDNS query for the A record of a .local
// name and takes the first answer. The query goes out from an ephemeral port,
// so responders answer by unicast.
type MulticastLookup struct {
	Timeout time.Duration
}

func (l MulticastLookup) LookupIPv4(ctx context.Context, host string) (string, error) {
	fqdn := dns.Fqdn(host)
	if !strings.HasSuffix(strings.ToLower(fqdn), ".local.") {
		return "", fmt.Errorf("mdns: %s is not a .local name", host)
	}

	timeout := l.Timeout
	if timeout <= 0 {
		timeout = defaultMulticastTimeout
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
	if err != nil {
		return "", fmt.Errorf("mdns: %w", err)
	}
	defer conn.Close()
	if err := conn.SetDeadline(deadline); err != nil {
		return "", fmt.Errorf("mdns: %w", err)
	}

	query := new(dns.Msg)
	query.SetQuestion(fqdn, dns.TypeA)
	query.RecursionDesired = false
	packed, err := query.Pack()
	if err != nil {
		return "", fmt.Errorf("mdns: pack query: %w", err)
	}
	if _, err := conn.WriteToUDP(packed, mdnsGroup); err != nil {
		return "", fmt.Errorf("mdns: send query: %w", err)
	}

	buf := make([]byte, dns.MaxMsgSize)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			return "", fmt.Errorf("mdns: no answer for %s: %w", host, err)
		}
		resp := new(dns.Msg)
		if err := resp.Unpack(buf[:n]); err != nil {
			continue
		}
		if addr, ok := answerA(resp, fqdn); ok {
			return addr, nil
		}
	}
}

func answerA(msg *dns.Msg, fqdn string) (string, bool) {
	for _, rrs := range [][]dns.RR{msg.Answer, msg.Extra} {
		for _, rr := range rrs {
			a, ok := rr.(*dns.A)
			if ok && strings.EqualFold(a.Hdr.Name, fqdn) {
				return a.A.String(), true
			}
		}
	}
	return "", false
}

// ChainLookup tries each lookup in order and returns the first success.
type ChainLookup []Lookup

func (c ChainLookup) LookupIPv4(ctx context.Context, host string) (string, error) {
	var errs []error
	for _, l := range c {
		addr, err := l.LookupIPv4(ctx, host)
		if err == nil {
			return addr, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("no lookup configured for %s", host)
	}
	return "", errors.Join(errs...)
}

// DefaultLookup tries the system resolver, then multicast DNS for .local names.
func DefaultLookup() Lookup {
	return ChainLookup{SystemLookup{}, MulticastLookup{}}
}
