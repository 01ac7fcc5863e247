package client

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/miekg/dns"
)

type staticLookup struct {
	addr string
	err  error
}

func (l staticLookup) LookupIPv4(ctx context.Context, host string) (string, error) {
	return l.addr, l.err
}

func TestChainLookup(t *testing.T) {
	first := errors.New("first failed")
	chain := ChainLookup{staticLookup{err: first}, staticLookup{addr: "10.0.0.4"}}

	addr, err := chain.LookupIPv4(context.Background(), "dd-left.local")
	if err != nil {
		t.Fatalf("LookupIPv4 failed: %v", err)
	}
	if addr != "10.0.0.4" {
		t.Errorf("Expected 10.0.0.4, got %s", addr)
	}

	second := errors.New("second failed")
	chain = ChainLookup{staticLookup{err: first}, staticLookup{err: second}}
	_, err = chain.LookupIPv4(context.Background(), "dd-left.local")
	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Errorf("Expected joined errors, got %v", err)
	}

	if _, err := (ChainLookup{}).LookupIPv4(context.Background(), "x"); err == nil {
		t.Error("Expected error from empty chain")
	}
}

func TestMulticastLookupRejectsNonLocalNames(t *testing.T) {
	_, err := MulticastLookup{}.LookupIPv4(context.Background(), "example.com")
	if err == nil || !strings.Contains(err.Error(), "not a .local name") {
		t.Errorf("Expected non-local rejection, got %v", err)
	}
}

func TestAnswerA(t *testing.T) {
	msg := new(dns.Msg)
	msg.Answer = []dns.RR{
		&dns.AAAA{Hdr: dns.RR_Header{Name: "dd-left.local.", Rrtype: dns.TypeAAAA, Class: dns.ClassINET}, AAAA: net.ParseIP("fe80::1")},
		&dns.A{Hdr: dns.RR_Header{Name: "other.local.", Rrtype: dns.TypeA, Class: dns.ClassINET}, A: net.ParseIP("10.0.0.8")},
	}
	msg.Extra = []dns.RR{
		&dns.A{Hdr: dns.RR_Header{Name: "DD-Left.local.", Rrtype: dns.TypeA, Class: dns.ClassINET}, A: net.ParseIP("10.0.0.7")},
	}

	addr, ok := answerA(msg, "dd-left.local.")
	if !ok || addr != "10.0.0.7" {
		t.Errorf("Expected 10.0.0.7, got %q (%v)", addr, ok)
	}
	if _, ok := answerA(msg, "missing.local."); ok {
		t.Error("Expected no answer for missing name")
	}
}

func TestSystemLookupLocalhost(t *testing.T) {
	addr, err := SystemLookup{}.LookupIPv4(context.Background(), "localhost")
	if err != nil {
		t.Skipf("localhost does not resolve here: %v", err)
	}
	if net.ParseIP(addr).To4() == nil {
		t.Errorf("Expected IPv4 address, got %s", addr)
	}
}

func TestDiscoveredServiceSeed(t *testing.T) {
	svc := DiscoveredService{Host: "dd-left.local.", Address: "10.0.0.7"}
	if svc.Seed() != "dd-left.local" {
		t.Errorf("Expected dd-left.local, got %s", svc.Seed())
	}
	svc.Host = ""
	if svc.Seed() != "10.0.0.7" {
		t.Errorf("Expected 10.0.0.7, got %s", svc.Seed())
	}
}
