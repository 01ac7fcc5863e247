package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/mbocsi/dutchctl/proto"
)

const testRoom = "room-7f3a"

// fakeSpeaker answers like a room master with one room and two speakers.
type fakeSpeaker struct {
	masterHost string
	masterPort int
	targets    string // JSON array used as the targets data
	playing    bool
}

func newFakeSpeaker() *fakeSpeaker {
	return &fakeSpeaker{
		masterHost: "dd-left.local",
		masterPort: 8768,
		targets: `[{"target":"spk-l","targetType":"speaker"},` +
			`{"target":"` + testRoom + `","targetType":"room"},` +
			`{"target":"spk-r","targetType":"speaker"}]`,
	}
}

func (f *fakeSpeaker) respond(env proto.Envelope) string {
	var data string
	switch env.Meta.Endpoint {
	case "master":
		data = fmt.Sprintf(`{"address":{"hostname":%q,"port_ascend":%d}}`, f.masterHost, f.masterPort)
	case "targets":
		data = f.targets
	case "network":
		data = fmt.Sprintf(`{"state":{%q:{"data":{"streamingInfo":{"is_playing":%t}}}}}`, testRoom, f.playing)
	default:
		data = string(env.Data)
	}
	meta, _ := json.Marshal(env.Meta)
	return fmt.Sprintf(`{"meta":%s,"data":%s}`, meta, data)
}

type fakeTransport struct {
	mu         sync.Mutex
	respond    func(proto.Envelope) string
	connectErr error
	sendErr    error
	closeErr   error

	addr    string
	sent    []proto.Envelope
	pending [][]byte
	closed  int
}

func (t *fakeTransport) Connect(addr string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addr = addr
	return t.connectErr
}

func (t *fakeTransport) Send(msg []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sendErr != nil {
		return t.sendErr
	}
	env, err := proto.Decode(msg)
	if err != nil {
		return err
	}
	t.sent = append(t.sent, env)
	if t.respond != nil {
		t.pending = append(t.pending, []byte(t.respond(env)))
	}
	return nil
}

func (t *fakeTransport) Read() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.pending) == 0 {
		return nil, errors.New("connection closed")
	}
	msg := t.pending[0]
	t.pending = t.pending[1:]
	return msg, nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed++
	return t.closeErr
}

// endpoints lists the endpoints sent, in order.
func (t *fakeTransport) endpoints() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var eps []string
	for _, env := range t.sent {
		eps = append(eps, env.Meta.Endpoint)
	}
	return eps
}

// fakeDialer hands out fakeTransports bound to one speaker.
type fakeDialer struct {
	speaker    *fakeSpeaker
	transports []*fakeTransport
}

func (d *fakeDialer) New() Transport {
	t := &fakeTransport{respond: d.speaker.respond}
	d.transports = append(d.transports, t)
	return t
}

type fakeLookup struct {
	failures int
	calls    int
	addr     string
}

func (l *fakeLookup) LookupIPv4(ctx context.Context, host string) (string, error) {
	l.calls++
	if l.calls <= l.failures {
		return "", fmt.Errorf("lookup %s: no such host", host)
	}
	return l.addr, nil
}

func openTestSession(t *testing.T, speaker *fakeSpeaker) (*Session, *fakeTransport) {
	t.Helper()
	tr := &fakeTransport{respond: speaker.respond}
	s, err := Open(context.Background(), tr, MasterEndpoint{Host: "192.168.1.50", Port: ControlPort})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s, tr
}
