package client

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mbocsi/dutchctl/proto"
)

type wireRequest struct {
	method   proto.Method
	endpoint string
	data     string
}

func assertRequests(t *testing.T, got []proto.Envelope, want []wireRequest) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Expected %d requests, got %d", len(want), len(got))
	}
	for i, w := range want {
		g := got[i]
		if g.Meta.Method != w.method || g.Meta.Endpoint != w.endpoint || string(g.Data) != w.data {
			t.Errorf("request %d: expected %s %s %s, got %s %s %s",
				i, w.method, w.endpoint, w.data, g.Meta.Method, g.Meta.Endpoint, g.Data)
		}
	}
}

func TestSimpleCommands(t *testing.T) {
	tests := []struct {
		name string
		run  func(*Session, context.Context) error
		want wireRequest
	}{
		{"sleep", (*Session).Sleep, wireRequest{proto.MethodUpdate, "sleep", `{"enable":true}`}},
		{"wake", (*Session).Wake, wireRequest{proto.MethodUpdate, "sleep", `{"enable":false}`}},
		{"play", (*Session).Play, wireRequest{proto.MethodUpdate, "streaming-api", `{"method":"Play","arguments":[]}`}},
		{"pause", (*Session).Pause, wireRequest{proto.MethodUpdate, "streaming-api", `{"method":"Pause","arguments":[]}`}},
		{"next", (*Session).Next, wireRequest{proto.MethodUpdate, "streaming-api", `{"method":"Next","arguments":[]}`}},
		{"previous", (*Session).Previous, wireRequest{proto.MethodUpdate, "streaming-api", `{"method":"Previous","arguments":[]}`}},
		{"volume", func(s *Session, ctx context.Context) error { return s.SetVolume(ctx, -12.5) },
			wireRequest{proto.MethodUpdate, "gain2", `{"gain":-12.5}`}},
		{"preset", func(s *Session, ctx context.Context) error {
			return s.SelectPreset(ctx, "6f1c2a4e-8b1d-4c36-9a0e-2d4f5b6c7d8e")
		}, wireRequest{proto.MethodSelect, "preset2", `{"presetID":"6f1c2a4e-8b1d-4c36-9a0e-2d4f5b6c7d8e"}`}},
		{"bacch on", func(s *Session, ctx context.Context) error { return s.SetBacch(ctx, true) },
			wireRequest{proto.MethodUpdate, "bacch-enabled", `{"enable":true}`}},
		{"bacch off", func(s *Session, ctx context.Context) error { return s.SetBacch(ctx, false) },
			wireRequest{proto.MethodUpdate, "bacch-enabled", `{"enable":false}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, tr := openTestSession(t, newFakeSpeaker())
			defer s.Close()

			if err := tt.run(s, context.Background()); err != nil {
				t.Fatalf("%s failed: %v", tt.name, err)
			}
			assertRequests(t, tr.sent[1:], []wireRequest{tt.want})
			if tr.sent[1].Meta.Target != testRoom {
				t.Errorf("Expected target %s, got %q", testRoom, tr.sent[1].Meta.Target)
			}
		})
	}
}

func TestSetInputOrder(t *testing.T) {
	for _, mode := range []string{InputAES, InputRoon, InputSpotify} {
		t.Run(mode, func(t *testing.T) {
			s, tr := openTestSession(t, newFakeSpeaker())
			defer s.Close()

			if err := s.SetInput(context.Background(), mode); err != nil {
				t.Fatalf("SetInput failed: %v", err)
			}

			modeJSON, _ := json.Marshal(mode)
			assertRequests(t, tr.sent[1:], []wireRequest{
				{proto.MethodUpdate, "sleep", `{"enable":false}`},
				{proto.MethodUpdate, "gain2", `{"gain":-30}`},
				{proto.MethodUpdate, "inputMode", `{"inputMode":` + string(modeJSON) + `}`},
			})
		})
	}
}

func TestSetInputStopsOnFailure(t *testing.T) {
	s, tr := openTestSession(t, newFakeSpeaker())
	defer s.Close()

	tr.sendErr = errors.New("broken pipe")
	err := s.SetInput(context.Background(), InputAES)
	if err == nil || !strings.Contains(err.Error(), "wake") {
		t.Fatalf("Expected wake step failure, got %v", err)
	}
	if len(tr.sent) != 1 {
		t.Errorf("Expected no requests after failure, got %v", tr.endpoints())
	}
}

func TestTogglePlay(t *testing.T) {
	tests := []struct {
		playing bool
		action  string
	}{
		{true, "Pause"},
		{false, "Play"},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			speaker := newFakeSpeaker()
			speaker.playing = tt.playing
			s, tr := openTestSession(t, speaker)
			defer s.Close()

			if err := s.TogglePlay(context.Background()); err != nil {
				t.Fatalf("TogglePlay failed: %v", err)
			}

			assertRequests(t, tr.sent[1:], []wireRequest{
				{proto.MethodRead, "network", `{}`},
				{proto.MethodUpdate, "streaming-api", `{"method":"` + tt.action + `","arguments":[]}`},
			})
			if tr.sent[1].Meta.Target != proto.WildcardTarget {
				t.Errorf("Expected wildcard target for state read, got %q", tr.sent[1].Meta.Target)
			}
			if tr.sent[2].Meta.Target != testRoom {
				t.Errorf("Expected room target for streaming command, got %q", tr.sent[2].Meta.Target)
			}
		})
	}
}

func TestTogglePlayMissingState(t *testing.T) {
	speaker := newFakeSpeaker()
	s, tr := openTestSession(t, speaker)
	defer s.Close()

	tr.respond = func(env proto.Envelope) string {
		return `{"meta":{"endpoint":"network"},"data":{"state":{}}}`
	}
	if err := s.TogglePlay(context.Background()); !errors.Is(err, proto.ErrMalformedResponse) {
		t.Fatalf("Expected ErrMalformedResponse, got %v", err)
	}
	if len(tr.sent) != 2 {
		t.Errorf("Expected no streaming command, got %v", tr.endpoints())
	}
}

func TestDump(t *testing.T) {
	s, tr := openTestSession(t, newFakeSpeaker())
	defer s.Close()

	out, err := s.Dump(context.Background())
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	var tree map[string]any
	if err := json.Unmarshal(out, &tree); err != nil {
		t.Fatalf("Dump returned invalid JSON: %v", err)
	}
	if _, ok := tree["meta"]; !ok {
		t.Error("Expected dump to include meta")
	}
	if _, ok := tree["data"]; !ok {
		t.Error("Expected dump to include data")
	}
	if tr.sent[1].Meta.Endpoint != "network" || tr.sent[1].Meta.Target != "*" {
		t.Errorf("Expected wildcard network read, got %+v", tr.sent[1].Meta)
	}
}
