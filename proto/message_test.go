package proto

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		method   Method
		endpoint string
		target   string
		data     any
		wantData string
	}{
		{"empty read", MethodRead, "targets", WildcardTarget, nil, `{}`},
		{"sleep", MethodUpdate, "sleep", "room-1", map[string]any{"enable": true}, `{"enable":true}`},
		{"gain", MethodUpdate, "gain2", "room-1", GainUpdate{Gain: -30}, `{"gain":-30}`},
		{"preset", MethodSelect, "preset2", "room-1", PresetSelect{PresetID: "abc"}, `{"presetID":"abc"}`},
		{"empty target", MethodRead, "master", "", struct{}{}, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Encode(tt.method, tt.endpoint, tt.target, tt.data)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			env, err := Decode(msg)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}

			want := Meta{ID: ClientID, Method: tt.method, Endpoint: tt.endpoint, TargetType: TargetTypeRoom, Target: tt.target}
			if env.Meta != want {
				t.Errorf("Expected meta %+v, got %+v", want, env.Meta)
			}
			if string(env.Data) != tt.wantData {
				t.Errorf("Expected data %s, got %s", tt.wantData, env.Data)
			}
			if string(env.Raw()) != string(msg) {
				t.Errorf("Expected raw message to be kept")
			}
		})
	}
}

func TestEncodeAlwaysHasFullMeta(t *testing.T) {
	msg, err := EncodeRequest(TargetsRead{}, WildcardTarget)
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}

	var raw map[string]map[string]any
	if err := json.Unmarshal(msg, &raw); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	for _, key := range []string{"id", "method", "endpoint", "targetType", "target"} {
		if _, ok := raw["meta"][key]; !ok {
			t.Errorf("Expected meta.%s to be present", key)
		}
	}
	if _, ok := raw["data"]; !ok {
		t.Error("Expected data to be present")
	}
}

func TestEncodeRequestPayloads(t *testing.T) {
	tests := []struct {
		req      Request
		method   Method
		endpoint string
		data     string
	}{
		{SleepUpdate{Enable: true}, MethodUpdate, "sleep", `{"enable":true}`},
		{SleepUpdate{Enable: false}, MethodUpdate, "sleep", `{"enable":false}`},
		{GainUpdate{Gain: -12.5}, MethodUpdate, "gain2", `{"gain":-12.5}`},
		{InputModeUpdate{InputMode: "Roon Ready"}, MethodUpdate, "inputMode", `{"inputMode":"Roon Ready"}`},
		{StreamingCommand{Action: ActionPlay}, MethodUpdate, "streaming-api", `{"method":"Play","arguments":[]}`},
		{PresetSelect{PresetID: "id"}, MethodSelect, "preset2", `{"presetID":"id"}`},
		{BacchUpdate{Enable: true}, MethodUpdate, "bacch-enabled", `{"enable":true}`},
		{NetworkRead{}, MethodRead, "network", `{}`},
		{MasterRead{}, MethodRead, "master", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			msg, err := EncodeRequest(tt.req, "room-1")
			if err != nil {
				t.Fatalf("EncodeRequest failed: %v", err)
			}
			env, err := Decode(msg)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if env.Meta.Method != tt.method || env.Meta.Endpoint != tt.endpoint {
				t.Errorf("Expected %s %s, got %s %s", tt.method, tt.endpoint, env.Meta.Method, env.Meta.Endpoint)
			}
			if string(env.Data) != tt.data {
				t.Errorf("Expected data %s, got %s", tt.data, env.Data)
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode([]byte("not json")); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("Expected ErrMalformedResponse, got %v", err)
	}

	env, err := Decode([]byte(`{"meta":{"endpoint":"targets"}}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	var v []TargetDescriptor
	if err := env.DecodeData(&v); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("Expected ErrMalformedResponse for missing data, got %v", err)
	}

	env, _ = Decode([]byte(`{"meta":{},"data":null}`))
	if err := env.DecodeData(&v); !errors.Is(err, ErrMalformedResponse) {
		t.Errorf("Expected ErrMalformedResponse for null data, got %v", err)
	}
}
