package emulator

import (
	"encoding/json"
	"fmt"

	"github.com/mbocsi/dutchctl/client"
	"github.com/mbocsi/dutchctl/proto"
)

// State holds the settings the control commands change.
type State struct {
	Sleep     bool    `json:"sleep"`
	Gain      float64 `json:"gain"`
	InputMode string  `json:"inputMode"`
	Playing   bool    `json:"is_playing"`
	Track     int     `json:"track"`
	PresetID  string  `json:"presetID"`
	Bacch     bool    `json:"bacch"`
}

func DefaultState() State {
	return State{
		Sleep:     true,
		Gain:      -30,
		InputMode: "aes",
	}
}

type response struct {
	Meta proto.Meta `json:"meta"`
	Data any        `json:"data"`
}

func errorResponse(meta proto.Meta, err error) []byte {
	b, _ := json.Marshal(response{Meta: meta, Data: map[string]string{"error": err.Error()}})
	return b
}

// handle applies one request and returns the reply. Updates echo their data.
func (s *Speaker) handle(env proto.Envelope) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, env.Meta)

	var data any
	switch env.Meta.Endpoint {
	case "master":
		data = map[string]any{
			"address": map[string]any{"hostname": s.Hostname, "port_ascend": s.Port()},
		}
	case "targets":
		data = []proto.TargetDescriptor{
			{Target: "spk-left", TargetType: "speaker"},
			{Target: s.Room, TargetType: proto.TargetTypeRoom},
			{Target: "spk-right", TargetType: "speaker"},
		}
	case "network":
		data = s.networkLocked()
	default:
		if err := s.applyLocked(env); err != nil {
			return nil, err
		}
		data = env.Data
	}
	return json.Marshal(response{Meta: env.Meta, Data: data})
}

func (s *Speaker) networkLocked() map[string]any {
	room := map[string]any{
		"targetType": proto.TargetTypeRoom,
		"data": map[string]any{
			"sleep":         s.state.Sleep,
			"gain":          s.state.Gain,
			"inputMode":     s.state.InputMode,
			"bacch":         s.state.Bacch,
			"presetID":      s.state.PresetID,
			"streamingInfo": map[string]any{"is_playing": s.state.Playing, "track": s.state.Track},
		},
	}
	speaker := map[string]any{"targetType": "speaker", "data": map[string]any{"room": s.Room}}
	return map[string]any{
		"state": map[string]any{
			s.Room:      room,
			"spk-left":  speaker,
			"spk-right": speaker,
		},
	}
}

func (s *Speaker) applyLocked(env proto.Envelope) error {
	if env.Meta.Target != s.Room {
		return fmt.Errorf("unknown target %q", env.Meta.Target)
	}

	switch env.Meta.Endpoint {
	case "sleep":
		var req proto.SleepUpdate
		if err := env.DecodeData(&req); err != nil {
			return err
		}
		s.state.Sleep = req.Enable
	case "gain2":
		var req proto.GainUpdate
		if err := env.DecodeData(&req); err != nil {
			return err
		}
		if err := client.ValidateGain(req.Gain); err != nil {
			return err
		}
		s.state.Gain = req.Gain
	case "inputMode":
		var req proto.InputModeUpdate
		if err := env.DecodeData(&req); err != nil {
			return err
		}
		s.state.InputMode = req.InputMode
	case "preset2":
		var req proto.PresetSelect
		if err := env.DecodeData(&req); err != nil {
			return err
		}
		s.state.PresetID = req.PresetID
	case "bacch-enabled":
		var req proto.BacchUpdate
		if err := env.DecodeData(&req); err != nil {
			return err
		}
		s.state.Bacch = req.Enable
	case "streaming-api":
		var req struct {
			Method string `json:"method"`
		}
		if err := env.DecodeData(&req); err != nil {
			return err
		}
		switch req.Method {
		case proto.ActionPlay:
			s.state.Playing = true
		case proto.ActionPause:
			s.state.Playing = false
		case proto.ActionNext:
			s.state.Track++
		case proto.ActionPrevious:
			if s.state.Track > 0 {
				s.state.Track--
			}
		default:
			return fmt.Errorf("unknown streaming method %q", req.Method)
		}
	default:
		return fmt.Errorf("unknown endpoint %q", env.Meta.Endpoint)
	}
	return nil
}
