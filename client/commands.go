package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/mbocsi/dutchctl/proto"
)

// Input modes accepted by the inputMode endpoint.
const (
	InputAES     = "aes"
	InputRoon    = "Roon Ready"
	InputSpotify = "Spotify Connect"
)

// SafeInputGain is applied before switching inputs to avoid a loud transient.
const SafeInputGain = -30.0

// MaxGain is the loudest room gain the speakers accept, in dB.
const MaxGain = 0.0

// ValidateGain rejects gains above MaxGain and non-finite values.
func ValidateGain(gain float64) error {
	if math.IsNaN(gain) || math.IsInf(gain, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidGain, gain)
	}
	if gain > MaxGain {
		return fmt.Errorf("%w: %.1f dB is above %.0f dB", ErrInvalidGain, gain, MaxGain)
	}
	return nil
}

func (s *Session) update(ctx context.Context, req proto.Request) error {
	_, err := s.Request(ctx, req)
	return err
}

func (s *Session) Sleep(ctx context.Context) error {
	return s.update(ctx, proto.SleepUpdate{Enable: true})
}

func (s *Session) Wake(ctx context.Context) error {
	return s.update(ctx, proto.SleepUpdate{Enable: false})
}

// SetVolume sets the room gain in dB.
func (s *Session) SetVolume(ctx context.Context, gain float64) error {
	if err := ValidateGain(gain); err != nil {
		return err
	}
	return s.update(ctx, proto.GainUpdate{Gain: gain})
}

// SetInput wakes the room, drops the volume to SafeInputGain and then selects
// mode. A failure leaves the steps already taken in place.
func (s *Session) SetInput(ctx context.Context, mode string) error {
	if err := s.Wake(ctx); err != nil {
		return fmt.Errorf("set input %q: wake: %w", mode, err)
	}
	if err := s.SetVolume(ctx, SafeInputGain); err != nil {
		return fmt.Errorf("set input %q: attenuate: %w", mode, err)
	}
	if err := s.update(ctx, proto.InputModeUpdate{InputMode: mode}); err != nil {
		return fmt.Errorf("set input %q: %w", mode, err)
	}
	return nil
}

func (s *Session) streaming(ctx context.Context, action string) error {
	return s.update(ctx, proto.StreamingCommand{Action: action})
}

func (s *Session) Play(ctx context.Context) error     { return s.streaming(ctx, proto.ActionPlay) }
func (s *Session) Pause(ctx context.Context) error    { return s.streaming(ctx, proto.ActionPause) }
func (s *Session) Next(ctx context.Context) error     { return s.streaming(ctx, proto.ActionNext) }
func (s *Session) Previous(ctx context.Context) error { return s.streaming(ctx, proto.ActionPrevious) }

// TogglePlay pauses the room if its streamer is playing and plays it otherwise.
func (s *Session) TogglePlay(ctx context.Context) error {
	resp, err := s.RequestTarget(ctx, proto.NetworkRead{}, proto.WildcardTarget)
	if err != nil {
		return fmt.Errorf("toggle play: %w", err)
	}
	playing, err := proto.IsPlaying(resp, s.roomTarget)
	if err != nil {
		return fmt.Errorf("toggle play: %w", err)
	}

	slog.Debug("Toggling playback", "target", s.roomTarget, "playing", playing)
	if playing {
		return s.Pause(ctx)
	}
	return s.Play(ctx)
}

func (s *Session) SelectPreset(ctx context.Context, presetID string) error {
	return s.update(ctx, proto.PresetSelect{PresetID: presetID})
}

// SetBacch turns BACCH spatial processing on or off.
func (s *Session) SetBacch(ctx context.Context, enable bool) error {
	return s.update(ctx, proto.BacchUpdate{Enable: enable})
}

// Dump returns the full network state tree as received.
func (s *Session) Dump(ctx context.Context) (json.RawMessage, error) {
	resp, err := s.RequestTarget(ctx, proto.NetworkRead{}, proto.WildcardTarget)
	if err != nil {
		return nil, fmt.Errorf("dump: %w", err)
	}
	return json.RawMessage(resp.Raw()), nil
}
