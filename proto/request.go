package proto

import "encoding/json"

// Request is one endpoint×method pair of the protocol. The value itself is
// the data payload.
type Request interface {
	Method() Method
	Endpoint() string
}

// MasterRead asks any unit which unit is the room master.
type MasterRead struct{}

func (MasterRead) Method() Method   { return MethodRead }
func (MasterRead) Endpoint() string { return "master" }

// TargetsRead lists rooms and speakers known to the master.
type TargetsRead struct{}

func (TargetsRead) Method() Method   { return MethodRead }
func (TargetsRead) Endpoint() string { return "targets" }

// NetworkRead returns the full state tree of every target.
type NetworkRead struct{}

func (NetworkRead) Method() Method   { return MethodRead }
func (NetworkRead) Endpoint() string { return "network" }

type SleepUpdate struct {
	Enable bool `json:"enable"`
}

func (SleepUpdate) Method() Method   { return MethodUpdate }
func (SleepUpdate) Endpoint() string { return "sleep" }

// GainUpdate sets the room volume in dB.
type GainUpdate struct {
	Gain float64 `json:"gain"`
}

func (GainUpdate) Method() Method   { return MethodUpdate }
func (GainUpdate) Endpoint() string { return "gain2" }

type InputModeUpdate struct {
	InputMode string `json:"inputMode"`
}

func (InputModeUpdate) Method() Method   { return MethodUpdate }
func (InputModeUpdate) Endpoint() string { return "inputMode" }

// Streaming transport actions.
const (
	ActionPlay     = "Play"
	ActionPause    = "Pause"
	ActionNext     = "Next"
	ActionPrevious = "Previous"
)

// StreamingCommand drives the built-in streaming player.
type StreamingCommand struct {
	Action    string
	Arguments []any
}

func (StreamingCommand) Method() Method   { return MethodUpdate }
func (StreamingCommand) Endpoint() string { return "streaming-api" }

func (c StreamingCommand) MarshalJSON() ([]byte, error) {
	args := c.Arguments
	if args == nil {
		args = []any{}
	}
	return json.Marshal(struct {
		Method    string `json:"method"`
		Arguments []any  `json:"arguments"`
	}{c.Action, args})
}

type PresetSelect struct {
	PresetID string `json:"presetID"`
}

func (PresetSelect) Method() Method   { return MethodSelect }
func (PresetSelect) Endpoint() string { return "preset2" }

// BacchUpdate toggles BACCH spatial processing.
type BacchUpdate struct {
	Enable bool `json:"enable"`
}

func (BacchUpdate) Method() Method   { return MethodUpdate }
func (BacchUpdate) Endpoint() string { return "bacch-enabled" }
