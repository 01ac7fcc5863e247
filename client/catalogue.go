package client

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Preset names that have a command literal.
var PresetNames = []string{"Harman", "Bass", "Loud1", "Loud3"}

// Action runs against an open session. Only dump returns output.
type Action func(ctx context.Context, s *Session) (json.RawMessage, error)

type Command struct {
	Name        string
	Description string
	Run         Action

	// unavailable is set when the command cannot run with the current
	// configuration, e.g. a preset without an ID.
	unavailable error
}

// Available returns nil if the command can be run.
func (c Command) Available() error { return c.unavailable }

// Catalogue maps command-line literals to actions.
type Catalogue struct {
	commands map[string]Command
	order    []string
}

// noOutput adapts a Session method expression such as (*Session).Wake.
func noOutput(fn func(*Session, context.Context) error) Action {
	return func(ctx context.Context, s *Session) (json.RawMessage, error) {
		return nil, fn(s, ctx)
	}
}

// NewCatalogue builds the command set. presets maps preset names (Harman,
// Bass, Loud1, Loud3) to their preset IDs; every configured ID must be a UUID.
func NewCatalogue(presets map[string]string) (*Catalogue, error) {
	c := &Catalogue{commands: make(map[string]Command)}

	c.add("dump", "Print the full device and room state", func(ctx context.Context, s *Session) (json.RawMessage, error) {
		return s.Dump(ctx)
	})
	c.add("wake", "Wake the room from standby", noOutput((*Session).Wake))
	c.add("sleep", "Put the room into standby", noOutput((*Session).Sleep))
	c.add("play", "Start streaming playback", noOutput((*Session).Play))
	c.add("pause", "Pause streaming playback", noOutput((*Session).Pause))
	c.add("next", "Skip to the next track", noOutput((*Session).Next))
	c.add("previous", "Go back to the previous track", noOutput((*Session).Previous))
	c.add("toggleplay", "Pause if playing, otherwise play", noOutput((*Session).TogglePlay))
	c.add("inputAes", "Switch to the AES input", setInput(InputAES))
	c.add("inputRoon", "Switch to the Roon Ready input", setInput(InputRoon))
	c.add("inputSpotify", "Switch to the Spotify Connect input", setInput(InputSpotify))

	for name, id := range presets {
		if !slices.Contains(PresetNames, name) {
			return nil, fmt.Errorf("unknown preset %q (known: %v)", name, PresetNames)
		}
		if _, err := uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("preset %s: invalid id %q: %w", name, id, err)
		}
	}
	for _, name := range PresetNames {
		cmd := Command{
			Name:        "preset" + name,
			Description: "Select the " + name + " preset",
		}
		if id, ok := presets[name]; ok {
			cmd.Run = noOutput(func(s *Session, ctx context.Context) error {
				return s.SelectPreset(ctx, id)
			})
		} else {
			cmd.unavailable = fmt.Errorf("%w: %s", ErrPresetNotConfigured, name)
		}
		c.register(cmd)
	}

	c.add("bacchOn", "Enable BACCH spatial processing", setBacch(true))
	c.add("bacchOff", "Disable BACCH spatial processing", setBacch(false))
	return c, nil
}

func setInput(mode string) Action {
	return noOutput(func(s *Session, ctx context.Context) error {
		return s.SetInput(ctx, mode)
	})
}

func setBacch(enable bool) Action {
	return noOutput(func(s *Session, ctx context.Context) error {
		return s.SetBacch(ctx, enable)
	})
}

func (c *Catalogue) add(name, description string, run Action) {
	c.register(Command{Name: name, Description: description, Run: run})
}

func (c *Catalogue) register(cmd Command) {
	c.commands[cmd.Name] = cmd
	c.order = append(c.order, cmd.Name)
}

func (c *Catalogue) Lookup(name string) (Command, bool) {
	cmd, ok := c.commands[name]
	return cmd, ok
}

// Names returns the command literals in catalogue order.
func (c *Catalogue) Names() []string {
	return slices.Clone(c.order)
}

// Commands returns every command in catalogue order.
func (c *Catalogue) Commands() []Command {
	cmds := make([]Command, 0, len(c.order))
	for _, name := range c.order {
		cmds = append(cmds, c.commands[name])
	}
	return cmds
}
