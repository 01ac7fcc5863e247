package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mbocsi/dutchctl/client"
)

// ConfigEnv names the environment variable holding the config file path.
const ConfigEnv = "DUTCHCTL_CONFIG"

// Duration reads "1s"-style strings from JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"1s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

type Config struct {
	ControlPort     int               `json:"control_port"`
	ResolveAttempts int               `json:"resolve_attempts"`
	ResolveBackoff  Duration          `json:"resolve_backoff"`
	ResolveTimeout  Duration          `json:"resolve_timeout"` // whole hostname resolution step
	Target          string            `json:"target"` // default target for serve and mcp
	Listen          string            `json:"listen"`
	LogLevel        string            `json:"log_level"`
	Presets         map[string]string `json:"presets"` // preset name -> preset UUID
}

func DefaultConfig() Config {
	return Config{
		ControlPort:     client.ControlPort,
		ResolveAttempts: client.DefaultResolveAttempts,
		ResolveBackoff:  Duration(client.DefaultResolveBackoff),
		ResolveTimeout:  Duration(client.DefaultResolveTimeout),
		Listen:          ":8080",
		Presets:         map[string]string{},
	}
}

// LoadConfig reads path over the defaults. An empty path falls back to
// $DUTCHCTL_CONFIG; if neither is set the defaults are returned.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Presets == nil {
		cfg.Presets = map[string]string{}
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.ControlPort <= 0 || c.ControlPort > 65535 {
		errs = append(errs, fmt.Errorf("control_port %d out of range", c.ControlPort))
	}
	if c.ResolveAttempts <= 0 {
		errs = append(errs, fmt.Errorf("resolve_attempts must be positive, got %d", c.ResolveAttempts))
	}
	if c.ResolveBackoff < 0 {
		errs = append(errs, fmt.Errorf("resolve_backoff must not be negative"))
	}
	if c.ResolveTimeout < 0 {
		errs = append(errs, fmt.Errorf("resolve_timeout must not be negative"))
	}
	return errors.Join(errs...)
}
