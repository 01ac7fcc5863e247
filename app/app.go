package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mbocsi/dutchctl/client"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var errUsage = errors.New("usage")

// App wires the command line to the client. Tests replace NewTransport and
// Lookup to keep everything off the network.
type App struct {
	Stdout       io.Writer
	Stderr       io.Writer
	NewTransport func() client.Transport
	Lookup       client.Lookup

	cfg Config

	// flags
	configPath      string
	logLevel        string
	presets         map[string]string
	controlPort     int
	resolveAttempts int
}

func New() *App {
	return &App{
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		NewTransport: func() client.Transport { return client.NewWebSocketTransport() },
		Lookup:       client.DefaultLookup(),
	}
}

// Execute runs the command line and returns the process exit status.
func (a *App) Execute(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.Stdout)
	root.SetErr(a.Stderr)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		a.printUsage()
		return 1
	default:
		fmt.Fprintf(a.Stderr, "Error: %s\n", err)
		return 1
	}
}

func commandNames() []string {
	cat, err := client.NewCatalogue(nil)
	if err != nil {
		panic("command catalogue: " + err.Error())
	}
	return cat.Names()
}

func (a *App) printUsage() {
	fmt.Fprintf(a.Stderr, "Usage: dutchctl <target> <command>\n\n")
	fmt.Fprintf(a.Stderr, "  <target>   hostname or IPv4 address of a speaker; an address is used as the master directly\n")
	fmt.Fprintf(a.Stderr, "  <command>  one of: %s\n\n", strings.Join(commandNames(), ", "))
	fmt.Fprintf(a.Stderr, "Other commands: serve, mcp, discover, emulate, version (see dutchctl help)\n")
}

func (a *App) rootCmd() *cobra.Command {
	valid := commandNames()

	root := &cobra.Command{
		Use:   "dutchctl <target> <command>",
		Short: "Control Dutch & Dutch 8C speakers",
		Long: `dutchctl sends one command to a pair of Dutch & Dutch 8C speakers.

The target may be the hostname of either speaker, in which case the room
master is looked up and its address printed, or the IPv4 address of the
master, which is then used directly.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errUsage
			}
			for _, name := range valid {
				if args[1] == name {
					return nil
				}
			}
			return errUsage
		},
		ValidArgs:         valid,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runCommand,
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "JSON config file (default $"+ConfigEnv+")")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringToStringVar(&a.presets, "preset", nil, "preset ID, e.g. --preset Harman=<uuid> (repeatable)")
	flags.IntVar(&a.controlPort, "port", client.ControlPort, "control port of the speakers")
	flags.IntVar(&a.resolveAttempts, "resolve-attempts", client.DefaultResolveAttempts, "hostname resolution attempts")

	root.AddCommand(
		a.serveCmd(),
		a.mcpCmd(),
		a.discoverCmd(),
		a.emulateCmd(),
		versionCmd(),
	)
	return root
}

// setup loads the config, applies flag overrides and installs the logger.
func (a *App) setup(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.ControlPort = a.controlPort
	}
	if flags.Changed("resolve-attempts") {
		cfg.ResolveAttempts = a.resolveAttempts
	}
	for name, id := range a.presets {
		cfg.Presets[name] = id
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = cmd.Annotations["defaultLogLevel"]
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := setupLogger(a.Stderr, cfg.LogLevel); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func setupLogger(w io.Writer, level string) error {
	var lvl slog.Level
	if level == "" {
		lvl = slog.LevelWarn
	} else if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: lvl,
	})
	slog.SetDefault(slog.New(handler))
	return nil
}

// newClient builds a client from the loaded config. The resolved master
// address is printed to out.
func (a *App) newClient(out io.Writer) (*client.Client, error) {
	cat, err := client.NewCatalogue(a.cfg.Presets)
	if err != nil {
		return nil, err
	}

	resolver := client.NewResolver(a.NewTransport, a.Lookup)
	resolver.Port = a.cfg.ControlPort
	resolver.Attempts = a.cfg.ResolveAttempts
	resolver.Backoff = durationOrDefault(a.cfg.ResolveBackoff, client.DefaultResolveBackoff)
	resolver.Timeout = durationOrDefault(a.cfg.ResolveTimeout, client.DefaultResolveTimeout)
	resolver.Out = out

	return client.NewClient(resolver, a.NewTransport, cat), nil
}

func durationOrDefault(d Duration, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return time.Duration(d)
}

func (a *App) runCommand(cmd *cobra.Command, args []string) error {
	c, err := a.newClient(a.Stdout)
	if err != nil {
		return err
	}

	out, err := c.Run(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, out, "", "  "); err != nil {
		return fmt.Errorf("format output: %w", err)
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(a.Stdout)
	return err
}
