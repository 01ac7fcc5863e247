package app

import (
	"github.com/mbocsi/dutchctl/emulator"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func (a *App) emulateCmd() *cobra.Command {
	var listen, hostname string

	cmd := &cobra.Command{
		Use:   "emulate",
		Short: "Run a speaker emulator that answers the control protocol",
		Long: `Run a room master emulator. It reports --hostname as the master
hostname, so point that name at this machine to test hostname targets.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"defaultLogLevel": "info"},
		RunE: func(cmd *cobra.Command, args []string) error {
			sp := emulator.NewSpeaker(listen, hostname)
			if err := sp.Listen(); err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(cmd.Context())
			g.Go(sp.Start)
			g.Go(func() error {
				<-gctx.Done()
				return sp.Shutdown()
			})
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":8768", "control address to listen on")
	cmd.Flags().StringVar(&hostname, "hostname", "localhost", "hostname reported as the room master")
	return cmd
}
