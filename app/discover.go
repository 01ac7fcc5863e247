package app

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mbocsi/dutchctl/client"
	"github.com/spf13/cobra"
)

func (a *App) discoverCmd() *cobra.Command {
	var service string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Browse the local network for speakers over mDNS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := client.Discover(cmd.Context(), service, timeout)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				fmt.Fprintf(a.Stderr, "No %s services found\n", service)
				return nil
			}

			tw := tabwriter.NewWriter(a.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TARGET\tADDRESS\tPORT\tNAME\tINFO")
			for _, svc := range found {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
					svc.Seed(), svc.Address, svc.Port, svc.Name, strings.Join(svc.TXTRecords, " "))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&service, "service", client.DefaultDiscoveryService, "mDNS service type to browse")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "how long to listen for answers")
	return cmd
}
