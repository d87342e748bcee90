package main

import (
	"fmt"
	"io"

	"github.com/mktbiz-byte/cnecbiz-functions/pkg/apperr"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/config"
	"github.com/mktbiz-byte/cnecbiz-functions/pkg/region"
	"github.com/spf13/cobra"
)

func regionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "Check that every region resolves to a backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			return checkRegions(cmd.OutOrStdout(), region.NewRegistry(cfg.Regions))
		},
	}
}

// checkRegions prints one line per region and fails when any region is unusable.
func checkRegions(w io.Writer, registry *region.Registry) error {
	missing := 0
	for _, r := range region.All {
		conn, err := registry.Resolve(string(r))
		if err != nil {
			missing++
			fmt.Fprintf(w, "%-6s MISSING %s\n", r, apperr.PublicMessage(err))
			continue
		}
		driver := "rest"
		if conn.DSN != "" {
			driver = "rest+dsn"
		}
		fmt.Fprintf(w, "%-6s OK      %s (%s)\n", r, conn.Endpoint, driver)
	}
	if missing > 0 {
		return fmt.Errorf("%d of %d regions are not configured", missing, len(region.All))
	}
	return nil
}
