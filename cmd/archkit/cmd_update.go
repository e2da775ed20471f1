package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/archkit/internal/server"
	"github.com/HendryAvila/archkit/internal/updater"
)

// newUpdater is replaced in tests to point at a fake release server.
var newUpdater = func() *updater.Client { return updater.New() }

func newUpdateCmd() *cobra.Command {
	var checkOnly bool
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update archkit to the latest GitHub release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			u := newUpdater()

			if checkOnly {
				res, err := u.Check(cmd.Context(), server.Version)
				if err != nil {
					return err
				}
				if !res.UpdateAvailable {
					fmt.Fprintf(out, "archkit %s is up to date\n", server.Version)
					return nil
				}
				fmt.Fprintf(out, "Update available: %s -> %s\n%s\n", res.CurrentVersion, res.LatestVersion, res.ReleaseURL)
				return nil
			}

			res, err := u.Apply(cmd.Context(), server.Version)
			if errors.Is(err, updater.ErrUpToDate) {
				fmt.Fprintf(out, "archkit %s is up to date\n", server.Version)
				return nil
			}
			if err != nil {
				if res != nil && res.ReleaseURL != "" {
					return fmt.Errorf("%w (download manually from %s)", err, res.ReleaseURL)
				}
				return err
			}
			fmt.Fprintf(out, "Updated %s -> %s. Restart running archkit servers to pick it up.\n",
				res.CurrentVersion, res.LatestVersion)
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only report whether an update exists")
	return cmd
}

// logAvailableUpdate checks for a newer release and logs a notice.
// Failures are logged at debug level only.
func logAvailableUpdate(ctx context.Context) {
	res, err := newUpdater().Check(ctx, server.Version)
	if err != nil {
		slog.Debug("update check failed", "error", err)
		return
	}
	if res.UpdateAvailable {
		slog.Info("update available; run `archkit update`",
			"current", res.CurrentVersion, "latest", res.LatestVersion, "release", res.ReleaseURL)
	}
}
