package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/app"
)

func newSyncCmd(opts *options) *cobra.Command {
	var focus bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync with the remote source now",
		Long: `sync fetches the remote snapshot and compares it with the local
collection. Any difference is resolved by taking the remote copy; use
"resolve" to keep local quotes or merge instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			path := "/sync"
			if focus {
				path = "/sync/focus"
			}

			var res app.SyncResult
			if err := opts.client.call(ctx, http.MethodPost, path, nil, &res); err != nil {
				if isStatus(err, http.StatusServiceUnavailable) {
					warn(cmd, "remote source unavailable; local quotes are unchanged")
				}

				return err
			}

			return opts.emit(cmd, res, func() { printSyncResult(cmd, res) })
		},
	}

	cmd.Flags().BoolVar(&focus, "focus", false, "report the sync as a focus trigger")

	return cmd
}

func newResolveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "resolve <remote|local|merge>",
		Short:     "Resolve differences with an explicit policy",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"remote", "local", "merge"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			var res app.SyncResult
			if err := opts.client.call(ctx, http.MethodPost, "/sync/resolve", dto.ResolveRequest{Policy: args[0]}, &res); err != nil {
				return err
			}

			return opts.emit(cmd, res, func() { printSyncResult(cmd, res) })
		},
	}
}

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			var status app.SyncStatus
			if err := opts.client.call(ctx, http.MethodGet, "/sync/status", nil, &status); err != nil {
				return err
			}

			return opts.emit(cmd, status, func() { printSyncStatus(cmd, status) })
		},
	}
}

func printSyncResult(cmd *cobra.Command, res app.SyncResult) {
	if res.Outcome == app.OutcomeInSync {
		success(cmd, "In sync (%d quotes)", res.Total)
		return
	}

	success(cmd, "Resolved with %s policy (%d quotes)", res.Policy, res.Total)
	printLine(cmd, fmt.Sprintf("  modified: %d  server only: %d  local only: %d",
		len(res.Diff.Modified), len(res.Diff.ServerOnly), len(res.Diff.LocalOnly)))
}

func printSyncStatus(cmd *cobra.Command, s app.SyncStatus) {
	printLine(cmd, fmt.Sprintf("state:     %s", s.State))

	if s.LastOutcome != "" {
		printLine(cmd, fmt.Sprintf("last run:  %s", s.LastOutcome))
	}

	printLine(cmd, fmt.Sprintf("source:    %s", s.Source))
	printLine(cmd, fmt.Sprintf("last sync: %s", relative(s.LastSyncAt)))

	if s.InFlight > 0 {
		printLine(cmd, fmt.Sprintf("in flight: %d", s.InFlight))
	}

	if s.Pending {
		warn(cmd, "a remote snapshot is waiting for \"resolve\"")
	}

	if s.LastError != "" {
		warn(cmd, "last error: %s", s.LastError)
	}
}

func relative(t *time.Time) string {
	if t == nil {
		return "never"
	}

	return humanize.Time(*t)
}
