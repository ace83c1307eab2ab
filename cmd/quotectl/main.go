// Package main provides quotectl, a command-line client for the quotebook API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const (
	defaultServer  = "http://localhost:8080"
	defaultSession = "quotectl"
	requestTimeout = 30 * time.Second
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	server  string
	session string
	json    bool

	client *apiClient
}

func main() {
	if err := newRootCmd(http.DefaultClient).ExecuteContext(context.Background()); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. httpClient is used for every API call.
func newRootCmd(httpClient *http.Client) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "quotectl",
		Short: "Manage a quotebook collection",
		Long: `quotectl drives a running quotebook service: show random quotes,
add and list quotes, filter by category, move the collection in and out
as JSON, and sync with the configured remote source.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			opts.client = newAPIClient(httpClient, opts.server, opts.session)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.server, "server", envOr("QUOTECTL_SERVER", defaultServer), "quotebook base URL")
	flags.StringVar(&opts.session, "session", envOr("QUOTECTL_SESSION", defaultSession), "session ID sent as X-Session-ID")
	flags.BoolVar(&opts.json, "json", false, "print raw JSON responses")

	root.AddCommand(
		newNextCmd(opts),
		newAddCmd(opts),
		newListCmd(opts),
		newCategoriesCmd(opts),
		newFilterCmd(opts),
		newStatsCmd(opts),
		newClearCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
		newSessionCmd(opts),
		newSyncCmd(opts),
		newResolveCmd(opts),
		newStatusCmd(opts),
	)

	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

// requestContext bounds one API call.
func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithTimeout(ctx, requestTimeout)
}

// emit prints v as indented JSON when --json is set, otherwise calls human.
func (o *options) emit(cmd *cobra.Command, v any, human func()) error {
	if o.json {
		return writeJSON(cmd.OutOrStdout(), v)
	}

	human()

	return nil
}

func success(cmd *cobra.Command, format string, args ...any) {
	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

func warn(cmd *cobra.Command, format string, args ...any) {
	color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}

func printLine(cmd *cobra.Command, args ...any) {
	fmt.Fprintln(cmd.OutOrStdout(), args...)
}
