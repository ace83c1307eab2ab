package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

func newNextCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show a random quote from the active category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			var r dto.RenderingResponse
			if err := opts.client.call(ctx, http.MethodGet, "/quotes/random", nil, &r); err != nil {
				return err
			}

			return opts.emit(cmd, r, func() {
				if r.Kind == domain.RenderQuote {
					printLine(cmd, r.Display)
					return
				}

				warn(cmd, "%s", r.Display)
			})
		},
	}
}

func newAddCmd(opts *options) *cobra.Command {
	var category, author string

	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a quote to the collection",
		Example: `  quotectl add "Stay hungry, stay foolish." --category Motivation
  quotectl add "Less is more." --category Wisdom --author "Mies van der Rohe"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			req := dto.CreateQuoteRequest{Text: args[0], Category: category, Author: author}

			var q dto.QuoteResponse
			if err := opts.client.call(ctx, http.MethodPost, "/quotes", req, &q); err != nil {
				return err
			}

			return opts.emit(cmd, q, func() {
				success(cmd, "Added to %s: %q", q.Category, q.Text)
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "quote category (required)")
	cmd.Flags().StringVarP(&author, "author", "a", "", "quote author")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func newListCmd(opts *options) *cobra.Command {
	var (
		category string
		limit    int
		all      bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quotes, optionally in one category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			var (
				items  []dto.QuoteResponse
				cursor string
				total  int
			)

			for {
				params := url.Values{}
				if category != "" {
					params.Set("category", category)
				}

				if limit > 0 {
					params.Set("limit", strconv.Itoa(limit))
				}

				if cursor != "" {
					params.Set("cursor", cursor)
				}

				var page dto.PaginatedResponse[dto.QuoteResponse]
				if err := opts.client.call(ctx, http.MethodGet, queryPath("/quotes", params), nil, &page); err != nil {
					return err
				}

				items = append(items, page.Items...)
				total = page.Total

				if !all || !page.HasMore {
					break
				}

				cursor = page.NextCursor
			}

			return opts.emit(cmd, items, func() {
				for _, q := range items {
					printLine(cmd, formatQuote(q))
				}

				if len(items) < total {
					warn(cmd, "showing %d of %d (use --all for the rest)", len(items), total)
				}
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "only list this category")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (server default when zero)")
	cmd.Flags().BoolVar(&all, "all", false, "follow cursors until every page is read")

	return cmd
}

func formatQuote(q dto.QuoteResponse) string {
	if q.Author == "" {
		return fmt.Sprintf("[%s] %s", q.Category, q.Text)
	}

	return fmt.Sprintf("[%s] %s - %s", q.Category, q.Text, q.Author)
}

func newCategoriesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories in first-appearance order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			var resp dto.CategoriesResponse
			if err := opts.client.call(ctx, http.MethodGet, "/categories", nil, &resp); err != nil {
				return err
			}

			return opts.emit(cmd, resp, func() {
				marker := func(name string) string {
					if name == resp.Selected {
						return "* "
					}

					return "  "
				}

				printLine(cmd, marker(domain.CategoryAll)+domain.CategoryAll)

				for _, name := range resp.Categories {
					printLine(cmd, marker(name)+name)
				}
			})
		},
	}
}

func newFilterCmd(opts *options) *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "filter [category]",
		Short: "Show, set or clear the category filter",
		Long: `With no argument, filter prints the active category. With a category it
selects that category for "next"; --clear goes back to "all".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			var (
				resp dto.FilterResponse
				err  error
			)

			switch {
			case reset && len(args) > 0:
				return errors.New("--clear takes no category")
			case reset:
				err = opts.client.call(ctx, http.MethodDelete, "/filter", nil, &resp)
			case len(args) == 1:
				err = opts.client.call(ctx, http.MethodPut, "/filter", dto.FilterRequest{Category: args[0]}, &resp)
			default:
				err = opts.client.call(ctx, http.MethodGet, "/filter", nil, &resp)
			}

			if err != nil {
				return err
			}

			return opts.emit(cmd, resp, func() {
				printLine(cmd, "filter:", resp.Category)
			})
		},
	}

	cmd.Flags().BoolVar(&reset, "clear", false, `reset the filter to "all"`)

	return cmd
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show collection counts per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			var stats domain.Stats
			if err := opts.client.call(ctx, http.MethodGet, "/quotes/stats", nil, &stats); err != nil {
				return err
			}

			return opts.emit(cmd, stats, func() { printStats(cmd, stats) })
		},
	}
}

func printStats(cmd *cobra.Command, stats domain.Stats) {
	printLine(cmd, fmt.Sprintf("%s quotes in %s categories",
		humanize.Comma(int64(stats.Total)), humanize.Comma(int64(stats.Categories))))

	for _, c := range stats.ByCategory {
		printLine(cmd, fmt.Sprintf("  %-16s %s", c.Category, humanize.Comma(int64(c.Count))))
	}
}

func newClearCmd(opts *options) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Reset the collection to the default quotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("clear replaces every quote with the defaults; rerun with --yes")
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()

			var stats domain.Stats
			if err := opts.client.call(ctx, http.MethodDelete, "/quotes", nil, &stats); err != nil {
				return err
			}

			return opts.emit(cmd, stats, func() {
				success(cmd, "Collection reset to %d default quotes", stats.Total)
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the reset")

	return cmd
}

func newExportCmd(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the collection as a JSON array",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			data, err := opts.client.send(ctx, http.MethodGet, "/quotes/export", http.NoBody, "application/json")
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}

			if !opts.json {
				success(cmd, "Exported %s to %s", humanize.Bytes(uint64(len(data))), output)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", `file to write ("-" or empty for stdout)`)

	return cmd
}

func newImportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Append quotes from a JSON array file (\"-\" reads stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			ctx, cancel := requestContext(cmd)
			defer cancel()

			raw, err := opts.client.send(ctx, http.MethodPost, "/quotes/import", bytes.NewReader(data), "application/json")
			if err != nil {
				if isStatus(err, http.StatusRequestEntityTooLarge) {
					return fmt.Errorf("%s is too large for the server: %w", args[0], err)
				}

				return err
			}

			var res dto.ImportResponse
			if err := decodeInto(raw, &res); err != nil {
				return err
			}

			return opts.emit(cmd, res, func() {
				success(cmd, "Imported %d quotes (%d total)", res.Imported, res.Total)

				if res.Skipped > 0 {
					warn(cmd, "skipped %d entries that were not objects", res.Skipped)
				}
			})
		},
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return data, nil
}

func newSessionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show what this session has viewed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()

			var s dto.SessionResponse
			if err := opts.client.call(ctx, http.MethodGet, "/session", nil, &s); err != nil {
				return err
			}

			return opts.emit(cmd, s, func() {
				printLine(cmd, "session:", s.ID)
				printLine(cmd, s.Summary)

				if s.LastViewed != nil {
					printLine(cmd, "last viewed:", s.LastViewed.Display)
				}
			})
		},
	}
}
