package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pders01/dex/internal/catalog"
	"github.com/pders01/dex/internal/debuglog"
	"github.com/pders01/dex/internal/pokeapi"
	"github.com/pders01/dex/internal/session"
	"github.com/pders01/dex/internal/tui"
)

// maxConcurrentLookups limits parallel detail fetches for show.
const maxConcurrentLookups = 4

var listPages int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print catalog entries page by page",
	Example: `  dex list
  dex list --pages 3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer debuglog.Close()

		sess, err := newSession(cfg)
		if err != nil {
			return err
		}
		return runList(cmd.Context(), cmd.OutOrStdout(), sess, listPages)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the full catalog by name or number",
	Example: `  dex search saur
  dex search 25`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer debuglog.Close()

		sess, err := newSession(cfg)
		if err != nil {
			return err
		}
		return runSearch(cmd.Context(), cmd.OutOrStdout(), sess, strings.Join(args, " "))
	},
}

var showCmd = &cobra.Command{
	Use:   "show <name|number>...",
	Short: "Show details for one or more Pokémon",
	Example: `  dex show pikachu
  dex show 1 4 7`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer debuglog.Close()

		sess, err := newSession(cfg)
		if err != nil {
			return err
		}

		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(cfg.UI.WordWrapMax),
		)
		if err != nil {
			return fmt.Errorf("creating renderer: %w", err)
		}
		return runShow(cmd.Context(), cmd.OutOrStdout(), sess, args, func(p *pokeapi.Pokemon) string {
			return tui.RenderPokemon(p, cfg.API.SpriteBaseURL, r, 30)
		})
	},
}

func init() {
	listCmd.Flags().IntVarP(&listPages, "pages", "n", 1, "number of pages to load")
}

func entryTable(entries []catalog.Entry) *table.Table {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.DisplayID(), e.Name}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tui.SeparatorStyle).
		Headers("#", "NAME").
		Rows(rows...)
}

func runList(ctx context.Context, out io.Writer, sess *session.Session, pages int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if pages < 1 {
		pages = 1
	}

	for i := 0; i < pages; i++ {
		if _, err := sess.RequestNextPage(ctx); err != nil {
			if errors.Is(err, catalog.ErrExhausted) {
				break
			}
			return err
		}
		if sess.Exhausted() {
			break
		}
	}

	entries := sess.View().Entries
	fmt.Fprintln(out, entryTable(entries))
	fmt.Fprintln(out, tui.MsgLoadedCount(len(entries), sess.Exhausted()))
	return nil
}

func runSearch(ctx context.Context, out io.Writer, sess *session.Session, query string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if !sess.BuildIndex(ctx) {
		return errors.New(strings.ToLower(tui.MsgSearchUnavailable))
	}

	v := sess.SetSearchQuery(query)
	if v.Empty() {
		fmt.Fprintln(out, tui.MsgNoMatches)
		return nil
	}
	fmt.Fprintln(out, entryTable(v.Entries))
	fmt.Fprintln(out, tui.MsgResultsCount(len(v.Entries)))
	return nil
}

// runShow fetches every identity concurrently and prints them in argument
// order. A failed lookup does not stop the others.
func runShow(ctx context.Context, out io.Writer, sess *session.Session, identities []string, render func(*pokeapi.Pokemon) string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]*pokeapi.Pokemon, len(identities))
	errs := make([]error, len(identities))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for i, id := range identities {
		i, id := i, id
		g.Go(func() error {
			p, err := sess.EntryDetail(gctx, strings.ToLower(strings.TrimSpace(id)))
			results[i], errs[i] = p, err
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, id := range identities {
		if errs[i] != nil {
			failed++
			reason := "could not load details"
			if pokeapi.IsNotFound(errs[i]) {
				reason = "not found"
			}
			fmt.Fprintln(out, tui.StatusErrorStyle.Render(fmt.Sprintf("✗ %s: %s", id, reason)))
			continue
		}
		fmt.Fprintln(out, render(results[i]))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d lookups failed", failed, len(identities))
	}
	return nil
}
