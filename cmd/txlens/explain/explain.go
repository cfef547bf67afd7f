package explaincmder

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lanternworks/txlens/cmd/txlens/history"
	"github.com/lanternworks/txlens/cmd/txlens/sqlitepath"
	"github.com/lanternworks/txlens/pkg/storage/sqlite"
)

const explainLongDesc string = `Render a recorded analysis from the local attestation log.

Looks the analysis up by its head hash (the attestationHash returned
with every explanation) and renders the stored explanation as styled
markdown. Without a hash, all recorded analyses are listed instead.

Examples:
  txlens explain
  txlens explain 4ac9520e
  txlens explain --plain 4ac9520e > explanation.md`

const explainShortDesc string = "Render a recorded analysis"

type explainCommander struct {
	sqlitePath string
	plain      bool
}

func NewExplainCmd() *cobra.Command {
	cmder := &explainCommander{}

	cmd := &cobra.Command{
		Use:   "explain [head-hash]",
		Short: explainShortDesc,
		Long:  explainLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			head := ""
			if len(args) == 1 {
				head = args[0]
			}
			return cmder.run(cmd.Context(), cmd, head)
		},
	}

	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to local SQLite attestation log")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Disable styling, print plain text")

	return cmd
}

func (c *explainCommander) run(ctx context.Context, cmd *cobra.Command, head string) error {
	dbPath, err := sqlitepath.ResolveSQLitePath(c.sqlitePath)
	if err != nil {
		return fmt.Errorf("could not resolve local attestation log: %w", err)
	}

	driver, err := sqlite.NewDriver(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("could not open local attestation log %s: %w", dbPath, err)
	}
	defer driver.Close()

	if head == "" {
		return c.list(ctx, cmd, driver)
	}

	full, err := resolveHead(ctx, driver, head)
	if err != nil {
		return err
	}

	analysis, err := history.Get(ctx, driver.Storer(), full)
	if err != nil {
		return err
	}

	rendered, err := c.render(analysis.Markdown())
	if err != nil {
		return fmt.Errorf("could not render analysis: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), rendered)
	return nil
}

func (c *explainCommander) list(ctx context.Context, cmd *cobra.Command, driver *sqlite.Driver) error {
	analyses, err := history.Load(ctx, driver.Storer())
	if err != nil {
		return err
	}

	if len(analyses) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No recorded analyses yet.")
		return nil
	}

	for _, a := range analyses {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-11s %-12s %s\n", a.ShortHead(), a.Kind, a.Chain, a.Query)
	}

	return nil
}

// render styles the markdown for the terminal. Plain mode, a dumb
// terminal, or redirected output all get the text stripped of ANSI.
func (c *explainCommander) render(md string) (string, error) {
	fd := int(os.Stdout.Fd())

	width := 100
	if w, _, err := term.GetSize(fd); err == nil && w > 0 && w < width {
		width = w
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	rendered, err := r.Render(md)
	if err != nil {
		return "", err
	}

	if c.plain || !term.IsTerminal(fd) || termenv.ColorProfile() == termenv.Ascii {
		return ansi.Strip(rendered), nil
	}

	return rendered, nil
}

// resolveHead expands an abbreviated head hash to the unique full hash it
// prefixes.
func resolveHead(ctx context.Context, driver *sqlite.Driver, head string) (string, error) {
	if len(head) == 64 {
		return head, nil
	}

	leaves, err := driver.Leaves(ctx)
	if err != nil {
		return "", fmt.Errorf("could not list analyses: %w", err)
	}

	match := ""
	for _, leaf := range leaves {
		if len(leaf.Hash) >= len(head) && leaf.Hash[:len(head)] == head {
			if match != "" {
				return "", fmt.Errorf("hash prefix %q is ambiguous", head)
			}
			match = leaf.Hash
		}
	}

	if match == "" {
		return "", fmt.Errorf("no recorded analysis matches %q", head)
	}

	return match, nil
}
