package browsecmder

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/lanternworks/txlens/cmd/txlens/history"
	"github.com/lanternworks/txlens/cmd/txlens/sqlitepath"
	"github.com/lanternworks/txlens/pkg/storage/sqlite"
)

const browseLongDesc string = `Browse recorded analyses in an interactive terminal UI.

Lists every analysis in the local attestation log; enter opens the
stored explanation, esc goes back, q quits.

Examples:
  txlens browse
  txlens browse --sqlite ~/.txlens/txlens.db`

const browseShortDesc string = "Browse recorded analyses"

type browseCommander struct {
	sqlitePath string
}

func NewBrowseCmd() *cobra.Command {
	cmder := &browseCommander{}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: browseShortDesc,
		Long:  browseLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to local SQLite attestation log")

	return cmd
}

func (c *browseCommander) run(ctx context.Context) error {
	dbPath, err := sqlitepath.ResolveSQLitePath(c.sqlitePath)
	if err != nil {
		return fmt.Errorf("could not resolve local attestation log: %w", err)
	}

	driver, err := sqlite.NewDriver(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("could not open local attestation log %s: %w", dbPath, err)
	}
	defer driver.Close()

	analyses, err := history.Load(ctx, driver.Storer())
	if err != nil {
		return err
	}

	if len(analyses) == 0 {
		fmt.Println("No recorded analyses yet. Run the server and analyze something first.")
		return nil
	}

	items := make([]list.Item, 0, len(analyses))
	for _, a := range analyses {
		items = append(items, item{analysis: a})
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Recorded analyses"

	p := tea.NewProgram(model{list: l}, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

type item struct {
	analysis *history.Analysis
}

func (i item) Title() string {
	return i.analysis.Query
}

func (i item) Description() string {
	return fmt.Sprintf("%s on %s · %s", i.analysis.Kind, i.analysis.Chain, i.analysis.ShortHead())
}

func (i item) FilterValue() string {
	return i.analysis.Query
}

var docStyle = lipgloss.NewStyle().Margin(1, 2)

type model struct {
	list     list.Model
	width    int
	rendered string
	viewing  bool
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.viewing {
				m.viewing = false
				return m, nil
			}
			if m.list.FilterState() != list.Filtering {
				return m, tea.Quit
			}

		case "esc":
			if m.viewing {
				m.viewing = false
				return m, nil
			}

		case "enter":
			if !m.viewing {
				if sel, ok := m.list.SelectedItem().(item); ok {
					m.rendered = renderAnalysis(sel.analysis, m.width)
					m.viewing = true
				}
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.viewing {
		return docStyle.Render(m.rendered)
	}
	return docStyle.Render(m.list.View())
}

func renderAnalysis(a *history.Analysis, width int) string {
	wrap := width - 4
	if wrap < 20 || wrap > 100 {
		wrap = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return a.Markdown()
	}

	rendered, err := r.Render(a.Markdown())
	if err != nil {
		return a.Markdown()
	}

	return rendered
}
