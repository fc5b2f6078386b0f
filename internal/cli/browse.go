package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/taxoview/pkg/engine"
	"github.com/matzehuels/taxoview/pkg/hierarchy"
	"github.com/matzehuels/taxoview/pkg/palette"
	"github.com/matzehuels/taxoview/pkg/session"
)

// browseTTL is how long a saved browse session can be resumed.
const browseTTL = 30 * 24 * time.Hour

// Browser styles
var (
	browseCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	browseTrailStyle  = lipgloss.NewStyle().Foreground(colorGray)
	browseErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

// browseCommand creates the interactive browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		f      viewFlags
		resume bool
		noSave bool
	)

	cmd := &cobra.Command{
		Use:   "browse [dataset]",
		Short: "Navigate the hierarchy interactively",
		Long: `Navigate the hierarchy interactively.

Keys:
  ↑/k ↓/j      move
  ⏎/→/l        expand the selected node
  ←/h          collapse the selected node
  f            focus: re-root the tree at the selected node
  b            back to the previous breadcrumb
  p            mark a path end; a second p selects the path
  c            clear the path
  q            quit

The view is saved on quit and restored with --resume.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args, f, resume, noSave)
		},
	}

	f.register(cmd)
	cmd.Flags().BoolVar(&resume, "resume", false, "restore the last saved view of this dataset")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not save the view on quit")

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, args []string, f viewFlags, resume, noSave bool) error {
	l, err := c.load(ctx, args, f)
	if err != nil {
		return err
	}
	defer l.close()

	logger := loggerFromContext(ctx)
	name := datasetName(l.opts.Source)
	store, err := session.NewCLIStore("")
	if err != nil {
		logger.Debug("session store unavailable", "error", err)
	}

	view := l.view
	if resume && store != nil {
		sess, err := store.Load(ctx, name)
		switch {
		case err != nil:
			printWarning("Could not restore session: %v", err)
		case sess == nil:
			printInfo("No saved session for %s", name)
		case sess.View == nil || sess.View.Tree == nil || !l.eng.Graph().Has(sess.View.RootID):
			printWarning("Saved session does not match %s", name)
		default:
			view = sess.View
		}
	}

	scale, err := palette.Named(l.opts.Palette)
	if err != nil {
		return err
	}
	m := newBrowseModel(l.eng, view, scale, name)

	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	bm, ok := final.(browseModel)
	if !ok || noSave || store == nil {
		return nil
	}
	if err := store.Save(ctx, session.New(name, bm.view, browseTTL)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	printSuccess("Saved view of %s", name)
	printFile(store.Path(name))
	printNextStep("Resume", appName+" browse --resume "+strings.Join(args, " "))
	return nil
}

// =============================================================================
// browseModel - Interactive tree navigation
// =============================================================================

// browseRow is one visible tree line.
type browseRow struct {
	key    hierarchy.Key
	prefix string
}

type browseModel struct {
	eng     *engine.Engine
	view    *engine.View
	scale   palette.Scale
	dataset string

	rows   []browseRow
	cursor int
	offset int
	height int

	mark   string // first path end
	status string
	err    error
}

func newBrowseModel(eng *engine.Engine, v *engine.View, scale palette.Scale, dataset string) browseModel {
	m := browseModel{eng: eng, view: v, scale: scale, dataset: dataset, height: 20}
	eng.Highlight(v)
	m.refresh()
	return m
}

// refresh flattens the tree into rows and keeps the cursor in range.
func (m *browseModel) refresh() {
	m.rows = m.rows[:0]
	t := m.view.Tree
	m.rows = append(m.rows, browseRow{key: t.RootKey()})
	m.flatten(t.RootKey(), "")
	m.cursor = min(m.cursor, len(m.rows)-1)
	m.scroll()
}

func (m *browseModel) flatten(k hierarchy.Key, prefix string) {
	children := m.view.Tree.Children(k)
	for i, n := range children {
		branch, indent := "├── ", "│   "
		if i == len(children)-1 {
			branch, indent = "└── ", "    "
		}
		m.rows = append(m.rows, browseRow{key: n.Key, prefix: prefix + branch})
		m.flatten(n.Key, prefix+indent)
	}
}

func (m *browseModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

func (m browseModel) selected() *hierarchy.Node {
	n, _ := m.view.Tree.Node(m.rows[m.cursor].key)
	return n
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.err = nil
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.scroll()
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
				m.scroll()
			}
		case "enter", "right", "l":
			m.expand()
		case "left", "h":
			m.collapse()
		case "f":
			m.focus()
		case "b":
			m.back()
		case "p":
			m.selectPath()
		case "c":
			m.eng.ClearPath(m.view)
			m.eng.Highlight(m.view)
			m.mark = ""
			m.status = "path cleared"
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
		m.scroll()
	}
	return m, nil
}

func (m *browseModel) expand() {
	n := m.selected()
	if !n.Expandable {
		return
	}
	depth, err := m.eng.Expand(m.view.Tree, n.Key)
	if err != nil {
		m.err = err
		return
	}
	m.eng.Highlight(m.view)
	m.status = fmt.Sprintf("expanded %s (depth %d)", n.Label, depth)
	m.refresh()
}

// collapse folds the selected node, or jumps to the parent of a leaf.
func (m *browseModel) collapse() {
	n := m.selected()
	if n.IsLeaf || n.Parent == hierarchy.NoKey {
		m.jumpTo(n.Parent)
		return
	}
	if err := m.eng.Collapse(m.view.Tree, n.Key); err != nil {
		m.err = err
		return
	}
	m.status = "collapsed " + n.Label
	m.refresh()
}

func (m *browseModel) jumpTo(k hierarchy.Key) {
	for i, r := range m.rows {
		if r.key == k {
			m.cursor = i
			m.scroll()
			return
		}
	}
}

func (m *browseModel) focus() {
	n := m.selected()
	if err := m.eng.Focus(m.view, n.ID); err != nil {
		m.err = err
		return
	}
	m.eng.Highlight(m.view)
	m.status = "focused " + n.Label
	m.cursor, m.offset = 0, 0
	m.refresh()
}

func (m *browseModel) back() {
	if len(m.view.Trail) < 2 {
		return
	}
	if err := m.eng.Back(m.view, len(m.view.Trail)-2); err != nil {
		m.err = err
		return
	}
	m.eng.Highlight(m.view)
	m.status = "back to " + m.view.Trail[len(m.view.Trail)-1].Label
	m.cursor, m.offset = 0, 0
	m.refresh()
}

func (m *browseModel) selectPath() {
	n := m.selected()
	if m.mark == "" {
		m.mark = n.ID
		m.status = "path from " + n.Label + ", press p on the end"
		return
	}
	start := m.mark
	m.mark = ""
	p, err := m.eng.FindPath(start, n.ID)
	if err == nil {
		err = m.eng.SelectPath(m.view, p)
	}
	if err != nil {
		m.err = err
		return
	}
	m.eng.Highlight(m.view)
	m.status = p.String()
	m.cursor, m.offset = 0, 0
	m.refresh()
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(appName + " · " + m.dataset))
	b.WriteString("\n")

	crumbs := make([]string, len(m.view.Trail))
	for i, c := range m.view.Trail {
		crumbs[i] = c.Label
	}
	b.WriteString(browseTrailStyle.Render(strings.Join(crumbs, " › ")))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("↑/↓ move  ⏎ expand  ← collapse  f focus  b back  p path  q quit"))
	b.WriteString("\n\n")

	end := min(m.offset+m.height, len(m.rows))
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		n, _ := m.view.Tree.Node(r.key)
		cursor := "  "
		if i == m.cursor {
			cursor = browseCursorStyle.Render("▸ ")
		}
		b.WriteString(cursor + StyleDim.Render(r.prefix) + treeLine(m.view.Tree, n, m.scale))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(browseErrorStyle.Render(m.err.Error()))
	case m.status != "":
		b.WriteString(StyleDim.Render(m.status))
	default:
		b.WriteString(StyleDim.Render(fmt.Sprintf("[%d/%d]", m.cursor+1, len(m.rows))))
	}
	return b.String()
}
