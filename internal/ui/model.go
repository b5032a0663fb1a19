// Package ui is the interactive thesaurus browser: a filter input above a
// collapsible concept tree.
package ui

import (
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"
	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/lingo/internal/config"
	"github.com/oakwood-commons/lingo/internal/formatter"
	"github.com/oakwood-commons/lingo/internal/watch"
	"github.com/oakwood-commons/lingo/pkg/reactive"
	"github.com/oakwood-commons/lingo/pkg/thesaurus"
	"github.com/oakwood-commons/lingo/pkg/treefilter"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	// chromeLines is the height of everything but the tree: the bordered
	// input, the banner line and the footer.
	chromeLines = 5
)

// CappedBanner is shown while the filter has given up.
const CappedBanner = "Too many matches; showing everything. Keep typing to narrow the filter."

// treeLoadedMsg carries a reloaded tree, or the error that prevented it.
type treeLoadedMsg struct {
	tree []treefilter.Node
	err  error
}

// TreeLoaded wraps a reload result for delivery to a running browser.
func TreeLoaded(tree []treefilter.Node, err error) tea.Msg {
	return treeLoadedMsg{tree: tree, err: err}
}

// Options configure a browser Model.
type Options struct {
	Tree    []treefilter.Node
	Filter  treefilter.Config
	Theme   config.ThemeConfig
	Indent  int
	NoColor bool
	// Query is applied as if typed before the first frame.
	Query  string
	Logger logr.Logger
}

// row is one visible line of the tree.
type row struct {
	node   treefilter.Node
	depth  int
	parent string
}

// Model is the bubbletea model of the browser.
type Model struct {
	scope    *reactive.Scope
	tree     *reactive.Cell[[]treefilter.Node]
	expanded *reactive.Cell[treefilter.ExpandedKeys]
	query    *reactive.Cell[string]
	filter   *treefilter.Filter
	sched    *teaScheduler

	input   textinput.Model
	spinner spinner.Model
	styles  styles
	indent  int
	log     logr.Logger

	rows     []row
	cursor   int
	offset   int
	width    int
	height   int
	status   string
	quitting bool
}

// New builds a browser over opts.Tree. The filter starts with every node
// collapsed.
func New(opts Options) (*Model, error) {
	if opts.Indent <= 0 {
		opts.Indent = 2
	}
	log := opts.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}

	scope := reactive.NewScope()
	m := &Model{
		scope:    scope,
		tree:     reactive.NewCell(scope, opts.Tree),
		expanded: reactive.NewCell(scope, treefilter.ExpandedKeys{}),
		query:    reactive.NewCell(scope, "", reactive.WithEqual(reactive.Equal[string])),
		sched:    newTeaScheduler(),
		styles:   newStyles(opts.Theme, opts.NoColor),
		indent:   opts.Indent,
		log:      log,
		width:    defaultWidth,
		height:   defaultHeight,
	}

	filter, err := treefilter.New(scope, m.tree, m.expanded, m.query, opts.Filter,
		treefilter.WithScheduler(m.sched),
		treefilter.WithLogger(log.WithName("filter")))
	if err != nil {
		return nil, fmt.Errorf("create filter: %w", err)
	}
	m.filter = filter

	ti := textinput.New()
	ti.Placeholder = "Filter concepts"
	ti.Prompt = "/ "
	ti.CharLimit = 200
	ti.SetWidth(defaultWidth - 6)
	ti.Focus()
	if opts.Query != "" {
		ti.SetValue(opts.Query)
		ti.CursorEnd()
	}
	m.input = ti

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m.spinner = sp

	m.query.Set(opts.Query)
	m.rebuild("")
	return m, nil
}

// Init starts the cursor blink, the spinner and any debounce queued by an
// initial query.
func (m *Model) Init() tea.Cmd {
	cmds := append([]tea.Cmd{textinput.Blink, m.spinner.Tick}, m.sched.drain()...)
	return tea.Batch(cmds...)
}

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	selected := m.selectedKey()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(max(10, msg.Width-6))

	case debounceMsg:
		m.sched.fire(msg.id)

	case treeLoadedMsg:
		if msg.err != nil {
			m.status = "reload failed: " + msg.err.Error()
			if errors.Is(msg.err, watch.ErrFileRemoved) {
				m.status = "input file was removed"
			}
			m.log.Error(msg.err, "reload failed")
			break
		}
		m.tree.Set(msg.tree)
		m.status = fmt.Sprintf("reloaded %d nodes", thesaurus.Count(msg.tree))
		m.log.V(1).Info("tree reloaded", "nodes", thesaurus.Count(msg.tree))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyPressMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.rebuild(selected)
	cmds = append(cmds, m.sched.drain()...)
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	switch keyActions[msg.String()] {
	case actionQuit:
		m.quitting = true
		m.Close()
		return tea.Quit
	case actionUp:
		m.moveCursor(-1)
	case actionDown:
		m.moveCursor(1)
	case actionPageUp:
		m.moveCursor(-m.treeHeight())
	case actionPageDown:
		m.moveCursor(m.treeHeight())
	case actionTop:
		m.cursor = 0
	case actionBottom:
		m.cursor = len(m.rows) - 1
	case actionExpand:
		m.expandSelected()
	case actionCollapse:
		m.collapseSelected()
	case actionClear:
		m.input.SetValue("")
		m.query.Set("")
	case actionExpandAll:
		m.expanded.Set(expandAll(m.filter.FilteredTree().Get()))
	case actionCollapseAll:
		m.expanded.Set(treefilter.ExpandedKeys{})
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.query.Set(m.input.Value())
		return cmd
	}
	return nil
}

// Close stops the filter and cancels its pending debounce.
func (m *Model) Close() {
	m.filter.Close()
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) selected() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) selectedKey() string {
	if r, ok := m.selected(); ok {
		return r.node.Key
	}
	return ""
}

// expandSelected opens a collapsed node, or steps into an open one.
func (m *Model) expandSelected() {
	r, ok := m.selected()
	if !ok || r.node.IsLeaf() {
		return
	}
	if m.expanded.Get().IsExpanded(r.node.Key) {
		m.moveCursor(1)
		return
	}
	m.setExpanded(r.node.Key, true)
}

// collapseSelected closes an open node, or jumps to the parent.
func (m *Model) collapseSelected() {
	r, ok := m.selected()
	if !ok {
		return
	}
	if !r.node.IsLeaf() && m.expanded.Get().IsExpanded(r.node.Key) {
		m.setExpanded(r.node.Key, false)
		return
	}
	for i := m.cursor - 1; i >= 0; i-- {
		if m.rows[i].node.Key == r.parent {
			m.cursor = i
			return
		}
	}
}

func (m *Model) setExpanded(key string, open bool) {
	m.expanded.Update(func(cur treefilter.ExpandedKeys) treefilter.ExpandedKeys {
		next := cur.Clone()
		if open {
			next[key] = true
		} else {
			delete(next, key)
		}
		return next
	})
}

func expandAll(nodes []treefilter.Node) treefilter.ExpandedKeys {
	out := treefilter.ExpandedKeys{}
	thesaurus.Walk(nodes, func(n treefilter.Node, _ int) bool {
		if !n.IsLeaf() {
			out[n.Key] = true
		}
		return true
	})
	return out
}

// rebuild flattens the filtered tree into rows, keeping the cursor on the
// previously selected key when it is still visible.
func (m *Model) rebuild(selected string) {
	expanded := m.expanded.Get()
	rows := m.rows[:0]
	var visit func(nodes []treefilter.Node, depth int, parent string)
	visit = func(nodes []treefilter.Node, depth int, parent string) {
		for _, n := range nodes {
			rows = append(rows, row{node: n, depth: depth, parent: parent})
			if expanded.IsExpanded(n.Key) {
				visit(n.Children, depth+1, n.Key)
			}
		}
	}
	visit(m.filter.FilteredTree().Get(), 0, "")
	m.rows = rows

	if selected != "" && (m.cursor >= len(rows) || rows[max(m.cursor, 0)].node.Key != selected) {
		for i, r := range rows {
			if r.node.Key == selected {
				m.cursor = i
				break
			}
		}
	}
	m.clampCursor()
	m.scroll()
}

func (m *Model) treeHeight() int {
	return max(1, m.height-chromeLines)
}

func (m *Model) scroll() {
	h := m.treeHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	m.offset = max(0, min(m.offset, max(0, len(m.rows)-h)))
}

// View renders the browser.
func (m *Model) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}
	var b strings.Builder

	b.WriteString(m.styles.input.Render(m.input.View()))
	b.WriteString("\n")

	switch {
	case m.filter.IsFilterCapped().Get():
		b.WriteString(m.styles.warning.Render(CappedBanner))
	case m.sched.pending():
		b.WriteString(m.styles.muted.Render(m.spinner.View() + " filtering..."))
	case m.status != "":
		b.WriteString(m.styles.muted.Render(m.status))
	}
	b.WriteString("\n")

	b.WriteString(m.renderTree())
	b.WriteString(m.renderFooter())

	v := tea.NewView(b.String())
	v.AltScreen = true
	return v
}

func (m *Model) renderTree() string {
	var b strings.Builder
	if len(m.rows) == 0 {
		if m.filter.DebouncedFilterValue().Get() != "" {
			b.WriteString(m.styles.muted.Render("No matches."))
		} else {
			b.WriteString(m.styles.muted.Render("Empty thesaurus."))
		}
		b.WriteString("\n")
	}

	highlight := formatter.NewHighlighter(m.filter.DebouncedFilterValue().Get(), m.styles.match)
	if m.filter.IsFilterCapped().Get() {
		highlight = nil
	}
	expanded := m.expanded.Get()
	end := min(len(m.rows), m.offset+m.treeHeight())
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		marker := "  "
		if !r.node.IsLeaf() {
			marker = "▸ "
			if expanded.IsExpanded(r.node.Key) {
				marker = "▾ "
			}
		}
		prefix := strings.Repeat(" ", r.depth*m.indent) + marker
		label := runewidth.Truncate(r.node.Label, max(1, m.width-runewidth.StringWidth(prefix)-1), "…")

		if i == m.cursor {
			b.WriteString(m.styles.selected.Render(prefix + label))
		} else {
			b.WriteString(prefix + m.styles.label.Render(highlight.Apply(label)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderFooter() string {
	shown := thesaurus.Count(m.filter.FilteredTree().Get())
	total := thesaurus.Count(m.tree.Get())
	counts := fmt.Sprintf("%d/%d", shown, total)
	help := "↑/↓ move  →/enter open  ← close  esc clear  ctrl+e/ctrl+w all  ctrl+c quit"
	return m.styles.muted.Render(runewidth.Truncate(counts+"  "+help, max(1, m.width), "…"))
}
