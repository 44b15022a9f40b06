// Package tui drives a filter engine from the keyboard.
//
// The left pane is a menu tree (filters, mode, columns, export, reset); the
// right pane is the filtered table. A facet screen offers a search box over
// the facet's options: every keystroke is a search event, enter toggles the
// option under the cursor, and ctrl+a / ctrl+d select or deselect every
// option the search currently shows.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/JonMunkholm/lineowners/internal/export"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type screen int

const (
	screenMenu screen = iota
	screenFacet
	screenColumns
)

// doneMsg and errMsg report the outcome of a background action.
type (
	doneMsg string
	errMsg  struct{ err error }
)

// maxColumnWidth caps table column widths in cells.
const maxColumnWidth = 30

// Options configures a Model.
type Options struct {
	// ExportDir is where exported files are written. Defaults to ".".
	ExportDir string
	// ExportName is the file name prefix. Defaults to "my_dataframe".
	ExportName string
	// SheetName is the worksheet name of xlsx exports.
	SheetName string
}

// Model is the bubbletea model.
type Model struct {
	engine     *core.Engine
	allColumns []string
	exportOpts export.Options
	exportDir  string
	exportName string

	root    *Menu
	current *Menu
	cursor  int

	screen    screen
	facet     string
	optCursor int
	colCursor int

	search textinput.Model
	table  table.Model
	keys   keyMap
	sort   core.SortSpec

	status string
	err    error
	width  int
	height int

	// writeExport is swapped out in tests.
	writeExport func(f export.Format, columns []string, rows []core.Row, opts export.Options) (string, error)
}

// New builds a model over engine. The dataset supplies the full column set
// that exports always carry.
func New(engine *core.Engine, ds *core.Dataset, opts Options) *Model {
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}
	if opts.ExportName == "" {
		opts.ExportName = "my_dataframe"
	}

	search := textinput.New()
	search.Placeholder = "Sök..."
	search.Prompt = "/ "
	search.CharLimit = 100

	m := &Model{
		engine:     engine,
		allColumns: ds.Columns(),
		exportDir:  opts.ExportDir,
		exportName: opts.ExportName,
		root:       buildMenuTree(engine.FacetNames()),
		search:     search,
		table:      table.New(table.WithFocused(false), table.WithHeight(15)),
		keys:       defaultKeys(),
		width:      120,
		height:     30,
	}
	m.exportOpts = export.Options{SheetName: opts.SheetName}
	for _, c := range m.allColumns {
		if ds.IsNumeric(c) {
			m.exportOpts.NumericColumns = append(m.exportOpts.NumericColumns, c)
		}
	}
	m.current = m.root
	m.writeExport = m.writeFile
	m.refreshTable()
	return m
}

// Run starts the program on the terminal's alternate screen.
func Run(m *Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetHeight(max(m.height-8, 5))
		return m, nil

	case doneMsg:
		m.status, m.err = string(msg), nil
		return m, nil

	case errMsg:
		m.status, m.err = "", msg.err
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.screen {
		case screenFacet:
			return m.updateFacet(msg)
		case screenColumns:
			return m.updateColumns(msg)
		default:
			return m.updateMenu(msg)
		}
	}
	return m, nil
}

/* ----------------------------------------
	MENU SCREEN
---------------------------------------- */

func (m *Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.current.Items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Back):
		if m.current.Parent != nil {
			m.current, m.cursor = m.current.Parent, 0
		}
	case key.Matches(msg, m.keys.Sort):
		m.cycleSort()
	case key.Matches(msg, m.keys.Reverse):
		if m.sort.Column != "" {
			m.sort.Dir = map[string]string{"asc": "desc", "desc": "asc"}[m.sort.Dir]
			m.refreshTable()
		}
	case key.Matches(msg, m.keys.Enter):
		return m, m.activate(m.current.Items[m.cursor])
	}
	return m, nil
}

func (m *Model) activate(item MenuItem) tea.Cmd {
	m.err = nil
	switch {
	case item.Submenu != nil:
		m.current, m.cursor = item.Submenu, 0
	case item.Label == "Back":
		m.current, m.cursor = m.root, 0
	case item.Screen == screenFacet:
		m.openFacet(item.Facet)
	case item.Screen == screenColumns:
		m.screen, m.colCursor = screenColumns, 0
	case item.Action != nil:
		return item.Action(m)
	}
	return nil
}

// cycleSort moves the sort to the next visible column, then off.
func (m *Model) cycleSort() {
	cols := m.engine.VisibleColumns()
	i := slices.Index(cols, m.sort.Column)
	if i+1 >= len(cols) {
		m.sort = core.SortSpec{}
	} else {
		m.sort = core.SortSpec{Column: cols[i+1], Dir: "asc"}
	}
	m.refreshTable()
}

/* ----------------------------------------
	FACET SCREEN
---------------------------------------- */

func (m *Model) openFacet(name string) {
	fv, err := m.engine.FacetView(name)
	if err != nil {
		m.err = err
		return
	}
	m.screen, m.facet, m.optCursor = screenFacet, name, 0
	m.search.SetValue(fv.Search)
	m.search.CursorEnd()
	m.search.Focus()
}

func (m *Model) updateFacet(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fv, err := m.engine.FacetView(m.facet)
	if err != nil {
		m.err = err
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		m.search.Blur()
		m.screen = screenMenu
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.optCursor > 0 {
			m.optCursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.optCursor < len(fv.Options)-1 {
			m.optCursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.Toggle):
		if len(fv.Options) > 0 {
			m.toggleOption(fv, fv.Options[m.optCursor])
		}
		return m, nil
	case key.Matches(msg, m.keys.SelectAll):
		u, err := m.engine.ToggleSelectAll(m.facet, true)
		m.handle(u, err)
		return m, nil
	case key.Matches(msg, m.keys.DeselectAll):
		u, err := m.engine.ToggleSelectAll(m.facet, false)
		m.handle(u, err)
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		u, err := m.engine.SetSearch(m.facet, m.search.Value())
		m.handle(u, err)
		m.optCursor = 0
	}
	return m, cmd
}

func (m *Model) toggleOption(fv core.FacetView, o core.Option) {
	var values []string
	if o.Selected {
		values = slices.DeleteFunc(slices.Clone(fv.Selected), func(v string) bool { return v == o.Value })
	} else {
		values = append(slices.Clone(fv.Selected), o.Value)
	}
	u, err := m.engine.SetSelection(m.facet, values)
	m.handle(u, err)
}

/* ----------------------------------------
	COLUMNS SCREEN
---------------------------------------- */

func (m *Model) updateColumns(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Quit):
		m.screen = screenMenu
	case key.Matches(msg, m.keys.Up):
		if m.colCursor > 0 {
			m.colCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.colCursor < len(m.allColumns)-1 {
			m.colCursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		col := m.allColumns[m.colCursor]
		visible := m.engine.VisibleColumns()
		if slices.Contains(visible, col) {
			visible = slices.DeleteFunc(visible, func(c string) bool { return c == col })
		} else {
			// Keep dataset order.
			visible = slices.DeleteFunc(slices.Clone(m.allColumns), func(c string) bool {
				return c != col && !slices.Contains(visible, c)
			})
		}
		m.publish(m.engine.SetVisibleColumns(visible))
	}
	return m, nil
}

/* ----------------------------------------
	PUBLISHING
---------------------------------------- */

func (m *Model) handle(u core.Update, err error) {
	if err != nil {
		m.err = err
		return
	}
	m.publish(u)
}

// publish redraws what the update changed. Option updates only affect the
// facet screen, which reads the engine directly, so the table is left alone.
func (m *Model) publish(u core.Update) {
	switch u.Kind {
	case core.UpdateRows:
		m.status = fmt.Sprintf("%d rows", u.Total)
		m.refreshTable()
	case core.UpdateProjection:
		if m.sort.Column != "" && !slices.Contains(u.Columns, m.sort.Column) {
			m.sort = core.SortSpec{}
		}
		m.refreshTable()
	}
}

// Publish implements core.Publisher so a Model can also be handed to an
// engine built elsewhere.
func (m *Model) Publish(u core.Update) {
	m.publish(u)
}

func (m *Model) refreshTable() {
	v := m.engine.View()
	rows := v.Rows
	if m.sort.Column != "" {
		rows = core.SortRows(rows, []core.SortSpec{m.sort})
	}

	cols := make([]table.Column, len(v.Columns))
	for i, c := range v.Columns {
		cols[i] = table.Column{Title: c, Width: min(len([]rune(c)), maxColumnWidth)}
	}
	trows := make([]table.Row, len(rows))
	for i, r := range rows {
		cells := make(table.Row, len(v.Columns))
		for j, c := range v.Columns {
			cells[j] = r.Get(c).String()
			cols[j].Width = max(cols[j].Width, min(len([]rune(cells[j])), maxColumnWidth))
		}
		trows[i] = cells
	}

	// Rows must never be wider than the columns, so clear them first.
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetRows(trows)
}

/* ----------------------------------------
	EXPORT
---------------------------------------- */

func (m *Model) writeFile(f export.Format, columns []string, rows []core.Row, opts export.Options) (path string, err error) {
	path = filepath.Join(m.exportDir, export.Filename(m.exportName, f, time.Now()))
	file, err := os.Create(path)
	if err != nil {
		return "", &core.ExportError{Format: string(f), Err: err}
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = &core.ExportError{Format: string(f), Err: cerr}
		}
	}()

	if err := export.Write(file, f, columns, rows, opts); err != nil {
		return "", err
	}
	return path, nil
}
