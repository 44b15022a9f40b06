package tui

import (
	"fmt"

	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/JonMunkholm/lineowners/internal/export"
	tea "github.com/charmbracelet/bubbletea"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

// MenuItem is one line of a menu. An item opens a submenu, opens a screen,
// or runs an action; "Back" returns to the parent.
type MenuItem struct {
	Label   string
	Submenu *Menu
	Screen  screen
	Facet   string
	Action  func(m *Model) tea.Cmd
}

// Menu is a titled list of items.
type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == "Back" {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

func buildMenuTree(facets []string) *Menu {
	filters := &Menu{Title: "Filters"}
	for _, f := range facets {
		filters.Items = append(filters.Items, MenuItem{Label: f + " ->", Screen: screenFacet, Facet: f})
	}
	filters.Items = append(filters.Items, MenuItem{Label: "Back"})

	exports := &Menu{
		Title: "Export",
		Items: []MenuItem{
			{Label: "Excel (.xlsx)", Action: exportAction(export.FormatXLSX)},
			{Label: "CSV (.csv)", Action: exportAction(export.FormatCSV)},
			{Label: "Back"},
		},
	}

	root := &Menu{
		Title: "Ledningsägare",
		Items: []MenuItem{
			{Label: "Filters ->", Submenu: filters},
			{Label: "Toggle mode", Action: toggleMode},
			{Label: "Columns ->", Screen: screenColumns},
			{Label: "Export ->", Submenu: exports},
			{Label: "Reset", Action: reset},
			{Label: "Quit", Action: func(*Model) tea.Cmd { return tea.Quit }},
		},
	}

	linkParents(root, nil)

	return root
}

/* ----------------------------------------
	ACTIONS
---------------------------------------- */

func toggleMode(m *Model) tea.Cmd {
	next := core.Inclusive
	if m.engine.Mode() == core.Inclusive {
		next = core.Exclusive
	}
	m.publish(m.engine.SetMode(next))
	m.status = "Mode: " + next.String()
	return nil
}

func reset(m *Model) tea.Cmd {
	m.publish(m.engine.Reset())
	m.search.SetValue("")
	m.status = "Filters cleared"
	return nil
}

// exportAction writes the filtered rows to the export directory off the
// update loop. Rows are immutable, so the snapshot is safe to hand over.
func exportAction(f export.Format) func(m *Model) tea.Cmd {
	return func(m *Model) tea.Cmd {
		rows := m.engine.FilteredRows()
		columns := m.allColumns
		opts := m.exportOpts
		write := m.writeExport
		m.status = fmt.Sprintf("Exporting %d rows...", len(rows))
		return func() tea.Msg {
			path, err := write(f, columns, rows, opts)
			if err != nil {
				return errMsg{err}
			}
			return doneMsg(fmt.Sprintf("Exported %d rows to %s", len(rows), path))
		}
	}
}
