package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/charmbracelet/lipgloss"
)

func (m *Model) View() string {
	var left string
	switch m.screen {
	case screenFacet:
		left = m.viewFacet()
	case screenColumns:
		left = m.viewColumns()
	default:
		left = m.viewMenu()
	}

	v := m.engine.View()
	header := titleStyle.Render(fmt.Sprintf("%s  %d / %d rows  mode: %s",
		m.root.Title, v.FilteredCount, v.TotalCount, v.Mode))

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Width(32).Render(left),
		paneStyle.Render(m.table.View()),
	)

	footer := dimStyle.Render(m.helpLine())
	switch {
	case m.err != nil:
		footer = errorStyle.Render(core.FormatUserError(m.err)) + "\n" + footer
	case m.status != "":
		footer = statusStyle.Render(m.status) + "\n" + footer
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) viewMenu() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.current.Title))
	b.WriteString("\n\n")
	for i, item := range m.current.Items {
		label := item.Label
		if item.Screen == screenFacet {
			if fv, err := m.engine.FacetView(item.Facet); err == nil && len(fv.Selected) > 0 {
				label = fmt.Sprintf("%s (%d)", label, len(fv.Selected))
			}
		}
		b.WriteString(cursorLine(i == m.cursor, label))
	}
	return b.String()
}

func (m *Model) viewFacet() string {
	fv, err := m.engine.FacetView(m.facet)
	if err != nil {
		return errorStyle.Render(err.Error())
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fv.Name))
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("\n\n")

	if len(fv.Options) == 0 {
		b.WriteString(dimStyle.Render("Inga träffar"))
		b.WriteString("\n")
	}

	// Keep the cursor in view on long option lists.
	height := max(m.height-12, 5)
	start := max(0, m.optCursor-height+1)
	end := min(len(fv.Options), start+height)
	for i := start; i < end; i++ {
		o := fv.Options[i]
		line := fmt.Sprintf("%s %s %s", checkbox(o.Selected), o.Value, dimStyle.Render(fmt.Sprintf("(%d)", o.Count)))
		if o.Selected {
			line = selectedStyle.Render(line)
		}
		b.WriteString(cursorLine(i == m.optCursor, line))
	}

	if fv.HiddenSelected > 0 {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(fmt.Sprintf("%d selected values hidden by search", fv.HiddenSelected)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) viewColumns() string {
	visible := m.engine.VisibleColumns()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Columns"))
	b.WriteString("\n\n")
	for i, c := range m.allColumns {
		b.WriteString(cursorLine(i == m.colCursor, checkbox(slices.Contains(visible, c))+" "+c))
	}
	return b.String()
}

func (m *Model) helpLine() string {
	switch m.screen {
	case screenFacet:
		return "type to search • ↑/↓ move • enter toggle • ctrl+a/ctrl+d select/deselect shown • esc back"
	case screenColumns:
		return "↑/↓ move • enter toggle • esc back"
	default:
		sort := "off"
		if m.sort.Column != "" {
			sort = m.sort.Column + " " + m.sort.Dir
		}
		return fmt.Sprintf("↑/↓ move • enter open • esc back • s sort (%s) • r reverse • q quit", sort)
	}
}

func cursorLine(active bool, s string) string {
	if active {
		return cursorStyle.Render("> ") + s + "\n"
	}
	return "  " + s + "\n"
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}
