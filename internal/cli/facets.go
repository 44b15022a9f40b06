package cli

import (
	"fmt"
	"strconv"

	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newFacetsCmd() *cobra.Command {
	var (
		only    string
		search  string
		selects []string
	)

	cmd := &cobra.Command{
		Use:   "facets",
		Short: "List facet options with row counts",
		Long: `List every facet's options in display order with the number of rows
holding each value. --search narrows the options the way the dashboard's
search box does; --select marks options and reports the matching row count.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cat, err := setup(cmd)
			if err != nil {
				return err
			}
			eng, err := newEngine(cfg, cat)
			if err != nil {
				return err
			}
			if err := applySelections(eng, selects); err != nil {
				return err
			}

			names := eng.FacetNames()
			if only != "" {
				names = []string{only}
			}

			out := cmd.OutOrStdout()
			for _, name := range names {
				if search != "" {
					if _, err := eng.SetSearch(name, search); err != nil {
						return err
					}
				}
				fv, err := eng.FacetView(name)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, headerStyle.Render(fv.Name))
				fmt.Fprintln(out, facetTable(fv))
			}

			v := eng.View()
			fmt.Fprintf(out, "%d of %d rows match (%s)\n", v.FilteredCount, v.TotalCount, v.Mode)
			return nil
		},
	}

	cmd.Flags().StringVar(&only, "facet", "", "only list this facet")
	cmd.Flags().StringVar(&search, "search", "", "only list options containing this text")
	cmd.Flags().StringArrayVar(&selects, "select", nil, "select an option, as Facet=Value (repeatable)")
	return cmd
}

func facetTable(fv core.FacetView) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Value", "Rows", "Selected").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, o := range fv.Options {
		sel := ""
		if o.Selected {
			sel = "x"
		}
		t.Row(o.Value, strconv.Itoa(o.Count), sel)
	}
	return t.String()
}
