package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/JonMunkholm/lineowners/internal/export"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var (
		selects []string
		format  string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the filtered rows as xlsx or csv",
		Long: `Apply --select filters and write the matching rows, with every column, to a
spreadsheet. The format follows the --output extension unless --format is
given. Use --output - to write to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := resolveFormat(format, output)
			if err != nil {
				return err
			}

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

			ds := cat.Dataset()
			opts := export.Options{SheetName: cfg.Export.SheetName}
			for _, c := range ds.Columns() {
				if ds.IsNumeric(c) {
					opts.NumericColumns = append(opts.NumericColumns, c)
				}
			}
			rows := eng.FilteredRows()

			if output == "-" {
				return export.Write(cmd.OutOrStdout(), f, ds.Columns(), rows, opts)
			}
			if output == "" {
				output = export.Filename(cfg.Export.FileName, f, time.Now())
			}
			if err := writeFile(output, f, ds.Columns(), rows, opts); err != nil {
				return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", len(rows), output)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&selects, "select", nil, "select an option, as Facet=Value (repeatable)")
	cmd.Flags().StringVar(&format, "format", "", "xlsx or csv (default: from --output, else xlsx)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, or - for stdout")
	return cmd
}

func resolveFormat(format, output string) (export.Format, error) {
	if format != "" {
		return export.ParseFormat(strings.ToLower(format))
	}
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), "."); ext != "" {
		return export.ParseFormat(ext)
	}
	return export.FormatXLSX, nil
}

func writeFile(path string, f export.Format, columns []string, rows []core.Row, opts export.Options) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return &core.ExportError{Format: string(f), Err: err}
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = &core.ExportError{Format: string(f), Err: cerr}
		}
	}()
	return export.Write(file, f, columns, rows, opts)
}
