package cli

import (
	"io"
	"os"

	"github.com/JonMunkholm/lineowners/internal/logging"
	"github.com/JonMunkholm/lineowners/internal/tui"
	"github.com/spf13/cobra"
)

func newTUICmd() *cobra.Command {
	var (
		logFile   string
		exportDir string
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Browse and filter the registry in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cat, err := setup(cmd)
			if err != nil {
				return err
			}

			// The program owns the terminal from here on.
			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return err
				}
				defer f.Close()
				logOut = f
			}
			logging.SetupWriter(logOut, cfg.Logging.Level, cfg.Logging.Format)

			eng, err := newEngine(cfg, cat)
			if err != nil {
				return err
			}
			m := tui.New(eng, cat.Dataset(), tui.Options{
				ExportDir:  exportDir,
				ExportName: cfg.Export.FileName,
				SheetName:  cfg.Export.SheetName,
			})
			return tui.Run(m)
		},
	}

	cmd.Flags().StringVar(&logFile, "log-file", "", "append logs to this file (default: discard)")
	cmd.Flags().StringVar(&exportDir, "export-dir", ".", "directory for exported files")
	return cmd
}
