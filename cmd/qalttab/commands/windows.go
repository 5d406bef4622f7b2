package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/bryanchriswhite/qalttab/internal/window"
	"github.com/spf13/cobra"
)

var windowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "List qtile's window table",
	Long: `Query qtile over its command socket and print every window it manages.

The overlay finds its own window in this table by name, so this is the
first thing to check when the overlay never shows up.`,
	Example: `  # List windows in table format (default)
  qalttab windows

  # List windows as JSON
  qalttab windows --format json`,
	RunE: runWindows,
}

var windowsFormat string

func init() {
	rootCmd.AddCommand(windowsCmd)

	windowsCmd.Flags().StringVarP(&windowsFormat, "format", "f", "table", "output format (table or json)")
}

func runWindows(cmd *cobra.Command, args []string) error {
	configMgr, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := configMgr.Get()

	qtilePath, err := cfg.QtileSocketPath()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.IPC.Timeout)
	defer cancel()

	backend := window.NewQtileBackend(window.NewSocketTransport(qtilePath, cfg.IPC.Timeout), cfg.SelfName)
	entries, err := backend.Windows(ctx)
	if err != nil {
		return err
	}

	return printWindows(cmd.OutOrStdout(), entries, cfg.SelfName, windowsFormat)
}

func printWindows(out io.Writer, entries []window.TableEntry, selfName, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	case "table":
		if len(entries) == 0 {
			fmt.Fprintln(out, "No windows found.")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WID\tNAME\tSELF")
		for _, e := range entries {
			self := ""
			if e.Name == selfName {
				self = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.Name, self)
		}
		return w.Flush()
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", format)
	}
}
