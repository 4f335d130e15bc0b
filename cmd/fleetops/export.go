package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	export := &cobra.Command{
		Use:   "export",
		Short: "Write reports to files",
	}
	var format, status, dir string
	invoices := &cobra.Command{
		Use:   "invoices",
		Short: "Export invoices as CSV or PDF",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer a.close()

			exp, ok := a.svc.Finance.Exporter(format)
			if !ok {
				return fmt.Errorf("unsupported format %q (csv, pdf)", format)
			}
			if dir == "" {
				dir = "."
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(dir, fmt.Sprintf("invoices-%s.%s", time.Now().Format("20060102"), exp.Format()))
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := a.svc.Finance.Export(cmd.Context(), format, status, f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			pterm.Success.Printfln("Invoices exported to %s", path)
			return nil
		},
	}
	invoices.Flags().StringVarP(&format, "format", "f", "csv", "csv or pdf")
	invoices.Flags().StringVarP(&status, "status", "s", "", "only invoices with this status")
	invoices.Flags().StringVarP(&dir, "dir", "d", "", "output directory (default: current directory)")
	export.AddCommand(invoices)
	return export
}
