package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"payrun/pdfrender"
)

var pdfOutput string

var pdfCmd = &cobra.Command{
	Use:   "pdf <admin_report.xlsx>",
	Short: "Render an admin report spreadsheet as a PDF",
	Long: `Read an admin report workbook, reconstruct its summary table and
per-employee detail blocks, and render them as a paginated PDF. Only the
admin layout carries enough structure to reconstruct; the other layouts
are not supported.`,
	Example: `
  payrun pdf data/reports/admin_report_2026-08-03.xlsx
  payrun pdf data/reports/admin_report_2026-08-03.xlsx --output /tmp/payroll.pdf
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := pdfrender.Reconstruct(args[0])
		if err != nil {
			return fmt.Errorf("reconstruct %s: %w", args[0], err)
		}

		output := pdfOutput
		if output == "" {
			base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			output = base + ".pdf"
		}

		out, err := os.Create(output)
		if err != nil {
			return err
		}
		if err := pdfrender.Render(doc, out); err != nil {
			out.Close()
			os.Remove(output)
			return fmt.Errorf("render PDF: %w", err)
		}
		if err := out.Close(); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pdfCmd)

	pdfCmd.Flags().StringVar(&pdfOutput, "output", "", "Output PDF path (default: report name with .pdf)")
}
