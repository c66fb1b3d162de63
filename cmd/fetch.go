package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"payrun/config"
	"payrun/ngteco"
)

var (
	fetchUser       string
	fetchPassword   string
	fetchFrom       string
	fetchTo         string
	fetchOutput     string
	fetchBrowserBin string
	fetchVisible    bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch a timecard from the NGTeco portal",
	Long: `Drive a browser through the NGTeco web portal, log in, open the
timecard page for the requested date range and save the extracted rows as a
CSV in the upload directory. The password can be passed with --password or
through the PAYRUN_NGTECO_PASSWORD environment variable.`,
	Example: `
  payrun fetch --user me@example.com --from 2026-08-03 --to 2026-08-09
  PAYRUN_NGTECO_PASSWORD=secret payrun fetch --user me@example.com --from 2026-08-03 --to 2026-08-09
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if fetchUser == "" {
			return fmt.Errorf("--user is required")
		}
		password := fetchPassword
		if password == "" {
			password = os.Getenv("PAYRUN_NGTECO_PASSWORD")
		}
		if password == "" {
			return fmt.Errorf("password required: pass --password or set PAYRUN_NGTECO_PASSWORD")
		}

		start, err := time.Parse("2006-01-02", fetchFrom)
		if err != nil {
			return fmt.Errorf("invalid --from %q, want YYYY-MM-DD", fetchFrom)
		}
		end, err := time.Parse("2006-01-02", fetchTo)
		if err != nil {
			return fmt.Errorf("invalid --to %q, want YYYY-MM-DD", fetchTo)
		}

		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		fmt.Printf("Fetching timecard for %s (%s to %s)...\n", fetchUser, fetchFrom, fetchTo)
		csvData, err := ngteco.FetchTimecard(cmd.Context(), ngteco.FetchOptions{
			Username:   fetchUser,
			Password:   password,
			Start:      start,
			End:        end,
			BrowserBin: fetchBrowserBin,
			Visible:    fetchVisible,
		})
		if err != nil {
			return err
		}

		output := fetchOutput
		if output == "" {
			if err := os.MkdirAll(cfg.Paths.UploadDir, 0o755); err != nil {
				return fmt.Errorf("create upload directory: %w", err)
			}
			output = filepath.Join(cfg.Paths.UploadDir,
				fmt.Sprintf("timecard_%s_to_%s.csv", fetchFrom, fetchTo))
		}
		if err := os.WriteFile(output, []byte(csvData), 0o644); err != nil {
			return fmt.Errorf("write timecard CSV: %w", err)
		}
		fmt.Printf("Wrote %s\n", output)
		fmt.Printf("Process it with: payrun process %s\n", output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchUser, "user", "", "NGTeco portal username")
	fetchCmd.Flags().StringVar(&fetchPassword, "password", "", "NGTeco portal password (prefer PAYRUN_NGTECO_PASSWORD)")
	fetchCmd.Flags().StringVar(&fetchFrom, "from", "", "Start date (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "", "End date (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&fetchOutput, "output", "", "Output CSV path (default: upload directory)")
	fetchCmd.Flags().StringVar(&fetchBrowserBin, "browser-bin", "", "Chrome/Chromium binary path")
	fetchCmd.Flags().BoolVar(&fetchVisible, "visible", false, "Show the browser window")
}
