package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"payrun/config"
	"payrun/payroll"
	"payrun/report"
	"payrun/storage"
	"payrun/timesheet"
)

var (
	processCreator      string
	processIgnoreIssues bool
	processReportsDir   string
	processRatesFile    string
	processDatabase     string
)

var processCmd = &cobra.Command{
	Use:   "process <timesheet.csv>",
	Short: "Process a timesheet CSV and generate the reports",
	Long: `Parse an exported timesheet CSV, compute weekly pay per employee and
write all four report layouts into the reports directory. Rows with exactly
one missing clock value abort the run unless --ignore-issues is set; rows
with both values missing count as days off and never block.`,
	Example: `
  # Process an export and write reports
  payrun process timecard.csv

  # Process even when rows have a missing clock value
  payrun process timecard.csv --ignore-issues --creator riad
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		reportsDir := cfg.Paths.ReportsDir
		if processReportsDir != "" {
			reportsDir = processReportsDir
		}
		ratesFile := cfg.Paths.RatesFile
		if processRatesFile != "" {
			ratesFile = processRatesFile
		}
		database := cfg.Paths.Database
		if processDatabase != "" {
			database = processDatabase
		}

		records, err := timesheet.ReadCSV(args[0])
		if err != nil {
			return err
		}

		issues := timesheet.FindMissingTimeIssues(records)
		blocking := 0
		for _, issue := range issues {
			if issue.BlocksPayroll() {
				blocking++
			}
		}
		if len(issues) > 0 {
			fmt.Printf("Found %d row(s) with missing clock values (%d blocking):\n", len(issues), blocking)
			for _, issue := range issues {
				record := issue.Record
				state := "day off"
				if issue.BlocksPayroll() {
					state = "blocking"
				}
				fmt.Printf("  row %d: %s %s (%s)\n",
					record.RowNumber, record.Name(), record.Date.Format("2006-01-02"), state)
			}
			if blocking > 0 && !processIgnoreIssues {
				return fmt.Errorf("%d row(s) block payroll; fix the CSV or rerun with --ignore-issues", blocking)
			}
		}

		start, end := timesheet.DateRange(records)
		if start.IsZero() {
			return fmt.Errorf("no records with a valid date to process")
		}

		rates, err := payroll.NewRateStore(ratesFile).Load()
		if err != nil {
			return err
		}
		aggregates := payroll.ComputeWeeklyAggregates(records, rates, cfg.Payroll.DefaultRate)
		run := report.Run{
			Week:       start.Format("2006-01-02"),
			Start:      start,
			End:        end,
			Creator:    processCreator,
			Aggregates: aggregates,
		}

		if err := os.MkdirAll(reportsDir, 0o755); err != nil {
			return fmt.Errorf("create reports directory: %w", err)
		}

		generated := report.GenerateAll(reportsDir, run)
		files := make([]string, 0, len(generated))
		failed := 0
		for _, g := range generated {
			if g.Err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "Error: %s report failed: %v\n", g.Kind, g.Err)
				continue
			}
			files = append(files, g.Filename)
			fmt.Printf("Wrote %s\n", g.Filename)
		}

		total := payroll.ComputeGrandTotal(aggregates)
		fmt.Printf("\nWeek %s (%s)\n", run.Week, run.DateRange())
		for _, aggregate := range aggregates {
			fmt.Printf("  %-24s %7.2fh  $%9.2f  (rounded $%d)\n",
				aggregate.Name, aggregate.TotalHours, aggregate.TotalPay, aggregate.RoundedPay)
		}
		fmt.Printf("  %-24s %7.2fh  $%9.2f  (rounded $%d)\n",
			"GRAND TOTAL", total.Hours, total.Pay, total.Rounded)

		store, err := storage.OpenSQLite(database)
		if err != nil {
			return err
		}
		defer store.Close()
		if _, err := store.InsertRun(storage.RunRecord{
			Week:        run.Week,
			Start:       start,
			End:         end,
			Creator:     processCreator,
			Employees:   len(aggregates),
			TotalHours:  total.Hours,
			TotalPay:    total.Pay,
			RoundedPay:  total.Rounded,
			ReportFiles: files,
			CreatedAt:   time.Now().UTC(),
		}); err != nil {
			return fmt.Errorf("record run: %w", err)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d reports failed; see error_report.txt in %s", failed, len(generated), reportsDir)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&processCreator, "creator", "cli", "Name recorded as the run creator")
	processCmd.Flags().BoolVar(&processIgnoreIssues, "ignore-issues", false, "Process despite rows with a missing clock value")
	processCmd.Flags().StringVar(&processReportsDir, "reports-dir", "", "Reports directory override")
	processCmd.Flags().StringVar(&processRatesFile, "rates-file", "", "Rates file override")
	processCmd.Flags().StringVar(&processDatabase, "db", "", "Run-history database override")
}
