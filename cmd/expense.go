package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"payrun/config"
	"payrun/report"
	"payrun/storage"
	"payrun/zoho"
)

var (
	expenseCompany string
	expenseWeek    string
	expenseNotes   string
)

var expenseCmd = &cobra.Command{
	Use:   "expense",
	Short: "Push payroll expenses to the accounting system",
}

var expensePushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push a week's payroll as an expense with the report attached",
	Long: `Create the weekly payroll expense in Zoho Books for the given company,
attaching the admin report as the receipt. The reference number is derived
from the pay period, so re-pushing an already-pushed week is a no-op that
reports the existing expense. Credentials come from the environment:
PAYRUN_ZOHO_<COMPANY>_CLIENT_ID, _CLIENT_SECRET and _REFRESH_TOKEN.`,
	Example: `
  payrun expense push --company acme --week 2026-08-03
  payrun expense push --company acme --week 2026-08-03 --notes "Includes overtime"
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if expenseCompany == "" || expenseWeek == "" {
			return fmt.Errorf("both --company and --week are required")
		}

		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		company, ok := cfg.Company(expenseCompany)
		if !ok {
			return fmt.Errorf("unknown company %q; configured: %s", expenseCompany, companyNames(cfg))
		}

		receiptPath := filepath.Join(cfg.Paths.ReportsDir, report.AdminFilename(expenseWeek))
		if _, err := os.Stat(receiptPath); err != nil {
			return fmt.Errorf("no admin report for week %s: %w", expenseWeek, err)
		}

		store, err := storage.OpenSQLite(cfg.Paths.Database)
		if err != nil {
			return err
		}
		defer store.Close()

		req, err := buildCLIPushRequest(store, report.NewMetadataStore(cfg.Paths.MetadataFile), expenseWeek, expenseNotes, receiptPath)
		if err != nil {
			return err
		}

		reference := zoho.ReferenceNumber(req.Start, req.End)
		if push, found, err := store.FindExpensePush(company.Name, reference); err == nil && found {
			fmt.Printf("Already pushed as expense %s on %s\n", push.ExpenseID, push.PushedAt.Format("2006-01-02"))
			return nil
		}

		client, err := zoho.NewClient(zoho.ClientConfig{Company: company.CompanyConfig()})
		if err != nil {
			return err
		}

		result, err := zoho.PushExpense(cmd.Context(), client, req)
		if err != nil {
			return err
		}

		if _, _, err := store.RecordExpensePush(storage.ExpensePush{
			Company:   company.Name,
			Reference: result.Reference,
			ExpenseID: result.ExpenseID,
			Amount:    req.Amount,
			PushedAt:  time.Now().UTC(),
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to record push locally: %v\n", err)
		}

		if result.AlreadyExisted {
			fmt.Printf("Expense already exists: %s (reference %s)\n", result.ExpenseID, result.Reference)
			return nil
		}
		fmt.Printf("Created expense %s (reference %s, $%.2f)\n", result.ExpenseID, result.Reference, req.Amount)
		return nil
	},
}

// buildCLIPushRequest prefers the recorded run for the week; reports generated
// before run history existed fall back to the workbook's own metadata.
func buildCLIPushRequest(store *storage.SQLiteStore, metadata *report.MetadataStore, week, notes, receiptPath string) (zoho.PushRequest, error) {
	if run, found, err := store.LatestRunForWeek(week); err == nil && found {
		summary := fmt.Sprintf("Employees: %d\nTotal hours: %.2f\nTotal pay: $%.2f (rounded $%d)",
			run.Employees, run.TotalHours, run.TotalPay, run.RoundedPay)
		return zoho.PushRequest{
			Start:       run.Start,
			End:         run.End,
			Amount:      run.TotalPay,
			SummaryText: summary,
			Notes:       notes,
			ReceiptPath: receiptPath,
		}, nil
	}

	meta, err := metadata.Ensure(receiptPath, filepath.Base(receiptPath))
	if err != nil {
		return zoho.PushRequest{}, fmt.Errorf("read report metadata: %w", err)
	}
	_ = metadata.Flush()
	if meta.TotalAmount == nil {
		return zoho.PushRequest{}, fmt.Errorf("report for week %s has no grand total", week)
	}

	start, err := time.Parse("2006-01-02", week)
	if err != nil {
		return zoho.PushRequest{}, fmt.Errorf("invalid week %q, want YYYY-MM-DD", week)
	}
	end := start.AddDate(0, 0, 6)
	if parts := strings.Split(meta.DateRange, " to "); len(parts) == 2 {
		if s, err := time.Parse("2006-01-02", strings.TrimSpace(parts[0])); err == nil {
			if e, err := time.Parse("2006-01-02", strings.TrimSpace(parts[1])); err == nil {
				start, end = s, e
			}
		}
	}
	return zoho.PushRequest{
		Start:       start,
		End:         end,
		Amount:      *meta.TotalAmount,
		Notes:       notes,
		ReceiptPath: receiptPath,
	}, nil
}

func companyNames(cfg *config.Config) string {
	names := make([]string, 0, len(cfg.Zoho.Companies))
	for _, company := range cfg.Zoho.Companies {
		names = append(names, company.Name)
	}
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}

func init() {
	rootCmd.AddCommand(expenseCmd)
	expenseCmd.AddCommand(expensePushCmd)

	expensePushCmd.Flags().StringVar(&expenseCompany, "company", "", "Configured company name")
	expensePushCmd.Flags().StringVar(&expenseWeek, "week", "", "Week start date of the report (YYYY-MM-DD)")
	expensePushCmd.Flags().StringVar(&expenseNotes, "notes", "", "Extra notes for the expense description")
}
