package zoho

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// PushRequest describes one weekly payroll expense push.
type PushRequest struct {
	Start       time.Time
	End         time.Time
	Amount      float64
	SummaryText string
	Notes       string
	ReceiptPath string
}

// PushResult reports what happened.
type PushResult struct {
	ExpenseID      string
	Reference      string
	AlreadyExisted bool
}

// PushExpense creates the weekly payroll expense with the admin report
// attached. The reference number is checked first, so pushing the same week
// twice returns the existing expense instead of creating a duplicate.
func PushExpense(ctx context.Context, client Client, req PushRequest) (PushResult, error) {
	reference := ReferenceNumber(req.Start, req.End)

	existing, err := client.FindExpenseByReference(ctx, reference)
	if err != nil {
		return PushResult{}, err
	}
	if existing != nil {
		return PushResult{ExpenseID: existing.ExpenseID, Reference: reference, AlreadyExisted: true}, nil
	}

	expenseID, err := client.CreateExpense(ctx, ExpenseRequest{
		// Expenses post the day after the period closes.
		Date:            req.End.AddDate(0, 0, 1).Format("2006-01-02"),
		Amount:          req.Amount,
		Description:     ComposeDescription(basePayrollDescription(req.Start, req.End), req.Notes, req.SummaryText),
		ReferenceNumber: reference,
	})
	if err != nil {
		return PushResult{}, err
	}

	if req.ReceiptPath != "" {
		if err := client.AttachReceipt(ctx, expenseID, req.ReceiptPath); err != nil {
			return PushResult{ExpenseID: expenseID, Reference: reference},
				fmt.Errorf("expense %s created but receipt failed: %w", expenseID, err)
		}
	}
	return PushResult{ExpenseID: expenseID, Reference: reference}, nil
}

func basePayrollDescription(start, end time.Time) string {
	return fmt.Sprintf("Weekly payroll %s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// ComposeDescription builds the expense description within the hard limit,
// prioritizing the operator's own notes over the auto-generated summary: the
// note must stay visible, the summary fills whatever room is left.
func ComposeDescription(base, notes, autoSummary string) string {
	parts := make([]string, 0, 2)
	for _, part := range []string{strings.TrimSpace(base), strings.TrimSpace(notes)} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	header := strings.Join(parts, "\n\n")
	if len([]rune(header)) >= DescriptionLimit {
		return TruncateDescription(header)
	}

	auto := strings.TrimSpace(autoSummary)
	if auto == "" {
		return header
	}
	combined := auto
	if header != "" {
		combined = header + "\n\n" + auto
	}
	return TruncateDescription(combined)
}
