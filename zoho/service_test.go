package zoho

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

type fakeBooksClient struct {
	existing *Expense

	created      []ExpenseRequest
	attachedID   string
	attachedPath string
	attachErr    error
}

func (f *fakeBooksClient) FindExpenseByReference(ctx context.Context, reference string) (*Expense, error) {
	return f.existing, nil
}

func (f *fakeBooksClient) CreateExpense(ctx context.Context, req ExpenseRequest) (string, error) {
	f.created = append(f.created, req)
	return "exp-123", nil
}

func (f *fakeBooksClient) AttachReceipt(ctx context.Context, expenseID, filePath string) error {
	f.attachedID = expenseID
	f.attachedPath = filePath
	return f.attachErr
}

func TestPushExpenseCreatesWithReceiptAttached(t *testing.T) {
	client := &fakeBooksClient{}
	start := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 6)

	result, err := PushExpense(context.Background(), client, PushRequest{
		Start:       start,
		End:         end,
		Amount:      391.25,
		SummaryText: "Alice Jones: 15.50h",
		Notes:       "includes overtime",
		ReceiptPath: "/reports/admin_report_2026-08-03.xlsx",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.ExpenseID != "exp-123" || result.AlreadyExisted {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Reference != "PAYROLL-2026-08-03_to_2026-08-09" {
		t.Fatalf("unexpected reference: %q", result.Reference)
	}

	if len(client.created) != 1 {
		t.Fatalf("expected 1 create call, got %d", len(client.created))
	}
	created := client.created[0]
	// Expenses post the day after the period closes.
	if created.Date != "2026-08-10" {
		t.Fatalf("unexpected expense date: %q", created.Date)
	}
	if created.Amount != 391.25 {
		t.Fatalf("unexpected amount: %v", created.Amount)
	}
	if !strings.Contains(created.Description, "includes overtime") ||
		!strings.Contains(created.Description, "Alice Jones") {
		t.Fatalf("unexpected description: %q", created.Description)
	}

	if client.attachedID != "exp-123" || client.attachedPath != "/reports/admin_report_2026-08-03.xlsx" {
		t.Fatalf("unexpected receipt attach: %q %q", client.attachedID, client.attachedPath)
	}
}

func TestPushExpenseReturnsExistingWithoutCreating(t *testing.T) {
	client := &fakeBooksClient{existing: &Expense{ExpenseID: "exp-old", ReferenceNumber: "PAYROLL-2026-08-03_to_2026-08-09"}}
	start := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

	result, err := PushExpense(context.Background(), client, PushRequest{
		Start:  start,
		End:    start.AddDate(0, 0, 6),
		Amount: 391.25,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.AlreadyExisted || result.ExpenseID != "exp-old" {
		t.Fatalf("expected existing expense, got %+v", result)
	}
	if len(client.created) != 0 {
		t.Fatalf("expected no create call, got %d", len(client.created))
	}
}

func TestPushExpenseSurfacesReceiptFailureWithExpenseID(t *testing.T) {
	client := &fakeBooksClient{attachErr: fmt.Errorf("upload rejected")}
	start := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

	result, err := PushExpense(context.Background(), client, PushRequest{
		Start:       start,
		End:         start.AddDate(0, 0, 6),
		Amount:      100,
		ReceiptPath: "/reports/admin_report_2026-08-03.xlsx",
	})
	if err == nil || !strings.Contains(err.Error(), "receipt failed") {
		t.Fatalf("expected receipt error, got %v", err)
	}
	// The caller still learns the created expense so the push is not retried
	// from scratch.
	if result.ExpenseID != "exp-123" {
		t.Fatalf("expected expense id despite receipt failure, got %+v", result)
	}
}

func TestComposeDescription(t *testing.T) {
	base := "Weekly payroll 2026-08-03 to 2026-08-09"

	t.Run("notes and summary both fit", func(t *testing.T) {
		got := ComposeDescription(base, "note", "summary")
		if got != base+"\n\nnote\n\nsummary" {
			t.Fatalf("unexpected description: %q", got)
		}
	})

	t.Run("empty notes omitted", func(t *testing.T) {
		got := ComposeDescription(base, "", "summary")
		if got != base+"\n\nsummary" {
			t.Fatalf("unexpected description: %q", got)
		}
	})

	t.Run("long summary truncated to the cap", func(t *testing.T) {
		got := ComposeDescription(base, "note", strings.Repeat("x", 600))
		if len([]rune(got)) > DescriptionLimit {
			t.Fatalf("description exceeds cap: %d runes", len([]rune(got)))
		}
		if !strings.Contains(got, "note") {
			t.Fatalf("operator note lost: %q", got)
		}
		if !strings.HasSuffix(got, "(see attachment)") {
			t.Fatalf("expected attachment pointer suffix: %q", got)
		}
	})

	t.Run("oversized header still truncated", func(t *testing.T) {
		got := ComposeDescription(base, strings.Repeat("n", 600), "summary")
		if len([]rune(got)) > DescriptionLimit {
			t.Fatalf("description exceeds cap: %d runes", len([]rune(got)))
		}
	})
}
