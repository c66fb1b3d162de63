package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var testCompany = CompanyConfig{
	Name:             "acme",
	OrgID:            "org-1",
	ClientID:         "client-id",
	ClientSecret:     "client-secret",
	RefreshToken:     "refresh-token",
	ExpenseAccountID: "acct-1",
	PaidThroughID:    "paid-1",
}

// fakeDoer routes requests by URL; the token endpoint is always served so
// client tests only describe API behavior.
type fakeDoer struct {
	tokenCalls int
	apiCalls   []*http.Request
	apiBodies  [][]byte
	respond    func(call int, req *http.Request) (*http.Response, error)
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	if strings.Contains(req.URL.Path, "/oauth/v2/token") {
		f.tokenCalls++
		return jsonResponse(http.StatusOK, `{"access_token":"token-abc","expires_in":3600}`), nil
	}

	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	f.apiCalls = append(f.apiCalls, req)
	f.apiBodies = append(f.apiBodies, body)
	return f.respond(len(f.apiCalls), req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(t *testing.T, doer *fakeDoer) *HTTPClient {
	t.Helper()
	client, err := NewClient(ClientConfig{Company: testCompany, HTTPClient: doer})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return client
}

func TestNewClientRejectsIncompleteCredentials(t *testing.T) {
	_, err := NewClient(ClientConfig{Company: CompanyConfig{Name: "acme", OrgID: "org-1"}})
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestFindExpenseByReference(t *testing.T) {
	doer := &fakeDoer{respond: func(call int, req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK,
			`{"expenses":[{"expense_id":"exp-1","reference_number":"PAYROLL-2026-08-03_to_2026-08-09"}]}`), nil
	}}
	client := newTestClient(t, doer)

	expense, err := client.FindExpenseByReference(context.Background(), "PAYROLL-2026-08-03_to_2026-08-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expense == nil || expense.ExpenseID != "exp-1" {
		t.Fatalf("unexpected expense: %+v", expense)
	}

	req := doer.apiCalls[0]
	if req.URL.Query().Get("organization_id") != "org-1" {
		t.Fatalf("expected organization_id in query, got %s", req.URL.RawQuery)
	}
	if got := req.Header.Get("Authorization"); got != "Zoho-oauthtoken token-abc" {
		t.Fatalf("unexpected authorization header: %q", got)
	}
}

func TestFindExpenseByReferenceIgnoresLooseMatches(t *testing.T) {
	doer := &fakeDoer{respond: func(call int, req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"expenses":[{"expense_id":"exp-1","reference_number":"OTHER"}]}`), nil
	}}
	client := newTestClient(t, doer)

	expense, err := client.FindExpenseByReference(context.Background(), "PAYROLL-2026-08-03_to_2026-08-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expense != nil {
		t.Fatalf("expected no match, got %+v", expense)
	}
}

func TestCreateExpenseSendsAccountFields(t *testing.T) {
	doer := &fakeDoer{respond: func(call int, req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusCreated, `{"expense":{"expense_id":"exp-9"}}`), nil
	}}
	client := newTestClient(t, doer)

	id, err := client.CreateExpense(context.Background(), ExpenseRequest{
		Date:            "2026-08-10",
		Amount:          391.25,
		Description:     "Weekly payroll",
		ReferenceNumber: "PAYROLL-2026-08-03_to_2026-08-09",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "exp-9" {
		t.Fatalf("unexpected expense id: %q", id)
	}

	var payload map[string]any
	if err := json.Unmarshal(doer.apiBodies[0], &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["account_id"] != "acct-1" || payload["paid_through_account_id"] != "paid-1" {
		t.Fatalf("expected account fields in payload, got %v", payload)
	}
	if payload["reference_number"] != "PAYROLL-2026-08-03_to_2026-08-09" {
		t.Fatalf("unexpected reference in payload: %v", payload["reference_number"])
	}
}

func TestDoRawRetriesServerErrors(t *testing.T) {
	doer := &fakeDoer{respond: func(call int, req *http.Request) (*http.Response, error) {
		if call == 1 {
			return jsonResponse(http.StatusBadGateway, `{"message":"upstream"}`), nil
		}
		return jsonResponse(http.StatusOK, `{"expenses":[]}`), nil
	}}
	client := newTestClient(t, doer)

	expense, err := client.FindExpenseByReference(context.Background(), "PAYROLL-X")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expense != nil {
		t.Fatalf("expected no expense, got %+v", expense)
	}
	if len(doer.apiCalls) != 2 {
		t.Fatalf("expected retry after 5xx, got %d calls", len(doer.apiCalls))
	}
}

func TestDoRawDoesNotRetryClientErrors(t *testing.T) {
	doer := &fakeDoer{respond: func(call int, req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"message":"bad request"}`), nil
	}}
	client := newTestClient(t, doer)

	_, err := client.FindExpenseByReference(context.Background(), "PAYROLL-X")
	if err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Fatalf("expected immediate 400 error, got %v", err)
	}
	if len(doer.apiCalls) != 1 {
		t.Fatalf("expected no retry on 4xx, got %d calls", len(doer.apiCalls))
	}
}

func TestDoRawGivesUpAfterMaxRetries(t *testing.T) {
	doer := &fakeDoer{respond: func(call int, req *http.Request) (*http.Response, error) {
		return nil, fmt.Errorf("connection reset")
	}}
	client := newTestClient(t, doer)

	_, err := client.FindExpenseByReference(context.Background(), "PAYROLL-X")
	if err == nil || !strings.Contains(err.Error(), "after 3 attempts") {
		t.Fatalf("expected exhaustion error, got %v", err)
	}
	if len(doer.apiCalls) != maxRetries {
		t.Fatalf("expected %d attempts, got %d", maxRetries, len(doer.apiCalls))
	}
}

func TestBearerTokenIsCachedAcrossCalls(t *testing.T) {
	doer := &fakeDoer{respond: func(call int, req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"expenses":[]}`), nil
	}}
	client := newTestClient(t, doer)

	for i := 0; i < 3; i++ {
		if _, err := client.FindExpenseByReference(context.Background(), "PAYROLL-X"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if doer.tokenCalls != 1 {
		t.Fatalf("expected a single token refresh, got %d", doer.tokenCalls)
	}
}

func TestAttachReceiptUploadsMultipart(t *testing.T) {
	receiptPath := filepath.Join(t.TempDir(), "admin_report_2026-08-03.xlsx")
	if err := os.WriteFile(receiptPath, []byte("workbook bytes"), 0o644); err != nil {
		t.Fatalf("write receipt: %v", err)
	}

	doer := &fakeDoer{respond: func(call int, req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusCreated, `{}`), nil
	}}
	client := newTestClient(t, doer)

	if err := client.AttachReceipt(context.Background(), "exp-9", receiptPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := doer.apiCalls[0]
	if !strings.Contains(req.URL.Path, "/expenses/exp-9/receipt") {
		t.Fatalf("unexpected path: %s", req.URL.Path)
	}
	if !strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data") {
		t.Fatalf("expected multipart upload, got %q", req.Header.Get("Content-Type"))
	}
	if !bytes.Contains(doer.apiBodies[0], []byte("workbook bytes")) {
		t.Fatalf("expected receipt bytes in upload body")
	}
}

func TestTruncateDescription(t *testing.T) {
	short := "fits as is"
	if got := TruncateDescription(short); got != short {
		t.Fatalf("short description should pass through, got %q", got)
	}

	long := strings.Repeat("a", 600)
	got := TruncateDescription(long)
	if len([]rune(got)) != DescriptionLimit {
		t.Fatalf("expected exactly %d runes, got %d", DescriptionLimit, len([]rune(got)))
	}
	if !strings.HasSuffix(got, " … (see attachment)") {
		t.Fatalf("expected attachment suffix, got %q", got)
	}
}

func TestReferenceNumber(t *testing.T) {
	start := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	if got := ReferenceNumber(start, start.AddDate(0, 0, 6)); got != "PAYROLL-2026-08-03_to_2026-08-09" {
		t.Fatalf("unexpected reference: %q", got)
	}
}
