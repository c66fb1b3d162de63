package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultAPIDomain      = "https://www.zohoapis.com"
	defaultAccountsDomain = "https://accounts.zoho.com"

	// DescriptionLimit is Zoho's hard cap on the expense description field.
	DescriptionLimit = 500

	maxRetries     = 3
	retryBaseDelay = 500 * time.Millisecond
)

// ErrAuth marks authentication/configuration failures, which are surfaced
// immediately without retry.
var ErrAuth = errors.New("zoho authentication failed")

// Client is the subset of Zoho Books the payroll pipeline needs.
type Client interface {
	FindExpenseByReference(ctx context.Context, reference string) (*Expense, error)
	CreateExpense(ctx context.Context, req ExpenseRequest) (string, error)
	AttachReceipt(ctx context.Context, expenseID, filePath string) error
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	APIDomain      string
	AccountsDomain string
	Company        CompanyConfig
	HTTPClient     httpDoer
}

type HTTPClient struct {
	apiDomain string
	company   CompanyConfig
	tokens    *tokenSource
	http      httpDoer
}

func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	if !cfg.Company.complete() {
		return nil, fmt.Errorf("%w: incomplete credentials for company %q", ErrAuth, cfg.Company.Name)
	}
	apiDomain := strings.TrimRight(cfg.APIDomain, "/")
	if apiDomain == "" {
		apiDomain = defaultAPIDomain
	}
	accountsDomain := strings.TrimRight(cfg.AccountsDomain, "/")
	if accountsDomain == "" {
		accountsDomain = defaultAccountsDomain
	}
	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{
		apiDomain: apiDomain,
		company:   cfg.Company,
		tokens:    &tokenSource{accountsDomain: accountsDomain, company: cfg.Company, httpClient: doer},
		http:      doer,
	}, nil
}

// Expense is the subset of Zoho's expense resource the caller inspects.
type Expense struct {
	ExpenseID       string  `json:"expense_id"`
	ReferenceNumber string  `json:"reference_number"`
	Total           float64 `json:"total"`
	Date            string  `json:"date"`
	Status          string  `json:"status"`
}

// ExpenseRequest describes the expense to create.
type ExpenseRequest struct {
	Date            string
	Amount          float64
	Description     string
	ReferenceNumber string
}

type expenseListResponse struct {
	Expenses []Expense `json:"expenses"`
}

type expenseCreateResponse struct {
	Expense Expense `json:"expense"`
}

// ReferenceNumber builds the deterministic reference used to detect duplicate
// submissions for the same payroll run.
func ReferenceNumber(start, end time.Time) string {
	return fmt.Sprintf("PAYROLL-%s_to_%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// TruncateDescription enforces Zoho's 500 character cap, appending a pointer
// to the attachment when the text has to be cut. The cap counts characters,
// not bytes.
func TruncateDescription(description string) string {
	runes := []rune(description)
	if len(runes) <= DescriptionLimit {
		return description
	}
	const suffix = " … (see attachment)"
	cutoff := DescriptionLimit - len([]rune(suffix))
	return strings.TrimRight(string(runes[:cutoff]), " \n") + suffix
}

// FindExpenseByReference returns the existing expense with the given
// reference number, or nil when none exists. Checking before creating makes
// the weekly push safe to retry.
func (c *HTTPClient) FindExpenseByReference(ctx context.Context, reference string) (*Expense, error) {
	query := url.Values{
		"organization_id":  {c.company.OrgID},
		"reference_number": {reference},
	}
	endpoint := c.apiDomain + "/books/v3/expenses?" + query.Encode()

	var body expenseListResponse
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &body); err != nil {
		return nil, fmt.Errorf("find expense by reference %q: %w", reference, err)
	}
	for i := range body.Expenses {
		if body.Expenses[i].ReferenceNumber == reference {
			return &body.Expenses[i], nil
		}
	}
	return nil, nil
}

// CreateExpense creates the expense and returns its id.
func (c *HTTPClient) CreateExpense(ctx context.Context, req ExpenseRequest) (string, error) {
	payload := map[string]any{
		"date":             req.Date,
		"amount":           req.Amount,
		"description":      TruncateDescription(req.Description),
		"reference_number": req.ReferenceNumber,
		"is_inclusive_tax": false,
	}
	if c.company.ExpenseAccountID != "" {
		payload["account_id"] = c.company.ExpenseAccountID
	} else if c.company.ExpenseAccountName != "" {
		payload["account_name"] = c.company.ExpenseAccountName
	}
	if c.company.PaidThroughID != "" {
		payload["paid_through_account_id"] = c.company.PaidThroughID
	} else if c.company.PaidThroughName != "" {
		payload["paid_through_account_name"] = c.company.PaidThroughName
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode expense payload: %w", err)
	}
	endpoint := c.apiDomain + "/books/v3/expenses?organization_id=" + url.QueryEscape(c.company.OrgID)

	var body expenseCreateResponse
	if err := c.doJSON(ctx, http.MethodPost, endpoint, encoded, &body); err != nil {
		return "", fmt.Errorf("create expense: %w", err)
	}
	if body.Expense.ExpenseID == "" {
		return "", fmt.Errorf("create expense: response carried no expense_id")
	}
	return body.Expense.ExpenseID, nil
}

// AttachReceipt uploads the report file as the expense's receipt.
func (c *HTTPClient) AttachReceipt(ctx context.Context, expenseID, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open receipt %s: %w", filePath, err)
	}
	defer file.Close()

	var buffer bytes.Buffer
	writer := multipart.NewWriter(&buffer)
	part, err := writer.CreateFormFile("receipt", filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("build receipt upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("read receipt %s: %w", filePath, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finish receipt upload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/books/v3/expenses/%s/receipt?organization_id=%s",
		c.apiDomain, url.PathEscape(expenseID), url.QueryEscape(c.company.OrgID))

	status, response, err := c.doRaw(ctx, http.MethodPost, endpoint, buffer.Bytes(), writer.FormDataContentType())
	if err != nil {
		return fmt.Errorf("attach receipt: %w", err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("attach receipt: status %d: %s", status, summarizeBody(response))
	}
	return nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpoint string, payload []byte, out any) error {
	status, body, err := c.doRaw(ctx, method, endpoint, payload, "application/json")
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("%w: status %d: %s", ErrAuth, status, summarizeBody(body))
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("status %d: %s", status, summarizeBody(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// doRaw performs the request with bounded retries. Only transport failures
// and 5xx responses are retried; application-level 4xx errors are final.
func (c *HTTPClient) doRaw(ctx context.Context, method, endpoint string, payload []byte, contentType string) (int, []byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			select {
			case <-ctx.Done():
				return 0, nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return 0, nil, fmt.Errorf("build request: %w", err)
		}
		token, err := c.tokens.bearer(ctx)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %v", ErrAuth, err)
		}
		req.Header.Set("Authorization", "Zoho-oauthtoken "+token)
		if payload != nil {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return 0, nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, summarizeBody(body))
			continue
		}
		return resp.StatusCode, body, nil
	}
	return 0, nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, lastErr)
}

func summarizeBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}
