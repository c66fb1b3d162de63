package ngteco

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	defaultBaseURL = "https://office.ngteco.com"
	loginPath      = "/login"
	timecardPath   = "/att/timecard/timecard"
)

// FetchOptions configures one automated timecard fetch.
type FetchOptions struct {
	Username string
	Password string
	Start    time.Time
	End      time.Time

	// BaseURL overrides the portal URL, mainly for tests.
	BaseURL string
	// BrowserBin is an optional Chrome/Chromium binary path.
	BrowserBin string
	// Headless defaults to true; set Visible to watch the session.
	Visible bool
	Timeout time.Duration
}

func (o FetchOptions) baseURL() string {
	if o.BaseURL != "" {
		return strings.TrimRight(o.BaseURL, "/")
	}
	return defaultBaseURL
}

func (o FetchOptions) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return 2 * time.Minute
}

// extractTableJS walks the first table on the timecard page and emits one
// tab-separated line per row, the same shape a manual copy-paste produces.
const extractTableJS = `(() => {
	const table = document.querySelector('table.timecard-table')
		|| document.querySelector('#timecard-table')
		|| document.querySelector('table');
	if (!table) return '';
	const lines = [];
	for (const row of table.querySelectorAll('tr')) {
		const cells = [...row.querySelectorAll('td,th')].map(c => c.innerText.trim());
		if (cells.length > 0) lines.push(cells.join('\t'));
	}
	return lines.join('\n');
})()`

// FetchTimecard logs into the NGTeco portal, opens the timecard page for the
// requested date range and returns the extracted rows as canonical CSV.
func FetchTimecard(ctx context.Context, opts FetchOptions) (string, error) {
	if opts.Username == "" || opts.Password == "" {
		return "", fmt.Errorf("ngteco fetch requires username and password")
	}
	if opts.Start.IsZero() || opts.End.IsZero() {
		return "", fmt.Errorf("ngteco fetch requires a start and end date")
	}
	if opts.End.Before(opts.Start) {
		return "", fmt.Errorf("ngteco fetch end date %s is before start date %s",
			opts.End.Format("2006-01-02"), opts.Start.Format("2006-01-02"))
	}

	allocOptions := []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", !opts.Visible),
		chromedp.Flag("disable-infobars", true),
		chromedp.NoDefaultBrowserCheck,
		chromedp.NoFirstRun,
	}
	if strings.TrimSpace(opts.BrowserBin) != "" {
		allocOptions = append(allocOptions, chromedp.ExecPath(strings.TrimSpace(opts.BrowserBin)))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOptions...)
	defer allocCancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	runCtx, runCancel := context.WithTimeout(browserCtx, opts.timeout())
	defer runCancel()

	loginURL := opts.baseURL() + loginPath
	if err := chromedp.Run(runCtx,
		chromedp.Navigate(loginURL),
		chromedp.WaitVisible(`input[name="username"], input[type="email"]`, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="username"], input[type="email"]`, opts.Username, chromedp.ByQuery),
		chromedp.SendKeys(`input[name="password"], input[type="password"]`, opts.Password, chromedp.ByQuery),
		chromedp.Click(`button[type="submit"], input[type="submit"]`, chromedp.ByQuery),
	); err != nil {
		return "", fmt.Errorf("ngteco login failed: %w", err)
	}

	if err := waitForLogin(runCtx, loginURL); err != nil {
		return "", err
	}

	timecardURL := fmt.Sprintf("%s%s?start_date=%s&end_date=%s",
		opts.baseURL(), timecardPath,
		url.QueryEscape(opts.Start.Format("2006-01-02")),
		url.QueryEscape(opts.End.Format("2006-01-02")))

	var tableText string
	if err := chromedp.Run(runCtx,
		chromedp.Navigate(timecardURL),
		chromedp.WaitVisible(`table`, chromedp.ByQuery),
		chromedp.Evaluate(extractTableJS, &tableText),
	); err != nil {
		return "", fmt.Errorf("extract timecard table: %w", err)
	}

	csvData, err := ParseTable(tableText)
	if err != nil {
		return "", fmt.Errorf("parse timecard table: %w", err)
	}
	return csvData, nil
}

// waitForLogin polls the page URL until it leaves the login page. The portal
// redirects to the dashboard on success and stays on /login on bad
// credentials.
func waitForLogin(ctx context.Context, loginURL string) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	deadline := time.Now().Add(30 * time.Second)
	for {
		var currentURL string
		if err := chromedp.Run(ctx, chromedp.Location(&currentURL)); err == nil {
			if currentURL != "" && !strings.HasPrefix(currentURL, loginURL) {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("ngteco login not accepted; check credentials")
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for ngteco login interrupted: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
