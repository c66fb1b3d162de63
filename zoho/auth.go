// Package zoho is the Zoho Books expense client used to push the weekly
// payroll expense with the admin report attached as its receipt.
package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// CompanyConfig carries one organization's API credentials and account
// preferences. Values come from environment variables; secrets never live in
// config files.
type CompanyConfig struct {
	Name               string
	OrgID              string
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ExpenseAccountID   string
	ExpenseAccountName string
	PaidThroughID      string
	PaidThroughName    string
}

func (c CompanyConfig) complete() bool {
	return c.OrgID != "" && c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// Token is an OAuth access token with its expiry.
type Token struct {
	AccessToken string
	Expiry      time.Time
}

// Valid reports whether the token can still be used. A one-minute safety
// margin is applied before the expiry time.
func (t Token) Valid() bool {
	return t.AccessToken != "" && time.Now().Add(time.Minute).Before(t.Expiry)
}

// tokenSource refreshes and caches the bearer token so each API call does
// not cost a round trip to the accounts server.
type tokenSource struct {
	accountsDomain string
	company        CompanyConfig
	httpClient     httpDoer

	mu    sync.Mutex
	token Token
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
}

func (s *tokenSource) bearer(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token.Valid() {
		return s.token.AccessToken, nil
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {s.company.RefreshToken},
		"client_id":     {s.company.ClientID},
		"client_secret": {s.company.ClientSecret},
	}
	endpoint := strings.TrimRight(s.accountsDomain, "/") + "/oauth/v2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}
	defer resp.Body.Close()

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || body.Error != "" || body.AccessToken == "" {
		return "", fmt.Errorf("token refresh rejected for %s: status %d %s", s.company.Name, resp.StatusCode, body.Error)
	}

	expiresIn := body.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	s.token = Token{
		AccessToken: body.AccessToken,
		Expiry:      time.Now().Add(time.Duration(expiresIn) * time.Second),
	}
	return s.token.AccessToken, nil
}
