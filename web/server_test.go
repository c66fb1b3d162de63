package web

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"payrun/payroll"
	"payrun/report"
	"payrun/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	dir := t.TempDir()
	users, err := NewUserStore(filepath.Join(dir, "users.json"))
	if err != nil {
		t.Fatalf("new user store: %v", err)
	}
	store, err := storage.OpenSQLite(filepath.Join(dir, "payrun.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	server, err := NewServer(Options{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:         store,
		Users:         users,
		Rates:         payroll.NewRateStore(filepath.Join(dir, "rates.json")),
		Metadata:      report.NewMetadataStore(filepath.Join(dir, "metadata.json")),
		UploadDir:     filepath.Join(dir, "uploads"),
		ReportsDir:    filepath.Join(dir, "reports"),
		DefaultRate:   15.0,
		SessionSecret: "test-secret",
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return server
}

func loginTestUser(t *testing.T, server *Server) *http.Cookie {
	t.Helper()

	form := strings.NewReader("username=admin&password=password")
	request := httptest.NewRequest(http.MethodPost, "/login", form)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusFound {
		t.Fatalf("login status = %d, body: %s", recorder.Code, recorder.Body.String())
	}
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == sessionCookieName {
			return cookie
		}
	}
	t.Fatal("login did not set a session cookie")
	return nil
}

func uploadCSV(t *testing.T, server *Server, cookie *http.Cookie, csvContent string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "timesheet.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(csvContent)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	request := httptest.NewRequest(http.MethodPost, "/upload", &body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	request.AddCookie(cookie)
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, request)
	return recorder
}

func TestServer_RedirectsAnonymousToLogin(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusFound {
		t.Fatalf("status = %d, want redirect", recorder.Code)
	}
	if location := recorder.Header().Get("Location"); location != "/login" {
		t.Fatalf("redirect target = %q, want /login", location)
	}
}

func TestServer_APIRequiresAuth(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	request := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", recorder.Code)
	}
}

func TestServer_UploadProcessesCleanTimesheet(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	cookie := loginTestUser(t, server)

	csvContent := "Person ID,First Name,Last Name,Date,Clock In,Clock Out,Total Work Time(h)\n" +
		"E1,Jane,Doe,2026-08-03,09:00:00,17:00:00,8:00:00\n" +
		"E1,Jane,Doe,2026-08-04,09:00:00,17:00:00,8:00:00\n"

	recorder := uploadCSV(t, server, cookie, csvContent)
	if recorder.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body: %s", recorder.Code, recorder.Body.String())
	}
	body := recorder.Body.String()
	if !strings.Contains(body, "GRAND TOTAL") {
		t.Fatalf("results page missing grand total: %s", body)
	}
	if !strings.Contains(body, "admin_report_2026-08-03.xlsx") {
		t.Fatalf("results page missing admin report link: %s", body)
	}
	// 16 hours at the default rate.
	if !strings.Contains(body, "$240.00") {
		t.Fatalf("results page missing expected pay: %s", body)
	}

	// The run lands in history.
	runs, err := server.store.ListRuns()
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Week != "2026-08-03" {
		t.Fatalf("unexpected run history: %+v", runs)
	}

	// And on the reports page.
	request := httptest.NewRequest(http.MethodGet, "/reports", nil)
	request.AddCookie(cookie)
	reportsRecorder := httptest.NewRecorder()
	server.ServeHTTP(reportsRecorder, request)
	if reportsRecorder.Code != http.StatusOK {
		t.Fatalf("reports status = %d", reportsRecorder.Code)
	}
	if !strings.Contains(reportsRecorder.Body.String(), "2026-08-03") {
		t.Fatal("reports page does not list the processed week")
	}
}

func TestServer_UploadWithIssuesGoesThroughValidation(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	cookie := loginTestUser(t, server)

	csvContent := "Person ID,First Name,Last Name,Date,Clock In,Clock Out\n" +
		"E1,Jane,Doe,2026-08-03,09:00:00,17:00:00\n" +
		"E2,Bob,Smith,2026-08-03,09:00:00,\n"

	recorder := uploadCSV(t, server, cookie, csvContent)
	if recorder.Code != http.StatusFound {
		t.Fatalf("upload status = %d, want redirect to validation", recorder.Code)
	}
	location := recorder.Header().Get("Location")
	if !strings.HasPrefix(location, "/validate/") {
		t.Fatalf("redirect target = %q, want /validate/...", location)
	}

	// The validation page shows the flagged row with a suggestion.
	pageRequest := httptest.NewRequest(http.MethodGet, location, nil)
	pageRequest.AddCookie(cookie)
	pageRecorder := httptest.NewRecorder()
	server.ServeHTTP(pageRecorder, pageRequest)
	if pageRecorder.Code != http.StatusOK {
		t.Fatalf("validate page status = %d", pageRecorder.Code)
	}
	if !strings.Contains(pageRecorder.Body.String(), "Bob Smith") {
		t.Fatal("validation page does not show the flagged employee")
	}

	// Fixing the missing clock-out includes the row in pay.
	token := strings.TrimPrefix(location, "/validate/")
	form := strings.NewReader("action=apply&clock_out_3=17%3A00%3A00")
	fixRequest := httptest.NewRequest(http.MethodPost, "/validate/"+token, form)
	fixRequest.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	fixRequest.AddCookie(cookie)
	fixRecorder := httptest.NewRecorder()
	server.ServeHTTP(fixRecorder, fixRequest)

	if fixRecorder.Code != http.StatusOK {
		t.Fatalf("validate apply status = %d, body: %s", fixRecorder.Code, fixRecorder.Body.String())
	}
	body := fixRecorder.Body.String()
	if !strings.Contains(body, "Bob Smith") {
		t.Fatalf("fixed employee missing from results: %s", body)
	}
	// Both employees worked 8 hours at the default rate.
	if !strings.Contains(body, "$240.00") {
		t.Fatalf("expected grand total for both employees: %s", body)
	}

	// The token is single-use.
	replayRecorder := httptest.NewRecorder()
	replayRequest := httptest.NewRequest(http.MethodPost, "/validate/"+token, strings.NewReader("action=ignore"))
	replayRequest.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	replayRequest.AddCookie(cookie)
	server.ServeHTTP(replayRecorder, replayRequest)
	if replayRecorder.Code != http.StatusFound {
		t.Fatalf("replayed token status = %d, want redirect home", replayRecorder.Code)
	}
}

func TestServer_RejectsNonCSVUpload(t *testing.T) {
	t.Parallel()

	server := newTestServer(t)
	cookie := loginTestUser(t, server)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, _ := writer.CreateFormFile("file", "report.xlsx")
	_, _ = part.Write([]byte("not a csv"))
	_ = writer.Close()

	request := httptest.NewRequest(http.MethodPost, "/upload", &body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	request.AddCookie(cookie)
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusFound {
		t.Fatalf("status = %d, want redirect with error", recorder.Code)
	}
	if !strings.Contains(recorder.Header().Get("Location"), "err=") {
		t.Fatal("expected error message in redirect")
	}
}

func TestParseDateRange(t *testing.T) {
	t.Parallel()

	start, end, err := parseDateRange("2026-08-03 to 2026-08-09", "2026-08-03")
	if err != nil {
		t.Fatalf("parse range: %v", err)
	}
	if start.Format("2006-01-02") != "2026-08-03" || end.Format("2006-01-02") != "2026-08-09" {
		t.Fatalf("unexpected range %s / %s", start, end)
	}

	// Missing range falls back to week + 6 days.
	start, end, err = parseDateRange("Current Period", "2026-08-03")
	if err != nil {
		t.Fatalf("fallback parse: %v", err)
	}
	if end.Sub(start).Hours() != 6*24 {
		t.Fatalf("fallback span = %v", end.Sub(start))
	}

	if _, _, err := parseDateRange("", "garbage"); err == nil {
		t.Fatal("expected error for unparseable week")
	}
}
