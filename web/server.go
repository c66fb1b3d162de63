// Package web serves the payroll UI: login, timesheet upload and validation,
// report downloads, pay-rate management and the accounting expense push.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"payrun/config"
	"payrun/payroll"
	"payrun/pdfrender"
	"payrun/report"
	"payrun/storage"
	"payrun/timesheet"
	"payrun/zoho"
)

//go:embed templates/*.html
var templateFS embed.FS

// Options wires the server's collaborators. NewZohoClient may be nil, in
// which case the real API client is used.
type Options struct {
	Logger        *slog.Logger
	Store         *storage.SQLiteStore
	Users         *UserStore
	Rates         *payroll.RateStore
	Metadata      *report.MetadataStore
	UploadDir     string
	ReportsDir    string
	DefaultRate   float64
	SessionSecret string
	SessionTTL    time.Duration
	Companies     []config.ZohoCompany
	NewZohoClient func(config.ZohoCompany) (zoho.Client, error)
}

type Server struct {
	logger      *slog.Logger
	store       *storage.SQLiteStore
	users       *UserStore
	rates       *payroll.RateStore
	metadata    *report.MetadataStore
	lister      *reportLister
	uploads     *uploadRegistry
	sessions    *sessionManager
	uploadDir   string
	reportsDir  string
	defaultRate float64
	companies   []config.ZohoCompany
	newZoho     func(config.ZohoCompany) (zoho.Client, error)

	mux *http.ServeMux
}

func NewServer(opts Options) (*Server, error) {
	if opts.Users == nil || opts.Rates == nil || opts.Metadata == nil {
		return nil, fmt.Errorf("web server requires user, rate and metadata stores")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	defaultRate := opts.DefaultRate
	if defaultRate <= 0 {
		defaultRate = payroll.DefaultHourlyRate
	}
	newZoho := opts.NewZohoClient
	if newZoho == nil {
		newZoho = func(company config.ZohoCompany) (zoho.Client, error) {
			return zoho.NewClient(zoho.ClientConfig{Company: company.CompanyConfig()})
		}
	}

	server := &Server{
		logger:      logger,
		store:       opts.Store,
		users:       opts.Users,
		rates:       opts.Rates,
		metadata:    opts.Metadata,
		lister:      newReportLister(opts.ReportsDir, opts.Metadata),
		uploads:     newUploadRegistry(),
		sessions:    newSessionManager(opts.SessionSecret, opts.SessionTTL),
		uploadDir:   opts.UploadDir,
		reportsDir:  opts.ReportsDir,
		defaultRate: defaultRate,
		companies:   opts.Companies,
		newZoho:     newZoho,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /login", server.handleLoginPage)
	mux.HandleFunc("POST /login", server.handleLogin)
	mux.HandleFunc("POST /logout", server.handleLogout)

	mux.HandleFunc("GET /{$}", server.requireAuth(server.handleHome))
	mux.HandleFunc("POST /upload", server.requireAuth(server.handleUpload))
	mux.HandleFunc("GET /validate/{token}", server.requireAuth(server.handleValidatePage))
	mux.HandleFunc("POST /validate/{token}", server.requireAuth(server.handleValidate))
	mux.HandleFunc("GET /reports", server.requireAuth(server.handleReports))
	mux.HandleFunc("GET /reports/download/{name}", server.requireAuth(server.handleReportDownload))
	mux.HandleFunc("GET /reports/pdf/{week}", server.requireAuth(server.handleReportPDF))
	mux.HandleFunc("POST /expense/push", server.requireAuth(server.handleExpensePush))
	mux.HandleFunc("GET /rates", server.requireAuth(server.handleRatesPage))
	mux.HandleFunc("POST /rates/set", server.requireAuth(server.handleRateSet))
	mux.HandleFunc("POST /rates/delete", server.requireAuth(server.handleRateDelete))
	mux.HandleFunc("GET /password", server.requireAuth(server.handlePasswordPage))
	mux.HandleFunc("POST /password", server.requireAuth(server.handlePasswordChange))
	mux.HandleFunc("GET /users", server.requireAuth(server.handleUsersPage))
	mux.HandleFunc("POST /users/add", server.requireAuth(server.handleUserAdd))
	mux.HandleFunc("POST /users/delete", server.requireAuth(server.handleUserDelete))
	mux.HandleFunc("GET /api/reports", server.requireAuth(server.handleAPIReports))
	server.mux = mux

	return server, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type authedHandler func(w http.ResponseWriter, r *http.Request, username string)

func (s *Server) requireAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, err := s.sessions.username(r)
		if err != nil {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next(w, r, username)
	}
}

// ---- auth pages ----

type loginView struct {
	Title string
	Error string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sessions.username(r); err == nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	s.render(w, "login.html", loginView{Title: "Login", Error: r.URL.Query().Get("err")})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if err := s.users.Authenticate(username, password); err != nil {
		s.logger.Warn("login rejected", slog.String("user", username))
		http.Redirect(w, r, "/login?err="+url.QueryEscape("Invalid username or password"), http.StatusFound)
		return
	}
	if err := s.sessions.issue(w, username); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.logger.Info("login", slog.String("user", username))
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.clear(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// ---- home / upload / validation ----

type homeView struct {
	Title    string
	Username string
	IsAdmin  bool
	Error    string
	Message  string
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request, username string) {
	s.render(w, "home.html", homeView{
		Title:    "Payroll Processor",
		Username: username,
		IsAdmin:  IsAdmin(username),
		Error:    r.URL.Query().Get("err"),
		Message:  r.URL.Query().Get("msg"),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, username string) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.redirectHomeError(w, r, fmt.Sprintf("parse upload: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.redirectHomeError(w, r, "missing file upload")
		return
	}
	defer file.Close()

	filename := filepath.Base(strings.TrimSpace(header.Filename))
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		s.redirectHomeError(w, r, "only .csv timesheets are accepted")
		return
	}

	savedName := fmt.Sprintf("timecard_%s.csv", time.Now().Format("20060102_150405"))
	savedPath := filepath.Join(s.uploadDir, savedName)
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		s.redirectHomeError(w, r, fmt.Sprintf("create upload directory: %v", err))
		return
	}
	out, err := os.Create(savedPath)
	if err != nil {
		s.redirectHomeError(w, r, fmt.Sprintf("save upload: %v", err))
		return
	}
	if _, err := io.Copy(out, file); err != nil {
		_ = out.Close()
		s.redirectHomeError(w, r, fmt.Sprintf("save upload: %v", err))
		return
	}
	if err := out.Close(); err != nil {
		s.redirectHomeError(w, r, fmt.Sprintf("save upload: %v", err))
		return
	}

	records, err := timesheet.ReadCSV(savedPath)
	if err != nil {
		s.redirectHomeError(w, r, fmt.Sprintf("parse timesheet: %v", err))
		return
	}

	issues := timesheet.FindMissingTimeIssues(records)
	if len(issues) > 0 {
		token := s.uploads.put(pendingUpload{
			Filename: savedName,
			Creator:  username,
			Records:  records,
			Issues:   issues,
		})
		http.Redirect(w, r, "/validate/"+token, http.StatusFound)
		return
	}

	s.finishRun(w, r, records, username)
}

type issueView struct {
	Row        int
	Name       string
	EmployeeID string
	Date       string
	MissingIn  bool
	MissingOut bool
	SuggestIn  string
	SuggestOut string
	DayOff     bool
}

type validateView struct {
	Title    string
	Username string
	Token    string
	Filename string
	Issues   []issueView
	Blocking int
}

func (s *Server) handleValidatePage(w http.ResponseWriter, r *http.Request, username string) {
	token := r.PathValue("token")
	upload, ok := s.uploads.peek(token)
	if !ok {
		s.redirectHomeError(w, r, "upload session expired; please upload again")
		return
	}
	s.render(w, "validate.html", s.buildValidateView(upload, username))
}

func (s *Server) buildValidateView(upload pendingUpload, username string) validateView {
	view := validateView{
		Title:    "Validate Timesheet",
		Username: username,
		Token:    upload.Token,
		Filename: upload.Filename,
	}
	for _, issue := range upload.Issues {
		item := issueView{
			Row:        issue.Record.RowNumber,
			Name:       issue.Record.Name(),
			EmployeeID: issue.Record.EmployeeID,
			Date:       issue.Record.DateString(),
			MissingIn:  issue.MissingClockIn,
			MissingOut: issue.MissingClockOut,
			DayOff:     !issue.BlocksPayroll(),
		}
		if issue.MissingClockIn {
			item.SuggestIn = timesheet.SuggestTime(upload.Records, issue.Record.Date, timesheet.ClockIn)
		}
		if issue.MissingClockOut {
			item.SuggestOut = timesheet.SuggestTime(upload.Records, issue.Record.Date, timesheet.ClockOut)
		}
		if issue.BlocksPayroll() {
			view.Blocking++
		}
		view.Issues = append(view.Issues, item)
	}
	return view
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request, username string) {
	token := r.PathValue("token")
	upload, ok := s.uploads.take(token)
	if !ok {
		s.redirectHomeError(w, r, "upload session expired; please upload again")
		return
	}
	if err := r.ParseForm(); err != nil {
		s.redirectHomeError(w, r, fmt.Sprintf("parse form: %v", err))
		return
	}

	records := upload.Records
	if r.FormValue("action") == "apply" {
		clockIn := make(map[int]string)
		clockOut := make(map[int]string)
		for _, issue := range upload.Issues {
			row := issue.Record.RowNumber
			if value := r.FormValue(fmt.Sprintf("clock_in_%d", row)); value != "" {
				clockIn[row] = value
			}
			if value := r.FormValue(fmt.Sprintf("clock_out_%d", row)); value != "" {
				clockOut[row] = value
			}
		}
		records = applyClockFixes(records, clockIn, clockOut)
	}

	s.finishRun(w, r, records, username)
}

type resultRowView struct {
	Name       string
	EmployeeID string
	Hours      float64
	Pay        float64
	Rounded    int
}

type resultFileView struct {
	Kind     string
	Filename string
	Failed   bool
	Error    string
}

type resultsView struct {
	Title       string
	Username    string
	Week        string
	DateRange   string
	Rows        []resultRowView
	TotalHours  float64
	TotalPay    float64
	TotalRound  int
	Files       []resultFileView
	Companies   []string
	HasExpenses bool
}

func (s *Server) finishRun(w http.ResponseWriter, r *http.Request, records []timesheet.Record, username string) {
	result, err := s.processRecords(records, username)
	if err != nil {
		s.redirectHomeError(w, r, err.Error())
		return
	}

	view := resultsView{
		Title:      "Payroll Results",
		Username:   username,
		Week:       result.Run.Week,
		DateRange:  result.Run.DateRange(),
		TotalHours: result.Total.Hours,
		TotalPay:   result.Total.Pay,
		TotalRound: result.Total.Rounded,
	}
	for _, aggregate := range result.Run.Aggregates {
		view.Rows = append(view.Rows, resultRowView{
			Name:       aggregate.Name,
			EmployeeID: aggregate.EmployeeID,
			Hours:      aggregate.TotalHours,
			Pay:        aggregate.TotalPay,
			Rounded:    aggregate.RoundedPay,
		})
	}
	for _, g := range result.Generated {
		item := resultFileView{Kind: g.Kind, Filename: g.Filename}
		if g.Err != nil {
			item.Failed = true
			item.Error = g.Err.Error()
		}
		view.Files = append(view.Files, item)
	}
	for _, company := range s.companies {
		view.Companies = append(view.Companies, company.Name)
	}
	view.HasExpenses = len(view.Companies) > 0

	s.render(w, "results.html", view)
}

// ---- reports ----

type reportsView struct {
	Title     string
	Username  string
	Reports   []ReportEntry
	Companies []string
	Error     string
	Message   string
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request, username string) {
	entries, err := s.lister.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	view := reportsView{
		Title:    "Reports",
		Username: username,
		Reports:  entries,
		Error:    r.URL.Query().Get("err"),
		Message:  r.URL.Query().Get("msg"),
	}
	for _, company := range s.companies {
		view.Companies = append(view.Companies, company.Name)
	}
	s.render(w, "reports.html", view)
}

func (s *Server) handleAPIReports(w http.ResponseWriter, r *http.Request, _ string) {
	entries, err := s.lister.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

var reportPrefixes = []string{
	"admin_report_", "payroll_summary_", "employee_payslips_", "payslips_for_cutting_",
}

func (s *Server) handleReportDownload(w http.ResponseWriter, r *http.Request, _ string) {
	name := filepath.Base(strings.TrimSpace(r.PathValue("name")))
	allowed := false
	for _, prefix := range reportPrefixes {
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".xlsx") {
			allowed = true
			break
		}
	}
	if !allowed {
		http.Error(w, "unknown report file", http.StatusNotFound)
		return
	}

	path := filepath.Join(s.reportsDir, name)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "report not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request, _ string) {
	week := strings.TrimSpace(r.PathValue("week"))
	path, err := s.lister.AdminReportPath(week)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	doc, err := pdfrender.Reconstruct(path)
	if err != nil {
		s.logger.Error("pdf reconstruction failed", slog.String("week", week), slog.Any("error", err))
		http.Error(w, fmt.Sprintf("reconstruct report: %v", err), http.StatusUnprocessableEntity)
		return
	}

	var buf bytes.Buffer
	if err := pdfrender.Render(doc, &buf); err != nil {
		http.Error(w, fmt.Sprintf("render pdf: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "payroll_report_"+week+".pdf"))
	_, _ = w.Write(buf.Bytes())
}

// ---- expense push ----

func (s *Server) handleExpensePush(w http.ResponseWriter, r *http.Request, username string) {
	companyName := strings.TrimSpace(r.FormValue("company"))
	week := strings.TrimSpace(r.FormValue("week"))
	notes := strings.TrimSpace(r.FormValue("notes"))

	company, found := s.companyByName(companyName)
	if !found {
		s.redirectReportsError(w, r, fmt.Sprintf("unknown company %q", companyName))
		return
	}
	receiptPath, err := s.lister.AdminReportPath(week)
	if err != nil {
		s.redirectReportsError(w, r, err.Error())
		return
	}

	req, err := s.buildPushRequest(week, notes, receiptPath)
	if err != nil {
		s.redirectReportsError(w, r, err.Error())
		return
	}

	reference := zoho.ReferenceNumber(req.Start, req.End)
	if s.store != nil {
		if prior, ok, err := s.store.FindExpensePush(company.Name, reference); err == nil && ok {
			s.redirectReportsMessage(w, r, fmt.Sprintf("Expense already pushed as %s", prior.ExpenseID))
			return
		}
	}

	client, err := s.newZoho(company)
	if err != nil {
		s.redirectReportsError(w, r, err.Error())
		return
	}

	result, err := zoho.PushExpense(r.Context(), client, req)
	if err != nil {
		s.logger.Error("expense push failed",
			slog.String("company", company.Name),
			slog.String("week", week),
			slog.Any("error", err))
		s.redirectReportsError(w, r, fmt.Sprintf("expense push failed: %v", err))
		return
	}

	if s.store != nil {
		if _, _, err := s.store.RecordExpensePush(storage.ExpensePush{
			Company:   company.Name,
			Reference: result.Reference,
			ExpenseID: result.ExpenseID,
			Amount:    req.Amount,
		}); err != nil {
			s.logger.Error("record expense push", slog.Any("error", err))
		}
	}

	s.logger.Info("expense pushed",
		slog.String("user", username),
		slog.String("company", company.Name),
		slog.String("expense_id", result.ExpenseID),
		slog.Bool("already_existed", result.AlreadyExisted))

	message := fmt.Sprintf("Expense %s created for %s", result.ExpenseID, company.Name)
	if result.AlreadyExisted {
		message = fmt.Sprintf("Expense already existed as %s", result.ExpenseID)
	}
	s.redirectReportsMessage(w, r, message)
}

// buildPushRequest assembles the expense from run history, falling back to
// the workbook metadata when the week predates the history table.
func (s *Server) buildPushRequest(week, notes, receiptPath string) (zoho.PushRequest, error) {
	if s.store != nil {
		run, found, err := s.store.LatestRunForWeek(week)
		if err == nil && found {
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
	}

	meta, err := s.metadata.Ensure(receiptPath, filepath.Base(receiptPath))
	if err != nil {
		return zoho.PushRequest{}, fmt.Errorf("read report metadata: %w", err)
	}
	_ = s.metadata.Flush()
	if meta.TotalAmount == nil {
		return zoho.PushRequest{}, fmt.Errorf("report for week %s has no grand total", week)
	}
	start, end, err := parseDateRange(meta.DateRange, week)
	if err != nil {
		return zoho.PushRequest{}, err
	}
	return zoho.PushRequest{
		Start:       start,
		End:         end,
		Amount:      *meta.TotalAmount,
		Notes:       notes,
		ReceiptPath: receiptPath,
	}, nil
}

// parseDateRange splits "<start> to <end>"; when the report carries no
// range, the week token is used with a seven-day span.
func parseDateRange(dateRange, week string) (start, end time.Time, err error) {
	if parts := strings.Split(dateRange, " to "); len(parts) == 2 {
		start, err = time.Parse("2006-01-02", strings.TrimSpace(parts[0]))
		if err == nil {
			end, err = time.Parse("2006-01-02", strings.TrimSpace(parts[1]))
			if err == nil {
				return start, end, nil
			}
		}
	}
	start, err = time.Parse("2006-01-02", week)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("cannot determine pay period for week %q", week)
	}
	return start, start.AddDate(0, 0, 6), nil
}

func (s *Server) companyByName(name string) (config.ZohoCompany, bool) {
	for _, company := range s.companies {
		if strings.EqualFold(company.Name, name) {
			return company, true
		}
	}
	return config.ZohoCompany{}, false
}

// ---- rates ----

type rateRowView struct {
	EmployeeID string
	Rate       float64
}

type ratesView struct {
	Title       string
	Username    string
	Rates       []rateRowView
	DefaultRate float64
	Error       string
	Message     string
}

func (s *Server) handleRatesPage(w http.ResponseWriter, r *http.Request, username string) {
	rates, err := s.rates.Load()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ids := make([]string, 0, len(rates))
	for id := range rates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	view := ratesView{
		Title:       "Pay Rates",
		Username:    username,
		DefaultRate: s.defaultRate,
		Error:       r.URL.Query().Get("err"),
		Message:     r.URL.Query().Get("msg"),
	}
	for _, id := range ids {
		view.Rates = append(view.Rates, rateRowView{EmployeeID: id, Rate: rates[id]})
	}
	s.render(w, "rates.html", view)
}

func (s *Server) handleRateSet(w http.ResponseWriter, r *http.Request, _ string) {
	employeeID := strings.TrimSpace(r.FormValue("employee_id"))
	rateRaw := strings.TrimSpace(r.FormValue("rate"))
	if employeeID == "" {
		s.redirectWithError(w, r, "/rates", "employee ID is required")
		return
	}
	rate, err := strconv.ParseFloat(rateRaw, 64)
	if err != nil {
		s.redirectWithError(w, r, "/rates", fmt.Sprintf("invalid rate %q", rateRaw))
		return
	}
	if err := s.rates.Set(employeeID, rate); err != nil {
		s.redirectWithError(w, r, "/rates", err.Error())
		return
	}
	http.Redirect(w, r, "/rates?msg="+url.QueryEscape("Rate saved"), http.StatusFound)
}

func (s *Server) handleRateDelete(w http.ResponseWriter, r *http.Request, _ string) {
	employeeID := strings.TrimSpace(r.FormValue("employee_id"))
	if err := s.rates.Delete(employeeID); err != nil {
		s.redirectWithError(w, r, "/rates", err.Error())
		return
	}
	http.Redirect(w, r, "/rates?msg="+url.QueryEscape("Rate removed"), http.StatusFound)
}

// ---- account management ----

type passwordView struct {
	Title    string
	Username string
	Error    string
	Message  string
}

func (s *Server) handlePasswordPage(w http.ResponseWriter, r *http.Request, username string) {
	s.render(w, "password.html", passwordView{
		Title:    "Change Password",
		Username: username,
		Error:    r.URL.Query().Get("err"),
		Message:  r.URL.Query().Get("msg"),
	})
}

func (s *Server) handlePasswordChange(w http.ResponseWriter, r *http.Request, username string) {
	current := r.FormValue("current_password")
	next := r.FormValue("new_password")
	if err := s.users.ChangePassword(username, current, next); err != nil {
		s.redirectWithError(w, r, "/password", err.Error())
		return
	}
	http.Redirect(w, r, "/password?msg="+url.QueryEscape("Password updated"), http.StatusFound)
}

type usersView struct {
	Title    string
	Username string
	Users    []string
	Error    string
	Message  string
}

func (s *Server) handleUsersPage(w http.ResponseWriter, r *http.Request, username string) {
	if !IsAdmin(username) {
		http.Error(w, "only admin can manage users", http.StatusForbidden)
		return
	}
	s.render(w, "users.html", usersView{
		Title:    "Manage Users",
		Username: username,
		Users:    s.users.Usernames(),
		Error:    r.URL.Query().Get("err"),
		Message:  r.URL.Query().Get("msg"),
	})
}

func (s *Server) handleUserAdd(w http.ResponseWriter, r *http.Request, username string) {
	if !IsAdmin(username) {
		http.Error(w, "only admin can add users", http.StatusForbidden)
		return
	}
	if err := s.users.Add(strings.TrimSpace(r.FormValue("username")), r.FormValue("password")); err != nil {
		s.redirectWithError(w, r, "/users", err.Error())
		return
	}
	http.Redirect(w, r, "/users?msg="+url.QueryEscape("User added"), http.StatusFound)
}

func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request, username string) {
	if !IsAdmin(username) {
		http.Error(w, "only admin can delete users", http.StatusForbidden)
		return
	}
	if err := s.users.Delete(strings.TrimSpace(r.FormValue("username"))); err != nil {
		s.redirectWithError(w, r, "/users", err.Error())
		return
	}
	http.Redirect(w, r, "/users?msg="+url.QueryEscape("User deleted"), http.StatusFound)
}

// ---- helpers ----

func (s *Server) redirectHomeError(w http.ResponseWriter, r *http.Request, message string) {
	s.redirectWithError(w, r, "/", message)
}

func (s *Server) redirectReportsError(w http.ResponseWriter, r *http.Request, message string) {
	s.redirectWithError(w, r, "/reports", message)
}

func (s *Server) redirectReportsMessage(w http.ResponseWriter, r *http.Request, message string) {
	http.Redirect(w, r, "/reports?msg="+url.QueryEscape(message), http.StatusFound)
}

func (s *Server) redirectWithError(w http.ResponseWriter, r *http.Request, target, message string) {
	http.Redirect(w, r, target+"?err="+url.QueryEscape(message), http.StatusFound)
}

func (s *Server) render(w http.ResponseWriter, pageTemplate string, data any) {
	if err := renderTemplate(w, pageTemplate, data); err != nil {
		s.logger.Error("render template", slog.String("template", pageTemplate), slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func renderTemplate(w http.ResponseWriter, pageTemplate string, data any) error {
	tmpl, err := template.New("base.html").Funcs(template.FuncMap{
		"fmtMoney": func(value float64) string {
			return fmt.Sprintf("$%.2f", value)
		},
		"fmtHours": func(value float64) string {
			return fmt.Sprintf("%.2f", value)
		},
		"fmtAmount": func(value *float64) string {
			if value == nil {
				return "—"
			}
			return fmt.Sprintf("$%.2f", *value)
		},
	}).ParseFS(templateFS, "templates/base.html", "templates/"+pageTemplate)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", pageTemplate, err)
	}
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		return fmt.Errorf("render template %s: %w", pageTemplate, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
