package web

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"payrun/payroll"
	"payrun/report"
	"payrun/storage"
	"payrun/timesheet"
)

const pendingUploadTTL = time.Hour

// pendingUpload holds a parsed timesheet between upload and the operator's
// validation decision.
type pendingUpload struct {
	Token     string
	Filename  string
	Creator   string
	Records   []timesheet.Record
	Issues    []timesheet.Issue
	CreatedAt time.Time
}

type uploadRegistry struct {
	mu      sync.Mutex
	pending map[string]pendingUpload
}

func newUploadRegistry() *uploadRegistry {
	return &uploadRegistry{pending: make(map[string]pendingUpload)}
}

func (r *uploadRegistry) put(upload pendingUpload) string {
	token := uuid.NewString()
	upload.Token = token
	upload.CreatedAt = time.Now()

	r.mu.Lock()
	for key, existing := range r.pending {
		if time.Since(existing.CreatedAt) > pendingUploadTTL {
			delete(r.pending, key)
		}
	}
	r.pending[token] = upload
	r.mu.Unlock()
	return token
}

func (r *uploadRegistry) take(token string) (pendingUpload, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	upload, ok := r.pending[token]
	if !ok || time.Since(upload.CreatedAt) > pendingUploadTTL {
		delete(r.pending, token)
		return pendingUpload{}, false
	}
	delete(r.pending, token)
	return upload, true
}

func (r *uploadRegistry) peek(token string) (pendingUpload, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	upload, ok := r.pending[token]
	if !ok || time.Since(upload.CreatedAt) > pendingUploadTTL {
		return pendingUpload{}, false
	}
	return upload, true
}

// applyClockFixes overwrites missing clock values with operator-entered
// times. Fixes are keyed by the record's CSV row number.
func applyClockFixes(records []timesheet.Record, clockIn, clockOut map[int]string) []timesheet.Record {
	out := make([]timesheet.Record, len(records))
	copy(out, records)
	for i := range out {
		if value, ok := clockIn[out[i].RowNumber]; ok && strings.TrimSpace(value) != "" {
			out[i].ClockIn = strings.TrimSpace(value)
		}
		if value, ok := clockOut[out[i].RowNumber]; ok && strings.TrimSpace(value) != "" {
			out[i].ClockOut = strings.TrimSpace(value)
		}
	}
	return out
}

// processResult is what one completed run produces.
type processResult struct {
	Run       report.Run
	Generated []report.Generated
	Total     payroll.GrandTotal
}

// processRecords runs the full pipeline: load rates, compute aggregates,
// generate the four report layouts, and record the run in history.
func (s *Server) processRecords(records []timesheet.Record, creator string) (processResult, error) {
	start, end := timesheet.DateRange(records)
	if start.IsZero() {
		return processResult{}, fmt.Errorf("no records with a valid date to process")
	}

	rates, err := s.rates.Load()
	if err != nil {
		return processResult{}, fmt.Errorf("load pay rates: %w", err)
	}

	if err := os.MkdirAll(s.reportsDir, 0o755); err != nil {
		return processResult{}, fmt.Errorf("create reports directory: %w", err)
	}

	aggregates := payroll.ComputeWeeklyAggregates(records, rates, s.defaultRate)
	run := report.Run{
		Week:       start.Format("2006-01-02"),
		Start:      start,
		End:        end,
		Creator:    creator,
		Aggregates: aggregates,
	}

	generated := report.GenerateAll(s.reportsDir, run)
	s.lister.Invalidate()

	files := make([]string, 0, len(generated))
	for _, g := range generated {
		if g.Err != nil {
			s.logger.Error("report generation failed",
				slog.String("kind", g.Kind),
				slog.String("file", g.Filename),
				slog.Any("error", g.Err))
			continue
		}
		files = append(files, g.Filename)
	}

	total := payroll.ComputeGrandTotal(aggregates)
	if s.store != nil {
		_, err := s.store.InsertRun(storage.RunRecord{
			Week:        run.Week,
			Start:       start,
			End:         end,
			Creator:     creator,
			Employees:   len(aggregates),
			TotalHours:  total.Hours,
			TotalPay:    total.Pay,
			RoundedPay:  total.Rounded,
			ReportFiles: files,
		})
		if err != nil {
			s.logger.Error("record run history", slog.Any("error", err))
		}
	}

	s.logger.Info("payroll run processed",
		slog.String("week", run.Week),
		slog.String("creator", creator),
		slog.Int("employees", len(aggregates)),
		slog.Float64("total_pay", total.Pay))

	return processResult{Run: run, Generated: generated, Total: total}, nil
}
