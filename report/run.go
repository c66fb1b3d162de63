package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"payrun/payroll"
)

// Run carries everything the generators need for one processing run.
type Run struct {
	Week       string
	Start      time.Time
	End        time.Time
	Creator    string
	Aggregates []payroll.WeeklyAggregate
}

// DateRange is the human-readable range placed in report title cells.
func (r Run) DateRange() string {
	if r.Start.IsZero() || r.End.IsZero() {
		return "Current Period"
	}
	return r.Start.Format("2006-01-02") + " to " + r.End.Format("2006-01-02")
}

func (r Run) creatorOrUnknown() string {
	if r.Creator == "" {
		return "Unknown"
	}
	return r.Creator
}

// Generated describes one report produced (or attempted) by GenerateAll.
type Generated struct {
	Kind     string
	Filename string
	Err      error
}

// GenerateAll writes all four report layouts into dir. A failing layout does
// not abort the run: the failure is recorded, an error artifact is written
// next to the reports, and the remaining layouts still render. Thanks to
// write-then-rename no partial file ever sits at a canonical path.
func GenerateAll(dir string, run Run) []Generated {
	type generator struct {
		kind     string
		filename string
		write    func(path string, run Run) error
	}
	generators := []generator{
		{"summary", SummaryFilename(run.Week), WriteSummary},
		{"payslips", PayslipsFilename(run.Week), WritePayslips},
		{"admin", AdminFilename(run.Week), WriteAdmin},
		{"cutting", CuttingFilename(run.Week), WriteCutting},
	}

	results := make([]Generated, 0, len(generators))
	for _, g := range generators {
		err := g.write(filepath.Join(dir, g.filename), run)
		if err != nil {
			writeErrorArtifact(dir, g.kind, g.filename, err)
		}
		results = append(results, Generated{Kind: g.kind, Filename: g.filename, Err: err})
	}
	return results
}

// SummaryText is a compact plain-text rendition of the summary table, used
// as the auto-generated notes on the accounting expense.
func (r Run) SummaryText() string {
	lines := make([]string, 0, len(r.Aggregates)+2)
	lines = append(lines, "Payroll "+r.DateRange())
	for _, aggregate := range r.Aggregates {
		lines = append(lines, fmt.Sprintf("%s: %.2fh, $%.2f (rounded $%d)",
			aggregate.Name, aggregate.TotalHours, aggregate.TotalPay, aggregate.RoundedPay))
	}
	total := payroll.ComputeGrandTotal(r.Aggregates)
	lines = append(lines, fmt.Sprintf("GRAND TOTAL: %.2fh, $%.2f (rounded $%d)",
		total.Hours, total.Pay, total.Rounded))
	return strings.Join(lines, "\n")
}

func writeErrorArtifact(dir, kind, filename string, genErr error) {
	body := fmt.Sprintf("Report generation failed\nKind: %s\nTarget: %s\nTime: %s\nError: %v\n",
		kind, filename, time.Now().Format(time.RFC3339), genErr)
	// Best effort only; the generation error is what callers act on.
	_ = os.WriteFile(filepath.Join(dir, "error_report.txt"), []byte(body), 0o644)
}
