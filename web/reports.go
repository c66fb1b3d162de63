package web

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"payrun/report"
)

const reportListTTL = 5 * time.Minute

var (
	weekFromFilename = regexp.MustCompile(`_(\d{4}-\d{2}-\d{2})\.`)
	weekToken        = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ReportEntry is one processed week as shown on the reports page.
type ReportEntry struct {
	Week        string
	Filename    string
	Creator     string
	DateRange   string
	TotalAmount *float64
	Modified    time.Time
}

// reportLister scans the reports directory for admin workbooks and enriches
// them from the metadata cache. Directory scans are throttled to one per TTL
// window; processing a new run invalidates the cache immediately.
type reportLister struct {
	dir      string
	metadata *report.MetadataStore
	now      func() time.Time

	mu        sync.Mutex
	cached    []ReportEntry
	fetchedAt time.Time
}

func newReportLister(dir string, metadata *report.MetadataStore) *reportLister {
	return &reportLister{dir: dir, metadata: metadata, now: time.Now}
}

func (l *reportLister) List() ([]ReportEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil && l.now().Sub(l.fetchedAt) < reportListTTL {
		return append([]ReportEntry(nil), l.cached...), nil
	}

	entries, err := l.scan()
	if err != nil {
		return nil, err
	}
	l.cached = entries
	l.fetchedAt = l.now()
	return append([]ReportEntry(nil), entries...), nil
}

func (l *reportLister) Invalidate() {
	l.mu.Lock()
	l.cached = nil
	l.mu.Unlock()
}

func (l *reportLister) scan() ([]ReportEntry, error) {
	dirEntries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ReportEntry{}, nil
		}
		return nil, fmt.Errorf("read reports directory: %w", err)
	}

	out := make([]ReportEntry, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		name := dirEntry.Name()
		if dirEntry.IsDir() || !strings.HasPrefix(name, "admin_report_") || !strings.HasSuffix(name, ".xlsx") {
			continue
		}
		match := weekFromFilename.FindStringSubmatch(name)
		if match == nil {
			continue
		}

		entry := ReportEntry{Week: match[1], Filename: name}
		fullPath := filepath.Join(l.dir, name)
		if info, err := dirEntry.Info(); err == nil {
			entry.Modified = info.ModTime()
		}
		if meta, err := l.metadata.Ensure(fullPath, name); err == nil {
			entry.Creator = meta.Creator
			entry.DateRange = meta.DateRange
			entry.TotalAmount = meta.TotalAmount
		}
		out = append(out, entry)
	}
	// Best effort; the derived entries are served either way and the index
	// is rebuilt on the next scan.
	_ = l.metadata.Flush()

	sort.Slice(out, func(i, j int) bool { return out[i].Week > out[j].Week })
	return out, nil
}

// AdminReportPath returns the admin workbook path for a week, checking the
// week token so a crafted value cannot escape the reports directory.
func (l *reportLister) AdminReportPath(week string) (string, error) {
	if !weekToken.MatchString(week) {
		return "", fmt.Errorf("invalid week %q", week)
	}
	path := filepath.Join(l.dir, report.AdminFilename(week))
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("no admin report for week %s", week)
	}
	return path, nil
}
