package web

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"payrun/report"
)

func TestReportLister_ScansAndCaches(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{
		"admin_report_2026-08-03.xlsx",
		"admin_report_2026-08-10.xlsx",
		"payroll_summary_2026-08-03.xlsx",
		"notes.txt",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	lister := newReportLister(dir, report.NewMetadataStore(filepath.Join(dir, "metadata.json")))
	now := time.Now()
	lister.now = func() time.Time { return now }

	entries, err := lister.List()
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 admin reports, got %d: %v", len(entries), entries)
	}
	if entries[0].Week != "2026-08-10" || entries[1].Week != "2026-08-03" {
		t.Fatalf("expected newest week first, got %v", entries)
	}

	// A file added within the TTL window is not seen until invalidation.
	if err := os.WriteFile(filepath.Join(dir, "admin_report_2026-08-17.xlsx"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write new report: %v", err)
	}
	entries, err = lister.List()
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected cached listing, got %d entries", len(entries))
	}

	lister.Invalidate()
	entries, err = lister.List()
	if err != nil {
		t.Fatalf("list reports after invalidation: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 reports after invalidation, got %d", len(entries))
	}

	// The TTL expiring has the same effect.
	if err := os.Remove(filepath.Join(dir, "admin_report_2026-08-17.xlsx")); err != nil {
		t.Fatalf("remove report: %v", err)
	}
	lister.now = func() time.Time { return now.Add(reportListTTL + time.Second) }
	entries, err = lister.List()
	if err != nil {
		t.Fatalf("list reports after ttl: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected rescan after ttl, got %d entries", len(entries))
	}
}

func TestReportLister_PersistsMetadataIndex(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "admin_report_2026-08-03.xlsx"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write report: %v", err)
	}

	indexPath := filepath.Join(t.TempDir(), "metadata.json")
	lister := newReportLister(dir, report.NewMetadataStore(indexPath))

	if _, err := lister.List(); err != nil {
		t.Fatalf("list reports: %v", err)
	}

	// The scan's Ensure batch must land on disk so a restart does not
	// re-derive every workbook.
	content, err := os.ReadFile(indexPath)
	if err != nil {
		t.Fatalf("expected metadata index to be written: %v", err)
	}
	if !strings.Contains(string(content), "admin_report_2026-08-03.xlsx") {
		t.Fatalf("expected scanned report in index, got:\n%s", content)
	}
}

func TestReportLister_AdminReportPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "admin_report_2026-08-03.xlsx"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write report: %v", err)
	}
	lister := newReportLister(dir, report.NewMetadataStore(filepath.Join(dir, "metadata.json")))

	path, err := lister.AdminReportPath("2026-08-03")
	if err != nil {
		t.Fatalf("admin report path: %v", err)
	}
	if filepath.Base(path) != "admin_report_2026-08-03.xlsx" {
		t.Fatalf("unexpected path %s", path)
	}

	if _, err := lister.AdminReportPath("2026-08-10"); err == nil {
		t.Fatal("expected error for missing week")
	}
	if _, err := lister.AdminReportPath("../etc/passwd"); err == nil {
		t.Fatal("expected error for malformed week token")
	}
}
