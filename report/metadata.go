package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
)

// Listing a directory of reports should not reopen every workbook on every
// request; MetadataStore is a read-through side index keyed by filename and
// invalidated only by file modification time.

const mtimeEpsilon = 0.1 // seconds

var dateRangePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2} to \d{4}-\d{2}-\d{2}`)

// MetadataRecord is the cached extract of one generated report.
type MetadataRecord struct {
	MtimeUnix   float64  `json:"mtime"`
	Creator     string   `json:"creator"`
	TotalAmount *float64 `json:"total_amount"`
	DateRange   string   `json:"date_range"`
}

type MetadataStore struct {
	path string

	mu      sync.Mutex
	loaded  bool
	records map[string]MetadataRecord
}

func NewMetadataStore(path string) *MetadataStore {
	return &MetadataStore{path: path, records: make(map[string]MetadataRecord)}
}

// Ensure returns the cached record for filename when the file's modification
// time still matches, re-deriving and caching it otherwise. Callers should
// Flush after a batch of Ensure calls.
func (s *MetadataStore) Ensure(filePath, filename string) (MetadataRecord, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return MetadataRecord{}, fmt.Errorf("stat report %s: %w", filePath, err)
	}
	mtime := float64(info.ModTime().UnixNano()) / 1e9

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()

	if record, ok := s.records[filename]; ok && math.Abs(record.MtimeUnix-mtime) < mtimeEpsilon {
		return record, nil
	}

	record := extractMetadata(filePath)
	record.MtimeUnix = mtime
	s.records[filename] = record
	return record, nil
}

// Flush persists the index atomically.
func (s *MetadataStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()

	content, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report metadata: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o600); err != nil {
		return fmt.Errorf("write report metadata: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace report metadata: %w", err)
	}
	return nil
}

func (s *MetadataStore) loadLocked() {
	if s.loaded {
		return
	}
	s.loaded = true
	content, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	// A corrupt index is not fatal; records are re-derived on demand.
	_ = json.Unmarshal(content, &s.records)
}

// extractMetadata opens the workbook and pulls the creator, title date range
// and grand-total amount. Extraction is best effort: a report missing any of
// the conventional cells still gets a record, just with blanks.
func extractMetadata(filePath string) MetadataRecord {
	record := MetadataRecord{Creator: "Unknown"}

	file, err := excelize.OpenFile(filePath)
	if err != nil {
		return record
	}
	defer file.Close()
	sheet := file.GetSheetName(0)

	if value, err := file.GetCellValue(sheet, AdminLayout.CreatorCell); err == nil && strings.TrimSpace(value) != "" {
		record.Creator = strings.TrimSpace(value)
	} else if value, err := file.GetCellValue(sheet, AdminLayout.ProcessedByCell); err == nil {
		if strings.Contains(value, AdminLayout.ProcessedPrefix) {
			record.Creator = strings.TrimSpace(strings.TrimPrefix(value, AdminLayout.ProcessedPrefix))
		}
	}

	if title, err := file.GetCellValue(sheet, AdminLayout.TitleCell); err == nil {
		record.DateRange = dateRangePattern.FindString(title)
	}

	record.TotalAmount = findGrandTotalAmount(file, sheet)
	return record
}

// findGrandTotalAmount scans a bounded window (rows 3-40, cols <= 20) for the
// grand-total marker row and takes its right-most positive numeric value.
func findGrandTotalAmount(file *excelize.File, sheet string) *float64 {
	rows, err := file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil
	}

	maxRow := len(rows)
	if maxRow > 40 {
		maxRow = 40
	}
	for r := 2; r < maxRow; r++ {
		joined := strings.ToUpper(strings.Join(rows[r], ""))
		if !strings.Contains(joined, strings.ToUpper(AdminLayout.GrandTotalLabel)) {
			continue
		}
		cells := rows[r]
		maxCol := len(cells)
		if maxCol > 20 {
			maxCol = 20
		}
		for c := maxCol - 1; c >= 0; c-- {
			value, err := strconv.ParseFloat(strings.TrimSpace(cells[c]), 64)
			if err == nil && value > 0 {
				return &value
			}
		}
		return nil
	}
	return nil
}
