package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

var ErrRunNotFound = errors.New("payroll run not found")

// RunRecord is one completed processing run as stored in the history table.
type RunRecord struct {
	ID          int64
	Week        string
	Start       time.Time
	End         time.Time
	Creator     string
	Employees   int
	TotalHours  float64
	TotalPay    float64
	RoundedPay  int
	ReportFiles []string
	CreatedAt   time.Time
}

// ExpensePush records one successful expense creation so re-pushing the same
// period to the same company can be detected without a round trip to the API.
type ExpensePush struct {
	ID        int64
	Company   string
	Reference string
	ExpenseID string
	Amount    float64
	PushedAt  time.Time
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS payroll_runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	week TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	creator TEXT NOT NULL,
	employees INTEGER NOT NULL CHECK(employees >= 0),
	total_hours REAL NOT NULL,
	total_pay REAL NOT NULL,
	rounded_pay INTEGER NOT NULL,
	report_files TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_payroll_runs_week ON payroll_runs(week);

CREATE TABLE IF NOT EXISTS expense_pushes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	company TEXT NOT NULL,
	reference TEXT NOT NULL,
	expense_id TEXT NOT NULL,
	amount REAL NOT NULL,
	pushed_at TEXT NOT NULL,
	UNIQUE(company, reference)
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// InsertRun appends a run to the history and returns its row ID.
func (s *SQLiteStore) InsertRun(run RunRecord) (int64, error) {
	files, err := json.Marshal(run.ReportFiles)
	if err != nil {
		return 0, fmt.Errorf("encode report files: %w", err)
	}

	const insertStmt = `
INSERT INTO payroll_runs (
	week,
	start_date,
	end_date,
	creator,
	employees,
	total_hours,
	total_pay,
	rounded_pay,
	report_files,
	created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	res, err := s.db.Exec(
		insertStmt,
		run.Week,
		run.Start.Format("2006-01-02"),
		run.End.Format("2006-01-02"),
		run.Creator,
		run.Employees,
		run.TotalHours,
		run.TotalPay,
		run.RoundedPay,
		string(files),
		createdAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert payroll run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted row id: %w", err)
	}
	return id, nil
}

// ListRuns returns the run history, newest first.
func (s *SQLiteStore) ListRuns() ([]RunRecord, error) {
	const query = `
SELECT
	id,
	week,
	start_date,
	end_date,
	creator,
	employees,
	total_hours,
	total_pay,
	rounded_pay,
	report_files,
	created_at
FROM payroll_runs
ORDER BY created_at DESC, id DESC;
`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query payroll runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunRecord, 0, 32)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payroll runs: %w", err)
	}

	return runs, nil
}

// LatestRunForWeek returns the most recent run recorded for the given week key.
func (s *SQLiteStore) LatestRunForWeek(week string) (RunRecord, bool, error) {
	const query = `
SELECT
	id,
	week,
	start_date,
	end_date,
	creator,
	employees,
	total_hours,
	total_pay,
	rounded_pay,
	report_files,
	created_at
FROM payroll_runs
WHERE week = ?
ORDER BY created_at DESC, id DESC
LIMIT 1;
`

	run, err := scanRun(s.db.QueryRow(query, week))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, false, nil
		}
		return RunRecord{}, false, fmt.Errorf("query run for week %s: %w", week, err)
	}
	return run, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRecord, error) {
	var (
		run        RunRecord
		startRaw   string
		endRaw     string
		filesRaw   string
		createdRaw string
	)

	if err := row.Scan(
		&run.ID,
		&run.Week,
		&startRaw,
		&endRaw,
		&run.Creator,
		&run.Employees,
		&run.TotalHours,
		&run.TotalPay,
		&run.RoundedPay,
		&filesRaw,
		&createdRaw,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, err
		}
		return RunRecord{}, fmt.Errorf("scan payroll run: %w", err)
	}

	var err error
	run.Start, err = time.Parse("2006-01-02", startRaw)
	if err != nil {
		return RunRecord{}, fmt.Errorf("parse start date %q: %w", startRaw, err)
	}
	run.End, err = time.Parse("2006-01-02", endRaw)
	if err != nil {
		return RunRecord{}, fmt.Errorf("parse end date %q: %w", endRaw, err)
	}
	run.CreatedAt, err = time.Parse(time.RFC3339, createdRaw)
	if err != nil {
		return RunRecord{}, fmt.Errorf("parse created_at %q: %w", createdRaw, err)
	}
	if err := json.Unmarshal([]byte(filesRaw), &run.ReportFiles); err != nil {
		return RunRecord{}, fmt.Errorf("decode report files %q: %w", filesRaw, err)
	}

	return run, nil
}

// RecordExpensePush stores a successful push. The second return value is false
// when a push for the same company and reference already exists.
func (s *SQLiteStore) RecordExpensePush(push ExpensePush) (int64, bool, error) {
	const insertStmt = `
INSERT OR IGNORE INTO expense_pushes (
	company,
	reference,
	expense_id,
	amount,
	pushed_at
) VALUES (?, ?, ?, ?, ?);`

	pushedAt := push.PushedAt
	if pushedAt.IsZero() {
		pushedAt = time.Now()
	}

	res, err := s.db.Exec(
		insertStmt,
		push.Company,
		push.Reference,
		push.ExpenseID,
		push.Amount,
		pushedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, false, fmt.Errorf("insert expense push: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("read inserted row count: %w", err)
	}
	if rows == 0 {
		return 0, false, nil
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("read inserted row id: %w", err)
	}
	return id, true, nil
}

// FindExpensePush looks up a prior push by company and reference number.
func (s *SQLiteStore) FindExpensePush(company, reference string) (ExpensePush, bool, error) {
	const query = `
SELECT
	id,
	company,
	reference,
	expense_id,
	amount,
	pushed_at
FROM expense_pushes
WHERE company = ? AND reference = ?;
`

	var (
		push      ExpensePush
		pushedRaw string
	)

	err := s.db.QueryRow(query, company, reference).Scan(
		&push.ID,
		&push.Company,
		&push.Reference,
		&push.ExpenseID,
		&push.Amount,
		&pushedRaw,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ExpensePush{}, false, nil
		}
		return ExpensePush{}, false, fmt.Errorf("query expense push: %w", err)
	}

	push.PushedAt, err = time.Parse(time.RFC3339, pushedRaw)
	if err != nil {
		return ExpensePush{}, false, fmt.Errorf("parse pushed_at %q: %w", pushedRaw, err)
	}

	return push, true, nil
}
