package payroll

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// MaxHourlyRate is a sanity bound on stored rates.
const MaxHourlyRate = 10000

const rateCacheTTL = 5 * time.Minute

var ErrRateOutOfRange = errors.New("hourly rate out of range")

// RateStore persists the employee ID -> hourly rate table as a JSON document.
// Reads go through a short-lived cache to keep repeated report generation off
// the disk; any write invalidates the cache and keeps a .backup copy of the
// previous version.
type RateStore struct {
	path string
	now  func() time.Time

	mu       sync.Mutex
	cached   map[string]float64
	loadedAt time.Time
}

func NewRateStore(path string) *RateStore {
	return &RateStore{path: path, now: time.Now}
}

// NewRateStoreWithClock is for tests that need a deterministic TTL.
func NewRateStoreWithClock(path string, now func() time.Time) *RateStore {
	return &RateStore{path: path, now: now}
}

// Load returns the rate table. A missing or unreadable file is an empty
// table: rate lookups fall back to the default at calculation time.
func (s *RateStore) Load() (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && s.now().Sub(s.loadedAt) < rateCacheTTL {
		return copyRates(s.cached), nil
	}

	rates := make(map[string]float64)
	content, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read rate table %s: %w", s.path, err)
	default:
		if err := json.Unmarshal(content, &rates); err != nil {
			return nil, fmt.Errorf("decode rate table %s: %w", s.path, err)
		}
	}

	s.cached = copyRates(rates)
	s.loadedAt = s.now()
	return rates, nil
}

// Save validates and persists the full table, backing up the previous
// version first and replacing the canonical file atomically.
func (s *RateStore) Save(rates map[string]float64) error {
	for id, rate := range rates {
		if rate < 0 || rate > MaxHourlyRate {
			return fmt.Errorf("%w: employee %s rate %.2f", ErrRateOutOfRange, id, rate)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if previous, err := os.ReadFile(s.path); err == nil {
		if err := os.WriteFile(s.path+".backup", previous, 0o600); err != nil {
			return fmt.Errorf("write rate table backup: %w", err)
		}
	}

	content, err := json.MarshalIndent(rates, "", "  ")
	if err != nil {
		return fmt.Errorf("encode rate table: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o600); err != nil {
		return fmt.Errorf("write rate table: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace rate table: %w", err)
	}

	s.cached = copyRates(rates)
	s.loadedAt = s.now()
	return nil
}

// Set stores a single rate.
func (s *RateStore) Set(employeeID string, rate float64) error {
	rates, err := s.Load()
	if err != nil {
		return err
	}
	rates[employeeID] = rate
	return s.Save(rates)
}

// Delete removes an employee from the table. Deleting an unknown ID is a
// no-op.
func (s *RateStore) Delete(employeeID string) error {
	rates, err := s.Load()
	if err != nil {
		return err
	}
	if _, ok := rates[employeeID]; !ok {
		return nil
	}
	delete(rates, employeeID)
	return s.Save(rates)
}

func copyRates(rates map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(rates))
	for id, rate := range rates {
		out[id] = rate
	}
	return out
}
