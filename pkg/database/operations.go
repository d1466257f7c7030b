package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/jmoiron/sqlx"

	"timely/pkg/utils"
)

// Prefs reads and writes UI preferences
type Prefs struct {
	db *sqlx.DB
}

// NewPrefs wraps an open database whose schema is in place
func NewPrefs(db *sqlx.DB) *Prefs {
	return &Prefs{db: db}
}

// Get returns the value stored under key. ok is false when nothing is stored.
func (p *Prefs) Get(key string) (value string, ok bool, err error) {
	var pref Preference
	err = p.db.Get(&pref, `SELECT key, value, lastmodified FROM preferences WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read preference %s: %w", key, err)
	}
	return pref.Value, true, nil
}

// Set stores value under key, replacing any previous value
func (p *Prefs) Set(key, value string) error {
	_, err := p.db.NamedExec(`
		INSERT INTO preferences (key, value, lastmodified)
		VALUES (:key, :value, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, lastmodified = CURRENT_TIMESTAMP
	`, map[string]interface{}{"key": key, "value": value})
	if err != nil {
		return fmt.Errorf("write preference %s: %w", key, err)
	}
	return nil
}

// LoadColumnWidths returns the stored column widths. Missing, malformed or
// wrong-length data yields equal quarters; only a database failure is an error.
func (p *Prefs) LoadColumnWidths() (ColumnWidths, error) {
	raw, ok, err := p.Get(ColumnWidthsKey)
	if err != nil {
		return DefaultColumnWidths, err
	}
	if !ok {
		return DefaultColumnWidths, nil
	}
	widths, valid := parseWidths(raw)
	if !valid {
		utils.Log("Ignoring malformed %s value %q", ColumnWidthsKey, raw)
		return DefaultColumnWidths, nil
	}
	return widths, nil
}

// SaveColumnWidths persists widths as a JSON array
func (p *Prefs) SaveColumnWidths(w ColumnWidths) error {
	b, err := json.Marshal(w[:])
	if err != nil {
		return err
	}
	return p.Set(ColumnWidthsKey, string(b))
}

func parseWidths(raw string) (ColumnWidths, bool) {
	var vals []float64
	if err := json.Unmarshal([]byte(raw), &vals); err != nil || len(vals) != len(ColumnWidths{}) {
		return ColumnWidths{}, false
	}
	var w ColumnWidths
	total := 0.0
	for i, v := range vals {
		if math.IsNaN(v) || v <= 0 {
			return ColumnWidths{}, false
		}
		w[i] = v
		total += v
	}
	if math.Abs(total-100) > 0.5 {
		return ColumnWidths{}, false
	}
	return w, true
}

// ResizeColumns moves the gutter between column gutter and gutter+1 by
// deltaPct percent. Only those two columns change; their sum is kept so the
// total stays 100, and neither drops below MinColumnWidth.
func ResizeColumns(w ColumnWidths, gutter int, deltaPct float64) ColumnWidths {
	if gutter < 0 || gutter >= len(w)-1 {
		return w
	}
	pair := w[gutter] + w[gutter+1]
	if pair < 2*MinColumnWidth {
		return w
	}
	left := math.Max(w[gutter]+deltaPct, MinColumnWidth)
	left = math.Min(left, pair-MinColumnWidth)
	w[gutter] = left
	w[gutter+1] = pair - left
	return w
}

// Cells converts widths to terminal columns for a board of total cells.
// Rounding remainders go to the last column.
func (w ColumnWidths) Cells(total int) [4]int {
	var out [4]int
	used := 0
	for i := range w {
		if i == len(w)-1 {
			out[i] = total - used
			break
		}
		out[i] = int(math.Round(w[i] * float64(total) / 100))
		used += out[i]
	}
	if out[len(w)-1] < 0 {
		out[len(w)-1] = 0
	}
	return out
}
