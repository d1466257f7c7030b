package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LocalLayout is the wire format for event timestamps. No zone suffix.
const LocalLayout = "2006-01-02T15:04:05"

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	LocalLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// LocalTime is a timezone-naive wall clock timestamp. It is rendered in the
// viewer's local time without conversion.
type LocalTime struct {
	time.Time
}

// NewLocalTime builds a LocalTime from calendar fields in time.Local
func NewLocalTime(year int, month time.Month, day, hour, min int) LocalTime {
	return LocalTime{time.Date(year, month, day, hour, min, 0, 0, time.Local)}
}

// AsLocal drops the zone of t and keeps its wall clock
func AsLocal(t time.Time) LocalTime {
	return LocalTime{time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local)}
}

// ParseLocalTime parses the accepted wire layouts. A trailing "Z" or
// numeric offset is discarded and the wall clock kept.
func ParseLocalTime(s string) (LocalTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return LocalTime{}, fmt.Errorf("empty timestamp")
	}
	s = stripZone(s)
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return LocalTime{t}, nil
		}
	}
	return LocalTime{}, fmt.Errorf("invalid local timestamp %q", s)
}

func stripZone(s string) string {
	if strings.HasSuffix(s, "Z") {
		return s[:len(s)-1]
	}
	// Offsets only appear after the time part.
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		tail := s[i:]
		if j := strings.LastIndexAny(tail, "+-"); j > 0 {
			return s[:i+j]
		}
	}
	return s
}

// Add returns the timestamp shifted by d
func (lt LocalTime) Add(d time.Duration) LocalTime {
	return LocalTime{lt.Time.Add(d)}
}

// String renders the wire form
func (lt LocalTime) String() string {
	if lt.IsZero() {
		return ""
	}
	return lt.Format(LocalLayout)
}

// DateString and ClockString split the timestamp for form prefill.
func (lt LocalTime) DateString() string {
	if lt.IsZero() {
		return ""
	}
	return lt.Format("2006-01-02")
}

func (lt LocalTime) ClockString() string {
	if lt.IsZero() {
		return ""
	}
	return lt.Format("15:04")
}

func (lt LocalTime) MarshalJSON() ([]byte, error) {
	if lt.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(lt.Format(LocalLayout))
}

func (lt *LocalTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*lt = LocalTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseLocalTime(s)
	if err != nil {
		return err
	}
	*lt = parsed
	return nil
}
