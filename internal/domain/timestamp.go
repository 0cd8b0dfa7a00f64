package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Layouts tried in order. The offset-less layouts are parsed as UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Timestamp is an instant as delivered by a source: either already decoded
// (Time) or the stored ISO-8601 text (Raw). Time wins when both are set.
type Timestamp struct {
	Raw  string
	Time time.Time
}

// At wraps an already parsed instant.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// RawTimestamp wraps a stored timestamp string.
func RawTimestamp(s string) Timestamp {
	return Timestamp{Raw: s}
}

// IsZero reports whether neither form is set.
func (ts Timestamp) IsZero() bool {
	return ts.Time.IsZero() && strings.TrimSpace(ts.Raw) == ""
}

// Resolve returns the instant in UTC.
func (ts Timestamp) Resolve() (time.Time, error) {
	if !ts.Time.IsZero() {
		return ts.Time.UTC(), nil
	}
	return ParseTimestamp(ts.Raw)
}

func (ts Timestamp) String() string {
	if !ts.Time.IsZero() {
		return ts.Time.UTC().Format(time.RFC3339)
	}
	return ts.Raw
}

// MarshalJSON encodes the timestamp as a string, preferring the parsed form.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.String())
}

// UnmarshalJSON keeps the text as Raw and fills Time when it parses.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode timestamp: %w", err)
	}
	*ts = Timestamp{}
	if s == nil {
		return nil
	}
	ts.Raw = *s
	if t, err := ParseTimestamp(*s); err == nil {
		ts.Time = t
	}
	return nil
}

// ParseTimestamp parses an ISO-8601 style timestamp. A value without an
// explicit offset is UTC. A trailing zone id such as "[UTC]" is ignored.
func ParseTimestamp(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if i := strings.IndexByte(v, '['); i > 0 && strings.HasSuffix(v, "]") {
		v = v[:i]
	}
	if v == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}
