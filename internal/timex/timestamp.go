// Package timex contains time types used on the wire and in config files.
//
// The authorization service has historically emitted timestamps in several
// shapes (RFC 3339, space-separated date-times, raw epoch numbers), so the
// wire DTOs use Timestamp instead of time.Time directly.
package timex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// layouts tried in order after the RFC 3339 variants. Layouts without a
// zone are interpreted as UTC.
var fallbackLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
}

// Timestamp is a time.Time that unmarshals from any of the formats the
// authorization service is known to produce and always normalizes to UTC.
// The zero value marshals as JSON null and means "absent".
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t, normalized to UTC.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{t.UTC()}
}

// Parse converts a single timestamp string. An empty string yields the
// zero Timestamp without error.
func Parse(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{t.UTC()}, nil
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Timestamp{t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unsupported timestamp format: %q", s)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := Parse(s)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	}

	// Bare numbers are epoch seconds, possibly fractional.
	var epoch float64
	if err := json.Unmarshal(data, &epoch); err != nil {
		return fmt.Errorf("unsupported timestamp value: %s", string(data))
	}
	sec := int64(epoch)
	nsec := int64((epoch - float64(sec)) * float64(time.Second))
	*t = Timestamp{time.Unix(sec, nsec).UTC()}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}
