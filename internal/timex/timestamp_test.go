package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	want := time.Date(2024, 11, 16, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
	}{
		{"rfc3339 utc", "2024-11-16T12:00:00Z"},
		{"rfc3339 offset", "2024-11-16T14:00:00+02:00"},
		{"no zone", "2024-11-16T12:00:00"},
		{"space separated", "2024-11-16 12:00:00"},
		{"slash separated", "2024/11/16 12:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := Parse(tt.value)
			require.NoError(t, err)
			assert.True(t, ts.Equal(want), "got %s, want %s", ts, want)
			assert.Equal(t, time.UTC, ts.Location())
		})
	}
}

func TestParse_Empty(t *testing.T) {
	ts, err := Parse("  ")
	require.NoError(t, err)
	assert.True(t, ts.IsZero())
}

func TestParse_Unsupported(t *testing.T) {
	_, err := Parse("yesterday")
	assert.Error(t, err)
}

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	var doc struct {
		At Timestamp `json:"at"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"at":"2024-11-16T12:00:00Z"}`), &doc))
	assert.Equal(t, time.Date(2024, 11, 16, 12, 0, 0, 0, time.UTC), doc.At.Time)

	require.NoError(t, json.Unmarshal([]byte(`{"at":1731758400}`), &doc))
	assert.Equal(t, time.Unix(1731758400, 0).UTC(), doc.At.Time)

	require.NoError(t, json.Unmarshal([]byte(`{"at":null}`), &doc))
	assert.True(t, doc.At.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"at":true}`), &doc))
}

func TestTimestamp_MarshalJSON(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, 11, 16, 12, 0, 0, 0, time.UTC))
	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2024-11-16T12:00:00Z"`, string(data))

	data, err = json.Marshal(Timestamp{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	var doc struct {
		Every Duration `json:"every"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"every":"15m"}`), &doc))
	assert.Equal(t, 15*time.Minute, doc.Every.Duration)

	require.NoError(t, json.Unmarshal([]byte(`{"every":900}`), &doc))
	assert.Equal(t, 900*time.Second, doc.Every.Duration)

	assert.Error(t, json.Unmarshal([]byte(`{"every":"soon"}`), &doc))
	assert.Error(t, json.Unmarshal([]byte(`{"every":[1]}`), &doc))
}
