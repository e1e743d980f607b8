package ir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"empty string", "", `""`},
		{"int", 42, "42"},
		{"negative int64", int64(-100), "-100"},
		{"bool true", true, "true"},
		{"empty array", []any{}, "[]"},
		{"empty object", map[string]any{}, "{}"},
		{"empty scores", Scores{}, "{}"},
		{"scores", Scores{"b": 2, "a": 1}, `{"a":1,"b":2}`},
		{"no html escaping", "<a&b>", `"<a&b>"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalRejectsFloatsAndNull(t *testing.T) {
	_, err := MarshalCanonical(4.4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are forbidden")

	_, err = MarshalCanonical(nil)
	require.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `value for key "x"`)
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "\u00e9" as e + combining acute accent normalizes to the precomposed form.
	decomposed, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	composed, err := MarshalCanonical("\u00e9")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	got, err := MarshalCanonical("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(got))

	// A literal backslash followed by u2028 text stays escaped.
	got, err = MarshalCanonical(`x\u2028`)
	require.NoError(t, err)
	assert.Equal(t, `"x\\u2028"`, string(got))
}

func TestMarshalCanonicalRecord(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := ScoreRecord{
		Judge:     "Jane Doe",
		EntryID:   1,
		Scores:    Scores{"technical_execution": 5, "problem_definition": 4},
		Comment:   "solid",
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	got, err := MarshalCanonical(rec)
	require.NoError(t, err)
	assert.Equal(t,
		`{"comment":"solid","created_at":"2025-03-01T12:00:00Z","entry_id":1,"judge":"Jane Doe",`+
			`"scores":{"problem_definition":4,"technical_execution":5},"updated_at":"2025-03-01T12:00:00Z"}`,
		string(got))
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "", FormatTime(time.Time{}))

	loc := time.FixedZone("GST", 4*3600)
	ts := time.Date(2025, 3, 1, 16, 0, 0, 0, loc)
	assert.Equal(t, "2025-03-01T12:00:00Z", FormatTime(ts))
}
