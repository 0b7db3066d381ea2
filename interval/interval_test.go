package interval

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantErr  error
		wantUnit string
		wantMag  int
	}{
		{name: "days", raw: "2 days", wantUnit: "day", wantMag: 2},
		{name: "hours", raw: "10 hours", wantUnit: "hour", wantMag: 10},
		{name: "week", raw: "1 week", wantUnit: "week", wantMag: 1},
		{name: "minutes", raw: "3 minutes", wantUnit: "minute", wantMag: 3},
		{name: "abbreviated plural", raw: "60 secs", wantUnit: "sec", wantMag: 60},
		{name: "mixed case and whitespace", raw: "  7 WEEKS \t", wantUnit: "week", wantMag: 7},
		{name: "explicit plus sign", raw: "+1 year", wantUnit: "year", wantMag: 1},
		{name: "compound", raw: "1 month 2 days", wantUnit: "month", wantMag: 1},
		{name: "ago", raw: "5 minutes ago", wantUnit: "minute", wantMag: 5},

		{name: "empty", raw: "", wantErr: ErrNotTimeExpression},
		{name: "whitespace only", raw: "   ", wantErr: ErrNotTimeExpression},
		{name: "gibberish", raw: "hello there", wantErr: ErrNotTimeExpression},
		{name: "number without unit word", raw: "12", wantErr: nil},

		{name: "negative", raw: "-1 day", wantErr: ErrNegative},
		{name: "negative zero unknown word", raw: "-0 foo", wantErr: ErrNegative},
		{name: "negative after trim", raw: "  -3 hours", wantErr: ErrNegative},

		{name: "zero", raw: "0 days", wantErr: ErrZeroMagnitude},
		{name: "plus zero", raw: "+0 hours", wantErr: ErrZeroMagnitude},
		{name: "padded zero", raw: "000 weeks", wantErr: ErrZeroMagnitude},
		{name: "keyword without number", raw: "tomorrow", wantErr: ErrZeroMagnitude},
		{name: "ordinal without number", raw: "next week", wantErr: ErrZeroMagnitude},

		{name: "unknown unit", raw: "5 fortnights", wantErr: ErrNoUnit},
		{name: "unit inside a longer word", raw: "2 weekdays", wantErr: ErrNoUnit},
		{name: "absolute date", raw: "2025-03-01", wantErr: ErrNoUnit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.name == "number without unit word" {
				// Either unparseable or unit-less; never accepted.
				_, err := Parse(tt.raw)
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrNotTimeExpression) || errors.Is(err, ErrNoUnit), "got %v", err)
				return
			}

			iv, err := Parse(tt.raw)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUnit, iv.Unit)
			assert.Equal(t, tt.wantMag, iv.Magnitude)
			assert.Equal(t, Normalize(tt.raw), iv.String())
		})
	}
}

func TestParse_NegativeWinsOverLaterChecks(t *testing.T) {
	// Unit-less and zero magnitude, but the leading "-" is reported first.
	_, err := Parse("-0 foo")
	assert.ErrorIs(t, err, ErrNegative)
	assert.NotErrorIs(t, err, ErrZeroMagnitude)
	assert.NotErrorIs(t, err, ErrNoUnit)
}

func TestParse_NegativeIsTextual(t *testing.T) {
	// "ago" makes the offset negative, but only a leading "-" is rejected.
	iv, err := Parse("2 days ago")
	require.NoError(t, err)

	_, err = iv.Duration(time.Now())
	assert.ErrorIs(t, err, ErrNotPositive)
}

func TestLeadingInteger(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"2 days", 2},
		{"+5 hours", 5},
		{"-7 weeks", -7},
		{"007 days", 7},
		{"1.5 hours", 1},
		{"days", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, LeadingInteger(tt.in))
		})
	}

	assert.Greater(t, LeadingInteger("99999999999999999999999 years"), 0)
}

func TestIntervalDuration(t *testing.T) {
	ref := time.Date(2025, time.January, 1, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		raw  string
		want time.Duration
	}{
		{"2 days", 48 * time.Hour},
		{"10 hours", 10 * time.Hour},
		{"60 secs", time.Minute},
		{"1 week 1 hour", 7*24*time.Hour + time.Hour},
		{"1 year", 365 * 24 * time.Hour},
		{"1 month", 31 * 24 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			iv, err := Parse(tt.raw)
			require.NoError(t, err)

			got, err := iv.Duration(ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			at, err := iv.ExpiresAt(ref)
			require.NoError(t, err)
			assert.Equal(t, ref.Add(tt.want), at)
		})
	}
}

func TestIntervalDuration_Errors(t *testing.T) {
	ref := time.Date(2025, time.January, 1, 8, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{name: "hours beyond duration range", raw: "3000000 hours", wantErr: ErrOutOfRange},
		{name: "seconds beyond duration range", raw: "9999999999999 seconds", wantErr: ErrOutOfRange},
		{name: "years beyond duration range", raw: "300 years", wantErr: ErrOutOfRange},
		{name: "items summing beyond range", raw: "200 years 200 years", wantErr: ErrOutOfRange},
		{name: "absolute date with a unit", raw: "1.5 hours", wantErr: ErrAbsoluteDate},
		{name: "cancelled out", raw: "1 day ago 24 hours", wantErr: ErrNotPositive},
		{name: "whole group in the past", raw: "1 day 24 hours ago", wantErr: ErrNotPositive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv, err := Parse(tt.raw)
			require.NoError(t, err)

			_, err = iv.Duration(ref)
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = iv.ExpiresAt(ref)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	var zero Interval
	_, err := zero.Duration(ref)
	assert.Error(t, err)
}

func TestIntervalDuration_LargestInRange(t *testing.T) {
	ref := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	iv, err := Parse("2562047 hours")
	require.NoError(t, err)
	d, err := iv.Duration(ref)
	require.NoError(t, err)
	assert.Equal(t, 2562047*time.Hour, d)
}

func TestAgoAppliesToPrecedingGroup(t *testing.T) {
	ref := time.Date(2025, time.June, 15, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"1 day ago 1 day ago", ref.AddDate(0, 0, -2)},
		{"2 days ago 3 days", ref.AddDate(0, 0, 1)},
		{"1 week 2 days ago", ref.AddDate(0, 0, -9)},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			expr, err := parseExpression(tt.raw)
			require.NoError(t, err)
			got, err := expr.resolve(ref)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseRelative("1 day ago ago")
	assert.Error(t, err)
}

func TestParseExpression(t *testing.T) {
	ref := time.Date(2025, time.June, 15, 14, 0, 0, 0, time.UTC)

	resolve := func(s string) time.Time {
		t.Helper()
		expr, err := parseExpression(s)
		require.NoError(t, err)
		got, err := expr.resolve(ref)
		require.NoError(t, err)
		return got
	}

	assert.Equal(t, time.Date(2025, time.June, 16, 12, 0, 0, 0, time.UTC), resolve("tomorrow noon"))
	assert.Equal(t, time.Date(2025, time.July, 15, 14, 0, 0, 0, time.UTC), resolve("next month"))
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), resolve("2025-03-01"))

	expr, err := parseExpression("2025-03-01")
	require.NoError(t, err)
	assert.True(t, expr.isAbsolute)

	for _, bad := range []string{"", "ago", "next", "3", "days 3", "1.5 hours"} {
		_, err := parseRelative(bad)
		assert.Error(t, err, "parseRelative(%q)", bad)
	}
}
