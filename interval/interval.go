package interval

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Parse failures, in the order they are checked.
var (
	ErrNotTimeExpression = errors.New("not a valid time or interval expression")
	ErrNegative          = errors.New("time or interval expression cannot be negative")
	ErrZeroMagnitude     = errors.New("no numeric interval specified")
	ErrNoUnit            = errors.New("no time interval unit found")
)

// Resolution failures for an accepted interval.
var (
	ErrAbsoluteDate = errors.New("expression names a date, not an interval")
	ErrOutOfRange   = errors.New("interval out of range")
	ErrNotPositive  = errors.New("interval does not resolve to a positive duration")
)

// Units is the unit vocabulary a token lifetime must mention. Each unit may
// carry a trailing "s". "day" is included so that "2 days" is accepted; the
// NoRecognizedUnit message lists it too.
var Units = []string{"sec", "second", "min", "minute", "hour", "day", "week", "month", "year"}

var (
	unitPattern      = regexp.MustCompile(`\b(` + strings.Join(Units, "|") + `)s?\b`)
	leadingIntegerRe = regexp.MustCompile(`^[+-]?(\d+)`)
)

// Interval is an accepted token lifetime expression.
type Interval struct {
	// Expression is the normalized (trimmed, lower-cased) input.
	Expression string
	// Magnitude is the leading integer of the expression.
	Magnitude int
	// Unit is the first recognized unit, singular.
	Unit string

	expr *expression
}

// Normalize trims surrounding whitespace and lower-cases raw.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Parse validates raw as a positive interval with an explicit unit. Checks
// run in a fixed order and the first failure is returned:
// unparseable, leading "-", zero leading integer, no recognized unit.
func Parse(raw string) (Interval, error) {
	s := Normalize(raw)

	expr, err := parseExpression(s)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: %q", ErrNotTimeExpression, s)
	}

	// Surface check on the text, not on the parsed value.
	if strings.HasPrefix(s, "-") {
		return Interval{}, ErrNegative
	}

	magnitude := LeadingInteger(s)
	if magnitude == 0 {
		return Interval{}, ErrZeroMagnitude
	}

	m := unitPattern.FindStringSubmatch(s)
	if m == nil {
		return Interval{}, fmt.Errorf("%w: want one of %s", ErrNoUnit, strings.Join(Units, ", "))
	}

	return Interval{
		Expression: s,
		Magnitude:  magnitude,
		Unit:       m[1],
		expr:       expr,
	}, nil
}

// LeadingInteger returns the integer formed by the optional sign and digit
// run at the start of s, or 0 when s does not start with one. Values too
// large for an int saturate.
func LeadingInteger(s string) int {
	m := leadingIntegerRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	digits := strings.TrimLeft(m[1], "0")
	if digits == "" {
		return 0
	}
	negative := strings.HasPrefix(m[0], "-")
	n, err := strconv.Atoi(digits)
	switch {
	case err != nil && negative:
		return math.MinInt
	case err != nil:
		return math.MaxInt
	case negative:
		return -n
	}
	return n
}

// Duration resolves the whole expression against from and returns the
// distance from from. Month and year items follow calendar arithmetic.
// Absolute dates, results outside the range of time.Duration and results
// that are not strictly positive are errors.
func (iv Interval) Duration(from time.Time) (time.Duration, error) {
	if iv.expr == nil {
		return 0, ErrNotTimeExpression
	}
	if iv.expr.isAbsolute {
		return 0, fmt.Errorf("%w: %q", ErrAbsoluteDate, iv.Expression)
	}
	to, err := iv.expr.resolve(from)
	if err != nil {
		return 0, err
	}
	d := to.Sub(from)
	// Sub saturates instead of overflowing.
	if d == math.MaxInt64 || d == math.MinInt64 {
		return 0, fmt.Errorf("%w: %q", ErrOutOfRange, iv.Expression)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %q resolves to %s", ErrNotPositive, iv.Expression, d)
	}
	return d, nil
}

// ExpiresAt returns from plus the interval.
func (iv Interval) ExpiresAt(from time.Time) (time.Time, error) {
	d, err := iv.Duration(from)
	if err != nil {
		return time.Time{}, err
	}
	return from.Add(d), nil
}

// String returns the normalized expression.
func (iv Interval) String() string {
	return iv.Expression
}
