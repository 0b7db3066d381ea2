package interval

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var errUnparseable = errors.New("unparseable expression")

var (
	numberTokenRe = regexp.MustCompile(`^([+-]?)(\d+)([a-z]*)$`)
	wordTokenRe   = regexp.MustCompile(`^[a-z]+$`)
)

// relativeUnits maps accepted spellings to the unit they advance.
var relativeUnits = map[string]string{
	"sec": "second", "secs": "second", "second": "second", "seconds": "second",
	"min": "minute", "mins": "minute", "minute": "minute", "minutes": "minute",
	"hour": "hour", "hours": "hour",
	"day": "day", "days": "day",
	"weekday": "day", "weekdays": "day",
	"week": "week", "weeks": "week",
	"fortnight": "fortnight", "fortnights": "fortnight",
	"month": "month", "months": "month",
	"year": "year", "years": "year",
}

// unitSpans is the longest span one step of each unit can cover. Items
// larger than math.MaxInt64 / span are out of range.
var unitSpans = map[string]time.Duration{
	"second":    time.Second,
	"minute":    time.Minute,
	"hour":      time.Hour,
	"day":       25 * time.Hour,
	"week":      7 * 25 * time.Hour,
	"fortnight": 14 * 25 * time.Hour,
	"month":     31 * 25 * time.Hour,
	"year":      366 * 25 * time.Hour,
}

var ordinals = map[string]int{
	"next":     1,
	"last":     -1,
	"previous": -1,
	"this":     0,
}

type item struct {
	n    int
	word string
}

// expression is a parsed date/time expression. It is either absolute or a
// list of keyword and relative adjustments applied in order.
type expression struct {
	absolute   time.Time
	isAbsolute bool
	keywords   []string
	items      []item
}

func parseExpression(s string) (*expression, error) {
	if s == "" {
		return nil, errUnparseable
	}
	if expr, err := parseRelative(s); err == nil {
		return expr, nil
	}
	t, err := parseAbsolute(s)
	if err != nil {
		return nil, err
	}
	return &expression{absolute: t, isAbsolute: true}, nil
}

func parseRelative(s string) (*expression, error) {
	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ','
	})
	if len(tokens) == 0 {
		return nil, errUnparseable
	}

	expr := &expression{}
	// items from groupStart on have not yet been closed by "ago".
	groupStart := 0
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		switch tok {
		case "now", "today", "midnight", "noon", "tomorrow", "yesterday":
			expr.keywords = append(expr.keywords, tok)
			continue
		case "ago":
			if len(expr.items) == groupStart {
				return nil, errUnparseable
			}
			for j := groupStart; j < len(expr.items); j++ {
				expr.items[j].n = -expr.items[j].n
			}
			groupStart = len(expr.items)
			continue
		}

		if n, ok := ordinals[tok]; ok {
			if i+1 >= len(tokens) || !wordTokenRe.MatchString(tokens[i+1]) {
				return nil, errUnparseable
			}
			i++
			expr.items = append(expr.items, item{n: n, word: tokens[i]})
			continue
		}

		m := numberTokenRe.FindStringSubmatch(tok)
		if m == nil {
			return nil, errUnparseable
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errUnparseable, err)
		}
		if m[1] == "-" {
			n = -n
		}
		word := m[3]
		if word == "" {
			if i+1 >= len(tokens) || !wordTokenRe.MatchString(tokens[i+1]) || tokens[i+1] == "ago" {
				return nil, errUnparseable
			}
			i++
			word = tokens[i]
		}
		expr.items = append(expr.items, item{n: n, word: word})
	}
	return expr, nil
}

func parseAbsolute(s string) (t time.Time, err error) {
	// dateparse has panicked on malformed input in past releases.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errUnparseable, r)
		}
	}()
	t, err = dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", errUnparseable, err)
	}
	return t, nil
}

func (e *expression) resolve(from time.Time) (time.Time, error) {
	if e.isAbsolute {
		return e.absolute, nil
	}

	t := from
	for _, kw := range e.keywords {
		switch kw {
		case "today", "midnight":
			t = startOfDay(t)
		case "noon":
			t = startOfDay(t).Add(12 * time.Hour)
		case "tomorrow":
			t = startOfDay(t).AddDate(0, 0, 1)
		case "yesterday":
			t = startOfDay(t).AddDate(0, 0, -1)
		}
	}

	for _, it := range e.items {
		unit := relativeUnits[it.word]
		if span, ok := unitSpans[unit]; ok {
			limit := int64(math.MaxInt64 / span)
			if int64(it.n) > limit || int64(it.n) < -limit {
				return time.Time{}, fmt.Errorf("%w: %d %s", ErrOutOfRange, it.n, it.word)
			}
		}

		switch unit {
		case "second":
			t = t.Add(time.Duration(it.n) * time.Second)
		case "minute":
			t = t.Add(time.Duration(it.n) * time.Minute)
		case "hour":
			t = t.Add(time.Duration(it.n) * time.Hour)
		case "day":
			t = t.AddDate(0, 0, it.n)
		case "week":
			t = t.AddDate(0, 0, 7*it.n)
		case "fortnight":
			t = t.AddDate(0, 0, 14*it.n)
		case "month":
			t = t.AddDate(0, it.n, 0)
		case "year":
			t = t.AddDate(it.n, 0, 0)
		}
	}
	return t, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
