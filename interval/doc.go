// Package interval parses the free-text time interval expressions operators
// enter for token lifetimes.
//
// # Grammar
//
// An expression is accepted when it is either a relative expression or an
// absolute date:
//
//   - keywords: now, today, midnight, noon, tomorrow, yesterday
//   - relative items: [+|-]N word, optionally followed by "ago"
//     ("2 days", "+1 week 3 hours", "10 minutes ago")
//   - ordinal items: next|last|previous|this word ("next month")
//   - absolute dates in any layout dateparse understands ("2025-03-01")
//
// Acceptance as an expression is not the same as acceptance as a token
// lifetime. [Parse] additionally rejects expressions that start with "-",
// expressions whose leading integer is zero, and expressions that contain
// none of the [Units] as a whole word (plurals allowed).
//
// # Usage
//
//	iv, err := interval.Parse("2 days")
//	if errors.Is(err, interval.ErrNoUnit) {
//	    // ask for one of interval.Units
//	}
//	ttl, err := iv.Duration(time.Now())
package interval
