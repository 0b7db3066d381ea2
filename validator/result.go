package validator

import (
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/c360studio/reposettings/interval"
	"github.com/c360studio/reposettings/settings"
)

// Result collects every failure from one validation run, in field order.
type Result struct {
	// RunID correlates the run with its log lines.
	RunID  string
	Errors []*FieldError
	// Expiry is the accepted JWT expiry; zero when the field failed.
	Expiry interval.Interval
}

// Valid reports whether the run produced no failures.
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// Field returns the failures reported for f.
func (r *Result) Field(f settings.Field) []*FieldError {
	var out []*FieldError
	for _, fe := range r.Errors {
		if fe.Field == f {
			out = append(out, fe)
		}
	}
	return out
}

// Err collapses the failures into a single error, or nil when valid.
func (r *Result) Err() error {
	if r.Valid() {
		return nil
	}
	var merr *multierror.Error
	for _, fe := range r.Errors {
		merr = multierror.Append(merr, fe)
	}
	merr.ErrorFormat = formatFieldErrors
	return merr
}

func (r *Result) add(fe *FieldError) {
	if fe != nil {
		r.Errors = append(r.Errors, fe)
	}
}

func formatFieldErrors(errs []error) string {
	var b strings.Builder
	for i, err := range errs {
		if i > 0 {
			b.WriteString("; ")
		}
		if fe, ok := err.(*FieldError); ok {
			b.WriteString(string(fe.Field))
			b.WriteString(": ")
		}
		b.WriteString(err.Error())
	}
	return b.String()
}
