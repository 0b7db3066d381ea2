package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/c360studio/reposettings/interval"
	"github.com/c360studio/reposettings/settings"
)

// Kind classifies a validation failure. Every kind is a user-correctable
// input error.
type Kind string

// Failure kinds.
const (
	KindBrokerUnreachable  Kind = "BrokerUnreachable"
	KindNotATimeExpression Kind = "NotATimeExpression"
	KindNegativeInterval   Kind = "NegativeInterval"
	KindZeroMagnitude      Kind = "ZeroMagnitude"
	KindNoRecognizedUnit   Kind = "NoRecognizedUnit"
	KindInvalidURL         Kind = "InvalidUrl"
	KindServiceUnreachable Kind = "ServiceUnreachable"
	KindLookupURLRequired  Kind = "LookupUrlRequired"
)

// FieldError is a failure attached to the field that caused it.
type FieldError struct {
	Field settings.Field
	Kind  Kind
	// Value is the offending input as it was checked.
	Value string
	// Err is the underlying cause, if any.
	Err error
}

// Error returns the operator-facing message.
func (e *FieldError) Error() string {
	return e.Message()
}

// Unwrap returns the underlying cause.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// Message renders the operator-facing message for the failure.
func (e *FieldError) Message() string {
	switch e.Kind {
	case KindBrokerUnreachable:
		return fmt.Sprintf("Cannot connect to message broker at %s", e.Value)
	case KindNotATimeExpression:
		return fmt.Sprintf("%q is not a valid time or interval expression.", e.Value)
	case KindNegativeInterval:
		return "Time or interval expression cannot be negative"
	case KindZeroMagnitude:
		return `No numeric interval specified, for example "1 day"`
	case KindNoRecognizedUnit:
		return fmt.Sprintf("No time interval found, please include one of (%s). Plurals are also accepted.",
			strings.Join(interval.Units, ", "))
	case KindInvalidURL:
		return fmt.Sprintf("Cannot parse URL %s", e.Value)
	case KindServiceUnreachable:
		return fmt.Sprintf("Cannot connect to URL %s", e.Value)
	case KindLookupURLRequired:
		return "Must enter Gemini URL before selecting bundles to display a pseudo field on."
	default:
		return fmt.Sprintf("%s is invalid", e.Field)
	}
}

// KindOf returns the kind of the first FieldError in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

// expiryKind maps interval parse failures onto failure kinds.
func expiryKind(err error) Kind {
	switch {
	case errors.Is(err, interval.ErrNegative):
		return KindNegativeInterval
	case errors.Is(err, interval.ErrZeroMagnitude):
		return KindZeroMagnitude
	case errors.Is(err, interval.ErrNoUnit):
		return KindNoRecognizedUnit
	default:
		return KindNotATimeExpression
	}
}
