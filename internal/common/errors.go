package common

import "errors"

// ReasonError is a rejected request. Kind is one of ErrorValidation,
// ErrorPermission, ErrorConflict or ErrorNotFound; Reason is the sentence
// shown to the user.
type ReasonError struct {
	Kind   error
	Reason string
}

func (e *ReasonError) Error() string {
	return e.Kind.Error() + ": " + e.Reason
}

func (e *ReasonError) Unwrap() error {
	return e.Kind
}

func Validation(reason string) error {
	return &ReasonError{Kind: ErrorValidation, Reason: reason}
}

func Permission(reason string) error {
	return &ReasonError{Kind: ErrorPermission, Reason: reason}
}

func Conflict(reason string) error {
	return &ReasonError{Kind: ErrorConflict, Reason: reason}
}

func Missing(reason string) error {
	return &ReasonError{Kind: ErrorNotFound, Reason: reason}
}

// Reason extracts the user-facing reason from err, or returns fallback when
// err carries none.
func Reason(err error, fallback string) string {
	var re *ReasonError
	if errors.As(err, &re) {
		return re.Reason
	}
	return fallback
}
