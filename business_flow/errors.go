package businessflow

import (
	"errors"
	"fmt"

	"github.com/ymgch/mitsumori/app/services"
)

// Business flow error constants
var (
	// Quote flow errors
	ErrNoActiveSession = errors.New("no active quote session")
	ErrUnknownFlow     = errors.New("unknown quote flow")
	ErrUnknownStep     = errors.New("unknown quote step")
	ErrInvalidAnswer   = errors.New("answer does not match any choice for the current step")
	ErrEmptyUserID     = errors.New("user ID is required")

	// Web order form errors
	ErrMissingRequiredField = errors.New("required form field is missing")
	ErrUnknownSubmitMode    = errors.New("unknown submit mode")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsNoActiveSession(err error) bool {
	return errors.Is(err, ErrNoActiveSession)
}

func IsUnknownFlow(err error) bool {
	return errors.Is(err, ErrUnknownFlow)
}

func IsUnknownStep(err error) bool {
	return errors.Is(err, ErrUnknownStep)
}

func IsInvalidAnswer(err error) bool {
	return errors.Is(err, ErrInvalidAnswer)
}

func IsMissingRequiredField(err error) bool {
	return errors.Is(err, ErrMissingRequiredField)
}

// IsFormTokenRejected reports whether err stems from a one-time form
// token that was invalid, expired, or already consumed.
func IsFormTokenRejected(err error) bool {
	return errors.Is(err, services.ErrFormTokenInvalid) ||
		errors.Is(err, services.ErrFormTokenExpired) ||
		errors.Is(err, services.ErrFormTokenUsed)
}
