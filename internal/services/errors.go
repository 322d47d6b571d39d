// Package services implements entitlement, generation, migration and
// history logic on top of the repo package.
//
// This file centralizes the service-level error values. Translation into
// HTTP status codes and user-facing messages happens in the handlers.
package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidInput is returned when a generation request is missing
	// required fields or exceeds size limits. Wrapped errors carry the detail.
	ErrInvalidInput = errors.New("invalid input")

	// ErrQuotaExhausted indicates the identity has used every free
	// generation of the requested resource.
	ErrQuotaExhausted = errors.New("quota exhausted")

	// ErrEntitlementUnavailable is returned when the usage store could not
	// be read. Generation is denied rather than allowed unmetered.
	ErrEntitlementUnavailable = errors.New("entitlement unavailable")

	// ErrDuplicateSubmission is returned when a proposal is identical to the
	// identity's previous successful submission of the same kind.
	ErrDuplicateSubmission = errors.New("identical to the previous submission")

	// ErrCooldownActive matches every *CooldownError.
	ErrCooldownActive = errors.New("please wait before trying again")

	// ErrArtifactNotFound indicates the artifact does not exist or is not
	// owned by the caller.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrSignInRequired is returned for actions reserved to accounts.
	ErrSignInRequired = errors.New("sign in required")
)

// CooldownError rejects an action started inside its cool-down window.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s (retry in %s)", ErrCooldownActive, e.RetryAfter.Round(time.Millisecond))
}

// Is makes errors.Is(err, ErrCooldownActive) hold.
func (e *CooldownError) Is(target error) bool { return target == ErrCooldownActive }

// RetryAfter extracts the wait from a cool-down rejection, zero otherwise.
func RetryAfter(err error) time.Duration {
	var ce *CooldownError
	if errors.As(err, &ce) {
		return ce.RetryAfter
	}
	return 0
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
