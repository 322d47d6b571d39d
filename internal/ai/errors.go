package ai

import (
	"context"
	"errors"
	"net"
	"strings"

	"google.golang.org/genai"
)

// Kind classifies generation failures so callers can word them for users.
type Kind string

const (
	KindTimeout     Kind = "timeout"
	KindRateLimited Kind = "rate_limited"
	KindNetwork     Kind = "network"
	KindMalformed   Kind = "malformed"
	KindUnavailable Kind = "unavailable"
)

// Error is a failed generation. All kinds are retryable by the user.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "ai " + e.Op + ": " + string(e.Kind)
	}
	return "ai " + e.Op + ": " + string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of an *Error anywhere in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ErrDisabled is wrapped by Disabled for every call.
var ErrDisabled = errors.New("generation is not configured")

// classify maps transport and API failures onto a Kind.
func classify(op string, err error) *Error {
	var already *Error
	if errors.As(err, &already) {
		return already
	}
	kind := KindNetwork
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &apiErr):
		kind = kindForStatus(apiErr.Code)
	case errors.As(err, &apiErrPtr):
		kind = kindForStatus(apiErrPtr.Code)
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case strings.Contains(strings.ToLower(err.Error()), "resource_exhausted"):
		kind = KindRateLimited
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func kindForStatus(code int) Kind {
	switch {
	case code == 429:
		return KindRateLimited
	case code == 408 || code == 504:
		return KindTimeout
	case code == 503:
		return KindUnavailable
	default:
		return KindNetwork
	}
}
