package portalauth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned by Login when the backend rejects
	// the email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountUnverified is returned by Login for an account that has not
	// completed OTP verification.
	ErrAccountUnverified = errors.New("account unverified")
	// ErrNoSession is returned by introspection when no session is active.
	ErrNoSession = errors.New("no active session")
	// ErrOTPInvalid is returned when the backend rejects a submitted code.
	ErrOTPInvalid = errors.New("otp invalid")
	// ErrOTPExpired is returned when the backend reports the challenge as
	// expired; the originally correct code is rejected the same way.
	ErrOTPExpired = errors.New("otp expired")
	// ErrOTPRateLimited is returned when the client-side attempt budget for
	// an email+purpose pair is exhausted.
	ErrOTPRateLimited = errors.New("otp attempts rate limited")
	// ErrOTPLimiterUnavailable is returned when the attempt limiter backend
	// cannot be reached.
	ErrOTPLimiterUnavailable = errors.New("otp attempt limiter unavailable")
	// ErrResetNotAuthorized is returned by PasswordReset.Complete when the
	// flow has not passed OTP verification; the caller must restart at
	// StartPasswordReset.
	ErrResetNotAuthorized = errors.New("password reset not authorized")
	// ErrFlowCompleted is returned when a finished flow object is reused.
	ErrFlowCompleted = errors.New("flow already completed")
	// ErrClientNotReady is returned when a Client was not built through
	// Builder.Build.
	ErrClientNotReady = errors.New("client not initialized")
)

// ValidationError reports a required field missing from a flow input. It is
// raised before any network call; the request never reaches the backend.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

// ServerRejection is a non-2xx backend response. Reason carries the backend's
// human-readable detail verbatim and is safe to surface to the user.
type ServerRejection struct {
	StatusCode int
	Reason     string
}

func (e *ServerRejection) Error() string {
	return fmt.Sprintf("server rejected request (%d): %s", e.StatusCode, e.Reason)
}

// NetworkError means no usable response was received. Callers surface it as
// a generic failure message; flows never retry automatically.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "request failed: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }
