package portalauth

import (
	"context"
	"strings"
	"sync"
)

// ResetState tracks progress through the two-step password reset.
type ResetState uint8

const (
	// ResetStateRequested: the OTP challenge was issued to the email.
	ResetStateRequested ResetState = iota
	// ResetStateAuthorized: the OTP was verified; Complete may run.
	ResetStateAuthorized
	// ResetStateCompleted: the credential was changed; the flow is spent.
	ResetStateCompleted
)

func (s ResetState) String() string {
	switch s {
	case ResetStateAuthorized:
		return "authorized"
	case ResetStateCompleted:
		return "completed"
	default:
		return "requested"
	}
}

// PasswordReset is the two-step reset state machine. The email travels as
// in-memory flow state on this object, never as a URL parameter, and
// Complete refuses to run before VerifyOTP has succeeded: entering the final
// step directly with a known email is not possible through this API. When
// the backend issues a short-lived reset_token on OTP verification, it is
// captured here and forwarded on Complete; the backend is expected to
// require it so that client-side ordering is not the only enforcement.
type PasswordReset struct {
	client *Client

	mu         sync.Mutex
	state      ResetState
	email      string
	resetToken string
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type verifyResetOTPResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"reset_token"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
	ResetToken  string `json:"reset_token,omitempty"`
}

// StartPasswordReset asks the backend to issue a PasswordReset OTP for email
// and returns the flow in ResetStateRequested. Issuing a new challenge
// supersedes any prior one for the same email; only the newest code can
// verify. The flow runs independently of any active session.
func (c *Client) StartPasswordReset(ctx context.Context, email string) (*PasswordReset, error) {
	if !c.ready() {
		return nil, ErrClientNotReady
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, &ValidationError{Field: "email"}
	}

	if err := c.postJSON(ctx, "/auth/forgot-password", forgotPasswordRequest{Email: email}, nil); err != nil {
		c.emitAudit(ctx, auditEventResetRequest, false, email, err, nil)
		return nil, err
	}

	c.metricInc(MetricResetRequest)
	c.emitAudit(ctx, auditEventResetRequest, true, email, nil, nil)

	return &PasswordReset{
		client: c,
		state:  ResetStateRequested,
		email:  email,
	}, nil
}

// Email returns the address the flow was started for.
func (f *PasswordReset) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// State returns the flow's current state.
func (f *PasswordReset) State() ResetState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// VerifyOTP validates the code against the active PasswordReset challenge.
// Expiry and one-shot semantics are the backend's; a superseded or expired
// code comes back as [ErrOTPExpired] or [ErrOTPInvalid]. Failures are
// non-terminal until the attempt budget returns [ErrOTPRateLimited]. On
// success the flow moves to ResetStateAuthorized and captures the backend's
// reset_token when present.
func (f *PasswordReset) VerifyOTP(ctx context.Context, code string) error {
	if f == nil || f.client == nil {
		return ErrClientNotReady
	}
	c := f.client

	f.mu.Lock()
	if f.state == ResetStateCompleted {
		f.mu.Unlock()
		return ErrFlowCompleted
	}
	email := f.email
	f.mu.Unlock()

	if strings.TrimSpace(code) == "" {
		return &ValidationError{Field: "otp"}
	}

	if err := c.otpLimiter.Check(ctx, otpPurposeReset, email); err != nil {
		mapped := mapOTPLimiterError(err)
		c.metricInc(MetricOTPRateLimited)
		c.emitAudit(ctx, auditEventResetVerify, false, email, mapped, nil)
		return mapped
	}

	var resp verifyResetOTPResponse
	err := c.postJSON(ctx, "/auth/verify-reset-otp", verifyOTPRequest{Email: email, OTP: code}, &resp)
	if err != nil {
		mapped := mapOTPRejection(err)
		if mapped == ErrOTPInvalid || mapped == ErrOTPExpired {
			if limErr := c.otpLimiter.RecordFailure(ctx, otpPurposeReset, email); limErr != nil {
				mapped = mapOTPLimiterError(limErr)
			}
		}
		c.metricInc(MetricResetVerifyFailure)
		c.emitAudit(ctx, auditEventResetVerify, false, email, err, nil)
		return mapped
	}

	if limErr := c.otpLimiter.Reset(ctx, otpPurposeReset, email); limErr != nil {
		c.emitAudit(ctx, auditEventResetVerify, true, email, limErr, nil)
	}

	f.mu.Lock()
	f.state = ResetStateAuthorized
	f.resetToken = resp.ResetToken
	f.mu.Unlock()

	c.metricInc(MetricResetVerifySuccess)
	c.emitAudit(ctx, auditEventResetVerify, true, email, nil, nil)
	return nil
}

// Complete finalizes the credential change and spends the flow. Called
// before VerifyOTP has succeeded it returns [ErrResetNotAuthorized] and the
// caller restarts at StartPasswordReset; called on a spent flow it returns
// [ErrFlowCompleted]. On success the caller is routed back to the login
// entry point.
func (f *PasswordReset) Complete(ctx context.Context, newPassword string) error {
	if f == nil || f.client == nil {
		return ErrClientNotReady
	}
	c := f.client

	f.mu.Lock()
	switch f.state {
	case ResetStateCompleted:
		f.mu.Unlock()
		return ErrFlowCompleted
	case ResetStateRequested:
		f.mu.Unlock()
		return ErrResetNotAuthorized
	}
	email := f.email
	resetToken := f.resetToken
	f.mu.Unlock()

	if newPassword == "" {
		return &ValidationError{Field: "new_password"}
	}

	req := resetPasswordRequest{
		Email:       email,
		NewPassword: newPassword,
		ResetToken:  resetToken,
	}
	if err := c.postJSON(ctx, "/auth/reset-password", req, nil); err != nil {
		c.metricInc(MetricResetCompleteFailure)
		c.emitAudit(ctx, auditEventResetComplete, false, email, err, nil)
		return err
	}

	f.mu.Lock()
	f.state = ResetStateCompleted
	f.resetToken = ""
	f.mu.Unlock()

	c.metricInc(MetricResetCompleteSuccess)
	c.emitAudit(ctx, auditEventResetComplete, true, email, nil, nil)
	return nil
}
