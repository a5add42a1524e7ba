package portalauth

import (
	"context"
	"errors"
	"strings"
)

type verifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// VerifyRegistration submits a registration OTP for email. Success means the
// backend flipped the account to verified and Login may proceed; the client
// imposes no check of its own. A rejected code is non-terminal and may be
// resubmitted until the client-side attempt budget returns
// [ErrOTPRateLimited].
func (c *Client) VerifyRegistration(ctx context.Context, email, code string) error {
	if !c.ready() {
		return ErrClientNotReady
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Field: "email"}
	}
	if strings.TrimSpace(code) == "" {
		return &ValidationError{Field: "otp"}
	}

	return c.submitOTP(ctx, otpPurposeRegistration, auditEventVerifyOTP, email, code, "/auth/verify-otp")
}

// submitOTP runs one code submission with the shared attempt budget and
// invalid/expired mapping. Used by both the registration and reset flows.
func (c *Client) submitOTP(ctx context.Context, purpose, eventType, email, code, path string) error {
	if err := c.otpLimiter.Check(ctx, purpose, email); err != nil {
		mapped := mapOTPLimiterError(err)
		if errors.Is(mapped, ErrOTPRateLimited) {
			c.metricInc(MetricOTPRateLimited)
		}
		c.emitAudit(ctx, eventType, false, email, mapped, nil)
		return mapped
	}

	err := c.postJSON(ctx, path, verifyOTPRequest{Email: email, OTP: code}, nil)
	if err != nil {
		mapped := mapOTPRejection(err)
		if errors.Is(mapped, ErrOTPInvalid) || errors.Is(mapped, ErrOTPExpired) {
			// Only genuine code rejections consume budget; network
			// failures and unrelated rejections do not.
			if limErr := c.otpLimiter.RecordFailure(ctx, purpose, email); limErr != nil {
				mapped = mapOTPLimiterError(limErr)
			}
		}
		if errors.Is(mapped, ErrOTPExpired) {
			c.metricInc(MetricOTPVerifyExpired)
		} else {
			c.metricInc(MetricOTPVerifyFailure)
		}
		c.emitAudit(ctx, eventType, false, email, err, func() map[string]string {
			return map[string]string{
				"purpose": purpose,
			}
		})
		return mapped
	}

	if err := c.otpLimiter.Reset(ctx, purpose, email); err != nil {
		// The submission already succeeded; a limiter hiccup must not
		// fail the flow.
		c.emitAudit(ctx, eventType, true, email, err, nil)
	}

	c.metricInc(MetricOTPVerifySuccess)
	c.emitAudit(ctx, eventType, true, email, nil, func() map[string]string {
		return map[string]string{
			"purpose": purpose,
		}
	})
	return nil
}

// mapOTPRejection classifies a backend OTP rejection. The wire contract
// collapses invalid and expired into 400 + detail, so the reason text is the
// only discriminator; anything else passes through unchanged.
func mapOTPRejection(err error) error {
	var rejection *ServerRejection
	if !errors.As(err, &rejection) {
		return err
	}

	switch rejection.StatusCode {
	case 400, 410:
		if strings.Contains(strings.ToLower(rejection.Reason), "expired") {
			return ErrOTPExpired
		}
		return ErrOTPInvalid
	default:
		return err
	}
}
