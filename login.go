package portalauth

import (
	"context"
	"errors"
	"strings"

	"github.com/Saraswati-Portal/portalauth/token"
)

// Landing areas a fresh login routes to, keyed off the decoded role claim.
const (
	LandingAdmin = "/admin"
	LandingChat  = "/chat"
)

// Session is the result of a successful login.
type Session struct {
	Token   string
	Claims  token.Claims
	Landing string
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges credentials for a session token, stores it, and routes by
// the decoded role claim: RoleAdmin lands on [LandingAdmin], everything else
// on [LandingChat]. A token that cannot be decoded right after login is
// treated exactly like a guard decode failure: the store is cleared and the
// decode error returned rather than proceeding with an unknown role.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	if !c.ready() {
		return nil, ErrClientNotReady
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, &ValidationError{Field: "email"}
	}
	if password == "" {
		return nil, &ValidationError{Field: "password"}
	}

	var resp loginResponse
	if err := c.postJSON(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		mapped := mapLoginRejection(err)
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, auditEventLogin, false, email, err, nil)
		return nil, mapped
	}

	if err := c.sessions.Set(ctx, resp.AccessToken); err != nil {
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, auditEventLogin, false, email, err, nil)
		return nil, err
	}

	claims, err := token.Decode(resp.AccessToken)
	if err != nil {
		_ = c.sessions.Clear(ctx)
		c.metricInc(MetricLoginFailure)
		c.emitAudit(ctx, auditEventLogin, false, email, err, func() map[string]string {
			return map[string]string{
				"reason": "undecodable_token",
			}
		})
		return nil, err
	}

	landing := LandingChat
	if claims.Role == token.RoleAdmin {
		landing = LandingAdmin
	}

	c.metricInc(MetricLoginSuccess)
	c.emitAudit(ctx, auditEventLogin, true, email, nil, func() map[string]string {
		return map[string]string{
			"role":    claims.Role.String(),
			"landing": landing,
		}
	})

	return &Session{
		Token:   resp.AccessToken,
		Claims:  *claims,
		Landing: landing,
	}, nil
}

// Logout clears the session slot. Safe to call without an active session.
func (c *Client) Logout(ctx context.Context) error {
	if !c.ready() {
		return ErrClientNotReady
	}

	if err := c.sessions.Clear(ctx); err != nil {
		return err
	}

	c.metricInc(MetricLogout)
	c.emitAudit(ctx, auditEventLogout, true, "", nil, nil)
	return nil
}

// CurrentClaims decodes the stored token. Absent session → [ErrNoSession];
// an undecodable token clears the store and returns the decode error, since
// an unreadable session is never safely usable.
func (c *Client) CurrentClaims(ctx context.Context) (*token.Claims, error) {
	if !c.ready() {
		return nil, ErrClientNotReady
	}

	raw, ok, err := c.sessions.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoSession
	}

	claims, err := token.Decode(raw)
	if err != nil {
		_ = c.sessions.Clear(ctx)
		c.emitAudit(ctx, auditEventSessionClear, false, "", err, nil)
		return nil, err
	}

	return claims, nil
}

func mapLoginRejection(err error) error {
	var rejection *ServerRejection
	if !errors.As(err, &rejection) {
		return err
	}

	switch rejection.StatusCode {
	case 401:
		return ErrInvalidCredentials
	case 403:
		return ErrAccountUnverified
	default:
		return err
	}
}
