package portalauth

import (
	"context"
	"time"

	"github.com/Saraswati-Portal/portalauth/token"
)

// DenyReason classifies why [Client.Evaluate] denied access.
type DenyReason uint8

const (
	DenyNone DenyReason = iota
	// DenyNoSession: no token in the session slot. The slot is untouched.
	DenyNoSession
	// DenyInvalidToken: the stored token could not be decoded. The slot is
	// cleared so the next evaluation starts clean.
	DenyInvalidToken
	// DenyRoleMismatch: the token decoded but its role is not on the
	// allowed list. The slot is retained; the holder may still reach areas
	// their role does permit.
	DenyRoleMismatch
	// DenyStoreUnavailable: the session store could not be read.
	DenyStoreUnavailable
)

func (r DenyReason) String() string {
	switch r {
	case DenyNone:
		return "none"
	case DenyNoSession:
		return "no_session"
	case DenyInvalidToken:
		return "invalid_token"
	case DenyRoleMismatch:
		return "role_mismatch"
	case DenyStoreUnavailable:
		return "store_unavailable"
	default:
		return "unknown"
	}
}

// Decision is the outcome of one guard evaluation. Claims is set only when
// Allowed is true.
type Decision struct {
	Allowed bool
	Reason  DenyReason
	Claims  *token.Claims
}

// Evaluate runs the access check for an area restricted to the given roles.
// An empty allowed list means any authenticated holder of a decodable token
// passes. The two deny paths treat the session slot differently on purpose:
// an undecodable token is cleared because it can never work anywhere, while
// a valid token with the wrong role stays put. Callers route DenyNoSession
// and DenyInvalidToken to the login entry point and DenyRoleMismatch to the
// caller's own landing area.
func (c *Client) Evaluate(ctx context.Context, allowed ...token.Role) Decision {
	if !c.ready() {
		return Decision{Reason: DenyStoreUnavailable}
	}

	start := time.Now()
	defer func() {
		c.observe(MetricEvaluateLatency, time.Since(start))
	}()

	raw, ok, err := c.sessions.Get(ctx)
	if err != nil {
		c.emitAudit(ctx, auditEventGuardDeny, false, "", err, func() map[string]string {
			return map[string]string{"reason": DenyStoreUnavailable.String()}
		})
		return Decision{Reason: DenyStoreUnavailable}
	}
	if !ok {
		c.metricInc(MetricGuardDenyNoSession)
		return Decision{Reason: DenyNoSession}
	}

	claims, err := token.Decode(raw)
	if err != nil {
		_ = c.sessions.Clear(ctx)
		c.metricInc(MetricGuardDenyInvalidToken)
		c.emitAudit(ctx, auditEventGuardDeny, false, "", err, func() map[string]string {
			return map[string]string{"reason": DenyInvalidToken.String()}
		})
		return Decision{Reason: DenyInvalidToken}
	}

	if len(allowed) == 0 {
		c.metricInc(MetricGuardAllow)
		return Decision{Allowed: true, Claims: claims}
	}

	for _, role := range allowed {
		if claims.Role == role {
			c.metricInc(MetricGuardAllow)
			return Decision{Allowed: true, Claims: claims}
		}
	}

	c.metricInc(MetricGuardDenyRoleMismatch)
	c.emitAudit(ctx, auditEventGuardDeny, false, claims.Subject, nil, func() map[string]string {
		return map[string]string{
			"reason": DenyRoleMismatch.String(),
			"role":   claims.Role.String(),
		}
	})
	return Decision{Reason: DenyRoleMismatch}
}
