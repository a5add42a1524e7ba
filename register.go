package portalauth

import (
	"context"
	"strings"

	"github.com/Saraswati-Portal/portalauth/token"
)

// RegisterInput is the input for [Client.Register].
type RegisterInput struct {
	Email      string
	Password   string
	Department string
	Role       token.Role
	// AdminKey must be supplied when Role is RoleAdmin. The client only
	// checks presence; the backend holds the real secret and verifies it.
	AdminKey string
}

// PendingRegistration carries the registered email forward into the OTP
// verification step. It lives in memory only: navigating away loses it and
// the flow restarts at Register.
type PendingRegistration struct {
	Email  string
	client *Client
}

type registerRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	Department string `json:"department"`
	AdminKey   string `json:"admin_key,omitempty"`
}

// Register creates an unverified account. The backend issues a registration
// OTP out of band (email delivery); the caller continues with
// [PendingRegistration.VerifyOTP]. Backend rejections surface verbatim as
// *ServerRejection; transport failures as *NetworkError, never retried.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*PendingRegistration, error) {
	if !c.ready() {
		return nil, ErrClientNotReady
	}

	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" {
		return nil, &ValidationError{Field: "email"}
	}
	if in.Password == "" {
		return nil, &ValidationError{Field: "password"}
	}
	if strings.TrimSpace(in.Department) == "" {
		return nil, &ValidationError{Field: "department"}
	}
	if in.Role == token.RoleAdmin && strings.TrimSpace(in.AdminKey) == "" {
		return nil, &ValidationError{Field: "admin_key"}
	}

	req := registerRequest{
		Email:      in.Email,
		Password:   in.Password,
		Role:       in.Role.String(),
		Department: in.Department,
		AdminKey:   in.AdminKey,
	}

	if err := c.postJSON(ctx, "/auth/register", req, nil); err != nil {
		c.metricInc(MetricRegisterFailure)
		c.emitAudit(ctx, auditEventRegister, false, in.Email, err, func() map[string]string {
			return map[string]string{
				"role": in.Role.String(),
			}
		})
		return nil, err
	}

	c.metricInc(MetricRegisterSuccess)
	c.emitAudit(ctx, auditEventRegister, true, in.Email, nil, func() map[string]string {
		return map[string]string{
			"role":       in.Role.String(),
			"department": in.Department,
		}
	})

	return &PendingRegistration{
		Email:  in.Email,
		client: c,
	}, nil
}

// VerifyOTP submits the code for the pending account.
func (p *PendingRegistration) VerifyOTP(ctx context.Context, code string) error {
	if p == nil || p.client == nil {
		return ErrClientNotReady
	}
	return p.client.VerifyRegistration(ctx, p.Email, code)
}
