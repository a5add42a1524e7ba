package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the closed set of authorization tiers the portal knows about.
// The claim string maps totally onto this enum; anything else is a decode
// failure, never an unmatched role.
type Role uint8

const (
	// RoleStudent is the default tier; it reaches the chat landing area.
	RoleStudent Role = iota
	// RoleAdmin reaches the admin landing area and admin-only routes.
	RoleAdmin
)

// String returns the wire form of the role as the portal backend emits it.
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	default:
		return "student"
	}
}

// ParseRole maps a role claim string onto the closed [Role] enum. Matching is
// case-insensitive. Unknown values are an error so that callers can reject
// them as undecodable rather than silently treating them as a mismatch.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return RoleStudent, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("unknown role claim %q", s)
	}
}

// DecodeError reports a token that could not be decoded: malformed segment
// structure, invalid base64, an unparseable payload, or a role claim outside
// the closed enum. An undecodable session is never safely usable.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return "token decode: " + e.Reason + ": " + e.Err.Error()
	}
	return "token decode: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Claims is the decoded payload of a portal session token.
type Claims struct {
	Subject   string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type wireClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Decode splits raw on its structural delimiter, base64url-decodes the claims
// segment, and parses it. The signature segment is never validated.
func Decode(raw string) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &DecodeError{Reason: "empty token"}
	}

	var wire wireClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &wire); err != nil {
		return nil, &DecodeError{Reason: "malformed token", Err: err}
	}

	if wire.Role == "" {
		return nil, &DecodeError{Reason: "missing role claim"}
	}
	role, err := ParseRole(wire.Role)
	if err != nil {
		return nil, &DecodeError{Reason: "invalid role claim", Err: err}
	}

	claims := &Claims{
		Subject: wire.Email,
		Role:    role,
	}
	if claims.Subject == "" {
		claims.Subject = wire.RegisteredClaims.Subject
	}
	if wire.IssuedAt != nil {
		claims.IssuedAt = wire.IssuedAt.Time
	}
	if wire.ExpiresAt != nil {
		claims.ExpiresAt = wire.ExpiresAt.Time
	}

	return claims, nil
}
