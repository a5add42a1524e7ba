package portalauth

import (
	"context"

	"github.com/Saraswati-Portal/portalauth/token"
)

// RouteTable maps a path to the roles allowed through its guard. A nil role
// slice marks the path public: no session check runs at all.
type RouteTable map[string][]token.Role

// DefaultRoutes is the portal's route map. Auth entry points are public;
// chat admits any authenticated role; the admin area admits admins only.
func DefaultRoutes() RouteTable {
	return RouteTable{
		"/":                 nil,
		"/login":            nil,
		"/register":         nil,
		"/verify-otp":       nil,
		"/forgot-password":  nil,
		"/verify-reset-otp": nil,
		"/reset-password":   nil,
		"/chat":             {token.RoleStudent, token.RoleAdmin},
		"/admin":            {token.RoleAdmin},
	}
}

// EvaluateRoute looks path up in routes and runs the guard with that path's
// role list. Public paths allow without touching the session slot; paths
// absent from the table deny with DenyNoSession rather than defaulting open.
func (c *Client) EvaluateRoute(ctx context.Context, path string, routes RouteTable) Decision {
	allowed, found := routes[path]
	if !found {
		return Decision{Reason: DenyNoSession}
	}
	if allowed == nil {
		return Decision{Allowed: true}
	}
	return c.Evaluate(ctx, allowed...)
}
