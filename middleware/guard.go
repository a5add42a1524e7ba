package middleware

import (
	"context"
	"net/http"

	portalauth "github.com/Saraswati-Portal/portalauth"
	"github.com/Saraswati-Portal/portalauth/token"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the claims injected by a guard for an allowed
// request.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*token.Claims)
	return claims, ok
}

// Guard wraps a handler with an access check for the given roles. A denied
// request is redirected: missing or undecodable sessions go to loginPath,
// a wrong-role session goes to the role's own landing area instead, since
// that session is still good there.
func Guard(client *portalauth.Client, loginPath string, allowed ...token.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client == nil {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			decision := client.Evaluate(r.Context(), allowed...)
			if !decision.Allowed {
				http.Redirect(w, r, denyTarget(client, r, decision, loginPath), http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, decision.Claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GuardRoutes guards by the request path: public paths pass straight
// through, unknown paths redirect to loginPath.
func GuardRoutes(client *portalauth.Client, routes portalauth.RouteTable, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if client == nil {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			decision := client.EvaluateRoute(r.Context(), r.URL.Path, routes)
			if !decision.Allowed {
				http.Redirect(w, r, denyTarget(client, r, decision, loginPath), http.StatusSeeOther)
				return
			}

			ctx := r.Context()
			if decision.Claims != nil {
				ctx = context.WithValue(ctx, claimsContextKey{}, decision.Claims)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func denyTarget(client *portalauth.Client, r *http.Request, decision portalauth.Decision, loginPath string) string {
	if decision.Reason != portalauth.DenyRoleMismatch {
		return loginPath
	}

	// The session is intact, just wrong for this area; send the holder
	// home rather than to login.
	claims, err := client.CurrentClaims(r.Context())
	if err != nil {
		return loginPath
	}
	if claims.Role == token.RoleAdmin {
		return portalauth.LandingAdmin
	}
	return portalauth.LandingChat
}
