// Package middleware adapts portalauth guard decisions to net/http.
//
// # Guards
//
//   - [Guard] — runs Client.Evaluate for a fixed role list.
//   - [GuardRoutes] — looks the request path up in a RouteTable first.
//
// Each guard evaluates the client's own session slot, redirects denied
// requests, and injects the decoded claims into the request context for
// allowed ones.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Client calls. It makes no
// access decision of its own — allow/deny comes from Client.Evaluate.
//
// # What this package must NOT do
//
//   - Decode tokens directly (delegates to the client).
//   - Touch the session store (the client owns the slot).
//   - Distinguish deny reasons beyond choosing the redirect target.
package middleware
