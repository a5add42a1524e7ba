// Package portalauth is the client-side identity and access-gating subsystem
// of the Saraswati College Portal. It creates accounts, verifies them with
// one-time codes, authenticates users into a bearer-token session, recovers
// forgotten passwords through a second OTP challenge, and gates navigation to
// role-restricted areas based on the role claim embedded in the session token.
//
// All flows go through a [Client] built with [Builder.Build]. Client methods
// are safe for concurrent use; the session slot is a single owning
// [session.Store] and the last write wins.
//
// # Trust boundary
//
// The session token is decoded, never verified. The role claim read by the
// [Client.Evaluate] guard is a UX routing signal only: every privileged
// operation must be re-authorized by the portal backend on every request.
// This package must never become the system's actual security boundary.
//
// # What this package must NOT do
//
//   - Verify token signatures or hold signing keys.
//   - Retry failed requests on its own; every failure is terminal for the
//     single attempt and surfaces as a typed error.
//   - Persist anything beyond the opaque token string.
package portalauth
