// Package token decodes the claims segment of a portal bearer token.
//
// Decode is deliberately unverified: it splits the three-segment token,
// base64url-decodes the middle segment, and parses the JSON payload without
// ever touching the signature. The decoded role is a UX routing signal; the
// portal backend re-authorizes every privileged request independently.
package token
