// Package access is the authorization and session core of PanelPulse.
//
// It answers two questions for every visitor: "who is this?" and "what may
// they see?". The SessionStore tracks the current identity and its loading
// state, the Resolver computes administrator status with a defined fallback
// chain (profile flag, then a configurable email allowlist when the schema
// migration has not landed yet), and the route guards turn those answers
// into render/redirect decisions. Account lifecycle actions (delete account,
// sign out everywhere) round out the session-wide operations.
//
// Authorization reads never fail open: any error during resolution degrades
// to "not admin, empty profile". Writes surface structured results so the UI
// can show them.
package access
