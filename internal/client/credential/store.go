// Package credential persists the single bearer token that survives client
// restarts. It is pure key/value storage: no expiry logic, no validation —
// the auth manager decides when a stored token is still good.
package credential

import "context"

// Store holds at most one bearer token.
//
// Load returns ("", nil) when no token is stored; absence is not an error.
// Save replaces any previous token. Clear is idempotent.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
