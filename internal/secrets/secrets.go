// Package secrets defines the collaborator seam for retrieving hub account
// credentials from something other than plain environment variables (a
// keychain, a secrets manager). No implementation ships here: SPEC_FULL.md
// lists credential-store integration as a deferred concern, and
// config.LoadFromEnv covers the bridge's actual deployment.
package secrets

import "context"

// Credentials is the pair a Provider resolves for hub login.
type Credentials struct {
	Username string
	Password string
}

// Provider resolves hub account credentials from a backing store.
// config.Config.Username/Password is the provider used today; this
// interface exists so a future store-backed provider can be wired into
// cmd/hub-bridged without changing hubclient or bridge.
type Provider interface {
	Resolve(ctx context.Context) (Credentials, error)
}
