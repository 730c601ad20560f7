package outbound

import (
	"context"
	"time"
)

// NonceGuard deduplicates service-token nonces for the token's lifetime
// so a captured token cannot be replayed inside its expiry window.
type NonceGuard interface {
	// CheckAndStore returns true if the nonce has not been seen before
	// and records it for ttl. A second call with the same nonce inside
	// ttl returns false.
	CheckAndStore(ctx context.Context, nonce string, ttl time.Duration) (bool, error)
	Enabled() bool
}
