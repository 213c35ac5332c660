package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/finledger/transaction-service/internal/domain/apperr"
)

// DefaultIdempotencyWindow is how long a consumed key blocks repeats.
const DefaultIdempotencyWindow = 30 * time.Minute

// consumed is the marker stored against a used key.
const consumed = "PROCESSED"

// IdempotencyGuard tracks which idempotency keys have been consumed within
// the expiry window. It is in-memory and therefore correct only for a
// single-process deployment.
type IdempotencyGuard struct {
	keys *gocache.Cache
}

// NewIdempotencyGuard creates a guard whose consumed markers expire after
// window. A non-positive window falls back to the default.
func NewIdempotencyGuard(window time.Duration) *IdempotencyGuard {
	if window <= 0 {
		window = DefaultIdempotencyWindow
	}

	return &IdempotencyGuard{
		keys: gocache.New(window, window),
	}
}

// Check consumes key atomically. It fails with IdempotencyKeyRequired for an
// empty key and RepeatedRequest for a key already consumed within the window.
// go-cache's Add is an insert-if-absent under the cache mutex, so two
// concurrent requests with the same fresh key cannot both pass.
func (g *IdempotencyGuard) Check(key string) error {
	if key == "" {
		return apperr.IdempotencyKeyRequired()
	}

	if err := g.keys.Add(key, consumed, gocache.DefaultExpiration); err != nil {
		return apperr.RepeatedRequest()
	}

	return nil
}

// Release frees key so it may be used again. Called when the guarded
// operation fails after the key was consumed.
func (g *IdempotencyGuard) Release(key string) {
	g.keys.Delete(key)
}
