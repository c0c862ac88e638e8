package cettpro

import (
	"sync"
	"time"
)

// tokenExpiryBuffer is subtracted from the partner-reported lifetime so a
// token is refreshed before it can expire mid-request
const tokenExpiryBuffer = 300 * time.Second

// tokenCache holds the process-wide bearer token. Authenticate holds the
// mutex across the whole refresh, so concurrent callers block on one
// credential exchange and all observe its result.
type tokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// valid reports whether the cached token can still be used at the given time.
// Caller must hold mu.
func (t *tokenCache) valid(now time.Time) bool {
	return t.token != "" && now.Before(t.expiresAt)
}

// store caches a freshly exchanged token. Caller must hold mu.
func (t *tokenCache) store(token string, lifetime time.Duration) {
	ttl := lifetime - tokenExpiryBuffer
	if ttl < 0 {
		ttl = 0
	}
	t.token = token
	t.expiresAt = time.Now().Add(ttl)
}

// invalidate drops the cached token after the partner rejected it
func (t *tokenCache) invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = ""
	t.expiresAt = time.Time{}
}
