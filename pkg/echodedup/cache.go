package echodedup

import (
	"strings"
	"sync"
	"time"
)

// Cache remembers fingerprints of messages this process just sent through
// the gateway, so the gateway's webhook echo of the same message can be
// recognized and dropped. Entries expire after a fixed window; the cache
// is best effort and safe to lose on restart.
type Cache struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]time.Time
	now     func() time.Time
}

func New(window time.Duration) *Cache {
	return &Cache{
		window:  window,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Fingerprint derives the dedup key for a message. The heuristic is
// content based (phone + media type + trimmed text); it can miss if the
// gateway rewrites whitespace on echo and can wrongly match if an agent
// sends identical text inside the window. Accepted limitation: the
// gateway assigns its message id only after the echo arrives, so there is
// no stronger signal available at send time.
func Fingerprint(phone, mediaType, text string) string {
	return phone + "|" + mediaType + "|" + strings.TrimSpace(text)
}

// Register records a fingerprint for the configured window.
func (c *Cache) Register(fp string) {
	if fp == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked()
	c.entries[fp] = c.now().Add(c.window)
}

// Seen reports whether the fingerprint was registered within the window
// and consumes it so a single echo only matches once.
func (c *Cache) Seen(fp string) bool {
	if fp == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	exp, ok := c.entries[fp]
	if !ok {
		return false
	}
	delete(c.entries, fp)
	return c.now().Before(exp)
}

func (c *Cache) sweepLocked() {
	now := c.now()
	for fp, exp := range c.entries {
		if !now.Before(exp) {
			delete(c.entries, fp)
		}
	}
}

// SetNowFunc overrides the clock, for tests.
func (c *Cache) SetNowFunc(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}
