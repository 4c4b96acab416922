package geocode

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// cacheKey returns SHA-256 hex of the normalized place name.
func cacheKey(place string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(place), " "))
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

// checkCache looks up a cached geocode result. Non-matches are cached too so
// the caller can skip the network round trip.
func (g *geocoder) checkCache(key string) (*Result, bool) {
	g.mu.RLock()
	cached, ok := g.cache[key]
	g.mu.RUnlock()
	if !ok {
		return nil, false
	}

	zap.L().Debug("geocode cache hit",
		zap.String("key", key[:12]),
		zap.Bool("matched", cached.Matched),
	)
	r := cached
	return &r, true
}

// storeCache records a geocode result (match or non-match).
func (g *geocoder) storeCache(key string, result *Result) {
	g.mu.Lock()
	g.cache[key] = *result
	g.mu.Unlock()
}
