package annotation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vetreport-server/internal/domain"
)

// DefaultCacheSize is the number of annotated texts kept in memory. The UI
// shell re-annotates every finding on every snapshot, so hits dominate.
const DefaultCacheSize = 512

// Engine wraps Annotate with an LRU result cache. Annotate is pure, so a
// cached result is indistinguishable from a recomputed one. Returned segment
// slices are shared and must be treated as read-only.
type Engine struct {
	cache *lru.Cache[string, []Segment]
}

// NewEngine creates an annotation engine with the given cache size. Sizes
// below 1 fall back to DefaultCacheSize.
func NewEngine(cacheSize int) (*Engine, error) {
	if cacheSize < 1 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, []Segment](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Engine{cache: cache}, nil
}

// Annotate returns the segment sequence for the text, serving repeated
// requests from the cache.
func (e *Engine) Annotate(text string, values []domain.AbnormalValue, enabled bool) []Segment {
	key := cacheKey(text, values, enabled)
	if segments, ok := e.cache.Get(key); ok {
		return segments
	}
	segments := Annotate(text, values, enabled)
	e.cache.Add(key, segments)
	return segments
}

// Len returns the number of cached entries.
func (e *Engine) Len() int {
	return e.cache.Len()
}

// cacheKey hashes the full input so distinct value sets or toggle states
// never collide.
func cacheKey(text string, values []domain.AbnormalValue, enabled bool) string {
	h := sha256.New()
	h.Write([]byte(text))
	if data, err := json.Marshal(values); err == nil {
		h.Write(data)
	}
	if enabled {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
