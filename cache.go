package infinite

import (
	"fmt"
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/meigma/infinite/tag"
	"github.com/meigma/infinite/tagstruct"
)

// DefaultCacheSize is the number of tags a TagCache keeps by default.
const DefaultCacheSize = 1024

// TagCache memoizes parsed tags across modules.
//
// Entries are keyed by Module value and entry index. Two modules opened from
// the same bytes do not share tags, since their companion data, decoders
// and tag options may differ. A cached tag keeps its module reachable until
// it is evicted or purged. Concurrent requests for the same tag are
// collapsed into one load, and loads are serialized so callers need no lock
// around the modules they pass in.
type TagCache struct {
	tags   *lru.Cache[cacheKey, *tag.File]
	group  singleflight.Group // zero value is valid
	mu     sync.Mutex         // serializes Module.ReadTag
	logger *slog.Logger
}

type cacheKey struct {
	module *Module
	index  int
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%p/%d", k.module, k.index)
}

// CacheOption configures a TagCache.
type CacheOption func(*TagCache)

// CacheWithLogger sets the logger for hit and miss output.
func CacheWithLogger(logger *slog.Logger) CacheOption {
	return func(c *TagCache) {
		c.logger = logger
	}
}

// NewTagCache returns a cache holding up to size parsed tags.
// A size <= 0 selects DefaultCacheSize.
func NewTagCache(size int, opts ...CacheOption) (*TagCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	tags, err := lru.New[cacheKey, *tag.File](size)
	if err != nil {
		return nil, fmt.Errorf("create tag cache: %w", err)
	}
	c := &TagCache{tags: tags}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (c *TagCache) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// Get returns the parsed tag of entry index, loading it on a miss.
// Raw resource entries fail with ErrNoTagInfo and are not cached.
func (c *TagCache) Get(m *Module, index int) (*tag.File, error) {
	key := cacheKey{module: m, index: index}
	if f, ok := c.tags.Get(key); ok {
		c.log().Debug("tag cache hit", "module", m.Header.ModuleID, "index", index)
		return f, nil
	}

	c.log().Debug("tag cache miss", "module", m.Header.ModuleID, "index", index)
	// Cache miss with singleflight
	result, err, _ := c.group.Do(key.String(), func() (any, error) {
		// Double-check cache
		if f, ok := c.tags.Get(key); ok {
			return f, nil
		}
		f, err := c.load(m, index)
		if err != nil {
			return nil, err
		}
		c.tags.Add(key, f)
		return f, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*tag.File), nil //nolint:errcheck // type assertion always succeeds when err is nil
}

func (c *TagCache) load(m *Module, index int) (*tag.File, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := m.ReadTag(index); err != nil {
		return nil, err
	}
	e, err := m.Entry(index)
	if err != nil {
		return nil, err
	}
	return e.Tag()
}

// Decode populates rec from the cached tag of entry index.
func (c *TagCache) Decode(m *Module, index int, rec tagstruct.Record) error {
	f, err := c.Get(m, index)
	if err != nil {
		return err
	}
	return tagstruct.Decode(f, rec)
}

// Purge drops every cached tag.
func (c *TagCache) Purge() {
	c.tags.Purge()
}

// Len returns the number of cached tags.
func (c *TagCache) Len() int {
	return c.tags.Len()
}
