package registry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jsvm/jsvm/src/internal/config"
	"github.com/jsvm/jsvm/src/internal/errs"
	"github.com/jsvm/jsvm/src/internal/tool"
	"github.com/jsvm/jsvm/src/internal/ui"
)

// DefaultCacheTTL is the default time-to-live for cached indexes.
const DefaultCacheTTL = 24 * time.Hour

// memoSize bounds the parsed indexes kept in memory. One process resolves
// against a handful of indexes at most.
const memoSize = 32

// CachedSource wraps a Source and caches indexes under tools/inventory.
// Parsed indexes are also kept in memory, so resolving several versions of
// one tool reads and decodes its cache file once.
type CachedSource struct {
	source Source
	paths  *config.Paths
	ttl    time.Duration
	memo   *lru.Cache[string, *cacheEntry]
}

// cacheEntry stores an index along with its cache timestamp.
type cacheEntry struct {
	CachedAt time.Time `json:"cached_at"`
	Index    *Index    `json:"index"`
}

// NewCachedSource creates a Source that caches results from the underlying source.
func NewCachedSource(source Source, paths *config.Paths, ttl time.Duration) *CachedSource {
	memo, err := lru.New[string, *cacheEntry](memoSize)
	if err != nil {
		panic(err)
	}
	return &CachedSource{
		source: source,
		paths:  paths,
		ttl:    ttl,
		memo:   memo,
	}
}

// Index returns a cached index if still fresh, otherwise fetches it. A
// stale cache is used when the fetch fails with a network error.
func (s *CachedSource) Index(ctx context.Context, kind tool.Kind, name string) (*Index, error) {
	key := s.cachePath(kind, name)
	if entry, ok := s.memo.Get(key); ok && s.fresh(entry) {
		return entry.Index, nil
	}

	entry, cacheErr := s.load(kind, name)
	if cacheErr == nil && s.fresh(entry) {
		s.memo.Add(key, entry)
		return entry.Index, nil
	}

	index, err := s.source.Index(ctx, kind, name)
	if err != nil {
		if cacheErr == nil && errs.IsNetwork(err) {
			ui.Debug("Using stale index for %s: %v", name, err)
			return entry.Index, nil
		}
		return nil, err
	}

	fetched := &cacheEntry{CachedAt: time.Now(), Index: index}
	s.memo.Add(key, fetched)

	// Caching is best-effort
	if err := s.save(kind, name, fetched); err != nil {
		ui.Debug("Could not cache index for %s: %v", name, err)
	}
	return index, nil
}

func (s *CachedSource) fresh(entry *cacheEntry) bool {
	return time.Since(entry.CachedAt) <= s.ttl
}

// ForceRefresh drops the cached index and fetches a fresh one.
func (s *CachedSource) ForceRefresh(ctx context.Context, kind tool.Kind, name string) (*Index, error) {
	key := s.cachePath(kind, name)
	s.memo.Remove(key)
	_ = os.Remove(key)
	return s.Index(ctx, kind, name)
}

func (s *CachedSource) cachePath(kind tool.Kind, name string) string {
	dir := kind.String()
	if kind == tool.Package {
		dir = "packages"
	}
	return filepath.Join(s.paths.InventoryDir(dir), cacheKey(kind, name)+".index.json")
}

func (s *CachedSource) load(kind tool.Kind, name string) (*cacheEntry, error) {
	data, err := os.ReadFile(s.cachePath(kind, name))
	if err != nil {
		return nil, err
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	if entry.Index == nil {
		return nil, os.ErrNotExist
	}
	return &entry, nil
}

func (s *CachedSource) save(kind tool.Kind, name string, entry *cacheEntry) error {
	path := s.cachePath(kind, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
