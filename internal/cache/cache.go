// Package cache provides best-effort caching of fetched API documents.
//
// Two backends exist: JSON files under the user cache directory (the
// default) and Redis when HALNAV_CACHE_REDIS is set. Both are scoped by
// a label and the document URL. Default TTL is 5 minutes. Disable with
// HALNAV_NO_CACHE=1.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const DefaultTTL = 5 * time.Minute

// Store reads and writes one cache slot. Implementations are
// best-effort: Put and Clear never report errors, Get returns false on
// any miss or failure.
type Store interface {
	Get(dst any) bool
	Put(value any)
	Clear()
}

// New selects a backend from the environment: Redis when
// HALNAV_CACHE_REDIS holds an address, files otherwise. A nil-safe
// no-op store is returned when neither backend is usable.
func New(label, url string) Store {
	if addr := strings.TrimSpace(os.Getenv("HALNAV_CACHE_REDIS")); addr != "" {
		return NewRedisStore(addr, label, url, DefaultTTL)
	}
	dir, err := DefaultDir()
	if err != nil {
		return noopStore{}
	}
	return NewFileStore(dir, label, url, DefaultTTL)
}

type noopStore struct{}

func (noopStore) Get(any) bool { return false }
func (noopStore) Put(any)      {}
func (noopStore) Clear()       {}

type entry struct {
	CachedAt time.Time       `json:"cached_at"`
	Doc      json.RawMessage `json:"doc"`
}

// FileStore keeps one cached document per file.
type FileStore struct {
	path string
	ttl  time.Duration
}

// NewFileStore creates a FileStore for the given label and document URL.
func NewFileStore(dir, label, url string, ttl time.Duration) *FileStore {
	return &FileStore{
		path: filepath.Join(dir, cacheFilename(label, url)),
		ttl:  ttl,
	}
}

// cacheFilename builds "<label>_<12hex>.json" from the document URL.
func cacheFilename(label, url string) string {
	hash := sha1.Sum([]byte(url))
	return fmt.Sprintf("%s_%s.json", sanitizeLabel(label), hex.EncodeToString(hash[:6]))
}

// Get loads the cached document into dst. Returns false on miss
// (no file, expired, disabled).
func (s *FileStore) Get(dst any) bool {
	if Disabled() {
		return false
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return false
	}
	if time.Since(e.CachedAt) > s.ttl {
		return false
	}
	return json.Unmarshal(e.Doc, dst) == nil
}

// Put writes the document to the cache. Silently no-ops on error or
// when disabled.
func (s *FileStore) Put(value any) {
	if Disabled() {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	data, err := json.Marshal(entry{
		CachedAt: time.Now(),
		Doc:      raw,
	})
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return
	}

	// Atomic-ish write: write temp then rename.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return
	}
	_ = os.Rename(tmp, s.path)
}

// Clear removes this cache file.
func (s *FileStore) Clear() {
	_ = os.Remove(s.path)
}

// ClearAll removes all cache files from the directory.
// For safety, it only removes files matching this project's cache filename scheme.
func ClearAll(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !isCacheFilename(e.Name()) {
			continue
		}
		_ = os.Remove(filepath.Join(dir, e.Name()))
	}
}

// DefaultDir returns the platform-appropriate cache directory,
// "$XDG_CACHE_HOME/halnav" or equivalent.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "halnav"), nil
}

// Disabled reports whether caching is turned off via HALNAV_NO_CACHE.
func Disabled() bool {
	return os.Getenv("HALNAV_NO_CACHE") != ""
}

func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "cache"
	}
	label = strings.ReplaceAll(label, "/", "-")
	label = strings.ReplaceAll(label, "\\", "-")
	return label
}

func isCacheFilename(name string) bool {
	// Expected: "<label>_<12hex>.json"
	if filepath.Ext(name) != ".json" {
		return false
	}
	base := strings.TrimSuffix(name, ".json")
	idx := strings.LastIndex(base, "_")
	if idx <= 0 {
		return false
	}
	suffix := base[idx+1:]
	return len(suffix) == 12 && isHex(suffix)
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
