package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStore_RoundTrip(t *testing.T) {
	t.Setenv("HALNAV_NO_CACHE", "")
	dir := t.TempDir()
	store := NewFileStore(dir, "doc", "https://api.example.com/orders", DefaultTTL)

	doc := map[string]any{"total": float64(3)}
	store.Put(doc)

	var got map[string]any
	if !store.Get(&got) {
		t.Fatal("Get() = false after Put()")
	}
	if got["total"] != float64(3) {
		t.Errorf("Get() = %v", got)
	}
}

func TestFileStore_MissWhenEmpty(t *testing.T) {
	t.Setenv("HALNAV_NO_CACHE", "")
	store := NewFileStore(t.TempDir(), "doc", "https://api.example.com/none", DefaultTTL)

	var got map[string]any
	if store.Get(&got) {
		t.Error("Get() = true on empty cache")
	}
}

func TestFileStore_Expired(t *testing.T) {
	t.Setenv("HALNAV_NO_CACHE", "")
	dir := t.TempDir()
	store := NewFileStore(dir, "doc", "https://api.example.com/orders", time.Nanosecond)

	store.Put(map[string]any{"a": 1})
	time.Sleep(time.Millisecond)

	var got map[string]any
	if store.Get(&got) {
		t.Error("Get() = true past TTL")
	}
}

func TestFileStore_DisabledByEnv(t *testing.T) {
	t.Setenv("HALNAV_NO_CACHE", "1")
	dir := t.TempDir()
	store := NewFileStore(dir, "doc", "https://api.example.com/orders", DefaultTTL)

	store.Put(map[string]any{"a": 1})
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Error("Put() wrote a file while disabled")
	}
}

func TestFileStore_Clear(t *testing.T) {
	t.Setenv("HALNAV_NO_CACHE", "")
	dir := t.TempDir()
	store := NewFileStore(dir, "doc", "https://api.example.com/orders", DefaultTTL)

	store.Put(map[string]any{"a": 1})
	store.Clear()

	var got map[string]any
	if store.Get(&got) {
		t.Error("Get() = true after Clear()")
	}
}

func TestFileStore_DistinctURLsDistinctSlots(t *testing.T) {
	t.Setenv("HALNAV_NO_CACHE", "")
	dir := t.TempDir()
	a := NewFileStore(dir, "doc", "https://api.example.com/a", DefaultTTL)
	b := NewFileStore(dir, "doc", "https://api.example.com/b", DefaultTTL)

	a.Put(map[string]any{"which": "a"})

	var got map[string]any
	if b.Get(&got) {
		t.Error("Get() for URL b returned URL a's document")
	}
}

func TestClearAll(t *testing.T) {
	t.Setenv("HALNAV_NO_CACHE", "")
	dir := t.TempDir()
	store := NewFileStore(dir, "doc", "https://api.example.com/orders", DefaultTTL)
	store.Put(map[string]any{"a": 1})

	// Unrelated files must survive.
	other := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(other, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}

	ClearAll(dir)

	var got map[string]any
	if store.Get(&got) {
		t.Error("Get() = true after ClearAll()")
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("ClearAll() removed an unrelated file")
	}
}

func TestIsCacheFilename(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"doc_0123456789ab.json", true},
		{"long-label_abcdefabcdef.json", true},
		{"doc_0123456789ab.txt", false},
		{"doc_short.json", false},
		{"doc_0123456789zz.json", false},
		{"nolabel.json", false},
	}
	for _, tt := range tests {
		if got := isCacheFilename(tt.name); got != tt.want {
			t.Errorf("isCacheFilename(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
