package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCacheMissThenHit(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), ".cache"))

	if _, ok, err := c.Get("gias"); err != nil || ok {
		t.Fatalf("Get on empty cache: hit=%v err=%v, want miss", ok, err)
	}

	if err := c.Put("gias", []byte("payload")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	data, ok, err := c.Get("gias")
	if err != nil || !ok {
		t.Fatalf("Get after Put: hit=%v err=%v, want hit", ok, err)
	}
	if string(data) != "payload" {
		t.Errorf("data = %q, want %q", data, "payload")
	}
}

func TestCacheStaleEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	c := New(dir)
	if err := c.Put("stale", []byte("old")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	raw, err := os.ReadFile(c.pathFor("stale"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	e.CachedAt = time.Now().Add(-2 * time.Hour)
	rewritten, _ := json.Marshal(e)
	if err := os.WriteFile(c.pathFor("stale"), rewritten, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, ok, err := c.Get("stale"); err != nil || ok {
		t.Fatalf("Get on stale entry: hit=%v err=%v, want miss", ok, err)
	}
}

func TestCacheMissingDirectoryCreatedOnFirstWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "not-yet-created")
	c := New(dir)

	if err := c.Put("key", []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("expected cache directory to be created: %v", err)
	}
}

func TestCacheFetchCallsFetchOnlyOnMissOrStale(t *testing.T) {
	c := New(t.TempDir())
	calls := 0
	fetch := func() ([]byte, error) {
		calls++
		return []byte("fresh"), nil
	}

	data, hit, err := c.Fetch("k", fetch)
	if err != nil || hit || string(data) != "fresh" {
		t.Fatalf("first Fetch: data=%q hit=%v err=%v", data, hit, err)
	}

	data, hit, err = c.Fetch("k", fetch)
	if err != nil || !hit || string(data) != "fresh" {
		t.Fatalf("second Fetch: data=%q hit=%v err=%v", data, hit, err)
	}
	if calls != 1 {
		t.Errorf("fetch called %d times, want 1 (second call should be served from cache)", calls)
	}
}

func TestCacheClearRemovesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".cache")
	c := New(dir)
	if err := c.Put("k", []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("expected cache directory to be removed, stat err = %v", err)
	}
}

func TestSanitizeKeyStripsUnsafeCharacters(t *testing.T) {
	if got := sanitize("source/with space:chars"); got != "source_with_space_chars" {
		t.Errorf("sanitize = %q", got)
	}
}
