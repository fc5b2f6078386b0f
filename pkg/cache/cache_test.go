package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	taxerrors "github.com/matzehuels/taxoview/pkg/errors"
)

var errDropped = errors.New("connection dropped")

func newFileCache(t *testing.T) *FileCache {
	t.Helper()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNullCacheNeverHits(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()

	if err := c.Set(ctx, "layout:q729", []byte("{}"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if data, hit, err := c.Get(ctx, "layout:q729"); hit || data != nil || err != nil {
		t.Errorf("Get = (%q, %v, %v), want a clean miss", data, hit, err)
	}
	if err := c.Delete(ctx, "layout:q729"); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestFileCacheGet(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, c *FileCache)
		wantHit bool
		gone    bool // entry file removed after Get
	}{
		{
			name:    "missing",
			prepare: func(*testing.T, *FileCache) {},
		},
		{
			name: "live",
			prepare: func(t *testing.T, c *FileCache) {
				if err := c.Set(context.Background(), "k", []byte("tree"), time.Hour); err != nil {
					t.Fatal(err)
				}
			},
			wantHit: true,
		},
		{
			name: "no expiry",
			prepare: func(t *testing.T, c *FileCache) {
				if err := c.Set(context.Background(), "k", []byte("tree"), 0); err != nil {
					t.Fatal(err)
				}
			},
			wantHit: true,
		},
		{
			name: "expired",
			prepare: func(t *testing.T, c *FileCache) {
				if err := c.Set(context.Background(), "k", []byte("tree"), time.Nanosecond); err != nil {
					t.Fatal(err)
				}
				time.Sleep(2 * time.Millisecond)
			},
			gone: true,
		},
		{
			name: "corrupt",
			prepare: func(t *testing.T, c *FileCache) {
				name := c.entryPath("k")
				if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(name, []byte("{"), 0o644); err != nil {
					t.Fatal(err)
				}
			},
			gone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newFileCache(t)
			tt.prepare(t, c)

			data, hit, err := c.Get(context.Background(), "k")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if hit != tt.wantHit {
				t.Fatalf("hit = %v, want %v", hit, tt.wantHit)
			}
			if hit && string(data) != "tree" {
				t.Errorf("data = %q", data)
			}
			if _, err := os.Stat(c.entryPath("k")); tt.gone && !os.IsNotExist(err) {
				t.Error("stale entry was not removed")
			}
		})
	}
}

func TestFileCacheOverwriteAndDelete(t *testing.T) {
	ctx := context.Background()
	c := newFileCache(t)

	for _, v := range []string{"circles", "tree"} {
		if err := c.Set(ctx, "layout", []byte(v), time.Hour); err != nil {
			t.Fatal(err)
		}
	}
	if data, _, _ := c.Get(ctx, "layout"); string(data) != "tree" {
		t.Errorf("after overwrite data = %q", data)
	}

	shard, _ := os.ReadDir(filepath.Dir(c.entryPath("layout")))
	if len(shard) != 1 {
		t.Errorf("shard holds %d files, want 1 (temporary files left behind?)", len(shard))
	}

	if err := c.Delete(ctx, "layout"); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, "layout"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "layout"); hit {
		t.Error("deleted key still hits")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c := newFileCache(t)
	for _, k := range []string{"dataset:a", "layout:b", "artifact:svg:c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil || n != 3 {
		t.Fatalf("Clear = (%d, %v), want 3 entries", n, err)
	}
	if entries, _ := os.ReadDir(c.Dir()); len(entries) != 0 {
		t.Errorf("cache dir still has %d entries", len(entries))
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisCache(ctx, RedisConfig{Addr: "127.0.0.1:1"})
	if !taxerrors.Is(err, taxerrors.ErrCodeNetwork) {
		t.Errorf("NewRedisCache(unreachable) error = %v, want %s", err, taxerrors.ErrCodeNetwork)
	}
}

func TestHash(t *testing.T) {
	a, b := Hash([]byte("Q729")), Hash([]byte("Q5"))
	if a != Hash([]byte("Q729")) || a == b {
		t.Error("Hash must be deterministic and input-sensitive")
	}
	if len(a) != 64 {
		t.Errorf("len(Hash) = %d, want 64 hex chars", len(a))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	if a, b := k.DatasetKey("neo4j://kb", DatasetKeyOpts{Root: "Q35120"}), k.DatasetKey("neo4j://kb", DatasetKeyOpts{Root: "Q729"}); a == b || !strings.HasPrefix(a, "dataset:") {
		t.Errorf("DatasetKey: %s, %s", a, b)
	}

	base := LayoutKeyOpts{Mode: "circles", RootID: "Q729", Depth: 2, Width: 840, Height: 720}
	lk := k.LayoutKey("h", base)
	if lk != k.LayoutKey("h", base) {
		t.Error("LayoutKey is not deterministic")
	}
	variants := map[string]LayoutKeyOpts{
		"mode":    {Mode: "tree", RootID: "Q729", Depth: 2, Width: 840, Height: 720},
		"depth":   {Mode: "circles", RootID: "Q729", Depth: 3, Width: 840, Height: 720},
		"path":    {Mode: "circles", RootID: "Q729", Depth: 2, Width: 840, Height: 720, Path: []string{"Q144", "Q7377"}},
		"frame":   {Mode: "circles", RootID: "Q729", Depth: 2, Width: 400, Height: 720},
		"mapping": {Mode: "circles", RootID: "Q729", Depth: 2, Width: 840, Height: 720, MapLeft: []string{"Q144"}},
		"shape":   {Mode: "circles", RootID: "Q729", Depth: 2, Width: 840, Height: 720, Shape: "abc"},
		"engine":  {Mode: "circles", RootID: "Q729", Depth: 2, Width: 840, Height: 720, Engine: "abc"},
	}
	for name, v := range variants {
		if k.LayoutKey("h", v) == lk {
			t.Errorf("LayoutKey ignores %s", name)
		}
	}

	svgKey := k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"})
	if svgKey == k.ArtifactKey("h", ArtifactKeyOpts{Format: "dot"}) || !strings.HasPrefix(svgKey, "artifact:svg:") {
		t.Errorf("ArtifactKey: %s", svgKey)
	}
}

func TestScopedKeyer(t *testing.T) {
	tests := []struct {
		name  string
		inner Keyer
	}{
		{"explicit inner", NewDefaultKeyer()},
		{"nil inner", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := NewScopedKeyer(tt.inner, "taxoview:test:")
			for _, key := range []string{
				k.DatasetKey("animals.json", DatasetKeyOpts{}),
				k.LayoutKey("h", LayoutKeyOpts{}),
				k.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"}),
			} {
				if !strings.HasPrefix(key, "taxoview:test:") {
					t.Errorf("key %q is not scoped", key)
				}
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) != nil")
	}
	err := Retryable(errDropped)
	if !IsRetryable(err) || err.Error() != errDropped.Error() || !errors.Is(err, errDropped) {
		t.Errorf("Retryable(errDropped) = %v", err)
	}
	if IsRetryable(errDropped) {
		t.Error("unmarked error reported as retryable")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	tests := []struct {
		name      string
		failures  int // leading failures before success
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"first try", 0, true, 1, false},
		{"recovers", 2, true, 3, false},
		{"gives up", 5, true, RetryAttempts, true},
		{"permanent", 5, false, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(context.Background(), time.Millisecond, func() error {
				calls++
				if calls <= tt.failures {
					if tt.retryable {
						return Retryable(errDropped)
					}
					return errDropped
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errDropped) {
				t.Errorf("err = %v, want errDropped in chain", err)
			}
		})
	}
}

func TestRetryWithBackoffCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, time.Second, func() error { return Retryable(errDropped) })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
