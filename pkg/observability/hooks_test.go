package observability

import (
	"context"
	"sync"
	"testing"
	"time"
)

// countingEngine records how often each engine hook fired.
type countingEngine struct {
	NoopEngineHooks
	mu     sync.Mutex
	builds int
	muts   []string
}

func (c *countingEngine) OnBuildTree(string, int, time.Duration, error) {
	c.mu.Lock()
	c.builds++
	c.mu.Unlock()
}

func (c *countingEngine) OnMutate(op string, _ int, _ error) {
	c.mu.Lock()
	c.muts = append(c.muts, op)
	c.mu.Unlock()
}

type countingCache struct {
	NoopCacheHooks
	hits map[string]int
}

func (c *countingCache) OnCacheHit(_ context.Context, kind string) { c.hits[kind]++ }

func TestDefaultsAreNoop(t *testing.T) {
	Reset()
	ctx := context.Background()

	checks := []struct {
		name string
		ok   bool
	}{
		{"engine", isType[NoopEngineHooks](Engine())},
		{"pipeline", isType[NoopPipelineHooks](Pipeline())},
		{"cache", isType[NoopCacheHooks](Cache())},
		{"http", isType[NoopHTTPHooks](HTTP())},
	}
	for _, c := range checks {
		if !c.ok {
			t.Errorf("%s hooks are not the no-op default", c.name)
		}
	}

	Engine().OnPath(3, time.Millisecond, nil)
	Pipeline().OnLoad(ctx, "animals.json", 9, time.Second, nil)
	Cache().OnCacheSet(ctx, "artifact", 1024)
	HTTP().OnError(ctx, "POST", "/sessions/{id}/expand", nil)
}

func isType[T any](v any) bool {
	_, ok := v.(T)
	return ok
}

func TestInstalledHooksReceiveEvents(t *testing.T) {
	Reset()
	defer Reset()

	eng := &countingEngine{}
	cc := &countingCache{hits: map[string]int{}}
	SetEngineHooks(eng)
	SetCacheHooks(cc)

	Engine().OnBuildTree("Q35120", 12, time.Millisecond, nil)
	Engine().OnMutate("expand", 14, nil)
	Engine().OnMutate("collapse", 9, nil)
	Cache().OnCacheHit(context.Background(), "layout")
	Cache().OnCacheHit(context.Background(), "layout")

	if eng.builds != 1 || len(eng.muts) != 2 || eng.muts[1] != "collapse" {
		t.Errorf("engine hooks saw builds=%d muts=%v", eng.builds, eng.muts)
	}
	if cc.hits["layout"] != 2 {
		t.Errorf("cache hits = %v", cc.hits)
	}

	Reset()
	if !isType[NoopEngineHooks](Engine()) || !isType[NoopCacheHooks](Cache()) {
		t.Error("Reset did not restore the defaults")
	}
}

func TestSetNilKeepsCurrent(t *testing.T) {
	Reset()
	defer Reset()

	eng := &countingEngine{}
	SetEngineHooks(eng)
	SetEngineHooks(nil)
	SetPipelineHooks(nil)

	if Engine() != eng {
		t.Error("SetEngineHooks(nil) replaced the installed hooks")
	}
	if !isType[NoopPipelineHooks](Pipeline()) {
		t.Error("SetPipelineHooks(nil) replaced the default")
	}
}

func TestConcurrentSwap(t *testing.T) {
	Reset()
	defer Reset()

	eng := &countingEngine{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetEngineHooks(eng)
		}()
		go func() {
			defer wg.Done()
			Engine().OnBuildTree("Q729", 3, 0, nil)
		}()
	}
	wg.Wait()

	if Engine() != eng {
		t.Error("installed hooks lost after concurrent use")
	}
}
