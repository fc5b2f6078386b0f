package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/taxoview/pkg/errors"
	"github.com/matzehuels/taxoview/pkg/observability"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	m := NewMetrics()
	m.Register()
	t.Cleanup(observability.Reset)
	return m
}

func TestMetricsHooks(t *testing.T) {
	m := newTestMetrics(t)
	ctx := context.Background()

	m.OnBuildTree("Q729", 3, time.Millisecond, nil)
	m.OnBuildTree("Q0", 0, time.Millisecond, errors.New(errors.ErrCodeUnknownRoot, "Q0"))
	m.OnMutate("expand", 6, nil)
	m.OnCacheHit(ctx, "layout")
	m.OnCacheMiss(ctx, "layout")
	m.OnCacheSet(ctx, "layout", 128)
	m.OnError(ctx, http.MethodPost, "/sessions", errors.New(errors.ErrCodeInvalidDepth, "depth"))
	m.OnError(ctx, http.MethodPost, "/sessions", context.DeadlineExceeded)
	m.SetSessions(4)
	m.OnLoad(ctx, "data/animals.json", 9, time.Millisecond, nil)
	m.OnLoad(ctx, "neo4j", 0, time.Millisecond, errors.New(errors.ErrCodeNetwork, "down"))
	m.OnRenderComplete(ctx, []string{"svg", "dot"}, time.Millisecond, nil)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"builds ok", testutil.ToFloat64(m.treeBuilds.WithLabelValues("ok")), 1},
		{"builds error", testutil.ToFloat64(m.treeBuilds.WithLabelValues("error")), 1},
		{"expand ok", testutil.ToFloat64(m.mutations.WithLabelValues("expand", "ok")), 1},
		{"cache hit", testutil.ToFloat64(m.cacheOps.WithLabelValues("layout", "hit")), 1},
		{"cache miss", testutil.ToFloat64(m.cacheOps.WithLabelValues("layout", "miss")), 1},
		{"cache set", testutil.ToFloat64(m.cacheOps.WithLabelValues("layout", "set")), 1},
		{"coded error", testutil.ToFloat64(m.requestErrors.WithLabelValues("/sessions", "INVALID_DEPTH")), 1},
		{"uncoded error", testutil.ToFloat64(m.requestErrors.WithLabelValues("/sessions", "INTERNAL_ERROR")), 1},
		{"sessions", testutil.ToFloat64(m.sessions), 4},
		{"json load", testutil.ToFloat64(m.loads.WithLabelValues("json", "ok")), 1},
		{"neo4j load", testutil.ToFloat64(m.loads.WithLabelValues("neo4j", "error")), 1},
		{"svg render", testutil.ToFloat64(m.renders.WithLabelValues("svg", "ok")), 1},
		{"dot render", testutil.ToFloat64(m.renders.WithLabelValues("dot", "ok")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestMetricsThroughServer(t *testing.T) {
	m := newTestMetrics(t)
	s := newTestServer(t, WithMetrics(m))

	sess := createSession(t, s, "Q729", 1)
	do(t, s, http.MethodGet, "/sessions/"+sess.ID+"/circles", nil)
	do(t, s, http.MethodGet, "/sessions/nope", nil)

	if got := testutil.CollectAndCount(m.requestErrors); got != 1 {
		t.Errorf("error series = %d, want 1", got)
	}
	if got := testutil.ToFloat64(m.sessions); got != 1 {
		t.Errorf("sessions gauge = %v, want 1", got)
	}

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	wantStatus(t, rec, http.StatusOK)
	body := rec.Body.String()
	for _, want := range []string{
		"taxoview_tree_builds_total",
		"taxoview_layout_duration_seconds",
		"taxoview_http_requests_total",
		`mode="circles"`,
		`code="201"`,
		`code="SESSION_NOT_FOUND"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("/metrics missing %s", want)
		}
	}
}

func TestMetricsWrite(t *testing.T) {
	m := newTestMetrics(t)
	m.OnPath(5, time.Millisecond, nil)
	m.OnLayout("tree", 7, time.Millisecond)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	if err := m.Write(path); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{
		`taxoview_path_searches_total{status="ok"} 1`,
		`taxoview_layout_circles_count{mode="tree"} 1`,
		"# TYPE taxoview_path_search_duration_seconds histogram",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics file missing %q:\n%s", want, out)
		}
	}
}
