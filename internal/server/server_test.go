package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/taxoview/pkg/engine"
	"github.com/matzehuels/taxoview/pkg/errors"
	"github.com/matzehuels/taxoview/pkg/hierarchy"
	"github.com/matzehuels/taxoview/pkg/layout"
	"github.com/matzehuels/taxoview/pkg/ontology"
	"github.com/matzehuels/taxoview/pkg/session"
)

// animals is
//
//	entity -> animal -> mammal -> {dog, house cat, human}
//	          animal -> bird -> parrot
//	entity -> person -> human
func animals() *ontology.Graph {
	return ontology.Build([]ontology.Edge{
		{Child: "Q729", Parent: "Q35120"},
		{Child: "Q7377", Parent: "Q729"},
		{Child: "Q5113", Parent: "Q729"},
		{Child: "Q144", Parent: "Q7377"},
		{Child: "Q146", Parent: "Q7377"},
		{Child: "Q5", Parent: "Q7377"},
		{Child: "Q5", Parent: "Q215627"},
		{Child: "Q215627", Parent: "Q35120"},
		{Child: "Q26745", Parent: "Q5113"},
	}, map[string]string{
		"Q35120": "entity", "Q729": "animal", "Q7377": "mammal", "Q5113": "bird",
		"Q144": "dog", "Q146": "house cat", "Q5": "human", "Q215627": "person",
		"Q26745": "parrot",
	})
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	opts = append([]Option{WithLogger(log.New(io.Discard))}, opts...)
	return New(engine.New(animals()), "animals", opts...)
}

// do sends a request with an optional JSON body and returns the recorder.
func do(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, want, rec.Body.String())
	}
}

func createSession(t *testing.T, s *Server, rootID string, depth int) sessionResponse {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/sessions", createRequest{RootID: rootID, Depth: depth})
	wantStatus(t, rec, http.StatusCreated)
	resp := decodeBody[sessionResponse](t, rec)
	if resp.ID == "" {
		t.Fatal("session id is empty")
	}
	return resp
}

func keyOf(t *testing.T, v *engine.View, id string) hierarchy.Key {
	t.Helper()
	keys := v.Tree.Find(id)
	if len(keys) == 0 {
		t.Fatalf("%s not in tree", id)
	}
	return keys[0]
}

func TestCreateSession(t *testing.T) {
	s := newTestServer(t)

	resp := createSession(t, s, "Q729", 1)
	if resp.View.RootID != "Q729" || resp.View.Depth != 1 {
		t.Errorf("view = root %s depth %d", resp.View.RootID, resp.View.Depth)
	}
	if resp.View.Tree.Len() != 3 {
		t.Errorf("tree has %d nodes, want 3", resp.View.Tree.Len())
	}
	if !resp.ExpiresAt.After(time.Now()) {
		t.Errorf("expires_at %v is not in the future", resp.ExpiresAt)
	}
}

func TestCreateSessionDefaults(t *testing.T) {
	s := newTestServer(t, WithDefaults(2, layout.Bounds{Width: 400, Height: 300}))

	// An empty body starts at the graph root with the default depth.
	rec := do(t, s, http.MethodPost, "/sessions", nil)
	wantStatus(t, rec, http.StatusCreated)
	resp := decodeBody[sessionResponse](t, rec)
	if resp.View.RootID != ontology.DefaultRootID {
		t.Errorf("root = %s, want %s", resp.View.RootID, ontology.DefaultRootID)
	}
	if resp.View.Depth != 2 {
		t.Errorf("depth = %d, want 2", resp.View.Depth)
	}

	rec = do(t, s, http.MethodGet, "/sessions/"+resp.ID+"/circles", nil)
	wantStatus(t, rec, http.StatusOK)
	l := decodeBody[layout.Layout](t, rec)
	if l.Width != 400 || l.Height != 300 {
		t.Errorf("frame = %vx%v, want 400x300", l.Width, l.Height)
	}
}

func TestCreateSessionErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
	}{
		{"unknown root", `{"root_id": "Q0"}`, http.StatusNotFound, errors.ErrCodeUnknownRoot},
		{"negative depth", `{"depth": -1}`, http.StatusBadRequest, errors.ErrCodeInvalidDepth},
		{"unknown field", `{"root": "Q729"}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"malformed", `{`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			wantStatus(t, rec, tt.status)
			if got := decodeBody[errorBody](t, rec).Code; got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestExpandCollapse(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, "Q729", 1)
	mammal := keyOf(t, sess.View, "Q7377")

	rec := do(t, s, http.MethodPost, "/sessions/"+sess.ID+"/expand", map[string]any{"key": mammal})
	wantStatus(t, rec, http.StatusOK)
	resp := decodeBody[sessionResponse](t, rec)
	if resp.View.Tree.Len() != 6 {
		t.Errorf("tree has %d nodes after expand, want 6", resp.View.Tree.Len())
	}
	if resp.TreeDepth != 2 {
		t.Errorf("tree_depth = %d, want 2", resp.TreeDepth)
	}

	rec = do(t, s, http.MethodPost, "/sessions/"+sess.ID+"/collapse", map[string]any{"key": mammal})
	wantStatus(t, rec, http.StatusOK)
	resp = decodeBody[sessionResponse](t, rec)
	if resp.View.Tree.Len() != 3 {
		t.Errorf("tree has %d nodes after collapse, want 3", resp.View.Tree.Len())
	}

	// The mutations are kept in the session.
	rec = do(t, s, http.MethodGet, "/sessions/"+sess.ID, nil)
	wantStatus(t, rec, http.StatusOK)
	if got := decodeBody[sessionResponse](t, rec).View.Tree.Len(); got != 3 {
		t.Errorf("stored tree has %d nodes, want 3", got)
	}
}

func TestMutationErrors(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, "Q729", 1)
	base := "/sessions/" + sess.ID

	tests := []struct {
		name   string
		method string
		target string
		body   any
		status int
		code   errors.Code
	}{
		{"expand without key", http.MethodPost, base + "/expand", map[string]any{}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"expand unknown key", http.MethodPost, base + "/expand", map[string]any{"key": 99}, http.StatusNotFound, errors.ErrCodeUnknownNode},
		{"focus without id", http.MethodPost, base + "/focus", map[string]any{}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"focus unknown entity", http.MethodPost, base + "/focus", focusRequest{ID: "Q0"}, http.StatusNotFound, errors.ErrCodeUnknownNode},
		{"back out of range", http.MethodPost, base + "/back", map[string]any{"index": 5}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"path without end", http.MethodPost, base + "/path", pathRequest{Start: "Q144"}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad width", http.MethodGet, base + "/circles?width=wide", nil, http.StatusBadRequest, errors.ErrCodeInvalidBounds},
		{"zero height", http.MethodGet, base + "/tree?height=0", nil, http.StatusBadRequest, errors.ErrCodeInvalidBounds},
		{"unknown session", http.MethodGet, "/sessions/nope/circles", nil, http.StatusNotFound, errors.ErrCodeSessionNotFound},
		{"unknown session mutation", http.MethodPost, "/sessions/nope/focus", focusRequest{ID: "Q7377"}, http.StatusNotFound, errors.ErrCodeSessionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.target, tt.body)
			wantStatus(t, rec, tt.status)
			if got := decodeBody[errorBody](t, rec).Code; got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestFocusAndBack(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, "Q729", 1)

	rec := do(t, s, http.MethodPost, "/sessions/"+sess.ID+"/focus", focusRequest{ID: "Q7377"})
	wantStatus(t, rec, http.StatusOK)
	resp := decodeBody[sessionResponse](t, rec)
	if resp.View.RootID != "Q7377" {
		t.Errorf("root = %s, want Q7377", resp.View.RootID)
	}
	want := []engine.Crumb{{ID: "Q729", Label: "animal"}, {ID: "Q7377", Label: "mammal"}}
	if diff := cmp.Diff(want, resp.View.Trail); diff != "" {
		t.Errorf("trail mismatch (-want +got):\n%s", diff)
	}

	rec = do(t, s, http.MethodPost, "/sessions/"+sess.ID+"/back", map[string]any{"index": 0})
	wantStatus(t, rec, http.StatusOK)
	resp = decodeBody[sessionResponse](t, rec)
	if resp.View.RootID != "Q729" || len(resp.View.Trail) != 1 {
		t.Errorf("after back: root %s, trail %v", resp.View.RootID, resp.View.Trail)
	}
}

func TestSelectAndClearPath(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, "Q35120", 1)

	rec := do(t, s, http.MethodPost, "/sessions/"+sess.ID+"/path", pathRequest{Start: "Q144", End: "Q26745"})
	wantStatus(t, rec, http.StatusOK)
	resp := decodeBody[sessionResponse](t, rec)

	v := resp.View
	if v.Path == nil {
		t.Fatal("path not set")
	}
	if v.RootID != "Q729" {
		t.Errorf("root = %s, want the pivot Q729", v.RootID)
	}
	if diff := cmp.Diff([]string{"Q144", "Q7377", "Q729", "Q5113", "Q26745"}, v.Path.Vertices); diff != "" {
		t.Errorf("vertices mismatch (-want +got):\n%s", diff)
	}

	rec = do(t, s, http.MethodGet, "/sessions/"+sess.ID+"/tree", nil)
	wantStatus(t, rec, http.StatusOK)
	l := decodeBody[layout.Layout](t, rec)
	if l.Mode != layout.ModeTree {
		t.Errorf("mode = %s, want tree", l.Mode)
	}
	if len(l.Circles) != v.Tree.Len() {
		t.Errorf("%d circles for %d tree nodes", len(l.Circles), v.Tree.Len())
	}

	rec = do(t, s, http.MethodDelete, "/sessions/"+sess.ID+"/path", nil)
	wantStatus(t, rec, http.StatusOK)
	if decodeBody[sessionResponse](t, rec).View.Path != nil {
		t.Error("path not cleared")
	}
}

func TestMapping(t *testing.T) {
	s := newTestServer(t)
	sess := createSession(t, s, "Q35120", 1)
	target := "/sessions/" + sess.ID + "/mapping"

	tests := []struct {
		name   string
		req    mappingRequest
		status int
	}{
		{"bad side", mappingRequest{Side: "top", IDs: []string{"Q144"}}, http.StatusBadRequest},
		{"unknown entity", mappingRequest{Side: "left", IDs: []string{"Q0"}}, http.StatusNotFound},
		{"left", mappingRequest{Side: "left", IDs: []string{"Q144"}}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantStatus(t, do(t, s, http.MethodPut, target, tt.req), tt.status)
		})
	}

	rec := do(t, s, http.MethodGet, "/sessions/"+sess.ID, nil)
	wantStatus(t, rec, http.StatusOK)
	if diff := cmp.Diff([]string{"Q144"}, decodeBody[sessionResponse](t, rec).View.Left); diff != "" {
		t.Errorf("left mapping mismatch (-want +got):\n%s", diff)
	}

	rec = do(t, s, http.MethodGet, "/sessions/"+sess.ID+"/circles", nil)
	wantStatus(t, rec, http.StatusOK)
	l := decodeBody[layout.Layout](t, rec)
	if len(l.Mappings) != 1 || l.Mappings[0].Side != "left" {
		t.Fatalf("mappings = %+v, want one left arrow", l.Mappings)
	}
	for _, c := range l.Circles {
		if c.Key == l.Mappings[0].TargetKey && c.ID != "Q729" {
			t.Errorf("dog should map onto animal, got %s", c.ID)
		}
	}

	wantStatus(t, do(t, s, http.MethodPut, target, mappingRequest{Side: "left"}), http.StatusOK)
	rec = do(t, s, http.MethodGet, "/sessions/"+sess.ID+"/circles", nil)
	if l := decodeBody[layout.Layout](t, rec); len(l.Mappings) != 0 {
		t.Errorf("mappings = %+v after clearing", l.Mappings)
	}
}

func TestPathLookup(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/paths?start=Q144&end=Q26745", nil)
	wantStatus(t, rec, http.StatusOK)
	resp := decodeBody[pathResponse](t, rec)
	if resp.Text != "Q144 ↑ Q7377 ↑ Q729 ↓ Q5113 ↓ Q26745" {
		t.Errorf("text = %q", resp.Text)
	}
	if resp.Labels["Q729"] != "animal" {
		t.Errorf("labels = %v", resp.Labels)
	}

	rec = do(t, s, http.MethodGet, "/paths?start=Q144", nil)
	wantStatus(t, rec, http.StatusBadRequest)

	rec = do(t, s, http.MethodGet, "/paths?start=Q144&end=Q0", nil)
	wantStatus(t, rec, http.StatusNotFound)
}

func TestDeleteSession(t *testing.T) {
	store := session.NewMemoryStore()
	s := newTestServer(t, WithStore(store))
	sess := createSession(t, s, "Q729", 1)

	rec := do(t, s, http.MethodDelete, "/sessions/"+sess.ID, nil)
	wantStatus(t, rec, http.StatusNoContent)
	if store.Len() != 0 {
		t.Errorf("store holds %d sessions, want 0", store.Len())
	}

	rec = do(t, s, http.MethodDelete, "/sessions/"+sess.ID, nil)
	wantStatus(t, rec, http.StatusNotFound)
}

func TestExpiredSessionsAreSwept(t *testing.T) {
	store := session.NewMemoryStore()
	s := newTestServer(t, WithStore(store), WithSessionTTL(time.Millisecond))
	createSession(t, s, "Q729", 1)

	time.Sleep(5 * time.Millisecond)
	if n := s.sweep(context.Background()); n != 1 {
		t.Errorf("sweep() removed %d sessions, want 1", n)
	}
	if store.Len() != 0 {
		t.Errorf("store holds %d sessions, want 0", store.Len())
	}
}

func TestConcurrentRequestsOnOneSession(t *testing.T) {
	s := newTestServer(t)
	id := createSession(t, s, "Q729", 1).ID
	h := s.Handler()
	ctx := context.Background()

	var wg sync.WaitGroup
	codes := make(chan int, 16*50)
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				target := "/sessions/" + id
				if (g+i)%3 == 0 {
					target += "/circles"
				}
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
				codes <- rec.Code
				if g == 0 {
					s.sweep(ctx)
				}
			}
		}(g)
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		if code != http.StatusOK {
			t.Fatalf("status = %d, want 200", code)
		}
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/healthz", nil)
	wantStatus(t, rec, http.StatusOK)
	resp := decodeBody[healthResponse](t, rec)
	if resp.Status != "ok" || resp.Dataset != "animals" || resp.Entities != 9 {
		t.Errorf("health = %+v", resp)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeUnknownNode, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeNoPath, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeSessionNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeInvalidDepth, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeInvalidBounds, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeEmptyGraph, "x"), http.StatusInternalServerError},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRunShutsDown(t *testing.T) {
	s := newTestServer(t, WithCleanupInterval(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
