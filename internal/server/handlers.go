package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/taxoview/pkg/buildinfo"
	"github.com/matzehuels/taxoview/pkg/engine"
	"github.com/matzehuels/taxoview/pkg/errors"
	"github.com/matzehuels/taxoview/pkg/hierarchy"
	"github.com/matzehuels/taxoview/pkg/path"
	"github.com/matzehuels/taxoview/pkg/session"
)

// =============================================================================
// Request and response bodies
// =============================================================================

type createRequest struct {
	RootID string `json:"root_id"`
	Depth  int    `json:"depth"`
}

type keyRequest struct {
	Key *hierarchy.Key `json:"key"`
}

type focusRequest struct {
	ID string `json:"id"`
}

type backRequest struct {
	Index *int `json:"index"`
}

type pathRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type mappingRequest struct {
	Side string   `json:"side"`
	IDs  []string `json:"ids"`
}

// sessionResponse answers every session mutation.
type sessionResponse struct {
	ID        string       `json:"id"`
	ExpiresAt time.Time    `json:"expires_at"`
	TreeDepth int          `json:"tree_depth,omitempty"`
	View      *engine.View `json:"view"`
}

type pathResponse struct {
	Path   *path.Path        `json:"path"`
	Text   string            `json:"text"`
	Labels map[string]string `json:"labels"`
}

type healthResponse struct {
	Status   string         `json:"status"`
	Dataset  string         `json:"dataset"`
	Entities int            `json:"entities"`
	Build    buildinfo.Info `json:"build"`
}

func newSessionResponse(sess *session.Session) sessionResponse {
	return sessionResponse{ID: sess.ID, ExpiresAt: sess.Expiry(), View: sess.View}
}

// =============================================================================
// Session plumbing
// =============================================================================

// withSession loads the session named in the URL, runs fn under its lock,
// extends its lifetime and writes fn's result.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*session.Session) (any, error)) {
	id := chi.URLParam(r, "id")
	sess, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sess == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeSessionNotFound, "session %q not found or expired", id))
		return
	}

	sess.Lock()
	defer sess.Unlock()

	body, err := fn(sess)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess.Touch(s.ttl)
	if err := s.store.Set(r.Context(), sess); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Dataset:  s.dataset,
		Entities: s.engine.Graph().Len(),
		Build:    buildinfo.Get(),
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Depth == 0 {
		req.Depth = s.depth
	}
	if err := errors.ValidateDepth(req.Depth, hierarchy.DepthCap); err != nil {
		s.writeError(w, r, err)
		return
	}

	v, err := s.engine.NewView(req.RootID, req.Depth)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess := session.New(s.dataset, v, s.ttl)
	if err := s.store.Set(r.Context(), sess); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.observeSessions()
	s.logger.Debug("session created", "id", sess.ID, "root", v.RootID, "depth", v.Depth)
	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session.Session) (any, error) {
		return newSessionResponse(sess), nil
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.store.Get(r.Context(), id)
	if err == nil && sess == nil {
		err = errors.New(errors.ErrCodeSessionNotFound, "session %q not found or expired", id)
	}
	if err == nil {
		err = s.store.Delete(r.Context(), id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.observeSessions()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLayout(mode string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := bounds(r, s.bounds)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.withSession(w, r, func(sess *session.Session) (any, error) {
			return s.engine.Render(sess.View, mode, b)
		})
	}
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Key == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "key is required"))
		return
	}
	s.withSession(w, r, func(sess *session.Session) (any, error) {
		depth, err := s.engine.Expand(sess.View.Tree, *req.Key)
		if err != nil {
			return nil, err
		}
		resp := newSessionResponse(sess)
		resp.TreeDepth = depth
		return resp, nil
	})
}

func (s *Server) handleCollapse(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Key == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "key is required"))
		return
	}
	s.withSession(w, r, func(sess *session.Session) (any, error) {
		if err := s.engine.Collapse(sess.View.Tree, *req.Key); err != nil {
			return nil, err
		}
		return newSessionResponse(sess), nil
	})
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	var req focusRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.ID == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "id is required"))
		return
	}
	s.withSession(w, r, func(sess *session.Session) (any, error) {
		if err := s.engine.Focus(sess.View, req.ID); err != nil {
			return nil, err
		}
		return newSessionResponse(sess), nil
	})
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	var req backRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Index == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "index is required"))
		return
	}
	s.withSession(w, r, func(sess *session.Session) (any, error) {
		if err := s.engine.Back(sess.View, *req.Index); err != nil {
			return nil, err
		}
		return newSessionResponse(sess), nil
	})
}

func (s *Server) handleSelectPath(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Start == "" || req.End == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "start and end are required"))
		return
	}
	s.withSession(w, r, func(sess *session.Session) (any, error) {
		p, err := s.engine.FindPath(req.Start, req.End)
		if err != nil {
			return nil, err
		}
		if err := s.engine.SelectPath(sess.View, p); err != nil {
			return nil, err
		}
		return newSessionResponse(sess), nil
	})
}

func (s *Server) handleClearPath(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *session.Session) (any, error) {
		s.engine.ClearPath(sess.View)
		s.engine.Highlight(sess.View)
		return newSessionResponse(sess), nil
	})
}

// handleMap replaces the entities mapped onto one side; an empty ids list
// clears it.
func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	var req mappingRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	side, err := engine.ParseSide(req.Side)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.withSession(w, r, func(sess *session.Session) (any, error) {
		if err := s.engine.Map(sess.View, side, req.IDs); err != nil {
			return nil, err
		}
		return newSessionResponse(sess), nil
	})
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	start, end := r.URL.Query().Get("start"), r.URL.Query().Get("end")
	if start == "" || end == "" {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "start and end are required"))
		return
	}
	p, err := s.engine.FindPath(start, end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	labels := make(map[string]string, len(p.Vertices))
	for _, id := range p.Vertices {
		labels[id] = s.engine.Label(id)
	}
	writeJSON(w, http.StatusOK, pathResponse{Path: p, Text: p.String(), Labels: labels})
}
