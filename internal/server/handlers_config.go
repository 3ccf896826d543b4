package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-rimepatch"
	"github.com/goliatone/go-rimepatch/pkg/activity"
	"github.com/goliatone/go-rimepatch/pkg/store"
	"github.com/goliatone/go-rimepatch/tree"
)

// ConfigView is the full editing state of one document.
type ConfigView struct {
	Name      string `json:"name"`
	Base      any    `json:"base"`
	Patch     any    `json:"patch"`
	Effective any    `json:"effective"`
	Dirty     bool   `json:"dirty"`
	Stale     bool   `json:"stale"`
	ETag      string `json:"etag,omitempty"`
}

// StateView is returned by edits.
type StateView struct {
	Dirty bool `json:"dirty"`
	Stale bool `json:"stale"`
}

type overrideRequest struct {
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value"`
}

type patchRequest struct {
	Patch json.RawMessage `json:"patch"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// session resolves {name} and writes the error response when it cannot.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*rimepatch.Session, bool) {
	name := chi.URLParam(r, "name")
	session, err := s.sessions.get(r.Context(), name)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidName):
			writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
		default:
			s.logger.Error().Err(err).Str("document", name).Msg("open session failed")
			writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		}
		return nil, false
	}
	return session, true
}

func stateOf(session *rimepatch.Session) StateView {
	return StateView{Dirty: session.IsDirty(), Stale: session.Stale()}
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ConfigView{
		Name:      session.Name(),
		Base:      tree.ToAny(session.Base()),
		Patch:     tree.ToAny(session.Patch()),
		Effective: tree.ToAny(session.Effective()),
		Dirty:     session.IsDirty(),
		Stale:     session.Stale(),
		ETag:      session.Meta().ETag,
	})
}

func (s *Server) getValue(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "path is required")
		return
	}
	value, found := session.Get(path)
	if !found {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "no value at "+path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path, "value": tree.ToAny(value)})
}

func (s *Server) setOverride(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "path is required")
		return
	}
	value, err := decodeValue(req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "value: "+err.Error())
		return
	}
	if err := session.Set(r.Context(), req.Path, value); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(session))
}

func (s *Server) removeOverride(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "path is required")
		return
	}
	removed, err := session.Remove(r.Context(), path)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"removed": removed,
		"dirty":   session.IsDirty(),
		"stale":   session.Stale(),
	})
}

func (s *Server) replacePatch(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}
	patch, err := decodeMapping(req.Patch)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "patch: "+err.Error())
		return
	}
	if err := session.Replace(r.Context(), patch); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(session))
}

func (s *Server) discard(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := session.Discard(r.Context()); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(session))
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := session.Refresh(r.Context()); err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(session))
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	meta, err := session.Save(r.Context())
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	if meta.ETag != "" {
		w.Header().Set("ETag", meta.ETag)
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	result, err := session.SaveAndDeploy(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrETagMismatch) {
			writeErrorWithDetails(w, http.StatusConflict, ErrCodeConflict, result.Message, map[string]any{"cause": err.Error()})
			return
		}
		s.logger.Error().Err(err).Str("document", session.Name()).Msg("apply failed")
		writeErrorWithDetails(w, http.StatusInternalServerError, ErrCodeInternalError, result.Message, map[string]any{"cause": err.Error()})
		return
	}
	if !result.Success && strings.HasPrefix(result.Message, rimepatch.ChecksFailedMessage) {
		writeErrorWithDetails(w, http.StatusUnprocessableEntity, ErrCodeCheckFailed, result.Message, nil)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	preview := session.Preview
	if r.URL.Query().Get("latest") != "" {
		preview = session.LatestPreview
	}
	text, err := preview()
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(text))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (s *Server) diff(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	diff, err := session.Diff()
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	selector := r.URL.Query().Get("jsonpath")
	if selector == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "jsonpath is required")
		return
	}
	results, err := session.Query(selector)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) trace(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "path is required")
		return
	}
	writeJSON(w, http.StatusOK, session.Trace(path))
}

func (s *Server) fields(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rimepatch.Describe(session.Base(), session.Patch()))
}

func (s *Server) check(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	report, err := session.Check()
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document": report.Document,
		"passed":   report.Passed(),
		"results":  report.Results,
	})
}

func (s *Server) deploy(w http.ResponseWriter, r *http.Request) {
	result, err := s.deployer.Deploy(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("deploy failed")
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	s.emitter.Emit(r.Context(), activity.BuildConfigDeployedEvent(activity.ConfigEventInput{
		Metadata: map[string]any{"success": result.Success, "message": result.Message},
	}))
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) listSchemas(w http.ResponseWriter, r *http.Request) {
	lister, ok := s.store.(store.SchemaLister)
	if !ok {
		writeError(w, http.StatusNotImplemented, ErrCodeNotSupported, "store cannot list schemas")
		return
	}
	schemas, err := lister.ListSchemas(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, schemas)
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrETagMismatch):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, rimepatch.ErrEmptyPath):
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	case errors.Is(err, rimepatch.ErrClosed), errors.Is(err, rimepatch.ErrNotLoaded):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		s.logger.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
	}
}
