package server

import (
	"encoding/json"
	"net/http"

	"github.com/goliatone/go-rimepatch/phrases"
	"github.com/goliatone/go-rimepatch/pkg/activity"
	"github.com/goliatone/go-rimepatch/pkg/store"
)

func (s *Server) phraseStore(w http.ResponseWriter) (store.PhraseStore, bool) {
	ps, ok := s.store.(store.PhraseStore)
	if !ok {
		writeError(w, http.StatusNotImplemented, ErrCodeNotSupported, "store has no phrase table")
	}
	return ps, ok
}

func (s *Server) getPhrases(w http.ResponseWriter, r *http.Request) {
	ps, ok := s.phraseStore(w)
	if !ok {
		return
	}
	data, err := ps.ReadPhrases(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("read phrases failed")
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	if data.Entries == nil {
		data.Entries = []phrases.Entry{}
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) putPhrases(w http.ResponseWriter, r *http.Request) {
	ps, ok := s.phraseStore(w)
	if !ok {
		return
	}
	var data phrases.Data
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}
	for i, entry := range data.Entries {
		if entry.Phrase == "" || entry.Code == "" {
			writeErrorWithDetails(w, http.StatusBadRequest, ErrCodeInvalidRequest,
				"phrase and code are required", map[string]any{"index": i})
			return
		}
	}
	if data.Header == "" {
		data.Header = phrases.DefaultHeader
	}
	if err := ps.WritePhrases(r.Context(), data); err != nil {
		s.logger.Error().Err(err).Msg("write phrases failed")
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	s.logger.Info().Int("entries", len(data.Entries)).Msg("phrases saved")
	s.emitter.Emit(r.Context(), activity.BuildPhrasesSavedEvent(activity.ConfigEventInput{
		Document: store.PhrasesDocument,
		Metadata: map[string]any{"entries": len(data.Entries)},
	}))
	writeSuccess(w)
}
