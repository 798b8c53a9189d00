package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"breachline/internal/game"
	"breachline/internal/render"
	"breachline/internal/session"
	"breachline/internal/store"
)

const (
	maxBodyBytes   = 64 << 10
	maxFrameSide   = 1920
	minFrameSide   = 64
	stopTimeout    = 15 * time.Second
	defaultTopRuns = 10
	maxTopRuns     = 100
)

// recordingView is the API shape of a stored run.
type recordingView struct {
	ID        uint      `json:"id"`
	SessionID string    `json:"sessionId"`
	Seed      int64     `json:"seed"`
	Mode      string    `json:"mode"`
	FinalTick uint64    `json:"finalTick"`
	Score     int       `json:"score"`
	Cash      int       `json:"cash"`
	Kills     int       `json:"kills"`
	Outcome   string    `json:"outcome"`
	StateHash string    `json:"stateHash"`
	CreatedAt time.Time `json:"createdAt"`
}

func viewRecording(r *store.Recording) recordingView {
	return recordingView{
		ID:        r.ID,
		SessionID: r.SessionID,
		Seed:      r.Seed,
		Mode:      r.Mode,
		FinalTick: r.FinalTick,
		Score:     r.Score,
		Cash:      r.Cash,
		Kills:     r.Kills,
		Outcome:   r.Outcome,
		StateHash: r.StateHash,
		CreatedAt: r.CreatedAt,
	}
}

func (h *routerHandlers) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var opts session.CreateOptions
	if err := decodeBody(w, r, &opts); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s, err := h.sessions.Create(opts)
	if err != nil {
		writeFailure(w, err)
		return
	}
	h.log.Info().Str("session", s.ID).Str("mode", opts.Mode.String()).Msg("Session created")
	writeJSONStatus(w, http.StatusCreated, s.Info())
}

func (h *routerHandlers) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.sessions.List())
}

func (h *routerHandlers) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.Info())
}

func (h *routerHandlers) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	snap := s.Snapshot()
	w.Header().Set("X-State-Hash", snap.Hash())
	writeJSON(w, snap)
}

func (h *routerHandlers) handleFrame(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	o := h.frame
	q := r.URL.Query()
	if v, err := strconv.Atoi(q.Get("w")); err == nil {
		o.Width = clamp(v, minFrameSide, maxFrameSide)
	}
	if v, err := strconv.Atoi(q.Get("h")); err == nil {
		o.Height = clamp(v, minFrameSide, maxFrameSide)
	}
	if follow, err := strconv.ParseBool(q.Get("follow")); err == nil {
		o.Follow = follow
	}

	var buf bytes.Buffer
	if err := render.WritePNG(&buf, s.Snapshot(), o); err != nil {
		h.log.Error().Err(err).Str("session", s.ID).Msg("Failed to render frame")
		writeError(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (h *routerHandlers) handleInput(w http.ResponseWriter, r *http.Request) {
	var in game.Input
	if err := decodeBody(w, r, &in); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.sessions.Input(chi.URLParam(r, "id"), in); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *routerHandlers) handleStop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx, cancel := context.WithTimeout(r.Context(), stopTimeout)
	defer cancel()

	if err := h.sessions.Stop(ctx, id); err != nil {
		writeFailure(w, err)
		return
	}
	s, err := h.sessions.Get(id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, s.Info())
}

func (h *routerHandlers) handleRewind(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	tick, err := strconv.ParseUint(r.URL.Query().Get("tick"), 10, 64)
	if err != nil {
		writeError(w, "tick must be a non-negative integer", http.StatusBadRequest)
		return
	}
	if err := s.Rewind(tick); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}
	writeJSON(w, s.Info())
}

func (h *routerHandlers) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	if h.recordings == nil {
		writeError(w, "recordings are disabled", http.StatusServiceUnavailable)
		return
	}
	f := store.ListFilter{Mode: r.URL.Query().Get("mode")}
	if f.Mode != "" {
		if _, err := game.ParseMode(f.Mode); err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		f.Limit = clamp(v, 1, 500)
	}

	recs, err := h.recordings.List(r.Context(), f)
	if err != nil {
		writeFailure(w, err)
		return
	}
	out := make([]recordingView, len(recs))
	for i := range recs {
		out[i] = viewRecording(&recs[i])
	}
	writeJSON(w, out)
}

func (h *routerHandlers) handleGetRecording(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordingID(w, r)
	if !ok {
		return
	}
	rec, err := h.recordings.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, viewRecording(rec))
}

func (h *routerHandlers) handleVerifyRecording(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recordingID(w, r)
	if !ok {
		return
	}
	res, err := h.recordings.Verify(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{
		"id":        id,
		"ticks":     res.Ticks,
		"hash":      res.Hash,
		"expected":  res.Expected,
		"match":     res.Match,
		"score":     res.Score,
		"outcome":   res.Outcome,
		"elapsedMs": res.Elapsed.Milliseconds(),
	})
}

func (h *routerHandlers) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, err := game.ParseMode(q.Get("mode"))
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	limit := defaultTopRuns
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		limit = clamp(v, 1, maxTopRuns)
	}

	lb := h.sessions.Leaderboard(mode)
	var entries []session.LeaderboardEntry
	if key := q.Get("around"); key != "" {
		entries = lb.Around(key, limit/2, limit/2)
	} else {
		entries = lb.Top(limit)
	}
	if entries == nil {
		entries = []session.LeaderboardEntry{}
	}

	writeJSON(w, map[string]interface{}{
		"mode":    mode,
		"total":   lb.Len(),
		"entries": entries,
	})
}

// session resolves the {id} route parameter, writing a 404 on failure.
func (h *routerHandlers) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, err)
		return nil, false
	}
	return s, true
}

func (h *routerHandlers) recordingID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	if h.recordings == nil {
		writeError(w, "recordings are disabled", http.StatusServiceUnavailable)
		return 0, false
	}
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		writeError(w, "invalid recording id", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

// decodeBody reads an optional JSON body into v. An empty body leaves v as is.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, store.ErrRecordingNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrTooManySessions):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrSessionNotActive), errors.Is(err, session.ErrRewindUnavailable):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeFailure(w http.ResponseWriter, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, msg, code)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSONStatus(w, code, map[string]string{"error": message})
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
