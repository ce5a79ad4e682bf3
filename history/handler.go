package history

import (
	"net/http"

	"github.com/rs/zerolog"

	"vidrank/httputil"
	"vidrank/ratelimit"
)

// Handler serves a client's search history.
type Handler struct {
	Store  *Store
	Logger zerolog.Logger
}

// HandleList returns the caller's recent queries, newest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.Recent(r.Context(), ratelimit.ClientID(r))
	if err != nil {
		h.Logger.Error().Err(err).Msg("list history")
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"history": entries})
}

// HandleClear forgets the caller's queries.
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Clear(r.Context(), ratelimit.ClientID(r)); err != nil {
		h.Logger.Error().Err(err).Msg("clear history")
		httputil.WriteError(w, http.StatusInternalServerError, "failed to clear history")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
