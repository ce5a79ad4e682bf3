// Package results serves search sessions over HTTP: a search submission
// creates a session, later calls page through it or change its view.
package results

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vidrank/feed"
	"vidrank/httputil"
	"vidrank/metrics"
	"vidrank/ratelimit"
	"vidrank/search"
	"vidrank/session"
	"vidrank/snapshot"
)

const archiveTimeout = 30 * time.Second

// HistoryRecorder remembers submitted queries.
type HistoryRecorder interface {
	Record(ctx context.Context, clientID, query string) error
}

// Handler holds dependencies for the search and session endpoints.
type Handler struct {
	Source   search.Source
	Sessions *session.Store
	History  HistoryRecorder
	Archiver snapshot.Archiver
	Logger   zerolog.Logger

	Now   func() time.Time
	NewID func() string

	archives sync.WaitGroup
}

type viewRequest struct {
	Tab        string `json:"tab"`
	UploadDate string `json:"upload_date"`
	SortBy     string `json:"sort_by"`
}

type selection struct {
	tab  feed.Bucket
	view feed.View
}

func parseSelection(tab, uploadDate, sortBy string) (selection, error) {
	b, ok := feed.ParseBucket(tab)
	if !ok {
		return selection{}, errors.New("tab must be short or long")
	}
	recency, err := feed.ParseRecency(uploadDate)
	if err != nil {
		return selection{}, err
	}
	order, err := feed.ParseSort(sortBy)
	if err != nil {
		return selection{}, err
	}
	return selection{tab: b, view: feed.View{Recency: recency, Sort: order}}, nil
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

// HandleSearch runs a new search for the caller and returns the first
// window of the requested tab. A search overtaken by a newer submission of
// the same client answers 409 and its results are discarded.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("query"))
	if query == "" {
		httputil.WriteError(w, http.StatusBadRequest, "query is required")
		return
	}
	uploadDate, sortBy := q.Get("uploadDate"), q.Get("sortBy")
	sel, err := parseSelection(q.Get("tab"), uploadDate, sortBy)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	clientID := ratelimit.ClientID(r)
	logger := h.Logger.With().Str("query", query).Logger()

	if h.History != nil {
		if err := h.History.Record(ctx, clientID, query); err != nil {
			logger.Warn().Err(err).Msg("record history")
		}
	}

	seq := h.Sessions.Begin(clientID)
	records, err := h.Source.Search(ctx, search.Request{Query: query, UploadDate: uploadDate, SortBy: sortBy})
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			httputil.WriteError(w, http.StatusBadRequest, "query is required")
			return
		}
		logger.Error().Err(err).Uint64("seq", seq).Msg("search failed")
		httputil.WriteError(w, http.StatusBadGateway, "An error occurred while searching. Please try again.")
		return
	}

	sess := feed.NewSession(h.newID(), seq, query, records, h.now)
	page := sess.SetView(sel.tab, sel.view)
	snap := snapshot.FromSession(sess, h.now())
	if err := h.Sessions.Commit(clientID, sess); err != nil {
		metrics.RecordSessionEvent("superseded")
		logger.Info().Uint64("seq", seq).Msg("discarding superseded search")
		httputil.WriteJSON(w, http.StatusConflict, map[string]any{"error": err.Error(), "seq": seq})
		return
	}

	metrics.RecordAnalyzed(sess.Analyzed)
	metrics.RecordSessionEvent("committed")
	metrics.SetActiveSessions(h.Sessions.Len())
	logger.Info().
		Str("session_id", sess.ID).
		Uint64("seq", seq).
		Int("analyzed", sess.Analyzed).
		Int("short", len(sess.Results.Short)).
		Int("long", len(sess.Results.Long)).
		Msg("search committed")

	h.archive(ctx, snap)
	httputil.WriteJSON(w, http.StatusOK, page)
}

// HandleView switches tab, filter and sort of a session and returns the
// first window of the new view.
func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	sel, err := parseSelection(req.Tab, req.UploadDate, req.SortBy)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := h.Sessions.Update(chi.URLParam(r, "id"), func(s *feed.Session) feed.Page {
		return s.SetView(sel.tab, sel.view)
	})
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	metrics.RecordSessionEvent("view_changed")
	httputil.WriteJSON(w, http.StatusOK, page)
}

// HandleMore reveals the next window of the session's active tab.
func (h *Handler) HandleMore(w http.ResponseWriter, r *http.Request) {
	page, err := h.Sessions.Update(chi.URLParam(r, "id"), (*feed.Session).More)
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	metrics.RecordSessionEvent("paged")
	httputil.WriteJSON(w, http.StatusOK, page)
}

// HandleGet describes a session without revealing more.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	page, err := h.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) writeSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, session.ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, "session not found")
		return
	}
	h.Logger.Error().Err(err).Msg("session update")
	httputil.WriteError(w, http.StatusInternalServerError, "session update failed")
}

func (h *Handler) archive(ctx context.Context, snap snapshot.Snapshot) {
	if h.Archiver == nil {
		return
	}
	h.archives.Add(1)
	go func() {
		defer h.archives.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
		defer cancel()
		if err := h.Archiver.Archive(ctx, snap); err != nil {
			h.Logger.Warn().Err(err).Str("session_id", snap.SessionID).Msg("archive snapshot")
		}
	}()
}

// Wait blocks until pending snapshot uploads finish.
func (h *Handler) Wait() {
	h.archives.Wait()
}
