package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/catalog"
	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
)

// maxBodyBytes caps request bodies; lyrics are the only large field.
const maxBodyBytes = 1 << 20

// SongService is the subset of the catalog the HTTP API needs.
type SongService interface {
	Create(ctx context.Context, in models.SongInput) (int64, error)
	List(ctx context.Context) ([]models.SongView, error)
	Get(ctx context.Context, id int64) (*models.SongView, error)
	Update(ctx context.Context, id int64, in models.SongInput) error
	Delete(ctx context.Context, id int64) (bool, error)
	Stats(ctx context.Context) (models.Stats, error)
}

// Route patterns served by [SongHandler].
const (
	routeList       = "GET /songs"
	routeShow       = "GET /songs/{id}"
	routeCreate     = "POST /songs"
	routeReplace    = "PUT /songs/{id}"
	routeUpdateForm = "POST /update/{id}"
	routeDelete     = "DELETE /songs/{id}"
	routeDeleteForm = "POST /delete/{id}"
	routeHealth     = "GET /healthz"
)

// SongHandler serves the song catalog over JSON. Write endpoints also accept HTML form bodies.
type SongHandler struct {
	songs  SongService
	logger *log.Logger
}

// NewSongHandler creates a [SongHandler] over songs.
func NewSongHandler(songs SongService, logger *log.Logger) *SongHandler {
	return &SongHandler{songs: songs, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *SongHandler) Routes() []string {
	return []string{
		routeList, routeShow, routeCreate, routeReplace,
		routeUpdateForm, routeDelete, routeDeleteForm, routeHealth,
	}
}

// ServeHTTP dispatches on the pattern the mux matched.
func (h *SongHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Pattern {
	case routeList:
		h.list(w, r)
	case routeShow:
		h.show(w, r)
	case routeCreate:
		h.create(w, r)
	case routeReplace, routeUpdateForm:
		h.update(w, r)
	case routeDelete, routeDeleteForm:
		h.delete(w, r)
	case routeHealth:
		h.health(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (h *SongHandler) list(w http.ResponseWriter, r *http.Request) {
	songs, err := h.songs.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

func (h *SongHandler) show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	song, err := h.songs.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (h *SongHandler) create(w http.ResponseWriter, r *http.Request) {
	in, err := decodeSong(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := h.songs.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/songs/%d", id))
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *SongHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	in, err := decodeSong(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.songs.Update(r.Context(), id, in); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (h *SongHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.songs.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *SongHandler) health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.songs.Stats(r.Context())
	if err != nil {
		h.logger.Warn("health check failed", "id", RequestIDFrom(r.Context()), "error", err)
		writeError(w, http.StatusServiceUnavailable, "storage backend unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "stats": stats})
}

// fail maps catalog errors onto HTTP statuses.
func (h *SongHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, models.ErrSongNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInvalidSong), errors.Is(err, shared.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", "id", RequestIDFrom(r.Context()), "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid song id %q", r.PathValue("id")))
		return 0, false
	}
	return id, true
}

// decodeSong reads a song from a JSON body, or from form fields for any other content type, then normalizes and validates it.
func decodeSong(w http.ResponseWriter, r *http.Request) (models.SongInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var in models.SongInput
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return in, fmt.Errorf("%w: malformed JSON body: %v", shared.ErrInvalidInput, err)
		}
		return catalog.Prepare(in)
	}

	if err := r.ParseForm(); err != nil {
		return in, fmt.Errorf("%w: malformed form body: %v", shared.ErrInvalidInput, err)
	}
	in = models.SongInput{
		Title:       r.PostForm.Get("title"),
		Artist:      r.PostForm.Get("artist"),
		Genre:       r.PostForm.Get("genre"),
		ReleaseDate: r.PostForm.Get("release_date"),
		Lyrics:      r.PostForm.Get("lyrics"),
	}
	if raw := r.PostForm.Get("rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return in, fmt.Errorf("%w: rating %q is not a number", shared.ErrInvalidInput, raw)
		}
		in.Rating = rating
	}
	return catalog.Prepare(in)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// NewAPI assembles the router with the standard middleware stack.
func NewAPI(songs SongService, limiter *RateLimiter, logger *log.Logger) *BasicRouter {
	router := NewBasicRouter()
	router.Use(RequestLogger(logger), Recover(logger))
	if limiter != nil {
		router.Use(limiter.Middleware)
	}
	router.Handler(NewSongHandler(songs, logger))
	return router
}
