package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/player"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// Player is the subset of [player.Engine] exposed over HTTP.
type Player interface {
	Snapshot() player.Snapshot
	Queue() []models.Track
	TogglePlay(ctx context.Context) error
	PlayNext(ctx context.Context) error
	PlayPrev(ctx context.Context) error
	Seek(t float64) error
	SkipTo(ctx context.Context, i int) (bool, error)
	SetVolume(v float64) error
	SetEnvironment(env models.Environment) error
}

type route struct {
	method string
	fn     func(w http.ResponseWriter, r *http.Request)
}

// PlayerHandler serves transport and session controls for a [Player].
// Implements the [Handler] interface for registration with a [Router].
type PlayerHandler struct {
	player Player
	logger *log.Logger
	routes map[string]route
}

// queueResponse is the body of GET /queue.
type queueResponse struct {
	Cursor int            `json:"cursor"`
	Tracks []models.Track `json:"tracks"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewPlayerHandler creates a handler over p.
func NewPlayerHandler(p Player, logger *log.Logger) *PlayerHandler {
	h := &PlayerHandler{player: p, logger: logger}
	h.routes = map[string]route{
		"/state":       {http.MethodGet, h.state},
		"/queue":       {http.MethodGet, h.queue},
		"/toggle":      {http.MethodPost, h.toggle},
		"/next":        {http.MethodPost, h.next},
		"/prev":        {http.MethodPost, h.prev},
		"/seek":        {http.MethodPost, h.seek},
		"/skip":        {http.MethodPost, h.skip},
		"/volume":      {http.MethodPost, h.volume},
		"/environment": {http.MethodPost, h.environment},
	}
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *PlayerHandler) Routes() []string {
	return []string{"/state", "/queue", "/toggle", "/next", "/prev", "/seek", "/skip", "/volume", "/environment"}
}

// ServeHTTP dispatches by path and enforces each route's method.
func (h *PlayerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt, ok := h.routes[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Method != rt.method {
		w.Header().Set("Allow", rt.method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rt.fn(w, r)
}

func (h *PlayerHandler) state(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.player.Snapshot())
}

func (h *PlayerHandler) queue(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, queueResponse{Cursor: h.player.Snapshot().Cursor, Tracks: h.player.Queue()})
}

func (h *PlayerHandler) toggle(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.player.TogglePlay(r.Context()))
}

func (h *PlayerHandler) next(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.player.PlayNext(r.Context()))
}

func (h *PlayerHandler) prev(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.player.PlayPrev(r.Context()))
}

func (h *PlayerHandler) seek(w http.ResponseWriter, r *http.Request) {
	t, err := floatParam(r, "t")
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, h.player.Seek(t))
}

func (h *PlayerHandler) skip(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		h.writeError(w, shared.ErrInvalidArgument)
		return
	}
	ok, err := h.player.SkipTo(r.Context(), i)
	if err == nil && !ok {
		err = shared.ErrInvalidArgument
	}
	h.respond(w, err)
}

func (h *PlayerHandler) volume(w http.ResponseWriter, r *http.Request) {
	v, err := floatParam(r, "v")
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, h.player.SetVolume(v))
}

func (h *PlayerHandler) environment(w http.ResponseWriter, r *http.Request) {
	env, err := models.ParseEnvironment(r.URL.Query().Get("kind"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, h.player.SetEnvironment(env))
}

// respond writes the post-command snapshot, or the error. A superseded request is not a failure.
func (h *PlayerHandler) respond(w http.ResponseWriter, err error) {
	if err != nil && !errors.Is(err, shared.ErrSuperseded) {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.player.Snapshot())
}

func (h *PlayerHandler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("player command failed", "err", err)
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *PlayerHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to encode response", "err", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidArgument), errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrTrackNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrSourceUnavailable):
		return http.StatusConflict
	case errors.Is(err, shared.ErrEngineClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func floatParam(r *http.Request, name string) (float64, error) {
	v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	if err != nil {
		return 0, shared.ErrInvalidArgument
	}
	return v, nil
}
