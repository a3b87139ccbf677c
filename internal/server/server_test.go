package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/player"
	"github.com/desertthunder/tapedeck/internal/shared"
)

// fakePlayer records calls and returns canned errors.
type fakePlayer struct {
	snapshot player.Snapshot
	tracks   []models.Track
	calls    []string
	err      error
	skipOK   bool
	volume   float64
	seekTo   float64
	env      models.Environment
}

func (f *fakePlayer) Snapshot() player.Snapshot { return f.snapshot }
func (f *fakePlayer) Queue() []models.Track     { return f.tracks }

func (f *fakePlayer) TogglePlay(ctx context.Context) error {
	f.calls = append(f.calls, "toggle")
	return f.err
}

func (f *fakePlayer) PlayNext(ctx context.Context) error {
	f.calls = append(f.calls, "next")
	return f.err
}

func (f *fakePlayer) PlayPrev(ctx context.Context) error {
	f.calls = append(f.calls, "prev")
	return f.err
}

func (f *fakePlayer) Seek(t float64) error {
	f.calls = append(f.calls, "seek")
	f.seekTo = t
	return f.err
}

func (f *fakePlayer) SkipTo(ctx context.Context, i int) (bool, error) {
	f.calls = append(f.calls, fmt.Sprintf("skip:%d", i))
	return f.skipOK, f.err
}

func (f *fakePlayer) SetVolume(v float64) error {
	f.calls = append(f.calls, "volume")
	f.volume = v
	return f.err
}

func (f *fakePlayer) SetEnvironment(env models.Environment) error {
	f.calls = append(f.calls, "environment")
	f.env = env
	return f.err
}

func newTestPlayer() *fakePlayer {
	return &fakePlayer{
		snapshot: player.Snapshot{State: player.StatePlaying, IsPlaying: true, Volume: 0.8, QueueLength: 2, Cursor: 1},
		tracks:   []models.Track{{ID: "t1", Title: "One"}, {ID: "t2", Title: "Two"}},
		skipOK:   true,
	}
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPlayerHandler(t *testing.T) {
	logger := log.New(io.Discard)

	t.Run("Routes", func(t *testing.T) {
		h := NewPlayerHandler(newTestPlayer(), logger)
		routes := h.Routes()
		if len(routes) != 9 {
			t.Fatalf("Expected 9 routes, got %d", len(routes))
		}
		for _, r := range routes {
			if _, ok := h.routes[r]; !ok {
				t.Errorf("route %s has no dispatch entry", r)
			}
		}
	})

	t.Run("GetState", func(t *testing.T) {
		w := do(t, NewPlayerHandler(newTestPlayer(), logger), http.MethodGet, "/state")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		if ct := w.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %s", ct)
		}

		var body struct {
			State     string  `json:"state"`
			IsPlaying bool    `json:"is_playing"`
			Volume    float64 `json:"volume"`
		}
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body.State != "playing" || !body.IsPlaying || body.Volume != 0.8 {
			t.Errorf("Unexpected state body: %+v", body)
		}
	})

	t.Run("GetQueue", func(t *testing.T) {
		w := do(t, NewPlayerHandler(newTestPlayer(), logger), http.MethodGet, "/queue")
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}

		var body struct {
			Cursor int `json:"cursor"`
			Tracks []struct {
				ID string `json:"id"`
			} `json:"tracks"`
		}
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body.Cursor != 1 || len(body.Tracks) != 2 || body.Tracks[1].ID != "t2" {
			t.Errorf("Unexpected queue body: %+v", body)
		}
	})

	t.Run("Commands", func(t *testing.T) {
		tests := []struct {
			target string
			call   string
		}{
			{"/toggle", "toggle"},
			{"/next", "next"},
			{"/prev", "prev"},
			{"/seek?t=12.5", "seek"},
			{"/skip?index=1", "skip:1"},
			{"/volume?v=0.3", "volume"},
			{"/environment?kind=cathedral", "environment"},
		}

		for _, tt := range tests {
			t.Run(tt.call, func(t *testing.T) {
				p := newTestPlayer()
				w := do(t, NewPlayerHandler(p, logger), http.MethodPost, tt.target)
				if w.Code != http.StatusOK {
					t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
				}
				if len(p.calls) != 1 || p.calls[0] != tt.call {
					t.Errorf("Expected call %s, got %v", tt.call, p.calls)
				}
			})
		}
	})

	t.Run("ArgumentsReachPlayer", func(t *testing.T) {
		p := newTestPlayer()
		h := NewPlayerHandler(p, logger)
		do(t, h, http.MethodPost, "/seek?t=42")
		do(t, h, http.MethodPost, "/volume?v=0.25")
		do(t, h, http.MethodPost, "/environment?kind=Small-Room")

		if p.seekTo != 42 {
			t.Errorf("Expected seek to 42, got %v", p.seekTo)
		}
		if p.volume != 0.25 {
			t.Errorf("Expected volume 0.25, got %v", p.volume)
		}
		if p.env != models.EnvSmallRoom {
			t.Errorf("Expected small-room, got %v", p.env)
		}
	})

	t.Run("BadArguments", func(t *testing.T) {
		for _, target := range []string{"/seek", "/seek?t=abc", "/volume?v=", "/skip?index=x", "/environment?kind=stadium"} {
			t.Run(target, func(t *testing.T) {
				p := newTestPlayer()
				w := do(t, NewPlayerHandler(p, logger), http.MethodPost, target)
				if w.Code != http.StatusBadRequest {
					t.Errorf("Expected 400, got %d", w.Code)
				}
				if len(p.calls) != 0 {
					t.Errorf("Player should not be called, got %v", p.calls)
				}
			})
		}
	})

	t.Run("SkipOutOfRange", func(t *testing.T) {
		p := newTestPlayer()
		p.skipOK = false
		w := do(t, NewPlayerHandler(p, logger), http.MethodPost, "/skip?index=9")
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		h := NewPlayerHandler(newTestPlayer(), logger)
		if w := do(t, h, http.MethodGet, "/toggle"); w.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405 for GET /toggle, got %d", w.Code)
		}
		if w := do(t, h, http.MethodPost, "/state"); w.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405 for POST /state, got %d", w.Code)
		}
	})

	t.Run("UnknownPath", func(t *testing.T) {
		w := do(t, NewPlayerHandler(newTestPlayer(), logger), http.MethodGet, "/missing")
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", w.Code)
		}
	})

	t.Run("ErrorStatus", func(t *testing.T) {
		tests := []struct {
			name string
			err  error
			want int
		}{
			{"superseded is success", shared.ErrSuperseded, http.StatusOK},
			{"wrapped superseded is success", fmt.Errorf("load: %w", shared.ErrSuperseded), http.StatusOK},
			{"source unavailable", fmt.Errorf("%w: offline", shared.ErrSourceUnavailable), http.StatusConflict},
			{"engine closed", shared.ErrEngineClosed, http.StatusServiceUnavailable},
			{"device", shared.ErrPlaybackDevice, http.StatusInternalServerError},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				p := newTestPlayer()
				p.err = tt.err
				w := do(t, NewPlayerHandler(p, logger), http.MethodPost, "/next")
				if w.Code != tt.want {
					t.Errorf("Expected %d, got %d", tt.want, w.Code)
				}
				if tt.want != http.StatusOK && !strings.Contains(w.Body.String(), `"error"`) {
					t.Errorf("Expected error body, got %s", w.Body.String())
				}
			})
		}
	})
}

func TestRouter(t *testing.T) {
	t.Run("Handle", func(t *testing.T) {
		r := NewBasicRouter()
		r.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("pong"))
		}))

		if w := do(t, r, http.MethodGet, "/ping"); w.Code != http.StatusOK || w.Body.String() != "pong" {
			t.Errorf("Expected pong, got %d %q", w.Code, w.Body.String())
		}
		if w := do(t, r, http.MethodPost, "/ping"); w.Code != http.StatusMethodNotAllowed {
			t.Errorf("Expected 405, got %d", w.Code)
		}
	})

	t.Run("MiddlewareOrder", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		r := NewBasicRouter()
		r.Use(mark("first"), mark("second"))
		r.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			order = append(order, "handler")
		}))
		do(t, r, http.MethodGet, "/")

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("Unexpected middleware order: %v", order)
		}
	})

	t.Run("PlayerRouter", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)
		logger.SetLevel(log.DebugLevel)

		srv := httptest.NewServer(NewPlayerRouter(newTestPlayer(), logger))
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/health")
		if err != nil {
			t.Fatalf("GET /health failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected 200 from /health, got %d", resp.StatusCode)
		}

		resp, err = http.Post(srv.URL+"/toggle", "", nil)
		if err != nil {
			t.Fatalf("POST /toggle failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected 200 from /toggle, got %d", resp.StatusCode)
		}

		if !strings.Contains(buf.String(), "path=/toggle") {
			t.Errorf("Expected request log for /toggle, got: %s", buf.String())
		}
	})

	t.Run("Recover", func(t *testing.T) {
		r := NewBasicRouter()
		r.Use(Recover(log.New(io.Discard)))
		r.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

		if w := do(t, r, http.MethodGet, "/boom"); w.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500, got %d", w.Code)
		}
	})
}

func TestListenAndServe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ListenAndServe(ctx, shared.ServerConfig{Host: "127.0.0.1", Port: 0}, http.NotFoundHandler(), log.New(io.Discard))
	}()

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Expected clean shutdown, got %v", err)
	}
}
