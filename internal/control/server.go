// Package control exposes a running match over HTTP and websocket: text
// commands in, published state out.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Garsondee/Tank-Arena/internal/game"
)

const instrumentationName = "github.com/Garsondee/Tank-Arena/internal/control"

// Commander accepts text commands and publishes state. *game.Match satisfies it.
type Commander interface {
	Submit(id game.TankID, text string) (game.Submission, error)
	View() *game.StateView
}

// LevelSource renders the battlefield as GeoJSON.
type LevelSource interface {
	GeoJSON() ([]byte, error)
}

// CommandRequest is the body of POST /tanks/{id}/command and of websocket
// messages. Tank is only read from websocket messages.
type CommandRequest struct {
	Tank game.TankID `json:"tank,omitempty"`
	Text string      `json:"text"`
}

// Server serves the control surface for one match.
type Server struct {
	cmd      Commander
	level    LevelSource
	push     time.Duration
	log      zerolog.Logger
	commands metric.Int64Counter
}

// NewServer builds a server. push is the websocket state interval.
func NewServer(cmd Commander, level LevelSource, push time.Duration, log zerolog.Logger) (*Server, error) {
	if push <= 0 {
		push = 250 * time.Millisecond
	}
	counter, err := otel.Meter(instrumentationName).Int64Counter("tankarena.commands",
		metric.WithDescription("Commands received by the control surface"))
	if err != nil {
		return nil, fmt.Errorf("creating command counter: %w", err)
	}
	return &Server{
		cmd:      cmd,
		level:    level,
		push:     push,
		log:      log.With().Str("component", "control").Logger(),
		commands: counter,
	}, nil
}

// Handler returns the instrumented route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /level", s.handleLevel)
	mux.HandleFunc("POST /tanks/{id}/command", s.handleCommand)
	mux.HandleFunc("GET /ws", s.handleWS)
	return otelhttp.NewHandler(mux, "control",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.Pattern
		}))
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("control listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("control server listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("control serve: %w", err)
	}
	return nil
}

// submit runs one command and classifies the outcome.
func (s *Server) submit(ctx context.Context, id game.TankID, text string) (game.Submission, int, error) {
	sub, err := s.cmd.Submit(id, text)
	status := statusFor(err)
	result := "accepted"
	if err != nil {
		result = resultLabel(err)
		s.log.Debug().Err(err).Int("tank", int(id)).Str("text", text).Msg("command rejected")
	} else {
		s.log.Debug().Stringer("id", sub.ID).Int("tank", int(id)).Str("text", text).Int("actions", len(sub.Actions)).Msg("command accepted")
	}
	s.commands.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	return sub, status, err
}

// statusFor maps submission errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusAccepted
	case errors.Is(err, game.ErrUnknownTank):
		return http.StatusNotFound
	case errors.Is(err, game.ErrNotControllable):
		return http.StatusForbidden
	case errors.Is(err, game.ErrIntakeFull), errors.Is(err, game.ErrIntakeClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, game.ErrUnknownTank):
		return "unknown_tank"
	case errors.Is(err, game.ErrNotControllable):
		return "not_controllable"
	case errors.Is(err, game.ErrIntakeFull), errors.Is(err, game.ErrIntakeClosed):
		return "unavailable"
	default:
		return "invalid"
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	v := s.cmd.View()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "tick": v.Tick, "phase": v.Phase})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cmd.View())
}

func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	if s.level == nil {
		httpError(w, http.StatusNotFound, errors.New("no level loaded"))
		return
	}
	data, err := s.level.GeoJSON()
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(data)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		httpError(w, http.StatusNotFound, fmt.Errorf("tank %q: %w", r.PathValue("id"), game.ErrUnknownTank))
		return
	}
	var req CommandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	sub, status, err := s.submit(r.Context(), game.TankID(n), req.Text)
	if err != nil {
		httpError(w, status, err)
		return
	}
	writeJSON(w, status, sub)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
