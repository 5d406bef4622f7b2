package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/bryanchriswhite/qalttab/internal/config"
	"github.com/bryanchriswhite/qalttab/internal/logger"
	"github.com/bryanchriswhite/qalttab/internal/overlay"
	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Version is reported by the health endpoint
const Version = "0.1.0"

// StateSource is the aggregator as seen by the inspector
type StateSource interface {
	State() overlay.State
	Subscribe() chan overlay.State
	Unsubscribe(ch chan overlay.State)
}

// ConfigSource provides the active configuration
type ConfigSource interface {
	Get() *config.Config
}

// Server is the read-only inspector API. It never talks to the window manager.
type Server struct {
	router   *mux.Router
	states   StateSource
	configs  ConfigSource
	upgrader websocket.Upgrader
	started  time.Time
	log      *zerolog.Logger
}

// NewServer creates a new inspector server
func NewServer(states StateSource, configs ConfigSource) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		states:  states,
		configs: configs,
		started: time.Now(),
		upgrader: websocket.Upgrader{
			// Bound to loopback; local tools may come from any origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: logger.WithComponent(logger.ComponentInspector),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
	api.HandleFunc("/state", s.handleGetState).Methods("GET")
	api.HandleFunc("/state/stream", s.handleStateStream).Methods("GET")
	api.HandleFunc("/config", s.handleGetConfig).Methods("GET")
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is cancelled
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("addr", ln.Addr().String()).Msg("Inspector listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status":  "healthy",
		"version": Version,
		"started": humanize.Time(s.started),
	})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.states.State())
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.configs == nil {
		http.Error(w, "configuration not available", http.StatusNotFound)
		return
	}
	writeJSON(w, s.configs.Get())
}

func (s *Server) handleStateStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	updates := s.states.Subscribe()
	defer s.states.Unsubscribe(updates)

	// The client never sends; reading only detects the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := conn.WriteJSON(s.states.State()); err != nil {
		s.log.Debug().Err(err).Msg("WebSocket write failed")
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case state, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(state); err != nil {
				s.log.Debug().Err(err).Msg("WebSocket write failed")
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
