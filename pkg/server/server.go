package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/heliotrack/heliotrack/pkg/controller"
	"github.com/heliotrack/heliotrack/pkg/log"
	"github.com/heliotrack/heliotrack/pkg/simulator"
	"github.com/heliotrack/heliotrack/pkg/storage"
	"github.com/heliotrack/heliotrack/pkg/types"
	"github.com/levenlabs/go-lflag"
)

// maxBodyBytes limits request bodies to 1MB.
const maxBodyBytes = 1 << 20

// tokenVerifier is a function that validates a Google or Apple ID Token.
type tokenVerifier func(ctx context.Context, rawIDToken string) (*oidc.IDToken, error)

// Server exposes the simulator, the movement controller and stored runs over
// HTTP.
type Server struct {
	controller *controller.Controller
	simulator  *simulator.Simulator
	storage    storage.Database
	metrics    *metrics

	listenAddr string
	httpServer *http.Server
	serverName string

	oidcAudiences map[string]string
	oidcVerifiers map[string]tokenVerifier

	// overridden in tests
	now   func() time.Time
	newID func() string
}

// New returns a Server without flags. Auth is disabled.
func New(c *controller.Controller, s storage.Database) *Server {
	return &Server{
		controller: c,
		simulator:  simulator.New(c),
		storage:    s,
		metrics:    newMetrics(),
		serverName: "heliotrack",
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(c *controller.Controller, s storage.Database) *Server {
	srv := New(c, s)
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	oidcAudience := lflag.String("oidc-audience", "", "Google client ID to validate bearer tokens against")
	oidcAudiences := map[string]string{}
	lflag.JSON(&oidcAudiences, "oidc-audiences", oidcAudiences, "JSON map of provider (google/apple) to audience/client ID")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		if len(oidcAudiences) == 0 && *oidcAudience != "" {
			oidcAudiences = map[string]string{"google": *oidcAudience}
		}
		if len(oidcAudiences) == 0 {
			log.Ctx(context.Background()).Warn("no oidc audiences configured, auth is disabled")
			return
		}
		srv.oidcAudiences = make(map[string]string, len(oidcAudiences))
		srv.oidcVerifiers = make(map[string]tokenVerifier, len(oidcAudiences))
		for n, a := range oidcAudiences {
			var issuer string
			switch n {
			case "google":
				issuer = "https://accounts.google.com"
			case "apple":
				issuer = "https://appleid.apple.com"
			default:
				log.Ctx(context.Background()).Error("unsupported oidc audience client", slog.String("client", n))
				os.Exit(1)
			}
			provider, err := oidc.NewProvider(context.Background(), issuer)
			if err != nil {
				log.Ctx(context.Background()).Error("failed to initialize OIDC provider", slog.String("client", n), slog.Any("error", err))
				os.Exit(1)
			}
			srv.oidcVerifiers[n] = provider.Verifier(&oidc.Config{ClientID: a}).Verify
			srv.oidcAudiences[n] = a
		}
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/simulate", s.handleSimulate)
	apiMux.HandleFunc("POST /api/decide", s.handleDecide)
	apiMux.HandleFunc("GET /api/position", s.handlePosition)
	apiMux.HandleFunc("GET /api/runs", s.handleListRuns)
	apiMux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.authMiddleware(apiMux))
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("GET /metrics", s.metrics.handler())
	return s.revisionMiddleware(gziphandler.GzipHandler(s.securityHeadersMiddleware(mux)))
}

// Run starts the HTTP server and blocks until the context is canceled or an error occurs.
// It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.listenAddr,
		Handler:      s.setupHandler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

// writeError maps domain errors onto status codes.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		log.Ctx(ctx).WarnContext(ctx, "invalid request", slog.Any("error", err))
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, types.ErrRunNotFound):
		writeJSONError(w, "run not found", http.StatusNotFound)
	case errors.Is(err, types.ErrPredictorUnavailable):
		log.Ctx(ctx).ErrorContext(ctx, "predictor unavailable", slog.Any("error", err))
		writeJSONError(w, "irradiance predictor unavailable", http.StatusServiceUnavailable)
	default:
		log.Ctx(ctx).ErrorContext(ctx, "request failed", slog.Any("error", err))
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(http.ErrAbortHandler)
	}
}

// decodeJSON reads a size-limited JSON body into v. Failures wrap
// types.ErrInvalidInput.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", types.ErrInvalidInput, err)
	}
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}
