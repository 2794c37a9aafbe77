package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/MJE43/outcome-engine-go/internal/round"
	"github.com/MJE43/outcome-engine-go/internal/sim"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxBodyBytes = 1 << 20

// Pinger is implemented by dependencies the health check can ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server handles HTTP requests
type Server struct {
	rounds         *round.Service
	simulator      *sim.Simulator
	pingers        map[string]Pinger
	errorHandler   *ErrorHandler
	logger         *zap.Logger
	startTime      time.Time
	requestTimeout time.Duration
	allowedOrigins []string
}

// ServerOption customises a Server.
type ServerOption func(*Server)

// WithHealthCheck registers a dependency pinged by /health.
func WithHealthCheck(name string, p Pinger) ServerOption {
	return func(s *Server) { s.pingers[name] = p }
}

// WithRequestTimeout bounds every request.
func WithRequestTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.requestTimeout = d }
}

// WithAllowedOrigins restricts CORS origins.
func WithAllowedOrigins(origins ...string) ServerOption {
	return func(s *Server) { s.allowedOrigins = origins }
}

// NewServer creates a new API server
func NewServer(rounds *round.Service, logger *zap.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		rounds:         rounds,
		simulator:      sim.New(rounds.Catalog(), logger.Named("sim")),
		pingers:        make(map[string]Pinger),
		errorHandler:   NewErrorHandler(logger),
		logger:         logger,
		startTime:      time.Now(),
		requestTimeout: 60 * time.Second,
		allowedOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}

	logger.Info("api server created",
		zap.Int("games_available", len(rounds.Catalog().Games())),
		zap.String("engine_version", EngineVersion))
	return s
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(middleware.Timeout(s.requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Engine-Version", "X-Error-Type", "X-Error-Category"},
		AllowCredentials: false,
		MaxAge:           60 * 15,
	}))

	r.Get("/health", s.handleHealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/version", s.handleVersion)
		r.Get("/games", s.handleListGames)
		r.Post("/payout/target", s.handleTarget)
		r.Post("/cascade", s.handleCascade)
		r.Post("/mines/place", s.handleMinesPlace)
		r.Post("/simulate", s.handleSimulate)

		r.Route("/rounds", func(r chi.Router) {
			r.Post("/", s.handleOffer)
			r.Get("/", s.handleListRounds)
			r.Get("/{id}", s.handleGetRound)
			r.Post("/{id}/reveal", s.handleReveal)
			r.Post("/{id}/replay", s.handleReplay)
		})
	})

	return r
}

// requestLogger logs one line per request
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)))
	})
}

// writeJSON writes a JSON response with proper headers
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// decodeJSON reads a bounded request body into v
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON: "+err.Error())
		return false
	}
	return true
}
