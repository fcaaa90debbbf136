package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/healthpath/healthpath-go/pkg/assessment"
	"github.com/healthpath/healthpath-go/pkg/logging"
)

// Server provides HTTP API endpoints
type Server struct {
	service    *assessment.Service
	router     *mux.Router
	handler    http.Handler
	httpServer *http.Server
	log        *logging.FieldLogger
}

// NewServer creates a new API server. An empty origins list allows any
// origin.
func NewServer(service *assessment.Service, port string, origins []string) *Server {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		service: service,
		router:  mux.NewRouter(),
		log:     logging.GetLogger().WithFields(logging.Component("http")),
	}
	s.registerRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	})
	s.handler = c.Handler(s.router)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// registerRoutes sets up the HTTP routes
func (s *Server) registerRoutes() {
	s.router.Use(s.recoveryMiddleware, s.loggingMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)

	h := NewAssessmentHandler(s.service)
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/assessments", h.HandleCreateAssessment).Methods(http.MethodPost)
	api.HandleFunc("/reference", h.HandleGetReference).Methods(http.MethodGet)
	api.HandleFunc("/reference/reload", h.HandleReloadReference).Methods(http.MethodPost)
}

// Handler returns the routed handler with CORS applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server and blocks until it is shut down
func (s *Server) Start() error {
	s.log.Info("Starting API server", logging.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReady reports ready once a reference population is loaded
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.service.Ready() {
		writeJSONResponse(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  assessment.ErrNotReady.Error(),
		})
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ready"})
}
