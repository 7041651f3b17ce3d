package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"matchchat/internal/application"
	"matchchat/pkg/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
	maxBodyBytes      = 64 << 10
)

// Pinger reports whether an optional backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the JSON API over the chat pipeline.
type Server struct {
	addr    string
	app     *application.Service
	metrics *metrics.Manager
	logger  application.Logger
	pingers map[string]Pinger

	router *chi.Mux
	srv    *http.Server
}

func NewServer(addr string, app *application.Service, m *metrics.Manager, logger application.Logger) *Server {
	if logger == nil {
		logger = discardLogger{}
	}
	s := &Server{
		addr:    addr,
		app:     app,
		metrics: m,
		logger:  logger,
		pingers: make(map[string]Pinger),
	}
	s.router = s.routes()
	return s
}

// AddHealthCheck makes /healthz report on a backing store.
func (s *Server) AddHealthCheck(name string, p Pinger) {
	s.pingers[name] = p
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/competitions", s.listCompetitions)
		r.Get("/competitions/{competitionID}/seasons/{seasonID}/matches", s.listMatches)

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Get("/score", s.matchScore)
			r.Get("/stats", s.matchStats)
			r.Get("/players", s.playerStats)
			r.Get("/lineups", s.lineups)
			r.Get("/report", s.matchReport)
			r.Post("/refresh", s.refreshMatch)
		})

		r.Post("/sessions", s.createSession)
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Put("/match", s.switchMatch)
			r.Post("/ask", s.ask)
			r.Get("/turns", s.turns)
			r.Post("/reset", s.resetSession)
			r.Get("/archive", s.archive)
			r.Post("/commentary", s.commentary)
			r.Get("/export.json", s.exportJSON)
			r.Get("/export.xlsx", s.exportExcel)
			r.Post("/export/sheet", s.exportSheet)
		})
	})
	return r
}

func (s *Server) Name() string { return "http" }

func (s *Server) Init() error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return nil
}

func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("HTTP API listening on %s", s.addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop() {
	if s.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("HTTP shutdown: %v", err)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	for name, p := range s.pingers {
		if err := p.Ping(r.Context()); err != nil {
			status[name] = err.Error()
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	writeJSON(w, code, status)
}

type discardLogger struct{}

func (discardLogger) Error(string, ...interface{}) {}
func (discardLogger) Warn(string, ...interface{})  {}
func (discardLogger) Info(string, ...interface{})  {}
func (discardLogger) Debug(string, ...interface{}) {}
