package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"slotbook/internal/config"
	"slotbook/internal/domain"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HTTPServer exposes the user and booking API over HTTP.
type HTTPServer struct {
	app      config.AppConfig
	users    domain.UserService
	bookings domain.BookingService
	health   Pinger
	validate *requestValidator
	logger   *zerolog.Logger
	router   *httprouter.Router
	server   *http.Server
}

func NewHTTPServer(
	cfg *config.Config,
	users domain.UserService,
	bookings domain.BookingService,
	health Pinger,
	logger *zerolog.Logger,
) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	apiLogger := logger.With().Str("component", "http").Logger()

	srv := &HTTPServer{
		app:      cfg.App,
		users:    users,
		bookings: bookings,
		health:   health,
		validate: newRequestValidator(),
		logger:   &apiLogger,
		router:   httprouter.New(),
	}
	srv.routes()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.API.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", legacyTokenHeader, requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	}).Handler(newRateLimiter(cfg.API.RateLimit).Wrap(srv.router))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.HTTP.Port),
		Handler:           loggingMiddleware(srv.logger, securityHeaders(corsHandler)),
		ReadTimeout:       cfg.API.HTTP.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.API.HTTP.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	return srv
}

func (s *HTTPServer) routes() {
	r := s.router
	r.HandleMethodNotAllowed = true
	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.PanicHandler = func(w http.ResponseWriter, req *http.Request, v interface{}) {
		zerolog.Ctx(req.Context()).Error().Interface("panic", v).Str("path", req.URL.Path).Msg("handler panic")
		writeError(w, http.StatusInternalServerError, serverErrorMessage)
	}

	s.handle(http.MethodGet, "/", s.handleIndex)
	s.handle(http.MethodGet, "/healthz", s.handleHealth)

	s.handle(http.MethodPost, "/api/users", s.handleRegister)
	s.handle(http.MethodPost, "/api/auth", s.handleLogin)
	s.handle(http.MethodGet, "/api/auth", s.requireAuth(s.handleMe))

	s.handle(http.MethodPost, "/api/bookings", s.requireAuth(s.handleCreateBooking))
	s.handle(http.MethodGet, "/api/bookings", s.requireAuth(s.handleListBookings))
	s.handle(http.MethodPut, "/api/bookings/:id", s.requireAuth(s.handleUpdateBooking))
	s.handle(http.MethodDelete, "/api/bookings/:id", s.requireAuth(s.handleDeleteBooking))
}

func (s *HTTPServer) handle(method, path string, h httprouter.Handle) {
	s.router.Handle(method, path, instrument(path, h))
}

// Handler returns the fully wrapped handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// fail writes err using the request-scoped logger.
func (s *HTTPServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeDomainError(w, zerolog.Ctx(r.Context()), err)
}
