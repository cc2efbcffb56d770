package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/bank-customer-api/internal/config"
	"github.com/hongminglow/bank-customer-api/internal/http/handlers"
	"github.com/hongminglow/bank-customer-api/internal/http/respond"
	"github.com/hongminglow/bank-customer-api/internal/metrics"
	"github.com/hongminglow/bank-customer-api/internal/middleware"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Auth    handlers.Authenticator
	Users   handlers.UserDirectory
	Tokens  middleware.TokenParser
	Metrics *metrics.Auth
	DB      handlers.Pinger
	Logger  logrus.FieldLogger
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, deps Deps) *Server {
	return &Server{inner: &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           NewHandler(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// NewHandler builds the routed handler chain without binding a listener.
func NewHandler(cfg config.Config, deps Deps) http.Handler {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "Not found")
	})

	handlers.NewHealthHandler(time.Now(), deps.DB).Register(r)
	handlers.NewAuthHandler(deps.Auth, log).Register(r)

	var denials middleware.DenialRecorder
	if deps.Metrics != nil {
		denials = deps.Metrics
		r.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)
	}
	handlers.NewUserHandler(deps.Users, denials, log).Register(r)

	authenticated := middleware.Authenticate(deps.Tokens, log, r)
	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(log, authenticated))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
