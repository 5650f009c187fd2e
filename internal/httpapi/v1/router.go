// Package v1 wires the HTTP surface of the account ledger.
// Handlers stay thin and delegate every balance rule to the account service.
package v1

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tinoosan/bankledger/internal/service/account"
)

// Server wires handlers and middleware using Chi.
type Server struct {
	accounts account.Service
	ready    ReadyChecker
	log      *slog.Logger
	rt       *chi.Mux
}

// New constructs the HTTP server with routes and middleware. ready may be nil,
// in which case /readyz always reports ready.
func New(accounts account.Service, ready ReadyChecker, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)

	s := &Server{accounts: accounts, ready: ready, log: logger, rt: r}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

func (s *Server) routes() {
	s.rt.Route("/v1/accounts", func(r chi.Router) {
		r.With(s.validatePostAccount()).Post("/", s.postAccount)
		r.Get("/", s.listAccounts)
		r.With(s.validatePutAccount()).Put("/", s.putAccount)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(s.withAccountID)
			r.Get("/", s.getAccount)
			r.With(s.validatePutAccount()).Put("/", s.putAccount)
			r.Delete("/", s.deleteAccount)
			r.With(s.validateAmountQuery()).Put("/deposit", s.deposit)
			r.With(s.validateAmountQuery()).Put("/withdraw", s.withdraw)
		})
	})
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Handle("/metrics", metricsHandler())
}
