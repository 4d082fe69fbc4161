package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/core/solver"
	"github.com/jakechorley/duty-roster/pkg/db"
)

// Handler serves the roster HTTP API
type Handler struct {
	validate *validator.Validate
	config   *config.Config
	backend  solver.Backend
	store    db.RunStore
	logger   *zap.Logger

	Mux *chi.Mux
}

// NewHandler creates a handler. store may be nil, in which case runs are
// not stored and the history endpoints return 404.
func NewHandler(cfg *config.Config, backend solver.Backend, store db.RunStore, logger *zap.Logger) *Handler {
	return &Handler{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		config:   cfg,
		backend:  backend,
		store:    store,
		logger:   logger,

		Mux: chi.NewRouter(),
	}
}

// RegisterRoutes mounts every endpoint on Mux
func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestLogger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/healthz", h.Health)

	h.Mux.Route("/rosters", func(r chi.Router) {
		r.Post("/", h.SolveRoster)
		r.Post("/check", h.CheckRoster)
		r.Get("/", h.ListRuns)
		r.Get("/{id}", h.GetRun)
	})
}
