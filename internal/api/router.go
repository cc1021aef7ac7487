package api

import (
	"log/slog"
	"net/http"
	"trajectory-service/internal/api/handlers"
	"trajectory-service/internal/ports"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP API is built from. Commands is optional.
type Deps struct {
	Planner  handlers.PlanCreator
	Repo     ports.PlanRepository
	Executor interface {
		handlers.PlanActivator
		handlers.ExecutorStatusReporter
	}
	Commands handlers.CommandLog
	Logger   *slog.Logger
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mux := http.NewServeMux()

	planHandler := &handlers.PlanHandler{
		Planner:  deps.Planner,
		Repo:     deps.Repo,
		Executor: deps.Executor,
		Logger:   logger,
	}
	execHandler := &handlers.ExecutorHandler{Executor: deps.Executor, Commands: deps.Commands}

	mux.HandleFunc("/health", handlers.Health(deps.Executor))
	mux.HandleFunc("POST /plans", planHandler.Create)
	mux.HandleFunc("GET /plans", planHandler.List)
	mux.HandleFunc("GET /plans/{id}", planHandler.Get)
	mux.HandleFunc("GET /plans/{id}/maneuvers", planHandler.ManeuversAt)
	mux.HandleFunc("GET /plans/{id}/next", planHandler.Next)
	mux.HandleFunc("GET /plans/{id}/windows", planHandler.Windows)
	mux.HandleFunc("POST /plans/{id}/activate", planHandler.Activate)
	mux.HandleFunc("GET /executor", execHandler.Status)
	mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(logger, mux)
}
