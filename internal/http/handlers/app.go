package handlers

import (
	"encoding/json"
	"net/http"

	"server/internal/cache"
	"server/internal/infra"
	"server/internal/orchestrator"
)

// App is the handler container. All collaborators are injected explicitly.
type App struct {
	Executor *orchestrator.Executor
	Cache    cache.Store
	Engine   orchestrator.Engine
	Logger   infra.Logger
}

func NewApp(executor *orchestrator.Executor, store cache.Store, engine orchestrator.Engine, logger infra.Logger) *App {
	return &App{Executor: executor, Cache: store, Engine: engine, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) jsonError(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}
