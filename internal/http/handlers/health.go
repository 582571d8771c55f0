package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

// EngineHealth proxies the generation engine's liveness probe so operators
// can check the preflight dependency without starting a run.
func (a *App) EngineHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.Engine.Health(r.Context()); err != nil {
		a.json(w, http.StatusServiceUnavailable, map[string]string{"status": "unreachable", "error": err.Error()})
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
