package handlers

import (
	"encoding/json"
	"net/http"

	"server/internal/domain"
	"server/internal/stream"
)

// GenerateReq is the wire shape of a generation request.
type GenerateReq struct {
	Topic        string   `json:"topic"`
	Tier         string   `json:"tier"`
	ContentTypes []string `json:"content_types"`
	UseCache     *bool    `json:"use_cache"`
}

// Generate runs one generation job and streams its events to the client as
// server-sent events. The response stays open for the lifetime of the run.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var body GenerateReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req := domain.GenerationRequest{
		Topic:    body.Topic,
		Tier:     domain.ParseTier(body.Tier),
		UseCache: body.UseCache == nil || *body.UseCache,
	}
	for _, raw := range body.ContentTypes {
		ct, err := domain.ParseContentType(raw)
		if err != nil {
			a.jsonError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.ContentTypes = append(req.ContentTypes, ct)
	}
	if err := req.Validate(); err != nil {
		a.jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	sse := stream.NewSSEWriter(w)
	for ev := range a.Executor.Run(r.Context(), req) {
		if err := sse.Write(ev); err != nil {
			// Client gone; returning cancels the request context, which
			// unblocks the run goroutine.
			a.Logger.Debug().Err(err).Msg("generate: client disconnected mid-stream")
			return
		}
	}
}
