package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/pkg/zip"
)

// contentFilenames maps each content type to its filename in an export
// archive.
var contentFilenames = map[domain.ContentType]string{
	domain.ContentTypeBlog:   "blog_post.md",
	domain.ContentTypeSocial: "social_media.md",
	domain.ContentTypeAudio:  "audio_script.md",
	domain.ContentTypeVideo:  "video_script.md",
}

// ExportContent bundles a cached generation result into a zip archive, one
// file per content type.
func (a *App) ExportContent(w http.ResponseWriter, r *http.Request) {
	fingerprint := chi.URLParam(r, "fingerprint")
	entry, err := a.Cache.Get(r.Context(), fingerprint)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			a.jsonError(w, http.StatusNotFound, "content not found")
			return
		}
		a.Logger.Error().Err(err).Msg("export: cache read failed")
		a.jsonError(w, http.StatusInternalServerError, "cache read failed")
		return
	}

	var assets []zip.Asset
	for _, ct := range domain.AllContentTypes {
		text := entry.Payload[ct]
		if text == "" {
			continue
		}
		assets = append(assets, zip.Asset{
			Filename: contentFilenames[ct],
			MIME:     "text/markdown",
			Data:     []byte(text),
		})
	}
	if len(assets) == 0 {
		a.jsonError(w, http.StatusNotFound, "cached entry holds no content")
		return
	}

	archive := zip.ArchiveAssets(assets)
	if archive == nil {
		a.jsonError(w, http.StatusInternalServerError, "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "content-"+fingerprint[:min(12, len(fingerprint))]+".zip"))
	_, _ = w.Write(archive)
}

// InvalidateContent removes a cached entry. This is the hook used by the
// external cache-invalidation collaborator.
func (a *App) InvalidateContent(w http.ResponseWriter, r *http.Request) {
	fingerprint := chi.URLParam(r, "fingerprint")
	if err := a.Cache.Invalidate(r.Context(), fingerprint); err != nil {
		a.Logger.Error().Err(err).Msg("invalidate: cache delete failed")
		a.jsonError(w, http.StatusInternalServerError, "cache delete failed")
		return
	}
	a.json(w, http.StatusOK, map[string]string{"status": "invalidated", "fingerprint": fingerprint})
}
