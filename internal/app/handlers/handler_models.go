package handlers

import (
	"net/http"

	"github.com/swhesong/deeplx-gateway/internal/version"
)

type modelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

var supportedModels = []modelInfo{
	{"deepl-EN-ZH", "model", 1677610602, "deepl"},
	{"deepl-EN-JA", "model", 1677610602, "deepl"},
	{"deepl-EN-FR", "model", 1677610602, "deepl"},
	{"deepl-EN-DE", "model", 1677610602, "deepl"},
	{"deepl-EN-ES", "model", 1677610602, "deepl"},
	{"deepl-ZH-EN", "model", 1677610602, "deepl"},
	{"deepl-JA-EN", "model", 1677610602, "deepl"},
	{"deepl-FR-EN", "model", 1677610602, "deepl"},
	{"deepl-DE-EN", "model", 1677610602, "deepl"},
	{"deepl-ES-EN", "model", 1677610602, "deepl"},
	{"deepl-ZH", "model", 1677610602, "deepl"},
	{"deepl-EN", "model", 1677610602, "deepl"},
	{"deepl-JA", "model", 1677610602, "deepl"},
}

// Models implements GET /v1/models: the static language-pair list.
func (h *Handlers) Models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"object": "list",
		"data":   supportedModels,
	})
}

// Root implements GET /: a static service-info card.
func (h *Handlers) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "DeepLX Translation API",
		"version": version.Version,
		"status":  "running",
		"endpoints": map[string]string{
			"translate":  "/v1/chat/completions",
			"health":     "/health",
			"check_urls": "/v1/check-and-export-urls",
			"url_status": "/v1/urls/status",
			"models":     "/v1/models",
		},
	})
}
