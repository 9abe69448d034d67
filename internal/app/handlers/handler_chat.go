package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/swhesong/deeplx-gateway/internal/adapter/dispatcher"
	"github.com/swhesong/deeplx-gateway/internal/app/middleware"
	"github.com/swhesong/deeplx-gateway/internal/core/domain"
)

type chatCompletionRequest struct {
	Messages    []map[string]interface{} `json:"messages"`
	Model       string                   `json:"model"`
	Stream      bool                     `json:"stream"`
	Temperature *float64                 `json:"temperature,omitempty"`
	MaxTokens   *int                     `json:"max_tokens,omitempty"`
	TopP        *float64                 `json:"top_p,omitempty"`
}

// ChatCompletions implements POST /v1/chat/completions: parse the model
// string into a language pair, pull the first user message's text, then
// dispatch a translation, either streamed as SSE chunks or returned as one
// JSON envelope.
func (h *Handlers) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req chatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.ErrInvalidRequest("Invalid request body"))
		return
	}

	sourceLang, targetLang, err := dispatcher.ParseModel(req.Model)
	if err != nil {
		h.Logger.ErrorURL("invalid model format", req.Model, "request_id", requestID)
		writeError(w, err)
		return
	}

	text := extractUserText(req.Messages)
	if strings.TrimSpace(text) == "" {
		writeError(w, domain.ErrInvalidRequest("No valid user message found"))
		return
	}

	if err := h.Dispatcher.ValidateText(text); err != nil {
		writeError(w, err)
		return
	}

	h.Logger.Info("translating",
		"request_id", requestID,
		"chars", len(text),
		"source_lang", orAuto(sourceLang),
		"target_lang", targetLang,
	)

	useStreaming := req.Stream && h.Config.EnableStreaming && supportsSSE(r)

	if useStreaming {
		h.streamTranslation(w, r, req.Model, text, sourceLang, targetLang, requestID)
		return
	}

	result, err := h.Dispatcher.Translate(r.Context(), text, sourceLang, targetLang, requestID)
	if err != nil {
		writeError(w, err)
		return
	}

	envelope := dispatcher.NonStreamingEnvelope(uuid.NewString(), req.Model, time.Now().Unix(), text, result)
	w.Header().Set("X-Request-ID", requestID)
	writeJSON(w, http.StatusOK, envelope)
}

func (h *Handlers) streamTranslation(w http.ResponseWriter, r *http.Request, model, text, sourceLang, targetLang, requestID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, domain.NewAPIError(http.StatusInternalServerError, "streaming unsupported", nil))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(http.StatusOK)

	emit := func(frame string) {
		_, _ = w.Write([]byte(frame))
		flusher.Flush()
	}

	result, err := h.Dispatcher.Translate(r.Context(), text, sourceLang, targetLang, requestID)
	if err != nil {
		if apiErr, ok := err.(*domain.APIError); ok {
			dispatcher.StreamError(emit, apiErr.Message, "translation_error", apiErr.StatusCode)
		} else {
			dispatcher.StreamError(emit, "Internal server error during translation", "internal_error", http.StatusInternalServerError)
		}
		dispatcher.StreamDone(emit)
		return
	}

	chatID := uuid.NewString()
	dispatcher.StreamChunks(chatID, model, time.Now().Unix(), result, emit)
	dispatcher.StreamDone(emit)
}

func extractUserText(messages []map[string]interface{}) string {
	for _, msg := range messages {
		if msg["role"] != "user" {
			continue
		}
		switch content := msg["content"].(type) {
		case string:
			return content
		case map[string]interface{}:
			if t, ok := content["text"].(string); ok {
				return t
			}
		}
		break
	}
	return ""
}

func supportsSSE(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

func orAuto(lang string) string {
	if lang == "" {
		return "AUTO"
	}
	return lang
}
