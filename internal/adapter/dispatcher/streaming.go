package dispatcher

import (
	"fmt"
	"strings"
	"time"
)

const (
	streamChunkSize     = 100
	streamChunkInterval = 10 * time.Millisecond
	doneSentinel        = "data: [DONE]\n\n"
)

type chatChoice struct {
	Delta        chatDelta `json:"delta"`
	FinishReason *string   `json:"finish_reason"`
	Index        int       `json:"index"`
}

type chatDelta struct {
	Content string `json:"content,omitempty"`
}

type chatCompletionChunk struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
}

type chatErrorFrame struct {
	Error chatErrorBody `json:"error"`
}

type chatErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// StreamChunks splits translated into streamChunkSize-character pieces and
// emits each as an SSE `data: <json>\n\n` frame via emit, pausing
// streamChunkInterval between them, then emits the terminal
// finish_reason:"stop" chunk — matching §4.E's streaming-mode shape.
func StreamChunks(id, model string, created int64, translated string, emit func(string)) {
	chunks := splitIntoChunks(translated, streamChunkSize)

	for _, c := range chunks {
		chunk := chatCompletionChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   model,
			Choices: []chatChoice{{Index: 0, Delta: chatDelta{Content: c}, FinishReason: nil}},
		}
		emitJSON(emit, chunk)
		time.Sleep(streamChunkInterval)
	}

	stop := "stop"
	final := chatCompletionChunk{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   model,
		Choices: []chatChoice{{Index: 0, Delta: chatDelta{}, FinishReason: &stop}},
	}
	emitJSON(emit, final)
}

// StreamError emits an error frame in the shape §4.E requires before the
// terminal sentinel, used on the error path so P6 holds even on failure.
func StreamError(emit func(string), message string, errType string, code int) {
	frame := chatErrorFrame{Error: chatErrorBody{Message: message, Type: errType, Code: code}}
	emitJSON(emit, frame)
}

// StreamDone emits the sentinel line that must terminate every streaming
// response, success or failure (P6).
func StreamDone(emit func(string)) {
	emit(doneSentinel)
}

func emitJSON(emit func(string), v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	emit(fmt.Sprintf("data: %s\n\n", b))
}

func splitIntoChunks(s string, size int) []string {
	if s == "" {
		return nil
	}
	runes := []rune(s)
	var out []string
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatCompletionChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type ChatCompletionResponse struct {
	ID      string                  `json:"id"`
	Object  string                  `json:"object"`
	Created int64                   `json:"created"`
	Model   string                  `json:"model"`
	Choices []chatCompletionChoice  `json:"choices"`
	Usage   chatUsage               `json:"usage"`
}

// NonStreamingEnvelope builds the one-shot JSON response §4.E specifies for
// non-streaming mode, with token counts as whitespace-split word counts.
func NonStreamingEnvelope(id, model string, created int64, promptText, translated string) ChatCompletionResponse {
	return ChatCompletionResponse{
		ID:      id,
		Object:  "chat.completion",
		Created: created,
		Model:   model,
		Choices: []chatCompletionChoice{{
			Index:        0,
			Message:      chatMessage{Role: "assistant", Content: translated},
			FinishReason: "stop",
		}},
		Usage: chatUsage{
			PromptTokens:     wordCount(promptText),
			CompletionTokens: wordCount(translated),
			TotalTokens:      wordCount(promptText) + wordCount(translated),
		},
	}
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
