// Package mockserver is a local stand-in for the Proxycast chat-completions
// endpoint, so the probe can be exercised without a live backend. It validates
// the bearer token, echoes the last user message, and streams the reply as
// OpenAI-style chunks ending with data: [DONE].
package mockserver

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/proxycast/streamprobe/internal/openai"
)

// Config controls the mock endpoint's behavior.
type Config struct {
	// APIKey is the bearer token clients must present. Empty disables the check.
	APIKey string
	// Reply is streamed back verbatim. Empty echoes the last user message.
	Reply string
	// ChunkSize is the number of characters per content delta (default 8).
	ChunkSize int
	// Interval is the pause between chunks (default none).
	Interval time.Duration
}

// Server serves the mock chat-completions endpoint.
type Server struct {
	cfg    Config
	logger *log.Logger
}

// New constructs a Server with defaults filled in.
func New(cfg Config) *Server {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 8
	}
	return &Server{cfg: cfg}
}

// SetLogger installs an optional request logger.
func (s *Server) SetLogger(logger *log.Logger) {
	s.logger = logger
}

func (s *Server) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// Router returns a configured chi router for the mock endpoint.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/v1/chat/completions", s.handleChatCompletions)
	return r
}

func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if s.cfg.APIKey != "" && bearerToken(r.Header.Get("Authorization")) != s.cfg.APIKey {
		s.respondError(w, http.StatusUnauthorized, "invalid api key")
		return
	}

	var req openai.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Model == "" || len(req.Messages) == 0 {
		s.respondError(w, http.StatusBadRequest, "model and messages required")
		return
	}

	reply := s.replyFor(req)
	s.logf("chat request model=%s messages=%d stream=%v reply_chars=%d", req.Model, len(req.Messages), req.Stream, len(reply))

	if !req.Stream {
		s.respondCompletion(w, req, reply)
		return
	}
	s.streamCompletion(w, r, req, reply)
}

// replyFor picks the streamed text: the configured reply, or an echo of the
// last user message.
func (s *Server) replyFor(req openai.ChatCompletionRequest) string {
	if s.cfg.Reply != "" {
		return s.cfg.Reply
	}
	message := req.Messages[len(req.Messages)-1]
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if strings.EqualFold(req.Messages[i].Role, "user") {
			message = req.Messages[i]
			break
		}
	}
	return "[mock] " + strings.TrimSpace(message.Content)
}

func (s *Server) streamCompletion(w http.ResponseWriter, r *http.Request, req openai.ChatCompletionRequest, reply string) {
	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, _ := w.(http.Flusher)

	id := "chatcmpl-" + uuid.NewString()
	created := time.Now().Unix()
	enc := json.NewEncoder(w)

	emit := func(chunk openai.ChatCompletionChunk) bool {
		_, _ = io.WriteString(w, "data: ")
		if err := enc.Encode(chunk); err != nil {
			return false
		}
		_, _ = io.WriteString(w, "\n")
		if flusher != nil {
			flusher.Flush()
		}
		if s.cfg.Interval > 0 {
			select {
			case <-time.After(s.cfg.Interval):
			case <-r.Context().Done():
				return false
			}
		}
		return true
	}
	newChunk := func(delta openai.ChatMessageDelta, finish *string) openai.ChatCompletionChunk {
		return openai.ChatCompletionChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   req.Model,
			Choices: []openai.ChatCompletionChunkChoice{{Index: 0, Delta: delta, FinishReason: finish}},
		}
	}

	if !emit(newChunk(openai.ChatMessageDelta{Role: "assistant"}, nil)) {
		return
	}
	for _, fragment := range splitFragments(reply, s.cfg.ChunkSize) {
		if !emit(newChunk(openai.ChatMessageDelta{Content: fragment}, nil)) {
			return
		}
	}
	stop := "stop"
	if !emit(newChunk(openai.ChatMessageDelta{}, &stop)) {
		return
	}

	_, _ = io.WriteString(w, "data: [DONE]\n\n")
	if flusher != nil {
		flusher.Flush()
	}
}

func (s *Server) respondCompletion(w http.ResponseWriter, req openai.ChatCompletionRequest, reply string) {
	usage := openai.UsageBreakdown{
		PromptTokens:     len(req.Messages) * 10,
		CompletionTokens: len(reply) / 4,
		TotalTokens:      len(req.Messages)*10 + len(reply)/4,
	}
	resp := openai.NewCompletionResponse(
		"chatcmpl-"+uuid.NewString(),
		req.Model,
		openai.ChatMessage{Role: "assistant", Content: reply},
		usage,
	)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.logf("request rejected status=%d: %s", status, message)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error": {"message": %q, "type": "invalid_request_error"}}`+"\n", message)
}

// splitFragments cuts s into rune groups of at most size characters.
func splitFragments(s string, size int) []string {
	runes := []rune(s)
	var out []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
