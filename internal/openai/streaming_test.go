package openai

import (
	"encoding/json"
	"testing"
)

func TestGetDelta_EmptyChoices(t *testing.T) {
	chunk := &ChatCompletionChunk{}
	if got := chunk.GetDelta(); got.Content != "" || got.Role != "" {
		t.Errorf("GetDelta() on empty choices = %+v, want zero delta", got)
	}
	if chunk.GetFinishReason() != nil {
		t.Errorf("GetFinishReason() on empty choices = %v, want nil", chunk.GetFinishReason())
	}
}

func TestChunkDecode_WireFormat(t *testing.T) {
	payload := `{"id":"chatcmpl-abc","object":"chat.completion.chunk","created":1234567890,"model":"claude-opus-4-5-20251101","choices":[{"index":0,"delta":{"content":"Hel"},"finish_reason":null}]}`

	var chunk ChatCompletionChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		t.Fatalf("unmarshal chunk: %v", err)
	}
	if chunk.GetDelta().Content != "Hel" {
		t.Errorf("delta content = %q, want %q", chunk.GetDelta().Content, "Hel")
	}
	if chunk.GetFinishReason() != nil {
		t.Errorf("finish reason = %v, want nil", chunk.GetFinishReason())
	}
}
