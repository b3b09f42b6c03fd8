package probe

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/proxycast/streamprobe/internal/openai"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// readStream drains the response body one line at a time until end of stream
// or the [DONE] sentinel. Every line read increments the counter, blanks
// included. Only `data: ` lines carry events; anything else is previewed and
// dropped.
func (p *Probe) readStream(r io.Reader) (Result, error) {
	reader := bufio.NewReader(r)
	var res Result
	var content strings.Builder

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			res.Lines++
			if done := p.handleLine(res.Lines, line, &content); done {
				res.Done = true
				break
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			res.Content = content.String()
			return res, fmt.Errorf("probe: read stream: %w", err)
		}
	}

	res.Content = content.String()
	return res, nil
}

// handleLine processes one raw line and reports whether the sentinel ended the
// stream. Fragments are appended to content in arrival order.
func (p *Probe) handleLine(n int, line string, content *strings.Builder) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}

	p.logf("chunk %d: %s", n, preview(trimmed, p.opts.PreviewWidth))

	if !strings.HasPrefix(trimmed, dataPrefix) {
		return false
	}
	payload := trimmed[len(dataPrefix):]

	// The sentinel check comes before any parse attempt.
	if payload == doneSentinel {
		p.logf("  -> stream finished")
		return true
	}

	var chunk openai.ChatCompletionChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		p.logf("  x event decode failed: %v", err)
		return false
	}
	if delta := chunk.GetDelta(); delta.Content != "" {
		content.WriteString(delta.Content)
		p.logf("  + content: %s", delta.Content)
	}
	return false
}

// preview truncates s to width characters and appends an ellipsis marker.
func preview(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		runes = runes[:width]
	}
	return string(runes) + "..."
}
