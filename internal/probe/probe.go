// Package probe issues a single streaming chat-completions request and reports
// everything the wire sends back. It is a diagnostic tool: it shows the bytes,
// it does not retry, queue, or recover.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/proxycast/streamprobe/internal/openai"
)

// HTTPClient abstracts the Do method for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const defaultPreviewWidth = 150

// Options describes the single request the probe performs. Constructed once,
// immutable after New.
type Options struct {
	Host     string
	Port     int
	Path     string
	APIKey   string
	Model    string
	Messages []openai.ChatMessage

	// ReadTimeout bounds the whole run including the read loop. Zero keeps the
	// original behavior: a silent server blocks the probe indefinitely.
	ReadTimeout time.Duration

	// PreviewWidth is the number of characters shown per received line.
	// Zero means the default of 150.
	PreviewWidth int
}

// Probe performs exactly one request/response cycle against a chat-completions
// endpoint and narrates what it sees.
type Probe struct {
	opts       Options
	httpClient HTTPClient
	logger     *log.Logger
}

// Result summarizes one probe run.
type Result struct {
	// Status is the HTTP status code of the response.
	Status int
	// Lines counts every line read from the body, blanks included.
	Lines int
	// Content is the in-order concatenation of every delta content fragment.
	Content string
	// Done reports whether the stream ended with the [DONE] sentinel rather
	// than a plain end of stream.
	Done bool
}

// New validates the options and constructs a Probe. A nil httpClient falls
// back to a plain http.Client with no timeout.
func New(opts Options, httpClient HTTPClient) (*Probe, error) {
	if opts.Host == "" {
		return nil, errors.New("probe: host required")
	}
	if opts.Port <= 0 || opts.Port > 65535 {
		return nil, fmt.Errorf("probe: invalid port %d", opts.Port)
	}
	if opts.Path == "" {
		return nil, errors.New("probe: path required")
	}
	if opts.Model == "" {
		return nil, errors.New("probe: model required")
	}
	if len(opts.Messages) == 0 {
		return nil, errors.New("probe: no messages provided")
	}
	if opts.PreviewWidth <= 0 {
		opts.PreviewWidth = defaultPreviewWidth
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Probe{
		opts:       opts,
		httpClient: httpClient,
		logger:     log.New(log.Writer(), "", log.LstdFlags),
	}, nil
}

// SetLogger installs the logger used for all console output.
func (p *Probe) SetLogger(logger *log.Logger) {
	if logger != nil {
		p.logger = logger
	}
}

func (p *Probe) logf(format string, args ...any) {
	p.logger.Printf(format, args...)
}

// URL returns the endpoint the probe targets.
func (p *Probe) URL() string {
	return "http://" + net.JoinHostPort(p.opts.Host, strconv.Itoa(p.opts.Port)) + p.opts.Path
}

// Run sends the request and drains the streaming response. All recoverable
// trouble (a malformed event payload) is logged and skipped; anything else is
// returned to the caller, which is expected to exit non-zero.
func (p *Probe) Run(ctx context.Context) (Result, error) {
	req := openai.ChatCompletionRequest{
		Model:    p.opts.Model,
		Messages: p.opts.Messages,
		Stream:   true,
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("probe: marshal request: %w", err)
	}

	p.logf("sending streaming request to %s", p.URL())
	p.logf("request body: %s", payload)

	if p.opts.ReadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.ReadTimeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL(), bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("probe: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.opts.APIKey)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("probe: send request: %w", err)
	}
	defer resp.Body.Close()

	p.logf("HTTP status: %d", resp.StatusCode)
	p.logf("response headers: %v", flattenHeaders(resp.Header))

	res, err := p.readStream(resp.Body)
	res.Status = resp.StatusCode
	if err != nil {
		return res, err
	}

	p.logf("received %d lines total", res.Lines)
	p.logf("accumulated content: %s", res.Content)
	return res, nil
}

// flattenHeaders collapses response headers to a key->value map. Duplicate
// names keep the last value, matching what the diagnostic printed originally.
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if len(values) > 0 {
			out[name] = values[len(values)-1]
		}
	}
	return out
}
