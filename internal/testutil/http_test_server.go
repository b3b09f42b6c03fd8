// Package testutil provides loopback HTTP servers for exercising the probe.
// The probe dials a literal host:port, so the servers bind the IPv4 loopback
// interface rather than whatever httptest picks.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"
)

type LoopbackServer struct {
	URL      string
	host     string
	port     int
	listener net.Listener
	server   *http.Server
}

// NewLoopbackServer starts an HTTP server bound to 127.0.0.1 on an ephemeral
// port and registers cleanup with t.
func NewLoopbackServer(t *testing.T, handler http.Handler) *LoopbackServer {
	t.Helper()
	if handler == nil {
		handler = http.NewServeMux()
	}
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test: tcp4 loopback unavailable (%v)", err)
	}
	host, portStr, err := net.SplitHostPort(l.Addr().String())
	if err != nil {
		t.Fatalf("split listener address: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse listener port: %v", err)
	}
	s := &LoopbackServer{
		URL:      "http://" + l.Addr().String(),
		host:     host,
		port:     port,
		listener: l,
		server:   &http.Server{Handler: handler},
	}
	go func() {
		if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Logf("LoopbackServer serve error: %v", err)
		}
	}()
	t.Cleanup(s.Close)
	return s
}

// Host returns the loopback address the server listens on.
func (s *LoopbackServer) Host() string { return s.host }

// Port returns the ephemeral port the server listens on.
func (s *LoopbackServer) Port() int { return s.port }

// Close shuts down the underlying server and frees resources.
func (s *LoopbackServer) Close() {
	_ = s.server.Shutdown(context.Background())
}

// SSEScript returns a handler that replies to any request with the given raw
// lines, flushed one at a time. An empty string produces a blank line, so a
// script can reproduce real event spacing exactly.
func SSEScript(lines ...string) http.Handler {
	return SSEScriptWithDelay(0, lines...)
}

// SSEScriptWithDelay is SSEScript with a pause between lines, for tests that
// need the body to arrive in distinct reads.
func SSEScriptWithDelay(delay time.Duration, lines ...string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		flusher, _ := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n", line)
			if flusher != nil {
				flusher.Flush()
			}
			if delay > 0 {
				time.Sleep(delay)
			}
		}
	})
}
