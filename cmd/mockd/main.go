package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/proxycast/streamprobe/internal/config"
	"github.com/proxycast/streamprobe/internal/mockserver"
	"github.com/proxycast/streamprobe/internal/version"
)

// mockd serves a local chat-completions endpoint on the probe's configured
// target, so a run without any real backend still has something to talk to.
func main() {
	cfg, err := config.Load(strings.TrimSpace(os.Getenv("STREAMPROBE_CONFIG")))
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	logger := log.New(os.Stdout, "[mockd] ", log.LstdFlags|log.Lmicroseconds)

	srv := mockserver.New(mockserver.Config{
		APIKey:   cfg.APIKey,
		Reply:    strings.TrimSpace(os.Getenv("STREAMPROBE_MOCK_REPLY")),
		Interval: 50 * time.Millisecond,
	})
	srv.SetLogger(logger)

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Printf("mockd %s listening on %s", version.Info(), addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("serve failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown error: %v", err)
	}
}
