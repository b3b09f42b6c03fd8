package main

import (
	"context"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/proxycast/streamprobe/internal/config"
	"github.com/proxycast/streamprobe/internal/logging"
	"github.com/proxycast/streamprobe/internal/openai"
	"github.com/proxycast/streamprobe/internal/probe"
	"github.com/proxycast/streamprobe/internal/version"
)

func main() {
	cfg, err := config.Load(strings.TrimSpace(os.Getenv("STREAMPROBE_CONFIG")))
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	runID := uuid.NewString()[:8]

	logOutput := io.Writer(os.Stdout)
	transcript, transcriptPath, err := logging.NewTranscript(cfg.LogDir, runID)
	if err != nil {
		log.Fatalf("init transcript: %v", err)
	}
	defer transcript.Close()
	if transcriptPath != "" {
		logOutput = io.MultiWriter(os.Stdout, transcript)
	}

	rootLogger := log.New(logOutput, "[probe/main] ", log.LstdFlags|log.Lmicroseconds)
	rootLogger.Printf("streamprobe %s run=%s target=http://%s:%d%s model=%s", version.Info(), runID, cfg.Host, cfg.Port, cfg.Path, cfg.Model)
	if transcriptPath != "" {
		rootLogger.Printf("transcript: %s", transcriptPath)
	}

	readTimeout, err := cfg.ReadTimeoutDuration()
	if err != nil {
		rootLogger.Fatalf("invalid config: %v", err)
	}

	p, err := probe.New(probe.Options{
		Host:        cfg.Host,
		Port:        cfg.Port,
		Path:        cfg.Path,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Messages:    []openai.ChatMessage{{Role: "user", Content: cfg.Prompt}},
		ReadTimeout: readTimeout,
	}, nil)
	if err != nil {
		rootLogger.Fatalf("invalid probe options: %v", err)
	}
	p.SetLogger(log.New(logOutput, "[probe/stream] ", log.LstdFlags|log.Lmicroseconds))

	res, err := p.Run(context.Background())
	if err != nil {
		rootLogger.Fatalf("probe failed: %v", err)
	}
	rootLogger.Printf("probe finished status=%d lines=%d content_bytes=%d sentinel_seen=%v", res.Status, res.Lines, len(res.Content), res.Done)
}
