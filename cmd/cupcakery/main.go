// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command cupcakery starts the Ellas Cupcakery assistant server.
//
// The server exposes:
//   - A conversational ordering assistant (identity resolution, guarded
//     intent routing, gated tool execution, response synthesis)
//   - The admin dashboard data endpoints (menu, orders, customers, feedback,
//     site settings)
//   - Prometheus metrics on /metrics
//
// Usage:
//
//	go run ./cmd/cupcakery
//	go run ./cmd/cupcakery -port 9090 -debug
//
// With LLM providers (any subset; tried in priority order starting at Groq):
//
//	GROQ_API_KEY=... MISTRAL_API_KEY=... go run ./cmd/cupcakery
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/api/health
//
//	# Chat
//	curl -X POST http://localhost:8080/api/chat \
//	  -H "Content-Type: application/json" \
//	  -d '{"user_id": "2348011112222", "message": "I want 2 red velvet cupcakes"}'
//
//	# Menu
//	curl http://localhost:8080/api/data/menu | jq
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AleutianAI/cupcakery-crm/services/crm"
	"github.com/AleutianAI/cupcakery-crm/services/crm/notify"
	"github.com/AleutianAI/cupcakery-crm/services/crm/store"
	"github.com/AleutianAI/cupcakery-crm/services/crm/web"
	"github.com/AleutianAI/cupcakery-crm/services/llm"
)

// serverConfig is the environment-driven server configuration. Flags override
// the resolved values.
type serverConfig struct {
	Port    int    `envconfig:"PORT" default:"8080"`
	Debug   bool   `envconfig:"DEBUG" default:"false"`
	DataDir string `envconfig:"DATA_DIR" default:"data/cupcakery"`
}

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg serverConfig
	if err := envconfig.Process("", &cfg); err != nil {
		slog.Error("Invalid environment configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	port := flag.Int("port", cfg.Port, "Port to listen on")
	debug := flag.Bool("debug", cfg.Debug, "Enable debug mode")
	dataDir := flag.String("data", cfg.DataDir, "BadgerDB data directory")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	logger := slog.Default()

	if *debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// W3C TraceContext propagation so request traces flow through otelgin
	// into the pipeline spans.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	var tracerProvider *sdktrace.TracerProvider
	if *debug {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			logger.Warn("Stdout trace exporter unavailable", slog.String("error", err.Error()))
		} else {
			tracerProvider = sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
			otel.SetTracerProvider(tracerProvider)
		}
	}

	// Open the shop database. Graceful degradation: if BadgerDB is
	// unavailable the server still runs on a seeded in-memory store, losing
	// persistence but not functionality.
	ctx := context.Background()
	var st store.Store
	var badgerStore *store.BadgerStore
	if db, err := store.OpenBadger(ctx, *dataDir, logger); err != nil {
		logger.Warn("BadgerDB unavailable, running on in-memory store",
			slog.String("dir", *dataDir),
			slog.String("error", err.Error()))
		st = store.NewSeededMemoryStore()
	} else {
		badgerStore = db
		st = db
		logger.Info("BadgerDB opened", slog.String("dir", *dataDir))
	}

	providers := llm.DefaultProviders()
	configured := 0
	for _, p := range providers {
		if p.APIKey != "" {
			configured++
		}
	}
	if configured == 0 {
		logger.Warn("No LLM provider API keys configured; only guard-routed queries will be answered")
	} else {
		logger.Info("LLM failover chain configured", slog.Int("providers", configured))
	}
	client := llm.NewFailoverClient(providers, logger)

	notifier := notify.NewEmailNotifier(logger)
	pipeline := crm.NewDefaultPipeline(st, client, notifier, logger)
	handlers := web.NewHandlers(pipeline, st, notifier, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("cupcakery-crm"))
	if *debug {
		router.Use(gin.Logger())
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	web.RegisterRoutes(api, handlers)

	printBanner(*port, configured)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		logger.Info("Shutting down Ellas Cupcakery server")
		if badgerStore != nil {
			if err := badgerStore.Close(); err != nil {
				logger.Warn("Failed to close BadgerDB", slog.String("error", err.Error()))
			}
		}
		if tracerProvider != nil {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Warn("Failed to flush tracer", slog.String("error", err.Error()))
			}
		}
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("Starting Ellas Cupcakery server", slog.String("address", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("Failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func printBanner(port, providers int) {
	llmStatus := "DISABLED (set GROQ_API_KEY / CEREBRAS_API_KEY / ...)"
	if providers > 0 {
		llmStatus = fmt.Sprintf("ENABLED (%d provider(s) in failover chain)", providers)
	}

	banner := `
╔═══════════════════════════════════════════════════════════════════╗
║                   ELLAS CUPCAKERY ASSISTANT                       ║
╠═══════════════════════════════════════════════════════════════════╣
║                                                                   ║
║  Conversational bakery ordering with guarded tool execution.      ║
║  LLM fallback: %-50s ║
║                                                                   ║
║  Quick Start:                                                     ║
║  ┌─────────────────────────────────────────────────────────────┐  ║
║  │ # Health check                                              │  ║
║  │ curl http://localhost:%d/api/health                    │  ║
║  │                                                             │  ║
║  │ # Show the menu                                             │  ║
║  │ curl -X POST http://localhost:%d/api/chat \            │  ║
║  │   -H "Content-Type: application/json" \                     │  ║
║  │   -d '{"user_id": "guest-1", "message": "menu"}'            │  ║
║  └─────────────────────────────────────────────────────────────┘  ║
║                                                                   ║
║  Endpoints:                                                       ║
║  ├── Chat:      POST /api/chat                                    ║
║  ├── Dashboard: /api/data/{menu,orders,customers,feedback}        ║
║  ├── Admin:     POST /api/data/{update,add,delete}                ║
║  ├── Settings:  GET /api/site/settings                            ║
║  └── Metrics:   GET /metrics                                      ║
║                                                                   ║
║  Press Ctrl+C to stop                                             ║
╚═══════════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, llmStatus, port, port)
}
