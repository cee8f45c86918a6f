package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kush2408/dredger-swiper-v4/feedd/internal/config"
	"github.com/Kush2408/dredger-swiper-v4/feedd/internal/publish"
	"github.com/Kush2408/dredger-swiper-v4/feedd/internal/sampler"
	"github.com/Kush2408/dredger-swiper-v4/pkg/feedkey"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("dredger-feedd starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"http_port", cfg.Feedd.HTTPPort,
		"feeds", len(cfg.Feedd.Feeds),
		"publish_interval", cfg.Feedd.PublishInterval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pub := publish.New()

	// Build one sampler per configured feed from the initial config.
	type pipeline struct {
		key feedkey.Key
		s   sampler.Sampler
	}
	var pipelines []pipeline
	for _, f := range cfg.Feedd.Feeds {
		s, err := sampler.New(f)
		if err != nil {
			slog.Error("skipping feed — could not build sampler", "key", f.Key, "err", err)
			continue
		}
		key, _ := feedkey.Parse(f.Key) // validated by config.Load
		pub.Register(key)
		pipelines = append(pipelines, pipeline{key: key, s: s})
		slog.Info("registered feed", "key", f.Key, "sampler", f.Sampler, "endpoint", f.Endpoint)
	}

	if len(pipelines) == 0 {
		slog.Warn("no feeds configured — feedd will idle")
	}

	// Publish loop: sample every feed each tick and push to subscribers.
	go func() {
		ticker := time.NewTicker(cfg.Feedd.PublishInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, p := range pipelines {
					payload, err := p.s.Sample(ctx)
					if err != nil {
						slog.Warn("sample error", "feed", p.key, "err", err)
						continue
					}
					pub.Publish(p.key, payload)
				}
			}
		}
	}()

	httpMux := http.NewServeMux()
	httpMux.Handle("/ws/feeds/", pub)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Feedd.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Feedd.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("dredger-feedd shutting down")
	pub.Close()
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
