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

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Kush2408/dredger-swiper-v4/gateway/internal/api"
	"github.com/Kush2408/dredger-swiper-v4/gateway/internal/cache"
	"github.com/Kush2408/dredger-swiper-v4/gateway/internal/config"
	"github.com/Kush2408/dredger-swiper-v4/gateway/internal/feed"
	"github.com/Kush2408/dredger-swiper-v4/gateway/internal/hub"
	"github.com/Kush2408/dredger-swiper-v4/gateway/internal/metrics"
	"github.com/Kush2408/dredger-swiper-v4/pkg/feedkey"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	uiDir := flag.String("ui-dir", "", "serve the dashboard UI static files from this directory (e.g. ui/dist); leave empty to disable")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("dredger-gateway starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"http_port", cfg.Gateway.HTTPPort,
		"feeds", len(cfg.Gateway.Feeds),
		"stale_after", cfg.Gateway.Cache.StaleAfter,
		"expire_after", cfg.Gateway.Cache.ExpireAfter,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// One snapshot cache per process, passed by reference to every
	// coordinator. Expiry is lazy — no background eviction.
	snapshots := cache.New(cfg.Gateway.Cache.StaleAfter, cfg.Gateway.Cache.ExpireAfter)
	metrics.RegisterCacheSize(func() int { return snapshots.Stats().Size })

	mgr := feed.NewManager(snapshots)
	for _, f := range cfg.Gateway.Feeds {
		key, err := feedkey.Parse(f.Key)
		if err != nil {
			// validate() already rejected unknown keys; this is belt and braces.
			slog.Error("skipping feed", "key", f.Key, "err", err)
			continue
		}
		if _, err := mgr.Register(key, f.URL, feed.Options{}); err != nil {
			slog.Error("skipping feed", "key", f.Key, "err", err)
		}
	}
	defer mgr.Close()

	// Watch the config file for hot-reload. Feed topology changes require
	// a restart; reloads are logged so operators can tell the file landed.
	go func() {
		if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
			slog.Info("config hot-reloaded — feed changes apply on restart",
				"feeds", len(updated.Gateway.Feeds))
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	// WebSocket hub — pushes merged feed views to dashboard clients.
	feedHub := hub.New(mgr, cfg.Gateway.BroadcastInterval)
	go feedHub.Run(ctx)

	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", api.New(mgr))
	httpMux.Handle("/ws/stream", feedHub)
	httpMux.Handle("/metrics", promhttp.Handler())

	// Optional: serve the pre-built dashboard UI from a local directory.
	// The "/" catch-all serves index.html for any unknown path (SPA routing).
	if *uiDir != "" {
		fs := http.FileServer(http.Dir(*uiDir))
		httpMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			// SPA fallback: if the requested file doesn't exist, serve index.html.
			path := *uiDir + r.URL.Path
			if _, err := os.Stat(path); os.IsNotExist(err) {
				http.ServeFile(w, r, *uiDir+"/index.html")
				return
			}
			fs.ServeHTTP(w, r)
		})
		slog.Info("serving UI static files", "dir", *uiDir)
	}

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Gateway.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Gateway.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("dredger-gateway shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
