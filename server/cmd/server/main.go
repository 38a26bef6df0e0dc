package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/cazuela/gasmonitor/server/internal/alerts"
	"github.com/cazuela/gasmonitor/server/internal/api"
	"github.com/cazuela/gasmonitor/server/internal/auth"
	"github.com/cazuela/gasmonitor/server/internal/config"
	"github.com/cazuela/gasmonitor/server/internal/metrics"
	"github.com/cazuela/gasmonitor/server/internal/receiver"
	"github.com/cazuela/gasmonitor/server/internal/store"
	"github.com/cazuela/gasmonitor/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to config file; built-in defaults when empty")
	envFile := flag.String("env-file", ".env", "dotenv file with secrets such as the API key and webhook URLs")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("gasmonitor-server starting", "config", *configPath)

	if err := godotenv.Load(*envFile); err != nil {
		slog.Info("no env file loaded, using process environment", "path", *envFile)
	}

	cfg := config.Defaults()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
	}
	sc := cfg.Server

	slog.Info("config loaded",
		"http_port", sc.HTTPPort,
		"auth_mode", sc.Auth.Mode,
		"session_ttl", sc.Session.TTL,
		"warning", sc.Thresholds.Warning,
		"critical", sc.Thresholds.Critical,
		"alert", sc.Thresholds.Alert,
		"alert_rules", len(sc.Alerts.Rules),
	)
	if sc.Auth.Mode == "apikey" && sc.Auth.Key() == "" {
		slog.Warn("auth mode is apikey but no key is set; requests are not authenticated",
			"key_env", sc.Auth.KeyEnv)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	thresholds := config.NewLiveThresholds(sc.Thresholds)
	alertEngine := alerts.New(sc.Alerts)

	// Session store with background TTL eviction. Evicted sessions resolve
	// their alerts and drop out of the live stream.
	st := store.New(sc.Session.TTL)

	hub := ws.New(st, sc.Stream.Interval, thresholds.Get)
	st.OnEvict(func(ids []string) {
		for _, id := range ids {
			alertEngine.Forget(id)
		}
		slog.Info("sessions expired", "count", len(ids))
		hub.Broadcast()
	})
	go st.Run(ctx)
	go hub.Run(ctx)

	// Reloaded thresholds apply to new uploads and re-run the alert rules
	// over live sessions.
	rec := receiver.New(st, alertEngine, thresholds.Get)
	if *configPath != "" {
		go func() {
			err := config.Watch(ctx, *configPath, func(c *config.Config) {
				thresholds.Set(c.Server.Thresholds)
				slog.Info("thresholds updated",
					"warning", c.Server.Thresholds.Warning,
					"critical", c.Server.Thresholds.Critical,
					"alert", c.Server.Thresholds.Alert,
				)
				rec.Reevaluate()
				hub.Broadcast()
			})
			if err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	counters := &metrics.Counters{}
	apiHandler := api.New(api.Deps{
		Store:          st,
		Receiver:       rec,
		Alerts:         alertEngine,
		Thresholds:     thresholds.Get,
		Counters:       counters,
		MaxUploadBytes: sc.Session.MaxUploadBytes,
		OnChange:       hub.Broadcast,
	})

	requireKey := auth.APIKeyMiddleware(sc.Auth.Mode, sc.Auth.EffectiveHeader(), sc.Auth.Key())

	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", requireKey(apiHandler))
	httpMux.Handle("/ws/stream", requireKey(hub))
	httpMux.Handle("/metrics", metrics.Handler(st, alertEngine, counters, thresholds.Get))

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", sc.HTTPPort),
		Handler:           httpMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", sc.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("gasmonitor-server shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	alertEngine.Wait()
}
