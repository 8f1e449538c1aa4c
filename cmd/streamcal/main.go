package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/robfig/cron/v3"

	"streamcal/internal/config"
	"streamcal/internal/ics"
	"streamcal/internal/loader"
	"streamcal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
}

func init() {
	if err := godotenv.Load(); err != nil {
		slog.Debug(err.Error())
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC1123Z,
		}),
	))
}

func main() {
	slog.Info("streamcal starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if v := os.Getenv("STREAMCAL_BASE_URL"); v != "" {
		conf.BaseURL = v
	}
	conf.Normalize()

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		slog.Error("invalid timezone, falling back to local", "error", err, "timezone", conf.Timezone)
		loc = time.Local
	}

	slog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"language", conf.Language,
		"base_url", conf.BaseURL,
		"refresh", conf.RefreshCron,
		"once", flags.once,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	fetcher := ics.NewFetcher(conf.CacheDir)
	ld := loader.New(conf.BaseURL, fetcher, loc)

	if err := ld.Load(ctx, loader.DefaultSelection, conf.Language); err != nil {
		// Startup continues with an empty store; the refresh schedule
		// retries until the feeds come back.
		slog.Error("initial calendar load failed", "error", err)
	}

	if flags.once {
		slog.Info("single load complete, exiting", "events", ld.Store().Len())
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(conf.RefreshCron, func() {
		if err := ld.Reload(ctx); err != nil {
			slog.Error("scheduled refresh failed", "error", err)
		}
	}); err != nil {
		slog.Error("invalid refresh schedule", "error", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	// Minute tick: when the local date rolls over, the cached month
	// range is stale ("today" markers, the display horizon end).
	lastDay := time.Now().In(loc).Format("2006-01-02")
	if _, err := c.AddFunc("* * * * *", func() {
		day := time.Now().In(loc).Format("2006-01-02")
		if day != lastDay {
			lastDay = day
			ld.Range().Reset()
			slog.Info("date changed, month range reset", "date", day)
		}
	}); err != nil {
		slog.Error("failed to register date tick", "error", err)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	srv := &http.Server{
		Addr:    conf.Listen,
		Handler: web.NewServer(conf, ld, loc).Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown failed", "error", err)
		}
	}()

	slog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("streamcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Load feeds once, print the event count and exit")

	flag.Parse()

	return cfg
}
