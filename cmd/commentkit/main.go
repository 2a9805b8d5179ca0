// Command commentkit runs the demo server hosting the embeddable comment
// widget.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/gabrielmiguelok/commentkit/internal/demosrv"
	"github.com/gabrielmiguelok/commentkit/pkg/logging"
)

var version = "0.1.0"

// duration lets TOML carry values like "10m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Config is the TOML file layout. Flags override it.
type Config struct {
	Addr       string   `toml:"addr"`
	APIBaseURL string   `toml:"api_base_url"`
	Theme      string   `toml:"theme"`
	SessionTTL duration `toml:"session_ttl"`
	LogLevel   string   `toml:"log_level"`
	LogJSON    bool     `toml:"log_json"`
}

func defaultConfig() Config {
	return Config{
		Addr:       ":3000",
		Theme:      "default",
		SessionTTL: duration{10 * time.Minute},
		LogLevel:   "info",
	}
}

func main() {
	var (
		configPath = flag.String("config", "", "Path to TOML config file")
		addr       = flag.String("addr", "", "Listen address (overrides config)")
		apiBaseURL = flag.String("api", "", "Comment API base URL (overrides config)")
		themeID    = flag.String("theme", "", "Default theme (overrides config)")
		logLevel   = flag.String("log", "", "Log level: debug, info, warn, error")
		logJSON    = flag.Bool("log-json", false, "Log as JSON lines")
		showVer    = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVer {
		fmt.Printf("commentkit v%s\n", version)
		return
	}

	cfg := defaultConfig()
	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config file %s: %v\n", *configPath, err)
			os.Exit(1)
		}
	}

	// Flags win over the config file.
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *apiBaseURL != "" {
		cfg.APIBaseURL = *apiBaseURL
	}
	if *themeID != "" {
		cfg.Theme = *themeID
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logJSON {
		cfg.LogJSON = true
	}

	logger := buildLogger(cfg)
	logger.Info("starting commentkit",
		logging.String("version", version),
		logging.String("addr", cfg.Addr))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := demosrv.New(&demosrv.Config{
		Addr:       cfg.Addr,
		APIBaseURL: cfg.APIBaseURL,
		Theme:      cfg.Theme,
		SessionTTL: cfg.SessionTTL.Duration,
	}, logger)

	if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", logging.Err(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func buildLogger(cfg Config) logging.Logger {
	opts := []logging.LoggerOption{}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		opts = append(opts, logging.WithLevel(slog.LevelDebug))
	case "warn":
		opts = append(opts, logging.WithLevel(slog.LevelWarn))
	case "error":
		opts = append(opts, logging.WithLevel(slog.LevelError))
	default:
		opts = append(opts, logging.WithLevel(slog.LevelInfo))
	}
	if cfg.LogJSON {
		opts = append(opts, logging.WithJSON())
	}
	return logging.NewSlogLogger(opts...)
}
