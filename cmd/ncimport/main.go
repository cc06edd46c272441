// Command ncimport imports files marked on Wikipedia pages from the NC
// Commons file repository.
//
// Usage:
//
//	ncimport -config config.yaml                 # all languages from the list page
//	ncimport -config config.yaml -lang ar -lang en
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

	"github.com/ncwikibot/ncimport/bot"
	"github.com/ncwikibot/ncimport/store"
)

// langList collects repeated -lang flags.
type langList []string

func (l *langList) String() string { return strings.Join(*l, ",") }

func (l *langList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return fmt.Errorf("empty language code")
	}
	*l = append(*l, v)
	return nil
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	credsPath := flag.String("creds", ".env", "path to the env-style credentials file")
	logLevel := flag.String("log-level", "", "override the configured log level")
	var langs langList
	flag.Var(&langs, "lang", "language code to process (repeatable; default: the configured list page)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := run(ctx, *configPath, *credsPath, *logLevel, langs)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			if logger != nil {
				logger.Warn("interrupted")
			}
			os.Exit(130)
		}
		if logger == nil {
			logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
		}
		logger.Error("ncimport: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, credsPath, logLevel string, langs []string) (*slog.Logger, error) {
	cfg, err := bot.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	logger := bot.NewLogger(cfg.Logging)

	creds, err := bot.LoadCredentials(credsPath)
	if err != nil {
		return logger, err
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return logger, fmt.Errorf("open tracking store: %w", err)
	}
	defer st.Close()

	b, err := bot.New(cfg, creds, st, logger)
	if err != nil {
		return logger, err
	}
	if _, err := b.Run(ctx, langs); err != nil {
		return logger, err
	}
	return logger, nil
}
