// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads grobid-jats settings from viper and builds the
// process logger.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"

	"github.com/pdiddy/grobid-jats/internal/grobid"
	"github.com/pdiddy/grobid-jats/internal/jats"
	"github.com/pdiddy/grobid-jats/pkg/types"
)

// EnvPrefix is prepended to every environment override,
// e.g. GROBID_JATS_GROBID_TIMEOUT.
const EnvPrefix = "GROBID_JATS"

// ConfigureEnv makes v read GROBID_JATS_* environment variables, mapping
// dotted keys to underscores.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// SetDefaults registers a default for every key so that environment
// overrides are visible to Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("grobid.timeout", 90*time.Second)
	v.SetDefault("grobid.user_agent", grobid.DefaultUserAgent)
	v.SetDefault("grobid.max_redirects", 1)
	v.SetDefault("grobid.api_path", grobid.DefaultAPIPath)
	v.SetDefault("grobid.file_types", grobid.DefaultFileTypes)
	v.SetDefault("grobid.doctypes", jats.DefaultDoctypes)

	v.SetDefault("ingest.scratch_dir", "")

	v.SetDefault("store.data_dir", "data")

	v.SetDefault("server.addr", ":8075")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load applies defaults to v and decodes the result.
func Load(v *viper.Viper) (types.Config, error) {
	SetDefaults(v)

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func validate(cfg *types.Config) error {
	hc := &cfg.Grobid.HTTPConfig
	if err := validation.ValidateStruct(hc,
		validation.Field(&hc.Timeout, validation.Required),
	); err != nil {
		return fmt.Errorf("grobid: %w", err)
	}
	if err := validation.ValidateStruct(&cfg.Grobid,
		validation.Field(&cfg.Grobid.APIPath, validation.Required),
		validation.Field(&cfg.Grobid.FileTypes, validation.Required),
		validation.Field(&cfg.Grobid.Doctypes, validation.Required),
	); err != nil {
		return fmt.Errorf("grobid: %w", err)
	}
	if err := validation.ValidateStruct(&cfg.Store,
		validation.Field(&cfg.Store.DataDir, validation.Required),
	); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := validation.ValidateStruct(&cfg.Server,
		validation.Field(&cfg.Server.Addr, validation.Required),
	); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := validation.ValidateStruct(&cfg.Log,
		validation.Field(&cfg.Log.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&cfg.Log.Format, validation.In("text", "json")),
	); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// SetupLogger builds a text or JSON slog logger writing to w and installs
// it as the default logger.
func SetupLogger(cfg types.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
