package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/pdiddy/grobid-jats/internal/config"
	"github.com/pdiddy/grobid-jats/internal/convert"
	"github.com/pdiddy/grobid-jats/internal/grobid"
	"github.com/pdiddy/grobid-jats/internal/ingest"
	"github.com/pdiddy/grobid-jats/internal/notify"
	"github.com/pdiddy/grobid-jats/internal/secrets"
	"github.com/pdiddy/grobid-jats/internal/settings"
	"github.com/pdiddy/grobid-jats/internal/store"
	"github.com/pdiddy/grobid-jats/pkg/types"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg       types.Config
	logger    *slog.Logger
	store     *store.Store
	settings  *settings.Settings
	processor *convert.Processor
}

// newApp loads configuration and wires the store, Grobid client, ingester
// and processor. The caller must Close the result.
func newApp() (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	logger := config.SetupLogger(cfg.Log, os.Stderr)

	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	hosts := settings.New(st)

	var opts []grobid.Option
	if token, ok := secrets.Lookup(loadedSecrets, secrets.GrobidAPIToken); ok {
		opts = append(opts, grobid.WithToken(token))
	}
	client := grobid.New(cfg.Grobid, hosts, st, logger, opts...)
	ingester := ingest.New(cfg.Ingest, cfg.Grobid.Doctypes, st, logger)
	notifier := notify.New(st, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		settings:  hosts,
		processor: convert.NewProcessor(st, client, ingester, notifier, hosts, logger),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// parseFileRef parses "<fileID>" or "<fileID>-<revision>".
func parseFileRef(s string) (types.FileRef, error) {
	idPart, revPart, hasRev := strings.Cut(s, "-")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return types.FileRef{}, fmt.Errorf("invalid file id %q", s)
	}
	ref := types.FileRef{FileID: id}
	if hasRev {
		rev, err := strconv.ParseInt(revPart, 10, 64)
		if err != nil || rev <= 0 {
			return types.FileRef{}, fmt.Errorf("invalid revision in %q", s)
		}
		ref.Revision = rev
	}
	return ref, nil
}
