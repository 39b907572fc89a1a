// Package app builds the service graph from configuration. The HTTP server
// and the admin CLI share it.
package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"generator_ledger/internal/clock"
	"generator_ledger/internal/config"
	"generator_ledger/internal/ledger"
	"generator_ledger/internal/logger"
	"generator_ledger/internal/notify"
	"generator_ledger/internal/repository"
	"generator_ledger/internal/repository/db"
	"generator_ledger/internal/service"
)

var errNoSpreadsheet = errors.New("spreadsheet id not configured")

// App owns the resources behind Services.
type App struct {
	Services *service.Service
	Config   *config.Config

	conn     *sql.DB
	notifier notify.Notifier
	log      *logger.Logger
}

// Options tweak Open for callers that are not the long-running server.
type Options struct {
	// Sheet replaces the configured ledger backend.
	Sheet ledger.Sheet
	// NoNotify disables MQTT even when a broker is configured.
	NoNotify bool
}

// Open connects the database, the ledger and the notifier described by cfg.
// A ledger that cannot be reached is not an error: the app runs offline.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger, opts Options) (*App, error) {
	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DB.Path, err)
	}

	if cfg.Auth.SigningKey == "" {
		cfg.Auth.SigningKey = randomKey()
		log.Warnw("auth.signing_key not set; tokens will not survive a restart")
	}

	sheet := opts.Sheet
	if sheet == nil {
		sheet = newSheet(ctx, cfg.Ledger, log)
	}
	var notifier notify.Notifier = notify.Nop{}
	if !opts.NoNotify {
		notifier = newNotifier(cfg.MQTT, log)
	}

	services := service.NewService(service.Deps{
		Store: repository.NewStore(conn, cfg.Location()),
		Ledger: ledger.NewClient(sheet, ledger.Options{
			MonthTab: cfg.Ledger.MonthTab,
			LogsTab:  cfg.Ledger.LogsTab,
			Log:      log,
		}),
		Clock:    clock.Real(cfg.Location()),
		Notifier: notifier,
		Log:      log,
		Config:   cfg,
	})

	return &App{
		Services: services,
		Config:   cfg,
		conn:     conn,
		notifier: notifier,
		log:      log,
	}, nil
}

// Close releases the notifier and the database.
func (a *App) Close() {
	a.notifier.Close()
	if err := a.conn.Close(); err != nil {
		a.log.Errorw("failed to close sqlite", "err", err)
	}
}

func newSheet(ctx context.Context, cfg config.LedgerConfig, log *logger.Logger) ledger.Sheet {
	if cfg.Driver == "memory" {
		log.Warnw("ledger driver is memory; nothing is written to a real spreadsheet")
		return ledger.NewMemorySheet()
	}
	if cfg.SpreadsheetID == "" {
		log.Errorw("ledger.spreadsheet_id not set; running offline")
		return ledger.Unavailable{Err: errNoSpreadsheet}
	}
	sheet, err := ledger.NewGoogleSheet(ctx, cfg.SpreadsheetID, cfg.CredentialsFile)
	if err != nil {
		log.Errorw("google sheets unavailable; running offline", "err", err)
		return ledger.Unavailable{Err: err}
	}
	return sheet
}

func newNotifier(cfg config.MQTTConfig, log *logger.Logger) notify.Notifier {
	if cfg.Broker == "" {
		return notify.Nop{}
	}
	n, err := notify.NewMQTT(notify.MQTTConfig{
		Broker:      cfg.Broker,
		ClientID:    cfg.ClientID,
		Username:    cfg.Username,
		Password:    cfg.Password,
		TopicPrefix: cfg.TopicPrefix,
	}, log)
	if err != nil {
		log.Errorw("mqtt disabled", "err", err, "broker", cfg.Broker)
		return notify.Nop{}
	}
	return n
}

func randomKey() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
