// Package backend selects the activity log writer the worker feeds.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"financas/internal/config"
	"financas/internal/sheets"
	gsheet "financas/internal/sheets/google"
	"financas/internal/sheets/memory"
)

// BackendType names an activity log implementation.
type BackendType string

const (
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// Config holds what the backends need.
type Config struct {
	Type BackendType

	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	Location *time.Location
}

// FromAppConfig picks the Sheets backend when a spreadsheet is configured
// and the in-memory one otherwise.
func FromAppConfig(cfg *config.Config, loc *time.Location) Config {
	bt := MemoryBackend
	if cfg.GoogleSpreadsheetID != "" {
		bt = SheetsBackend
	}
	return Config{
		Type:                     bt,
		GoogleSpreadsheetID:      cfg.GoogleSpreadsheetID,
		GoogleSheetName:          cfg.GoogleSheetName,
		GoogleServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: cfg.GoogleServiceAccountFile,
		Location:                 loc,
	}
}

// Factory creates activity writers.
type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateWriter builds the writer for cfg.Type.
func (f *Factory) CreateWriter(ctx context.Context, cfg Config) (sheets.ActivityWriter, error) {
	switch cfg.Type {
	case SheetsBackend:
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			Location:        cfg.Location,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		f.logger.Info("Initialized Google Sheets activity log", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		return client, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory activity log")
		return memory.New(cfg.Location), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
}
