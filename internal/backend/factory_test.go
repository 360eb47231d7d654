package backend

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"kantong/internal/config"
	"kantong/internal/log"
	memsheet "kantong/internal/sheets/memory"
	"kantong/internal/storage"
	"kantong/internal/storage/memory"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:            "sqlite",
		SQLiteDBPath:           "/tmp/k.db",
		GoogleSpreadsheetID:    "sheet",
		GoogleSummarySheetName: "Summary",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "/tmp/k.db" || cfg.GoogleSheetName != "Summary" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.Validate() == nil {
		t.Error("a spreadsheet without credentials must not validate")
	}
}

func TestCreateBackend(t *testing.T) {
	f := NewFactory(testLogger())
	ctx := context.Background()

	res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("memory backend: %v", err)
	}
	if _, ok := res.Store.(*memory.Store); !ok {
		t.Errorf("expected memory store, got %T", res.Store)
	}

	res, err = f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "kantong.db")})
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	defer res.Cleanup()
	if _, ok := res.Store.(*storage.SQLiteRepository); !ok {
		t.Errorf("expected sqlite repository, got %T", res.Store)
	}
	if err := res.Store.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}

	if _, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend}); err == nil {
		t.Error("expected error without a database path")
	}
}

func TestCreateExporterFallsBackToMemory(t *testing.T) {
	exp, err := NewFactory(testLogger()).CreateExporter(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := exp.(*memsheet.Exporter); !ok {
		t.Errorf("expected memory exporter, got %T", exp)
	}
}
