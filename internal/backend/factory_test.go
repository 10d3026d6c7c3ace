package backend

import (
	"context"
	"path/filepath"
	"testing"

	"obras/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "./data/obras.db"})
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "./data/obras.db" {
		t.Errorf("FromAppConfig = %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Error("expected invalid backend type to be rejected")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected nil config to be rejected")
	}
}

func TestCreateMemoryStore(t *testing.T) {
	result, err := NewFactory(nil).CreateStore(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	if result.Store == nil {
		t.Fatal("CreateStore returned nil store")
	}
	if result.Cleanup != nil {
		if err := result.Cleanup(); err != nil {
			t.Errorf("Cleanup: %v", err)
		}
	}
}

func TestCreateSQLiteStore(t *testing.T) {
	result, err := NewFactory(nil).CreateStore(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "obras.db"),
	})
	if err != nil {
		t.Fatalf("CreateStore: %v", err)
	}
	defer result.Cleanup()

	if _, err := result.Store.Clients(context.Background()); err != nil {
		t.Errorf("fresh sqlite store unreadable: %v", err)
	}
}

func TestCreateStoreRejectsMissingDBPath(t *testing.T) {
	if _, err := NewFactory(nil).CreateStore(context.Background(), Config{Type: SQLiteBackend}); err == nil {
		t.Error("expected missing db path to be rejected")
	}
}
