package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/debt-ledger/internal/storage"
	"github.com/hongminglow/debt-ledger/internal/storage/storagetest"
)

// TestStoreIntegration runs the shared store checks against a live database.
// The tables are truncated before each check.
func TestStoreIntegration(t *testing.T) {
	if os.Getenv("RUN_LEDGER_INTEGRATION") != "true" {
		t.Skip("set RUN_LEDGER_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	store, err := NewStore(ctx, dbURL)
	require.NoError(t, err)
	defer store.Close()

	storagetest.Run(t, func(t *testing.T) storage.Store {
		_, err := store.pool.Exec(ctx, `TRUNCATE debts, users`)
		require.NoError(t, err)
		return store
	})
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
