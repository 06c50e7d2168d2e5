package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/brokerdesk/api/internal/database"
	"github.com/stwalsh4118/brokerdesk/api/internal/database/dbtest"
)

func TestNewPostgresPool_InvalidHost(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	cfg := dbtest.Config()
	cfg.Host = "invalid-host-that-does-not-exist"

	_, err := database.NewPostgresPool(ctx, cfg)
	if err == nil {
		t.Error("Expected error when connecting to invalid host")
	}
}

func TestPing_Success(t *testing.T) {
	db := dbtest.Open(t)

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestStats(t *testing.T) {
	db := dbtest.Open(t)

	stats := db.Stats()
	if stats == nil {
		t.Fatal("Expected stats to be available")
	}
	if stats.MaxConns() != int32(dbtest.Config().PoolMax) {
		t.Errorf("Expected MaxConns %d, got %d", dbtest.Config().PoolMax, stats.MaxConns())
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := dbtest.Open(t)

	// Open already migrated once
	if err := db.Migrate(context.Background()); err != nil {
		t.Errorf("Second migration failed: %v", err)
	}
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	agent := uuid.New()
	errBoom := errors.New("boom")

	err := db.WithinTx(ctx, func(ctx context.Context) error {
		_, err := db.Querier(ctx).Exec(ctx,
			`INSERT INTO insurers (agent_id, name) VALUES ($1, 'Rollback Co')`, agent)
		if err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("Expected errBoom, got %v", err)
	}

	var count int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM insurers WHERE agent_id = $1`, agent).Scan(&count); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected rollback to leave no rows, got %d", count)
	}
}

func TestWithinTx_CommitsAndNests(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	agent := uuid.New()
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM insurers WHERE agent_id = $1`, agent)
	})

	err := db.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := db.Querier(ctx).Exec(ctx,
			`INSERT INTO insurers (agent_id, name) VALUES ($1, 'Outer Co')`, agent); err != nil {
			return err
		}
		return db.WithinTx(ctx, func(ctx context.Context) error {
			_, err := db.Querier(ctx).Exec(ctx,
				`INSERT INTO insurers (agent_id, name) VALUES ($1, 'Inner Co')`, agent)
			return err
		})
	})
	if err != nil {
		t.Fatalf("WithinTx failed: %v", err)
	}

	var count int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM insurers WHERE agent_id = $1`, agent).Scan(&count); err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 committed rows, got %d", count)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.NewPostgresPool(context.Background(), dbtest.Config())
	if err != nil {
		t.Skipf("Skipping integration test, database unavailable: %v", err)
	}

	// Close multiple times should not panic
	db.Close()
	db.Close()
}
