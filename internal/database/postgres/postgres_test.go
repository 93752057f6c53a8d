//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kozaktomas/facegate/internal/audit"
	"github.com/kozaktomas/facegate/internal/config"
)

func setupTestContainer(t *testing.T) (*Pool, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		URL:          fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	pool, err := Open(ctx, cfg)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to open pool: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup
}

func TestMigrate(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()

	// Second run must find nothing pending.
	if err := pool.Migrate(ctx); err != nil {
		t.Fatalf("Second migrate failed: %v", err)
	}

	applied, err := pool.MigrationsApplied(ctx)
	if err != nil {
		t.Fatalf("Failed to list migrations: %v", err)
	}
	if len(applied) != 1 || applied[0] != "001_access_events.sql" {
		t.Errorf("Expected [001_access_events.sql], got %v", applied)
	}
}

func TestEventRepository(t *testing.T) {
	pool, cleanup := setupTestContainer(t)
	if pool == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	repo := NewEventRepository(pool)
	t0 := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	granted := audit.Granted("alice", 0.62, t0)
	events := []audit.Event{
		granted,
		audit.ActuatorUnreachable("alice", errors.New("write timed out"), t0),
		audit.Suppressed("alice", 0.9, 5*time.Second, t0.Add(5*time.Second)),
		audit.Relocked(t0.Add(10 * time.Second)),
		audit.Denied(0.12, t0.Add(12*time.Second)),
	}
	for _, e := range events {
		if err := repo.Emit(ctx, e); err != nil {
			t.Fatalf("Failed to emit %s: %v", e.Type, err)
		}
	}

	t.Run("EmitIsIdempotent", func(t *testing.T) {
		if err := repo.Emit(ctx, granted); err != nil {
			t.Fatalf("Re-emit failed: %v", err)
		}
		counts, err := repo.CountByType(ctx)
		if err != nil {
			t.Fatalf("CountByType failed: %v", err)
		}
		if counts[audit.TypeGranted] != 1 {
			t.Errorf("Expected 1 granted event, got %d", counts[audit.TypeGranted])
		}
	})

	t.Run("RecentNewestFirst", func(t *testing.T) {
		got, err := repo.Recent(ctx, 3)
		if err != nil {
			t.Fatalf("Recent failed: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("Expected 3 events, got %d", len(got))
		}
		if got[0].Type != audit.TypeDenied || got[1].Type != audit.TypeRelocked || got[2].Type != audit.TypeSuppressed {
			t.Errorf("Unexpected order: %s, %s, %s", got[0].Type, got[1].Type, got[2].Type)
		}
	})

	t.Run("RecentFilteredByType", func(t *testing.T) {
		got, err := repo.Recent(ctx, 10, audit.TypeGranted, audit.TypeActuatorUnreachable)
		if err != nil {
			t.Fatalf("Recent failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("Expected 2 events, got %d", len(got))
		}
		for _, e := range got {
			if e.Label != "alice" {
				t.Errorf("Expected label alice, got %q", e.Label)
			}
		}
	})

	t.Run("RoundTripFields", func(t *testing.T) {
		got, err := repo.Recent(ctx, 1, audit.TypeGranted)
		if err != nil {
			t.Fatalf("Recent failed: %v", err)
		}
		e := got[0]
		if e.ID != granted.ID {
			t.Errorf("Expected ID %s, got %s", granted.ID, e.ID)
		}
		if e.Severity != audit.SeverityInfo || e.Score != 0.62 || !e.Timestamp.Equal(t0) {
			t.Errorf("Unexpected event %+v", e)
		}
	})
}
