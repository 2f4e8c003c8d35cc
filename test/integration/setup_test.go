package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/domain/patient"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/migrations"
	"github.com/hms/hms/pkg/civil"
)

// databaseURLEnv names the Postgres the suite runs against. Without it every
// test in the package is skipped.
const databaseURLEnv = "HMS_TEST_DATABASE_URL"

// testDB holds the shared database infrastructure for integration tests.
type testDB struct {
	Pool   *pgxpool.Pool
	Schema string
}

// globalDB is initialized once in TestMain and stays nil when no database is
// configured or reachable.
var (
	globalDB   *testDB
	skipReason string
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	tdb, cleanup, err := setupDatabase(ctx, os.Getenv(databaseURLEnv))
	if err != nil {
		skipReason = err.Error()
	} else {
		globalDB = tdb
	}

	code := m.Run()
	if cleanup != nil {
		cleanup()
	}
	os.Exit(code)
}

// setupDatabase creates a throwaway schema, points a pool at it through
// search_path and applies the embedded migrations there.
func setupDatabase(ctx context.Context, databaseURL string) (*testDB, func(), error) {
	if databaseURL == "" {
		return nil, nil, fmt.Errorf("%s is not set", databaseURLEnv)
	}

	admin, err := db.NewPool(ctx, databaseURL, 2, 0)
	if err != nil {
		return nil, nil, err
	}

	schema := "hms_it_" + uuid.NewString()[:8]
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+schema); err != nil {
		admin.Close()
		return nil, nil, fmt.Errorf("create schema: %w", err)
	}
	dropSchema := func() {
		dropCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := admin.Exec(dropCtx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to drop schema %s: %v\n", schema, err)
		}
		admin.Close()
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		dropSchema()
		return nil, nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 8
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		dropSchema()
		return nil, nil, fmt.Errorf("create pool: %w", err)
	}

	if _, err := db.NewMigrator(pool, migrations.FS).Up(ctx); err != nil {
		pool.Close()
		dropSchema()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	return &testDB{Pool: pool, Schema: schema}, func() {
		pool.Close()
		dropSchema()
	}, nil
}

// requireDB returns the shared pool or skips the test.
func requireDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if globalDB == nil {
		t.Skipf("skipping database test: %s", skipReason)
	}
	return globalDB.Pool
}

// createPatient registers a patient through the service so it gets a real
// hospital number.
func createPatient(t *testing.T, ctx context.Context, pool *pgxpool.Pool) *patient.Patient {
	t.Helper()
	p := &patient.Patient{
		FirstName:   "Integration",
		LastName:    "Patient-" + uuid.NewString()[:8],
		Gender:      "female",
		DateOfBirth: civil.NewDate(time.Date(1988, 6, 15, 0, 0, 0, 0, time.UTC)),
	}
	if err := patient.NewService(patient.NewPatientRepo(pool)).CreatePatient(ctx, p); err != nil {
		t.Fatalf("create patient: %v", err)
	}
	return p
}
