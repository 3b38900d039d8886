//go:build integration
// +build integration

package testutils

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/linskybing/gigdesk/internal/config/db"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupPostgres returns a migrated PostgreSQL database. TEST_DB_DSN points at
// an existing server; otherwise a postgres:15 container is started.
func SetupPostgres(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		ctx := context.Background()
		req := testcontainers.ContainerRequest{
			Image: "postgres:15",
			Env: map[string]string{
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_USER":     "test",
				"POSTGRES_DB":       "gigdesk",
			},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		}
		pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			t.Skipf("postgres container unavailable: %v", err)
		}
		t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

		host, err := pg.Host(ctx)
		if err != nil {
			t.Fatalf("container host: %v", err)
		}
		port, err := pg.MappedPort(ctx, "5432")
		if err != nil {
			t.Fatalf("container port: %v", err)
		}
		dsn = fmt.Sprintf("postgres://test:test@%s:%s/gigdesk?sslmode=disable", host, port.Port())
	}

	var gdb *gorm.DB
	var err error
	for i := 0; i < 10; i++ {
		gdb, err = gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		if err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}
