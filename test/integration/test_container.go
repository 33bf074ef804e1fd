package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/seeraph/oauth2-storage/internal/infrastructure/config"
	"github.com/seeraph/oauth2-storage/internal/infrastructure/database"
)

// setupTestDB starts a PostgreSQL container, connects and builds the OAuth
// schema. The returned cleanup terminates the container.
func setupTestDB(t *testing.T) (*database.Postgres, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections"),
			wait.ForListeningPort("5432/tcp"),
		),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := &config.Config{
		DBHost:     host,
		DBPort:     port.Int(),
		DBUser:     "test",
		DBPassword: "test",
		DBName:     "test",
	}

	var db *database.Postgres
	for i := 0; i < 10; i++ {
		db, err = database.NewPostgres(ctx, cfg, zap.NewNop())
		if err == nil {
			break
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err)

	builder := database.NewSchemaBuilder(db, database.DefaultTables(), zap.NewNop())
	require.NoError(t, builder.Up(ctx, database.NopProgress{}))

	cleanup := func() {
		db.Close()
		container.Terminate(ctx)
	}

	return db, cleanup
}
