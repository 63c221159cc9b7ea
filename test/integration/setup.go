//go:build integration
// +build integration

package integration

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// portalDB - база портала в контейнере с одной секцией курса
type portalDB struct {
	DB        *sql.DB
	SectionID int64
}

// setupPortalDB поднимает Postgres, накатывает схему и создает секцию,
// в которой группы ограничены maxMembers участниками
func setupPortalDB(t *testing.T, maxMembers int) portalDB {
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:17.7",
		postgres.WithDatabase("uniportal_test"),
		postgres.WithUsername("portal"),
		postgres.WithPassword("portal"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(ctx))
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.PingContext(ctx))

	_, err = db.ExecContext(ctx, readSchema(t))
	require.NoError(t, err, "не удалось применить миграцию")

	var sectionID int64
	err = db.QueryRowContext(ctx,
		`INSERT INTO sections (name, max_members) VALUES ($1, $2) RETURNING id`,
		"Course project", maxMembers,
	).Scan(&sectionID)
	require.NoError(t, err)

	return portalDB{DB: db, SectionID: sectionID}
}

// readSchema читает migrations/000001_init.up.sql относительно корня модуля
func readSchema(t *testing.T) string {
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	root := filepath.Join(filepath.Dir(file), "..", "..")

	schema, err := os.ReadFile(filepath.Join(root, "migrations", "000001_init.up.sql"))
	require.NoError(t, err, "не найден файл migrations/000001_init.up.sql")
	return string(schema)
}
