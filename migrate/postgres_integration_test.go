//go:build integration

package migrate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bcomnes/sqlctl"
	"github.com/bcomnes/sqlctl/driver"
)

func TestPostgresSchemaQualifiedTable(t *testing.T) {
	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("sqlctl_it"),
		postgres.WithUsername("sqlctl"),
		postgres.WithPassword("sqlctl"),
		testcontainers.WithWaitStrategyAndDeadline(2*time.Minute,
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
		),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)
	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	source := t.TempDir()
	for name, content := range map[string]string{
		"001.do.users.sql":   "CREATE TABLE users (id BIGSERIAL PRIMARY KEY, name TEXT NOT NULL);",
		"001.undo.users.sql": "DROP TABLE users;",
		"002.do.seed.sql":    "INSERT INTO users (name) VALUES ('a');\nINSERT INTO users (name) VALUES ('b');",
		"002.undo.seed.sql":  "DELETE FROM users;",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(source, name), []byte(content), 0o644))
	}

	out := &bytes.Buffer{}
	engine := &Engine{Drivers: driver.Default(), SchemaTable: "sqlctl_schema.versions", Out: out}
	opts := sqlctl.ConnectOpts{DatabaseURL: url, ConnectTimeout: 30 * time.Second}

	require.NoError(t, engine.Run(ctx, source, opts, false, false, nil))
	assert.Contains(t, out.String(), "2/migrate seed")

	db, err := driver.Default().Open(ctx, url)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT count(*) FROM "sqlctl_schema"."versions"`).Scan(&count))
	assert.Equal(t, 2, count)

	zero := int64(0)
	require.NoError(t, engine.Revert(ctx, source, opts, false, false, &zero))
	require.NoError(t, db.QueryRowContext(ctx, `SELECT count(*) FROM "sqlctl_schema"."versions"`).Scan(&count))
	assert.Zero(t, count)
}
