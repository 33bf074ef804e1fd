package repository

import (
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockDB creates a pgx mock pool that satisfies database.Conn.
func newMockDB(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return mock
}

func TestBatchInsert(t *testing.T) {
	sql, args := batchInsert("oauth_token_scopes", []string{"token", "scope"}, [][]any{
		{"tok123", "read"},
		{"tok123", "write"},
	})

	assert.Equal(t, "INSERT INTO oauth_token_scopes (token, scope) VALUES ($1, $2), ($3, $4)", sql)
	assert.Equal(t, []any{"tok123", "read", "tok123", "write"}, args)
}

func TestBatchInsertSingleRow(t *testing.T) {
	sql, args := batchInsert("oauth_client_endpoints", []string{"client_id", "uri", "is_default"}, [][]any{
		{"abc123", "https://app/cb", true},
	})

	assert.Equal(t, "INSERT INTO oauth_client_endpoints (client_id, uri, is_default) VALUES ($1, $2, $3)", sql)
	assert.Equal(t, []any{"abc123", "https://app/cb", true}, args)
}
