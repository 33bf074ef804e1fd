package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seeraph/oauth2-storage/internal/domain"
	"github.com/seeraph/oauth2-storage/internal/infrastructure/database"
)

func TestTokenRepository_Create(t *testing.T) {
	mock := newMockDB(t)
	repo := NewTokenRepository(mock, database.DefaultTables(), zap.NewNop())

	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	userID := "user-1"

	mock.ExpectExec("INSERT INTO oauth_tokens").
		WithArgs("tok123", "access", "abc123", &userID, expires).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	token, err := repo.Create(context.Background(), "tok123", domain.AccessToken, "abc123", "user-1", expires)
	require.NoError(t, err)
	assert.Equal(t, &domain.Token{
		Token:    "tok123",
		Type:     domain.AccessToken,
		ClientID: "abc123",
		UserID:   "user-1",
		Expires:  expires,
	}, token)
	assert.Nil(t, token.Scopes)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepository_CreateWithoutUser(t *testing.T) {
	mock := newMockDB(t)
	repo := NewTokenRepository(mock, database.DefaultTables(), zap.NewNop())

	expires := time.Now().Add(time.Hour).Truncate(time.Second)

	// Client credentials tokens store NULL for the user.
	mock.ExpectExec("INSERT INTO oauth_tokens").
		WithArgs("tok123", "refresh", "abc123", (*string)(nil), expires).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	token, err := repo.Create(context.Background(), "tok123", domain.RefreshToken, "abc123", "", expires)
	require.NoError(t, err)
	assert.Empty(t, token.UserID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepository_AssociateScopes(t *testing.T) {
	mock := newMockDB(t)
	repo := NewTokenRepository(mock, database.DefaultTables(), zap.NewNop())

	mock.ExpectExec("INSERT INTO oauth_token_scopes").
		WithArgs("tok123", "read", "tok123", "write").
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	err := repo.AssociateScopes(context.Background(), "tok123", []domain.Scope{
		{Scope: "read"},
		{Scope: "write"},
	})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepository_AssociateScopesEmpty(t *testing.T) {
	mock := newMockDB(t)
	repo := NewTokenRepository(mock, database.DefaultTables(), zap.NewNop())

	// No scopes, no backend round trip.
	require.NoError(t, repo.AssociateScopes(context.Background(), "tok123", nil))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepository_Get(t *testing.T) {
	mock := newMockDB(t)
	repo := NewTokenRepository(mock, database.DefaultTables(), zap.NewNop())

	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	userID := "user-1"

	mock.ExpectQuery("SELECT token, type, client_id, user_id, expires").
		WithArgs("tok123").
		WillReturnRows(pgxmock.NewRows([]string{"token", "type", "client_id", "user_id", "expires"}).
			AddRow("tok123", "access", "abc123", &userID, expires))

	token, err := repo.Get(context.Background(), "tok123")
	require.NoError(t, err)
	assert.Equal(t, domain.AccessToken, token.Type)
	assert.Equal(t, "user-1", token.UserID)
	assert.Nil(t, token.Scopes)

	// Cached on the second call.
	again, err := repo.Get(context.Background(), "tok123")
	require.NoError(t, err)
	assert.Same(t, token, again)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepository_GetNotFound(t *testing.T) {
	mock := newMockDB(t)
	repo := NewTokenRepository(mock, database.DefaultTables(), zap.NewNop())

	mock.ExpectQuery("SELECT token, type, client_id, user_id, expires").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	token, err := repo.Get(context.Background(), "missing")
	assert.Nil(t, token)
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepository_GetWithScopesPromotesCache(t *testing.T) {
	mock := newMockDB(t)
	repo := NewTokenRepository(mock, database.DefaultTables(), zap.NewNop())

	expires := time.Now().Add(time.Hour).Truncate(time.Second)

	mock.ExpectQuery("SELECT token, type, client_id, user_id, expires").
		WithArgs("tok123").
		WillReturnRows(pgxmock.NewRows([]string{"token", "type", "client_id", "user_id", "expires"}).
			AddRow("tok123", "access", "abc123", (*string)(nil), expires))
	mock.ExpectQuery("JOIN oauth_token_scopes").
		WithArgs("tok123").
		WillReturnRows(pgxmock.NewRows([]string{"scope", "name", "description"}).
			AddRow("read", "Read", "").
			AddRow("write", "Write", ""))

	token, err := repo.GetWithScopes(context.Background(), "tok123")
	require.NoError(t, err)
	assert.Len(t, token.Scopes, 2)
	assert.Contains(t, token.Scopes, "read")
	assert.Contains(t, token.Scopes, "write")

	// The scoped entity replaced the cache entry: a plain Get keeps the
	// scopes and issues no query.
	plain, err := repo.Get(context.Background(), "tok123")
	require.NoError(t, err)
	assert.Same(t, token, plain)
	assert.Len(t, plain.Scopes, 2)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepository_DeleteEvictsCache(t *testing.T) {
	mock := newMockDB(t)
	repo := NewTokenRepository(mock, database.DefaultTables(), zap.NewNop())

	expires := time.Now().Add(time.Hour).Truncate(time.Second)

	mock.ExpectQuery("SELECT token, type, client_id, user_id, expires").
		WithArgs("tok123").
		WillReturnRows(pgxmock.NewRows([]string{"token", "type", "client_id", "user_id", "expires"}).
			AddRow("tok123", "access", "abc123", (*string)(nil), expires))

	_, err := repo.Get(context.Background(), "tok123")
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM oauth_tokens").
		WithArgs("tok123").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM oauth_token_scopes").
		WithArgs("tok123").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	require.NoError(t, repo.Delete(context.Background(), "tok123"))

	mock.ExpectQuery("SELECT token, type, client_id, user_id, expires").
		WithArgs("tok123").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.Get(context.Background(), "tok123")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
