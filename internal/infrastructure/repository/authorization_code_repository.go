package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/seeraph/oauth2-storage/internal/domain"
	"github.com/seeraph/oauth2-storage/internal/infrastructure/database"
	"go.uber.org/zap"
)

// AuthorizationCodeRepository implements domain.AuthorizationCodeRepository
// using PostgreSQL.
type AuthorizationCodeRepository struct {
	db     database.Conn
	tables database.Tables
	logger *zap.Logger
	cache  map[string]*domain.AuthorizationCode
}

// NewAuthorizationCodeRepository creates a new AuthorizationCodeRepository
func NewAuthorizationCodeRepository(db database.Conn, tables database.Tables, logger *zap.Logger) *AuthorizationCodeRepository {
	return &AuthorizationCodeRepository{
		db:     db,
		tables: tables,
		logger: logger,
		cache:  make(map[string]*domain.AuthorizationCode),
	}
}

func (r *AuthorizationCodeRepository) Create(ctx context.Context, code, clientID, userID, redirectURI string, expires time.Time) (*domain.AuthorizationCode, error) {
	var uri *string
	if redirectURI != "" {
		uri = &redirectURI
	}

	_, err := r.db.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (code, client_id, user_id, redirect_uri, expires)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.AuthorizationCodes), code, clientID, userID, uri, expires)
	if err != nil {
		r.logger.Error("failed to create authorization code", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	return &domain.AuthorizationCode{
		Code:        code,
		ClientID:    clientID,
		UserID:      userID,
		RedirectURI: redirectURI,
		Expires:     expires,
	}, nil
}

// AssociateScopes records the granted scopes for an authorization code with
// a single batch insert.
func (r *AuthorizationCodeRepository) AssociateScopes(ctx context.Context, code string, scopes []domain.Scope) error {
	if len(scopes) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(scopes))
	for _, scope := range scopes {
		rows = append(rows, []any{code, scope.Scope})
	}

	sql, args := batchInsert(r.tables.AuthorizationCodeScopes, []string{"code", "scope"}, rows)
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		r.logger.Error("failed to associate authorization code scopes", zap.String("code", code), zap.Error(err))
		return err
	}

	return nil
}

// Get fetches an authorization code with its associated scopes attached.
func (r *AuthorizationCodeRepository) Get(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	if entity, ok := r.cache[code]; ok {
		return entity, nil
	}

	entity := &domain.AuthorizationCode{}
	var uri *string
	err := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT code, client_id, user_id, redirect_uri, expires
		FROM %s WHERE code = $1
	`, r.tables.AuthorizationCodes), code).Scan(&entity.Code, &entity.ClientID, &entity.UserID, &uri, &entity.Expires)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAuthorizationCodeNotFound
	}
	if err != nil {
		r.logger.Error("failed to get authorization code", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	if uri != nil {
		entity.RedirectURI = *uri
	}

	scopes, err := fetchScopes(ctx, r.db, r.logger, r.tables.Scopes, r.tables.AuthorizationCodeScopes, "code", entity.Code)
	if err != nil {
		return nil, err
	}
	entity.Scopes = scopes

	r.cache[entity.Code] = entity
	return entity, nil
}

// Delete removes the authorization code and its scope associations and
// evicts the cache.
func (r *AuthorizationCodeRepository) Delete(ctx context.Context, code string) error {
	delete(r.cache, code)

	if _, err := r.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE code = $1", r.tables.AuthorizationCodes), code); err != nil {
		r.logger.Error("failed to delete authorization code", zap.String("code", code), zap.Error(err))
		return err
	}

	if _, err := r.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE code = $1", r.tables.AuthorizationCodeScopes), code); err != nil {
		r.logger.Error("failed to delete authorization code scopes", zap.String("code", code), zap.Error(err))
		return err
	}

	return nil
}
