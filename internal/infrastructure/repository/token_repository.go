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

// TokenRepository implements domain.TokenRepository using PostgreSQL.
type TokenRepository struct {
	db     database.Conn
	tables database.Tables
	logger *zap.Logger
	cache  map[string]*domain.Token
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db database.Conn, tables database.Tables, logger *zap.Logger) *TokenRepository {
	return &TokenRepository{
		db:     db,
		tables: tables,
		logger: logger,
		cache:  make(map[string]*domain.Token),
	}
}

func (r *TokenRepository) Create(ctx context.Context, token string, typ domain.TokenType, clientID, userID string, expires time.Time) (*domain.Token, error) {
	// Client credentials tokens carry no user; store NULL rather than an
	// empty string.
	var user *string
	if userID != "" {
		user = &userID
	}

	_, err := r.db.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (token, type, client_id, user_id, expires)
		VALUES ($1, $2, $3, $4, $5)
	`, r.tables.Tokens), token, string(typ), clientID, user, expires)
	if err != nil {
		r.logger.Error("failed to create token", zap.String("token", token), zap.Error(err))
		return nil, err
	}

	return &domain.Token{
		Token:    token,
		Type:     typ,
		ClientID: clientID,
		UserID:   userID,
		Expires:  expires,
	}, nil
}

// AssociateScopes records the granted scopes for a token with a single
// batch insert. Callers are expected to invoke this once, right after
// Create; the repository does not associate scopes on its own.
func (r *TokenRepository) AssociateScopes(ctx context.Context, token string, scopes []domain.Scope) error {
	if len(scopes) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(scopes))
	for _, scope := range scopes {
		rows = append(rows, []any{token, scope.Scope})
	}

	sql, args := batchInsert(r.tables.TokenScopes, []string{"token", "scope"}, rows)
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		r.logger.Error("failed to associate token scopes", zap.String("token", token), zap.Error(err))
		return err
	}

	return nil
}

// Get fetches a token without its scope associations.
func (r *TokenRepository) Get(ctx context.Context, token string) (*domain.Token, error) {
	if entity, ok := r.cache[token]; ok {
		return entity, nil
	}

	entity := &domain.Token{}
	var (
		typ    string
		userID *string
	)
	err := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT token, type, client_id, user_id, expires
		FROM %s WHERE token = $1
	`, r.tables.Tokens), token).Scan(&entity.Token, &typ, &entity.ClientID, &userID, &entity.Expires)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTokenNotFound
	}
	if err != nil {
		r.logger.Error("failed to get token", zap.String("token", token), zap.Error(err))
		return nil, err
	}

	entity.Type = domain.TokenType(typ)
	if userID != nil {
		entity.UserID = *userID
	}

	r.cache[token] = entity
	return entity, nil
}

// GetWithScopes fetches a token and populates its scope mapping. The scoped
// entity replaces the cache entry, so a later plain Get does not drop
// scopes that have already been attached.
func (r *TokenRepository) GetWithScopes(ctx context.Context, token string) (*domain.Token, error) {
	entity, err := r.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	scopes, err := fetchScopes(ctx, r.db, r.logger, r.tables.Scopes, r.tables.TokenScopes, "token", entity.Token)
	if err != nil {
		return nil, err
	}
	entity.Scopes = scopes

	r.cache[entity.Token] = entity
	return entity, nil
}

// Delete removes the token and its scope associations and evicts the cache.
func (r *TokenRepository) Delete(ctx context.Context, token string) error {
	delete(r.cache, token)

	if _, err := r.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE token = $1", r.tables.Tokens), token); err != nil {
		r.logger.Error("failed to delete token", zap.String("token", token), zap.Error(err))
		return err
	}

	if _, err := r.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE token = $1", r.tables.TokenScopes), token); err != nil {
		r.logger.Error("failed to delete token scopes", zap.String("token", token), zap.Error(err))
		return err
	}

	return nil
}

// fetchScopes loads the scopes associated with a token or authorization
// code. The inner join against the scopes table means association rows
// whose scope has since been deleted simply do not appear.
func fetchScopes(ctx context.Context, db database.Conn, logger *zap.Logger, scopesTable, assocTable, refColumn, ref string) (map[string]domain.Scope, error) {
	rows, err := db.Query(ctx, fmt.Sprintf(`
		SELECT s.scope, s.name, s.description
		FROM %s s
		JOIN %s a ON s.scope = a.scope
		WHERE a.%s = $1
	`, scopesTable, assocTable, refColumn), ref)
	if err != nil {
		logger.Error("failed to fetch associated scopes", zap.String(refColumn, ref), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	scopes := make(map[string]domain.Scope)
	for rows.Next() {
		var scope domain.Scope
		if err := rows.Scan(&scope.Scope, &scope.Name, &scope.Description); err != nil {
			logger.Error("failed to scan scope", zap.Error(err))
			return nil, err
		}
		scopes[scope.Scope] = scope
	}
	if err := rows.Err(); err != nil {
		logger.Error("failed to read associated scopes", zap.String(refColumn, ref), zap.Error(err))
		return nil, err
	}

	return scopes, nil
}
