package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/seeraph/oauth2-storage/internal/domain"
	"github.com/seeraph/oauth2-storage/internal/infrastructure/database"
	"go.uber.org/zap"
)

// ScopeRepository implements domain.ScopeRepository using PostgreSQL.
type ScopeRepository struct {
	db     database.Conn
	tables database.Tables
	logger *zap.Logger
	cache  map[string]*domain.Scope
}

// NewScopeRepository creates a new ScopeRepository
func NewScopeRepository(db database.Conn, tables database.Tables, logger *zap.Logger) *ScopeRepository {
	return &ScopeRepository{
		db:     db,
		tables: tables,
		logger: logger,
		cache:  make(map[string]*domain.Scope),
	}
}

func (r *ScopeRepository) Get(ctx context.Context, scope string) (*domain.Scope, error) {
	if entity, ok := r.cache[scope]; ok {
		return entity, nil
	}

	entity := &domain.Scope{}
	err := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT scope, name, description
		FROM %s WHERE scope = $1
	`, r.tables.Scopes), scope).Scan(&entity.Scope, &entity.Name, &entity.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrScopeNotFound
	}
	if err != nil {
		r.logger.Error("failed to get scope", zap.String("scope", scope), zap.Error(err))
		return nil, err
	}

	r.cache[scope] = entity
	return entity, nil
}

func (r *ScopeRepository) Create(ctx context.Context, scope, name, description string) (*domain.Scope, error) {
	_, err := r.db.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (scope, name, description)
		VALUES ($1, $2, $3)
	`, r.tables.Scopes), scope, name, description)
	if err != nil {
		r.logger.Error("failed to create scope", zap.String("scope", scope), zap.Error(err))
		return nil, err
	}

	return &domain.Scope{
		Scope:       scope,
		Name:        name,
		Description: description,
	}, nil
}

// Delete removes the scope row and evicts it from the cache. Association
// rows pointing at the scope are left behind; the scope joins used by the
// token and authorization code repositories make them invisible.
func (r *ScopeRepository) Delete(ctx context.Context, scope string) error {
	delete(r.cache, scope)

	if _, err := r.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE scope = $1", r.tables.Scopes), scope); err != nil {
		r.logger.Error("failed to delete scope", zap.String("scope", scope), zap.Error(err))
		return err
	}

	return nil
}
