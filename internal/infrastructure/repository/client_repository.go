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

// ClientRepository implements domain.ClientRepository using PostgreSQL.
type ClientRepository struct {
	db     database.Conn
	tables database.Tables
	logger *zap.Logger
	cache  map[string]*domain.Client
}

// NewClientRepository creates a new ClientRepository
func NewClientRepository(db database.Conn, tables database.Tables, logger *zap.Logger) *ClientRepository {
	return &ClientRepository{
		db:     db,
		tables: tables,
		logger: logger,
		cache:  make(map[string]*domain.Client),
	}
}

// Get fetches a client by id. With no options the last fetched entity is
// served from the identity cache; with WithSecret and/or WithRedirectURI the
// call is a full authentication check that always hits the backend. A stale
// cached row must never answer a credential check.
func (r *ClientRepository) Get(ctx context.Context, id string, opts ...domain.ClientOption) (*domain.Client, error) {
	var lookup domain.ClientLookup
	for _, opt := range opts {
		opt(&lookup)
	}

	if lookup.Secret != nil || lookup.RedirectURI != nil {
		return r.getMatching(ctx, id, lookup)
	}

	if client, ok := r.cache[id]; ok {
		return client, nil
	}

	client := &domain.Client{}
	err := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, secret, name, trusted
		FROM %s WHERE id = $1
	`, r.tables.Clients), id).Scan(&client.ID, &client.Secret, &client.Name, &client.Trusted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrClientNotFound
	}
	if err != nil {
		r.logger.Error("failed to get client", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	uri, err := r.defaultRedirectURI(ctx, id)
	if err != nil {
		return nil, err
	}
	client.RedirectURI = uri

	r.cache[id] = client
	return client, nil
}

// getMatching verifies the supplied credentials in addition to the id. When
// a redirection URI is given the lookup joins the endpoints table so only a
// registered URI matches; a secret-only lookup filters on the clients table
// and then resolves the default URI like the plain path does.
func (r *ClientRepository) getMatching(ctx context.Context, id string, lookup domain.ClientLookup) (*domain.Client, error) {
	client := &domain.Client{}
	var err error

	switch {
	case lookup.Secret != nil && lookup.RedirectURI != nil:
		err = r.db.QueryRow(ctx, fmt.Sprintf(`
			SELECT c.id, c.secret, c.name, c.trusted, e.uri
			FROM %s c
			JOIN %s e ON c.id = e.client_id
			WHERE c.id = $1 AND c.secret = $2 AND e.uri = $3
		`, r.tables.Clients, r.tables.ClientEndpoints), id, *lookup.Secret, *lookup.RedirectURI).
			Scan(&client.ID, &client.Secret, &client.Name, &client.Trusted, &client.RedirectURI)

	case lookup.RedirectURI != nil:
		err = r.db.QueryRow(ctx, fmt.Sprintf(`
			SELECT c.id, c.secret, c.name, c.trusted, e.uri
			FROM %s c
			JOIN %s e ON c.id = e.client_id
			WHERE c.id = $1 AND e.uri = $2
		`, r.tables.Clients, r.tables.ClientEndpoints), id, *lookup.RedirectURI).
			Scan(&client.ID, &client.Secret, &client.Name, &client.Trusted, &client.RedirectURI)

	default:
		err = r.db.QueryRow(ctx, fmt.Sprintf(`
			SELECT id, secret, name, trusted
			FROM %s WHERE id = $1 AND secret = $2
		`, r.tables.Clients), id, *lookup.Secret).
			Scan(&client.ID, &client.Secret, &client.Name, &client.Trusted)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrClientNotFound
	}
	if err != nil {
		r.logger.Error("failed to get client", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	// No redirection URI was part of the lookup, so resolve the client's
	// default URI for the returned entity.
	if lookup.RedirectURI == nil {
		uri, err := r.defaultRedirectURI(ctx, id)
		if err != nil {
			return nil, err
		}
		client.RedirectURI = uri
	}

	return client, nil
}

func (r *ClientRepository) defaultRedirectURI(ctx context.Context, id string) (string, error) {
	var uri string
	err := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT uri FROM %s WHERE client_id = $1 AND is_default = TRUE
	`, r.tables.ClientEndpoints), id).Scan(&uri)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		r.logger.Error("failed to resolve default redirect uri", zap.String("client_id", id), zap.Error(err))
		return "", err
	}
	return uri, nil
}

// Create inserts a client and its redirection endpoints. The returned
// entity's RedirectURI is the URI flagged as default among the inputs, or
// empty if none was. The two inserts are not wrapped in a transaction; run
// the repository over a pgx.Tx if atomicity is required.
func (r *ClientRepository) Create(ctx context.Context, id, secret, name string, redirectURIs []domain.RedirectURI, trusted bool) (*domain.Client, error) {
	_, err := r.db.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, secret, name, trusted)
		VALUES ($1, $2, $3, $4)
	`, r.tables.Clients), id, secret, name, trusted)
	if err != nil {
		r.logger.Error("failed to create client", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	var defaultURI string
	rows := make([][]any, 0, len(redirectURIs))
	for _, redirectURI := range redirectURIs {
		if redirectURI.Default {
			defaultURI = redirectURI.URI
		}
		rows = append(rows, []any{id, redirectURI.URI, redirectURI.Default})
	}

	if len(rows) > 0 {
		sql, args := batchInsert(r.tables.ClientEndpoints, []string{"client_id", "uri", "is_default"}, rows)
		if _, err := r.db.Exec(ctx, sql, args...); err != nil {
			r.logger.Error("failed to create client endpoints", zap.String("id", id), zap.Error(err))
			return nil, err
		}
	}

	return &domain.Client{
		ID:          id,
		Secret:      secret,
		Name:        name,
		Trusted:     trusted,
		RedirectURI: defaultURI,
	}, nil
}

// Delete removes a client and its redirection endpoints and evicts the id
// from the identity cache.
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	delete(r.cache, id)

	if _, err := r.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.tables.Clients), id); err != nil {
		r.logger.Error("failed to delete client", zap.String("id", id), zap.Error(err))
		return err
	}

	if _, err := r.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE client_id = $1", r.tables.ClientEndpoints), id); err != nil {
		r.logger.Error("failed to delete client endpoints", zap.String("id", id), zap.Error(err))
		return err
	}

	return nil
}
