package repository

import (
	"errors"
	"fmt"

	"github.com/seeraph/oauth2-storage/internal/domain"
	"github.com/seeraph/oauth2-storage/internal/infrastructure/database"
	"go.uber.org/zap"
)

// Repository names accepted by Adapter.Get.
const (
	ClientRepositoryName        = "client"
	ScopeRepositoryName         = "scope"
	TokenRepositoryName         = "token"
	AuthorizationRepositoryName = "authorization"
)

// ErrTablesLocked is returned by SetTables once a repository has been built:
// repositories capture the table registry at construction time.
var ErrTablesLocked = errors.New("tables cannot be changed after a repository has been built")

// Adapter hands out lazily built repositories that share one connection and
// table registry. One instance of each repository is built per adapter
// lifetime. Adapters are meant to be request-scoped; the identity caches
// behind an adapter are not synchronized.
type Adapter struct {
	db     database.Conn
	logger *zap.Logger
	tables database.Tables
	repos  map[string]any
}

// NewAdapter creates an Adapter using the default table names.
func NewAdapter(db database.Conn, logger *zap.Logger) *Adapter {
	return &Adapter{
		db:     db,
		logger: logger,
		tables: database.DefaultTables(),
		repos:  make(map[string]any),
	}
}

// SetTables replaces the table registry. It must be called before any
// repository has been handed out.
func (a *Adapter) SetTables(tables database.Tables) error {
	if len(a.repos) > 0 {
		return ErrTablesLocked
	}
	a.tables = tables
	return nil
}

// Get returns the repository registered under name, building it on first
// use. Asking for a name outside the four registered ones is a programming
// error and panics.
func (a *Adapter) Get(name string) any {
	if repo, ok := a.repos[name]; ok {
		return repo
	}

	var repo any
	switch name {
	case ClientRepositoryName:
		repo = NewClientRepository(a.db, a.tables, a.logger)
	case ScopeRepositoryName:
		repo = NewScopeRepository(a.db, a.tables, a.logger)
	case TokenRepositoryName:
		repo = NewTokenRepository(a.db, a.tables, a.logger)
	case AuthorizationRepositoryName:
		repo = NewAuthorizationCodeRepository(a.db, a.tables, a.logger)
	default:
		panic(fmt.Sprintf("repository: unknown repository %q", name))
	}

	a.repos[name] = repo
	return repo
}

// Client returns the client repository.
func (a *Adapter) Client() domain.ClientRepository {
	return a.Get(ClientRepositoryName).(domain.ClientRepository)
}

// Scope returns the scope repository.
func (a *Adapter) Scope() domain.ScopeRepository {
	return a.Get(ScopeRepositoryName).(domain.ScopeRepository)
}

// Token returns the token repository.
func (a *Adapter) Token() domain.TokenRepository {
	return a.Get(TokenRepositoryName).(domain.TokenRepository)
}

// AuthorizationCode returns the authorization code repository.
func (a *Adapter) AuthorizationCode() domain.AuthorizationCodeRepository {
	return a.Get(AuthorizationRepositoryName).(domain.AuthorizationCodeRepository)
}
