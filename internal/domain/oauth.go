package domain

import (
	"context"
	"time"
)

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Client represents a registered OAuth2 client application. RedirectURI
// holds the single resolved redirection URI for the lookup that produced
// the entity: the URI matched during a credentialed lookup, or the client's
// default URI. Empty means no default URI is registered.
type Client struct {
	ID          string
	Secret      string
	Name        string
	Trusted     bool
	RedirectURI string
}

// Scope is a named permission unit attachable to tokens and authorization codes.
type Scope struct {
	Scope       string
	Name        string
	Description string
}

// Token is an issued credential bound to a client and optionally a user.
// Scopes is nil until populated by a scoped fetch. UserID is empty for
// tokens issued through the client credentials grant.
type Token struct {
	Token    string
	Type     TokenType
	ClientID string
	UserID   string
	Expires  time.Time
	Scopes   map[string]Scope
}

// AuthorizationCode is a short-lived, one-time credential exchanged for a
// token in the authorization code grant flow.
type AuthorizationCode struct {
	Code        string
	ClientID    string
	UserID      string
	RedirectURI string
	Expires     time.Time
	Scopes      map[string]Scope
}

// RedirectURI is a redirection endpoint registered when a client is created.
// Exactly one of a client's URIs should be flagged as the default.
type RedirectURI struct {
	URI     string
	Default bool
}

// ClientLookup narrows a client Get to a full authentication check against
// the stored secret and/or a registered redirection URI.
type ClientLookup struct {
	Secret      *string
	RedirectURI *string
}

// ClientOption adds a lookup criterion to ClientRepository.Get. Supplying
// any option turns the call into an authentication check that bypasses the
// repository's identity cache.
type ClientOption func(*ClientLookup)

// WithSecret requires the stored client secret to match.
func WithSecret(secret string) ClientOption {
	return func(l *ClientLookup) { l.Secret = &secret }
}

// WithRedirectURI requires the URI to be registered for the client.
func WithRedirectURI(uri string) ClientOption {
	return func(l *ClientLookup) { l.RedirectURI = &uri }
}

// ClientRepository stores registered client applications and their
// redirection endpoints.
type ClientRepository interface {
	Get(ctx context.Context, id string, opts ...ClientOption) (*Client, error)
	Create(ctx context.Context, id, secret, name string, redirectURIs []RedirectURI, trusted bool) (*Client, error)
	Delete(ctx context.Context, id string) error
}

// ScopeRepository stores the scopes that may be granted to tokens and
// authorization codes.
type ScopeRepository interface {
	Get(ctx context.Context, scope string) (*Scope, error)
	Create(ctx context.Context, scope, name, description string) (*Scope, error)
	Delete(ctx context.Context, scope string) error
}

// TokenRepository stores issued access and refresh tokens. Scope
// associations are written separately through AssociateScopes and attached
// to entities returned by GetWithScopes.
type TokenRepository interface {
	Create(ctx context.Context, token string, typ TokenType, clientID, userID string, expires time.Time) (*Token, error)
	AssociateScopes(ctx context.Context, token string, scopes []Scope) error
	Get(ctx context.Context, token string) (*Token, error)
	GetWithScopes(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
}

// AuthorizationCodeRepository stores one-time authorization codes. Unlike
// tokens, Get always attaches the code's associated scopes.
type AuthorizationCodeRepository interface {
	Create(ctx context.Context, code, clientID, userID, redirectURI string, expires time.Time) (*AuthorizationCode, error)
	AssociateScopes(ctx context.Context, code string, scopes []Scope) error
	Get(ctx context.Context, code string) (*AuthorizationCode, error)
	Delete(ctx context.Context, code string) error
}
