package domain

import "errors"

var (
	ErrClientNotFound            = errors.New("client not found")
	ErrScopeNotFound             = errors.New("scope not found")
	ErrTokenNotFound             = errors.New("token not found")
	ErrAuthorizationCodeNotFound = errors.New("authorization code not found")
)
