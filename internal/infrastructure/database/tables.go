package database

// Tables maps the seven logical table roles to physical table names so
// deployments can avoid collisions with existing tables.
type Tables struct {
	Clients                 string
	ClientEndpoints         string
	Scopes                  string
	Tokens                  string
	TokenScopes             string
	AuthorizationCodes      string
	AuthorizationCodeScopes string
}

// DefaultTables returns the standard oauth_ prefixed table names.
func DefaultTables() Tables {
	return TablesWithPrefix("oauth_")
}

// TablesWithPrefix returns a registry with every table name prefixed.
func TablesWithPrefix(prefix string) Tables {
	return Tables{
		Clients:                 prefix + "clients",
		ClientEndpoints:         prefix + "client_endpoints",
		Scopes:                  prefix + "scopes",
		Tokens:                  prefix + "tokens",
		TokenScopes:             prefix + "token_scopes",
		AuthorizationCodes:      prefix + "authorization_codes",
		AuthorizationCodeScopes: prefix + "authorization_code_scopes",
	}
}

// All returns every registered table name.
func (t Tables) All() []string {
	return []string{
		t.AuthorizationCodes,
		t.AuthorizationCodeScopes,
		t.Clients,
		t.ClientEndpoints,
		t.Scopes,
		t.Tokens,
		t.TokenScopes,
	}
}
