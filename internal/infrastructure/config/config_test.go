package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid config",
			env: map[string]string{
				"DB_HOST":     "db.internal",
				"DB_PORT":     "5433",
				"DB_USER":     "postgres",
				"DB_PASSWORD": "postgres",
				"DB_NAME":     "oauth_test",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "db.internal", cfg.DBHost)
				assert.Equal(t, 5433, cfg.DBPort)
				assert.Equal(t, "postgres", cfg.DBUser)
				assert.Equal(t, "oauth_test", cfg.DBName)
				assert.Empty(t, cfg.TablePrefix)
			},
		},
		{
			name: "defaults applied",
			env:  map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "localhost", cfg.DBHost)
				assert.Equal(t, 5432, cfg.DBPort)
				assert.Equal(t, "oauth", cfg.DBUser)
			},
		},
		{
			name: "table prefix",
			env: map[string]string{
				"OAUTH_TABLE_PREFIX": "acme_",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "acme_", cfg.TablePrefix)
			},
		},
		{
			name: "invalid db port",
			env: map[string]string{
				"DB_PORT": "invalid",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// t.Setenv registers the restore; unset afterwards so values
			// from the surrounding environment cannot leak into the test.
			for _, key := range []string{"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "OAUTH_TABLE_PREFIX"} {
				t.Setenv(key, "")
				os.Unsetenv(key)
			}
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			cfg, err := LoadConfig()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}
