package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SchemaProgress receives per-table notifications while the schema is being
// built or torn down. Each Creating or Dropping call is followed by a Done
// call for the same table once its statements have run.
type SchemaProgress interface {
	Creating(table string)
	Dropping(table string)
	Done(table string)
}

// NopProgress discards all schema progress notifications.
type NopProgress struct{}

func (NopProgress) Creating(string) {}
func (NopProgress) Dropping(string) {}
func (NopProgress) Done(string)     {}

// SchemaBuilder creates and drops the tables backing the OAuth2 storage
// layer. No foreign key constraints are declared; referential integrity is
// maintained by the repositories.
type SchemaBuilder struct {
	db     Conn
	tables Tables
	log    *zap.Logger
}

// NewSchemaBuilder creates a SchemaBuilder over the given connection and
// table registry.
func NewSchemaBuilder(db Conn, tables Tables, log *zap.Logger) *SchemaBuilder {
	return &SchemaBuilder{
		db:     db,
		tables: tables,
		log:    log,
	}
}

type schemaStep struct {
	table string
	stmts []string
}

// Up creates all registered tables. Statements use CREATE ... IF NOT EXISTS
// so running the installer against an existing schema is a no-op.
func (b *SchemaBuilder) Up(ctx context.Context, progress SchemaProgress) error {
	for _, step := range b.upSteps() {
		progress.Creating(step.table)

		for _, stmt := range step.stmts {
			if _, err := b.db.Exec(ctx, stmt); err != nil {
				b.log.Error("failed to create table", zap.String("table", step.table), zap.Error(err))
				return fmt.Errorf("creating table %s: %w", step.table, err)
			}
		}

		progress.Done(step.table)
	}
	return nil
}

// Down drops all registered tables, tolerating absence.
func (b *SchemaBuilder) Down(ctx context.Context, progress SchemaProgress) error {
	for _, table := range b.tables.All() {
		progress.Dropping(table)

		if _, err := b.db.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			b.log.Error("failed to drop table", zap.String("table", table), zap.Error(err))
			return fmt.Errorf("dropping table %s: %w", table, err)
		}

		progress.Done(table)
	}
	return nil
}

func (b *SchemaBuilder) upSteps() []schemaStep {
	return []schemaStep{
		{
			table: b.tables.AuthorizationCodes,
			stmts: []string{
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
					code VARCHAR(40) PRIMARY KEY,
					client_id VARCHAR(40) NOT NULL,
					user_id VARCHAR(255) NOT NULL,
					redirect_uri TEXT,
					expires TIMESTAMPTZ NOT NULL
				)`, b.tables.AuthorizationCodes),
			},
		},
		{
			table: b.tables.AuthorizationCodeScopes,
			stmts: associationTableStmts(b.tables.AuthorizationCodeScopes, "code"),
		},
		{
			table: b.tables.Clients,
			stmts: []string{
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
					id VARCHAR(40) PRIMARY KEY,
					secret VARCHAR(40) NOT NULL,
					name VARCHAR(255) NOT NULL,
					trusted BOOLEAN NOT NULL DEFAULT FALSE
				)`, b.tables.Clients),
				indexStmt(b.tables.Clients, "secret"),
			},
		},
		{
			table: b.tables.ClientEndpoints,
			stmts: []string{
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
					id BIGSERIAL PRIMARY KEY,
					client_id VARCHAR(40) NOT NULL,
					uri TEXT NOT NULL,
					is_default BOOLEAN NOT NULL DEFAULT FALSE
				)`, b.tables.ClientEndpoints),
				indexStmt(b.tables.ClientEndpoints, "client_id"),
				indexStmt(b.tables.ClientEndpoints, "uri"),
			},
		},
		{
			table: b.tables.Scopes,
			stmts: []string{
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
					scope VARCHAR(255) PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					description TEXT
				)`, b.tables.Scopes),
			},
		},
		{
			table: b.tables.Tokens,
			stmts: []string{
				fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
					token VARCHAR(40) PRIMARY KEY,
					type VARCHAR(7) NOT NULL DEFAULT 'access' CHECK (type IN ('access', 'refresh')),
					client_id VARCHAR(40) NOT NULL,
					user_id VARCHAR(255),
					expires TIMESTAMPTZ NOT NULL
				)`, b.tables.Tokens),
			},
		},
		{
			table: b.tables.TokenScopes,
			stmts: associationTableStmts(b.tables.TokenScopes, "token"),
		},
	}
}

// associationTableStmts builds the DDL for a scope association table: a
// surrogate key, an indexed reference column and an indexed scope column.
func associationTableStmts(table, refColumn string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			%s VARCHAR(40) NOT NULL,
			scope VARCHAR(255) NOT NULL
		)`, table, refColumn),
		indexStmt(table, refColumn),
		indexStmt(table, "scope"),
	}
}

func indexStmt(table, column string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_%s_idx ON %s (%s)", table, column, table, column)
}
