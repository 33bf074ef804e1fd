// Package repository implements the OAuth2 storage contracts from the
// domain package on top of PostgreSQL. Repositories are request-scoped:
// each instance owns an unsynchronized identity cache, so a repository (or
// the Adapter that built it) must not be shared across goroutines.
package repository

import (
	"fmt"
	"strings"
)

// batchInsert builds a single multi-row INSERT statement with positional
// placeholders. Every row must have one value per column.
func batchInsert(table string, columns []string, rows [][]any) (string, []any) {
	placeholders := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*len(columns))

	for i, row := range rows {
		marks := make([]string, len(columns))
		for j := range columns {
			marks[j] = fmt.Sprintf("$%d", i*len(columns)+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(marks, ", ")+")")
		args = append(args, row...)
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "),
	)
	return sql, args
}
