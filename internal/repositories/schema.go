package repositories

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed sql/schema.sql
var schemaFiles embed.FS

// schemaStatements reads the embedded schema and splits it into executable statements.
func schemaStatements() ([]string, error) {
	content, err := schemaFiles.ReadFile("sql/schema.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	var statements []string
	for _, stmt := range strings.Split(string(content), ";") {
		stmt = strings.TrimSpace(removeComments(stmt))
		if stmt == "" {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements, nil
}

// applySchema creates any missing tables inside a single transaction.
//
// Every statement is CREATE ... IF NOT EXISTS, so running it against a populated database is a no-op.
func applySchema(ctx context.Context, db *sqlx.DB) error {
	statements, err := schemaStatements()
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
		}
	}

	return tx.Commit()
}

// removeComments removes SQL comments from a statement.
func removeComments(sql string) string {
	lines := strings.Split(sql, "\n")
	var result []string
	for _, line := range lines {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}
