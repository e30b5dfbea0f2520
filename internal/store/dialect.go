package store

import "fmt"

// dialect abstracts the SQL differences between the supported databases:
// placeholder syntax and the auto-increment flavor of the schema.
type dialect interface {
	placeholder(n int) string
	createTable() string
}

type sqliteDialect struct{}

func (sqliteDialect) placeholder(int) string { return "?" }

func (sqliteDialect) createTable() string {
	return `CREATE TABLE IF NOT EXISTS task_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ref TEXT NOT NULL,
		state TEXT NOT NULL,
		failed INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		ran_at TEXT NOT NULL
	)`
}

type postgresDialect struct{}

func (postgresDialect) placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) createTable() string {
	return `CREATE TABLE IF NOT EXISTS task_runs (
		id SERIAL PRIMARY KEY,
		ref TEXT NOT NULL,
		state TEXT NOT NULL,
		failed BOOLEAN NOT NULL,
		duration_ms BIGINT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		ran_at TEXT NOT NULL
	)`
}
