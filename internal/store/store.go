// Package store persists task poll outcomes so a run's asynchronous work
// can be audited after the fact. It is optional: a nil *Store disables
// recording entirely.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pulpprobe/pulpprobe/internal/config"
	"github.com/pulpprobe/pulpprobe/internal/tasks"
	_ "modernc.org/sqlite"
)

// DbFileName is the default sqlite filename for the run history.
const DbFileName = "pulpprobe.db"

// Record is one persisted task outcome. RanAt is an RFC3339 UTC timestamp.
type Record struct {
	ID         int
	Ref        string
	State      string
	Failed     bool
	DurationMS int64
	Detail     string
	RanAt      string
}

// Store writes task outcomes to a SQL database. Table:
// task_runs(id, ref, state, failed, duration_ms, detail, ran_at).
type Store struct {
	DB      *sql.DB
	dialect dialect
}

// OpenSQLite opens (and initializes) the sqlite history at the given path.
func OpenSQLite(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_fk=1", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	st := &Store{DB: db, dialect: sqliteDialect{}}
	if err := st.EnsureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

// OpenPostgres opens (and initializes) the history in a postgres database.
func OpenPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	st := &Store{DB: db, dialect: postgresDialect{}}
	if err := st.EnsureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

// FromConfig opens the store named in settings, or returns nil when the
// store section is disabled.
func FromConfig(sc config.StoreConfig) (*Store, error) {
	if sc.Disabled {
		return nil, nil
	}
	switch strings.ToLower(strings.TrimSpace(sc.Type)) {
	case "", "sqlite":
		path := sc.Path
		if path == "" {
			path = DbFileName
		}
		return OpenSQLite(path)
	case "postgres", "postgresql":
		if strings.TrimSpace(sc.DSN) == "" {
			return nil, fmt.Errorf("store: postgres store requires a dsn")
		}
		return OpenPostgres(sc.DSN)
	default:
		return nil, fmt.Errorf("store: unknown store type %q (valid: sqlite, postgres)", sc.Type)
	}
}

func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func (s *Store) EnsureSchema() error {
	_, err := s.DB.Exec(s.dialect.createTable())
	return err
}

// Record implements tasks.Recorder.
func (s *Store) Record(ctx context.Context, o tasks.Outcome) error {
	if s == nil {
		return nil
	}
	q := fmt.Sprintf(
		`INSERT INTO task_runs(ref, state, failed, duration_ms, detail, ran_at) VALUES(%s, %s, %s, %s, %s, %s)`,
		s.dialect.placeholder(1), s.dialect.placeholder(2), s.dialect.placeholder(3),
		s.dialect.placeholder(4), s.dialect.placeholder(5), s.dialect.placeholder(6),
	)
	_, err := s.DB.ExecContext(ctx, q,
		o.Ref, o.State, o.Failed, o.Duration.Milliseconds(), o.Detail,
		time.Now().UTC().Format(time.RFC3339))
	return err
}

// List returns the most recent outcomes, newest first. limit<=0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Record, error) {
	q := `SELECT id, ref, state, failed, duration_ms, detail, ran_at FROM task_runs ORDER BY id DESC`
	if limit > 0 {
		q = fmt.Sprintf("%s LIMIT %d", q, limit)
	}
	rows, err := s.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.Ref, &r.State, &r.Failed, &r.DurationMS, &r.Detail, &r.RanAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
