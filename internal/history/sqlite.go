package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"roomcast/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history migrate: %w", err)
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Append(ctx context.Context, e Entry) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if e.Finished.IsZero() {
		e.Finished = time.Now()
	}
	if e.Started.IsZero() {
		e.Started = e.Finished
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs(run_id, module, started, finished, success, total_success, total_fail, message)
		 VALUES(?,?,?,?,?,?,?,?)`,
		e.RunID, e.Module,
		e.Started.UTC().Format(time.RFC3339Nano), e.Finished.UTC().Format(time.RFC3339Nano),
		boolInt(e.Success), e.TotalSuccess, e.TotalFail, nullStr(e.Message),
	)
	return err
}

func (s *sqliteStore) Recent(ctx context.Context, n int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, module, started, finished, success, total_success, total_fail, message
		 FROM runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                 Entry
			started, finished string
			success           int
			msg               sql.NullString
		)
		if err := rows.Scan(&e.RunID, &e.Module, &started, &finished, &success, &e.TotalSuccess, &e.TotalFail, &msg); err != nil {
			return nil, err
		}
		e.Started, _ = time.Parse(time.RFC3339Nano, started)
		e.Finished, _ = time.Parse(time.RFC3339Nano, finished)
		e.Success = success != 0
		e.Message = msg.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
