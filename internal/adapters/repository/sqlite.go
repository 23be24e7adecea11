package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/okian/clutch/internal/domain/model"
	"github.com/okian/clutch/internal/domain/query"
	"github.com/okian/clutch/pkg/logger"
)

// SQLiteStore keeps the graph in a single SQLite file, one table per node
// kind plus a PERFORMED join table.
type SQLiteStore struct {
	db  *sql.DB
	log logger.Logger
}

// NewSQLiteStore opens or creates the database at path. ":memory:" is
// accepted and keeps a single connection.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStoreUnavailable, path, err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, pragma, err)
		}
	}

	s := &SQLiteStore{db: db, log: o.log}
	if err := s.initializeSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initializeSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS games (
			game_id TEXT PRIMARY KEY,
			home_team TEXT NOT NULL DEFAULT '',
			visitor_team TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS players (
			player_id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			game_id TEXT NOT NULL REFERENCES games(game_id),
			event_num INTEGER NOT NULL,
			event_type TEXT NOT NULL,
			period INTEGER NOT NULL,
			seconds_left INTEGER NOT NULL,
			score_home INTEGER NOT NULL,
			score_visitor INTEGER NOT NULL,
			score_margin INTEGER NOT NULL,
			home_desc TEXT,
			visit_desc TEXT,
			is_clutch INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS performed (
			event_id TEXT NOT NULL REFERENCES events(event_id),
			role TEXT NOT NULL,
			player_id TEXT NOT NULL REFERENCES players(player_id),
			PRIMARY KEY (event_id, role)
		);

		CREATE INDEX IF NOT EXISTS idx_events_clutch ON events(is_clutch, game_id);
		CREATE INDEX IF NOT EXISTS idx_performed_player ON performed(player_id);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: initialize schema: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *SQLiteStore) PutGame(ctx context.Context, g model.Game) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO games (game_id, home_team, visitor_team) VALUES (?, ?, ?)
		ON CONFLICT(game_id) DO NOTHING
	`, g.ID, g.HomeTeam, g.VisitorTeam)
	if err != nil {
		return fmt.Errorf("put game %s: %w", g.ID, err)
	}
	return nil
}

func (s *SQLiteStore) PutPlayer(ctx context.Context, p model.Player) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (player_id, name) VALUES (?, ?)
		ON CONFLICT(player_id) DO NOTHING
	`, p.ID, p.Name)
	if err != nil {
		return fmt.Errorf("put player %s: %w", p.ID, err)
	}
	return nil
}

func (s *SQLiteStore) PutEvent(ctx context.Context, ev model.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (
			event_id, game_id, event_num, event_type, period, seconds_left,
			score_home, score_visitor, score_margin, home_desc, visit_desc, is_clutch
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO NOTHING
	`, ev.ID, ev.GameID, ev.Num, ev.Type.String(), ev.Period, ev.SecondsLeft,
		ev.Score.Home, ev.Score.Visitor, ev.Margin,
		nullString(ev.HomeDesc), nullString(ev.VisitDesc), sqlValue(ev.IsClutch))
	if err != nil {
		return fmt.Errorf("put event %s: %w", ev.ID, err)
	}
	return nil
}

func (s *SQLiteStore) PutPerformed(ctx context.Context, playerID, eventID string, role model.Role) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO performed (event_id, role, player_id) VALUES (?, ?, ?)
	`, eventID, string(role), playerID)
	if err != nil {
		return fmt.Errorf("put performed %s/%s: %w", eventID, role, err)
	}
	return nil
}

// Query renders q to SQL and scans every row into a tuple keyed by alias.
func (s *SQLiteStore) Query(ctx context.Context, q query.Query) ([]query.Tuple, error) {
	stmt, args, err := RenderSQL(q)
	if err != nil {
		return nil, err
	}

	boolAliases := make(map[string]bool)
	for _, p := range q.Return {
		if p.Prop == model.PropIsClutch {
			boolAliases[p.Alias] = true
		}
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResult, err)
	}

	var tuples []query.Tuple
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedResult, err)
		}
		t := make(query.Tuple, len(cols))
		for i, c := range cols {
			v := vals[i]
			if raw, ok := v.([]byte); ok {
				v = string(raw)
			}
			if boolAliases[c] {
				n, _ := query.Number(v)
				v = n != 0
			}
			t[c] = v
		}
		tuples = append(tuples, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResult, err)
	}
	s.log.Debug(ctx, "sqlite query", logger.String("template", q.Template), logger.Int("tuples", len(tuples)))
	return tuples, nil
}

func (s *SQLiteStore) Close(_ context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
