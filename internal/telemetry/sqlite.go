package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"

	"github.com/fyrsmithlabs/spr/internal/logging"
)

// SQLiteSink persists stage events locally. It backs the "spr stats"
// command. All methods are safe for concurrent use via an internal mutex.
type SQLiteSink struct {
	db     *sql.DB
	logger *logging.Logger
	mu     sync.Mutex
}

// NewSQLiteSink opens (and creates if needed) the event store at path.
// ":memory:" opens an in-memory store, used by tests.
func NewSQLiteSink(path string, logger *logging.Logger) (*SQLiteSink, error) {
	connStr := path
	if path == ":memory:" {
		// Shared cache so all pooled connections see the same database.
		connStr = "file::memory:?cache=shared"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create event store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping event store: %w", err)
	}

	// WAL keeps concurrent stats reads cheap; not valid for :memory:.
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &SQLiteSink{db: db, logger: logger}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteSink) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stage_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trace_id TEXT NOT NULL,
		span_id TEXT,
		pipeline TEXT NOT NULL,
		stage TEXT NOT NULL,
		document TEXT,
		started_at DATETIME NOT NULL,
		duration_ms REAL NOT NULL,
		input_words INTEGER NOT NULL DEFAULT 0,
		output_words INTEGER NOT NULL DEFAULT 0,
		ratio REAL NOT NULL DEFAULT 0,
		success INTEGER NOT NULL,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_stage_events_started ON stage_events(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_stage_events_stage ON stage_events(pipeline, stage);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Emit inserts the event. Failures are logged and dropped.
func (s *SQLiteSink) Emit(ctx context.Context, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	success := 0
	if ev.Success {
		success = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stage_events (
			trace_id, span_id, pipeline, stage, document,
			started_at, duration_ms, input_words, output_words, ratio,
			success, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ev.TraceID,
		ev.SpanID,
		ev.Pipeline,
		ev.Stage,
		ev.Document,
		ev.StartedAt.UTC(),
		float64(ev.Duration)/float64(time.Millisecond),
		ev.InputWords,
		ev.OutputWords,
		ev.Ratio,
		success,
		ev.Error,
	)
	if err != nil {
		s.logger.Warn(ctx, "dropping stage event",
			zap.String("sink", "sqlite"),
			zap.Error(err))
	}
}

// Close closes the store. Acquires the write lock so in-flight inserts
// finish first.
func (s *SQLiteSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// StageStats aggregates executions of one pipeline stage.
type StageStats struct {
	Pipeline   string
	Stage      string
	Count      int64
	Failures   int64
	AvgMillis  float64
	MaxMillis  float64
	TotalWords int64
}

// Stats summarizes recorded events.
type Stats struct {
	Since     time.Time
	Events    int64
	Failures  int64
	Documents int64
	// AvgRatio averages the achieved compression ratio over events that
	// reported one.
	AvgRatio float64
	Stages   []StageStats
}

// Stats aggregates events recorded at or after since.
func (s *SQLiteSink) Stats(ctx context.Context, since time.Time) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &Stats{Since: since}
	since = since.UTC()

	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(1 - success), 0),
		       COUNT(DISTINCT trace_id),
		       COALESCE(AVG(CASE WHEN ratio > 0 THEN ratio END), 0)
		FROM stage_events
		WHERE started_at >= ?
	`, since)
	if err := row.Scan(&st.Events, &st.Failures, &st.Documents, &st.AvgRatio); err != nil {
		return nil, fmt.Errorf("aggregate events: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT pipeline, stage,
		       COUNT(*),
		       COALESCE(SUM(1 - success), 0),
		       COALESCE(AVG(duration_ms), 0),
		       COALESCE(MAX(duration_ms), 0),
		       COALESCE(SUM(output_words), 0)
		FROM stage_events
		WHERE started_at >= ?
		GROUP BY pipeline, stage
		ORDER BY pipeline, stage
	`, since)
	if err != nil {
		return nil, fmt.Errorf("aggregate stages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ss StageStats
		if err := rows.Scan(&ss.Pipeline, &ss.Stage, &ss.Count, &ss.Failures,
			&ss.AvgMillis, &ss.MaxMillis, &ss.TotalWords); err != nil {
			return nil, fmt.Errorf("scan stage row: %w", err)
		}
		st.Stages = append(st.Stages, ss)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage rows: %w", err)
	}

	return st, nil
}
