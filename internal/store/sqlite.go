package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/lokeshkumar99/ai-competition-scout/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS briefings (
	id                   TEXT PRIMARY KEY,
	processed_identifier TEXT NOT NULL UNIQUE,
	competitor           TEXT NOT NULL,
	product_line         TEXT NOT NULL,
	feature_update       TEXT NOT NULL,
	summary              TEXT NOT NULL DEFAULT '',
	pm_analysis          TEXT NOT NULL DEFAULT '',
	source_url           TEXT NOT NULL DEFAULT '',
	processed_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_briefings_competitor ON briefings(competitor);
CREATE INDEX IF NOT EXISTS idx_briefings_product_line ON briefings(product_line);
CREATE INDEX IF NOT EXISTS idx_briefings_processed_at ON briefings(processed_at);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) IsProcessed(ctx context.Context, identifier string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM briefings WHERE processed_identifier = ?)`,
		identifier,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: check identifier %s", identifier)
	}
	return exists, nil
}

// SaveBriefing inserts one briefing. INSERT OR IGNORE against the unique
// identifier column makes repeated saves a no-op. Assigns b.ID and
// b.ProcessedAt when unset.
func (s *SQLiteStore) SaveBriefing(ctx context.Context, b *model.Briefing) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.ProcessedAt.IsZero() {
		b.ProcessedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO briefings (id, processed_identifier, competitor, product_line, feature_update, summary, pm_analysis, source_url, processed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Identifier, b.Competitor, string(b.ProductLine), b.FeatureUpdate, b.Summary, b.PMAnalysis, b.SourceURL, b.ProcessedAt,
	)
	return eris.Wrapf(err, "sqlite: insert briefing %s", b.Identifier)
}

func (s *SQLiteStore) SearchBriefings(ctx context.Context, filter SearchFilter) ([]model.Briefing, error) {
	query := `SELECT id, processed_identifier, competitor, product_line, feature_update, summary, pm_analysis, source_url, processed_at FROM briefings`
	var conds []string
	var args []any

	if filter.Competitor != "" {
		conds = append(conds, "LOWER(competitor) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.Competitor)+"%")
	}
	if filter.ProductLine != "" {
		conds = append(conds, "LOWER(product_line) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.ProductLine)+"%")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY processed_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: search briefings")
	}
	defer rows.Close()

	var out []model.Briefing
	for rows.Next() {
		var b model.Briefing
		var line string
		if err := rows.Scan(&b.ID, &b.Identifier, &b.Competitor, &line, &b.FeatureUpdate, &b.Summary, &b.PMAnalysis, &b.SourceURL, &b.ProcessedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan briefing")
		}
		b.ProductLine = model.ProductLine(line)
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: search briefings")
}
