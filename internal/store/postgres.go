package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lokeshkumar99/ai-competition-scout/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection.
// The dedup check runs once per discovered candidate, so it dominates.
var preparedStatements = map[string]string{
	"briefing_exists": `SELECT EXISTS (SELECT 1 FROM briefings WHERE processed_identifier = $1)`,
	"insert_briefing": `INSERT INTO briefings (id, processed_identifier, competitor, product_line, feature_update, summary, pm_analysis, source_url, processed_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT (processed_identifier) DO NOTHING`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS briefings (
	id                   TEXT PRIMARY KEY,
	processed_identifier TEXT NOT NULL UNIQUE,
	competitor           TEXT NOT NULL,
	product_line         TEXT NOT NULL,
	feature_update       TEXT NOT NULL,
	summary              TEXT NOT NULL DEFAULT '',
	pm_analysis          TEXT NOT NULL DEFAULT '',
	source_url           TEXT NOT NULL DEFAULT '',
	processed_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_briefings_competitor ON briefings(competitor);
CREATE INDEX IF NOT EXISTS idx_briefings_product_line ON briefings(product_line);
CREATE INDEX IF NOT EXISTS idx_briefings_processed_at ON briefings(processed_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) IsProcessed(ctx context.Context, identifier string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM briefings WHERE processed_identifier = $1)`,
		identifier,
	).Scan(&exists)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: check identifier %s", identifier)
	}
	return exists, nil
}

// SaveBriefing inserts one briefing. The identifier is re-checked inside
// the transaction and the insert carries ON CONFLICT DO NOTHING, so a
// concurrent writer cannot produce a duplicate; losing the race is not an
// error. Assigns b.ID and b.ProcessedAt when unset.
func (s *PostgresStore) SaveBriefing(ctx context.Context, b *model.Briefing) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.ProcessedAt.IsZero() {
		b.ProcessedAt = time.Now().UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM briefings WHERE processed_identifier = $1)`,
		b.Identifier,
	).Scan(&exists)
	if err != nil {
		return eris.Wrapf(err, "postgres: recheck identifier %s", b.Identifier)
	}
	if exists {
		zap.L().Debug("store: briefing already saved",
			zap.String("identifier", b.Identifier),
		)
		return tx.Commit(ctx)
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO briefings (id, processed_identifier, competitor, product_line, feature_update, summary, pm_analysis, source_url, processed_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT (processed_identifier) DO NOTHING`,
		b.ID, b.Identifier, b.Competitor, string(b.ProductLine), b.FeatureUpdate, b.Summary, b.PMAnalysis, b.SourceURL, b.ProcessedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert briefing %s", b.Identifier)
	}
	if tag.RowsAffected() == 0 {
		zap.L().Debug("store: lost insert race",
			zap.String("identifier", b.Identifier),
		)
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit")
}

func (s *PostgresStore) SearchBriefings(ctx context.Context, filter SearchFilter) ([]model.Briefing, error) {
	query := `SELECT id, processed_identifier, competitor, product_line, feature_update, summary, pm_analysis, source_url, processed_at FROM briefings`
	var conds []string
	var args []any

	if filter.Competitor != "" {
		args = append(args, "%"+filter.Competitor+"%")
		conds = append(conds, fmt.Sprintf("competitor ILIKE $%d", len(args)))
	}
	if filter.ProductLine != "" {
		args = append(args, "%"+filter.ProductLine+"%")
		conds = append(conds, fmt.Sprintf("product_line ILIKE $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY processed_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search briefings")
	}
	defer rows.Close()

	var out []model.Briefing
	for rows.Next() {
		var b model.Briefing
		var line string
		if err := rows.Scan(&b.ID, &b.Identifier, &b.Competitor, &line, &b.FeatureUpdate, &b.Summary, &b.PMAnalysis, &b.SourceURL, &b.ProcessedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan briefing")
		}
		b.ProductLine = model.ProductLine(line)
		out = append(out, b)
	}
	return out, eris.Wrap(rows.Err(), "postgres: search briefings")
}
