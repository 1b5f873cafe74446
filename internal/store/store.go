// Package store persists briefings. Two backends are provided: Postgres
// via pgxpool for deployments and SQLite via modernc.org/sqlite for
// single-machine use.
package store

import (
	"context"

	"github.com/lokeshkumar99/ai-competition-scout/internal/model"
)

// SearchFilter specifies criteria for searching briefings. Empty fields
// match everything; Competitor and ProductLine match case-insensitively
// on substrings.
type SearchFilter struct {
	Competitor  string `json:"competitor,omitempty"`
	ProductLine string `json:"product_line,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

// Store defines the persistence interface for the scout pipeline.
type Store interface {
	// Dedup and briefings
	IsProcessed(ctx context.Context, identifier string) (bool, error)
	SaveBriefing(ctx context.Context, b *model.Briefing) error
	SearchBriefings(ctx context.Context, filter SearchFilter) ([]model.Briefing, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
