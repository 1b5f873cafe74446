package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokeshkumar99/ai-competition-scout/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func testBriefing() *model.Briefing {
	return &model.Briefing{
		Identifier:    "Braze - June 2025 - https://www.braze.com/docs/a",
		Competitor:    "Braze",
		ProductLine:   model.ProductLineMLAI,
		FeatureUpdate: "Smart Recommendations",
		Summary:       "Ranks catalog items per user.",
		PMAnalysis:    "Catch-up feature.",
		SourceURL:     "https://www.braze.com/docs/a",
	}
}

func TestPostgresStore_IsProcessed(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("Braze - June 2025 - https://www.braze.com/docs/a").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	processed, err := s.IsProcessed(context.Background(), "Braze - June 2025 - https://www.braze.com/docs/a")
	require.NoError(t, err)
	assert.True(t, processed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_IsProcessed_New(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("Iterable - June 2025 - Quiet Hours").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	processed, err := s.IsProcessed(context.Background(), "Iterable - June 2025 - Quiet Hours")
	require.NoError(t, err)
	assert.False(t, processed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_IsProcessed_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("id").
		WillReturnError(eris.New("connection refused"))

	_, err := s.IsProcessed(context.Background(), "id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check identifier")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveBriefing_Insert(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	b := testBriefing()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(b.Identifier).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO briefings`).
		WithArgs(pgxmock.AnyArg(), b.Identifier, "Braze", "ML or AI", "Smart Recommendations",
			"Ranks catalog items per user.", "Catch-up feature.", "https://www.braze.com/docs/a", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := s.SaveBriefing(context.Background(), b)
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.False(t, b.ProcessedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveBriefing_DuplicateIsNoop(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	b := testBriefing()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(b.Identifier).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectCommit()

	err := s.SaveBriefing(context.Background(), b)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveBriefing_LostRaceIsNoop(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	b := testBriefing()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(b.Identifier).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO briefings`).
		WithArgs(pgxmock.AnyArg(), b.Identifier, "Braze", "ML or AI", "Smart Recommendations",
			"Ranks catalog items per user.", "Catch-up feature.", "https://www.braze.com/docs/a", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectCommit()

	err := s.SaveBriefing(context.Background(), b)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveBriefing_InsertErrorRollsBack(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	b := testBriefing()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(b.Identifier).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO briefings`).
		WithArgs(pgxmock.AnyArg(), b.Identifier, "Braze", "ML or AI", "Smart Recommendations",
			"Ranks catalog items per user.", "Catch-up feature.", "https://www.braze.com/docs/a", pgxmock.AnyArg()).
		WillReturnError(eris.New("disk full"))
	mock.ExpectRollback()

	err := s.SaveBriefing(context.Background(), b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert briefing")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SearchBriefings(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{
		"id", "processed_identifier", "competitor", "product_line",
		"feature_update", "summary", "pm_analysis", "source_url", "processed_at",
	}).AddRow(
		"b1", "Braze - June 2025 - https://www.braze.com/docs/a", "Braze", "ML or AI",
		"Smart Recommendations", "s", "p", "https://www.braze.com/docs/a", now,
	)

	mock.ExpectQuery(`SELECT .+ FROM briefings WHERE competitor ILIKE \$1 AND product_line ILIKE \$2 ORDER BY processed_at DESC`).
		WithArgs("%Braze%", "%ML or AI%").
		WillReturnRows(rows)

	got, err := s.SearchBriefings(context.Background(), SearchFilter{
		Competitor:  "Braze",
		ProductLine: "ML or AI",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b1", got[0].ID)
	assert.Equal(t, model.ProductLineMLAI, got[0].ProductLine)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SearchBriefings_NoFilter(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM briefings ORDER BY processed_at DESC`).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "processed_identifier", "competitor", "product_line",
			"feature_update", "summary", "pm_analysis", "source_url", "processed_at",
		}))

	got, err := s.SearchBriefings(context.Background(), SearchFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SearchBriefings_Limit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT .+ FROM briefings ORDER BY processed_at DESC LIMIT \$1`).
		WithArgs(5).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "processed_identifier", "competitor", "product_line",
			"feature_update", "summary", "pm_analysis", "source_url", "processed_at",
		}))

	_, err := s.SearchBriefings(context.Background(), SearchFilter{Limit: 5})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
