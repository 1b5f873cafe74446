package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokeshkumar99/ai-competition-scout/internal/model"
	"github.com/lokeshkumar99/ai-competition-scout/internal/store"
)

// fakeStore returns canned briefings and records the last filter.
type fakeStore struct {
	briefings  []model.Briefing
	err        error
	lastFilter store.SearchFilter
}

func (f *fakeStore) Ping(ctx context.Context) error    { return nil }
func (f *fakeStore) Migrate(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                      { return nil }

func (f *fakeStore) IsProcessed(ctx context.Context, identifier string) (bool, error) {
	return false, nil
}

func (f *fakeStore) SaveBriefing(ctx context.Context, b *model.Briefing) error { return nil }

func (f *fakeStore) SearchBriefings(ctx context.Context, filter store.SearchFilter) ([]model.Briefing, error) {
	f.lastFilter = filter
	return f.briefings, f.err
}

type searchResponse struct {
	Briefings []model.Briefing `json:"briefings"`
	Count     int              `json:"count"`
}

func doSearch(t *testing.T, st store.Store, target string) (*httptest.ResponseRecorder, searchResponse) {
	t.Helper()
	srv := NewServer(st)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var body searchResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	srv := NewServer(&fakeStore{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSearch(t *testing.T) {
	st := &fakeStore{briefings: []model.Briefing{
		{ID: "b1", Competitor: "Braze", ProductLine: model.ProductLineMLAI},
	}}

	rec, body := doSearch(t, st, "/briefings/search?competitor=Braze&product_line=ML+or+AI")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Briefings, 1)
	assert.Equal(t, "b1", body.Briefings[0].ID)

	assert.Equal(t, "Braze", st.lastFilter.Competitor)
	assert.Equal(t, "ML or AI", st.lastFilter.ProductLine)
}

func TestSearchAllMeansNoFilter(t *testing.T) {
	st := &fakeStore{}

	rec, _ := doSearch(t, st, "/briefings/search?competitor=All&product_line=All")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, st.lastFilter.Competitor)
	assert.Empty(t, st.lastFilter.ProductLine)
}

func TestSearchEmptyResultIsArray(t *testing.T) {
	rec, body := doSearch(t, &fakeStore{}, "/briefings/search")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, body.Count)
	assert.NotNil(t, body.Briefings)
	assert.Contains(t, rec.Body.String(), `"briefings":[]`)
}

func TestSearchLimit(t *testing.T) {
	st := &fakeStore{}

	rec, _ := doSearch(t, st, "/briefings/search?limit=25")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 25, st.lastFilter.Limit)

	rec, _ = doSearch(t, st, "/briefings/search?limit=banana")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchStoreError(t *testing.T) {
	st := &fakeStore{err: eris.New("connection refused")}

	rec, _ := doSearch(t, st, "/briefings/search")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"search failed"}`, rec.Body.String())
}

func TestProductLines(t *testing.T) {
	srv := NewServer(&fakeStore{})
	req := httptest.NewRequest(http.MethodGet, "/briefings/product-lines", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ProductLines []string `json:"product_lines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.ProductLines, 20)
	assert.Contains(t, body.ProductLines, "Web Personalization (WebP)")
}
