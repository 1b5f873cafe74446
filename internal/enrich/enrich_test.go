package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lokeshkumar99/ai-competition-scout/internal/model"
	"github.com/lokeshkumar99/ai-competition-scout/internal/registry"
	"github.com/lokeshkumar99/ai-competition-scout/pkg/anthropic"
)

// fakeClassifier returns a canned reply and records the last request.
type fakeClassifier struct {
	reply   string
	err     error
	lastReq anthropic.MessageRequest
	calls   int
}

func (f *fakeClassifier) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: f.reply}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}, nil
}

// fakeDetailRenderer serves detail pages for deep-scrape tests.
type fakeDetailRenderer struct {
	pages map[string]string
	err   error
}

func (f *fakeDetailRenderer) Name() string { return "fake" }

func (f *fakeDetailRenderer) Render(ctx context.Context, url string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.pages[url], nil
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New([]registry.Competitor{
		{Name: "Braze", URL: "https://www.braze.com/docs/help/release_notes/2025", Variant: registry.VariantMonthlyIndex, DeepScrape: true},
		{Name: "Iterable", URL: "https://support.iterable.com/notes", Variant: registry.VariantFlatNotes},
	})
	require.NoError(t, err)
	return reg
}

func iterableCandidate() model.Candidate {
	return model.Candidate{
		Identifier: "Iterable - June 2025 - Journey Insights",
		Context:    "Month: June 2025\nFeature: Journey Insights\n\nSummary: See conversion per journey step.",
		SourceURL:  "https://support.iterable.com/hc/articles/y",
		Competitor: "Iterable",
	}
}

func TestBriefSuccess(t *testing.T) {
	ai := &fakeClassifier{reply: `{"COMPETITOR": "Iterable", "PRODUCT_LINE": "Flows", "FEATURE_UPDATE": "Journey Insights", "SUMMARY": "Per-step conversion reporting.", "PM_ANALYSIS": "Catch-up to our Flows analytics."}`}
	e := New(ai, &fakeDetailRenderer{}, testRegistry(t), "claude-haiku-4-5-20251001", 1024, time.Minute)

	got, err := e.Brief(context.Background(), iterableCandidate())
	require.NoError(t, err)

	assert.Equal(t, "Iterable - June 2025 - Journey Insights", got.Identifier)
	assert.Equal(t, "Iterable", got.Competitor)
	assert.Equal(t, model.ProductLineFlows, got.ProductLine)
	assert.Equal(t, "Journey Insights", got.FeatureUpdate)
	assert.Equal(t, "Per-step conversion reporting.", got.Summary)
	assert.Equal(t, "Catch-up to our Flows analytics.", got.PMAnalysis)
	assert.Equal(t, "https://support.iterable.com/hc/articles/y", got.SourceURL)
	assert.Empty(t, got.ID)
	assert.True(t, got.ProcessedAt.IsZero())

	// System prompt goes out as a cached block, article text as the user turn.
	require.Len(t, ai.lastReq.System, 1)
	assert.NotNil(t, ai.lastReq.System[0].CacheControl)
	require.Len(t, ai.lastReq.Messages, 1)
	assert.Contains(t, ai.lastReq.Messages[0].Content, "Journey Insights")

	assert.Equal(t, int64(100), e.Usage().InputTokens)
}

func TestBriefFencedReply(t *testing.T) {
	ai := &fakeClassifier{reply: "```json\n{\"PRODUCT_LINE\": \"Email\", \"FEATURE_UPDATE\": \"Send Time AI\", \"SUMMARY\": \"s\", \"PM_ANALYSIS\": \"p\"}\n```"}
	e := New(ai, &fakeDetailRenderer{}, testRegistry(t), "m", 1024, time.Minute)

	got, err := e.Brief(context.Background(), iterableCandidate())
	require.NoError(t, err)
	assert.Equal(t, model.ProductLineEmail, got.ProductLine)
}

func TestBriefArrayReplyUnwrapped(t *testing.T) {
	ai := &fakeClassifier{reply: `[{"PRODUCT_LINE": "Push", "FEATURE_UPDATE": "Silent Push", "SUMMARY": "s", "PM_ANALYSIS": "p"}]`}
	e := New(ai, &fakeDetailRenderer{}, testRegistry(t), "m", 1024, time.Minute)

	got, err := e.Brief(context.Background(), iterableCandidate())
	require.NoError(t, err)
	assert.Equal(t, model.ProductLinePush, got.ProductLine)
	assert.Equal(t, "Silent Push", got.FeatureUpdate)
}

func TestBriefMalformed(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "I could not classify this update, sorry."},
		{"empty array", "[]"},
		{"unknown product line", `{"PRODUCT_LINE": "Blockchain", "FEATURE_UPDATE": "f", "SUMMARY": "s", "PM_ANALYSIS": "p"}`},
		{"missing feature update", `{"PRODUCT_LINE": "Push", "SUMMARY": "s", "PM_ANALYSIS": "p"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ai := &fakeClassifier{reply: tt.reply}
			e := New(ai, &fakeDetailRenderer{}, testRegistry(t), "m", 1024, time.Minute)

			_, err := e.Brief(context.Background(), iterableCandidate())
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestBriefClassifierDown(t *testing.T) {
	ai := &fakeClassifier{err: eris.New("api: 529 overloaded")}
	e := New(ai, &fakeDetailRenderer{}, testRegistry(t), "m", 1024, time.Minute)

	_, err := e.Brief(context.Background(), iterableCandidate())
	assert.ErrorIs(t, err, ErrClassifierUnavailable)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
}

func TestBriefDeepScrape(t *testing.T) {
	detailHTML := `<html><body>
<div id="article-main">
  <div id="breadcrumb"><a href="/docs/">Docs</a></div>
  <p>Smart Recommendations ranks catalog items per user.</p>
  <div id="bottom_nav">Next article</div>
</div>
</body></html>`

	ai := &fakeClassifier{reply: `{"PRODUCT_LINE": "ML or AI", "FEATURE_UPDATE": "Smart Recommendations", "SUMMARY": "s", "PM_ANALYSIS": "p"}`}
	renderer := &fakeDetailRenderer{pages: map[string]string{
		"https://www.braze.com/docs/a": detailHTML,
	}}
	e := New(ai, renderer, testRegistry(t), "m", 1024, time.Minute)

	cand := model.Candidate{
		Identifier:  "Braze - June 2025 - https://www.braze.com/docs/a",
		Context:     "Feature: Smart Recommendations\n\nSummary: Surface the best products per user.",
		SourceURL:   "https://www.braze.com/docs/a",
		DetailLinks: []string{"https://www.braze.com/docs/a"},
		Competitor:  "Braze",
	}

	_, err := e.Brief(context.Background(), cand)
	require.NoError(t, err)

	user := ai.lastReq.Messages[0].Content
	assert.Contains(t, user, "### DETAILED_ARTICLE")
	assert.Contains(t, user, "Smart Recommendations ranks catalog items per user.")
	assert.NotContains(t, user, "Next article")
	assert.NotContains(t, user, "Docs")
}

func TestBriefDeepScrapeFetchFailureDegrades(t *testing.T) {
	ai := &fakeClassifier{reply: `{"PRODUCT_LINE": "Push", "FEATURE_UPDATE": "f", "SUMMARY": "s", "PM_ANALYSIS": "p"}`}
	renderer := &fakeDetailRenderer{err: errors.New("browser crashed")}
	e := New(ai, renderer, testRegistry(t), "m", 1024, time.Minute)

	cand := model.Candidate{
		Identifier:  "Braze - June 2025 - https://www.braze.com/docs/a",
		Context:     "Feature: f\n\nSummary: s",
		DetailLinks: []string{"https://www.braze.com/docs/a"},
		Competitor:  "Braze",
	}

	_, err := e.Brief(context.Background(), cand)
	require.NoError(t, err)
	assert.Contains(t, ai.lastReq.Messages[0].Content, "WARNING: Content could not be loaded")
}

func TestBriefNoDeepScrapeForIterable(t *testing.T) {
	ai := &fakeClassifier{reply: `{"PRODUCT_LINE": "Push", "FEATURE_UPDATE": "f", "SUMMARY": "s", "PM_ANALYSIS": "p"}`}
	renderer := &fakeDetailRenderer{err: errors.New("must not be called")}
	e := New(ai, renderer, testRegistry(t), "m", 1024, time.Minute)

	cand := iterableCandidate()
	cand.DetailLinks = []string{"https://support.iterable.com/hc/articles/y"}

	_, err := e.Brief(context.Background(), cand)
	require.NoError(t, err)
	assert.NotContains(t, ai.lastReq.Messages[0].Content, "DETAILED_ARTICLE")
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced no lang", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose around object", `Here you go: {"a": 1} hope that helps`, `{"a": 1}`},
		{"array", `[{"a": 1}]`, `[{"a": 1}]`},
		{"no json", "sorry, no", ""},
		{"unterminated", `{"a": 1`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.in))
		})
	}
}
