// Package enrich turns candidates into briefings by scraping detail pages
// where configured and asking the classifier model for a structured
// intelligence summary.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lokeshkumar99/ai-competition-scout/internal/fetch"
	"github.com/lokeshkumar99/ai-competition-scout/internal/model"
	"github.com/lokeshkumar99/ai-competition-scout/internal/registry"
	"github.com/lokeshkumar99/ai-competition-scout/pkg/anthropic"
)

var (
	// ErrClassifierUnavailable marks transport or API failures. The
	// candidate was never classified and stays eligible for the next run.
	ErrClassifierUnavailable = eris.New("enrich: classifier unavailable")

	// ErrMalformedResponse marks a classifier reply that could not be
	// decoded into the briefing contract.
	ErrMalformedResponse = eris.New("enrich: malformed classifier response")
)

// classifierPayload mirrors the JSON contract the prompts mandate.
type classifierPayload struct {
	Competitor    string `json:"COMPETITOR"`
	ProductLine   string `json:"PRODUCT_LINE"`
	FeatureUpdate string `json:"FEATURE_UPDATE"`
	Summary       string `json:"SUMMARY"`
	PMAnalysis    string `json:"PM_ANALYSIS"`
}

// Enricher classifies candidates one at a time.
type Enricher struct {
	ai        anthropic.Client
	renderer  fetch.Renderer
	reg       *registry.Registry
	model     string
	maxTokens int64
	timeout   time.Duration
	usage     anthropic.TokenUsage
}

// New builds an Enricher. The renderer is used only for deep scraping of
// detail pages and may be a cheaper engine than the one used for index
// extraction.
func New(ai anthropic.Client, renderer fetch.Renderer, reg *registry.Registry, modelID string, maxTokens int64, timeout time.Duration) *Enricher {
	return &Enricher{
		ai:        ai,
		renderer:  renderer,
		reg:       reg,
		model:     modelID,
		maxTokens: maxTokens,
		timeout:   timeout,
	}
}

// Usage returns the token usage accumulated across all Brief calls.
func (e *Enricher) Usage() anthropic.TokenUsage { return e.usage }

// Brief classifies one candidate into a briefing. The returned briefing
// has no ID or timestamp; the store assigns both at insert time.
func (e *Enricher) Brief(ctx context.Context, cand model.Candidate) (*model.Briefing, error) {
	articleText := cand.Context
	if e.reg.DeepScrape(cand.Competitor) && len(cand.DetailLinks) > 0 {
		articleText += "\n\n### DETAILED_ARTICLE\n\n" + e.scrapeDetail(ctx, cand.DetailLinks[0])
	}

	system, user := buildPrompt(cand.Competitor, articleText)

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	resp, err := e.ai.CreateMessage(callCtx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		System:    anthropic.BuildCachedSystemBlocks(system),
		Messages: []anthropic.Message{
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		zap.L().Warn("enrich: classifier call failed",
			zap.String("identifier", cand.Identifier),
			zap.Error(err),
		)
		return nil, eris.Wrap(ErrClassifierUnavailable, err.Error())
	}
	e.usage.Add(resp.Usage)

	payload, err := e.decode(cand.Identifier, extractText(resp))
	if err != nil {
		return nil, err
	}

	line, ok := model.ParseProductLine(payload.ProductLine)
	if !ok {
		zap.L().Warn("enrich: classifier returned unknown product line",
			zap.String("identifier", cand.Identifier),
			zap.String("product_line", payload.ProductLine),
		)
		return nil, eris.Wrapf(ErrMalformedResponse, "product line %q", payload.ProductLine)
	}
	if strings.TrimSpace(payload.FeatureUpdate) == "" {
		return nil, eris.Wrap(ErrMalformedResponse, "empty feature update")
	}

	return &model.Briefing{
		Identifier:    cand.Identifier,
		Competitor:    cand.Competitor,
		ProductLine:   line,
		FeatureUpdate: strings.TrimSpace(payload.FeatureUpdate),
		Summary:       strings.TrimSpace(payload.Summary),
		PMAnalysis:    strings.TrimSpace(payload.PMAnalysis),
		SourceURL:     cand.SourceURL,
	}, nil
}

// decode parses the classifier reply. The model is asked for a single JSON
// object but occasionally replies with a one-element array; both shapes are
// accepted. Anything else is malformed.
func (e *Enricher) decode(identifier, text string) (*classifierPayload, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return nil, eris.Wrap(ErrMalformedResponse, "empty reply")
	}

	if strings.HasPrefix(cleaned, "[") {
		var items []classifierPayload
		if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
			return nil, eris.Wrap(ErrMalformedResponse, err.Error())
		}
		if len(items) == 0 {
			return nil, eris.Wrap(ErrMalformedResponse, "empty array reply")
		}
		if len(items) > 1 {
			zap.L().Warn("enrich: classifier returned multiple objects, using first",
				zap.String("identifier", identifier),
				zap.Int("count", len(items)),
			)
		}
		return &items[0], nil
	}

	var payload classifierPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, eris.Wrap(ErrMalformedResponse, err.Error())
	}
	return &payload, nil
}

// scrapeDetail fetches one detail page and returns its cleaned article
// text. Failures degrade to a warning string inside the prompt so the
// classifier still works off the index summary.
func (e *Enricher) scrapeDetail(ctx context.Context, detailURL string) string {
	html, err := e.renderer.Render(ctx, detailURL)
	if err != nil {
		zap.L().Warn("enrich: detail page fetch failed",
			zap.String("url", detailURL),
			zap.Error(err),
		)
		return fmt.Sprintf("WARNING: Content could not be loaded from %s.", detailURL)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Sprintf("WARNING: Content could not be loaded from %s.", detailURL)
	}

	container := doc.Find("div#article-main").First()
	if container.Length() == 0 {
		container = doc.Find("div#dev-main").First()
	}
	if container.Length() == 0 {
		return fmt.Sprintf("WARNING: Main content container not found on %s.", detailURL)
	}
	container.Find("div#breadcrumb, div#bottom_nav").Remove()
	return strings.Join(strings.Fields(container.Text()), " ")
}

// extractText concatenates all text content blocks from a message response.
func extractText(resp *anthropic.MessageResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// cleanJSON extracts a JSON object or array from text that may carry
// markdown code fences or surrounding prose.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}
	text = strings.TrimSpace(text)

	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		if end := strings.LastIndex(text, "]"); end > arrStart {
			return strings.TrimSpace(text[arrStart : end+1])
		}
		return ""
	}
	if objStart >= 0 {
		if end := strings.LastIndex(text, "}"); end > objStart {
			return strings.TrimSpace(text[objStart : end+1])
		}
		return ""
	}
	return ""
}
