package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lokeshkumar99/ai-competition-scout/internal/fetch"
	"github.com/lokeshkumar99/ai-competition-scout/internal/model"
)

// MonthlyIndex extracts sites that publish a yearly index page linking to
// month-level sub-pages (Braze release notes). Each month page carries
// h3 feature headings followed by a description paragraph whose first link
// points at the feature's documentation.
type MonthlyIndex struct {
	competitor string
	renderer   fetch.Renderer
	gate       Gate
}

// NewMonthlyIndex builds the extractor for one competitor.
func NewMonthlyIndex(competitor string, renderer fetch.Renderer, gate Gate) *MonthlyIndex {
	return &MonthlyIndex{competitor: competitor, renderer: renderer, gate: gate}
}

func (e *MonthlyIndex) Competitor() string { return e.competitor }

// Extract walks the index page's month links and collects candidates from
// each month page. A failure on one month page is logged and does not
// abort the remaining pages.
func (e *MonthlyIndex) Extract(ctx context.Context, indexURL string) ([]model.Candidate, error) {
	html, err := e.renderer.Render(ctx, indexURL)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: %s: fetch index %s", e.competitor, indexURL)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrapf(err, "extract: %s: parse index %s", e.competitor, indexURL)
	}
	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: %s: bad index url %s", e.competitor, indexURL)
	}

	var monthURLs []string
	doc.Find("div#guide_list a[data-navlink]").Each(func(_ int, a *goquery.Selection) {
		if href, ok := a.Attr("href"); ok {
			if abs := resolveURL(base, href); abs != "" {
				monthURLs = append(monthURLs, abs)
			}
		}
	})
	if len(monthURLs) == 0 {
		zap.L().Warn("extract: no month links found",
			zap.String("competitor", e.competitor),
			zap.String("url", indexURL),
		)
		return nil, nil
	}

	var candidates []model.Candidate
	for _, monthURL := range monthURLs {
		monthCands, err := e.extractMonth(ctx, monthURL)
		if err != nil {
			zap.L().Warn("extract: month page failed",
				zap.String("competitor", e.competitor),
				zap.String("url", monthURL),
				zap.Error(err),
			)
			continue
		}
		candidates = append(candidates, monthCands...)
	}
	return candidates, nil
}

func (e *MonthlyIndex) extractMonth(ctx context.Context, monthURL string) ([]model.Candidate, error) {
	html, err := e.renderer.Render(ctx, monthURL)
	if err != nil {
		return nil, eris.Wrap(err, "fetch month page")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "parse month page")
	}
	base, err := url.Parse(monthURL)
	if err != nil {
		return nil, eris.Wrap(err, "bad month url")
	}

	month := collapseText(doc.Find("h1").First().Text())
	if month == "" {
		month = "Unknown Month"
	}

	container := doc.Find("div#article-main").First()
	if container.Length() == 0 {
		return nil, nil
	}
	removeNodes(container, "div#breadcrumb")

	var candidates []model.Candidate
	container.Find("h3").Each(func(_ int, heading *goquery.Selection) {
		desc := heading.NextAllFiltered("p").First()
		if desc.Length() == 0 {
			return
		}
		href, ok := desc.Find("a[href]").First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			// No resolvable detail link means non-feature content.
			return
		}
		detailURL := resolveURL(base, href)
		if detailURL == "" {
			return
		}

		identifier := fmt.Sprintf("%s - %s - %s", e.competitor, month, detailURL)
		if seen(ctx, e.gate, identifier) {
			return
		}

		name := collapseText(heading.Text())
		summary := collapseText(desc.Text())
		zap.L().Info("extract: new candidate",
			zap.String("competitor", e.competitor),
			zap.String("feature", name),
			zap.String("identifier", identifier),
		)

		candidates = append(candidates, model.Candidate{
			Identifier:  identifier,
			Context:     fmt.Sprintf("Feature: %s\n\nSummary: %s", name, summary),
			SourceURL:   detailURL,
			DetailLinks: []string{detailURL},
			Competitor:  e.competitor,
		})
	})
	return candidates, nil
}
