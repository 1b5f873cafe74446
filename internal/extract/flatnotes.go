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

// flatNotesContentSelector locates the article body inside the help-center
// page shell (Iterable release notes).
const flatNotesContentSelector = "article.article section.article-info div.article-content div.article-body main.page div.theme-default-content"

// flatNotesChrome lists non-content widgets removed before the walk.
var flatNotesChrome = []string{
	"div.table-of-contents",
	"div.article-footer",
	"div.article-votes",
	"div.article-more-questions",
	"div.article-return-to-top",
	"section.article-relatives",
}

// FlatNotes extracts sites that publish a single long document where h2
// headings mark time periods and h3 headings mark features. A feature's
// body is everything between its heading and the next heading of either
// level.
type FlatNotes struct {
	competitor string
	renderer   fetch.Renderer
	gate       Gate
}

// NewFlatNotes builds the extractor for one competitor.
func NewFlatNotes(competitor string, renderer fetch.Renderer, gate Gate) *FlatNotes {
	return &FlatNotes{competitor: competitor, renderer: renderer, gate: gate}
}

func (e *FlatNotes) Competitor() string { return e.competitor }

func (e *FlatNotes) Extract(ctx context.Context, pageURL string) ([]model.Candidate, error) {
	html, err := e.renderer.Render(ctx, pageURL)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: %s: fetch %s", e.competitor, pageURL)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrapf(err, "extract: %s: parse %s", e.competitor, pageURL)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: %s: bad url %s", e.competitor, pageURL)
	}

	content := doc.Find(flatNotesContentSelector).First()
	if content.Length() == 0 {
		zap.L().Warn("extract: content container not found",
			zap.String("competitor", e.competitor),
			zap.String("url", pageURL),
		)
		return nil, nil
	}
	removeNodes(content, flatNotesChrome...)

	var candidates []model.Candidate
	period := ""
	content.Find("h2, h3").Each(func(_ int, heading *goquery.Selection) {
		if heading.Is("h2") {
			period = collapseText(heading.Text())
			return
		}
		// h3 features before the first h2 have no period and are skipped.
		if period == "" {
			return
		}

		title := collapseText(heading.Text())
		identifier := fmt.Sprintf("%s - %s - %s", e.competitor, period, title)
		if seen(ctx, e.gate, identifier) {
			return
		}

		parts, links := e.collectBody(heading, base)
		if len(parts) == 0 {
			return
		}

		links = dedupeKeepOrder(links)
		// The deepest, most specific link usually appears last in these
		// documents; keep that heuristic from the source material.
		sourceURL := pageURL + "#" + strings.ToLower(strings.ReplaceAll(title, " ", "_"))
		if len(links) > 0 {
			sourceURL = links[len(links)-1]
		}

		zap.L().Info("extract: new candidate",
			zap.String("competitor", e.competitor),
			zap.String("feature", title),
			zap.String("identifier", identifier),
		)

		candidates = append(candidates, model.Candidate{
			Identifier:  identifier,
			Context:     fmt.Sprintf("Month: %s\nFeature: %s\n\nSummary: %s", period, title, strings.Join(parts, "\n")),
			SourceURL:   sourceURL,
			DetailLinks: links,
			Competitor:  e.competitor,
		})
	})
	return candidates, nil
}

// collectBody gathers text and links from the siblings following a feature
// heading, stopping at the next h2 or h3.
func (e *FlatNotes) collectBody(heading *goquery.Selection, base *url.URL) ([]string, []string) {
	var parts, links []string
	for sib := heading.Next(); sib.Length() > 0; sib = sib.Next() {
		if sib.Is("h2") || sib.Is("h3") {
			break
		}
		if text := collapseText(sib.Text()); text != "" {
			parts = append(parts, text)
		}
		sib.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			if href, ok := a.Attr("href"); ok {
				if abs := resolveURL(base, href); abs != "" {
					links = append(links, abs)
				}
			}
		})
	}
	return parts, links
}
