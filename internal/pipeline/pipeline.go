// Package pipeline orchestrates one scout run: extract candidates from
// every registered competitor, classify each new candidate, and persist
// the resulting briefings.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lokeshkumar99/ai-competition-scout/internal/enrich"
	"github.com/lokeshkumar99/ai-competition-scout/internal/extract"
	"github.com/lokeshkumar99/ai-competition-scout/internal/model"
	"github.com/lokeshkumar99/ai-competition-scout/internal/registry"
	"github.com/lokeshkumar99/ai-competition-scout/internal/store"
)

// Briefer is the enrichment step. *enrich.Enricher satisfies it.
type Briefer interface {
	Brief(ctx context.Context, cand model.Candidate) (*model.Briefing, error)
}

// Options tunes one pipeline run.
type Options struct {
	// Pacing is the fixed delay between classifier calls. The free tier
	// allows 10 requests per minute, hence the 6 second default.
	Pacing time.Duration

	// ConnectRetries is how many times the store ping is attempted
	// before the run is aborted.
	ConnectRetries int
}

// Pipeline wires the extractors, the enricher, and the store together.
// Candidates are processed strictly sequentially in discovery order.
type Pipeline struct {
	store      store.Store
	reg        *registry.Registry
	extractors map[string]extract.Extractor
	briefer    Briefer
	opts       Options
}

// New builds a Pipeline. The extractors map is keyed by competitor name
// and must cover every competitor in the registry.
func New(st store.Store, reg *registry.Registry, extractors map[string]extract.Extractor, briefer Briefer, opts Options) (*Pipeline, error) {
	if opts.Pacing <= 0 {
		opts.Pacing = 6 * time.Second
	}
	if opts.ConnectRetries <= 0 {
		opts.ConnectRetries = 3
	}
	for _, c := range reg.All() {
		if _, ok := extractors[c.Name]; !ok {
			return nil, eris.Errorf("pipeline: no extractor for competitor %s", c.Name)
		}
	}
	return &Pipeline{
		store:      st,
		reg:        reg,
		extractors: extractors,
		briefer:    briefer,
		opts:       opts,
	}, nil
}

// Run executes one full pass and returns its summary. A store that cannot
// be reached aborts the run; everything else degrades per competitor or
// per candidate.
func (p *Pipeline) Run(ctx context.Context) (*model.RunSummary, error) {
	started := time.Now().UTC()
	summary := &model.RunSummary{StartedAt: started}

	if err := p.pingStore(ctx); err != nil {
		return nil, err
	}

	candidates := p.discover(ctx)
	summary.Discovered = len(candidates)
	if len(candidates) == 0 {
		zap.L().Info("pipeline: no new features found")
		summary.Duration = time.Since(started).Milliseconds()
		return summary, nil
	}
	zap.L().Info("pipeline: processing new candidates",
		zap.Int("count", len(candidates)),
	)

	limiter := rate.NewLimiter(rate.Every(p.opts.Pacing), 1)
	for _, cand := range candidates {
		if err := limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "pipeline: run canceled")
		}

		briefing, err := p.briefer.Brief(ctx, cand)
		if err != nil {
			p.recordFailure(summary, cand, err)
			continue
		}
		if err := p.store.SaveBriefing(ctx, briefing); err != nil {
			p.recordFailure(summary, cand, err)
			continue
		}
		summary.Briefed++
		zap.L().Info("pipeline: briefing saved",
			zap.String("identifier", briefing.Identifier),
			zap.String("product_line", string(briefing.ProductLine)),
		)
	}

	summary.Duration = time.Since(started).Milliseconds()
	zap.L().Info("pipeline: run finished",
		zap.Int("discovered", summary.Discovered),
		zap.Int("briefed", summary.Briefed),
		zap.Int("failed", len(summary.Failed)),
		zap.Int64("duration_ms", summary.Duration),
	)
	return summary, nil
}

// pingStore verifies store connectivity before any scraping happens,
// retrying with a short backoff.
func (p *Pipeline) pingStore(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= p.opts.ConnectRetries; attempt++ {
		if err = p.store.Ping(ctx); err == nil {
			return nil
		}
		zap.L().Warn("pipeline: store ping failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.opts.ConnectRetries),
			zap.Error(err),
		)
		if attempt < p.opts.ConnectRetries {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return eris.Wrap(ctx.Err(), "pipeline: run canceled")
			}
		}
	}
	return eris.Wrap(err, "pipeline: store unreachable")
}

// discover walks the registry in order and collects candidates from each
// competitor. One competitor failing does not stop the others.
func (p *Pipeline) discover(ctx context.Context) []model.Candidate {
	var candidates []model.Candidate
	for _, c := range p.reg.All() {
		zap.L().Info("pipeline: processing competitor",
			zap.String("competitor", c.Name),
			zap.String("url", c.URL),
		)
		found, err := p.extractors[c.Name].Extract(ctx, c.URL)
		if err != nil {
			zap.L().Error("pipeline: extraction failed",
				zap.String("competitor", c.Name),
				zap.Error(err),
			)
			continue
		}
		candidates = append(candidates, found...)
	}
	return candidates
}

func (p *Pipeline) recordFailure(summary *model.RunSummary, cand model.Candidate, err error) {
	reason := "briefing failed"
	switch {
	case errors.Is(err, enrich.ErrClassifierUnavailable):
		reason = "classifier unavailable"
	case errors.Is(err, enrich.ErrMalformedResponse):
		reason = "malformed classifier response"
	}
	summary.Failed = append(summary.Failed, model.FailedCandidate{
		Identifier: cand.Identifier,
		Reason:     reason,
	})
	zap.L().Error("pipeline: candidate failed",
		zap.String("identifier", cand.Identifier),
		zap.String("reason", reason),
		zap.Error(err),
	)
}
