package fetch

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Chain tries renderers in priority order, returning the first success.
type Chain struct {
	renderers []Renderer
}

// NewChain creates a Chain. Renderers are tried in order.
func NewChain(renderers ...Renderer) *Chain {
	return &Chain{renderers: renderers}
}

func (c *Chain) Name() string { return "chain" }

// Render tries each renderer until one returns content.
func (c *Chain) Render(ctx context.Context, url string) (string, error) {
	var lastErr error
	for _, r := range c.renderers {
		html, err := r.Render(ctx, url)
		if err == nil && html != "" {
			return html, nil
		}
		if err != nil {
			zap.L().Debug("fetch: renderer failed, trying next",
				zap.String("renderer", r.Name()),
				zap.String("url", url),
				zap.Error(err),
			)
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", eris.Wrapf(lastErr, "fetch: all renderers failed for %s", url)
	}
	return "", eris.Errorf("fetch: no renderer configured for %s", url)
}
