// Package fetch renders competitor pages to HTML. Release-note pages on
// these sites are JS-rendered, so the primary renderer drives a headless
// browser; a plain HTTP renderer serves as fallback and for tests.
package fetch

import "context"

// Renderer fetches a URL and returns the rendered HTML.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
	Name() string
}
