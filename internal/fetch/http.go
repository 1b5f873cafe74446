package fetch

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const maxBodyBytes = 10 << 20 // 10 MiB cap on fetched pages

// HTTPRenderer fetches pages over plain HTTP without script execution.
// It is the fallback when the browser is unavailable and the fixture
// renderer of choice in tests.
type HTTPRenderer struct {
	client    *http.Client
	userAgent string
}

// NewHTTPRenderer wires an HTTP client; a nil client gets a 30s timeout.
func NewHTTPRenderer(client *http.Client, userAgent string) *HTTPRenderer {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPRenderer{client: client, userAgent: userAgent}
}

func (h *HTTPRenderer) Name() string { return "http" }

func (h *HTTPRenderer) Render(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", eris.Wrapf(err, "fetch: build request %s", url)
	}
	if h.userAgent != "" {
		req.Header.Set("User-Agent", h.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "fetch: request %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("fetch: %s returned %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", eris.Wrapf(err, "fetch: read body %s", url)
	}
	return string(body), nil
}
