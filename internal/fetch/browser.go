package fetch

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// BrowserConfig tunes the headless browser renderer.
type BrowserConfig struct {
	Bin       string
	Headless  bool
	NoSandbox bool
	Timeout   time.Duration
	UserAgent string
}

// Browser renders pages through a headless Chromium instance so that
// client-side scripted content is present in the returned HTML.
type Browser struct {
	browser *rod.Browser
	cfg     BrowserConfig
	cleanup func()
}

// NewBrowser launches the browser and connects to it.
func NewBrowser(cfg BrowserConfig) (*Browser, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}

	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, eris.Wrap(err, "fetch: launch browser")
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, eris.Wrap(err, "fetch: connect browser")
	}
	zap.L().Info("fetch: browser launched", zap.String("control_url", controlURL))

	return &Browser{browser: browser, cfg: cfg, cleanup: l.Cleanup}, nil
}

func (b *Browser) Name() string { return "browser" }

// Render navigates to the URL, waits for the page to load and the DOM to
// settle, and returns the resulting HTML. The configured timeout bounds
// the whole interaction so a hung page fails the candidate, not the run.
func (b *Browser) Render(ctx context.Context, url string) (string, error) {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", eris.Wrapf(err, "fetch: open page for %s", url)
	}
	defer func() { _ = page.Close() }()

	page = page.Context(ctx).Timeout(b.cfg.Timeout)

	if b.cfg.UserAgent != "" {
		override := &proto.NetworkSetUserAgentOverride{UserAgent: b.cfg.UserAgent}
		if uaErr := page.SetUserAgent(override); uaErr != nil {
			zap.L().Debug("fetch: set user agent failed", zap.Error(uaErr))
		}
	}

	if err := page.Navigate(url); err != nil {
		return "", eris.Wrapf(err, "fetch: navigate %s", url)
	}
	if err := page.WaitLoad(); err != nil {
		return "", eris.Wrapf(err, "fetch: wait load %s", url)
	}
	// Settle dynamically inserted nodes; a page that keeps mutating is
	// rendered as-is rather than failed.
	if err := page.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		zap.L().Debug("fetch: dom did not stabilize, using current state",
			zap.String("url", url),
			zap.Error(err),
		)
	}

	html, err := page.HTML()
	if err != nil {
		return "", eris.Wrapf(err, "fetch: read html %s", url)
	}
	return html, nil
}

// Close shuts the browser down and removes the launcher's temp data.
func (b *Browser) Close() error {
	err := b.browser.Close()
	if b.cleanup != nil {
		b.cleanup()
	}
	return eris.Wrap(err, "fetch: close browser")
}
