package main

import (
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lokeshkumar99/ai-competition-scout/internal/enrich"
	"github.com/lokeshkumar99/ai-competition-scout/internal/extract"
	"github.com/lokeshkumar99/ai-competition-scout/internal/fetch"
	"github.com/lokeshkumar99/ai-competition-scout/internal/pipeline"
	"github.com/lokeshkumar99/ai-competition-scout/internal/registry"
	anthropicpkg "github.com/lokeshkumar99/ai-competition-scout/pkg/anthropic"
)

var runCompetitorsFile string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one scout pass over all registered competitors",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("scout"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		competitorsFile := runCompetitorsFile
		if competitorsFile == "" {
			competitorsFile = cfg.Scout.CompetitorsFile
		}
		reg, err := registry.LoadFromFile(competitorsFile)
		if err != nil {
			return eris.Wrap(err, "load competitor registry")
		}

		renderer, closeRenderer := initRenderer()
		defer closeRenderer()

		extractors := make(map[string]extract.Extractor, len(reg.All()))
		for _, c := range reg.All() {
			ex, err := extract.New(c, renderer, st)
			if err != nil {
				return err
			}
			extractors[c.Name] = ex
		}

		anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
		enricher := enrich.New(
			anthropicClient,
			renderer,
			reg,
			cfg.Anthropic.Model,
			cfg.Anthropic.MaxTokens,
			time.Duration(cfg.Anthropic.TimeoutSecs)*time.Second,
		)

		p, err := pipeline.New(st, reg, extractors, enricher, pipeline.Options{
			Pacing:         time.Duration(cfg.Scout.PacingSecs) * time.Second,
			ConnectRetries: cfg.Scout.ConnectRetries,
		})
		if err != nil {
			return err
		}

		summary, err := p.Run(ctx)
		if err != nil {
			return err
		}
		enricher.Usage().LogCost(cfg.Anthropic.Model, "briefing")

		out, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal summary")
		}
		os.Stdout.Write(append(out, '\n'))
		return nil
	},
}

// initRenderer builds the page renderer: a headless browser with a plain
// HTTP fallback, or HTTP alone when no browser can be launched. Both sites
// render their release notes client-side, so the HTTP-only path is a
// degraded mode that mostly matters in CI.
func initRenderer() (fetch.Renderer, func()) {
	httpRenderer := fetch.NewHTTPRenderer(&http.Client{
		Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
	}, cfg.Fetch.UserAgent)

	browser, err := fetch.NewBrowser(fetch.BrowserConfig{
		Bin:       cfg.Fetch.BrowserBin,
		Headless:  cfg.Fetch.Headless,
		NoSandbox: cfg.Fetch.NoSandbox,
		Timeout:   time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		UserAgent: cfg.Fetch.UserAgent,
	})
	if err != nil {
		zap.L().Warn("browser launch failed, falling back to plain HTTP", zap.Error(err))
		return httpRenderer, func() {}
	}
	return fetch.NewChain(browser, httpRenderer), func() {
		if err := browser.Close(); err != nil {
			zap.L().Warn("browser close failed", zap.Error(err))
		}
	}
}

func init() {
	runCmd.Flags().StringVar(&runCompetitorsFile, "competitors", "", "path to competitors YAML (default from config, built-ins when unset)")
	rootCmd.AddCommand(runCmd)
}
