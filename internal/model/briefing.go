// Package model defines the domain types shared across the scout pipeline.
package model

import "time"

// Candidate is a single not-yet-enriched feature update discovered on a
// competitor's release page. Candidates are transient: they live for one
// pipeline pass and are discarded after enrichment or dedup filtering.
type Candidate struct {
	// Identifier is the deterministic dedup key, built from the competitor
	// name, the time-period heading, and the feature title or detail URL.
	// It must be stable across repeated runs over unchanged pages.
	Identifier string `json:"identifier"`

	// Context is the extracted summary text (heading plus description)
	// used as the primary classifier input.
	Context string `json:"context"`

	// SourceURL is the canonical URL cited in the stored briefing.
	SourceURL string `json:"source_url"`

	// DetailLinks holds zero or more deep-dive URLs found in the
	// surrounding content, most specific last.
	DetailLinks []string `json:"detail_links,omitempty"`

	// Competitor names the site the candidate was extracted from.
	Competitor string `json:"competitor"`
}

// Briefing is the enriched, persisted record describing one competitor
// feature update. Briefings are append-only: the pipeline never updates
// or deletes them.
type Briefing struct {
	ID            string      `json:"id"`
	Identifier    string      `json:"processed_identifier"`
	Competitor    string      `json:"competitor"`
	ProductLine   ProductLine `json:"product_line"`
	FeatureUpdate string      `json:"feature_update"`
	Summary       string      `json:"summary"`
	PMAnalysis    string      `json:"pm_analysis"`
	SourceURL     string      `json:"source_url"`
	ProcessedAt   time.Time   `json:"processed_at"`
}

// FailedCandidate records one candidate that could not be briefed,
// keyed by identifier so operators can find it in the logs.
type FailedCandidate struct {
	Identifier string `json:"identifier"`
	Reason     string `json:"reason"`
}

// RunSummary is the user-visible result of one full pipeline pass.
type RunSummary struct {
	Discovered int               `json:"discovered"`
	Briefed    int               `json:"briefed"`
	Failed     []FailedCandidate `json:"failed,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	Duration   int64             `json:"duration_ms"`
}
