// chain.go: the ordered strategy chain. Strategies are an explicit slice
// of (generate, verify) pairs walked by one loop; the first verified
// candidate wins and later strategies are never attempted.
package logoresolver

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/scoutdesk/scoutcrm/internal/conf"
)

// Strategy tags how a resolution result was obtained.
type Strategy string

const (
	StrategyMetadataAPI       Strategy = "metadata-api"
	StrategyDirectPath        Strategy = "direct-path"
	StrategyFilenameVariation Strategy = "filename-variation"
	StrategyProxy             Strategy = "proxy"
	StrategyDirect            Strategy = "direct"
	StrategyPlaceholder       Strategy = "placeholder"
)

// Failure reasons carried on unsuccessful results.
const (
	ReasonNoReference = "no-reference"
	ReasonExhausted   = "all-strategies-exhausted"
)

// Result is the outcome of one resolution attempt. When Success is true
// URL holds a verified-reachable image URL (or a synthesized placeholder,
// reachable by construction); otherwise ErrorReason is set.
type Result struct {
	Success     bool      `json:"success"`
	URL         string    `json:"workingUrl,omitempty"`
	Strategy    Strategy  `json:"method,omitempty"`
	Tested      []string  `json:"testedCandidates,omitempty"`
	ErrorReason string    `json:"errorReason,omitempty"`
	CachedAt    time.Time `json:"-"`
}

// Runner runs the resolution chain for a source reference.
type Runner interface {
	Run(ctx context.Context, ref string) Result
}

// Chain sequences resolution strategies in a fixed priority order.
type Chain struct {
	prober    Prober
	settings  conf.ResolverSettings
	proxyBase string
	logger    *slog.Logger
}

// step pairs one strategy's candidate generator with its verification
// function. verify returns the working URL on success.
type step struct {
	strategy Strategy
	generate func() []string
	verify   func(ctx context.Context, candidate string) (string, error)
}

// NewChain creates a strategy chain. proxyBase is the internal image
// proxy endpoint used for the proxy-wrapped fallback.
func NewChain(prober Prober, settings conf.ResolverSettings, proxyBase string, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		prober:    prober,
		settings:  settings,
		proxyBase: proxyBase,
		logger:    logger.With("component", "chain"),
	}
}

// Run walks the strategy chain for ref and returns the first verified
// success, or a total-failure result. An empty ref fails immediately
// without any network traffic.
func (c *Chain) Run(ctx context.Context, ref string) Result {
	if ref == "" {
		return Result{Success: false, ErrorReason: ReasonNoReference}
	}

	// Short request ID to correlate the log lines of one chain walk.
	reqID := uuid.New().String()[:8]

	var steps []step
	if filename, ok := ExtractFilename(ref); ok {
		steps = c.wikipediaSteps(filename)
	} else {
		steps = c.directSteps(ref)
	}

	var tested []string
	for _, s := range steps {
		for _, candidate := range s.generate() {
			tested = append(tested, candidate)
			workingURL, err := s.verify(ctx, candidate)
			if err != nil {
				continue
			}
			c.logger.Debug("Resolution succeeded",
				"request_id", reqID,
				"ref", ref,
				"strategy", s.strategy,
				"url", workingURL,
				"candidates_tested", len(tested))
			return Result{
				Success:  true,
				URL:      workingURL,
				Strategy: s.strategy,
				Tested:   tested,
			}
		}
	}

	c.logger.Debug("Resolution exhausted all strategies",
		"request_id", reqID,
		"ref", ref,
		"candidates_tested", len(tested))
	return Result{
		Success:     false,
		Tested:      tested,
		ErrorReason: ReasonExhausted,
	}
}

// wikipediaSteps builds the fixed-priority chain for a "File:" reference:
// metadata API lookups, direct path guesses, filename variations, then a
// proxy-wrapped retry of the best direct candidate.
func (c *Chain) wikipediaSteps(filename string) []step {
	width := c.settings.ThumbWidth
	return []step{
		{
			strategy: StrategyMetadataAPI,
			generate: func() []string { return MetadataAPICandidates(filename) },
			verify:   c.prober.ProbeMetadataAPI,
		},
		{
			strategy: StrategyDirectPath,
			generate: func() []string { return DirectPathCandidates(filename, width) },
			verify:   c.verifyImage(c.settings.HeadTimeout),
		},
		{
			strategy: StrategyFilenameVariation,
			generate: func() []string { return FilenameVariationCandidates(filename, width) },
			verify:   c.verifyImage(c.settings.HeadTimeout),
		},
		{
			strategy: StrategyProxy,
			generate: func() []string {
				best := DirectPathCandidates(filename, width)[0]
				return []string{ProxyCandidate(c.proxyBase, best)}
			},
			verify: c.verifyImage(c.settings.ProxyTimeout),
		},
	}
}

// directSteps builds the chain for non-Wikipedia references: HEAD checks
// over the reference and its scheme variants only.
func (c *Chain) directSteps(ref string) []step {
	return []step{
		{
			strategy: StrategyDirect,
			generate: func() []string { return NonWikipediaCandidates(ref) },
			verify:   c.verifyImage(c.settings.HeadTimeout),
		},
	}
}

// verifyImage adapts ProbeImage to the step verify signature: a verified
// image candidate is its own working URL.
func (c *Chain) verifyImage(timeout time.Duration) func(ctx context.Context, candidate string) (string, error) {
	return func(ctx context.Context, candidate string) (string, error) {
		if err := c.prober.ProbeImage(ctx, candidate, timeout); err != nil {
			return "", err
		}
		return candidate, nil
	}
}
