// Package logoresolver turns unreliable external image references into
// verified, displayable logo URLs for CRM entities. It runs an ordered
// chain of resolution strategies over Wikipedia/Wikimedia and arbitrary
// references, memoizes outcomes per (reference, entity) pair and
// guarantees a displayable result by synthesizing a placeholder when
// every strategy fails.
package logoresolver

import (
	"context"
	"io"
	"log"
	"log/slog"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/scoutdesk/scoutcrm/internal/logging"
	"github.com/scoutdesk/scoutcrm/internal/observability"
)

// Package-level logger specific to the logo resolver service
var (
	serviceLogger   *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "logoresolver.log")
	serviceLevelVar.Set(slog.LevelInfo)

	serviceLogger, closeLogger, err = logging.NewFileLogger(logFilePath, "logoresolver", serviceLevelVar)
	if err != nil {
		// Fallback: disable file logging rather than failing resolution.
		log.Printf("Failed to initialize logoresolver file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		serviceLogger = slog.New(fbHandler).With("service", "logoresolver")
		closeLogger = func() error { return nil }
	}
}

// DefaultCacheTTL is the freshness window for cached resolutions.
const DefaultCacheTTL = time.Hour

// Resolver memoizes chain results per (reference, entity) pair and
// applies the placeholder fallback. It is safe for concurrent use and
// owned by the application's composition root, not a package singleton.
type Resolver struct {
	runner             Runner
	cache              *gocache.Cache
	ttl                time.Duration
	placeholderBase    string
	placeholderSize    int
	disablePlaceholder bool
	metrics            *observability.LogoResolverMetrics
	now                func() time.Time
	logger             *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithMetrics attaches resolver metrics. Nil-safe call sites make this
// optional.
func WithMetrics(m *observability.LogoResolverMetrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithClock overrides the time source used for cache freshness checks.
// Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithoutPlaceholder disables placeholder synthesis; chain failures are
// then returned to the caller as-is.
func WithoutPlaceholder() Option {
	return func(r *Resolver) { r.disablePlaceholder = true }
}

// WithPlaceholderEndpoint overrides the placeholder endpoint and default
// rendered size.
func WithPlaceholderEndpoint(base string, size int) Option {
	return func(r *Resolver) {
		r.placeholderBase = base
		r.placeholderSize = size
	}
}

// New creates a Resolver around a chain runner with the given cache TTL.
// A non-positive ttl falls back to DefaultCacheTTL.
func New(runner Runner, ttl time.Duration, opts ...Option) *Resolver {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	r := &Resolver{
		runner:          runner,
		cache:           gocache.New(ttl, 2*ttl),
		ttl:             ttl,
		placeholderBase: DefaultPlaceholderPath,
		placeholderSize: 128,
		now:             time.Now,
		logger:          serviceLogger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CacheKey builds the composite cache key for a resolution. Both parts
// are always present in the key: two entities sharing an identical
// (even empty) reference must never share a cached result.
func CacheKey(ref, entity string) string {
	return ref + "|" + entity
}

// Resolve returns the resolution result for a source reference owned by
// the named entity, from cache when fresh, recomputed otherwise. Unless
// placeholder synthesis is disabled, the returned result always has
// Success set with a usable URL.
func (r *Resolver) Resolve(ctx context.Context, ref, entity string) Result {
	key := CacheKey(ref, entity)

	if cached, found := r.cache.Get(key); found {
		if res, ok := cached.(Result); ok && r.now().Sub(res.CachedAt) < r.ttl {
			if r.metrics != nil {
				r.metrics.IncrementCacheHits()
			}
			r.logger.Debug("Resolution cache hit", "ref", ref, "entity", entity, "strategy", res.Strategy)
			return res
		}
	}
	if r.metrics != nil {
		r.metrics.IncrementCacheMisses()
	}

	res := r.runner.Run(ctx, ref)
	if !res.Success && !r.disablePlaceholder {
		res = r.placeholderResult(entity, res)
	}
	res.CachedAt = r.now()

	// Last write wins; entries are independent so no coordination is
	// needed between concurrent resolutions of the same key.
	r.cache.Set(key, res, gocache.DefaultExpiration)

	if r.metrics != nil && res.Strategy != "" {
		r.metrics.IncrementResolutions(string(res.Strategy))
	}
	r.logger.Info("Resolution completed",
		"ref", ref,
		"entity", entity,
		"success", res.Success,
		"strategy", res.Strategy,
		"candidates_tested", len(res.Tested))
	return res
}

// placeholderResult converts a failed chain result into a successful
// placeholder resolution. Placeholder rendering is pure local work and
// cannot fail, so this is the guarantee that callers never see a broken
// image.
func (r *Resolver) placeholderResult(entity string, failed Result) Result {
	return Result{
		Success:     true,
		URL:         PlaceholderURL(r.placeholderBase, entity, r.placeholderSize),
		Strategy:    StrategyPlaceholder,
		Tested:      failed.Tested,
		ErrorReason: failed.ErrorReason,
	}
}

// Flush drops all cached resolutions. Intended for tests.
func (r *Resolver) Flush() {
	r.cache.Flush()
}

// Close releases the service log file.
func Close() error {
	if closeLogger != nil {
		return closeLogger()
	}
	return nil
}
