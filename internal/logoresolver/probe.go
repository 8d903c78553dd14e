// probe.go: network checks for candidate URLs. Probe failures are data,
// not exceptions: every timeout, non-2xx status, content-type mismatch or
// malformed response comes back as an error the chain records and skips.
package logoresolver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/antonholmquist/jason"
	"golang.org/x/time/rate"

	"github.com/scoutdesk/scoutcrm/internal/conf"
	"github.com/scoutdesk/scoutcrm/internal/errors"
	"github.com/scoutdesk/scoutcrm/internal/httpclient"
	"github.com/scoutdesk/scoutcrm/internal/observability"
)

const (
	// User-Agent constants following the Wikimedia robot policy
	// https://foundation.wikimedia.org/wiki/Policy:Wikimedia_Foundation_User-Agent_Policy
	userAgentName    = "ScoutCRM"
	userAgentVersion = "1.0"
	userAgentLibrary = "Go-HTTP-Client"

	probeOutcomeSuccess = "success"
	probeOutcomeFailure = "failure"
)

// ErrNoImage indicates a candidate did not yield a usable image. It marks
// the ordinary "try the next candidate" case as opposed to hard network
// trouble.
var ErrNoImage = errors.NewStd("no usable image at candidate")

// Prober verifies candidate URLs over the network.
type Prober interface {
	// ProbeImage checks that the candidate is a reachable image via a
	// HEAD request bounded by timeout.
	ProbeImage(ctx context.Context, candidate string, timeout time.Duration) error

	// ProbeMetadataAPI fetches a metadata API candidate, extracts the
	// embedded image URL from the JSON response and verifies it with a
	// secondary existence check. Returns the verified image URL.
	ProbeMetadataAPI(ctx context.Context, candidate string) (string, error)
}

// HTTPProber implements Prober against live endpoints.
type HTTPProber struct {
	client    *httpclient.Client
	limiter   *rate.Limiter // metadata API calls only, per the robot policy
	userAgent string
	settings  conf.ResolverSettings
	metrics   *observability.LogoResolverMetrics
	logger    *slog.Logger
}

// buildUserAgent constructs a user-agent string that complies with the
// Wikimedia robot policy.
// Format: <client name>/<version> (<contact information>) <library>/<version>
func buildUserAgent(contact string) string {
	return fmt.Sprintf("%s/%s (%s) %s/%s",
		userAgentName, userAgentVersion, contact, userAgentLibrary, runtime.Version())
}

// NewHTTPProber creates a prober backed by the shared HTTP client.
// metrics may be nil.
func NewHTTPProber(client *httpclient.Client, settings conf.ResolverSettings, metrics *observability.LogoResolverMetrics, logger *slog.Logger) *HTTPProber {
	if logger == nil {
		logger = slog.Default()
	}
	var limiter *rate.Limiter
	if settings.APIRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(settings.APIRateLimit), 2)
	}
	return &HTTPProber{
		client:    client,
		limiter:   limiter,
		userAgent: buildUserAgent(settings.UserAgentContact),
		settings:  settings,
		metrics:   metrics,
		logger:    logger.With("component", "prober"),
	}
}

// ProbeImage issues a HEAD request against the candidate. Success
// requires a 2xx status and, when the server reports one, a content type
// beginning with "image/".
func (p *HTTPProber) ProbeImage(ctx context.Context, candidate string, timeout time.Duration) error {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, candidate, http.NoBody)
	if err != nil {
		return p.fail(candidate, errors.New(err).
			Component("logoresolver").
			Category(errors.CategoryValidation).
			Context("candidate", candidate).
			Build())
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(probeCtx, req)
	p.observeDuration(start)
	if err != nil {
		return p.fail(candidate, errors.New(err).
			Component("logoresolver").
			Category(errors.CategoryNetwork).
			Context("candidate", candidate).
			Context("operation", "head_probe").
			Build())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return p.fail(candidate, errors.Newf("candidate returned status %d", resp.StatusCode).
			Component("logoresolver").
			Category(errors.CategoryHTTP).
			Context("candidate", candidate).
			Context("status_code", resp.StatusCode).
			Build())
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return p.fail(candidate, errors.Newf("candidate content type %q is not an image", contentType).
			Component("logoresolver").
			Category(errors.CategoryImageFetch).
			Context("candidate", candidate).
			Context("content_type", contentType).
			Build())
	}

	if p.metrics != nil {
		p.metrics.IncrementProbes(probeOutcomeSuccess)
	}
	p.logger.Debug("Candidate verified", "candidate", candidate, "content_type", contentType)
	return nil
}

// ProbeMetadataAPI fetches an imageinfo query URL, walks the response for
// the first page's image URL and verifies it with a secondary HEAD check.
func (p *HTTPProber) ProbeMetadataAPI(ctx context.Context, candidate string) (string, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", p.fail(candidate, errors.New(err).
				Component("logoresolver").
				Category(errors.CategoryNetwork).
				Context("operation", "rate_limiter_wait").
				Build())
		}
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.settings.MetadataTimeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, candidate, http.NoBody)
	if err != nil {
		return "", p.fail(candidate, errors.New(err).
			Component("logoresolver").
			Category(errors.CategoryValidation).
			Context("candidate", candidate).
			Build())
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Api-User-Agent", p.userAgent)

	resp, err := p.client.Do(probeCtx, req)
	p.observeDuration(start)
	if err != nil {
		return "", p.fail(candidate, errors.New(err).
			Component("logoresolver").
			Category(errors.CategoryNetwork).
			Context("candidate", candidate).
			Context("operation", "metadata_api_get").
			Build())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", p.fail(candidate, errors.Newf("metadata API returned status %d", resp.StatusCode).
			Component("logoresolver").
			Category(errors.CategoryHTTP).
			Context("candidate", candidate).
			Context("status_code", resp.StatusCode).
			Build())
	}

	imageURL, err := extractImageInfoURL(resp)
	if err != nil {
		return "", p.fail(candidate, err)
	}

	// The API reporting a URL is not proof the file is reachable;
	// confirm with a lightweight existence check.
	if err := p.ProbeImage(ctx, imageURL, p.settings.VerifyTimeout); err != nil {
		return "", err
	}
	return imageURL, nil
}

// extractImageInfoURL walks a formatversion=2 imageinfo response:
// query.pages[0].imageinfo[0].url.
func extractImageInfoURL(resp *http.Response) (string, error) {
	root, err := jason.NewObjectFromReader(resp.Body)
	if err != nil {
		return "", errors.New(err).
			Component("logoresolver").
			Category(errors.CategoryImageFetch).
			Context("operation", "parse_metadata_response").
			Build()
	}

	pages, err := root.GetObjectArray("query", "pages")
	if err != nil || len(pages) == 0 {
		return "", ErrNoImage
	}

	imageInfo, err := pages[0].GetObjectArray("imageinfo")
	if err != nil || len(imageInfo) == 0 {
		return "", ErrNoImage
	}

	imageURL, err := imageInfo[0].GetString("url")
	if err != nil || imageURL == "" {
		return "", ErrNoImage
	}
	return imageURL, nil
}

func (p *HTTPProber) fail(candidate string, err error) error {
	if p.metrics != nil {
		p.metrics.IncrementProbes(probeOutcomeFailure)
	}
	p.logger.Debug("Candidate skipped", "candidate", candidate, "error", err)
	return err
}

func (p *HTTPProber) observeDuration(start time.Time) {
	if p.metrics != nil {
		p.metrics.ObserveProbeDuration(time.Since(start).Seconds())
	}
}
