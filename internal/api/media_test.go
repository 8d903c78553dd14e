package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutdesk/scoutcrm/internal/logoresolver"
)

func noopRunner() runnerFunc {
	return func(ctx context.Context, ref string) logoresolver.Result {
		return logoresolver.Result{}
	}
}

func TestPlaceholderImage_BitStable(t *testing.T) {
	e, _ := newTestController(t, noopRunner())

	first := doRequest(e, "/api/v1/media/placeholder?name=Paris+FC")
	second := doRequest(e, "/api/v1/media/placeholder?name=Paris+FC")

	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes(), "identical inputs must render identical bytes")
	assert.Contains(t, first.Header().Get("Content-Type"), "image/svg+xml")
	assert.Equal(t, "public, max-age=86400", first.Header().Get("Cache-Control"))
	assert.Equal(t, "*", first.Header().Get("Access-Control-Allow-Origin"))
}

func TestPlaceholderImage_Initials(t *testing.T) {
	e, _ := newTestController(t, noopRunner())

	rec := doRequest(e, "/api/v1/media/placeholder?name=Paris+FC")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ">PF<")
}

func TestPlaceholderImage_DefaultsForMissingName(t *testing.T) {
	e, _ := newTestController(t, noopRunner())

	rec := doRequest(e, "/api/v1/media/placeholder")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ">?<")
}

func TestPlaceholderImage_SizeBounds(t *testing.T) {
	e, _ := newTestController(t, noopRunner())

	// A valid size is honored.
	rec := doRequest(e, "/api/v1/media/placeholder?name=PSG&size=64")
	assert.Contains(t, rec.Body.String(), `width="64"`)

	// Out-of-range and garbage sizes fall back to the configured default.
	for _, size := range []string{"4", "9000", "huge"} {
		rec := doRequest(e, "/api/v1/media/placeholder?name=PSG&size="+size)
		assert.Contains(t, rec.Body.String(), `width="128"`, "size=%s", size)
	}
}

func TestPlaceholderImage_DistinctNamesDistinctColors(t *testing.T) {
	e, _ := newTestController(t, noopRunner())

	a := doRequest(e, "/api/v1/media/placeholder?name=Paris+FC")
	b := doRequest(e, "/api/v1/media/placeholder?name=FC+Nantes")
	assert.NotEqual(t, a.Body.String(), b.Body.String())
}

func TestProxyImage_MissingURL(t *testing.T) {
	e, _ := newTestController(t, noopRunner())

	rec := doRequest(e, "/api/v1/media/proxy")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProxyImage_InvalidScheme(t *testing.T) {
	e, _ := newTestController(t, noopRunner())

	rec := doRequest(e, "/api/v1/media/proxy?url="+url.QueryEscape("ftp://example.com/crest.png"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProxyImage_DisallowedHost(t *testing.T) {
	e, _ := newTestController(t, noopRunner())

	rec := doRequest(e, "/api/v1/media/proxy?url="+url.QueryEscape("https://evil.example.com/crest.png"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProxyImage_StreamsAllowedUpstream(t *testing.T) {
	e, ctrl := newTestController(t, noopRunner())
	httpmock.ActivateNonDefault(ctrl.HTTP.StdClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	const upstream = "https://upload.wikimedia.org/wikipedia/commons/a/ab/Paris_FC_logo.svg"
	httpmock.RegisterResponder(http.MethodGet, upstream,
		func(*http.Request) (*http.Response, error) {
			resp := httpmock.NewStringResponse(http.StatusOK, "<svg/>")
			resp.Header.Set("Content-Type", "image/svg+xml")
			return resp, nil
		})

	rec := doRequest(e, "/api/v1/media/proxy?url="+url.QueryEscape(upstream))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<svg/>", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "image/svg+xml")
	assert.Equal(t, "public, max-age=86400", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestProxyImage_ServesHeadProbes(t *testing.T) {
	e, ctrl := newTestController(t, noopRunner())
	httpmock.ActivateNonDefault(ctrl.HTTP.StdClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	const upstream = "https://upload.wikimedia.org/wikipedia/commons/a/ab/Paris_FC_logo.svg"
	httpmock.RegisterResponder(http.MethodGet, upstream,
		func(*http.Request) (*http.Response, error) {
			resp := httpmock.NewStringResponse(http.StatusOK, "<svg/>")
			resp.Header.Set("Content-Type", "image/svg+xml")
			return resp, nil
		})

	// The resolution chain's proxy fallback verifies its candidate with a
	// HEAD request against this endpoint.
	req := httptest.NewRequest(http.MethodHead, "/api/v1/media/proxy?url="+url.QueryEscape(upstream), http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "image/svg+xml")
}

func TestPlaceholderColor_AlwaysInPalette(t *testing.T) {
	// fnv32a("a") exceeds MaxInt32; the palette index must stay in range
	// regardless of the platform's int width.
	for _, name := range []string{"a", "Paris FC", "", "Олимпик"} {
		assert.Contains(t, placeholderPalette, placeholderColor(name), "name=%q", name)
	}
}

func TestProxyImage_UpstreamFailure(t *testing.T) {
	e, ctrl := newTestController(t, noopRunner())
	httpmock.ActivateNonDefault(ctrl.HTTP.StdClient())
	t.Cleanup(httpmock.DeactivateAndReset)

	const upstream = "https://upload.wikimedia.org/wikipedia/commons/a/ab/Missing.svg"
	httpmock.RegisterResponder(http.MethodGet, upstream,
		httpmock.NewStringResponder(http.StatusNotFound, "not found"))

	rec := doRequest(e, "/api/v1/media/proxy?url="+url.QueryEscape(upstream))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
