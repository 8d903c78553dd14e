// internal/api/media.go
package api

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"

	"github.com/scoutdesk/scoutcrm/internal/errors"
)

const (
	minPlaceholderSize = 16
	maxPlaceholderSize = 512
)

// placeholderPalette holds the fill colors the placeholder renderer
// picks from. Selection is a stable hash of the entity name, so the same
// club always gets the same color.
var placeholderPalette = []string{
	"#1F77B4", "#D62728", "#2CA02C", "#9467BD",
	"#E377C2", "#17BECF", "#BCBD22", "#8C564B",
}

// Initialize media routes
func (c *Controller) initMediaRoutes() {
	c.Group.GET("/media/proxy", c.ProxyImage)
	// The resolution chain verifies proxy-wrapped candidates with HEAD
	// requests against this endpoint, so it must answer both verbs.
	c.Group.HEAD("/media/proxy", c.ProxyImage)
	c.Group.GET("/media/placeholder", c.PlaceholderImage)
}

// ProxyImage fetches an allow-listed external image server-side and
// streams it back, working around upstream CORS and header restrictions
// that block browser-side fetches.
func (c *Controller) ProxyImage(ctx echo.Context) error {
	raw := ctx.QueryParam("url")
	if raw == "" {
		return c.HandleError(ctx,
			errors.Newf("missing required query parameter: url").
				Component("api").
				Category(errors.CategoryValidation).
				Build(),
			"Image URL is required", http.StatusBadRequest)
	}

	target, err := url.Parse(raw)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
		return c.HandleError(ctx,
			errors.Newf("invalid image URL: %q", raw).
				Component("api").
				Category(errors.CategoryValidation).
				Build(),
			"Invalid image URL", http.StatusBadRequest)
	}

	if !c.hostAllowed(target.Hostname()) {
		return c.HandleError(ctx,
			errors.Newf("host %q is not on the proxy allow-list", target.Hostname()).
				Component("api").
				Category(errors.CategoryValidation).
				Context("host", target.Hostname()).
				Build(),
			"Host not allowed", http.StatusForbidden)
	}

	resp, err := c.HTTP.Get(ctx.Request().Context(), raw)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to fetch upstream image", http.StatusBadGateway)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.HandleError(ctx,
			errors.Newf("upstream returned status %d", resp.StatusCode).
				Component("api").
				Category(errors.CategoryHTTP).
				Context("status_code", resp.StatusCode).
				Build(),
			"Upstream image unavailable", http.StatusBadGateway)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.setMediaCacheHeaders(ctx)
	return ctx.Stream(http.StatusOK, contentType, resp.Body)
}

// hostAllowed checks the proxy allow-list, case-insensitively.
func (c *Controller) hostAllowed(host string) bool {
	for _, allowed := range c.Settings.Media.ProxyAllowedHosts {
		if strings.EqualFold(host, allowed) {
			return true
		}
	}
	return false
}

// PlaceholderImage renders a deterministic SVG placeholder: a colored
// circle with the entity's initials. Output is bit-stable for identical
// (name, size) inputs so HTTP caches can hold it.
func (c *Controller) PlaceholderImage(ctx echo.Context) error {
	name := ctx.QueryParam("name")
	if name == "" {
		name = "?"
	}

	size := c.Settings.Media.PlaceholderSize
	if sizeStr := ctx.QueryParam("size"); sizeStr != "" {
		parsed, err := strconv.Atoi(sizeStr)
		if err == nil && parsed >= minPlaceholderSize && parsed <= maxPlaceholderSize {
			size = parsed
		}
	}

	svg := renderPlaceholderSVG(name, size)
	c.setMediaCacheHeaders(ctx)
	return ctx.Blob(http.StatusOK, "image/svg+xml", []byte(svg))
}

func (c *Controller) setMediaCacheHeaders(ctx echo.Context) {
	h := ctx.Response().Header()
	h.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", c.Settings.Media.ProxyCacheMaxAge))
	h.Set("Access-Control-Allow-Origin", "*")
}

// renderPlaceholderSVG builds the placeholder document. Geometry uses
// integer arithmetic only, keeping the output byte-identical across
// calls and platforms.
func renderPlaceholderSVG(name string, size int) string {
	half := size / 2
	fontSize := size * 2 / 5
	return fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
			`<circle cx="%d" cy="%d" r="%d" fill="%s"/>`+
			`<text x="%d" y="%d" text-anchor="middle" dominant-baseline="central" `+
			`font-family="Arial, sans-serif" font-size="%d" font-weight="600" fill="#FFFFFF">%s</text>`+
			`</svg>`,
		size, size, size, size,
		half, half, half, placeholderColor(name),
		half, half, fontSize, placeholderInitials(name))
}

// placeholderColor picks a palette entry from a stable hash of the name.
func placeholderColor(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return placeholderPalette[h.Sum32()%uint32(len(placeholderPalette))]
}

// placeholderInitials derives up to two initials from the entity name.
// Only letters and digits are kept, so the rendered text never needs
// XML escaping.
func placeholderInitials(name string) string {
	var initials []rune
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				initials = append(initials, unicode.ToUpper(r))
			}
			break
		}
		if len(initials) == 2 {
			break
		}
	}
	if len(initials) == 0 {
		return "?"
	}
	return string(initials)
}
