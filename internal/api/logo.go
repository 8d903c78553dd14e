// internal/api/logo.go
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scoutdesk/scoutcrm/internal/errors"
)

// Initialize logo routes
func (c *Controller) initLogoRoutes() {
	c.Group.GET("/logos/resolve", c.ResolveLogo)
}

// LogoResponse is the inbound call contract: a resolution always yields
// a usable image URL and the strategy that produced it.
type LogoResponse struct {
	Success    bool     `json:"success"`
	WorkingURL string   `json:"workingUrl"`
	Method     string   `json:"method"`
	Tested     []string `json:"testedCandidates,omitempty"`
}

// ResolveLogo resolves a club's logo reference to a working image URL.
// The entity name is required because it scopes the resolution cache and
// parameterizes the placeholder fallback; the reference may be empty.
func (c *Controller) ResolveLogo(ctx echo.Context) error {
	name := ctx.QueryParam("name")
	if name == "" {
		return c.HandleError(ctx,
			errors.Newf("missing required query parameter: name").
				Component("api").
				Category(errors.CategoryValidation).
				Build(),
			"Entity name is required", http.StatusBadRequest)
	}

	ref := ctx.QueryParam("ref")
	result := c.Resolver.Resolve(ctx.Request().Context(), ref, name)

	c.apiLogger.Info("Logo resolved",
		"entity", name,
		"ref", ref,
		"strategy", result.Strategy,
		"success", result.Success)

	return ctx.JSON(http.StatusOK, LogoResponse{
		Success:    result.Success,
		WorkingURL: result.URL,
		Method:     string(result.Strategy),
		Tested:     result.Tested,
	})
}
