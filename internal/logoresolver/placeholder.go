package logoresolver

import (
	"fmt"
	"net/url"
)

// DefaultPlaceholderPath is the internal endpoint that renders
// deterministic placeholder images.
const DefaultPlaceholderPath = "/api/v1/media/placeholder"

// PlaceholderURL builds the placeholder endpoint URL for an entity name.
// Identical (name, size) inputs always produce identical URLs, so the
// rendered image is safely cacheable downstream.
func PlaceholderURL(base, name string, size int) string {
	if name == "" {
		name = "?"
	}
	return fmt.Sprintf("%s?name=%s&size=%d", base, url.QueryEscape(name), size)
}
