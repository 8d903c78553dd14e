// candidates.go: pure candidate-URL generation for the resolution chain.
// Nothing in this file performs I/O; every function returns the same
// ordered list for the same input so cached results stay comparable.
package logoresolver

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	commonsAPIEndpoint   = "https://commons.wikimedia.org/w/api.php"
	wikipediaAPIEndpoint = "https://en.wikipedia.org/w/api.php"

	commonsFilePathBase = "https://commons.wikimedia.org/wiki/Special:FilePath/"
	uploadPathBase      = "https://upload.wikimedia.org/wikipedia/commons"
	uploadPathBaseEn    = "https://upload.wikimedia.org/wikipedia/en"

	filePageMarker = "File:"

	// filePageSegment anchors file-page detection on the wiki path, so
	// arbitrary URLs that merely contain "File:" are not mistaken for
	// Wikipedia references.
	filePageSegment = "/wiki/" + filePageMarker
)

// ExtractFilename extracts the media filename from a Wikipedia/Wikimedia
// "File:" page URL. Trailing fragments and query strings are stripped and
// the result is percent-decoded. The second return value is false when
// ref does not look like a file page reference.
func ExtractFilename(ref string) (string, bool) {
	idx := strings.Index(ref, filePageSegment)
	if idx < 0 {
		return "", false
	}
	name := ref[idx+len(filePageSegment):]

	// Fragment first: "#/media/..." suffixes carry their own slashes and
	// must go before any query handling.
	if i := strings.IndexByte(name, '#'); i >= 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "", false
	}

	decoded, err := url.PathUnescape(name)
	if err != nil {
		// Malformed escapes: keep the raw form, the probes will decide.
		return name, true
	}
	return decoded, true
}

// MetadataAPICandidates returns the imageinfo query URLs to try for a
// filename: the shared media repository first, then the localized
// encyclopedia instance. These URLs return JSON, not images, and require
// the metadata probe rather than a HEAD check.
func MetadataAPICandidates(filename string) []string {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url")
	params.Set("titles", filePageMarker+filename)
	params.Set("redirects", "")
	query := params.Encode()

	return []string{
		commonsAPIEndpoint + "?" + query,
		wikipediaAPIEndpoint + "?" + query,
	}
}

// DirectPathCandidates returns direct file-path guesses for a filename:
// the Special:FilePath redirector with a width hint, the same without,
// then best-effort upload-path guesses. The upload paths use a simplified
// directory bucketing derived from the filename's first characters; the
// real upstream scheme hashes the filename, so these guesses may
// legitimately miss and sit behind the reliable patterns.
func DirectPathCandidates(filename string, width int) []string {
	escaped := url.PathEscape(filename)
	candidates := []string{
		fmt.Sprintf("%s%s?width=%d", commonsFilePathBase, escaped, width),
		commonsFilePathBase + escaped,
	}

	underscored := strings.ReplaceAll(filename, " ", "_")
	if len(underscored) >= 2 {
		b1 := strings.ToLower(underscored[:1])
		b2 := strings.ToLower(underscored[:2])
		escapedName := url.PathEscape(underscored)
		candidates = append(candidates,
			fmt.Sprintf("%s/%s/%s/%s", uploadPathBase, b1, b2, escapedName),
			fmt.Sprintf("%s/%s/%s/%s", uploadPathBaseEn, b1, b2, escapedName),
		)
	}
	return candidates
}

// FilenameVariationCandidates returns Special:FilePath candidates for
// common filename variants: space/underscore swaps and casing variants of
// the word "logo". The original filename is excluded; variants appear in
// generation order with duplicates removed.
func FilenameVariationCandidates(filename string, width int) []string {
	variants := []string{
		strings.ReplaceAll(filename, " ", "_"),
		strings.ReplaceAll(filename, "_", " "),
		strings.ReplaceAll(filename, "logo", "Logo"),
		strings.ReplaceAll(filename, "Logo", "logo"),
	}

	seen := map[string]bool{filename: true}
	var candidates []string
	for _, v := range variants {
		if seen[v] {
			continue
		}
		seen[v] = true
		escaped := url.PathEscape(v)
		candidates = append(candidates,
			fmt.Sprintf("%s%s?width=%d", commonsFilePathBase, escaped, width),
			commonsFilePathBase+escaped,
		)
	}
	return candidates
}

// NonWikipediaCandidates returns probe candidates for an arbitrary
// external reference: the reference itself, an HTTPS upgrade when it is
// plain HTTP, and scheme-prepended variants when it has no scheme.
func NonWikipediaCandidates(ref string) []string {
	switch {
	case strings.HasPrefix(ref, "https://"):
		return []string{ref}
	case strings.HasPrefix(ref, "http://"):
		return []string{ref, "https://" + strings.TrimPrefix(ref, "http://")}
	case strings.HasPrefix(ref, "//"):
		return []string{"https:" + ref, "http:" + ref}
	default:
		return []string{"https://" + ref, "http://" + ref}
	}
}

// ProxyCandidate rewrites a candidate URL to route through the internal
// image proxy, which fetches server-side with a controlled User-Agent and
// permissive CORS headers.
func ProxyCandidate(proxyBase, candidate string) string {
	return proxyBase + "?url=" + url.QueryEscape(candidate)
}
