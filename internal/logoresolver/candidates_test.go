package logoresolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ref      string
		expected string
		ok       bool
	}{
		{
			name:     "plain_file_page",
			ref:      "https://en.wikipedia.org/wiki/File:Paris_Saint-Germain_F.C..svg",
			expected: "Paris_Saint-Germain_F.C..svg",
			ok:       true,
		},
		{
			name:     "media_viewer_fragment",
			ref:      "https://en.wikipedia.org/wiki/File:Paris_FC_logo.svg#/media/x",
			expected: "Paris_FC_logo.svg",
			ok:       true,
		},
		{
			name:     "query_string_stripped",
			ref:      "https://commons.wikimedia.org/wiki/File:Stade_Rennais_logo.svg?uselang=fr",
			expected: "Stade_Rennais_logo.svg",
			ok:       true,
		},
		{
			name:     "percent_decoded",
			ref:      "https://en.wikipedia.org/wiki/File:Olympique%20Lyonnais.svg",
			expected: "Olympique Lyonnais.svg",
			ok:       true,
		},
		{
			name: "no_file_segment",
			ref:  "https://en.wikipedia.org/wiki/Paris_FC",
			ok:   false,
		},
		{
			name: "arbitrary_url",
			ref:  "https://example.com/logo.png",
			ok:   false,
		},
		{
			// "File:" alone is not enough, the wiki path segment is what
			// marks a file page.
			name: "file_marker_outside_wiki_path",
			ref:  "https://example.com/File:crest.png",
			ok:   false,
		},
		{
			name: "empty_reference",
			ref:  "",
			ok:   false,
		},
		{
			name: "file_marker_with_nothing_after",
			ref:  "https://en.wikipedia.org/wiki/File:",
			ok:   false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ExtractFilename(tt.ref)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestMetadataAPICandidates(t *testing.T) {
	t.Parallel()

	candidates := MetadataAPICandidates("Paris_FC_logo.svg")
	require.Len(t, candidates, 2)

	// Shared media repository is always tried before the localized
	// encyclopedia instance.
	assert.Contains(t, candidates[0], "commons.wikimedia.org/w/api.php")
	assert.Contains(t, candidates[1], "en.wikipedia.org/w/api.php")
	for _, c := range candidates {
		assert.Contains(t, c, "prop=imageinfo")
		assert.Contains(t, c, "titles=File%3AParis_FC_logo.svg")
		assert.Contains(t, c, "formatversion=2")
	}
}

func TestDirectPathCandidates(t *testing.T) {
	t.Parallel()

	candidates := DirectPathCandidates("Paris_FC_logo.svg", 400)
	require.Len(t, candidates, 4)

	assert.Equal(t, "https://commons.wikimedia.org/wiki/Special:FilePath/Paris_FC_logo.svg?width=400", candidates[0])
	assert.Equal(t, "https://commons.wikimedia.org/wiki/Special:FilePath/Paris_FC_logo.svg", candidates[1])
	assert.Equal(t, "https://upload.wikimedia.org/wikipedia/commons/p/pa/Paris_FC_logo.svg", candidates[2])
	assert.Equal(t, "https://upload.wikimedia.org/wikipedia/en/p/pa/Paris_FC_logo.svg", candidates[3])
}

func TestDirectPathCandidates_Deterministic(t *testing.T) {
	t.Parallel()

	first := DirectPathCandidates("FC Nantes logo.svg", 400)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, DirectPathCandidates("FC Nantes logo.svg", 400))
	}
}

func TestDirectPathCandidates_SpacesBucketedAsUnderscores(t *testing.T) {
	t.Parallel()

	candidates := DirectPathCandidates("FC Nantes.svg", 400)
	require.Len(t, candidates, 4)
	assert.Contains(t, candidates[2], "/f/fc/FC_Nantes.svg")
}

func TestFilenameVariationCandidates(t *testing.T) {
	t.Parallel()

	candidates := FilenameVariationCandidates("Paris_FC_logo.svg", 400)

	// Underscore form is the original, so the spaced form and the Logo
	// casing variant each contribute a width/plain pair.
	require.NotEmpty(t, candidates)
	assert.Contains(t, candidates[0], "Paris%20FC%20logo.svg")
	for _, c := range candidates {
		assert.NotContains(t, c, "Special:FilePath/Paris_FC_logo.svg?width")
	}

	joined := FilenameVariationCandidates("Paris_FC_logo.svg", 400)
	assert.Equal(t, candidates, joined, "generation order must be stable")
}

func TestFilenameVariationCandidates_NoDuplicates(t *testing.T) {
	t.Parallel()

	// A filename with no spaces, underscores or "logo" word produces no
	// variants at all.
	candidates := FilenameVariationCandidates("PSG.svg", 400)
	assert.Empty(t, candidates)
}

func TestNonWikipediaCandidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ref      string
		expected []string
	}{
		{
			name:     "https_passthrough",
			ref:      "https://example.com/logo.png",
			expected: []string{"https://example.com/logo.png"},
		},
		{
			name: "http_upgraded",
			ref:  "http://example.com/logo.png",
			expected: []string{
				"http://example.com/logo.png",
				"https://example.com/logo.png",
			},
		},
		{
			name: "protocol_relative",
			ref:  "//example.com/logo.png",
			expected: []string{
				"https://example.com/logo.png",
				"http://example.com/logo.png",
			},
		},
		{
			name: "schemeless",
			ref:  "example.com/logo.png",
			expected: []string{
				"https://example.com/logo.png",
				"http://example.com/logo.png",
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, NonWikipediaCandidates(tt.ref))
		})
	}
}

func TestProxyCandidate(t *testing.T) {
	t.Parallel()

	got := ProxyCandidate("/api/v1/media/proxy", "https://upload.wikimedia.org/a/ab/X.svg?width=400")
	assert.Equal(t, "/api/v1/media/proxy?url=https%3A%2F%2Fupload.wikimedia.org%2Fa%2Fab%2FX.svg%3Fwidth%3D400", got)
}
