package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalAlias(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"lower-cases", "INSAT-3D", "insat-3d"},
		{"trims whitespace", "  ISRO  ", "isro"},
		{"collapses internal runs", "Geostationary   Orbit", "geostationary orbit"},
		{"tabs become spaces", "Ocean\tColour\tMonitor", "ocean colour monitor"},
		{"control characters dropped", "INSAT\x00-3D", "insat -3d"},
		{"empty input", "", ""},
		{"whitespace only", " \t ", ""},
		{"control only", "\x01\x02", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CanonicalAlias(tc.input))
		})
	}
}

func TestSimilarity(t *testing.T) {
	t.Run("identical strings", func(t *testing.T) {
		assert.Equal(t, 1.0, Similarity("insat-3d", "insat-3d"))
		assert.Equal(t, 1.0, Similarity("", ""))
	})

	t.Run("single substitution", func(t *testing.T) {
		// One edit across ten characters.
		assert.InDelta(t, 0.9, Similarity("oceansat-2", "oceansat 2"), 1e-9)
	})

	t.Run("disjoint strings score low", func(t *testing.T) {
		assert.Less(t, Similarity("imager", "sounder"), 0.5)
	})

	t.Run("near duplicates beat unrelated names", func(t *testing.T) {
		near := Similarity("kalpana-1", "kalpana 1")
		far := Similarity("kalpana-1", "cartosat")
		assert.Greater(t, near, far)
	})

	t.Run("symmetric", func(t *testing.T) {
		assert.Equal(t, Similarity("insat-3d", "insat-3dr"), Similarity("insat-3dr", "insat-3d"))
	})
}

func TestWithinWindow(t *testing.T) {
	t.Run("equal lengths always pass", func(t *testing.T) {
		assert.True(t, WithinWindow("abcdef", "ghijkl", 0.85))
	})

	t.Run("wide gap pruned", func(t *testing.T) {
		assert.False(t, WithinWindow("ab", "abcdefghij", 0.85))
	})

	t.Run("narrow gap kept", func(t *testing.T) {
		assert.True(t, WithinWindow("insat-3d", "insat-3dr", 0.85))
	})
}
