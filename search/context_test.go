package search

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/graph"
)

func contextSnapshot(t *testing.T) *Snapshot {
	t.Helper()

	insat := &core.Entity{
		Id:      core.IDFromContent("(satellite,INSAT-3D)"),
		Name:    "INSAT-3D",
		Type:    "satellite",
		Aliases: []string{"insat-3d"},
	}
	orbit := &core.Entity{
		Id:      core.IDFromContent("(orbit,Geostationary Orbit)"),
		Name:    "Geostationary Orbit",
		Type:    "orbit",
		Aliases: []string{"geostationary orbit"},
	}
	edge := &core.Edge{Subject: insat.Id, Predicate: "hasOrbit", Object: orbit.Id, Confidence: 0.95}

	graphSnapshot, err := graph.NewSnapshot([]*core.Entity{insat, orbit}, []*core.Edge{edge})
	require.NoError(t, err)

	snapshot, err := NewSnapshot(graphSnapshot, nil, nil, nil, nil)
	require.NoError(t, err)
	return snapshot
}

func contextFact(t *testing.T, snapshot *Snapshot) *core.Evidence {
	t.Helper()

	insatID, ok := snapshot.Graph.ResolveAlias("insat-3d")
	require.True(t, ok)
	orbitID, ok := snapshot.Graph.ResolveAlias("geostationary orbit")
	require.True(t, ok)
	return graphEvidence(insatID, orbitID, "hasOrbit", 0.95)
}

func TestContextBuildSections(t *testing.T) {
	snapshot := contextSnapshot(t)
	builder, err := NewContextBuilder()
	require.NoError(t, err)

	question := "What orbit does INSAT-3D use?"
	evidence := []*core.Evidence{
		contextFact(t, snapshot),
		chunkEvidence("missions/insat.md", "INSAT-3D is an Indian weather satellite.", 0.8),
		faqEvidence("What orbit does INSAT-3D use?", "Geostationary orbit.", 0.85),
	}

	payload := builder.Build(question, evidence, snapshot, nil)

	assert.Contains(t, payload, "== Graph facts ==")
	assert.Contains(t, payload, "INSAT-3D --hasOrbit--> Geostationary Orbit")
	assert.Contains(t, payload, "== Knowledge snippets ==")
	assert.Contains(t, payload, "[missions/insat.md] INSAT-3D is an Indian weather satellite.")
	assert.Contains(t, payload, "[faq] Q: What orbit does INSAT-3D use? A: Geostationary orbit.")
	assert.NotContains(t, payload, "== Conversation ==")
	assert.True(t, strings.HasSuffix(payload, "== Question ==\n"+question))
}

func TestContextFactLinesDeduplicated(t *testing.T) {
	snapshot := contextSnapshot(t)
	builder, err := NewContextBuilder()
	require.NoError(t, err)

	// Two paths over the same edge produce one fact line.
	evidence := []*core.Evidence{
		contextFact(t, snapshot),
		contextFact(t, snapshot),
	}

	payload := builder.Build("insat-3d orbit", evidence, snapshot, nil)
	assert.Equal(t, 1, strings.Count(payload, "INSAT-3D --hasOrbit--> Geostationary Orbit"))
}

func TestContextSnippetMixing(t *testing.T) {
	snapshot := contextSnapshot(t)
	builder, err := NewContextBuilder()
	require.NoError(t, err)

	var evidence []*core.Evidence
	for i := 0; i < 3; i++ {
		document := fmt.Sprintf("docs/%d.md", i)
		evidence = append(evidence, chunkEvidence(document, fmt.Sprintf("Document snippet %d.", i), 0.8))
		evidence = append(evidence, faqEvidence(fmt.Sprintf("Question %d?", i), "Answer.", 0.7))
	}

	t.Run("question-shaped queries lead with FAQ entries", func(t *testing.T) {
		payload := builder.Build("What is the orbit?", evidence, snapshot, nil)

		assert.Equal(t, 2, strings.Count(payload, "[faq]"))
		assert.Equal(t, 2, strings.Count(payload, "[docs/"))
		faqAt := strings.Index(payload, "[faq]")
		docAt := strings.Index(payload, "[docs/")
		assert.Less(t, faqAt, docAt)
	})

	t.Run("statements lead with document snippets", func(t *testing.T) {
		payload := builder.Build("insat-3d orbital characteristics", evidence, snapshot, nil)

		assert.Equal(t, 1, strings.Count(payload, "[faq]"))
		assert.Equal(t, 3, strings.Count(payload, "[docs/"))
		faqAt := strings.Index(payload, "[faq]")
		docAt := strings.Index(payload, "[docs/")
		assert.Less(t, docAt, faqAt)
	})
}

func TestContextSnippetBackfill(t *testing.T) {
	snapshot := contextSnapshot(t)
	builder, err := NewContextBuilder()
	require.NoError(t, err)

	t.Run("documents fill an empty FAQ quota", func(t *testing.T) {
		var evidence []*core.Evidence
		for i := 0; i < 5; i++ {
			document := fmt.Sprintf("docs/%d.md", i)
			evidence = append(evidence, chunkEvidence(document, "Text.", 0.8))
		}

		payload := builder.Build("What is the orbit?", evidence, snapshot, nil)
		assert.Equal(t, 4, strings.Count(payload, "[docs/"))
	})

	t.Run("FAQ entries fill an empty document quota", func(t *testing.T) {
		var evidence []*core.Evidence
		for i := 0; i < 5; i++ {
			evidence = append(evidence, faqEvidence(fmt.Sprintf("Question %d?", i), "Answer.", 0.7))
		}

		payload := builder.Build("insat-3d status", evidence, snapshot, nil)
		assert.Equal(t, 4, strings.Count(payload, "[faq]"))
	})
}

func TestContextHistory(t *testing.T) {
	snapshot := contextSnapshot(t)

	history := make([]core.Turn, 0, 7)
	for i := 1; i <= 7; i++ {
		history = append(history, core.Turn{
			Question: fmt.Sprintf("question %d", i),
			Answer:   fmt.Sprintf("answer %d", i),
		})
	}

	t.Run("caps to the most recent turns, oldest first", func(t *testing.T) {
		builder, err := NewContextBuilder()
		require.NoError(t, err)

		payload := builder.Build("follow-up?", nil, snapshot, history)

		assert.Equal(t, 5, strings.Count(payload, "User: "))
		assert.NotContains(t, payload, "question 2")
		assert.Contains(t, payload, "question 3")
		assert.Less(t, strings.Index(payload, "question 3"), strings.Index(payload, "question 7"))
	})

	t.Run("zero limit disables the section", func(t *testing.T) {
		builder, err := NewContextBuilder(WithHistoryLimit(0))
		require.NoError(t, err)

		payload := builder.Build("follow-up?", nil, snapshot, history)
		assert.NotContains(t, payload, "== Conversation ==")
	})

	t.Run("negative limit rejected", func(t *testing.T) {
		_, err := NewContextBuilder(WithHistoryLimit(-1))
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})
}

func TestContextEmptyEvidence(t *testing.T) {
	snapshot := contextSnapshot(t)
	builder, err := NewContextBuilder()
	require.NoError(t, err)

	payload := builder.Build("Anything known?", nil, snapshot, nil)
	assert.Equal(t, "== Question ==\nAnything known?", payload)
}
