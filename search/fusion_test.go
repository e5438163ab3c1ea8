package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/retrievit/core"
)

func graphEvidence(subject, object core.ID, predicate string, score float64) *core.Evidence {
	path := &core.FactPath{
		Seed:     subject,
		Entities: []core.ID{subject, object},
		Edges:    []*core.Edge{{Subject: subject, Predicate: predicate, Object: object, Confidence: score}},
		Score:    score,
	}
	return core.NewGraphFact(path)
}

func chunkEvidence(document, text string, score float64) *core.Evidence {
	chunk := &core.DocumentChunk{Id: core.ChunkID(document, text), Document: document, Text: text}
	return core.NewDocumentSnippet(chunk, score)
}

func faqEvidence(question, answer string, score float64) *core.Evidence {
	faq := &core.FAQEntry{Id: core.FAQID(question), Question: question, Answer: answer}
	return core.NewFaqHit(faq, score)
}

func TestNewFuser(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		fuser, err := NewFuser()
		require.NoError(t, err)
		assert.NotNil(t, fuser)
	})

	t.Run("weights not summing to one", func(t *testing.T) {
		_, err := NewFuser(WithWeights(0.5, 0.5, 0.5))
		assert.ErrorIs(t, err, ErrInvalidWeights)
	})

	t.Run("negative weight", func(t *testing.T) {
		_, err := NewFuser(WithWeights(1.2, -0.1, -0.1))
		assert.ErrorIs(t, err, ErrInvalidWeights)
	})

	t.Run("duplicate priority kind", func(t *testing.T) {
		_, err := NewFuser(WithPriority(core.EvidenceGraphFact, core.EvidenceGraphFact, core.EvidenceFaqHit))
		assert.ErrorIs(t, err, ErrInvalidPriority)
	})

	t.Run("incomplete priority", func(t *testing.T) {
		_, err := NewFuser(WithPriority(core.EvidenceGraphFact, core.EvidenceFaqHit))
		assert.ErrorIs(t, err, ErrInvalidPriority)
	})

	t.Run("zero evidence cap", func(t *testing.T) {
		_, err := NewFuser(WithMaxEvidence(0))
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})
}

func TestFuseEmpty(t *testing.T) {
	fuser, err := NewFuser()
	require.NoError(t, err)

	assert.Empty(t, fuser.Fuse(nil))
	assert.Empty(t, fuser.Fuse([]*core.Evidence{}))
}

func TestFuseSingleSnippet(t *testing.T) {
	fuser, err := NewFuser()
	require.NoError(t, err)

	snippet := chunkEvidence("missions/insat.md", "INSAT-3D is a weather satellite.", 0.4)
	fused := fuser.Fuse([]*core.Evidence{snippet})

	require.Len(t, fused, 1)
	assert.Equal(t, core.EvidenceDocumentSnippet, fused[0].Kind)
	assert.InDelta(t, DefaultVectorWeight*0.4, fused[0].FusionScore, 1e-12)
}

func TestFuseRanksAcrossSources(t *testing.T) {
	fuser, err := NewFuser()
	require.NoError(t, err)

	fused := fuser.Fuse([]*core.Evidence{
		faqEvidence("What orbit?", "Geostationary.", 0.8),
		chunkEvidence("missions/insat.md", "INSAT-3D is a weather satellite.", 0.9),
		graphEvidence(1, 2, "hasOrbit", 0.95),
	})

	require.Len(t, fused, 3)
	assert.Equal(t, core.EvidenceGraphFact, fused[0].Kind)
	assert.Equal(t, core.EvidenceDocumentSnippet, fused[1].Kind)
	assert.Equal(t, core.EvidenceFaqHit, fused[2].Kind)
	assert.InDelta(t, 0.40*0.95, fused[0].FusionScore, 1e-12)
	assert.InDelta(t, 0.35*0.90, fused[1].FusionScore, 1e-12)
	assert.InDelta(t, 0.25*0.80, fused[2].FusionScore, 1e-12)
}

func TestFuseClampsNegativeSimilarity(t *testing.T) {
	fuser, err := NewFuser()
	require.NoError(t, err)

	fused := fuser.Fuse([]*core.Evidence{
		chunkEvidence("missions/insat.md", "Unrelated text.", -0.5),
	})

	require.Len(t, fused, 1)
	assert.Equal(t, 0.0, fused[0].FusionScore)
}

func TestFuseDeduplicates(t *testing.T) {
	t.Run("chunks collapse per document", func(t *testing.T) {
		fuser, err := NewFuser()
		require.NoError(t, err)

		fused := fuser.Fuse([]*core.Evidence{
			chunkEvidence("missions/insat.md", "First chunk.", 0.5),
			chunkEvidence("missions/insat.md", "Second chunk.", 0.9),
			chunkEvidence("missions/oceansat.md", "Other document.", 0.3),
		})

		require.Len(t, fused, 2)
		assert.Equal(t, "Second chunk.", fused[0].Chunk.Text)
		assert.Equal(t, "missions/oceansat.md", fused[1].Chunk.Document)
	})

	t.Run("graph facts collapse per endpoint pair", func(t *testing.T) {
		fuser, err := NewFuser()
		require.NoError(t, err)

		fused := fuser.Fuse([]*core.Evidence{
			graphEvidence(1, 2, "hasOrbit", 0.7),
			graphEvidence(2, 1, "orbitOf", 0.9),
		})

		require.Len(t, fused, 1)
		assert.Equal(t, "orbitOf", fused[0].Path.Edges[0].Predicate)
	})

	t.Run("faq hits collapse per entry", func(t *testing.T) {
		fuser, err := NewFuser()
		require.NoError(t, err)

		fused := fuser.Fuse([]*core.Evidence{
			faqEvidence("What orbit?", "Geostationary.", 0.7),
			faqEvidence("What orbit?", "Geostationary.", 0.9),
		})

		require.Len(t, fused, 1)
		assert.InDelta(t, 0.25*0.9, fused[0].FusionScore, 1e-12)
	})
}

func TestFuseTieBreakPriority(t *testing.T) {
	// Equal weights and equal raw scores force an exact fusion-score tie.
	evidence := func() []*core.Evidence {
		return []*core.Evidence{
			chunkEvidence("missions/insat.md", "Chunk.", 0.5),
			graphEvidence(1, 2, "hasOrbit", 0.5),
		}
	}

	t.Run("default priority favors graph", func(t *testing.T) {
		fuser, err := NewFuser(WithWeights(0.4, 0.4, 0.2))
		require.NoError(t, err)

		fused := fuser.Fuse(evidence())
		require.Len(t, fused, 2)
		assert.Equal(t, fused[0].FusionScore, fused[1].FusionScore)
		assert.Equal(t, core.EvidenceGraphFact, fused[0].Kind)
	})

	t.Run("custom priority flips the tie", func(t *testing.T) {
		fuser, err := NewFuser(
			WithWeights(0.4, 0.4, 0.2),
			WithPriority(core.EvidenceDocumentSnippet, core.EvidenceGraphFact, core.EvidenceFaqHit),
		)
		require.NoError(t, err)

		fused := fuser.Fuse(evidence())
		require.Len(t, fused, 2)
		assert.Equal(t, core.EvidenceDocumentSnippet, fused[0].Kind)
	})
}

func TestFuseTruncates(t *testing.T) {
	fuser, err := NewFuser(WithMaxEvidence(2))
	require.NoError(t, err)

	fused := fuser.Fuse([]*core.Evidence{
		chunkEvidence("docs/a.md", "A.", 0.3),
		chunkEvidence("docs/b.md", "B.", 0.9),
		chunkEvidence("docs/c.md", "C.", 0.6),
	})

	require.Len(t, fused, 2)
	assert.Equal(t, "docs/b.md", fused[0].Chunk.Document)
	assert.Equal(t, "docs/c.md", fused[1].Chunk.Document)
}

func TestFuseDefaultCap(t *testing.T) {
	fuser, err := NewFuser()
	require.NoError(t, err)

	evidence := make([]*core.Evidence, 0, 12)
	for i := 0; i < 12; i++ {
		document := fmt.Sprintf("docs/%02d.md", i)
		evidence = append(evidence, chunkEvidence(document, "Text.", float64(i)/12))
	}

	fused := fuser.Fuse(evidence)
	assert.Len(t, fused, DefaultMaxEvidence)
}

func TestFuseWeightShiftsRanking(t *testing.T) {
	evidence := func() []*core.Evidence {
		return []*core.Evidence{
			graphEvidence(1, 2, "hasOrbit", 0.95),
			chunkEvidence("missions/insat.md", "Strong snippet.", 0.9),
			chunkEvidence("missions/oceansat.md", "Weak snippet.", 0.5),
		}
	}

	defaultFuser, err := NewFuser()
	require.NoError(t, err)
	fused := defaultFuser.Fuse(evidence())
	require.Len(t, fused, 3)
	assert.Equal(t, core.EvidenceGraphFact, fused[0].Kind)

	// Shifting weight toward the vector source promotes snippets past the
	// graph fact but never reorders snippets among themselves.
	vectorHeavy, err := NewFuser(WithWeights(0.20, 0.55, 0.25))
	require.NoError(t, err)
	fused = vectorHeavy.Fuse(evidence())
	require.Len(t, fused, 3)
	assert.Equal(t, core.EvidenceDocumentSnippet, fused[0].Kind)
	assert.Equal(t, "Strong snippet.", fused[0].Chunk.Text)
	assert.Equal(t, "Weak snippet.", fused[1].Chunk.Text)
	assert.Equal(t, core.EvidenceGraphFact, fused[2].Kind)
}
