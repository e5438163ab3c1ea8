package core

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing so that identical logical
// input always produces the same identifier across rebuilds.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkID derives the identifier for a document chunk from its owning
// document reference and text. The unit separator keeps (document, text)
// pairs unambiguous.
func ChunkID(document, text string) ID {
	return IDFromContent(document + "\x1f" + text)
}

// FAQID derives the identifier for an FAQ entry from its question text.
func FAQID(question string) ID {
	return IDFromContent("faq:" + question)
}

// Entity is a canonical node in the knowledge graph.
// Entities are created by the offline normalization pass and are immutable
// during query serving.
type Entity struct {
	Id       ID
	Name     string   // Canonical display name (most frequent surface form)
	Type     string   // Type tag, e.g. "satellite", "instrument", "organization"
	Aliases  []string // Canonicalized surface forms, sorted, each resolving to this entity
	Sources  []string // Source-document references, sorted
	Mentions int      // Number of raw mentions merged into this entity
}

// Tuple returns a string representation of the entity as "(Type,Name)".
// This is used for generating deterministic IDs.
func (e *Entity) Tuple() string {
	return "(" + e.Type + "," + e.Name + ")"
}

// Edge is a directed, confidence-weighted relation between two entities.
type Edge struct {
	Subject    ID
	Predicate  string
	Object     ID
	Confidence float64  // In [0,1]
	Sources    []string // Source-document references, sorted
}

// Key returns the canonical identity of the edge. Edges with the same key
// are duplicates and get merged during normalization.
func (e *Edge) Key() string {
	return fmt.Sprintf("%016x|%s|%016x", uint64(e.Subject), e.Predicate, uint64(e.Object))
}

// DocumentChunk is a span of document text with its embedding vector.
type DocumentChunk struct {
	Id       ID
	Document string // Owning document reference (e.g. source filename)
	Text     string
	Vector   []float32 // Fixed dimension D, produced by the embedding collaborator
}

// FAQEntry is a curated question/answer pair. The vector embeds the
// question text, not the answer.
type FAQEntry struct {
	Id       ID
	Question string
	Answer   string
	Vector   []float32
}

// RawMention is a single entity mention as produced by the extraction
// collaborator, before normalization.
type RawMention struct {
	Name   string
	Type   string // May be empty; the normalizer assigns a default
	Source string // Source-document reference
}

// RawTriple is a candidate relation as produced by the extraction
// collaborator. Subject/object are surface strings resolved against the
// normalized alias index; type fields are hints and may be empty.
type RawTriple struct {
	Subject     string
	SubjectType string
	Predicate   string
	Object      string
	ObjectType  string
	Confidence  float64
	Source      string
}

// FactPath is a sequence of edges discovered by graph traversal, scored as
// the product of edge confidences decayed per hop.
type FactPath struct {
	Seed     ID     // The matched entity the traversal started from
	Entities []ID   // Node sequence, len(Entities) == len(Edges)+1
	Edges    []*Edge
	Score    float64
}

// Key returns the canonical identity of the path (its edge keys joined in
// order). Used for deduplication across seeds.
func (p *FactPath) Key() string {
	keys := make([]string, len(p.Edges))
	for i, e := range p.Edges {
		keys[i] = e.Key()
	}
	return strings.Join(keys, "->")
}

// Start returns the first entity on the path.
func (p *FactPath) Start() ID {
	if len(p.Entities) == 0 {
		return 0
	}
	return p.Entities[0]
}

// End returns the last entity on the path.
func (p *FactPath) End() ID {
	if len(p.Entities) == 0 {
		return 0
	}
	return p.Entities[len(p.Entities)-1]
}

// EvidenceKind tags the source a piece of evidence came from.
type EvidenceKind int

const (
	// EvidenceGraphFact is a fact path from graph traversal.
	EvidenceGraphFact EvidenceKind = iota + 1
	// EvidenceDocumentSnippet is a document chunk from the vector index.
	EvidenceDocumentSnippet
	// EvidenceFaqHit is an FAQ entry matched by the query embedding.
	EvidenceFaqHit
)

// String returns a short label for the evidence kind.
func (k EvidenceKind) String() string {
	switch k {
	case EvidenceGraphFact:
		return "graph"
	case EvidenceDocumentSnippet:
		return "vector"
	case EvidenceFaqHit:
		return "faq"
	default:
		return "unknown"
	}
}

// Evidence is one piece of retrieved support for an answer. Exactly one of
// Path, Chunk, FAQ is set, matching Kind.
type Evidence struct {
	Kind        EvidenceKind
	Provenance  string  // Stable reference to the underlying record
	RawScore    float64 // Source-specific score before fusion
	FusionScore float64 // Normalized, weighted score in [0,1]
	Path        *FactPath
	Chunk       *DocumentChunk
	FAQ         *FAQEntry
}

// NewGraphFact wraps a fact path as evidence.
func NewGraphFact(path *FactPath) *Evidence {
	return &Evidence{
		Kind:       EvidenceGraphFact,
		Provenance: path.Key(),
		RawScore:   path.Score,
		Path:       path,
	}
}

// NewDocumentSnippet wraps a document chunk as evidence.
func NewDocumentSnippet(chunk *DocumentChunk, similarity float64) *Evidence {
	return &Evidence{
		Kind:       EvidenceDocumentSnippet,
		Provenance: fmt.Sprintf("%016x", uint64(chunk.Id)),
		RawScore:   similarity,
		Chunk:      chunk,
	}
}

// NewFaqHit wraps an FAQ entry as evidence.
func NewFaqHit(faq *FAQEntry, similarity float64) *Evidence {
	return &Evidence{
		Kind:       EvidenceFaqHit,
		Provenance: fmt.Sprintf("%016x", uint64(faq.Id)),
		RawScore:   similarity,
		FAQ:        faq,
	}
}

// Outcome classifies the terminal state of a query.
type Outcome int

const (
	// OutcomeEvidence means fused evidence is available for synthesis.
	OutcomeEvidence Outcome = iota + 1
	// OutcomeDirectAnswer means a high-confidence FAQ hit short-circuited fusion.
	OutcomeDirectAnswer
	// OutcomeNoEvidence means all sources came back empty. This is a valid
	// terminal result, not an error.
	OutcomeNoEvidence
)

// String returns a short label for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeEvidence:
		return "evidence"
	case OutcomeDirectAnswer:
		return "direct-answer"
	case OutcomeNoEvidence:
		return "no-evidence"
	default:
		return "unknown"
	}
}

// Turn is one prior exchange in a conversation, carried into the context
// payload so the synthesis collaborator can resolve follow-up questions.
type Turn struct {
	Question string
	Answer   string
}

// QueryResult is the full outcome of serving one query.
type QueryResult struct {
	Query            string
	TraceID          string // Per-query trace identifier
	Outcome          Outcome
	EntityIDs        []ID        // Matched seed entities, possibly empty
	Evidence         []*Evidence // Ranked, deduplicated, truncated
	Answer           string      // Short-circuit answer text, empty otherwise
	AnswerProvenance ID          // FAQ entry behind a short-circuit answer
	Context          string      // Assembled payload for the synthesis collaborator
	Partial          bool        // True when the per-query timeout truncated collection
	Elapsed          time.Duration
}

// Conflict records two alias groups that were similar enough to merge but
// disagreed on type. Both entities are kept.
type Conflict struct {
	LeftAlias  string
	RightAlias string
	LeftType   string
	RightType  string
	Similarity float64
}

// NormalizationReport summarizes one normalization run. The offline build
// extends it with corpus counts before persisting it.
type NormalizationReport struct {
	RunID             string // UUID of the run
	Entities          int
	Edges             int
	MergedMentions    int // Mentions folded into an existing alias group
	FuzzyMerges       int // Alias groups united by fuzzy similarity
	DroppedEdges      int // Edges with an unresolvable endpoint
	DroppedSelfLoops  int
	MalformedMentions int
	MalformedTriples  int
	MalformedChunks   int
	MalformedFAQs     int
	Conflicts         []Conflict
	Duration          time.Duration
	CompletedAt       time.Time
}
