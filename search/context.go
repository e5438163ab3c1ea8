package search

import (
	"fmt"
	"strings"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/graph"
)

const (
	// DefaultHistoryLimit caps how many prior turns enter the payload.
	DefaultHistoryLimit = 5

	// snippetLimit caps the knowledge snippet section.
	snippetLimit = 4
)

// Snippet quotas under snippetLimit. Question-shaped queries favor FAQ
// entries, statements favor document snippets.
const (
	questionFAQQuota  = 2
	questionDocQuota  = 2
	statementDocQuota = 3
	statementFAQQuota = 1
)

// ContextBuilder renders fused evidence into the sectioned plain-text
// payload the synthesis collaborator consumes. The question is always the
// final line of the payload.
type ContextBuilder struct {
	historyLimit int
}

// ContextOption configures a ContextBuilder.
type ContextOption func(*ContextBuilder) error

// WithHistoryLimit caps how many prior conversation turns are rendered.
// Zero disables the conversation section. Default is DefaultHistoryLimit.
func WithHistoryLimit(limit int) ContextOption {
	return func(b *ContextBuilder) error {
		if limit < 0 {
			return ErrInvalidLimit
		}
		b.historyLimit = limit
		return nil
	}
}

// NewContextBuilder creates a context builder with the default limits.
func NewContextBuilder(opts ...ContextOption) (*ContextBuilder, error) {
	b := &ContextBuilder{
		historyLimit: DefaultHistoryLimit,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Build renders the payload for one query. Sections with nothing to say
// are omitted; the question line is always present.
func (b *ContextBuilder) Build(question string, evidence []*core.Evidence, snapshot *Snapshot, history []core.Turn) string {
	var (
		graphFacts []*core.Evidence
		docHits    []*core.Evidence
		faqHits    []*core.Evidence
	)
	for _, item := range evidence {
		switch item.Kind {
		case core.EvidenceGraphFact:
			graphFacts = append(graphFacts, item)
		case core.EvidenceDocumentSnippet:
			docHits = append(docHits, item)
		case core.EvidenceFaqHit:
			faqHits = append(faqHits, item)
		}
	}

	var payload strings.Builder

	if facts := renderFacts(graphFacts, snapshot.Graph); len(facts) > 0 {
		payload.WriteString("== Graph facts ==\n")
		for _, fact := range facts {
			payload.WriteString(fact)
			payload.WriteByte('\n')
		}
		payload.WriteByte('\n')
	}

	if snippets := mixSnippets(question, docHits, faqHits); len(snippets) > 0 {
		payload.WriteString("== Knowledge snippets ==\n")
		for _, snippet := range snippets {
			payload.WriteString(snippet)
			payload.WriteByte('\n')
		}
		payload.WriteByte('\n')
	}

	if b.historyLimit > 0 && len(history) > 0 {
		if len(history) > b.historyLimit {
			history = history[len(history)-b.historyLimit:]
		}
		payload.WriteString("== Conversation ==\n")
		for _, turn := range history {
			payload.WriteString("User: ")
			payload.WriteString(turn.Question)
			payload.WriteByte('\n')
			payload.WriteString("Assistant: ")
			payload.WriteString(turn.Answer)
			payload.WriteByte('\n')
		}
		payload.WriteByte('\n')
	}

	payload.WriteString("== Question ==\n")
	payload.WriteString(strings.TrimSpace(question))

	return payload.String()
}

// renderFacts flattens fact paths into deduplicated "A --rel--> B" lines.
// Each edge is stated in its own direction regardless of how the traversal
// reached it.
func renderFacts(facts []*core.Evidence, g *graph.Snapshot) []string {
	var lines []string
	seen := make(map[string]struct{})

	for _, fact := range facts {
		for _, edge := range fact.Path.Edges {
			subject, ok := g.Entity(edge.Subject)
			if !ok {
				continue
			}
			object, ok := g.Entity(edge.Object)
			if !ok {
				continue
			}
			line := fmt.Sprintf("%s --%s--> %s", subject.Name, edge.Predicate, object.Name)
			if _, dup := seen[line]; dup {
				continue
			}
			seen[line] = struct{}{}
			lines = append(lines, line)
		}
	}
	return lines
}

// mixSnippets fills the snippet section from both sources under the
// section cap, backfilling unused quota from the other source.
// Question-shaped queries list FAQ entries first.
func mixSnippets(question string, docHits, faqHits []*core.Evidence) []string {
	faqQuota, docQuota := statementFAQQuota, statementDocQuota
	faqFirst := isQuestionLike(question)
	if faqFirst {
		faqQuota, docQuota = questionFAQQuota, questionDocQuota
	}

	faqTaken := min(faqQuota, len(faqHits))
	docTaken := min(docQuota, len(docHits))

	if spare := snippetLimit - faqTaken - docTaken; spare > 0 {
		if extra := min(spare, len(docHits)-docTaken); extra > 0 {
			docTaken += extra
			spare -= extra
		}
		if extra := min(spare, len(faqHits)-faqTaken); extra > 0 {
			faqTaken += extra
		}
	}

	lines := make([]string, 0, faqTaken+docTaken)
	appendFAQs := func() {
		for _, hit := range faqHits[:faqTaken] {
			lines = append(lines, fmt.Sprintf("[faq] Q: %s A: %s", hit.FAQ.Question, hit.FAQ.Answer))
		}
	}
	appendDocs := func() {
		for _, hit := range docHits[:docTaken] {
			lines = append(lines, fmt.Sprintf("[%s] %s", hit.Chunk.Document, hit.Chunk.Text))
		}
	}

	if faqFirst {
		appendFAQs()
		appendDocs()
	} else {
		appendDocs()
		appendFAQs()
	}
	return lines
}
