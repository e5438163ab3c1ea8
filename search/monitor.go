package search

import (
	"github.com/poiesic/retrievit/core"
)

// QueryMonitor provides hooks to observe one query end to end.
// Implement this interface to track intermediate stages and results.
// Collection branches run concurrently, so callbacks between Start and
// Finish may arrive from different goroutines.
type QueryMonitor interface {
	Start(query string)
	AfterEntityMatch(matches []Match)
	AfterGraphTraversal(paths []*core.FactPath)
	AfterVectorSearch(snippets []*core.Evidence)
	AfterFAQMatch(result *FAQResult)
	DirectAnswer(faq *core.FAQEntry, score float64)
	AfterFusion(evidence []*core.Evidence)
	Finish(result *core.QueryResult)
}

// noopMonitor is a no-op implementation of QueryMonitor
type noopMonitor struct{}

var _ QueryMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                           {}
func (n *noopMonitor) AfterEntityMatch(_ []Match)               {}
func (n *noopMonitor) AfterGraphTraversal(_ []*core.FactPath)   {}
func (n *noopMonitor) AfterVectorSearch(_ []*core.Evidence)     {}
func (n *noopMonitor) AfterFAQMatch(_ *FAQResult)               {}
func (n *noopMonitor) DirectAnswer(_ *core.FAQEntry, _ float64) {}
func (n *noopMonitor) AfterFusion(_ []*core.Evidence)           {}
func (n *noopMonitor) Finish(_ *core.QueryResult)               {}
