package search

import "github.com/quillnotes/quill/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterSemanticSearch(results []*core.SearchResult)
	AfterKeywordSearch(results []*core.SearchResult)
	SemanticHit(result *core.SearchResult)
	KeywordHit(result *core.SearchResult)
	Duplicate(id string)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                            {}
func (n *noopMonitor) AfterSemanticSearch(_ []*core.SearchResult) {}
func (n *noopMonitor) AfterKeywordSearch(_ []*core.SearchResult)  {}
func (n *noopMonitor) SemanticHit(_ *core.SearchResult)           {}
func (n *noopMonitor) KeywordHit(_ *core.SearchResult)            {}
func (n *noopMonitor) Duplicate(_ string)                         {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)              {}
