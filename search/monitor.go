package search

// SearchMonitor provides hooks to observe a search run.
// Hooks are called on the goroutine that invoked the Searcher, in input order.
type SearchMonitor interface {
	Start(query string, keywords []string, total int)
	Matched(index int, hits []Hit)
	Rejected(index int)
	Finish(matched, total int)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ []string, _ int) {}
func (n *noopMonitor) Matched(_ int, _ []Hit)            {}
func (n *noopMonitor) Rejected(_ int)                    {}
func (n *noopMonitor) Finish(_, _ int)                   {}
