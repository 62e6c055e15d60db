package providers

import (
	"github.com/samber/do/v2"

	"github.com/scentlog/scentlog-server/internal/logger"
	"github.com/scentlog/scentlog-server/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index. It starts empty and is
// filled when the collection loads.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.New(log.Logger)
	if err != nil {
		return nil, err
	}

	return &SearchIndexHandle{Index: index}, nil
}
