package badger

import (
	"errors"

	"github.com/poiesic/retrievit/storage"
)

// Repositories bundles the four repositories built over one shared backend.
type Repositories struct {
	Graph   storage.GraphRepository
	Chunks  storage.ChunkRepository
	FAQs    storage.FAQRepository
	Reports storage.ReportRepository

	backend *Backend
}

// NewRepositories opens a backend at path and builds all repositories over it.
// With inMemory set, nothing touches disk.
func NewRepositories(path string, inMemory bool) (*Repositories, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}

	graphRepo, err := NewGraphRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	chunkRepo, err := NewChunkRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	faqRepo, err := NewFAQRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Repositories{
		Graph:   graphRepo,
		Chunks:  chunkRepo,
		FAQs:    faqRepo,
		Reports: NewReportRepository(backend),
		backend: backend,
	}, nil
}

// Backend returns the shared backend.
func (r *Repositories) Backend() *Backend {
	return r.backend
}

// Close closes every repository and the shared backend.
func (r *Repositories) Close() error {
	return errors.Join(
		r.Graph.Close(),
		r.Chunks.Close(),
		r.FAQs.Close(),
		r.Reports.Close(),
		r.backend.Close(),
	)
}
