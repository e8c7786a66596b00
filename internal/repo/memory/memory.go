package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hamed0406/sshcheck/internal/domain"
	"github.com/hamed0406/sshcheck/internal/repo"
)

var _ repo.BatchStore = (*Store)(nil)

// Store keeps batch records in memory, guarded for concurrent appenders.
type Store struct {
	mu      sync.RWMutex
	seq     int
	batches map[string]*repo.Batch
	order   []string
}

func New() *Store {
	return &Store{batches: make(map[string]*repo.Batch)}
}

func (m *Store) Create(ctx context.Context, total int) (*repo.Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	b := &repo.Batch{
		ID:        fmt.Sprintf("%s-%04d", time.Now().UTC().Format("20060102T150405"), m.seq),
		CreatedAt: time.Now().UTC(),
		Total:     total,
		Results:   make([]domain.ProbeResult, 0, total),
	}
	m.batches[b.ID] = b
	m.order = append(m.order, b.ID)
	return copyBatch(b), nil
}

func (m *Store) Append(ctx context.Context, id string, r domain.ProbeResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return repo.ErrNotFound
	}
	b.Results = append(b.Results, r)
	return nil
}

func (m *Store) Complete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return repo.ErrNotFound
	}
	b.Done = true
	return nil
}

func (m *Store) Get(ctx context.Context, id string) (*repo.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.batches[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return copyBatch(b), nil
}

func (m *Store) List(ctx context.Context) ([]*repo.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*repo.Batch, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, copyBatch(m.batches[id]))
	}
	return out, nil
}

// copyBatch hands callers their own copy so appenders cannot race readers.
func copyBatch(b *repo.Batch) *repo.Batch {
	cp := *b
	cp.Results = make([]domain.ProbeResult, len(b.Results))
	copy(cp.Results, b.Results)
	return &cp
}
