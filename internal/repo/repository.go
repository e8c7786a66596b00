package repo

import (
	"context"
	"errors"
	"time"

	"github.com/hamed0406/sshcheck/internal/domain"
)

// ErrNotFound is returned by Get/Append/Complete for an unknown batch ID.
var ErrNotFound = errors.New("batch not found")

// Batch is a recorded probe run. Records live only for the lifetime of the
// process.
type Batch struct {
	ID        string               `json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	Total     int                  `json:"total"`
	Done      bool                 `json:"done"`
	Results   []domain.ProbeResult `json:"results"`
}

// BatchStore is the port the API serves batches through. Any adapter that
// honors the same contract can back it.
type BatchStore interface {
	// Create registers a new pending batch of the given size.
	Create(ctx context.Context, total int) (*Batch, error)
	// Append records one more result for an in-flight batch.
	Append(ctx context.Context, id string, r domain.ProbeResult) error
	// Complete marks the batch finished.
	Complete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Batch, error)
	// List returns all batches, oldest first.
	List(ctx context.Context) ([]*Batch, error)
}
