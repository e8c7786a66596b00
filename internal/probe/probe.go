package probe

import (
	"context"

	"github.com/hamed0406/sshcheck/internal/domain"
)

// Prober performs a single connectivity probe against one host. It never
// returns an error and never panics out: every failure mode is folded into
// the ProbeResult.
type Prober interface {
	Probe(ctx context.Context, req domain.ProbeRequest) domain.ProbeResult
}
