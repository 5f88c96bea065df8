package local

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pactguard/pactguard/internal/domain/ai"
)

// Fallback is the collaborator used when no provider is configured or the
// real one failed. It does no I/O; the report is then built from the
// document text alone.
type Fallback struct {
	Now func() time.Time
}

func (Fallback) Name() string { return "local" }

func (f Fallback) Analyze(ctx context.Context, text string) (ai.Analysis, error) {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	return ai.Analysis{
		RunID:    "local-" + uuid.NewString(),
		Provider: "local",
		At:       now(),
	}, nil
}
