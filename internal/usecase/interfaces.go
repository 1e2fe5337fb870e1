package usecase

import (
	"context"

	"github.com/xavierca1/rwa-leads/internal/entity"
	"github.com/xavierca1/rwa-leads/internal/infra/queue"
)

// SchemaGuard repairs a live schema that is older than the code. False means the
// schema is still unusable.
type SchemaGuard interface {
	ReconcileOnDemand(ctx context.Context, columns ...string) bool
}

type LeadEventPublisher interface {
	PublishLeadFinalized(ctx context.Context, payload queue.LeadFinalizedPayload) error
}

// LeadWriter receives exported rows one at a time.
type LeadWriter interface {
	Write(lead *entity.Lead) error
	Flush() error
}
