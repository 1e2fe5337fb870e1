package usecase

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/rwa-leads/internal/entity"
	"github.com/xavierca1/rwa-leads/internal/infra/queue"
)

const (
	OriginSteppedForm = "STEPPED_FORM"
	OriginSingleForm  = "SINGLE_FORM"
)

// publishLead is best effort: the lead is already committed, a broker outage must
// not turn a saved submission into a failure.
func publishLead(ctx context.Context, events LeadEventPublisher, log *zap.Logger, lead *entity.Lead, origin string) {
	if events == nil {
		return
	}
	payload := queue.LeadFinalizedPayload{
		EventID:            uuid.New().String(),
		LeadID:             lead.ID,
		Origin:             origin,
		Name:               lead.Name,
		Gender:             lead.Gender,
		Contact:            lead.Contact,
		Industry:           lead.Industry,
		JobRole:            lead.JobRole,
		PreferenceType:     lead.PreferenceType,
		ExpectedInvestment: lead.ExpectedInvestment,
		HighNetWorth:       lead.HighNetWorth,
		CreatedAt:          lead.CreatedAt,
	}
	if err := events.PublishLeadFinalized(ctx, payload); err != nil {
		log.Warn("lead saved but event not published", zap.Int64("lead_id", lead.ID), zap.Error(err))
	}
}
