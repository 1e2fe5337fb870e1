package usecase

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/rwa-leads/internal/entity"
)

const FinalStep = 4

// SubmitStepUseCase drives the stepped form. It holds no per-session state: the
// draft reference travels in and out through DraftSession, so a client can only
// reach the draft its own session points at.
type SubmitStepUseCase struct {
	Repo   entity.LeadRepositoryInterface
	Schema SchemaGuard
	Events LeadEventPublisher
	Log    *zap.Logger
	Now    func() time.Time
}

func NewSubmitStepUseCase(
	repo entity.LeadRepositoryInterface,
	schema SchemaGuard,
	events LeadEventPublisher,
	log *zap.Logger,
) *SubmitStepUseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &SubmitStepUseCase{
		Repo:   repo,
		Schema: schema,
		Events: events,
		Log:    log,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// Execute applies one step and returns the session the caller must store. On
// error the returned session is still the one to store: a stale draft reference
// is dropped so the next step 1 starts clean.
func (uc *SubmitStepUseCase) Execute(ctx context.Context, sess DraftSession, input StepInput) (DraftSession, *StepOutput, error) {
	step, err := strconv.Atoi(strings.TrimSpace(input.Step))
	if err != nil || step < 1 || step > FinalStep {
		return sess, nil, ErrMissingStep
	}

	if step == 1 {
		return uc.startDraft(ctx, sess, input)
	}

	if !sess.HasDraft() {
		return sess, nil, ErrNoDraft
	}

	if _, err := uc.Repo.FindByID(ctx, sess.DraftID); err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return DraftSession{}, nil, ErrDraftNotFound
		}
		return sess, nil, storageFailure(ctx, uc.Schema, uc.Log, err)
	}

	fields := stepFields(step, input)
	if err := uc.Repo.UpdateFields(ctx, sess.DraftID, fields); err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return DraftSession{}, nil, ErrDraftNotFound
		}
		return sess, nil, storageFailure(ctx, uc.Schema, uc.Log, err)
	}

	out := &StepOutput{Step: step, LeadID: sess.DraftID}
	if step == FinalStep {
		out.Finalized = true
		uc.publishFinalized(ctx, sess.DraftID)
		return DraftSession{}, out, nil
	}
	return sess, out, nil
}

// startDraft creates the draft. Nothing is rejected here: absent fields become
// empty placeholders and an unusable age is left unset.
func (uc *SubmitStepUseCase) startDraft(ctx context.Context, sess DraftSession, input StepInput) (DraftSession, *StepOutput, error) {
	lead := &entity.Lead{
		Name:      clip(input.field("name"), entity.MaxNameLen),
		Gender:    clip(input.field("gender"), entity.MaxGenderLen),
		Contact:   clip(input.field("contact"), entity.MaxContactLen),
		IP:        clip(input.Meta.IP, entity.MaxIPLen),
		UserAgent: clip(input.Meta.UserAgent, entity.MaxUserAgentLen),
		CreatedAt: uc.Now(),
	}
	if raw := input.field("age"); strings.TrimSpace(raw) != "" {
		if age, ok := parseAge(raw); ok {
			lead.Age = &age
		}
	}

	if err := uc.Repo.Create(ctx, lead); err != nil {
		return sess, nil, storageFailure(ctx, uc.Schema, uc.Log, err)
	}

	uc.Log.Debug("draft created", zap.Int64("lead_id", lead.ID))
	return DraftSession{DraftID: lead.ID}, &StepOutput{Step: 1, LeadID: lead.ID}, nil
}

// stepFields is the column set one step owns. Every owned column is written, so a
// field omitted from the payload clears any earlier value.
func stepFields(step int, input StepInput) map[string]any {
	switch step {
	case 2:
		return map[string]any{
			"location": optional(clip(input.field("location"), entity.MaxLocationLen)),
			"industry": clip(input.field("industry"), entity.MaxIndustryLen),
			"job_role": clip(input.field("job_role"), entity.MaxJobRoleLen),
		}
	case 3:
		pref := entity.Lead{
			PreferenceType:       clip(input.field("preference_type"), entity.MaxPreferenceTypeLen),
			InvestmentPreference: strings.TrimSpace(input.field("investment_preference")),
			IncubationInfo:       strings.TrimSpace(input.field("incubation_info")),
		}
		pref.NormalizePreference()
		return map[string]any{
			"preference_type":       pref.PreferenceType,
			"investment_preference": optional(pref.InvestmentPreference),
			"incubation_info":       optional(pref.IncubationInfo),
			"investment_experience": optional(strings.TrimSpace(input.field("investment_experience"))),
			"tech_adaptability":     optional(clip(input.field("tech_adaptability"), entity.MaxTechAdaptabilityLen)),
		}
	default:
		return map[string]any{
			"high_net_worth":      optional(clip(input.field("high_net_worth"), entity.MaxHighNetWorthLen)),
			"expected_investment": optional(clip(input.field("expected_investment"), entity.MaxExpectedInvestmentLen)),
		}
	}
}

func (uc *SubmitStepUseCase) publishFinalized(ctx context.Context, id int64) {
	if uc.Events == nil {
		return
	}
	lead, err := uc.Repo.FindByID(ctx, id)
	if err != nil {
		uc.Log.Warn("finalized lead not readable for notification", zap.Int64("lead_id", id), zap.Error(err))
		return
	}
	publishLead(ctx, uc.Events, uc.Log, lead, OriginSteppedForm)
}
