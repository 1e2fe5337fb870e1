package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/rwa-leads/internal/entity"
)

// SubmitLeadUseCase is the single-shot form: validate everything, write one row.
type SubmitLeadUseCase struct {
	Repo   entity.LeadRepositoryInterface
	Schema SchemaGuard
	Events LeadEventPublisher
	Log    *zap.Logger
	Now    func() time.Time
}

func NewSubmitLeadUseCase(
	repo entity.LeadRepositoryInterface,
	schema SchemaGuard,
	events LeadEventPublisher,
	log *zap.Logger,
) *SubmitLeadUseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &SubmitLeadUseCase{
		Repo:   repo,
		Schema: schema,
		Events: events,
		Log:    log,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

func (uc *SubmitLeadUseCase) Execute(ctx context.Context, input SubmitLeadInput) (*SubmitLeadOutput, error) {
	input = trimSubmitLeadInput(input)

	if verr := ValidateSubmitLeadInput(input); verr != nil {
		return nil, *verr
	}

	lead := &entity.Lead{
		Name:                 input.Name,
		Gender:               input.Gender,
		Contact:              input.Contact,
		Industry:             input.Industry,
		JobRole:              input.JobRole,
		PreferenceType:       input.PreferenceType,
		InvestmentPreference: input.InvestmentPreference,
		IncubationInfo:       input.IncubationInfo,
		Location:             clip(input.Location, entity.MaxLocationLen),
		InvestmentExperience: input.InvestmentExperience,
		TechAdaptability:     clip(input.TechAdaptability, entity.MaxTechAdaptabilityLen),
		HighNetWorth:         clip(input.HighNetWorth, entity.MaxHighNetWorthLen),
		ExpectedInvestment:   clip(input.ExpectedInvestment, entity.MaxExpectedInvestmentLen),
		IP:                   clip(input.Meta.IP, entity.MaxIPLen),
		UserAgent:            clip(input.Meta.UserAgent, entity.MaxUserAgentLen),
		CreatedAt:            uc.Now(),
	}
	lead.NormalizePreference()
	if input.Age != "" {
		age, _ := parseAge(input.Age)
		lead.Age = &age
	}

	if err := uc.Repo.Create(ctx, lead); err != nil {
		return nil, storageFailure(ctx, uc.Schema, uc.Log, err)
	}

	publishLead(ctx, uc.Events, uc.Log, lead, OriginSingleForm)

	return &SubmitLeadOutput{ID: lead.ID, CreatedAt: lead.CreatedAt}, nil
}

func trimSubmitLeadInput(in SubmitLeadInput) SubmitLeadInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Gender = strings.TrimSpace(in.Gender)
	in.Contact = strings.TrimSpace(in.Contact)
	in.Industry = strings.TrimSpace(in.Industry)
	in.JobRole = strings.TrimSpace(in.JobRole)
	in.PreferenceType = strings.TrimSpace(in.PreferenceType)
	in.InvestmentPreference = strings.TrimSpace(in.InvestmentPreference)
	in.IncubationInfo = strings.TrimSpace(in.IncubationInfo)
	in.Age = strings.TrimSpace(in.Age)
	in.Location = strings.TrimSpace(in.Location)
	in.InvestmentExperience = strings.TrimSpace(in.InvestmentExperience)
	in.TechAdaptability = strings.TrimSpace(in.TechAdaptability)
	in.HighNetWorth = strings.TrimSpace(in.HighNetWorth)
	in.ExpectedInvestment = strings.TrimSpace(in.ExpectedInvestment)
	return in
}
