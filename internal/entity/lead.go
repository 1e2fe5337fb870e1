package entity

import (
	"context"
	"errors"
	"time"
)

var (
	ErrLeadNotFound = errors.New("lead not found")
	// ErrSchemaDrift marks a storage failure caused by the live table missing a
	// column or the table itself.
	ErrSchemaDrift = errors.New("live schema is older than the code")
)

// Column widths of the lead table, in characters.
const (
	MaxNameLen               = 64
	MaxGenderLen             = 8
	MaxContactLen            = 128
	MaxIndustryLen           = 128
	MaxJobRoleLen            = 128
	MaxPreferenceTypeLen     = 32
	MaxLocationLen           = 128
	MaxTechAdaptabilityLen   = 64
	MaxHighNetWorthLen       = 16
	MaxExpectedInvestmentLen = 64
	MaxIPLen                 = 64
	MaxUserAgentLen          = 255

	MinAge = 0
	MaxAge = 120
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"

	PreferenceInvest   = "invest"
	PreferenceIncubate = "incubate"
)

// Lead is one survey submission. A lead created by the first step of the stepped
// flow stays partial (empty step 2-4 fields) until the last step lands.
type Lead struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	Gender               string    `json:"gender"`
	Contact              string    `json:"contact"`
	Industry             string    `json:"industry"`
	JobRole              string    `json:"job_role"`
	PreferenceType       string    `json:"preference_type"`
	InvestmentPreference string    `json:"investment_preference,omitempty"`
	IncubationInfo       string    `json:"incubation_info,omitempty"`
	Age                  *int      `json:"age,omitempty"`
	Location             string    `json:"location,omitempty"`
	InvestmentExperience string    `json:"investment_experience,omitempty"`
	TechAdaptability     string    `json:"tech_adaptability,omitempty"`
	HighNetWorth         string    `json:"high_net_worth,omitempty"`
	ExpectedInvestment   string    `json:"expected_investment,omitempty"`
	IP                   string    `json:"ip"`
	UserAgent            string    `json:"user_agent"`
	CreatedAt            time.Time `json:"created_at"`
}

func IsValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

func IsValidPreference(p string) bool {
	return p == PreferenceInvest || p == PreferenceIncubate
}

// NormalizePreference clears the detail field that preference_type does not select,
// so at most one of the two is ever stored.
func (l *Lead) NormalizePreference() {
	switch l.PreferenceType {
	case PreferenceInvest:
		l.IncubationInfo = ""
	case PreferenceIncubate:
		l.InvestmentPreference = ""
	default:
		l.InvestmentPreference = ""
		l.IncubationInfo = ""
	}
}

// LeadPage is one page of the admin listing.
type LeadPage struct {
	Items   []*Lead `json:"items"`
	Total   int     `json:"total"`
	Page    int     `json:"page"`
	PerPage int     `json:"per_page"`
	Pages   int     `json:"pages"`
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id int64) (*Lead, error)
	// UpdateFields overwrites only the named columns of one row.
	UpdateFields(ctx context.Context, id int64, fields map[string]any) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, offset, limit int) ([]*Lead, error)
	Count(ctx context.Context) (int, error)
	Each(ctx context.Context, fn func(*Lead) error) error
}
