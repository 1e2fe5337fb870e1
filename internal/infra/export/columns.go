package export

import (
	"strconv"

	"github.com/xavierca1/rwa-leads/internal/entity"
)

const TimeLayout = "2006-01-02 15:04:05"

// Header is the column order of every export format.
var Header = []string{
	"id",
	"name",
	"gender",
	"contact",
	"industry",
	"job_role",
	"preference_type",
	"investment_preference",
	"incubation_info",
	"age",
	"location",
	"investment_experience",
	"tech_adaptability",
	"high_net_worth",
	"expected_investment",
	"ip",
	"user_agent",
	"created_at",
}

// Record renders one lead in Header order. Absent values are empty strings.
func Record(l *entity.Lead) []string {
	age := ""
	if l.Age != nil {
		age = strconv.Itoa(*l.Age)
	}
	created := ""
	if !l.CreatedAt.IsZero() {
		created = l.CreatedAt.UTC().Format(TimeLayout)
	}
	return []string{
		strconv.FormatInt(l.ID, 10),
		l.Name,
		l.Gender,
		l.Contact,
		l.Industry,
		l.JobRole,
		l.PreferenceType,
		l.InvestmentPreference,
		l.IncubationInfo,
		age,
		l.Location,
		l.InvestmentExperience,
		l.TechAdaptability,
		l.HighNetWorth,
		l.ExpectedInvestment,
		l.IP,
		l.UserAgent,
		created,
	}
}
