package usecase

import "time"

// RequestMeta carries what the transport knows about the submitter.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// DraftSession is the only session state the stepped flow reads or writes: the
// id of the draft lead. Zero means no draft.
type DraftSession struct {
	DraftID int64
}

func (s DraftSession) HasDraft() bool { return s.DraftID > 0 }

type StepInput struct {
	Step   string
	Fields map[string]string
	Meta   RequestMeta
}

func (in StepInput) field(name string) string {
	if in.Fields == nil {
		return ""
	}
	return in.Fields[name]
}

type StepOutput struct {
	Step      int   `json:"step"`
	LeadID    int64 `json:"-"`
	Finalized bool  `json:"finalized"`
}

type SubmitLeadInput struct {
	Name                 string `json:"name"`
	Gender               string `json:"gender"`
	Contact              string `json:"contact"`
	Industry             string `json:"industry"`
	JobRole              string `json:"job_role"`
	PreferenceType       string `json:"preference_type"`
	InvestmentPreference string `json:"investment_preference"`
	IncubationInfo       string `json:"incubation_info"`
	Age                  string `json:"age"`
	Location             string `json:"location"`
	InvestmentExperience string `json:"investment_experience"`
	TechAdaptability     string `json:"tech_adaptability"`
	HighNetWorth         string `json:"high_net_worth"`
	ExpectedInvestment   string `json:"expected_investment"`

	Meta RequestMeta `json:"-"`
}

type SubmitLeadOutput struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}
