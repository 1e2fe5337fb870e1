package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/rwa-leads/internal/infra/http/middleware"
	"github.com/xavierca1/rwa-leads/internal/infra/session"
	"github.com/xavierca1/rwa-leads/internal/usecase"
)

type StepSubmitter interface {
	Execute(ctx context.Context, sess usecase.DraftSession, input usecase.StepInput) (usecase.DraftSession, *usecase.StepOutput, error)
}

type LeadSubmitter interface {
	Execute(ctx context.Context, input usecase.SubmitLeadInput) (*usecase.SubmitLeadOutput, error)
}

// SessionManager loads and persists the server-side session behind the cookie.
type SessionManager interface {
	Load(r *http.Request) *session.Session
	Save(w http.ResponseWriter, r *http.Request, s *session.Session) error
	Destroy(w http.ResponseWriter, r *http.Request, s *session.Session) error
}

type LeadHandler struct {
	Steps    StepSubmitter
	Single   LeadSubmitter
	Sessions SessionManager
	Log      *zap.Logger
}

func NewLeadHandler(steps StepSubmitter, single LeadSubmitter, sessions SessionManager, log *zap.Logger) *LeadHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &LeadHandler{Steps: steps, Single: single, Sessions: sessions, Log: log}
}

func requestMeta(r *http.Request) usecase.RequestMeta {
	return usecase.RequestMeta{
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// SubmitStep handles POST /submit_step.
func (h *LeadHandler) SubmitStep(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Msg: "invalid request body"})
		return
	}

	step := fields["step"]
	delete(fields, "step")

	sess := h.Sessions.Load(r)
	input := usecase.StepInput{Step: step, Fields: fields, Meta: requestMeta(r)}

	next, out, err := h.Steps.Execute(r.Context(), usecase.DraftSession{DraftID: sess.Data.LeadID}, input)

	// the returned session is authoritative on success and on draft-state errors
	if next.DraftID != sess.Data.LeadID {
		sess.Data.LeadID = next.DraftID
		if serr := h.Sessions.Save(w, r, sess); serr != nil {
			h.Log.Error("session save failed", zap.Error(serr))
			if err == nil {
				writeJSON(w, http.StatusInternalServerError, Response{Msg: "internal error, please try again later"})
				middleware.RecordSubmission("stepped", stepLabel(step), "error")
				return
			}
		}
	}

	if err != nil {
		middleware.RecordSubmission("stepped", stepLabel(step), outcome(err))
		writeError(w, h.Log, err)
		return
	}

	middleware.RecordSubmission("stepped", stepLabel(step), "ok")
	writeJSON(w, http.StatusOK, Response{Success: true, Data: out})
}

// Submit handles POST /submit, the single-shot form.
func (h *LeadHandler) Submit(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Msg: "invalid request body"})
		return
	}

	input := usecase.SubmitLeadInput{
		Name:                 fields["name"],
		Gender:               fields["gender"],
		Contact:              fields["contact"],
		Industry:             fields["industry"],
		JobRole:              fields["job_role"],
		PreferenceType:       fields["preference_type"],
		InvestmentPreference: fields["investment_preference"],
		IncubationInfo:       fields["incubation_info"],
		Age:                  fields["age"],
		Location:             fields["location"],
		InvestmentExperience: fields["investment_experience"],
		TechAdaptability:     fields["tech_adaptability"],
		HighNetWorth:         fields["high_net_worth"],
		ExpectedInvestment:   fields["expected_investment"],
		Meta:                 requestMeta(r),
	}

	out, err := h.Single.Execute(r.Context(), input)
	if err != nil {
		middleware.RecordSubmission("single", "all", outcome(err))
		writeError(w, h.Log, err)
		return
	}

	middleware.RecordSubmission("single", "all", "ok")
	writeJSON(w, http.StatusOK, Response{Success: true, Data: out})
}

func stepLabel(step string) string {
	switch step {
	case "1", "2", "3", "4":
		return step
	default:
		return "invalid"
	}
}

func outcome(err error) string {
	switch {
	case usecase.NeedsRestart(err):
		return "restart"
	case usecase.IsDomainError(err):
		return "rejected"
	case usecase.IsTechnicalError(err):
		return "error"
	default:
		return "invalid"
	}
}
