package handlers

import (
	"context"
	"crypto/subtle"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/rwa-leads/internal/entity"
	"github.com/xavierca1/rwa-leads/internal/infra/database"
	"github.com/xavierca1/rwa-leads/internal/infra/export"
	"github.com/xavierca1/rwa-leads/internal/infra/http/middleware"
	"github.com/xavierca1/rwa-leads/internal/usecase"
)

type LeadLister interface {
	Execute(ctx context.Context, page int) (*entity.LeadPage, error)
}

type LeadExporter interface {
	Prepare(ctx context.Context) error
	Execute(ctx context.Context, w usecase.LeadWriter) (int, error)
}

type LeadDeleter interface {
	Execute(ctx context.Context, id int64) error
}

// SchemaRepairer is the manual side of the reconciler.
type SchemaRepairer interface {
	Reconcile(ctx context.Context) database.ReconcileResult
	ReconcileOnDemand(ctx context.Context, columns ...string) bool
	LiveColumns(ctx context.Context) ([]string, error)
}

type AdminCredentials struct {
	Username string
	Password string
}

type AdminHandler struct {
	Credentials AdminCredentials
	Sessions    SessionManager
	List        LeadLister
	Export      LeadExporter
	Delete      LeadDeleter
	Schema      SchemaRepairer
	Log         *zap.Logger
}

func NewAdminHandler(
	creds AdminCredentials,
	sessions SessionManager,
	list LeadLister,
	exp LeadExporter,
	del LeadDeleter,
	schema SchemaRepairer,
	log *zap.Logger,
) *AdminHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminHandler{
		Credentials: creds,
		Sessions:    sessions,
		List:        list,
		Export:      exp,
		Delete:      del,
		Schema:      schema,
		Log:         log,
	}
}

// RequireAdmin rejects requests whose session has not logged in.
func (h *AdminHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.Sessions.Load(r).Data.IsAdmin {
			writeJSON(w, http.StatusUnauthorized, Response{Msg: "login required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *AdminHandler) checkCredentials(user, pass string) bool {
	if h.Credentials.Password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(h.Credentials.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(h.Credentials.Password)) == 1
	return userOK && passOK
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Msg: "invalid request body"})
		return
	}

	if !h.checkCredentials(fields["username"], fields["password"]) {
		h.Log.Warn("admin login rejected", zap.String("ip", middleware.ClientIP(r)))
		writeJSON(w, http.StatusUnauthorized, Response{Msg: "invalid username or password"})
		return
	}

	sess := h.Sessions.Load(r)
	sess.Data.IsAdmin = true
	if err := h.Sessions.Save(w, r, sess); err != nil {
		h.Log.Error("session save failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Response{Msg: "internal error, please try again later"})
		return
	}

	h.Log.Info("admin logged in", zap.String("ip", middleware.ClientIP(r)))
	writeJSON(w, http.StatusOK, Response{Success: true})
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := h.Sessions.Load(r)
	if err := h.Sessions.Destroy(w, r, sess); err != nil {
		h.Log.Warn("session destroy failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, Response{Success: true})
}

// Leads handles GET /admin/leads?page=N.
func (h *AdminHandler) Leads(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := h.List.Execute(r.Context(), page)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: result})
}

func (h *AdminHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	if err := h.Export.Prepare(r.Context()); err != nil {
		writeError(w, h.Log, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.CSVFilename+`"`)
	h.stream(w, r, export.NewCSVWriter(w), "csv")
}

func (h *AdminHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	if err := h.Export.Prepare(r.Context()); err != nil {
		writeError(w, h.Log, err)
		return
	}

	xw, err := export.NewXLSXWriter(w)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.XLSXFilename+`"`)
	h.stream(w, r, xw, "xlsx")
}

// stream runs the export. Both writers hold output back until their first row or
// Flush, so a failure with zero rows can still become a proper error response.
// Writers holding temp resources are closed on every path.
func (h *AdminHandler) stream(w http.ResponseWriter, r *http.Request, lw usecase.LeadWriter, format string) {
	if c, ok := lw.(io.Closer); ok {
		defer c.Close()
	}
	n, err := h.Export.Execute(r.Context(), lw)
	if err != nil {
		if n == 0 {
			w.Header().Del("Content-Disposition")
			writeError(w, h.Log, err)
			return
		}
		h.Log.Error("export aborted mid-stream", zap.String("format", format), zap.Int("rows", n), zap.Error(err))
		return
	}
	h.Log.Info("leads exported", zap.String("format", format), zap.Int("rows", n))
}

// DeleteLead handles DELETE /admin/leads/{id} and its POST form fallback.
func (h *AdminHandler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, Response{Msg: "invalid lead id"})
		return
	}

	if err := h.Delete.Execute(r.Context(), id); err != nil {
		writeError(w, h.Log, err)
		return
	}

	middleware.RecordLeadDeleted()
	writeJSON(w, http.StatusOK, Response{Success: true})
}

type fixDBReport struct {
	Before         []string          `json:"before"`
	After          []string          `json:"after"`
	Added          []string          `json:"added"`
	AlreadyPresent []string          `json:"already_present"`
	Failed         map[string]string `json:"failed,omitempty"`
	TableCreated   bool              `json:"table_created,omitempty"`
}

// FixDB runs a manual reconciliation and reports the live columns around it.
func (h *AdminHandler) FixDB(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	res := h.Schema.Reconcile(ctx)
	report := fixDBReport{
		Before:         res.Before,
		Added:          res.Added,
		AlreadyPresent: res.AlreadyPresent,
	}
	for col, err := range res.Failed {
		if report.Failed == nil {
			report.Failed = map[string]string{}
		}
		report.Failed[col] = err.Error()
	}

	ok := res.Complete()
	if res.TableAbsent {
		ok = h.Schema.ReconcileOnDemand(ctx)
		report.TableCreated = ok
	}

	after, err := h.Schema.LiveColumns(ctx)
	if err != nil {
		h.Log.Error("column listing failed after repair", zap.Error(err))
		ok = false
	}
	report.After = after

	if res.Err != nil {
		writeJSON(w, http.StatusServiceUnavailable, Response{Msg: "schema repair failed, see server logs", Data: report})
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, Response{Msg: "schema partially repaired", Data: report})
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: report})
}
