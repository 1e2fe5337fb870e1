package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xavierca1/rwa-leads/internal/entity"
)

const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeMissingParameter  = "MISSING_PARAMETER"
	CodeNoDraft           = "NO_DRAFT"
	CodeDraftNotFound     = "DRAFT_NOT_FOUND"
	CodeLeadNotFound      = "LEAD_NOT_FOUND"
	CodeSchemaUnavailable = "SCHEMA_UNAVAILABLE"
	CodeDatabase          = "DATABASE_ERROR"
)

// DomainError is a failure the caller caused and can act on.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError is an infrastructure failure. Retryable ones tell the client to
// try again shortly instead of reporting a hard failure.
type TechnicalError struct {
	Code      string
	Message   string
	Retryable bool
	Err       error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error { return e.Err }

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

var (
	ErrMissingStep = &DomainError{
		Code:    CodeMissingParameter,
		Message: "missing step parameter",
	}
	ErrNoDraft = &DomainError{
		Code:    CodeNoDraft,
		Message: "no submission in progress, please reload the page and start again",
	}
	ErrDraftNotFound = &DomainError{
		Code:    CodeDraftNotFound,
		Message: "your submission no longer exists, please reload the page and start again",
	}
	ErrLeadNotFound = &DomainError{
		Code:    CodeLeadNotFound,
		Message: "lead not found",
	}
	ErrSchemaUnavailable = &TechnicalError{
		Code:      CodeSchemaUnavailable,
		Message:   "the database is being updated, please retry in a moment",
		Retryable: true,
	}
)

// NeedsRestart reports the draft-state failures the client recovers from by
// starting the stepped flow over.
func NeedsRestart(err error) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == CodeNoDraft || de.Code == CodeDraftNotFound
}

func databaseError(err error) error {
	return &TechnicalError{
		Code:    CodeDatabase,
		Message: "storage operation failed",
		Err:     err,
	}
}

// storageFailure turns a repository error into what the caller sees. A stale live
// schema triggers an on-demand reconciliation and is always answered as retryable:
// the original statement already failed, the client repeats the request.
func storageFailure(ctx context.Context, guard SchemaGuard, log *zap.Logger, err error) error {
	if errors.Is(err, entity.ErrSchemaDrift) {
		log.Warn("statement hit a stale schema", zap.Error(err))
		if guard != nil && guard.ReconcileOnDemand(ctx) {
			log.Info("schema repaired, client must retry")
		}
		return ErrSchemaUnavailable
	}
	log.Error("storage failure", zap.Error(err))
	return databaseError(err)
}
