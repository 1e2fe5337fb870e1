package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/xavierca1/rwa-leads/internal/entity"
)

const DefaultPageSize = 20

// ListLeadsUseCase backs the admin table. Every call first makes sure the live
// schema can serve the query.
type ListLeadsUseCase struct {
	Repo     entity.LeadRepositoryInterface
	Schema   SchemaGuard
	PageSize int
	Log      *zap.Logger
}

func NewListLeadsUseCase(repo entity.LeadRepositoryInterface, schema SchemaGuard, pageSize int, log *zap.Logger) *ListLeadsUseCase {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ListLeadsUseCase{Repo: repo, Schema: schema, PageSize: pageSize, Log: log}
}

func (uc *ListLeadsUseCase) Execute(ctx context.Context, page int) (*entity.LeadPage, error) {
	if page < 1 {
		page = 1
	}
	if !uc.Schema.ReconcileOnDemand(ctx) {
		return nil, ErrSchemaUnavailable
	}

	total, err := uc.Repo.Count(ctx)
	if err != nil {
		return nil, storageFailure(ctx, uc.Schema, uc.Log, err)
	}
	items, err := uc.Repo.List(ctx, (page-1)*uc.PageSize, uc.PageSize)
	if err != nil {
		return nil, storageFailure(ctx, uc.Schema, uc.Log, err)
	}
	if items == nil {
		items = []*entity.Lead{}
	}

	return &entity.LeadPage{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: uc.PageSize,
		Pages:   (total + uc.PageSize - 1) / uc.PageSize,
	}, nil
}

// ExportLeadsUseCase streams every lead to a LeadWriter. Prepare must succeed
// before anything is written to the client.
type ExportLeadsUseCase struct {
	Repo   entity.LeadRepositoryInterface
	Schema SchemaGuard
	Log    *zap.Logger
}

func NewExportLeadsUseCase(repo entity.LeadRepositoryInterface, schema SchemaGuard, log *zap.Logger) *ExportLeadsUseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExportLeadsUseCase{Repo: repo, Schema: schema, Log: log}
}

func (uc *ExportLeadsUseCase) Prepare(ctx context.Context) error {
	if !uc.Schema.ReconcileOnDemand(ctx) {
		return ErrSchemaUnavailable
	}
	return nil
}

// Execute returns the number of rows written.
func (uc *ExportLeadsUseCase) Execute(ctx context.Context, w LeadWriter) (int, error) {
	n := 0
	err := uc.Repo.Each(ctx, func(lead *entity.Lead) error {
		if err := w.Write(lead); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		if errors.Is(err, entity.ErrSchemaDrift) {
			return n, storageFailure(ctx, uc.Schema, uc.Log, err)
		}
		uc.Log.Error("export interrupted", zap.Int("rows", n), zap.Error(err))
		return n, err
	}
	return n, w.Flush()
}

type DeleteLeadUseCase struct {
	Repo   entity.LeadRepositoryInterface
	Schema SchemaGuard
	Log    *zap.Logger
}

func NewDeleteLeadUseCase(repo entity.LeadRepositoryInterface, schema SchemaGuard, log *zap.Logger) *DeleteLeadUseCase {
	if log == nil {
		log = zap.NewNop()
	}
	return &DeleteLeadUseCase{Repo: repo, Schema: schema, Log: log}
}

func (uc *DeleteLeadUseCase) Execute(ctx context.Context, id int64) error {
	if err := uc.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return ErrLeadNotFound
		}
		return storageFailure(ctx, uc.Schema, uc.Log, err)
	}
	uc.Log.Info("lead deleted", zap.Int64("lead_id", id))
	return nil
}
