package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/rwa-leads/internal/entity"
	"github.com/xavierca1/rwa-leads/internal/infra/database"
	"github.com/xavierca1/rwa-leads/internal/infra/queue"
)

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id int64) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) UpdateFields(ctx context.Context, id int64, fields map[string]any) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockLeadRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockLeadRepository) List(ctx context.Context, offset, limit int) ([]*entity.Lead, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockLeadRepository) Each(ctx context.Context, fn func(*entity.Lead) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}

type MockSchemaGuard struct {
	mock.Mock
}

func (m *MockSchemaGuard) ReconcileOnDemand(ctx context.Context, columns ...string) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishLeadFinalized(ctx context.Context, payload queue.LeadFinalizedPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// sqliteStore is a real repository and reconciler over a temp database.
func sqliteStore(t *testing.T) (*database.LeadRepository, *database.Reconciler) {
	t.Helper()
	db, dialect, err := database.NewDBConnection("sqlite", t.TempDir()+"/data.db")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.EnsureTable(context.Background(), db, dialect, database.LeadSchema))
	return database.NewLeadRepository(db, dialect), database.NewReconciler(db, dialect, database.LeadSchema, nil)
}
