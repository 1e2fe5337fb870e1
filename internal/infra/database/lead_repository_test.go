package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/rwa-leads/internal/entity"
)

func newTestRepo(t *testing.T) (*LeadRepository, *sql.DB) {
	t.Helper()
	db := openTestDB(t)
	require.NoError(t, EnsureTable(context.Background(), db, SQLite{}, LeadSchema))
	return NewLeadRepository(db, SQLite{}), db
}

func TestLeadRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo, db := newTestRepo(t)

	age := 42
	created := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	lead := &entity.Lead{
		Name:                 "Carol",
		Gender:               entity.GenderFemale,
		Contact:              "carol@example.com",
		Industry:             "energy",
		JobRole:              "founder",
		PreferenceType:       entity.PreferenceInvest,
		InvestmentPreference: "green bonds",
		Age:                  &age,
		IP:                   "127.0.0.1",
		UserAgent:            "go-test",
		CreatedAt:            created,
	}
	require.NoError(t, repo.Create(ctx, lead))
	require.NotZero(t, lead.ID)

	got, err := repo.FindByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Carol", got.Name)
	assert.Equal(t, "green bonds", got.InvestmentPreference)
	assert.Equal(t, "", got.IncubationInfo)
	require.NotNil(t, got.Age)
	assert.Equal(t, 42, *got.Age)
	assert.True(t, created.Equal(got.CreatedAt))

	var incubationNull, locationNull bool
	err = db.QueryRowContext(ctx,
		`SELECT incubation_info IS NULL, location IS NULL FROM lead WHERE id = ?`, lead.ID,
	).Scan(&incubationNull, &locationNull)
	require.NoError(t, err)
	assert.True(t, incubationNull, "unset optional columns are stored as NULL")
	assert.True(t, locationNull)
}

func TestLeadRepository_FindMissing(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.FindByID(context.Background(), 999)
	assert.ErrorIs(t, err, entity.ErrLeadNotFound)
}

func TestLeadRepository_UpdateFields(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	lead := &entity.Lead{Name: "Dan", Location: "Lisbon"}
	require.NoError(t, repo.Create(ctx, lead))

	err := repo.UpdateFields(ctx, lead.ID, map[string]any{
		"industry": "logistics",
		"location": nil,
	})
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "logistics", got.Industry)
	assert.Equal(t, "", got.Location, "nil clears the column")
	assert.Equal(t, "Dan", got.Name, "columns outside the set are untouched")
	assert.True(t, lead.CreatedAt.Equal(got.CreatedAt))

	assert.Error(t, repo.UpdateFields(ctx, lead.ID, map[string]any{"id": 5}))
	assert.Error(t, repo.UpdateFields(ctx, lead.ID, map[string]any{"created_at": time.Now()}))
	assert.Error(t, repo.UpdateFields(ctx, lead.ID, map[string]any{"bogus; DROP TABLE lead": 1}))

	assert.ErrorIs(t, repo.UpdateFields(ctx, 12345, map[string]any{"industry": "x"}), entity.ErrLeadNotFound)
}

func TestLeadRepository_DeleteListCountEach(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []int64
	for i := 0; i < 5; i++ {
		l := &entity.Lead{Name: "lead", CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, repo.Create(ctx, l))
		ids = append(ids, l.ID)
	}

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, total)

	page, err := repo.List(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[4], page[0].ID, "newest first")
	assert.Equal(t, ids[3], page[1].ID)

	page, err = repo.List(ctx, 4, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[0], page[0].ID)

	require.NoError(t, repo.Delete(ctx, ids[2]))
	assert.ErrorIs(t, repo.Delete(ctx, ids[2]), entity.ErrLeadNotFound)

	var seen []int64
	require.NoError(t, repo.Each(ctx, func(l *entity.Lead) error {
		seen = append(seen, l.ID)
		return nil
	}))
	assert.Equal(t, []int64{ids[4], ids[3], ids[1], ids[0]}, seen)
}

func TestLeadRepository_WritesProceedDuringEach(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	for _, name := range []string{"Ann", "Ben"} {
		require.NoError(t, repo.Create(ctx, &entity.Lead{Name: name, CreatedAt: time.Now().UTC()}))
	}

	seen := 0
	err := repo.Each(ctx, func(*entity.Lead) error {
		seen++
		if seen > 1 {
			return nil
		}
		wctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := repo.Create(wctx, &entity.Lead{Name: "Cid", CreatedAt: time.Now().UTC()}); err != nil {
			return err
		}
		return repo.UpdateFields(wctx, 1, map[string]any{"industry": "energy"})
	})
	require.NoError(t, err, "a submission must not wait for an export to finish")
	assert.Equal(t, 2, seen, "the export reads the snapshot it started with")

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}
