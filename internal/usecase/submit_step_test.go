package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xavierca1/rwa-leads/internal/entity"
	"github.com/xavierca1/rwa-leads/internal/infra/queue"
)

func stepInput(step string, kv ...string) StepInput {
	fields := map[string]string{}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[kv[i]] = kv[i+1]
	}
	return StepInput{
		Step:   step,
		Fields: fields,
		Meta:   RequestMeta{IP: "198.51.100.4", UserAgent: "test-agent"},
	}
}

func TestSubmitStep_FullFlowUpdatesOneRecord(t *testing.T) {
	ctx := context.Background()
	repo, guard := sqliteStore(t)
	uc := NewSubmitStepUseCase(repo, guard, nil, zap.NewNop())

	sess, out, err := uc.Execute(ctx, DraftSession{}, stepInput("1", "name", "Erin", "gender", "female", "contact", "erin@x.io", "age", "29"))
	require.NoError(t, err)
	require.True(t, sess.HasDraft())
	assert.Equal(t, 1, out.Step)

	draft, err := repo.FindByID(ctx, sess.DraftID)
	require.NoError(t, err)
	id, created := draft.ID, draft.CreatedAt
	assert.Equal(t, "198.51.100.4", draft.IP)
	assert.Equal(t, "test-agent", draft.UserAgent)

	steps := []StepInput{
		stepInput("2", "location", "Singapore", "industry", "shipping", "job_role", "cfo"),
		stepInput("3", "preference_type", "invest", "investment_preference", "trade finance", "investment_experience", "5 years", "tech_adaptability", "high"),
		stepInput("4", "high_net_worth", "yes", "expected_investment", "1-5M"),
	}
	for _, in := range steps {
		sess, out, err = uc.Execute(ctx, sess, in)
		require.NoError(t, err, in.Step)

		got, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.True(t, created.Equal(got.CreatedAt), "created_at is fixed at step 1")
	}

	assert.True(t, out.Finalized)
	assert.False(t, sess.HasDraft(), "finalizing clears the draft reference")

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	final, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Erin", final.Name)
	assert.Equal(t, "shipping", final.Industry)
	assert.Equal(t, "trade finance", final.InvestmentPreference)
	assert.Equal(t, "1-5M", final.ExpectedInvestment)
	require.NotNil(t, final.Age)
	assert.Equal(t, 29, *final.Age)
}

func TestSubmitStep_MissingDraftAsksForRestart(t *testing.T) {
	ctx := context.Background()
	repo, guard := sqliteStore(t)
	uc := NewSubmitStepUseCase(repo, guard, nil, zap.NewNop())

	sess, out, err := uc.Execute(ctx, DraftSession{}, stepInput("2", "industry", "x"))
	assert.ErrorIs(t, err, ErrNoDraft)
	assert.True(t, NeedsRestart(err))
	assert.Nil(t, out)
	assert.False(t, sess.HasDraft())

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSubmitStep_DeletedDraftAsksForRestart(t *testing.T) {
	ctx := context.Background()
	repo, guard := sqliteStore(t)
	uc := NewSubmitStepUseCase(repo, guard, nil, zap.NewNop())

	sess, _, err := uc.Execute(ctx, DraftSession{}, stepInput("1", "name", "Finn"))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, sess.DraftID))

	next, _, err := uc.Execute(ctx, sess, stepInput("3", "preference_type", "invest"))
	assert.ErrorIs(t, err, ErrDraftNotFound)
	assert.True(t, NeedsRestart(err))
	assert.False(t, next.HasDraft(), "stale reference is dropped")
}

func TestSubmitStep_InvalidStepChangesNothing(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLeadRepository)
	uc := NewSubmitStepUseCase(repo, new(MockSchemaGuard), nil, zap.NewNop())

	for _, step := range []string{"", "0", "5", "two", "1.5"} {
		sess, out, err := uc.Execute(ctx, DraftSession{DraftID: 3}, stepInput(step))
		assert.ErrorIs(t, err, ErrMissingStep, step)
		assert.Nil(t, out)
		assert.Equal(t, DraftSession{DraftID: 3}, sess)
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitStep_AgeBoundsAtStepOne(t *testing.T) {
	ctx := context.Background()
	repo, guard := sqliteStore(t)
	uc := NewSubmitStepUseCase(repo, guard, nil, zap.NewNop())

	cases := []struct {
		raw  string
		want *int
	}{
		{"-1", nil},
		{"121", nil},
		{"abc", nil},
		{"", nil},
		{"0", intPtr(0)},
		{"120", intPtr(120)},
		{" 45 ", intPtr(45)},
	}
	for _, tc := range cases {
		sess, _, err := uc.Execute(ctx, DraftSession{}, stepInput("1", "name", "Gia", "age", tc.raw))
		require.NoError(t, err, "step 1 never rejects age %q", tc.raw)

		got, err := repo.FindByID(ctx, sess.DraftID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got.Age, tc.raw)
	}
}

func TestSubmitStep_PreferenceDetailsAreExclusive(t *testing.T) {
	ctx := context.Background()
	repo, guard := sqliteStore(t)
	uc := NewSubmitStepUseCase(repo, guard, nil, zap.NewNop())

	rng := rand.New(rand.NewSource(42))
	prefs := []string{entity.PreferenceInvest, entity.PreferenceIncubate, "", "other"}

	for i := 0; i < 100; i++ {
		sess, _, err := uc.Execute(ctx, DraftSession{}, stepInput("1", "name", fmt.Sprintf("lead-%d", i)))
		require.NoError(t, err)
		id := sess.DraftID

		// a client may resubmit step 3 with a different choice before finishing
		for j := 0; j <= rng.Intn(3); j++ {
			kv := []string{"preference_type", prefs[rng.Intn(len(prefs))]}
			if rng.Intn(2) == 0 {
				kv = append(kv, "investment_preference", fmt.Sprintf("ip-%d-%d", i, j))
			}
			if rng.Intn(2) == 0 {
				kv = append(kv, "incubation_info", fmt.Sprintf("ii-%d-%d", i, j))
			}
			sess, _, err = uc.Execute(ctx, sess, stepInput("3", kv...))
			require.NoError(t, err)
		}
		_, _, err = uc.Execute(ctx, sess, stepInput("4", "high_net_worth", "no"))
		require.NoError(t, err)

		got, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, got.InvestmentPreference != "" && got.IncubationInfo != "",
			"lead %d has both details", id)
		switch got.PreferenceType {
		case entity.PreferenceInvest:
			assert.Empty(t, got.IncubationInfo)
		case entity.PreferenceIncubate:
			assert.Empty(t, got.InvestmentPreference)
		default:
			assert.Empty(t, got.IncubationInfo)
			assert.Empty(t, got.InvestmentPreference)
		}
	}
}

func TestSubmitStep_OverlongValuesAreClipped(t *testing.T) {
	ctx := context.Background()
	repo, guard := sqliteStore(t)
	uc := NewSubmitStepUseCase(repo, guard, nil, zap.NewNop())

	long := ""
	for i := 0; i < 100; i++ {
		long += "名"
	}
	sess, _, err := uc.Execute(ctx, DraftSession{}, stepInput("1", "name", long))
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, sess.DraftID)
	require.NoError(t, err)
	assert.Equal(t, entity.MaxNameLen, len([]rune(got.Name)))
}

func TestSubmitStep_FinalizePublishesEvent(t *testing.T) {
	ctx := context.Background()
	repo, guard := sqliteStore(t)
	pub := new(MockPublisher)
	uc := NewSubmitStepUseCase(repo, guard, pub, zap.NewNop())

	sess, _, err := uc.Execute(ctx, DraftSession{}, stepInput("1", "name", "Hana"))
	require.NoError(t, err)
	id := sess.DraftID

	pub.On("PublishLeadFinalized", mock.Anything, mock.MatchedBy(func(p queue.LeadFinalizedPayload) bool {
		return p.LeadID == id && p.Origin == OriginSteppedForm && p.Name == "Hana" && p.EventID != ""
	})).Return(errors.New("broker down")).Once()

	_, out, err := uc.Execute(ctx, sess, stepInput("4", "expected_investment", "100k"))
	require.NoError(t, err, "a broker failure does not fail the submission")
	assert.True(t, out.Finalized)
	pub.AssertExpectations(t)
}

func TestSubmitStep_SchemaDriftIsRetryable(t *testing.T) {
	ctx := context.Background()
	repo := new(MockLeadRepository)
	guard := new(MockSchemaGuard)
	uc := NewSubmitStepUseCase(repo, guard, nil, zap.NewNop())

	repo.On("FindByID", mock.Anything, int64(7)).Return(&entity.Lead{ID: 7}, nil)
	repo.On("UpdateFields", mock.Anything, int64(7), mock.Anything).
		Return(fmt.Errorf("update lead: %w: no such column: location", entity.ErrSchemaDrift))
	guard.On("ReconcileOnDemand", mock.Anything).Return(true).Once()

	sess, _, err := uc.Execute(ctx, DraftSession{DraftID: 7}, stepInput("2", "location", "Oslo"))
	assert.ErrorIs(t, err, ErrSchemaUnavailable)
	assert.Equal(t, DraftSession{DraftID: 7}, sess, "draft is kept for the retry")
	guard.AssertExpectations(t)
}

func TestSubmitStep_StorageFailureIsNotRetryable(t *testing.T) {
	repo := new(MockLeadRepository)
	uc := NewSubmitStepUseCase(repo, new(MockSchemaGuard), nil, zap.NewNop())

	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, _, err := uc.Execute(context.Background(), DraftSession{}, stepInput("1"))
	var te *TechnicalError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, CodeDatabase, te.Code)
	assert.False(t, te.Retryable)
}

func intPtr(v int) *int { return &v }
