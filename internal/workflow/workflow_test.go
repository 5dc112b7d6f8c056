package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"grievance-intake-go/internal/config"
	"grievance-intake-go/internal/events"
	"grievance-intake-go/internal/logger"
	"grievance-intake-go/internal/storage"
	"grievance-intake-go/internal/types"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, ev events.Event) error {
	return m.Called(ctx, ev).Error(0)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) AppendStatus(ctx context.Context, id string, entry types.StatusEntry, guard storage.Guard) (*types.ComplaintRecord, error) {
	args := m.Called(ctx, id, entry, guard)
	rec, _ := args.Get(0).(*types.ComplaintRecord)
	return rec, args.Error(1)
}

func newSQLiteStore(t *testing.T) *storage.Store {
	t.Helper()
	db, err := storage.Open(context.Background(), config.DBConfig{
		Driver:         "sqlite",
		SQLitePath:     fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		ConnectTimeout: time.Second,
	}, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return storage.New(db, logger.Discard())
}

func seed(t *testing.T, s *storage.Store) *types.ComplaintRecord {
	t.Helper()
	rec := types.NewComplaintRecord(types.NewComplaintParams{
		SubmitterID:    "citizen-1",
		Contact:        types.ContactMetadata{Name: "Meena", Mobile: "7012345678", AreaCode: "560001"},
		SourceLanguage: types.LanguageEnglish,
		OriginalText:   "Garbage not collected",
		Category:       types.CategorySanitation,
		Department:     "Sanitation Department",
	}, time.Now().Add(-time.Hour))
	require.NoError(t, s.Create(context.Background(), rec))
	return rec
}

func TestCompleteRelation(t *testing.T) {
	r := Complete()
	for _, from := range types.Statuses() {
		assert.Equal(t, types.Statuses(), r.Targets(from))
		for _, to := range types.Statuses() {
			assert.True(t, r.Allowed(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, r.Allowed("Closed", types.StatusResolved))
}

func TestTransition_SubmittedDirectlyToResolved(t *testing.T) {
	s := newSQLiteStore(t)
	rec := seed(t, s)
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(ev events.Event) bool {
		return ev.Type == events.TypeStatusChanged && ev.Status == types.StatusResolved
	})).Return(nil).Once()

	got, err := New(s, pub, logger.Discard()).Transition(context.Background(), rec.ID, "Resolved", "officer-9", "  cleared  ")

	require.NoError(t, err)
	assert.Equal(t, types.StatusResolved, got.Status)
	require.Len(t, got.StatusHistory, 2)
	assert.Equal(t, "officer-9", *got.StatusHistory[1].ActorID)
	assert.Equal(t, "cleared", *got.StatusHistory[1].Remarks)
	assert.NoError(t, got.CheckInvariants())
	pub.AssertExpectations(t)
}

func TestTransition_HistoryGrowsByOnePerTransition(t *testing.T) {
	s := newSQLiteStore(t)
	rec := seed(t, s)
	w := New(s, nil, logger.Discard())

	path := []string{"Under Review", "In Progress", "Resolved", "Submitted", "Resolved"}
	var got *types.ComplaintRecord
	var err error
	for _, st := range path {
		got, err = w.Transition(context.Background(), rec.ID, st, "officer-1", "")
		require.NoError(t, err)
	}

	assert.Len(t, got.StatusHistory, len(path)+1)
	last, _ := got.LastEntry()
	assert.Equal(t, got.Status, last.Status)
	assert.Nil(t, last.Remarks)
	assert.NoError(t, got.CheckInvariants())
}

func TestTransition_InvalidStatusNeverTouchesStore(t *testing.T) {
	store := new(mockStore)
	w := New(store, nil, logger.Discard())

	_, err := w.Transition(context.Background(), "id-1", "Closed", "officer-1", "")

	assert.ErrorIs(t, err, types.ErrInvalidStatus)
	assert.True(t, types.IsValidation(err))
	store.AssertNotCalled(t, "AppendStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTransition_RequiresActor(t *testing.T) {
	store := new(mockStore)
	_, err := New(store, nil, logger.Discard()).Transition(context.Background(), "id-1", "Resolved", " ", "")
	assert.True(t, types.IsValidation(err))
	store.AssertNotCalled(t, "AppendStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTransition_NotFound(t *testing.T) {
	s := newSQLiteStore(t)
	_, err := New(s, nil, logger.Discard()).Transition(context.Background(), "missing", "Resolved", "officer-1", "")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestTransition_RestrictedRelationVetoesUnderLock(t *testing.T) {
	s := newSQLiteStore(t)
	rec := seed(t, s)
	w := New(s, nil, logger.Discard())
	w.relation = Relation{types.StatusSubmitted: {types.StatusUnderReview: true}}

	_, err := w.Transition(context.Background(), rec.ID, "Resolved", "officer-1", "")
	assert.ErrorIs(t, err, ErrTransitionNotAllowed)

	got, err := w.Transition(context.Background(), rec.ID, "Under Review", "officer-1", "")
	require.NoError(t, err)
	assert.Len(t, got.StatusHistory, 2)
}

func TestTransition_PublishFailureIsNotFatal(t *testing.T) {
	s := newSQLiteStore(t)
	rec := seed(t, s)
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	got, err := New(s, pub, logger.Discard()).Transition(context.Background(), rec.ID, "In Progress", "officer-1", "")

	require.NoError(t, err)
	assert.Equal(t, types.StatusInProgress, got.Status)
}
