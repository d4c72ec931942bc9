package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/nathanfredericks/instagrader/internal/models"
)

type essayFixture struct {
	service      EssayService
	essays       *memoryEssayRepo
	storage      *stubStorage
	dispatcher   *recordingDispatcher
	userID       uint
	assignmentID uuid.UUID
}

func newEssayFixture(t *testing.T) *essayFixture {
	t.Helper()

	fx := &essayFixture{
		essays:       newMemoryEssayRepo(),
		storage:      newStubStorage(),
		dispatcher:   &recordingDispatcher{},
		userID:       1,
		assignmentID: uuid.New(),
	}
	fx.essays.setOwner(fx.assignmentID, fx.userID)
	fx.service = NewEssayService(fx.essays, fx.storage, fx.dispatcher, zerolog.Nop())
	return fx
}

func (fx *essayFixture) addEssay(status models.EssayStatus) models.Essay {
	essay := models.Essay{
		ID:           uuid.New(),
		AssignmentID: fx.assignmentID,
		FileName:     "alice.txt",
		StorageKey:   "k/alice",
		Status:       status,
	}
	fx.essays.add(essay)
	return essay
}

func TestEssayGetForeignLooksMissing(t *testing.T) {
	fx := newEssayFixture(t)
	essay := fx.addEssay(models.EssayStatusPending)

	_, err := fx.service.Get(context.Background(), 99, essay.ID)
	require.ErrorIs(t, err, ErrEssayNotFound)

	got, err := fx.service.Get(context.Background(), fx.userID, essay.ID)
	require.NoError(t, err)
	require.Equal(t, essay.ID, got.ID)
}

func TestEssayDeleteRemovesStoredObject(t *testing.T) {
	fx := newEssayFixture(t)
	essay := fx.addEssay(models.EssayStatusProcessing)

	require.NoError(t, fx.service.Delete(context.Background(), fx.userID, essay.ID))

	_, err := fx.service.Get(context.Background(), fx.userID, essay.ID)
	require.ErrorIs(t, err, ErrEssayNotFound)
	require.Equal(t, []string{"k/alice"}, fx.storage.deleted)
}

func TestEssayRetryResetsFailedEssay(t *testing.T) {
	fx := newEssayFixture(t)
	essay := fx.addEssay(models.EssayStatusFailed)

	retried, err := fx.service.Retry(context.Background(), fx.userID, essay.ID)
	require.NoError(t, err)
	require.Equal(t, models.EssayStatusPending, retried.Status)
	require.Equal(t, models.EssayStatusPending, fx.essays.get(essay.ID).Status)

	require.Len(t, fx.dispatcher.batches, 1)
	require.Equal(t, fx.assignmentID, fx.dispatcher.batches[0].AssignmentID)
	require.Equal(t, []uuid.UUID{essay.ID}, fx.dispatcher.batches[0].EssayIDs)
}

func TestEssayRetryRejectsNonFailedStates(t *testing.T) {
	fx := newEssayFixture(t)

	for _, status := range []models.EssayStatus{
		models.EssayStatusPending,
		models.EssayStatusProcessing,
		models.EssayStatusGraded,
		models.EssayStatusReviewed,
	} {
		essay := fx.addEssay(status)
		_, err := fx.service.Retry(context.Background(), fx.userID, essay.ID)
		require.ErrorIs(t, err, ErrEssayNotRetryable, "status %s", status)
	}

	require.Empty(t, fx.dispatcher.batches)
}

func TestEssayRetrySurfacesDispatchFailure(t *testing.T) {
	fx := newEssayFixture(t)
	essay := fx.addEssay(models.EssayStatusFailed)
	fx.dispatcher.err = errors.New("nats down")

	_, err := fx.service.Retry(context.Background(), fx.userID, essay.ID)
	require.Error(t, err)
}
