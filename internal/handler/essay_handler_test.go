package handler_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nathanfredericks/instagrader/internal/dto"
	"github.com/nathanfredericks/instagrader/internal/models"
)

func (env *testEnv) seedEssay(t *testing.T, assignmentID uuid.UUID, status models.EssayStatus) models.Essay {
	t.Helper()

	essay := models.Essay{
		AssignmentID:  assignmentID,
		FileName:      "alice.txt",
		StorageKey:    "k/alice",
		ExtractedText: "essay body",
		Status:        status,
	}
	require.NoError(t, env.db.Create(&essay).Error)
	return essay
}

func TestEssayGetIncludesExtractedText(t *testing.T) {
	env := setupAPI(t)
	created := env.createAssignment(t)
	essay := env.seedEssay(t, created.ID, models.EssayStatusProcessing)

	resp, err := env.app.Test(httptest.NewRequest("GET", "/api/v1/essays/"+essay.ID.String(), nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var detail dto.EssayResponse
	decodeResponse(t, resp, &detail)
	require.Equal(t, "essay body", detail.ExtractedText)
	require.Equal(t, created.ID, detail.AssignmentID)
}

func TestEssayGetUnknownID(t *testing.T) {
	env := setupAPI(t)

	resp, err := env.app.Test(httptest.NewRequest("GET", "/api/v1/essays/"+uuid.NewString(), nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	requireDetail(t, resp, "essay not found")
}

func TestEssayDeleteEndpoint(t *testing.T) {
	env := setupAPI(t)
	created := env.createAssignment(t)
	essay := env.seedEssay(t, created.ID, models.EssayStatusProcessing)

	resp, err := env.app.Test(httptest.NewRequest("DELETE", "/api/v1/essays/"+essay.ID.String(), nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, err = env.app.Test(httptest.NewRequest("GET", "/api/v1/essays/"+essay.ID.String(), nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestEssayRetryEndpoint(t *testing.T) {
	env := setupAPI(t)
	created := env.createAssignment(t)
	essay := env.seedEssay(t, created.ID, models.EssayStatusFailed)

	resp, err := env.app.Test(httptest.NewRequest("POST", "/api/v1/essays/"+essay.ID.String()+"/retry", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var detail dto.EssayResponse
	decodeResponse(t, resp, &detail)
	require.Equal(t, models.EssayStatusPending, detail.Status)
	require.Len(t, env.dispatcher.batches, 1)
	require.Equal(t, []uuid.UUID{essay.ID}, env.dispatcher.batches[0].EssayIDs)
}

func TestEssayRetryRejectsNonFailed(t *testing.T) {
	env := setupAPI(t)
	created := env.createAssignment(t)
	essay := env.seedEssay(t, created.ID, models.EssayStatusPending)

	resp, err := env.app.Test(httptest.NewRequest("POST", "/api/v1/essays/"+essay.ID.String()+"/retry", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
	requireDetail(t, resp, "only failed essays can be retried")
}
