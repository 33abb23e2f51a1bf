package utils

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samaj-registry/registry-backend/v1/models"
)

func TestRespondWithJSON_WritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()
	RespondWithJSON(recorder, 201, map[string]string{"status": "pending"})

	assert.Equal(t, 201, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "pending", body["status"])
}

func TestRespondWithError_IncludesDetailsOnlyWhenPresent(t *testing.T) {
	recorder := httptest.NewRecorder()
	RespondWithError(recorder, 400, "Invalid request", errors.New("headName is required"))

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid request", resp.Error)
	assert.Equal(t, "headName is required", resp.Details)

	recorder = httptest.NewRecorder()
	RespondWithError(recorder, 500, "Internal server error", nil)

	resp = models.ErrorResponse{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Empty(t, resp.Details)
}
