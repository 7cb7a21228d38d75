package pkg

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteResponseBytes(t *testing.T) {
	rr := httptest.NewRecorder()

	testJson := `{"key":"val"}`
	WriteResponseBytes(rr, ContentType.JSON, []byte(testJson), http.StatusCreated)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, ContentType.JSON, rr.Header().Get("Content-Type"))
	assert.Equal(t, testJson, rr.Body.String())
}

func TestWriteTextResponseOK(t *testing.T) {
	rr := httptest.NewRecorder()

	WriteTextResponseOK(rr, "test text")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, ContentType.Text, rr.Header().Get("Content-Type"))
	assert.Equal(t, "test text", rr.Body.String())
}

func TestSendValidationErrors(t *testing.T) {
	rr := httptest.NewRecorder()

	SendValidationErrors(rr, []FieldError{
		{Field: "weight", Message: "must be positive"},
		{Field: "hip", Message: "required for female athletes"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, ContentType.JSON, rr.Header().Get("Content-Type"))

	var resp ValidationErrorsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Errors, 2)
	assert.Equal(t, "weight", resp.Errors[0].Field)
	assert.Equal(t, "required for female athletes", resp.Errors[1].Message)
}

func TestSendAPIError(t *testing.T) {
	rr := httptest.NewRecorder()

	SendAPIError(rr, http.StatusNotFound, "athlete not found")

	assert.Equal(t, http.StatusNotFound, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "athlete not found", resp.Error)
}
