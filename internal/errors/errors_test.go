package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "bad input")
	assert.Equal(t, "bad input", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, ErrDataNotFound)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "DATA_NOT_FOUND", resp.Error.ErrorCode)
}

func TestProblemDetails_MarshalIncludesExtensions(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", "bad start date", "/api/curve/snapshots").
		WithExtension("error_code", "VALIDATION_FAILED")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeValidation, body["type"])
	assert.Equal(t, "bad start date", body["detail"])
	assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
}

func TestAppError_WrappingAndContext(t *testing.T) {
	cause := errors.New("short row")
	err := NewParsingError("csv row malformed", cause).WithContext("row", 17)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "PARSING")
	assert.Contains(t, err.Error(), "short row")
	assert.Equal(t, 17, err.Context["row"])

	var appErr *AppError
	require.True(t, errors.As(fmt.Errorf("wrap: %w", err), &appErr))
	assert.Equal(t, ErrTypeParsing, appErr.Type)
}

func TestErrValidationHelpers(t *testing.T) {
	err := ErrValidation("seed", "must be an integer")
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)

	detail, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "seed", detail.Field)

	multi := NewValidationErrors([]ValidationError{
		{Field: "start", Message: "required"},
		{Field: "end", Message: "required"},
	})
	errs, ok := multi.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, errs.Errors, 2)
}
