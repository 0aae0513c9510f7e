package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorShapes(t *testing.T) {
	rec := httptest.NewRecorder()
	InvalidID(rec)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Invalid ID"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Internal(rec)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Message(rec, "done")
	assert.JSONEq(t, `{"message":"done"}`, rec.Body.String())
}

func TestValidationErrorListsFields(t *testing.T) {
	type input struct {
		Email string `validate:"required,email"`
		Name  string `validate:"required"`
	}
	err := validator.New().Struct(input{Email: "nope"})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	ValidationError(rec, err)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid request","fields":{"Email":"email","Name":"required"}}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var target struct {
		A string `json:"a"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"b"}`))
	require.NoError(t, DecodeJSON(req, &target))
	assert.Equal(t, "b", target.A)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.ErrorIs(t, DecodeJSON(req, &target), ErrEmptyBody)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.Error(t, DecodeJSON(req, &target))
}
