package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Age     *float64 `json:"age" validate:"required,gte=18,lte=100"`
	Kind    string   `json:"kind" validate:"oneof=good bad" default:"good"`
	Comment string   `json:"comment,omitempty"`
}

func TestValidateStruct(t *testing.T) {
	age := 10.0
	errs := ValidateStruct(context.Background(), &sampleRequest{Age: &age})
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_GTE", errs[0].Code)
	assert.Equal(t, "age", errs[0].Field)
	assert.Equal(t, "age must be greater than or equal to 18", errs[0].Message)
	assert.Equal(t, "18", errs[0].Params["min"])

	errs = ValidateStruct(context.Background(), &sampleRequest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "age is required", errs[0].Message)

	age = 30
	req := &sampleRequest{Age: &age}
	assert.Nil(t, ValidateStruct(context.Background(), req))
	assert.Equal(t, "good", req.Kind)
}

func TestBind(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"age": 30, "kind": "bad"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	var out sampleRequest
	assert.Nil(t, Bind(e.NewContext(req, httptest.NewRecorder()), &out))
	assert.Equal(t, 30.0, *out.Age)
	assert.Equal(t, "bad", out.Kind)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"age": `))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	errs := Bind(e.NewContext(req, httptest.NewRecorder()), &sampleRequest{})
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_BIND", errs[0].Code)
	assert.Equal(t, "body", errs[0].Field)
}

func TestBindReportsWrongTypeField(t *testing.T) {
	e := echo.New()
	tests := []struct {
		body, msg string
	}{
		{`{"age": "old"}`, "age must be a number"},
		{`{"age": 30.5e400}`, "age is out of range"},
		{`{"kind": 7}`, "kind must be a string"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		errs := Bind(e.NewContext(req, httptest.NewRecorder()), &sampleRequest{})
		require.Len(t, errs, 1, tt.body)
		assert.Equal(t, "ERR_TYPE", errs[0].Code, tt.body)
		assert.Equal(t, tt.msg, errs[0].Message, tt.body)
	}
}

func TestDecodeErrorsFallsBackToBody(t *testing.T) {
	errs := DecodeErrors(errors.New("unexpected EOF"))
	require.Len(t, errs, 1)
	assert.Equal(t, "body", errs[0].Field)
}

func TestValidateStructSliceBounds(t *testing.T) {
	type batch struct {
		Items []int `json:"items" validate:"required,min=1"`
	}
	errs := ValidateStruct(context.Background(), &batch{Items: []int{}})
	require.Len(t, errs, 1)
	assert.Equal(t, "items must contain at least 1 items", errs[0].Message)
}

func TestAppErrorResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, AppErrorResponse(c, BadRequestError("Batch size exceeds maximum of 100 items")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_BAD_REQUEST")

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, AppErrorResponse(c, assert.AnError))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
