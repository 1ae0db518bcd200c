package web

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func Test_ParseID(t *testing.T) {
	testCases := []struct {
		name       string
		value      string
		expectedID int64
		expectedOK bool
	}{
		{name: "positive", value: "42", expectedID: 42, expectedOK: true},
		{name: "zero", value: "0"},
		{name: "negative", value: "-1"},
		{name: "not a number", value: "abc"},
		{name: "empty", value: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.SetPathValue("id", tc.value)
			rec := httptest.NewRecorder()

			// when
			id, ok := ParseID(rec, req, discard)

			// then
			assert.Equal(t, tc.expectedOK, ok)
			assert.Equal(t, tc.expectedID, id)
			if !ok {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			}
		})
	}
}

func Test_ParseOptional(t *testing.T) {
	testCases := []struct {
		name       string
		query      string
		parse      func(r *http.Request, w http.ResponseWriter) (int, bool)
		expected   int
		expectedOK bool
	}{
		{
			name:  "absent gte uses default",
			query: "",
			parse: func(r *http.Request, w http.ResponseWriter) (int, bool) {
				return ParseOptionalGte(r, w, discard, "offset", 0, 0)
			},
			expected:   0,
			expectedOK: true,
		},
		{
			name:  "gte accepts bound",
			query: "?offset=0",
			parse: func(r *http.Request, w http.ResponseWriter) (int, bool) {
				return ParseOptionalGte(r, w, discard, "offset", 0, 0)
			},
			expected:   0,
			expectedOK: true,
		},
		{
			name:  "gt rejects bound",
			query: "?limit=0",
			parse: func(r *http.Request, w http.ResponseWriter) (int, bool) {
				return ParseOptionalGt(r, w, discard, "limit", 0, 10)
			},
		},
		{
			name:  "absent gt uses default",
			query: "",
			parse: func(r *http.Request, w http.ResponseWriter) (int, bool) {
				return ParseOptionalGt(r, w, discard, "limit", 0, 10)
			},
			expected:   10,
			expectedOK: true,
		},
		{
			name:  "garbage rejected",
			query: "?limit=ten",
			parse: func(r *http.Request, w http.ResponseWriter) (int, bool) {
				return ParseOptionalGt(r, w, discard, "limit", 0, 10)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tc.query, nil)
			rec := httptest.NewRecorder()

			value, ok := tc.parse(req, rec)

			assert.Equal(t, tc.expectedOK, ok)
			assert.Equal(t, tc.expected, value)
			if !ok {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			}
		})
	}
}

func Test_RespondValidationError(t *testing.T) {
	// given
	type payload struct {
		Code  string `validate:"required"`
		Stock int64  `validate:"gt=0"`
	}
	err := validator.New().Struct(payload{Stock: -1})
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()

	// when
	RespondValidationError(rec, req, discard, err)

	// then
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"validation_errors":{"Code":"failed on rule: required","Stock":"failed on rule: gt"}}`, rec.Body.String())
}

func Test_RespondJSON_NilPayload(t *testing.T) {
	rec := httptest.NewRecorder()

	RespondJSON(rec, discard, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
