package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, tokenString string) (jwt.Token, error) {
	args := m.Called(ctx, tokenString)
	var token jwt.Token
	if args.Get(0) != nil {
		token = args.Get(0).(jwt.Token)
	}
	return token, args.Error(1)
}

func TestRequireBearer(t *testing.T) {
	// given
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	withSubject, err := jwt.NewBuilder().Subject("user-123").Expiration(time.Now().Add(time.Hour)).Build()
	require.NoError(t, err)
	withoutSubject, err := jwt.NewBuilder().Expiration(time.Now().Add(time.Hour)).Build()
	require.NoError(t, err)

	testCases := []struct {
		name            string
		authHeader      string
		setupMock       func(m *mockVerifier)
		expectedStatus  int
		expectedSubject string
	}{
		{
			name:       "valid bearer token",
			authHeader: "Bearer valid-token",
			setupMock: func(m *mockVerifier) {
				m.On("Verify", mock.Anything, "valid-token").Return(withSubject, nil)
			},
			expectedStatus:  http.StatusOK,
			expectedSubject: "user-123",
		},
		{
			name:           "no header",
			setupMock:      func(_ *mockVerifier) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "not a bearer token",
			authHeader:     "Basic some-credentials",
			setupMock:      func(_ *mockVerifier) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:       "verifier error",
			authHeader: "Bearer invalid-token",
			setupMock: func(m *mockVerifier) {
				m.On("Verify", mock.Anything, "invalid-token").Return(nil, errors.New("signature is invalid"))
			},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:       "token without subject",
			authHeader: "Bearer anonymous",
			setupMock: func(m *mockVerifier) {
				m.On("Verify", mock.Anything, "anonymous").Return(withoutSubject, nil)
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			verifier := new(mockVerifier)
			tc.setupMock(verifier)
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				subject, ok := GetSubject(r.Context())
				assert.True(t, ok)
				assert.Equal(t, tc.expectedSubject, subject)
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rr := httptest.NewRecorder()

			// when
			RequireBearer(verifier, logger)(next).ServeHTTP(rr, req)

			// then
			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.Equal(t, tc.expectedStatus == http.StatusOK, nextCalled)
			verifier.AssertExpectations(t)
		})
	}
}
