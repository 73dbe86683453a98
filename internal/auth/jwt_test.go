package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "this-is-a-32-byte-or-longer-secret!"

func TestIssueAndVerifyServiceToken(t *testing.T) {
	token, err := IssueServiceToken(testSecret, "outer-router", time.Now().Add(time.Hour))
	require.NoError(t, err)

	err = VerifyServiceToken(testSecret, token)
	assert.NoError(t, err)
}

func TestVerifyServiceToken_Expired(t *testing.T) {
	token, err := IssueServiceToken(testSecret, "outer-router", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	err = VerifyServiceToken(testSecret, token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyServiceToken_WrongSecret(t *testing.T) {
	token, err := IssueServiceToken(testSecret, "outer-router", time.Now().Add(time.Hour))
	require.NoError(t, err)

	err = VerifyServiceToken("a-completely-different-secret-32b", token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestBearerMiddleware(t *testing.T) {
	handler := BearerMiddleware(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := IssueServiceToken(testSecret, "outer-router", time.Now().Add(time.Hour))
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
