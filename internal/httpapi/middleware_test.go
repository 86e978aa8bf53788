package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Diabloxx/GlobalBazaar-sub001/internal/session"
)

var testSecret = []byte("test-secret")

type sessionRepoMock struct {
	sessions map[string]*session.Session
}

func (m *sessionRepoMock) Get(_ context.Context, token string) (*session.Session, error) {
	s, ok := m.sessions[token]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	return s, nil
}

func (m *sessionRepoMock) Set(_ context.Context, token string, s *session.Session, _ time.Duration) error {
	m.sessions[token] = s
	return nil
}

func (m *sessionRepoMock) Expire(_ context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

func signToken(t *testing.T, userID int64, jti string, secret []byte) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func echoUserID(t *testing.T, gotUserID *int64) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotUserID = getUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_ValidTokenWithSession(t *testing.T) {
	sessions := &sessionRepoMock{sessions: map[string]*session.Session{
		"jti-1": {UserID: 7, CreatedAt: time.Now()},
	}}

	var gotUserID int64
	handler := AuthMiddleware(testSecret, sessions)(echoUserID(t, &gotUserID))

	request := httptest.NewRequest("GET", "/", nil)
	request.Header.Set("Authorization", "Bearer "+signToken(t, 7, "jti-1", testSecret))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, int64(7), gotUserID)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	sessions := &sessionRepoMock{sessions: map[string]*session.Session{}}

	var gotUserID int64
	handler := AuthMiddleware(testSecret, sessions)(echoUserID(t, &gotUserID))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Zero(t, gotUserID)
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	sessions := &sessionRepoMock{sessions: map[string]*session.Session{
		"jti-1": {UserID: 7},
	}}

	var gotUserID int64
	handler := AuthMiddleware(testSecret, sessions)(echoUserID(t, &gotUserID))

	request := httptest.NewRequest("GET", "/", nil)
	request.Header.Set("Authorization", "Bearer "+signToken(t, 7, "jti-1", []byte("other-secret")))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAuthMiddleware_ExpiredSessionRevokesToken(t *testing.T) {
	sessions := &sessionRepoMock{sessions: map[string]*session.Session{}}

	var gotUserID int64
	handler := AuthMiddleware(testSecret, sessions)(echoUserID(t, &gotUserID))

	// Token is still within exp, but the session behind it is gone.
	request := httptest.NewRequest("GET", "/", nil)
	request.Header.Set("Authorization", "Bearer "+signToken(t, 7, "jti-1", testSecret))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAuthMiddleware_SessionUserMismatch(t *testing.T) {
	sessions := &sessionRepoMock{sessions: map[string]*session.Session{
		"jti-1": {UserID: 99},
	}}

	var gotUserID int64
	handler := AuthMiddleware(testSecret, sessions)(echoUserID(t, &gotUserID))

	request := httptest.NewRequest("GET", "/", nil)
	request.Header.Set("Authorization", "Bearer "+signToken(t, 7, "jti-1", testSecret))
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
