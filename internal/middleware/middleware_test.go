package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudvault/internal/domain"
	"cloudvault/internal/domain/models"
	"cloudvault/internal/httputil"
)

type stubVerifier struct {
	tokens map[string]string
}

func (s stubVerifier) VerifyToken(token string) (*models.AuthClaims, error) {
	sub, ok := s.tokens[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	claims := &models.AuthClaims{}
	claims.Subject = sub
	return claims, nil
}

func (s stubVerifier) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, map[string]string{"user": httputil.GetUserID(r)})
	})
}

func TestAuthMiddleware(t *testing.T) {
	handler := AuthMiddleware(stubVerifier{tokens: map[string]string{"good": "user-1"}}, discardLogger())(echoUser())

	tests := []struct {
		name       string
		method     string
		path       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{"valid token", http.MethodGet, "/api/folders", "Bearer good", http.StatusOK, "user-1"},
		{"lowercase scheme", http.MethodGet, "/api/folders", "bearer good", http.StatusOK, "user-1"},
		{"missing header", http.MethodGet, "/api/folders", "", http.StatusUnauthorized, ""},
		{"wrong scheme", http.MethodGet, "/api/folders", "Basic good", http.StatusUnauthorized, ""},
		{"unknown token", http.MethodGet, "/api/folders", "Bearer bad", http.StatusUnauthorized, ""},
		{"health is public", http.MethodGet, "/health", "", http.StatusOK, ""},
		{"public gateway", http.MethodGet, "/api/public/abc/download", "", http.StatusOK, ""},
		{"pre-flight", http.MethodOptions, "/api/files", "", http.StatusOK, ""},
		{"public prefix must match a segment", http.MethodGet, "/api/publicity", "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus != http.StatusOK {
				assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
				return
			}
			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantUser, body["user"])
		})
	}
}

func TestRecovery(t *testing.T) {
	handler := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/folders", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}
