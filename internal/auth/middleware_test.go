package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestHandler(t *testing.T, secret []byte) (http.Handler, *string) {
	t.Helper()
	var seenSubject string
	policy := NewDefaultPolicy([]string{"/healthz"}, nil)
	mw := NewMiddleware(secret, policy)
	return mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenSubject = SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})), &seenSubject
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	handler, _ := newTestHandler(t, []byte("test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/monthly?year=2026&month=1", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ExemptPath(t *testing.T) {
	handler, _ := newTestHandler(t, []byte("test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ViewerCanReadBilling(t *testing.T) {
	secret := []byte("test-secret")
	handler, subject := newTestHandler(t, secret)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/monthly?year=2026&month=1", nil)
	req.Header.Set("Authorization", "Bearer "+mustToken(t, secret, "viewer"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if *subject != "user-1" {
		t.Fatalf("expected subject in context, got %q", *subject)
	}
}

func TestAuthMiddleware_ViewerForbiddenOrderSave(t *testing.T) {
	secret := []byte("test-secret")
	handler, _ := newTestHandler(t, secret)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+mustToken(t, secret, "viewer"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestAuthMiddleware_OperatorForbiddenDiskExport(t *testing.T) {
	secret := []byte("test-secret")
	handler, _ := newTestHandler(t, secret)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/monthly/export", nil)
	req.Header.Set("Authorization", "Bearer "+mustToken(t, secret, "operator"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestAuthMiddleware_IssuedTokenAccepted(t *testing.T) {
	secret := []byte("test-secret")
	handler, _ := newTestHandler(t, secret)

	token, err := IssueJWT(secret, "kitchen", RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/persons/3", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	handler, _ := newTestHandler(t, []byte("test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/persons", nil)
	req.Header.Set("Authorization", "Bearer "+mustToken(t, []byte("other-secret"), "admin"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func mustToken(t *testing.T, secret []byte, role string) string {
	t.Helper()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
