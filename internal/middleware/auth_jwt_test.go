package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSignAndVerifyJWT(t *testing.T) {
	secret := "test-secret"
	claims := TokenClaims{
		Sub:      "dev@example.com",
		Plan:     "premium",
		Exp:      time.Now().Add(time.Hour).Unix(),
		Issuer:   "proai",
		Audience: "proai-web",
	}

	token, err := SignJWT(secret, claims)
	if err != nil {
		t.Fatalf("SignJWT() error = %v", err)
	}

	got, err := VerifyJWT(secret, token)
	if err != nil {
		t.Fatalf("VerifyJWT() error = %v", err)
	}
	if got.Sub != claims.Sub {
		t.Fatalf("Sub = %q, want %q", got.Sub, claims.Sub)
	}
	if got.Plan != claims.Plan {
		t.Fatalf("Plan = %q, want %q", got.Plan, claims.Plan)
	}
}

func TestVerifyJWTRejectsTampering(t *testing.T) {
	token, err := SignJWT("secret-a", TokenClaims{Sub: "dev@example.com"})
	if err != nil {
		t.Fatalf("SignJWT() error = %v", err)
	}

	if _, err := VerifyJWT("secret-b", token); err == nil {
		t.Fatal("expected error for wrong secret")
	}
	if _, err := VerifyJWT("secret-a", token+"x"); err == nil {
		t.Fatal("expected error for tampered signature")
	}
	if _, err := VerifyJWT("secret-a", "not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestVerifyJWTRejectsExpired(t *testing.T) {
	token, err := SignJWT("secret", TokenClaims{
		Sub: "dev@example.com",
		Exp: time.Now().Add(-time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("SignJWT() error = %v", err)
	}

	if _, err := VerifyJWT("secret", token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestAuthJWTMiddleware(t *testing.T) {
	secret := "test-secret"
	var seenEmail string
	handler := AuthJWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenEmail = AccountEmailFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing header: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	token, err := SignJWT(secret, TokenClaims{
		Sub: "dev@example.com",
		Exp: time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		t.Fatalf("SignJWT() error = %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: status = %d, want %d", rec.Code, http.StatusOK)
	}
	if seenEmail != "dev@example.com" {
		t.Fatalf("context email = %q, want %q", seenEmail, "dev@example.com")
	}
}
