package auth

import (
	"context"
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	t.Setenv(secretEnvVariable, "test-secret")
	ResetSecretForTests()

	token, err := GenerateToken("user-42", "Patient", 30*time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if claims.Subject != "user-42" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Role != "patient" {
		t.Fatalf("role was not normalized: %s", claims.Role)
	}
	if claims.Issuer != issuer {
		t.Fatalf("unexpected issuer: %s", claims.Issuer)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Setenv(secretEnvVariable, "test-secret")
	ResetSecretForTests()

	for _, token := range []string{"", "  ", "not.a.jwt"} {
		if _, err := ParseAndValidate(token); err == nil {
			t.Fatalf("expected error for %q", token)
		}
	}
}

func TestGenerateTokenValidatesInput(t *testing.T) {
	t.Setenv(secretEnvVariable, "test-secret")
	ResetSecretForTests()

	if _, err := GenerateToken("", "patient", time.Minute); err == nil {
		t.Fatal("expected error for empty userID")
	}
	if _, err := GenerateToken("user-1", "patient", 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = ContextWithUser(ctx, "user-7", "Doctor")
	id, ok := UserIDFromContext(ctx)
	if !ok || id != "user-7" {
		t.Fatalf("unexpected user id: %s, ok=%v", id, ok)
	}
	if role := RoleFromContext(ctx); role != "doctor" {
		t.Fatalf("expected normalized role, got %q", role)
	}
	if !HasRole(ctx, "doctor") {
		t.Fatal("HasRole missing expected role")
	}
	if HasRole(ctx, "admin") {
		t.Fatal("unexpected role found")
	}
}
