package auth

import (
	"strings"
	"testing"
	"time"

	"prospero-server/internal/shared/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssuerRoundTrip(t *testing.T) {
	issuer, err := NewIssuer(config.AuthConfig{JWTSecret: testSecret, TokenExpiration: time.Hour})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	token, err := issuer.Generate("operator", RoleAdmin)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "operator" || claims.Role != RoleAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestIssuerRejects(t *testing.T) {
	issuer, _ := NewIssuer(config.AuthConfig{JWTSecret: testSecret, TokenExpiration: time.Minute})
	other, _ := NewIssuer(config.AuthConfig{JWTSecret: strings.Repeat("x", 32), TokenExpiration: time.Minute})

	foreign, _ := other.Generate("intruder", RoleAdmin)
	if _, err := issuer.Validate(foreign); err == nil {
		t.Fatalf("expected signature mismatch to be rejected")
	}

	token, _ := issuer.Generate("operator", RoleAdmin)
	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := issuer.Validate(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	if _, err := issuer.Validate("not-a-token"); err == nil {
		t.Fatalf("expected garbage to be rejected")
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	if _, err := NewIssuer(config.AuthConfig{}); err == nil {
		t.Fatalf("expected error for missing secret")
	}
	if _, err := NewIssuer(config.AuthConfig{JWTSecret: "short"}); err == nil {
		t.Fatalf("expected error for short secret")
	}
}
