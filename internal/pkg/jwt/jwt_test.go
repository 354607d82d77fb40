package jwt

import (
	"testing"
	"time"
)

func TestSignAndParse(t *testing.T) {
	token, err := Sign("session-123", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.SessionID != "session-123" {
		t.Fatalf("session ID = %q, want %q", claims.SessionID, "session-123")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	token, err := Sign("session-123", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Parse(token); err == nil {
		t.Fatal("expired token must fail to parse")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse("not-a-token"); err == nil {
		t.Fatal("garbage must fail to parse")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	SetSecret("secret-a")
	token, err := Sign("session-123", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	SetSecret("secret-b")
	defer SetSecret("secret-a")
	if _, err := Parse(token); err == nil {
		t.Fatal("token signed with a different secret must fail")
	}
}
