package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	const secret = "test-secret"
	access, err := NewAccessToken(secret, 42, "LISTENER", 15)
	if err != nil {
		t.Fatal(err)
	}
	tok, err := jwt.Parse(access.Token, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			t.Fatalf("unexpected signing method %v", tok.Method)
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		t.Fatalf("parse failed: %v", err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("claims not MapClaims")
	}
	if sub, _ := claims["sub"].(float64); uint64(sub) != 42 {
		t.Fatalf("sub = %v, want 42", claims["sub"])
	}
	if role, _ := claims["role"].(string); role != "LISTENER" {
		t.Fatalf("role = %v, want LISTENER", claims["role"])
	}
}

func TestHashRefreshRawStable(t *testing.T) {
	a := HashRefreshRaw("token")
	b := HashRefreshRaw("token")
	if a != b {
		t.Fatal("hash must be deterministic")
	}
	if len(a) != 64 {
		t.Fatalf("sha256 hex length = %d, want 64", len(a))
	}
	if HashRefreshRaw("other") == a {
		t.Fatal("different inputs hashed equal")
	}
}

func TestNewKeyString(t *testing.T) {
	k, err := NewKeyString()
	if err != nil {
		t.Fatal(err)
	}
	if len(k) != len("HH-")+12 {
		t.Fatalf("key length = %d: %q", len(k), k)
	}
	if k[:3] != "HH-" {
		t.Fatalf("key prefix wrong: %q", k)
	}
	k2, err := NewKeyString()
	if err != nil {
		t.Fatal(err)
	}
	if k == k2 {
		t.Fatal("two generated keys collided")
	}
}
