package accesskey

import (
	"testing"
	"time"

	"github.com/iliyamo/hearhere/internal/model"
	"github.com/iliyamo/hearhere/internal/repository"
)

func usableKey() model.AccessKey {
	return model.AccessKey{
		ID:        1,
		Key:       "HH-LISTEN-1234",
		Role:      model.KeyRoleListener,
		UsesCount: 0,
		UsesLimit: model.UsesUnlimited,
		Enabled:   true,
	}
}

func TestValidateUsable(t *testing.T) {
	now := time.Now().UTC()
	if err := Validate(usableKey(), now); err != nil {
		t.Fatalf("expected usable key, got %v", err)
	}
}

func TestValidateDisabled(t *testing.T) {
	k := usableKey()
	k.Enabled = false
	if err := Validate(k, time.Now().UTC()); err != repository.ErrKeyDisabled {
		t.Fatalf("expected ErrKeyDisabled, got %v", err)
	}
}

func TestValidateExpired(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	k := usableKey()
	k.ExpiresAt = &past

	if err := Validate(k, now); err != repository.ErrKeyExpired {
		t.Fatalf("expected ErrKeyExpired, got %v", err)
	}

	// Expiry exactly at "now" counts as expired; the key must be
	// usable strictly before its expiry.
	k.ExpiresAt = &now
	if err := Validate(k, now); err != repository.ErrKeyExpired {
		t.Fatalf("expected ErrKeyExpired at boundary, got %v", err)
	}

	future := now.Add(time.Hour)
	k.ExpiresAt = &future
	if err := Validate(k, now); err != nil {
		t.Fatalf("expected future expiry to be usable, got %v", err)
	}
}

func TestValidateUsageLimit(t *testing.T) {
	now := time.Now().UTC()

	k := usableKey()
	k.UsesLimit = 1
	k.UsesCount = 1
	if err := Validate(k, now); err != repository.ErrKeyExhausted {
		t.Fatalf("expected ErrKeyExhausted, got %v", err)
	}

	k.UsesCount = 0
	if err := Validate(k, now); err != nil {
		t.Fatalf("expected one use left to be usable, got %v", err)
	}

	// -1 is unlimited regardless of the counter.
	k.UsesLimit = model.UsesUnlimited
	k.UsesCount = 100000
	if err := Validate(k, now); err != nil {
		t.Fatalf("expected unlimited key to be usable, got %v", err)
	}
}

func TestValidateDisabledBeatsExpiry(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	k := usableKey()
	k.Enabled = false
	k.ExpiresAt = &past
	if err := Validate(k, now); err != repository.ErrKeyDisabled {
		t.Fatalf("expected disabled to be reported first, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  HH-KEY-42\n"); got != "HH-KEY-42" {
		t.Fatalf("Normalize trimmed wrong: %q", got)
	}
	if got := Normalize("   "); got != "" {
		t.Fatalf("whitespace-only key should normalize to empty, got %q", got)
	}
}

func TestIsMaster(t *testing.T) {
	if !IsMaster("secret-master", "secret-master") {
		t.Fatal("exact master key should match")
	}
	if IsMaster("Secret-Master", "secret-master") {
		t.Fatal("master key comparison must be case-sensitive")
	}
	// An unset master key must never match, even the empty string.
	if IsMaster("", "") {
		t.Fatal("empty configured master key must not match")
	}
}
