package config

import (
    "testing"
    "time"
)

func TestLoadRateLimitConfigDefaults(t *testing.T) {
    for _, k := range []string{
        "RATE_LIMIT_ENABLED", "RATE_LIMIT_CAPACITY", "RATE_LIMIT_REFILL_TOKENS",
        "RATE_LIMIT_REFILL_INTERVAL", "RATE_LIMIT_TTL", "RATE_LIMIT_KEY_STRATEGY",
        "RATE_LIMIT_PREFIX", "RATE_LIMIT_DEBUG", "RATE_LIMIT_BURST", "RATE_LIMIT_REFILL_EVERY",
    } {
        t.Setenv(k, "")
    }
    cfg := LoadRateLimitConfig()
    if !cfg.Enabled {
        t.Fatal("expected rate limiting enabled by default")
    }
    if cfg.Capacity != 60 {
        t.Fatalf("capacity = %d, want 60", cfg.Capacity)
    }
    if cfg.RefillTokens != 1 || cfg.RefillInterval != time.Second {
        t.Fatalf("refill = %d/%s, want 1/1s", cfg.RefillTokens, cfg.RefillInterval)
    }
    if cfg.TTL != 10*time.Minute {
        t.Fatalf("ttl = %s, want 10m", cfg.TTL)
    }
    if cfg.KeyStrategy != "ip_user_route" {
        t.Fatalf("key strategy = %q, want ip_user_route", cfg.KeyStrategy)
    }
    if cfg.Prefix != "rl" {
        t.Fatalf("prefix = %q, want rl", cfg.Prefix)
    }
}

func TestLoadRateLimitConfigBurstOverridesCapacity(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "60")
    t.Setenv("RATE_LIMIT_BURST", "5")
    cfg := LoadRateLimitConfig()
    if cfg.Capacity != 5 {
        t.Fatalf("capacity = %d, want burst override 5", cfg.Capacity)
    }
}

func TestLoadRateLimitConfigTTLFloor(t *testing.T) {
    // TTL must cover several refill intervals or buckets vanish
    // before refilling.
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "5m")
    t.Setenv("RATE_LIMIT_TTL", "1m")
    cfg := LoadRateLimitConfig()
    if cfg.TTL < 5*cfg.RefillInterval {
        t.Fatalf("ttl = %s, want at least %s", cfg.TTL, 5*cfg.RefillInterval)
    }
}

func TestLoadCacheConfigDefaults(t *testing.T) {
    for _, k := range []string{
        "CACHE_ENABLED", "CACHE_METHODS", "CACHE_TTL",
        "CACHE_KEY_STRATEGY", "CACHE_PREFIX", "CACHE_MAX_BODY_BYTES",
    } {
        t.Setenv(k, "")
    }
    cfg := LoadCacheConfig()
    if !cfg.Enabled {
        t.Fatal("expected cache enabled by default")
    }
    if !cfg.Methods["GET"] || cfg.Methods["POST"] {
        t.Fatalf("methods = %v, want GET only", cfg.Methods)
    }
    if cfg.TTL != 30*time.Second {
        t.Fatalf("ttl = %s, want 30s", cfg.TTL)
    }
    if cfg.MaxBodyBytes != 1048576 {
        t.Fatalf("max body = %d, want 1048576", cfg.MaxBodyBytes)
    }
}

func TestParseMethodsNormalizes(t *testing.T) {
    m := parseMethods("get, head ,")
    if !m["GET"] || !m["HEAD"] {
        t.Fatalf("parseMethods = %v, want GET and HEAD", m)
    }
    if len(m) != 2 {
        t.Fatalf("parseMethods = %v, want 2 entries", m)
    }
}

func TestParseDurFallsBackOnGarbage(t *testing.T) {
    if d := parseDur("not-a-duration"); d != time.Second {
        t.Fatalf("parseDur = %s, want 1s fallback", d)
    }
}
