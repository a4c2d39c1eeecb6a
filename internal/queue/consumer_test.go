package queue

import (
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"
)

func chdirTemp(t *testing.T) {
    t.Helper()
    old, err := os.Getwd()
    if err != nil {
        t.Fatal(err)
    }
    if err := os.Chdir(t.TempDir()); err != nil {
        t.Fatal(err)
    }
    t.Cleanup(func() {
        if err := os.Chdir(old); err != nil {
            t.Fatal(err)
        }
    })
}

func TestHandleMessageWritesCreditedAuditLine(t *testing.T) {
    chdirTemp(t)

    ev := CoinsCreditedEvent{
        RequestID:  7,
        AccountID:  42,
        Coins:      100,
        AmountPaid: 100,
        ProofRef:   "UTR123456789",
        ResolvedAt: "2026-09-01T10:00:00Z",
    }
    body, err := json.Marshal(ev)
    if err != nil {
        t.Fatal(err)
    }
    if err := handleMessage(CoinsCreditedQueue, body); err != nil {
        t.Fatalf("handleMessage: %v", err)
    }

    data, err := os.ReadFile(filepath.Join("logs", "ledger.log"))
    if err != nil {
        t.Fatalf("read audit log: %v", err)
    }
    line := string(data)
    for _, want := range []string{"Coins credited", "request_id=7", "account_id=42", "coins=100", "proof=UTR123456789"} {
        if !strings.Contains(line, want) {
            t.Fatalf("audit line %q missing %q", line, want)
        }
    }
}

func TestHandleMessageWritesUnlockedAuditLine(t *testing.T) {
    chdirTemp(t)

    ev := EpisodeUnlockedEvent{
        UnlockID:   3,
        AccountID:  42,
        EpisodeID:  9,
        NovelID:    2,
        PriceCoins: 15,
        NewBalance: 135,
        UnlockedAt: "2026-09-01T10:00:00Z",
    }
    body, err := json.Marshal(ev)
    if err != nil {
        t.Fatal(err)
    }
    if err := handleMessage(EpisodeUnlockedQueue, body); err != nil {
        t.Fatalf("handleMessage: %v", err)
    }

    data, err := os.ReadFile(filepath.Join("logs", "ledger.log"))
    if err != nil {
        t.Fatalf("read audit log: %v", err)
    }
    line := string(data)
    for _, want := range []string{"Episode unlocked", "unlock_id=3", "episode_id=9", "price=15 coins", "balance=135"} {
        if !strings.Contains(line, want) {
            t.Fatalf("audit line %q missing %q", line, want)
        }
    }
}

func TestHandleMessageRejectsUnknownQueue(t *testing.T) {
    if err := handleMessage("something.else", []byte("{}")); err == nil {
        t.Fatal("expected error for unknown routing key")
    }
}

func TestHandleMessageRejectsMalformedBody(t *testing.T) {
    if err := handleMessage(CoinsCreditedQueue, []byte("{not json")); err == nil {
        t.Fatal("expected error for malformed body")
    }
}
