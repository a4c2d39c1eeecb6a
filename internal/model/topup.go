package model

import "time"

// Top-up request states. A request starts PENDING and moves exactly
// once to VERIFIED or REJECTED; both are terminal.
const (
    TopUpPending  = "PENDING"
    TopUpVerified = "VERIFIED"
    TopUpRejected = "REJECTED"
)

// TopUpRequest represents a row in the `topup_requests` table. The
// account holder pays by bank/UPI transfer out of band and submits
// the transaction reference (UTR); an admin verifies the payment
// manually. Creating a request never touches the wallet; only the
// VERIFIED transition credits coins.
//
// Fields:
//  ID             – primary key identifier.
//  AccountID      – account to credit on verification.
//  AmountPaid     – amount paid in currency units (rupees).
//  CoinsRequested – coins credited if the request is verified.
//  ProofRef       – UTR / transaction reference supplied by the payer.
//  Method         – payment method as reported by the payer (e.g. "UPI").
//  Status         – PENDING, VERIFIED or REJECTED.
//  SubmittedAt    – when the request was created.
//  ResolvedAt     – when it was verified or rejected (nullable).
type TopUpRequest struct {
    ID             uint64     // topup_requests.id
    AccountID      uint64     // topup_requests.account_id
    AmountPaid     uint64     // topup_requests.amount_paid
    CoinsRequested uint64     // topup_requests.coins_requested
    ProofRef       string     // topup_requests.proof_ref
    Method         string     // topup_requests.method
    Status         string     // topup_requests.status
    SubmittedAt    time.Time  // topup_requests.submitted_at
    ResolvedAt     *time.Time // topup_requests.resolved_at (nullable)
}

// CoinPack is a purchasable recharge denomination shown on the
// recharge page. Packs are static catalog data, not stored in the
// database.
type CoinPack struct {
    ID          string `json:"id"`
    Name        string `json:"name"`
    PriceRupees uint64 `json:"price_rupees"`
    Coins       uint64 `json:"coins"`
    BonusCoins  uint64 `json:"bonus_coins"`
    Popular     bool   `json:"popular"`
}

// CoinPacks lists the recharge packs offered in the app. The premium
// pack includes a 50 coin bonus.
var CoinPacks = []CoinPack{
    {ID: "mini", Name: "Mini Pack", PriceRupees: 20, Coins: 20},
    {ID: "starter", Name: "Starter Pack", PriceRupees: 50, Coins: 50},
    {ID: "popular", Name: "Popular Pack", PriceRupees: 100, Coins: 100, Popular: true},
    {ID: "premium", Name: "Premium Pack", PriceRupees: 500, Coins: 550, BonusCoins: 50},
}
