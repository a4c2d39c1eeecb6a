package handler

import (
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hearhere/internal/ledger"
    "github.com/iliyamo/hearhere/internal/queue"
    "github.com/iliyamo/hearhere/internal/repository"
    queue_publisher "github.com/iliyamo/hearhere/internal/service"
)

// WalletHandler serves the signed-in account's wallet: balance,
// episode unlocks, top-up requests and the unlock library. All
// balance mutations go through the ledger; this layer only maps
// sentinel errors to HTTP responses.
type WalletHandler struct {
    Ledger   *ledger.Ledger
    Accounts *repository.AccountRepo
    Catalog  *repository.CatalogRepo
    Unlocks  *repository.UnlockRepo
    TopUps   *repository.TopUpRepo
}

func NewWalletHandler(l *ledger.Ledger, a *repository.AccountRepo, cat *repository.CatalogRepo, u *repository.UnlockRepo, t *repository.TopUpRepo) *WalletHandler {
    if l == nil || a == nil || cat == nil || u == nil || t == nil {
        panic("nil dependency passed to NewWalletHandler")
    }
    return &WalletHandler{Ledger: l, Accounts: a, Catalog: cat, Unlocks: u, TopUps: t}
}

// Wallet handles GET /v1/wallet: current balance plus the account's
// top-up history so the recharge page renders from one call.
func (h *WalletHandler) Wallet(c echo.Context) error {
    accountID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx := c.Request().Context()
    a, err := h.Accounts.GetByID(ctx, accountID)
    if err != nil {
        if err == repository.ErrAccountNotFound {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load account failed"})
    }
    topups, err := h.TopUps.ListByAccount(ctx, accountID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load top-ups failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "coin_balance": a.CoinBalance,
        "topups":       topupParts(topups),
    })
}

// Unlock handles POST /v1/episodes/:id/unlock. Returns 201 with the
// unlock record and new balance on a fresh unlock, 200 when the
// episode was already unlocked (no second debit), 402 with the
// shortfall when the wallet cannot cover the price.
func (h *WalletHandler) Unlock(c echo.Context) error {
    accountID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    episodeID, ok := parseIDParam(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid episode id"})
    }
    ctx := c.Request().Context()

    res, err := h.Ledger.Unlock(ctx, accountID, episodeID)
    if err != nil {
        var insufficient *ledger.InsufficientBalanceError
        switch {
        case errors.As(err, &insufficient):
            return c.JSON(http.StatusPaymentRequired, echo.Map{
                "error":        "insufficient balance",
                "coin_balance": insufficient.Balance,
                "price_coins":  insufficient.Price,
                "shortfall":    insufficient.Shortfall(),
            })
        case errors.Is(err, repository.ErrEpisodeNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "episode not found"})
        case errors.Is(err, repository.ErrAccountNotFound):
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unlock failed"})
    }

    status := http.StatusCreated
    if res.AlreadyUnlocked {
        status = http.StatusOK
    } else if res.Unlock.PriceCoins > 0 {
        // Advisory event; failures never affect the committed unlock.
        ev := queue.EpisodeUnlockedEvent{
            UnlockID:   res.Unlock.ID,
            AccountID:  accountID,
            EpisodeID:  episodeID,
            PriceCoins: res.Unlock.PriceCoins,
            NewBalance: res.NewBalance,
            UnlockedAt: res.Unlock.CreatedAt.UTC().Format(time.RFC3339),
        }
        if ep, err := h.Catalog.GetEpisode(ctx, episodeID); err == nil {
            ev.NovelID = ep.NovelID
        }
        _ = queue_publisher.PublishEpisodeUnlocked(ctx, ev)
    }

    return c.JSON(status, echo.Map{
        "unlock_id":        res.Unlock.ID,
        "episode_id":       res.Unlock.EpisodeID,
        "price_coins":      res.Unlock.PriceCoins,
        "coin_balance":     res.NewBalance,
        "already_unlocked": res.AlreadyUnlocked,
    })
}

type topUpReq struct {
    AmountPaid     uint64 `json:"amount_paid"`
    CoinsRequested uint64 `json:"coins_requested"`
    ProofRef       string `json:"proof_ref"`
    Method         string `json:"method"`
}

// CreateTopUp handles POST /v1/wallet/topups. The request is recorded
// PENDING; coins arrive only after an admin verifies the payment.
func (h *WalletHandler) CreateTopUp(c echo.Context) error {
    accountID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req topUpReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    method := strings.TrimSpace(req.Method)
    if method == "" {
        method = "UPI"
    }
    ctx := c.Request().Context()

    rec, err := h.Ledger.TopUp(ctx, accountID, req.AmountPaid, req.CoinsRequested, strings.TrimSpace(req.ProofRef), method)
    if err != nil {
        switch {
        case errors.Is(err, repository.ErrInvalidProof):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": repository.ErrInvalidProof.Error()})
        case errors.Is(err, repository.ErrAccountNotFound):
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create top-up failed"})
    }
    return c.JSON(http.StatusCreated, topupPart(rec))
}

// ListTopUps handles GET /v1/wallet/topups: the caller's own request
// history, newest first.
func (h *WalletHandler) ListTopUps(c echo.Context) error {
    accountID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    topups, err := h.TopUps.ListByAccount(c.Request().Context(), accountID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load top-ups failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": topupParts(topups)})
}

// Library handles GET /v1/library: everything the account has
// unlocked, with episode and novel detail.
func (h *WalletHandler) Library(c echo.Context) error {
    accountID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    entries, err := h.Unlocks.ListByAccount(c.Request().Context(), accountID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load library failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": entries})
}
