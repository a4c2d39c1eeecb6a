package main // Entry point package

import (
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/hearhere/internal/config"
    "github.com/iliyamo/hearhere/internal/database"
    "github.com/iliyamo/hearhere/internal/handler"
    "github.com/iliyamo/hearhere/internal/ledger"
    appmw "github.com/iliyamo/hearhere/internal/middleware"
    "github.com/iliyamo/hearhere/internal/queue"
    "github.com/iliyamo/hearhere/internal/repository"
    "github.com/iliyamo/hearhere/internal/router"
)

func main() {
    // .env is a development convenience; missing file is fine.
    _ = godotenv.Load()

    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Redis backs rate limiting and the public catalog cache. A nil
    // client disables both; the API still serves.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Printf("redis unavailable; rate limiting and response cache disabled")
    }

    accounts := repository.NewAccountRepo(db)
    keys := repository.NewAccessKeyRepo(db)
    tokens := repository.NewTokenRepo(db)
    catalog := repository.NewCatalogRepo(db)
    unlocks := repository.NewUnlockRepo(db)
    topups := repository.NewTopUpRepo(db)

    coinLedger := ledger.New(db, accounts, catalog, unlocks, topups)

    authHandler := handler.NewAuthHandler(cfg, accounts, keys, tokens)
    publicHandler := handler.NewPublicHandler(catalog, unlocks, cfg.JWTSecret)
    walletHandler := handler.NewWalletHandler(coinLedger, accounts, catalog, unlocks, topups)
    creatorHandler := handler.NewCreatorHandler(catalog)
    adminHandler := handler.NewAdminHandler(keys, topups, coinLedger)

    e := echo.New()
    e.HideBanner = true

    e.Use(appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
    cache := appmw.NewRedisCache(config.LoadCacheConfig(), rdb)

    router.RegisterRoutes(e)
    router.RegisterAuth(e, authHandler, cfg.JWTSecret)
    router.RegisterPublic(e, publicHandler, cache)
    router.RegisterListener(e, walletHandler, cfg.JWTSecret)
    router.RegisterCreator(e, creatorHandler, cfg.JWTSecret)
    router.RegisterAdmin(e, adminHandler, cfg.JWTSecret)

    // Audit consumer runs for the life of the process, reconnecting
    // on broker failures.
    go func() {
        if err := queue.StartLedgerConsumer(); err != nil {
            log.Printf("ledger-consumer stopped: %v", err)
        }
    }()

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
