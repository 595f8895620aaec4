package main

import (
    "context"
    "errors"
    "net/http"
    "os/signal"
    "syscall"
    "time"

    "github.com/spf13/cobra"
    "go.uber.org/zap"

    "github.com/iliyamo/cementerio-ledger/internal/config"
    "github.com/iliyamo/cementerio-ledger/internal/database"
    "github.com/iliyamo/cementerio-ledger/internal/handler"
    "github.com/iliyamo/cementerio-ledger/internal/middleware"
    "github.com/iliyamo/cementerio-ledger/internal/queue"
    "github.com/iliyamo/cementerio-ledger/internal/repository"
    "github.com/iliyamo/cementerio-ledger/internal/repository/memstore"
    "github.com/iliyamo/cementerio-ledger/internal/router"
    "github.com/iliyamo/cementerio-ledger/internal/service"
)

func serveCmd() *cobra.Command {
    cmd := &cobra.Command{
        Use:   "serve",
        Short: "Run the HTTP API",
        RunE: func(cmd *cobra.Command, args []string) error {
            migrate, _ := cmd.Flags().GetBool("migrate")
            return serve(cmd.Context(), migrate)
        },
    }
    cmd.Flags().Bool("migrate", false, "apply pending migrations before serving (mysql only)")
    return cmd
}

// storeHandle is what serve needs from either backing store.
type storeHandle interface {
    service.Store
    handler.Pinger
}

func openStore(ctx context.Context, cfg *config.Config, migrate bool, log *zap.Logger) (storeHandle, func(), error) {
    if cfg.App.StoreDriver == config.DriverMemory {
        st := memstore.New()
        st.SeedDemo()
        log.Warn("using in-memory store; data is lost on exit")
        return st, func() {}, nil
    }

    db, err := database.Open(ctx, cfg.Database)
    if err != nil {
        return nil, nil, err
    }
    if migrate {
        mg, err := database.NewMigrator(db, log)
        if err != nil {
            _ = db.Close()
            return nil, nil, err
        }
        if err := mg.Up(); err != nil {
            _ = db.Close()
            return nil, nil, err
        }
    }
    log.Info("connected to mysql", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.Name))
    return repository.NewStore(db), func() { _ = db.Close() }, nil
}

func serve(parent context.Context, migrate bool) error {
    cfg, log, err := setup()
    if err != nil {
        return err
    }
    defer func() { _ = log.Sync() }()

    if parent == nil {
        parent = context.Background()
    }
    ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    store, closeStore, err := openStore(ctx, cfg, migrate, log)
    if err != nil {
        return err
    }
    defer closeStore()

    var events service.Publisher = service.NopPublisher{}
    if cfg.RabbitMQ.URL != "" {
        pub := queue.NewPublisher(cfg.RabbitMQ.URL, log)
        defer func() { _ = pub.Close() }()
        events = pub
    } else {
        log.Info("RABBITMQ_URL not set, ledger events are not published")
    }

    rdb := config.NewRedisClient(cfg.Redis, log)
    if rdb != nil {
        defer func() { _ = rdb.Close() }()
    }

    catalog := service.NewCatalog(store)
    registry := service.NewRegistry(store, log)
    ledger := service.NewLedger(store, catalog, registry, events,
        service.LedgerConfig{StrictCedula: cfg.Ledger.CedulaStrict}, log)
    recorder := service.NewRecorder(store, events, log)
    queries := service.NewQueries(store, registry, ledger, recorder)
    inbox := service.NewInbox(store, log)

    if !cfg.AdminEnabled() {
        log.Warn("ADMIN_PASSWORD_HASH not set, admin routes are unreachable")
    }

    e := router.New(router.Deps{
        Store:        store,
        Public:       handler.NewPublicHandler(catalog, queries),
        Reservations: handler.NewReservationHandler(registry, ledger),
        Payments:     handler.NewPaymentHandler(recorder),
        Messages:     handler.NewMessageHandler(inbox),
        Auth:         handler.NewAuthHandler(cfg.Auth),
        JWTSecret:    cfg.Auth.JWTSecret,
        Logger:       log,
        RateLimit:    middleware.NewTokenBucket(cfg.RateLimit, rdb, log),
        Cache:        middleware.NewRedisCache(cfg.Cache, rdb),
    })

    addr := ":" + cfg.App.Port
    errCh := make(chan error, 1)
    go func() {
        log.Info("listening", zap.String("addr", addr), zap.String("store", cfg.App.StoreDriver))
        if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
            errCh <- err
        }
        close(errCh)
    }()

    select {
    case err := <-errCh:
        return err
    case <-ctx.Done():
    }

    log.Info("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    return e.Shutdown(shutdownCtx)
}
