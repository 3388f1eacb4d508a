package main // Entry point package

import (
    "context"
    "log"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/slot-booking-service/internal/config"
    "github.com/iliyamo/slot-booking-service/internal/database"
    "github.com/iliyamo/slot-booking-service/internal/handler"
    "github.com/iliyamo/slot-booking-service/internal/ledger"
    "github.com/iliyamo/slot-booking-service/internal/middleware"
    "github.com/iliyamo/slot-booking-service/internal/queue"
    "github.com/iliyamo/slot-booking-service/internal/repository"
    "github.com/iliyamo/slot-booking-service/internal/router"
    queue_publisher "github.com/iliyamo/slot-booking-service/internal/service"
    "github.com/iliyamo/slot-booking-service/internal/sweeper"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    if err := godotenv.Load(); err != nil {
        log.Printf("no .env file loaded: %v", err)
    }
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database: %v", err)
    }
    defer db.Close()

    // Redis is optional infrastructure: a nil client turns the rate
    // limiter and the response cache into pass-throughs.
    rdb := config.NewRedisClient()

    userRepo := repository.NewUserRepo(db)
    tokenRepo := repository.NewTokenRepo(db)
    serviceRepo := repository.NewServiceRepo(db)
    slotRepo := repository.NewSlotRepo(db)
    bookingRepo := repository.NewBookingRepo(db)

    ldg := ledger.New(repository.NewLedgerStore(db))

    // Reminders go out through the broker; the consumer below turns
    // them into deliveries.
    swCfg := config.LoadSweeperConfig()
    sw := sweeper.New(
        bookingRepo,
        sweeper.NotifierFunc(func(ctx context.Context, r sweeper.Reminder) error {
            return queue_publisher.PublishBookingReminder(ctx, queue.BookingReminderEvent{
                BookingID: r.BookingID,
                UserID:    r.UserID,
                SlotID:    r.SlotID,
                StartsAt:  r.StartsAt.UTC().Format(time.RFC3339),
                SentAt:    time.Now().UTC().Format(time.RFC3339),
            })
        }),
        swCfg.ReminderWindow,
        swCfg.ReminderInterval,
        swCfg.CompletionInterval,
    )
    sw.Start()
    defer sw.Stop()

    go func() {
        if err := queue.StartReminderConsumer(); err != nil {
            log.Printf("reminder consumer stopped: %v", err)
        }
    }()

    authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
    publicHandler := handler.NewPublicHandler(serviceRepo, slotRepo)
    bookingHandler := handler.NewBookingHandler(ldg, bookingRepo, slotRepo, serviceRepo)
    providerHandler := handler.NewProviderHandler(serviceRepo, slotRepo, bookingRepo)

    e := echo.New()
    e.Use(middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb))

    router.RegisterRoutes(e)
    router.RegisterAuth(e, authHandler, cfg.JWTSecret)
    router.RegisterPublic(e, publicHandler, middleware.NewResponseCache(config.LoadCacheConfig(), rdb))
    router.RegisterBooking(e, bookingHandler, cfg.JWTSecret)
    router.RegisterProvider(e, providerHandler, cfg.JWTSecret)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
