package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"homestay/internal/app/commands"
	availabilityapp "homestay/internal/app/handlers/availability"
	bookingapp "homestay/internal/app/handlers/booking"
	paymentsapp "homestay/internal/app/handlers/payments"
	pricingapp "homestay/internal/app/handlers/pricing"
	"homestay/internal/app/middleware"
	appoutbox "homestay/internal/app/outbox"
	"homestay/internal/app/policies"
	"homestay/internal/app/queries"
	"homestay/internal/app/uow"
	kafkabroker "homestay/internal/infra/broker/kafka"
	rediscache "homestay/internal/infra/cache/redis"
	"homestay/internal/infra/config"
	mongodb "homestay/internal/infra/db/mongo"
	ginserver "homestay/internal/infra/http/gin"
	"homestay/internal/infra/obs"
	infraoutbox "homestay/internal/infra/outbox"
	stripeprovider "homestay/internal/infra/payments/stripe"
	"homestay/internal/infra/storage/memory"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, cleanup, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if app.outboxWorker != nil {
		go func() {
			if err := app.outboxWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers     ginserver.Handlers
	outboxWorker *infraoutbox.Worker
	ready        func() error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, func(), error) {
	var (
		uowFactory  uow.UoWFactory
		outboxStore appoutbox.Outbox
		idStore     middleware.IdempotencyStore
		worker      *infraoutbox.Worker
		ready       = func() error { return nil }
		cleanups    []func()
	)
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, cleanup, err
		}
		calendar := mongodb.NewCalendarStore(client.DB)
		if err := calendar.EnsureIndexes(ctx); err != nil {
			return application{}, cleanup, err
		}
		uowFactory = mongodb.Factory{
			DB:           client.DB,
			ListingsRepo: mongodb.NewListingRepository(client.DB),
			BookingRepo:  mongodb.NewBookingRepository(client.DB),
			PaymentsRepo: mongodb.NewPaymentRepository(client.DB),
			Calendar:     calendar,
		}
		store := infraoutbox.NewStore(client.DB)
		outboxStore = store
		idStore = mongodb.NewIdempotencyStore(client.DB)
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}

		producer, err := kafkabroker.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return application{}, cleanup, err
		}
		cleanups = append(cleanups, func() { _ = producer.Close() })
		worker = &infraoutbox.Worker{
			Store:       store,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
	case "memory":
		uowFactory = memory.NewFactory()
		outboxStore = memory.NewOutbox()
		idStore = memory.NewIdempotencyStore()
	}

	var cache policies.AvailabilityCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		cleanups = append(cleanups, func() { _ = rdb.Close() })
		cache = rediscache.NewAvailabilityCache(rdb, cfg.CacheTTL)
	}

	var provider policies.PaymentProvider
	if cfg.StripeSecretKey != "" {
		provider = stripeprovider.New(
			cfg.StripeSecretKey,
			getenv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/checkout/success"),
			getenv("CHECKOUT_CANCEL_URL", "http://localhost:3000/checkout/cancel"),
		)
	}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		UoWFactory:   uowFactory,
		Provider:     provider,
		Cache:        cache,
		Outbox:       outboxStore,
		CommissionBP: cfg.CommissionBP,
	})
	commands.RegisterHandler(commandBus, bookingapp.TransitionBookingCommand{}.Key(), &bookingapp.TransitionBookingHandler{
		UoWFactory: uowFactory,
		Cache:      cache,
		Outbox:     outboxStore,
	})
	commands.RegisterHandler(commandBus, bookingapp.DeleteBookingCommand{}.Key(), &bookingapp.DeleteBookingHandler{
		UoWFactory: uowFactory,
		Cache:      cache,
		Outbox:     outboxStore,
	})
	commands.RegisterHandler(commandBus, availabilityapp.BlockDatesCommand{}.Key(), &availabilityapp.BlockDatesHandler{
		UoWFactory: uowFactory,
		Cache:      cache,
	})
	commands.RegisterHandler(commandBus, availabilityapp.UnblockDatesCommand{}.Key(), &availabilityapp.UnblockDatesHandler{
		UoWFactory: uowFactory,
		Cache:      cache,
	})
	commands.RegisterHandler(commandBus, paymentsapp.ReconcileEventCommand{}.Key(), &paymentsapp.ReconcileHandler{
		UoWFactory: uowFactory,
		Cache:      cache,
		Outbox:     outboxStore,
		Logger:     logger,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.CheckAvailabilityQuery{}.Key(), &availabilityapp.CheckAvailabilityHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, availabilityapp.UnavailableDatesQuery{}.Key(), &availabilityapp.UnavailableDatesHandler{
		UoWFactory:  uowFactory,
		Cache:       cache,
		HorizonDays: cfg.HorizonDays,
	})
	queries.RegisterHandler(queryBus, availabilityapp.BookedRangesQuery{}.Key(), &availabilityapp.BookedRangesHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, bookingapp.GuestBookingsQuery{}.Key(), &bookingapp.GuestBookingsHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, bookingapp.HostListingBookingsQuery{}.Key(), &bookingapp.HostListingBookingsHandler{
		UoWFactory: uowFactory,
	})
	queries.RegisterHandler(queryBus, pricingapp.QuoteQuery{}.Key(), &pricingapp.QuoteHandler{
		CommissionBP: cfg.CommissionBP,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	authMW := ginserver.AuthMiddleware{Secret: []byte(cfg.AuthSecret), Logger: logger}

	handlers := ginserver.Handlers{
		Booking: ginserver.BookingHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		Availability: ginserver.AvailabilityHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
		},
		Pricing: ginserver.PricingHandler{
			Queries: queryBusWithMiddleware,
		},
		Webhook: ginserver.WebhookHandler{
			Commands:      commandBusWithMiddleware,
			WebhookSecret: cfg.StripeWebhookKey,
			Logger:        logger,
		},
		AuthMiddleware: authMW.Handle,
	}

	return application{handlers: handlers, outboxWorker: worker, ready: ready}, cleanup, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
