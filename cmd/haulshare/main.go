package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"haulshare/internal/app/commands"
	availabilityapp "haulshare/internal/app/handlers/availability"
	bookingapp "haulshare/internal/app/handlers/booking"
	saleapp "haulshare/internal/app/handlers/sale"
	"haulshare/internal/app/middleware"
	appoutbox "haulshare/internal/app/outbox"
	"haulshare/internal/app/queries"
	authsvc "haulshare/internal/app/services/auth"
	"haulshare/internal/app/uow"
	"haulshare/internal/infra/broker/kafka"
	"haulshare/internal/infra/config"
	mongodb "haulshare/internal/infra/db/mongo"
	ginserver "haulshare/internal/infra/http/gin"
	"haulshare/internal/infra/obs"
	infraoutbox "haulshare/internal/infra/outbox"
	"haulshare/internal/infra/security"
	"haulshare/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	assetCount, err := app.loadAssetFixtures(cfg, logger)
	if err != nil {
		logger.Warn("asset fixtures load failed", "error", err)
	} else if assetCount > 0 {
		logger.Info("asset fixtures loaded", "count", assetCount)
	}

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

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
	if app.producer != nil {
		_ = app.producer.Close()
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	assets   *memory.AssetConfigProvider
	worker   *infraoutbox.Worker
	producer *kafka.Producer
	ready    func() error
}

func buildApplication(cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		uowFactory  uow.UoWFactory
		outboxStore appoutbox.Outbox
		idStore     middleware.IdempotencyStore
		worker      *infraoutbox.Worker
		producer    *kafka.Producer
		ready       = func() error { return nil }
	)

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, err
		}
		blockRepo := mongodb.NewBlockRepository(client.DB)
		reservationRepo := mongodb.NewReservationRepository(client.DB, blockRepo)
		saleRepo := mongodb.NewSaleRepository(client.DB)
		uowFactory = mongodb.Factory{
			DB:              client.DB,
			ReservationRepo: reservationRepo,
			SaleRepo:        saleRepo,
			BlockRepo:       blockRepo,
		}
		idStore = mongodb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		store := infraoutbox.NewStore(client.DB)
		outboxStore = store
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		}
		if cfg.KafkaEnabled() {
			p, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, err
			}
			producer = p
			worker = &infraoutbox.Worker{
				Store:       store,
				Producer:    p,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Backoff:     cfg.RetryBackoff,
				MaxAttempts: 10,
			}
		}
	default:
		blockRepo := memory.NewBlockRepository()
		uowFactory = memory.Factory{
			ReservationRepo: memory.NewReservationRepository(blockRepo),
			SaleRepo:        memory.NewSaleRepository(),
			BlockRepo:       blockRepo,
		}
		outboxStore = memory.NewOutbox()
		idStore = memory.NewIdempotencyStore()
		if cfg.KafkaEnabled() {
			logger.Warn("kafka publishing requires STORAGE_MODE=mongo, events stay local")
		}
	}

	assetConfig := memory.NewAssetConfigProvider()

	partyRepo := memory.NewPartyRepository()
	sessionStore := memory.NewSessionStore()
	authService := &authsvc.Service{
		Parties:    partyRepo,
		Sessions:   sessionStore,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}

	commandBus := commands.NewInMemoryBus()
	encoder := appoutbox.JSONEventEncoder{}

	requestHandler := &bookingapp.RequestReservationHandler{
		UoWFactory:  uowFactory,
		AssetConfig: assetConfig,
		Outbox:      outboxStore,
		Encoder:     encoder,
	}
	commands.RegisterHandler(commandBus, bookingapp.RequestReservationCommand{}.Key(), requestHandler)

	transitionHandler := &bookingapp.TransitionReservationHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
		Encoder:    encoder,
	}
	commands.RegisterHandler(commandBus, bookingapp.TransitionReservationCommand{}.Key(), transitionHandler)

	placeOfferHandler := &saleapp.PlaceOfferHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
		Encoder:    encoder,
	}
	commands.RegisterHandler(commandBus, saleapp.PlaceOfferCommand{}.Key(), placeOfferHandler)

	saleTransitionHandler := &saleapp.TransitionSaleHandler{
		UoWFactory: uowFactory,
		Outbox:     outboxStore,
		Encoder:    encoder,
	}
	commands.RegisterHandler(commandBus, saleapp.TransitionSaleCommand{}.Key(), saleTransitionHandler)

	createBlockHandler := &availabilityapp.CreateBlockHandler{
		UoWFactory:  uowFactory,
		AssetConfig: assetConfig,
	}
	commands.RegisterHandler(commandBus, availabilityapp.CreateBlockCommand{}.Key(), createBlockHandler)

	removeBlockHandler := &availabilityapp.RemoveBlockHandler{
		UoWFactory:  uowFactory,
		AssetConfig: assetConfig,
	}
	commands.RegisterHandler(commandBus, availabilityapp.RemoveBlockCommand{}.Key(), removeBlockHandler)

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.GetReservationQuery{}.Key(), &bookingapp.GetReservationHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, bookingapp.ListMyReservationsQuery{}.Key(), &bookingapp.ListMyReservationsHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, availabilityapp.UnavailableDatesQuery{}.Key(), &availabilityapp.UnavailableDatesHandler{UoWFactory: uowFactory})
	queries.RegisterHandler(queryBus, saleapp.GetSaleQuery{}.Key(), &saleapp.GetSaleHandler{UoWFactory: uowFactory})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(uowFactory, nil),
		middleware.OutboxFlush(outboxStore),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	authMW := ginserver.AuthMiddleware{Service: authService, Logger: logger}

	return application{
		handlers: ginserver.Handlers{
			Reservation: ginserver.ReservationHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
				Logger:   logger,
			},
			Sale: ginserver.SaleHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
				Logger:   logger,
			},
			Availability: ginserver.AvailabilityHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
				Logger:   logger,
			},
			Auth:           ginserver.AuthHandler{Service: authService, Logger: logger},
			AuthMiddleware: authMW.Handle,
		},
		assets:   assetConfig,
		worker:   worker,
		producer: producer,
		ready:    ready,
	}, nil
}

func (a application) loadAssetFixtures(cfg config.Config, logger *slog.Logger) (int, error) {
	path := cfg.AssetFixturesPath
	if path == "" {
		path = defaultAssetFixturesPath()
	}
	if path == "" {
		logger.Info("no asset fixtures configured, starting empty")
		return 0, nil
	}
	count, err := a.assets.LoadFixtures(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("asset fixtures file not found, skipping", "path", path)
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}

func defaultAssetFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "assets.json"),
		filepath.Join("backend", "data", "assets.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
