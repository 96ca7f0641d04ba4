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

	goredis "github.com/redis/go-redis/v9"

	listingapp "rentlona/internal/app/handlers/listings"
	"rentlona/internal/app/middleware"
	appoutbox "rentlona/internal/app/outbox"
	authsvc "rentlona/internal/app/services/auth"
	"rentlona/internal/app/uow"
	"rentlona/internal/app/wiring"
	domainauth "rentlona/internal/domain/auth"
	domainmessages "rentlona/internal/domain/messages"
	domainuser "rentlona/internal/domain/user"
	"rentlona/internal/infra/broker/kafka"
	"rentlona/internal/infra/config"
	mongodb "rentlona/internal/infra/db/mongo"
	ginserver "rentlona/internal/infra/http/gin"
	"rentlona/internal/infra/inbox"
	"rentlona/internal/infra/media"
	"rentlona/internal/infra/obs"
	mongooutbox "rentlona/internal/infra/outbox"
	"rentlona/internal/infra/realtime"
	"rentlona/internal/infra/security"
	"rentlona/internal/infra/storage/localfs"
	"rentlona/internal/infra/storage/memory"
	redisstore "rentlona/internal/infra/storage/redis"
	"rentlona/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger("prod").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	if app.fixtures != nil {
		if err := app.fixtures.Load(ctx, fixturesPath(cfg)); err != nil {
			logger.Warn("listing fixtures load failed", "error", err)
		}
	}
	for _, run := range app.background {
		go run(ctx)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, app.health, app.handlers)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	health     obs.HealthHandlers
	fixtures   *fixtureSeeder
	background []func(context.Context)
	closers    []func(context.Context) error
}

func (a *application) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Reverse order: the hub goes before the stores it reads from.
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			logger.Warn("shutdown step failed", "error", err)
		}
	}
}

type storage struct {
	factory     uow.UoWFactory
	users       domainuser.Repository
	outbox      appoutbox.Outbox
	memOutbox   *memory.Outbox
	idempotency middleware.IdempotencyStore
	mongo       *mongodb.Client
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{health: obs.HealthHandlers{Checks: map[string]obs.Check{}}}

	store, err := buildStorage(ctx, cfg, app, logger)
	if err != nil {
		return nil, err
	}

	var denylist domainauth.Denylist = memory.NewDenylist()
	var rdb *goredis.Client
	if cfg.RedisAddr != "" {
		rdb, err = redisstore.Connect(ctx, redisstore.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			return nil, err
		}
		denylist = redisstore.NewDenylist(rdb)
		app.health.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		app.closers = append(app.closers, func(context.Context) error { return rdb.Close() })
	}

	authService := &authsvc.Service{
		Users:     store.users,
		Passwords: security.BcryptHasher{},
		Tokens:    security.JWTIssuer{Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTTTL, Issuer: "rentlona"},
		Denylist:  denylist,
		Logger:    logger,
	}

	hub := realtime.NewHub(realtime.Options{
		Authenticate: func(ctx context.Context, token string) (string, error) {
			res, err := authService.ResolveToken(ctx, token)
			if err != nil {
				return "", err
			}
			return string(res.User.ID), nil
		},
		RequireAuth: cfg.RealtimeRequireAuth,
		CORSOrigins: cfg.CORSOrigins,
		Redis:       rdb,
		Logger:      logger,
	})
	app.closers = append(app.closers, func(context.Context) error { hub.Close(); return nil })

	if cfg.RealtimeEventBridge {
		if err := wireRealtimeBridge(ctx, cfg, store, hub, app, logger); err != nil {
			return nil, err
		}
	}

	uploader, uploadDir, err := buildUploader(ctx, cfg, app, logger)
	if err != nil {
		return nil, err
	}

	buses, err := wiring.Build(wiring.Deps{
		UoW:                store.factory,
		Outbox:             store.outbox,
		Idempotency:        store.idempotency,
		Uploader:           uploader,
		Thumbnailer:        media.Thumbnailer{},
		AllowSelfMessaging: cfg.AllowSelfMessaging,
		Logger:             logger,
	})
	if err != nil {
		return nil, err
	}

	app.handlers = ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: authService, Queries: buses.Queries, Logger: logger},
		Listing:        ginserver.ListingHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger, MaxImageBytes: cfg.UploadMaxBytes},
		Message:        ginserver.MessageHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		User:           ginserver.UserHandler{Commands: buses.Commands, Queries: buses.Queries, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
		AuthLimiter:    ginserver.NewAuthRateLimiter(cfg.AuthRateWindow, cfg.AuthRateLimit),
		Realtime:       hub.Handler(),
		UploadDir:      uploadDir,
	}
	return app, nil
}

func buildStorage(ctx context.Context, cfg config.Config, app *application, logger *slog.Logger) (*storage, error) {
	if cfg.StorageDriver != config.StorageMongo {
		users := memory.NewUserRepository()
		listings := memory.NewListingRepository()
		box := memory.NewOutbox(logger)
		app.fixtures = &fixtureSeeder{Users: users, Listings: listings, Passwords: security.BcryptHasher{}, Logger: logger}
		return &storage{
			factory: memory.Factory{
				ListingsRepo: listings,
				UsersRepo:    users,
				MessagesRepo: memory.NewMessageRepository(),
			},
			users:       users,
			outbox:      box,
			memOutbox:   box,
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
		}, nil
	}

	client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, client.Close)
	app.health.Checks["mongo"] = client.Ping
	if err := client.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	idem, err := mongodb.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return nil, err
	}
	users := mongodb.NewUserRepository(client.DB)
	st := &storage{
		factory: mongodb.Factory{
			DB:           client.DB,
			Transactions: cfg.MongoTransactions,
			ListingsRepo: mongodb.NewListingRepository(client.DB),
			UsersRepo:    users,
			MessagesRepo: mongodb.NewMessageRepository(client.DB),
		},
		users:       users,
		idempotency: idem,
		mongo:       client,
	}

	if len(cfg.KafkaBrokers) == 0 {
		box := memory.NewOutbox(logger)
		st.outbox, st.memOutbox = box, box
		return st, nil
	}
	queue, err := mongooutbox.NewStore(ctx, client.DB)
	if err != nil {
		return nil, err
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, func(context.Context) error { return producer.Close() })
	worker := &mongooutbox.Worker{
		Store:       queue,
		Producer:    producer,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}
	app.background = append(app.background, func(ctx context.Context) {
		if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("outbox worker stopped", "error", err)
		}
	})
	st.outbox = queue
	return st, nil
}

// wireRealtimeBridge pushes message.sent events to socket rooms. In-process
// outboxes hand records over on flush; the Kafka path consumes the relayed
// topic and dedupes through the inbox.
func wireRealtimeBridge(ctx context.Context, cfg config.Config, store *storage, hub *realtime.Hub, app *application, logger *slog.Logger) error {
	bridge := &realtime.Bridge{Emitter: hub, Logger: logger}
	if store.memOutbox != nil {
		store.memOutbox.OnFlush = bridge.OnFlush
		return nil
	}
	seen, err := inbox.NewStore(ctx, store.mongo.DB, "rentlona-realtime")
	if err != nil {
		return err
	}
	bridge.Dedupe = seen
	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, "rentlona-realtime", nil, bridge, logger)
	if err != nil {
		return err
	}
	app.closers = append(app.closers, func(context.Context) error { return consumer.Close() })
	topic := mongooutbox.TopicFor(cfg.KafkaTopicPrefix, domainmessages.MessageSentEvent{}.EventName())
	app.background = append(app.background, func(ctx context.Context) {
		if err := consumer.Run(ctx, []string{topic}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("realtime consumer stopped", "error", err)
		}
	})
	return nil
}

// buildUploader returns the image store and, for disk storage, the directory
// the router serves under /uploads.
func buildUploader(ctx context.Context, cfg config.Config, app *application, logger *slog.Logger) (listingapp.Uploader, string, error) {
	if cfg.S3Enabled {
		client, err := s3.NewClient(s3.Config{
			Endpoint:      cfg.S3Endpoint,
			UseSSL:        cfg.S3UseSSL,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicEndpoint,
		}, logger)
		if err != nil {
			return nil, "", err
		}
		app.health.Checks["s3"] = client.Ping
		return client, "", nil
	}
	if cfg.UploadDir == "" {
		logger.Warn("image uploads disabled: no UPLOAD_DIR and S3 off")
		return nil, "", nil
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, "", err
	}
	return localfs.Uploader{Dir: cfg.UploadDir, URLPrefix: "/uploads", Logger: logger}, cfg.UploadDir, nil
}
