package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"secure-share-api/config"
	"secure-share-api/internal/application/ports"
	"secure-share-api/internal/application/services"
	"secure-share-api/internal/infrastructure/cipherstore"
	"secure-share-api/internal/infrastructure/db/postgres"
	"secure-share-api/internal/infrastructure/db/postgres/file"
	"secure-share-api/internal/infrastructure/db/postgres/share"
	"secure-share-api/internal/infrastructure/db/postgres/user"
	"secure-share-api/internal/infrastructure/jwt"
	"secure-share-api/internal/infrastructure/keys"
	"secure-share-api/internal/infrastructure/metrics"
	"secure-share-api/internal/infrastructure/mq"
	"secure-share-api/internal/infrastructure/qr"
	"secure-share-api/internal/infrastructure/storage"
	"secure-share-api/internal/interface/api/rest"
	"secure-share-api/internal/interface/api/rest/middleware"
	"secure-share-api/pkg/rmqconsumer"
)

const (
	qrCacheSize = 512
	qrCacheTTL  = 10 * time.Minute
)

type App struct {
	logger     *zap.Logger
	cfg        config.Config
	db         *pgxpool.Pool
	httpSrv    *http.Server
	router     *gin.Engine
	metrics    *metrics.Metrics
	keys       *keys.Manager
	cipher     *cipherstore.Store
	qr         *qr.Encoder
	policy     config.UploadPolicy
	mq         ports.RabbitMQ
	mqConsumer ports.RMQConsumer
	reaper     ports.Reaper
}

func NewApp(ctx context.Context) (*App, error) {
	// logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("cannot initialize zap logger: %v", err)
	}
	defer logger.Sync()

	// config
	envErr := godotenv.Load(".env")
	cfg := config.Load()
	if envErr != nil {
		if cfg.IsProduction() {
			logger.Fatal("error loading .env file", zap.Error(envErr))
		}
		logger.Info("no .env file, using process environment", zap.Error(envErr))
	}
	if err = cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}
	policy, err := config.LoadUploadPolicy(cfg.Storage.PolicyFile, cfg.Storage.MaxFileSize)
	if err != nil {
		logger.Fatal("invalid upload policy", zap.Error(err))
	}

	// metrics
	m := metrics.New(prometheus.DefaultRegisterer)

	// router
	switch {
	case cfg.IsProduction():
		gin.SetMode(gin.ReleaseMode)
	case cfg.App.Env == gin.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogGin(logger, m.Counter))

	// httpServer
	httpSrv := &http.Server{
		Addr:              cfg.App.Host + ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// db
	dbDsn, err := cfg.DBDSN()
	if err != nil {
		logger.Fatal("DB config error", zap.Error(err))
	}
	if err = postgres.Migrate(dbDsn, logger); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	dbPool, err := postgres.New(ctx, logger, dbDsn)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	// crypto + blobs
	masterKey, err := cfg.Crypto.MasterKey()
	if err != nil {
		logger.Fatal("crypto config error", zap.Error(err))
	}
	keyManager, err := keys.New(masterKey)
	if err != nil {
		logger.Fatal("failed to init key manager", zap.Error(err))
	}
	backend, err := storage.NewLocal(cfg.Storage.Dir, logger)
	if err != nil {
		logger.Fatal("failed to init blob storage", zap.Error(err))
	}
	cipher, err := cipherstore.New(backend, logger, cipherstore.Options{
		Workers:      cfg.Crypto.Workers,
		ChunkSize:    cfg.Crypto.ChunkSize,
		Compress:     cfg.Crypto.Compress,
		MaxPlaintext: policy.MaxFileSize,
		Duration:     m.CryptoDuration,
	})
	if err != nil {
		logger.Fatal("failed to init cipher store", zap.Error(err))
	}

	// rabbitMQ
	rabbitDsn, err := cfg.AMQPDSN()
	if err != nil {
		logger.Fatal("RabbitMQ config error", zap.Error(err))
	}
	rbMQ := mq.New(cfg.MQ, logger, m.Counter)
	if err = rbMQ.Connect(ctx, rabbitDsn); err != nil {
		logger.Fatal("failed to connect to rabbitMQ", zap.Error(err))
	}
	if err = rbMQ.Init(); err != nil {
		logger.Fatal("failed init rabbitMQ", zap.Error(err))
	}
	// rmqConsumer
	rmqConsumer := rmqconsumer.New(cfg.MQ, logger, mq.Actions)
	if err = rmqConsumer.Connect(rabbitDsn); err != nil {
		logger.Fatal("failed to connect rabbitMQ consumer", zap.Error(err))
	}
	if err = rmqConsumer.Init(); err != nil {
		logger.Fatal("failed to init rabbitMQ consumer", zap.Error(err))
	}

	return &App{
		logger:     logger,
		cfg:        cfg,
		db:         dbPool,
		httpSrv:    httpSrv,
		router:     r,
		metrics:    m,
		keys:       keyManager,
		cipher:     cipher,
		qr:         qr.New(qrCacheSize, qrCacheTTL),
		policy:     policy,
		mq:         rbMQ,
		mqConsumer: rmqConsumer,
	}, nil
}

func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.mq != nil && a.mq.GetConn() != nil {
		a.mq.GetConn().Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// Run - The central place to launch and manage our application and
// parallel processes through a single context.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting "+a.cfg.App.Name, zap.String("addr", a.httpSrv.Addr))
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server "+a.cfg.App.Name+" error: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		a.mq.PublisherWorker(ctx)
		return nil
	})

	g.Go(func() error {
		a.mqConsumer.DeliveryWorker(ctx)
		return nil
	})

	if a.reaper != nil {
		g.Go(func() error {
			a.reaper.Worker(ctx)
			return nil
		})
	}

	<-ctx.Done()

	a.logger.Info("shutting down " + a.cfg.App.Name + " gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if a.httpSrv != nil {
		if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown "+a.cfg.App.Name+" error", zap.Error(err))
			return err
		}
	}

	if err := g.Wait(); err != nil {
		a.logger.Error(a.cfg.App.Name+" returning an error", zap.Error(err))
		return err
	}

	a.logger.Info(a.cfg.App.Name + " gracefully stopped")

	return nil
}

func (a *App) InitControllers() {
	// repos
	userRepo := user.NewRepository(a.db)
	fileRepo := file.NewRepository(a.db)
	shareRepo := share.NewRepository(a.db)

	// services
	jwtService := jwt.New(a.cfg.App.JWTSecret, a.cfg.App.JWTTTL)
	authService := services.NewAuthService(jwtService)
	userService := services.NewUserService(userRepo, a.metrics.Counter)
	fileService := services.NewFileService(
		fileRepo, a.keys, a.cipher, a.policy, a.cfg.Share.FileTTL, a.mq, a.metrics.Counter, a.logger,
	)
	shareService := services.NewShareService(shareRepo, fileRepo, userRepo, a.mq, a.metrics.Counter)
	accessGate := services.NewAccessGate(
		fileRepo, shareRepo, a.keys, a.cipher, a.qr, a.cfg.App.PublicURL, a.mq, a.metrics.Counter, a.logger,
	)
	a.reaper = services.NewReaper(
		fileRepo, shareRepo, a.cipher, a.cfg.Share.SweepInterval, a.mq, a.metrics.ReaperPurged, a.logger,
	)

	// controllers
	rest.NewAuthController(a.router, a.logger, userService, authService, jwtService)
	rest.NewUserController(a.router, a.logger, userService, jwtService)
	rest.NewFileController(a.router, a.logger, fileService, accessGate, jwtService, a.cfg.App.PublicURL, a.policy.MaxFileSize)
	rest.NewShareController(a.router, a.logger, shareService, jwtService)

	// ops
	a.router.GET(rest.RouteHealth, func(c *gin.Context) { c.Status(http.StatusOK) })
	a.router.GET(rest.RouteMetrics, gin.WrapH(promhttp.Handler()))
}

func (a *App) Logger() *zap.Logger { return a.logger }
