package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"credit-ledger.backend/internal/config"
	"credit-ledger.backend/internal/infrastructure/forum"
	"credit-ledger.backend/internal/infrastructure/jobs"
	"credit-ledger.backend/internal/infrastructure/notify"
	"credit-ledger.backend/internal/infrastructure/repositories"
	"credit-ledger.backend/internal/interfaces/http/handlers"
	"credit-ledger.backend/internal/interfaces/http/middleware"
	"credit-ledger.backend/internal/usecases"
	"credit-ledger.backend/pkg/jwt"
	"credit-ledger.backend/pkg/logger"
	"credit-ledger.backend/pkg/redis"
)

const (
	notifyURLRetention = 24 * time.Hour
	callbackTimeout    = 10 * time.Second
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	runServer = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	logger.Info(context.Background(), "logger initialized", zap.String("env", cfg.Server.Env))

	if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	logger.Info(context.Background(), "redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openDB(cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		logger.Warn(context.Background(), "database not available, endpoints will return errors", zap.Error(err))
	} else {
		logger.Info(context.Background(), "connected to postgres")
	}

	// Session tokens are issued by the hosting forum; this service only
	// verifies them with the shared secret.
	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiry)

	// Repositories
	walletRepo := repositories.NewWalletRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	envelopeRepo := repositories.NewRedEnvelopeRepository(db)
	disputeRepo := repositories.NewDisputeRepository(db)
	appRepo := repositories.NewMerchantAppRepository(db)
	txnRepo := repositories.NewPaymentTransactionRepository(db)
	productRepo := repositories.NewProductRepository(db)
	configRepo := repositories.NewConfigRepository(db)
	payLevelRepo := repositories.NewPayLevelRepository(db)
	uow := repositories.NewUnitOfWork(db)

	// Forum collaborators: identity, private messages, leaderboard scores
	forumClient := forum.NewClient(cfg.Forum)

	notifier := notify.NewNotifier(callbackTimeout)
	notifyStore := redis.NewNotifyStore(notifyURLRetention)

	// Usecases
	walletUsecase := usecases.NewWalletUsecase(walletRepo, orderRepo, configRepo, uow, forumClient)
	fees := usecases.NewFeeResolver(payLevelRepo, configRepo)
	transferUsecase := usecases.NewTransferUsecase(walletUsecase, walletRepo, orderRepo, configRepo, fees, uow, forumClient, forumClient)
	tipUsecase := usecases.NewTipUsecase(walletUsecase, walletRepo, orderRepo, configRepo, fees, uow, forumClient, forumClient)
	envelopeUsecase := usecases.NewRedEnvelopeUsecase(walletUsecase, walletRepo, orderRepo, envelopeRepo, configRepo, uow, forumClient)
	disputeUsecase := usecases.NewDisputeUsecase(walletUsecase, walletRepo, orderRepo, disputeRepo, configRepo, uow, forumClient)
	merchantUsecase := usecases.NewMerchantUsecase(appRepo, productRepo)
	productUsecase := usecases.NewProductUsecase(walletUsecase, walletRepo, orderRepo, productRepo, appRepo, fees, uow, forumClient)
	gatewayUsecase := usecases.NewGatewayUsecase(walletUsecase, walletRepo, orderRepo, appRepo, configRepo, fees, uow, notifyStore, notifier)
	paymentUsecase := usecases.NewPaymentUsecase(walletUsecase, walletRepo, orderRepo, txnRepo, appRepo, configRepo, fees, uow, notifier)

	// Handlers
	deps := routeDeps{
		walletHandler:      handlers.NewWalletHandler(walletUsecase),
		transferHandler:    handlers.NewTransferHandler(transferUsecase),
		tipHandler:         handlers.NewTipHandler(tipUsecase),
		redEnvelopeHandler: handlers.NewRedEnvelopeHandler(envelopeUsecase),
		disputeHandler:     handlers.NewDisputeHandler(disputeUsecase),
		merchantHandler:    handlers.NewMerchantHandler(merchantUsecase),
		productHandler:     handlers.NewProductHandler(productUsecase),
		gatewayHandler:     handlers.NewGatewayHandler(gatewayUsecase),
		paymentHandler:     handlers.NewPaymentHandler(paymentUsecase),
		configHandler:      handlers.NewConfigHandler(configRepo, payLevelRepo),
		authMiddleware:     middleware.Auth(jwtService),
	}

	// Background reconciliation sweeps
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	orderExpiry := jobs.NewOrderExpiryJob(orderRepo, cfg.Jobs.OrderExpiryInterval)
	txnExpiry := jobs.NewTransactionExpiryJob(txnRepo, cfg.Jobs.TransactionExpiryInterval)
	envelopeRefund := jobs.NewEnvelopeRefundJob(envelopeRepo, envelopeUsecase, cfg.Jobs.EnvelopeRefundInterval)
	disputeResolve := jobs.NewDisputeResolveJob(disputeRepo, disputeUsecase, cfg.Jobs.DisputeResolveInterval)
	scoreSync := jobs.NewScoreSyncJob(walletRepo, orderRepo, forumClient, uow, cfg.Jobs.ScoreSyncInterval)

	go orderExpiry.Start(ctx)
	go txnExpiry.Start(ctx)
	go envelopeRefund.Start(ctx)
	go disputeResolve.Start(ctx)
	go scoreSync.Start(ctx)

	// Router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerGatewayRoutes(r, deps)
	registerAPIV1Routes(r, deps)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info(context.Background(), "shutting down")
		orderExpiry.Stop()
		txnExpiry.Stop()
		envelopeRefund.Stop()
		disputeResolve.Stop()
		scoreSync.Stop()
		cancel()
	}()

	logger.Info(context.Background(), "server starting", zap.String("port", cfg.Server.Port))
	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
