package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/xela07ax/agentmarket-console/internal/audit"
	"github.com/xela07ax/agentmarket-console/internal/console/handler"
	"github.com/xela07ax/agentmarket-console/internal/console/server"
	"github.com/xela07ax/agentmarket-console/internal/console/service"
	"github.com/xela07ax/agentmarket-console/internal/domain"
	"github.com/xela07ax/agentmarket-console/internal/engine"
	"github.com/xela07ax/agentmarket-console/internal/infra"
	"github.com/xela07ax/agentmarket-console/internal/infra/auth"
	"github.com/xela07ax/agentmarket-console/internal/node"
	"github.com/xela07ax/agentmarket-console/internal/repository/postgres"
	"github.com/xela07ax/agentmarket-console/internal/repository/redisstore"
)

func main() {
	// 1. Конфиг и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	// Контекст жизненного цикла фоновых горутин: SIGINT/SIGTERM гасит всех слушателей
	appCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Метрики на отдельном адресе
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := infra.NewMetrics(reg)

	metricsSrv := &http.Server{
		Addr:    cfg.Server.MetricsAddr,
		Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	// 3. Внешние хранилища. Оба опциональны: без них консоль работает, теряя журнал в БД и сигналы.
	var (
		journalStorage audit.Storage
		journalReader  service.JournalReader
	)
	if cfg.Database.URL != "" {
		db, err := postgres.Open(appCtx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			logger.Fatal("database unreachable", zap.Error(err))
		}
		defer db.Close()

		repo := postgres.NewJournalRepo(db)
		if err := repo.EnsureSchema(appCtx); err != nil {
			logger.Fatal("journal schema", zap.Error(err))
		}
		journalStorage, journalReader = repo, repo
	} else {
		logger.Info("database url not set, operation journal goes to log only")
	}

	var (
		rdb        *redis.Client
		onboarding service.OnboardingStore
		publisher  service.Publisher
	)
	if cfg.Redis.Addr != "" {
		rdb, err = redisstore.Connect(appCtx, cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, onboarding kept in memory, refresh signals disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			store := redisstore.New(rdb)
			onboarding, publisher = store, store
		}
	}

	// 4. Клиенты ноды
	httpClient := &http.Client{Timeout: cfg.Node.Timeout}
	forwarder := node.NewForwarder(cfg.Node, httpClient, metrics, logger)

	connection := domain.ConnectionFor(cfg.Node.GraphQLEndpoint)
	connected := connection == domain.Connected
	querier := node.NewQuerier(cfg.Node.GraphQLEndpoint, httpClient, metrics, logger)
	if connected {
		pingCtx, cancel := context.WithTimeout(appCtx, 3*time.Second)
		if err := querier.Ping(pingCtx); err != nil {
			logger.Warn("graphql endpoint not responding yet", zap.String("endpoint", cfg.Node.GraphQLEndpoint), zap.Error(err))
		}
		cancel()
	} else {
		logger.Warn("graphql endpoint not configured, all surfaces stay Disconnected")
	}

	// 5. Sync Controllers
	dashboard := engine.NewController(
		engine.DashboardSurface(querier, cfg.Sync.DashboardInterval, cfg.Sync.TransactionsLimit),
		connected, metrics, logger)
	marketplace := engine.NewController(engine.MarketplaceSurface(querier), connected, metrics, logger)
	requests := engine.NewController(engine.RequestsSurface(querier), connected, metrics, logger)
	hub := engine.NewHub(connection, dashboard, marketplace, requests)

	healthSrv := health.NewServer()
	engine.BindHealth(healthSrv, engine.HealthService, dashboard)

	hub.Start(appCtx)

	// Успешная запись в любом инстансе консоли обновляет дашборд вне таймера
	if rdb != nil && connected {
		go engine.ListenSignalsResilient(appCtx, rdb, logger, infra.RedisChanOperations,
			func() { logger.Info("subscribed to operation signals") },
			engine.RefreshOnSignal(appCtx, dashboard, logger),
		)
	}

	// 6. Журнал операций
	journal := audit.NewJournal(journalStorage, metrics, logger)
	journal.Start()

	// 7. Сервисы и обработчики
	opService := service.NewOperationService(forwarder, journal, publisher, logger)

	handlers := server.Handlers{
		Operations: handler.NewOperationHandler(opService, logger),
		Surfaces:   handler.NewSurfaceHandler(hub),
		Agents:     handler.NewAgentHandler(querier, connection, logger),
		Onboarding: handler.NewOnboardingHandler(service.NewOnboardingService(onboarding)),
		Journal:    handler.NewJournalHandler(service.NewJournalService(journalReader)),
	}

	var validator auth.TokenValidator
	if cfg.Auth.Enabled {
		validator, handlers.Auth, err = setupAuth(cfg.Auth, logger)
		if err != nil {
			logger.Fatal("auth setup", zap.Error(err))
		}
		logger.Info("write routes require operator token")
	}

	consoleSrv := server.NewConsoleServer(cfg, logger, metrics, validator, handlers)
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      consoleSrv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 8. gRPC health
	grpcSrv := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	go func() {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
		if err != nil {
			logger.Fatal("failed to listen gRPC", zap.Error(err))
		}
		logger.Info("gRPC health server started", zap.Int("port", cfg.Server.GRPCPort))
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("gRPC server stopped", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("console API started",
			zap.String("addr", srv.Addr),
			zap.String("connection", string(connection)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	// 9. Graceful Shutdown
	<-appCtx.Done()
	logger.Info("console stopping...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	healthSrv.Shutdown()
	grpcSrv.GracefulStop()
	hub.Stop()
	journal.Stop() // финальный flush до закрытия БД
	_ = metricsSrv.Shutdown(shutdownCtx)

	logger.Info("console exited properly")
}

func setupAuth(cfg infra.AuthConfig, logger *zap.Logger) (auth.TokenValidator, *handler.AuthHandler, error) {
	pub, err := auth.ParseRSAPublicKey(cfg.PublicKey)
	if err != nil {
		return nil, nil, err
	}
	priv, err := auth.ParseRSAPrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, nil, err
	}
	if cfg.OperatorUsername == "" || cfg.OperatorPassword == "" {
		return nil, nil, errors.New("auth.operator_username and auth.operator_password_hash are required")
	}

	authService := service.NewAuthService(domain.Operator{
		Username:     cfg.OperatorUsername,
		PasswordHash: cfg.OperatorPassword,
	}, priv, cfg.TokenTTL)
	return auth.NewRSAValidator(pub), handler.NewAuthHandler(authService, logger), nil
}
