package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parking-detector-go/internal/calibration"
	"parking-detector-go/internal/client"
	"parking-detector-go/internal/config"
	"parking-detector-go/internal/database"
	"parking-detector-go/internal/events"
	"parking-detector-go/internal/handler"
	"parking-detector-go/internal/repository"
	"parking-detector-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	// Получаем конфигурацию из .env и переменных окружения
	cfg := config.LoadConfig()

	// Инициализируем логгер
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.Info("Запуск Parking Detector API Server")

	// Инициализируем базу данных
	logger.Info("Подключение к базе данных...")
	if err := database.Connect(cfg.Database, logger); err != nil {
		logger.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(logger); err != nil {
		logger.Fatalf("Ошибка выполнения миграций: %v", err)
	}

	if err := database.HealthCheck(); err != nil {
		logger.Fatalf("База данных недоступна: %v", err)
	}

	logger.Info("База данных успешно подключена и готова к работе")

	if cfg.Admin.APIKey == "" {
		logger.Warn("ADMIN_API_KEY не задан, административные маршруты закрыты")
	}

	// Публикация результатов анализа
	var publisher events.AnalysisPublisher = events.NoopPublisher{}
	if cfg.Kafka.Enabled {
		kp, err := events.NewKafkaPublisher(cfg.Kafka.KafkaConfig, logger)
		if err != nil {
			logger.Fatalf("Ошибка инициализации Kafka: %v", err)
		}
		publisher = kp
	}
	defer publisher.Close()

	// Инициализируем репозитории
	calibrationRepo := repository.NewCalibrationRepository(database.DB)
	sessionRepo := repository.NewSessionRepository(database.DB)

	// Инициализируем клиенты и сервисы
	detectorClient := client.NewDetectorAPIClient(
		cfg.DetectorAPI.BaseURL,
		time.Duration(cfg.DetectorAPI.Timeout)*time.Second,
		logger,
	)

	calibrationService := service.NewCalibrationService(
		calibrationRepo,
		calibration.NewValidator(cfg.Parking.MaxParkingRows),
		service.CalibrationDefaults{
			MinSpaceWidth:    cfg.Parking.DefaultMinSpaceWidth,
			SpaceCoefficient: cfg.Parking.DefaultSpaceCoefficient,
		},
		logger,
	)
	frameService := service.NewFrameService(
		detectorClient,
		calibrationService,
		sessionRepo,
		publisher,
		service.FrameServiceConfig{
			MaxFramesPerSession: cfg.Parking.MaxFramesPerSession,
			BestFramesDir:       cfg.Parking.BestFramesDir,
		},
		logger,
	)
	resultService := service.NewResultService(sessionRepo, logger)
	statsService := service.NewStatsService(sessionRepo, detectorClient, database.HealthCheck, logger)

	// Настраиваем Gin router
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	adminAuth := handler.AdminAuth(cfg.Admin.APIKey)
	handler.NewCalibrationHandler(calibrationService, logger).RegisterRoutes(router, adminAuth)
	handler.NewFrameHandler(frameService, logger).RegisterRoutes(router, adminAuth)
	handler.NewResultHandler(resultService, logger).RegisterRoutes(router)
	handler.NewAdminHandler(statsService, logger).RegisterRoutes(router, adminAuth)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Parking Detector API Server",
			"version": service.Version,
			"status":  "running",
		})
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// gRPC health
	grpcServer, err := startGRPCHealth(ctx, cfg.Server.GRPCPort, logger)
	if err != nil {
		logger.Fatalf("Ошибка запуска gRPC сервера: %v", err)
	}
	defer grpcServer.GracefulStop()

	// Запускаем сервер
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}
	go func() {
		logger.Infof("Сервер запущен на %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Остановка сервера...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Ошибка остановки HTTP сервера: %v", err)
	}
}

// startGRPCHealth запускает gRPC health сервис; статус следует за доступностью базы данных
func startGRPCHealth(ctx context.Context, port int, logger *logrus.Logger) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	server := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)

	setStatus := func() {
		status := healthpb.HealthCheckResponse_SERVING
		if err := database.HealthCheck(); err != nil {
			logger.Warnf("gRPC health: база данных недоступна: %v", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		healthServer.SetServingStatus("", status)
	}
	setStatus()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				healthServer.Shutdown()
				return
			case <-ticker.C:
				setStatus()
			}
		}
	}()

	go func() {
		logger.Infof("gRPC health сервер слушает порт %d", port)
		if err := server.Serve(lis); err != nil {
			logger.Errorf("Ошибка gRPC сервера: %v", err)
		}
	}()

	return server, nil
}

// corsMiddleware добавляет заголовки CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-API-Key")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
