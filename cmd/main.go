package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"

	"github.com/shenikar/crime_alerting_system/internal/alert"
	"github.com/shenikar/crime_alerting_system/internal/alertfeed"
	"github.com/shenikar/crime_alerting_system/internal/config"
	v1 "github.com/shenikar/crime_alerting_system/internal/handler/http/v1"
	"github.com/shenikar/crime_alerting_system/internal/mapengine"
	"github.com/shenikar/crime_alerting_system/internal/repository"
	"github.com/shenikar/crime_alerting_system/internal/service"
	"github.com/shenikar/crime_alerting_system/internal/timeline"
	"github.com/shenikar/crime_alerting_system/internal/ws"
	"github.com/shenikar/crime_alerting_system/pkg/logger"
	"github.com/shenikar/crime_alerting_system/pkg/postgres"
	redisclient "github.com/shenikar/crime_alerting_system/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/shenikar/crime_alerting_system/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Crime Alerting System API
// @version 1.0
// @description Real-time incident alerting and map-marker orchestration for the municipal crime dashboard.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel)

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запуск миграций
	if err := runMigrations(cfg, log); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Подключение к PostgreSQL
	dbpool, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()
	log.Info("Successfully connected to PostgreSQL")

	// Инициализация Redis клиента
	redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	// WebSocket-хаб дашбордов и карта поверх него
	hub := ws.NewHub(log)
	engine := mapengine.NewWSEngine(hub, log)
	audio := mapengine.NewWSAudio(hub, log, cfg.KlaxonCueDuration)

	// Пайплайн тревог: режиссёр камеры, контроллер маркеров и оверлея
	camera := alert.NewCameraDirector(engine, log, cfg.FlyToZoom, cfg.FlyToPitch, cfg.FlyToDuration)
	controller := alert.NewController(engine, audio, camera, log, cfg.OverlayDismissAfter)
	defer controller.Close()
	store := alert.NewStore()

	// Изменения оверлея уходят на дашборды
	controller.SetOnOverlayChange(func(overlay alert.Overlay) {
		if err := hub.Broadcast(map[string]any{"op": "overlay", "overlay": overlay}); err != nil {
			log.WithError(err).Warn("Failed to broadcast overlay state")
		}
	})

	// Инициализация издателя и воркера ленты тревог
	publisher := alertfeed.NewRedisPublisher(redisClient)
	feedWorker := alertfeed.NewWorker(redisClient, log, cfg)
	feedWorker.Start(ctx)

	// Инициализация репозиториев
	incidentRepo := repository.NewIncidentRepository(dbpool, redisClient)

	// Инициализация сервисов
	incidentService := service.NewIncidentService(incidentRepo, log, cfg, publisher, store, controller)
	incidentService.SetOnIncidentResolved(func(id uuid.UUID) {
		if err := hub.Broadcast(map[string]any{"op": "incident_resolved", "incident_id": id}); err != nil {
			log.WithError(err).Warn("Failed to broadcast incident resolution")
		}
	})

	// Драйвер таймлайна и его кадровый цикл
	driver := timeline.NewDriver(cfg.TimelineStartYear, cfg.TimelineEndYear, cfg.PerMonthDuration, cfg.TimelineFrameRate, log)
	driver.SetOnTick(func(st timeline.State) {
		if err := hub.Broadcast(map[string]any{"op": "timeline", "timeline": st}); err != nil {
			log.WithError(err).Warn("Failed to broadcast timeline state")
		}
	})
	driver.SetOnPlayingChange(func(playing bool) {
		if err := hub.Broadcast(map[string]any{"op": "timeline_playing", "playing": playing}); err != nil {
			log.WithError(err).Warn("Failed to broadcast playing change")
		}
	})
	go driver.Run(ctx)

	// Инициализация хэндлеров
	handler := v1.NewHandler(incidentService, driver, hub, log, cfg)

	// Настройка Gin роутера
	router := gin.Default()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Запуск HTTP-сервера
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server gracefully stopped")
}
