package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/director74/cargo_logistics/logistics-service/config"
	httpController "github.com/director74/cargo_logistics/logistics-service/internal/controller/http"
	rabbitmqController "github.com/director74/cargo_logistics/logistics-service/internal/controller/rabbitmq"
	"github.com/director74/cargo_logistics/logistics-service/internal/repo"
	"github.com/director74/cargo_logistics/logistics-service/internal/usecase"
	"github.com/director74/cargo_logistics/logistics-service/internal/usecase/webapi"
	"github.com/director74/cargo_logistics/pkg/auth"
	"github.com/director74/cargo_logistics/pkg/database"
	"github.com/director74/cargo_logistics/pkg/errors"
	"github.com/director74/cargo_logistics/pkg/messaging"
	"github.com/director74/cargo_logistics/pkg/middleware"
	"github.com/director74/cargo_logistics/pkg/rabbitmq"
)

// App представляет приложение
type App struct {
	config           *config.Config
	httpServer       *http.Server
	db               *gorm.DB
	rabbitMQ         *rabbitmq.RabbitMQ
	trackingConsumer *rabbitmqController.TrackingConsumer
}

func NewApp(cfg *config.Config) (*App, error) {
	a := &App{config: cfg}

	store, err := a.initStore()
	if err != nil {
		return nil, err
	}

	// RabbitMQ необязателен: без него события не публикуются, телематика работает через внутренний HTTP API
	var publisher messaging.MessagePublisher
	if cfg.RabbitMQ.Enabled {
		if err := a.initRabbitMQ(); err != nil {
			a.Shutdown()
			return nil, err
		}
		publisher = a.rabbitMQ
	} else {
		log.Println("[WARN] RabbitMQ отключен, события жизненного цикла не публикуются")
	}

	// Сервис геолокации нужен только для первичной оценки участков
	var distance usecase.DistanceProvider
	if cfg.Services.GeoURL != "" {
		distance = webapi.NewGeoClient(cfg.Services.GeoURL, cfg.Services.GeoAPIKey)
	}

	var tariffs usecase.TariffProvider = usecase.NewStaticTariffProvider(cfg.Tariff)
	if cfg.Services.TariffURL != "" {
		tariffs = webapi.NewTariffClient(cfg.Services.TariffURL, cfg.Tariff)
	}

	fleetClient := webapi.NewFleetClient(cfg.Services.FleetURL, cfg.Internal.APIKey)

	// Инициализируем JWT менеджер
	jwtConfig := auth.NewConfig(cfg.JWT.SigningKey)
	jwtConfig.TokenTTL = cfg.JWT.TokenTTL
	jwtConfig.TokenIssuer = cfg.JWT.TokenIssuer
	jwtConfig.TokenAudiences = cfg.JWT.TokenAudiences
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Создаем use cases
	events := usecase.NewEventPublisher(publisher, cfg.Events.Exchange)
	requestUseCase := usecase.NewRequestUseCase(store, events)
	segmentUseCase := usecase.NewSegmentUseCase(store, requestUseCase, fleetClient, events)
	routeUseCase := usecase.NewRouteUseCase(store, distance, tariffs)
	costUseCase := usecase.NewCostUseCase(store, tariffs)
	containerUseCase := usecase.NewContainerUseCase(store)
	clientUseCase := usecase.NewClientUseCase(store)

	if a.rabbitMQ != nil && cfg.Events.TrackingEnabled {
		a.trackingConsumer = rabbitmqController.NewTrackingConsumer(segmentUseCase, a.rabbitMQ, nil)
	}

	// Инициализируем Gin роутер
	router := gin.Default()
	router.Use(errors.RecoveryMiddleware())
	router.Use(errors.ErrorMiddleware())
	router.NoRoute(errors.NotFoundHandler())
	router.NoMethod(errors.MethodNotAllowedHandler())
	router.HandleMethodNotAllowed = true

	httpController.RegisterRoutes(router,
		auth.NewAuthMiddleware(jwtManager),
		middleware.NewInternalAuthMiddleware(cfg.Internal),
		httpController.NewRequestHandler(requestUseCase, costUseCase),
		httpController.NewRouteHandler(routeUseCase, segmentUseCase),
		httpController.NewSegmentHandler(segmentUseCase),
		httpController.NewContainerHandler(containerUseCase, clientUseCase),
	)

	a.httpServer = &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return a, nil
}

func (a *App) initStore() (repo.Store, error) {
	if a.config.Storage.Driver == config.StorageDriverMemory {
		log.Println("[WARN] Используется хранилище в памяти, данные не сохраняются между перезапусками")
		return repo.NewMemoryStore(), nil
	}

	db, err := database.NewPostgresDB(a.config.Postgres)
	if err != nil {
		return nil, errors.AppendPrefix(err, "не удалось подключиться к базе данных")
	}

	// при ошибке AutoMigrateWithCleanup сам закрывает соединение
	if err := database.AutoMigrateWithCleanup(db, repo.Models()...); err != nil {
		return nil, errors.AppendPrefix(err, "не удалось выполнить миграцию")
	}

	a.db = db
	return repo.NewGormStore(db), nil
}

func (a *App) initRabbitMQ() error {
	rmq, err := messaging.InitRabbitMQ(a.config.RabbitMQ)
	if err != nil {
		return errors.AppendPrefix(err, "не удалось подключиться к RabbitMQ")
	}
	a.rabbitMQ = rmq

	exchanges := map[string]string{
		a.config.Events.Exchange:            "topic",
		rabbitmqController.TrackingExchange: "topic",
	}
	queues := map[string][]messaging.Binding{}
	if a.config.Events.TrackingEnabled {
		queues = rabbitmqController.Bindings()
	}

	if err := messaging.SetupExchangesAndQueues(rmq, exchanges, queues); err != nil {
		return errors.AppendPrefix(err, "ошибка при настройке RabbitMQ")
	}
	return nil
}

// Run запускает приложение
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.trackingConsumer != nil {
		if err := a.trackingConsumer.Start(ctx); err != nil {
			// HTTP API продолжает работать, команды телематики принимаются через /internal/v1
			log.Printf("[WARN] Ошибка при запуске TrackingConsumer: %v", err)
		}
	}

	// Запускаем HTTP сервер в горутине
	go func() {
		log.Printf("HTTP сервер запущен на порту %s", a.config.HTTP.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Ошибка запуска HTTP сервера: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Получен сигнал завершения, закрываем приложение...")

	cancel()
	return a.Shutdown()
}

// Shutdown корректно завершает работу приложения
func (a *App) Shutdown() error {
	errGroup := errors.NewErrorGroup()

	if a.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.config.HTTP.ShutdownTimeout)
		defer cancel()

		if err := a.httpServer.Shutdown(ctx); err != nil {
			errGroup.AddPrefix(err, "ошибка при закрытии HTTP сервера")
		}
	}

	if a.rabbitMQ != nil {
		if err := a.rabbitMQ.Close(); err != nil {
			errGroup.AddPrefix(err, "ошибка при закрытии соединения с RabbitMQ")
		}
	}

	if a.db != nil {
		if err := database.CloseDB(a.db); err != nil {
			errGroup.AddPrefix(err, "ошибка при закрытии соединения с базой данных")
		}
	}

	if errGroup.HasErrors() {
		errors.LogError(errGroup, "Shutdown")
		return errGroup
	}

	log.Println("Приложение успешно завершено")
	return nil
}
