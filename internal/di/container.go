package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/GoArmGo/PromptReveal/internal/adapter/storage/minio"
	"github.com/GoArmGo/PromptReveal/internal/app"
	"github.com/GoArmGo/PromptReveal/internal/cache"
	"github.com/GoArmGo/PromptReveal/internal/config"
	"github.com/GoArmGo/PromptReveal/internal/core/ports"
	"github.com/GoArmGo/PromptReveal/internal/database/client"
	"github.com/GoArmGo/PromptReveal/internal/database/storage"
	"github.com/GoArmGo/PromptReveal/internal/logger"
	"github.com/GoArmGo/PromptReveal/internal/media"
	"github.com/GoArmGo/PromptReveal/internal/metrics"
	"github.com/GoArmGo/PromptReveal/internal/rabbitmq"
	"github.com/GoArmGo/PromptReveal/internal/usecase"
)

// BuildApp инициализирует все зависимости и возвращает готовый объект App.
func BuildApp() (*app.App, error) {
	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	slogger := logger.NewSlog(logger.SlogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	slogger.Info("logger initialized", "level", cfg.LogLevel, "format", cfg.LogFormat)

	var closers []func()
	fail := func(err error) (*app.App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		return nil, err
	}

	// 2. Метрики
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics, err := metrics.New(registry)
	if err != nil {
		return fail(err)
	}

	// 3. Инициализация PostgreSQL клиента
	dbClient, err := client.NewClient(cfg, slogger)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() { _ = dbClient.Close() })

	// 4. Инициализация хранилищ
	contentStorage := storage.NewPostgresStorage(dbClient.Gorm, slogger, cfg.GuestEmailDomain)

	// интерфейсы остаются nil, если сервис не настроен
	var fileStorage ports.FileStorage
	if cfg.StorageConfigured() {
		gateway, err := minio.NewGateway(cfg, slogger)
		if err != nil {
			return fail(err)
		}
		fileStorage = gateway
	} else {
		slogger.Warn("S3 settings are incomplete, uploads are disabled")
	}

	// 5. Инициализация RabbitMQ клиента
	var (
		orphanPublisher ports.OrphanCleanupPublisher
		orphanConsumer  ports.OrphanCleanupConsumer
	)
	if cfg.QueueConfigured() {
		rabbitMQClient, err := rabbitmq.NewClient(cfg, slogger)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, rabbitMQClient.Close)
		orphanPublisher = rabbitMQClient
		orphanConsumer = rabbitMQClient
	} else {
		slogger.Warn("RABBITMQ_URL is not set, orphaned objects will only be logged")
	}

	// 6. Инициализация бизнес-логики (usecases)
	views := cache.NewViews(cfg.ViewCache.Size, cfg.ViewCache.TTL)
	promptUseCase := usecase.NewPromptUseCase(
		contentStorage,
		fileStorage,
		media.NewGenerator(media.DefaultOptions()),
		orphanPublisher,
		views,
		appMetrics,
		ports.AuthorInput{
			Email:  cfg.DefaultAuthor.Email,
			Name:   cfg.DefaultAuthor.Name,
			Avatar: cfg.DefaultAuthor.Avatar,
		},
		slogger,
	)

	var orphanCleaner *usecase.OrphanCleaner
	if fileStorage != nil {
		orphanCleaner = usecase.NewOrphanCleaner(fileStorage, appMetrics, slogger)
	}

	// 7. Лимитер загрузок
	concurrency := cfg.UploadConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	uploadLimiter := make(chan struct{}, concurrency)

	// 8. Сборка итогового приложения
	application := app.NewApp(cfg, slogger, app.Deps{
		PromptUseCase: promptUseCase,
		OrphanCleaner: orphanCleaner,
		Contents:      contentStorage,
		Files:         fileStorage,
		Orphans:       orphanConsumer,
		Metrics:       appMetrics,
		UploadLimiter: uploadLimiter,
		Closers:       closers,
	})

	slogger.Info("dependencies initialized",
		"storage", fileStorage != nil,
		"queue", orphanConsumer != nil,
		"upload_concurrency", concurrency,
	)
	return application, nil
}
