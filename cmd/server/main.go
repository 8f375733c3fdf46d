package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorillahandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bunq-gateway/internal/bunq"
	"bunq-gateway/internal/config"
	"bunq-gateway/internal/handler"
	"bunq-gateway/internal/service"
	"bunq-gateway/internal/vault"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Денежные суммы сериализуются как числа JSON
	decimal.MarshalJSONWithoutQuotes = true

	// Загрузка конфигурации приложения
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	// Получение ключа Bunq API: из Vaultwarden или из окружения.
	// Отсутствие ключа не фатально - шлюз работает в демо-режиме.
	vaultClient := vault.NewClient(
		cfg.VaultwardenURL,
		cfg.VaultwardenClientID,
		cfg.VaultwardenClientSecret,
		cfg.VaultwardenItemName,
		logger,
	)
	secretProvider := service.NewSecretProvider(cfg, vaultClient, logger)

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	apiKey := secretProvider.ResolveAPIKey(startupCtx)
	if apiKey == "" {
		logger.Warn("Ключ API недоступен, шлюз запускается в демо-режиме")
	}

	// Инициализация контекста сессии Bunq: восстановление из файла
	// или однократная регистрация устройства
	var transactionService *service.TransactionService
	liveMode := false
	if apiKey != "" {
		bootstrap := bunq.NewBootstrap(bunq.Environment(cfg.BunqEnvironment), cfg.BunqConfigFile, logger)
		apiCtx, err := bootstrap.EnsureContext(startupCtx, apiKey)
		if err != nil {
			logger.WithError(err).Warn("Инициализация Bunq API не удалась, шлюз продолжит работу в демо-режиме")
		} else {
			bunqClient := bunq.NewClient(apiCtx, logger)
			transactionService = service.NewTransactionService(bunqClient, logger)
			liveMode = true
			logger.WithField("environment", cfg.BunqEnvironment).Info("Bunq API инициализирован (только чтение)")
		}
	}
	cancel()

	// Инициализация сервисов
	logger.Info("Инициализация сервисов...")
	statisticService := service.NewStatisticService(logger)
	demoGenerator := service.NewDemoGenerator()
	rateLimiter := service.NewRateLimiter(cfg.RateLimitMax, cfg.RateLimitWindow, logger)
	alertSender := service.NewAlertSender(logger)

	// Инициализация HTTP обработчиков
	logger.Info("Инициализация обработчиков API...")
	apiHandler := handler.NewAPIHandler(
		transactionService,
		statisticService,
		demoGenerator,
		liveMode,
		cfg.DemoFallback,
		cfg.AuthConfigured(),
		logger,
	)
	authGuard := handler.NewAuthGuard(cfg, alertSender, logger)

	if !cfg.AuthConfigured() {
		logger.Warn("BASIC_AUTH_PASSWORD не задан!")
		if cfg.AllowEmptyPassword {
			logger.Warn("Включён легаси-режим: эндпоинты API не защищены!")
		} else {
			logger.Warn("Защищённые эндпоинты будут отвечать отказом")
		}
	}

	// Настройка маршрутизатора: открытые маршруты и маршруты
	// за авторизацией и ограничителем запросов
	router := mux.NewRouter()
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiHandler.RegisterOpenRoutes(apiRouter)

	protectedRouter := apiRouter.NewRoute().Subrouter()
	protectedRouter.Use(authGuard.Middleware())
	protectedRouter.Use(handler.RateLimitMiddleware(rateLimiter, logger))
	apiHandler.RegisterProtectedRoutes(protectedRouter)

	// CORS только для разрешённых origin'ов
	logger.WithField("origins", cfg.AllowedOrigins).Info("Настройка CORS")
	corsHandler := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins(cfg.AllowedOrigins),
		gorillahandlers.AllowedMethods([]string{"GET", "OPTIONS"}),
		gorillahandlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		gorillahandlers.AllowCredentials(),
	)(router)

	// Периодическая очистка окон ограничителя запросов
	// и счётчиков отказов авторизации
	c := cron.New()
	if _, err := c.AddFunc("@hourly", rateLimiter.Prune); err != nil {
		logger.Fatalf("Ошибка настройки планировщика: %v", err)
	}
	if _, err := c.AddFunc("@hourly", authGuard.Prune); err != nil {
		logger.Fatalf("Ошибка настройки планировщика: %v", err)
	}
	c.Start()

	// Настройка и запуск HTTP сервера
	server := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: corsHandler,
	}

	go func() {
		logger.WithField("addr", cfg.ServerAddr).Info("Запуск сервера")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Ошибка сервера: %v", err)
		}
	}()

	// Ожидание сигналов для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Завершение работы сервера...")
	if err := server.Shutdown(context.Background()); err != nil {
		logger.Errorf("Ошибка при завершении работы сервера: %v", err)
	}
	logger.Info("Сервер успешно остановлен")
}
