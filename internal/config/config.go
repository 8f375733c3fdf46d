package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config содержит настройки приложения
type Config struct {
	ServerAddr string // Адрес HTTP сервера
	LogLevel   string // Уровень логирования

	UseVaultwarden          bool   // Получать ключ API из Vaultwarden
	VaultwardenURL          string // Базовый URL Vaultwarden
	VaultwardenClientID     string // client_id для client_credentials
	VaultwardenClientSecret string // client_secret для client_credentials
	VaultwardenItemName     string // Имя записи с ключом API в хранилище

	BunqAPIKey      string // Ключ API (используется, если Vaultwarden отключён)
	BunqEnvironment string // SANDBOX или PRODUCTION
	BunqConfigFile  string // Файл с сохранённым контекстом сессии

	BasicAuthUsername  string // Имя оператора
	BasicAuthPassword  string // Пароль оператора
	AllowEmptyPassword bool   // Легаси-режим: пускать всех при пустом пароле
	AuthAlertThreshold int    // Порог отказов авторизации для email-оповещения

	AllowedOrigins []string // Разрешённые CORS origin'ы

	RateLimitMax    int           // Максимум запросов в окне
	RateLimitWindow time.Duration // Длительность окна

	DemoFallback bool // Отдавать демо-данные при недоступности Bunq API
}

// LoadConfig загружает конфигурацию из .env файла и переменных окружения
func LoadConfig() (*Config, error) {
	// Загружаем переменные окружения из .env файла
	if err := godotenv.Load(); err != nil {
		logrus.Warn("Файл .env не найден")
	}

	config := &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":5000"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		UseVaultwarden:          getEnvBool("USE_VAULTWARDEN", false),
		VaultwardenURL:          getEnv("VAULTWARDEN_URL", "http://vaultwarden:80"),
		VaultwardenClientID:     os.Getenv("VAULTWARDEN_CLIENT_ID"),
		VaultwardenClientSecret: os.Getenv("VAULTWARDEN_CLIENT_SECRET"),
		VaultwardenItemName:     getEnv("VAULTWARDEN_ITEM_NAME", "Bunq API Key"),

		BunqAPIKey:      os.Getenv("BUNQ_API_KEY"),
		BunqEnvironment: getEnv("BUNQ_ENVIRONMENT", "PRODUCTION"),
		BunqConfigFile:  getEnv("BUNQ_CONFIG_FILE", "config/bunq_production.conf"),

		BasicAuthUsername:  getEnv("BASIC_AUTH_USERNAME", "admin"),
		BasicAuthPassword:  os.Getenv("BASIC_AUTH_PASSWORD"),
		AllowEmptyPassword: getEnvBool("AUTH_ALLOW_EMPTY_PASSWORD", false),
		AuthAlertThreshold: getEnvInt("AUTH_ALERT_THRESHOLD", 5),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:8000"), ","),

		RateLimitMax:    getEnvInt("RATE_LIMIT_MAX", 30),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", 60*time.Second),

		DemoFallback: getEnvBool("DEMO_FALLBACK", true),
	}

	return config, nil
}

// AuthConfigured сообщает, задан ли пароль оператора
func (c *Config) AuthConfigured() bool {
	return c.BasicAuthPassword != ""
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return strings.EqualFold(value, "true")
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
