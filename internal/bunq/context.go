package bunq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Environment определяет целевую среду Bunq API
type Environment string

const (
	EnvironmentSandbox    Environment = "SANDBOX"
	EnvironmentProduction Environment = "PRODUCTION"
)

const deviceDescription = "Bunq Dashboard (READ-ONLY)"

// BaseURL возвращает базовый URL API для среды
func (e Environment) BaseURL() string {
	if e == EnvironmentSandbox {
		return "https://public-api.sandbox.bunq.com/v1"
	}
	return "https://api.bunq.com/v1"
}

// ApiContext - сохранённый контекст сессии Bunq API.
// Создаётся при первой регистрации устройства и переиспользуется
// при последующих запусках (повторная регистрация ограничена на стороне Bunq).
type ApiContext struct {
	Environment       Environment `json:"environment"`
	DeviceID          string      `json:"device_id"`
	InstallationToken string      `json:"installation_token"`
	SessionToken      string      `json:"session_token"`
	UserID            int         `json:"user_id"`
	CreatedAt         time.Time   `json:"created_at"`
}

// Bootstrap регистрирует устройство в Bunq API или восстанавливает
// сохранённый контекст сессии из файла
type Bootstrap struct {
	environment Environment
	baseURL     string
	configFile  string
	httpClient  *http.Client
	logger      *logrus.Logger
}

// NewBootstrap создаёт новый экземпляр для инициализации контекста сессии
func NewBootstrap(environment Environment, configFile string, logger *logrus.Logger) *Bootstrap {
	return &Bootstrap{
		environment: environment,
		baseURL:     environment.BaseURL(),
		configFile:  configFile,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// EnsureContext восстанавливает контекст сессии из файла, а при его отсутствии
// регистрирует новое устройство и сохраняет контекст. Файл записывается
// не более одного раза на регистрацию.
func (b *Bootstrap) EnsureContext(ctx context.Context, apiKey string) (*ApiContext, error) {
	if _, err := os.Stat(b.configFile); err == nil {
		b.logger.Info("Восстановление сохранённого контекста Bunq API...")
		apiCtx, err := b.restore()
		if err != nil {
			b.logger.WithError(err).Error("Не удалось восстановить контекст сессии")
			return nil, fmt.Errorf("ошибка восстановления контекста: %w", err)
		}
		b.logger.Info("Контекст Bunq API успешно восстановлен")
		return apiCtx, nil
	}

	b.logger.Info("Создание нового контекста Bunq API...")
	apiCtx, err := b.register(ctx, apiKey)
	if err != nil {
		b.logger.WithError(err).Error("Не удалось зарегистрировать устройство в Bunq API")
		return nil, fmt.Errorf("ошибка регистрации устройства: %w", err)
	}

	if err := b.save(apiCtx); err != nil {
		b.logger.WithError(err).Error("Не удалось сохранить контекст сессии")
		return nil, fmt.Errorf("ошибка сохранения контекста: %w", err)
	}

	b.logger.Info("Контекст Bunq API создан и сохранён")
	return apiCtx, nil
}

// restore читает контекст сессии из файла
func (b *Bootstrap) restore() (*ApiContext, error) {
	data, err := os.ReadFile(b.configFile)
	if err != nil {
		return nil, err
	}

	var apiCtx ApiContext
	if err := json.Unmarshal(data, &apiCtx); err != nil {
		return nil, fmt.Errorf("повреждён файл контекста: %w", err)
	}
	if apiCtx.SessionToken == "" {
		return nil, errors.New("в файле контекста отсутствует токен сессии")
	}

	return &apiCtx, nil
}

// save сохраняет контекст сессии в файл с правами только для владельца
func (b *Bootstrap) save(apiCtx *ApiContext) error {
	if err := os.MkdirAll(filepath.Dir(b.configFile), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(apiCtx, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(b.configFile, data, 0o600)
}

// register выполняет трёхшаговую регистрацию: installation, device-server,
// session-server. Используются только read-only права ключа API.
func (b *Bootstrap) register(ctx context.Context, apiKey string) (*ApiContext, error) {
	deviceID := uuid.New().String()

	b.logger.Debug("Шаг 1: installation")
	installationToken, err := b.createInstallation(ctx)
	if err != nil {
		return nil, fmt.Errorf("installation: %w", err)
	}

	b.logger.Debug("Шаг 2: device-server")
	if err := b.registerDevice(ctx, installationToken, apiKey); err != nil {
		return nil, fmt.Errorf("device-server: %w", err)
	}

	b.logger.Debug("Шаг 3: session-server")
	sessionToken, userID, err := b.openSession(ctx, installationToken, apiKey)
	if err != nil {
		return nil, fmt.Errorf("session-server: %w", err)
	}

	return &ApiContext{
		Environment:       b.environment,
		DeviceID:          deviceID,
		InstallationToken: installationToken,
		SessionToken:      sessionToken,
		UserID:            userID,
		CreatedAt:         time.Now(),
	}, nil
}

func (b *Bootstrap) post(ctx context.Context, path, authToken string, body interface{}) (*apiResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("X-Bunq-Client-Authentication", authToken)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("получен статус %d", resp.StatusCode)
	}

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("ошибка разбора ответа: %w", err)
	}

	return &parsed, nil
}

func (b *Bootstrap) createInstallation(ctx context.Context) (string, error) {
	resp, err := b.post(ctx, "/installation", "", map[string]string{
		"client_public_key": "",
	})
	if err != nil {
		return "", err
	}

	for _, item := range resp.Response {
		if item.Token != nil && item.Token.Token != "" {
			return item.Token.Token, nil
		}
	}
	return "", errors.New("в ответе отсутствует токен installation")
}

func (b *Bootstrap) registerDevice(ctx context.Context, installationToken, apiKey string) error {
	_, err := b.post(ctx, "/device-server", installationToken, map[string]interface{}{
		"description":   deviceDescription,
		"secret":        apiKey,
		"permitted_ips": []string{"*"},
	})
	return err
}

func (b *Bootstrap) openSession(ctx context.Context, installationToken, apiKey string) (string, int, error) {
	resp, err := b.post(ctx, "/session-server", installationToken, map[string]string{
		"secret": apiKey,
	})
	if err != nil {
		return "", 0, err
	}

	var sessionToken string
	var userID int
	for _, item := range resp.Response {
		if item.Token != nil && item.Token.Token != "" {
			sessionToken = item.Token.Token
		}
		if item.UserPerson != nil {
			userID = item.UserPerson.ID
		}
		if item.UserCompany != nil {
			userID = item.UserCompany.ID
		}
	}
	if sessionToken == "" {
		return "", 0, errors.New("в ответе отсутствует токен сессии")
	}

	return sessionToken, userID, nil
}
