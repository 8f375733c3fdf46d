package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Тип записи "логин" в хранилище Vaultwarden
const cipherTypeLogin = 1

var (
	ErrCredentialsMissing = errors.New("не заданы client_id и client_secret для Vaultwarden")
	ErrItemNotFound       = errors.New("запись не найдена в хранилище")
	ErrEmptySecret        = errors.New("запись найдена, но поле пароля пустое")
)

// Client - клиент для получения секретов из Vaultwarden
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	itemName     string
	httpClient   *http.Client
	logger       *logrus.Logger
}

// NewClient создаёт новый экземпляр клиента Vaultwarden
func NewClient(baseURL, clientID, clientSecret, itemName string, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		itemName:     itemName,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type cipherLogin struct {
	Password string `json:"password"`
}

type cipherItem struct {
	Name  string       `json:"name"`
	Type  int          `json:"type"`
	Login *cipherLogin `json:"login"`
}

type cipherListResponse struct {
	Data []cipherItem `json:"data"`
}

// requestToken выполняет обмен client_credentials на bearer-токен
func (c *Client) requestToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", "api")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/identity/connect/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ошибка при запросе токена: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("эндпоинт токена вернул статус %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("ошибка при разборе ответа токена: %w", err)
	}
	if token.AccessToken == "" {
		return "", errors.New("в ответе отсутствует access_token")
	}

	return token.AccessToken, nil
}

// listCiphers получает список записей хранилища по bearer-токену
func (c *Client) listCiphers(ctx context.Context, accessToken string) ([]cipherItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/ciphers", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе записей хранилища: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("эндпоинт записей вернул статус %d", resp.StatusCode)
	}

	var list cipherListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("ошибка при разборе списка записей: %w", err)
	}

	return list.Data, nil
}

// FetchAPIKey получает ключ Bunq API из хранилища Vaultwarden.
// Значение секрета никогда не логируется.
func (c *Client) FetchAPIKey(ctx context.Context) (string, error) {
	if c.clientID == "" || c.clientSecret == "" {
		c.logger.Error("Учётные данные Vaultwarden не заданы в окружении")
		return "", ErrCredentialsMissing
	}

	c.logger.Info("Аутентификация в Vaultwarden...")
	accessToken, err := c.requestToken(ctx)
	if err != nil {
		c.logger.WithError(err).Error("Не удалось получить токен Vaultwarden")
		return "", err
	}
	c.logger.Info("Аутентификация в Vaultwarden выполнена успешно")

	c.logger.WithField("item_name", c.itemName).Info("Поиск записи в хранилище...")
	items, err := c.listCiphers(ctx, accessToken)
	if err != nil {
		c.logger.WithError(err).Error("Не удалось получить список записей хранилища")
		return "", err
	}

	for _, item := range items {
		if item.Name != c.itemName || item.Type != cipherTypeLogin {
			continue
		}
		if item.Login == nil || item.Login.Password == "" {
			c.logger.WithField("item_name", c.itemName).Error("Запись найдена, но поле пароля пустое")
			return "", ErrEmptySecret
		}
		c.logger.Info("Ключ API получен из хранилища")
		return item.Login.Password, nil
	}

	c.logger.WithField("item_name", c.itemName).Error("Запись не найдена в хранилище")
	return "", ErrItemNotFound
}
