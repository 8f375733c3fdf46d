package bunq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Amount - денежная сумма в представлении Bunq API
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// MonetaryAccount - счёт в представлении Bunq API
type MonetaryAccount struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Balance     Amount `json:"balance"`
	Status      string `json:"status"`
}

// CounterpartyAlias - контрагент платежа
type CounterpartyAlias struct {
	DisplayName string `json:"display_name"`
}

// Payment - платёж в представлении Bunq API
type Payment struct {
	ID                int                `json:"id"`
	Created           string             `json:"created"`
	Amount            Amount             `json:"amount"`
	Description       string             `json:"description"`
	CounterpartyAlias *CounterpartyAlias `json:"counterparty_alias"`
	MerchantReference *string            `json:"merchant_reference"`
	Type              string             `json:"type"`
}

// apiResponse - обёртка ответов Bunq API: массив объектов,
// каждый из которых содержит одно именованное поле
type apiResponse struct {
	Response []responseItem `json:"Response"`
}

type responseItem struct {
	Token               *tokenBody       `json:"Token"`
	UserPerson          *userBody        `json:"UserPerson"`
	UserCompany         *userBody        `json:"UserCompany"`
	MonetaryAccountBank *MonetaryAccount `json:"MonetaryAccountBank"`
	Payment             *Payment         `json:"Payment"`
}

type tokenBody struct {
	Token string `json:"token"`
}

type userBody struct {
	ID int `json:"id"`
}

// Lister - read-only доступ к счетам и платежам Bunq.
// Интерфейс позволяет подменять клиента в тестах.
type Lister interface {
	ListAccounts(ctx context.Context) ([]MonetaryAccount, error)
	ListPayments(ctx context.Context, accountID int) ([]Payment, error)
}

// Client - read-only клиент Bunq API поверх открытой сессии.
// Выполняются только запросы на чтение списков.
type Client struct {
	apiCtx     *ApiContext
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient создаёт клиента поверх инициализированного контекста сессии
func NewClient(apiCtx *ApiContext, logger *logrus.Logger) *Client {
	return &Client{
		apiCtx:  apiCtx,
		baseURL: apiCtx.Environment.BaseURL(),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (c *Client) get(ctx context.Context, path string) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Bunq-Client-Authentication", c.apiCtx.SessionToken)

	resp, err := c.httpClient.Do(req)
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

// ListAccounts возвращает все счета пользователя
func (c *Client) ListAccounts(ctx context.Context) ([]MonetaryAccount, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/user/%d/monetary-account", c.apiCtx.UserID))
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка счетов: %w", err)
	}

	accounts := make([]MonetaryAccount, 0, len(resp.Response))
	for _, item := range resp.Response {
		if item.MonetaryAccountBank != nil {
			accounts = append(accounts, *item.MonetaryAccountBank)
		}
	}

	c.logger.WithField("count", len(accounts)).Debug("Счета получены из Bunq API")
	return accounts, nil
}

// ListPayments возвращает все платежи по счёту
func (c *Client) ListPayments(ctx context.Context, accountID int) ([]Payment, error) {
	resp, err := c.get(ctx, fmt.Sprintf("/user/%d/monetary-account/%d/payment", c.apiCtx.UserID, accountID))
	if err != nil {
		return nil, fmt.Errorf("ошибка получения платежей счёта %d: %w", accountID, err)
	}

	payments := make([]Payment, 0, len(resp.Response))
	for _, item := range resp.Response {
		if item.Payment != nil {
			payments = append(payments, *item.Payment)
		}
	}

	c.logger.WithFields(logrus.Fields{
		"account_id": accountID,
		"count":      len(payments),
	}).Debug("Платежи получены из Bunq API")
	return payments, nil
}
