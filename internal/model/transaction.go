package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction — платёж, приведённый к доменному виду.
// Amount подписанный: расходы отрицательные, доходы положительные.
type Transaction struct {
	ID           string          `json:"id"`
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	Description  string          `json:"description"`
	Counterparty string          `json:"counterparty"`
	Merchant     *string         `json:"merchant"`
	Category     string          `json:"category"`
	Type         string          `json:"type"`
	// Заполняются при выборке по всем счетам сразу
	AccountID   int    `json:"account_id,omitempty"`
	AccountName string `json:"account_name,omitempty"`
}
