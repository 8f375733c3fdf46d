package model

import "github.com/shopspring/decimal"

// Amount — денежная сумма с кодом валюты
type Amount struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// Account — счёт, полученный из Bunq API (только чтение)
type Account struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Balance     Amount `json:"balance"`
	Status      string `json:"status"`
}
