package model

import "github.com/shopspring/decimal"

// Statistics - агрегированная статистика по доходам/расходам за период
type Statistics struct {
	PeriodDays        int                        `json:"period_days"`
	TotalTransactions int                        `json:"total_transactions"`
	Income            decimal.Decimal            `json:"income"`
	Expenses          decimal.Decimal            `json:"expenses"`
	NetSavings        decimal.Decimal            `json:"net_savings"`
	SavingsRate       float64                    `json:"savings_rate"`
	Categories        map[string]decimal.Decimal `json:"categories"`
	AvgDailyExpenses  decimal.Decimal            `json:"avg_daily_expenses"`
}
