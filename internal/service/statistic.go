package service

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bunq-gateway/internal/model"
)

var hundred = decimal.NewFromInt(100)

// StatisticService сводит набор транзакций к статистике
// доходов/расходов за период
type StatisticService struct {
	logger *logrus.Logger
}

// NewStatisticService создаёт новый экземпляр сервиса статистики
func NewStatisticService(logger *logrus.Logger) *StatisticService {
	return &StatisticService{logger: logger}
}

// Summarize вычисляет сводную статистику по набору транзакций.
// Инварианты: income - expenses == net_savings; savings_rate == 0 при
// нулевом доходе; avg_daily_expenses == 0 при days <= 0.
func (s *StatisticService) Summarize(transactions []model.Transaction, days int) model.Statistics {
	income := decimal.Zero
	expenses := decimal.Zero
	categories := make(map[string]decimal.Decimal)

	for _, t := range transactions {
		if t.Amount.IsPositive() {
			income = income.Add(t.Amount)
		}
		if t.Amount.IsNegative() {
			expenses = expenses.Add(t.Amount.Abs())
			categories[t.Category] = categories[t.Category].Add(t.Amount.Abs())
		}
	}

	netSavings := income.Sub(expenses)

	savingsRate := 0.0
	if income.IsPositive() {
		savingsRate = netSavings.Div(income).Mul(hundred).InexactFloat64()
	}

	avgDailyExpenses := decimal.Zero
	if days > 0 {
		avgDailyExpenses = expenses.Div(decimal.NewFromInt(int64(days)))
	}

	s.logger.WithFields(logrus.Fields{
		"transactions": len(transactions),
		"period_days":  days,
	}).Debug("Статистика рассчитана")

	return model.Statistics{
		PeriodDays:        days,
		TotalTransactions: len(transactions),
		Income:            income,
		Expenses:          expenses,
		NetSavings:        netSavings,
		SavingsRate:       savingsRate,
		Categories:        categories,
		AvgDailyExpenses:  avgDailyExpenses,
	}
}
