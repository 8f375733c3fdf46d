package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"bunq-gateway/internal/bunq"
	"bunq-gateway/internal/model"
)

// Форматы времени создания платежа в ответах Bunq API
var createdLayouts = []string{
	"2006-01-02 15:04:05.000000",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// TransactionService получает счета и платежи из Bunq API и приводит
// их к доменному виду. За границу сервиса типы Bunq API не выходят.
type TransactionService struct {
	client bunq.Lister
	logger *logrus.Logger
	now    func() time.Time
}

// NewTransactionService создаёт новый экземпляр сервиса транзакций
func NewTransactionService(client bunq.Lister, logger *logrus.Logger) *TransactionService {
	return &TransactionService{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

// FetchAccounts возвращает все счета в доменном виде
func (s *TransactionService) FetchAccounts(ctx context.Context) ([]model.Account, error) {
	upstream, err := s.client.ListAccounts(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка получения счетов")
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}

	accounts := make([]model.Account, 0, len(upstream))
	for _, a := range upstream {
		accounts = append(accounts, mapAccount(a))
	}

	s.logger.WithField("count", len(accounts)).Info("Счета получены")
	return accounts, nil
}

// FetchTransactions возвращает транзакции за последние days дней.
// При accountID == 0 обходятся все счета в порядке их выдачи, и каждая
// транзакция помечается идентификатором и названием счёта.
func (s *TransactionService) FetchTransactions(ctx context.Context, accountID, days int) ([]model.Transaction, error) {
	if accountID != 0 {
		transactions, err := s.fetchAccountTransactions(ctx, accountID, days)
		if err != nil {
			return nil, err
		}
		return transactions, nil
	}

	accounts, err := s.client.ListAccounts(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Ошибка получения списка счетов")
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}

	all := []model.Transaction{}
	for _, account := range accounts {
		transactions, err := s.fetchAccountTransactions(ctx, account.ID, days)
		if err != nil {
			return nil, err
		}
		for i := range transactions {
			transactions[i].AccountID = account.ID
			transactions[i].AccountName = account.Description
		}
		all = append(all, transactions...)
	}

	s.logger.WithFields(logrus.Fields{
		"count": len(all),
		"days":  days,
	}).Info("Транзакции получены")
	return all, nil
}

// fetchAccountTransactions получает платежи одного счёта и отбрасывает
// платежи старше границы периода
func (s *TransactionService) fetchAccountTransactions(ctx context.Context, accountID, days int) ([]model.Transaction, error) {
	payments, err := s.client.ListPayments(ctx, accountID)
	if err != nil {
		s.logger.WithError(err).WithField("account_id", accountID).Error("Ошибка получения платежей")
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFetch, err)
	}

	cutoff := s.now().AddDate(0, 0, -days)
	transactions := []model.Transaction{}
	for _, payment := range payments {
		created, err := parseCreated(payment.Created)
		if err != nil {
			s.logger.WithError(err).WithField("payment_id", payment.ID).Warn("Платёж с нераспознанной датой пропущен")
			continue
		}
		if created.Before(cutoff) {
			continue
		}
		transactions = append(transactions, mapPayment(payment, created))
	}

	return transactions, nil
}

// mapAccount переводит счёт Bunq API в доменный вид
func mapAccount(a bunq.MonetaryAccount) model.Account {
	value, err := decimal.NewFromString(a.Balance.Value)
	if err != nil {
		value = decimal.Zero
	}
	return model.Account{
		ID:          a.ID,
		Description: a.Description,
		Balance: model.Amount{
			Value:    value,
			Currency: a.Balance.Currency,
		},
		Status: a.Status,
	}
}

// mapPayment переводит платёж Bunq API в доменную транзакцию
// и присваивает категорию
func mapPayment(p bunq.Payment, created time.Time) model.Transaction {
	amount, err := decimal.NewFromString(p.Amount.Value)
	if err != nil {
		amount = decimal.Zero
	}

	displayName := ""
	if p.CounterpartyAlias != nil {
		displayName = p.CounterpartyAlias.DisplayName
	}
	counterparty := displayName
	if counterparty == "" {
		counterparty = "Unknown"
	}

	return model.Transaction{
		ID:           strconv.Itoa(p.ID),
		Date:         created,
		Amount:       amount,
		Currency:     p.Amount.Currency,
		Description:  p.Description,
		Counterparty: counterparty,
		Merchant:     p.MerchantReference,
		Category:     Categorize(p.Description, displayName),
		Type:         p.Type,
	}
}

func parseCreated(value string) (time.Time, error) {
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("нераспознанный формат даты: %q", value)
}
