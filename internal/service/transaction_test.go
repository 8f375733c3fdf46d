package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bunq-gateway/internal/bunq"
)

type fakeLister struct {
	accounts    []bunq.MonetaryAccount
	payments    map[int][]bunq.Payment
	accountsErr error
	paymentsErr error
}

func (f *fakeLister) ListAccounts(ctx context.Context) ([]bunq.MonetaryAccount, error) {
	if f.accountsErr != nil {
		return nil, f.accountsErr
	}
	return f.accounts, nil
}

func (f *fakeLister) ListPayments(ctx context.Context, accountID int) ([]bunq.Payment, error) {
	if f.paymentsErr != nil {
		return nil, f.paymentsErr
	}
	return f.payments[accountID], nil
}

func strPtr(s string) *string { return &s }

func testPayment(id int, created, value, description string) bunq.Payment {
	return bunq.Payment{
		ID:          id,
		Created:     created,
		Amount:      bunq.Amount{Value: value, Currency: "EUR"},
		Description: description,
		Type:        "IDEAL",
	}
}

func TestFetchTransactionsCutoff(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lister := &fakeLister{
		payments: map[int][]bunq.Payment{
			7: {
				testPayment(1, "2025-05-30 10:00:00.000000", "-12.50", "Albert Heijn"),
				testPayment(2, "2025-01-15 10:00:00.000000", "-99.00", "Oude betaling"),
			},
		},
	}

	s := NewTransactionService(lister, testLogger())
	s.now = func() time.Time { return now }

	transactions, err := s.FetchTransactions(context.Background(), 7, 30)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(transactions) != 1 {
		t.Fatalf("получено %d транзакций, ожидалась 1", len(transactions))
	}
	if transactions[0].ID != "1" {
		t.Errorf("id = %q, ожидалось \"1\"", transactions[0].ID)
	}
}

func TestFetchTransactionsMapping(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	payment := testPayment(42, "2025-05-30 10:00:00.000000", "-12.50", "Albert Heijn kassa")
	payment.CounterpartyAlias = &bunq.CounterpartyAlias{DisplayName: "Albert Heijn"}
	payment.MerchantReference = strPtr("AH-1234")

	lister := &fakeLister{payments: map[int][]bunq.Payment{7: {payment}}}
	s := NewTransactionService(lister, testLogger())
	s.now = func() time.Time { return now }

	transactions, err := s.FetchTransactions(context.Background(), 7, 30)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	tr := transactions[0]
	if !tr.Amount.Equal(decimal.RequireFromString("-12.50")) {
		t.Errorf("amount = %s, ожидалось -12.50", tr.Amount)
	}
	if tr.Currency != "EUR" {
		t.Errorf("currency = %q, ожидалось EUR", tr.Currency)
	}
	if tr.Counterparty != "Albert Heijn" {
		t.Errorf("counterparty = %q", tr.Counterparty)
	}
	if tr.Merchant == nil || *tr.Merchant != "AH-1234" {
		t.Errorf("merchant = %v, ожидалось AH-1234", tr.Merchant)
	}
	if tr.Category != "Boodschappen" {
		t.Errorf("category = %q, ожидалось Boodschappen", tr.Category)
	}
	if tr.Type != "IDEAL" {
		t.Errorf("type = %q, ожидалось IDEAL", tr.Type)
	}
}

func TestFetchTransactionsUnknownCounterparty(t *testing.T) {
	lister := &fakeLister{
		payments: map[int][]bunq.Payment{
			7: {testPayment(1, time.Now().UTC().Format("2006-01-02 15:04:05.000000"), "-5.00", "Betaling")},
		},
	}
	s := NewTransactionService(lister, testLogger())

	transactions, err := s.FetchTransactions(context.Background(), 7, 30)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if transactions[0].Counterparty != "Unknown" {
		t.Errorf("counterparty = %q, ожидалось Unknown", transactions[0].Counterparty)
	}
}

// Без фильтра по счёту обходятся все счета в порядке выдачи,
// транзакции помечаются счётом
func TestFetchTransactionsAllAccounts(t *testing.T) {
	created := time.Now().UTC().Format("2006-01-02 15:04:05.000000")
	lister := &fakeLister{
		accounts: []bunq.MonetaryAccount{
			{ID: 1, Description: "Checking"},
			{ID: 2, Description: "Savings"},
		},
		payments: map[int][]bunq.Payment{
			1: {testPayment(10, created, "-1.00", "Eerste")},
			2: {testPayment(20, created, "-2.00", "Tweede")},
		},
	}
	s := NewTransactionService(lister, testLogger())

	transactions, err := s.FetchTransactions(context.Background(), 0, 30)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(transactions) != 2 {
		t.Fatalf("получено %d транзакций, ожидалось 2", len(transactions))
	}
	if transactions[0].AccountID != 1 || transactions[0].AccountName != "Checking" {
		t.Errorf("первая транзакция помечена счётом %d/%q", transactions[0].AccountID, transactions[0].AccountName)
	}
	if transactions[1].AccountID != 2 || transactions[1].AccountName != "Savings" {
		t.Errorf("вторая транзакция помечена счётом %d/%q", transactions[1].AccountID, transactions[1].AccountName)
	}
}

func TestFetchTransactionsUpstreamError(t *testing.T) {
	lister := &fakeLister{accountsErr: errors.New("connection refused")}
	s := NewTransactionService(lister, testLogger())

	_, err := s.FetchTransactions(context.Background(), 0, 30)
	if !errors.Is(err, ErrUpstreamFetch) {
		t.Errorf("ожидалась ошибка ErrUpstreamFetch, получено %v", err)
	}
}

func TestFetchAccounts(t *testing.T) {
	lister := &fakeLister{
		accounts: []bunq.MonetaryAccount{
			{
				ID:          3,
				Description: "Hoofdrekening",
				Balance:     bunq.Amount{Value: "1250.75", Currency: "EUR"},
				Status:      "ACTIVE",
			},
		},
	}
	s := NewTransactionService(lister, testLogger())

	accounts, err := s.FetchAccounts(context.Background())
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("получено %d счетов, ожидался 1", len(accounts))
	}
	a := accounts[0]
	if a.ID != 3 || a.Status != "ACTIVE" {
		t.Errorf("счёт отображён некорректно: %+v", a)
	}
	if !a.Balance.Value.Equal(decimal.RequireFromString("1250.75")) {
		t.Errorf("balance = %s, ожидалось 1250.75", a.Balance.Value)
	}
}
