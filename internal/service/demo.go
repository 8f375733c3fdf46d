package service

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bunq-gateway/internal/model"
)

// Фиксированная таблица категорий демо-данных и продавцов по категориям
var demoCategories = []string{"Boodschappen", "Horeca", "Vervoer", "Wonen", "Shopping", "Entertainment"}

var demoMerchants = map[string][]string{
	"Boodschappen":  {"Albert Heijn", "Jumbo", "Lidl"},
	"Horeca":        {"Starbucks", "Restaurant Plaza"},
	"Vervoer":       {"NS", "Shell"},
	"Wonen":         {"Verhuurder B.V."},
	"Shopping":      {"Bol.com", "Coolblue"},
	"Entertainment": {"Netflix", "Spotify"},
}

var (
	demoHousingAmount = decimal.NewFromInt(-850)
	demoSalaryAmount  = decimal.NewFromInt(2800)
)

// DemoGenerator синтезирует правдоподобный поток транзакций, когда
// живой ключ API недоступен. Данные всегда помечаются как демо.
type DemoGenerator struct {
	rnd *rand.Rand
	now func() time.Time
}

// NewDemoGenerator создаёт новый генератор демо-данных
func NewDemoGenerator() *DemoGenerator {
	return &DemoGenerator{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// Generate возвращает синтетические транзакции за последние days дней:
// около трёх расходов в день плюс одна зарплата на каждые 30 дней периода
func (g *DemoGenerator) Generate(days int) []model.Transaction {
	now := g.now()
	transactions := make([]model.Transaction, 0, days*3+days/30)

	for i := 0; i < days*3; i++ {
		category := demoCategories[g.rnd.Intn(len(demoCategories))]
		merchants := demoMerchants[category]
		merchant := merchants[g.rnd.Intn(len(merchants))]

		// Жильё - фиксированная крупная сумма, остальное 10..100
		amount := demoHousingAmount
		if category != "Wonen" {
			amount = decimal.NewFromInt(-int64(10 + g.rnd.Intn(91)))
		}

		transactions = append(transactions, model.Transaction{
			ID:           uuid.New().String(),
			Date:         now.AddDate(0, 0, -g.rnd.Intn(days+1)),
			Amount:       amount,
			Currency:     "EUR",
			Description:  fmt.Sprintf("%s - %s", category, merchant),
			Counterparty: merchant,
			Category:     category,
			Type:         "DEMO",
		})
	}

	// Зарплата раз в 30 дней
	for i := 0; i < days/30; i++ {
		transactions = append(transactions, model.Transaction{
			ID:           uuid.New().String(),
			Date:         now.AddDate(0, 0, -i*30),
			Amount:       demoSalaryAmount,
			Currency:     "EUR",
			Description:  "Salary",
			Counterparty: "Werkgever B.V.",
			Category:     CategorySalary,
			Type:         "DEMO",
		})
	}

	return transactions
}

// Categories возвращает таблицу категорий демо-данных (включая зарплату)
func (g *DemoGenerator) Categories() []string {
	return append(append([]string{}, demoCategories...), CategorySalary)
}
