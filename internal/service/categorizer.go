package service

import "strings"

// Категория по умолчанию, когда ни одно правило не сработало
const CategoryOther = "Overig"

// Категория доходов
const CategorySalary = "Salaris"

type categoryRule struct {
	category string
	keywords []string
}

// Правила категоризации. Порядок значим: выигрывает первое правило,
// любое ключевое слово которого встречается в строке поиска.
var categoryRules = []categoryRule{
	{"Boodschappen", []string{"albert heijn", "ah ", "jumbo", "lidl", "aldi", "plus", "supermarkt"}},
	{"Horeca", []string{"restaurant", "cafe", "bar", "pizza", "burger", "starbucks"}},
	{"Vervoer", []string{"ns ", "train", "bus", "taxi", "uber", "parking", "shell", "benzine"}},
	{"Wonen", []string{"huur", "rent", "hypotheek", "mortgage"}},
	{"Utilities", []string{"eneco", "energie", "gas", "water", "ziggo", "kpn", "telecom"}},
	{"Shopping", []string{"bol.com", "coolblue", "mediamarkt", "zara", "h&m", "shop"}},
	{"Entertainment", []string{"netflix", "spotify", "youtube", "cinema", "pathé", "concert"}},
	{"Zorg", []string{"apotheek", "pharmacy", "dokter", "doctor", "tandarts", "dentist"}},
	{"Verzekering", []string{"interpolis", "verzekering", "insurance", "zilveren kruis"}},
	{CategorySalary, []string{"salaris", "salary", "loon", "wage"}},
}

// Categorize определяет категорию платежа по описанию и имени контрагента.
// Функция чистая и детерминированная: одинаковый вход всегда даёт
// одинаковую категорию.
func Categorize(description, counterparty string) string {
	combined := strings.ToLower(description) + " " + strings.ToLower(counterparty)

	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(combined, keyword) {
				return rule.category
			}
		}
	}

	return CategoryOther
}
