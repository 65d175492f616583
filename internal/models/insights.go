package models

// CategoryAggregate is the total spend for one category
type CategoryAggregate struct {
	Name  string  `json:"name" yaml:"name"`
	Total float64 `json:"total" yaml:"total"`
}

// RankedTransaction is a per-day detail entry. Amount is an unrounded magnitude.
type RankedTransaction struct {
	Amount      float64 `json:"amount" yaml:"amount"`
	Category    string  `json:"category" yaml:"category"`
	Description string  `json:"description" yaml:"description"`
}

// DailyAggregate groups spend by the verbatim transaction date string
type DailyAggregate struct {
	Date               string              `json:"date" yaml:"date"`
	Total              float64             `json:"total" yaml:"total"`
	PerCategory        map[string]float64  `json:"per_category" yaml:"per_category"`
	RankedTransactions []RankedTransaction `json:"ranked_transactions" yaml:"ranked_transactions"`
}

// MonthlyAggregate groups spend by calendar month ("YYYY-MM")
type MonthlyAggregate struct {
	MonthKey string  `json:"month_key" yaml:"month_key"`
	Total    float64 `json:"total" yaml:"total"`
}

// Summary holds the scalar statistics shown on the dashboard
type Summary struct {
	TotalSpending      float64           `json:"total_spending" yaml:"total_spending"`
	AverageTransaction float64           `json:"average_transaction" yaml:"average_transaction"`
	TopCategory        CategoryAggregate `json:"top_category" yaml:"top_category"`
	TransactionCount   int               `json:"transaction_count" yaml:"transaction_count"`
}

// Insights is the full set of views derived from one transaction set.
// Every numeric field is a rounded display value except the amounts inside
// RankedTransactions.
type Insights struct {
	CategoryAggregates []CategoryAggregate `json:"category_aggregates" yaml:"category_aggregates"`
	DailyAggregates    []DailyAggregate    `json:"daily_aggregates" yaml:"daily_aggregates"`
	MonthlyAggregates  []MonthlyAggregate  `json:"monthly_aggregates" yaml:"monthly_aggregates"`
	DistinctCategories []string            `json:"distinct_categories" yaml:"distinct_categories"`
	Summary            `yaml:",inline"`
}
