package services

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ashmitsharp/spendlens/internal/models"
)

// UnparsedMonthKey collects transactions whose date cannot be parsed.
// It has the same shape as a real month key and sorts before all of them.
const UnparsedMonthKey = "0000-00"

// Aggregator computes grouped views over a normalized transaction sequence.
// It holds no state between calls.
type Aggregator struct {
	dates *DateParser
}

// NewAggregator creates an aggregator that orders days and months with the given date parser
func NewAggregator(dates *DateParser) *Aggregator {
	if dates == nil {
		dates = defaultDateParser
	}
	return &Aggregator{dates: dates}
}

// Analyze builds the full Insights for a transaction sequence.
// It returns nil for an empty sequence: there is nothing to show.
func (a *Aggregator) Analyze(transactions []models.Transaction) *models.Insights {
	if len(transactions) == 0 {
		return nil
	}

	categories := a.CategoryAggregates(transactions)

	return &models.Insights{
		CategoryAggregates: categories,
		DailyAggregates:    a.DailyAggregates(transactions),
		MonthlyAggregates:  a.MonthlyAggregates(transactions),
		DistinctCategories: DistinctCategories(transactions),
		Summary:            Summarize(categories, len(transactions)),
	}
}

// CategoryAggregates sums spend per category, sorted by total descending.
// Equal totals keep the order in which the categories first appeared.
func (a *Aggregator) CategoryAggregates(transactions []models.Transaction) []models.CategoryAggregate {
	order, totals := groupSums(transactions, func(t models.Transaction) string { return t.Category })

	result := make([]models.CategoryAggregate, 0, len(order))
	for _, name := range order {
		result = append(result, models.CategoryAggregate{
			Name:  name,
			Total: roundCents(totals[name]),
		})
	}

	slices.SortStableFunc(result, func(x, y models.CategoryAggregate) int {
		return cmp.Compare(y.Total, x.Total)
	})
	return result
}

type dayBucket struct {
	total       decimal.Decimal
	categories  []string
	perCategory map[string]decimal.Decimal
	ranked      []models.RankedTransaction
}

// DailyAggregates groups by the verbatim transaction date string. Days are
// ordered by calendar date; days that fail to parse follow in first-seen order.
// Distinct keys that parse to the same date keep first-seen order.
func (a *Aggregator) DailyAggregates(transactions []models.Transaction) []models.DailyAggregate {
	var order []string
	buckets := make(map[string]*dayBucket)

	for _, txn := range transactions {
		b, ok := buckets[txn.TransactionDate]
		if !ok {
			b = &dayBucket{perCategory: make(map[string]decimal.Decimal)}
			buckets[txn.TransactionDate] = b
			order = append(order, txn.TransactionDate)
		}

		amount := magnitude(txn.Amount)
		b.total = b.total.Add(amount)
		if _, seen := b.perCategory[txn.Category]; !seen {
			b.categories = append(b.categories, txn.Category)
		}
		b.perCategory[txn.Category] = b.perCategory[txn.Category].Add(amount)
		b.ranked = append(b.ranked, models.RankedTransaction{
			Amount:      math.Abs(txn.Amount),
			Category:    txn.Category,
			Description: txn.Description,
		})
	}

	type datedDay struct {
		agg    models.DailyAggregate
		date   time.Time
		parsed bool
	}

	days := make([]datedDay, 0, len(order))
	for _, key := range order {
		b := buckets[key]

		perCategory := make(map[string]float64, len(b.categories))
		for _, category := range b.categories {
			perCategory[category] = roundCents(b.perCategory[category])
		}

		slices.SortStableFunc(b.ranked, func(x, y models.RankedTransaction) int {
			return cmp.Compare(y.Amount, x.Amount)
		})

		date, err := a.dates.Parse(key)
		days = append(days, datedDay{
			agg: models.DailyAggregate{
				Date:               key,
				Total:              roundCents(b.total),
				PerCategory:        perCategory,
				RankedTransactions: b.ranked,
			},
			date:   date,
			parsed: err == nil,
		})
	}

	slices.SortStableFunc(days, func(x, y datedDay) int {
		switch {
		case x.parsed && y.parsed:
			return x.date.Compare(y.date)
		case x.parsed:
			return -1
		case y.parsed:
			return 1
		default:
			return 0
		}
	})

	result := make([]models.DailyAggregate, len(days))
	for i, d := range days {
		result[i] = d.agg
	}
	return result
}

// MonthlyAggregates sums spend per calendar month ("YYYY-MM"), ascending.
// Unparseable dates land in UnparsedMonthKey.
func (a *Aggregator) MonthlyAggregates(transactions []models.Transaction) []models.MonthlyAggregate {
	order, totals := groupSums(transactions, a.MonthKey)

	result := make([]models.MonthlyAggregate, 0, len(order))
	for _, key := range order {
		result = append(result, models.MonthlyAggregate{
			MonthKey: key,
			Total:    roundCents(totals[key]),
		})
	}

	slices.SortFunc(result, func(x, y models.MonthlyAggregate) int {
		return cmp.Compare(x.MonthKey, y.MonthKey)
	})
	return result
}

// MonthKey returns the "YYYY-MM" bucket for a transaction
func (a *Aggregator) MonthKey(txn models.Transaction) string {
	date, err := a.dates.Parse(txn.TransactionDate)
	if err != nil {
		return UnparsedMonthKey
	}
	return date.Format("2006-01")
}

// DistinctCategories returns every category once, sorted ascending
func DistinctCategories(transactions []models.Transaction) []string {
	seen := make(map[string]bool)
	categories := make([]string, 0)
	for _, txn := range transactions {
		if !seen[txn.Category] {
			seen[txn.Category] = true
			categories = append(categories, txn.Category)
		}
	}
	slices.Sort(categories)
	return categories
}

// groupSums sums magnitudes per key, returning keys in first-seen order
func groupSums(transactions []models.Transaction, keyFn func(models.Transaction) string) ([]string, map[string]decimal.Decimal) {
	var order []string
	totals := make(map[string]decimal.Decimal)

	for _, txn := range transactions {
		key := keyFn(txn)
		if _, ok := totals[key]; !ok {
			order = append(order, key)
		}
		totals[key] = totals[key].Add(magnitude(txn.Amount))
	}

	return order, totals
}

// magnitude converts an amount to an exact decimal absolute value
func magnitude(amount float64) decimal.Decimal {
	return decimal.NewFromFloat(amount).Abs()
}

// roundCents rounds half away from zero to 2 decimal places
func roundCents(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
