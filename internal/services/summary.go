package services

import (
	"github.com/shopspring/decimal"

	"github.com/ashmitsharp/spendlens/internal/models"
)

// Summarize derives the dashboard scalars from sorted category aggregates.
//
// TotalSpending is the sum of the already-rounded category totals, not a fresh
// sum of raw amounts, so it can differ by a few cents from the raw sum.
// Callers must not pass an empty set; Analyze guards this.
func Summarize(categories []models.CategoryAggregate, transactionCount int) models.Summary {
	total := decimal.Zero
	for _, c := range categories {
		total = total.Add(decimal.NewFromFloat(c.Total))
	}

	summary := models.Summary{
		TotalSpending:    roundCents(total),
		TransactionCount: transactionCount,
	}

	if transactionCount > 0 {
		summary.AverageTransaction = roundCents(total.Div(decimal.NewFromInt(int64(transactionCount))))
	}
	if len(categories) > 0 {
		summary.TopCategory = categories[0]
	}

	return summary
}
