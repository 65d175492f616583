package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ashmitsharp/spendlens/internal/models"
)

func sampleInsights() *models.Insights {
	groceries := models.CategoryAggregate{Name: "Groceries", Total: 15}
	return &models.Insights{
		CategoryAggregates: []models.CategoryAggregate{groceries},
		DailyAggregates: []models.DailyAggregate{{
			Date:        "01/02/2024",
			Total:       15,
			PerCategory: map[string]float64{"Groceries": 15},
			RankedTransactions: []models.RankedTransaction{
				{Amount: 10, Category: "Groceries", Description: "WHOLE FOODS"},
				{Amount: 5, Category: "Groceries", Description: "TRADER JOE'S"},
			},
		}},
		MonthlyAggregates:  []models.MonthlyAggregate{{MonthKey: "2024-01", Total: 15}},
		DistinctCategories: []string{"Groceries"},
		Summary: models.Summary{
			TotalSpending:      15,
			AverageTransaction: 7.5,
			TopCategory:        groceries,
			TransactionCount:   2,
		},
	}
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, sampleInsights()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 15.0, decoded["total_spending"])
	assert.Equal(t, 7.5, decoded["average_transaction"])
	assert.Contains(t, decoded, "category_aggregates")
	assert.Contains(t, decoded, "daily_aggregates")
	assert.Contains(t, decoded, "monthly_aggregates")
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "YAML", sampleInsights()))

	var decoded models.Insights
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *sampleInsights(), decoded)
	assert.Contains(t, buf.String(), "total_spending: 15")
}

func TestWrite_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, sampleInsights()))

	out := buf.String()
	assert.Contains(t, out, "Total spending")
	assert.Contains(t, out, "15.00")
	assert.Contains(t, out, "Average transaction  7.50")
	assert.Contains(t, out, "Groceries (15.00)")
	assert.Contains(t, out, "2024-01")
	assert.Contains(t, out, "WHOLE FOODS (Groceries, 10.00)")
}

func TestWrite_NothingToShow(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, nil))
	assert.Equal(t, NothingToShow+"\n", buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, FormatJSON, nil))
	assert.Equal(t, "null\n", buf.String())
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, "xml", sampleInsights())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}
