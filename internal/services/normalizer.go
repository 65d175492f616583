package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ashmitsharp/spendlens/internal/models"
)

// Recognized column names. Date fields accept a spaced and a concatenated spelling.
const (
	ColumnTransactionDate    = "Transaction Date"
	ColumnTransactionDateAlt = "TransactionDate"
	ColumnPostDate           = "Post Date"
	ColumnPostDateAlt        = "PostDate"
	ColumnDescription        = "Description"
	ColumnCategory           = "Category"
	ColumnType               = "Type"
	ColumnAmount             = "Amount"
)

// NormalizeRow maps a raw row to a Transaction. The second return value is
// false when the row is not a categorized expense and must be dropped.
func NormalizeRow(row models.Row) (models.Transaction, bool) {
	txn := models.Transaction{
		TransactionDate: lookupString(row, ColumnTransactionDate, ColumnTransactionDateAlt),
		PostDate:        lookupString(row, ColumnPostDate, ColumnPostDateAlt),
		Description:     lookupString(row, ColumnDescription),
		Category:        strings.TrimSpace(lookupString(row, ColumnCategory)),
		Type:            lookupString(row, ColumnType),
		Amount:          toAmount(lookup(row, ColumnAmount)),
	}

	return txn, IsExpense(txn)
}

// IsExpense is the single retention gate: negative amount and a non-empty category
func IsExpense(txn models.Transaction) bool {
	return txn.Amount < 0 && strings.TrimSpace(txn.Category) != ""
}

// NormalizeRows normalizes rows in order, dropping those that fail the retention gate
func NormalizeRows(rows []models.Row) []models.Transaction {
	transactions := make([]models.Transaction, 0, len(rows))
	for _, row := range rows {
		if txn, ok := NormalizeRow(row); ok {
			transactions = append(transactions, txn)
		}
	}
	return transactions
}

// lookup returns the value of the first key present with a non-blank value,
// trying each key exactly and then case-insensitively before moving on to the
// next key. A present but blank value is returned only when no later key has one.
func lookup(row models.Row, keys ...string) any {
	var blank any
	for _, key := range keys {
		v, ok := row[key]
		if !ok {
			match, found := "", false
			for k := range row {
				if strings.EqualFold(strings.TrimSpace(k), key) && (!found || k < match) {
					match, found = k, true
				}
			}
			if !found {
				continue
			}
			v = row[match]
		}

		if !isBlank(v) {
			return v
		}
		if blank == nil {
			blank = v
		}
	}
	return blank
}

func isBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	default:
		return false
	}
}

func lookupString(row models.Row, keys ...string) string {
	switch v := lookup(row, keys...).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// toAmount converts a cell value to float64, defaulting to 0 when it cannot be read
func toAmount(val any) float64 {
	switch v := val.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case int32:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := ParseAmount(v)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
