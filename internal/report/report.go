package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/ashmitsharp/spendlens/internal/models"
)

// Supported output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatText = "text"
)

// NothingToShow is printed when no transaction survived filtering
const NothingToShow = "nothing to show: no categorized expenses found"

// Formats lists the accepted --output values
var Formats = []string{FormatJSON, FormatYAML, FormatText}

// Write renders insights in the requested format. Nil insights render as
// JSON/YAML null, or the NothingToShow line for text.
func Write(w io.Writer, format string, insights *models.Insights) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(insights)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(insights); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case FormatText:
		return writeText(w, insights)
	default:
		return fmt.Errorf("unsupported output format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

func writeText(w io.Writer, insights *models.Insights) error {
	if insights == nil {
		_, err := fmt.Fprintln(w, NothingToShow)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Total spending\t%.2f\n", insights.TotalSpending)
	fmt.Fprintf(tw, "Transactions\t%d\n", insights.TransactionCount)
	fmt.Fprintf(tw, "Average transaction\t%.2f\n", insights.AverageTransaction)
	fmt.Fprintf(tw, "Top category\t%s (%.2f)\n", insights.TopCategory.Name, insights.TopCategory.Total)

	fmt.Fprintln(tw, "\nCATEGORY\tTOTAL")
	for _, c := range insights.CategoryAggregates {
		fmt.Fprintf(tw, "%s\t%.2f\n", c.Name, c.Total)
	}

	fmt.Fprintln(tw, "\nMONTH\tTOTAL")
	for _, m := range insights.MonthlyAggregates {
		fmt.Fprintf(tw, "%s\t%.2f\n", m.MonthKey, m.Total)
	}

	fmt.Fprintln(tw, "\nDATE\tTOTAL\tLARGEST")
	for _, d := range insights.DailyAggregates {
		largest := ""
		if len(d.RankedTransactions) > 0 {
			top := d.RankedTransactions[0]
			largest = fmt.Sprintf("%s (%s, %.2f)", top.Description, top.Category, top.Amount)
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%s\n", d.Date, d.Total, largest)
	}

	return tw.Flush()
}
