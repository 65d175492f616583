package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ashmitsharp/spendlens/internal/config"
	"github.com/ashmitsharp/spendlens/internal/logger"
	"github.com/ashmitsharp/spendlens/internal/report"
	"github.com/ashmitsharp/spendlens/internal/services"
)

var (
	outputFormat string
	dateLayouts  []string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "spendlens",
	Short: "Spending insights from expense exports",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] <file>...",
	Short: "Aggregate one or more expense tables and print the insights",
	Long: `Reads each file in the order given, keeps categorized expenses
(negative amounts with a category) and prints category, daily and monthly
totals plus summary statistics. Any unreadable or malformed file fails the
whole run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level := "info"
		if verbose {
			level = "debug"
		}
		appLog := logger.New("spendlens", level)

		pipeline := newPipeline(appLog, dateLayouts)

		sources := make([]services.Source, 0, len(args))
		for _, path := range args {
			sources = append(sources, services.FileSource{Path: path})
		}

		result, insights, err := pipeline.Run(sources)
		if err != nil {
			return err
		}

		for _, src := range result.Sources {
			appLog.Debug("source loaded", "name", src.Name, "format", src.Format, "rows", src.Rows, "retained", src.Retained)
		}

		return report.Write(cmd.OutOrStdout(), outputFormat, insights)
	},
}

// newPipeline wires the ingestion pipeline. Layouts from flags win over DATE_LAYOUTS.
func newPipeline(appLog *log.Logger, layouts []string) *services.Pipeline {
	if len(layouts) == 0 {
		if cfg, err := config.LoadFromEnv(); err == nil {
			layouts = cfg.DateLayouts
		}
	}

	parser := services.NewParser(appLog.WithPrefix("parser"))
	ingestor := services.NewIngestor(parser, nil, appLog.WithPrefix("ingest"))
	aggregator := services.NewAggregator(services.NewDateParser(layouts...))
	return services.NewPipeline(ingestor, aggregator)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	analyzeCmd.Flags().StringVarP(&outputFormat, "output", "o", report.FormatText,
		fmt.Sprintf("Output format (%s)", strings.Join(report.Formats, "|")))
	analyzeCmd.Flags().StringArrayVar(&dateLayouts, "date-layout", nil,
		"Go time layout accepted for dates, repeatable (default: built-in US/ISO layouts)")

	rootCmd.AddCommand(analyzeCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
