package services

import (
	"github.com/ashmitsharp/spendlens/internal/models"
)

// Pipeline runs ingestion and aggregation as one step
type Pipeline struct {
	ingestor   *Ingestor
	aggregator *Aggregator
}

// NewPipeline creates a pipeline from its two stages
func NewPipeline(ingestor *Ingestor, aggregator *Aggregator) *Pipeline {
	return &Pipeline{
		ingestor:   ingestor,
		aggregator: aggregator,
	}
}

// Run ingests the sources in order and computes Insights over the merged set.
// Insights is nil when no transaction survived normalization.
func (p *Pipeline) Run(sources []Source) (*IngestResult, *models.Insights, error) {
	result, err := p.ingestor.Ingest(sources)
	if err != nil {
		return nil, nil, err
	}
	return result, p.aggregator.Analyze(result.Transactions), nil
}
