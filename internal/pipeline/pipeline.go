package pipeline

import (
	"fmt"
	"time"

	"github.com/segmend/rfm/internal/contracts"
	"github.com/segmend/rfm/internal/measures"
	"github.com/segmend/rfm/internal/report"
	"github.com/segmend/rfm/internal/scoring"
	"github.com/segmend/rfm/pkg/logger"
)

// Pipeline runs the full segmentation: measures -> scores -> composite
// classification -> aggregate report. Each run is an independent, pure batch
// computation over its input; nothing is kept between runs.
type Pipeline struct {
	deriver    *measures.Deriver
	scorer     *scoring.Scorer
	classifier *scoring.Classifier
	reporter   *report.Reporter
	logger     *logger.Logger
}

// Result is the output of one segmentation run
type Result struct {
	AsOf   time.Time             `json:"as_of"`
	Rows   []contracts.ScoredRow `json:"rows"`
	Report *contracts.Report     `json:"report"`
}

// New creates a new pipeline
func New(log *logger.Logger) *Pipeline {
	return &Pipeline{
		deriver:    measures.NewDeriver(log),
		scorer:     scoring.NewScorer(log),
		classifier: scoring.NewClassifier(log),
		reporter:   report.NewReporter(log),
		logger:     log,
	}
}

// Run segments the given transactions against the reference instant asOf.
// Fail-fast: the first stage error aborts the run and is returned wrapped
// with the stage name; no partial result is produced.
func (p *Pipeline) Run(rows []contracts.Transaction, asOf time.Time) (*Result, error) {
	started := time.Now()

	derived, err := p.deriver.Derive(rows, asOf)
	if err != nil {
		return nil, fmt.Errorf("derive measures: %w", err)
	}

	scored, err := p.scorer.Score(derived)
	if err != nil {
		return nil, fmt.Errorf("score measures: %w", err)
	}

	classified, err := p.classifier.Classify(scored)
	if err != nil {
		return nil, fmt.Errorf("classify scores: %w", err)
	}

	rep, err := p.reporter.Build(classified, asOf)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	p.logger.WithFields(map[string]interface{}{
		"rows":     len(classified),
		"as_of":    asOf.Format(time.RFC3339),
		"duration": time.Since(started),
	}).Info("Segmentation run completed")

	return &Result{AsOf: asOf, Rows: classified, Report: rep}, nil
}
