// Package pipeline fans a batch of natural-language data requests out into
// independently generated and executed SQL statements.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/statlab-ai/analyst-platform/internal/store"
	"github.com/statlab-ai/analyst-platform/pkg/logger"
	"github.com/statlab-ai/analyst-platform/pkg/metrics"
)

// Generator produces one SQL statement from a description.
type Generator interface {
	Generate(ctx context.Context, description string) (string, error)
}

// Executor runs one read-only statement and serializes the rows.
type Executor interface {
	Execute(ctx context.Context, query string, format store.Format) (string, error)
}

// Result is the outcome for one description. Exactly one of Data or Error is
// meaningful: a failed element carries the error message and empty data.
type Result struct {
	QueryDescription string `json:"query_description"`
	GeneratedSQL     string `json:"generated_sql"`
	Data             string `json:"data"`
	Error            string `json:"error"`
}

// Pipeline runs generation and execution for each description concurrently,
// isolating per-element failures.
type Pipeline struct {
	generator Generator
	executor  Executor
	format    store.Format
	logger    *logger.Logger
}

// New creates a pipeline.
func New(gen Generator, exec Executor, format store.Format, log *logger.Logger) *Pipeline {
	return &Pipeline{
		generator: gen,
		executor:  exec,
		format:    format,
		logger:    log,
	}
}

// GenerateAndRun processes all descriptions in parallel. The returned slice
// has the same length and order as the input; one element's failure never
// aborts the others.
func (p *Pipeline) GenerateAndRun(ctx context.Context, descriptions []string) []Result {
	metrics.QueryBatchSize.Observe(float64(len(descriptions)))

	results := make([]Result, len(descriptions))
	var wg sync.WaitGroup
	for i, desc := range descriptions {
		wg.Add(1)
		go func(i int, desc string) {
			defer wg.Done()
			results[i] = p.runOne(ctx, desc)
		}(i, desc)
	}
	wg.Wait()
	return results
}

func (p *Pipeline) runOne(ctx context.Context, description string) (res Result) {
	res.QueryDescription = description

	// A panicking branch must surface as that element's error, never take
	// down its siblings.
	defer func() {
		if r := recover(); r != nil {
			res.GeneratedSQL = ""
			res.Data = ""
			res.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	sql, err := p.generator.Generate(ctx, description)
	if err != nil {
		p.logger.Warn("sql generation failed",
			zap.String("description", description),
			zap.Error(err),
		)
		res.Error = err.Error()
		return res
	}
	res.GeneratedSQL = sql

	data, err := p.executor.Execute(ctx, sql, p.format)
	if err != nil {
		p.logger.Warn("query execution failed",
			zap.String("description", description),
			zap.String("sql", sql),
			zap.Error(err),
		)
		// A failed element carries only the error; the statement is logged
		// above, not returned.
		res.GeneratedSQL = ""
		res.Error = err.Error()
		return res
	}
	res.Data = data
	return res
}
