package analyst

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/statlab-ai/analyst-platform/internal/events"
	"github.com/statlab-ai/analyst-platform/internal/llm"
	"github.com/statlab-ai/analyst-platform/internal/pipeline"
	"github.com/statlab-ai/analyst-platform/pkg/metrics"
)

// outcome is the result of executing one tool call. It is ephemeral, scoped
// to a single dispatch cycle.
type outcome struct {
	inv          Invocation
	queryResults []pipeline.Result
	imageFileID  string
	err          error
}

// dispatch executes all tool calls in parallel and returns outcomes in the
// order of the original call list. One call's failure never aborts another.
func (a *Agent) dispatch(ctx context.Context, threadID string, calls []llm.ToolCall) []outcome {
	outcomes := make([]outcome, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llm.ToolCall) {
			defer wg.Done()
			outcomes[i] = a.execute(ctx, threadID, call)
		}(i, call)
	}
	wg.Wait()
	return outcomes
}

// execute runs one tool call, capturing any failure as a value.
func (a *Agent) execute(ctx context.Context, threadID string, call llm.ToolCall) (o outcome) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.err = fmt.Errorf("tool %s panicked: %v", o.inv.Name, r)
		}
		status := "success"
		if o.err != nil {
			status = "error"
		}
		metrics.RecordTool(o.inv.Kind.String(), status, time.Since(start).Seconds())
		a.publishToolEvent(ctx, threadID, o, time.Since(start))
	}()

	inv, err := parseInvocation(call)
	o.inv = inv
	if err != nil {
		o.err = err
		return o
	}

	switch inv.Kind {
	case ToolQuery:
		o.queryResults = a.pipeline.GenerateAndRun(ctx, inv.Query.QueryDescriptions)
	case ToolVisualization:
		o.imageFileID, o.err = a.viz.CreateVisualization(ctx, inv.Visualization.VisualizationDescription)
	case ToolUnknown:
		// Vacuous success; an unrecognized tool must not stall the batch.
		a.logger.Warn("unrecognized tool requested",
			zap.String("thread_id", threadID),
			zap.String("tool", inv.Name),
		)
	}
	return o
}

// emit appends the outcome's result message to the thread. Each outcome is a
// single append; failures become placeholder messages the assistant can see.
func (a *Agent) emit(ctx context.Context, threadID string, o outcome) error {
	if o.err != nil {
		a.logger.Warn("tool execution failed",
			zap.String("thread_id", threadID),
			zap.String("tool", o.inv.Name),
			zap.Error(o.err),
		)
		return a.postText(ctx, threadID, failureMessage(o.inv.Name))
	}

	switch o.inv.Kind {
	case ToolQuery:
		return a.postText(ctx, threadID, queryResultMessage(o.queryResults))

	case ToolVisualization:
		if err := a.emitImage(ctx, threadID, o.imageFileID); err != nil {
			a.logger.Warn("failed to attach visualization",
				zap.String("thread_id", threadID),
				zap.Error(err),
			)
			return a.postText(ctx, threadID, failureMessage(o.inv.Name))
		}
		return nil

	default:
		return a.postText(ctx, threadID, fmt.Sprintf("%s The tool %q is not recognized.", toolSentinel, o.inv.Name))
	}
}

// emitImage re-uploads the rendered chart under the vision purpose before
// attaching it. The code-interpreter output lacks image content-type
// metadata, and the thread rejects the original file when referenced
// directly.
func (a *Agent) emitImage(ctx context.Context, threadID, fileID string) error {
	data, err := a.client.DownloadFile(ctx, fileID)
	if err != nil {
		return fmt.Errorf("download chart: %w", err)
	}

	visionFileID, err := a.client.UploadFile(ctx, "visualization.png", data, llm.PurposeVision)
	if err != nil {
		return fmt.Errorf("re-upload chart: %w", err)
	}

	msg := llm.ThreadMessage{
		Role: "user",
		Blocks: []llm.ContentBlock{
			llm.TextBlock(toolSentinel + " Here is the chart from the visualization tool to help you answer my query."),
			llm.ImageBlock(visionFileID),
		},
	}
	return a.client.AddMessage(ctx, threadID, msg)
}

func (a *Agent) postText(ctx context.Context, threadID, text string) error {
	return a.client.AddMessage(ctx, threadID, llm.ThreadMessage{
		Role:   "user",
		Blocks: []llm.ContentBlock{llm.TextBlock(text)},
	})
}

func (a *Agent) publishToolEvent(ctx context.Context, threadID string, o outcome, elapsed time.Duration) {
	if a.publisher == nil {
		return
	}
	status := "success"
	if o.err != nil {
		status = "error"
	}
	event := events.NewEvent(threadID, events.EventTypeToolExecuted, status)
	event.Tool = o.inv.Kind.String()
	event.DurationMs = elapsed.Milliseconds()
	if err := a.publisher.Publish(ctx, event); err != nil {
		a.logger.Warn("failed to publish tool event", zap.Error(err))
	}
}

func failureMessage(toolName string) string {
	return fmt.Sprintf("%s Tool %s was not able to be completed at this time", toolSentinel, toolName)
}

func queryResultMessage(results []pipeline.Result) string {
	var sb strings.Builder
	sb.WriteString(toolSentinel + " Here is the data from the query tool to help you answer my query:\n")
	for _, res := range results {
		if res.Error != "" {
			fmt.Fprintf(&sb, "\n%s:\nerror: %s", res.QueryDescription, res.Error)
			continue
		}
		fmt.Fprintf(&sb, "\n%s:\n%s", res.QueryDescription, res.Data)
	}
	return sb.String()
}
