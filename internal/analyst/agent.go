// Package analyst drives the two-phase conversation run protocol: a first
// run that may request tools, concurrent tool dispatch with per-call failure
// isolation, ordered result injection, and a second run with tool calling
// disabled to produce the final answer.
package analyst

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/statlab-ai/analyst-platform/internal/events"
	"github.com/statlab-ai/analyst-platform/internal/llm"
	"github.com/statlab-ai/analyst-platform/internal/pipeline"
	"github.com/statlab-ai/analyst-platform/pkg/logger"
	"github.com/statlab-ai/analyst-platform/pkg/metrics"
)

// toolSentinel prefixes every tool-result message so genuine user input can
// be told apart from injected results.
const toolSentinel = "[Tool]"

// IsToolMessage reports whether text is an injected tool-result message
// rather than genuine user input.
func IsToolMessage(text string) bool {
	return strings.HasPrefix(text, toolSentinel)
}

// finalizeInstructions steers the second run at the already-posted results.
const finalizeInstructions = "\nIMPORTANT: We have already handled the tool calls for the above user query, and added the results of the tools above. Use those results in your response to the user query."

// ErrUnexpectedRunState is returned when a run settles in a state the
// orchestrator cannot drive forward. The turn ends with no new answer.
var ErrUnexpectedRunState = errors.New("run ended in unexpected state")

// QueryPipeline is the fan-out query dependency.
type QueryPipeline interface {
	GenerateAndRun(ctx context.Context, descriptions []string) []pipeline.Result
}

// Visualizer renders one chart and returns an oracle image file ID.
type Visualizer interface {
	CreateVisualization(ctx context.Context, description string) (string, error)
}

// Agent orchestrates one conversational turn over an existing thread.
type Agent struct {
	client      llm.AssistantClient
	assistantID string
	pipeline    QueryPipeline
	viz         Visualizer
	publisher   *events.Publisher
	logger      *logger.Logger
}

// New creates an orchestrator. publisher may be nil when event publishing is
// disabled.
func New(
	client llm.AssistantClient,
	assistantID string,
	p QueryPipeline,
	viz Visualizer,
	publisher *events.Publisher,
	log *logger.Logger,
) *Agent {
	return &Agent{
		client:      client,
		assistantID: assistantID,
		pipeline:    p,
		viz:         viz,
		publisher:   publisher,
		logger:      log,
	}
}

// HandleQuery runs the two-phase protocol on a thread whose newest message is
// the user's question. On return the thread holds the final answer, or is
// unchanged when the turn could not produce one.
func (a *Agent) HandleQuery(ctx context.Context, threadID string) error {
	start := time.Now()

	run, err := a.startAndWait(ctx, threadID, llm.RunOptions{AssistantID: a.assistantID}, "initial")
	if err != nil {
		return err
	}

	switch {
	case run.Status == llm.RunStatusCompleted && run.RequiredAction == "":
		// The assistant answered without tools.
		a.logger.Info("turn completed without tools", zap.String("thread_id", threadID))
		a.publishEvent(ctx, events.NewEvent(threadID, events.EventTypeTurnCompleted, "no_tools"))
		return nil

	case run.Status == llm.RunStatusRequiresAction && run.RequiredAction == llm.RequiredActionSubmitToolOutputs:
		if err := a.runToolPhase(ctx, threadID, run); err != nil {
			a.publishEvent(ctx, events.NewEvent(threadID, events.EventTypeRunFailed, "tool_phase"))
			return err
		}
		event := events.NewEvent(threadID, events.EventTypeTurnCompleted, "tools")
		event.DurationMs = time.Since(start).Milliseconds()
		a.publishEvent(ctx, event)
		return nil

	case run.Status == llm.RunStatusRequiresAction:
		a.logger.Error("run requires unsupported action",
			zap.String("thread_id", threadID),
			zap.String("action", run.RequiredAction),
		)
		a.publishEvent(ctx, events.NewEvent(threadID, events.EventTypeRunFailed, run.RequiredAction))
		return fmt.Errorf("required action %q: %w", run.RequiredAction, ErrUnexpectedRunState)

	default:
		a.logger.Error("run settled in unexpected status",
			zap.String("thread_id", threadID),
			zap.String("status", string(run.Status)),
		)
		a.publishEvent(ctx, events.NewEvent(threadID, events.EventTypeRunFailed, string(run.Status)))
		return fmt.Errorf("status %q: %w", run.Status, ErrUnexpectedRunState)
	}
}

// runToolPhase cancels the tool-requesting run, executes all requested tools
// concurrently, injects results in call order, and finalizes with a second
// run that has tool calling disabled.
func (a *Agent) runToolPhase(ctx context.Context, threadID string, run *llm.Run) error {
	a.logger.Info("assistant requested tools",
		zap.String("thread_id", threadID),
		zap.Int("tool_calls", len(run.ToolCalls)),
	)

	// Cancel so the service cannot retry tool submission on its own while
	// results are injected as plain messages.
	if err := a.client.CancelRun(ctx, threadID, run.ID); err != nil {
		return fmt.Errorf("cancel tool run: %w", err)
	}

	outcomes := a.dispatch(ctx, threadID, run.ToolCalls)

	// Results are appended strictly in the order of the original tool call
	// list, regardless of which tool finished first.
	for _, o := range outcomes {
		if err := a.emit(ctx, threadID, o); err != nil {
			return fmt.Errorf("post tool result: %w", err)
		}
	}

	final, err := a.startAndWait(ctx, threadID, llm.RunOptions{
		AssistantID:            a.assistantID,
		DisableTools:           true,
		AdditionalInstructions: finalizeInstructions,
	}, "finalize")
	if err != nil {
		return err
	}
	if final.Status != llm.RunStatusCompleted {
		return fmt.Errorf("finalize run status %q: %w", final.Status, ErrUnexpectedRunState)
	}
	return nil
}

func (a *Agent) startAndWait(ctx context.Context, threadID string, opts llm.RunOptions, phase string) (*llm.Run, error) {
	start := time.Now()

	run, err := a.client.StartRun(ctx, threadID, opts)
	if err != nil {
		metrics.RecordRun(phase, "start_error", time.Since(start).Seconds())
		return nil, fmt.Errorf("start %s run: %w", phase, err)
	}

	run, err = a.client.WaitForRun(ctx, threadID, run.ID)
	if err != nil {
		metrics.RecordRun(phase, "wait_error", time.Since(start).Seconds())
		return nil, fmt.Errorf("wait for %s run: %w", phase, err)
	}

	metrics.RecordRun(phase, string(run.Status), time.Since(start).Seconds())
	return run, nil
}

func (a *Agent) publishEvent(ctx context.Context, event *events.Event) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Publish(ctx, event); err != nil {
		a.logger.Warn("failed to publish event",
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}
