package analyst

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/statlab-ai/analyst-platform/internal/llm"
	"github.com/statlab-ai/analyst-platform/internal/pipeline"
	"github.com/statlab-ai/analyst-platform/pkg/logger"
)

// scriptedOracle replays a fixed sequence of settled runs and records every
// call that mutates the thread.
type scriptedOracle struct {
	mu       sync.Mutex
	runs     []*llm.Run
	runIdx   int
	startOps []llm.RunOptions
	messages []llm.ThreadMessage
	events   []string

	cancelErr error
}

func (s *scriptedOracle) CreateThread(context.Context) (string, error) { return "thread_1", nil }

func (s *scriptedOracle) DeleteThread(context.Context, string) error { return nil }

func (s *scriptedOracle) AddMessage(_ context.Context, _ string, msg llm.ThreadMessage, _ ...llm.Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	s.events = append(s.events, "add_message")
	return nil
}

func (s *scriptedOracle) ListMessages(context.Context, string) ([]llm.ThreadMessage, error) {
	return nil, nil
}

func (s *scriptedOracle) StartRun(_ context.Context, _ string, opts llm.RunOptions) (*llm.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startOps = append(s.startOps, opts)
	s.events = append(s.events, "start_run")
	return &llm.Run{ID: "run", Status: llm.RunStatusQueued}, nil
}

func (s *scriptedOracle) WaitForRun(context.Context, string, string) (*llm.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run := s.runs[s.runIdx]
	s.runIdx++
	return run, nil
}

func (s *scriptedOracle) CancelRun(context.Context, string, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "cancel_run")
	return s.cancelErr
}

func (s *scriptedOracle) UploadFile(_ context.Context, name string, _ []byte, _ llm.FilePurpose) (string, error) {
	return "file_vision", nil
}

func (s *scriptedOracle) DownloadFile(context.Context, string) ([]byte, error) {
	return []byte("png bytes"), nil
}

type stubPipeline struct {
	delay   time.Duration
	results []pipeline.Result
}

func (s *stubPipeline) GenerateAndRun(_ context.Context, descriptions []string) []pipeline.Result {
	time.Sleep(s.delay)
	if s.results != nil {
		return s.results
	}
	out := make([]pipeline.Result, len(descriptions))
	for i, d := range descriptions {
		out[i] = pipeline.Result{QueryDescription: d, Data: "col\nval\n"}
	}
	return out
}

type stubViz struct {
	fileID string
	err    error
}

func (s *stubViz) CreateVisualization(context.Context, string) (string, error) {
	return s.fileID, s.err
}

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func requiresAction(calls ...llm.ToolCall) *llm.Run {
	return &llm.Run{
		ID:             "run_tools",
		Status:         llm.RunStatusRequiresAction,
		RequiredAction: llm.RequiredActionSubmitToolOutputs,
		ToolCalls:      calls,
	}
}

func completed() *llm.Run {
	return &llm.Run{ID: "run_done", Status: llm.RunStatusCompleted}
}

func TestHandleQueryWithoutTools(t *testing.T) {
	oracle := &scriptedOracle{runs: []*llm.Run{completed()}}
	agent := New(oracle, "asst", &stubPipeline{}, &stubViz{}, nil, testLogger())

	err := agent.HandleQuery(context.Background(), "thread_1")
	require.NoError(t, err)

	assert.Empty(t, oracle.messages)
	assert.Equal(t, []string{"start_run"}, oracle.events)
}

func TestHandleQueryToolPhase(t *testing.T) {
	oracle := &scriptedOracle{runs: []*llm.Run{
		requiresAction(
			llm.ToolCall{ID: "c1", Name: "query_tool", Arguments: `{"query_descriptions": ["home runs by team in 2022"]}`},
			llm.ToolCall{ID: "c2", Name: "visualization_tool", Arguments: `{"visualization_description": "bar chart"}`},
		),
		completed(),
	}}
	// The query tool finishes last; results must still land in call order.
	p := &stubPipeline{delay: 50 * time.Millisecond}
	agent := New(oracle, "asst", p, &stubViz{fileID: "file_chart"}, nil, testLogger())

	err := agent.HandleQuery(context.Background(), "thread_1")
	require.NoError(t, err)

	// Cancel precedes every injected message.
	require.GreaterOrEqual(t, len(oracle.events), 4)
	assert.Equal(t, "start_run", oracle.events[0])
	assert.Equal(t, "cancel_run", oracle.events[1])

	require.Len(t, oracle.messages, 2)
	assert.Contains(t, oracle.messages[0].Blocks[0].Text, "data from the query tool")
	assert.Contains(t, oracle.messages[0].Blocks[0].Text, "home runs by team in 2022")

	require.Len(t, oracle.messages[1].Blocks, 2)
	assert.Equal(t, llm.BlockImageFile, oracle.messages[1].Blocks[1].Type)
	assert.Equal(t, "file_vision", oracle.messages[1].Blocks[1].ImageFileID)

	// Second run must not be able to call tools again.
	require.Len(t, oracle.startOps, 2)
	assert.False(t, oracle.startOps[0].DisableTools)
	assert.True(t, oracle.startOps[1].DisableTools)
	assert.NotEmpty(t, oracle.startOps[1].AdditionalInstructions)
}

func TestHandleQueryToolFailurePlaceholder(t *testing.T) {
	oracle := &scriptedOracle{runs: []*llm.Run{
		requiresAction(
			llm.ToolCall{ID: "c1", Name: "visualization_tool", Arguments: `{"visualization_description": "bar chart"}`},
		),
		completed(),
	}}
	agent := New(oracle, "asst", &stubPipeline{}, &stubViz{err: errors.New("render failed")}, nil, testLogger())

	err := agent.HandleQuery(context.Background(), "thread_1")
	require.NoError(t, err)

	require.Len(t, oracle.messages, 1)
	text := oracle.messages[0].Blocks[0].Text
	assert.True(t, IsToolMessage(text))
	assert.Contains(t, text, "visualization_tool was not able to be completed")
}

func TestHandleQueryUnknownTool(t *testing.T) {
	oracle := &scriptedOracle{runs: []*llm.Run{
		requiresAction(llm.ToolCall{ID: "c1", Name: "weather_tool", Arguments: `{}`}),
		completed(),
	}}
	agent := New(oracle, "asst", &stubPipeline{}, &stubViz{}, nil, testLogger())

	err := agent.HandleQuery(context.Background(), "thread_1")
	require.NoError(t, err)

	require.Len(t, oracle.messages, 1)
	assert.Contains(t, oracle.messages[0].Blocks[0].Text, `"weather_tool" is not recognized`)
}

func TestHandleQueryCancelFailureAborts(t *testing.T) {
	oracle := &scriptedOracle{
		runs:      []*llm.Run{requiresAction(llm.ToolCall{ID: "c1", Name: "query_tool", Arguments: `{}`})},
		cancelErr: errors.New("cancel rejected"),
	}
	agent := New(oracle, "asst", &stubPipeline{}, &stubViz{}, nil, testLogger())

	err := agent.HandleQuery(context.Background(), "thread_1")
	require.Error(t, err)
	assert.Empty(t, oracle.messages)
}

func TestHandleQueryUnexpectedStatus(t *testing.T) {
	oracle := &scriptedOracle{runs: []*llm.Run{
		{ID: "run_1", Status: llm.RunStatusExpired},
	}}
	agent := New(oracle, "asst", &stubPipeline{}, &stubViz{}, nil, testLogger())

	err := agent.HandleQuery(context.Background(), "thread_1")
	assert.ErrorIs(t, err, ErrUnexpectedRunState)
}

func TestHandleQueryUnsupportedAction(t *testing.T) {
	oracle := &scriptedOracle{runs: []*llm.Run{
		{ID: "run_1", Status: llm.RunStatusRequiresAction, RequiredAction: "approve_something"},
	}}
	agent := New(oracle, "asst", &stubPipeline{}, &stubViz{}, nil, testLogger())

	err := agent.HandleQuery(context.Background(), "thread_1")
	assert.ErrorIs(t, err, ErrUnexpectedRunState)
}

func TestHandleQueryFinalizeNotCompleted(t *testing.T) {
	oracle := &scriptedOracle{runs: []*llm.Run{
		requiresAction(llm.ToolCall{ID: "c1", Name: "query_tool", Arguments: `{"query_descriptions": ["anything"]}`}),
		{ID: "run_2", Status: llm.RunStatusFailed},
	}}
	agent := New(oracle, "asst", &stubPipeline{}, &stubViz{}, nil, testLogger())

	err := agent.HandleQuery(context.Background(), "thread_1")
	assert.ErrorIs(t, err, ErrUnexpectedRunState)
}
