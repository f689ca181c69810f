package viz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/statlab-ai/analyst-platform/internal/llm"
	"github.com/statlab-ai/analyst-platform/internal/pipeline"
	"github.com/statlab-ai/analyst-platform/pkg/logger"
)

type fakePipeline struct {
	result pipeline.Result
}

func (f *fakePipeline) GenerateAndRun(_ context.Context, descriptions []string) []pipeline.Result {
	res := f.result
	res.QueryDescription = descriptions[0]
	return []pipeline.Result{res}
}

// fakeOracle records thread lifecycle and message traffic.
type fakeOracle struct {
	threadsCreated int
	threadsDeleted int
	uploads        []string
	attachments    []llm.Attachment
	messages       []llm.ThreadMessage

	runStatus  llm.RunStatus
	runErr     error
	listedMsgs []llm.ThreadMessage
	uploadErr  error
}

func (f *fakeOracle) CreateThread(context.Context) (string, error) {
	f.threadsCreated++
	return "thread_scratch", nil
}

func (f *fakeOracle) DeleteThread(_ context.Context, threadID string) error {
	f.threadsDeleted++
	return nil
}

func (f *fakeOracle) AddMessage(_ context.Context, _ string, msg llm.ThreadMessage, attachments ...llm.Attachment) error {
	f.messages = append(f.messages, msg)
	f.attachments = append(f.attachments, attachments...)
	return nil
}

func (f *fakeOracle) ListMessages(context.Context, string) ([]llm.ThreadMessage, error) {
	return f.listedMsgs, nil
}

func (f *fakeOracle) StartRun(_ context.Context, threadID string, _ llm.RunOptions) (*llm.Run, error) {
	if f.runErr != nil {
		return nil, f.runErr
	}
	return &llm.Run{ID: "run_1", ThreadID: threadID, Status: llm.RunStatusQueued}, nil
}

func (f *fakeOracle) WaitForRun(_ context.Context, threadID, runID string) (*llm.Run, error) {
	return &llm.Run{ID: runID, ThreadID: threadID, Status: f.runStatus}, nil
}

func (f *fakeOracle) CancelRun(context.Context, string, string) error { return nil }

func (f *fakeOracle) UploadFile(_ context.Context, name string, _ []byte, _ llm.FilePurpose) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, name)
	return "file_data", nil
}

func (f *fakeOracle) DownloadFile(context.Context, string) ([]byte, error) {
	return nil, errors.New("not used")
}

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func TestCreateVisualization(t *testing.T) {
	oracle := &fakeOracle{
		runStatus: llm.RunStatusCompleted,
		listedMsgs: []llm.ThreadMessage{
			{Role: "assistant", Blocks: []llm.ContentBlock{
				llm.TextBlock("Here is your chart."),
				llm.ImageBlock("file_chart"),
			}},
		},
	}
	p := &fakePipeline{result: pipeline.Result{Data: "pitch_type,count\nFF,120\n"}}
	agent := New(p, oracle, "asst_viz", testLogger())

	fileID, err := agent.CreateVisualization(context.Background(), "pitch counts by type")
	require.NoError(t, err)
	assert.Equal(t, "file_chart", fileID)

	assert.Equal(t, 1, oracle.threadsCreated)
	assert.Equal(t, 1, oracle.threadsDeleted)
	require.Len(t, oracle.uploads, 1)
	assert.Equal(t, "visualization_data.csv", oracle.uploads[0])
	require.Len(t, oracle.attachments, 1)
	assert.True(t, oracle.attachments[0].CodeInterpreter)
}

func TestCreateVisualizationNoData(t *testing.T) {
	oracle := &fakeOracle{}
	p := &fakePipeline{result: pipeline.Result{Error: "generation refused"}}
	agent := New(p, oracle, "asst_viz", testLogger())

	_, err := agent.CreateVisualization(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNoData)
	assert.Zero(t, oracle.threadsCreated)
}

func TestCreateVisualizationSizeLimit(t *testing.T) {
	oracle := &fakeOracle{}
	p := &fakePipeline{result: pipeline.Result{
		Data: string(make([]byte, maxAttachmentBytes+1)),
	}}
	agent := New(p, oracle, "asst_viz", testLogger())

	_, err := agent.CreateVisualization(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrSizeLimit)

	// Oversized data must be rejected before any scratch state exists.
	assert.Zero(t, oracle.threadsCreated)
	assert.Empty(t, oracle.uploads)
}

func TestCreateVisualizationRunFailure(t *testing.T) {
	oracle := &fakeOracle{runStatus: llm.RunStatusFailed}
	p := &fakePipeline{result: pipeline.Result{Data: "a,b\n1,2\n"}}
	agent := New(p, oracle, "asst_viz", testLogger())

	_, err := agent.CreateVisualization(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrRunNotCompleted)
	assert.Equal(t, 1, oracle.threadsDeleted)
}

func TestCreateVisualizationNoArtifact(t *testing.T) {
	oracle := &fakeOracle{
		runStatus: llm.RunStatusCompleted,
		listedMsgs: []llm.ThreadMessage{
			{Role: "assistant", Blocks: []llm.ContentBlock{llm.TextBlock("I could not render a chart.")}},
		},
	}
	p := &fakePipeline{result: pipeline.Result{Data: "a,b\n1,2\n"}}
	agent := New(p, oracle, "asst_viz", testLogger())

	_, err := agent.CreateVisualization(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNoArtifact)
	assert.Equal(t, 1, oracle.threadsDeleted)
}

func TestCreateVisualizationUploadFailureStillTearsDown(t *testing.T) {
	oracle := &fakeOracle{uploadErr: errors.New("upload rejected")}
	p := &fakePipeline{result: pipeline.Result{Data: "a,b\n1,2\n"}}
	agent := New(p, oracle, "asst_viz", testLogger())

	_, err := agent.CreateVisualization(context.Background(), "anything")
	require.Error(t, err)
	assert.Equal(t, 1, oracle.threadsCreated)
	assert.Equal(t, 1, oracle.threadsDeleted)
}
