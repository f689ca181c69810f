package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/statlab-ai/analyst-platform/internal/llm"
	"github.com/statlab-ai/analyst-platform/internal/model"
	"github.com/statlab-ai/analyst-platform/pkg/logger"
)

type fakeOracle struct {
	createErr error
	added     []llm.ThreadMessage
	listed    []llm.ThreadMessage
	files     map[string][]byte
}

func (f *fakeOracle) CreateThread(context.Context) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	return "thread_abc", nil
}

func (f *fakeOracle) DeleteThread(context.Context, string) error { return nil }

func (f *fakeOracle) AddMessage(_ context.Context, _ string, msg llm.ThreadMessage, _ ...llm.Attachment) error {
	f.added = append(f.added, msg)
	return nil
}

func (f *fakeOracle) ListMessages(context.Context, string) ([]llm.ThreadMessage, error) {
	return f.listed, nil
}

func (f *fakeOracle) StartRun(context.Context, string, llm.RunOptions) (*llm.Run, error) {
	return nil, errors.New("not used")
}

func (f *fakeOracle) WaitForRun(context.Context, string, string) (*llm.Run, error) {
	return nil, errors.New("not used")
}

func (f *fakeOracle) CancelRun(context.Context, string, string) error { return nil }

func (f *fakeOracle) UploadFile(context.Context, string, []byte, llm.FilePurpose) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeOracle) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	data, ok := f.files[fileID]
	if !ok {
		return nil, errors.New("unknown file")
	}
	return data, nil
}

type fakeOrchestrator struct {
	called bool
	err    error
}

func (f *fakeOrchestrator) HandleQuery(context.Context, string) error {
	f.called = true
	return f.err
}

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func TestCreateThread(t *testing.T) {
	h := NewThreadHandler(&fakeOracle{}, &fakeOrchestrator{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/create_thread", nil)
	rec := httptest.NewRecorder()
	h.CreateThread(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.CreateThreadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "thread_abc", resp.ThreadID)
}

func TestCreateThreadFailure(t *testing.T) {
	h := NewThreadHandler(&fakeOracle{createErr: errors.New("oracle down")}, &fakeOrchestrator{}, testLogger())

	rec := httptest.NewRecorder()
	h.CreateThread(rec, httptest.NewRequest(http.MethodPost, "/create_thread", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAddMessageMissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing thread_id", `{"user_message": "how many home runs?"}`},
		{"missing user_message", `{"thread_id": "thread_abc"}`},
		{"invalid json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewThreadHandler(&fakeOracle{}, &fakeOrchestrator{}, testLogger())

			req := httptest.NewRequest(http.MethodPost, "/add_message", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.AddMessage(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAddMessageCollectsTurn(t *testing.T) {
	oracle := &fakeOracle{
		// Newest first: final answer, chart message, injected query data,
		// the user's question, then an older exchange.
		listed: []llm.ThreadMessage{
			{Role: "assistant", Blocks: []llm.ContentBlock{llm.TextBlock("The Yankees led with 254 home runs.")}},
			{Role: "user", Blocks: []llm.ContentBlock{
				llm.TextBlock("[Tool] Here is the chart from the visualization tool to help you answer my query."),
				llm.ImageBlock("file_chart"),
			}},
			{Role: "user", Blocks: []llm.ContentBlock{llm.TextBlock("[Tool] Here is the data from the query tool to help you answer my query:\n")}},
			{Role: "user", Blocks: []llm.ContentBlock{llm.TextBlock("Which team hit the most home runs in 2022?")}},
			{Role: "assistant", Blocks: []llm.ContentBlock{llm.TextBlock("An older answer.")}},
		},
		files: map[string][]byte{"file_chart": []byte("png bytes")},
	}
	orch := &fakeOrchestrator{}
	h := NewThreadHandler(oracle, orch, testLogger())

	body := `{"thread_id": "thread_abc", "user_message": "Which team hit the most home runs in 2022?"}`
	req := httptest.NewRequest(http.MethodPost, "/add_message", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.AddMessage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, orch.called)

	require.Len(t, oracle.added, 1)
	assert.Equal(t, "Which team hit the most home runs in 2022?", oracle.added[0].Blocks[0].Text)

	var resp model.AddMessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// Oldest first: the chart, then the final answer. The text-only tool
	// message and everything before the user's question are dropped.
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, model.RoleAssistant, resp.Messages[0].Role)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("png bytes")), resp.Messages[0].Image)
	assert.Equal(t, "The Yankees led with 254 home runs.", resp.Messages[1].Text)
	assert.Empty(t, resp.Messages[1].Image)
}

func TestAddMessageDropsChartWhenDownloadFails(t *testing.T) {
	oracle := &fakeOracle{
		listed: []llm.ThreadMessage{
			{Role: "assistant", Blocks: []llm.ContentBlock{llm.TextBlock("The Yankees led with 254 home runs.")}},
			{Role: "user", Blocks: []llm.ContentBlock{
				llm.TextBlock("[Tool] Here is the chart from the visualization tool to help you answer my query."),
				llm.ImageBlock("file_gone"),
			}},
			{Role: "user", Blocks: []llm.ContentBlock{llm.TextBlock("Which team hit the most home runs in 2022?")}},
		},
		// No bytes for file_gone, so the download fails.
		files: map[string][]byte{},
	}
	h := NewThreadHandler(oracle, &fakeOrchestrator{}, testLogger())

	body := `{"thread_id": "thread_abc", "user_message": "Which team hit the most home runs in 2022?"}`
	rec := httptest.NewRecorder()
	h.AddMessage(rec, httptest.NewRequest(http.MethodPost, "/add_message", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.AddMessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// The undownloadable chart is dropped; only the answer remains.
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "The Yankees led with 254 home runs.", resp.Messages[0].Text)
	assert.Empty(t, resp.Messages[0].Image)
}

func TestAddMessageTurnFailureStillReturnsThread(t *testing.T) {
	oracle := &fakeOracle{
		listed: []llm.ThreadMessage{
			{Role: "user", Blocks: []llm.ContentBlock{llm.TextBlock("Which team hit the most home runs in 2022?")}},
		},
	}
	h := NewThreadHandler(oracle, &fakeOrchestrator{err: errors.New("run expired")}, testLogger())

	body := `{"thread_id": "thread_abc", "user_message": "Which team hit the most home runs in 2022?"}`
	rec := httptest.NewRecorder()
	h.AddMessage(rec, httptest.NewRequest(http.MethodPost, "/add_message", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.AddMessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Messages)
}
