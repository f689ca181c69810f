package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultRunPollInterval = 2 * time.Second
	defaultRunTimeout      = 5 * time.Minute
)

// OpenAIClient implements both the completion and the assistant surface
// against the OpenAI API.
type OpenAIClient struct {
	client       *openai.Client
	apiKey       string
	httpClient   *http.Client
	pollInterval time.Duration
	runTimeout   time.Duration
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	return &OpenAIClient{
		client:       openai.NewClient(apiKey),
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
		pollInterval: defaultRunPollInterval,
		runTimeout:   defaultRunTimeout,
	}, nil
}

// ConfigureRunPolling overrides the run poll interval and overall wait timeout.
func (c *OpenAIClient) ConfigureRunPolling(interval, timeout time.Duration) {
	if interval > 0 {
		c.pollInterval = interval
	}
	if timeout > 0 {
		c.runTimeout = timeout
	}
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return "openai"
}

// Complete sends a completion request.
func (c *OpenAIClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = "gpt-4o"
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	// The SDK marshals Temperature with omitempty, so a literal 0 never
	// reaches the wire and the API falls back to its default. The smallest
	// positive float survives encoding and the API treats it as 0.
	temperature := req.Temperature
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return nil, err
	}

	var content string
	var stopReason string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		stopReason = string(resp.Choices[0].FinishReason)
	}

	return &CompletionResponse{
		Content:    content,
		Model:      resp.Model,
		TokensIn:   resp.Usage.PromptTokens,
		TokensOut:  resp.Usage.CompletionTokens,
		StopReason: stopReason,
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

// CreateThread creates a new conversation thread.
func (c *OpenAIClient) CreateThread(ctx context.Context) (string, error) {
	thread, err := c.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	return thread.ID, nil
}

// DeleteThread deletes a conversation thread.
func (c *OpenAIClient) DeleteThread(ctx context.Context, threadID string) error {
	if _, err := c.client.DeleteThread(ctx, threadID); err != nil {
		return fmt.Errorf("delete thread %s: %w", threadID, err)
	}
	return nil
}

// AddMessage appends a message to a thread. Messages carrying image blocks
// go through the raw beta endpoint because the SDK only models string content.
func (c *OpenAIClient) AddMessage(ctx context.Context, threadID string, msg ThreadMessage, attachments ...Attachment) error {
	for _, block := range msg.Blocks {
		if block.Type == BlockImageFile {
			return c.addMultipartMessage(ctx, threadID, msg)
		}
	}

	var text string
	for _, block := range msg.Blocks {
		text += block.Text
	}

	req := openai.MessageRequest{
		Role:    msg.Role,
		Content: text,
	}
	for _, att := range attachments {
		tools := []openai.ThreadAttachmentTool{}
		if att.CodeInterpreter {
			tools = append(tools, openai.ThreadAttachmentTool{Type: "code_interpreter"})
		}
		req.Attachments = append(req.Attachments, openai.ThreadAttachment{
			FileID: att.FileID,
			Tools:  tools,
		})
	}

	if _, err := c.client.CreateMessage(ctx, threadID, req); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// ListMessages returns the thread's messages, newest first.
func (c *OpenAIClient) ListMessages(ctx context.Context, threadID string) ([]ThreadMessage, error) {
	list, err := c.client.ListMessage(ctx, threadID, nil, nil, nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]ThreadMessage, 0, len(list.Messages))
	for _, m := range list.Messages {
		tm := ThreadMessage{Role: m.Role}
		for _, content := range m.Content {
			switch content.Type {
			case "text":
				if content.Text != nil {
					tm.Blocks = append(tm.Blocks, TextBlock(content.Text.Value))
				}
			case "image_file":
				if content.ImageFile != nil {
					tm.Blocks = append(tm.Blocks, ImageBlock(content.ImageFile.FileID))
				}
			}
		}
		messages = append(messages, tm)
	}
	return messages, nil
}

// StartRun begins a run on a thread.
func (c *OpenAIClient) StartRun(ctx context.Context, threadID string, opts RunOptions) (*Run, error) {
	req := openai.RunRequest{
		AssistantID:            opts.AssistantID,
		AdditionalInstructions: opts.AdditionalInstructions,
	}
	if opts.DisableTools {
		req.ToolChoice = "none"
	}

	run, err := c.client.CreateRun(ctx, threadID, req)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return mapRun(&run), nil
}

// WaitForRun polls the run until it settles or the configured timeout elapses.
func (c *OpenAIClient) WaitForRun(ctx context.Context, threadID, runID string) (*Run, error) {
	deadline := time.Now().Add(c.runTimeout)
	for {
		run, err := c.client.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			return nil, fmt.Errorf("retrieve run: %w", err)
		}

		mapped := mapRun(&run)
		if mapped.Status.Settled() {
			return mapped, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("run %s did not settle within %s", runID, c.runTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// CancelRun cancels an in-flight run.
func (c *OpenAIClient) CancelRun(ctx context.Context, threadID, runID string) error {
	if _, err := c.client.CancelRun(ctx, threadID, runID); err != nil {
		return fmt.Errorf("cancel run %s: %w", runID, err)
	}
	return nil
}

// UploadFile uploads raw bytes under the given purpose and returns the file ID.
func (c *OpenAIClient) UploadFile(ctx context.Context, name string, data []byte, purpose FilePurpose) (string, error) {
	file, err := c.client.CreateFileBytes(ctx, openai.FileBytesRequest{
		Name:    name,
		Bytes:   data,
		Purpose: openai.PurposeType(purpose),
	})
	if err != nil {
		return "", fmt.Errorf("upload file %s: %w", name, err)
	}
	return file.ID, nil
}

// DownloadFile fetches the raw content of an uploaded file.
func (c *OpenAIClient) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	content, err := c.client.GetFileContent(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, err)
	}
	defer content.Close()

	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", fileID, err)
	}
	return data, nil
}

func mapRun(r *openai.Run) *Run {
	run := &Run{
		ID:       r.ID,
		ThreadID: r.ThreadID,
		Status:   RunStatus(r.Status),
	}
	if r.RequiredAction != nil {
		run.RequiredAction = string(r.RequiredAction.Type)
		if r.RequiredAction.SubmitToolOutputs != nil {
			for _, tc := range r.RequiredAction.SubmitToolOutputs.ToolCalls {
				run.ToolCalls = append(run.ToolCalls, ToolCall{
					ID:        tc.ID,
					Name:      tc.Function.Name,
					Arguments: tc.Function.Arguments,
				})
			}
		}
	}
	return run
}
