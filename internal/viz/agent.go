// Package viz renders charts by handing tabular data to a code-interpreter
// assistant on a disposable scratch thread.
package viz

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/statlab-ai/analyst-platform/internal/llm"
	"github.com/statlab-ai/analyst-platform/internal/pipeline"
	"github.com/statlab-ai/analyst-platform/pkg/logger"
	"github.com/statlab-ai/analyst-platform/pkg/metrics"
)

// maxAttachmentBytes is the file attachment ceiling imposed by the oracle.
const maxAttachmentBytes = 512 * 1024 * 1024

var (
	// ErrNoData means the query pipeline produced no tabular data to chart.
	ErrNoData = errors.New("no tabular data produced for visualization")

	// ErrSizeLimit means the serialized data exceeds the attachment ceiling.
	ErrSizeLimit = errors.New("tabular data exceeds attachment size limit")

	// ErrRunNotCompleted means the rendering run ended in a non-completed state.
	ErrRunNotCompleted = errors.New("visualization run did not complete")

	// ErrNoArtifact means the completed run produced no image output.
	ErrNoArtifact = errors.New("no image artifact found in visualization output")
)

// QueryPipeline is the data-gathering dependency.
type QueryPipeline interface {
	GenerateAndRun(ctx context.Context, descriptions []string) []pipeline.Result
}

// Agent creates one chart per description and returns the oracle file ID of
// the rendered image.
type Agent struct {
	pipeline    QueryPipeline
	client      llm.AssistantClient
	assistantID string
	logger      *logger.Logger
}

// New creates a visualization agent bound to a pre-provisioned
// code-interpreter assistant.
func New(p QueryPipeline, client llm.AssistantClient, assistantID string, log *logger.Logger) *Agent {
	return &Agent{
		pipeline:    p,
		client:      client,
		assistantID: assistantID,
		logger:      log,
	}
}

// CreateVisualization gathers data for the description, renders a chart on a
// scratch thread, and returns the image file ID. The scratch thread is torn
// down on every exit path once it has been created.
func (a *Agent) CreateVisualization(ctx context.Context, description string) (fileID string, err error) {
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.VisualizationsTotal.WithLabelValues(status).Inc()
	}()

	results := a.pipeline.GenerateAndRun(ctx, []string{
		"Gather the data necessary for making this visualization: " + description,
	})
	res := results[0]
	if res.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrNoData, res.Error)
	}
	if res.Data == "" {
		return "", ErrNoData
	}

	data := []byte(res.Data)
	if len(data) > maxAttachmentBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrSizeLimit, len(data))
	}

	threadID, err := a.client.CreateThread(ctx)
	if err != nil {
		return "", fmt.Errorf("create scratch thread: %w", err)
	}
	defer func() {
		if derr := a.client.DeleteThread(ctx, threadID); derr != nil {
			a.logger.Warn("failed to delete scratch thread",
				zap.String("thread_id", threadID),
				zap.Error(derr),
			)
		}
	}()

	dataFileID, err := a.client.UploadFile(ctx, "visualization_data.csv", data, llm.PurposeAssistants)
	if err != nil {
		return "", fmt.Errorf("upload data file: %w", err)
	}

	msg := llm.ThreadMessage{
		Role: "user",
		Blocks: []llm.ContentBlock{llm.TextBlock(fmt.Sprintf(
			"Please create a visualization: %s.\nI've attached CSV data for you to use in your code interpreter.\n",
			description,
		))},
	}
	if err := a.client.AddMessage(ctx, threadID, msg, llm.Attachment{FileID: dataFileID, CodeInterpreter: true}); err != nil {
		return "", fmt.Errorf("post chart request: %w", err)
	}

	run, err := a.client.StartRun(ctx, threadID, llm.RunOptions{AssistantID: a.assistantID})
	if err != nil {
		return "", fmt.Errorf("start rendering run: %w", err)
	}
	run, err = a.client.WaitForRun(ctx, threadID, run.ID)
	if err != nil {
		return "", fmt.Errorf("wait for rendering run: %w", err)
	}
	if run.Status != llm.RunStatusCompleted {
		return "", fmt.Errorf("%w: status %s", ErrRunNotCompleted, run.Status)
	}

	fileID, err = a.findImageArtifact(ctx, threadID)
	if err != nil {
		return "", err
	}

	a.logger.Info("visualization rendered",
		zap.String("thread_id", threadID),
		zap.String("image_file_id", fileID),
	)
	return fileID, nil
}

// findImageArtifact scans the scratch thread newest-first for the first
// image block.
func (a *Agent) findImageArtifact(ctx context.Context, threadID string) (string, error) {
	messages, err := a.client.ListMessages(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("list scratch messages: %w", err)
	}

	for _, msg := range messages {
		for _, block := range msg.Blocks {
			if block.Type == llm.BlockImageFile {
				return block.ImageFileID, nil
			}
		}
	}
	return "", ErrNoArtifact
}
