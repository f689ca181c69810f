package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/statlab-ai/analyst-platform/internal/analyst"
	"github.com/statlab-ai/analyst-platform/internal/llm"
	"github.com/statlab-ai/analyst-platform/internal/middleware"
	"github.com/statlab-ai/analyst-platform/internal/model"
	"github.com/statlab-ai/analyst-platform/pkg/logger"
)

// Orchestrator runs one conversational turn over an existing thread.
type Orchestrator interface {
	HandleQuery(ctx context.Context, threadID string) error
}

// ThreadHandler handles thread creation and conversational turns.
type ThreadHandler struct {
	client  llm.AssistantClient
	analyst Orchestrator
	logger  *logger.Logger
}

// NewThreadHandler creates a new thread handler.
func NewThreadHandler(client llm.AssistantClient, a Orchestrator, log *logger.Logger) *ThreadHandler {
	return &ThreadHandler{
		client:  client,
		analyst: a,
		logger:  log,
	}
}

// CreateThread handles POST /create_thread
func (h *ThreadHandler) CreateThread(w http.ResponseWriter, r *http.Request) {
	threadID, err := h.client.CreateThread(r.Context())
	if err != nil {
		h.logger.Error("failed to create thread", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create thread")
		return
	}

	h.logger.Info("thread created", zap.String("thread_id", threadID))
	writeJSON(w, http.StatusOK, model.CreateThreadResponse{ThreadID: threadID})
}

// AddMessage handles POST /add_message
func (h *ThreadHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	var req model.AddMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateThreadID(req.ThreadID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateUserMessage(req.UserMessage); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	correlationID := middleware.GetCorrelationID(ctx)
	log := h.logger.WithCorrelationID(correlationID)

	msg := llm.ThreadMessage{
		Role:   string(model.RoleUser),
		Blocks: []llm.ContentBlock{llm.TextBlock(req.UserMessage)},
	}
	if err := h.client.AddMessage(ctx, req.ThreadID, msg); err != nil {
		log.Error("failed to add user message",
			zap.String("thread_id", req.ThreadID),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to add message")
		return
	}

	// The turn may fail midway. Whatever the orchestrator managed to append
	// before failing is still worth returning, so collect regardless.
	if err := h.analyst.HandleQuery(ctx, req.ThreadID); err != nil {
		log.Error("turn did not complete",
			zap.String("thread_id", req.ThreadID),
			zap.Error(err))
	}

	views, err := h.collectTurn(ctx, req.ThreadID)
	if err != nil {
		log.Error("failed to list thread messages",
			zap.String("thread_id", req.ThreadID),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to read thread")
		return
	}

	writeJSON(w, http.StatusOK, model.AddMessageResponse{Messages: views})
}

// collectTurn walks the thread newest first and gathers everything produced
// since the user's message: assistant replies, plus injected tool messages
// that carry a chart image. The walk stops at the first genuine user message,
// which is the one just posted.
func (h *ThreadHandler) collectTurn(ctx context.Context, threadID string) ([]model.MessageView, error) {
	msgs, err := h.client.ListMessages(ctx, threadID)
	if err != nil {
		return nil, err
	}

	var collected []model.MessageView
	for _, m := range msgs {
		text := firstText(m)

		switch {
		case m.Role == string(model.RoleAssistant):
			collected = append(collected, model.MessageView{
				Role: model.RoleAssistant,
				Text: text,
			})
		case analyst.IsToolMessage(text):
			fileID := firstImageFileID(m)
			if fileID == "" {
				continue
			}
			data, err := h.client.DownloadFile(ctx, fileID)
			if err != nil {
				// Without the bytes there is nothing to show; drop the
				// message rather than returning an empty view.
				h.logger.Warn("failed to download chart image",
					zap.String("thread_id", threadID),
					zap.String("file_id", fileID),
					zap.Error(err))
				continue
			}
			collected = append(collected, model.MessageView{
				Role:  model.RoleAssistant,
				Image: base64.StdEncoding.EncodeToString(data),
			})
		default:
			// Genuine user message marks the start of the turn.
			return reverse(collected), nil
		}
	}
	return reverse(collected), nil
}

func firstText(m llm.ThreadMessage) string {
	for _, b := range m.Blocks {
		if b.Type == llm.BlockText {
			return b.Text
		}
	}
	return ""
}

func firstImageFileID(m llm.ThreadMessage) string {
	for _, b := range m.Blocks {
		if b.Type == llm.BlockImageFile {
			return b.ImageFileID
		}
	}
	return ""
}

func reverse(views []model.MessageView) []model.MessageView {
	for i, j := 0, len(views)-1; i < j; i, j = i+1, j-1 {
		views[i], views[j] = views[j], views[i]
	}
	return views
}
