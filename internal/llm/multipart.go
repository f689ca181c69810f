package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const threadsAPIBase = "https://api.openai.com/v1/threads"

// The SDK models thread message content as a plain string, but messages that
// carry an image_file block need the multi-part content array. Those go
// through the beta endpoint directly.

type multipartContent struct {
	Type      string             `json:"type"`
	Text      string             `json:"text,omitempty"`
	ImageFile *multipartImageRef `json:"image_file,omitempty"`
}

type multipartImageRef struct {
	FileID string `json:"file_id"`
}

type multipartMessageRequest struct {
	Role    string             `json:"role"`
	Content []multipartContent `json:"content"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *OpenAIClient) addMultipartMessage(ctx context.Context, threadID string, msg ThreadMessage) error {
	reqBody := multipartMessageRequest{Role: msg.Role}
	for _, block := range msg.Blocks {
		switch block.Type {
		case BlockText:
			reqBody.Content = append(reqBody.Content, multipartContent{Type: "text", Text: block.Text})
		case BlockImageFile:
			reqBody.Content = append(reqBody.Content, multipartContent{
				Type:      "image_file",
				ImageFile: &multipartImageRef{FileID: block.ImageFileID},
			})
		}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", threadsAPIBase, threadID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		var errResp apiErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return fmt.Errorf("api error %d: %s: %s", resp.StatusCode, errResp.Error.Type, errResp.Error.Message)
		}
		return fmt.Errorf("api error %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
