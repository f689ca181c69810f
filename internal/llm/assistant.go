package llm

import "context"

// RunStatus is the lifecycle state of an assistant run.
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusExpired        RunStatus = "expired"
)

// Settled reports whether the run has stopped making progress, either by
// reaching a terminal state or by waiting on tool outputs.
func (s RunStatus) Settled() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusExpired, RunStatusRequiresAction:
		return true
	}
	return false
}

// RequiredActionSubmitToolOutputs is the only required-action kind the
// orchestrator knows how to handle.
const RequiredActionSubmitToolOutputs = "submit_tool_outputs"

// ToolCall is a structured tool invocation request emitted during a run.
// Arguments is the raw JSON-encoded argument map.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Run is one bounded conversational inference cycle over a thread.
type Run struct {
	ID             string
	ThreadID       string
	Status         RunStatus
	RequiredAction string
	ToolCalls      []ToolCall
}

// RunOptions controls how a run is started.
type RunOptions struct {
	AssistantID            string
	DisableTools           bool
	AdditionalInstructions string
}

// BlockType tags a message content block variant.
type BlockType string

const (
	BlockText      BlockType = "text"
	BlockImageFile BlockType = "image_file"
)

// ContentBlock is one tagged content variant within a thread message.
type ContentBlock struct {
	Type        BlockType
	Text        string
	ImageFileID string
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ImageBlock builds an image content block referencing an uploaded file.
func ImageBlock(fileID string) ContentBlock {
	return ContentBlock{Type: BlockImageFile, ImageFileID: fileID}
}

// ThreadMessage is one message in a conversation thread.
type ThreadMessage struct {
	Role   string
	Blocks []ContentBlock
}

// Attachment attaches an uploaded file to a message for tool use.
type Attachment struct {
	FileID          string
	CodeInterpreter bool
}

// FilePurpose tags an uploaded file with its intended use.
type FilePurpose string

const (
	PurposeAssistants FilePurpose = "assistants"
	PurposeVision     FilePurpose = "vision"
)

// AssistantClient is the thread/run/file surface of the language oracle.
// Implementations must be safe for concurrent use.
type AssistantClient interface {
	CreateThread(ctx context.Context) (string, error)
	DeleteThread(ctx context.Context, threadID string) error

	// AddMessage appends a message to a thread. ListMessages returns thread
	// messages newest first.
	AddMessage(ctx context.Context, threadID string, msg ThreadMessage, attachments ...Attachment) error
	ListMessages(ctx context.Context, threadID string) ([]ThreadMessage, error)

	// StartRun begins a run; WaitForRun polls until the run settles or the
	// configured timeout elapses.
	StartRun(ctx context.Context, threadID string, opts RunOptions) (*Run, error)
	WaitForRun(ctx context.Context, threadID, runID string) (*Run, error)
	CancelRun(ctx context.Context, threadID, runID string) error

	UploadFile(ctx context.Context, name string, data []byte, purpose FilePurpose) (string, error)
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}
