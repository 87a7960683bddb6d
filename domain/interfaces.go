// domain/interfaces.go
package domain

import (
	"context"
	"io"
)

// Record service tables.
const (
	TableVideoUpload         = "video-upload"
	TableVideoMetadata       = "video-metadata"
	TableVideoStatus         = "video-status"
	TableTranscriptionJob    = "transcription-job"
	TableTranscriptionResult = "transcription-result"
	TableAiDescription       = "ai-description"
	TableSocialAccount       = "social-account"
	TablePostJob             = "post-job"
)

// QueryOptions holds equality filters (ANDed) and paging for RecordStore.Query.
// OrderBy is a field name, optionally suffixed with ".desc".
type QueryOptions struct {
	Where   map[string]any
	OrderBy string
	Limit   int
	Offset  int
}

// RecordStore is the remote record service. out arguments are decoded from the
// service's JSON representation and may be nil.
type RecordStore interface {
	Create(ctx context.Context, table string, data any, out any) error
	GetByUUID(ctx context.Context, table, uuid string, out any) error
	Query(ctx context.Context, table string, opts QueryOptions, out any) error
	Update(ctx context.Context, table, uuid string, data any, out any) error
	UpdateVersioned(ctx context.Context, table, uuid string, expectedVersion int, data any, out any) error
	Delete(ctx context.Context, table, uuid string) error
	Count(ctx context.Context, table string, opts QueryOptions) (int, error)
	Exists(ctx context.Context, table, uuid string) (bool, error)
}

type TranscriptionProvider interface {
	Submit(ctx context.Context, mediaURL string) (*TranscriptHandle, error)
	GetStatus(ctx context.Context, transcriptID string) (*TranscriptHandle, error)
	GetCompleted(ctx context.Context, transcriptID string) (*TranscriptHandle, error)
}

type DescriptionGenerator interface {
	BuildPrompt(transcript string, platform string, title string) string
	Generate(ctx context.Context, prompt string) (string, error)
}

// PlatformPublisher posts a video to one social platform. A nil error means the
// platform accepted the post.
type PlatformPublisher interface {
	Publish(ctx context.Context, req PublishRequest) error
}

// NotificationService tells a user how their upload is progressing.
type NotificationService interface {
	SendNotification(userID int, originalFilename string, status ProcessingStatus, message string)
}

type MessageQueueService interface {
	PublishTranscriptionRequest(ctx context.Context, message TranscriptionRequestMessage) error
}

type FileStorageService interface {
	SaveUploadedFile(src io.Reader, originalFilename string) (filename string, path string, err error)
	DeleteFile(filePath string) error
	PublicURL(filename string) string
	Probe(ctx context.Context, filePath string) (*VideoMetadata, error)
}

// PipelineMetrics receives pipeline events; implementations must be safe for
// concurrent use.
type PipelineMetrics interface {
	RecordUpload(mimeType string, sizeBytes int64)
	RecordTransition(status ProcessingStatus)
	RecordWebhook(status string)
	RecordPublish(platform Platform, success bool)
	RecordError(operation, errorType string)
}
