package usecase

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/vitovidale/video-publisher-service/domain"
)

type MockProvider struct{ mock.Mock }

func (m *MockProvider) Submit(ctx context.Context, mediaURL string) (*domain.TranscriptHandle, error) {
	args := m.Called(ctx, mediaURL)
	handle, _ := args.Get(0).(*domain.TranscriptHandle)
	return handle, args.Error(1)
}

func (m *MockProvider) GetStatus(ctx context.Context, transcriptID string) (*domain.TranscriptHandle, error) {
	args := m.Called(ctx, transcriptID)
	handle, _ := args.Get(0).(*domain.TranscriptHandle)
	return handle, args.Error(1)
}

func (m *MockProvider) GetCompleted(ctx context.Context, transcriptID string) (*domain.TranscriptHandle, error) {
	args := m.Called(ctx, transcriptID)
	handle, _ := args.Get(0).(*domain.TranscriptHandle)
	return handle, args.Error(1)
}

type MockGenerator struct{ mock.Mock }

func (m *MockGenerator) BuildPrompt(transcript, platform, title string) string {
	return m.Called(transcript, platform, title).String(0)
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ctx context.Context, req domain.PublishRequest) error {
	return m.Called(ctx, req).Error(0)
}

type MockQueue struct{ mock.Mock }

func (m *MockQueue) PublishTranscriptionRequest(ctx context.Context, message domain.TranscriptionRequestMessage) error {
	return m.Called(ctx, message).Error(0)
}

type MockStorage struct{ mock.Mock }

func (m *MockStorage) SaveUploadedFile(src io.Reader, originalFilename string) (string, string, error) {
	args := m.Called(src, originalFilename)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockStorage) DeleteFile(filePath string) error {
	return m.Called(filePath).Error(0)
}

func (m *MockStorage) PublicURL(filename string) string {
	return "https://videos.example.com/uploads/" + filename
}

func (m *MockStorage) Probe(ctx context.Context, filePath string) (*domain.VideoMetadata, error) {
	args := m.Called(ctx, filePath)
	metadata, _ := args.Get(0).(*domain.VideoMetadata)
	return metadata, args.Error(1)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) SendNotification(userID int, originalFilename string, status domain.ProcessingStatus, message string) {
	m.Called(userID, originalFilename, status, message)
}

type MockMetrics struct{ mock.Mock }

func (m *MockMetrics) RecordUpload(mimeType string, sizeBytes int64) { m.Called(mimeType, sizeBytes) }
func (m *MockMetrics) RecordTransition(status domain.ProcessingStatus) { m.Called(status) }
func (m *MockMetrics) RecordWebhook(status string)                     { m.Called(status) }
func (m *MockMetrics) RecordPublish(platform domain.Platform, success bool) {
	m.Called(platform, success)
}
func (m *MockMetrics) RecordError(operation, errorType string) { m.Called(operation, errorType) }

// newMetrics accepts any event.
func newMetrics() *MockMetrics {
	m := &MockMetrics{}
	m.On("RecordUpload", mock.Anything, mock.Anything).Maybe()
	m.On("RecordTransition", mock.Anything).Maybe()
	m.On("RecordWebhook", mock.Anything).Maybe()
	m.On("RecordPublish", mock.Anything, mock.Anything).Maybe()
	m.On("RecordError", mock.Anything, mock.Anything).Maybe()
	return m
}
