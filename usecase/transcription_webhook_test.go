package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vitovidale/video-publisher-service/domain"
)

func (f *fixture) seedJob(t *testing.T, uploadID int64, providerID string) *domain.TranscriptionJob {
	t.Helper()
	job := &domain.TranscriptionJob{
		VideoUploadID: uploadID,
		APIProvider:   "assemblyai",
		ProviderJobID: providerID,
		Status:        domain.JobStatusProcessing,
	}
	require.NoError(t, f.transcriptions.CreateJob(context.Background(), job))
	return job
}

func newWebhookUseCase(f *fixture, provider *MockProvider, generator *MockGenerator) *TranscriptionWebhookUseCase {
	return &TranscriptionWebhookUseCase{
		Videos:         f.videos,
		Transcriptions: f.transcriptions,
		Provider:       provider,
		Generator:      generator,
		Metrics:        newMetrics(),
	}
}

func TestTranscriptionWebhook_NonCompletedIsAcknowledged(t *testing.T) {
	f := newFixture()
	upload, _ := f.seedVideo(t, domain.StatusTranscribing)
	f.seedJob(t, upload.ID, "tr-1")
	before := f.status(t, upload.ID)

	out, err := newWebhookUseCase(f, &MockProvider{}, &MockGenerator{}).Execute(context.Background(), domain.TranscriptionWebhookPayload{
		TranscriptID: "tr-1",
		Status:       domain.TranscriptQueued,
	})
	require.NoError(t, err)
	assert.Equal(t, WebhookReceived, out.Status)

	after := f.status(t, upload.ID)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, domain.StatusTranscribing, after.Status)
}

func TestTranscriptionWebhook_Invalid(t *testing.T) {
	f := newFixture()
	_, err := newWebhookUseCase(f, &MockProvider{}, &MockGenerator{}).Execute(context.Background(), domain.TranscriptionWebhookPayload{Status: "completed"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTranscriptionWebhook_UnknownTranscript(t *testing.T) {
	f := newFixture()
	_, err := newWebhookUseCase(f, &MockProvider{}, &MockGenerator{}).Execute(context.Background(), domain.TranscriptionWebhookPayload{
		TranscriptID: "nobody",
		Status:       domain.TranscriptCompleted,
		Text:         "hello",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTranscriptionWebhook_CompletedMakesVideoReady(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	upload, _ := f.seedVideo(t, domain.StatusTranscribing)
	job := f.seedJob(t, upload.ID, "tr-7")

	generator := &MockGenerator{}
	generator.On("BuildPrompt", "hello world", "", "launch.mp4").Return("PROMPT")
	generator.On("Generate", mock.Anything, "PROMPT").Return("  A great launch video.  ", nil)

	out, err := newWebhookUseCase(f, &MockProvider{}, generator).Execute(ctx, domain.TranscriptionWebhookPayload{
		TranscriptID: "tr-7",
		Status:       domain.TranscriptCompleted,
		Text:         "hello world",
	})
	require.NoError(t, err)
	assert.Equal(t, WebhookProcessed, out.Status)
	assert.Equal(t, "A great launch video.", out.Description)

	assert.Equal(t, domain.StatusReady, f.status(t, upload.ID).Status)

	stored, err := f.transcriptions.FindJobByProviderID(ctx, "tr-7")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, stored.Status)

	result, err := f.transcriptions.FindResultByJobID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", result.Transcript)
	assert.Equal(t, "en", result.Language)

	description, err := f.transcriptions.FindDescriptionByJobID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "A great launch video.", description.Description)

	refreshed, err := f.videos.GetUpload(ctx, upload.UUID)
	require.NoError(t, err)
	assert.Equal(t, domain.UploadStatusComplete, refreshed.UploadStatus)

	again, err := newWebhookUseCase(f, &MockProvider{}, generator).Execute(ctx, domain.TranscriptionWebhookPayload{
		TranscriptID: "tr-7",
		Status:       domain.TranscriptCompleted,
		Text:         "hello world",
	})
	require.NoError(t, err)
	assert.Equal(t, WebhookDuplicate, again.Status)
	generator.AssertNumberOfCalls(t, "Generate", 1)
}

func TestTranscriptionWebhook_FetchesTextAndToleratesGeneratorFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	upload, _ := f.seedVideo(t, domain.StatusTranscribing)
	job := f.seedJob(t, upload.ID, "tr-8")

	provider := &MockProvider{}
	provider.On("GetCompleted", mock.Anything, "tr-8").
		Return(&domain.TranscriptHandle{ID: "tr-8", Status: domain.TranscriptCompleted, Text: "bonjour", Language: "fr"}, nil)
	generator := &MockGenerator{}
	generator.On("BuildPrompt", "bonjour", "", "launch.mp4").Return("PROMPT")
	generator.On("Generate", mock.Anything, "PROMPT").Return("", errors.New("groq down"))

	out, err := newWebhookUseCase(f, provider, generator).Execute(ctx, domain.TranscriptionWebhookPayload{
		TranscriptID: "tr-8",
		Status:       domain.TranscriptCompleted,
	})
	require.NoError(t, err)
	assert.Empty(t, out.Description)
	assert.Equal(t, domain.StatusReady, f.status(t, upload.ID).Status)

	result, err := f.transcriptions.FindResultByJobID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "bonjour", result.Transcript)
	assert.Equal(t, "fr", result.Language)

	_, err = f.transcriptions.FindDescriptionByJobID(ctx, job.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTranscriptionWebhook_RejectsInvalidTransition(t *testing.T) {
	f := newFixture()
	upload, _ := f.seedVideo(t, domain.StatusError)
	f.seedJob(t, upload.ID, "tr-9")

	_, err := newWebhookUseCase(f, &MockProvider{}, &MockGenerator{}).Execute(context.Background(), domain.TranscriptionWebhookPayload{
		TranscriptID: "tr-9",
		Status:       domain.TranscriptCompleted,
		Text:         "late",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.StatusError, f.status(t, upload.ID).Status)
}

func TestTranscriptionWebhook_CompletesWhileStillProcessing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	upload, _ := f.seedVideo(t, domain.StatusProcessing)
	job := f.seedJob(t, upload.ID, "tr-fast")

	generator := &MockGenerator{}
	generator.On("BuildPrompt", "quick one", "", "launch.mp4").Return("PROMPT")
	generator.On("Generate", mock.Anything, "PROMPT").Return("Short and sweet.", nil)
	notifier := &MockNotifier{}
	notifier.On("SendNotification", 1, "launch.mp4", domain.StatusReady, mock.Anything).Once()

	uc := newWebhookUseCase(f, &MockProvider{}, generator)
	uc.Notifier = notifier
	out, err := uc.Execute(ctx, domain.TranscriptionWebhookPayload{
		TranscriptID: "tr-fast",
		Status:       domain.TranscriptCompleted,
		Text:         "quick one",
	})
	require.NoError(t, err)
	assert.Equal(t, WebhookProcessed, out.Status)
	assert.Equal(t, domain.StatusReady, f.status(t, upload.ID).Status)

	result, err := f.transcriptions.FindResultByJobID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "quick one", result.Transcript)
	notifier.AssertExpectations(t)
}
