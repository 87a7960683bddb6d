// usecase/transcription_webhook.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/vitovidale/video-publisher-service/domain"
	"github.com/vitovidale/video-publisher-service/repository"
)

const defaultLanguage = "en"

// Webhook outcomes.
const (
	WebhookReceived  = "received"
	WebhookProcessed = "processed"
	WebhookDuplicate = "duplicate"
)

type TranscriptionWebhookOutput struct {
	Status      string
	JobUUID     string
	VideoStatus *domain.VideoStatus
	Description string
}

type TranscriptionWebhookUseCase struct {
	Videos         *repository.VideoRepository
	Transcriptions *repository.TranscriptionRepository
	Provider       domain.TranscriptionProvider
	Generator      domain.DescriptionGenerator
	Metrics        domain.PipelineMetrics
	Notifier       domain.NotificationService
}

func (uc *TranscriptionWebhookUseCase) Execute(ctx context.Context, payload domain.TranscriptionWebhookPayload) (*TranscriptionWebhookOutput, error) {
	if payload.TranscriptID == "" || payload.Status == "" {
		return nil, domain.Validationf("transcript_id and status are required")
	}
	uc.Metrics.RecordWebhook(payload.Status)

	if payload.Status != domain.TranscriptCompleted {
		return &TranscriptionWebhookOutput{Status: WebhookReceived}, nil
	}

	job, err := uc.Transcriptions.FindJobByProviderID(ctx, payload.TranscriptID)
	if err != nil {
		return nil, err
	}
	if job.Status == domain.JobStatusCompleted {
		log.Printf("WARNING: Transcript %s already processed for job %s", payload.TranscriptID, job.UUID)
		return &TranscriptionWebhookOutput{Status: WebhookDuplicate, JobUUID: job.UUID}, nil
	}

	text, language := payload.Text, payload.Language
	if text == "" {
		handle, err := uc.Provider.GetCompleted(ctx, payload.TranscriptID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch transcript %s: %w", payload.TranscriptID, err)
		}
		text, language = handle.Text, handle.Language
	}
	if language == "" {
		language = defaultLanguage
	}

	status, err := uc.Videos.FindStatusByUploadID(ctx, job.VideoUploadID)
	if err != nil {
		return nil, err
	}
	if status.Status == domain.StatusProcessing {
		// The provider finished before the processing stage recorded the hand-off.
		status, err = advance(ctx, uc.Videos, uc.Metrics, status, domain.StatusTranscribing, "")
		if err != nil {
			return nil, err
		}
	}
	if err := domain.CheckTransition(status.Status, domain.StatusReady); err != nil {
		return nil, err
	}

	if err := uc.Transcriptions.UpdateJob(ctx, job, map[string]any{"status": domain.JobStatusCompleted}); err != nil {
		return nil, fmt.Errorf("failed to complete transcription job %s: %w", job.UUID, err)
	}
	result := &domain.TranscriptionResult{JobID: job.ID, Language: language, Transcript: text}
	if err := uc.Transcriptions.CreateResult(ctx, result); err != nil {
		return nil, fmt.Errorf("failed to store transcription result: %w", err)
	}

	ready, err := advance(ctx, uc.Videos, uc.Metrics, status, domain.StatusReady, "")
	if err != nil {
		return nil, err
	}

	output := &TranscriptionWebhookOutput{Status: WebhookProcessed, JobUUID: job.UUID, VideoStatus: ready}

	title := ""
	if upload, err := uc.Videos.FindUploadByID(ctx, job.VideoUploadID); err == nil {
		title = upload.OriginalFilename
		if err := uc.Videos.UpdateUploadStatus(ctx, upload.UUID, domain.UploadStatusComplete); err != nil {
			log.Printf("WARNING: Failed to update upload %s: %v", upload.UUID, err)
		}
		notify(uc.Notifier, upload.UserID, upload.OriginalFilename, domain.StatusReady, "Your video is transcribed and ready to publish.")
	} else if !errors.Is(err, domain.ErrNotFound) {
		log.Printf("WARNING: Failed to load upload %d: %v", job.VideoUploadID, err)
	}

	description, err := uc.describe(ctx, job, text, title)
	if err != nil {
		log.Printf("WARNING: Description generation failed for job %s: %v", job.UUID, err)
		uc.Metrics.RecordError("describe", errorType(err))
	}
	output.Description = description
	return output, nil
}

func (uc *TranscriptionWebhookUseCase) describe(ctx context.Context, job *domain.TranscriptionJob, transcript, title string) (string, error) {
	prompt := uc.Generator.BuildPrompt(transcript, "", title)
	description, err := uc.Generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return "", fmt.Errorf("%w: empty description", domain.ErrUpstream)
	}
	err = uc.Transcriptions.CreateDescription(ctx, &domain.AiDescription{
		TranscriptionJobID: job.ID,
		Description:        description,
	})
	if err != nil {
		return "", fmt.Errorf("failed to store description: %w", err)
	}
	return description, nil
}
