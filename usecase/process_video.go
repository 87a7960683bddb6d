// usecase/process_video.go
package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/vitovidale/video-publisher-service/domain"
	"github.com/vitovidale/video-publisher-service/repository"
)

// ProcessVideoUseCase runs the processing stage for one queued upload: probe
// the file, then hand it to the transcription provider.
type ProcessVideoUseCase struct {
	Videos         *repository.VideoRepository
	Transcriptions *repository.TranscriptionRepository
	Provider       domain.TranscriptionProvider
	ProviderName   string
	FileStorage    domain.FileStorageService
	Metrics        domain.PipelineMetrics
	Notifier       domain.NotificationService
}

func (uc *ProcessVideoUseCase) Execute(ctx context.Context, msg domain.TranscriptionRequestMessage) error {
	status, err := uc.Videos.GetStatus(ctx, msg.StatusUUID)
	if err != nil {
		return fmt.Errorf("failed to load video status %s: %w", msg.StatusUUID, err)
	}
	if status.Status != domain.StatusPending {
		log.Printf("WARNING: Skipping upload %s, status is already %s", msg.UploadUUID, status.Status)
		return nil
	}

	status, err = advance(ctx, uc.Videos, uc.Metrics, status, domain.StatusProcessing, "")
	if err != nil {
		return err
	}
	if err := uc.Videos.UpdateUploadStatus(ctx, msg.UploadUUID, domain.UploadStatusProcessing); err != nil {
		log.Printf("WARNING: Failed to update upload %s: %v", msg.UploadUUID, err)
	}
	notify(uc.Notifier, msg.UserID, msg.OriginalFilename, domain.StatusProcessing, "Your video is being processed.")

	uc.probe(ctx, msg)

	job := &domain.TranscriptionJob{
		VideoUploadID: msg.UploadID,
		APIProvider:   uc.providerName(),
		Status:        domain.JobStatusPending,
	}
	if err := uc.Transcriptions.CreateJob(ctx, job); err != nil {
		return uc.fail(ctx, msg, nil, fmt.Errorf("failed to create transcription job: %w", err))
	}

	handle, err := uc.Provider.Submit(ctx, msg.MediaURL)
	if err != nil {
		return uc.fail(ctx, msg, job, err)
	}

	// The webhook looks jobs up by provider id, so the status has to be
	// transcribing before that id is stored.
	if _, err := advance(ctx, uc.Videos, uc.Metrics, status, domain.StatusTranscribing, ""); err != nil {
		log.Printf("ERROR: Provider job %s for upload %s is orphaned", handle.ID, msg.UploadUUID)
		return uc.fail(ctx, msg, job, fmt.Errorf("failed to mark upload as transcribing: %w", err))
	}

	err = uc.Transcriptions.UpdateJob(ctx, job, map[string]any{
		"provider_job_id": handle.ID,
		"status":          domain.JobStatusProcessing,
	})
	if err != nil {
		return uc.fail(ctx, msg, nil, fmt.Errorf("failed to store provider job id %s: %w", handle.ID, err))
	}

	notify(uc.Notifier, msg.UserID, msg.OriginalFilename, domain.StatusTranscribing, "Your video is being transcribed.")
	log.Printf("Upload %s submitted for transcription as %s", msg.UploadUUID, handle.ID)
	return nil
}

// probe records the file's metadata once. Without ffprobe the row still gets
// the size known at upload time.
func (uc *ProcessVideoUseCase) probe(ctx context.Context, msg domain.TranscriptionRequestMessage) {
	metadata, err := uc.FileStorage.Probe(ctx, msg.VideoPath)
	if err != nil {
		log.Printf("WARNING: Could not probe %s: %v", msg.VideoPath, err)
		metadata = &domain.VideoMetadata{}
	}
	metadata.UploadID = msg.UploadID
	if metadata.FileSize == 0 {
		metadata.FileSize = msg.FileSize
	}
	if err := uc.Videos.CreateMetadata(ctx, metadata); err != nil {
		log.Printf("WARNING: Failed to record metadata for upload %s: %v", msg.UploadUUID, err)
	}
}

func (uc *ProcessVideoUseCase) fail(ctx context.Context, msg domain.TranscriptionRequestMessage, job *domain.TranscriptionJob, cause error) error {
	log.Printf("ERROR processing video '%s': %v", msg.OriginalFilename, cause)
	if job != nil {
		if err := uc.Transcriptions.UpdateJob(ctx, job, map[string]any{"status": domain.JobStatusError}); err != nil {
			log.Printf("ERROR: Failed to mark transcription job %s as failed: %v", job.UUID, err)
		}
	}
	if err := uc.Videos.UpdateUploadStatus(ctx, msg.UploadUUID, domain.UploadStatusError); err != nil {
		log.Printf("WARNING: Failed to update upload %s: %v", msg.UploadUUID, err)
	}
	markFailed(ctx, uc.Videos, uc.Metrics, msg.StatusUUID, "transcription_submit", cause)
	notify(uc.Notifier, msg.UserID, msg.OriginalFilename, domain.StatusError, fmt.Sprintf("Failed to process video: %v", cause))
	return cause
}

func (uc *ProcessVideoUseCase) providerName() string {
	if uc.ProviderName == "" {
		return "assemblyai"
	}
	return uc.ProviderName
}
