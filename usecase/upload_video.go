// usecase/upload_video.go
package usecase

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/vitovidale/video-publisher-service/domain"
	"github.com/vitovidale/video-publisher-service/repository"
)

const DefaultMaxUploadSize int64 = 100 << 20

type UploadVideoInput struct {
	UserID           int
	FileContent      io.Reader
	OriginalFilename string
	MimeType         string
	Size             int64
}

type UploadVideoOutput struct {
	Message    string
	UUID       string
	StatusUUID string
	Status     domain.ProcessingStatus
}

type UploadVideoUseCase struct {
	Videos        *repository.VideoRepository
	MessageQueue  domain.MessageQueueService
	FileStorage   domain.FileStorageService
	Metrics       domain.PipelineMetrics
	MaxUploadSize int64
}

func (uc *UploadVideoUseCase) Execute(ctx context.Context, input UploadVideoInput) (*UploadVideoOutput, error) {
	if err := uc.validate(input); err != nil {
		return nil, err
	}

	filename, filePath, err := uc.FileStorage.SaveUploadedFile(input.FileContent, input.OriginalFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to save video file: %w", err)
	}

	upload := &domain.VideoUpload{
		FilePath:         filePath,
		Filename:         filename,
		OriginalFilename: input.OriginalFilename,
		MimeType:         input.MimeType,
		UploadStatus:     domain.UploadStatusUploaded,
		UserID:           input.UserID,
	}
	if err := uc.Videos.CreateUpload(ctx, upload); err != nil {
		if rmErr := uc.FileStorage.DeleteFile(filePath); rmErr != nil {
			log.Printf("WARNING: Failed to remove orphaned file %s: %v", filePath, rmErr)
		}
		return nil, fmt.Errorf("failed to record video upload: %w", err)
	}

	status := &domain.VideoStatus{UploadID: upload.ID, Status: domain.StatusPending}
	if err := uc.Videos.CreateStatus(ctx, status); err != nil {
		if rmErr := uc.Videos.DeleteUpload(ctx, upload.UUID); rmErr != nil {
			log.Printf("WARNING: Failed to remove orphaned upload %s: %v", upload.UUID, rmErr)
		}
		if rmErr := uc.FileStorage.DeleteFile(filePath); rmErr != nil {
			log.Printf("WARNING: Failed to remove orphaned file %s: %v", filePath, rmErr)
		}
		return nil, fmt.Errorf("failed to record video status: %w", err)
	}
	uc.Metrics.RecordUpload(input.MimeType, input.Size)
	uc.Metrics.RecordTransition(domain.StatusPending)

	message := domain.TranscriptionRequestMessage{
		UserID:           input.UserID,
		UploadID:         upload.ID,
		UploadUUID:       upload.UUID,
		StatusUUID:       status.UUID,
		VideoPath:        filePath,
		MediaURL:         uc.FileStorage.PublicURL(filename),
		OriginalFilename: input.OriginalFilename,
		FileSize:         input.Size,
		RequestedAt:      time.Now().Unix(),
	}
	output := &UploadVideoOutput{
		Message:    "Video uploaded and queued for processing",
		UUID:       upload.UUID,
		StatusUUID: status.UUID,
		Status:     domain.StatusPending,
	}

	if err := uc.MessageQueue.PublishTranscriptionRequest(ctx, message); err != nil {
		log.Printf("ERROR: Failed to queue upload %s for transcription: %v", upload.UUID, err)
		markFailed(ctx, uc.Videos, uc.Metrics, status.UUID, "enqueue", fmt.Errorf("failed to queue video for processing: %w", err))
		output.Message = "Video uploaded but could not be queued for processing"
		output.Status = domain.StatusError
	}
	return output, nil
}

func (uc *UploadVideoUseCase) validate(input UploadVideoInput) error {
	if input.FileContent == nil || input.OriginalFilename == "" {
		return domain.Validationf("no video file uploaded")
	}
	if !strings.HasPrefix(input.MimeType, "video/") {
		return domain.Validationf("only video files are allowed, got %q", input.MimeType)
	}
	limit := uc.MaxUploadSize
	if limit <= 0 {
		limit = DefaultMaxUploadSize
	}
	if input.Size > limit {
		return domain.Validationf("file too large: %d bytes exceeds the %d byte limit", input.Size, limit)
	}
	return nil
}
