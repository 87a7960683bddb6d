// usecase/publish_video.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/vitovidale/video-publisher-service/domain"
	"github.com/vitovidale/video-publisher-service/repository"
)

const defaultPublishRetries = 3

type PublishVideoInput struct {
	UUID        string
	Platform    string
	Description string
	UserID      int
}

type PublishVideoOutput struct {
	Message  string
	Platform domain.Platform
	Status   *domain.VideoStatus
}

type PublishVideoUseCase struct {
	Videos         *repository.VideoRepository
	Transcriptions *repository.TranscriptionRepository
	Social         *repository.SocialRepository
	Publisher      domain.PlatformPublisher
	FileStorage    domain.FileStorageService
	Metrics        domain.PipelineMetrics
	// MaxRetries bounds the status write when concurrent publishes collide.
	MaxRetries int
}

func (uc *PublishVideoUseCase) Execute(ctx context.Context, input PublishVideoInput) (*PublishVideoOutput, error) {
	platform := domain.Platform(strings.ToUpper(strings.TrimSpace(input.Platform)))
	if !platform.Valid() {
		return nil, domain.Validationf("unsupported platform %q", input.Platform)
	}

	upload, err := uc.Videos.GetUpload(ctx, input.UUID)
	if err != nil {
		return nil, err
	}

	status, err := uc.Videos.FindStatusByUploadID(ctx, upload.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: video %s has no processing status", domain.ErrNotReady, input.UUID)
	}
	if err != nil {
		return nil, err
	}
	if !status.Status.Publishable() {
		return nil, fmt.Errorf("%w: video %s is %s", domain.ErrNotReady, input.UUID, status.Status)
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = uc.generatedDescription(ctx, upload.ID)
	}
	if description == "" {
		return nil, domain.Validationf("description is required")
	}

	req := domain.PublishRequest{
		Platform:    platform,
		VideoID:     upload.UUID,
		Description: description,
		VideoURL:    uc.FileStorage.PublicURL(upload.Filename),
		AccessToken: uc.accessToken(ctx, input.UserID, platform),
	}
	if err := uc.Publisher.Publish(ctx, req); err != nil {
		uc.Metrics.RecordPublish(platform, false)
		uc.Metrics.RecordError("publish", errorType(err))
		uc.recordPost(ctx, upload.ID, platform, domain.PostJobError, err.Error())
		if !errors.Is(err, domain.ErrPublishFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrPublishFailed, err)
		}
		return nil, err
	}
	uc.Metrics.RecordPublish(platform, true)

	published, err := uc.markPublished(ctx, status, platform, description)
	if err != nil {
		return nil, err
	}
	uc.recordPost(ctx, upload.ID, platform, domain.PostJobCompleted, "")

	return &PublishVideoOutput{
		Message:  fmt.Sprintf("Video published to %s", platform),
		Platform: platform,
		Status:   published,
	}, nil
}

// markPublished appends platform and its description to the status row,
// re-reading and retrying when another writer got there first.
func (uc *PublishVideoUseCase) markPublished(ctx context.Context, status *domain.VideoStatus, platform domain.Platform, description string) (*domain.VideoStatus, error) {
	retries := uc.MaxRetries
	if retries <= 0 {
		retries = defaultPublishRetries
	}

	current := status
	for attempt := 1; ; attempt++ {
		if err := domain.CheckTransition(current.Status, domain.StatusPublished); err != nil {
			return nil, err
		}

		platforms := append([]domain.Platform{}, current.Platforms...)
		if !current.HasPlatform(platform) {
			platforms = append(platforms, platform)
		}
		descriptions := make(map[domain.Platform]string, len(current.Descriptions)+1)
		for k, v := range current.Descriptions {
			descriptions[k] = v
		}
		descriptions[platform] = description

		updated, err := uc.Videos.UpdateStatusVersioned(ctx, current, map[string]any{
			"status":        domain.StatusPublished,
			"platforms":     platforms,
			"descriptions":  descriptions,
			"error_message": "",
		})
		if err == nil {
			uc.Metrics.RecordTransition(domain.StatusPublished)
			return updated, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) || attempt >= retries {
			return nil, fmt.Errorf("failed to record publish to %s: %w", platform, err)
		}

		log.Printf("WARNING: Status %s changed concurrently, retrying (%d/%d)", current.UUID, attempt, retries)
		current, err = uc.Videos.GetStatus(ctx, current.UUID)
		if err != nil {
			return nil, err
		}
	}
}

func (uc *PublishVideoUseCase) accessToken(ctx context.Context, userID int, platform domain.Platform) string {
	account, err := uc.Social.FindAccount(ctx, userID, platform)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Printf("WARNING: Failed to look up %s account for user %d: %v", platform, userID, err)
		}
		return ""
	}
	return account.AccessToken
}

func (uc *PublishVideoUseCase) generatedDescription(ctx context.Context, uploadID int64) string {
	if uc.Transcriptions == nil {
		return ""
	}
	job, err := uc.Transcriptions.FindJobByVideoID(ctx, uploadID)
	if err != nil {
		return ""
	}
	description, err := uc.Transcriptions.FindDescriptionByJobID(ctx, job.ID)
	if err != nil {
		return ""
	}
	return description.Description
}

func (uc *PublishVideoUseCase) recordPost(ctx context.Context, uploadID int64, platform domain.Platform, status domain.PostJobStatus, message string) {
	job := &domain.PostJob{
		VideoUploadID: uploadID,
		PlatformIDs:   string(platform),
		ScheduledTime: time.Now().UTC().Format(time.RFC3339),
		Status:        status,
		ErrorMessage:  message,
	}
	if err := uc.Social.CreatePostJob(ctx, job); err != nil {
		log.Printf("WARNING: Failed to record %s post for upload %d: %v", platform, uploadID, err)
	}
}
