// usecase/get_video.go
package usecase

import (
	"context"
	"errors"
	"log"

	"github.com/vitovidale/video-publisher-service/domain"
	"github.com/vitovidale/video-publisher-service/repository"
)

// GetVideoUseCase assembles everything known about one upload. Only the upload
// itself is required; the other parts are filled in when present.
type GetVideoUseCase struct {
	Videos         *repository.VideoRepository
	Transcriptions *repository.TranscriptionRepository
	Social         *repository.SocialRepository
}

func (uc *GetVideoUseCase) Execute(ctx context.Context, uuid string) (*domain.VideoDetails, error) {
	upload, err := uc.Videos.GetUpload(ctx, uuid)
	if err != nil {
		return nil, err
	}
	details := &domain.VideoDetails{Upload: upload}

	if metadata, err := uc.Videos.FindMetadataByUploadID(ctx, upload.ID); optional(err, "metadata", uuid) {
		details.Metadata = metadata
	}
	if status, err := uc.Videos.FindStatusByUploadID(ctx, upload.ID); optional(err, "status", uuid) {
		details.Status = status
	}
	if posts, err := uc.Social.ListPostJobs(ctx, upload.ID); optional(err, "post jobs", uuid) && len(posts) > 0 {
		details.Posts = posts
	}

	job, err := uc.Transcriptions.FindJobByVideoID(ctx, upload.ID)
	if !optional(err, "transcription job", uuid) {
		return details, nil
	}
	details.TranscriptionJob = job

	if result, err := uc.Transcriptions.FindResultByJobID(ctx, job.ID); optional(err, "transcription", uuid) {
		details.Transcription = result
	}
	if description, err := uc.Transcriptions.FindDescriptionByJobID(ctx, job.ID); optional(err, "description", uuid) {
		details.Description = description
	}
	return details, nil
}

// optional reports whether a lookup produced a value. Missing parts are
// expected; other failures are logged and the part is left out.
func optional(err error, part, uuid string) bool {
	if err == nil {
		return true
	}
	if !errors.Is(err, domain.ErrNotFound) {
		log.Printf("WARNING: Failed to load %s for video %s: %v", part, uuid, err)
	}
	return false
}

type ListVideosUseCase struct {
	Videos *repository.VideoRepository
}

func (uc *ListVideosUseCase) Execute(ctx context.Context, userID int) ([]domain.VideoUpload, error) {
	return uc.Videos.ListUploadsByUser(ctx, userID)
}
