// usecase/delete_video.go
package usecase

import (
	"context"
	"fmt"
	"log"

	"github.com/vitovidale/video-publisher-service/domain"
	"github.com/vitovidale/video-publisher-service/repository"
)

type DeleteVideoUseCase struct {
	Videos      *repository.VideoRepository
	FileStorage domain.FileStorageService
}

// Execute removes the upload record and then, best effort, the file on disk.
func (uc *DeleteVideoUseCase) Execute(ctx context.Context, uuid string) error {
	upload, err := uc.Videos.GetUpload(ctx, uuid)
	if err != nil {
		return err
	}
	if err := uc.Videos.DeleteUpload(ctx, uuid); err != nil {
		return fmt.Errorf("failed to delete video %s: %w", uuid, err)
	}
	if err := uc.FileStorage.DeleteFile(upload.FilePath); err != nil {
		log.Printf("WARNING: Video %s deleted but its file was not: %v", uuid, err)
	}
	return nil
}
