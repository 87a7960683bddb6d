// usecase/status.go
package usecase

import (
	"context"
	"errors"
	"log"

	"github.com/vitovidale/video-publisher-service/domain"
	"github.com/vitovidale/video-publisher-service/repository"
)

// advance moves a status row to next after checking the transition table.
func advance(ctx context.Context, videos *repository.VideoRepository, metrics domain.PipelineMetrics, current *domain.VideoStatus, next domain.ProcessingStatus, errorMessage string) (*domain.VideoStatus, error) {
	if err := domain.CheckTransition(current.Status, next); err != nil {
		return nil, err
	}
	updated, err := videos.SetStatus(ctx, current.UUID, next, errorMessage)
	if err != nil {
		return nil, err
	}
	metrics.RecordTransition(next)
	log.Printf("Video status %s updated to: %s", current.UUID, next)
	return updated, nil
}

// markFailed records a pipeline failure on the status row. It only logs when
// the write itself fails.
func markFailed(ctx context.Context, videos *repository.VideoRepository, metrics domain.PipelineMetrics, statusUUID, operation string, cause error) {
	metrics.RecordError(operation, errorType(cause))
	if _, err := videos.SetStatus(ctx, statusUUID, domain.StatusError, cause.Error()); err != nil {
		log.Printf("ERROR: Failed to mark video status %s as error: %v", statusUUID, err)
		return
	}
	metrics.RecordTransition(domain.StatusError)
}

// notify is a no-op when no notifier is configured.
func notify(n domain.NotificationService, userID int, originalFilename string, status domain.ProcessingStatus, message string) {
	if n == nil {
		return
	}
	n.SendNotification(userID, originalFilename, status, message)
}

func errorType(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrPublishFailed):
		return "publish"
	case errors.Is(err, domain.ErrUpstream):
		return "upstream"
	}
	return "internal"
}
