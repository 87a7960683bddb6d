// repository/transcription_repository.go
package repository

import (
	"context"
	"fmt"

	"github.com/vitovidale/video-publisher-service/domain"
)

type TranscriptionRepository struct {
	store domain.RecordStore
}

func NewTranscriptionRepository(store domain.RecordStore) *TranscriptionRepository {
	return &TranscriptionRepository{store: store}
}

func (r *TranscriptionRepository) CreateJob(ctx context.Context, job *domain.TranscriptionJob) error {
	return r.store.Create(ctx, domain.TableTranscriptionJob, job, job)
}

// UpdateJob patches the job and refreshes job in place.
func (r *TranscriptionRepository) UpdateJob(ctx context.Context, job *domain.TranscriptionJob, patch map[string]any) error {
	return r.store.Update(ctx, domain.TableTranscriptionJob, job.UUID, patch, job)
}

func (r *TranscriptionRepository) FindJobByVideoID(ctx context.Context, videoUploadID int64) (*domain.TranscriptionJob, error) {
	return r.findJob(ctx, "video_upload_id", videoUploadID)
}

// FindJobByProviderID resolves the provider's transcript id to our job.
func (r *TranscriptionRepository) FindJobByProviderID(ctx context.Context, providerJobID string) (*domain.TranscriptionJob, error) {
	return r.findJob(ctx, "provider_job_id", providerJobID)
}

func (r *TranscriptionRepository) findJob(ctx context.Context, field string, value any) (*domain.TranscriptionJob, error) {
	var jobs []domain.TranscriptionJob
	err := r.store.Query(ctx, domain.TableTranscriptionJob, domain.QueryOptions{
		Where:   map[string]any{field: value},
		OrderBy: "id.desc",
		Limit:   1,
	}, &jobs)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no transcription job with %s=%v: %w", field, value, domain.ErrNotFound)
	}
	return &jobs[0], nil
}

func (r *TranscriptionRepository) CreateResult(ctx context.Context, result *domain.TranscriptionResult) error {
	return r.store.Create(ctx, domain.TableTranscriptionResult, result, result)
}

func (r *TranscriptionRepository) FindResultByJobID(ctx context.Context, jobID int64) (*domain.TranscriptionResult, error) {
	var results []domain.TranscriptionResult
	err := r.store.Query(ctx, domain.TableTranscriptionResult, domain.QueryOptions{
		Where: map[string]any{"job_id": jobID},
		Limit: 1,
	}, &results)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no transcription result for job %d: %w", jobID, domain.ErrNotFound)
	}
	return &results[0], nil
}

func (r *TranscriptionRepository) CreateDescription(ctx context.Context, description *domain.AiDescription) error {
	return r.store.Create(ctx, domain.TableAiDescription, description, description)
}

func (r *TranscriptionRepository) FindDescriptionByJobID(ctx context.Context, jobID int64) (*domain.AiDescription, error) {
	var descriptions []domain.AiDescription
	err := r.store.Query(ctx, domain.TableAiDescription, domain.QueryOptions{
		Where: map[string]any{"transcription_job_id": jobID},
		Limit: 1,
	}, &descriptions)
	if err != nil {
		return nil, err
	}
	if len(descriptions) == 0 {
		return nil, fmt.Errorf("no description for job %d: %w", jobID, domain.ErrNotFound)
	}
	return &descriptions[0], nil
}
