// repository/social_repository.go
package repository

import (
	"context"
	"fmt"

	"github.com/vitovidale/video-publisher-service/domain"
)

type SocialRepository struct {
	store domain.RecordStore
}

func NewSocialRepository(store domain.RecordStore) *SocialRepository {
	return &SocialRepository{store: store}
}

func (r *SocialRepository) FindAccount(ctx context.Context, userID int, platform domain.Platform) (*domain.SocialAccount, error) {
	var accounts []domain.SocialAccount
	err := r.store.Query(ctx, domain.TableSocialAccount, domain.QueryOptions{
		Where: map[string]any{"user_id": userID, "platform": platform.AccountKey()},
		Limit: 1,
	}, &accounts)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no %s account for user %d: %w", platform.AccountKey(), userID, domain.ErrNotFound)
	}
	return &accounts[0], nil
}

func (r *SocialRepository) CreatePostJob(ctx context.Context, job *domain.PostJob) error {
	return r.store.Create(ctx, domain.TablePostJob, job, job)
}

func (r *SocialRepository) ListPostJobs(ctx context.Context, videoUploadID int64) ([]domain.PostJob, error) {
	jobs := []domain.PostJob{}
	err := r.store.Query(ctx, domain.TablePostJob, domain.QueryOptions{
		Where:   map[string]any{"video_upload_id": videoUploadID},
		OrderBy: "id",
	}, &jobs)
	if err != nil {
		return nil, err
	}
	return jobs, nil
}
