// repository/video_repository.go
package repository

import (
	"context"
	"fmt"

	"github.com/vitovidale/video-publisher-service/domain"
)

// VideoRepository groups the upload, metadata and status tables.
type VideoRepository struct {
	store domain.RecordStore
}

func NewVideoRepository(store domain.RecordStore) *VideoRepository {
	return &VideoRepository{store: store}
}

func (r *VideoRepository) CreateUpload(ctx context.Context, upload *domain.VideoUpload) error {
	return r.store.Create(ctx, domain.TableVideoUpload, upload, upload)
}

func (r *VideoRepository) GetUpload(ctx context.Context, uuid string) (*domain.VideoUpload, error) {
	var upload domain.VideoUpload
	if err := r.store.GetByUUID(ctx, domain.TableVideoUpload, uuid, &upload); err != nil {
		return nil, err
	}
	return &upload, nil
}

// FindUploadByID resolves the numeric id other tables reference.
func (r *VideoRepository) FindUploadByID(ctx context.Context, id int64) (*domain.VideoUpload, error) {
	var rows []domain.VideoUpload
	if err := r.queryByField(ctx, domain.TableVideoUpload, "id", id, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no upload with id %d: %w", id, domain.ErrNotFound)
	}
	return &rows[0], nil
}

func (r *VideoRepository) ListUploadsByUser(ctx context.Context, userID int) ([]domain.VideoUpload, error) {
	uploads := []domain.VideoUpload{}
	err := r.store.Query(ctx, domain.TableVideoUpload, domain.QueryOptions{
		Where:   map[string]any{"user_id": userID},
		OrderBy: "date_created.desc",
	}, &uploads)
	if err != nil {
		return nil, err
	}
	return uploads, nil
}

func (r *VideoRepository) UpdateUploadStatus(ctx context.Context, uuid string, status domain.UploadStatus) error {
	return r.store.Update(ctx, domain.TableVideoUpload, uuid, map[string]any{"upload_status": status}, nil)
}

func (r *VideoRepository) DeleteUpload(ctx context.Context, uuid string) error {
	return r.store.Delete(ctx, domain.TableVideoUpload, uuid)
}

func (r *VideoRepository) CreateMetadata(ctx context.Context, metadata *domain.VideoMetadata) error {
	return r.store.Create(ctx, domain.TableVideoMetadata, metadata, metadata)
}

func (r *VideoRepository) FindMetadataByUploadID(ctx context.Context, uploadID int64) (*domain.VideoMetadata, error) {
	var rows []domain.VideoMetadata
	if err := r.queryByField(ctx, domain.TableVideoMetadata, "upload_id", uploadID, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no metadata for upload %d: %w", uploadID, domain.ErrNotFound)
	}
	return &rows[0], nil
}

func (r *VideoRepository) CreateStatus(ctx context.Context, status *domain.VideoStatus) error {
	return r.store.Create(ctx, domain.TableVideoStatus, status, status)
}

func (r *VideoRepository) FindStatusByUploadID(ctx context.Context, uploadID int64) (*domain.VideoStatus, error) {
	var rows []domain.VideoStatus
	if err := r.queryByField(ctx, domain.TableVideoStatus, "upload_id", uploadID, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no status for upload %d: %w", uploadID, domain.ErrNotFound)
	}
	return checkStatus(&rows[0])
}

func (r *VideoRepository) GetStatus(ctx context.Context, uuid string) (*domain.VideoStatus, error) {
	var status domain.VideoStatus
	if err := r.store.GetByUUID(ctx, domain.TableVideoStatus, uuid, &status); err != nil {
		return nil, err
	}
	return checkStatus(&status)
}

// SetStatus moves the status row to next, clearing or setting the error message.
func (r *VideoRepository) SetStatus(ctx context.Context, uuid string, next domain.ProcessingStatus, errorMessage string) (*domain.VideoStatus, error) {
	var updated domain.VideoStatus
	patch := map[string]any{"status": next, "error_message": errorMessage}
	if err := r.store.Update(ctx, domain.TableVideoStatus, uuid, patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateStatusVersioned writes patch only if the row is still at status.Version.
func (r *VideoRepository) UpdateStatusVersioned(ctx context.Context, status *domain.VideoStatus, patch map[string]any) (*domain.VideoStatus, error) {
	var updated domain.VideoStatus
	if err := r.store.UpdateVersioned(ctx, domain.TableVideoStatus, status.UUID, status.Version, patch, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// checkStatus rejects rows whose status the pipeline does not know.
func checkStatus(status *domain.VideoStatus) (*domain.VideoStatus, error) {
	if !status.Status.Valid() {
		return nil, fmt.Errorf("video status %s has unknown status %q: %w", status.UUID, status.Status, domain.ErrUpstream)
	}
	return status, nil
}

func (r *VideoRepository) queryByField(ctx context.Context, table, field string, value any, out any) error {
	return r.store.Query(ctx, table, domain.QueryOptions{Where: map[string]any{field: value}, Limit: 1}, out)
}
