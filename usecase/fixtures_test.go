package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vitovidale/video-publisher-service/domain"
	"github.com/vitovidale/video-publisher-service/infrastructure/recordstore"
	"github.com/vitovidale/video-publisher-service/repository"
)

type fixture struct {
	store          *recordstore.MemoryStore
	faults         *faultyStore
	videos         *repository.VideoRepository
	transcriptions *repository.TranscriptionRepository
	social         *repository.SocialRepository
}

func newFixture() *fixture {
	store := recordstore.NewMemoryStore()
	faults := &faultyStore{MemoryStore: store}
	return &fixture{
		store:          store,
		faults:         faults,
		videos:         repository.NewVideoRepository(faults),
		transcriptions: repository.NewTranscriptionRepository(faults),
		social:         repository.NewSocialRepository(faults),
	}
}

// faultyStore lets a test fail selected writes of the in-memory store.
type faultyStore struct {
	*recordstore.MemoryStore
	failCreate func(table string) error
	failUpdate func(table string, data any) error
}

func (s *faultyStore) Create(ctx context.Context, table string, data any, out any) error {
	if s.failCreate != nil {
		if err := s.failCreate(table); err != nil {
			return err
		}
	}
	return s.MemoryStore.Create(ctx, table, data, out)
}

func (s *faultyStore) Update(ctx context.Context, table, uuid string, data any, out any) error {
	if s.failUpdate != nil {
		if err := s.failUpdate(table, data); err != nil {
			return err
		}
	}
	return s.MemoryStore.Update(ctx, table, uuid, data, out)
}

// seedVideo creates an upload with a status row in the given state.
func (f *fixture) seedVideo(t *testing.T, state domain.ProcessingStatus) (*domain.VideoUpload, *domain.VideoStatus) {
	t.Helper()
	ctx := context.Background()
	upload := &domain.VideoUpload{
		FilePath:         "/tmp/uploads/abc.mp4",
		Filename:         "abc.mp4",
		OriginalFilename: "launch.mp4",
		MimeType:         "video/mp4",
		UploadStatus:     domain.UploadStatusUploaded,
		UserID:           1,
	}
	require.NoError(t, f.videos.CreateUpload(ctx, upload))
	status := &domain.VideoStatus{UploadID: upload.ID, Status: state}
	require.NoError(t, f.videos.CreateStatus(ctx, status))
	return upload, status
}

func (f *fixture) status(t *testing.T, uploadID int64) *domain.VideoStatus {
	t.Helper()
	status, err := f.videos.FindStatusByUploadID(context.Background(), uploadID)
	require.NoError(t, err)
	return status
}
