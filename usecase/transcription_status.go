// usecase/transcription_status.go
package usecase

import (
	"context"

	"github.com/vitovidale/video-publisher-service/domain"
)

type GetTranscriptionStatusUseCase struct {
	Provider domain.TranscriptionProvider
}

func (uc *GetTranscriptionStatusUseCase) Execute(ctx context.Context, transcriptID string) (*domain.TranscriptHandle, error) {
	if transcriptID == "" {
		return nil, domain.Validationf("transcript id is required")
	}
	return uc.Provider.GetStatus(ctx, transcriptID)
}
