// domain/transcription.go
package domain

type TranscriptionJobStatus int

const (
	JobStatusPending    TranscriptionJobStatus = 1
	JobStatusProcessing TranscriptionJobStatus = 2
	JobStatusCompleted  TranscriptionJobStatus = 3
	JobStatusError      TranscriptionJobStatus = 4
)

func (s TranscriptionJobStatus) String() string {
	switch s {
	case JobStatusPending:
		return "PENDING"
	case JobStatusProcessing:
		return "PROCESSING"
	case JobStatusCompleted:
		return "COMPLETED"
	case JobStatusError:
		return "ERROR"
	}
	return "UNKNOWN"
}

type TranscriptionJob struct {
	Record
	VideoUploadID int64                  `json:"video_upload_id"`
	APIProvider   string                 `json:"api_provider"`
	ProviderJobID string                 `json:"provider_job_id,omitempty"`
	Status        TranscriptionJobStatus `json:"status"`
}

type TranscriptionResult struct {
	Record
	JobID      int64  `json:"job_id"`
	Language   string `json:"language"`
	Transcript string `json:"transcript"`
}

type AiDescription struct {
	Record
	TranscriptionJobID int64  `json:"transcription_job_id"`
	Description        string `json:"description"`
}

// Provider-side transcript states.
const (
	TranscriptQueued     = "queued"
	TranscriptProcessing = "processing"
	TranscriptCompleted  = "completed"
	TranscriptError      = "error"
)

// TranscriptHandle is what the speech-to-text provider returns for a transcript.
type TranscriptHandle struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	Text     string `json:"text,omitempty"`
	Language string `json:"language_code,omitempty"`
	Error    string `json:"error,omitempty"`
}

// TranscriptionWebhookPayload is the body the provider posts on status changes.
type TranscriptionWebhookPayload struct {
	TranscriptID string `json:"transcript_id"`
	Status       string `json:"status"`
	Text         string `json:"text,omitempty"`
	Language     string `json:"language_code,omitempty"`
}
