// domain/video.go
package domain

// Record is the envelope every row of the record service carries.
type Record struct {
	ID          int64  `json:"id,omitempty"`
	UUID        string `json:"uuid,omitempty"`
	Version     int    `json:"version,omitempty"`
	DateCreated string `json:"date_created,omitempty"`
	DateUpdated string `json:"date_updated,omitempty"`
}

type UploadStatus string

const (
	UploadStatusPending    UploadStatus = "pending"
	UploadStatusUploaded   UploadStatus = "uploaded"
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusError      UploadStatus = "error"
	UploadStatusComplete   UploadStatus = "complete"
)

type VideoUpload struct {
	Record
	FilePath         string       `json:"file_path"`
	Filename         string       `json:"filename"`
	OriginalFilename string       `json:"original_filename,omitempty"`
	MimeType         string       `json:"mime_type"`
	UploadStatus     UploadStatus `json:"upload_status"`
	UserID           int          `json:"user_id"`
}

type VideoMetadata struct {
	Record
	UploadID   int64   `json:"upload_id"`
	Duration   float64 `json:"duration"`
	FileSize   int64   `json:"file_size"`
	Resolution string  `json:"resolution"`
}

// VideoStatus is the single source of truth for the pipeline stage of an upload.
type VideoStatus struct {
	Record
	UploadID     int64               `json:"upload_id"`
	Status       ProcessingStatus    `json:"status"`
	ErrorMessage string              `json:"error_message,omitempty"`
	Platforms    []Platform          `json:"platforms,omitempty"`
	Descriptions map[Platform]string `json:"descriptions,omitempty"`
}

// HasPlatform reports whether p was already published for this video.
func (s *VideoStatus) HasPlatform(p Platform) bool {
	for _, existing := range s.Platforms {
		if existing == p {
			return true
		}
	}
	return false
}

// VideoDetails is the partial aggregate served by the video detail route.
// Every field but Upload is optional.
type VideoDetails struct {
	Upload           *VideoUpload         `json:"upload"`
	Metadata         *VideoMetadata       `json:"metadata,omitempty"`
	Status           *VideoStatus         `json:"status,omitempty"`
	TranscriptionJob *TranscriptionJob    `json:"transcriptionJob,omitempty"`
	Transcription    *TranscriptionResult `json:"transcription,omitempty"`
	Description      *AiDescription       `json:"description,omitempty"`
	Posts            []PostJob            `json:"posts,omitempty"`
}

// TranscriptionRequestMessage is queued after an upload so the processing stage
// can probe the file and submit it to the speech-to-text provider.
type TranscriptionRequestMessage struct {
	UserID           int    `json:"user_id"`
	UploadID         int64  `json:"upload_id"`
	UploadUUID       string `json:"upload_uuid"`
	StatusUUID       string `json:"status_uuid"`
	VideoPath        string `json:"video_path"`
	MediaURL         string `json:"media_url"`
	OriginalFilename string `json:"original_filename"`
	FileSize         int64  `json:"file_size,omitempty"`
	RequestedAt      int64  `json:"requested_at"`
}
