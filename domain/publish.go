// domain/publish.go
package domain

import "strings"

type Platform string

const (
	PlatformYouTube   Platform = "YOUTUBE"
	PlatformTwitter   Platform = "TWITTER"
	PlatformFacebook  Platform = "FACEBOOK"
	PlatformInstagram Platform = "INSTAGRAM"
	PlatformTikTok    Platform = "TIKTOK"
	PlatformLinkedIn  Platform = "LINKEDIN"
)

var Platforms = []Platform{
	PlatformYouTube,
	PlatformTwitter,
	PlatformFacebook,
	PlatformInstagram,
	PlatformTikTok,
	PlatformLinkedIn,
}

func (p Platform) Valid() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// AccountKey is the lowercase name social accounts are stored under.
func (p Platform) AccountKey() string {
	return strings.ToLower(string(p))
}

type PostJobStatus int

const (
	PostJobScheduled  PostJobStatus = 1
	PostJobProcessing PostJobStatus = 2
	PostJobCompleted  PostJobStatus = 3
	PostJobError      PostJobStatus = 4
)

type PostJob struct {
	Record
	VideoUploadID int64         `json:"video_upload_id"`
	PlatformIDs   string        `json:"platform_ids"`
	ScheduledTime string        `json:"scheduled_time,omitempty"`
	Status        PostJobStatus `json:"status"`
	ErrorMessage  string        `json:"error_message,omitempty"`
}

type SocialAccount struct {
	Record
	UserID         int    `json:"user_id"`
	Platform       string `json:"platform"`
	PlatformUserID string `json:"platform_user_id,omitempty"`
	Username       string `json:"username"`
	AccessToken    string `json:"access_token"`
	RefreshToken   string `json:"refresh_token,omitempty"`
}

type PublishRequest struct {
	Platform    Platform
	VideoID     string
	Description string
	VideoURL    string
	AccessToken string
}
