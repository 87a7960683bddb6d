// infrastructure/gin_handlers.go
package infrastructure

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vitovidale/video-publisher-service/domain"
	"github.com/vitovidale/video-publisher-service/usecase"
)

const defaultUserID = 1

type VideoHandlers struct {
	UploadVideoUC          *usecase.UploadVideoUseCase
	ListVideosUC           *usecase.ListVideosUseCase
	GetVideoUC             *usecase.GetVideoUseCase
	DeleteVideoUC          *usecase.DeleteVideoUseCase
	PublishVideoUC         *usecase.PublishVideoUseCase
	TranscriptionWebhookUC *usecase.TranscriptionWebhookUseCase
	TranscriptionStatusUC  *usecase.GetTranscriptionStatusUseCase

	// WebhookSecret, when set, must arrive in the WebhookHeader request header.
	WebhookSecret string
	WebhookHeader string
	MaxUploadSize int64
}

func (h *VideoHandlers) UploadVideoHandler(c *gin.Context) {
	if h.MaxUploadSize > 0 {
		// Leave room for the multipart envelope; the use case enforces the exact limit.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadSize+1<<20)
	}

	userID, err := resolveUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	fileHeader, err := c.FormFile("video")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, domain.Validationf("file too large"))
			return
		}
		respondError(c, domain.Validationf("no video file uploaded"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, fmt.Errorf("failed to open uploaded file: %w", err))
		return
	}
	defer file.Close()

	output, err := h.UploadVideoUC.Execute(c.Request.Context(), usecase.UploadVideoInput{
		UserID:           userID,
		FileContent:      file,
		OriginalFilename: fileHeader.Filename,
		MimeType:         fileHeader.Header.Get("Content-Type"),
		Size:             fileHeader.Size,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     output.Message,
		"uuid":        output.UUID,
		"status_uuid": output.StatusUUID,
		"status":      output.Status,
	})
}

func (h *VideoHandlers) ListVideosHandler(c *gin.Context) {
	userID, err := resolveUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}
	videos, err := h.ListVideosUC.Execute(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "videos": videos})
}

func (h *VideoHandlers) GetVideoHandler(c *gin.Context) {
	details, err := h.GetVideoUC.Execute(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "video": details})
}

func (h *VideoHandlers) DeleteVideoHandler(c *gin.Context) {
	if err := h.DeleteVideoUC.Execute(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Video deleted successfully"})
}

type publishRequest struct {
	Platform    string `json:"platform" binding:"required"`
	Description string `json:"description"`
}

func (h *VideoHandlers) PublishVideoHandler(c *gin.Context) {
	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.Validationf("invalid publish request: %v", err))
		return
	}
	userID, err := resolveUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	output, err := h.PublishVideoUC.Execute(c.Request.Context(), usecase.PublishVideoInput{
		UUID:        c.Param("id"),
		Platform:    req.Platform,
		Description: req.Description,
		UserID:      userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  output.Message,
		"platform": output.Platform,
		"status":   output.Status,
	})
}

func (h *VideoHandlers) TranscriptionWebhookHandler(c *gin.Context) {
	if h.WebhookSecret != "" {
		got := c.GetHeader(h.WebhookHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.WebhookSecret)) != 1 {
			respondError(c, fmt.Errorf("%w: bad webhook secret", domain.ErrUnauthorized))
			return
		}
	}

	var payload domain.TranscriptionWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, domain.Validationf("invalid webhook payload: %v", err))
		return
	}

	output, err := h.TranscriptionWebhookUC.Execute(c.Request.Context(), payload)
	if err != nil {
		respondError(c, err)
		return
	}
	body := gin.H{"success": true, "status": output.Status}
	if output.VideoStatus != nil {
		body["video_status"] = output.VideoStatus
	}
	c.JSON(http.StatusOK, body)
}

func (h *VideoHandlers) TranscriptionStatusHandler(c *gin.Context) {
	handle, err := h.TranscriptionStatusUC.Execute(c.Request.Context(), c.Param("transcriptId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "transcript": handle})
}

// resolveUserID prefers the authenticated user, then the userId parameter.
func resolveUserID(c *gin.Context) (int, error) {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(int); ok {
			return id, nil
		}
	}
	raw := c.Query("userId")
	if raw == "" {
		raw = c.PostForm("userId")
	}
	if raw == "" {
		return defaultUserID, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, domain.Validationf("invalid userId %q", raw)
	}
	return id, nil
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotReady):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		log.Printf("ERROR: %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(code, gin.H{"success": false, "error": err.Error()})
}
