// infrastructure/storage/local.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/vitovidale/video-publisher-service/domain"
)

// LocalStorage keeps uploads on the local disk and serves them under PublicBaseURL/uploads.
type LocalStorage struct {
	Dir           string
	PublicBaseURL string
	// FFprobePath is the ffprobe binary used by Probe.
	FFprobePath string
}

func NewLocalStorage(dir, publicBaseURL string) *LocalStorage {
	return &LocalStorage{
		Dir:           dir,
		PublicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		FFprobePath:   "ffprobe",
	}
}

// SaveUploadedFile writes src under a fresh UUID name that keeps the original extension.
func (s *LocalStorage) SaveUploadedFile(src io.Reader, originalFilename string) (string, string, error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	filename := uuid.NewString() + strings.ToLower(filepath.Ext(originalFilename))
	path := filepath.Join(s.Dir, filename)

	dst, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to create video file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", "", fmt.Errorf("failed to save video file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("failed to save video file: %w", err)
	}
	return filename, path, nil
}

// DeleteFile removes the file; a file that is already gone is not an error.
func (s *LocalStorage) DeleteFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

func (s *LocalStorage) PublicURL(filename string) string {
	return s.PublicBaseURL + "/uploads/" + filename
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

// Probe reads duration, size and resolution with ffprobe.
func (s *LocalStorage) Probe(ctx context.Context, path string) (*domain.VideoMetadata, error) {
	cmd := exec.CommandContext(ctx, s.FFprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	cmd.Stderr = os.Stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}
	return parseProbe(out)
}

func parseProbe(raw []byte) (*domain.VideoMetadata, error) {
	var probe probeOutput
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	metadata := &domain.VideoMetadata{}
	if probe.Format.Duration != "" {
		duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", probe.Format.Duration, err)
		}
		metadata.Duration = duration
	}
	if probe.Format.Size != "" {
		size, err := strconv.ParseInt(probe.Format.Size, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid size %q: %w", probe.Format.Size, err)
		}
		metadata.FileSize = size
	}
	for _, stream := range probe.Streams {
		if stream.CodecType == "video" && stream.Width > 0 {
			metadata.Resolution = fmt.Sprintf("%dx%d", stream.Width, stream.Height)
			break
		}
	}
	return metadata, nil
}
