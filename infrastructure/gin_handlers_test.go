package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitovidale/video-publisher-service/domain"
	"github.com/vitovidale/video-publisher-service/infrastructure/metrics"
	"github.com/vitovidale/video-publisher-service/infrastructure/recordstore"
	"github.com/vitovidale/video-publisher-service/repository"
	"github.com/vitovidale/video-publisher-service/usecase"
)

var testSecret = []byte("test-secret")

type fakeStorage struct{ saved []string }

func (s *fakeStorage) SaveUploadedFile(src io.Reader, originalFilename string) (string, string, error) {
	if _, err := io.Copy(io.Discard, src); err != nil {
		return "", "", err
	}
	name := "stored-" + originalFilename
	s.saved = append(s.saved, name)
	return name, "/data/" + name, nil
}
func (s *fakeStorage) DeleteFile(string) error           { return nil }
func (s *fakeStorage) PublicURL(filename string) string { return "http://localhost/uploads/" + filename }
func (s *fakeStorage) Probe(context.Context, string) (*domain.VideoMetadata, error) {
	return &domain.VideoMetadata{}, nil
}

type fakeQueue struct{ sent []domain.TranscriptionRequestMessage }

func (q *fakeQueue) PublishTranscriptionRequest(_ context.Context, m domain.TranscriptionRequestMessage) error {
	q.sent = append(q.sent, m)
	return nil
}

type fakeProvider struct{}

func (fakeProvider) Submit(context.Context, string) (*domain.TranscriptHandle, error) {
	return &domain.TranscriptHandle{ID: "tr", Status: domain.TranscriptQueued}, nil
}
func (fakeProvider) GetStatus(_ context.Context, id string) (*domain.TranscriptHandle, error) {
	return &domain.TranscriptHandle{ID: id, Status: domain.TranscriptProcessing}, nil
}
func (fakeProvider) GetCompleted(context.Context, string) (*domain.TranscriptHandle, error) {
	return nil, domain.ErrTranscriptNotCompleted
}

type fakeGenerator struct{}

func (fakeGenerator) BuildPrompt(transcript, platform, title string) string { return transcript }
func (fakeGenerator) Generate(context.Context, string) (string, error)      { return "generated", nil }

type fakePublisher struct{ err error }

func (p fakePublisher) Publish(context.Context, domain.PublishRequest) error { return p.err }

type harness struct {
	router  *gin.Engine
	store   *recordstore.MemoryStore
	videos  *repository.VideoRepository
	jobs    *repository.TranscriptionRepository
	storage *fakeStorage
	queue   *fakeQueue
}

func newHarness(t *testing.T, publishErr error) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := recordstore.NewMemoryStore()
	videos := repository.NewVideoRepository(store)
	jobs := repository.NewTranscriptionRepository(store)
	social := repository.NewSocialRepository(store)
	storage := &fakeStorage{}
	queue := &fakeQueue{}
	m := metrics.Nop{}

	handlers := &VideoHandlers{
		UploadVideoUC: &usecase.UploadVideoUseCase{Videos: videos, MessageQueue: queue, FileStorage: storage, Metrics: m},
		ListVideosUC:  &usecase.ListVideosUseCase{Videos: videos},
		GetVideoUC:    &usecase.GetVideoUseCase{Videos: videos, Transcriptions: jobs, Social: social},
		DeleteVideoUC: &usecase.DeleteVideoUseCase{Videos: videos, FileStorage: storage},
		PublishVideoUC: &usecase.PublishVideoUseCase{
			Videos: videos, Transcriptions: jobs, Social: social,
			Publisher: fakePublisher{err: publishErr}, FileStorage: storage, Metrics: m,
		},
		TranscriptionWebhookUC: &usecase.TranscriptionWebhookUseCase{
			Videos: videos, Transcriptions: jobs, Provider: fakeProvider{}, Generator: fakeGenerator{}, Metrics: m,
		},
		TranscriptionStatusUC: &usecase.GetTranscriptionStatusUseCase{Provider: fakeProvider{}},
		WebhookSecret:         "hook-secret",
		WebhookHeader:         "X-Webhook-Secret",
		MaxUploadSize:         usecase.DefaultMaxUploadSize,
	}

	return &harness{
		router:  NewRouter(handlers, RouterOptions{JWTSecret: testSecret}),
		store:   store,
		videos:  videos,
		jobs:    jobs,
		storage: storage,
		queue:   queue,
	}
}

func (h *harness) do(req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func (h *harness) seed(t *testing.T, state domain.ProcessingStatus) *domain.VideoUpload {
	t.Helper()
	ctx := context.Background()
	upload := &domain.VideoUpload{Filename: "v.mp4", FilePath: "/data/v.mp4", UserID: 1}
	require.NoError(t, h.videos.CreateUpload(ctx, upload))
	require.NoError(t, h.videos.CreateStatus(ctx, &domain.VideoStatus{UploadID: upload.ID, Status: state}))
	return upload
}

func multipartUpload(t *testing.T, filename, contentType string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="video"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("fake video bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/videos/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func signedToken(t *testing.T, userID int, secret []byte) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: "alice",
		UserID:   userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestUploadVideoHandler(t *testing.T) {
	h := newHarness(t, nil)

	req := multipartUpload(t, "clip.mp4", "video/mp4")
	req.Header.Set("Authorization", "Bearer "+signedToken(t, 42, testSecret))
	w, body := h.do(req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["uuid"])
	assert.Equal(t, "pending", body["status"])
	require.Len(t, h.queue.sent, 1)
	assert.Equal(t, 42, h.queue.sent[0].UserID)
}

func TestUploadVideoHandler_Rejections(t *testing.T) {
	h := newHarness(t, nil)

	w, body := h.do(multipartUpload(t, "doc.pdf", "application/pdf"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Empty(t, h.storage.saved)

	empty := httptest.NewRequest(http.MethodPost, "/api/videos/upload", strings.NewReader(""))
	w, _ = h.do(empty)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	bad := multipartUpload(t, "clip.mp4", "video/mp4")
	bad.Header.Set("Authorization", "Bearer "+signedToken(t, 1, []byte("other-secret")))
	w, _ = h.do(bad)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListAndGetVideoHandlers(t *testing.T) {
	h := newHarness(t, nil)
	upload := h.seed(t, domain.StatusReady)

	w, body := h.do(httptest.NewRequest(http.MethodGet, "/api/videos?userId=1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["videos"], 1)

	w, _ = h.do(httptest.NewRequest(http.MethodGet, "/api/videos?userId=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = h.do(httptest.NewRequest(http.MethodGet, "/api/videos/"+upload.UUID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	video := body["video"].(map[string]any)
	assert.Contains(t, video, "upload")
	assert.Equal(t, "ready", video["status"].(map[string]any)["status"])

	w, body = h.do(httptest.NewRequest(http.MethodGet, "/api/videos/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestDeleteVideoHandler(t *testing.T) {
	h := newHarness(t, nil)
	upload := h.seed(t, domain.StatusReady)

	w, _ := h.do(httptest.NewRequest(http.MethodDelete, "/api/videos/"+upload.UUID+"/delete", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = h.do(httptest.NewRequest(http.MethodDelete, "/api/videos/"+upload.UUID+"/delete", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func publishRequestBody(platform, description string) io.Reader {
	raw, _ := json.Marshal(map[string]string{"platform": platform, "description": description})
	return bytes.NewReader(raw)
}

func TestPublishVideoHandler(t *testing.T) {
	h := newHarness(t, nil)
	ready := h.seed(t, domain.StatusReady)
	pending := h.seed(t, domain.StatusPending)

	w, body := h.do(httptest.NewRequest(http.MethodPost, "/api/videos/"+ready.UUID+"/publish", publishRequestBody("YOUTUBE", "hi")))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "YOUTUBE", body["platform"])

	w, _ = h.do(httptest.NewRequest(http.MethodPost, "/api/videos/"+pending.UUID+"/publish", publishRequestBody("YOUTUBE", "hi")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = h.do(httptest.NewRequest(http.MethodPost, "/api/videos/"+ready.UUID+"/publish", publishRequestBody("FRIENDSTER", "hi")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = h.do(httptest.NewRequest(http.MethodPost, "/api/videos/missing/publish", publishRequestBody("YOUTUBE", "hi")))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = h.do(httptest.NewRequest(http.MethodPost, "/api/videos/"+ready.UUID+"/publish", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublishVideoHandler_AdapterFailure(t *testing.T) {
	h := newHarness(t, domain.ErrPublishFailed)
	ready := h.seed(t, domain.StatusReady)

	w, body := h.do(httptest.NewRequest(http.MethodPost, "/api/videos/"+ready.UUID+"/publish", publishRequestBody("TIKTOK", "hi")))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, false, body["success"])

	status, err := h.videos.FindStatusByUploadID(context.Background(), ready.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, status.Status)
}

func webhookRequest(body string, secret string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/transcription", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Webhook-Secret", secret)
	}
	return req
}

func TestTranscriptionWebhookHandler(t *testing.T) {
	h := newHarness(t, nil)
	upload := h.seed(t, domain.StatusTranscribing)
	require.NoError(t, h.jobs.CreateJob(context.Background(), &domain.TranscriptionJob{
		VideoUploadID: upload.ID, ProviderJobID: "tr-1", Status: domain.JobStatusProcessing,
	}))

	w, _ := h.do(webhookRequest(`{"transcript_id":"tr-1","status":"queued"}`, ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := h.do(webhookRequest(`{"transcript_id":"tr-1","status":"queued"}`, "hook-secret"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "received", body["status"])

	w, _ = h.do(webhookRequest(`not json`, "hook-secret"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = h.do(webhookRequest(`{"transcript_id":"unknown","status":"completed","text":"x"}`, "hook-secret"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = h.do(webhookRequest(`{"transcript_id":"tr-1","status":"completed","text":"hello"}`, "hook-secret"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "processed", body["status"])

	status, err := h.videos.FindStatusByUploadID(context.Background(), upload.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, status.Status)
}

func TestTranscriptionStatusHandler(t *testing.T) {
	h := newHarness(t, nil)
	w, body := h.do(httptest.NewRequest(http.MethodGet, "/api/transcriptions/tr-5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "processing", body["transcript"].(map[string]any)["status"])
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ok", HealthHandler(HealthCheck{Name: "database", Check: func(context.Context) error { return nil }}))
	router.GET("/down", HealthHandler(HealthCheck{Name: "rabbitmq", Check: func(context.Context) error { return io.EOF }}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"UP"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/down", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"rabbitmq":"error: EOF"`)
}
