package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audio-ingest/constant"
	"audio-ingest/dto"
	"audio-ingest/entities"
	"audio-ingest/middleware"
	"audio-ingest/pkg/auth"
	"audio-ingest/pkg/events"
	"audio-ingest/service"
)

type stubIngest struct {
	importFn func(ctx context.Context, userID uuid.UUID, req dto.ImportRequest) (*dto.IngestResult, error)
	uploadFn func(ctx context.Context, userID uuid.UUID, payload []byte, metadataJSON string) (*dto.IngestResult, error)
}

func (s *stubIngest) ImportFromURL(ctx context.Context, userID uuid.UUID, req dto.ImportRequest) (*dto.IngestResult, error) {
	return s.importFn(ctx, userID, req)
}

func (s *stubIngest) UploadDirect(ctx context.Context, userID uuid.UUID, payload []byte, metadataJSON string) (*dto.IngestResult, error) {
	return s.uploadFn(ctx, userID, payload, metadataJSON)
}

type stubRecordings struct {
	deleteFn func(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
	retryFn  func(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
}

func (s *stubRecordings) List(ctx context.Context, userID uuid.UUID) ([]*entities.Recording, error) {
	return nil, nil
}

func (s *stubRecordings) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	return s.deleteFn(ctx, userID, id)
}

func (s *stubRecordings) Retry(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	return s.retryFn(ctx, userID, id)
}

func (s *stubRecordings) PlaybackURL(ctx context.Context, userID uuid.UUID, id uuid.UUID) (string, error) {
	return "", nil
}

func (s *stubRecordings) Download(ctx context.Context, userID uuid.UUID, id uuid.UUID) ([]byte, string, error) {
	return nil, "", nil
}

func testRouter(t *testing.T, ingest service.IngestService, recordings service.RecordingService) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService := auth.NewJWTService("test-secret")
	token, err := jwtService.Generate(uuid.New(), "user@example.com", time.Hour)
	require.NoError(t, err)

	h := NewHandler(ingest, recordings, events.NewHub(), 100<<20)

	r := gin.New()
	authed := r.Group("/", middleware.Principal(jwtService))
	authed.POST("/import", h.Import)
	authed.POST("/recorded", h.UploadRecorded)
	authed.DELETE("/recordings/:id", h.Delete)
	authed.POST("/recordings/:id/retry", h.Retry)

	return r, token
}

func doJSON(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestImportRequiresPrincipal(t *testing.T) {
	r, _ := testRouter(t, &stubIngest{}, &stubRecordings{})

	w := doJSON(r, http.MethodPost, "/import", "", dto.ImportRequest{Source: constant.SourceSubstack, URL: "https://x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "error")

	req := httptest.NewRequest(http.MethodPost, "/import", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusUnauthorized, w2.Code)
}

func TestImportSuccessShape(t *testing.T) {
	id := uuid.New()
	ingest := &stubIngest{
		importFn: func(ctx context.Context, userID uuid.UUID, req dto.ImportRequest) (*dto.IngestResult, error) {
			assert.NotEqual(t, uuid.Nil, userID)
			assert.Equal(t, constant.SourceSubstack, req.Source)
			return &dto.IngestResult{ID: id, Status: constant.RecordingStatusQueued, Message: "Audio file imported successfully"}, nil
		},
	}
	r, token := testRouter(t, ingest, &stubRecordings{})

	w := doJSON(r, http.MethodPost, "/import", token, dto.ImportRequest{Source: constant.SourceSubstack, URL: "https://example.com/a.mp3"})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		ID      uuid.UUID `json:"id"`
		Status  string    `json:"status"`
		Message string    `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, id, body.ID)
	assert.Equal(t, "queued", body.Status)
	assert.NotEmpty(t, body.Message)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid input", service.ErrInvalidInput, http.StatusBadRequest},
		{"too large", service.ErrPayloadTooLarge, http.StatusBadRequest},
		{"fetch failed", service.ErrFetchFailed, http.StatusBadRequest},
		{"storage failed", service.ErrStorageWriteFailed, http.StatusInternalServerError},
		{"db failed", service.ErrDatabaseWriteFailed, http.StatusInternalServerError},
		{"unanticipated", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ingest := &stubIngest{
				importFn: func(ctx context.Context, userID uuid.UUID, req dto.ImportRequest) (*dto.IngestResult, error) {
					return nil, tc.err
				},
			}
			r, token := testRouter(t, ingest, &stubRecordings{})

			w := doJSON(r, http.MethodPost, "/import", token, dto.ImportRequest{Source: constant.SourceGmail, URL: "https://example.com/a.mp3"})
			assert.Equal(t, tc.code, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestUploadRecordedPassesMultipartFields(t *testing.T) {
	payload := []byte("webm-bytes")
	metadata := `{"durationMs":1000,"sampleRate":44100,"channels":2}`

	var gotPayload []byte
	var gotMetadata string
	ingest := &stubIngest{
		uploadFn: func(ctx context.Context, userID uuid.UUID, p []byte, m string) (*dto.IngestResult, error) {
			gotPayload, gotMetadata = p, m
			return &dto.IngestResult{ID: uuid.New(), Status: constant.RecordingStatusQueued, Message: "Recording uploaded successfully"}, nil
		},
	}
	r, token := testRouter(t, ingest, &stubRecordings{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "recording.webm")
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("metadata", metadata))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/recorded", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, payload, gotPayload)
	assert.Equal(t, metadata, gotMetadata)
}

func TestUploadRecordedMissingFile(t *testing.T) {
	ingest := &stubIngest{
		uploadFn: func(ctx context.Context, userID uuid.UUID, p []byte, m string) (*dto.IngestResult, error) {
			assert.Empty(t, p)
			return nil, service.ErrInvalidInput
		},
	}
	r, token := testRouter(t, ingest, &stubRecordings{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("metadata", `{"durationMs":0,"sampleRate":0,"channels":0}`))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/recorded", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRetryMapsNotFound(t *testing.T) {
	recordings := &stubRecordings{
		retryFn: func(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
			return service.ErrNotFound
		},
	}
	r, token := testRouter(t, &stubIngest{}, recordings)

	w := doJSON(r, http.MethodPost, "/recordings/"+uuid.NewString()+"/retry", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecordingIDMustBeUUID(t *testing.T) {
	r, token := testRouter(t, &stubIngest{}, &stubRecordings{})

	w := doJSON(r, http.MethodDelete, "/recordings/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
