package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"audio-ingest/config"
	"audio-ingest/constant"
	"audio-ingest/dto"
	"audio-ingest/entities"
	"audio-ingest/pkg/events"
	"audio-ingest/pkg/storage"
	"audio-ingest/repository"
)

// Sent on remote fetches so hosts that reject unknown clients still serve
// the file.
const fetchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

const directUploadContentType = "audio/webm"

// IngestService turns raw audio bytes into a tracked recording. Both
// variants share one shape: validate, obtain bytes, build the storage key,
// write the object, insert the metadata row, and compensate with a
// best-effort object delete if the insert fails. Records are always
// created queued; advancing them is the analysis job's business.
type IngestService interface {
	ImportFromURL(ctx context.Context, userID uuid.UUID, req dto.ImportRequest) (*dto.IngestResult, error)
	UploadDirect(ctx context.Context, userID uuid.UUID, payload []byte, metadataJSON string) (*dto.IngestResult, error)
}

type ingestService struct {
	repo   repository.RecordingRepository
	store  storage.ObjectStore
	bus    events.Publisher
	client *http.Client
	limits config.Limits
}

func NewIngestService(repo repository.RecordingRepository, store storage.ObjectStore, bus events.Publisher, limits config.Limits) IngestService {
	return &ingestService{
		repo:  repo,
		store: store,
		bus:   bus,
		client: &http.Client{
			Timeout: limits.FetchTimeout,
		},
		limits: limits,
	}
}

func (s *ingestService) ImportFromURL(ctx context.Context, userID uuid.UUID, req dto.ImportRequest) (*dto.IngestResult, error) {
	if !constant.ImportableSource(req.Source) {
		return nil, errors.Join(ErrInvalidInput, fmt.Errorf("source %q is not importable", req.Source))
	}
	if req.URL == "" {
		return nil, errors.Join(ErrInvalidInput, errors.New("url is empty"))
	}
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		return nil, errors.Join(ErrInvalidInput, errors.New("url must be http or https"))
	}

	body, contentType, err := s.fetchAudio(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	key := BuildObjectKey(userID, time.Now(), uuid.New(), req.Source, ExtensionForContentType(contentType))
	metadata := entities.RecordingMetadata{
		FileSize:    int64(len(body)),
		OriginalURL: req.URL,
	}

	id, err := s.persist(ctx, userID, req.Source, key, body, contentType, metadata)
	if err != nil {
		return nil, err
	}

	return &dto.IngestResult{
		ID:      id,
		Status:  constant.RecordingStatusQueued,
		Message: "Audio file imported successfully",
	}, nil
}

func (s *ingestService) UploadDirect(ctx context.Context, userID uuid.UUID, payload []byte, metadataJSON string) (*dto.IngestResult, error) {
	if len(payload) == 0 || metadataJSON == "" {
		return nil, errors.Join(ErrInvalidInput, errors.New("missing file or metadata"))
	}
	if int64(len(payload)) > s.limits.MaxUploadBytes {
		return nil, ErrPayloadTooLarge
	}

	var declared dto.RecordMetadata
	if err := json.Unmarshal([]byte(metadataJSON), &declared); err != nil {
		return nil, errors.Join(ErrInvalidInput, fmt.Errorf("invalid metadata format: %w", err))
	}

	key := BuildObjectKey(userID, time.Now(), uuid.New(), constant.SourceWeb, "webm")

	// The caller's declared size is never trusted; the stored value is the
	// actual received byte length.
	metadata := entities.RecordingMetadata{
		DurationMs: declared.DurationMs,
		SampleRate: declared.SampleRate,
		Channels:   declared.Channels,
		FileSize:   int64(len(payload)),
	}

	id, err := s.persist(ctx, userID, constant.SourceWeb, key, payload, directUploadContentType, metadata)
	if err != nil {
		return nil, err
	}

	return &dto.IngestResult{
		ID:      id,
		Status:  constant.RecordingStatusQueued,
		Message: "Recording uploaded successfully",
	}, nil
}

// fetchAudio retrieves the remote file, following redirects. Non-success
// statuses, non-audio content types and transport errors all fold into
// ErrFetchFailed; callers get one generic outcome, details go to the log.
func (s *ingestService) fetchAudio(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", errors.Join(ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", errors.Join(ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", errors.Join(ErrFetchFailed, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status))
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "audio") {
		return nil, "", errors.Join(ErrFetchFailed, fmt.Errorf("invalid content type: %q", contentType))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.limits.MaxUploadBytes+1))
	if err != nil {
		return nil, "", errors.Join(ErrFetchFailed, err)
	}
	if int64(len(body)) > s.limits.MaxUploadBytes {
		return nil, "", ErrPayloadTooLarge
	}

	return body, contentType, nil
}

// persist runs the shared tail of both variants: object write, metadata
// insert, compensating delete. An insert failure removes the just-written
// object so no row ever points at nothing and the common failure path
// leaves no orphaned object behind.
func (s *ingestService) persist(ctx context.Context, userID uuid.UUID, source constant.RecordingSource, key string, body []byte, contentType string, metadata entities.RecordingMetadata) (uuid.UUID, error) {
	if err := s.store.Put(ctx, key, body, contentType); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("file_path", key).Msg("storage upload failed")
		return uuid.Nil, errors.Join(ErrStorageWriteFailed, err)
	}

	recording := &entities.Recording{
		UserID:   userID,
		FilePath: key,
		Source:   source,
		Metadata: datatypes.NewJSONType(metadata),
		Status:   constant.RecordingStatusQueued,
	}
	if err := s.repo.Insert(ctx, recording); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("file_path", key).Msg("metadata insert failed, removing uploaded object")
		if removeErr := s.store.Remove(ctx, key); removeErr != nil {
			zerolog.Ctx(ctx).Error().Err(removeErr).Str("file_path", key).Msg("compensating delete failed")
		}
		return uuid.Nil, errors.Join(ErrDatabaseWriteFailed, err)
	}

	if s.bus != nil {
		_ = s.bus.Publish(ctx, dto.ChangeEvent{
			Op:          dto.ChangeOpInsert,
			RecordingID: recording.ID,
			At:          time.Now().UTC(),
		})
	}

	return recording.ID, nil
}
