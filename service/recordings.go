package service

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"audio-ingest/config"
	"audio-ingest/constant"
	"audio-ingest/dto"
	"audio-ingest/entities"
	"audio-ingest/pkg/events"
	"audio-ingest/pkg/storage"
	"audio-ingest/repository"
)

// RecordingService is the listing/management side: owner-scoped reads and
// point operations against the storage and database collaborators.
type RecordingService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*entities.Recording, error)
	Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
	Retry(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
	PlaybackURL(ctx context.Context, userID uuid.UUID, id uuid.UUID) (string, error)
	Download(ctx context.Context, userID uuid.UUID, id uuid.UUID) ([]byte, string, error)
}

type recordingService struct {
	repo  repository.RecordingRepository
	store storage.ObjectStore
	bus   events.Publisher
	ttl   time.Duration
}

func NewRecordingService(repo repository.RecordingRepository, store storage.ObjectStore, bus events.Publisher, limits config.Limits) RecordingService {
	return &recordingService{
		repo:  repo,
		store: store,
		bus:   bus,
		ttl:   limits.SignedURLTTL,
	}
}

// findOwned resolves id for userID. A record owned by someone else is
// indistinguishable from a missing one.
func (s *recordingService) findOwned(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*entities.Recording, error) {
	recording, err := s.repo.FindById(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if recording.UserID != userID {
		return nil, ErrNotFound
	}
	return recording, nil
}

func (s *recordingService) List(ctx context.Context, userID uuid.UUID) ([]*entities.Recording, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Delete removes both the storage object and the row. The object delete is
// best-effort: a failure there is logged and the row still goes away, the
// reconciliation sweep picks up the leftover object later.
func (s *recordingService) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	recording, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.store.Remove(ctx, recording.FilePath); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("file_path", recording.FilePath).Msg("failed to remove storage object")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, dto.ChangeOpDelete, id)
	return nil
}

// Retry performs the user-triggered error -> queued transition. Any other
// starting status is rejected; the state machine defines no other way back
// to queued.
func (s *recordingService) Retry(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	recording, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return err
	}

	if recording.Status != constant.RecordingStatusError {
		return errors.Join(ErrInvalidInput, errors.New("only failed recordings can be retried"))
	}

	if err := s.repo.ResetForRetry(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, dto.ChangeOpUpdate, id)
	return nil
}

func (s *recordingService) PlaybackURL(ctx context.Context, userID uuid.UUID, id uuid.UUID) (string, error) {
	recording, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return "", err
	}

	return s.store.SignedURL(ctx, recording.FilePath, s.ttl)
}

func (s *recordingService) Download(ctx context.Context, userID uuid.UUID, id uuid.UUID) ([]byte, string, error) {
	recording, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, "", err
	}

	data, err := s.store.Get(ctx, recording.FilePath)
	if err != nil {
		return nil, "", err
	}

	return data, path.Base(recording.FilePath), nil
}

func (s *recordingService) publish(ctx context.Context, op dto.ChangeOp, id uuid.UUID) {
	if s.bus == nil {
		return
	}
	_ = s.bus.Publish(ctx, dto.ChangeEvent{
		Op:          op,
		RecordingID: id,
		At:          time.Now().UTC(),
	})
}
