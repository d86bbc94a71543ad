package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"audio-ingest/constant"
	"audio-ingest/entities"
)

type RecordingRepository interface {
	Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error
	Insert(ctx context.Context, recording *entities.Recording) error
	FindById(ctx context.Context, id uuid.UUID) (*entities.Recording, error)
	ListByUser(ctx context.Context, userId uuid.UUID) ([]*entities.Recording, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ResetForRetry(ctx context.Context, id uuid.UUID) error
	ExistsByFilePath(ctx context.Context, filePath string) (bool, error)
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) RecordingRepository {
	gormDB, _ := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	return &repo{
		db: gormDB,
	}
}

func (r *repo) getDB() *gorm.DB {
	return r.db
}

func (r *repo) Transaction(ctx context.Context, callback func(ctx context.Context) error, opts ...*sql.TxOptions) error {
	return r.getDB().Transaction(func(tx *gorm.DB) error {
		return callback(ctx)
	}, opts...)
}

func (r *repo) Insert(ctx context.Context, recording *entities.Recording) error {
	return r.getDB().WithContext(ctx).Create(recording).Error
}

func (r *repo) FindById(ctx context.Context, id uuid.UUID) (*entities.Recording, error) {
	recording := &entities.Recording{}
	err := r.getDB().WithContext(ctx).First(recording, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	return recording, nil
}

func (r *repo) ListByUser(ctx context.Context, userId uuid.UUID) ([]*entities.Recording, error) {
	var recordings []*entities.Recording
	err := r.getDB().WithContext(ctx).Where("user_id = ?", userId).Order("created_at DESC").Find(&recordings).Error
	if err != nil {
		return nil, err
	}
	return recordings, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.getDB().WithContext(ctx).Delete(&entities.Recording{}, "id = ?", id).Error
}

// ResetForRetry performs the error -> queued transition: status back to
// queued, error message and processing timestamps cleared, everything else
// untouched. The update is conditional on the current status so a
// concurrent job transition cannot be clobbered.
func (r *repo) ResetForRetry(ctx context.Context, id uuid.UUID) error {
	updates := map[string]interface{}{
		"status":        constant.RecordingStatusQueued,
		"error_message": nil,
		"started_at":    nil,
		"finished_at":   nil,
	}
	return r.getDB().WithContext(ctx).
		Model(&entities.Recording{}).
		Where("id = ? AND status = ?", id, constant.RecordingStatusError).
		Updates(updates).Error
}

func (r *repo) ExistsByFilePath(ctx context.Context, filePath string) (bool, error) {
	var count int64
	err := r.getDB().WithContext(ctx).
		Model(&entities.Recording{}).
		Where("file_path = ?", filePath).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
