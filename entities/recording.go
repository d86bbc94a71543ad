package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"audio-ingest/constant"
)

// RecordingMetadata is stored as a jsonb blob on the recordings row.
// Duration, sample rate and channel count are 0 until the external
// analysis job back-fills them. OriginalURL is set for imports only.
type RecordingMetadata struct {
	DurationMs  int    `json:"durationMs"`
	SampleRate  int    `json:"sampleRate"`
	Channels    int    `json:"channels"`
	FileSize    int64  `json:"fileSize"`
	OriginalURL string `json:"originalUrl,omitempty"`
}

type Recording struct {
	ID           uuid.UUID                                 `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID       uuid.UUID                                 `json:"user_id" gorm:"type:uuid;not null;index:idx_recordings_user_id"`
	FilePath     string                                    `json:"file_path" gorm:"type:varchar(500);not null"`
	Source       constant.RecordingSource                  `json:"source" gorm:"type:varchar(20);not null"`
	Metadata     datatypes.JSONType[RecordingMetadata]     `json:"metadata" gorm:"type:jsonb"`
	Status       constant.RecordingStatus                  `json:"status" gorm:"type:varchar(20);not null;default:'queued';index:idx_recordings_status"`
	CreatedAt    time.Time                                 `json:"created_at" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
	StartedAt    *time.Time                                `json:"started_at" gorm:"type:timestamptz"`
	FinishedAt   *time.Time                                `json:"finished_at" gorm:"type:timestamptz"`
	ErrorMessage *string                                   `json:"error_message" gorm:"type:text"`
}

func (Recording) TableName() string {
	return "recordings"
}
