package dto

import (
	"time"

	"github.com/google/uuid"

	"audio-ingest/constant"
)

// ImportRequest is the body of POST /import.
type ImportRequest struct {
	Source constant.RecordingSource `json:"source"`
	URL    string                   `json:"url"`
}

// RecordMetadata is the caller-declared descriptor attached to a direct
// upload. FileSize is recomputed server-side from the received bytes and
// any caller-declared value is discarded.
type RecordMetadata struct {
	DurationMs int `json:"durationMs"`
	SampleRate int `json:"sampleRate"`
	Channels   int `json:"channels"`
}

// IngestResult acknowledges an accepted recording.
type IngestResult struct {
	ID      uuid.UUID                `json:"id"`
	Status  constant.RecordingStatus `json:"status"`
	Message string                   `json:"message"`
}

// ChangeOp labels a recordings-table mutation.
type ChangeOp string

const (
	ChangeOpInsert ChangeOp = "insert"
	ChangeOpUpdate ChangeOp = "update"
	ChangeOpDelete ChangeOp = "delete"
)

// ChangeEvent is published on every recordings mutation. Events carry the
// record id so subscribers can apply incremental updates instead of
// refetching the whole list; a full reload is only needed after a stream
// reconnect.
type ChangeEvent struct {
	Op          ChangeOp  `json:"op"`
	RecordingID uuid.UUID `json:"recordingId"`
	At          time.Time `json:"at"`
}
