package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"audio-ingest/constant"
)

// BuildObjectKey derives the storage key for a new recording:
//
//	{ownerID}/{YYYY}/{MM}/{DD}/{token}[_{source}].{ext}
//
// The date is taken in UTC and the token is freshly random per request, so
// two concurrent uploads from the same owner never collide. The _{source}
// segment is attached for imported recordings only; direct web uploads
// keep the historical suffix-free form.
func BuildObjectKey(ownerID uuid.UUID, now time.Time, token uuid.UUID, source constant.RecordingSource, ext string) string {
	now = now.UTC()
	if constant.ImportableSource(source) {
		return fmt.Sprintf("%s/%d/%02d/%02d/%s_%s.%s", ownerID, now.Year(), int(now.Month()), now.Day(), token, source, ext)
	}
	return fmt.Sprintf("%s/%d/%02d/%02d/%s.%s", ownerID, now.Year(), int(now.Month()), now.Day(), token, ext)
}
