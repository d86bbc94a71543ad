package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"audio-ingest/dto"
	"audio-ingest/middleware"
	"audio-ingest/pkg/events"
	"audio-ingest/service"
)

type Handler struct {
	ingest         service.IngestService
	recordings     service.RecordingService
	hub            *events.Hub
	maxUploadBytes int64
}

func NewHandler(ingest service.IngestService, recordings service.RecordingService, hub *events.Hub, maxUploadBytes int64) *Handler {
	return &Handler{
		ingest:         ingest,
		recordings:     recordings,
		hub:            hub,
		maxUploadBytes: maxUploadBytes,
	}
}

// writeError maps a pipeline failure onto a status code and a flat
// single-line {error} body. Joined causes stay in the log.
func writeError(c *gin.Context, err error) {
	zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")

	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInvalidInput.Error()})
	case errors.Is(err, service.ErrPayloadTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrPayloadTooLarge.Error()})
	case errors.Is(err, service.ErrFetchFailed):
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrFetchFailed.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrNotFound.Error()})
	case errors.Is(err, service.ErrStorageWriteFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": service.ErrStorageWriteFailed.Error()})
	case errors.Is(err, service.ErrDatabaseWriteFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": service.ErrDatabaseWriteFailed.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// Import handles POST /import.
func (h *Handler) Import(c *gin.Context) {
	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.Join(service.ErrInvalidInput, err))
		return
	}

	result, err := h.ingest.ImportFromURL(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UploadRecorded handles POST /recorded: multipart "file" plus a
// JSON-encoded "metadata" field. The request body is capped before the
// form is parsed.
func (h *Handler) UploadRecorded(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)

	var payload []byte
	if fileHeader, err := c.FormFile("file"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			writeError(c, errors.Join(service.ErrInvalidInput, err))
			return
		}
		defer file.Close()
		payload, err = io.ReadAll(file)
		if err != nil {
			writeError(c, errors.Join(service.ErrInvalidInput, err))
			return
		}
	}
	metadataJSON := c.PostForm("metadata")

	result, err := h.ingest.UploadDirect(c.Request.Context(), middleware.UserID(c), payload, metadataJSON)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// List handles GET /recordings.
func (h *Handler) List(c *gin.Context) {
	recordings, err := h.recordings.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recordings": recordings})
}

// Delete handles DELETE /recordings/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := recordingID(c)
	if !ok {
		return
	}

	if err := h.recordings.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "message": "Recording deleted"})
}

// Retry handles POST /recordings/:id/retry.
func (h *Handler) Retry(c *gin.Context) {
	id, ok := recordingID(c)
	if !ok {
		return
	}

	if err := h.recordings.Retry(c.Request.Context(), middleware.UserID(c), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": "queued"})
}

// Play handles GET /recordings/:id/play and returns a signed playback URL.
func (h *Handler) Play(c *gin.Context) {
	id, ok := recordingID(c)
	if !ok {
		return
	}

	url, err := h.recordings.PlaybackURL(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Download handles GET /recordings/:id/download and streams the object.
func (h *Handler) Download(c *gin.Context) {
	id, ok := recordingID(c)
	if !ok {
		return
	}

	data, filename, err := h.recordings.Download(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func recordingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, errors.Join(service.ErrInvalidInput, err))
		return uuid.Nil, false
	}
	return id, true
}
