package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/rmarek/headshot-service/internal/engine"
	"github.com/rmarek/headshot-service/internal/middleware"
	"github.com/rmarek/headshot-service/internal/model"
	"github.com/rmarek/headshot-service/internal/preset"
	"github.com/rmarek/headshot-service/internal/service"
)

// ProcessHandler handles portrait processing requests.
type ProcessHandler struct {
	processor      *service.ProcessService
	maxUploadBytes int64
	defaultPreset  string
	logger         *zap.Logger
}

// NewProcessHandler creates a new ProcessHandler. defaultPreset is applied
// when the request names no preset at all.
func NewProcessHandler(processor *service.ProcessService, maxUploadBytes int64, defaultPreset string, logger *zap.Logger) *ProcessHandler {
	return &ProcessHandler{
		processor:      processor,
		maxUploadBytes: maxUploadBytes,
		defaultPreset:  defaultPreset,
		logger:         logger,
	}
}

// Process runs one portrait through the pipeline and returns the processed
// image bytes.
// Route: POST /api/v1/process?preset=natural
//
// Multipart fields: "image" (required, the portrait) and "overrides"
// (optional JSON, same shape as a preset). The preset name may come from
// the query string or a form field; unknown names fall back to the default.
func (h *ProcessHandler) Process(c *gin.Context) {
	requestID := c.GetString(middleware.RequestIDKey)

	// Cap the body before any multipart parsing happens.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	file, _, err := c.Request.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "image exceeds upload limit of " + strconv.FormatInt(h.maxUploadBytes, 10) + " bytes",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "missing image field",
		})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "reading image: " + err.Error(),
		})
		return
	}

	var overrides *preset.Overrides
	if ovJSON := c.PostForm("overrides"); ovJSON != "" {
		overrides, err = preset.Decode([]byte(ovJSON), h.logger)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "invalid overrides: " + err.Error(),
			})
			return
		}
	}

	presetName := c.Query("preset")
	if presetName == "" {
		presetName = c.PostForm("preset")
	}
	if presetName == "" {
		presetName = h.defaultPreset
	}

	resp, err := h.processor.Process(c.Request.Context(), service.Request{
		RequestID: requestID,
		Preset:    presetName,
		Overrides: overrides,
		Image:     raw,
	})
	if err != nil {
		h.respondError(c, requestID, err)
		return
	}

	c.Header("X-Face-Found", strconv.FormatBool(resp.Report.Face != nil))
	if resp.Cached {
		c.Header("X-Cache", "HIT")
	}
	c.Data(http.StatusOK, contentType(resp.Format), resp.Output)
}

// respondError maps pipeline errors to HTTP codes. Client-side problems
// (bad config, undecodable image) get 4xx, transform failures get 500.
func (h *ProcessHandler) respondError(c *gin.Context, requestID string, err error) {
	switch {
	case errors.Is(err, preset.ErrConfigIncomplete):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrInvalidMetadata):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		var stageErr *engine.StageError
		if errors.As(err, &stageErr) {
			h.logger.Error("pipeline stage failed",
				zap.String("request_id", requestID),
				zap.String("stage", stageErr.Stage),
				zap.Error(stageErr.Err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "processing failed at stage " + stageErr.Stage,
			})
			return
		}
		h.logger.Error("processing failed",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func contentType(format string) string {
	switch format {
	case preset.FormatPNG:
		return "image/png"
	case preset.FormatWebP:
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
