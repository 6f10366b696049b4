package http

import (
	"errors"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/infrastructure/storage"
)

// UploadRoutePrefix is where signed upload targets and stored objects are served
const UploadRoutePrefix = "/uploads"

// Presign handles POST /api/uploads/presign
func (h *Handlers) Presign(c *gin.Context) {
	var req port.PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	upload, err := h.deps.Uploads.Presign(c.Request.Context(), req)
	if err != nil {
		h.fail(c, "presign", err)
		return
	}
	ok(c, http.StatusOK, upload)
}

// PutObject handles PUT /uploads/*key, the target of a presigned URL
func (h *Handlers) PutObject(c *gin.Context) {
	key, valid := storage.CleanKey(c.Param("key"))
	if !valid {
		badRequest(c, "invalid object key")
		return
	}

	err := h.deps.Verifier.Verify(c.Query(storage.TokenParam), key, c.GetHeader("Content-Type"))
	if err != nil {
		status := http.StatusForbidden
		if errors.Is(err, storage.ErrUploadTokenExpired) {
			status = http.StatusUnauthorized
		}
		abort(c, status, err.Error())
		return
	}

	size, err := h.deps.Objects.Put(c.Request.Context(), key, http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abort(c, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		h.fail(c, "put_object", err)
		return
	}

	h.logger.Info("Object stored", "key", key, "size", size)
	c.Status(http.StatusOK)
}

// GetObject handles GET /uploads/*key
func (h *Handlers) GetObject(c *gin.Context) {
	key, valid := storage.CleanKey(c.Param("key"))
	if !valid {
		badRequest(c, "invalid object key")
		return
	}

	content, err := h.deps.Objects.Get(c.Request.Context(), key)
	if err != nil {
		h.fail(c, "get_object", err)
		return
	}

	c.Data(http.StatusOK, mimetype.Detect(content).String(), content)
}
