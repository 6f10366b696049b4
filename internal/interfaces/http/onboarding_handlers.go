package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/garyjia/merchant-onboarding/internal/application/service"
	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
)

const entityTypeKey = "businessEntityType"

// decodeSections reads {"businessEntityType": "...", "<section>": {field: value}}
func decodeSections(c *gin.Context) (*string, map[entity.Section]entity.Fields, error) {
	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		return nil, nil, fmt.Errorf("invalid request body")
	}

	var entityType *string
	sections := make(map[entity.Section]entity.Fields)
	for key, value := range raw {
		if key == entityTypeKey {
			var v string
			if err := json.Unmarshal(value, &v); err != nil {
				return nil, nil, fmt.Errorf("%s must be a string", entityTypeKey)
			}
			entityType = &v
			continue
		}
		var fields entity.Fields
		if err := json.Unmarshal(value, &fields); err != nil {
			return nil, nil, fmt.Errorf("%s must map field names to strings", key)
		}
		sections[entity.Section(key)] = fields
	}
	return entityType, sections, nil
}

// StartSession handles POST /api/onboarding/sessions
func (h *Handlers) StartSession(c *gin.Context) {
	snap, err := h.deps.Onboarding.StartSession(c.Request.Context())
	if err != nil {
		h.fail(c, "start_session", err)
		return
	}
	ok(c, http.StatusCreated, snap)
}

// ResumeSession handles POST /api/onboarding/sessions/resume/:merchantId
func (h *Handlers) ResumeSession(c *gin.Context) {
	snap, err := h.deps.Onboarding.ResumeSession(c.Request.Context(), c.Param("merchantId"))
	if err != nil {
		h.fail(c, "resume_session", err)
		return
	}
	ok(c, http.StatusCreated, snap)
}

// GetSession handles GET /api/onboarding/sessions/:id
func (h *Handlers) GetSession(c *gin.Context) {
	snap, err := h.deps.Onboarding.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "get_session", err)
		return
	}
	ok(c, http.StatusOK, snap)
}

// UpdateDraft handles PATCH /api/onboarding/sessions/:id/draft
func (h *Handlers) UpdateDraft(c *gin.Context) {
	entityType, sections, err := decodeSections(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	snap, err := h.deps.Onboarding.UpdateDraft(c.Request.Context(), c.Param("id"), service.DraftUpdate{
		BusinessEntityType: entityType,
		Sections:           sections,
	})
	if err != nil {
		h.fail(c, "update_draft", err)
		return
	}
	ok(c, http.StatusOK, snap)
}

// NextStep handles POST /api/onboarding/sessions/:id/next
func (h *Handlers) NextStep(c *gin.Context) {
	snap, err := h.deps.Onboarding.Next(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "next_step", err)
		return
	}
	ok(c, http.StatusOK, snap)
}

// PreviousStep handles POST /api/onboarding/sessions/:id/back
func (h *Handlers) PreviousStep(c *gin.Context) {
	snap, err := h.deps.Onboarding.Back(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "previous_step", err)
		return
	}
	ok(c, http.StatusOK, snap)
}

// Submit handles POST /api/onboarding/sessions/:id/submit
func (h *Handlers) Submit(c *gin.Context) {
	merchant, err := h.deps.Onboarding.Submit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "submit", err)
		return
	}
	ok(c, http.StatusOK, merchant)
}

// ResetSession handles POST /api/onboarding/sessions/:id/reset
func (h *Handlers) ResetSession(c *gin.Context) {
	snap, err := h.deps.Onboarding.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "reset_session", err)
		return
	}
	ok(c, http.StatusOK, snap)
}

// EndSession handles DELETE /api/onboarding/sessions/:id
func (h *Handlers) EndSession(c *gin.Context) {
	if err := h.deps.Onboarding.EndSession(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, "end_session", err)
		return
	}
	ok(c, http.StatusOK, nil)
}

// UploadDocument handles POST /api/onboarding/sessions/:id/documents/:field
// with a multipart "file" part.
func (h *Handlers) UploadDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+(1<<20))

	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	if header.Size > h.maxUploadBytes {
		badRequest(c, fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes))
		return
	}

	file, err := header.Open()
	if err != nil {
		h.fail(c, "upload_document", err)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.fail(c, "upload_document", err)
		return
	}

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(content).String()
	}

	snap, err := h.deps.Onboarding.UploadDocument(c.Request.Context(), c.Param("id"), service.DocumentUpload{
		Field:       c.Param("field"),
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        int64(len(content)),
		Body:        bytes.NewReader(content),
	})
	if err != nil {
		h.fail(c, "upload_document", err)
		return
	}
	ok(c, http.StatusOK, snap)
}
