package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
	domainwf "github.com/garyjia/merchant-onboarding/internal/domain/workflow"
)

// StatusRequest is the body of a status transition
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// StatusOptionsResponse lists the statuses a reviewer may pick next
type StatusOptionsResponse struct {
	Current entity.Status   `json:"current"`
	Options []entity.Status `json:"options"`
}

// filterFromQuery reads ?status=&search=; an invalid status lists everything
func filterFromQuery(c *gin.Context) entity.MerchantFilter {
	filter := entity.MerchantFilter{Search: c.Query("search")}
	if status, valid := entity.ParseStatus(c.Query("status")); valid {
		filter.Status = &status
	}
	return filter
}

// ListMerchants handles GET /api/merchants
func (h *Handlers) ListMerchants(c *gin.Context) {
	merchants, err := h.deps.Board.Refresh(c.Request.Context(), filterFromQuery(c))
	if err != nil {
		h.fail(c, "list_merchants", err)
		return
	}
	if merchants == nil {
		merchants = []*entity.Merchant{}
	}
	ok(c, http.StatusOK, merchants)
}

// ExportMerchants handles GET /api/merchants/export
func (h *Handlers) ExportMerchants(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.deps.Merchants.Export(c.Request.Context(), filterFromQuery(c), &buf); err != nil {
		h.fail(c, "export_merchants", err)
		return
	}

	contentType, ext := h.deps.Merchants.ExportFormat()
	filename := fmt.Sprintf("merchants-%s%s", time.Now().UTC().Format("20060102-150405"), ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// GetMerchant handles GET /api/merchants/:id
func (h *Handlers) GetMerchant(c *gin.Context) {
	detail, err := h.deps.Merchants.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "get_merchant", err)
		return
	}
	ok(c, http.StatusOK, detail)
}

// PatchMerchant handles PATCH /api/merchants/:id
func (h *Handlers) PatchMerchant(c *gin.Context) {
	entityType, sections, err := decodeSections(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	patch := entity.MerchantPatch{BusinessEntityType: entityType}
	if len(sections) > 0 {
		patch.Sections = sections
	}

	merchant, err := h.deps.Merchants.Patch(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		h.fail(c, "patch_merchant", err)
		return
	}
	ok(c, http.StatusOK, merchant)
}

// DeleteMerchant handles DELETE /api/merchants/:id
func (h *Handlers) DeleteMerchant(c *gin.Context) {
	id := c.Param("id")
	if err := h.deps.Merchants.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, "delete_merchant", err)
		return
	}
	h.deps.Board.Evict(id)
	ok(c, http.StatusOK, nil)
}

// StatusOptions handles GET /api/merchants/:id/status-options
func (h *Handlers) StatusOptions(c *gin.Context) {
	id := c.Param("id")
	states, err := h.deps.Board.Options(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "status_options", err)
		return
	}

	resp := StatusOptionsResponse{Options: make([]entity.Status, 0, len(states))}
	if m, found := h.deps.Board.Get(id); found {
		resp.Current = m.Status
	}
	for _, s := range states {
		resp.Options = append(resp.Options, s.Status())
	}
	ok(c, http.StatusOK, resp)
}

// UpdateStatus handles POST /api/merchants/:id/status
func (h *Handlers) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}

	target := domainwf.State(req.Status)
	if !target.IsValid() {
		badRequest(c, fmt.Sprintf("unknown status %q", req.Status))
		return
	}

	merchant, err := h.deps.Board.UpdateStatus(c.Request.Context(), c.Param("id"), target, currentActor(c))
	if err != nil {
		h.fail(c, "update_status", err)
		return
	}
	ok(c, http.StatusOK, merchant)
}

// StatusHistory handles GET /api/merchants/:id/history
func (h *Handlers) StatusHistory(c *gin.Context) {
	history, err := h.deps.Merchants.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "status_history", err)
		return
	}
	if history == nil {
		history = []*entity.StatusHistory{}
	}
	ok(c, http.StatusOK, history)
}

// Dashboard handles GET /api/dashboard
func (h *Handlers) Dashboard(c *gin.Context) {
	stats, err := h.deps.Merchants.DashboardStats(c.Request.Context())
	if err != nil {
		h.fail(c, "dashboard", err)
		return
	}
	ok(c, http.StatusOK, stats)
}
