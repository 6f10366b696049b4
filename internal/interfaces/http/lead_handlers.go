package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/merchant-onboarding/internal/application/service"
	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
)

// NoteRequest is the body of a lead note
type NoteRequest struct {
	Text string `json:"text" binding:"required"`
}

// ListLeads handles GET /api/leads
func (h *Handlers) ListLeads(c *gin.Context) {
	leads, err := h.deps.Leads.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.fail(c, "list_leads", err)
		return
	}
	if leads == nil {
		leads = []*entity.Lead{}
	}
	ok(c, http.StatusOK, leads)
}

// CreateLead handles POST /api/leads
func (h *Handlers) CreateLead(c *gin.Context) {
	var input service.LeadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	lead, err := h.deps.Leads.Create(c.Request.Context(), input)
	if err != nil {
		h.fail(c, "create_lead", err)
		return
	}
	ok(c, http.StatusCreated, lead)
}

// GetLead handles GET /api/leads/:id
func (h *Handlers) GetLead(c *gin.Context) {
	lead, err := h.deps.Leads.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "get_lead", err)
		return
	}
	ok(c, http.StatusOK, lead)
}

// DeleteLead handles DELETE /api/leads/:id
func (h *Handlers) DeleteLead(c *gin.Context) {
	if err := h.deps.Leads.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, "delete_lead", err)
		return
	}
	ok(c, http.StatusOK, nil)
}

// AddLeadNote handles POST /api/leads/:id/notes
func (h *Handlers) AddLeadNote(c *gin.Context) {
	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, service.ErrEmptyNote.Error())
		return
	}

	lead, err := h.deps.Leads.AddNote(c.Request.Context(), c.Param("id"), req.Text, currentActor(c))
	if err != nil {
		h.fail(c, "add_lead_note", err)
		return
	}
	ok(c, http.StatusCreated, lead)
}
