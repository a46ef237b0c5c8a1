package crm

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"loanmvp/internal/borrowers"
	"loanmvp/internal/shared/server/middleware"
	"loanmvp/internal/shared/server/params"
	"loanmvp/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches CRM routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	staff := middleware.RequireStaff()

	rg.POST("/leads", h.createLead)
	rg.GET("/leads", staff, h.listLeads)
	rg.GET("/leads/:id", staff, h.getLead)
	rg.PATCH("/leads/:id", staff, h.updateLead)
	rg.POST("/leads/:id/convert", staff, h.convertLead)

	rg.POST("/notes", staff, h.addNote)
	rg.GET("/notes", staff, h.listNotes)

	rg.POST("/messages", h.sendMessage)
	rg.GET("/messages", h.inbox)
	rg.GET("/messages/thread/:user_id", h.thread)
	rg.POST("/messages/:id/read", h.markRead)

	rg.POST("/tasks", staff, h.createTask)
	rg.GET("/tasks", staff, h.listTasks)
	rg.POST("/tasks/:id/toggle", staff, h.toggleTask)
	rg.DELETE("/tasks/:id", staff, h.deleteTask)
}

func (h *Handler) createLead(c *gin.Context) {
	var req Lead
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	l, err := h.Svc.CreateLead(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, l)
}

func (h *Handler) listLeads(c *gin.Context) {
	limit, offset := params.Page(c)
	filter := LeadFilter{
		OfficerID: c.Query("officer_id"),
		Status:    c.Query("status"),
		OpenOnly:  params.Bool(c, "open"),
	}
	out, err := h.Svc.ListLeads(c.Request.Context(), filter, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) getLead(c *gin.Context) {
	l, err := h.Svc.GetLead(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, l)
}

func (h *Handler) updateLead(c *gin.Context) {
	var patch LeadPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	l, err := h.Svc.UpdateLead(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, l)
}

func (h *Handler) convertLead(c *gin.Context) {
	p, err := h.Svc.ConvertLead(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.TagBorrower(c, p.ID)
	respond.Created(c, p)
}

func (h *Handler) addNote(c *gin.Context) {
	var req Note
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.UserID == "" {
		req.UserID = middleware.UserIDFromContext(c)
	}
	n, err := h.Svc.AddNote(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, n)
}

func (h *Handler) listNotes(c *gin.Context) {
	limit, offset := params.Page(c)
	filter := NoteFilter{LeadID: c.Query("lead_id"), BorrowerID: c.Query("borrower_id")}
	out, err := h.Svc.ListNotes(c.Request.Context(), filter, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) sendMessage(c *gin.Context) {
	var req Message
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	req.SenderID = middleware.UserIDFromContext(c)
	req.SenderRole = middleware.UserRoleFromContext(c)
	req.SystemGenerated = false
	m, err := h.Svc.SendMessage(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, m)
}

func (h *Handler) inbox(c *gin.Context) {
	limit, offset := params.Page(c)
	out, err := h.Svc.Inbox(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) thread(c *gin.Context) {
	limit, offset := params.Page(c)
	out, err := h.Svc.Thread(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("user_id"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) markRead(c *gin.Context) {
	m, err := h.Svc.MarkMessageRead(c.Request.Context(), c.Param("id"), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, m)
}

func (h *Handler) createTask(c *gin.Context) {
	var req Task
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	t, err := h.Svc.CreateTask(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, t)
}

func (h *Handler) listTasks(c *gin.Context) {
	limit, offset := params.Page(c)
	filter := TaskFilter{
		AssignedTo:  c.Query("assigned_to"),
		BorrowerID:  c.Query("borrower_id"),
		PendingOnly: params.Bool(c, "pending"),
	}
	out, err := h.Svc.ListTasks(c.Request.Context(), filter, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, out)
}

func (h *Handler) toggleTask(c *gin.Context) {
	t, err := h.Svc.ToggleTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, t)
}

func (h *Handler) deleteTask(c *gin.Context) {
	if err := h.Svc.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, borrowers.ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "record not found", nil)
	case errors.Is(err, ErrConflict):
		respond.Error(c, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		respond.Internal(c, "crm request failed", err)
	}
}
