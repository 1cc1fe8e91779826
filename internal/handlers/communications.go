package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ramonvasc/comunicahub/internal/services"
	"github.com/ramonvasc/comunicahub/pkg/response"
)

// CommunicationHandler exposes HTTP endpoints for stored communications.
type CommunicationHandler struct {
	service *services.CommunicationService
}

// NewCommunicationHandler constructs a communication handler.
func NewCommunicationHandler(db *gorm.DB) (*CommunicationHandler, error) {
	service, err := services.NewCommunicationService(db)
	if err != nil {
		return nil, err
	}
	return &CommunicationHandler{service: service}, nil
}

// List returns stored communications matching the query filters.
func (h *CommunicationHandler) List(c *gin.Context) {
	filters := services.CommunicationFilters{
		Read:      parseBoolQuery(c, "read"),
		ClientID:  strings.TrimSpace(c.Query("client_id")),
		ProcessID: strings.TrimSpace(c.Query("process_id")),
		Limit:     parseIntQuery(c, "limit", 0),
	}

	items, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, items)
}

// Get returns one communication with its lawyers and recipients.
func (h *CommunicationHandler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	comm, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, comm)
}

// MarkRead flags one communication as read.
func (h *CommunicationHandler) MarkRead(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	if err := h.service.MarkRead(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"read": true})
}

type linkCommunicationRequest struct {
	ProcessID *string `json:"process_id"`
	ClientID  *string `json:"client_id"`
}

// Link manually attaches a communication to a process and/or client,
// overriding whatever the automatic matcher decided.
func (h *CommunicationHandler) Link(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	var req linkCommunicationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	comm, err := h.service.Update(c.Request.Context(), id, services.UpdateCommunicationInput{
		ProcessID: req.ProcessID,
		ClientID:  req.ClientID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, comm)
}
