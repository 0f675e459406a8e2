package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vitaldash/vitaldash/internal/pkg/errcode"
	"github.com/vitaldash/vitaldash/internal/pkg/response"
	"github.com/vitaldash/vitaldash/internal/service"
)

type AssistantHandler struct {
	assistant *service.AssistantService
}

func NewAssistantHandler(assistant *service.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

type addNotesRequest struct {
	Texts []string `json:"texts" binding:"required"`
}

func (h *AssistantHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	answer, err := h.assistant.Ask(c.Request.Context(), getUserID(c), req.Question)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, answer)
}

func (h *AssistantHandler) Rebuild(c *gin.Context) {
	count, err := h.assistant.RebuildKnowledgeBase(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"chunks": count})
}

func (h *AssistantHandler) AddNotes(c *gin.Context) {
	var req addNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	count, err := h.assistant.AddNotes(c.Request.Context(), getUserID(c), req.Texts)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"chunks": count})
}

func (h *AssistantHandler) Diet(c *gin.Context) {
	plan, err := h.assistant.DietSuggestions(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"plan": plan})
}

func (h *AssistantHandler) Guidance(c *gin.Context) {
	plan, err := h.assistant.FutureGuidance(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"plan": plan})
}
