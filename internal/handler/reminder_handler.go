package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vitaldash/vitaldash/internal/pkg/errcode"
	"github.com/vitaldash/vitaldash/internal/pkg/response"
	"github.com/vitaldash/vitaldash/internal/service"
)

type ReminderHandler struct {
	reminders *service.ReminderService
}

func NewReminderHandler(reminders *service.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminders: reminders}
}

type createReminderRequest struct {
	Type          string `json:"type"`
	Title         string `json:"title" binding:"required"`
	RemindAt      string `json:"remind_at" binding:"required"`
	RepeatPattern string `json:"repeat_pattern"`
}

type toggleReminderRequest struct {
	Active *bool `json:"active" binding:"required"`
}

func (h *ReminderHandler) Create(c *gin.Context) {
	var req createReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	reminder, err := h.reminders.Create(c.Request.Context(), getUserID(c),
		req.Type, req.Title, req.RemindAt, req.RepeatPattern)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, reminder)
}

func (h *ReminderHandler) List(c *gin.Context) {
	reminders, err := h.reminders.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, reminders)
}

func (h *ReminderHandler) Toggle(c *gin.Context) {
	var req toggleReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	if err := h.reminders.Toggle(c.Request.Context(), getUserID(c), c.Param("id"), *req.Active); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *ReminderHandler) Delete(c *gin.Context) {
	if err := h.reminders.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, nil)
}
