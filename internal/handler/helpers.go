package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/vitaldash/vitaldash/internal/middleware"
	"github.com/vitaldash/vitaldash/internal/pkg/errcode"
	appErr "github.com/vitaldash/vitaldash/internal/pkg/errors"
	"github.com/vitaldash/vitaldash/internal/pkg/response"
	"github.com/vitaldash/vitaldash/internal/rag"
	"github.com/vitaldash/vitaldash/internal/service"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func handleError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, http.StatusForbidden, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, http.StatusConflict, errcode.ErrConflict, "conflict")
	case errors.Is(err, rag.ErrEmptyKnowledgeBase):
		response.Error(c, http.StatusOK, errcode.ErrKnowledgeBaseEmpty,
			"knowledge base empty: add a profile or upload a report first")
	case errors.Is(err, service.ErrAIUnavailable):
		response.Error(c, http.StatusServiceUnavailable, errcode.ErrAIUnavailable, "ai not configured")
	default:
		requestID, _ := c.Get("request_id")
		logutil.GetLogger(c.Request.Context()).Error("request failed",
			zap.Any("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("user_id", getUserID(c)),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "internal error")
	}
}
