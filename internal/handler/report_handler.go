package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vitaldash/vitaldash/internal/filestore"
	"github.com/vitaldash/vitaldash/internal/pkg/errcode"
	"github.com/vitaldash/vitaldash/internal/pkg/response"
	"github.com/vitaldash/vitaldash/internal/service"
)

type ReportHandler struct {
	reports *service.ReportService
}

func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Upload accepts a multipart form with an optional `file` part (the
// report PDF) and a required `ocr_text` field holding the extracted
// text. Extraction happens client side, the server never runs OCR.
func (h *ReportHandler) Upload(c *gin.Context) {
	ocrText := c.PostForm("ocr_text")
	var file filestore.ReadSeekCloser
	var size int64
	var filename string
	if header, err := c.FormFile("file"); err == nil {
		f, err := header.Open()
		if err != nil {
			response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "unreadable file")
			return
		}
		defer f.Close()
		file = f
		size = header.Size
		filename = header.Filename
	}
	result, err := h.reports.Ingest(c.Request.Context(), getUserID(c), filename, file, size, ocrText)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *ReportHandler) List(c *gin.Context) {
	reports, err := h.reports.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, reports)
}

func (h *ReportHandler) ParameterSeries(c *gin.Context) {
	points, err := h.reports.ParameterSeries(c.Request.Context(), getUserID(c), c.Query("name"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, points)
}

// ServeFile streams a stored report file back to its owner. Keys embed
// the owner's user id, so ownership is a prefix check. Only the local
// store supports reading files back.
func (h *ReportHandler) ServeFile(c *gin.Context) {
	if h.reports.StoreType() != "local" {
		response.Error(c, http.StatusNotImplemented, errcode.ErrInvalidFile,
			"file serving requires the local file store")
		return
	}
	key := c.Param("key")
	if !strings.HasPrefix(key, getUserID(c)+"-") {
		response.Error(c, http.StatusForbidden, errcode.ErrForbidden, "forbidden")
		return
	}
	file, err := h.reports.OpenFile(c.Request.Context(), key)
	if err != nil {
		handleError(c, err)
		return
	}
	defer file.Close()
	c.Header("Content-Type", "application/pdf")
	if _, err := io.Copy(c.Writer, file); err != nil {
		_ = c.Error(err)
	}
}
