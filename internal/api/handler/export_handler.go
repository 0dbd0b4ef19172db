package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"school-system/backend/internal/service"
	"school-system/backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportSessionGroup 导出课程组预约明细
// GET /api/v1/session-groups/:id/export
func (h *ExportHandler) ExportSessionGroup(c *gin.Context) {
	sessionID, ok := mustParam(c, "id", "课程组ID不能为空")
	if !ok {
		return
	}

	teacherID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportSessionGroup(c.Request.Context(), teacherID, sessionID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentTypeXLSX, buf.Bytes())
}

// StudentCalendar 导出本人预约日历
// GET /api/v1/bookings/me/calendar.ics
func (h *ExportHandler) StudentCalendar(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	ics, err := h.exportSvc.StudentCalendar(c.Request.Context(), studentID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	c.Header("Content-Disposition", "inline; filename=calendar.ics")
	c.Data(http.StatusOK, contentTypeICS, []byte(ics))
}
