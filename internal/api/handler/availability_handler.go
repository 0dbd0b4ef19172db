package handler

import (
	"github.com/gin-gonic/gin"

	"school-system/backend/internal/dto"
	"school-system/backend/internal/service"
	"school-system/backend/pkg/response"
)

// AvailabilityHandler 可用时间模块 HTTP 处理器（每周时段 + 休假）
type AvailabilityHandler struct {
	availabilitySvc service.AvailabilityService
}

// NewAvailabilityHandler 创建 AvailabilityHandler
func NewAvailabilityHandler(availabilitySvc service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{availabilitySvc: availabilitySvc}
}

// GetWeekly 获取本人每周可用时间
// GET /api/v1/availability
func (h *AvailabilityHandler) GetWeekly(c *gin.Context) {
	teacherID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	weekly, err := h.availabilitySvc.GetWeekly(c.Request.Context(), teacherID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, weekly)
}

// SetWeekly 整体替换每周可用时间
// PUT /api/v1/availability
func (h *AvailabilityHandler) SetWeekly(c *gin.Context) {
	var req dto.SetWeeklyAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	teacherID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	weekly, err := h.availabilitySvc.SetWeekly(c.Request.Context(), teacherID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, weekly)
}

// ListHolidays 获取本人休假列表
// GET /api/v1/availability/holidays
func (h *AvailabilityHandler) ListHolidays(c *gin.Context) {
	teacherID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	holidays, err := h.availabilitySvc.ListHolidays(c.Request.Context(), teacherID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, gin.H{"list": holidays})
}

// AddHoliday 新增休假
// POST /api/v1/availability/holidays
func (h *AvailabilityHandler) AddHoliday(c *gin.Context) {
	var req dto.CreateHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	teacherID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	holiday, err := h.availabilitySvc.AddHoliday(c.Request.Context(), teacherID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, holiday)
}

// DeleteHoliday 删除休假
// DELETE /api/v1/availability/holidays/:id
func (h *AvailabilityHandler) DeleteHoliday(c *gin.Context) {
	id, ok := mustParam(c, "id", "休假ID不能为空")
	if !ok {
		return
	}

	teacherID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.availabilitySvc.DeleteHoliday(c.Request.Context(), teacherID, id); err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, nil)
}
