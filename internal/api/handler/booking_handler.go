package handler

import (
	"github.com/gin-gonic/gin"

	"school-system/backend/internal/dto"
	"school-system/backend/internal/service"
	"school-system/backend/pkg/response"
)

// BookingHandler 预约模块 HTTP 处理器
type BookingHandler struct {
	bookingSvc service.BookingService
}

// NewBookingHandler 创建 BookingHandler
func NewBookingHandler(bookingSvc service.BookingService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc}
}

// Book 学生自助预约
// POST /api/v1/session-groups/:id/bookings
func (h *BookingHandler) Book(c *gin.Context) {
	sessionID, ok := mustParam(c, "id", "课程组ID不能为空")
	if !ok {
		return
	}

	var req dto.BookSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	booked, err := h.bookingSvc.Book(c.Request.Context(), studentID, sessionID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, booked)
}

// Assign 教师代学生预约
// POST /api/v1/session-groups/:id/assignments
func (h *BookingHandler) Assign(c *gin.Context) {
	sessionID, ok := mustParam(c, "id", "课程组ID不能为空")
	if !ok {
		return
	}

	var req dto.AssignSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	teacherID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	booked, err := h.bookingSvc.Assign(c.Request.Context(), teacherID, sessionID, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, booked)
}

// CancelAssigned 教师取消代约
// POST /api/v1/session-groups/:id/assignments/cancel
func (h *BookingHandler) CancelAssigned(c *gin.Context) {
	sessionID, ok := mustParam(c, "id", "课程组ID不能为空")
	if !ok {
		return
	}

	var req dto.CancelAssignedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	teacherID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.bookingSvc.CancelAssigned(c.Request.Context(), teacherID, sessionID, &req); err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, nil)
}

// MyBookings 学生本人预约列表
// GET /api/v1/bookings/me
func (h *BookingHandler) MyBookings(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	bookings, err := h.bookingSvc.ListStudentBookings(c.Request.Context(), studentID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.OK(c, gin.H{"list": bookings})
}
