package dto

import "time"

// ── 预约模块 DTO ──

// BookSlotRequest 学生自助预约（UTC 区间）
type BookSlotRequest struct {
	StartUTC time.Time `json:"start_utc" binding:"required"`
	EndUTC   time.Time `json:"end_utc"   binding:"required"`
}

// AssignSlotRequest 老师代学生预约（老师本地时间）
type AssignSlotRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	Date      string `json:"date"       binding:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" binding:"required,datetime=15:04"`
	EndTime   string `json:"end_time"   binding:"required,datetime=15:04"`
}

// CancelAssignedRequest 取消老师代约的时段（按 UTC 区间精确匹配）
type CancelAssignedRequest struct {
	StartUTC time.Time `json:"start_utc" binding:"required"`
	EndUTC   time.Time `json:"end_utc"   binding:"required"`
}

// StudentBookingResponse 学生的预约记录
type StudentBookingResponse struct {
	ID              string    `json:"id"`
	SessionGroupID  string    `json:"session_group_id"`
	Title           string    `json:"title"`
	StartUTC        time.Time `json:"start_utc"`
	EndUTC          time.Time `json:"end_utc"`
	BookedByTeacher bool      `json:"booked_by_teacher"`
}
