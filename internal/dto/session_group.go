package dto

import "time"

// ── 课程组模块 DTO ──

// CreateSessionGroupRequest 创建课程组请求
// 时长省略时使用默认值：时段 30 分钟、间隔 0 分钟
type CreateSessionGroupRequest struct {
	Title            string  `json:"title"              binding:"required,max=200"`
	Date             string  `json:"date"               binding:"required,datetime=2006-01-02"`
	SlotDuration     *int    `json:"slot_duration"`
	BreakDuration    *int    `json:"break_duration"`
	AllowedStudentID *string `json:"allowed_student_id" binding:"omitempty,uuid"`
}

// SessionGroupListRequest 课程组列表查询参数
type SessionGroupListRequest struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to"   binding:"omitempty,datetime=2006-01-02"`
}

// BookedSlotResponse 已预约时段
type BookedSlotResponse struct {
	ID              string    `json:"id"`
	StartUTC        time.Time `json:"start_utc"`
	EndUTC          time.Time `json:"end_utc"`
	BookedBy        string    `json:"booked_by"`
	BookedByTeacher bool      `json:"booked_by_teacher"`
}

// SessionGroupResponse 课程组信息响应
type SessionGroupResponse struct {
	ID               string               `json:"id"`
	TeacherID        string               `json:"teacher_id"`
	Title            string               `json:"title"`
	Date             string               `json:"date"`
	SlotDuration     int                  `json:"slot_duration"`
	BreakDuration    int                  `json:"break_duration"`
	AllowedStudentID *string              `json:"allowed_student_id,omitempty"`
	BookedSlots      []BookedSlotResponse `json:"booked_slots,omitempty"`
	Version          int                  `json:"version"`
	CreatedAt        string               `json:"created_at"`
}

// ListSlotsRequest 查看可预约时段查询参数
type ListSlotsRequest struct {
	TimeZone string `form:"tz" binding:"omitempty,timezone"`
}

// SlotResponse 面向观看者的可预约时段
type SlotResponse struct {
	StartUTC   time.Time `json:"start_utc"`
	EndUTC     time.Time `json:"end_utc"`
	LocalStart string    `json:"local_start"`
	LocalEnd   string    `json:"local_end"`
}

// SlotListResponse 可预约时段列表
type SlotListResponse struct {
	SessionGroupID string         `json:"session_group_id"`
	Date           string         `json:"date"`
	TimeZone       string         `json:"time_zone"`
	Slots          []SlotResponse `json:"slots"`
}
