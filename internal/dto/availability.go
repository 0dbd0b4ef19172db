package dto

// ── 可用时间模块 DTO ──

// AvailabilityDayItem 某一天的可用窗口
type AvailabilityDayItem struct {
	Day       string `json:"day"        binding:"required,oneof=mon tue wed thu fri sat sun"`
	StartTime string `json:"start_time" binding:"required,datetime=15:04"`
	EndTime   string `json:"end_time"   binding:"required,datetime=15:04"`
}

// SetWeeklyAvailabilityRequest 整体替换每周可用时间，七天各出现一次
type SetWeeklyAvailabilityRequest struct {
	Days []AvailabilityDayItem `json:"days" binding:"required,len=7,dive"`
}

// WeeklyAvailabilityResponse 每周可用时间响应（按 mon..sun 排序，未设置的天为 00:00-00:00）
type WeeklyAvailabilityResponse struct {
	TeacherID string                `json:"teacher_id"`
	Days      []AvailabilityDayItem `json:"days"`
}

// CreateHolidayRequest 新增休假请求
type CreateHolidayRequest struct {
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date"   binding:"required,datetime=2006-01-02"`
	Reason    string `json:"reason"     binding:"required,oneof=personal public"`
	Note      string `json:"note"       binding:"max=500"`
}

// HolidayResponse 休假信息响应
type HolidayResponse struct {
	ID        string `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
	Note      string `json:"note"`
}
