package model

import "school-system/backend/internal/slot"

// Weekdays 一周七天的固定顺序
var Weekdays = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// UnsetClock 起止均为该值表示当天不可预约
const UnsetClock = "00:00"

// AvailabilityDay 每周可用时间，对应 availability_days
type AvailabilityDay struct {
	TeacherID string `gorm:"type:uuid;primaryKey"        json:"teacher_id"`
	Day       string `gorm:"type:varchar(3);primaryKey"  json:"day"`        // mon..sun
	StartTime string `gorm:"type:varchar(5);not null"    json:"start_time"` // "09:00"，老师本地时间
	EndTime   string `gorm:"type:varchar(5);not null"    json:"end_time"`
	BaseModel
}

// TableName 指定表名
func (AvailabilityDay) TableName() string { return "availability_days" }

// IsUnset 当天是否不可预约
func (d AvailabilityDay) IsUnset() bool {
	return d.StartTime == UnsetClock && d.EndTime == UnsetClock
}

// WeeklyAvailability 老师的每周可用时间模板
type WeeklyAvailability struct {
	TeacherID string
	Days      []AvailabilityDay
}

// Window 返回指定星期的可用窗口；未设置或为 00:00–00:00 时 ok=false
func (w *WeeklyAvailability) Window(day string) (slot.Window, bool) {
	if w == nil {
		return slot.Window{}, false
	}
	for _, d := range w.Days {
		if d.Day != day {
			continue
		}
		if d.IsUnset() || d.StartTime == "" || d.EndTime == "" {
			return slot.Window{}, false
		}
		return slot.Window{Start: d.StartTime, End: d.EndTime}, true
	}
	return slot.Window{}, false
}
