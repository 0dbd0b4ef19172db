package model

import "time"

const (
	HolidayReasonPersonal = "personal"
	HolidayReasonPublic   = "public"
)

// Holiday 老师休假日期区间（含首尾），对应 holidays
type Holiday struct {
	HolidayID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"holiday_id"`
	TeacherID string    `gorm:"type:uuid;not null"                             json:"teacher_id"`
	StartDate time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate   time.Time `gorm:"type:date;not null"                             json:"end_date"`
	Reason    string    `gorm:"type:varchar(20);not null"                      json:"reason"` // personal | public
	Note      string    `gorm:"type:varchar(500);not null;default:''"          json:"note"`
	BaseModel
}

// TableName 指定表名
func (Holiday) TableName() string { return "holidays" }

// Contains 日历日是否落在休假区间内
func (h *Holiday) Contains(date time.Time) bool {
	d := CalendarDate(date)
	return !d.Before(CalendarDate(h.StartDate)) && !d.After(CalendarDate(h.EndDate))
}

// Overlaps 两个休假区间是否有交集
func (h *Holiday) Overlaps(start, end time.Time) bool {
	return !CalendarDate(start).After(CalendarDate(h.EndDate)) &&
		!CalendarDate(end).Before(CalendarDate(h.StartDate))
}
