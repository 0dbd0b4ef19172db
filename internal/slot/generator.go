// Package slot 由老师的可用时间窗口生成候选时段，并负责时区换算与已预约过滤。
// 本包为纯函数实现，不访问存储与缓存。
package slot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "school-system/backend/pkg/errors"
)

// ── 时长约束 ──

const (
	MinSlotMinutes  = 15
	MaxSlotMinutes  = 240
	MinBreakMinutes = 0
	MaxBreakMinutes = 60

	// ClockLayout 墙上时钟格式
	ClockLayout = "15:04"
)

// ErrInvalidParams 生成参数缺失或非法（调用方缺陷）
var ErrInvalidParams = apperrors.Validation(13002, "时段生成参数无效")

// Window 某一天的可用窗口，老师本地时间 "HH:MM"
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Interval 半开区间 [Start, End)
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps 半开区间相交判断：aStart < bEnd && aEnd > bStart
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && i.End.After(o.Start)
}

// Valid 结束时间晚于开始时间
func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Candidate 候选时段（不落库），起止为 UTC
type Candidate struct {
	StartUTC time.Time `json:"start_utc"`
	EndUTC   time.Time `json:"end_utc"`
}

// Interval 转为半开区间
func (c Candidate) Interval() Interval {
	return Interval{Start: c.StartUTC, End: c.EndUTC}
}

// View 面向某个观看者的时段：UTC 原值 + 展示时区下的本地时间
type View struct {
	StartUTC   time.Time `json:"start_utc"`
	EndUTC     time.Time `json:"end_utc"`
	LocalStart string    `json:"local_start"`
	LocalEnd   string    `json:"local_end"`
	TimeZone   string    `json:"time_zone"`
}

// Params 生成参数
type Params struct {
	Date         time.Time // 仅使用年月日
	Window       Window
	SlotMinutes  int
	BreakMinutes int
	Location     *time.Location // 老师时区
}

// Generate 以老师时区锚定窗口起止，按 slot+break 步长平铺；不足一个时段的余量丢弃
func Generate(p Params) ([]Candidate, error) {
	if p.Date.IsZero() || p.Location == nil || p.SlotMinutes <= 0 || p.BreakMinutes < 0 {
		return nil, ErrInvalidParams
	}
	sh, sm, err := ParseClock(p.Window.Start)
	if err != nil {
		return nil, ErrInvalidParams
	}
	eh, em, err := ParseClock(p.Window.End)
	if err != nil {
		return nil, ErrInvalidParams
	}

	y, m, d := p.Date.Date()
	cursor := time.Date(y, m, d, sh, sm, 0, 0, p.Location)
	limit := time.Date(y, m, d, eh, em, 0, 0, p.Location)

	slotLen := time.Duration(p.SlotMinutes) * time.Minute
	step := slotLen + time.Duration(p.BreakMinutes)*time.Minute

	result := make([]Candidate, 0)
	for !cursor.Add(slotLen).After(limit) {
		result = append(result, Candidate{
			StartUTC: cursor.UTC(),
			EndUTC:   cursor.Add(slotLen).UTC(),
		})
		cursor = cursor.Add(step)
	}
	return result, nil
}

// FilterBooked 去掉与任一已预约区间相交的候选时段
func FilterBooked(candidates []Candidate, booked []Interval) []Candidate {
	if len(booked) == 0 {
		return candidates
	}
	result := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !OverlapsAny(c.Interval(), booked) {
			result = append(result, c)
		}
	}
	return result
}

// OverlapsAny 区间是否与列表中任一区间相交
func OverlapsAny(target Interval, booked []Interval) bool {
	for _, b := range booked {
		if target.Overlaps(b) {
			return true
		}
	}
	return false
}

// Localize 转换到展示时区
func Localize(candidates []Candidate, loc *time.Location) []View {
	if loc == nil {
		loc = time.UTC
	}
	views := make([]View, 0, len(candidates))
	for _, c := range candidates {
		views = append(views, View{
			StartUTC:   c.StartUTC,
			EndUTC:     c.EndUTC,
			LocalStart: c.StartUTC.In(loc).Format(time.RFC3339),
			LocalEnd:   c.EndUTC.In(loc).Format(time.RFC3339),
			TimeZone:   loc.String(),
		})
	}
	return views
}

// FilterViews 对已换算的时段重新按已预约列表过滤
func FilterViews(views []View, booked []Interval) []View {
	if len(booked) == 0 {
		return views
	}
	result := make([]View, 0, len(views))
	for _, v := range views {
		if !OverlapsAny(Interval{Start: v.StartUTC, End: v.EndUTC}, booked) {
			result = append(result, v)
		}
	}
	return result
}

// ParseClock 解析 "HH:MM"（24 小时制）
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("时间格式错误: %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("小时无效: %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("分钟无效: %q", s)
	}
	return hour, minute, nil
}

// WallClock 将日历日 + "HH:MM" 锚定到指定时区
func WallClock(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	h, m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	y, mo, d := date.Date()
	return time.Date(y, mo, d, h, m, 0, 0, loc), nil
}

var weekdayNames = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// Weekday 日历日的星期名（mon..sun）
func Weekday(date time.Time) string {
	return weekdayNames[date.Weekday()]
}

// ClampSlotMinutes 时段时长限制在 [15, 240]
func ClampSlotMinutes(n int) int {
	return clamp(n, MinSlotMinutes, MaxSlotMinutes)
}

// ClampBreakMinutes 间隔时长限制在 [0, 60]
func ClampBreakMinutes(n int) int {
	return clamp(n, MinBreakMinutes, MaxBreakMinutes)
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
