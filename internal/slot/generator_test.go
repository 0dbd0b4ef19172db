package slot

import (
	"errors"
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("加载时区 %s 失败: %v", name, err)
	}
	return loc
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ── Generate ──

func TestGenerate_TwoHalfHourSlots(t *testing.T) {
	got, err := Generate(Params{
		Date:        date(2024, 3, 4),
		Window:      Window{Start: "09:00", End: "10:00"},
		SlotMinutes: 30,
		Location:    time.UTC,
	})
	if err != nil {
		t.Fatalf("Generate 应成功: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("期望 2 个时段，实际 %d", len(got))
	}
	want := []Candidate{
		{StartUTC: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC), EndUTC: time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)},
		{StartUTC: time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC), EndUTC: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)},
	}
	for i := range want {
		if !got[i].StartUTC.Equal(want[i].StartUTC) || !got[i].EndUTC.Equal(want[i].EndUTC) {
			t.Errorf("时段 %d: 期望 %v，实际 %v", i, want[i], got[i])
		}
	}
}

// 日历日保持不变，只换算墙上时间：09:00 IST 对应 2024-03-01T03:30Z。
// 取 2024-02-29 的写法来自源数据把本地零点经 UTC 序列化后的日期偏移，见 DESIGN.md「Open Question decisions」第 3 条。
func TestGenerate_KolkataAnchoring(t *testing.T) {
	kolkata := mustLoad(t, "Asia/Kolkata")
	got, err := Generate(Params{
		Date:        date(2024, 3, 1),
		Window:      Window{Start: "09:00", End: "09:30"},
		SlotMinutes: 30,
		Location:    kolkata,
	})
	if err != nil {
		t.Fatalf("Generate 应成功: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("期望 1 个时段，实际 %d", len(got))
	}
	// 09:00 IST = 03:30 UTC（+05:30）
	if got[0].StartUTC.Format(time.RFC3339) != "2024-03-01T03:30:00Z" {
		t.Errorf("起始 UTC 错误: %s", got[0].StartUTC.Format(time.RFC3339))
	}
	if got[0].EndUTC.Format(time.RFC3339) != "2024-03-01T04:00:00Z" {
		t.Errorf("结束 UTC 错误: %s", got[0].EndUTC.Format(time.RFC3339))
	}
}

func TestGenerate_RemainderDropped(t *testing.T) {
	got, err := Generate(Params{
		Date:         date(2024, 3, 4),
		Window:       Window{Start: "09:00", End: "10:50"},
		SlotMinutes:  30,
		BreakMinutes: 10,
		Location:     time.UTC,
	})
	if err != nil {
		t.Fatalf("Generate 应成功: %v", err)
	}
	// 09:00, 09:40, 10:20-10:50
	if len(got) != 3 {
		t.Fatalf("期望 3 个时段，实际 %d", len(got))
	}
	if !got[2].EndUTC.Equal(time.Date(2024, 3, 4, 10, 50, 0, 0, time.UTC)) {
		t.Errorf("最后一个时段应恰好结束于窗口末尾: %v", got[2].EndUTC)
	}
}

func TestGenerate_WindowShorterThanSlot(t *testing.T) {
	got, err := Generate(Params{
		Date:        date(2024, 3, 4),
		Window:      Window{Start: "09:00", End: "09:20"},
		SlotMinutes: 30,
		Location:    time.UTC,
	})
	if err != nil {
		t.Fatalf("Generate 应成功: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("期望无时段，实际 %d", len(got))
	}
}

func TestGenerate_EndBeforeStartIsEmpty(t *testing.T) {
	got, err := Generate(Params{
		Date:        date(2024, 3, 4),
		Window:      Window{Start: "17:00", End: "09:00"},
		SlotMinutes: 30,
		Location:    time.UTC,
	})
	if err != nil {
		t.Fatalf("Generate 应成功: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("期望无时段，实际 %d", len(got))
	}
}

func TestGenerate_InvalidParams(t *testing.T) {
	base := Params{
		Date:        date(2024, 3, 4),
		Window:      Window{Start: "09:00", End: "10:00"},
		SlotMinutes: 30,
		Location:    time.UTC,
	}
	cases := map[string]func(p *Params){
		"零日期":   func(p *Params) { p.Date = time.Time{} },
		"无时区":   func(p *Params) { p.Location = nil },
		"零时长":   func(p *Params) { p.SlotMinutes = 0 },
		"负间隔":   func(p *Params) { p.BreakMinutes = -5 },
		"起始格式错": func(p *Params) { p.Window.Start = "9:00" },
		"结束越界":  func(p *Params) { p.Window.End = "25:00" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := base
			mutate(&p)
			if _, err := Generate(p); !errors.Is(err, ErrInvalidParams) {
				t.Errorf("期望 ErrInvalidParams，实际 %v", err)
			}
		})
	}
}

// 性质：窗口内包含、时长精确、步长精确、互不相交
func TestGenerate_TilingProperties(t *testing.T) {
	zones := []string{"UTC", "America/New_York", "Asia/Kolkata", "Australia/Adelaide", "Asia/Kathmandu"}
	windows := []Window{{"00:00", "23:59"}, {"08:15", "12:00"}, {"13:30", "18:45"}}
	for _, zone := range zones {
		loc := mustLoad(t, zone)
		for _, w := range windows {
			for _, slotMin := range []int{15, 25, 30, 45, 60, 240} {
				for _, breakMin := range []int{0, 5, 15, 60} {
					got, err := Generate(Params{
						Date:         date(2024, 7, 15),
						Window:       w,
						SlotMinutes:  slotMin,
						BreakMinutes: breakMin,
						Location:     loc,
					})
					if err != nil {
						t.Fatalf("Generate 失败: %v", err)
					}
					winStart, _ := WallClock(date(2024, 7, 15), w.Start, loc)
					winEnd, _ := WallClock(date(2024, 7, 15), w.End, loc)
					for i, c := range got {
						if c.StartUTC.Before(winStart) || c.EndUTC.After(winEnd) {
							t.Fatalf("%s %v: 时段 %d 超出窗口", zone, w, i)
						}
						if c.EndUTC.Sub(c.StartUTC) != time.Duration(slotMin)*time.Minute {
							t.Fatalf("%s %v: 时段 %d 时长错误", zone, w, i)
						}
						if i == 0 {
							continue
						}
						prev := got[i-1]
						if c.StartUTC.Sub(prev.StartUTC) != time.Duration(slotMin+breakMin)*time.Minute {
							t.Fatalf("%s %v: 时段 %d 步长错误", zone, w, i)
						}
						if prev.Interval().Overlaps(c.Interval()) {
							t.Fatalf("%s %v: 时段 %d 与前一时段相交", zone, w, i)
						}
					}
				}
			}
		}
	}
}

// ── Localize ──

func TestLocalize_RoundTrip(t *testing.T) {
	got, err := Generate(Params{
		Date:        date(2024, 3, 10),
		Window:      Window{Start: "00:00", End: "06:00"},
		SlotMinutes: 45,
		Location:    mustLoad(t, "America/New_York"),
	})
	if err != nil {
		t.Fatalf("Generate 失败: %v", err)
	}
	for _, zone := range []string{"UTC", "Asia/Tokyo", "Europe/London", "Pacific/Chatham", "America/Los_Angeles"} {
		views := Localize(got, mustLoad(t, zone))
		for i, v := range views {
			if v.TimeZone != zone {
				t.Errorf("时区标识错误: %s", v.TimeZone)
			}
			start, err := time.Parse(time.RFC3339, v.LocalStart)
			if err != nil {
				t.Fatalf("解析本地时间失败: %v", err)
			}
			end, _ := time.Parse(time.RFC3339, v.LocalEnd)
			if !start.UTC().Equal(got[i].StartUTC) || !end.UTC().Equal(got[i].EndUTC) {
				t.Errorf("%s: 时段 %d 往返转换不一致", zone, i)
			}
		}
	}
}

func TestLocalize_NilLocationDefaultsToUTC(t *testing.T) {
	c := Candidate{StartUTC: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), EndUTC: time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)}
	views := Localize([]Candidate{c}, nil)
	if views[0].TimeZone != "UTC" || views[0].LocalStart != "2024-01-01T09:00:00Z" {
		t.Errorf("期望 UTC 展示，实际 %+v", views[0])
	}
}

// ── FilterBooked ──

func TestFilterBooked_HalfOpen(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2024, 3, 4, h, m, 0, 0, time.UTC) }
	candidates := []Candidate{
		{StartUTC: at(9, 0), EndUTC: at(9, 30)},
		{StartUTC: at(9, 30), EndUTC: at(10, 0)},
		{StartUTC: at(10, 0), EndUTC: at(10, 30)},
	}
	booked := []Interval{{Start: at(9, 30), End: at(10, 0)}}

	got := FilterBooked(candidates, booked)
	if len(got) != 2 {
		t.Fatalf("期望剩余 2 个时段，实际 %d", len(got))
	}
	// 首尾相接不算相交
	if !got[0].StartUTC.Equal(at(9, 0)) || !got[1].StartUTC.Equal(at(10, 0)) {
		t.Errorf("过滤结果错误: %+v", got)
	}

	partial := FilterBooked(candidates, []Interval{{Start: at(9, 15), End: at(9, 45)}})
	if len(partial) != 1 || !partial[0].StartUTC.Equal(at(10, 0)) {
		t.Errorf("部分相交的时段都应被过滤: %+v", partial)
	}

	views := FilterViews(Localize(candidates, time.UTC), booked)
	if len(views) != 2 {
		t.Errorf("FilterViews 期望 2，实际 %d", len(views))
	}
}

// ── 辅助函数 ──

func TestWeekday(t *testing.T) {
	cases := map[string]string{
		"2024-03-04": "mon",
		"2024-03-09": "sat",
		"2024-03-10": "sun",
		"2024-02-29": "thu",
	}
	for s, want := range cases {
		d, _ := time.Parse("2006-01-02", s)
		if got := Weekday(d); got != want {
			t.Errorf("%s: 期望 %s，实际 %s", s, want, got)
		}
	}
}

func TestClamp(t *testing.T) {
	if ClampSlotMinutes(5) != 15 || ClampSlotMinutes(300) != 240 || ClampSlotMinutes(45) != 45 {
		t.Error("ClampSlotMinutes 结果错误")
	}
	if ClampBreakMinutes(-1) != 0 || ClampBreakMinutes(90) != 60 || ClampBreakMinutes(10) != 10 {
		t.Error("ClampBreakMinutes 结果错误")
	}
}

func TestParseClock(t *testing.T) {
	if h, m, err := ParseClock("23:59"); err != nil || h != 23 || m != 59 {
		t.Errorf("ParseClock(23:59) = %d,%d,%v", h, m, err)
	}
	for _, bad := range []string{"", "9:00", "24:00", "12:60", "ab:cd", "12-00"} {
		if _, _, err := ParseClock(bad); err == nil {
			t.Errorf("ParseClock(%q) 应失败", bad)
		}
	}
}
