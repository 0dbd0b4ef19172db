package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"school-system/backend/internal/cache"
	"school-system/backend/internal/lock"
	"school-system/backend/internal/model"
	"school-system/backend/internal/repository"
	apperrors "school-system/backend/pkg/errors"
)

// ── 测试辅助 ──

const (
	teacherID      = "teacher-1"
	otherTeacherID = "teacher-2"
	studentID      = "student-1"
	student2ID     = "student-2"
	strangerID     = "student-x" // 属于另一位老师
)

// 2024-03-04 是周一
var mondayDate = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func utcAt(h, m int) time.Time {
	return time.Date(2024, 3, 4, h, m, 0, 0, time.UTC)
}

// fakeKV 同时实现 cache.Store 与 lock.Store
type fakeKV struct {
	mu      sync.Mutex
	data    map[string]string
	failDel bool
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) SetWithTTL(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeKV) DeleteByPattern(_ context.Context, pattern string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDel {
		return 0, errors.New("connection reset")
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var n int64
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			delete(f.data, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeKV) SetIfAbsentWithTTL(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value
	return true, nil
}

func (f *fakeKV) CompareAndDelete(_ context.Context, key, value string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data[key] != value {
		return false, nil
	}
	delete(f.data, key)
	return true, nil
}

func (f *fakeKV) countPrefix(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			n++
		}
	}
	return n
}

// testEnv 一组共享 mock 的服务实例
type testEnv struct {
	repo         *repository.Repository
	users        *mockUserRepo
	availability *mockAvailabilityRepo
	holidays     *mockHolidayRepo
	groups       *mockSessionGroupRepo
	kv           *fakeKV

	userSvc         UserService
	availabilitySvc AvailabilityService
	sessionGroupSvc SessionGroupService
	slotSvc         SlotService
	bookingSvc      BookingService
	exportSvc       ExportService
}

// setupTestEnv 老师（UTC）有两名学生；每周一 09:00-12:00 可用，周日不可用
// kv 为 nil 时缓存与锁均不可用
func setupTestEnv(t *testing.T, kv *fakeKV) *testEnv {
	t.Helper()
	env := &testEnv{
		users:        newMockUserRepo(),
		availability: newMockAvailabilityRepo(),
		holidays:     newMockHolidayRepo(),
		groups:       newMockSessionGroupRepo(),
		kv:           kv,
	}
	env.repo = &repository.Repository{
		User:         env.users,
		Availability: env.availability,
		Holiday:      env.holidays,
		SessionGroup: env.groups,
	}

	tid, otid := teacherID, otherTeacherID
	env.users.users[teacherID] = &model.User{UserID: teacherID, Name: "王老师", Role: model.RoleTeacher, Timezone: "UTC"}
	env.users.users[otherTeacherID] = &model.User{UserID: otherTeacherID, Name: "李老师", Role: model.RoleTeacher, Timezone: "UTC"}
	env.users.users[studentID] = &model.User{UserID: studentID, Name: "张三", Role: model.RoleStudent, TeacherID: &tid, Timezone: "Europe/London"}
	env.users.users[student2ID] = &model.User{UserID: student2ID, Name: "李四", Role: model.RoleStudent, TeacherID: &tid, Timezone: "Asia/Tokyo"}
	env.users.users[strangerID] = &model.User{UserID: strangerID, Name: "王五", Role: model.RoleStudent, TeacherID: &otid, Timezone: "UTC"}

	env.setWeekly(teacherID, "09:00", "12:00")

	var (
		cacheStore cache.Store
		lockStore  lock.Store
	)
	if kv != nil {
		cacheStore = kv
		lockStore = kv
	}
	logger := zap.NewNop()
	slotCache := cache.NewSlotCache(cacheStore, 12*time.Hour, logger)
	locker := lock.NewLocker(lockStore, 10*time.Second, logger)

	env.userSvc = NewUserService(env.repo, logger)
	env.availabilitySvc = NewAvailabilityService(env.repo, logger)
	env.sessionGroupSvc = NewSessionGroupService(env.repo, slotCache, time.UTC, logger)
	env.slotSvc = NewSlotService(env.repo, slotCache, time.UTC, logger)
	env.bookingSvc = NewBookingService(env.repo, slotCache, locker, time.UTC, logger)
	env.exportSvc = NewExportService(env.repo, time.UTC, logger)
	return env
}

// setWeekly 周一至周六使用相同窗口，周日不可用
func (e *testEnv) setWeekly(teacher, start, end string) {
	days := make([]model.AvailabilityDay, 0, 7)
	for _, d := range model.Weekdays {
		day := model.AvailabilityDay{TeacherID: teacher, Day: d, StartTime: start, EndTime: end}
		if d == "sun" {
			day.StartTime, day.EndTime = model.UnsetClock, model.UnsetClock
		}
		days = append(days, day)
	}
	e.availability.days[teacher] = days
}

// seedGroup 直接写入一个周一的课程组
func (e *testEnv) seedGroup(t *testing.T, title string, allowed *string) *model.SessionGroup {
	t.Helper()
	g := &model.SessionGroup{
		TeacherID:        teacherID,
		Title:            title,
		Date:             mondayDate,
		SlotDuration:     30,
		BreakDuration:    0,
		AllowedStudentID: allowed,
	}
	if err := e.groups.Create(context.Background(), g); err != nil {
		t.Fatalf("写入课程组失败: %v", err)
	}
	return g
}

// seedBooking 直接写入一条预约
func (e *testEnv) seedBooking(t *testing.T, groupID string, start, end time.Time, by string, byTeacher bool) {
	t.Helper()
	g, err := e.groups.GetByID(context.Background(), groupID)
	if err != nil {
		t.Fatalf("查询课程组失败: %v", err)
	}
	b := &model.BookedSlot{StartTime: start, EndTime: end, BookedBy: by, BookedByTeacher: byTeacher}
	if err := e.groups.AddBookedSlot(context.Background(), g, b); err != nil {
		t.Fatalf("写入预约失败: %v", err)
	}
}

func assertKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	if got := apperrors.KindOf(err); got != kind {
		t.Errorf("期望错误分类 %s，实际 %q (%v)", kind, got, err)
	}
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }
