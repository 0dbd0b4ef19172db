package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"school-system/backend/internal/model"
	"school-system/backend/internal/repository"
	pkgerrors "school-system/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) UpdateTimezone(_ context.Context, id, timezone string) error {
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Timezone = timezone
	return nil
}

// ── Mock AvailabilityRepository ──

type mockAvailabilityRepo struct {
	days map[string][]model.AvailabilityDay
}

func newMockAvailabilityRepo() *mockAvailabilityRepo {
	return &mockAvailabilityRepo{days: make(map[string][]model.AvailabilityDay)}
}

func (m *mockAvailabilityRepo) GetWeekly(_ context.Context, teacherID string) ([]model.AvailabilityDay, error) {
	return m.days[teacherID], nil
}

func (m *mockAvailabilityRepo) ReplaceWeekly(_ context.Context, teacherID string, days []model.AvailabilityDay) error {
	m.days[teacherID] = append([]model.AvailabilityDay(nil), days...)
	return nil
}

// ── Mock HolidayRepository ──

type mockHolidayRepo struct {
	holidays map[string]*model.Holiday
	seq      int
}

func newMockHolidayRepo() *mockHolidayRepo {
	return &mockHolidayRepo{holidays: make(map[string]*model.Holiday)}
}

func (m *mockHolidayRepo) Create(_ context.Context, h *model.Holiday) error {
	for _, existing := range m.holidays {
		if existing.TeacherID == h.TeacherID && existing.Overlaps(h.StartDate, h.EndDate) {
			return &repository.ConstraintError{Kind: repository.ErrExclusionViolation, Constraint: "holidays_excl"}
		}
	}
	if h.HolidayID == "" {
		m.seq++
		h.HolidayID = fmt.Sprintf("hol-%d", m.seq)
	}
	m.holidays[h.HolidayID] = h
	return nil
}

func (m *mockHolidayRepo) GetByID(_ context.Context, id string) (*model.Holiday, error) {
	if h, ok := m.holidays[id]; ok {
		return h, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockHolidayRepo) ListByTeacher(_ context.Context, teacherID string) ([]model.Holiday, error) {
	var result []model.Holiday
	for _, h := range m.holidays {
		if h.TeacherID == teacherID {
			result = append(result, *h)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.Before(result[j].StartDate) })
	return result, nil
}

func (m *mockHolidayRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.holidays[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.holidays, id)
	return nil
}

// ── Mock SessionGroupRepository ──
// 并发安全；GetByID 返回副本，模拟每次从数据库读取

type mockSessionGroupRepo struct {
	mu        sync.Mutex
	groups    map[string]*model.SessionGroup
	seq       int
	creates   int
	failAddFn func() error
}

func newMockSessionGroupRepo() *mockSessionGroupRepo {
	return &mockSessionGroupRepo{groups: make(map[string]*model.SessionGroup)}
}

func cloneGroup(g *model.SessionGroup) *model.SessionGroup {
	c := *g
	c.BookedSlots = append([]model.BookedSlot(nil), g.BookedSlots...)
	sort.Slice(c.BookedSlots, func(i, j int) bool { return c.BookedSlots[i].StartTime.Before(c.BookedSlots[j].StartTime) })
	return &c
}

func (m *mockSessionGroupRepo) Create(_ context.Context, g *model.SessionGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.groups {
		if existing.TeacherID != g.TeacherID || !existing.Date.Equal(g.Date) {
			continue
		}
		if existing.Title == g.Title {
			return &repository.ConstraintError{Kind: repository.ErrUniqueViolation, Constraint: repository.ConstraintTitleDate}
		}
		if sameRestriction(existing.AllowedStudentID, g.AllowedStudentID) {
			return &repository.ConstraintError{Kind: repository.ErrUniqueViolation, Constraint: repository.ConstraintRestriction}
		}
	}
	m.seq++
	m.creates++
	if g.SessionGroupID == "" {
		g.SessionGroupID = fmt.Sprintf("sg-%d", m.seq)
	}
	if g.Version == 0 {
		g.Version = 1
	}
	g.CreatedAt = time.Now().UTC()
	m.groups[g.SessionGroupID] = cloneGroup(g)
	return nil
}

func (m *mockSessionGroupRepo) GetByID(_ context.Context, id string) (*model.SessionGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.groups[id]; ok {
		return cloneGroup(g), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionGroupRepo) FindByTitleAndDate(_ context.Context, teacherID, title string, date time.Time) (*model.SessionGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.groups {
		if g.TeacherID == teacherID && g.Title == title && g.Date.Equal(date) {
			return cloneGroup(g), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionGroupRepo) FindByRestriction(_ context.Context, teacherID string, date time.Time, allowed *string) (*model.SessionGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.groups {
		if g.TeacherID == teacherID && g.Date.Equal(date) && sameRestriction(g.AllowedStudentID, allowed) {
			return cloneGroup(g), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionGroupRepo) ListByTeacher(_ context.Context, teacherID string, from, to *time.Time) ([]model.SessionGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.SessionGroup
	for _, g := range m.groups {
		if g.TeacherID != teacherID {
			continue
		}
		if from != nil && g.Date.Before(*from) {
			continue
		}
		if to != nil && g.Date.After(*to) {
			continue
		}
		result = append(result, *cloneGroup(g))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *mockSessionGroupRepo) ListForStudent(_ context.Context, teacherID, studentID string, from *time.Time) ([]model.SessionGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.SessionGroup
	for _, g := range m.groups {
		if g.TeacherID != teacherID || !g.Permits(studentID) {
			continue
		}
		if from != nil && g.Date.Before(*from) {
			continue
		}
		result = append(result, *cloneGroup(g))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *mockSessionGroupRepo) Delete(_ context.Context, g *model.SessionGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.groups[g.SessionGroupID]
	if !ok || stored.Version != g.Version {
		return pkgerrors.ErrOptimisticLock
	}
	if len(stored.BookedSlots) > 0 {
		return &repository.ConstraintError{Kind: repository.ErrForeignKeyViolation, Constraint: "booked_slots_session_group_id_fkey"}
	}
	delete(m.groups, g.SessionGroupID)
	return nil
}

func (m *mockSessionGroupRepo) AddBookedSlot(_ context.Context, g *model.SessionGroup, s *model.BookedSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAddFn != nil {
		if err := m.failAddFn(); err != nil {
			return err
		}
	}
	stored, ok := m.groups[g.SessionGroupID]
	if !ok || stored.Version != g.Version {
		return pkgerrors.ErrOptimisticLock
	}
	for _, b := range stored.BookedSlots {
		if s.StartTime.Before(b.EndTime) && s.EndTime.After(b.StartTime) {
			return &repository.ConstraintError{Kind: repository.ErrExclusionViolation, Constraint: repository.ConstraintBookedOverlap}
		}
	}
	m.seq++
	s.BookedSlotID = fmt.Sprintf("bs-%d", m.seq)
	s.SessionGroupID = g.SessionGroupID
	s.CreatedAt = time.Now().UTC()
	stored.BookedSlots = append(stored.BookedSlots, *s)
	stored.Version++
	g.Version = stored.Version
	g.BookedSlots = append(g.BookedSlots, *s)
	return nil
}

func (m *mockSessionGroupRepo) RemoveBookedSlot(_ context.Context, g *model.SessionGroup, slotID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.groups[g.SessionGroupID]
	if !ok || stored.Version != g.Version {
		return pkgerrors.ErrOptimisticLock
	}
	kept := stored.BookedSlots[:0]
	found := false
	for _, b := range stored.BookedSlots {
		if b.BookedSlotID == slotID {
			found = true
			continue
		}
		kept = append(kept, b)
	}
	if !found {
		return gorm.ErrRecordNotFound
	}
	stored.BookedSlots = kept
	stored.Version++
	g.Version = stored.Version
	g.BookedSlots = append([]model.BookedSlot(nil), kept...)
	return nil
}

func (m *mockSessionGroupRepo) ListBookedByStudent(_ context.Context, studentID string) ([]model.BookedSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.BookedSlot
	for _, g := range m.groups {
		for _, b := range g.BookedSlots {
			if b.BookedBy == studentID {
				b.SessionGroup = &model.SessionGroup{SessionGroupID: g.SessionGroupID, Title: g.Title, Date: g.Date}
				result = append(result, b)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

// bookedCount 测试辅助：当前持久化的预约数
func (m *mockSessionGroupRepo) bookedCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.groups[id]; ok {
		return len(g.BookedSlots)
	}
	return 0
}

func sameRestriction(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
