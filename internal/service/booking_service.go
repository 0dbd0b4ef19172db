package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-system/backend/internal/cache"
	"school-system/backend/internal/dto"
	"school-system/backend/internal/lock"
	"school-system/backend/internal/model"
	"school-system/backend/internal/repository"
	"school-system/backend/internal/slot"
	apperrors "school-system/backend/pkg/errors"
)

// ── 预约模块业务错误 ──

var (
	ErrInvalidInterval      = apperrors.Validation(14001, "时段区间无效：结束时间须晚于开始时间")
	ErrInvalidTimeZone      = apperrors.Validation(14001, "时区无效")
	ErrAssignDateMismatch   = apperrors.Validation(14001, "日期与课程组日期不一致")
	ErrSlotAlreadyBooked    = apperrors.Conflict(14002, "该时段与已有预约重叠")
	ErrSlotLocked           = apperrors.Conflict(14003, "该时段正在被他人预约，请刷新后重试")
	ErrStudentNotPermitted  = apperrors.Forbidden(14004, "该学生无权预约此课程组")
	ErrBookedSlotNotFound   = apperrors.NotFound(14005, "预约不存在")
	ErrCancelSelfBooked     = apperrors.Forbidden(14006, "只能取消老师代约的时段")
	ErrLockStoreUnavailable = apperrors.Unavailable(14007, "预约服务暂不可用，请稍后重试")
)

// BookingService 预约协调：加锁 → 校验重叠 → 持久化 → 失效缓存 → 释放锁
type BookingService interface {
	Book(ctx context.Context, studentID, sessionID string, req *dto.BookSlotRequest) (*dto.BookedSlotResponse, error)
	Assign(ctx context.Context, teacherID, sessionID string, req *dto.AssignSlotRequest) (*dto.BookedSlotResponse, error)
	CancelAssigned(ctx context.Context, teacherID, sessionID string, req *dto.CancelAssignedRequest) error
	ListStudentBookings(ctx context.Context, studentID string) ([]dto.StudentBookingResponse, error)
}

type bookingService struct {
	repo       *repository.Repository
	cache      *cache.SlotCache
	locker     *lock.Locker
	defaultLoc *time.Location
	logger     *zap.Logger
}

// NewBookingService 创建 BookingService 实例
func NewBookingService(repo *repository.Repository, slotCache *cache.SlotCache, locker *lock.Locker, defaultLoc *time.Location, logger *zap.Logger) BookingService {
	return &bookingService{repo: repo, cache: slotCache, locker: locker, defaultLoc: defaultLoc, logger: logger}
}

// ────────────────────── Book ──────────────────────

func (s *bookingService) Book(ctx context.Context, studentID, sessionID string, req *dto.BookSlotRequest) (*dto.BookedSlotResponse, error) {
	iv := slot.Interval{Start: req.StartUTC.UTC(), End: req.EndUTC.UTC()}
	if !iv.Valid() {
		return nil, ErrInvalidInterval
	}

	group, err := loadSessionGroup(ctx, s.repo, sessionID)
	if err != nil {
		return nil, err
	}
	student, err := loadUser(ctx, s.repo, studentID)
	if err != nil {
		return nil, err
	}
	if !student.BelongsTo(group.TeacherID) || !group.Permits(studentID) {
		return nil, ErrStudentNotPermitted
	}

	return s.reserve(ctx, group, iv, studentID, false)
}

// ────────────────────── Assign ──────────────────────

func (s *bookingService) Assign(ctx context.Context, teacherID, sessionID string, req *dto.AssignSlotRequest) (*dto.BookedSlotResponse, error) {
	group, err := loadSessionGroup(ctx, s.repo, sessionID)
	if err != nil {
		return nil, err
	}
	if group.TeacherID != teacherID {
		return nil, ErrSessionGroupForbidden
	}

	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, ErrInvalidInterval
	}
	if !date.Equal(model.CalendarDate(group.Date)) {
		return nil, ErrAssignDateMismatch
	}

	teacher, err := loadUser(ctx, s.repo, teacherID)
	if err != nil {
		return nil, err
	}
	loc := userLocation(teacher, s.defaultLoc)

	// 老师本地墙上时间 → UTC
	start, err := slot.WallClock(date, req.StartTime, loc)
	if err != nil {
		return nil, ErrInvalidInterval
	}
	end, err := slot.WallClock(date, req.EndTime, loc)
	if err != nil {
		return nil, ErrInvalidInterval
	}
	iv := slot.Interval{Start: start.UTC(), End: end.UTC()}
	if !iv.Valid() {
		return nil, ErrInvalidInterval
	}

	student, err := loadUser(ctx, s.repo, req.StudentID)
	if err != nil {
		return nil, err
	}
	if !student.BelongsTo(teacherID) || !group.Permits(student.UserID) {
		return nil, ErrStudentNotPermitted
	}

	return s.reserve(ctx, group, iv, student.UserID, true)
}

// ────────────────────── CancelAssigned ──────────────────────

func (s *bookingService) CancelAssigned(ctx context.Context, teacherID, sessionID string, req *dto.CancelAssignedRequest) error {
	iv := slot.Interval{Start: req.StartUTC.UTC(), End: req.EndUTC.UTC()}
	if !iv.Valid() {
		return ErrInvalidInterval
	}

	group, err := loadSessionGroup(ctx, s.repo, sessionID)
	if err != nil {
		return err
	}
	if group.TeacherID != teacherID {
		return ErrSessionGroupForbidden
	}

	var target *model.BookedSlot
	for i := range group.BookedSlots {
		b := &group.BookedSlots[i]
		if b.StartTime.Equal(iv.Start) && b.EndTime.Equal(iv.End) {
			target = b
			break
		}
	}
	if target == nil {
		return ErrBookedSlotNotFound
	}
	if !target.BookedByTeacher {
		return ErrCancelSelfBooked
	}

	slotID, studentID := target.BookedSlotID, target.BookedBy
	if err := s.repo.SessionGroup.RemoveBookedSlot(ctx, group, slotID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookedSlotNotFound
		}
		if errors.Is(err, apperrors.ErrOptimisticLock) {
			return err
		}
		s.logger.Error("取消预约失败", zap.String("booked_slot_id", slotID), zap.Error(err))
		return err
	}

	s.cache.Invalidate(ctx, group.TeacherID, group.SessionGroupID)
	s.logger.Info("已取消代约时段",
		zap.String("session_group_id", sessionID),
		zap.String("student_id", studentID),
		zap.Time("start", iv.Start),
	)
	return nil
}

// ────────────────────── ListStudentBookings ──────────────────────

func (s *bookingService) ListStudentBookings(ctx context.Context, studentID string) ([]dto.StudentBookingResponse, error) {
	slots, err := s.repo.SessionGroup.ListBookedByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询学生预约失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.StudentBookingResponse, 0, len(slots))
	for _, b := range slots {
		item := dto.StudentBookingResponse{
			ID:              b.BookedSlotID,
			SessionGroupID:  b.SessionGroupID,
			StartUTC:        b.StartTime.UTC(),
			EndUTC:          b.EndTime.UTC(),
			BookedByTeacher: b.BookedByTeacher,
		}
		if b.SessionGroup != nil {
			item.Title = b.SessionGroup.Title
		}
		result = append(result, item)
	}
	return result, nil
}

// ═══════════════════════════════════════════════════════════
// reserve 单次预约的加锁流程
// ═══════════════════════════════════════════════════════════

func (s *bookingService) reserve(ctx context.Context, group *model.SessionGroup, iv slot.Interval, studentID string, byTeacher bool) (*dto.BookedSlotResponse, error) {
	key := lock.SlotKey(group.SessionGroupID, iv.Start)
	handle, acquired, err := s.locker.Acquire(ctx, key)
	if err != nil {
		if errors.Is(err, lock.ErrLockUnavailable) {
			s.logger.Error("锁存储不可用，拒绝预约", zap.String("key", key), zap.Error(err))
			return nil, ErrLockStoreUnavailable
		}
		return nil, err
	}
	if !acquired {
		return nil, ErrSlotLocked
	}
	defer s.locker.Release(ctx, handle)

	// 锁内以数据库为准重新读取
	current, err := loadSessionGroup(ctx, s.repo, group.SessionGroupID)
	if err != nil {
		return nil, err
	}
	if slot.OverlapsAny(iv, bookedIntervals(current)) {
		return nil, ErrSlotAlreadyBooked
	}

	booked := &model.BookedSlot{
		StartTime:       iv.Start,
		EndTime:         iv.End,
		BookedBy:        studentID,
		BookedByTeacher: byTeacher,
	}
	if err := s.repo.SessionGroup.AddBookedSlot(ctx, current, booked); err != nil {
		switch {
		case errors.Is(err, repository.ErrExclusionViolation):
			return nil, ErrSlotAlreadyBooked
		case errors.Is(err, apperrors.ErrOptimisticLock):
			return nil, err
		}
		s.logger.Error("保存预约失败", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	s.cache.Invalidate(ctx, current.TeacherID, current.SessionGroupID)

	s.logger.Info("预约成功",
		zap.String("session_group_id", current.SessionGroupID),
		zap.String("student_id", studentID),
		zap.Bool("by_teacher", byTeacher),
		zap.Time("start", iv.Start),
	)
	resp := toBookedSlotResponse(booked)
	return &resp, nil
}
