package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-system/backend/internal/cache"
	"school-system/backend/internal/dto"
	"school-system/backend/internal/model"
	"school-system/backend/internal/repository"
	"school-system/backend/internal/slot"
	apperrors "school-system/backend/pkg/errors"
)

// ── 课程组模块业务错误 ──

var (
	ErrSessionGroupNotFound    = apperrors.NotFound(13001, "课程组不存在")
	ErrInvalidSessionGroup     = apperrors.Validation(13002, "课程组参数无效：标题、日期不能为空，时长须为正数")
	ErrInvalidAllowedStudent   = apperrors.Validation(13002, "指定学生不属于该老师")
	ErrDuplicateSessionGroup   = apperrors.Conflict(13003, "同一天已存在同名课程组")
	ErrDuplicateRestriction    = apperrors.Conflict(13004, "同一天已存在相同开放范围的课程组")
	ErrDateInHoliday           = apperrors.Conflict(13005, "该日期处于休假中")
	ErrWindowUnset             = apperrors.Validation(13006, "该日期对应的星期未设置可用时间")
	ErrNoSlotFits              = apperrors.Validation(13007, "可用时间内放不下任何一个时段")
	ErrSessionGroupHasBookings = apperrors.Conflict(13008, "课程组已有预约，不能删除")
	ErrSessionGroupForbidden   = apperrors.Forbidden(13009, "无权操作该课程组")
)

// 创建课程组时省略时长的默认值（分钟）
const (
	defaultSlotMinutes  = 30
	defaultBreakMinutes = 0
)

// SessionGroupService 课程组生命周期业务接口
type SessionGroupService interface {
	Create(ctx context.Context, teacherID string, req *dto.CreateSessionGroupRequest) (*dto.SessionGroupResponse, error)
	Get(ctx context.Context, viewerID, id string) (*dto.SessionGroupResponse, error)
	List(ctx context.Context, teacherID string, req *dto.SessionGroupListRequest) ([]dto.SessionGroupResponse, error)
	ListForStudent(ctx context.Context, studentID string, req *dto.SessionGroupListRequest) ([]dto.SessionGroupResponse, error)
	Delete(ctx context.Context, teacherID, id string) error
}

type sessionGroupService struct {
	repo       *repository.Repository
	cache      *cache.SlotCache
	defaultLoc *time.Location
	logger     *zap.Logger
}

// NewSessionGroupService 创建 SessionGroupService 实例
func NewSessionGroupService(repo *repository.Repository, slotCache *cache.SlotCache, defaultLoc *time.Location, logger *zap.Logger) SessionGroupService {
	return &sessionGroupService{repo: repo, cache: slotCache, defaultLoc: defaultLoc, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *sessionGroupService) Create(ctx context.Context, teacherID string, req *dto.CreateSessionGroupRequest) (*dto.SessionGroupResponse, error) {
	// 1. 基本字段
	title := strings.TrimSpace(req.Title)
	if title == "" || req.Date == "" {
		return nil, ErrInvalidSessionGroup
	}
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, ErrInvalidSessionGroup
	}
	slotMinutes, breakMinutes, err := resolveDurations(req.SlotDuration, req.BreakDuration)
	if err != nil {
		return nil, err
	}

	teacher, err := loadUser(ctx, s.repo, teacherID)
	if err != nil {
		return nil, err
	}
	if !teacher.IsTeacher() {
		return nil, ErrSessionGroupForbidden
	}

	if req.AllowedStudentID != nil {
		student, err := loadUser(ctx, s.repo, *req.AllowedStudentID)
		if err != nil {
			return nil, err
		}
		if !student.BelongsTo(teacherID) {
			return nil, ErrInvalidAllowedStudent
		}
	}

	// 2. 同名同日
	if _, err := s.repo.SessionGroup.FindByTitleAndDate(ctx, teacherID, title, date); err == nil {
		return nil, ErrDuplicateSessionGroup
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 3. 休假
	holidays, err := s.repo.Holiday.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	for i := range holidays {
		if holidays[i].Contains(date) {
			return nil, ErrDateInHoliday
		}
	}

	// 4. 星期窗口
	days, err := s.repo.Availability.GetWeekly(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	weekly := &model.WeeklyAvailability{TeacherID: teacherID, Days: days}
	window, ok := weekly.Window(slot.Weekday(date))
	if !ok {
		return nil, ErrWindowUnset
	}

	// 5. 开放范围
	if _, err := s.repo.SessionGroup.FindByRestriction(ctx, teacherID, date, req.AllowedStudentID); err == nil {
		return nil, ErrDuplicateRestriction
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 6. 至少能生成一个时段
	candidates, err := slot.Generate(slot.Params{
		Date:         date,
		Window:       window,
		SlotMinutes:  slotMinutes,
		BreakMinutes: breakMinutes,
		Location:     userLocation(teacher, s.defaultLoc),
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoSlotFits
	}

	group := &model.SessionGroup{
		TeacherID:        teacherID,
		Title:            title,
		Date:             date,
		SlotDuration:     slotMinutes,
		BreakDuration:    breakMinutes,
		AllowedStudentID: req.AllowedStudentID,
	}
	if err := s.repo.SessionGroup.Create(ctx, group); err != nil {
		// 并发创建由数据库唯一约束兜底
		switch {
		case repository.IsConstraint(err, repository.ConstraintTitleDate):
			return nil, ErrDuplicateSessionGroup
		case repository.IsConstraint(err, repository.ConstraintRestriction):
			return nil, ErrDuplicateRestriction
		}
		s.logger.Error("创建课程组失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}

	s.cache.PutBase(ctx, cache.BaseKey{
		TeacherID: teacherID,
		SessionID: group.SessionGroupID,
		Date:      date,
		Window:    window,
	}, candidates)

	s.logger.Info("课程组已创建",
		zap.String("session_group_id", group.SessionGroupID),
		zap.String("date", req.Date),
		zap.Int("slots", len(candidates)),
	)
	return toSessionGroupResponse(group, ""), nil
}

// ────────────────────── Get / List ──────────────────────

func (s *sessionGroupService) Get(ctx context.Context, viewerID, id string) (*dto.SessionGroupResponse, error) {
	group, err := loadSessionGroup(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	viewer, err := loadUser(ctx, s.repo, viewerID)
	if err != nil {
		return nil, err
	}
	if err := checkGroupAccess(group, viewer); err != nil {
		return nil, err
	}
	if viewer.IsTeacher() {
		return toSessionGroupResponse(group, ""), nil
	}
	return toSessionGroupResponse(group, viewer.UserID), nil
}

func (s *sessionGroupService) List(ctx context.Context, teacherID string, req *dto.SessionGroupListRequest) ([]dto.SessionGroupResponse, error) {
	from, to, err := parseRange(req)
	if err != nil {
		return nil, err
	}
	groups, err := s.repo.SessionGroup.ListByTeacher(ctx, teacherID, from, to)
	if err != nil {
		s.logger.Error("列出课程组失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.SessionGroupResponse, 0, len(groups))
	for i := range groups {
		result = append(result, *toSessionGroupResponse(&groups[i], ""))
	}
	return result, nil
}

func (s *sessionGroupService) ListForStudent(ctx context.Context, studentID string, req *dto.SessionGroupListRequest) ([]dto.SessionGroupResponse, error) {
	from, _, err := parseRange(req)
	if err != nil {
		return nil, err
	}
	student, err := loadUser(ctx, s.repo, studentID)
	if err != nil {
		return nil, err
	}
	result := make([]dto.SessionGroupResponse, 0)
	if student.TeacherID == nil {
		return result, nil
	}
	groups, err := s.repo.SessionGroup.ListForStudent(ctx, *student.TeacherID, studentID, from)
	if err != nil {
		s.logger.Error("列出学生可见课程组失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	for i := range groups {
		result = append(result, *toSessionGroupResponse(&groups[i], studentID))
	}
	return result, nil
}

// ────────────────────── Delete ──────────────────────

func (s *sessionGroupService) Delete(ctx context.Context, teacherID, id string) error {
	group, err := loadSessionGroup(ctx, s.repo, id)
	if err != nil {
		return err
	}
	if group.TeacherID != teacherID {
		return ErrSessionGroupForbidden
	}
	if len(group.BookedSlots) > 0 {
		return ErrSessionGroupHasBookings
	}

	if err := s.repo.SessionGroup.Delete(ctx, group); err != nil {
		// 检查之后到删除之间新增了预约
		if errors.Is(err, repository.ErrForeignKeyViolation) || errors.Is(err, apperrors.ErrOptimisticLock) {
			return ErrSessionGroupHasBookings
		}
		s.logger.Error("删除课程组失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.cache.Invalidate(ctx, group.TeacherID, group.SessionGroupID)
	s.logger.Info("课程组已删除", zap.String("session_group_id", id))
	return nil
}

// ── 内部辅助方法 ──

// resolveDurations 省略时取默认值；显式给出的非正时段或负间隔视为无效；其余钳制到允许范围
func resolveDurations(slotDuration, breakDuration *int) (int, int, error) {
	slotMinutes, breakMinutes := defaultSlotMinutes, defaultBreakMinutes
	if slotDuration != nil {
		if *slotDuration <= 0 {
			return 0, 0, ErrInvalidSessionGroup
		}
		slotMinutes = *slotDuration
	}
	if breakDuration != nil {
		if *breakDuration < 0 {
			return 0, 0, ErrInvalidSessionGroup
		}
		breakMinutes = *breakDuration
	}
	return slot.ClampSlotMinutes(slotMinutes), slot.ClampBreakMinutes(breakMinutes), nil
}

func parseRange(req *dto.SessionGroupListRequest) (from, to *time.Time, err error) {
	if req == nil {
		return nil, nil, nil
	}
	if req.From != "" {
		d, err := model.ParseDate(req.From)
		if err != nil {
			return nil, nil, ErrInvalidSessionGroup
		}
		from = &d
	}
	if req.To != "" {
		d, err := model.ParseDate(req.To)
		if err != nil {
			return nil, nil, ErrInvalidSessionGroup
		}
		to = &d
	}
	return from, to, nil
}
