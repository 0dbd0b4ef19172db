package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-system/backend/internal/dto"
	"school-system/backend/internal/model"
	"school-system/backend/internal/repository"
	apperrors "school-system/backend/pkg/errors"
)

// ── 可用时间模块业务错误 ──

var (
	ErrInvalidAvailability = apperrors.Validation(12001, "每周可用时间无效：七天须各出现一次，且开始早于结束或均为 00:00")
	ErrInvalidHolidayRange = apperrors.Validation(12002, "休假结束日期不能早于开始日期")
	ErrHolidayOverlap      = apperrors.Conflict(12003, "休假与已有休假重叠")
	ErrHolidayNotFound     = apperrors.NotFound(12004, "休假不存在")
	ErrAvailabilityNotSet  = apperrors.NotFound(12005, "尚未设置每周可用时间")
)

// AvailabilityService 老师可用时间与休假业务接口
type AvailabilityService interface {
	GetWeekly(ctx context.Context, teacherID string) (*dto.WeeklyAvailabilityResponse, error)
	SetWeekly(ctx context.Context, teacherID string, req *dto.SetWeeklyAvailabilityRequest) (*dto.WeeklyAvailabilityResponse, error)
	ListHolidays(ctx context.Context, teacherID string) ([]dto.HolidayResponse, error)
	AddHoliday(ctx context.Context, teacherID string, req *dto.CreateHolidayRequest) (*dto.HolidayResponse, error)
	DeleteHoliday(ctx context.Context, teacherID, holidayID string) error
}

type availabilityService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAvailabilityService 创建 AvailabilityService 实例
func NewAvailabilityService(repo *repository.Repository, logger *zap.Logger) AvailabilityService {
	return &availabilityService{repo: repo, logger: logger}
}

// ────────────────────── Weekly ──────────────────────

func (s *availabilityService) GetWeekly(ctx context.Context, teacherID string) (*dto.WeeklyAvailabilityResponse, error) {
	days, err := s.repo.Availability.GetWeekly(ctx, teacherID)
	if err != nil {
		s.logger.Error("查询每周可用时间失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}
	if len(days) == 0 {
		return nil, ErrAvailabilityNotSet
	}
	return toWeeklyResponse(teacherID, days), nil
}

func (s *availabilityService) SetWeekly(ctx context.Context, teacherID string, req *dto.SetWeeklyAvailabilityRequest) (*dto.WeeklyAvailabilityResponse, error) {
	if len(req.Days) != len(model.Weekdays) {
		return nil, ErrInvalidAvailability
	}
	seen := make(map[string]bool, len(req.Days))
	days := make([]model.AvailabilityDay, 0, len(req.Days))
	for _, item := range req.Days {
		if seen[item.Day] {
			return nil, ErrInvalidAvailability
		}
		seen[item.Day] = true

		day := model.AvailabilityDay{
			TeacherID: teacherID,
			Day:       item.Day,
			StartTime: item.StartTime,
			EndTime:   item.EndTime,
		}
		// "HH:MM" 定长，字典序即时间序
		if !day.IsUnset() && day.StartTime >= day.EndTime {
			return nil, ErrInvalidAvailability
		}
		days = append(days, day)
	}

	if err := s.repo.Availability.ReplaceWeekly(ctx, teacherID, days); err != nil {
		s.logger.Error("保存每周可用时间失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("每周可用时间已更新", zap.String("teacher_id", teacherID))
	return toWeeklyResponse(teacherID, days), nil
}

// ────────────────────── Holidays ──────────────────────

func (s *availabilityService) ListHolidays(ctx context.Context, teacherID string) ([]dto.HolidayResponse, error) {
	holidays, err := s.repo.Holiday.ListByTeacher(ctx, teacherID)
	if err != nil {
		s.logger.Error("查询休假失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.HolidayResponse, 0, len(holidays))
	for i := range holidays {
		result = append(result, *toHolidayResponse(&holidays[i]))
	}
	return result, nil
}

func (s *availabilityService) AddHoliday(ctx context.Context, teacherID string, req *dto.CreateHolidayRequest) (*dto.HolidayResponse, error) {
	start, err := model.ParseDate(req.StartDate)
	if err != nil {
		return nil, ErrInvalidHolidayRange
	}
	end, err := model.ParseDate(req.EndDate)
	if err != nil {
		return nil, ErrInvalidHolidayRange
	}
	if end.Before(start) {
		return nil, ErrInvalidHolidayRange
	}

	existing, err := s.repo.Holiday.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if existing[i].Overlaps(start, end) {
			return nil, ErrHolidayOverlap
		}
	}

	holiday := &model.Holiday{
		TeacherID: teacherID,
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
		Note:      req.Note,
	}
	if err := s.repo.Holiday.Create(ctx, holiday); err != nil {
		if errors.Is(err, repository.ErrExclusionViolation) {
			return nil, ErrHolidayOverlap
		}
		s.logger.Error("创建休假失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}

	return toHolidayResponse(holiday), nil
}

func (s *availabilityService) DeleteHoliday(ctx context.Context, teacherID, holidayID string) error {
	holiday, err := s.repo.Holiday.GetByID(ctx, holidayID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHolidayNotFound
		}
		return err
	}
	// 他人的休假按不存在处理
	if holiday.TeacherID != teacherID {
		return ErrHolidayNotFound
	}

	if err := s.repo.Holiday.Delete(ctx, holidayID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHolidayNotFound
		}
		s.logger.Error("删除休假失败", zap.String("id", holidayID), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助方法 ──

// toWeeklyResponse 按 mon..sun 输出，缺失的天补 00:00-00:00
func toWeeklyResponse(teacherID string, days []model.AvailabilityDay) *dto.WeeklyAvailabilityResponse {
	byDay := make(map[string]model.AvailabilityDay, len(days))
	for _, d := range days {
		byDay[d.Day] = d
	}
	resp := &dto.WeeklyAvailabilityResponse{TeacherID: teacherID, Days: make([]dto.AvailabilityDayItem, 0, 7)}
	for _, name := range model.Weekdays {
		item := dto.AvailabilityDayItem{Day: name, StartTime: model.UnsetClock, EndTime: model.UnsetClock}
		if d, ok := byDay[name]; ok {
			item.StartTime, item.EndTime = d.StartTime, d.EndTime
		}
		resp.Days = append(resp.Days, item)
	}
	return resp
}

func toHolidayResponse(h *model.Holiday) *dto.HolidayResponse {
	return &dto.HolidayResponse{
		ID:        h.HolidayID,
		StartDate: h.StartDate.Format(model.DateLayout),
		EndDate:   h.EndDate.Format(model.DateLayout),
		Reason:    h.Reason,
		Note:      h.Note,
	}
}
