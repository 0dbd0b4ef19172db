package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"school-system/backend/internal/cache"
	"school-system/backend/internal/dto"
	"school-system/backend/internal/model"
	"school-system/backend/internal/repository"
	"school-system/backend/internal/slot"
)

// SlotService 可预约时段读路径
type SlotService interface {
	// ListSlots 展示时区优先级：tz 参数 > 观看者时区 > 老师时区
	ListSlots(ctx context.Context, viewerID, sessionID, tz string) (*dto.SlotListResponse, error)
}

type slotService struct {
	repo       *repository.Repository
	cache      *cache.SlotCache
	defaultLoc *time.Location
	logger     *zap.Logger
}

// NewSlotService 创建 SlotService 实例
func NewSlotService(repo *repository.Repository, slotCache *cache.SlotCache, defaultLoc *time.Location, logger *zap.Logger) SlotService {
	return &slotService{repo: repo, cache: slotCache, defaultLoc: defaultLoc, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ListSlots：派生层 → 基础层 → 生成器
// ═══════════════════════════════════════════════════════════
//
// 无论命中哪一层，返回前都按课程组当前的已预约列表重新过滤，
// 缓存只省去生成与换算的开销，不作为是否可预约的依据。

func (s *slotService) ListSlots(ctx context.Context, viewerID, sessionID, tz string) (*dto.SlotListResponse, error) {
	group, err := loadSessionGroup(ctx, s.repo, sessionID)
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

	teacher := viewer
	if !viewer.IsTeacher() {
		if teacher, err = loadUser(ctx, s.repo, group.TeacherID); err != nil {
			return nil, err
		}
	}
	teacherLoc := userLocation(teacher, s.defaultLoc)

	displayLoc := userLocation(viewer, teacherLoc)
	if tz != "" {
		if displayLoc, err = time.LoadLocation(tz); err != nil {
			return nil, ErrInvalidTimeZone
		}
	}

	resp := &dto.SlotListResponse{
		SessionGroupID: group.SessionGroupID,
		Date:           group.Date.Format(model.DateLayout),
		TimeZone:       displayLoc.String(),
		Slots:          make([]dto.SlotResponse, 0),
	}

	days, err := s.repo.Availability.GetWeekly(ctx, group.TeacherID)
	if err != nil {
		return nil, err
	}
	weekly := &model.WeeklyAvailability{TeacherID: group.TeacherID, Days: days}
	window, ok := weekly.Window(slot.Weekday(group.Date))
	if !ok {
		// 创建后老师取消了当天的可用时间
		return resp, nil
	}

	booked := bookedIntervals(group)
	viewKey := cache.ViewKey{
		SessionID: group.SessionGroupID,
		ViewerID:  viewer.UserID,
		Date:      group.Date,
		Window:    window,
		TimeZone:  displayLoc.String(),
	}
	if views, hit := s.cache.GetView(ctx, viewKey); hit {
		return withSlots(resp, slot.FilterViews(views, booked)), nil
	}

	baseKey := cache.BaseKey{
		TeacherID: group.TeacherID,
		SessionID: group.SessionGroupID,
		Date:      group.Date,
		Window:    window,
	}
	candidates, hit := s.cache.GetBase(ctx, baseKey)
	if !hit {
		candidates, err = slot.Generate(slot.Params{
			Date:         group.Date,
			Window:       window,
			SlotMinutes:  group.SlotDuration,
			BreakMinutes: group.BreakDuration,
			Location:     teacherLoc,
		})
		if err != nil {
			s.logger.Error("生成时段失败", zap.String("session_group_id", sessionID), zap.Error(err))
			return nil, err
		}
		s.cache.PutBase(ctx, baseKey, candidates)
	}

	views := slot.Localize(slot.FilterBooked(candidates, booked), displayLoc)
	s.cache.PutView(ctx, viewKey, views)
	return withSlots(resp, views), nil
}

func withSlots(resp *dto.SlotListResponse, views []slot.View) *dto.SlotListResponse {
	for _, v := range views {
		resp.Slots = append(resp.Slots, dto.SlotResponse{
			StartUTC:   v.StartUTC,
			EndUTC:     v.EndUTC,
			LocalStart: v.LocalStart,
			LocalEnd:   v.LocalEnd,
		})
	}
	return resp
}
