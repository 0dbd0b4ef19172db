package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"school-system/backend/internal/dto"
	"school-system/backend/internal/model"
	"school-system/backend/internal/repository"
	"school-system/backend/internal/slot"
	apperrors "school-system/backend/pkg/errors"
)

// ── 通用业务错误 ──

var (
	ErrUserNotFound = apperrors.NotFound(11001, "用户不存在")
)

// loadUser 查询用户，不存在时返回 ErrUserNotFound
func loadUser(ctx context.Context, repo *repository.Repository, id string) (*model.User, error) {
	user, err := repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// loadSessionGroup 查询课程组（含已预约时段），不存在时返回 ErrSessionGroupNotFound
func loadSessionGroup(ctx context.Context, repo *repository.Repository, id string) (*model.SessionGroup, error) {
	group, err := repo.SessionGroup.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionGroupNotFound
		}
		return nil, err
	}
	return group, nil
}

// userLocation 用户时区；为空或无效时回退到 fallback
func userLocation(u *model.User, fallback *time.Location) *time.Location {
	if u == nil || u.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// checkGroupAccess 老师须为课程组所有者；学生须属于该老师且满足课程组限制
func checkGroupAccess(group *model.SessionGroup, viewer *model.User) error {
	if viewer.IsTeacher() {
		if group.TeacherID != viewer.UserID {
			return ErrSessionGroupForbidden
		}
		return nil
	}
	if !viewer.BelongsTo(group.TeacherID) || !group.Permits(viewer.UserID) {
		return ErrStudentNotPermitted
	}
	return nil
}

// bookedIntervals 课程组的已预约区间（权威来源）
func bookedIntervals(group *model.SessionGroup) []slot.Interval {
	out := make([]slot.Interval, 0, len(group.BookedSlots))
	for _, b := range group.BookedSlots {
		out = append(out, slot.Interval{Start: b.StartTime, End: b.EndTime})
	}
	return out
}

func toBookedSlotResponse(b *model.BookedSlot) dto.BookedSlotResponse {
	return dto.BookedSlotResponse{
		ID:              b.BookedSlotID,
		StartUTC:        b.StartTime.UTC(),
		EndUTC:          b.EndTime.UTC(),
		BookedBy:        b.BookedBy,
		BookedByTeacher: b.BookedByTeacher,
	}
}

// toSessionGroupResponse viewerID 非空时只保留该学生自己的预约
func toSessionGroupResponse(g *model.SessionGroup, studentViewerID string) *dto.SessionGroupResponse {
	resp := &dto.SessionGroupResponse{
		ID:               g.SessionGroupID,
		TeacherID:        g.TeacherID,
		Title:            g.Title,
		Date:             g.Date.Format(model.DateLayout),
		SlotDuration:     g.SlotDuration,
		BreakDuration:    g.BreakDuration,
		AllowedStudentID: g.AllowedStudentID,
		Version:          g.Version,
		CreatedAt:        g.CreatedAt.UTC().Format(time.RFC3339),
	}
	for i := range g.BookedSlots {
		b := &g.BookedSlots[i]
		if studentViewerID != "" && b.BookedBy != studentViewerID {
			continue
		}
		resp.BookedSlots = append(resp.BookedSlots, toBookedSlotResponse(b))
	}
	return resp
}
