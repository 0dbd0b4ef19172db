package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"school-system/backend/internal/dto"
	"school-system/backend/internal/model"
	"school-system/backend/internal/repository"
)

// UserService 当前用户信息（用户主数据由身份服务维护，这里只读写时区偏好）
type UserService interface {
	GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error)
	UpdateTimezone(ctx context.Context, userID string, req *dto.UpdateTimezoneRequest) (*dto.UserResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

func (s *userService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := loadUser(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// UpdateTimezone 修改展示时区
// 视图缓存键包含时区名，切换时区后自然命中新键，无需失效
func (s *userService) UpdateTimezone(ctx context.Context, userID string, req *dto.UpdateTimezoneRequest) (*dto.UserResponse, error) {
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return nil, ErrInvalidTimeZone
	}

	if err := s.repo.User.UpdateTimezone(ctx, userID, req.Timezone); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("更新用户时区失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户时区已更新", zap.String("user_id", userID), zap.String("timezone", req.Timezone))
	return s.GetCurrentUser(ctx, userID)
}

func toUserResponse(u *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        u.UserID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		TeacherID: u.TeacherID,
		Timezone:  u.Timezone,
	}
}
