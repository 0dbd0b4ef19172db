package repository

import (
	"context"

	"gorm.io/gorm"

	"school-system/backend/internal/model"
)

// AvailabilityRepository 每周可用时间数据访问接口
type AvailabilityRepository interface {
	// GetWeekly 返回老师已设置的星期条目，未设置时为空切片
	GetWeekly(ctx context.Context, teacherID string) ([]model.AvailabilityDay, error)
	// ReplaceWeekly 整体替换老师的每周模板
	ReplaceWeekly(ctx context.Context, teacherID string, days []model.AvailabilityDay) error
}

type availabilityRepo struct {
	db *gorm.DB
}

// NewAvailabilityRepo 创建 AvailabilityRepository 实例
func NewAvailabilityRepo(db *gorm.DB) AvailabilityRepository {
	return &availabilityRepo{db: db}
}

func (r *availabilityRepo) GetWeekly(ctx context.Context, teacherID string) ([]model.AvailabilityDay, error) {
	var days []model.AvailabilityDay
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Find(&days).Error
	return days, err
}

func (r *availabilityRepo) ReplaceWeekly(ctx context.Context, teacherID string, days []model.AvailabilityDay) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("teacher_id = ?", teacherID).
			Delete(&model.AvailabilityDay{}).Error; err != nil {
			return err
		}
		if len(days) > 0 {
			if err := tx.Create(&days).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
