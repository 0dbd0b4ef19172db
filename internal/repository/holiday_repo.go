package repository

import (
	"context"

	"gorm.io/gorm"

	"school-system/backend/internal/model"
)

// HolidayRepository 休假数据访问接口
type HolidayRepository interface {
	Create(ctx context.Context, holiday *model.Holiday) error
	GetByID(ctx context.Context, id string) (*model.Holiday, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]model.Holiday, error)
	Delete(ctx context.Context, id string) error
}

type holidayRepo struct {
	db *gorm.DB
}

// NewHolidayRepo 创建 HolidayRepository 实例
func NewHolidayRepo(db *gorm.DB) HolidayRepository {
	return &holidayRepo{db: db}
}

// Create 与同一老师已有休假重叠时返回 ErrExclusionViolation
func (r *holidayRepo) Create(ctx context.Context, holiday *model.Holiday) error {
	return classify(r.db.WithContext(ctx).Create(holiday).Error)
}

func (r *holidayRepo) GetByID(ctx context.Context, id string) (*model.Holiday, error) {
	var holiday model.Holiday
	err := r.db.WithContext(ctx).
		Where("holiday_id = ?", id).
		First(&holiday).Error
	if err != nil {
		return nil, err
	}
	return &holiday, nil
}

func (r *holidayRepo) ListByTeacher(ctx context.Context, teacherID string) ([]model.Holiday, error) {
	var holidays []model.Holiday
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("start_date ASC").
		Find(&holidays).Error
	return holidays, err
}

func (r *holidayRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("holiday_id = ?", id).
		Delete(&model.Holiday{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
