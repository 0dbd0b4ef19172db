package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"school-system/backend/internal/model"
	pkgerrors "school-system/backend/pkg/errors"
)

// SessionGroupRepository 课程组及其已预约时段的数据访问接口
type SessionGroupRepository interface {
	Create(ctx context.Context, group *model.SessionGroup) error
	// GetByID 预加载按开始时间排序的已预约时段
	GetByID(ctx context.Context, id string) (*model.SessionGroup, error)
	FindByTitleAndDate(ctx context.Context, teacherID, title string, date time.Time) (*model.SessionGroup, error)
	// FindByRestriction allowedStudentID 为 nil 时查找公共课程组
	FindByRestriction(ctx context.Context, teacherID string, date time.Time, allowedStudentID *string) (*model.SessionGroup, error)
	ListByTeacher(ctx context.Context, teacherID string, from, to *time.Time) ([]model.SessionGroup, error)
	// ListForStudent 老师名下对该学生可见的课程组（公共或指定该学生）
	ListForStudent(ctx context.Context, teacherID, studentID string, from *time.Time) ([]model.SessionGroup, error)
	// Delete 版本号不一致时返回 ErrOptimisticLock
	Delete(ctx context.Context, group *model.SessionGroup) error

	// AddBookedSlot 在同一事务内递增版本号并插入预约；成功后同步更新 group
	AddBookedSlot(ctx context.Context, group *model.SessionGroup, slot *model.BookedSlot) error
	// RemoveBookedSlot 在同一事务内递增版本号并删除预约；成功后同步更新 group
	RemoveBookedSlot(ctx context.Context, group *model.SessionGroup, slotID string) error
	ListBookedByStudent(ctx context.Context, studentID string) ([]model.BookedSlot, error)
}

type sessionGroupRepo struct {
	db *gorm.DB
}

// NewSessionGroupRepo 创建 SessionGroupRepository 实例
func NewSessionGroupRepo(db *gorm.DB) SessionGroupRepository {
	return &sessionGroupRepo{db: db}
}

func (r *sessionGroupRepo) Create(ctx context.Context, group *model.SessionGroup) error {
	return classify(r.db.WithContext(ctx).Omit("BookedSlots").Create(group).Error)
}

func (r *sessionGroupRepo) GetByID(ctx context.Context, id string) (*model.SessionGroup, error) {
	var group model.SessionGroup
	err := r.db.WithContext(ctx).
		Preload("BookedSlots", func(db *gorm.DB) *gorm.DB {
			return db.Order("start_time ASC")
		}).
		Where("session_group_id = ?", id).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *sessionGroupRepo) FindByTitleAndDate(ctx context.Context, teacherID, title string, date time.Time) (*model.SessionGroup, error) {
	var group model.SessionGroup
	err := r.db.WithContext(ctx).
		Where("teacher_id = ? AND title = ? AND date = ?", teacherID, title, date).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *sessionGroupRepo) FindByRestriction(ctx context.Context, teacherID string, date time.Time, allowedStudentID *string) (*model.SessionGroup, error) {
	var group model.SessionGroup
	db := r.db.WithContext(ctx).Where("teacher_id = ? AND date = ?", teacherID, date)
	if allowedStudentID == nil {
		db = db.Where("allowed_student_id IS NULL")
	} else {
		db = db.Where("allowed_student_id = ?", *allowedStudentID)
	}
	if err := db.First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *sessionGroupRepo) ListByTeacher(ctx context.Context, teacherID string, from, to *time.Time) ([]model.SessionGroup, error) {
	var groups []model.SessionGroup
	db := r.db.WithContext(ctx).
		Preload("BookedSlots", func(db *gorm.DB) *gorm.DB {
			return db.Order("start_time ASC")
		}).
		Where("teacher_id = ?", teacherID)
	if from != nil {
		db = db.Where("date >= ?", *from)
	}
	if to != nil {
		db = db.Where("date <= ?", *to)
	}
	err := db.Order("date ASC, title ASC").Find(&groups).Error
	return groups, err
}

func (r *sessionGroupRepo) ListForStudent(ctx context.Context, teacherID, studentID string, from *time.Time) ([]model.SessionGroup, error) {
	var groups []model.SessionGroup
	db := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Where("allowed_student_id IS NULL OR allowed_student_id = ?", studentID)
	if from != nil {
		db = db.Where("date >= ?", *from)
	}
	err := db.Order("date ASC, title ASC").Find(&groups).Error
	return groups, err
}

func (r *sessionGroupRepo) Delete(ctx context.Context, group *model.SessionGroup) error {
	result := r.db.WithContext(ctx).
		Where("session_group_id = ? AND version = ?", group.SessionGroupID, group.Version).
		Delete(&model.SessionGroup{})
	if result.Error != nil {
		// booked_slots 外键为 RESTRICT，并发新增的预约会在此被拦截
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

func (r *sessionGroupRepo) AddBookedSlot(ctx context.Context, group *model.SessionGroup, slot *model.BookedSlot) error {
	slot.SessionGroupID = group.SessionGroupID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpVersion(tx, group); err != nil {
			return err
		}
		return classify(tx.Omit("SessionGroup", "Student").Create(slot).Error)
	})
	if err != nil {
		return err
	}
	group.Version++
	group.BookedSlots = append(group.BookedSlots, *slot)
	return nil
}

func (r *sessionGroupRepo) RemoveBookedSlot(ctx context.Context, group *model.SessionGroup, slotID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := bumpVersion(tx, group); err != nil {
			return err
		}
		result := tx.Where("booked_slot_id = ? AND session_group_id = ?", slotID, group.SessionGroupID).
			Delete(&model.BookedSlot{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	group.Version++
	kept := group.BookedSlots[:0]
	for _, s := range group.BookedSlots {
		if s.BookedSlotID != slotID {
			kept = append(kept, s)
		}
	}
	group.BookedSlots = kept
	return nil
}

func (r *sessionGroupRepo) ListBookedByStudent(ctx context.Context, studentID string) ([]model.BookedSlot, error) {
	var slots []model.BookedSlot
	err := r.db.WithContext(ctx).
		Preload("SessionGroup").
		Where("booked_by = ?", studentID).
		Order("start_time ASC").
		Find(&slots).Error
	return slots, err
}

// bumpVersion 乐观锁：仅当版本号未变时递增
func bumpVersion(tx *gorm.DB, group *model.SessionGroup) error {
	result := tx.Model(&model.SessionGroup{}).
		Where("session_group_id = ? AND version = ?", group.SessionGroupID, group.Version).
		Updates(map[string]interface{}{
			"version":    group.Version + 1,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}
