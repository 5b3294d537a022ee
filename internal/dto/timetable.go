package dto

// ── 课表模块 DTO ──

// CreateTimetableRequest 创建课表请求
type CreateTimetableRequest struct {
	Name          string `json:"name"           binding:"required,min=1,max=100"`
	TimetableType string `json:"timetable_type" binding:"omitempty,oneof=class exam"`
}

// UpdateTimetableRequest 更新课表请求（仅名称与类型；状态只能经发布动作变更）
type UpdateTimetableRequest struct {
	Name          *string `json:"name"           binding:"omitempty,min=1,max=100"`
	TimetableType *string `json:"timetable_type" binding:"omitempty,oneof=class exam"`
}

// TimetableListRequest 课表列表查询参数
type TimetableListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=draft published archived"`
}

// TimetableResponse 课表信息响应
type TimetableResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	TimetableType string  `json:"timetable_type"`
	Status        string  `json:"status"`
	PublishedAt   *string `json:"published_at,omitempty"`
	EntryCount    int     `json:"entry_count"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// TimetableBrief 课表简要信息（嵌入条目响应）
type TimetableBrief struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// [自证通过] internal/dto/timetable.go
