package dto

// ── 课表条目模块 DTO ──

// CreateEntryRequest 创建条目请求
// (DayOfWeek, TimeSlotID) 由网格单元格固定给出；Override 表示用户已确认覆盖软冲突
type CreateEntryRequest struct {
	ClassID        string  `json:"class_id"         binding:"required,uuid"`
	SubjectID      string  `json:"subject_id"       binding:"required,uuid"`
	TeacherID      string  `json:"teacher_id"       binding:"required,uuid"`
	RoomID         *string `json:"room_id"          binding:"omitempty,uuid"`
	TimeSlotID     string  `json:"time_slot_id"     binding:"required,uuid"`
	DayOfWeek      int     `json:"day_of_week"      binding:"required,min=1,max=7"`
	IsDoublePeriod bool    `json:"is_double_period"`
	Override       bool    `json:"override"`
}

// UpdateEntryRequest 更新条目请求
type UpdateEntryRequest struct {
	SubjectID      *string `json:"subject_id"       binding:"omitempty,uuid"`
	TeacherID      *string `json:"teacher_id"       binding:"omitempty,uuid"`
	RoomID         *string `json:"room_id"          binding:"omitempty,uuid"`
	ClearRoom      bool    `json:"clear_room"` // true 时清空教室分配（与 RoomID 互斥）
	IsDoublePeriod *bool   `json:"is_double_period"`
	Override       bool    `json:"override"`
}

// EntryListRequest 条目列表查询参数
type EntryListRequest struct {
	ClassID   string `form:"class_id"   binding:"omitempty,uuid"`
	TeacherID string `form:"teacher_id" binding:"omitempty,uuid"`
	SubjectID string `form:"subject_id" binding:"omitempty,uuid"`
}

// EntryResponse 条目信息响应
type EntryResponse struct {
	ID             string           `json:"id"`
	TimetableID    string           `json:"timetable_id"`
	DayOfWeek      int              `json:"day_of_week"`
	IsDoublePeriod bool             `json:"is_double_period"`
	TimeSlot       *TimeSlotBrief   `json:"time_slot,omitempty"`
	Class          *ClassResponse   `json:"class,omitempty"`
	Subject        *SubjectResponse `json:"subject,omitempty"`
	Teacher        *TeacherResponse `json:"teacher,omitempty"`
	Room           *RoomResponse    `json:"room,omitempty"`
	CreatedAt      string           `json:"created_at"`
	UpdatedAt      string           `json:"updated_at"`
}

// TimeSlotBrief 节次简要信息（嵌入条目响应）
type TimeSlotBrief struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	SequenceOrder int    `json:"sequence_order"`
}

// ── 冲突检测 DTO ──

// ClashCheckRequest 冲突检测请求
// 编辑表单每次字段变化都会触发一次检测；CheckSeq 为客户端单调递增的请求序号，
// 服务端原样回显，客户端据此丢弃乱序到达的过期响应
type ClashCheckRequest struct {
	TeacherID      *string `json:"teacher_id"       binding:"omitempty,uuid"` // 缺省时跳过教师冲突检测
	RoomID         *string `json:"room_id"          binding:"omitempty,uuid"` // 缺省时跳过教室冲突检测
	ClassID        *string `json:"class_id"         binding:"omitempty,uuid"` // 缺省时跳过班级冲突检测
	TimeSlotID     string  `json:"time_slot_id"     binding:"required,uuid"`
	DayOfWeek      int     `json:"day_of_week"      binding:"required,min=1,max=7"`
	IsDoublePeriod bool    `json:"is_double_period"`
	ExcludeEntryID *string `json:"exclude_entry_id" binding:"omitempty,uuid"` // 编辑中的条目自身，不参与冲突扫描
	CheckSeq       int64   `json:"check_seq"`
}

// ClashDetail 单类冲突的明细（仅报告首个命中的冲突条目）
type ClashDetail struct {
	EntryID      string `json:"entry_id"`
	SubjectName  string `json:"subject_name,omitempty"`
	ClassName    string `json:"class_name,omitempty"`
	TeacherName  string `json:"teacher_name,omitempty"`
	TimeSlotName string `json:"time_slot_name,omitempty"`
}

// ClashCheckResponse 冲突检测结果（派生值对象，每次查询重新计算，绝不缓存）
type ClashCheckResponse struct {
	HasTeacherClash bool         `json:"has_teacher_clash"`
	TeacherClash    *ClashDetail `json:"teacher_clash,omitempty"` // 冲突条目的科目名 + 班级名
	HasRoomClash    bool         `json:"has_room_clash"`
	RoomClash       *ClashDetail `json:"room_clash,omitempty"` // 冲突条目的教师名 + 班级名
	HasClassClash   bool         `json:"has_class_clash"`
	ClassClash      *ClashDetail `json:"class_clash,omitempty"` // 冲突条目的科目名 + 教师名
	CheckSeq        int64        `json:"check_seq"`
}

// HasAnyClash 是否存在任一类冲突
func (r *ClashCheckResponse) HasAnyClash() bool {
	return r.HasTeacherClash || r.HasRoomClash || r.HasClassClash
}

// ── 条目变更日志 DTO ──

// EntryChangeLogListRequest 变更日志查询参数
type EntryChangeLogListRequest struct {
	PaginationRequest
}

// EntryChangeLogResponse 条目变更日志响应
type EntryChangeLogResponse struct {
	ID           string  `json:"id"`
	TimetableID  string  `json:"timetable_id"`
	EntryID      string  `json:"entry_id"`
	ChangeType   string  `json:"change_type"`
	OldTeacherID *string `json:"old_teacher_id,omitempty"`
	NewTeacherID *string `json:"new_teacher_id,omitempty"`
	OldRoomID    *string `json:"old_room_id,omitempty"`
	NewRoomID    *string `json:"new_room_id,omitempty"`
	Overridden   bool    `json:"overridden"`
	OperatorID   string  `json:"operator_id"`
	CreatedAt    string  `json:"created_at"`
}

// [自证通过] internal/dto/entry.go
