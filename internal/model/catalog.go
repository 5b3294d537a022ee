package model

// 课表编辑器下拉选项对应的基础数据：科目、班级、教师、教室
// 均为院校作用域内的简单主数据，软删除

// Subject 科目表 — 对应 subjects
type Subject struct {
	SubjectID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subject_id"`
	InstitutionID string `gorm:"type:uuid;not null"                             json:"institution_id"`
	Name          string `gorm:"type:varchar(100);not null"                     json:"name"`
	Code          string `gorm:"type:varchar(20)"                               json:"code,omitempty"`
	IsActive      bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

func (Subject) TableName() string { return "subjects" }

// SchoolClass 班级表 — 对应 classes
type SchoolClass struct {
	ClassID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"class_id"`
	InstitutionID string `gorm:"type:uuid;not null"                             json:"institution_id"`
	Name          string `gorm:"type:varchar(100);not null"                     json:"name"`
	Level         string `gorm:"type:varchar(30)"                               json:"level,omitempty"`  // 年级（如 Form 1）
	Stream        string `gorm:"type:varchar(30)"                               json:"stream,omitempty"` // 分班（如 East）
	IsActive      bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

func (SchoolClass) TableName() string { return "classes" }

// Teacher 教师表 — 对应 teachers
type Teacher struct {
	TeacherID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"teacher_id"`
	InstitutionID string `gorm:"type:uuid;not null"                             json:"institution_id"`
	Name          string `gorm:"type:varchar(100);not null"                     json:"name"`
	StaffNo       string `gorm:"type:varchar(30)"                               json:"staff_no,omitempty"`
	Phone         string `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	IsActive      bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

func (Teacher) TableName() string { return "teachers" }

// Room 教室表 — 对应 rooms
type Room struct {
	RoomID        string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"room_id"`
	InstitutionID string `gorm:"type:uuid;not null"                             json:"institution_id"`
	Name          string `gorm:"type:varchar(100);not null"                     json:"name"`
	RoomType      string `gorm:"type:varchar(30);not null;default:'classroom'"  json:"room_type"` // classroom | lab | hall | field
	Capacity      int    `gorm:"not null;default:0"                             json:"capacity"`
	IsActive      bool   `gorm:"not null;default:true"                          json:"is_active"`
	SoftDeleteModel
}

func (Room) TableName() string { return "rooms" }

// [自证通过] internal/model/catalog.go
