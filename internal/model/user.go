package model

// User 用户表 — 对应 users
type User struct {
	UserID        string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	InstitutionID string `gorm:"type:uuid;not null"                             json:"institution_id"`
	Name          string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email         string `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash  string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role          string `gorm:"type:varchar(20);not null;default:'teacher'"    json:"role"` // admin | head_teacher | teacher
	VersionedModel

	// 关联
	Institution *Institution `gorm:"foreignKey:InstitutionID;references:InstitutionID" json:"institution,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
