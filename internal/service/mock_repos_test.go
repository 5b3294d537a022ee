package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"classbell/backend/internal/model"
	"classbell/backend/internal/repository"
	pkgerrors "classbell/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id 与 "email:"+email 双索引
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.Email
	}
	m.users[user.UserID] = user
	m.users["email:"+user.Email] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := m.users["email:"+email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	m.users["email:"+user.Email] = user
	return nil
}

// ── Mock 基础数据 Repositories ──

type mockSubjectRepo struct {
	subjects map[string]*model.Subject
}

func newMockSubjectRepo() *mockSubjectRepo {
	return &mockSubjectRepo{subjects: make(map[string]*model.Subject)}
}

func (m *mockSubjectRepo) Create(_ context.Context, s *model.Subject) error {
	if s.SubjectID == "" {
		s.SubjectID = "subj-" + s.Name
	}
	m.subjects[s.SubjectID] = s
	return nil
}

func (m *mockSubjectRepo) GetByID(_ context.Context, id string) (*model.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) List(_ context.Context, institutionID string) ([]model.Subject, error) {
	var result []model.Subject
	for _, s := range m.subjects {
		if s.InstitutionID == institutionID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSubjectRepo) Update(_ context.Context, s *model.Subject) error {
	m.subjects[s.SubjectID] = s
	return nil
}

func (m *mockSubjectRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.subjects, id)
	return nil
}

type mockClassRepo struct {
	classes map[string]*model.SchoolClass
}

func newMockClassRepo() *mockClassRepo {
	return &mockClassRepo{classes: make(map[string]*model.SchoolClass)}
}

func (m *mockClassRepo) Create(_ context.Context, c *model.SchoolClass) error {
	if c.ClassID == "" {
		c.ClassID = "class-" + c.Name
	}
	m.classes[c.ClassID] = c
	return nil
}

func (m *mockClassRepo) GetByID(_ context.Context, id string) (*model.SchoolClass, error) {
	if c, ok := m.classes[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassRepo) List(_ context.Context, institutionID string) ([]model.SchoolClass, error) {
	var result []model.SchoolClass
	for _, c := range m.classes {
		if c.InstitutionID == institutionID {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockClassRepo) Update(_ context.Context, c *model.SchoolClass) error {
	m.classes[c.ClassID] = c
	return nil
}

func (m *mockClassRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.classes, id)
	return nil
}

type mockTeacherRepo struct {
	teachers map[string]*model.Teacher
}

func newMockTeacherRepo() *mockTeacherRepo {
	return &mockTeacherRepo{teachers: make(map[string]*model.Teacher)}
}

func (m *mockTeacherRepo) Create(_ context.Context, t *model.Teacher) error {
	if t.TeacherID == "" {
		t.TeacherID = "teacher-" + t.Name
	}
	m.teachers[t.TeacherID] = t
	return nil
}

func (m *mockTeacherRepo) GetByID(_ context.Context, id string) (*model.Teacher, error) {
	if t, ok := m.teachers[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) List(_ context.Context, institutionID string) ([]model.Teacher, error) {
	var result []model.Teacher
	for _, t := range m.teachers {
		if t.InstitutionID == institutionID {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockTeacherRepo) Update(_ context.Context, t *model.Teacher) error {
	m.teachers[t.TeacherID] = t
	return nil
}

func (m *mockTeacherRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.teachers, id)
	return nil
}

type mockRoomRepo struct {
	rooms map[string]*model.Room
}

func newMockRoomRepo() *mockRoomRepo {
	return &mockRoomRepo{rooms: make(map[string]*model.Room)}
}

func (m *mockRoomRepo) Create(_ context.Context, r *model.Room) error {
	if r.RoomID == "" {
		r.RoomID = "room-" + r.Name
	}
	m.rooms[r.RoomID] = r
	return nil
}

func (m *mockRoomRepo) GetByID(_ context.Context, id string) (*model.Room, error) {
	if r, ok := m.rooms[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) List(_ context.Context, institutionID string) ([]model.Room, error) {
	var result []model.Room
	for _, r := range m.rooms {
		if r.InstitutionID == institutionID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockRoomRepo) Update(_ context.Context, r *model.Room) error {
	m.rooms[r.RoomID] = r
	return nil
}

func (m *mockRoomRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.rooms, id)
	return nil
}

// ── Mock TimeSlotRepository ──
//
// Usage / DeleteIfUnused 通过持有 mockEntryRepo 与 mockTimetableRepo 的引用
// 计算真实引用关系，与数据库实现的语义一致

type mockTimeSlotRepo struct {
	slots      map[string]*model.TimeSlot
	seq        int
	entries    *mockEntryRepo
	timetables *mockTimetableRepo
}

func newMockTimeSlotRepo() *mockTimeSlotRepo {
	return &mockTimeSlotRepo{slots: make(map[string]*model.TimeSlot)}
}

func (m *mockTimeSlotRepo) Create(_ context.Context, slot *model.TimeSlot) error {
	if slot.TimeSlotID == "" {
		m.seq++
		slot.TimeSlotID = fmt.Sprintf("slot-%03d", m.seq)
	}
	if slot.Version == 0 {
		slot.Version = 1
	}
	m.slots[slot.TimeSlotID] = slot
	return nil
}

func (m *mockTimeSlotRepo) GetByID(_ context.Context, id string) (*model.TimeSlot, error) {
	if s, ok := m.slots[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimeSlotRepo) List(_ context.Context, institutionID string, includeInactive bool) ([]model.TimeSlot, error) {
	var result []model.TimeSlot
	for _, s := range m.slots {
		if s.InstitutionID != institutionID {
			continue
		}
		if !includeInactive && !s.IsActive {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].SequenceOrder < result[j].SequenceOrder
	})
	return result, nil
}

func (m *mockTimeSlotRepo) MaxSequenceOrder(_ context.Context, institutionID string) (int, error) {
	max := 0
	for _, s := range m.slots {
		if s.InstitutionID == institutionID && s.SequenceOrder > max {
			max = s.SequenceOrder
		}
	}
	return max, nil
}

func (m *mockTimeSlotRepo) Update(_ context.Context, slot *model.TimeSlot, updates map[string]interface{}) error {
	stored, ok := m.slots[slot.TimeSlotID]
	if !ok || stored.Version != slot.Version {
		return pkgerrors.ErrOptimisticLock
	}
	applyTimeSlotUpdates(stored, updates)
	stored.Version++
	return nil
}

func (m *mockTimeSlotRepo) SwapSequenceOrder(_ context.Context, a, b *model.TimeSlot) error {
	sa, okA := m.slots[a.TimeSlotID]
	sb, okB := m.slots[b.TimeSlotID]
	if !okA || !okB || sa.Version != a.Version || sb.Version != b.Version {
		return pkgerrors.ErrOptimisticLock
	}
	sa.SequenceOrder, sb.SequenceOrder = b.SequenceOrder, a.SequenceOrder
	sa.Version++
	sb.Version++
	return nil
}

func (m *mockTimeSlotRepo) Usage(_ context.Context, slotID string) (int64, []string, error) {
	var count int64
	nameSet := make(map[string]bool)
	if m.entries != nil {
		for _, e := range m.entries.entries {
			if e.TimeSlotID == slotID {
				count++
				if m.timetables != nil {
					if tt, ok := m.timetables.timetables[e.TimetableID]; ok {
						nameSet[tt.Name] = true
					}
				}
			}
		}
	}
	var names []string
	for n := range nameSet {
		names = append(names, n)
	}
	sort.Strings(names)
	return count, names, nil
}

func (m *mockTimeSlotRepo) DeleteIfUnused(ctx context.Context, slotID string, _ string) error {
	count, _, _ := m.Usage(ctx, slotID)
	if count > 0 {
		return pkgerrors.ErrSlotInUse
	}
	delete(m.slots, slotID)
	return nil
}

func applyTimeSlotUpdates(slot *model.TimeSlot, updates map[string]interface{}) {
	for k, v := range updates {
		switch k {
		case "name":
			slot.Name = v.(string)
		case "start_time":
			slot.StartTime = v.(string)
		case "end_time":
			slot.EndTime = v.(string)
		case "slot_type":
			slot.SlotType = v.(string)
		case "applies_to":
			slot.AppliesTo = v.(string)
		case "is_active":
			slot.IsActive = v.(bool)
		case "sequence_order":
			slot.SequenceOrder = v.(int)
		}
	}
}

// ── Mock TimetableRepository ──

type mockTimetableRepo struct {
	timetables map[string]*model.Timetable
	entries    *mockEntryRepo
	seq        int
}

func newMockTimetableRepo() *mockTimetableRepo {
	return &mockTimetableRepo{timetables: make(map[string]*model.Timetable)}
}

func (m *mockTimetableRepo) Create(_ context.Context, tt *model.Timetable) error {
	if tt.TimetableID == "" {
		m.seq++
		tt.TimetableID = fmt.Sprintf("tt-%03d", m.seq)
	}
	if tt.Version == 0 {
		tt.Version = 1
	}
	m.timetables[tt.TimetableID] = tt
	return nil
}

func (m *mockTimetableRepo) GetByID(_ context.Context, id string) (*model.Timetable, error) {
	if tt, ok := m.timetables[id]; ok {
		return tt, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimetableRepo) List(_ context.Context, institutionID string, status string) ([]model.Timetable, error) {
	var result []model.Timetable
	for _, tt := range m.timetables {
		if tt.InstitutionID != institutionID {
			continue
		}
		if status != "" && tt.Status != status {
			continue
		}
		result = append(result, *tt)
	}
	return result, nil
}

func (m *mockTimetableRepo) GetPublished(_ context.Context, institutionID string) (*model.Timetable, error) {
	for _, tt := range m.timetables {
		if tt.InstitutionID == institutionID && tt.Status == model.TimetableStatusPublished {
			return tt, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimetableRepo) CountEntries(_ context.Context, timetableID string) (int64, error) {
	var count int64
	if m.entries != nil {
		for _, e := range m.entries.entries {
			if e.TimetableID == timetableID {
				count++
			}
		}
	}
	return count, nil
}

func (m *mockTimetableRepo) Update(_ context.Context, tt *model.Timetable, updates map[string]interface{}) error {
	stored, ok := m.timetables[tt.TimetableID]
	if !ok || stored.Version != tt.Version {
		return pkgerrors.ErrOptimisticLock
	}
	for k, v := range updates {
		switch k {
		case "name":
			stored.Name = v.(string)
		case "timetable_type":
			stored.TimetableType = v.(string)
		}
	}
	stored.Version++
	return nil
}

func (m *mockTimetableRepo) Publish(_ context.Context, tt *model.Timetable, _ string) error {
	stored, ok := m.timetables[tt.TimetableID]
	if !ok || stored.Version != tt.Version || stored.Status != model.TimetableStatusDraft {
		return pkgerrors.ErrOptimisticLock
	}
	for _, other := range m.timetables {
		if other.InstitutionID == stored.InstitutionID &&
			other.Status == model.TimetableStatusPublished &&
			other.TimetableID != stored.TimetableID {
			other.Status = model.TimetableStatusArchived
			other.Version++
		}
	}
	now := time.Now()
	stored.Status = model.TimetableStatusPublished
	stored.PublishedAt = &now
	stored.Version++
	return nil
}

func (m *mockTimetableRepo) Delete(_ context.Context, timetableID string, _ string) error {
	if m.entries != nil {
		for id, e := range m.entries.entries {
			if e.TimetableID == timetableID {
				delete(m.entries.entries, id)
			}
		}
	}
	delete(m.timetables, timetableID)
	return nil
}

// ── Mock EntryRepository ──
//
// Create / Update 模拟数据库唯一索引兜底：
// (timetable, teacher, day, slot) 与 (timetable, room, day, slot) 重复时返回 gorm.ErrDuplicatedKey

type mockEntryRepo struct {
	entries map[string]*model.TimetableEntry
	seq     int
}

func newMockEntryRepo() *mockEntryRepo {
	return &mockEntryRepo{entries: make(map[string]*model.TimetableEntry)}
}

func (m *mockEntryRepo) violatesBackstop(candidate *model.TimetableEntry) bool {
	for _, e := range m.entries {
		if e.EntryID == candidate.EntryID {
			continue
		}
		if e.TimetableID != candidate.TimetableID || e.DayOfWeek != candidate.DayOfWeek || e.TimeSlotID != candidate.TimeSlotID {
			continue
		}
		if e.TeacherID == candidate.TeacherID {
			return true
		}
		if e.RoomID != nil && candidate.RoomID != nil && *e.RoomID == *candidate.RoomID {
			return true
		}
	}
	return false
}

func (m *mockEntryRepo) Create(_ context.Context, entry *model.TimetableEntry) error {
	if m.violatesBackstop(entry) {
		return gorm.ErrDuplicatedKey
	}
	if entry.EntryID == "" {
		m.seq++
		entry.EntryID = fmt.Sprintf("entry-%03d", m.seq)
	}
	if entry.Version == 0 {
		entry.Version = 1
	}
	m.entries[entry.EntryID] = entry
	return nil
}

func (m *mockEntryRepo) GetByID(_ context.Context, id string) (*model.TimetableEntry, error) {
	if e, ok := m.entries[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEntryRepo) List(_ context.Context, timetableID string, filter repository.EntryFilter) ([]model.TimetableEntry, error) {
	var result []model.TimetableEntry
	for _, e := range m.entries {
		if e.TimetableID != timetableID {
			continue
		}
		if filter.ClassID != "" && e.ClassID != filter.ClassID {
			continue
		}
		if filter.TeacherID != "" && e.TeacherID != filter.TeacherID {
			continue
		}
		if filter.SubjectID != "" && e.SubjectID != filter.SubjectID {
			continue
		}
		result = append(result, *e)
	}
	return result, nil
}

func (m *mockEntryRepo) ListByDay(_ context.Context, timetableID string, dayOfWeek int) ([]model.TimetableEntry, error) {
	var result []model.TimetableEntry
	for _, e := range m.entries {
		if e.TimetableID == timetableID && e.DayOfWeek == dayOfWeek {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockEntryRepo) ListByTeacher(_ context.Context, timetableID string, teacherID string) ([]model.TimetableEntry, error) {
	var result []model.TimetableEntry
	for _, e := range m.entries {
		if e.TimetableID == timetableID && e.TeacherID == teacherID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockEntryRepo) Update(_ context.Context, entry *model.TimetableEntry, updates map[string]interface{}) error {
	stored, ok := m.entries[entry.EntryID]
	if !ok || stored.Version != entry.Version {
		return pkgerrors.ErrOptimisticLock
	}

	next := *stored
	for k, v := range updates {
		switch k {
		case "subject_id":
			next.SubjectID = v.(string)
		case "teacher_id":
			next.TeacherID = v.(string)
		case "room_id":
			if v == nil {
				next.RoomID = nil
			} else {
				s := v.(string)
				next.RoomID = &s
			}
		case "is_double_period":
			next.IsDoublePeriod = v.(bool)
		}
	}
	if m.violatesBackstop(&next) {
		return gorm.ErrDuplicatedKey
	}
	next.Version++
	*stored = next
	return nil
}

func (m *mockEntryRepo) Delete(_ context.Context, entryID string, _ string) error {
	delete(m.entries, entryID)
	return nil
}

// ── Mock EntryChangeLogRepository ──

type mockChangeLogRepo struct {
	logs []model.EntryChangeLog
}

func newMockChangeLogRepo() *mockChangeLogRepo {
	return &mockChangeLogRepo{}
}

func (m *mockChangeLogRepo) Create(_ context.Context, log *model.EntryChangeLog) error {
	if log.ChangeLogID == "" {
		log.ChangeLogID = fmt.Sprintf("log-%03d", len(m.logs)+1)
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockChangeLogRepo) ListByTimetable(_ context.Context, timetableID string, offset, limit int) ([]model.EntryChangeLog, int64, error) {
	var matched []model.EntryChangeLog
	for _, l := range m.logs {
		if l.TimetableID == timetableID {
			matched = append(matched, l)
		}
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

// ── 测试环境组装 ──

type testRepos struct {
	user       *mockUserRepo
	subject    *mockSubjectRepo
	class      *mockClassRepo
	teacher    *mockTeacherRepo
	room       *mockRoomRepo
	timeSlot   *mockTimeSlotRepo
	timetable  *mockTimetableRepo
	entry      *mockEntryRepo
	changeLog  *mockChangeLogRepo
	repository *repository.Repository
}

func newTestRepos() *testRepos {
	r := &testRepos{
		user:      newMockUserRepo(),
		subject:   newMockSubjectRepo(),
		class:     newMockClassRepo(),
		teacher:   newMockTeacherRepo(),
		room:      newMockRoomRepo(),
		timeSlot:  newMockTimeSlotRepo(),
		timetable: newMockTimetableRepo(),
		entry:     newMockEntryRepo(),
		changeLog: newMockChangeLogRepo(),
	}
	r.timeSlot.entries = r.entry
	r.timeSlot.timetables = r.timetable
	r.timetable.entries = r.entry
	r.repository = &repository.Repository{
		User:           r.user,
		Subject:        r.subject,
		Class:          r.class,
		Teacher:        r.teacher,
		Room:           r.room,
		TimeSlot:       r.timeSlot,
		Timetable:      r.timetable,
		Entry:          r.entry,
		EntryChangeLog: r.changeLog,
	}
	return r
}

// [自证通过] internal/service/mock_repos_test.go
