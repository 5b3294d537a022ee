package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"classbell/backend/internal/dto"
	"classbell/backend/internal/service"
	pkgerrors "classbell/backend/pkg/errors"
	"classbell/backend/pkg/jwt"
	"classbell/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult      *dto.TokenResponse
	loginErr         error
	refreshResult    *dto.TokenResponse
	refreshErr       error
	logoutErr        error
	getCurrentResult *dto.UserResponse
	getCurrentErr    error
	changePassErr    error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) RefreshToken(_ context.Context, _ *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, _ *jwt.Claims) error {
	return m.logoutErr
}
func (m *mockAuthService) GetCurrentUser(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.getCurrentResult, m.getCurrentErr
}
func (m *mockAuthService) ChangePassword(_ context.Context, _ string, _ *dto.ChangePasswordRequest) error {
	return m.changePassErr
}

// ── Mock EntryService ──

type mockEntryService struct {
	checkResult      *dto.ClashCheckResponse
	checkErr         error
	createResult     *dto.EntryResponse
	createErr        error
	updateResult     *dto.EntryResponse
	updateErr        error
	deleteErr        error
	listResult       []dto.EntryResponse
	listErr          error
	changeLogsResult []dto.EntryChangeLogResponse
	changeLogsTotal  int64
	changeLogsErr    error
}

func (m *mockEntryService) CheckClash(_ context.Context, _, _ string, _ *dto.ClashCheckRequest) (*dto.ClashCheckResponse, error) {
	return m.checkResult, m.checkErr
}
func (m *mockEntryService) Create(_ context.Context, _, _ string, _ *dto.CreateEntryRequest, _ string) (*dto.EntryResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockEntryService) Update(_ context.Context, _, _ string, _ *dto.UpdateEntryRequest, _ string) (*dto.EntryResponse, error) {
	return m.updateResult, m.updateErr
}
func (m *mockEntryService) Delete(_ context.Context, _, _ string, _ string) error {
	return m.deleteErr
}
func (m *mockEntryService) List(_ context.Context, _, _ string, _ *dto.EntryListRequest) ([]dto.EntryResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockEntryService) ListChangeLogs(_ context.Context, _, _ string, _ *dto.EntryChangeLogListRequest) ([]dto.EntryChangeLogResponse, int64, error) {
	return m.changeLogsResult, m.changeLogsTotal, m.changeLogsErr
}

// ── Mock TimeSlotService ──

type mockTimeSlotService struct {
	createResult  *dto.TimeSlotResponse
	createErr     error
	listResult    []dto.TimeSlotResponse
	listErr       error
	updateResult  *dto.TimeSlotResponse
	updateErr     error
	reorderResult []dto.TimeSlotResponse
	reorderErr    error
	usageResult   *dto.SlotUsageResponse
	usageErr      error
	deleteErr     error
}

func (m *mockTimeSlotService) Create(_ context.Context, _ string, _ *dto.CreateTimeSlotRequest, _ string) (*dto.TimeSlotResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockTimeSlotService) List(_ context.Context, _ string, _ *dto.TimeSlotListRequest) ([]dto.TimeSlotResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockTimeSlotService) Update(_ context.Context, _, _ string, _ *dto.UpdateTimeSlotRequest, _ string) (*dto.TimeSlotResponse, error) {
	return m.updateResult, m.updateErr
}
func (m *mockTimeSlotService) Reorder(_ context.Context, _, _ string, _ *dto.ReorderTimeSlotRequest, _ string) ([]dto.TimeSlotResponse, error) {
	return m.reorderResult, m.reorderErr
}
func (m *mockTimeSlotService) Usage(_ context.Context, _, _ string) (*dto.SlotUsageResponse, error) {
	return m.usageResult, m.usageErr
}
func (m *mockTimeSlotService) Delete(_ context.Context, _, _ string, _ string) error {
	return m.deleteErr
}

// ── Mock TimetableService ──

type mockTimetableService struct {
	createResult    *dto.TimetableResponse
	createErr       error
	getResult       *dto.TimetableResponse
	getErr          error
	listResult      []dto.TimetableResponse
	listErr         error
	publishedResult *dto.TimetableResponse
	publishedErr    error
	updateResult    *dto.TimetableResponse
	updateErr       error
	publishResult   *dto.TimetableResponse
	publishErr      error
	deleteErr       error
}

func (m *mockTimetableService) Create(_ context.Context, _ string, _ *dto.CreateTimetableRequest, _ string) (*dto.TimetableResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockTimetableService) GetByID(_ context.Context, _, _ string) (*dto.TimetableResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockTimetableService) List(_ context.Context, _ string, _ *dto.TimetableListRequest) ([]dto.TimetableResponse, error) {
	return m.listResult, m.listErr
}
func (m *mockTimetableService) GetPublished(_ context.Context, _ string) (*dto.TimetableResponse, error) {
	return m.publishedResult, m.publishedErr
}
func (m *mockTimetableService) Update(_ context.Context, _, _ string, _ *dto.UpdateTimetableRequest, _ string) (*dto.TimetableResponse, error) {
	return m.updateResult, m.updateErr
}
func (m *mockTimetableService) Publish(_ context.Context, _, _ string, _ string) (*dto.TimetableResponse, error) {
	return m.publishResult, m.publishErr
}
func (m *mockTimetableService) Delete(_ context.Context, _, _ string, _ string) error {
	return m.deleteErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportTimetableXLSX(_ context.Context, _, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) ExportTeacherICS(_ context.Context, _, _, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("role", "admin")
	c.Set("institution_id", "test-institution-id")
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

const (
	uuidA = "11111111-1111-1111-1111-111111111111"
	uuidB = "22222222-2222-2222-2222-222222222222"
	uuidC = "33333333-3333-3333-3333-333333333333"
)

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{
			AccessToken:  "test-access-token",
			RefreshToken: "test-refresh-token",
			ExpiresIn:    900,
		},
	}
	h := NewAuthHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Email:    "admin@school.edu.cn",
		Password: "Test1234",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		Email:    "admin@school.edu.cn",
		Password: "wrongpass",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 21001 {
		t.Errorf("expected error code 21001, got %d", resp.Code)
	}
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/auth/me", nil)

	r := gin.New()
	r.GET("/auth/me", h.Me)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 10002 {
		t.Errorf("expected error code 10002, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// EntryHandler Tests
// ═══════════════════════════════════════════════════════════

func TestEntryHandler_CheckClash_Success(t *testing.T) {
	mock := &mockEntryService{
		checkResult: &dto.ClashCheckResponse{
			HasTeacherClash: true,
			TeacherClash: &dto.ClashDetail{
				EntryID:     "entry-1",
				SubjectName: "数学",
				ClassName:   "初一(1)班",
			},
			CheckSeq: 42,
		},
	}
	h := NewEntryHandler(mock)

	w := httptest.NewRecorder()
	teacherID := uuidB
	req := httptest.NewRequest("POST", "/timetables/tt-1/clash-check", jsonBody(dto.ClashCheckRequest{
		TeacherID:  &teacherID,
		TimeSlotID: uuidA,
		DayOfWeek:  1,
		CheckSeq:   42,
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/timetables/:id/clash-check", func(c *gin.Context) {
		setAuth(c)
		h.CheckClash(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Code int                     `json:"code"`
		Data *dto.ClashCheckResponse `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data == nil || !resp.Data.HasTeacherClash {
		t.Fatal("冲突结果应出现在 data 中")
	}
	if resp.Data.CheckSeq != 42 {
		t.Errorf("expected check_seq 42, got %d", resp.Data.CheckSeq)
	}
}

func TestEntryHandler_Create_SoftClash409WithDetails(t *testing.T) {
	mock := &mockEntryService{
		createErr: &service.ClashError{
			Result: &dto.ClashCheckResponse{
				HasRoomClash: true,
				RoomClash: &dto.ClashDetail{
					EntryID:     "entry-1",
					TeacherName: "王老师",
					ClassName:   "初一(1)班",
				},
			},
		},
	}
	h := NewEntryHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/timetables/tt-1/entries", jsonBody(dto.CreateEntryRequest{
		ClassID:    uuidA,
		SubjectID:  uuidB,
		TeacherID:  uuidC,
		TimeSlotID: uuidA,
		DayOfWeek:  1,
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/timetables/:id/entries", func(c *gin.Context) {
		setAuth(c)
		h.Create(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}

	var resp struct {
		Code    int                     `json:"code"`
		Details *dto.ClashCheckResponse `json:"details"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != 24001 {
		t.Errorf("expected error code 24001, got %d", resp.Code)
	}
	if resp.Details == nil || !resp.Details.HasRoomClash {
		t.Fatal("409 响应应携带结构化冲突明细")
	}
	if resp.Details.RoomClash.TeacherName != "王老师" {
		t.Errorf("expected 冲突教师 王老师, got %s", resp.Details.RoomClash.TeacherName)
	}
}

func TestEntryHandler_Create_HardConflict(t *testing.T) {
	mock := &mockEntryService{createErr: service.ErrSchedulingConflict}
	h := NewEntryHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/timetables/tt-1/entries", jsonBody(dto.CreateEntryRequest{
		ClassID:    uuidA,
		SubjectID:  uuidB,
		TeacherID:  uuidC,
		TimeSlotID: uuidA,
		DayOfWeek:  1,
		Override:   true,
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/timetables/:id/entries", func(c *gin.Context) {
		setAuth(c)
		h.Create(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 24002 {
		t.Errorf("expected error code 24002, got %d", resp.Code)
	}
}

func TestEntryHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"EntryNotFound", service.ErrEntryNotFound, 404, 24003},
		{"TimetableNotFound", service.ErrTimetableNotFound, 404, 23001},
		{"Archived", service.ErrTimetableArchived, 400, 24004},
		{"RoomFieldConflict", service.ErrRoomFieldConflict, 400, 24005},
		{"OptimisticLock", pkgerrors.ErrOptimisticLock, 409, 24006},
		{"CrossInstitution", service.ErrCrossInstitution, 403, 10003},
		{"Internal", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockEntryService{updateErr: tt.err}
			h := NewEntryHandler(mock)

			w := httptest.NewRecorder()
			req := httptest.NewRequest("PUT", "/entries/entry-1", jsonBody(dto.UpdateEntryRequest{}))
			req.Header.Set("Content-Type", "application/json")

			r := gin.New()
			r.PUT("/entries/:id", func(c *gin.Context) {
				setAuth(c)
				h.Update(c)
			})
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			resp := parseResponse(w)
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// TimeSlotHandler Tests
// ═══════════════════════════════════════════════════════════

func TestTimeSlotHandler_Delete_InUse409WithDetails(t *testing.T) {
	mock := &mockTimeSlotService{
		deleteErr: &service.SlotInUseError{
			Count:      12,
			Timetables: []string{"2026 春季课表", "2026 秋季课表"},
		},
	}
	h := NewTimeSlotHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/time-slots/slot-1", nil)

	r := gin.New()
	r.DELETE("/time-slots/:id", func(c *gin.Context) {
		setAuth(c)
		h.Delete(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}

	var resp struct {
		Code    int                    `json:"code"`
		Details *dto.SlotUsageResponse `json:"details"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != 22001 {
		t.Errorf("expected error code 22001, got %d", resp.Code)
	}
	if resp.Details == nil || resp.Details.Count != 12 {
		t.Fatal("409 响应应携带引用数量")
	}
	if len(resp.Details.Timetables) != 2 {
		t.Errorf("expected 2 个引用课表, got %v", resp.Details.Timetables)
	}
}

func TestTimeSlotHandler_Reorder_Boundary(t *testing.T) {
	mock := &mockTimeSlotService{reorderErr: service.ErrReorderBoundary}
	h := NewTimeSlotHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/time-slots/slot-1/reorder", jsonBody(dto.ReorderTimeSlotRequest{
		Direction: "up",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/time-slots/:id/reorder", func(c *gin.Context) {
		setAuth(c)
		h.Reorder(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 22003 {
		t.Errorf("expected error code 22003, got %d", resp.Code)
	}
}

func TestTimeSlotHandler_Create_BadDirection(t *testing.T) {
	h := NewTimeSlotHandler(&mockTimeSlotService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/time-slots/slot-1/reorder", jsonBody(map[string]string{
		"direction": "sideways",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/time-slots/:id/reorder", func(c *gin.Context) {
		setAuth(c)
		h.Reorder(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 10001 {
		t.Errorf("expected error code 10001, got %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// TimetableHandler Tests
// ═══════════════════════════════════════════════════════════

func TestTimetableHandler_Publish_Success(t *testing.T) {
	mock := &mockTimetableService{
		publishResult: &dto.TimetableResponse{
			ID:     "tt-1",
			Status: "published",
		},
	}
	h := NewTimetableHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/timetables/tt-1/publish", nil)

	r := gin.New()
	r.POST("/timetables/:id/publish", func(c *gin.Context) {
		setAuth(c)
		h.Publish(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestTimetableHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"NotFound", service.ErrTimetableNotFound, 404, 23001},
		{"NotDraft", service.ErrNotDraft, 400, 23002},
		{"NoPublished", service.ErrNoPublished, 404, 23003},
		{"DeletePublished", service.ErrDeletePublished, 400, 23004},
		{"OptimisticLock", pkgerrors.ErrOptimisticLock, 409, 23005},
		{"CrossInstitution", service.ErrCrossInstitution, 403, 10003},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockTimetableService{getErr: tt.err}
			h := NewTimetableHandler(mock)

			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/timetables/tt-1", nil)

			r := gin.New()
			r.GET("/timetables/:id", func(c *gin.Context) {
				setAuth(c)
				h.Get(c)
			})
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			resp := parseResponse(w)
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_XLSX_Success(t *testing.T) {
	mock := &mockExportService{
		buf:      bytes.NewBufferString("excel content"),
		filename: "课表_2026春.xlsx",
	}
	h := NewExportHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/export/timetables/tt-1/xlsx", nil)

	r := gin.New()
	r.GET("/export/timetables/:id/xlsx", func(c *gin.Context) {
		setAuth(c)
		h.ExportTimetable(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	ct := w.Header().Get("Content-Type")
	if ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("unexpected content type: %s", ct)
	}
	if w.Header().Get("Content-Disposition") == "" {
		t.Error("expected Content-Disposition header")
	}
}

func TestExportHandler_ICS_Success(t *testing.T) {
	mock := &mockExportService{
		buf:      bytes.NewBufferString("BEGIN:VCALENDAR"),
		filename: "课表_2026春_王老师.ics",
	}
	h := NewExportHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/export/timetables/tt-1/teachers/teacher-1/ics", nil)

	r := gin.New()
	r.GET("/export/timetables/:id/teachers/:teacher_id/ics", func(c *gin.Context) {
		setAuth(c)
		h.ExportTeacherICS(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	ct := w.Header().Get("Content-Type")
	if ct != "text/calendar; charset=utf-8" {
		t.Errorf("unexpected content type: %s", ct)
	}
}

func TestExportHandler_NoEntries(t *testing.T) {
	mock := &mockExportService{err: service.ErrExportNoEntries}
	h := NewExportHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/export/timetables/tt-1/xlsx", nil)

	r := gin.New()
	r.GET("/export/timetables/:id/xlsx", func(c *gin.Context) {
		setAuth(c)
		h.ExportTimetable(c)
	})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 25001 {
		t.Errorf("expected error code 25001, got %d", resp.Code)
	}
}
