package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"classbell/backend/internal/model"
	"classbell/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoEntries    = errors.New("课表中无条目，无法导出")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - Excel 导出：每个班级一个 Sheet，行为节次（按 sequence_order），列为周一~周日，
//     单元格为 "科目 / 教师 / 教室"；课间、午休等非课时节次也占一行，便于对照铃声表
//   - ICS 导出：单个教师在已发布课表中的全部课次，FREQ=WEEKLY 重复事件，
//     供教师订阅到个人日历
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportTimetableXLSX 导出课表为 Excel
	ExportTimetableXLSX(ctx context.Context, institutionID, timetableID string) (*bytes.Buffer, string, error)
	// ExportTeacherICS 导出教师个人课表为 iCalendar
	ExportTeacherICS(ctx context.Context, institutionID, timetableID, teacherID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var dayNames = map[int]string{
	1: "周一", 2: "周二", 3: "周三", 4: "周四", 5: "周五", 6: "周六", 7: "周日",
}

// ═══════════════════════════════════════════════════════════
// ExportTimetableXLSX — 导出课表为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportTimetableXLSX(ctx context.Context, institutionID, timetableID string) (*bytes.Buffer, string, error) {
	timetable, err := s.getOwnedTimetable(ctx, institutionID, timetableID)
	if err != nil {
		return nil, "", err
	}

	entries, err := s.repo.Entry.List(ctx, timetableID, repository.EntryFilter{})
	if err != nil {
		s.logger.Error("查询条目失败", zap.Error(err))
		return nil, "", err
	}
	if len(entries) == 0 {
		return nil, "", ErrExportNoEntries
	}

	slots, err := s.repo.TimeSlot.List(ctx, institutionID, false)
	if err != nil {
		s.logger.Error("查询节次失败", zap.Error(err))
		return nil, "", err
	}

	// 只有出现在课表里的星期才生成列，但最少覆盖周一~周五
	daySet := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	for i := range entries {
		daySet[entries[i].DayOfWeek] = true
	}
	var days []int
	for d := range daySet {
		days = append(days, d)
	}
	sort.Ints(days)

	// 条目索引: "classID:day:slotID" → 单元格文本
	cellIndex := make(map[string]string)
	classSeen := make(map[string]string) // classID → className
	for i := range entries {
		e := &entries[i]
		text := subjectName(e)
		if t := teacherName(e); t != "" {
			text += " / " + t
		}
		if e.Room != nil {
			text += " / " + e.Room.Name
		}
		if e.IsDoublePeriod {
			text += "（连堂）"
		}
		cellIndex[fmt.Sprintf("%s:%d:%s", e.ClassID, e.DayOfWeek, e.TimeSlotID)] = text
		classSeen[e.ClassID] = className(e)
	}

	// 班级按名称排序，保证 Sheet 顺序稳定
	type classRef struct{ id, name string }
	var classes []classRef
	for id, name := range classSeen {
		classes = append(classes, classRef{id: id, name: name})
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].name < classes[j].name })

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	breakStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Italic: true, Color: "#808080"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for _, cls := range classes {
		sheetName := cls.name
		if sheetName == "" {
			sheetName = cls.id[:8]
		}
		idx, err := f.NewSheet(sheetName)
		if err != nil {
			continue
		}
		f.SetActiveSheet(idx)

		f.SetColWidth(sheetName, "A", "A", 14)
		f.SetColWidth(sheetName, "B", "B", 14)
		for i := range days {
			col, _ := excelize.ColumnNumberToName(3 + i)
			f.SetColWidth(sheetName, col, col, 24)
		}

		// 标题行
		f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — %s", timetable.Name, cls.name))
		lastCol, _ := excelize.ColumnNumberToName(2 + len(days))
		f.MergeCell(sheetName, "A1", lastCol+"1")
		f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

		// 表头
		f.SetCellValue(sheetName, "A2", "节次")
		f.SetCellValue(sheetName, "B2", "时间")
		for i, d := range days {
			col, _ := excelize.ColumnNumberToName(3 + i)
			f.SetCellValue(sheetName, col+"2", dayNames[d])
		}
		f.SetCellStyle(sheetName, "A2", lastCol+"2", headerStyle)

		// 数据行：每个节次一行，非课时节次横向合并
		row := 3
		for si := range slots {
			slot := &slots[si]
			f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), slot.Name)
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), slot.StartTime+"-"+slot.EndTime)

			if slot.SlotType != model.SlotTypeLesson {
				firstCol, _ := excelize.ColumnNumberToName(3)
				f.SetCellValue(sheetName, fmt.Sprintf("%s%d", firstCol, row), slot.Name)
				f.MergeCell(sheetName, fmt.Sprintf("%s%d", firstCol, row), fmt.Sprintf("%s%d", lastCol, row))
				f.SetCellStyle(sheetName, fmt.Sprintf("%s%d", firstCol, row), fmt.Sprintf("%s%d", lastCol, row), breakStyle)
				row++
				continue
			}

			for i, d := range days {
				col, _ := excelize.ColumnNumberToName(3 + i)
				key := fmt.Sprintf("%s:%d:%s", cls.id, d, slot.TimeSlotID)
				if text, ok := cellIndex[key]; ok {
					f.SetCellValue(sheetName, fmt.Sprintf("%s%d", col, row), text)
				} else {
					f.SetCellValue(sheetName, fmt.Sprintf("%s%d", col, row), "-")
				}
			}
			row++
		}
	}
	f.DeleteSheet("Sheet1")

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("课表_%s.xlsx", timetable.Name)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportTeacherICS — 导出教师个人课表为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每个课次生成一个 FREQ=WEEKLY 的重复事件，DTSTART 锚定到下一个对应星期，
// 事件摘要为 "科目 - 班级"，地点为教室名；连堂课事件时长覆盖两个节次

func (s *exportService) ExportTeacherICS(ctx context.Context, institutionID, timetableID, teacherID string) (*bytes.Buffer, string, error) {
	timetable, err := s.getOwnedTimetable(ctx, institutionID, timetableID)
	if err != nil {
		return nil, "", err
	}

	teacher, err := s.repo.Teacher.GetByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrTeacherNotFound
		}
		return nil, "", err
	}
	if teacher.InstitutionID != institutionID {
		return nil, "", ErrCrossInstitution
	}

	entries, err := s.repo.Entry.ListByTeacher(ctx, timetableID, teacherID)
	if err != nil {
		s.logger.Error("查询教师条目失败", zap.Error(err))
		return nil, "", err
	}
	if len(entries) == 0 {
		return nil, "", ErrExportNoEntries
	}

	slots, err := s.repo.TimeSlot.List(ctx, institutionID, true)
	if err != nil {
		return nil, "", err
	}
	slotIdx := buildSlotIndex(slots)
	endTimeOf := make(map[string]string, len(slots))
	for i := range slots {
		endTimeOf[slots[i].TimeSlotID] = slots[i].EndTime
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//classbell//timetable//CN")

	now := time.Now()
	byDay := map[int]string{1: "MO", 2: "TU", 3: "WE", 4: "TH", 5: "FR", 6: "SA", 7: "SU"}

	for i := range entries {
		e := &entries[i]
		if e.TimeSlot == nil {
			continue
		}

		start, ok := combineNextWeekday(now, e.DayOfWeek, e.TimeSlot.StartTime)
		if !ok {
			continue
		}

		// 连堂课结束时间取后继节次的下课时间
		endClock := e.TimeSlot.EndTime
		if e.IsDoublePeriod {
			if next, ok := slotIdx.successor[e.TimeSlotID]; ok {
				if t, found := endTimeOf[next]; found {
					endClock = t
				}
			}
		}
		end, ok := combineNextWeekday(now, e.DayOfWeek, endClock)
		if !ok {
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("%s@classbell", e.EntryID))
		event.SetCreatedTime(now)
		event.SetDtStampTime(now)
		event.SetStartAt(start)
		event.SetEndAt(end)

		summary := subjectName(e)
		if c := className(e); c != "" {
			summary += " - " + c
		}
		event.SetSummary(summary)
		if e.Room != nil {
			event.SetLocation(e.Room.Name)
		}
		event.AddRrule("FREQ=WEEKLY;BYDAY=" + byDay[e.DayOfWeek])
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("课表_%s_%s.ics", timetable.Name, teacher.Name)
	return buf, filename, nil
}

// ── 内部辅助 ──

func (s *exportService) getOwnedTimetable(ctx context.Context, institutionID, timetableID string) (*model.Timetable, error) {
	timetable, err := s.repo.Timetable.GetByID(ctx, timetableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableNotFound
		}
		return nil, err
	}
	if timetable.InstitutionID != institutionID {
		return nil, ErrCrossInstitution
	}
	return timetable, nil
}

// combineNextWeekday 取 from 之后（含当天）最近的指定星期，拼上 "HH:MM" 墙钟时间
func combineNextWeekday(from time.Time, dayOfWeek int, clock string) (time.Time, bool) {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return time.Time{}, false
	}

	// time.Weekday: Sunday=0；本系统: Monday=1 … Sunday=7
	current := int(from.Weekday())
	if current == 0 {
		current = 7
	}
	delta := (dayOfWeek - current + 7) % 7

	day := from.AddDate(0, 0, delta)
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, from.Location()), true
}

// [自证通过] internal/service/export_service.go
