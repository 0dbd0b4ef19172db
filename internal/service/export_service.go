package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"school-system/backend/internal/model"
	"school-system/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

const calendarProductID = "-//school-system//slot-booking//ZH"

// ExportService 导出业务接口
//
//   - 课程组预约明细导出为 Excel (.xlsx)，以 bytes.Buffer 返回，由 Handler 设置响应头
//   - 学生的全部预约导出为 iCalendar，供日历应用订阅
type ExportService interface {
	// ExportSessionGroup 返回 Excel 内容与建议文件名
	ExportSessionGroup(ctx context.Context, teacherID, sessionID string) (*bytes.Buffer, string, error)
	// StudentCalendar 返回 text/calendar 内容
	StudentCalendar(ctx context.Context, studentID string) (string, error)
}

type exportService struct {
	repo       *repository.Repository
	defaultLoc *time.Location
	logger     *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, defaultLoc *time.Location, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, defaultLoc: defaultLoc, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportSessionGroup：课程组预约明细
// ═══════════════════════════════════════════════════════════
//
// 表头: | 序号 | 开始(本地) | 结束(本地) | 开始(UTC) | 结束(UTC) | 学生 | 方式 |
// 本地时间按老师时区展示。

func (s *exportService) ExportSessionGroup(ctx context.Context, teacherID, sessionID string) (*bytes.Buffer, string, error) {
	group, err := loadSessionGroup(ctx, s.repo, sessionID)
	if err != nil {
		return nil, "", err
	}
	if group.TeacherID != teacherID {
		return nil, "", ErrSessionGroupForbidden
	}
	teacher, err := loadUser(ctx, s.repo, teacherID)
	if err != nil {
		return nil, "", err
	}
	loc := userLocation(teacher, s.defaultLoc)

	// 学生姓名
	ids := make([]string, 0, len(group.BookedSlots))
	for _, b := range group.BookedSlots {
		ids = append(ids, b.BookedBy)
	}
	students, err := s.repo.User.ListByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("查询学生信息失败", zap.Error(err))
		return nil, "", err
	}
	names := make(map[string]string, len(students))
	for _, u := range students {
		names[u.UserID] = u.Name
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "预约明细"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 6)
	f.SetColWidth(sheetName, "B", "E", 22)
	f.SetColWidth(sheetName, "F", "F", 16)
	f.SetColWidth(sheetName, "G", "G", 10)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	dateText := group.Date.Format(model.DateLayout)
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s %s（%s）", group.Title, dateText, loc.String()))
	f.MergeCell(sheetName, "A1", "G1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	headers := []string{"序号", "开始(本地)", "结束(本地)", "开始(UTC)", "结束(UTC)", "学生", "方式"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", "G2", headerStyle)

	const localLayout = "2006-01-02 15:04"
	for i, b := range group.BookedSlots {
		row := 3 + i
		mode := "自助"
		if b.BookedByTeacher {
			mode = "代约"
		}
		name := names[b.BookedBy]
		if name == "" {
			name = b.BookedBy
		}
		values := []interface{}{
			i + 1,
			b.StartTime.In(loc).Format(localLayout),
			b.EndTime.In(loc).Format(localLayout),
			b.StartTime.UTC().Format(time.RFC3339),
			b.EndTime.UTC().Format(time.RFC3339),
			name,
			mode,
		}
		for col, v := range values {
			f.SetCellValue(sheetName, cell(colName(col), row), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("预约明细_%s_%s.xlsx", group.Title, dateText)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// StudentCalendar：学生预约日历
// ═══════════════════════════════════════════════════════════

func (s *exportService) StudentCalendar(ctx context.Context, studentID string) (string, error) {
	slots, err := s.repo.SessionGroup.ListBookedByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询学生预约失败", zap.String("student_id", studentID), zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)

	for _, b := range slots {
		event := cal.AddEvent(b.BookedSlotID)
		event.SetDtStampTime(b.CreatedAt.UTC())
		event.SetStartAt(b.StartTime.UTC())
		event.SetEndAt(b.EndTime.UTC())
		summary := "预约时段"
		if b.SessionGroup != nil {
			summary = b.SessionGroup.Title
		}
		event.SetSummary(summary)
		if b.BookedByTeacher {
			event.SetDescription("老师代约")
		}
	}

	return cal.Serialize(), nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
