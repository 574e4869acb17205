package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
	"github.com/SAP-F-2025/lms-assessment-service/internal/repositories"
)

const (
	summarySheet   = "Summary"
	breakdownSheet = "Breakdown"
	resultsSheet   = "Results"
)

type reportService struct {
	repo    repositories.Repository
	results ResultsService
	logger  *slog.Logger
}

func NewReportService(repo repositories.Repository, results ResultsService, logger *slog.Logger) ReportService {
	return &reportService{
		repo:    repo,
		results: results,
		logger:  logger,
	}
}

// ExportAttemptResults renders GetResults as a workbook with a summary sheet
// and a per-question breakdown sheet.
func (s *reportService) ExportAttemptResults(ctx context.Context, userID string, attemptID uint) (*ExportFile, error) {
	results, err := s.results.GetResults(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}

	summaryRows := [][]interface{}{
		{"Assessment", results.AssessmentTitle},
		{"Attempt", results.AttemptNumber},
		{"Score", results.Score},
		{"Total marks", results.TotalMarks},
		{"Percentage", results.Percentage},
		{"Passing marks", optionalInt(results.PassingMarks)},
		{"Passed", yesNo(results.Passed)},
		{"Started at", formatTime(&results.StartedAt)},
		{"Submitted at", formatTime(results.SubmittedAt)},
		{"Time taken (minutes)", results.TimeTakenMinutes},
		{"Questions", results.Summary.TotalQuestions},
		{"Answered", results.Summary.Answered},
		{"Unanswered", results.Summary.Unanswered},
		{"Correct", results.Summary.Correct},
		{"Pending review", results.Summary.PendingReview},
	}
	if err := writeRows(f, summarySheet, summaryRows); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 24); err != nil {
		return nil, fmt.Errorf("failed to format summary sheet: %w", err)
	}

	if _, err := f.NewSheet(breakdownSheet); err != nil {
		return nil, fmt.Errorf("failed to create breakdown sheet: %w", err)
	}
	header := []interface{}{"#", "Question", "Type", "Answered", "Your answer", "Correct answer", "Result", "Marks", "Max marks"}
	rows := [][]interface{}{header}
	for i, q := range results.Questions {
		answer := strings.Join(q.SelectedOptions, "; ")
		if q.TextAnswer != nil {
			answer = *q.TextAnswer
		}
		rows = append(rows, []interface{}{
			i + 1,
			q.Text,
			string(q.Type),
			yesNo(q.Answered),
			answer,
			strings.Join(q.CorrectOptions, "; "),
			gradeLabel(q.IsCorrect),
			q.MarksAwarded,
			q.MaxMarks,
		})
	}
	if err := writeRows(f, breakdownSheet, rows); err != nil {
		return nil, err
	}
	if err := styleHeader(f, breakdownSheet, len(header)); err != nil {
		return nil, err
	}

	return s.toExportFile(f, fmt.Sprintf("attempt-%d-results.xlsx", results.AttemptID))
}

// ExportAssessmentResults lists every completed attempt of an assessment. Student
// names come from Casdoor; a failed lookup falls back to the student id.
func (s *reportService) ExportAssessmentResults(ctx context.Context, assessmentID uint) (*ExportFile, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	attempts, err := s.repo.Attempt().GetCompletedByAssessment(ctx, nil, assessmentID)
	if err != nil {
		return nil, err
	}

	names := s.studentNames(ctx, attempts)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, fmt.Errorf("failed to create results sheet: %w", err)
	}

	header := []interface{}{"Student ID", "Student name", "Attempt", "Score", "Total marks", "Percentage", "Passed", "Submitted at", "Time taken (minutes)"}
	rows := [][]interface{}{header}
	for _, attempt := range attempts {
		rows = append(rows, []interface{}{
			attempt.StudentID,
			names[attempt.StudentID],
			attempt.AttemptNumber,
			attempt.Score,
			attempt.TotalMarks,
			CalculatePercentage(attempt.Score, attempt.TotalMarks),
			yesNo(IsPassing(attempt.Score, attempt.PassingMarks)),
			formatTime(attempt.SubmittedAt),
			attempt.TimeTakenMinutes,
		})
	}
	if err := writeRows(f, resultsSheet, rows); err != nil {
		return nil, err
	}
	if err := styleHeader(f, resultsSheet, len(header)); err != nil {
		return nil, err
	}

	s.logger.Info("Exported assessment results",
		"assessment_id", assessment.ID,
		"attempts", len(attempts))

	return s.toExportFile(f, fmt.Sprintf("assessment-%d-results.xlsx", assessment.ID))
}

func (s *reportService) studentNames(ctx context.Context, attempts []*models.AssessmentAttempt) map[string]string {
	names := make(map[string]string, len(attempts))
	ids := make([]string, 0, len(attempts))
	for _, attempt := range attempts {
		if _, ok := names[attempt.StudentID]; ok {
			continue
		}
		names[attempt.StudentID] = attempt.StudentID
		ids = append(ids, attempt.StudentID)
	}
	if len(ids) == 0 || s.repo.User() == nil {
		return names
	}

	users, err := s.repo.User().GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to resolve student names", "error", err)
		return names
	}
	for _, user := range users {
		if user != nil {
			names[user.ID] = user.DisplayName()
		}
	}
	return names
}

func (s *reportService) toExportFile(f *excelize.File, name string) (*ExportFile, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return &ExportFile{
		FileName:    name,
		ContentType: XLSXContentType,
		Data:        buf.Bytes(),
	}, nil
}

// ===== WORKBOOK HELPERS =====

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string, columns int) error {
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func gradeLabel(isCorrect *bool) string {
	switch {
	case isCorrect == nil:
		return "Pending review"
	case *isCorrect:
		return "Correct"
	default:
		return "Incorrect"
	}
}

func optionalInt(v *int) interface{} {
	if v == nil {
		return "-"
	}
	return *v
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
