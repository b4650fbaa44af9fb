package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	appErrors "github.com/vinyareddy314/cms-go/pkg/errors"
	"github.com/vinyareddy314/cms-go/pkg/export"
)

// ExportFormat selects the rendering backend for program exports.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

var exportHeaders = []string{
	"Term", "Lesson", "Title", "Type", "Status", "Publish At", "Published At", "Paid",
}

// ExportResult carries rendered bytes plus response metadata.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders a program's lesson manifest for editorial review.
type ExportService struct {
	programs programRepository
	terms    programTermLister
	lessons  programLessonLister
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
}

// NewExportService creates a new export service instance.
func NewExportService(programs programRepository, terms programTermLister, lessons programLessonLister) *ExportService {
	return &ExportService{
		programs: programs,
		terms:    terms,
		lessons:  lessons,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
	}
}

// ProgramManifest renders every lesson of a program, draft or not, ordered by
// term and lesson number.
func (s *ExportService) ProgramManifest(ctx context.Context, programID string, format ExportFormat) (*ExportResult, error) {
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	program, err := s.programs.FindByID(ctx, programID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	terms, err := s.terms.ListByProgram(ctx, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load terms")
	}
	termNumbers := make(map[string]int, len(terms))
	termIDs := make([]string, 0, len(terms))
	for _, t := range terms {
		termNumbers[t.ID] = t.TermNumber
		termIDs = append(termIDs, t.ID)
	}

	lessons, err := s.lessons.ListByTermIDs(ctx, termIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(lessons))}
	for _, lesson := range lessons {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Term":         strconv.Itoa(termNumbers[lesson.TermID]),
			"Lesson":       strconv.Itoa(lesson.LessonNumber),
			"Title":        lesson.Title,
			"Type":         string(lesson.ContentType),
			"Status":       string(lesson.Status),
			"Publish At":   formatTimestamp(lesson.PublishAt),
			"Published At": formatTimestamp(lesson.PublishedAt),
			"Paid":         strconv.FormatBool(lesson.IsPaid),
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case FormatPDF:
		data, err := s.pdf.Render(dataset, fmt.Sprintf("Lesson Manifest - %s", program.Title))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("program-%s-manifest-%s.pdf", program.ID, stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			FileName:    fmt.Sprintf("program-%s-manifest-%s.csv", program.ID, stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	}
}

func formatTimestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
