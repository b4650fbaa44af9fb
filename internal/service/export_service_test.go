package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinyareddy314/cms-go/internal/models"
	appErrors "github.com/vinyareddy314/cms-go/pkg/errors"
)

type programRepoStub struct {
	program *models.Program
}

func (s programRepoStub) List(ctx context.Context, filter models.ProgramFilter) ([]models.Program, error) {
	return nil, nil
}

func (s programRepoStub) FindByID(ctx context.Context, id string) (*models.Program, error) {
	if s.program == nil || s.program.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.program, nil
}

func (s programRepoStub) Create(ctx context.Context, program *models.Program) error { return nil }
func (s programRepoStub) Update(ctx context.Context, program *models.Program) error { return nil }
func (s programRepoStub) SetTopics(ctx context.Context, programID string, topicIDs []int) error {
	return nil
}
func (s programRepoStub) ListTopics(ctx context.Context, programID string) ([]models.Topic, error) {
	return nil, nil
}

type termListerStub struct {
	terms []models.Term
}

func (s termListerStub) ListByProgram(ctx context.Context, programID string) ([]models.Term, error) {
	return s.terms, nil
}

type lessonListerStub struct {
	lessons []models.Lesson
}

func (s lessonListerStub) ListByTermIDs(ctx context.Context, termIDs []string) ([]models.Lesson, error) {
	return s.lessons, nil
}

func exportFixture() (programRepoStub, termListerStub, lessonListerStub) {
	publishAt := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	duration := int64(600000)
	return programRepoStub{program: &models.Program{ID: "program-1", Title: "Physics Foundations"}},
		termListerStub{terms: []models.Term{
			{ID: "term-1", ProgramID: "program-1", TermNumber: 1},
			{ID: "term-2", ProgramID: "program-1", TermNumber: 2},
		}},
		lessonListerStub{lessons: []models.Lesson{
			{
				ID:           "lesson-1",
				TermID:       "term-1",
				LessonNumber: 1,
				Title:        "Kinematics",
				ContentType:  models.ContentKindVideo,
				DurationMS:   &duration,
				IsPaid:       true,
				Status:       models.LessonStatusScheduled,
				PublishAt:    &publishAt,
			},
			{
				ID:           "lesson-2",
				TermID:       "term-2",
				LessonNumber: 1,
				Title:        "Reading: Newton's Laws",
				ContentType:  models.ContentKindArticle,
				Status:       models.LessonStatusDraft,
			},
		}}
}

func TestExportServiceProgramManifestCSV(t *testing.T) {
	programs, terms, lessons := exportFixture()
	svc := NewExportService(programs, terms, lessons)

	result, err := svc.ProgramManifest(context.Background(), "program-1", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Contains(t, result.FileName, "program-program-1-manifest-")
	assert.True(t, strings.HasSuffix(result.FileName, ".csv"))

	body := string(result.Data)
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Term,Lesson,Title,Type,Status,Publish At,Published At,Paid", strings.TrimSpace(lines[0]))
	assert.Contains(t, body, "Kinematics")
	assert.Contains(t, body, "2026-04-01T09:00:00Z")
	assert.Contains(t, body, "Reading: Newton's Laws")
}

func TestExportServiceProgramManifestPDF(t *testing.T) {
	programs, terms, lessons := exportFixture()
	svc := NewExportService(programs, terms, lessons)

	result, err := svc.ProgramManifest(context.Background(), "program-1", FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, strings.HasSuffix(result.FileName, ".pdf"))
	assert.True(t, strings.HasPrefix(string(result.Data), "%PDF"), "pdf output must start with the magic marker")
}

func TestExportServiceProgramManifestUnknownFormat(t *testing.T) {
	programs, terms, lessons := exportFixture()
	svc := NewExportService(programs, terms, lessons)

	_, err := svc.ProgramManifest(context.Background(), "program-1", ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceProgramManifestUnknownProgram(t *testing.T) {
	_, terms, lessons := exportFixture()
	svc := NewExportService(programRepoStub{}, terms, lessons)

	_, err := svc.ProgramManifest(context.Background(), "missing", FormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
