package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/lms-assessment-service/internal/events"
	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
	"github.com/SAP-F-2025/lms-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/lms-assessment-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/lms-assessment-service/internal/validator"
	"github.com/SAP-F-2025/lms-assessment-service/pkg"
)

var (
	testDBSeq int64

	// Whole seconds keep sqlite's text timestamps comparable
	baseTime = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeUserRepository struct {
	users map[string]*models.User
	err   error
}

func (f *fakeUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeUserRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

type testEnv struct {
	db        *gorm.DB
	repo      repositories.Repository
	users     *fakeUserRepository
	publisher *events.MockEventPublisher
	clock     *fakeClock
	logger    *slog.Logger

	catalog  CatalogService
	attempts AttemptService
	results  ResultsService
	reports  ReportService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:services_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := pkg.OpenDatabase(sqlite.Open(dsn), logger.Default.LogMode(logger.Silent))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := pkg.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithCache(t, nil)
}

// newTestEnvWithCache wires the repositories to redisClient; nil disables caching.
func newTestEnvWithCache(t *testing.T, redisClient *redis.Client) *testEnv {
	t.Helper()

	db := newTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := &fakeUserRepository{users: map[string]*models.User{}}
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{
		DB:             db,
		RedisClient:    redisClient,
		UserRepository: users,
	})
	publisher := events.NewMockEventPublisher(logger)
	clock := &fakeClock{now: baseTime}
	v := validator.New()

	results := NewResultsService(repo, logger)
	return &testEnv{
		db:        db,
		repo:      repo,
		users:     users,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		catalog:   NewCatalogService(repo, logger, v, clock.Now),
		attempts:  NewAttemptService(repo, logger, v, publisher, clock.Now),
		results:   results,
		reports:   NewReportService(repo, results, logger),
	}
}

// ===== SEED HELPERS =====

func intPtr(v int) *int { return &v }

func uintPtr(v uint) *uint { return &v }

func strPtr(v string) *string { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func (e *testEnv) seedBatch(t *testing.T, title string) *models.Batch {
	t.Helper()
	batch := &models.Batch{Title: title}
	if err := e.repo.Batch().Create(context.Background(), nil, batch); err != nil {
		t.Fatalf("seed batch: %v", err)
	}
	return batch
}

func (e *testEnv) enroll(t *testing.T, userID string, batchID uint) {
	t.Helper()
	e.seedEnrollment(t, &models.Enrollment{UserID: userID, BatchID: batchID, Status: models.EnrollmentActive})
}

func (e *testEnv) seedEnrollment(t *testing.T, enrollment *models.Enrollment) {
	t.Helper()
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = baseTime.Add(-24 * time.Hour)
	}
	if err := e.repo.Enrollment().Create(context.Background(), nil, enrollment); err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}
}

// choiceQuestion builds an objective question; correct lists the 0-based
// indexes of the correct options.
func choiceQuestion(qType models.QuestionType, order, points int, options []string, correct ...int) models.Question {
	q := models.Question{
		Text:       fmt.Sprintf("Question %d", order),
		Type:       qType,
		Points:     points,
		OrderIndex: order,
	}
	for i, text := range options {
		isCorrect := false
		for _, c := range correct {
			if c == i {
				isCorrect = true
			}
		}
		q.Options = append(q.Options, models.Option{Text: text, IsCorrect: isCorrect, OrderIndex: i})
	}
	return q
}

func essayQuestion(order, points int) models.Question {
	return models.Question{
		Text:       fmt.Sprintf("Essay %d", order),
		Type:       models.Essay,
		Points:     points,
		OrderIndex: order,
	}
}

func (e *testEnv) seedAssessment(t *testing.T, batchID uint, questions []models.Question, opts ...func(*models.Assessment)) *models.Assessment {
	t.Helper()
	assessment := &models.Assessment{
		BatchID:     batchID,
		Title:       "Assessment",
		Type:        models.AssessmentQuiz,
		IsPublished: true,
		Questions:   questions,
	}
	for _, opt := range opts {
		opt(assessment)
	}
	if err := e.repo.Assessment().Create(context.Background(), nil, assessment); err != nil {
		t.Fatalf("seed assessment: %v", err)
	}
	return assessment
}

func withTitle(title string) func(*models.Assessment) {
	return func(a *models.Assessment) { a.Title = title }
}

func withMaxAttempts(n int) func(*models.Assessment) {
	return func(a *models.Assessment) { a.MaxAttempts = intPtr(n) }
}

func withTimeLimit(minutes int) func(*models.Assessment) {
	return func(a *models.Assessment) { a.TimeLimitMinutes = intPtr(minutes) }
}

func withPassingMarks(marks int) func(*models.Assessment) {
	return func(a *models.Assessment) { a.PassingMarks = intPtr(marks) }
}

func withWindow(start, end *time.Time) func(*models.Assessment) {
	return func(a *models.Assessment) {
		a.StartDate = start
		a.EndDate = end
	}
}

func unpublished() func(*models.Assessment) {
	return func(a *models.Assessment) { a.IsPublished = false }
}

// correctAnswers answers every objective question correctly.
func correctAnswers(assessment *models.Assessment) []AnswerRequest {
	answers := make([]AnswerRequest, 0, len(assessment.Questions))
	for i := range assessment.Questions {
		q := &assessment.Questions[i]
		if !q.Type.IsObjective() {
			continue
		}
		answers = append(answers, AnswerRequest{QuestionID: q.ID, SelectedOptionIDs: q.CorrectOptionIDs()})
	}
	return answers
}

// wrongOption returns the id of the first incorrect option of q.
func wrongOption(q *models.Question) uint {
	for _, o := range q.Options {
		if !o.IsCorrect {
			return o.ID
		}
	}
	return 0
}

func (e *testEnv) attemptStatus(t *testing.T, attemptID uint) models.AttemptStatus {
	t.Helper()
	attempt, err := e.repo.Attempt().GetByID(context.Background(), nil, attemptID)
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	return attempt.Status
}
