package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/lms-assessment-service/internal/events"
	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
	"github.com/SAP-F-2025/lms-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/lms-assessment-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/lms-assessment-service/internal/services"
	"github.com/SAP-F-2025/lms-assessment-service/internal/utils"
	"github.com/SAP-F-2025/lms-assessment-service/internal/validator"
	"github.com/SAP-F-2025/lms-assessment-service/pkg"
)

const (
	studentToken = "student-token"
	otherToken   = "other-token"
	teacherToken = "teacher-token"

	studentID = "student-1"
)

var handlerDBSeq int64

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeTokenParser accepts a fixed set of tokens
type fakeTokenParser struct {
	users map[string]casdoorsdk.User
}

func (f *fakeTokenParser) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	user, ok := f.users[token]
	if !ok {
		return nil, errors.New("token signature is invalid")
	}
	return &casdoorsdk.Claims{User: user}, nil
}

type noUsers struct{}

func (noUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return nil, repositories.ErrNotFound
}

func (noUsers) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	return nil, nil
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

type testServer struct {
	router *gin.Engine
	repo   repositories.Repository
	clock  *testClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	dsn := fmt.Sprintf("file:handlers_test_%d?mode=memory&cache=shared", atomic.AddInt64(&handlerDBSeq, 1))
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

	slogLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	logger := utils.NewSlogLogger(slogLogger)
	repo := postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db, UserRepository: noUsers{}})
	clock := &testClock{now: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)}
	v := validator.New()

	sm := services.NewServiceManager(repo, events.NewMockEventPublisher(slogLogger), slogLogger, v, services.ServiceManagerConfig{
		Clock: clock.Now,
	})
	if err := sm.Initialize(context.Background()); err != nil {
		t.Fatalf("initialize services: %v", err)
	}

	auth := newCasdoorAuthMiddleware(&fakeTokenParser{users: map[string]casdoorsdk.User{
		studentToken: {Id: studentID, DisplayName: "Ada", Type: "student"},
		otherToken:   {Id: "student-2", Type: "student"},
		teacherToken: {Id: "teacher-1", Type: "teacher"},
	}}, noUsers{}, logger)

	router := gin.New()
	SetupMiddleware(router, logger)
	newHandlerManager(sm, logger, auth).SetupRoutes(router)

	return &testServer{router: router, repo: repo, clock: clock}
}

// seedQuiz creates a batch with studentID enrolled and a published quiz with
// two objective questions worth 5 marks each.
func (s *testServer) seedQuiz(t *testing.T, opts ...func(*models.Assessment)) *models.Assessment {
	t.Helper()
	ctx := context.Background()

	batch := &models.Batch{Title: "Batch A"}
	if err := s.repo.Batch().Create(ctx, nil, batch); err != nil {
		t.Fatalf("seed batch: %v", err)
	}
	enrollment := &models.Enrollment{
		UserID:     studentID,
		BatchID:    batch.ID,
		Status:     models.EnrollmentActive,
		EnrolledAt: s.clock.now.Add(-24 * time.Hour),
	}
	if err := s.repo.Enrollment().Create(ctx, nil, enrollment); err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}

	assessment := &models.Assessment{
		BatchID:     batch.ID,
		Title:       "Quiz",
		Type:        models.AssessmentQuiz,
		IsPublished: true,
		Questions: []models.Question{
			{Text: "Capital of France?", Type: models.SingleChoice, Points: 5, OrderIndex: 1, Options: []models.Option{
				{Text: "Paris", IsCorrect: true, OrderIndex: 0},
				{Text: "Rome", OrderIndex: 1},
			}},
			{Text: "Go has generics", Type: models.TrueFalse, Points: 5, OrderIndex: 2, Options: []models.Option{
				{Text: "True", IsCorrect: true, OrderIndex: 0},
				{Text: "False", OrderIndex: 1},
			}},
		},
	}
	for _, opt := range opts {
		opt(assessment)
	}
	if err := s.repo.Assessment().Create(ctx, nil, assessment); err != nil {
		t.Fatalf("seed assessment: %v", err)
	}
	return assessment
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = strings.NewReader(b)
		default:
			payload, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			reader = strings.NewReader(string(payload))
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d, body = %s", w.Code, want, w.Body.String())
	}
}

func correctAnswers(assessment *models.Assessment) services.SubmitAnswersRequest {
	var req services.SubmitAnswersRequest
	for i := range assessment.Questions {
		q := &assessment.Questions[i]
		req.Answers = append(req.Answers, services.AnswerRequest{QuestionID: q.ID, SelectedOptionIDs: q.CorrectOptionIDs()})
	}
	return req
}

func intPtr(v int) *int { return &v }

func startPath(id uint) string { return fmt.Sprintf("/api/v1/assessments/%d/attempts", id) }

func submitPath(id uint) string { return fmt.Sprintf("/api/v1/attempts/%d/submit", id) }

func resultsPath(id uint) string { return fmt.Sprintf("/api/v1/attempts/%d/results", id) }
