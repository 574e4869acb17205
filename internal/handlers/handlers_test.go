package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/lms-assessment-service/internal/models"
	"github.com/SAP-F-2025/lms-assessment-service/internal/services"
	"github.com/SAP-F-2025/lms-assessment-service/internal/utils"
)

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + studentToken, want: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer forged", want: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer " + studentToken, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/api/v1/assessments", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if w.Header().Get(requestIDHeader) == "" {
				t.Error("missing X-Request-ID header")
			}
		})
	}
}

func TestAttemptFlow(t *testing.T) {
	s := newTestServer(t)
	assessment := s.seedQuiz(t, func(a *models.Assessment) {
		a.MaxAttempts = intPtr(2)
		a.PassingMarks = intPtr(6)
	})

	w := s.do(t, http.MethodGet, "/api/v1/assessments", studentToken, nil)
	expectStatus(t, w, http.StatusOK)
	var catalog services.CatalogResponse
	decode(t, w, &catalog)
	if len(catalog.Assessments) != 1 || !catalog.Assessments[0].AttemptSummary.CanStart {
		t.Fatalf("catalog = %+v", catalog.Assessments)
	}

	w = s.do(t, http.MethodPost, startPath(assessment.ID), studentToken, nil)
	expectStatus(t, w, http.StatusCreated)
	var started services.StartAttemptResponse
	decode(t, w, &started)
	if len(started.Questions) != 2 || started.Attempt.AttemptNumber != 1 {
		t.Fatalf("start response = %+v", started)
	}
	if strings.Contains(w.Body.String(), "is_correct") {
		t.Error("start response leaks correct flags")
	}

	// second start while in progress
	w = s.do(t, http.MethodPost, startPath(assessment.ID), studentToken, nil)
	expectStatus(t, w, http.StatusUnprocessableEntity)
	var rejected struct {
		Details struct {
			Reasons []string `json:"reasons"`
		} `json:"details"`
	}
	decode(t, w, &rejected)
	if !slices.Contains(rejected.Details.Reasons, services.ReasonOngoingAttempt) {
		t.Errorf("reasons = %q", rejected.Details.Reasons)
	}

	w = s.do(t, http.MethodGet, resultsPath(started.Attempt.ID), studentToken, nil)
	expectStatus(t, w, http.StatusConflict)

	s.clock.now = s.clock.now.Add(7 * time.Minute)
	w = s.do(t, http.MethodPost, submitPath(started.Attempt.ID), studentToken, correctAnswers(assessment))
	expectStatus(t, w, http.StatusOK)
	var result services.SubmissionResult
	decode(t, w, &result)
	if result.Score != 10 || result.Percentage != 100 || !result.Passed || result.TimeTakenMinutes != 7 {
		t.Errorf("submission = %+v", result)
	}

	w = s.do(t, http.MethodPost, submitPath(started.Attempt.ID), studentToken, correctAnswers(assessment))
	expectStatus(t, w, http.StatusConflict)

	w = s.do(t, http.MethodGet, resultsPath(started.Attempt.ID), studentToken, nil)
	expectStatus(t, w, http.StatusOK)
	var results services.AttemptResults
	decode(t, w, &results)
	if results.Summary.Correct != 2 || len(results.Questions) != 2 {
		t.Errorf("results = %+v", results)
	}
	if !slices.Equal(results.Questions[0].CorrectOptions, []string{"Paris"}) {
		t.Errorf("correct options = %q", results.Questions[0].CorrectOptions)
	}

	w = s.do(t, http.MethodGet, resultsPath(started.Attempt.ID)+"/export", studentToken, nil)
	expectStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != services.XLSXContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	wantName := fmt.Sprintf("attempt-%d-results.xlsx", started.Attempt.ID)
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, wantName) {
		t.Errorf("Content-Disposition = %q, want %s", cd, wantName)
	}
	if w.Body.Len() == 0 {
		t.Error("empty workbook")
	}
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	assessment := s.seedQuiz(t, func(a *models.Assessment) { a.TimeLimitMinutes = intPtr(30) })

	w := s.do(t, http.MethodPost, startPath(assessment.ID), studentToken, nil)
	expectStatus(t, w, http.StatusCreated)
	var started services.StartAttemptResponse
	decode(t, w, &started)
	attemptID := started.Attempt.ID

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		want   int
	}{
		{name: "non numeric id", method: http.MethodPost, path: "/api/v1/assessments/abc/attempts", token: studentToken, want: http.StatusBadRequest},
		{name: "missing assessment", method: http.MethodPost, path: startPath(assessment.ID + 100), token: studentToken, want: http.StatusNotFound},
		{name: "not enrolled", method: http.MethodPost, path: startPath(assessment.ID), token: otherToken, want: http.StatusUnprocessableEntity},
		{name: "bad status filter", method: http.MethodGet, path: "/api/v1/assessments?status=archived", token: studentToken, want: http.StatusBadRequest},
		{name: "malformed json", method: http.MethodPost, path: submitPath(attemptID), token: studentToken, body: "{", want: http.StatusBadRequest},
		{name: "question outside assessment", method: http.MethodPost, path: submitPath(attemptID), token: studentToken,
			body: services.SubmitAnswersRequest{Answers: []services.AnswerRequest{{QuestionID: 9999, SelectedOptionIDs: []uint{1}}}}, want: http.StatusBadRequest},
		{name: "answer without question id", method: http.MethodPost, path: submitPath(attemptID), token: studentToken,
			body: services.SubmitAnswersRequest{Answers: []services.AnswerRequest{{SelectedOptionIDs: []uint{1}}}}, want: http.StatusBadRequest},
		{name: "attempt of another learner", method: http.MethodPost, path: submitPath(attemptID), token: otherToken,
			body: services.SubmitAnswersRequest{}, want: http.StatusNotFound},
		{name: "results of another learner", method: http.MethodGet, path: resultsPath(attemptID), token: otherToken, want: http.StatusNotFound},
		{name: "missing attempt", method: http.MethodGet, path: resultsPath(attemptID + 100), token: studentToken, want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.token, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", w.Code, tt.want, w.Body.String())
			}
		})
	}

	// past the 30 minute limit
	s.clock.now = s.clock.now.Add(31 * time.Minute)
	w = s.do(t, http.MethodPost, submitPath(attemptID), studentToken, correctAnswers(assessment))
	expectStatus(t, w, http.StatusGone)
}

func TestHandleServiceError(t *testing.T) {
	h := NewBaseHandler(utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: services.ValidationErrors{{Field: "answers", Rule: "max"}}, want: http.StatusBadRequest},
		{name: "not eligible", err: services.NewNotEligibleError(services.ReasonNotEnrolled), want: http.StatusUnprocessableEntity},
		{name: "time expired", err: services.ErrAttemptTimeExpired, want: http.StatusGone},
		{name: "wrapped not found", err: fmt.Errorf("load: %w", services.ErrAttemptNotFound), want: http.StatusNotFound},
		{name: "not active", err: services.ErrAttemptNotActive, want: http.StatusConflict},
		{name: "not completed", err: services.ErrAttemptNotCompleted, want: http.StatusConflict},
		{name: "unmapped", err: errors.New("connection reset"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			h.handleServiceError(c, tt.err)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestStaffExport(t *testing.T) {
	s := newTestServer(t)
	assessment := s.seedQuiz(t)

	w := s.do(t, http.MethodPost, startPath(assessment.ID), studentToken, nil)
	expectStatus(t, w, http.StatusCreated)
	var started services.StartAttemptResponse
	decode(t, w, &started)
	w = s.do(t, http.MethodPost, submitPath(started.Attempt.ID), studentToken, correctAnswers(assessment))
	expectStatus(t, w, http.StatusOK)

	path := fmt.Sprintf("/api/v1/staff/assessments/%d/results/export", assessment.ID)

	w = s.do(t, http.MethodGet, path, studentToken, nil)
	expectStatus(t, w, http.StatusForbidden)

	w = s.do(t, http.MethodGet, path, teacherToken, nil)
	expectStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != services.XLSXContentType {
		t.Errorf("Content-Type = %q", ct)
	}

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/v1/staff/assessments/%d/results/export", assessment.ID+100), teacherToken, nil)
	expectStatus(t, w, http.StatusNotFound)
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	expectStatus(t, w, http.StatusOK)

	var body map[string]string
	decode(t, w, &body)
	if body["status"] != "healthy" {
		t.Errorf("status = %q", body["status"])
	}
}
