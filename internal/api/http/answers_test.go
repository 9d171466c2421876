package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coursebuilder/assess/internal/assess"
	authmw "github.com/coursebuilder/assess/internal/auth/middleware"
	"github.com/coursebuilder/assess/internal/grading"
	"github.com/coursebuilder/assess/internal/rbac"
)

func testService(t *testing.T, kind string) *assess.Service {
	t.Helper()
	svc := assess.NewService(assess.NewInMemoryStore(), grading.NewEngine(), nil)
	err := svc.Put(context.Background(), assess.Assessment{
		ID:   "mid",
		Kind: kind,
		Questions: []byte(`{
			"q1": {"choices":[{"score":1,"feedback":"yes"},{"score":0,"feedback":"no"}]},
			"q2": {"graders":[{"matcher":"numeric","response":"3.00","score":"1.0"}]}
		}`),
	})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	return svc
}

func newTestRouter(pattern string, h http.HandlerFunc) *chi.Mux {
	mux := chi.NewRouter()
	mux.Get(pattern, h)
	return mux
}

func postAnswer(t *testing.T, h http.HandlerFunc, sub string, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	buf, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/answer", bytes.NewReader(buf))
	ctx := authmw.WithSubject(req.Context(), sub)
	ctx = rbac.WithRole(ctx, "student")
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (int, string, map[string]interface{}) {
	t.Helper()
	body := w.Body.String()
	if !strings.HasPrefix(body, ")]}'\n") {
		t.Fatalf("missing XSSI prefix: %q", body)
	}
	var env struct {
		Status  int                    `json:"status"`
		Message string                 `json:"message"`
		Payload map[string]interface{} `json:"payload"`
	}
	if err := json.Unmarshal([]byte(strings.TrimPrefix(body, ")]}'\n")), &env); err != nil {
		t.Fatalf("envelope json: %v", err)
	}
	return env.Status, env.Message, env.Payload
}

func TestAnswerHandlerGradedRecordsSubmission(t *testing.T) {
	svc := testService(t, assess.KindGraded)
	authSvc := authmw.NewAuthService("test-secret", time.Hour)
	xsrf, err := authSvc.IssueXSRF("student-1")
	if err != nil {
		t.Fatal(err)
	}

	w := postAnswer(t, AnswerHandler(svc, authSvc), "student-1", map[string]interface{}{
		"assessment_type": "mid",
		"answers": map[string]interface{}{
			"q1": map[string]interface{}{"checked": []int{0}},
			"q2": map[string]interface{}{"text": "3"},
		},
		"xsrf_token": xsrf,
	})
	status, _, payload := decodeEnvelope(t, w)
	if status != 200 || w.Code != 200 {
		t.Fatalf("status = %d/%d, want 200", status, w.Code)
	}
	if payload["percentScore"].(float64) < 99.9 {
		t.Errorf("percent = %v, want 100", payload["percentScore"])
	}
	if payload["submission_id"] == "" || payload["submission_id"] == nil {
		t.Error("graded assessment should return a submission id")
	}

	subs, err := svc.ListSubmissions(context.Background(), assess.ListOpts{AssessmentID: "mid"})
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 1 || subs[0].UserID != "student-1" {
		t.Errorf("submissions = %+v, want one by student-1", subs)
	}
}

func TestAnswerHandlerPracticeDoesNotRecord(t *testing.T) {
	svc := testService(t, assess.KindPractice)
	authSvc := authmw.NewAuthService("test-secret", time.Hour)
	xsrf, _ := authSvc.IssueXSRF("student-1")

	w := postAnswer(t, AnswerHandler(svc, authSvc), "student-1", map[string]interface{}{
		"assessment_type": "mid",
		"answers":         map[string]interface{}{"q1": map[string]interface{}{"checked": []int{1}}},
		"xsrf_token":      xsrf,
	})
	status, _, payload := decodeEnvelope(t, w)
	if status != 200 {
		t.Fatalf("status = %d, want 200", status)
	}
	if _, ok := payload["submission_id"]; ok {
		t.Error("practice grading should not produce a submission id")
	}
	subs, _ := svc.ListSubmissions(context.Background(), assess.ListOpts{})
	if len(subs) != 0 {
		t.Errorf("practice grading recorded %d submissions", len(subs))
	}
}

func TestAnswerHandlerRejectsBadXSRF(t *testing.T) {
	svc := testService(t, assess.KindGraded)
	authSvc := authmw.NewAuthService("test-secret", time.Hour)

	// token bound to a different subject
	other, _ := authSvc.IssueXSRF("someone-else")
	w := postAnswer(t, AnswerHandler(svc, authSvc), "student-1", map[string]interface{}{
		"assessment_type": "mid",
		"answers":         map[string]interface{}{},
		"xsrf_token":      other,
	})
	status, msg, _ := decodeEnvelope(t, w)
	if status != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", status)
	}
	if msg == "" {
		t.Error("expected a user-visible message")
	}
	if subs, _ := svc.ListSubmissions(context.Background(), assess.ListOpts{}); len(subs) != 0 {
		t.Error("rejected submission must not be recorded")
	}
}

func TestAnswerHandlerUnknownAssessment(t *testing.T) {
	svc := testService(t, assess.KindGraded)
	authSvc := authmw.NewAuthService("test-secret", time.Hour)
	xsrf, _ := authSvc.IssueXSRF("student-1")

	w := postAnswer(t, AnswerHandler(svc, authSvc), "student-1", map[string]interface{}{
		"assessment_type": "nope",
		"answers":         map[string]interface{}{},
		"xsrf_token":      xsrf,
	})
	status, msg, _ := decodeEnvelope(t, w)
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}
	if msg != "Unknown assessment." {
		t.Errorf("message = %q, want a user-facing one", msg)
	}
}

func TestListSubmissionsHandlerNegativeOffset(t *testing.T) {
	svc := testService(t, assess.KindGraded)
	if _, _, err := svc.Submit(context.Background(), "mid", "student-1", grading.ResponseSet{}); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/submissions?offset=-1", nil)
	ctx := authmw.WithSubject(req.Context(), "student-1")
	ctx = rbac.WithRole(ctx, "student")
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()
	ListSubmissionsHandler(svc)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var subs []assess.Submission
	if err := json.Unmarshal(w.Body.Bytes(), &subs); err != nil {
		t.Fatalf("body: %v", err)
	}
	if len(subs) != 1 {
		t.Errorf("got %d submissions, want 1", len(subs))
	}
}

func TestGetAssessmentHandlerStripsAnswers(t *testing.T) {
	svc := testService(t, assess.KindGraded)
	r := httptest.NewRequest("GET", "/assessments/mid", nil)
	w := httptest.NewRecorder()

	// route through chi so URLParam resolves
	h := GetAssessmentHandler(svc)
	mux := newTestRouter("/assessments/{assessmentID}", h)
	mux.ServeHTTP(w, r)

	if w.Code != 200 {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, leak := range []string{"graders", "3.00", `"score"`, "feedback"} {
		if strings.Contains(body, leak) {
			t.Errorf("student view leaks %q: %s", leak, body)
		}
	}
}
