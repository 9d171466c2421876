package assess

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coursebuilder/assess/internal/audit"
	"github.com/coursebuilder/assess/internal/grading"
)

// View is the student-safe projection of an assessment.
type View struct {
	ID        string                 `json:"id"`
	Title     string                 `json:"title"`
	Kind      string                 `json:"kind"`
	Questions []grading.QuestionView `json:"questions"`
}

// Service parses stored configurations, grades submissions server-side and
// records graded submissions. The audit log is optional (nil in dev mode).
type Service struct {
	store  Store
	engine *grading.Engine
	events *audit.Log
}

func NewService(store Store, engine *grading.Engine, events *audit.Log) *Service {
	return &Service{store: store, engine: engine, events: events}
}

// Put validates and stores an assessment configuration. A config that fails to
// parse (bad regex, unknown matcher, malformed entry) is rejected here, at
// authoring time.
func (s *Service) Put(ctx context.Context, a Assessment) error {
	if a.ID == "" {
		return fmt.Errorf("assessment id required")
	}
	if a.Kind == "" {
		a.Kind = KindGraded
	}
	if a.Kind != KindPractice && a.Kind != KindGraded {
		return fmt.Errorf("unknown assessment kind %q", a.Kind)
	}
	if _, err := grading.ParseQuestionSet(a.Questions); err != nil {
		return err
	}
	if err := s.store.PutAssessment(ctx, a); err != nil {
		return err
	}
	if s.events != nil {
		_ = s.events.Append(ctx, audit.Event{Type: audit.TypeAssessmentPut, Key: a.ID})
	}
	return nil
}

// View loads an assessment for delivery to a student, with answer material
// stripped.
func (s *Service) View(ctx context.Context, id string) (View, error) {
	a, err := s.store.GetAssessment(ctx, id)
	if err != nil {
		return View{}, err
	}
	set, err := grading.ParseQuestionSet(a.Questions)
	if err != nil {
		return View{}, fmt.Errorf("stored config for %s: %w", id, err)
	}
	return View{ID: a.ID, Title: a.Title, Kind: a.Kind, Questions: set.Views()}, nil
}

// Kind reports an assessment's kind without loading a parsed question set.
func (s *Service) Kind(ctx context.Context, id string) (string, error) {
	a, err := s.store.GetAssessment(ctx, id)
	if err != nil {
		return "", err
	}
	return a.Kind, nil
}

// Grade runs one grading pass without recording anything. This backs the
// "Check Answer" path on practice pages.
func (s *Service) Grade(ctx context.Context, id string, responses grading.ResponseSet) (grading.PageResult, error) {
	a, err := s.store.GetAssessment(ctx, id)
	if err != nil {
		return grading.PageResult{}, err
	}
	set, err := grading.ParseQuestionSet(a.Questions)
	if err != nil {
		return grading.PageResult{}, fmt.Errorf("stored config for %s: %w", id, err)
	}
	return s.engine.GradePage(set, responses), nil
}

// Submit grades and records a final submission, appending an audit event.
func (s *Service) Submit(ctx context.Context, id, userID string, responses grading.ResponseSet) (Submission, grading.PageResult, error) {
	result, err := s.Grade(ctx, id, responses)
	if err != nil {
		return Submission{}, grading.PageResult{}, err
	}
	report, err := json.Marshal(result)
	if err != nil {
		return Submission{}, grading.PageResult{}, err
	}
	sub := Submission{
		ID:           uuid.NewString(),
		AssessmentID: id,
		UserID:       userID,
		Score:        result.RawScore,
		TotalWeight:  result.TotalWeight,
		Percent:      result.PercentScore,
		Report:       report,
		SubmittedAt:  time.Now().Unix(),
	}
	if err := s.store.PutSubmission(ctx, sub); err != nil {
		return Submission{}, grading.PageResult{}, err
	}
	if s.events != nil {
		_ = s.events.Append(ctx, audit.Event{
			Type:     audit.TypeSubmissionGraded,
			Key:      sub.ID,
			DataJSON: string(report),
		})
	}
	return sub, result, nil
}

// ListSubmissions passes through to the store for teacher dashboards.
func (s *Service) ListSubmissions(ctx context.Context, opts ListOpts) ([]Submission, error) {
	return s.store.ListSubmissions(ctx, opts)
}

// GetSubmission passes through to the store.
func (s *Service) GetSubmission(ctx context.Context, id string) (Submission, error) {
	return s.store.GetSubmission(ctx, id)
}

// ListAssessments passes through to the store.
func (s *Service) ListAssessments(ctx context.Context, limit, offset int) ([]Assessment, error) {
	return s.store.ListAssessments(ctx, limit, offset)
}
