package assess

import (
	"context"
	"errors"
)

// ErrNotFound is returned by store lookups for a missing assessment or
// submission. Callers test with errors.Is to tell a miss from a store
// failure.
var ErrNotFound = errors.New("not found")

type ListOpts struct {
	AssessmentID string
	UserID       string
	Limit        int
	Offset       int
}

type Store interface {
	PutAssessment(ctx context.Context, a Assessment) error
	// GetAssessment returns the full configuration, answer material included.
	// Callers serving students go through Service.View instead.
	GetAssessment(ctx context.Context, id string) (Assessment, error)
	ListAssessments(ctx context.Context, limit, offset int) ([]Assessment, error)

	PutSubmission(ctx context.Context, s Submission) error
	GetSubmission(ctx context.Context, id string) (Submission, error)
	ListSubmissions(ctx context.Context, opts ListOpts) ([]Submission, error)
}
