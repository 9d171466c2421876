package assess

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// memoryStore backs dev mode and tests.
type memoryStore struct {
	mu          sync.RWMutex
	assessments map[string]Assessment
	submissions map[string]Submission
}

func NewInMemoryStore() Store {
	return &memoryStore{
		assessments: map[string]Assessment{},
		submissions: map[string]Submission{},
	}
}

func (m *memoryStore) PutAssessment(_ context.Context, a Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assessments[a.ID] = a
	return nil
}

func (m *memoryStore) GetAssessment(_ context.Context, id string) (Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assessments[id]
	if !ok {
		return Assessment{}, fmt.Errorf("assessment %s: %w", id, ErrNotFound)
	}
	return a, nil
}

func (m *memoryStore) ListAssessments(_ context.Context, limit, offset int) ([]Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Assessment, 0, len(m.assessments))
	for _, a := range m.assessments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, limit, offset), nil
}

func (m *memoryStore) PutSubmission(_ context.Context, s Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions[s.ID] = s
	return nil
}

func (m *memoryStore) GetSubmission(_ context.Context, id string) (Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.submissions[id]
	if !ok {
		return Submission{}, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	return s, nil
}

func (m *memoryStore) ListSubmissions(_ context.Context, opts ListOpts) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Submission, 0, len(m.submissions))
	for _, s := range m.submissions {
		if opts.AssessmentID != "" && s.AssessmentID != opts.AssessmentID {
			continue
		}
		if opts.UserID != "" && s.UserID != opts.UserID {
			continue
		}
		out = append(out, s)
	}
	// newest first, id as tiebreaker for stable paging
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt != out[j].SubmittedAt {
			return out[i].SubmittedAt > out[j].SubmittedAt
		}
		return out[i].ID < out[j].ID
	})
	return window(out, opts.Limit, opts.Offset), nil
}

func window[T any](in []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(in) {
		return []T{}
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
