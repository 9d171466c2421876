package assess

import "encoding/json"

// Assessment kinds. Practice pages grade without recording; graded pages
// record a Submission on final submit.
const (
	KindPractice = "practice"
	KindGraded   = "graded"
)

type Assessment struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Kind  string `json:"kind"`

	// Questions is the page's question configuration: a JSON object keyed by
	// question id, in the wire format internal/grading parses.
	Questions json.RawMessage `json:"questions"`

	CreatedAt int64 `json:"created_at,omitempty"`
}

// Submission is the recorded outcome of one graded submit: the aggregate
// scores plus the full per-question report for audit.
type Submission struct {
	ID           string          `json:"id"`
	AssessmentID string          `json:"assessment_id"`
	UserID       string          `json:"user_id"`
	Score        float64         `json:"score"`        // raw points earned
	TotalWeight  float64         `json:"total_weight"` // raw points possible
	Percent      float64         `json:"percent"`
	Report       json.RawMessage `json:"report"` // serialized grading.PageResult
	SubmittedAt  int64           `json:"submitted_at"`
}
