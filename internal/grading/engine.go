package grading

import "strings"

// Response is a snapshot of one question's form state, captured by the page
// before grading. Checked indices apply to multiple choice, Text to short
// answer. Group sub-question responses live in the same ResponseSet under
// their own ids.
type Response struct {
	Checked []int  `json:"checked,omitempty"`
	Text    string `json:"text,omitempty"`
}

// ResponseSet maps question id to its recorded response. A missing entry
// grades the same as an empty one.
type ResponseSet map[string]Response

// Result is the grade of a single multiple-choice or short-answer question.
// Score is always in [0,1]. Answer echoes the recorded response: the checked
// indices in choice order, or the raw text.
type Result struct {
	Score    float64     `json:"score"`
	Feedback []string    `json:"feedback"`
	Answer   interface{} `json:"answer"`
}

// SubScore is one group member's contribution, kept for audit and analytics.
type SubScore struct {
	ID     string  `json:"id"`
	Kind   Kind    `json:"kind"`
	Weight float64 `json:"weight"`
	Score  float64 `json:"score"`
}

// GroupResult is the grade of a question group. Score is the weighted average
// renormalized into [0,1]; TotalPoints is the sum of raw sub-question weights,
// used for display and as the group's weight in the page total. Feedback
// mirrors sub-question order and is never flattened.
type GroupResult struct {
	Score       float64                `json:"score"`
	TotalPoints float64                `json:"totalPoints"`
	Feedback    [][]string             `json:"feedback"`
	Items       []SubScore             `json:"items"`
	Answer      map[string]interface{} `json:"answer"`
}

// epsilon pads weight denominators so empty or zero-weighted groups grade to 0
// instead of NaN.
const epsilon = 1e-12

// Engine holds the per-page grading configuration. Construct one per page (or
// per request) and pass it around; there is no package-level state.
type Engine struct {
	cutoff float64
	trim   bool
}

type Option func(*Engine)

// WithAllOrNothingCutoff sets the fraction-correct at which an all-or-nothing
// multiple-choice question flips from 0 to 1.
func WithAllOrNothingCutoff(c float64) Option { return func(e *Engine) { e.cutoff = c } }

// WithResponseTrimming controls whether short-answer responses are
// whitespace-trimmed before matching.
func WithResponseTrimming(b bool) Option { return func(e *Engine) { e.trim = b } }

func NewEngine(opts ...Option) *Engine {
	e := &Engine{cutoff: 0.99, trim: true}
	for _, o := range opts {
		o(e)
	}
	return e
}

// GradeQuestion grades one multiple-choice or short-answer question against
// the page's response snapshot. Use GradeGroup for groups.
func (e *Engine) GradeQuestion(q *Question, rs ResponseSet) Result {
	r := rs[q.ID]
	switch q.Kind {
	case KindShortAnswer:
		return e.gradeShortAnswer(q, r)
	default:
		return e.gradeMultipleChoice(q, r)
	}
}

func (e *Engine) gradeMultipleChoice(q *Question, r Response) Result {
	checked := make(map[int]bool, len(r.Checked))
	for _, i := range r.Checked {
		if i >= 0 && i < len(q.Choices) {
			checked[i] = true
		}
	}

	score := 0.0
	answer := make([]int, 0, len(checked))
	feedback := make([]string, 0, len(checked))
	for i, c := range q.Choices {
		if !checked[i] {
			continue
		}
		answer = append(answer, i)
		score += c.Score
		if c.Feedback != "" {
			feedback = append(feedback, c.Feedback)
		}
	}

	score = clamp01(score)
	if q.AllOrNothing {
		if score >= e.cutoff {
			score = 1
		} else {
			score = 0
		}
	}
	return Result{Score: score, Feedback: feedback, Answer: answer}
}

func (e *Engine) gradeShortAnswer(q *Question, r Response) Result {
	text := r.Text
	if e.trim {
		text = strings.TrimSpace(text)
	}
	for _, rule := range q.Rules {
		if rule.Matcher.Matches(text) {
			return Result{
				Score:    clamp01(rule.Score),
				Feedback: feedbackList(rule.Feedback),
				Answer:   r.Text,
			}
		}
	}
	return Result{Score: 0, Feedback: feedbackList(q.DefaultFeedback), Answer: r.Text}
}

// GradeGroup grades every sub-question and renormalizes the weighted sum by
// the group's total point value.
func (e *Engine) GradeGroup(q *Question, rs ResponseSet) GroupResult {
	g := GroupResult{
		Feedback: make([][]string, 0, len(q.Subs)),
		Items:    make([]SubScore, 0, len(q.Subs)),
		Answer:   make(map[string]interface{}, len(q.Subs)),
	}
	weighted := 0.0
	for _, sub := range q.Subs {
		res := e.GradeQuestion(sub, rs)
		weighted += sub.Weight * res.Score
		g.TotalPoints += sub.Weight
		g.Feedback = append(g.Feedback, res.Feedback)
		g.Items = append(g.Items, SubScore{ID: sub.ID, Kind: sub.Kind, Weight: sub.Weight, Score: res.Score})
		g.Answer[sub.ID] = res.Answer
	}
	g.Score = weighted / (g.TotalPoints + epsilon)
	return g
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func feedbackList(s string) []string {
	if s == "" {
		return []string{}
	}
	return []string{s}
}
