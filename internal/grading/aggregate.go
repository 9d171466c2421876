package grading

// QuestionScore is one top-level question's line in the page report. For a
// group, Weight is the group's total point value and Score its renormalized
// [0,1] average, so Weight*Score is the points earned.
type QuestionScore struct {
	ID       string   `json:"id"`
	Kind     Kind     `json:"kind"`
	Weight   float64  `json:"weight"`
	Score    float64  `json:"score"`
	Feedback []string `json:"feedback,omitempty"`
}

// PageResult is the lesson/assessment-level aggregate handed to the
// submission endpoint.
type PageResult struct {
	RawScore     float64                `json:"rawScore"`
	TotalWeight  float64                `json:"totalWeight"`
	PercentScore float64                `json:"percentScore"`
	Items        []QuestionScore        `json:"items"`
	Answers      map[string]interface{} `json:"answers"`
}

// GradePage grades every top-level question on a page and sums weighted
// scores into a raw total, total weight and percentage.
func (e *Engine) GradePage(set *QuestionSet, rs ResponseSet) PageResult {
	p := PageResult{
		Items:   make([]QuestionScore, 0, len(set.Questions)),
		Answers: make(map[string]interface{}, len(set.Questions)),
	}
	for _, q := range set.Questions {
		var item QuestionScore
		switch q.Kind {
		case KindGroup:
			g := e.GradeGroup(q, rs)
			item = QuestionScore{ID: q.ID, Kind: q.Kind, Weight: g.TotalPoints, Score: g.Score}
			p.Answers[q.ID] = g.Answer
		default:
			r := e.GradeQuestion(q, rs)
			item = QuestionScore{ID: q.ID, Kind: q.Kind, Weight: q.Weight, Score: r.Score, Feedback: r.Feedback}
			p.Answers[q.ID] = r.Answer
		}
		p.RawScore += item.Weight * item.Score
		p.TotalWeight += item.Weight
		p.Items = append(p.Items, item)
	}
	p.PercentScore = 100 * p.RawScore / (p.TotalWeight + epsilon)
	return p
}

// QuestionView is the student-safe projection of a question: everything the
// page needs to render, nothing that gives the answer away.
type QuestionView struct {
	ID         string  `json:"id"`
	Kind       Kind    `json:"kind"`
	Weight     float64 `json:"weight"`
	Hint       string  `json:"hint,omitempty"`
	NumChoices int     `json:"num_choices,omitempty"`

	Questions []QuestionView `json:"questions,omitempty"`
}

// Views projects the set for delivery to students, stripping choice scores,
// grader rules and all feedback.
func (s *QuestionSet) Views() []QuestionView {
	out := make([]QuestionView, 0, len(s.Questions))
	for _, q := range s.Questions {
		out = append(out, viewOf(q))
	}
	return out
}

func viewOf(q *Question) QuestionView {
	v := QuestionView{
		ID:         q.ID,
		Kind:       q.Kind,
		Weight:     q.Weight,
		Hint:       q.Hint,
		NumChoices: len(q.Choices),
	}
	for _, sub := range q.Subs {
		v.Questions = append(v.Questions, viewOf(sub))
	}
	return v
}
