package grading

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind discriminates the question union. It is decided once, when the
// configuration is parsed, from which fields the entry carries.
type Kind string

const (
	KindMultipleChoice Kind = "multiple_choice"
	KindShortAnswer    Kind = "short_answer"
	KindGroup          Kind = "group"
)

// Choice is one multiple-choice option. Score may be negative in authored
// content (distractor penalty); clamping happens after summation.
type Choice struct {
	Score    float64
	Feedback string
}

// Rule is one short-answer grader rule with its matcher already compiled.
type Rule struct {
	Matcher  Matcher
	Score    float64
	Feedback string
}

// Question is the parsed form of one configuration entry. Exactly one of
// Choices, Rules or Subs is populated, per Kind.
type Question struct {
	ID     string
	Kind   Kind
	Weight float64
	Hint   string

	// multiple choice
	Choices      []Choice
	AllOrNothing bool

	// short answer
	Rules           []Rule
	DefaultFeedback string

	// group; sub-question weights live on the subs themselves
	Subs []*Question
}

// QuestionSet is every question on one page, ordered by id for deterministic
// reports (the browser keys entries by DOM id, which carries no order).
type QuestionSet struct {
	Questions []*Question
	byID      map[string]*Question
}

// Lookup returns the top-level question with the given id.
func (s *QuestionSet) Lookup(id string) (*Question, bool) {
	q, ok := s.byID[id]
	return q, ok
}

// Wire format, as delivered by the authoring side. Score and weight fields may
// be JSON numbers or numeric strings.
type choiceConfig struct {
	Score    json.RawMessage `json:"score"`
	Feedback string          `json:"feedback,omitempty"`
}

type graderConfig struct {
	Matcher  string          `json:"matcher"`
	Response string          `json:"response"`
	Score    json.RawMessage `json:"score"`
	Feedback string          `json:"feedback,omitempty"`
}

type questionConfig struct {
	ID              string                     `json:"id,omitempty"`
	Weight          json.RawMessage            `json:"weight,omitempty"`
	Hint            string                     `json:"hint,omitempty"`
	Choices         []choiceConfig             `json:"choices,omitempty"`
	AllOrNothing    bool                       `json:"allOrNothing,omitempty"`
	Graders         []graderConfig             `json:"graders,omitempty"`
	DefaultFeedback string                     `json:"defaultFeedback,omitempty"`
	Questions       []questionConfig           `json:"questions,omitempty"`
	Weights         map[string]json.RawMessage `json:"weights,omitempty"`
}

// ParseQuestionSet decodes a page's question configuration: a JSON object
// keyed by question id. Matcher compilation errors and shape errors (an entry
// that is both multiple-choice and short-answer, a nested group) fail here.
func ParseQuestionSet(raw []byte) (*QuestionSet, error) {
	var entries map[string]questionConfig
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("question config: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	set := &QuestionSet{byID: make(map[string]*Question, len(entries))}
	for _, id := range ids {
		qc := entries[id]
		qc.ID = id
		q, err := parseQuestion(qc, true)
		if err != nil {
			return nil, err
		}
		set.Questions = append(set.Questions, q)
		set.byID[id] = q
	}
	return set, nil
}

func parseQuestion(qc questionConfig, allowGroup bool) (*Question, error) {
	kind, err := detectKind(qc)
	if err != nil {
		return nil, fmt.Errorf("question %q: %w", qc.ID, err)
	}
	q := &Question{
		ID:     qc.ID,
		Kind:   kind,
		Weight: numberOr(qc.Weight, 1.0),
		Hint:   qc.Hint,
	}
	switch kind {
	case KindMultipleChoice:
		q.AllOrNothing = qc.AllOrNothing
		for _, cc := range qc.Choices {
			q.Choices = append(q.Choices, Choice{
				Score:    numberOr(cc.Score, 0),
				Feedback: cc.Feedback,
			})
		}
	case KindShortAnswer:
		q.DefaultFeedback = qc.DefaultFeedback
		for i, gc := range qc.Graders {
			m, err := NewMatcher(gc.Matcher, gc.Response)
			if err != nil {
				return nil, fmt.Errorf("question %q grader %d: %w", qc.ID, i, err)
			}
			q.Rules = append(q.Rules, Rule{
				Matcher:  m,
				Score:    numberOr(gc.Score, 0),
				Feedback: gc.Feedback,
			})
		}
	case KindGroup:
		if !allowGroup {
			return nil, fmt.Errorf("question %q: groups cannot nest", qc.ID)
		}
		for i, sc := range qc.Questions {
			if sc.ID == "" {
				return nil, fmt.Errorf("group %q: sub-question %d has no id", qc.ID, i)
			}
			sub, err := parseQuestion(sc, false)
			if err != nil {
				return nil, err
			}
			// a weight in the group's shared map overrides the entry's own
			if w, ok := qc.Weights[sc.ID]; ok {
				sub.Weight = numberOr(w, 1.0)
			}
			q.Subs = append(q.Subs, sub)
		}
	}
	return q, nil
}

func detectKind(qc questionConfig) (Kind, error) {
	var kinds []Kind
	if len(qc.Choices) > 0 {
		kinds = append(kinds, KindMultipleChoice)
	}
	if len(qc.Graders) > 0 {
		kinds = append(kinds, KindShortAnswer)
	}
	if len(qc.Questions) > 0 {
		kinds = append(kinds, KindGroup)
	}
	switch len(kinds) {
	case 1:
		return kinds[0], nil
	case 0:
		return "", fmt.Errorf("entry has none of choices, graders, questions")
	default:
		return "", fmt.Errorf("entry mixes %v", kinds)
	}
}

// numberOr reads a JSON number or numeric string, falling back to def when the
// field is absent or not numeric. Negative values pass through unchecked.
func numberOr(raw json.RawMessage, def float64) float64 {
	if len(raw) == 0 {
		return def
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, ok := toNumber(s); ok {
			return v
		}
	}
	return def
}
