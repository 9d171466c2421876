package grading

import (
	"reflect"
	"testing"
)

func pageFixture(t *testing.T) *QuestionSet {
	t.Helper()
	set, err := ParseQuestionSet([]byte(`{
		"q1": {"weight":2, "choices":[{"score":1,"feedback":"yes"},{"score":0,"feedback":"no"}]},
		"q2": {"graders":[{"matcher":"numeric","response":"42","score":1}], "defaultFeedback":"nope"},
		"q3": {"questions":[
			{"id":"q3.a","choices":[{"score":1}]},
			{"id":"q3.b","choices":[{"score":1}]}
		], "weights":{"q3.a":10,"q3.b":15}}
	}`))
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return set
}

func TestGradePageAllCorrect(t *testing.T) {
	e := NewEngine()
	rs := ResponseSet{
		"q1":   {Checked: []int{0}},
		"q2":   {Text: "42"},
		"q3.a": {Checked: []int{0}},
		"q3.b": {Checked: []int{0}},
	}
	got := e.GradePage(pageFixture(t), rs)

	// q1: 2*1, q2: 1*1, q3: 25 points * score 1
	if !approx(got.RawScore, 28) {
		t.Errorf("raw score = %v, want 28", got.RawScore)
	}
	if !approx(got.TotalWeight, 28) {
		t.Errorf("total weight = %v, want 28", got.TotalWeight)
	}
	if !approx(got.PercentScore, 100) {
		t.Errorf("percent = %v, want 100", got.PercentScore)
	}
}

func TestGradePageGroupContributesEarnedPoints(t *testing.T) {
	e := NewEngine()
	rs := ResponseSet{
		"q1":   {Checked: []int{1}}, // wrong
		"q2":   {Text: "41"},       // wrong
		"q3.a": {Checked: nil},     // 0 of 10
		"q3.b": {Checked: []int{0}}, // 15 of 15
	}
	got := e.GradePage(pageFixture(t), rs)
	// group score 0.6 * 25 points = 15 earned
	if !approx(got.RawScore, 15) {
		t.Errorf("raw score = %v, want 15", got.RawScore)
	}
	if !approx(got.PercentScore, 100*15.0/28.0) {
		t.Errorf("percent = %v, want %v", got.PercentScore, 100*15.0/28.0)
	}

	var groupItem QuestionScore
	for _, it := range got.Items {
		if it.ID == "q3" {
			groupItem = it
		}
	}
	if groupItem.Kind != KindGroup || !approx(groupItem.Weight, 25) || !approx(groupItem.Score, 0.6) {
		t.Errorf("group item = %+v, want weight 25 score 0.6", groupItem)
	}
}

func TestGradePageEmptySet(t *testing.T) {
	e := NewEngine()
	set, err := ParseQuestionSet([]byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	got := e.GradePage(set, ResponseSet{})
	if got.RawScore != 0 || got.TotalWeight != 0 {
		t.Errorf("empty page = %+v, want zero totals", got)
	}
	if got.PercentScore != 0 {
		t.Errorf("percent = %v, want 0 (no NaN)", got.PercentScore)
	}
}

func TestGradePageAnswersRecord(t *testing.T) {
	e := NewEngine()
	rs := ResponseSet{
		"q1":   {Checked: []int{0}},
		"q2":   {Text: "42"},
		"q3.a": {Checked: []int{0}},
	}
	got := e.GradePage(pageFixture(t), rs)
	if !reflect.DeepEqual(got.Answers["q1"], []int{0}) {
		t.Errorf("q1 answer = %v, want [0]", got.Answers["q1"])
	}
	if got.Answers["q2"] != "42" {
		t.Errorf("q2 answer = %v, want raw text", got.Answers["q2"])
	}
	grp, ok := got.Answers["q3"].(map[string]interface{})
	if !ok {
		t.Fatalf("q3 answer is %T, want per-sub map", got.Answers["q3"])
	}
	if !reflect.DeepEqual(grp["q3.a"], []int{0}) {
		t.Errorf("q3.a answer = %v, want [0]", grp["q3.a"])
	}
}

func TestViewsStripAnswerMaterial(t *testing.T) {
	views := pageFixture(t).Views()
	if len(views) != 3 {
		t.Fatalf("got %d views, want 3", len(views))
	}
	for _, v := range views {
		if v.ID == "q1" {
			if v.NumChoices != 2 {
				t.Errorf("q1 view choices = %d, want 2", v.NumChoices)
			}
			if v.Weight != 2 {
				t.Errorf("q1 view weight = %v, want 2", v.Weight)
			}
		}
		if v.ID == "q3" && len(v.Questions) != 2 {
			t.Errorf("q3 view has %d subs, want 2", len(v.Questions))
		}
	}
}
