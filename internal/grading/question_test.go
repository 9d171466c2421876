package grading

import "testing"

func TestParseQuestionSetKinds(t *testing.T) {
	raw := []byte(`{
		"mc": {"choices":[{"score":1,"feedback":"yes"},{"score":0}]},
		"sa": {"graders":[{"matcher":"case_insensitive","response":"ok","score":1}]},
		"grp": {"questions":[
			{"id":"grp.a","choices":[{"score":1}]},
			{"id":"grp.b","graders":[{"matcher":"numeric","response":"2","score":"0.5"}]}
		], "weights":{"grp.a":10,"grp.b":15}}
	}`)
	set, err := ParseQuestionSet(raw)
	if err != nil {
		t.Fatalf("ParseQuestionSet: %v", err)
	}
	if len(set.Questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(set.Questions))
	}
	mc, _ := set.Lookup("mc")
	if mc.Kind != KindMultipleChoice || len(mc.Choices) != 2 {
		t.Errorf("mc parsed as %v with %d choices", mc.Kind, len(mc.Choices))
	}
	sa, _ := set.Lookup("sa")
	if sa.Kind != KindShortAnswer || len(sa.Rules) != 1 {
		t.Errorf("sa parsed as %v with %d rules", sa.Kind, len(sa.Rules))
	}
	grp, _ := set.Lookup("grp")
	if grp.Kind != KindGroup || len(grp.Subs) != 2 {
		t.Fatalf("grp parsed as %v with %d subs", grp.Kind, len(grp.Subs))
	}
	if grp.Subs[0].Weight != 10 || grp.Subs[1].Weight != 15 {
		t.Errorf("group weights = %v/%v, want 10/15", grp.Subs[0].Weight, grp.Subs[1].Weight)
	}
}

func TestParseQuestionSetWeightNormalization(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"absent", `{"q":{"choices":[{"score":1}]}}`, 1},
		{"number", `{"q":{"weight":2.5,"choices":[{"score":1}]}}`, 2.5},
		{"numeric string", `{"q":{"weight":"3","choices":[{"score":1}]}}`, 3},
		{"non-numeric string", `{"q":{"weight":"heavy","choices":[{"score":1}]}}`, 1},
		{"null", `{"q":{"weight":null,"choices":[{"score":1}]}}`, 1},
		{"negative passes through", `{"q":{"weight":-2,"choices":[{"score":1}]}}`, -2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			set, err := ParseQuestionSet([]byte(tc.raw))
			if err != nil {
				t.Fatalf("ParseQuestionSet: %v", err)
			}
			q, _ := set.Lookup("q")
			if q.Weight != tc.want {
				t.Errorf("weight = %v, want %v", q.Weight, tc.want)
			}
		})
	}
}

func TestParseQuestionSetScoresAsStrings(t *testing.T) {
	set, err := ParseQuestionSet([]byte(`{
		"mc": {"choices":[{"score":"0.7"},{"score":"bad"}]},
		"sa": {"graders":[{"matcher":"numeric","response":"3.00","score":"1.0"}]}
	}`))
	if err != nil {
		t.Fatalf("ParseQuestionSet: %v", err)
	}
	mc, _ := set.Lookup("mc")
	if mc.Choices[0].Score != 0.7 {
		t.Errorf("string score parsed to %v, want 0.7", mc.Choices[0].Score)
	}
	if mc.Choices[1].Score != 0 {
		t.Errorf("unparsable score parsed to %v, want 0", mc.Choices[1].Score)
	}
	sa, _ := set.Lookup("sa")
	if sa.Rules[0].Score != 1.0 {
		t.Errorf("rule score = %v, want 1.0", sa.Rules[0].Score)
	}
}

func TestParseQuestionSetRejectsBadShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty entry", `{"q":{}}`},
		{"mixed fields", `{"q":{"choices":[{"score":1}],"graders":[{"matcher":"numeric","response":"1","score":1}]}}`},
		{"nested group", `{"g":{"questions":[{"id":"g2","questions":[{"id":"x","choices":[{"score":1}]}]}]}}`},
		{"sub without id", `{"g":{"questions":[{"choices":[{"score":1}]}]}}`},
		{"malformed regex", `{"q":{"graders":[{"matcher":"regex","response":"a[b","score":1}]}}`},
		{"unknown matcher", `{"q":{"graders":[{"matcher":"eq","response":"x","score":1}]}}`},
		{"not an object", `[1,2]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseQuestionSet([]byte(tc.raw)); err == nil {
				t.Errorf("expected parse error for %s", tc.raw)
			}
		})
	}
}

func TestParseQuestionSetOrderIsDeterministic(t *testing.T) {
	raw := []byte(`{"b":{"choices":[{"score":1}]},"a":{"choices":[{"score":1}]},"c":{"choices":[{"score":1}]}}`)
	set, err := ParseQuestionSet(raw)
	if err != nil {
		t.Fatal(err)
	}
	got := []string{set.Questions[0].ID, set.Questions[1].ID, set.Questions[2].ID}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}
