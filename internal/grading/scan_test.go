package grading

import (
	"testing"

	"github.com/examforge/examforge/internal/exam"
)

func scanVariant() exam.Variant {
	return exam.Variant{
		Code:         "AB12CD",
		QuestionPerm: []int{1, 0},
		Questions: []exam.Question{
			{
				Body:   "Capital of France?",
				Points: 2,
				Options: []exam.Option{
					{Content: "Rome"}, {Content: "Paris", Correct: true}, {Content: "London"},
				},
			},
			{
				Body:   "2+2=?",
				Points: 1,
				Options: []exam.Option{
					{Content: "5"}, {Content: "3"}, {Content: "6"}, {Content: "4", Correct: true},
				},
			},
		},
	}
}

func TestGradeScanUsesVariantOrder(t *testing.T) {
	v := scanVariant()
	// Sheet position 1 is the shuffled first question: correct letter B.
	// Position 2: correct letter D.
	res, err := GradeScan(v, []string{"b", "D"})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if res.Correct != 2 || res.Score != 3 || res.MaxScore != 3 {
		t.Fatalf("res = %+v", res)
	}
	if res.Items[0].CorrectLetter != "B" || res.Items[1].CorrectLetter != "D" {
		t.Fatalf("letters derived from the wrong order: %+v", res.Items)
	}
}

func TestGradeScanWrongAndBlank(t *testing.T) {
	res, err := GradeScan(scanVariant(), []string{"A", ""})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if res.Answered != 1 || res.Correct != 0 || res.Score != 0 {
		t.Fatalf("res = %+v", res)
	}
	if res.Total != 2 {
		t.Fatalf("total = %d", res.Total)
	}
}

func TestGradeScanShortSheet(t *testing.T) {
	res, err := GradeScan(scanVariant(), []string{"B"})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if res.Score != 2 || res.Answered != 1 || len(res.Items) != 2 {
		t.Fatalf("res = %+v", res)
	}
}

func TestGradeScanTooManyAnswers(t *testing.T) {
	if _, err := GradeScan(scanVariant(), []string{"A", "B", "C"}); err == nil {
		t.Fatalf("expected error for oversized sheet")
	}
}
