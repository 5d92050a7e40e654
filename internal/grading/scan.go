// Package grading scores a scanned answer sheet against one variant.
// Every comparison runs against the variant's own shuffled option order —
// grading a sheet against the original test order would silently break
// every non-identity permutation.
package grading

import (
	"fmt"
	"strings"

	"github.com/examforge/examforge/internal/exam"
)

// Item is the outcome for one sheet position.
type Item struct {
	Position      int    `json:"position"` // 1-based, sheet order
	Given         string `json:"given"`
	CorrectLetter string `json:"correct_letter"`
	Correct       bool   `json:"correct"`
	Points        int    `json:"points"`
}

type Result struct {
	Code      string `json:"code"`
	Total     int    `json:"total"`
	Answered  int    `json:"answered"`
	Correct   int    `json:"correct"`
	Score     int    `json:"score"`
	MaxScore  int    `json:"max_score"`
	Items     []Item `json:"items"`
}

// GradeScan compares submitted letters position by position. answers may
// be shorter than the variant (blank trailing questions); it must not be
// longer. Empty strings mean "no mark detected".
func GradeScan(v exam.Variant, answers []string) (Result, error) {
	if len(answers) > len(v.Questions) {
		return Result{}, fmt.Errorf("got %d answers for %d questions", len(answers), len(v.Questions))
	}
	res := Result{Code: v.Code, Total: len(v.Questions)}
	for i, q := range v.Questions {
		it := Item{Position: i + 1, CorrectLetter: q.CorrectLetter()}
		if i < len(answers) {
			it.Given = strings.ToUpper(strings.TrimSpace(answers[i]))
		}
		if it.Given != "" {
			res.Answered++
		}
		if it.Given != "" && it.Given == it.CorrectLetter {
			it.Correct = true
			it.Points = q.Points
			res.Correct++
			res.Score += q.Points
		}
		res.MaxScore += q.Points
		res.Items = append(res.Items, it)
	}
	return res, nil
}
