package exam

// Option is one answer choice. The display letter (A, B, C, ...) is never
// stored; it is derived from the option's position in its parent list.
type Option struct {
	Content string `json:"content"`
	Correct bool   `json:"is_correct"`
}

// Question is a single multiple-choice question. NeedsReview marks drafts
// the structurer could not resolve on its own (missing options, zero or
// ambiguous correctness markers); such questions cannot enter a Test.
type Question struct {
	Body        string   `json:"body"`
	Options     []Option `json:"options"`
	Points      int      `json:"points"`
	NeedsReview bool     `json:"needs_review,omitempty"`
}

// CorrectIndex returns the position of the correct option, or -1.
func (q Question) CorrectIndex() int {
	for i, o := range q.Options {
		if o.Correct {
			return i
		}
	}
	return -1
}

// CorrectLetter returns the derived letter of the correct option, or "".
func (q Question) CorrectLetter() string {
	i := q.CorrectIndex()
	if i < 0 {
		return ""
	}
	return Letter(i)
}

// Letter derives the display letter for an option position.
func Letter(pos int) string {
	if pos < 0 || pos > 25 {
		return ""
	}
	return string(rune('A' + pos))
}

// Test is a confirmed, canonical question list. Once variants have been
// generated from it, editing the Test does not touch those variants: every
// Variant carries its own materialized copy of the questions.
type Test struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
	CreatedAt int64      `json:"created_at,omitempty"`
}

// Variant is one recipient's frozen, randomized copy of a Test. Questions
// holds fully shuffled questions (question order and per-question option
// order), QuestionPerm records which original question each position came
// from, and Code is the sole lookup key used by scanning/grading.
type Variant struct {
	ID           string     `json:"id"`
	TestID       string     `json:"test_id"`
	RecipientID  string     `json:"recipient_id"`
	Code         string     `json:"code"`
	QuestionPerm []int      `json:"question_perm"`
	Questions    []Question `json:"questions"`
	CreatedAt    int64      `json:"created_at,omitempty"`
}
