// Package structurer segments math-protected text into draft questions.
// Boundary tokens are deliberately simple — an integer or a single capital
// letter followed by a closing delimiter at a word edge — because every
// hostile bracket and digit inside math notation has already been absorbed
// into opaque placeholders by mathguard.
package structurer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/examforge/examforge/internal/exam"
	"github.com/examforge/examforge/internal/mathguard"
)

// DefaultMaxLabel bounds plausible question labels. Larger integers in the
// text are treated as prose, not question starts.
const DefaultMaxLabel = 100

var (
	// A question label: 1-3 digits plus . or ), at start of text or after
	// whitespace (or a transient marker), and not running into more
	// digits, so "3.14" in prose stays prose.
	questionRe = regexp.MustCompile(`(?:^|[\s` + mathguard.EmphOpen + mathguard.Pad + `])(\d{1,3})([\.\)])(?:[^0-9]|$)`)

	// An option label: one capital letter plus . or ) at a word edge. The
	// optional emphasis-close marker handles sources that bolded only the
	// letter itself.
	optionRe = regexp.MustCompile(`(?:^|[\s` + mathguard.EmphOpen + mathguard.Pad + `])([A-H])` + mathguard.EmphClose + `?([\.\)])`)

	// A trailing answer key such as "Correct: B" at the end of a block.
	answerKeyRe = regexp.MustCompile(`(?i)\b(?:correct(?:\s+answer)?|answer|key)\s*[:\-]?\s*\(?([A-H])\)?\s*\.?\s*$`)
)

type token struct {
	start, end int // start of the match region, end of the delimiter
	label      int // question label value
	letter     string
}

// Structurer turns protected text into draft questions. The zero value is
// not usable; call New.
type Structurer struct {
	maxLabel int
}

func New(maxLabel int) *Structurer {
	if maxLabel <= 0 {
		maxLabel = DefaultMaxLabel
	}
	return &Structurer{maxLabel: maxLabel}
}

// Structure slices protectedText into draft questions. Placeholder tokens
// stay embedded in bodies and options; the import pipeline restores them.
// Blocks that cannot be structured are still emitted, flagged NeedsReview,
// so a reviewer sees every failure instead of silently losing content.
func (s *Structurer) Structure(protectedText string) []exam.Question {
	toks := s.questionTokens(protectedText)

	var out []exam.Question
	for i, tok := range toks {
		end := len(protectedText)
		if i+1 < len(toks) {
			end = toks[i+1].start
		}
		out = append(out, s.buildQuestion(protectedText[tok.end:end]))
	}
	return out
}

// questionTokens finds question boundaries in document order. A label's
// value is not its position: authors renumber and repeat labels, so only
// the order of appearance is authoritative.
func (s *Structurer) questionTokens(text string) []token {
	var toks []token
	for _, m := range questionRe.FindAllStringSubmatchIndex(text, -1) {
		label, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil || label < 1 || label > s.maxLabel {
			continue
		}
		toks = append(toks, token{start: m[0], end: m[5], label: label})
	}
	return toks
}

func (s *Structurer) buildQuestion(block string) exam.Question {
	block = strings.TrimSpace(block)

	keyLetter := ""
	if m := answerKeyRe.FindStringSubmatch(block); m != nil {
		keyLetter = strings.ToUpper(m[1])
		block = strings.TrimSpace(answerKeyRe.ReplaceAllString(block, ""))
	}

	var opts []token
	for _, m := range optionRe.FindAllStringSubmatchIndex(block, -1) {
		opts = append(opts, token{start: m[0], end: m[5], letter: block[m[2]:m[3]]})
	}

	q := exam.Question{Points: 1}
	if len(opts) < 2 {
		// Unusable as multiple-choice; keep the whole block visible for
		// review rather than dropping it.
		q.Body = clean(block)
		q.NeedsReview = true
		return q
	}

	q.Body = clean(block[:opts[0].start])

	var marked []int
	for i, ot := range opts {
		end := len(block)
		if i+1 < len(opts) {
			end = opts[i+1].start
		}
		seg := block[ot.start:end]
		emphasized := strings.Contains(seg, mathguard.EmphOpen) || strings.Contains(seg, mathguard.EmphClose)
		if emphasized || exam.Letter(i) == keyLetter || ot.letter == keyLetter {
			marked = append(marked, i)
		}
		q.Options = append(q.Options, exam.Option{Content: clean(block[ot.end:end])})
	}

	switch len(marked) {
	case 1:
		q.Options[marked[0]].Correct = true
	case 0:
		// No correctness signal at all: default to the first option but
		// force a human decision.
		q.Options[0].Correct = true
		q.NeedsReview = true
	default:
		// Ambiguous source. Keep the first marked option, surface the rest.
		q.Options[marked[0]].Correct = true
		q.NeedsReview = true
	}
	return q
}

// clean collapses runs of whitespace. Math content is immune: it is hidden
// inside space-free placeholder tokens at this point.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
