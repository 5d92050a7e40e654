package exam

import (
	"math/rand/v2"
	"regexp"
	"sort"
	"sync"
	"testing"
)

func testRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func sampleTest(nq, nopts int) Test {
	t := Test{ID: "test-1", Title: "Sample"}
	for i := 0; i < nq; i++ {
		q := Question{Body: "question " + Letter(i%26), Points: 1}
		for j := 0; j < nopts; j++ {
			q.Options = append(q.Options, Option{Content: Letter(i%26) + "-opt-" + Letter(j)})
		}
		q.Options[i%nopts].Correct = true
		t.Questions = append(t.Questions, q)
	}
	return t
}

func TestFisherYatesIsPermutation(t *testing.T) {
	rng := testRNG(1)
	for _, n := range []int{0, 1, 2, 5, 17} {
		p := fisherYates(rng, n)
		if len(p) != n {
			t.Fatalf("len = %d, want %d", len(p), n)
		}
		seen := map[int]bool{}
		for _, v := range p {
			if v < 0 || v >= n || seen[v] {
				t.Fatalf("not a permutation of [0,%d): %v", n, p)
			}
			seen[v] = true
		}
	}
}

// Known-permutation scenario: options [3 4 5 6], correct index 1, option
// permutation [2 0 3 1]. The shuffled list must read [5 3 6 4], and the
// correct letter becomes D with content "4".
func TestApplyOptionPermKnownMapping(t *testing.T) {
	q := Question{
		Body: "2+2=?",
		Options: []Option{
			{Content: "3"}, {Content: "4", Correct: true}, {Content: "5"}, {Content: "6"},
		},
		Points: 1,
	}
	got := applyOptionPerm(q, []int{2, 0, 3, 1})

	wantOrder := []string{"5", "3", "6", "4"}
	for i, w := range wantOrder {
		if got.Options[i].Content != w {
			t.Fatalf("position %d = %q, want %q", i, got.Options[i].Content, w)
		}
	}
	if got.CorrectLetter() != "D" {
		t.Fatalf("correct letter = %q, want D", got.CorrectLetter())
	}
	if got.Options[got.CorrectIndex()].Content != "4" {
		t.Fatalf("correct content = %q, want 4", got.Options[got.CorrectIndex()].Content)
	}
	// Source question untouched.
	if q.CorrectIndex() != 1 {
		t.Fatalf("original mutated: correct = %d", q.CorrectIndex())
	}
}

func TestGeneratePreservesContentAndCorrectness(t *testing.T) {
	src := sampleTest(7, 4)
	gen := newGenerator(testRNG(42))
	vs, err := gen.Generate(src, []string{"r1", "r2", "r3", "r4"}, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(vs) != 4 {
		t.Fatalf("got %d variants", len(vs))
	}
	for _, v := range vs {
		if len(v.QuestionPerm) != len(src.Questions) || len(v.Questions) != len(src.Questions) {
			t.Fatalf("variant %s wrong size", v.Code)
		}
		for pos, orig := range v.QuestionPerm {
			sq := v.Questions[pos]
			oq := src.Questions[orig]

			// Multiset of option contents is preserved.
			a := contents(sq.Options)
			b := contents(oq.Options)
			sort.Strings(a)
			sort.Strings(b)
			if len(a) != len(b) {
				t.Fatalf("option count changed: %v vs %v", a, b)
			}
			for i := range a {
				if a[i] != b[i] {
					t.Fatalf("option contents changed: %v vs %v", a, b)
				}
			}

			// Exactly one correct, and it is the same content as before.
			n := 0
			for _, o := range sq.Options {
				if o.Correct {
					n++
				}
			}
			if n != 1 {
				t.Fatalf("%d options marked correct", n)
			}
			if sq.Options[sq.CorrectIndex()].Content != oq.Options[oq.CorrectIndex()].Content {
				t.Fatalf("correct content drifted: %q vs %q",
					sq.Options[sq.CorrectIndex()].Content, oq.Options[oq.CorrectIndex()].Content)
			}
		}
	}
}

func TestGenerateDrawsIndependentPermutations(t *testing.T) {
	src := sampleTest(10, 4)
	gen := newGenerator(testRNG(7))
	vs, err := gen.Generate(src, []string{"r1", "r2", "r3"}, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// With 10 questions, three identical question permutations would be a
	// 1 in (10!)^2 coincidence. Treat equality as a sharing bug.
	same := func(a, b []int) bool {
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}
	if same(vs[0].QuestionPerm, vs[1].QuestionPerm) && same(vs[1].QuestionPerm, vs[2].QuestionPerm) {
		t.Fatalf("question permutations identical across recipients")
	}
}

func TestCodesUniqueAndWellFormed(t *testing.T) {
	src := sampleTest(3, 4)
	gen := newGenerator(testRNG(3))
	recipients := make([]string, 50)
	for i := range recipients {
		recipients[i] = Letter(i%26) + "-r"
	}
	taken := map[string]bool{}
	vs, err := gen.Generate(src, recipients, taken)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	codeRe := regexp.MustCompile(`^[0-9A-F]{6}$`)
	seen := map[string]bool{}
	for _, v := range vs {
		if !codeRe.MatchString(v.Code) {
			t.Fatalf("bad code %q", v.Code)
		}
		if seen[v.Code] {
			t.Fatalf("duplicate code %q", v.Code)
		}
		seen[v.Code] = true
	}
	if len(taken) != len(vs) {
		t.Fatalf("taken set not maintained: %d vs %d", len(taken), len(vs))
	}
}

// One Generator is shared by the service across all requests, and requests
// for different tests are not serialized against each other. Exercise that
// path from several goroutines; under -race this fails if the RNG state is
// touched without the generator's lock.
func TestGenerateConcurrentUse(t *testing.T) {
	gen := newGenerator(testRNG(9))
	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			src := sampleTest(5, 4)
			src.ID = "test-" + Letter(w)
			for i := 0; i < 20; i++ {
				vs, err := gen.Generate(src, []string{"r1", "r2"}, map[string]bool{})
				if err != nil {
					errs <- err
					return
				}
				for _, v := range vs {
					seen := map[int]bool{}
					for _, p := range v.QuestionPerm {
						if p < 0 || p >= len(src.Questions) || seen[p] {
							t.Errorf("corrupt permutation %v", v.QuestionPerm)
							return
						}
						seen[p] = true
					}
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("generate: %v", err)
	}
}

func TestGenerateRejectsEmptyRecipients(t *testing.T) {
	gen := newGenerator(testRNG(1))
	if _, err := gen.Generate(sampleTest(2, 4), nil, nil); err != ErrNoRecipients {
		t.Fatalf("err = %v, want ErrNoRecipients", err)
	}
}

func contents(opts []Option) []string {
	out := make([]string, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.Content)
	}
	return out
}
