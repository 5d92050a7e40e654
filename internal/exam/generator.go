package exam

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultCodeLen is the length of a printed variant code.
	DefaultCodeLen = 6
	// codeAttempts bounds the retry loop when a freshly drawn code
	// collides with one already issued for the same test.
	codeAttempts = 10
)

// ErrCodeExhausted is returned when codeAttempts draws in a row collided.
// With a 6-char hex code this only happens when the code space is nearly
// full for one test.
var ErrCodeExhausted = fmt.Errorf("could not draw a unique variant code in %d attempts", codeAttempts)

// Generator builds randomized per-recipient variants of a test. Question
// order and, within every question, option order are shuffled with
// independent Fisher-Yates draws per recipient; the option that was correct
// keeps its correct flag wherever it lands. Safe for concurrent use: the
// underlying rand.Rand is not, so mu serializes every draw.
type Generator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	codeLen int
}

func NewGenerator() *Generator {
	return newGenerator(rand.New(rand.NewPCG(rand.Uint64(), uint64(time.Now().UnixNano()))))
}

func newGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng, codeLen: DefaultCodeLen}
}

// Generate produces one variant per recipient. taken holds codes already
// issued for this test; codes drawn here are added to it, so codes are
// unique across the whole batch plus whatever existed before.
func (g *Generator) Generate(t Test, recipients []string, taken map[string]bool) ([]Variant, error) {
	if len(recipients) == 0 {
		return nil, ErrNoRecipients
	}
	if taken == nil {
		taken = map[string]bool{}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	now := time.Now().Unix()
	out := make([]Variant, 0, len(recipients))
	for _, rcpt := range recipients {
		code, err := g.newCode(taken)
		if err != nil {
			return nil, err
		}
		qperm := fisherYates(g.rng, len(t.Questions))
		shuffled := make([]Question, len(t.Questions))
		for pos, orig := range qperm {
			shuffled[pos] = g.shuffleOptions(t.Questions[orig])
		}
		out = append(out, Variant{
			ID:           "variant-" + uuid.NewString(),
			TestID:       t.ID,
			RecipientID:  rcpt,
			Code:         code,
			QuestionPerm: qperm,
			Questions:    shuffled,
			CreatedAt:    now,
		})
	}
	return out, nil
}

// shuffleOptions returns a deep copy of q with options in a fresh random
// order. Copying whole Option values moves the correct flag together with
// its content, so the correct answer stays the same content at a new
// position (and therefore a new derived letter).
func (g *Generator) shuffleOptions(q Question) Question {
	perm := fisherYates(g.rng, len(q.Options))
	return applyOptionPerm(q, perm)
}

// applyOptionPerm places original option perm[i] at position i.
func applyOptionPerm(q Question, perm []int) Question {
	opts := make([]Option, len(perm))
	for pos, orig := range perm {
		opts[pos] = q.Options[orig]
	}
	out := q
	out.Options = opts
	return out
}

// fisherYates draws a uniform random permutation of [0, n).
func fisherYates(rng *rand.Rand, n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		p[i], p[j] = p[j], p[i]
	}
	return p
}

// newCode draws a short printable code: the leading hex of a random UUID,
// uppercased. Retries on collision against taken, bounded by codeAttempts.
func (g *Generator) newCode(taken map[string]bool) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		raw := strings.ReplaceAll(uuid.NewString(), "-", "")
		code := strings.ToUpper(raw[:g.codeLen])
		if taken[code] {
			continue
		}
		taken[code] = true
		return code, nil
	}
	return "", ErrCodeExhausted
}
