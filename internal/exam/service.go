package exam

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ValidationError rejects a confirmation attempt before anything is
// persisted. Index is the offending question's position, -1 for test-level
// problems.
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return "invalid test: " + e.Reason
	}
	return fmt.Sprintf("invalid question %d: %s", e.Index+1, e.Reason)
}

// EventSink receives domain events (confirmations, generations). A nil
// sink is allowed and ignored.
type EventSink interface {
	Record(ctx context.Context, typ, key, dataJSON string) error
}

// Service owns test confirmation and variant generation. Regenerate for a
// given test is serialized against any other generation on the same test
// via a per-test lock, so delete-then-recreate can never interleave.
type Service struct {
	store  Store
	gen    *Generator
	events EventSink

	mu    sync.Mutex
	locks map[string]*testLock
}

// testLock is one per-test mutex plus a waiter count, so entries can be
// dropped from the map once nobody holds or wants them.
type testLock struct {
	mu   sync.Mutex
	refs int
}

func NewService(store Store, gen *Generator, events EventSink) *Service {
	if gen == nil {
		gen = NewGenerator()
	}
	return &Service{store: store, gen: gen, events: events, locks: map[string]*testLock{}}
}

// ConfirmTest freezes reviewed draft questions into a canonical test.
// Every question must have its review flag cleared, at least two options
// and exactly one correct option; otherwise a ValidationError is returned
// and nothing is written.
func (s *Service) ConfirmTest(ctx context.Context, title string, questions []Question) (Test, error) {
	if len(questions) == 0 {
		return Test{}, &ValidationError{Index: -1, Reason: "no questions"}
	}
	for i, q := range questions {
		if q.NeedsReview {
			return Test{}, &ValidationError{Index: i, Reason: "still flagged for review"}
		}
		if len(q.Options) < 2 {
			return Test{}, &ValidationError{Index: i, Reason: "fewer than two options"}
		}
		correct := 0
		for _, o := range q.Options {
			if o.Correct {
				correct++
			}
		}
		if correct != 1 {
			return Test{}, &ValidationError{Index: i, Reason: fmt.Sprintf("%d options marked correct, want exactly 1", correct)}
		}
		if q.Points <= 0 {
			questions[i].Points = 1
		}
	}
	t := Test{
		ID:        "test-" + uuid.NewString(),
		Title:     title,
		Questions: questions,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.store.PutTest(ctx, t); err != nil {
		return Test{}, err
	}
	s.record(ctx, "TestConfirmed", t.ID, map[string]any{"questions": len(t.Questions)})
	return t, nil
}

// GenerateVariants issues one fresh variant per recipient, on top of any
// variants the test already has. Codes stay unique across old and new.
func (s *Service) GenerateVariants(ctx context.Context, testID string, recipients []string) ([]Variant, error) {
	unlock := s.lockTest(testID)
	defer unlock()

	t, taken, err := s.loadForGenerate(ctx, testID, recipients)
	if err != nil {
		return nil, err
	}
	vs, err := s.generate(ctx, t, recipients, taken)
	if err != nil {
		return nil, err
	}
	s.record(ctx, "VariantsGenerated", testID, map[string]any{"count": len(vs)})
	return vs, nil
}

// RegenerateVariants drops every existing variant of the test and issues a
// fresh batch. The returned replaced count surfaces how many previously
// printed sheets this invalidates. The replaced codes are collected before
// the delete and stay in the taken set, so no new code can ever equal one
// from the batch it replaces.
func (s *Service) RegenerateVariants(ctx context.Context, testID string, recipients []string) (vs []Variant, replaced int, err error) {
	unlock := s.lockTest(testID)
	defer unlock()

	t, taken, err := s.loadForGenerate(ctx, testID, recipients)
	if err != nil {
		return nil, 0, err
	}
	replaced, err = s.store.DeleteVariantsByTest(ctx, testID)
	if err != nil {
		return nil, 0, err
	}
	vs, err = s.generate(ctx, t, recipients, taken)
	if err != nil {
		return nil, replaced, err
	}
	s.record(ctx, "VariantsRegenerated", testID, map[string]any{"count": len(vs), "replaced": replaced})
	return vs, replaced, nil
}

// loadForGenerate fetches the test and the codes already issued for it.
func (s *Service) loadForGenerate(ctx context.Context, testID string, recipients []string) (Test, map[string]bool, error) {
	t, err := s.store.GetTest(ctx, testID)
	if err != nil {
		return Test{}, nil, err
	}
	if len(recipients) == 0 {
		return Test{}, nil, ErrNoRecipients
	}
	existing, err := s.store.ListVariants(ctx, testID)
	if err != nil {
		return Test{}, nil, err
	}
	taken := make(map[string]bool, len(existing))
	for _, v := range existing {
		taken[v.Code] = true
	}
	return t, taken, nil
}

func (s *Service) generate(ctx context.Context, t Test, recipients []string, taken map[string]bool) ([]Variant, error) {
	vs, err := s.gen.Generate(t, recipients, taken)
	if err != nil {
		return nil, err
	}
	for _, v := range vs {
		if err := s.store.PutVariant(ctx, v); err != nil {
			return nil, err
		}
	}
	return vs, nil
}

func (s *Service) GetTest(ctx context.Context, id string) (Test, error) {
	return s.store.GetTest(ctx, id)
}

func (s *Service) ListTests(ctx context.Context) ([]TestSummary, error) {
	return s.store.ListTests(ctx)
}

func (s *Service) ListVariants(ctx context.Context, testID string) ([]Variant, error) {
	return s.store.ListVariants(ctx, testID)
}

func (s *Service) GetVariantByCode(ctx context.Context, code string) (Variant, error) {
	return s.store.GetVariantByCode(ctx, code)
}

// lockTest serializes generation work per test ID. The returned func
// releases the lock and drops the map entry once no goroutine wants it, so
// the map does not grow with every test ID ever seen.
func (s *Service) lockTest(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &testLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

func (s *Service) record(ctx context.Context, typ, key string, data map[string]any) {
	if s.events == nil {
		return
	}
	buf, _ := json.Marshal(data)
	_ = s.events.Record(ctx, typ, key, string(buf))
}
