package exam

import (
	"context"
	"errors"
)

var (
	ErrTestNotFound    = errors.New("test not found")
	ErrVariantNotFound = errors.New("variant not found")
	ErrDuplicateCode   = errors.New("variant code already taken")
	ErrNoRecipients    = errors.New("no recipients")
)

// Store is the persistence boundary for tests and variants. Each PutVariant
// is a single atomic write.
type Store interface {
	PutTest(ctx context.Context, t Test) error
	GetTest(ctx context.Context, id string) (Test, error)
	ListTests(ctx context.Context) ([]TestSummary, error)

	PutVariant(ctx context.Context, v Variant) error
	GetVariantByCode(ctx context.Context, code string) (Variant, error)
	ListVariants(ctx context.Context, testID string) ([]Variant, error)
	// DeleteVariantsByTest removes every variant of a test and reports how
	// many were dropped (regenerate is full-replace, never merge).
	DeleteVariantsByTest(ctx context.Context, testID string) (int, error)
}

type TestSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Questions int    `json:"questions"`
	CreatedAt int64  `json:"created_at"`
}
