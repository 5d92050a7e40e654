package exam_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/examforge/examforge/internal/db"
	"github.com/examforge/examforge/internal/exam"

	_ "modernc.org/sqlite" // driver for "sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	h, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	h.SetMaxOpenConns(1) // one in-memory database, one connection
	t.Cleanup(func() { h.Close() })
	if err := db.EnsureSchema(context.Background(), h, db.DriverSQLite); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return h
}

func TestSQLStoreTests(t *testing.T) {
	store := exam.NewSQLStore(openTestDB(t))
	ctx := context.Background()

	if _, err := store.GetTest(ctx, "test-1"); !errors.Is(err, exam.ErrTestNotFound) {
		t.Fatalf("err = %v, want ErrTestNotFound", err)
	}

	tt := exam.Test{
		ID:    "test-1",
		Title: "Arithmetic",
		Questions: []exam.Question{{
			Body:   "2+2=?",
			Points: 1,
			Options: []exam.Option{
				{Content: "3"}, {Content: "4", Correct: true},
			},
		}},
		CreatedAt: 1700000000,
	}
	if err := store.PutTest(ctx, tt); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.GetTest(ctx, "test-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != tt.Title || len(got.Questions) != 1 || got.Questions[0].CorrectIndex() != 1 {
		t.Fatalf("round trip mangled test: %+v", got)
	}

	sums, err := store.ListTests(ctx)
	if err != nil || len(sums) != 1 || sums[0].Questions != 1 {
		t.Fatalf("list: %+v err=%v", sums, err)
	}
}

func TestSQLStoreVariants(t *testing.T) {
	store := exam.NewSQLStore(openTestDB(t))
	ctx := context.Background()

	tt := exam.Test{ID: "test-1", Title: "T", Questions: []exam.Question{{
		Body: "q", Points: 1,
		Options: []exam.Option{{Content: "a", Correct: true}, {Content: "b"}},
	}}, CreatedAt: 1}
	if err := store.PutTest(ctx, tt); err != nil {
		t.Fatalf("put test: %v", err)
	}

	v := exam.Variant{
		ID: "variant-1", TestID: "test-1", RecipientID: "alice", Code: "AAAAAA",
		QuestionPerm: []int{0},
		Questions:    tt.Questions,
		CreatedAt:    2,
	}
	if err := store.PutVariant(ctx, v); err != nil {
		t.Fatalf("put variant: %v", err)
	}

	dup := v
	dup.ID = "variant-2"
	dup.RecipientID = "bob"
	if err := store.PutVariant(ctx, dup); !errors.Is(err, exam.ErrDuplicateCode) {
		t.Fatalf("err = %v, want ErrDuplicateCode", err)
	}

	got, err := store.GetVariantByCode(ctx, "AAAAAA")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if got.RecipientID != "alice" || len(got.QuestionPerm) != 1 || len(got.Questions) != 1 {
		t.Fatalf("round trip mangled variant: %+v", got)
	}

	dup.Code = "BBBBBB"
	if err := store.PutVariant(ctx, dup); err != nil {
		t.Fatalf("put second variant: %v", err)
	}
	vs, err := store.ListVariants(ctx, "test-1")
	if err != nil || len(vs) != 2 {
		t.Fatalf("list = %d, err=%v", len(vs), err)
	}

	n, err := store.DeleteVariantsByTest(ctx, "test-1")
	if err != nil || n != 2 {
		t.Fatalf("delete = %d, err=%v", n, err)
	}
	if _, err := store.GetVariantByCode(ctx, "AAAAAA"); !errors.Is(err, exam.ErrVariantNotFound) {
		t.Fatalf("err = %v, want ErrVariantNotFound", err)
	}
}
