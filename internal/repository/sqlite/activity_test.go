package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/pin-admin/internal/apperror"
	"github.com/sakif/pin-admin/internal/model"
	"github.com/sakif/pin-admin/internal/repository"
)

// newTestDB opens a fresh in-memory database that is closed when the test
// ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func record(t *testing.T, db *DB, a model.Activity) model.Activity {
	t.Helper()
	if err := db.Record(context.Background(), &a); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	return a
}

// =========================================================================
// RECORD
// =========================================================================

func TestRecord_FillsDefaults(t *testing.T) {
	db := newTestDB(t)
	a := record(t, db, model.Activity{Admin: "root@x.io", Action: "delete", Entity: "tag", EntityID: "4"})

	if a.ID == "" {
		t.Error("Record() did not assign an ID")
	}
	if a.CreatedAt.IsZero() {
		t.Error("Record() did not set CreatedAt")
	}
	if a.Outcome != model.OutcomeSuccess {
		t.Errorf("Outcome = %q, want %q", a.Outcome, model.OutcomeSuccess)
	}
}

func TestRecord_RequiresActionAndEntity(t *testing.T) {
	db := newTestDB(t)
	err := db.Record(context.Background(), &model.Activity{Entity: "tag"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Record() error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// LIST
// =========================================================================

func TestList_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	record(t, db, model.Activity{Action: "create", Entity: "tag", CreatedAt: base})
	record(t, db, model.Activity{Action: "update", Entity: "tag", CreatedAt: base.Add(time.Hour)})
	record(t, db, model.Activity{Action: "delete", Entity: "tag", Outcome: model.OutcomeFailure, Detail: "boom", CreatedAt: base.Add(2 * time.Hour)})

	got, err := db.List(context.Background(), repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() returned %d entries, want 3", len(got))
	}
	if got[0].Action != "delete" || got[2].Action != "create" {
		t.Errorf("List() order = %s,%s,%s", got[0].Action, got[1].Action, got[2].Action)
	}
	if got[0].Outcome != model.OutcomeFailure || got[0].Detail != "boom" {
		t.Errorf("List()[0] = %+v", got[0])
	}
	if !got[2].CreatedAt.Equal(base) {
		t.Errorf("CreatedAt = %v, want %v", got[2].CreatedAt, base)
	}
}

func TestList_LimitOffset(t *testing.T) {
	db := newTestDB(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		record(t, db, model.Activity{Action: "create", Entity: "keyword", EntityID: string(rune('a' + i)), CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}

	got, err := db.List(context.Background(), repository.ListOptions{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 || got[0].EntityID != "d" || got[1].EntityID != "c" {
		t.Errorf("List(limit 2, offset 1) = %+v", got)
	}
}

func TestList_Empty(t *testing.T) {
	db := newTestDB(t)
	got, err := db.List(context.Background(), repository.ListOptions{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List() = %v, want empty", got)
	}
}

// =========================================================================
// PRUNE
// =========================================================================

func TestPrune(t *testing.T) {
	db := newTestDB(t)
	cut := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	record(t, db, model.Activity{Action: "create", Entity: "tag", CreatedAt: cut.Add(-time.Hour)})
	record(t, db, model.Activity{Action: "create", Entity: "tag", CreatedAt: cut.Add(time.Hour)})

	n, err := db.Prune(context.Background(), cut)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}
	got, _ := db.List(context.Background(), repository.ListOptions{})
	if len(got) != 1 {
		t.Errorf("after Prune, %d entries remain, want 1", len(got))
	}
}
