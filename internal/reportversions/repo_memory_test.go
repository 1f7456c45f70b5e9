package reportversions

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryRepoListByDossier(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, v := range []ReportVersion{
		{ID: "a", UserID: "u", DossierID: "d1", CreatedAt: base},
		{ID: "b", UserID: "u", DossierID: "d1", CreatedAt: base.Add(time.Minute)},
		{ID: "c", UserID: "u", DossierID: "d2", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "d", UserID: "other", DossierID: "d1", CreatedAt: base.Add(3 * time.Minute)},
	} {
		if err := repo.Create(ctx, v); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	got, err := repo.ListByDossier(ctx, "u", "d1", 0, 0)
	if err != nil {
		t.Fatalf("ListByDossier: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("unexpected order: %+v", got)
	}

	page, err := repo.ListByDossier(ctx, "u", "d1", 1, 1)
	if err != nil {
		t.Fatalf("ListByDossier page: %v", err)
	}
	if len(page) != 1 || page[0].ID != "a" {
		t.Fatalf("unexpected page: %+v", page)
	}

	empty, err := repo.ListByDossier(ctx, "u", "d1", 10, 5)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty page, got %+v err=%v", empty, err)
	}
}

func TestMemoryRepoGetByID(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	if err := repo.Create(ctx, ReportVersion{ID: "v", UserID: "owner"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := repo.GetByID(ctx, "owner", "v"); err != nil {
		t.Fatalf("GetByID owner: %v", err)
	}
	if _, err := repo.GetByID(ctx, "someone", "v"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := repo.GetByID(ctx, "owner", "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
