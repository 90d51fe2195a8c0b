package repo

import (
	"context"
	"testing"

	"github.com/tbourn/go-demonlist-backend/internal/domain"
	"github.com/tbourn/go-demonlist-backend/internal/pagination"
)

func TestGetDemonByName_FoundAndNotFound(t *testing.T) {
	db := newTestDB(t, &domain.Demon{})

	if _, err := GetDemonByName(db, "Bloodbath"); err == nil {
		t.Fatalf("expected ErrNotFound for missing demon")
	}

	if err := db.Create(&domain.Demon{Name: "Bloodbath", Position: 1, Requirement: 78}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := GetDemonByName(db, "Bloodbath")
	if err != nil {
		t.Fatalf("GetDemonByName: %v", err)
	}
	if got.Position != 1 || got.Requirement != 78 {
		t.Fatalf("unexpected demon: %+v", got)
	}
}

func TestGetDemon_FoundAndNotFound(t *testing.T) {
	db := newTestDB(t, &domain.Demon{})

	if _, err := GetDemon(context.Background(), db, 9); err == nil {
		t.Fatalf("expected ErrNotFound for missing demon")
	}

	d := domain.Demon{Name: "Cataclysm", Position: 2, Requirement: 70}
	if err := db.Create(&d).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := GetDemon(context.Background(), db, d.ID)
	if err != nil {
		t.Fatalf("GetDemon: %v", err)
	}
	if got.Name != "Cataclysm" {
		t.Fatalf("unexpected demon: %+v", got)
	}
}

func TestDemonSource_ScanByPosition(t *testing.T) {
	db := newTestDB(t, &domain.Demon{})

	for _, d := range []domain.Demon{
		{Name: "Bloodbath", Position: 1, Requirement: 78},
		{Name: "Cataclysm", Position: 2, Requirement: 70},
		{Name: "Sonic Wave", Position: 3, Requirement: 60},
	} {
		if err := db.Create(&d).Error; err != nil {
			t.Fatalf("seed %s: %v", d.Name, err)
		}
	}

	ctx := context.Background()

	src := DemonSource{DB: db}
	got, err := src.Scan(ctx, pagination.Bounds{}, 10, false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 3 || got[0].Position != 1 || got[2].Position != 3 {
		t.Fatalf("unexpected order: %+v", got)
	}
	if src.Key(got[2]) != 3 {
		t.Fatalf("Key should return the position")
	}

	// Requirement range filter.
	lt := 75
	src = DemonSource{DB: db, Filter: DemonFilter{RequirementLT: &lt}}
	got, err = src.Scan(ctx, pagination.Bounds{}, 10, false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Cataclysm" {
		t.Fatalf("requirement filter unexpected: %+v", got)
	}

	// Cursor bounds apply to position, and descending reverses the scan.
	before := 3
	src = DemonSource{DB: db}
	got, err = src.Scan(ctx, pagination.Bounds{Before: &before}, 10, true)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 2 || got[0].Position != 2 || got[1].Position != 1 {
		t.Fatalf("descending bounded scan unexpected: %+v", got)
	}
}

func TestDemonsExtrema_UsesPositions(t *testing.T) {
	db := newTestDB(t, &domain.Demon{})

	for _, d := range []domain.Demon{
		{Name: "A", Position: 5, Requirement: 100},
		{Name: "B", Position: 9, Requirement: 100},
	} {
		if err := db.Create(&d).Error; err != nil {
			t.Fatalf("seed %s: %v", d.Name, err)
		}
	}

	ext, err := DemonsExtrema(context.Background(), db)
	if err != nil {
		t.Fatalf("DemonsExtrema: %v", err)
	}
	if ext.Empty || ext.Min != 5 || ext.Max != 9 {
		t.Fatalf("unexpected extrema: %+v", ext)
	}
}
