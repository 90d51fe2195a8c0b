package repo

import (
	"context"
	"testing"

	"github.com/tbourn/go-demonlist-backend/internal/domain"
	"github.com/tbourn/go-demonlist-backend/internal/pagination"
)

func TestGetOrCreateSubmitter_CreatesOnceAndReuses(t *testing.T) {
	db := newTestDB(t, &domain.Submitter{})

	s1, err := GetOrCreateSubmitter(db, "203.0.113.7")
	if err != nil {
		t.Fatalf("GetOrCreateSubmitter: %v", err)
	}
	if s1.ID == 0 || s1.Banned {
		t.Fatalf("unexpected submitter: %+v", s1)
	}

	s2, err := GetOrCreateSubmitter(db, "203.0.113.7")
	if err != nil {
		t.Fatalf("GetOrCreateSubmitter (again): %v", err)
	}
	if s2.ID != s1.ID {
		t.Fatalf("expected the same row back, got %d and %d", s1.ID, s2.ID)
	}

	var total int64
	if err := db.Model(&domain.Submitter{}).Count(&total).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 submitter, got %d", total)
	}
}

func TestGetOrCreateSubmitter_Error_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if _, err := GetOrCreateSubmitter(db, "203.0.113.7"); err == nil {
		t.Fatalf("expected error when table missing")
	}
}

func TestSubmitterSource_ScanAndKey(t *testing.T) {
	db := newTestDB(t, &domain.Submitter{})

	for _, s := range []domain.Submitter{
		{IPAddress: "203.0.113.1"},
		{IPAddress: "203.0.113.2", Banned: true},
		{IPAddress: "203.0.113.3"},
	} {
		if err := db.Create(&s).Error; err != nil {
			t.Fatalf("seed %s: %v", s.IPAddress, err)
		}
	}

	ctx := context.Background()
	banned := true

	src := SubmitterSource{DB: db, Filter: SubmitterFilter{Banned: &banned}}
	got, err := src.Scan(ctx, pagination.Bounds{}, 10, false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("banned filter unexpected: %+v", got)
	}

	after := 1
	src = SubmitterSource{DB: db}
	got, err = src.Scan(ctx, pagination.Bounds{After: &after}, 10, false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 3 {
		t.Fatalf("bounded scan unexpected: %+v", got)
	}

	if src.Key(got[0]) != got[0].ID {
		t.Fatalf("Key should return the submitter id")
	}
}

func TestSubmittersExtrema(t *testing.T) {
	db := newTestDB(t, &domain.Submitter{})

	ext, err := SubmittersExtrema(context.Background(), db)
	if err != nil {
		t.Fatalf("SubmittersExtrema (empty): %v", err)
	}
	if !ext.Empty {
		t.Fatalf("expected Empty, got %+v", ext)
	}

	for _, s := range []domain.Submitter{
		{IPAddress: "203.0.113.1"},
		{IPAddress: "203.0.113.2"},
	} {
		if err := db.Create(&s).Error; err != nil {
			t.Fatalf("seed %s: %v", s.IPAddress, err)
		}
	}

	ext, err = SubmittersExtrema(context.Background(), db)
	if err != nil {
		t.Fatalf("SubmittersExtrema: %v", err)
	}
	if ext.Empty || ext.Min != 1 || ext.Max != 2 {
		t.Fatalf("unexpected extrema: %+v", ext)
	}
}
