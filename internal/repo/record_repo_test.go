package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-demonlist-backend/internal/domain"
	"github.com/tbourn/go-demonlist-backend/internal/pagination"
)

func newRecordRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("record_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func allModels() []any {
	return []any{&domain.Demon{}, &domain.Player{}, &domain.Submitter{}, &domain.Record{}}
}

func seedPair(t *testing.T, db *gorm.DB) (playerID, demonID int) {
	t.Helper()
	p := domain.Player{Name: "Aquatias"}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed player: %v", err)
	}
	d := domain.Demon{Name: "Bloodbath", Position: 1, Requirement: 50}
	if err := db.Create(&d).Error; err != nil {
		t.Fatalf("seed demon: %v", err)
	}
	return p.ID, d.ID
}

func strptr(s string) *string { return &s }

func TestCreateRecord_Error_NoTable(t *testing.T) {
	db := newRecordRepoDB(t /* no migrations */)
	err := CreateRecord(db, &domain.Record{Progress: 60, Status: domain.StatusSubmitted})
	if err == nil {
		t.Fatalf("expected error creating without table")
	}
}

func TestCreateRecord_OmitsAssociations(t *testing.T) {
	db := newRecordRepoDB(t, allModels()...)
	pid, did := seedPair(t, db)

	// Loaded association structs must never be written back; only the
	// foreign keys count.
	r := &domain.Record{
		Progress: 60,
		Status:   domain.StatusSubmitted,
		PlayerID: pid,
		DemonID:  did,
		Player:   domain.Player{Name: "SomeoneElse"},
		Demon:    domain.Demon{Name: "NotReal", Position: 99},
	}
	if err := CreateRecord(db, r); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	if r.ID == 0 {
		t.Fatalf("expected assigned ID")
	}

	var players, demons int64
	if err := db.Model(&domain.Player{}).Count(&players).Error; err != nil {
		t.Fatalf("count players: %v", err)
	}
	if err := db.Model(&domain.Demon{}).Count(&demons).Error; err != nil {
		t.Fatalf("count demons: %v", err)
	}
	if players != 1 || demons != 1 {
		t.Fatalf("associations leaked into inserts: players=%d demons=%d", players, demons)
	}
}

func TestGetRecord_PreloadsAndNotFound(t *testing.T) {
	db := newRecordRepoDB(t, allModels()...)
	pid, did := seedPair(t, db)

	if _, err := GetRecord(context.Background(), db, 123); err == nil {
		t.Fatalf("expected ErrNotFound for missing record")
	}

	r := &domain.Record{Progress: 70, Status: domain.StatusApproved, PlayerID: pid, DemonID: did}
	if err := CreateRecord(db, r); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	got, err := GetRecord(context.Background(), db, r.ID)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.Player.Name != "Aquatias" || got.Demon.Name != "Bloodbath" {
		t.Fatalf("expected preloaded associations, got %+v", got)
	}
}

func TestDeleteRecord_SuccessAndNotFound(t *testing.T) {
	db := newRecordRepoDB(t, allModels()...)
	pid, did := seedPair(t, db)

	r := &domain.Record{Progress: 70, Status: domain.StatusSubmitted, PlayerID: pid, DemonID: did}
	if err := CreateRecord(db, r); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	if err := DeleteRecord(db, r.ID); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if err := DeleteRecord(db, r.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSaveRecord_UpdatesRowOnly(t *testing.T) {
	db := newRecordRepoDB(t, allModels()...)
	pid, did := seedPair(t, db)

	r := &domain.Record{Progress: 70, Status: domain.StatusSubmitted, PlayerID: pid, DemonID: did}
	if err := CreateRecord(db, r); err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}

	r.Progress = 85
	r.Video = strptr("https://www.youtube.com/watch?v=abc")
	r.Player.Name = "Mutated" // must not be persisted
	if err := SaveRecord(db, r); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	var got domain.Record
	if err := db.First(&got, "id = ?", r.ID).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}
	if got.Progress != 85 || got.Video == nil || *got.Video != "https://www.youtube.com/watch?v=abc" {
		t.Fatalf("save did not stick: %+v", got)
	}

	var p domain.Player
	if err := db.First(&p, "id = ?", pid).Error; err != nil {
		t.Fatalf("load player: %v", err)
	}
	if p.Name != "Aquatias" {
		t.Fatalf("player row was mutated through the association: %+v", p)
	}
}

func TestRecordsForPair_FiltersAndOrder(t *testing.T) {
	db := newRecordRepoDB(t, allModels()...)
	pid, did := seedPair(t, db)

	other := domain.Player{Name: "Other"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("seed other player: %v", err)
	}

	for i, rec := range []domain.Record{
		{Progress: 60, Status: domain.StatusSubmitted, PlayerID: pid, DemonID: did},
		{Progress: 70, Status: domain.StatusRejected, PlayerID: pid, DemonID: did},
		{Progress: 80, Status: domain.StatusSubmitted, PlayerID: other.ID, DemonID: did},
	} {
		if err := CreateRecord(db, &rec); err != nil {
			t.Fatalf("seed record %d: %v", i, err)
		}
	}

	got, err := RecordsForPair(db, pid, did)
	if err != nil {
		t.Fatalf("RecordsForPair: %v", err)
	}
	if len(got) != 2 || got[0].ID > got[1].ID {
		t.Fatalf("unexpected pair set: %+v", got)
	}
}

func TestStrongestForTriple(t *testing.T) {
	db := newRecordRepoDB(t, allModels()...)
	pid, did := seedPair(t, db)

	recs := []domain.Record{
		{Progress: 60, Status: domain.StatusSubmitted, PlayerID: pid, DemonID: did},
		{Progress: 90, Status: domain.StatusSubmitted, PlayerID: pid, DemonID: did},
		{Progress: 95, Status: domain.StatusRejected, PlayerID: pid, DemonID: did},
	}
	for i := range recs {
		if err := CreateRecord(db, &recs[i]); err != nil {
			t.Fatalf("seed record %d: %v", i, err)
		}
	}

	// Highest progress in the submitted bucket, excluding the first row.
	got, err := StrongestForTriple(db, pid, did, domain.StatusSubmitted, recs[0].ID)
	if err != nil {
		t.Fatalf("StrongestForTriple: %v", err)
	}
	if got == nil || got.ID != recs[1].ID {
		t.Fatalf("expected record %d, got %+v", recs[1].ID, got)
	}

	// Excluding the only candidate yields nil, not an error.
	got, err = StrongestForTriple(db, pid, did, domain.StatusRejected, recs[2].ID)
	if err != nil {
		t.Fatalf("StrongestForTriple (empty): %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestDeleteDominatedForPair(t *testing.T) {
	db := newRecordRepoDB(t, allModels()...)
	pid, did := seedPair(t, db)

	recs := []domain.Record{
		{Progress: 60, Status: domain.StatusApproved, PlayerID: pid, DemonID: did},  // swept: approved, lower
		{Progress: 70, Status: domain.StatusSubmitted, PlayerID: pid, DemonID: did}, // swept: same bucket, lower
		{Progress: 99, Status: domain.StatusSubmitted, PlayerID: pid, DemonID: did}, // kept: higher progress
		{Progress: 50, Status: domain.StatusRejected, PlayerID: pid, DemonID: did},  // kept: other bucket
	}
	for i := range recs {
		if err := CreateRecord(db, &recs[i]); err != nil {
			t.Fatalf("seed record %d: %v", i, err)
		}
	}
	keep := domain.Record{Progress: 80, Status: domain.StatusSubmitted, PlayerID: pid, DemonID: did}
	if err := CreateRecord(db, &keep); err != nil {
		t.Fatalf("seed keep: %v", err)
	}

	n, err := DeleteDominatedForPair(db, pid, did, keep.ID, keep.Progress, keep.Status)
	if err != nil {
		t.Fatalf("DeleteDominatedForPair: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows swept, got %d", n)
	}

	var remaining []domain.Record
	if err := db.Order("id ASC").Find(&remaining).Error; err != nil {
		t.Fatalf("load remaining: %v", err)
	}
	if len(remaining) != 3 {
		t.Fatalf("expected 3 survivors, got %+v", remaining)
	}
	for _, r := range remaining {
		if r.ID == recs[0].ID || r.ID == recs[1].ID {
			t.Fatalf("dominated record %d survived", r.ID)
		}
	}
}

func TestRecordSource_ScanFiltersBoundsOrder(t *testing.T) {
	db := newRecordRepoDB(t, allModels()...)
	pid, did := seedPair(t, db)

	other := domain.Player{Name: "Other"}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("seed other player: %v", err)
	}

	for i, rec := range []domain.Record{
		{Progress: 60, Status: domain.StatusSubmitted, PlayerID: pid, DemonID: did},
		{Progress: 80, Status: domain.StatusApproved, PlayerID: pid, DemonID: did},
		{Progress: 90, Status: domain.StatusApproved, PlayerID: other.ID, DemonID: did},
	} {
		if err := CreateRecord(db, &rec); err != nil {
			t.Fatalf("seed record %d: %v", i, err)
		}
	}

	ctx := context.Background()
	approved := domain.StatusApproved

	src := RecordSource{DB: db, Filter: RecordFilter{Status: &approved}}
	got, err := src.Scan(ctx, pagination.Bounds{}, 10, false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 3 {
		t.Fatalf("status filter unexpected: %+v", got)
	}
	if got[0].Player.Name == "" || got[0].Demon.Name == "" {
		t.Fatalf("expected preloaded associations in listing rows")
	}

	// Player name filter goes through a subquery on the players table.
	src = RecordSource{DB: db, Filter: RecordFilter{Player: "Other"}}
	got, err = src.Scan(ctx, pagination.Bounds{}, 10, false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("player filter unexpected: %+v", got)
	}

	// Bounds and descending order.
	before := 3
	src = RecordSource{DB: db}
	got, err = src.Scan(ctx, pagination.Bounds{Before: &before}, 10, true)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 1 {
		t.Fatalf("descending bounded scan unexpected: %+v", got)
	}

	if src.Key(got[0]) != got[0].ID {
		t.Fatalf("Key should return the record id")
	}
}

func TestRecordsExtrema(t *testing.T) {
	db := newRecordRepoDB(t, allModels()...)

	ext, err := RecordsExtrema(context.Background(), db)
	if err != nil {
		t.Fatalf("RecordsExtrema (empty): %v", err)
	}
	if !ext.Empty {
		t.Fatalf("expected Empty for no rows, got %+v", ext)
	}

	pid, did := seedPair(t, db)
	for i := 0; i < 3; i++ {
		r := domain.Record{Progress: 60 + i, Status: domain.StatusSubmitted, PlayerID: pid, DemonID: did}
		if err := CreateRecord(db, &r); err != nil {
			t.Fatalf("seed record %d: %v", i, err)
		}
	}

	ext, err = RecordsExtrema(context.Background(), db)
	if err != nil {
		t.Fatalf("RecordsExtrema: %v", err)
	}
	if ext.Empty || ext.Min != 1 || ext.Max != 3 {
		t.Fatalf("unexpected extrema: %+v", ext)
	}
}
