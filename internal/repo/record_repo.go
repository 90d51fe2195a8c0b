// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Record
// model: point lookups, the dedup scans the lifecycle engine runs inside its
// transactions, and the cursor scan source used by paginated listings.
//
// All functions accept a *gorm.DB handle, making them safe for use within
// transactions. They follow the "thin repository" approach: no business
// logic, only CRUD persistence and query composition.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-demonlist-backend/internal/domain"
	"github.com/tbourn/go-demonlist-backend/internal/pagination"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateRecord inserts a new record row. Associations are omitted so the
// loaded Player/Demon structs are never written back; only the foreign keys
// count. Timestamps and the surrogate key are filled in by GORM.
func CreateRecord(db *gorm.DB, r *domain.Record) error {
	return db.Omit(clause.Associations).Create(r).Error
}

// GetRecord fetches a record by ID with its player and demon loaded.
// Returns ErrNotFound if missing.
func GetRecord(ctx context.Context, db *gorm.DB, id int) (*domain.Record, error) {
	var r domain.Record
	err := db.WithContext(ctx).
		Preload("Player").
		Preload("Demon").
		First(&r, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// DeleteRecord removes a record by ID. Returns ErrNotFound when no row was
// deleted.
func DeleteRecord(db *gorm.DB, id int) error {
	res := db.Delete(&domain.Record{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveRecord writes all fields of r back to its row, leaving the associated
// player and demon rows untouched.
func SaveRecord(db *gorm.DB, r *domain.Record) error {
	return db.Omit(clause.Associations).Save(r).Error
}

// RecordsForPair returns every record for one (player, demon) pair, the
// working set of the submission dedup scan. Run inside the engine's
// transaction.
func RecordsForPair(db *gorm.DB, playerID, demonID int) ([]domain.Record, error) {
	var out []domain.Record
	err := db.
		Where("player_id = ? AND demon_id = ?", playerID, demonID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// StrongestForTriple returns the record with the highest progress among all
// records for (playerID, demonID, status) other than excludeID, or nil when
// none exists. The patch path uses it to decide whether the patched record
// is itself the dominated one.
func StrongestForTriple(db *gorm.DB, playerID, demonID int, status domain.RecordStatus, excludeID int) (*domain.Record, error) {
	var out []domain.Record
	err := db.
		Where("player_id = ? AND demon_id = ? AND status = ? AND id <> ?",
			playerID, demonID, status, excludeID).
		Order("progress DESC").
		Limit(1).
		Find(&out).Error
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return &out[0], nil
}

// DeleteDominatedForPair removes every record for (playerID, demonID) other
// than keepID whose status is approved or equals status, and whose progress
// does not exceed progress. This is the sweep that restores the approval-
// uniqueness and dominance invariants after a patch.
func DeleteDominatedForPair(db *gorm.DB, playerID, demonID, keepID, progress int, status domain.RecordStatus) (int64, error) {
	res := db.
		Where("player_id = ? AND demon_id = ? AND id <> ? AND progress <= ? AND (status = ? OR status = ?)",
			playerID, demonID, keepID, progress, domain.StatusApproved, status).
		Delete(&domain.Record{})
	return res.RowsAffected, res.Error
}

// RecordFilter holds the equality/range predicates recognized by the record
// listing endpoint. Zero values mean "no constraint".
type RecordFilter struct {
	Player     string // exact player name
	Demon      string // exact demon name
	Status     *domain.RecordStatus
	Progress   *int
	ProgressLT *int
	ProgressGT *int
}

// RecordSource adapts record listing queries to the pagination.Source
// contract, keyed by record ID.
type RecordSource struct {
	DB     *gorm.DB
	Filter RecordFilter
}

// Scan implements pagination.Source.
func (s RecordSource) Scan(ctx context.Context, b pagination.Bounds, limit int, descending bool) ([]domain.Record, error) {
	q := s.DB.WithContext(ctx).
		Model(&domain.Record{}).
		Preload("Player").
		Preload("Demon")

	f := s.Filter
	if f.Player != "" {
		q = q.Where("player_id IN (?)",
			s.DB.Model(&domain.Player{}).Select("id").Where("name = ?", f.Player))
	}
	if f.Demon != "" {
		q = q.Where("demon_id IN (?)",
			s.DB.Model(&domain.Demon{}).Select("id").Where("name = ?", f.Demon))
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Progress != nil {
		q = q.Where("progress = ?", *f.Progress)
	}
	if f.ProgressLT != nil {
		q = q.Where("progress < ?", *f.ProgressLT)
	}
	if f.ProgressGT != nil {
		q = q.Where("progress > ?", *f.ProgressGT)
	}

	if b.Before != nil {
		q = q.Where("id < ?", *b.Before)
	}
	if b.After != nil {
		q = q.Where("id > ?", *b.After)
	}

	order := "id ASC"
	if descending {
		order = "id DESC"
	}
	var out []domain.Record
	err := q.Order(order).Limit(limit).Find(&out).Error
	return out, err
}

// Key implements pagination.Source.
func (RecordSource) Key(r domain.Record) int { return r.ID }

// RecordsExtrema returns the minimum and maximum record ID across the whole
// table. Used only to build the first/last navigation links, never to bound
// the main scan.
func RecordsExtrema(ctx context.Context, db *gorm.DB) (pagination.Extrema, error) {
	return extrema(ctx, db.Model(&domain.Record{}), "id")
}

// extrema runs the shared MIN/MAX aggregate for a pagination key column.
func extrema(ctx context.Context, q *gorm.DB, column string) (pagination.Extrema, error) {
	var row struct {
		Lo sql.NullInt64
		Hi sql.NullInt64
	}
	err := q.WithContext(ctx).
		Select("MIN(" + column + ") AS lo, MAX(" + column + ") AS hi").
		Scan(&row).Error
	if err != nil {
		return pagination.Extrema{}, err
	}
	if !row.Lo.Valid {
		return pagination.Extrema{Empty: true}, nil
	}
	return pagination.Extrema{Min: int(row.Lo.Int64), Max: int(row.Hi.Int64)}, nil
}
