// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Demon
// model. Demons are paginated by list position rather than surrogate ID.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-demonlist-backend/internal/domain"
	"github.com/tbourn/go-demonlist-backend/internal/pagination"
)

// GetDemonByName fetches a demon by exact name. Returns ErrNotFound if
// missing; unlike players, demons are never created implicitly by a
// submission.
func GetDemonByName(db *gorm.DB, name string) (*domain.Demon, error) {
	var d domain.Demon
	if err := db.First(&d, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDemon fetches a demon by ID, returning ErrNotFound if missing.
func GetDemon(ctx context.Context, db *gorm.DB, id int) (*domain.Demon, error) {
	var d domain.Demon
	if err := db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// DemonFilter holds the predicates recognized by the demon listing.
type DemonFilter struct {
	Name          string // exact name
	RequirementLT *int
	RequirementGT *int
}

// DemonSource adapts demon listing queries to the pagination.Source
// contract, keyed by list position.
type DemonSource struct {
	DB     *gorm.DB
	Filter DemonFilter
}

// Scan implements pagination.Source.
func (s DemonSource) Scan(ctx context.Context, b pagination.Bounds, limit int, descending bool) ([]domain.Demon, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Demon{})
	if s.Filter.Name != "" {
		q = q.Where("name = ?", s.Filter.Name)
	}
	if s.Filter.RequirementLT != nil {
		q = q.Where("requirement < ?", *s.Filter.RequirementLT)
	}
	if s.Filter.RequirementGT != nil {
		q = q.Where("requirement > ?", *s.Filter.RequirementGT)
	}
	if b.Before != nil {
		q = q.Where("position < ?", *b.Before)
	}
	if b.After != nil {
		q = q.Where("position > ?", *b.After)
	}
	order := "position ASC"
	if descending {
		order = "position DESC"
	}
	var out []domain.Demon
	err := q.Order(order).Limit(limit).Find(&out).Error
	return out, err
}

// Key implements pagination.Source.
func (DemonSource) Key(d domain.Demon) int { return d.Position }

// DemonsExtrema returns the minimum and maximum list position, for the
// first/last navigation links.
func DemonsExtrema(ctx context.Context, db *gorm.DB) (pagination.Extrema, error) {
	return extrema(ctx, db.Model(&domain.Demon{}), "position")
}
