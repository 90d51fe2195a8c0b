// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Submitter
// model, the anti-abuse identity attached to inbound submissions.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-demonlist-backend/internal/domain"
	"github.com/tbourn/go-demonlist-backend/internal/pagination"
)

// GetOrCreateSubmitter looks a submitter up by IP address, creating the row
// when absent. New submitters start unbanned.
func GetOrCreateSubmitter(db *gorm.DB, ip string) (*domain.Submitter, error) {
	var s domain.Submitter
	err := db.First(&s, "ip_address = ?", ip).Error
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	s = domain.Submitter{IPAddress: ip}
	if err := db.Create(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// SubmitterFilter holds the predicates recognized by the submitter listing.
type SubmitterFilter struct {
	Banned *bool
}

// SubmitterSource adapts submitter listing queries to the pagination.Source
// contract, keyed by submitter ID.
type SubmitterSource struct {
	DB     *gorm.DB
	Filter SubmitterFilter
}

// Scan implements pagination.Source.
func (s SubmitterSource) Scan(ctx context.Context, b pagination.Bounds, limit int, descending bool) ([]domain.Submitter, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Submitter{})
	if s.Filter.Banned != nil {
		q = q.Where("banned = ?", *s.Filter.Banned)
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
	var out []domain.Submitter
	err := q.Order(order).Limit(limit).Find(&out).Error
	return out, err
}

// Key implements pagination.Source.
func (SubmitterSource) Key(s domain.Submitter) int { return s.ID }

// SubmittersExtrema returns the minimum and maximum submitter ID, for the
// first/last navigation links.
func SubmittersExtrema(ctx context.Context, db *gorm.DB) (pagination.Extrema, error) {
	return extrema(ctx, db.Model(&domain.Submitter{}), "id")
}
