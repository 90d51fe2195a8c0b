// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Player
// model. Players are identities created lazily the first time a name is
// submitted.
package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-demonlist-backend/internal/domain"
	"github.com/tbourn/go-demonlist-backend/internal/pagination"
)

// GetOrCreatePlayer looks a player up by exact name, creating the row when
// absent. Name normalization is the caller's concern; this function treats
// the name as opaque.
func GetOrCreatePlayer(db *gorm.DB, name string) (*domain.Player, error) {
	var p domain.Player
	err := db.First(&p, "name = ?", name).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	p = domain.Player{Name: name}
	if err := db.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPlayer fetches a player by ID, returning ErrNotFound if missing.
func GetPlayer(ctx context.Context, db *gorm.DB, id int) (*domain.Player, error) {
	var p domain.Player
	if err := db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// PlayerFilter holds the predicates recognized by the player listing.
type PlayerFilter struct {
	Name   string // exact name
	Banned *bool
}

// PlayerSource adapts player listing queries to the pagination.Source
// contract, keyed by player ID.
type PlayerSource struct {
	DB     *gorm.DB
	Filter PlayerFilter
}

// Scan implements pagination.Source.
func (s PlayerSource) Scan(ctx context.Context, b pagination.Bounds, limit int, descending bool) ([]domain.Player, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Player{})
	if s.Filter.Name != "" {
		q = q.Where("name = ?", s.Filter.Name)
	}
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
	var out []domain.Player
	err := q.Order(order).Limit(limit).Find(&out).Error
	return out, err
}

// Key implements pagination.Source.
func (PlayerSource) Key(p domain.Player) int { return p.ID }

// PlayersExtrema returns the minimum and maximum player ID among non-banned
// players, for the first/last navigation links of the public listing.
func PlayersExtrema(ctx context.Context, db *gorm.DB) (pagination.Extrema, error) {
	return extrema(ctx, db.Model(&domain.Player{}).Where("banned = ?", false), "id")
}
