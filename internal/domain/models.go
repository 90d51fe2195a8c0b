// Package domain defines the persistence models for the demon list: ranked
// demons, players, submitters, and the records players submit against demons.
// These types are mapped with GORM and form the core data layer of the list
// backend.
package domain

import (
	"time"
)

// Demon is one ranked level on the list. Its Position determines which tier
// policies apply to submissions (main list, extended list, legacy), and its
// Requirement is the minimum progress accepted for a record.
//
// Fields:
//   - ID: integer surrogate key, assigned on creation.
//   - Name: display name of the level; unique.
//   - Position: 1-based rank on the list; unique, used as the pagination key
//     for demon listings.
//   - Requirement: minimum progress percentage (0–100) a record must reach.
type Demon struct {
	ID          int       `json:"id"          gorm:"primaryKey;autoIncrement"`
	Name        string    `json:"name"        gorm:"type:varchar(255);not null;uniqueIndex:ux_demons_name"`
	Position    int       `json:"position"    gorm:"not null;uniqueIndex:ux_demons_position"`
	Requirement int       `json:"requirement" gorm:"not null;default:100;check:requirement BETWEEN 0 AND 100"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Demon.
func (Demon) TableName() string { return "demons" }

// Player is the identity a record is attributed to. Players are created
// lazily the first time a name is submitted; Banned players cannot receive
// new submissions.
type Player struct {
	ID        int       `json:"id"     gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name"   gorm:"type:varchar(64);not null;uniqueIndex:ux_players_name"`
	Banned    bool      `json:"banned" gorm:"not null;default:false;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Player.
func (Player) TableName() string { return "players" }

// Submitter identifies the client that sent a submission, keyed by IP
// address for anti-abuse. Submitters are created lazily on first submission
// and can be banned independently of players.
type Submitter struct {
	ID        int       `json:"id"     gorm:"primaryKey;autoIncrement"`
	IPAddress string    `json:"-"      gorm:"type:varchar(45);not null;uniqueIndex:ux_submitters_ip"`
	Banned    bool      `json:"banned" gorm:"not null;default:false;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Submitter.
func (Submitter) TableName() string { return "submitters" }

// Record is one performance claim by a player on a demon.
//
// Uniqueness is governed by the lifecycle engine, not the schema: among all
// records for one (player, demon) pair at most one may be approved, the same
// video may never appear twice, and within one status bucket only the record
// with the highest progress survives. The schema deliberately carries no
// unique index over (player_id, demon_id) because the dominance rule cannot
// be expressed as a static constraint.
//
// Fields:
//   - ID: integer surrogate key; the pagination key for record listings.
//   - Progress: percentage in [demon.Requirement, 100].
//   - Video: optional normalized proof URL; nil means "no video".
//   - Status: see RecordStatus.
//   - SubmitterID: nullable, immutable after creation; nil for records a
//     moderator added out-of-band.
type Record struct {
	ID          int          `json:"id"       gorm:"primaryKey;autoIncrement"`
	Progress    int          `json:"progress" gorm:"not null;check:progress BETWEEN 0 AND 100"`
	Video       *string      `json:"video,omitempty" gorm:"type:varchar(255)"`
	Status      RecordStatus `json:"status"   gorm:"type:varchar(24);not null;index:idx_records_pair,priority:3"`
	PlayerID    int          `json:"-"        gorm:"not null;index:idx_records_pair,priority:1"`
	DemonID     int          `json:"-"        gorm:"not null;index:idx_records_pair,priority:2"`
	SubmitterID *int         `json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`

	// Associations are loaded for API responses; deleting a player or demon
	// cascades to its records.
	Player Player `json:"player" gorm:"foreignKey:PlayerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Demon  Demon  `json:"demon"  gorm:"foreignKey:DemonID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Record.
func (Record) TableName() string { return "records" }
