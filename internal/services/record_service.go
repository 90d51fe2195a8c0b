// Package services implements the application layer of the demon list.
//
// This file implements RecordService, the lifecycle engine for list records.
// It owns submission deduplication, the dominance rule, and patch-time
// conflict resolution, and it is the component responsible for the global
// uniqueness invariants:
//
//  1. per (player, demon) at most one approved record,
//  2. per (player, demon, video) at most one record, in any status,
//  3. per (player, demon, status) only the highest-progress record survives,
//  4. a rejected (player, demon) pairing blocks all new submissions.
//
// Every operation runs its reads and writes inside one transaction and is
// additionally serialized per (player, demon) pairing by an in-process keyed
// mutex, closing the window in which two concurrent submissions could both
// pass the dedup scan.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// player/demon identifiers and the requested progress.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-demonlist-backend/internal/domain"
	"github.com/tbourn/go-demonlist-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RecordService coordinates record submission, moderation edits, and
// deletion. The list-size fields mirror the deployment's configuration: a
// demon positioned above ListSize is on the extended list, above
// ExtendedListSize on the legacy list.
type RecordService struct {
	DB               *gorm.DB
	ListSize         int
	ExtendedListSize int

	locks keyedMutex
}

// NewRecordService constructs a RecordService over db with the given tier
// boundaries.
func NewRecordService(db *gorm.DB, listSize, extendedListSize int) *RecordService {
	return &RecordService{DB: db, ListSize: listSize, ExtendedListSize: extendedListSize}
}

// SubmitInput is one submission request.
type SubmitInput struct {
	Progress int
	Player   string
	Demon    string
	Video    *string
	// Status defaults to "submitted" when empty; anything else requires
	// Privileged.
	Status domain.RecordStatus
	// Check requests a dry run: run every validation and the dedup scan,
	// then report success without writing anything.
	Check bool
	// SubmitterIP identifies the submitting client; empty for records a
	// moderator adds out-of-band (those records carry no submitter).
	SubmitterIP string
	Privileged  bool
}

// Submit validates a submission, deduplicates it against existing records
// for the same (player, demon) pairing, deletes any records it dominates,
// and inserts the new one, all in one transaction.
//
// On a dry run (in.Check) it returns (nil, nil) after the dedup scan
// succeeds. Otherwise it returns the created record with player and demon
// populated.
func (s *RecordService) Submit(ctx context.Context, in SubmitInput) (*domain.Record, error) {
	tr := otel.Tracer("services/RecordService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("record.player", in.Player),
			attribute.String("record.demon", in.Demon),
			attribute.Int("record.progress", in.Progress),
		),
	)
	defer span.End()

	playerName := normalizeName(in.Player)
	if playerName == "" {
		return nil, ErrPlayerNameEmpty
	}
	demonName := normalizeName(in.Demon)

	status := in.Status
	if status == "" {
		status = domain.StatusSubmitted
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	if !CanCreateWithStatus(in.Privileged, status) {
		return nil, ErrStatusNotPermitted
	}

	var video *string
	if in.Video != nil {
		v, err := domain.NormalizeVideo(*in.Video)
		if err != nil {
			return nil, err
		}
		video = &v
	}

	// Serialize against concurrent submissions and patches for the same
	// pairing, from before the dedup read until the transaction returns.
	unlock := s.locks.lock(pairKey{player: playerName, demon: demonName})
	defer unlock()

	var rec *domain.Record
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		demon, err := repo.GetDemonByName(tx, demonName)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrDemonNotFound
			}
			return err
		}

		player, err := repo.GetOrCreatePlayer(tx, playerName)
		if err != nil {
			return err
		}
		if player.Banned {
			return ErrPlayerBanned
		}

		var submitterID *int
		if in.SubmitterIP != "" {
			sub, err := repo.GetOrCreateSubmitter(tx, in.SubmitterIP)
			if err != nil {
				return err
			}
			if sub.Banned {
				return ErrSubmitterBanned
			}
			submitterID = &sub.ID
		}

		if in.Progress > 100 || in.Progress < demon.Requirement {
			return ErrInvalidProgress
		}
		if err := s.checkSubmissionPolicy(demon, in.Progress, video != nil, in.Privileged); err != nil {
			return err
		}

		// Dedup scan over every existing record for the pairing.
		existing, err := repo.RecordsForPair(tx, player.ID, demon.ID)
		if err != nil {
			return err
		}
		var dominated []int
		for i := range existing {
			ex := &existing[i]
			switch {
			case videoEqual(ex.Video, video):
				return &DuplicateSubmissionError{ExistingID: ex.ID, ExistingStatus: ex.Status}
			case ex.Status == domain.StatusRejected:
				// A rejected pairing is globally closed until re-opened by
				// a moderator.
				return &DuplicateSubmissionError{ExistingID: ex.ID, ExistingStatus: ex.Status}
			case ex.Status == status && ex.Progress < in.Progress:
				dominated = append(dominated, ex.ID)
			default:
				return &DuplicateSubmissionError{ExistingID: ex.ID, ExistingStatus: ex.Status}
			}
		}

		if in.Check {
			// Dry run: the scan succeeded; write nothing.
			return nil
		}

		for _, id := range dominated {
			if err := repo.DeleteRecord(tx, id); err != nil {
				return err
			}
		}

		r := &domain.Record{
			Progress:    in.Progress,
			Video:       video,
			Status:      status,
			PlayerID:    player.ID,
			DemonID:     demon.ID,
			SubmitterID: submitterID,
		}
		if err := repo.CreateRecord(tx, r); err != nil {
			return err
		}
		r.Player = *player
		r.Demon = *demon
		rec = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// PatchInput is a partial update of a record. Nil fields are left unchanged.
// Video uses an explicit set flag so that a JSON null can clear it.
type PatchInput struct {
	Progress *int
	Video    *string
	VideoSet bool
	Status   *domain.RecordStatus
	Player   *string
	Demon    *string
}

// Patch applies in to the record with the given id. Changing player, demon,
// or status can create a collision that did not exist before the patch, so
// after applying the changes in memory the engine resolves dominance for the
// new (player, demon, status) triple:
//
//   - if another record of that triple has higher progress, the patched
//     record collapses into it (takes over its video and progress) instead
//     of keeping the caller's values;
//   - every other record of the pairing whose status is approved or equal to
//     the new status, with progress not above the (possibly collapsed)
//     progress, is deleted.
//
// This restores the approval-uniqueness and dominance invariants regardless
// of which direction the patch moved the record. Authorization and the
// optimistic-concurrency precondition are the caller's concern and must be
// checked before calling Patch.
func (s *RecordService) Patch(ctx context.Context, id int, in PatchInput, privileged bool) (*domain.Record, error) {
	tr := otel.Tracer("services/RecordService")
	ctx, span := tr.Start(ctx, "Patch",
		trace.WithAttributes(attribute.Int("record.id", id)),
	)
	defer span.End()

	// Resolve the target pairing for lock acquisition. The authoritative
	// re-read happens inside the transaction.
	current, err := repo.GetRecord(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	targetPlayer := current.Player.Name
	if in.Player != nil {
		targetPlayer = normalizeName(*in.Player)
		if targetPlayer == "" {
			return nil, ErrPlayerNameEmpty
		}
	}
	targetDemon := current.Demon.Name
	if in.Demon != nil {
		targetDemon = normalizeName(*in.Demon)
	}

	var video *string
	if in.VideoSet && in.Video != nil {
		v, err := domain.NormalizeVideo(*in.Video)
		if err != nil {
			return nil, err
		}
		video = &v
	}

	unlock := s.locks.lock(pairKey{player: targetPlayer, demon: targetDemon})
	defer unlock()

	var rec *domain.Record
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := repo.GetRecord(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrRecordNotFound
			}
			return err
		}

		if in.Status != nil {
			if !in.Status.Valid() {
				return ErrInvalidStatus
			}
			if !CanSetStatus(privileged, r.Status, *in.Status) {
				return ErrStatusNotPermitted
			}
			r.Status = *in.Status
		}

		demon := &r.Demon
		if in.Demon != nil && targetDemon != r.Demon.Name {
			demon, err = repo.GetDemonByName(tx, targetDemon)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return ErrDemonNotFound
				}
				return err
			}
			r.DemonID = demon.ID
		}

		player := &r.Player
		if in.Player != nil && targetPlayer != r.Player.Name {
			player, err = repo.GetOrCreatePlayer(tx, targetPlayer)
			if err != nil {
				return err
			}
			if player.Banned {
				return ErrPlayerBanned
			}
			r.PlayerID = player.ID
		}

		if in.Progress != nil {
			r.Progress = *in.Progress
		}
		if in.VideoSet {
			r.Video = video
		}

		if r.Progress > 100 || r.Progress < demon.Requirement {
			return ErrInvalidProgress
		}

		// Post-patch dominance resolution: if a stronger record already
		// holds the new triple, the patched record is the dominated one and
		// collapses into it.
		strongest, err := repo.StrongestForTriple(tx, r.PlayerID, r.DemonID, r.Status, r.ID)
		if err != nil {
			return err
		}
		if strongest != nil && strongest.Progress > r.Progress {
			r.Progress = strongest.Progress
			r.Video = strongest.Video
		}

		if _, err := repo.DeleteDominatedForPair(tx, r.PlayerID, r.DemonID, r.ID, r.Progress, r.Status); err != nil {
			return err
		}

		if err := repo.SaveRecord(tx, r); err != nil {
			return err
		}
		r.Player = *player
		r.Demon = *demon
		rec = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Get fetches a record by id with player and demon loaded.
func (s *RecordService) Get(ctx context.Context, id int) (*domain.Record, error) {
	r, err := repo.GetRecord(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return r, nil
}

// Delete removes a record by id.
func (s *RecordService) Delete(ctx context.Context, id int) error {
	tr := otel.Tracer("services/RecordService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.Int("record.id", id)),
	)
	defer span.End()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repo.DeleteRecord(tx, id)
	})
	if errors.Is(err, repo.ErrNotFound) {
		return ErrRecordNotFound
	}
	return err
}

// videoEqual compares two optional videos; two absent videos are equal, so
// a second no-video submission for a pairing is a duplicate.
func videoEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
