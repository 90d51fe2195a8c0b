// Record HTTP handlers.
//
// This file exposes REST endpoints for record resources:
//   - POST   /records       (submit, supports dry-run via check)
//   - GET    /records       (list, cursor-paginated, Link header, ETag support)
//   - GET    /records/{id}  (fetch one)
//   - PATCH  /records/{id}  (moderation edits, If-Match support)
//   - DELETE /records/{id}  (moderation delete)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-demonlist-backend/internal/domain"
	"github.com/tbourn/go-demonlist-backend/internal/pagination"
	"github.com/tbourn/go-demonlist-backend/internal/repo"
	"github.com/tbourn/go-demonlist-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// RecordService defines the record lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type RecordService interface {
	// Submit validates, deduplicates, and stores a new record.
	Submit(ctx context.Context, in services.SubmitInput) (*domain.Record, error)
	// Patch partially updates a record and re-resolves dominance.
	Patch(ctx context.Context, id int, in services.PatchInput, privileged bool) (*domain.Record, error)
	// Get fetches one record with player and demon loaded.
	Get(ctx context.Context, id int) (*domain.Record, error)
	// Delete removes a record.
	Delete(ctx context.Context, id int) error
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the list API. Lifecycle operations go
// through the RecordService contract; listing endpoints scan the store
// directly through the repo cursor sources.
type Handlers struct {
	recSvc RecordService
	db     *gorm.DB
	limit  int
}

// New constructs a Handlers instance bound to the given service and store.
// limit is the fixed page size for every listing endpoint.
func New(recSvc RecordService, db *gorm.DB, limit int) *Handlers {
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}
	return &Handlers{recSvc: recSvc, db: db, limit: limit}
}

// moderator reports whether the request carries moderator privileges. The
// flag is set by upstream auth middleware; if absent, it falls back to the
// "X-Moderator" header (tests and demo deployments use it).
func moderator(c *gin.Context) bool {
	if v, ok := c.Get("moderator"); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	if c != nil && c.Request != nil {
		return strings.EqualFold(c.GetHeader("X-Moderator"), "true")
	}
	return false
}

//
// Helpers
//

// intQuery parses an optional integer query parameter, returning nil when the
// parameter is absent.
func intQuery(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", name)
	}
	return &n, nil
}

// recordETag derives the weak validator for one record resource.
func recordETag(r *domain.Record) string {
	return fmt.Sprintf(`W/"record:%d:%d"`, r.ID, r.UpdatedAt.UnixNano())
}

// failRecord translates a lifecycle-engine error into an HTTP response.
func failRecord(c *gin.Context, err error) {
	var dup *services.DuplicateSubmissionError
	switch {
	case errors.As(err, &dup):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrRecordNotFound),
		errors.Is(err, services.ErrDemonNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrPlayerBanned),
		errors.Is(err, services.ErrSubmitterBanned),
		errors.Is(err, services.ErrStatusNotPermitted),
		errors.Is(err, services.ErrLegacyDemon):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrPlayerNameEmpty),
		errors.Is(err, services.ErrInvalidProgress),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrVideoRequired),
		errors.Is(err, services.ErrExtendedRequires100),
		errors.Is(err, domain.ErrUnsupportedVideo):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

//
// DTOs
//

// SubmitRecordRequest is the JSON payload for submitting a record.
type SubmitRecordRequest struct {
	// Progress is the completion percentage achieved.
	Progress int `json:"progress" binding:"required,min=1,max=100" example:"99"`
	// Player is the name of the player the record belongs to.
	Player string `json:"player" binding:"required,min=1,max=50" example:"Aquatias"`
	// Demon is the name of the demon the record was achieved on.
	Demon string `json:"demon" binding:"required,min=1" example:"Bloodbath"`
	// Video is the proof link; required unless submitted by a moderator.
	Video *string `json:"video,omitempty" example:"https://www.youtube.com/watch?v=dQw4w9WgXcQ"`
	// Status is honored for moderators only; defaults to "submitted".
	Status string `json:"status,omitempty" example:"submitted"`
	// Check requests validation without persisting anything.
	Check bool `json:"check,omitempty"`
}

// PatchRecordRequest is the JSON payload for partially updating a record.
// Video is a RawMessage so an explicit null (clear the video) can be told
// apart from an omitted field (leave it unchanged).
type PatchRecordRequest struct {
	Progress *int            `json:"progress,omitempty" example:"100"`
	Video    json.RawMessage `json:"video,omitempty"`
	Status   *string         `json:"status,omitempty" example:"approved"`
	Player   *string         `json:"player,omitempty" example:"Aquatias"`
	Demon    *string         `json:"demon,omitempty" example:"Bloodbath"`
}

//
// Handlers
//

// SubmitRecord godoc
// @ID          submitRecord
// @Summary     Submit a record
// @Description Validates and stores a new record for a player on a demon. With "check": true, runs all validation and deduplication without persisting.
// @Tags        Records
// @Accept      json
// @Produce     json
//
// @Param       X-Moderator  header  string  false "Moderator flag (demo header)"  example(true)
// @Param       body         body    handlers.SubmitRecordRequest  true  "Submission payload"
//
// @Success     201  {object}  domain.Record
// @Success     204  {string}  string "No Content (dry run passed)"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse "Forbidden"
// @Failure     409  {object}  handlers.ErrorResponse "Conflicting record exists"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /records [post]
func (h *Handlers) SubmitRecord(c *gin.Context) {
	var req SubmitRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	rec, err := h.recSvc.Submit(c.Request.Context(), services.SubmitInput{
		Progress:    req.Progress,
		Player:      req.Player,
		Demon:       req.Demon,
		Video:       req.Video,
		Status:      domain.RecordStatus(req.Status),
		Check:       req.Check,
		SubmitterIP: c.ClientIP(),
		Privileged:  moderator(c),
	})
	if err != nil {
		failRecord(c, err)
		return
	}
	if req.Check {
		noContent(c)
		return
	}
	c.Header("ETag", recordETag(rec))
	ok(c, http.StatusCreated, rec)
}

// ListRecords godoc
// @ID          listRecords
// @Summary     List records (cursor-paginated)
// @Description Returns one page of records in ascending id order. Navigation is exposed through the Link header (first/prev/next/last). Supports a weak ETag via If-None-Match and may return 304.
// @Tags        Records
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"records:3:1700000000\")
// @Param       before         query   int     false "Return rows with id strictly below this cursor"
// @Param       after          query   int     false "Return rows with id strictly above this cursor"
// @Param       player         query   string  false "Exact player name filter"
// @Param       demon          query   string  false "Exact demon name filter"
// @Param       status         query   string  false "Record status filter"  Enums(submitted, under consideration, approved, rejected)
// @Param       progress       query   int     false "Exact progress filter"
// @Param       progress__lt   query   int     false "Progress strictly below"
// @Param       progress__gt   query   int     false "Progress strictly above"
//
// @Success     200  {array}  domain.Record
// @Header      200  {string} Link "Navigation relations: first, prev, next, last"
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /records [get]
func (h *Handlers) ListRecords(c *gin.Context) {
	ctx := c.Request.Context()

	before, err := intQuery(c, "before")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	after, err := intQuery(c, "after")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	filter, err := recordFilterFrom(c)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	// ETag pre-check (best effort).
	count, maxTS, err := repo.RecordsStats(ctx, h.db)
	if err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.Unix()
		}
		etag := fmt.Sprintf(`W/"records:%d:%d"`, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	src := repo.RecordSource{DB: h.db, Filter: filter}
	page, err := pagination.Paginate(ctx, src, before, after, h.limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	ext, err := repo.RecordsExtrema(ctx, h.db)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if link := pagination.LinksFor(src, page, c.Request.URL.Path, c.Request.URL.Query(), before, after, ext); link != "" {
		c.Header("Link", link)
	}
	ok(c, http.StatusOK, page.Items)
}

// recordFilterFrom parses the listing filter parameters.
func recordFilterFrom(c *gin.Context) (repo.RecordFilter, error) {
	var f repo.RecordFilter
	f.Player = strings.TrimSpace(c.Query("player"))
	f.Demon = strings.TrimSpace(c.Query("demon"))

	if raw := c.Query("status"); raw != "" {
		st, known := domain.ParseRecordStatus(raw)
		if !known {
			return f, fmt.Errorf("unknown status %q", raw)
		}
		f.Status = &st
	}

	var err error
	if f.Progress, err = intQuery(c, "progress"); err != nil {
		return f, err
	}
	if f.ProgressLT, err = intQuery(c, "progress__lt"); err != nil {
		return f, err
	}
	if f.ProgressGT, err = intQuery(c, "progress__gt"); err != nil {
		return f, err
	}
	return f, nil
}

// GetRecord godoc
// @ID          getRecord
// @Summary     Fetch a record
// @Description Returns one record with its player and demon embedded.
// @Tags        Records
// @Produce     json
//
// @Param       id  path  int  true  "Record ID"  example(42)
//
// @Success     200  {object} domain.Record
// @Header      200  {string} ETag "Weak ETag for the resource"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Record not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /records/{id} [get]
func (h *Handlers) GetRecord(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "record id must be an integer")
		return
	}

	rec, err := h.recSvc.Get(c.Request.Context(), id)
	if err != nil {
		failRecord(c, err)
		return
	}
	c.Header("ETag", recordETag(rec))
	ok(c, http.StatusOK, rec)
}

// PatchRecord godoc
// @ID          patchRecord
// @Summary     Update a record
// @Description Partially updates a record. Changing status, player, or demon is restricted to moderators; the engine re-resolves dominance for the new combination. Supports optimistic concurrency via If-Match.
// @Tags        Records
// @Accept      json
// @Produce     json
//
// @Param       X-Moderator  header  string  false "Moderator flag (demo header)"  example(true)
// @Param       If-Match     header  string  false "Fail with 412 unless the resource matches this ETag"
// @Param       id           path    int     true  "Record ID"  example(42)
// @Param       body         body    handlers.PatchRecordRequest  true  "Fields to update"
//
// @Success     200  {object} domain.Record
// @Header      200  {string} ETag "Weak ETag for the updated resource"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Forbidden"
// @Failure     404  {object} handlers.ErrorResponse "Record not found"
// @Failure     412  {object} handlers.ErrorResponse "Precondition failed"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /records/{id} [patch]
func (h *Handlers) PatchRecord(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "record id must be an integer")
		return
	}

	var req PatchRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	if (req.Status != nil || req.Player != nil || req.Demon != nil) && !moderator(c) {
		fail(c, http.StatusForbidden, ErrCodeForbidden,
			"changing status, player, or demon requires moderator privileges")
		return
	}

	if im := c.GetHeader("If-Match"); im != "" {
		current, err := h.recSvc.Get(c.Request.Context(), id)
		if err != nil {
			failRecord(c, err)
			return
		}
		if im != recordETag(current) {
			fail(c, http.StatusPreconditionFailed, ErrCodePreconditionFailed,
				"record was modified since it was fetched")
			return
		}
	}

	in := services.PatchInput{
		Progress: req.Progress,
		Player:   req.Player,
		Demon:    req.Demon,
	}
	if req.Status != nil {
		st := domain.RecordStatus(*req.Status)
		in.Status = &st
	}
	if len(req.Video) > 0 {
		in.VideoSet = true
		if string(req.Video) != "null" {
			var v string
			if err := json.Unmarshal(req.Video, &v); err != nil {
				fail(c, http.StatusBadRequest, ErrCodeBadRequest, "video must be a string or null")
				return
			}
			in.Video = &v
		}
	}

	rec, err := h.recSvc.Patch(c.Request.Context(), id, in, moderator(c))
	if err != nil {
		failRecord(c, err)
		return
	}
	c.Header("ETag", recordETag(rec))
	ok(c, http.StatusOK, rec)
}

// DeleteRecord godoc
// @ID          deleteRecord
// @Summary     Delete a record
// @Description Removes a record. Moderators only.
// @Tags        Records
// @Produce     json
//
// @Param       X-Moderator  header  string  false "Moderator flag (demo header)"  example(true)
// @Param       id           path    int     true  "Record ID"  example(42)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Forbidden"
// @Failure     404  {object} handlers.ErrorResponse "Record not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /records/{id} [delete]
func (h *Handlers) DeleteRecord(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "record id must be an integer")
		return
	}
	if !moderator(c) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "deleting records requires moderator privileges")
		return
	}

	if err := h.recSvc.Delete(c.Request.Context(), id); err != nil {
		failRecord(c, err)
		return
	}
	noContent(c)
}
