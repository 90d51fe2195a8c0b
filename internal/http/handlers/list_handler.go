// Listing handlers for the supporting collections:
//   - GET /players     (public, cursor-paginated)
//   - GET /demons      (public, cursor-paginated by list position)
//   - GET /submitters  (moderators only; exposes ban state)
//
// All three share the cursor/Link-header machinery with the record listing.
package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-demonlist-backend/internal/pagination"
	"github.com/tbourn/go-demonlist-backend/internal/repo"
)

// boolQuery parses an optional boolean query parameter, returning nil when
// the parameter is absent.
func boolQuery(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a boolean", name)
	}
	return &b, nil
}

// cursors parses the before/after pair shared by every listing endpoint.
func cursors(c *gin.Context) (before, after *int, err error) {
	if before, err = intQuery(c, "before"); err != nil {
		return nil, nil, err
	}
	if after, err = intQuery(c, "after"); err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

// ListPlayers godoc
// @ID          listPlayers
// @Summary     List players (cursor-paginated)
// @Description Returns one page of players in ascending id order, with Link header navigation.
// @Tags        Players
// @Produce     json
//
// @Param       before  query  int     false "Return rows with id strictly below this cursor"
// @Param       after   query  int     false "Return rows with id strictly above this cursor"
// @Param       name    query  string  false "Exact name filter"
// @Param       banned  query  bool    false "Ban state filter"
//
// @Success     200  {array}  domain.Player
// @Header      200  {string} Link "Navigation relations: first, prev, next, last"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /players [get]
func (h *Handlers) ListPlayers(c *gin.Context) {
	ctx := c.Request.Context()

	before, after, err := cursors(c)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	banned, err := boolQuery(c, "banned")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	src := repo.PlayerSource{DB: h.db, Filter: repo.PlayerFilter{
		Name:   strings.TrimSpace(c.Query("name")),
		Banned: banned,
	}}
	page, err := pagination.Paginate(ctx, src, before, after, h.limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ext, err := repo.PlayersExtrema(ctx, h.db)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if link := pagination.LinksFor(src, page, c.Request.URL.Path, c.Request.URL.Query(), before, after, ext); link != "" {
		c.Header("Link", link)
	}
	ok(c, http.StatusOK, page.Items)
}

// ListDemons godoc
// @ID          listDemons
// @Summary     List demons (cursor-paginated by position)
// @Description Returns one page of demons in ascending list position, with Link header navigation.
// @Tags        Demons
// @Produce     json
//
// @Param       before           query  int     false "Return rows with position strictly below this cursor"
// @Param       after            query  int     false "Return rows with position strictly above this cursor"
// @Param       name             query  string  false "Exact name filter"
// @Param       requirement__lt  query  int     false "Requirement strictly below"
// @Param       requirement__gt  query  int     false "Requirement strictly above"
//
// @Success     200  {array}  domain.Demon
// @Header      200  {string} Link "Navigation relations: first, prev, next, last"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /demons [get]
func (h *Handlers) ListDemons(c *gin.Context) {
	ctx := c.Request.Context()

	before, after, err := cursors(c)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	var f repo.DemonFilter
	f.Name = strings.TrimSpace(c.Query("name"))
	if f.RequirementLT, err = intQuery(c, "requirement__lt"); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	if f.RequirementGT, err = intQuery(c, "requirement__gt"); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	src := repo.DemonSource{DB: h.db, Filter: f}
	page, err := pagination.Paginate(ctx, src, before, after, h.limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ext, err := repo.DemonsExtrema(ctx, h.db)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if link := pagination.LinksFor(src, page, c.Request.URL.Path, c.Request.URL.Query(), before, after, ext); link != "" {
		c.Header("Link", link)
	}
	ok(c, http.StatusOK, page.Items)
}

// ListSubmitters godoc
// @ID          listSubmitters
// @Summary     List submitters (cursor-paginated)
// @Description Returns one page of submitters in ascending id order. Moderators only.
// @Tags        Submitters
// @Produce     json
//
// @Param       X-Moderator  header  string  false "Moderator flag (demo header)"  example(true)
// @Param       before       query   int     false "Return rows with id strictly below this cursor"
// @Param       after        query   int     false "Return rows with id strictly above this cursor"
// @Param       banned       query   bool    false "Ban state filter"
//
// @Success     200  {array}  domain.Submitter
// @Header      200  {string} Link "Navigation relations: first, prev, next, last"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Forbidden"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /submitters [get]
func (h *Handlers) ListSubmitters(c *gin.Context) {
	if !moderator(c) {
		fail(c, http.StatusForbidden, ErrCodeForbidden, "listing submitters requires moderator privileges")
		return
	}
	ctx := c.Request.Context()

	before, after, err := cursors(c)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	banned, err := boolQuery(c, "banned")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	src := repo.SubmitterSource{DB: h.db, Filter: repo.SubmitterFilter{Banned: banned}}
	page, err := pagination.Paginate(ctx, src, before, after, h.limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ext, err := repo.SubmittersExtrema(ctx, h.db)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if link := pagination.LinksFor(src, page, c.Request.URL.Path, c.Request.URL.Query(), before, after, ext); link != "" {
		c.Header("Link", link)
	}
	ok(c, http.StatusOK, page.Items)
}
