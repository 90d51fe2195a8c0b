// Package pagination implements cursor-based ("before"/"after") pagination
// over collections ordered by a single unique integer key, plus the builder
// for the Link navigation header.
//
// The algorithm is shared by every listing resource (records, players,
// demons, submitters): each entity implements the one-method Source scan and
// the generic Paginate function owns the cursor semantics. Cursors make page
// boundaries stable under concurrent mutation: a page fetched "after" a key
// never shifts because rows were inserted or deleted elsewhere in the
// collection.
package pagination

import "context"

// DefaultLimit is the page size used when the caller does not override it.
// Clients cannot set a limit; the administrative override lives in config.
const DefaultLimit = 50

// Bounds carries the exclusive key bounds for one scan.
type Bounds struct {
	// Before keeps rows with key strictly below it.
	Before *int
	// After keeps rows with key strictly above it.
	After *int
}

// Source is the per-entity scan a collection must provide to be paginated.
// Implementations live in the repo package, one per entity.
type Source[T any] interface {
	// Scan returns up to limit rows matching the source's filters and the
	// given bounds, ordered by key ascending, or descending when descending
	// is true.
	Scan(ctx context.Context, b Bounds, limit int, descending bool) ([]T, error)
	// Key extracts the ordering key of an item.
	Key(item T) int
}

// Page is one page of items in ascending key order, plus the direction
// flags the Link builder turns into next/prev relations.
type Page[T any] struct {
	Items   []T
	HasNext bool
	HasPrev bool
}

// Paginate fetches one page from src.
//
// Cursor semantics:
//   - No cursor: ascending scan from the start of the collection.
//   - after set: ascending scan over keys > after. HasPrev is implied by the
//     cursor itself.
//   - before set (only): descending scan over keys < before, so the nearest
//     rows below the bound are fetched without walking the whole collection;
//     the result is reversed back into ascending order. HasNext is implied
//     by the cursor.
//   - Both cursors set: after wins and before is ignored. Forward traversal
//     is the primary direction and this keeps the scan planner to exactly
//     two shapes.
//
// limit+1 rows are requested; a returned extra row is dropped and sets the
// flag for the scanned direction (HasNext forward, HasPrev backward).
func Paginate[T any](ctx context.Context, src Source[T], before, after *int, limit int) (Page[T], error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	b := Bounds{Before: before, After: after}
	if b.After != nil {
		b.Before = nil
	}
	descending := b.Before != nil

	items, err := src.Scan(ctx, b, limit+1, descending)
	if err != nil {
		return Page[T]{}, err
	}

	extra := len(items) > limit
	if extra {
		items = items[:limit]
	}

	page := Page[T]{Items: items}
	if descending {
		reverse(page.Items)
		page.HasPrev = extra
		page.HasNext = true
	} else {
		page.HasNext = extra
		page.HasPrev = b.After != nil
	}
	return page, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
