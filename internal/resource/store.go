package resource

import "context"

// Store is the persistence adapter contract every resource is backed by.
// Implementations return ErrNotFound for missing or soft-deleted rows and
// ErrConflict when a write breaks a uniqueness constraint.
type Store interface {
	Insert(ctx context.Context, attrs Attrs) (Attrs, error)
	Get(ctx context.Context, id int64) (Attrs, error)
	// Update writes only the given attrs; other columns keep their values.
	Update(ctx context.Context, id int64, attrs Attrs) (Attrs, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, q Query) ([]Attrs, int, error)
	// Exists reports whether any row, soft-deleted included, has field ==
	// value. excludeID skips one row (0 = none).
	Exists(ctx context.Context, field string, value any, excludeID int64) (bool, error)
}

// Order is one ordering term.
type Order struct {
	Field string
	Desc  bool
}

// Query narrows a List call. Limit 0 means no limit.
type Query struct {
	Filters        map[string]any
	Ordering       []Order
	Offset         int
	Limit          int
	IncludeDeleted bool
}
