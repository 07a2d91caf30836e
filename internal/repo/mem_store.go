package repo

import (
	"context"
	"slices"
	"sync"

	"bookshelf/internal/resource"
)

// MemStore implements resource.Store in memory with the same semantics as
// TableStore: ids are never reused, soft-deleted rows are hidden and unique
// columns are enforced under the write lock.
type MemStore struct {
	mu       sync.RWMutex
	table    Table
	nextID   int64
	rows     map[int64]resource.Attrs
	children []cascade
}

type cascade struct {
	store *MemStore
	field string
	// detach removes the id from an array field instead of deleting rows.
	detach bool
}

func NewMemStore(t Table) *MemStore {
	return &MemStore{table: t, rows: make(map[int64]resource.Attrs)}
}

// Cascade deletes child rows whose field references a deleted row of s,
// mirroring ON DELETE CASCADE.
func (s *MemStore) Cascade(child *MemStore, field string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children = append(s.children, cascade{store: child, field: field})
}

// Detach removes a deleted row's id from child's array field, the way
// deleting a post drops it from every tag.
func (s *MemStore) Detach(child *MemStore, field string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.children = append(s.children, cascade{store: child, field: field, detach: true})
}

func (s *MemStore) Insert(ctx context.Context, attrs resource.Attrs) (resource.Attrs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := make(resource.Attrs, len(s.table.Columns)+1)
	for _, c := range s.table.Columns {
		if v, ok := attrs[c.Field]; ok {
			row[c.Field] = v
		} else if c.Default != nil {
			row[c.Field] = c.Default()
		} else {
			row[c.Field] = nil
		}
	}
	normalize(row)
	if s.conflicts(row, 0) {
		return nil, resource.ErrConflict
	}
	s.nextID++
	row["id"] = s.nextID
	s.rows[s.nextID] = row
	return row.Clone(), nil
}

func (s *MemStore) Get(ctx context.Context, id int64) (resource.Attrs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.live(id)
	if !ok {
		return nil, resource.ErrNotFound
	}
	return row.Clone(), nil
}

func (s *MemStore) Update(ctx context.Context, id int64, attrs resource.Attrs) (resource.Attrs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.live(id)
	if !ok {
		return nil, resource.ErrNotFound
	}
	next := row.Clone()
	for k, v := range attrs {
		if _, known := s.table.lookup(k); known && k != "id" {
			next[k] = v
		}
	}
	normalize(next)
	if s.conflicts(next, id) {
		return nil, resource.ErrConflict
	}
	s.rows[id] = next
	return next.Clone(), nil
}

func (s *MemStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	if _, ok := s.live(id); !ok {
		s.mu.Unlock()
		return resource.ErrNotFound
	}
	delete(s.rows, id)
	children := slices.Clone(s.children)
	s.mu.Unlock()

	notify(children, id)
	return nil
}

func notify(children []cascade, id int64) {
	for _, c := range children {
		if c.detach {
			c.store.detachWhere(c.field, id)
		} else {
			c.store.deleteWhere(c.field, id)
		}
	}
}

func (s *MemStore) detachWhere(field string, value int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, row := range s.rows {
		ids, ok := row[field].([]int64)
		if !ok || !slices.Contains(ids, value) {
			continue
		}
		next := row.Clone()
		next[field] = slices.DeleteFunc(slices.Clone(ids), func(v int64) bool { return v == value })
		s.rows[id] = next
	}
}

func (s *MemStore) deleteWhere(field string, value int64) {
	s.mu.Lock()
	var ids []int64
	for id, row := range s.rows {
		if equalValues(row[field], value) {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		delete(s.rows, id)
	}
	children := slices.Clone(s.children)
	s.mu.Unlock()

	for _, id := range ids {
		notify(children, id)
	}
}

func (s *MemStore) List(ctx context.Context, q resource.Query) ([]resource.Attrs, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []resource.Attrs
	for _, row := range s.rows {
		if !q.IncludeDeleted && s.deleted(row) {
			continue
		}
		if !matches(row, q.Filters) {
			continue
		}
		matched = append(matched, row)
	}

	ordering := q.Ordering
	if len(ordering) == 0 {
		ordering = []resource.Order{{Field: "id"}}
	}
	slices.SortStableFunc(matched, func(a, b resource.Attrs) int {
		for _, o := range ordering {
			c := compareValues(a[o.Field], b[o.Field])
			if o.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return compareValues(a["id"], b["id"])
	})

	total := len(matched)
	start := min(q.Offset, total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	out := make([]resource.Attrs, 0, end-start)
	for _, row := range matched[start:end] {
		out = append(out, row.Clone())
	}
	return out, total, nil
}

func (s *MemStore) Exists(ctx context.Context, field string, value any, excludeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, row := range s.rows {
		if id != excludeID && equalValues(row[field], value) {
			return true, nil
		}
	}
	return false, nil
}

// conflicts reports whether row repeats a unique column value of another
// row, soft-deleted rows included. NULLs never conflict.
func (s *MemStore) conflicts(row resource.Attrs, selfID int64) bool {
	for _, c := range s.table.Columns {
		if !c.Unique || row[c.Field] == nil {
			continue
		}
		for id, other := range s.rows {
			if id != selfID && equalValues(other[c.Field], row[c.Field]) {
				return true
			}
		}
	}
	return false
}

func (s *MemStore) live(id int64) (resource.Attrs, bool) {
	row, ok := s.rows[id]
	if !ok || s.deleted(row) {
		return nil, false
	}
	return row, true
}

func (s *MemStore) deleted(row resource.Attrs) bool {
	if s.table.SoftDelete == "" {
		return false
	}
	flag, _ := row[s.table.SoftDelete].(bool)
	return flag
}

func matches(row resource.Attrs, filters map[string]any) bool {
	for k, v := range filters {
		if ids, ok := row[k].([]int64); ok {
			id, _ := v.(int64)
			if !slices.Contains(ids, id) {
				return false
			}
			continue
		}
		if !equalValues(row[k], v) {
			return false
		}
	}
	return true
}
