package cache

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strconv"

	"bookshelf/internal/resource"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// Store is a read-through cache in front of a resource.Store. Get and List
// results are cached under "<resource>:get:<id>" and "<resource>:list:<hash>";
// any write drops every key of the resource and of its dependents.
type Store struct {
	next       resource.Store
	schema     *resource.Schema
	backend    Backend
	dependents []string
	sf         singleflight.Group
}

// NewStore wraps next. dependents name resources whose cached rows may be
// changed by writes to this one, e.g. through cascading deletes.
func NewStore(next resource.Store, schema *resource.Schema, backend Backend, dependents ...string) *Store {
	return &Store{next: next, schema: schema, backend: backend, dependents: dependents}
}

var _ resource.Store = (*Store)(nil)

type listEntry struct {
	Items []resource.Attrs `json:"items"`
	Total int              `json:"total"`
}

func (s *Store) Get(ctx context.Context, id int64) (resource.Attrs, error) {
	key := s.schema.Name + ":get:" + strconv.FormatInt(id, 10)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		var cached resource.Attrs
		if s.load(ctx, key, &cached) {
			if restored, err := s.schema.Restore(cached); err == nil {
				return restored, nil
			}
		}
		attrs, err := s.next.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		s.save(ctx, key, attrs)
		return attrs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(resource.Attrs).Clone(), nil
}

func (s *Store) List(ctx context.Context, q resource.Query) ([]resource.Attrs, int, error) {
	key, err := s.listKey(q)
	if err != nil {
		return s.next.List(ctx, q)
	}
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		var cached listEntry
		if s.load(ctx, key, &cached) {
			if entry, err := s.restoreList(cached); err == nil {
				return entry, nil
			}
		}
		items, total, err := s.next.List(ctx, q)
		if err != nil {
			return nil, err
		}
		entry := listEntry{Items: items, Total: total}
		s.save(ctx, key, entry)
		return entry, nil
	})
	if err != nil {
		return nil, 0, err
	}
	entry := v.(listEntry)
	items := make([]resource.Attrs, len(entry.Items))
	for i, it := range entry.Items {
		items[i] = it.Clone()
	}
	return items, entry.Total, nil
}

func (s *Store) Insert(ctx context.Context, attrs resource.Attrs) (resource.Attrs, error) {
	out, err := s.next.Insert(ctx, attrs)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return out, nil
}

func (s *Store) Update(ctx context.Context, id int64, attrs resource.Attrs) (resource.Attrs, error) {
	out, err := s.next.Update(ctx, id, attrs)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := s.next.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Exists always reads through: uniqueness checks must see every write.
func (s *Store) Exists(ctx context.Context, field string, value any, excludeID int64) (bool, error) {
	return s.next.Exists(ctx, field, value, excludeID)
}

func (s *Store) listKey(q resource.Query) (string, error) {
	b, err := json.Marshal(q)
	if err != nil {
		return "", errors.WithStack(err)
	}
	sum := sha1.Sum(b)
	return s.schema.Name + ":list:" + hex.EncodeToString(sum[:]), nil
}

func (s *Store) restoreList(entry listEntry) (listEntry, error) {
	for i, it := range entry.Items {
		restored, err := s.schema.Restore(it)
		if err != nil {
			return listEntry{}, err
		}
		entry.Items[i] = restored
	}
	return entry, nil
}

// load decodes a cached entry into dst. Backend failures count as misses.
func (s *Store) load(ctx context.Context, key string, dst any) bool {
	b, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		slog.WarnContext(ctx, "cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		slog.WarnContext(ctx, "cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) save(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.WarnContext(ctx, "cache encode failed", "key", key, "error", err)
		return
	}
	if err := s.backend.Set(ctx, key, b); err != nil {
		slog.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
}

func (s *Store) invalidate(ctx context.Context) {
	for _, name := range append([]string{s.schema.Name}, s.dependents...) {
		if err := s.backend.DeletePrefix(ctx, name+":"); err != nil {
			slog.WarnContext(ctx, "cache invalidation failed", "resource", name, "error", err)
		}
	}
}
