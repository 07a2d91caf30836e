package resource

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Project maps a snapshot to its response shape: identity link, id,
// readable declared fields and computed fields.
func (s *Schema) Project(ctx context.Context, req Request, snapshot Attrs) (map[string]any, error) {
	out := make(map[string]any, len(s.Fields)+len(s.Computed)+2)
	id := snapshot.ID()
	out["id"] = id
	if s.IdentityLink {
		out["url"] = Link(req.BaseURL, s.Name, id)
	}

	for _, f := range s.Fields {
		if f.WriteOnly {
			continue
		}
		out[f.Name] = s.render(req, f, snapshot[f.Name])
	}

	for _, c := range s.Computed {
		v, err := c.Func(ctx, req, snapshot)
		if err != nil {
			return nil, errors.Wrapf(err, "compute %s.%s", s.Name, c.Name)
		}
		out[c.Name] = v
	}
	return out, nil
}

// ProjectList projects snapshots preserving their order.
func (s *Schema) ProjectList(ctx context.Context, req Request, snapshots []Attrs) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(snapshots))
	for _, snap := range snapshots {
		p, err := s.Project(ctx, req, snap)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Schema) render(req Request, f Field, v any) any {
	if v == nil {
		return nil
	}
	switch f.Kind {
	case KindDate:
		if t, ok := v.(time.Time); ok {
			return t.Format(dateLayout)
		}
	case KindDateTime:
		if t, ok := v.(time.Time); ok {
			return t.Format(time.RFC3339)
		}
	case KindRef:
		if id, ok := v.(int64); ok && f.Link && f.Ref != nil {
			return Link(req.BaseURL, f.Ref.Resource, id)
		}
	case KindRefList:
		ids, _ := v.([]int64)
		if !f.Link || f.Ref == nil {
			return append([]int64{}, ids...)
		}
		links := make([]string, 0, len(ids))
		for _, id := range ids {
			links = append(links, Link(req.BaseURL, f.Ref.Resource, id))
		}
		return links
	}
	return v
}

// Restore re-coerces a snapshot that went through an untyped encoding
// (JSON with UseNumber) back to the declared field kinds.
func (s *Schema) Restore(attrs Attrs) (Attrs, error) {
	out := attrs.Clone()
	if raw, ok := out["id"]; ok && raw != nil {
		id, err := toInt(raw, "invalid id")
		if err != nil {
			return nil, errors.WithStack(err)
		}
		out["id"] = id
	}
	for _, f := range s.Fields {
		raw, ok := out[f.Name]
		if !ok || raw == nil {
			continue
		}
		v, err := coerce(f, raw)
		if err != nil {
			return nil, errors.Wrapf(err, "restore %s.%s", s.Name, f.Name)
		}
		out[f.Name] = v
	}
	if s.SoftDeleteField != "" {
		if raw, ok := out[s.SoftDeleteField]; ok && raw != nil {
			v, err := toBool(raw)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			out[s.SoftDeleteField] = v
		}
	}
	return out, nil
}
