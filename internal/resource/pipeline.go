package resource

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

const OrderingParam = "ordering"

// Pipeline runs acquire → validate → persist → project for one resource.
// It keeps no state between invocations.
type Pipeline struct {
	schema *Schema
	store  Store
	pager  Paginator
	policy Policy
}

type Option func(*Pipeline)

func WithPaginator(p Paginator) Option {
	return func(pl *Pipeline) { pl.pager = p }
}

func WithPolicy(p Policy) Option {
	return func(pl *Pipeline) {
		if p != nil {
			pl.policy = p
		}
	}
}

func New(schema *Schema, store Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		schema: schema,
		store:  store,
		pager:  Paginator{PageSize: 10, MaxPageSize: 100},
		policy: allowAll{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Schema() *Schema { return p.schema }

func (p *Pipeline) Store() Store { return p.store }

// Project exposes output projection for custom actions.
func (p *Pipeline) Project(ctx context.Context, req Request, snapshot Attrs) (map[string]any, error) {
	return p.schema.Project(ctx, req, snapshot)
}

func (p *Pipeline) List(ctx context.Context, req Request) (*Page, error) {
	if err := p.policy.Allow(ctx, req.Actor, ActionList); err != nil {
		return nil, err
	}
	q, err := p.query(req.Query)
	if err != nil {
		return nil, err
	}
	page, size, err := p.pager.Resolve(req.Query)
	if err != nil {
		return nil, err
	}
	q.Offset = (page - 1) * size
	q.Limit = size

	items, total, err := p.store.List(ctx, q)
	if err != nil {
		return nil, p.storeErr("list", 0, err)
	}
	last := lastPage(total, size)
	if page > last {
		return nil, &NotFoundError{Resource: p.schema.Name, Detail: "Invalid page."}
	}

	results, err := p.schema.ProjectList(ctx, req, items)
	if err != nil {
		return nil, err
	}
	out := &Page{Count: total, Results: results}
	if page < last {
		out.Next = pageLink(req, page+1)
	}
	if page > 1 {
		out.Previous = pageLink(req, page-1)
	}
	return out, nil
}

func (p *Pipeline) Create(ctx context.Context, req Request) (map[string]any, error) {
	if err := p.policy.Allow(ctx, req.Actor, ActionCreate); err != nil {
		return nil, err
	}
	input := Acquire(p.schema, req.Payload, ModeCreate)
	attrs, err := validate(ctx, p.schema, p.store, input, ModeCreate, nil)
	if err != nil {
		return nil, err
	}
	if err := p.beforeSave(ctx, req, attrs, ModeCreate); err != nil {
		return nil, err
	}
	snapshot, err := p.store.Insert(ctx, attrs)
	if err != nil {
		return nil, p.storeErr("insert", 0, err)
	}
	return p.schema.Project(ctx, req, snapshot)
}

func (p *Pipeline) Retrieve(ctx context.Context, req Request) (map[string]any, error) {
	obj, err := p.object(ctx, req, ActionRetrieve)
	if err != nil {
		return nil, err
	}
	return p.schema.Project(ctx, req, obj)
}

// Update replaces the resource (partial=false, every required field must
// be supplied) or merges the supplied fields into it (partial=true).
func (p *Pipeline) Update(ctx context.Context, req Request, partial bool) (map[string]any, error) {
	action, mode := ActionUpdate, ModeReplace
	if partial {
		action, mode = ActionPartialUpdate, ModePartial
	}
	existing, err := p.object(ctx, req, action)
	if err != nil {
		return nil, err
	}
	input := Acquire(p.schema, req.Payload, mode)
	attrs, err := validate(ctx, p.schema, p.store, input, mode, existing)
	if err != nil {
		return nil, err
	}
	if err := p.beforeSave(ctx, req, attrs, mode); err != nil {
		return nil, err
	}
	if len(attrs) == 0 {
		return p.schema.Project(ctx, req, existing)
	}
	snapshot, err := p.store.Update(ctx, req.ID, attrs)
	if err != nil {
		return nil, p.storeErr("update", req.ID, err)
	}
	return p.schema.Project(ctx, req, snapshot)
}

func (p *Pipeline) Destroy(ctx context.Context, req Request) error {
	if _, err := p.object(ctx, req, ActionDestroy); err != nil {
		return err
	}
	if err := p.store.Delete(ctx, req.ID); err != nil {
		return p.storeErr("delete", req.ID, err)
	}
	return nil
}

// Archive sets the soft-delete flag. Archived resources disappear from
// default queries.
func (p *Pipeline) Archive(ctx context.Context, req Request) error {
	if p.schema.SoftDeleteField == "" {
		return errors.Errorf("%s: soft delete not supported", p.schema.Name)
	}
	if _, err := p.object(ctx, req, ActionArchive); err != nil {
		return err
	}
	if _, err := p.store.Update(ctx, req.ID, Attrs{p.schema.SoftDeleteField: true}); err != nil {
		return p.storeErr("archive", req.ID, err)
	}
	return nil
}

// Latest returns the most recently created resource.
func (p *Pipeline) Latest(ctx context.Context, req Request) (map[string]any, error) {
	if err := p.policy.Allow(ctx, req.Actor, ActionRetrieve); err != nil {
		return nil, err
	}
	items, _, err := p.store.List(ctx, Query{Ordering: []Order{{Field: "id", Desc: true}}, Limit: 1})
	if err != nil {
		return nil, p.storeErr("list", 0, err)
	}
	if len(items) == 0 {
		return nil, &NotFoundError{Resource: p.schema.Name}
	}
	if err := p.policy.AllowObject(ctx, req.Actor, ActionRetrieve, items[0]); err != nil {
		return nil, err
	}
	return p.schema.Project(ctx, req, items[0])
}

func (p *Pipeline) object(ctx context.Context, req Request, action Action) (Attrs, error) {
	if err := p.policy.Allow(ctx, req.Actor, action); err != nil {
		return nil, err
	}
	obj, err := p.store.Get(ctx, req.ID)
	if err != nil {
		return nil, p.storeErr("get", req.ID, err)
	}
	if err := p.policy.AllowObject(ctx, req.Actor, action, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func (p *Pipeline) beforeSave(ctx context.Context, req Request, attrs Attrs, mode Mode) error {
	if p.schema.BeforeSave == nil {
		return nil
	}
	if err := p.schema.BeforeSave(ctx, req, attrs, mode); err != nil {
		var (
			verr *ValidationError
			aerr *AuthorizationError
		)
		if errors.As(err, &verr) {
			return verr
		}
		if errors.As(err, &aerr) {
			return aerr
		}
		return errors.Wrapf(err, "%s: before save", p.schema.Name)
	}
	return nil
}

func (p *Pipeline) storeErr(op string, id int64, err error) error {
	if errors.Is(err, ErrNotFound) {
		return &NotFoundError{Resource: p.schema.Name, ID: id}
	}
	if errors.Is(err, ErrConflict) {
		return FieldError(NonFieldErrors, p.schema.label()+" with these values already exists.")
	}
	return &PersistenceError{Resource: p.schema.Name, Op: op, Err: err}
}

// query builds filters and ordering from query parameters.
func (p *Pipeline) query(values url.Values) (Query, error) {
	q := Query{}
	verr := &ValidationError{}
	for _, f := range p.schema.Fields {
		if !f.Filterable {
			continue
		}
		raw := values.Get(f.Name)
		if raw == "" {
			continue
		}
		var (
			v   any
			err error
		)
		if f.Kind == KindRefList {
			// a list field filters on membership of one id
			v, err = toRefID(raw, f.refResource())
		} else {
			v, err = coerce(f, raw)
		}
		if err != nil {
			verr.Add(f.Name, err.Error())
			continue
		}
		if q.Filters == nil {
			q.Filters = make(map[string]any)
		}
		q.Filters[f.Name] = v
	}
	if !verr.empty() {
		return Query{}, verr
	}

	for _, term := range strings.Split(values.Get(OrderingParam), ",") {
		term = strings.TrimSpace(term)
		name := strings.TrimPrefix(term, "-")
		if name == "" || !p.orderable(name) {
			continue
		}
		q.Ordering = append(q.Ordering, Order{Field: name, Desc: strings.HasPrefix(term, "-")})
	}
	if len(q.Ordering) == 0 {
		q.Ordering = []Order{{Field: "id"}}
	}
	return q, nil
}

func (p *Pipeline) orderable(name string) bool {
	if name == "id" {
		return true
	}
	for _, f := range p.schema.OrderingFields {
		if f == name {
			return true
		}
	}
	return false
}
