package resource

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// Attrs is the internal snapshot of a resource: field name to typed value.
type Attrs map[string]any

// ID returns the snapshot identifier, 0 when unset.
func (a Attrs) ID() int64 {
	id, _ := a["id"].(int64)
	return id
}

// Clone returns a shallow copy.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindDate
	KindDateTime
	KindRef
	// KindRefList holds []int64 ids of another resource (many-to-many).
	KindRefList
)

// Validator checks an already coerced value. The error text is reported
// to the caller as is.
type Validator func(value any) error

// Relation points a Ref field at another resource.
type Relation struct {
	Resource string
	Store    Store
}

type Field struct {
	Name       string
	Kind       Kind
	Required   bool
	ReadOnly   bool
	WriteOnly  bool
	Nullable   bool
	AllowBlank bool
	MaxLength  int
	MinValue   *int64
	MaxValue   *int64
	Choices    []any
	Default    any
	Unique     bool
	Filterable bool
	// Clean rewrites the coerced value before rules, validators and the
	// uniqueness check see it.
	Clean      func(value any) any
	Validators []Validator

	// Ref and RefList fields resolve against Ref.Store during validation
	// and render as hyperlinks when Link is set.
	Ref  *Relation
	Link bool
}

func (f Field) refResource() string {
	if f.Ref == nil {
		return ""
	}
	return f.Ref.Resource
}

func (f Field) writable() bool { return !f.ReadOnly }

// ComputedField derives a read-only output value from a snapshot.
type ComputedField struct {
	Name string
	Func func(ctx context.Context, req Request, snapshot Attrs) (any, error)
}

type Schema struct {
	// Name doubles as the URL prefix of the resource, e.g. "books".
	Name   string
	Label  string
	Fields []Field

	Computed        []ComputedField
	IdentityLink    bool
	SoftDeleteField string
	OrderingFields  []string

	// Validate runs after per-field validation succeeded. existing is nil
	// on create.
	Validate func(ctx context.Context, attrs Attrs, existing Attrs) error

	// BeforeSave may rewrite validated attrs right before persistence. req
	// carries the caller, e.g. to stamp an owner on create.
	BeforeSave func(ctx context.Context, req Request, attrs Attrs, mode Mode) error
}

func (s *Schema) label() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Name
}

// Field returns the declared field by name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Link builds the hyperlink of resource id under base, in the same form
// the routes are registered with: no trailing slash.
func Link(base, resource string, id int64) string {
	return strings.TrimRight(base, "/") + "/" + resource + "/" + strconv.FormatInt(id, 10)
}

type Mode int

const (
	ModeCreate Mode = iota
	ModeReplace
	ModePartial
)

type Action string

const (
	ActionList          Action = "list"
	ActionRetrieve      Action = "retrieve"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDestroy       Action = "destroy"
	ActionArchive       Action = "archive"
)

// Safe reports whether the action only reads.
func (a Action) Safe() bool {
	return a == ActionList || a == ActionRetrieve
}

// Actor is the authenticated caller. A nil *Actor is anonymous.
type Actor struct {
	ID       int64
	Username string
	IsStaff  bool
	Scheme   string
}

// Request carries everything one pipeline invocation needs.
type Request struct {
	ID      int64
	Payload map[string]any
	Query   url.Values
	// BaseURL is the absolute API root used for hyperlinks, e.g.
	// "http://localhost:8080/api/v1".
	BaseURL string
	// Path is the request path relative to BaseURL, used for page links.
	Path  string
	Actor *Actor
}
