package resource

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// validate runs per-field then cross-field validation over normalized
// input. It only reads from storage. existing is the current snapshot for
// updates, nil on create.
func validate(ctx context.Context, schema *Schema, store Store, input map[string]any, mode Mode, existing Attrs) (Attrs, error) {
	verr := &ValidationError{}
	attrs := make(Attrs, len(input))
	excludeID := existing.ID()

	for _, f := range schema.Fields {
		if !f.writable() {
			continue
		}
		raw, present := input[f.Name]
		if !present {
			if f.Required && mode != ModePartial {
				verr.Add(f.Name, "This field is required.")
			}
			continue
		}
		value, msg, err := validateField(ctx, f, raw)
		if err != nil {
			return nil, err
		}
		if msg != "" {
			verr.Add(f.Name, msg)
			continue
		}
		if f.Unique && value != nil {
			taken, err := store.Exists(ctx, f.Name, value, excludeID)
			if err != nil {
				return nil, &PersistenceError{Resource: schema.Name, Op: "exists", Err: err}
			}
			if taken {
				verr.Add(f.Name, fmt.Sprintf("%s with this %s already exists.", schema.label(), f.Name))
				continue
			}
		}
		attrs[f.Name] = value
	}
	if !verr.empty() {
		return nil, verr
	}

	if schema.Validate != nil {
		if err := schema.Validate(ctx, attrs, existing); err != nil {
			var fe *ValidationError
			if errors.As(err, &fe) {
				return nil, fe
			}
			return nil, FieldError(NonFieldErrors, err.Error())
		}
	}
	return attrs, nil
}

// validateField returns the coerced value, or a caller-facing message.
// A non-nil error is an infrastructure failure.
func validateField(ctx context.Context, f Field, raw any) (any, string, error) {
	if raw == nil {
		if f.Nullable {
			return nil, "", nil
		}
		return nil, "This field may not be null.", nil
	}

	value, err := coerce(f, raw)
	if err != nil {
		return nil, err.Error(), nil
	}
	if f.Clean != nil {
		value = f.Clean(value)
	}

	switch v := value.(type) {
	case string:
		if v == "" && !f.AllowBlank {
			return nil, "This field may not be blank.", nil
		}
		if f.MaxLength > 0 && utf8.RuneCountInString(v) > f.MaxLength {
			return nil, fmt.Sprintf("Ensure this field has no more than %d characters.", f.MaxLength), nil
		}
	case int64:
		if f.Kind == KindInt {
			if f.MinValue != nil && v < *f.MinValue {
				return nil, fmt.Sprintf("Ensure this value is greater than or equal to %d.", *f.MinValue), nil
			}
			if f.MaxValue != nil && v > *f.MaxValue {
				return nil, fmt.Sprintf("Ensure this value is less than or equal to %d.", *f.MaxValue), nil
			}
		}
	}

	if len(f.Choices) > 0 && !containsChoice(f.Choices, value) {
		return nil, fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(raw)), nil
	}

	for _, fn := range f.Validators {
		if err := fn(value); err != nil {
			return nil, err.Error(), nil
		}
	}

	if f.Ref != nil && f.Ref.Store != nil {
		var ids []int64
		switch v := value.(type) {
		case int64:
			ids = []int64{v}
		case []int64:
			ids = v
		}
		for _, id := range ids {
			if _, err := f.Ref.Store.Get(ctx, id); err != nil {
				if errors.Is(err, ErrNotFound) {
					return nil, fmt.Sprintf("Invalid pk \"%d\" - related resource not found.", id), nil
				}
				return nil, "", &PersistenceError{Resource: f.Ref.Resource, Op: "get", Err: err}
			}
		}
	}
	return value, "", nil
}

func containsChoice(choices []any, value any) bool {
	for _, c := range choices {
		if c == value {
			return true
		}
		// Integer choices may be declared with untyped constants.
		if n, ok := c.(int); ok {
			if v, ok := value.(int64); ok && int64(n) == v {
				return true
			}
		}
	}
	return false
}
