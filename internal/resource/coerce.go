package resource

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var dateLayouts = []string{
	dateLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

type coerceError string

func (e coerceError) Error() string { return string(e) }

// coerce converts raw input into the Go type of f's kind.
func coerce(f Field, raw any) (any, error) {
	switch f.Kind {
	case KindString:
		return toString(raw)
	case KindInt:
		return toInt(raw, "A valid integer is required.")
	case KindBool:
		return toBool(raw)
	case KindDate:
		t, err := toTime(raw, "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
		if err != nil {
			return nil, err
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	case KindDateTime:
		t, err := toTime(raw, "Datetime has wrong format. Use RFC3339.")
		if err != nil {
			return nil, err
		}
		return t.UTC(), nil
	case KindRef:
		return toRefID(raw, f.refResource())
	case KindRefList:
		return toRefList(raw, f.refResource())
	}
	return nil, coerceError(fmt.Sprintf("unsupported field kind %d", f.Kind))
}

func toString(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case json.Number:
		return v.String(), nil
	case int, int16, int32, int64:
		return fmt.Sprint(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}
	return nil, coerceError("Not a valid string.")
}

func toInt(raw any, msg string) (int64, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int64(v), nil
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, coerceError(msg)
}

func toBool(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on", "t", "y":
			return true, nil
		case "false", "0", "no", "off", "f", "n":
			return false, nil
		}
	default:
		if n, err := toInt(raw, ""); err == nil && (n == 0 || n == 1) {
			return n == 1, nil
		}
	}
	return nil, coerceError("Must be a valid boolean.")
}

func toTime(raw any, msg string) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, coerceError(msg)
}

// toRefID accepts a primary key or a hyperlink ending in the primary key.
// A hyperlink must point into resource; an empty resource skips the check.
func toRefID(raw any, resource string) (int64, error) {
	const msg = "Incorrect type. Expected pk value or hyperlink."
	if s, ok := raw.(string); ok && strings.Contains(s, "/") {
		u, err := url.Parse(strings.TrimSpace(s))
		if err != nil {
			return 0, coerceError(msg)
		}
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		if resource != "" && (len(segments) < 2 || segments[len(segments)-2] != resource) {
			return 0, coerceError("Invalid hyperlink - Incorrect URL match.")
		}
		raw = segments[len(segments)-1]
	}
	return toInt(raw, msg)
}

// toRefList accepts a list of primary keys or hyperlinks. A lone value is
// a list of one. Duplicates are dropped, order is kept.
func toRefList(raw any, resource string) ([]int64, error) {
	var items []any
	switch v := raw.(type) {
	case []int64:
		for _, id := range v {
			items = append(items, id)
		}
	case []any:
		items = v
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	default:
		items = []any{raw}
	}

	out := make([]int64, 0, len(items))
	for _, item := range items {
		id, err := toRefID(item, resource)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out, nil
}
