package render

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/pagesmith/internal/util/sets"
)

var (
	slugStrip    = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s\p{Z}-]`)
	slugCollapse = regexp.MustCompile(`[-\s\p{Z}]+`)
)

// Slugify normalises text (NFKC), drops everything but word characters,
// whitespace and hyphens, lowercases it and collapses runs of hyphens and
// whitespace into delimiter.
func Slugify(text, delimiter string) string {
	text = norm.NFKC.String(text)
	text = strings.TrimSpace(slugStrip.ReplaceAllString(text, ""))
	return slugCollapse.ReplaceAllLiteralString(strings.ToLower(text), delimiter)
}

// Dig walks a dotted path through nested mappings. Missing keys yield an
// empty mapping; a non-mapping value in the middle of the path is an error.
func Dig(data any, dotPath string) (any, error) {
	value := data
	for _, chunk := range strings.Split(dotPath, ".") {
		next, ok, err := mapGet(value, chunk)
		if err != nil {
			return nil, fmt.Errorf("dig %q: %w", dotPath, err)
		}
		if !ok {
			next = map[string]any{}
		}
		value = next
	}
	return value, nil
}

// Uniq collects the distinct values found at dotPath in each mapping of list,
// in order of first appearance. Items whose value is not a list are skipped.
func Uniq(list any, dotPath string) []any {
	out := []any{}
	seen := sets.New[string]()
	each(list, func(item any) {
		values, err := Dig(item, dotPath)
		if err != nil {
			return
		}
		each(values, func(v any) {
			if seen.Add(fmt.Sprintf("%T:%#v", v, v)) {
				out = append(out, v)
			}
		})
	})
	return out
}

// Lookup returns data[key], falling back to def or, when def is absent, to key.
func Lookup(data any, key string, def ...any) (any, error) {
	v, ok, err := mapGet(data, key)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", key, err)
	}
	if ok {
		return v, nil
	}
	if len(def) > 0 {
		return def[0], nil
	}
	return key, nil
}

// Dict builds a mapping from alternating keys and values.
func Dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	out := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		k, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		out[k] = pairs[i+1]
	}
	return out, nil
}

// List builds a list from its arguments.
func List(items ...any) []any {
	if items == nil {
		return []any{}
	}
	return items
}

func mapGet(data any, key string) (any, bool, error) {
	if data == nil {
		return nil, false, nil
	}
	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Map {
		return nil, false, fmt.Errorf("%T is not a mapping", data)
	}
	kt := rv.Type().Key()
	var k reflect.Value
	switch {
	case kt.Kind() == reflect.String:
		k = reflect.ValueOf(key).Convert(kt)
	case kt.Kind() == reflect.Interface:
		k = reflect.ValueOf(key)
	default:
		return nil, false, nil
	}
	v := rv.MapIndex(k)
	if !v.IsValid() {
		return nil, false, nil
	}
	return v.Interface(), true, nil
}

func each(list any, fn func(any)) {
	if list == nil {
		return
	}
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return
	}
	for i := 0; i < rv.Len(); i++ {
		fn(rv.Index(i).Interface())
	}
}
