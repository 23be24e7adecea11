package synth

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	errParam      = errors.New("invalid parameter")
	reGameIDExact = regexp.MustCompile(`^\d{5,10}$`)
)

// bind resolves a template's parameters from raw values. In strict mode
// unknown or invalid values are errors; otherwise they are dropped and the
// default applies. used counts parameters taken from raw.
func bind(t Template, raw map[string]any, strict bool) (params map[string]any, used int, missing []string, err error) {
	if strict {
		for name := range raw {
			if _, ok := t.param(name); !ok {
				return nil, 0, nil, fmt.Errorf("%w: %s has no parameter %q", errParam, t.Name, name)
			}
		}
	}

	params = make(map[string]any, len(t.Params))
	for _, ps := range t.Params {
		v, present := raw[ps.Name]
		if present && v != nil {
			cv, cerr := coerce(ps, v)
			switch {
			case cerr == nil:
				params[ps.Name] = cv
				used++
				continue
			case strict:
				return nil, 0, nil, cerr
			}
		}
		if ps.Required {
			missing = append(missing, ps.Name)
			continue
		}
		if ps.Default != nil {
			dv, derr := coerce(ps, ps.Default)
			if derr != nil {
				return nil, 0, nil, fmt.Errorf("%w: default of %s.%s: %w", ErrInvalidLibrary, t.Name, ps.Name, derr)
			}
			params[ps.Name] = dv
		}
	}
	return params, used, missing, nil
}

// rejects reports whether raw carries a value for one of t's parameters that
// the parameter refuses. Such a question asked for something the template
// cannot answer, so falling back to the default would answer another one.
func rejects(t Template, raw map[string]any) bool {
	for _, ps := range t.Params {
		v, ok := raw[ps.Name]
		if !ok || v == nil {
			continue
		}
		if _, err := coerce(ps, v); err != nil {
			return true
		}
	}
	return false
}

// covers reports whether t declares every parameter found in the question.
// A template that would ignore a named player, game, margin or team answers
// a broader question than the one asked.
func covers(t Template, raw map[string]any) bool {
	for name := range raw {
		if _, ok := t.param(name); !ok {
			return false
		}
	}
	return true
}

func coerce(ps ParamSpec, v any) (any, error) {
	switch ps.Type {
	case ParamInt:
		n, err := toInt(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", errParam, ps.Name, err)
		}
		if ps.Min != nil && n < *ps.Min {
			return nil, fmt.Errorf("%w: %s=%d below %d", errParam, ps.Name, n, *ps.Min)
		}
		if ps.Max != nil && n > *ps.Max {
			return nil, fmt.Errorf("%w: %s=%d above %d", errParam, ps.Name, n, *ps.Max)
		}
		return n, nil
	case ParamString:
		s, ok := v.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("%w: %s must be a non-empty string", errParam, ps.Name)
		}
		return strings.TrimSpace(s), nil
	case ParamGameList:
		ids, err := toGameList(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", errParam, ps.Name, err)
		}
		return ids, nil
	}
	return nil, fmt.Errorf("%w: %s has unknown type %q", errParam, ps.Name, ps.Type)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not a whole number", n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return i, nil
	}
	return 0, fmt.Errorf("unsupported value %T", v)
}

func toGameList(v any) ([]string, error) {
	var raw []string
	switch x := v.(type) {
	case string:
		raw = strings.FieldsFunc(x, func(r rune) bool { return r == ',' || r == ' ' })
	case []string:
		raw = x
	case []any:
		for _, item := range x {
			switch it := item.(type) {
			case string:
				raw = append(raw, it)
			case float64, int, int64:
				n, err := toInt(it)
				if err != nil {
					return nil, err
				}
				raw = append(raw, strconv.Itoa(n))
			default:
				return nil, fmt.Errorf("unsupported game id %T", item)
			}
		}
	case float64, int, int64:
		n, err := toInt(x)
		if err != nil {
			return nil, err
		}
		raw = []string{strconv.Itoa(n)}
	default:
		return nil, fmt.Errorf("unsupported value %T", v)
	}

	if len(raw) == 0 {
		return nil, errors.New("no game ids")
	}
	out := make([]string, 0, len(raw))
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if !reGameIDExact.MatchString(id) {
			return nil, fmt.Errorf("%q is not a game id", id)
		}
		out = append(out, canonicalGameID(id))
	}
	return out, nil
}
