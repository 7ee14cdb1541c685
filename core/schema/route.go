package schema

import (
	"fmt"
	"strings"
)

// RouteTemplate is a parsed route pattern. Literal segments match exactly;
// parameter segments like {id} bind the corresponding request segment by
// name. Matching never spans a slash.
type RouteTemplate struct {
	raw      string
	segments []routeSegment
}

type routeSegment struct {
	literal string
	param   string // non-empty for {name} segments
}

// ParseRoute parses a route template. Parameter names must be non-empty and
// unique within the template.
func ParseRoute(raw string) (RouteTemplate, error) {
	if !strings.HasPrefix(raw, "/") {
		return RouteTemplate{}, fmt.Errorf("route %q must start with /", raw)
	}
	t := RouteTemplate{raw: raw}
	seen := map[string]bool{}
	for _, seg := range splitPath(raw) {
		if strings.HasPrefix(seg, "{") || strings.HasSuffix(seg, "}") {
			name := strings.TrimSuffix(strings.TrimPrefix(seg, "{"), "}")
			if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") || name == "" || strings.ContainsAny(name, "{}") {
				return RouteTemplate{}, fmt.Errorf("route %q has malformed parameter segment %q", raw, seg)
			}
			if seen[name] {
				return RouteTemplate{}, fmt.Errorf("route %q binds parameter %q twice", raw, name)
			}
			seen[name] = true
			t.segments = append(t.segments, routeSegment{param: name})
			continue
		}
		if seg == "" {
			return RouteTemplate{}, fmt.Errorf("route %q has an empty segment", raw)
		}
		if strings.ContainsAny(seg, "{}") {
			return RouteTemplate{}, fmt.Errorf("route %q has malformed parameter segment %q", raw, seg)
		}
		t.segments = append(t.segments, routeSegment{literal: seg})
	}
	return t, nil
}

// String returns the template as declared.
func (t RouteTemplate) String() string { return t.raw }

// Params returns the parameter names in template order.
func (t RouteTemplate) Params() []string {
	var names []string
	for _, s := range t.segments {
		if s.param != "" {
			names = append(names, s.param)
		}
	}
	return names
}

// Shape returns the template with parameter names erased. Two templates
// claim the same route exactly when their shapes are equal.
func (t RouteTemplate) Shape() string {
	parts := make([]string, len(t.segments))
	for i, s := range t.segments {
		if s.param != "" {
			parts[i] = "{}"
		} else {
			parts[i] = s.literal
		}
	}
	return "/" + strings.Join(parts, "/")
}

// Match reports whether path matches the template segment by segment and
// returns the bound parameters. A trailing slash on the request path is
// tolerated; anything else must match exactly.
func (t RouteTemplate) Match(path string) (map[string]string, bool) {
	segs := splitPath(path)
	if len(segs) != len(t.segments) {
		return nil, false
	}
	var params map[string]string
	for i, want := range t.segments {
		got := segs[i]
		if want.param != "" {
			if got == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string, 2)
			}
			params[want.param] = got
			continue
		}
		if got != want.literal {
			return nil, false
		}
	}
	return params, true
}

func splitPath(p string) []string {
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimSuffix(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
