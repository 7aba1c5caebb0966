// Package match evaluates MongoDB-style filter trees against single
// records. It is a generic document-matching capability: it owns the
// matching algorithm but not the filter tree's construction, so it can
// be reused outside the query pipeline.
//
// Supported operators: $eq $ne $gt $gte $lt $lte $in $nin $all $exists
// $mod $regex (+$options) $size $within ($box/$polygon) and the
// combinators $and/$or/$nor with implicit AND across sibling fields.
// Unknown operators never match; callers that must not silently degrade
// (offline evaluation) gate on the criteria's offline-support check
// before matching.
package match

import (
	"math"
	"regexp"
	"strings"
)

// Matches reports whether record satisfies the filter tree.
//
// Combinator semantics: sibling fields AND together, $and requires all
// sub-trees to match, $or at least one, $nor none. A bare (non-map)
// constraint value is an implicit equality.
func Matches(filter map[string]any, record map[string]any) bool {
	for key, cond := range filter {
		switch key {
		case "$and":
			subs, ok := asList(cond)
			if !ok {
				return false
			}
			for _, sub := range subs {
				tree, ok := sub.(map[string]any)
				if !ok || !Matches(tree, record) {
					return false
				}
			}
		case "$or":
			subs, ok := asList(cond)
			if !ok {
				return false
			}
			matched := false
			for _, sub := range subs {
				if tree, ok := sub.(map[string]any); ok && Matches(tree, record) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
		case "$nor":
			subs, ok := asList(cond)
			if !ok {
				return false
			}
			for _, sub := range subs {
				if tree, ok := sub.(map[string]any); ok && Matches(tree, record) {
					return false
				}
			}
		default:
			val, exists := record[key]
			ops, ok := cond.(map[string]any)
			if !ok {
				if !exists || !Equal(val, cond) {
					return false
				}
				continue
			}
			if !matchField(val, exists, ops) {
				return false
			}
		}
	}
	return true
}

// matchField applies a field's operator map. Every operator must hold.
// A record value that is a list satisfies $eq/$in/range operators when
// any element does, mirroring the remote store's array semantics.
func matchField(val any, exists bool, ops map[string]any) bool {
	for op, expected := range ops {
		switch op {
		case "$eq":
			if !exists || !equalOrContains(val, expected) {
				return false
			}
		case "$ne":
			// Missing fields satisfy $ne.
			if exists && equalOrContains(val, expected) {
				return false
			}
		case "$gt":
			if !exists || !rangeMatch(val, expected, func(c int) bool { return c > 0 }) {
				return false
			}
		case "$gte":
			if !exists || !rangeMatch(val, expected, func(c int) bool { return c >= 0 }) {
				return false
			}
		case "$lt":
			if !exists || !rangeMatch(val, expected, func(c int) bool { return c < 0 }) {
				return false
			}
		case "$lte":
			if !exists || !rangeMatch(val, expected, func(c int) bool { return c <= 0 }) {
				return false
			}
		case "$in":
			if !exists || !inList(val, expected) {
				return false
			}
		case "$nin":
			// Missing fields satisfy $nin.
			if exists && inList(val, expected) {
				return false
			}
		case "$all":
			if !exists || !containsAll(val, expected) {
				return false
			}
		case "$exists":
			flag, ok := expected.(bool)
			if !ok {
				return false
			}
			if exists != flag {
				return false
			}
		case "$mod":
			if !exists || !modMatch(val, expected) {
				return false
			}
		case "$regex":
			pattern, ok := expected.(string)
			if !ok {
				return false
			}
			options, _ := ops["$options"].(string)
			if !exists || !regexMatch(val, pattern, options) {
				return false
			}
		case "$options":
			// Modifier consumed by $regex.
		case "$size":
			if !exists || !sizeMatch(val, expected) {
				return false
			}
		case "$within":
			if !exists || !withinMatch(val, expected) {
				return false
			}
		case "$maxDistance":
			// Modifier for $nearSphere; nothing to check standalone.
		default:
			// Unknown operators ($nearSphere included) never match.
			return false
		}
	}
	return true
}

// equalOrContains reports Equal(val, expected), or membership when the
// record value is a list and the expected value is a scalar.
func equalOrContains(val, expected any) bool {
	if Equal(val, expected) {
		return true
	}
	elems, ok := asList(val)
	if !ok {
		return false
	}
	if _, expectedIsList := asList(expected); expectedIsList {
		return false
	}
	for _, elem := range elems {
		if Equal(elem, expected) {
			return true
		}
	}
	return false
}

func rangeMatch(val, bound any, accept func(int) bool) bool {
	if c, ok := Ordered(val, bound); ok {
		return accept(c)
	}
	elems, ok := asList(val)
	if !ok {
		return false
	}
	for _, elem := range elems {
		if c, ok := Ordered(elem, bound); ok && accept(c) {
			return true
		}
	}
	return false
}

func inList(val, expected any) bool {
	list, ok := asList(expected)
	if !ok {
		return false
	}
	for _, candidate := range list {
		if equalOrContains(val, candidate) {
			return true
		}
	}
	return false
}

func containsAll(val, expected any) bool {
	want, ok := asList(expected)
	if !ok {
		return false
	}
	for _, candidate := range want {
		if !equalOrContains(val, candidate) {
			return false
		}
	}
	return true
}

func modMatch(val, expected any) bool {
	args, ok := asList(expected)
	if !ok || len(args) == 0 {
		return false
	}
	divisor, ok := toFloat(args[0])
	if !ok || divisor == 0 {
		return false
	}
	remainder := 0.0
	if len(args) > 1 {
		remainder, ok = toFloat(args[1])
		if !ok {
			return false
		}
	}
	v, ok := toFloat(val)
	if !ok {
		return false
	}
	return math.Mod(v, divisor) == remainder
}

// regexMatch translates wire $options flags to Go inline flags. The
// extended flag (x) has no RE2 counterpart and is dropped.
func regexMatch(val any, pattern, options string) bool {
	s, ok := val.(string)
	if !ok {
		return false
	}
	var flags strings.Builder
	for _, r := range options {
		switch r {
		case 'i', 'm', 's':
			flags.WriteRune(r)
		}
	}
	if flags.Len() > 0 {
		pattern = "(?" + flags.String() + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

func sizeMatch(val, expected any) bool {
	n, ok := toFloat(expected)
	if !ok {
		return false
	}
	elems, ok := asList(val)
	if !ok {
		return false
	}
	return float64(len(elems)) == n
}

// withinMatch handles $within: {$box: [bl, tr]} and
// {$polygon: [p1, ...]} against a [lng, lat] record value.
func withinMatch(val, expected any) bool {
	shape, ok := expected.(map[string]any)
	if !ok {
		return false
	}
	lng, lat, ok := pointOf(val)
	if !ok {
		return false
	}
	if box, present := shape["$box"]; present {
		corners, ok := asList(box)
		if !ok || len(corners) != 2 {
			return false
		}
		x1, y1, ok1 := pointOf(corners[0])
		x2, y2, ok2 := pointOf(corners[1])
		if !ok1 || !ok2 {
			return false
		}
		return lng >= math.Min(x1, x2) && lng <= math.Max(x1, x2) &&
			lat >= math.Min(y1, y2) && lat <= math.Max(y1, y2)
	}
	if poly, present := shape["$polygon"]; present {
		points, ok := asList(poly)
		if !ok || len(points) == 0 {
			return false
		}
		return pointInPolygon(lng, lat, points)
	}
	return false
}

func pointOf(v any) (lng, lat float64, ok bool) {
	elems, isList := asList(v)
	if !isList || len(elems) < 2 {
		return 0, 0, false
	}
	lng, ok = toFloat(elems[0])
	if !ok {
		return 0, 0, false
	}
	lat, ok = toFloat(elems[1])
	if !ok {
		return 0, 0, false
	}
	return lng, lat, true
}

// pointInPolygon ray-casts along the longitude axis. Points on an edge
// count as inside.
func pointInPolygon(lng, lat float64, vertices []any) bool {
	n := len(vertices)
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi, ok1 := pointOf(vertices[i])
		xj, yj, ok2 := pointOf(vertices[j])
		if !ok1 || !ok2 {
			return false
		}
		if (xi == lng && yi == lat) || (xj == lng && yj == lat) {
			return true
		}
		if (yi > lat) != (yj > lat) {
			cross := (xj-xi)*(lat-yi)/(yj-yi) + xi
			if lng == cross {
				return true
			}
			if lng < cross {
				inside = !inside
			}
		}
	}
	return inside
}
