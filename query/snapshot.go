package query

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Snapshot is the canonical plain form of a criteria:
// {fields, filter, sort, skip, limit}. It is both the serialization
// output (PlainObject) and the accepted constructor input (FromPlain),
// giving a round-trip guarantee. A snapshot persisted mid-session (for
// example across a sync pause) reconstructs an equivalent criteria.
type Snapshot struct {
	Fields []string       `json:"fields"`
	Filter map[string]any `json:"filter"`
	Sort   Sort           `json:"sort"`
	Skip   int            `json:"skip"`
	Limit  *int           `json:"limit"`
}

// PlainObject returns the canonical snapshot of the authoritative
// criteria. Scoped views delegate to their root. The snapshot is a deep
// copy; mutating it does not affect the criteria.
func (q *Criteria) PlainObject() (Snapshot, error) {
	r := q.root()
	if r.err != nil {
		return Snapshot{}, r.err
	}
	snap := Snapshot{
		Fields: append(make([]string, 0, len(r.fields)), r.fields...),
		Filter: copyFilter(r.filter),
		Sort:   append(Sort(nil), r.sort...),
		Skip:   r.skip,
	}
	if r.limit != nil {
		limit := *r.limit
		snap.Limit = &limit
	}
	return snap, nil
}

// FromPlain reconstructs a criteria from a canonical snapshot.
// Top-level bare scalars in the filter are normalized to {$eq: value};
// combinator values must be lists of sub-trees.
func FromPlain(s Snapshot) (*Criteria, error) {
	q := New()

	for _, f := range s.Fields {
		if f == "" {
			return nil, newError(CodeInvalidSnapshot, "FromPlain", "field names must not be empty")
		}
	}
	q.fields = append([]string(nil), s.Fields...)

	for field, v := range s.Filter {
		switch field {
		case opAnd, opOr, opNor:
			if _, ok := v.([]any); !ok {
				return nil, newError(CodeInvalidSnapshot, "FromPlain", "%s must hold a list of sub-trees, got %T", field, v)
			}
			q.filter[field] = copyValue(v)
		default:
			if m, ok := v.(map[string]any); ok {
				q.filter[field] = copyFilter(m)
			} else {
				q.filter[field] = map[string]any{opEq: copyValue(v)}
			}
		}
	}

	for _, sf := range s.Sort {
		if sf.Direction != SortAscending && sf.Direction != SortDescending {
			return nil, newError(CodeInvalidSnapshot, "FromPlain", "sort direction for %q must be 1 or -1, got %d", sf.Field, sf.Direction)
		}
		q.sort = q.sort.set(sf.Field, sf.Direction)
	}

	if s.Skip < 0 {
		return nil, newError(CodeInvalidSnapshot, "FromPlain", "skip must be non-negative, got %d", s.Skip)
	}
	q.skip = s.Skip

	if s.Limit != nil {
		if *s.Limit < 1 {
			return nil, newError(CodeInvalidSnapshot, "FromPlain", "limit must be positive, got %d", *s.Limit)
		}
		limit := *s.Limit
		q.limit = &limit
	}

	return q, nil
}

// QueryString maps the canonical snapshot to the transport parameters
// of a search request. Empty or zero-valued parts are omitted; values
// that are not already strings are JSON-encoded. The transport must
// treat "query" and "sort" as JSON-encoded strings.
func (q *Criteria) QueryString() (map[string]string, error) {
	snap, err := q.PlainObject()
	if err != nil {
		return nil, err
	}

	params := make(map[string]string, 5)
	if len(snap.Filter) > 0 {
		encoded, err := json.Marshal(snap.Filter)
		if err != nil {
			return nil, newError(CodeInvalidArgument, "QueryString", "encoding filter: %v", err)
		}
		params["query"] = string(encoded)
	}
	if len(snap.Fields) > 0 {
		params["fields"] = strings.Join(snap.Fields, ",")
	}
	if snap.Limit != nil && *snap.Limit != 0 {
		params["limit"] = strconv.Itoa(*snap.Limit)
	}
	if snap.Skip != 0 {
		params["skip"] = strconv.Itoa(snap.Skip)
	}
	if len(snap.Sort) > 0 {
		encoded, err := json.Marshal(snap.Sort)
		if err != nil {
			return nil, newError(CodeInvalidArgument, "QueryString", "encoding sort: %v", err)
		}
		params["sort"] = string(encoded)
	}
	return params, nil
}

// String JSON-encodes the QueryString mapping. This is a debug and log
// representation only; the transport layer must consume the structured
// mapping from QueryString.
func (q *Criteria) String() string {
	params, err := q.QueryString()
	if err != nil {
		return "<invalid criteria: " + err.Error() + ">"
	}
	encoded, err := json.Marshal(params)
	if err != nil {
		return "<invalid criteria: " + err.Error() + ">"
	}
	return string(encoded)
}
