// Package eval applies a criteria to an in-memory record sequence:
// filter → project → sort → paginate. It is the offline read path of
// the SDK — the same criteria that would be serialized for a remote
// search is evaluated directly against locally cached records.
package eval

import (
	"log/slog"
	"sort"

	"github.com/sievekit/sieve/match"
	"github.com/sievekit/sieve/query"
)

// MatchFunc decides whether a single record satisfies a filter tree.
// The default is match.Matches; tests and embedders may substitute
// their own predicate matcher.
type MatchFunc func(filter map[string]any, record map[string]any) bool

// Evaluator runs the local evaluation pipeline. The zero value is not
// usable; construct with New.
type Evaluator struct {
	match  MatchFunc
	logger *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMatcher substitutes the predicate matcher.
func WithMatcher(fn MatchFunc) Option {
	return func(e *Evaluator) { e.match = fn }
}

// WithLogger attaches a logger for debug-level pipeline stats.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// New creates an evaluator with match.Matches as the default predicate.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{match: match.Matches}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process evaluates q against records with the default evaluator.
func Process(q *query.Criteria, records []map[string]any) ([]map[string]any, error) {
	return New().Process(q, records)
}

// Process evaluates q against records: filter, project, sort, paginate.
//
// Process is a pure function of the criteria's current state and the
// input sequence; nothing is cached, so repeated calls reflect the
// latest mutations. Projection mutates the surviving records in place —
// callers that need the originals untouched must copy beforehand.
//
// Evaluation fails before filtering when the criteria carries a sticky
// construction error or uses operators unsupported offline (naming
// every offender); it never returns partial results.
//
// Sorting follows the sort specification's insertion order: a record
// lacking a field sorts after one that has it, differing values compare
// under a loose total order times the configured direction, and ties
// fall through to the next field. The chain is stable, so records tied
// on every field keep their filtered order.
func (e *Evaluator) Process(q *query.Criteria, records []map[string]any) ([]map[string]any, error) {
	snap, err := q.PlainObject()
	if err != nil {
		return nil, err
	}
	if unsupported := q.UnsupportedOffline(); len(unsupported) > 0 {
		return nil, query.NewUnsupportedOfflineError("Process", unsupported)
	}

	kept := make([]map[string]any, 0, len(records))
	for _, record := range records {
		if e.match(snap.Filter, record) {
			kept = append(kept, record)
		}
	}
	if e.logger != nil {
		e.logger.Debug("filtered records", "in", len(records), "kept", len(kept))
	}

	if len(snap.Fields) > 0 {
		project(kept, snap.Fields)
	}

	if len(snap.Sort) > 0 {
		sortRecords(kept, snap.Sort)
	}

	return paginate(kept, snap.Skip, snap.Limit), nil
}

// project strips every key not listed in fields, mutating records in
// place.
func project(records []map[string]any, fields []string) {
	keep := make(map[string]bool, len(fields))
	for _, f := range fields {
		keep[f] = true
	}
	for _, record := range records {
		for key := range record {
			if !keep[key] {
				delete(record, key)
			}
		}
	}
}

func sortRecords(records []map[string]any, spec query.Sort) {
	sort.SliceStable(records, func(i, j int) bool {
		for _, sf := range spec {
			a, aOK := records[i][sf.Field]
			b, bOK := records[j][sf.Field]
			switch {
			case !aOK && !bOK:
				continue
			case !aOK:
				return false
			case !bOK:
				return true
			}
			if c := match.Compare(a, b) * sf.Direction; c != 0 {
				return c < 0
			}
		}
		return false
	})
}

func paginate(records []map[string]any, skip int, limit *int) []map[string]any {
	if skip > len(records) {
		skip = len(records)
	}
	records = records[skip:]
	if limit != nil && *limit < len(records) {
		records = records[:*limit]
	}
	return records
}
