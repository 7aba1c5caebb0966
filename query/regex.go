package query

import "strings"

// RegexOptions controls the $options flags attached by Matches.
//
// IgnoreCase is a tri-state: nil leaves the pattern's own inline flag in
// force, true requests case-insensitive matching (which is rejected —
// the remote store cannot index it), and an explicit false overrides an
// inline (?i) flag so the pattern is accepted as case-sensitive.
type RegexOptions struct {
	IgnoreCase    *bool
	Multiline     bool
	Extended      bool
	DotMatchesAll bool
}

// Bool returns a pointer to b, for RegexOptions.IgnoreCase.
func Bool(b bool) *bool {
	return &b
}

// Matches adds a $regex constraint on field. The pattern must be
// anchored (start with ^, after any inline flag group) so the remote
// store can serve it from a prefix index. Case-insensitive matching is
// unsupported and rejected rather than silently downgraded; an inline
// (?i) flag is only accepted together with an explicit
// RegexOptions{IgnoreCase: Bool(false)} override. Multiline, extended,
// and dot-matches-all append m/x/s to $options.
func (q *Criteria) Matches(field, pattern string, opts ...RegexOptions) *Criteria {
	var o RegexOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	flags, body, ok := splitInlineFlags(pattern)
	if !ok {
		return q.fail(newError(CodeInvalidArgument, "Matches", "malformed inline flag group in pattern %q", pattern))
	}

	ignoreCase := strings.ContainsRune(flags, 'i')
	if o.IgnoreCase != nil {
		ignoreCase = *o.IgnoreCase
	}
	if ignoreCase {
		return q.fail(newError(CodeInvalidArgument, "Matches", "case-insensitive matching is not supported; pass RegexOptions{IgnoreCase: Bool(false)} to match case-sensitively"))
	}

	if !strings.HasPrefix(body, "^") {
		return q.fail(newError(CodeInvalidArgument, "Matches", "pattern %q must be anchored (start with ^)", pattern))
	}

	var options strings.Builder
	if o.Multiline || strings.ContainsRune(flags, 'm') {
		options.WriteByte('m')
	}
	if o.Extended || strings.ContainsRune(flags, 'x') {
		options.WriteByte('x')
	}
	if o.DotMatchesAll || strings.ContainsRune(flags, 's') {
		options.WriteByte('s')
	}

	q.AddFilter(field, opRegex, body)
	if options.Len() > 0 {
		q.AddFilter(field, opOptions, options.String())
	}
	return q
}

// splitInlineFlags separates a leading (?flags) group from the pattern
// body. Returns ok == false when the group is unterminated or contains
// anything but flag letters.
func splitInlineFlags(pattern string) (flags, body string, ok bool) {
	if !strings.HasPrefix(pattern, "(?") {
		return "", pattern, true
	}
	end := strings.IndexByte(pattern, ')')
	if end < 0 {
		return "", "", false
	}
	flags = pattern[2:end]
	for _, r := range flags {
		switch r {
		case 'i', 'm', 's', 'x':
		default:
			// Not a flag group (e.g., a non-capturing group); leave the
			// pattern intact and let the anchor check decide.
			return "", pattern, true
		}
	}
	return flags, pattern[end+1:], true
}
