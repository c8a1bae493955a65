// Package sorter turns user-supplied sort strings into SQL order clauses.
//
// A sort string is a comma-separated list of "field:direction" pairs, e.g.
// "filename_download:asc,created_at:desc". Fields are checked against a
// whitelist so listings never order by columns the caller should not see.
package sorter

import (
	"slices"
	"strings"
)

// SortDirection is the order of a single sort option.
type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// Opt is one parsed sort option.
type Opt struct {
	F string        // column to order by
	D SortDirection // asc or desc
}

// ToSQL renders the option as an order clause, e.g. "filesize desc".
func (o Opt) ToSQL() string {
	return o.F + " " + string(o.D)
}

// SortOpts is an ordered list of sort options.
type SortOpts []Opt

// Make builds SortOpts from literal options, saving callers the slice
// initialization when the ordering is fixed in code.
func Make(opts ...Opt) SortOpts {
	return opts
}

// MakeFromStr parses a sort string against a field whitelist. Malformed
// pairs, unknown fields and unknown directions are dropped silently: a bad
// sort parameter degrades the ordering, it never fails the request.
func MakeFromStr(sortString string, allowedFields ...string) SortOpts {
	if sortString == "" {
		return nil
	}

	var opts SortOpts
	for pair := range strings.SplitSeq(sortString, ",") {
		if opt, ok := parsePair(pair, allowedFields); ok {
			opts = append(opts, opt)
		}
	}
	return opts
}

func parsePair(pair string, allowedFields []string) (Opt, bool) {
	field, direction, found := strings.Cut(pair, ":")
	if !found {
		return Opt{}, false
	}

	field = strings.TrimSpace(field)
	if !slices.Contains(allowedFields, field) {
		return Opt{}, false
	}

	switch d := SortDirection(strings.ToLower(strings.TrimSpace(direction))); d {
	case Asc, Desc:
		return Opt{F: field, D: d}, true
	default:
		return Opt{}, false
	}
}
