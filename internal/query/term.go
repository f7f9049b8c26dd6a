package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrEmptyTerm is returned by Where for a nil term or an operator without
// operands.
var ErrEmptyTerm = errors.New("query term is empty")

const photoTagSelect = "photos.id IN (SELECT photo_id FROM photo_tags WHERE %s)"

// Term is a node of a boolean photo query. SQLClause renders a condition on
// the photos table, padded with a space on both sides so clauses can be
// concatenated.
type Term interface {
	SQLClause() string
	String() string
}

// TagTerm matches photos carrying a tag, or for a category any tag below it.
type TagTerm struct {
	Tag *Tag
}

// ForTag returns a TagTerm for t, or nil if t is nil.
func ForTag(t *Tag) Term {
	if t == nil {
		return nil
	}
	return &TagTerm{Tag: t}
}

func (t *TagTerm) SQLClause() string {
	return tagClause(t.Tag.IDs())
}

func (t *TagTerm) String() string {
	return t.Tag.String()
}

func tagClause(ids []int64) string {
	var cond string
	if len(ids) == 1 {
		cond = "tag_id = " + strconv.FormatInt(ids[0], 10)
	} else {
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = strconv.FormatInt(id, 10)
		}
		cond = "tag_id IN (" + strings.Join(parts, ", ") + ")"
	}
	return " (" + fmt.Sprintf(photoTagSelect, cond) + ") "
}

// OrTerm matches photos matching any operand.
type OrTerm struct {
	Terms []Term
}

// Or combines terms with OR. Nested OrTerms are flattened and nil terms
// dropped; nil is returned when nothing is left.
func Or(terms ...Term) Term {
	flat := flatten(terms, func(t Term) ([]Term, bool) {
		o, ok := t.(*OrTerm)
		if !ok {
			return nil, false
		}
		return o.Terms, true
	})
	if len(flat) == 0 {
		return nil
	}
	return &OrTerm{Terms: flat}
}

// SQLClause merges operands that are all tag terms into a single IN list.
// Ids are not deduplicated.
func (o *OrTerm) SQLClause() string {
	if len(o.Terms) == 0 {
		return " (1 = 0) "
	}

	var ids []int64
	for _, t := range o.Terms {
		tt, ok := t.(*TagTerm)
		if !ok {
			return joinClauses(o.Terms, "OR")
		}
		ids = append(ids, tt.Tag.IDs()...)
	}
	return tagClause(ids)
}

func (o *OrTerm) String() string {
	return joinStrings(o.Terms, " OR ")
}

// AndTerm matches photos matching every operand.
type AndTerm struct {
	Terms []Term
}

// And combines terms with AND, flattening like Or.
func And(terms ...Term) Term {
	flat := flatten(terms, func(t Term) ([]Term, bool) {
		a, ok := t.(*AndTerm)
		if !ok {
			return nil, false
		}
		return a.Terms, true
	})
	if len(flat) == 0 {
		return nil
	}
	return &AndTerm{Terms: flat}
}

func (a *AndTerm) SQLClause() string {
	switch len(a.Terms) {
	case 0:
		return " (1 = 1) "
	case 1:
		return a.Terms[0].SQLClause()
	}
	return joinClauses(a.Terms, "AND")
}

func (a *AndTerm) String() string {
	return joinStrings(a.Terms, " AND ")
}

// NotTerm negates its operand.
type NotTerm struct {
	Term Term
}

// Not negates t. Not(Not(x)) is x, and Not(nil) is nil.
func Not(t Term) Term {
	if t == nil {
		return nil
	}
	if n, ok := t.(*NotTerm); ok {
		return n.Term
	}
	return &NotTerm{Term: t}
}

func (n *NotTerm) SQLClause() string {
	return " NOT (" + n.Term.SQLClause() + ") "
}

func (n *NotTerm) String() string {
	return "NOT " + n.Term.String()
}

// Untagged matches photos without any tag.
type Untagged struct{}

func (Untagged) SQLClause() string {
	return " (photos.id NOT IN (SELECT DISTINCT photo_id FROM photo_tags)) "
}

func (Untagged) String() string { return "untagged" }

// RatingRange matches photos rated between Min and Max inclusive.
type RatingRange struct {
	Min, Max int
}

func (r RatingRange) SQLClause() string {
	return fmt.Sprintf(" (photos.rating >= %d AND photos.rating <= %d) ", r.Min, r.Max)
}

func (r RatingRange) String() string {
	return fmt.Sprintf("rating[%d..%d]", r.Min, r.Max)
}

// DateRange matches photos taken in [Start, End). A zero bound is open.
type DateRange struct {
	Start, End time.Time
}

func (d DateRange) SQLClause() string {
	var conds []string
	if !d.Start.IsZero() {
		conds = append(conds, fmt.Sprintf("photos.time >= %d", d.Start.Unix()))
	}
	if !d.End.IsZero() {
		conds = append(conds, fmt.Sprintf("photos.time < %d", d.End.Unix()))
	}
	if len(conds) == 0 {
		return " (1 = 1) "
	}
	return " (" + strings.Join(conds, " AND ") + ") "
}

func (d DateRange) String() string {
	const layout = "2006-01-02"
	var start, end string
	if !d.Start.IsZero() {
		start = d.Start.Format(layout)
	}
	if !d.End.IsZero() {
		end = d.End.Format(layout)
	}
	return "time[" + start + ".." + end + "]"
}

// Where renders t as a WHERE clause for a query on the photos table.
func Where(t Term) (string, error) {
	if IsEmpty(t) {
		return "", ErrEmptyTerm
	}
	return "WHERE " + strings.TrimSpace(t.SQLClause()), nil
}

// IsEmpty reports whether t is nil or an operator with no operands.
func IsEmpty(t Term) bool {
	switch v := t.(type) {
	case nil:
		return true
	case *OrTerm:
		return v == nil || len(v.Terms) == 0
	case *AndTerm:
		return v == nil || len(v.Terms) == 0
	case *TagTerm:
		return v == nil || v.Tag == nil
	case *NotTerm:
		return v == nil || IsEmpty(v.Term)
	}
	return false
}

func flatten(terms []Term, unwrap func(Term) ([]Term, bool)) []Term {
	var out []Term
	for _, t := range terms {
		if IsEmpty(t) {
			continue
		}
		if inner, ok := unwrap(t); ok {
			out = append(out, flatten(inner, unwrap)...)
			continue
		}
		out = append(out, t)
	}
	return out
}

func joinClauses(terms []Term, op string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.SQLClause()
	}
	return " (" + strings.Join(parts, op) + ") "
}

func joinStrings(terms []Term, sep string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}
