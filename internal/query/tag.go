package query

import (
	"errors"
	"fmt"
)

var (
	// ErrNotCategory is returned when adding a child to a plain tag.
	ErrNotCategory = errors.New("tag is not a category")

	// ErrTagCycle is returned when an Add would make a tag its own ancestor.
	ErrTagCycle = errors.New("tag cannot be nested under itself")
)

// Tag is a node of the tag tree. Categories own their children; each child
// keeps a back reference to its parent for lookups only.
type Tag struct {
	ID           int64
	Name         string
	SortPriority int

	category bool
	parent   *Tag
	children []*Tag
}

// NewTag creates a leaf tag.
func NewTag(id int64, name string) *Tag {
	return &Tag{ID: id, Name: name}
}

// NewCategory creates a tag that can hold child tags.
func NewCategory(id int64, name string) *Tag {
	return &Tag{ID: id, Name: name, category: true}
}

// IsCategory reports whether t can have children.
func (t *Tag) IsCategory() bool { return t.category }

// Parent returns the category t belongs to, or nil for a root tag.
func (t *Tag) Parent() *Tag { return t.parent }

// Children returns the direct children in insertion order.
func (t *Tag) Children() []*Tag {
	out := make([]*Tag, len(t.children))
	copy(out, t.children)
	return out
}

// Add appends child to t, detaching it from its previous parent first.
func (t *Tag) Add(child *Tag) error {
	if !t.category {
		return fmt.Errorf("adding %q to %q: %w", child.Name, t.Name, ErrNotCategory)
	}
	for a := t; a != nil; a = a.parent {
		if a == child {
			return fmt.Errorf("adding %q to %q: %w", child.Name, t.Name, ErrTagCycle)
		}
	}

	if old := child.parent; old != nil {
		old.remove(child)
	}
	child.parent = t
	t.children = append(t.children, child)
	return nil
}

func (t *Tag) remove(child *Tag) {
	for i, c := range t.children {
		if c == child {
			t.children = append(t.children[:i], t.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// Descendants returns every tag below t, depth first, each parent before its
// children and siblings in insertion order.
func (t *Tag) Descendants() []*Tag {
	var out []*Tag
	stack := make([]*Tag, 0, len(t.children))
	for i := len(t.children) - 1; i >= 0; i-- {
		stack = append(stack, t.children[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n)
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}
	return out
}

// IDs returns the id of t followed by the ids of its descendants. A query on
// a category matches photos tagged with any of them.
func (t *Tag) IDs() []int64 {
	ids := []int64{t.ID}
	if !t.category {
		return ids
	}
	for _, d := range t.Descendants() {
		ids = append(ids, d.ID)
	}
	return ids
}

func (t *Tag) String() string {
	return fmt.Sprintf("%s(%d)", t.Name, t.ID)
}
