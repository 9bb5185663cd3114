package insurance

import (
	"fmt"

	"github.com/google/uuid"
)

// CategoryTree is an arena of category records indexed by identifier. Parent
// and child lookups are built once per run; nodes hold indices rather than
// pointers to each other, so there are no recursive object graphs.
type CategoryTree struct {
	byID     map[uuid.UUID]EmployeeCategory
	children map[uuid.UUID][]uuid.UUID
}

// NewCategoryTree builds the lookup maps from category rows. It rejects rows
// referencing a parent that is not part of the set.
func NewCategoryTree(categories []EmployeeCategory) (*CategoryTree, error) {
	t := &CategoryTree{
		byID:     make(map[uuid.UUID]EmployeeCategory, len(categories)),
		children: make(map[uuid.UUID][]uuid.UUID),
	}
	for _, c := range categories {
		t.byID[c.ID] = c
	}
	for _, c := range categories {
		if c.ParentID == nil {
			continue
		}
		if _, ok := t.byID[*c.ParentID]; !ok {
			return nil, fmt.Errorf("category %s references unknown parent %s", c.ID, *c.ParentID)
		}
		t.children[*c.ParentID] = append(t.children[*c.ParentID], c.ID)
	}
	return t, nil
}

// Get returns the category record for an identifier.
func (t *CategoryTree) Get(id uuid.UUID) (EmployeeCategory, bool) {
	c, ok := t.byID[id]
	return c, ok
}

// Lineage returns the category and its ancestors, nearest first, ending at
// the root. Unknown identifiers yield an empty slice. A cycle in the data
// (an upstream integrity violation) is cut off rather than looped forever.
func (t *CategoryTree) Lineage(id uuid.UUID) []uuid.UUID {
	var lineage []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	current := id
	for {
		c, ok := t.byID[current]
		if !ok || seen[current] {
			return lineage
		}
		seen[current] = true
		lineage = append(lineage, current)
		if c.ParentID == nil {
			return lineage
		}
		current = *c.ParentID
	}
}

// Children returns the direct child category identifiers.
func (t *CategoryTree) Children(id uuid.UUID) []uuid.UUID {
	return t.children[id]
}

// Len returns the number of categories in the tree.
func (t *CategoryTree) Len() int {
	return len(t.byID)
}
