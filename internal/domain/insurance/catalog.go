package insurance

import "github.com/google/uuid"

// TypeCatalog is the immutable insurance type catalog for one run. It is
// loaded once per batch and passed into every computation instead of being
// cached process-wide.
type TypeCatalog struct {
	byKey map[TypeKey]InsuranceType
	byID  map[uuid.UUID]InsuranceType
	order []TypeKey
}

// NewTypeCatalog builds a catalog from reference rows. Types are kept in
// canonical key order so aggregation output is deterministic.
func NewTypeCatalog(types []InsuranceType) *TypeCatalog {
	c := &TypeCatalog{
		byKey: make(map[TypeKey]InsuranceType, len(types)),
		byID:  make(map[uuid.UUID]InsuranceType, len(types)),
	}
	for _, t := range types {
		c.byKey[t.Key] = t
		c.byID[t.ID] = t
	}
	for _, key := range AllTypeKeys {
		if _, ok := c.byKey[key]; ok {
			c.order = append(c.order, key)
		}
	}
	return c
}

// ByKey looks up a type by its stable system key.
func (c *TypeCatalog) ByKey(key TypeKey) (InsuranceType, bool) {
	t, ok := c.byKey[key]
	return t, ok
}

// ByID looks up a type by identifier.
func (c *TypeCatalog) ByID(id uuid.UUID) (InsuranceType, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// Keys returns the catalog's type keys in canonical order.
func (c *TypeCatalog) Keys() []TypeKey {
	return c.order
}

// TypeIDs returns all type identifiers in the catalog.
func (c *TypeCatalog) TypeIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.order))
	for _, key := range c.order {
		ids = append(ids, c.byKey[key].ID)
	}
	return ids
}

// Len returns the number of types in the catalog.
func (c *TypeCatalog) Len() int {
	return len(c.byKey)
}
