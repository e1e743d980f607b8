package ir

import (
	"maps"
	"slices"
	"strconv"
)

// Catalog is the immutable roster of entries and rubric criteria.
// Build it once at startup with NewCatalog and share it by pointer.
type Catalog struct {
	entries   []Entry
	criteria  []Criterion
	entryIdx  map[int]int
	critIdx   map[string]int
	weightSum int
	total     int
}

// DefaultWeightTotal is the weight sum a catalog declares unless it says otherwise.
const DefaultWeightTotal = 100

// NewCatalog builds a catalog. Entries are sorted by ID ascending; criteria
// keep their declaration order, which defines display and export order.
//
// NewCatalog does not validate invariants; compiler.ValidateCatalog does.
func NewCatalog(entries []Entry, criteria []Criterion) *Catalog {
	c := &Catalog{
		entries:  slices.Clone(entries),
		criteria: make([]Criterion, len(criteria)),
		entryIdx: make(map[int]int, len(entries)),
		critIdx:  make(map[string]int, len(criteria)),
		total:    DefaultWeightTotal,
	}
	slices.SortStableFunc(c.entries, func(a, b Entry) int { return a.ID - b.ID })
	for i, e := range c.entries {
		if _, dup := c.entryIdx[e.ID]; !dup {
			c.entryIdx[e.ID] = i
		}
	}
	for i, cr := range criteria {
		cr.Levels = maps.Clone(cr.Levels)
		c.criteria[i] = cr
		if _, dup := c.critIdx[cr.ID]; !dup {
			c.critIdx[cr.ID] = i
		}
		c.weightSum += cr.Weight
	}
	return c
}

// Entries returns all entries ordered by ID ascending.
func (c *Catalog) Entries() []Entry {
	return slices.Clone(c.entries)
}

// Criteria returns all criteria in declaration order.
func (c *Catalog) Criteria() []Criterion {
	out := make([]Criterion, len(c.criteria))
	for i, cr := range c.criteria {
		cr.Levels = maps.Clone(cr.Levels)
		out[i] = cr
	}
	return out
}

// Entry looks up an entry by ID.
func (c *Catalog) Entry(id int) (Entry, bool) {
	i, ok := c.entryIdx[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Criterion looks up a criterion by ID.
func (c *Catalog) Criterion(id string) (Criterion, bool) {
	i, ok := c.critIdx[id]
	if !ok {
		return Criterion{}, false
	}
	cr := c.criteria[i]
	cr.Levels = maps.Clone(cr.Levels)
	return cr, true
}

// HasEntry reports whether id is a known entry.
func (c *Catalog) HasEntry(id int) bool {
	_, ok := c.entryIdx[id]
	return ok
}

// HasCriterion reports whether id is a known criterion.
func (c *Catalog) HasCriterion(id string) bool {
	_, ok := c.critIdx[id]
	return ok
}

// CriterionIDs returns criterion IDs in declaration order.
func (c *Catalog) CriterionIDs() []string {
	ids := make([]string, len(c.criteria))
	for i, cr := range c.criteria {
		ids[i] = cr.ID
	}
	return ids
}

// NumEntries returns the entry count.
func (c *Catalog) NumEntries() int {
	return len(c.entries)
}

// WeightSum returns the sum of all criterion weights.
func (c *Catalog) WeightSum() int {
	return c.weightSum
}

// WeightTotal returns the declared weight sum that WeightSum must equal.
func (c *Catalog) WeightTotal() int {
	return c.total
}

// WithWeightTotal returns a copy of the catalog declaring a different weight total.
func (c *Catalog) WithWeightTotal(total int) *Catalog {
	cp := *c
	cp.total = total
	return &cp
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
