package flywheel

import (
	"sort"

	"github.com/TheBitDrifter/table"
)

// archetype is one columnar table grouping every entity that carries exactly
// the same set of components, identified by its order-independent
// Fingerprint. index is the archetype's stable position within its
// Registry's table slice; it is what a PackageIndex.Table refers to.
type archetype struct {
	index       TableIndex
	fingerprint Fingerprint
	ids         []ComponentId
	table       table.Table
}

func newArchetype(
	schema table.Schema,
	entryIndex table.EntryIndex,
	index TableIndex,
	fp Fingerprint,
	ids []ComponentId,
	components []Component,
) (*archetype, error) {
	elementTypes := make([]table.ElementType, len(components))
	for i, comp := range components {
		elementTypes[i] = comp
	}
	tbl, err := table.NewTableBuilder().
		WithSchema(schema).
		WithEntryIndex(entryIndex).
		WithElementTypes(elementTypes...).
		WithEvents(Config.tableEvents).
		Build()
	if err != nil {
		return nil, err
	}

	sorted := append([]ComponentId(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return &archetype{
		index:       index,
		fingerprint: fp,
		ids:         sorted,
		table:       tbl,
	}, nil
}

// Contains reports whether every id in ids is present on this archetype: the
// subset test the query cache uses to decide whether a table matches a query.
func (a *archetype) Contains(ids []ComponentId) bool {
	if len(ids) > len(a.ids) {
		return false
	}
	set := make(map[ComponentId]struct{}, len(a.ids))
	for _, id := range a.ids {
		set[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

func (a *archetype) Table() table.Table {
	return a.table
}
