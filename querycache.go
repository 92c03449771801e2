package flywheel

import (
	"fmt"
	"sync"

	"github.com/TheBitDrifter/bark"
)

// cachedQuery is one registered query: the sorted component ids it requires
// and the set of table indices currently known to satisfy it.
type cachedQuery struct {
	ids     []ComponentId
	matched map[TableIndex]struct{}
}

// queryCache maps a query's Fingerprint to the set of archetype tables that
// match it, so a Cursor never has to re-scan every archetype on every
// iteration. New archetypes are folded into every registered query the
// moment they are created (update); a query fingerprint is registered (and,
// on repeat registration, verified byte-for-byte against the set of ids it
// was first registered with) via load.
type queryCache struct {
	mu    sync.RWMutex
	byFP  map[Fingerprint]*cachedQuery
}

func newQueryCache() *queryCache {
	return &queryCache{byFP: make(map[Fingerprint]*cachedQuery)}
}

// load registers the query over component set ids (identified by fp) if it
// is not already known, and returns its current matched-table set. A second
// registration under the same fp with a different ids slice indicates a
// fingerprint collision between two distinct queries and is a programmer
// bug, not a recoverable condition.
//
// On first sight, existing is scanned once to seed the matched set with any
// archetype table created before this query was ever loaded: queries are
// commonly constructed only at first use, after entities have already been
// spawned, so the cache cannot assume update() alone will ever have seen
// them.
func (qc *queryCache) load(fp Fingerprint, ids []ComponentId, existing []*archetype) map[TableIndex]struct{} {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	entry, ok := qc.byFP[fp]
	if ok {
		if !sameIds(entry.ids, ids) {
			panic(bark.AddTrace(fmt.Errorf("query fingerprint collision: %v and %v both fold to %d", entry.ids, ids, fp)))
		}
		return entry.matched
	}

	entry = &cachedQuery{ids: append([]ComponentId(nil), ids...), matched: make(map[TableIndex]struct{})}
	for _, arch := range existing {
		if arch.Contains(ids) {
			entry.matched[arch.index] = struct{}{}
		}
	}
	qc.byFP[fp] = entry
	return entry.matched
}

// update folds a newly created archetype table into every registered query
// it satisfies. Called exactly once, right after a Registry creates a table.
func (qc *queryCache) update(index TableIndex, arch *archetype) {
	qc.mu.Lock()
	defer qc.mu.Unlock()

	for _, entry := range qc.byFP {
		if arch.Contains(entry.ids) {
			entry.matched[index] = struct{}{}
		}
	}
}

// search returns the matched-table set for an already-registered query,
// without registering it if absent.
func (qc *queryCache) search(fp Fingerprint) (map[TableIndex]struct{}, bool) {
	qc.mu.RLock()
	defer qc.mu.RUnlock()
	entry, ok := qc.byFP[fp]
	if !ok {
		return nil, false
	}
	return entry.matched, true
}

// len reports how many distinct queries are currently registered, surfaced
// as a gauge by the metrics package.
func (qc *queryCache) len() int {
	qc.mu.RLock()
	defer qc.mu.RUnlock()
	return len(qc.byFP)
}
