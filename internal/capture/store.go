package capture

import (
	"maps"
	"slices"

	"github.com/GriffinCanCode/mac-cappy/internal/detect"
)

// Store maps monitor ID to its last recorded fingerprint. It is replaced
// wholesale on a change tick and otherwise only shrinks through Prune.
type Store map[int]detect.Fingerprint

// Changed returns, in ascending order, the IDs in snapshot whose fingerprint
// differs from s or that s has never seen.
func (s Store) Changed(snapshot Store) []int {
	var ids []int
	for id, fp := range snapshot {
		if prev, ok := s[id]; !ok || prev != fp {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Prune drops entries for monitors not in present and returns their IDs.
func (s Store) Prune(present []int) []int {
	var removed []int
	for id := range s {
		if !slices.Contains(present, id) {
			removed = append(removed, id)
		}
	}
	for _, id := range removed {
		delete(s, id)
	}
	slices.Sort(removed)
	return removed
}

// Clone returns an independent copy.
func (s Store) Clone() Store {
	if s == nil {
		return Store{}
	}
	return maps.Clone(s)
}
