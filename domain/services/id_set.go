package services

import (
	"sort"

	"friendship-backend/domain/core/valueobjects"
)

// IDSet is a set of user ids
type IDSet map[string]valueobjects.UserID

// NewIDSet creates a set holding ids
func NewIDSet(ids ...valueobjects.UserID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id
func (s IDSet) Add(id valueobjects.UserID) {
	s[id.String()] = id
}

// Has reports whether id is in the set
func (s IDSet) Has(id valueobjects.UserID) bool {
	_, ok := s[id.String()]
	return ok
}

// Union adds every member of other
func (s IDSet) Union(other IDSet) {
	for k, id := range other {
		s[k] = id
	}
}

// Sorted returns the members in ascending order
func (s IDSet) Sorted() []valueobjects.UserID {
	ids := make([]valueobjects.UserID, 0, len(s))
	for _, id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
