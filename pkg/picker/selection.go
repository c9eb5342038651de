package picker

import "slices"

// Item is a selected record. Label is empty when the selection was seeded
// from the form and the label is not known locally.
type Item struct {
	ID    string
	Label string
}

// selection is an insertion-ordered set of items keyed by id.
type selection struct {
	items []Item
}

func (s *selection) index(id string) int {
	return slices.IndexFunc(s.items, func(it Item) bool { return it.ID == id })
}

func (s *selection) has(id string) bool { return s.index(id) >= 0 }

// add appends it unless its id is present. A known label replaces an
// unknown one.
func (s *selection) add(it Item) bool {
	if i := s.index(it.ID); i >= 0 {
		if s.items[i].Label == "" {
			s.items[i].Label = it.Label
		}
		return false
	}
	s.items = append(s.items, it)
	return true
}

// learn fills in the label of a selected item whose label is unknown.
func (s *selection) learn(id, label string) {
	if i := s.index(id); i >= 0 && s.items[i].Label == "" {
		s.items[i].Label = label
	}
}

func (s *selection) remove(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	return true
}

func (s *selection) replace(it Item) {
	s.items = []Item{it}
}

func (s *selection) list() []Item { return slices.Clone(s.items) }

func (s *selection) len() int { return len(s.items) }

// labelsKnown reports whether every item carries a label.
func (s *selection) labelsKnown() bool {
	return !slices.ContainsFunc(s.items, func(it Item) bool { return it.Label == "" })
}
