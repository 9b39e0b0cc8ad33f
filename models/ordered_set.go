package models

// OrderedSet is an insertion-ordered set of identities. It is not safe for
// concurrent use; owners guard it with their own lock.
type OrderedSet struct {
	order []string
	index map[string]int
}

func NewOrderedSet() *OrderedSet {
	return &OrderedSet{index: make(map[string]int)}
}

func (s *OrderedSet) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Add reports whether id was newly inserted.
func (s *OrderedSet) Add(id string) bool {
	if s.Has(id) {
		return false
	}
	s.index[id] = len(s.order)
	s.order = append(s.order, id)
	return true
}

// Remove reports whether id was present.
func (s *OrderedSet) Remove(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.order = append(s.order[:i], s.order[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.order); j++ {
		s.index[s.order[j]] = j
	}
	return true
}

// Toggle removes id if present, otherwise adds it. It reports whether id is
// present afterwards.
func (s *OrderedSet) Toggle(id string) bool {
	if s.Remove(id) {
		return false
	}
	s.Add(id)
	return true
}

func (s *OrderedSet) Len() int { return len(s.order) }

func (s *OrderedSet) Items() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
