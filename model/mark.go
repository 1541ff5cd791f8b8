package model

// A Mark is a piece of information that can be attached to inline content,
// such as it being emphasized, in code font, or a link. It has a type and
// optionally a set of attributes that provide further information (such as
// the target of the link). Mark types and their rank ordering are declared
// through the Registry.
type Mark struct {
	Type  string
	Attrs map[string]interface{}
}

// NewMark creates a mark with the given type and attributes.
func NewMark(typ string, attrs map[string]interface{}) *Mark {
	return &Mark{Type: typ, Attrs: attrs}
}

// Eq tests whether this mark has the same type and attributes as another
// mark.
func (m *Mark) Eq(other *Mark) bool {
	if m == other {
		return true
	}
	if m.Type != other.Type {
		return false
	}
	if len(m.Attrs) != len(other.Attrs) {
		return false
	}
	for k, v := range m.Attrs {
		if other.Attrs[k] != v {
			return false
		}
	}
	return true
}

// AddToSet creates a new set which contains this mark as well, inserted at
// its rank position. If this mark is already in the set, the set itself is
// returned. A mark of the same type with different attributes is replaced;
// two marks of the same type never stack.
func (m *Mark) AddToSet(reg *Registry, set []*Mark) []*Mark {
	rank := reg.MarkRank(m.Type)
	cpy := make([]*Mark, 0, len(set)+1)
	placed := false
	for _, other := range set {
		if other.Type == m.Type {
			if m.Eq(other) {
				return set
			}
			// Same type, different attrs: replace in place.
			cpy = append(cpy, m)
			placed = true
			continue
		}
		if !placed && reg.MarkRank(other.Type) > rank {
			cpy = append(cpy, m)
			placed = true
		}
		cpy = append(cpy, other)
	}
	if !placed {
		cpy = append(cpy, m)
	}
	return cpy
}

// RemoveFromSet removes this mark (by type and attrs) from the given set,
// returning a new set. If the mark is not in the set, the set itself is
// returned.
func (m *Mark) RemoveFromSet(set []*Mark) []*Mark {
	for i, other := range set {
		if m.Eq(other) {
			cpy := make([]*Mark, 0, len(set)-1)
			cpy = append(cpy, set[:i]...)
			cpy = append(cpy, set[i+1:]...)
			return cpy
		}
	}
	return set
}

// IsInSet tests whether this mark is in the given set of marks.
func (m *Mark) IsInSet(set []*Mark) bool {
	for _, other := range set {
		if m.Eq(other) {
			return true
		}
	}
	return false
}

// MarkTypeInSet returns the mark of the given type in the set, or nil.
func MarkTypeInSet(typ string, set []*Mark) *Mark {
	for _, mark := range set {
		if mark.Type == typ {
			return mark
		}
	}
	return nil
}

// RemoveMarkType removes any mark of the given type from the set, returning
// a new set. If no such mark is present, the set itself is returned.
func RemoveMarkType(typ string, set []*Mark) []*Mark {
	for i, other := range set {
		if other.Type == typ {
			cpy := make([]*Mark, 0, len(set)-1)
			cpy = append(cpy, set[:i]...)
			cpy = append(cpy, set[i+1:]...)
			return cpy
		}
	}
	return set
}

// SameMarkSet tests whether two sets of marks are identical.
func SameMarkSet(a, b []*Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Eq(b[i]) {
			return false
		}
	}
	return true
}

// SortMarks returns the set ordered by registry rank. The input is not
// modified; an already-sorted set is returned as is.
func SortMarks(reg *Registry, set []*Mark) []*Mark {
	sorted := true
	for i := 1; i < len(set); i++ {
		if reg.MarkRank(set[i-1].Type) > reg.MarkRank(set[i].Type) {
			sorted = false
			break
		}
	}
	if sorted {
		return set
	}
	cpy := make([]*Mark, len(set))
	copy(cpy, set)
	for i := 1; i < len(cpy); i++ {
		for j := i; j > 0 && reg.MarkRank(cpy[j-1].Type) > reg.MarkRank(cpy[j].Type); j-- {
			cpy[j-1], cpy[j] = cpy[j], cpy[j-1]
		}
	}
	return cpy
}

// NoMarks is the empty set of marks.
var NoMarks = []*Mark{}
