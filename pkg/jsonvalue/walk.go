package jsonvalue

// Visitor is called for every node reached by Walk
type Visitor func(v *Value)

// Walk visits v and its descendants depth-first, in document order.
// A node is visited before any of its members or elements.
func Walk(v *Value, visit Visitor) {
	if v == nil {
		return
	}
	visit(v)
	switch v.kind {
	case Object:
		for _, m := range v.members {
			Walk(m.Value, visit)
		}
	case Array:
		for _, e := range v.elems {
			Walk(e, visit)
		}
	}
}

// Path follows a chain of object keys from v. It returns false as soon as
// a step is missing or lands on a non-object.
func (v *Value) Path(keys ...string) (*Value, bool) {
	cur := v
	for _, k := range keys {
		next, ok := cur.Get(k)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}
