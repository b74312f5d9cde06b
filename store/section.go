package store

import "github.com/confer-dev/confer/value"

// Section is a named mapping from key to Value. A Section returned by
// the store (via GetSection) is always a deep clone; mutating it has
// no effect on the store.
type Section map[string]value.Value

// Clone returns a deep, independent copy of the section.
func (s Section) Clone() Section {
	out := make(Section, len(s))
	for k, v := range s {
		out[k] = v.Clone()
	}
	return out
}

// Keys returns a snapshot of the section's key names. Order is not
// meaningful: insertion order is not observable.
func (s Section) Keys() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	return out
}
