package metadata

// Attributes is an ordered mapping from attribute key to scalar value.
// Insertion order is preserved so rendered metadata is stable across runs;
// re-setting an existing key keeps its original position.
type Attributes struct {
	keys   []string
	values map[string]string
}

// NewAttributes returns an empty attribute map.
func NewAttributes() *Attributes {
	return &Attributes{values: make(map[string]string)}
}

// Set stores value under key, appending the key if it is new.
func (a *Attributes) Set(key, value string) {
	if a.values == nil {
		a.values = make(map[string]string)
	}
	if _, exists := a.values[key]; !exists {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// Get returns the value for key and whether it is present.
func (a *Attributes) Get(key string) (string, bool) {
	value, ok := a.values[key]
	return value, ok
}

// Delete removes key if present and reports whether a deletion occurred.
func (a *Attributes) Delete(key string) bool {
	if _, ok := a.values[key]; !ok {
		return false
	}
	delete(a.values, key)
	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i], a.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the attribute keys in insertion order.
// Returns a copy to prevent external mutation.
func (a *Attributes) Keys() []string {
	keys := make([]string, len(a.keys))
	copy(keys, a.keys)
	return keys
}

// Len returns the number of attributes.
func (a *Attributes) Len() int {
	return len(a.keys)
}

// Clone returns an independent copy of the attribute map.
func (a *Attributes) Clone() *Attributes {
	clone := &Attributes{
		keys:   make([]string, len(a.keys)),
		values: make(map[string]string, len(a.values)),
	}
	copy(clone.keys, a.keys)
	for k, v := range a.values {
		clone.values[k] = v
	}
	return clone
}

// Map returns the attributes as a plain map, losing ordering.
// Returns a copy to prevent external mutation.
func (a *Attributes) Map() map[string]string {
	result := make(map[string]string, len(a.values))
	for k, v := range a.values {
		result[k] = v
	}
	return result
}
