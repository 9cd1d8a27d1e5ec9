package cmap

// Range calls fn for every entry until fn returns false.
// A shard's read lock is held while its entries are visited, so fn must not
// write to the map.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// Keys returns all keys in no particular order.
func (m *Map[V]) Keys() []string {
	keys := make([]string, 0, m.Count())
	m.Range(func(k string, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// DeleteFunc removes every entry for which match returns true and returns
// the removed values.
func (m *Map[V]) DeleteFunc(match func(key string, value V) bool) []V {
	var removed []V
	for _, s := range m.shards {
		s.mu.Lock()
		for k, v := range s.items {
			if match(k, v) {
				delete(s.items, k)
				removed = append(removed, v)
			}
		}
		s.mu.Unlock()
	}
	return removed
}
