// Package cmap provides a sharded, string-keyed concurrent map.
//
// Session stores keep every live session in a cmap.Map keyed by session ID.
// Each shard owns its own RWMutex, so lookups for unrelated sessions never
// contend:
//
//	m := cmap.New[*domain.Session]()
//	m.Set(s.ID, s)
//	s, ok := m.Get(id)
//
// Iteration (Range, DeleteFunc) walks shards one at a time and therefore sees
// a per-shard consistent view, not a global snapshot.
package cmap
