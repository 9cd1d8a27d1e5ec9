package metric

// Reading is one named metric value produced by a single collection.
type Reading struct {
	Name  string
	Value float64
}

// Source produces readings on demand. Implementations must be safe for
// concurrent use and must not return duplicate names within one call.
type Source interface {
	Collect() []Reading
}

// SourceFunc adapts a function to Source.
type SourceFunc func() []Reading

// Collect calls f.
func (f SourceFunc) Collect() []Reading {
	return f()
}

// Snapshot collects every source once and merges the readings by name.
// When two sources report the same name the first one wins.
func Snapshot(sources ...Source) map[string]float64 {
	out := make(map[string]float64)
	for _, src := range sources {
		if src == nil {
			continue
		}
		for _, r := range src.Collect() {
			if _, dup := out[r.Name]; dup {
				continue
			}
			out[r.Name] = r.Value
		}
	}
	return out
}
