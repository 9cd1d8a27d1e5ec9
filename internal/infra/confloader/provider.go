package confloader

import (
	"errors"

	"github.com/knadh/koanf/maps"
)

// ErrReadBytesNotSupported is returned by mapProvider.ReadBytes.
var ErrReadBytesNotSupported = errors.New("confloader: map provider has no byte form")

// mapProvider feeds a map with dotted keys to koanf.
type mapProvider struct {
	data  map[string]any
	delim string
}

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, ErrReadBytesNotSupported
}

// Read returns the map unflattened on the delimiter.
func (m mapProvider) Read() (map[string]any, error) {
	cp := make(map[string]any, len(m.data))
	for k, v := range m.data {
		cp[k] = v
	}
	return maps.Unflatten(cp, m.delim), nil
}
