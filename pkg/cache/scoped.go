package cache

// ScopedKeyer wraps a Keyer with a prefix so several tenants can share a
// backend:
//
//	serverKeyer := NewScopedKeyer(NewDefaultKeyer(), "server:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ChartKey generates a prefixed chart key.
func (k *ScopedKeyer) ChartKey(datasetHash string, opts ChartKeyOpts) string {
	return k.prefix + k.inner.ChartKey(datasetHash, opts)
}

// DatasetKey generates a prefixed dataset key.
func (k *ScopedKeyer) DatasetKey(source string) string {
	return k.prefix + k.inner.DatasetKey(source)
}
