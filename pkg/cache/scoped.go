package cache

// ScopedKeyer wraps a Keyer with a prefix, isolating several corpora or
// standard editions that share one backend.
//
// Example usage:
//
//	// Keys for the 2024b edition only
//	k := NewScopedKeyer(NewDefaultKeyer(), "2024b:")
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

// DocumentKey generates a prefixed document key.
func (k *ScopedKeyer) DocumentKey(source, part string) string {
	return k.prefix + k.inner.DocumentKey(source, part)
}
