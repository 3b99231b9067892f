package persist

// Persister handles file I/O for a specific state type using a Codec.
type Persister[T any] struct {
	codec Codec
}

// NewPersister creates a persister with the given codec.
func NewPersister[T any](codec Codec) *Persister[T] {
	return &Persister[T]{codec: codec}
}

// Codec returns the codec used by the persister.
func (p *Persister[T]) Codec() Codec {
	return p.codec
}

// Save writes the state produced by buildState to path.
func (p *Persister[T]) Save(path string, buildState func() *T) error {
	return SaveFile(path, p.codec, buildState())
}

// Load reads path and hands the decoded state to restoreState.
func (p *Persister[T]) Load(path string, restoreState func(*T) error) error {
	var state T

	err := LoadFile(path, p.codec, &state)
	if err != nil {
		return err
	}

	return restoreState(&state)
}
