// Package options holds the functional options shared by cellbin's
// configurable types: the conversion Config and the entity index builder.
//
// A package exposes its options as an alias, for example
// `type Option = options.Option[*Config]`, and builds each With* helper from
// New when the value needs validating or NoError when any value is accepted.
package options

// Option mutates a T being configured, or rejects the setting with an error
// that the constructor returns unchanged.
type Option[T any] interface {
	apply(T) error
}

// Func is the Option produced by New and NoError.
type Func[T any] struct {
	applyFunc func(T) error
}

func (f *Func[T]) apply(target T) error {
	return f.applyFunc(target)
}

// New wraps a validating setter, such as a chunk size that must be positive.
func New[T any](fn func(T) error) *Func[T] {
	return &Func[T]{applyFunc: fn}
}

// NoError wraps a setter that accepts every value, such as a logger.
func NoError[T any](fn func(T)) *Func[T] {
	return &Func[T]{
		applyFunc: func(target T) error {
			fn(target)
			return nil
		},
	}
}

// Apply runs opts against target in order, so a later option overrides an
// earlier one for the same setting. It returns the first rejection and skips
// nil entries, which lets callers build option lists conditionally.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(target); err != nil {
			return err
		}
	}

	return nil
}
