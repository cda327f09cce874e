// Package scraper holds the pieces shared by every source adapter: ordered
// fallback chains, field parsers and the per-item error taxonomy.
package scraper

// Strategy tries to resolve one field from an input. ok reports whether it
// produced a usable value.
type Strategy[In, Out any] func(in In) (out Out, ok bool)

// Chain is an ordered list of strategies for one field. The first strategy
// that reports ok wins; later ones are not evaluated.
type Chain[In, Out any] []Strategy[In, Out]

// Resolve runs the chain against in.
func (c Chain[In, Out]) Resolve(in In) (Out, bool) {
	for _, s := range c {
		if out, ok := s(in); ok {
			return out, true
		}
	}
	var zero Out
	return zero, false
}

// ResolveOr runs the chain and returns fallback when no strategy matched.
func (c Chain[In, Out]) ResolveOr(in In, fallback Out) Out {
	if out, ok := c.Resolve(in); ok {
		return out
	}
	return fallback
}
