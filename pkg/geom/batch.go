package geom

// Guard is a suspended-delivery scope on a Point or Angle. While any guard
// is open, writes are applied but observers are not notified; when the
// outermost guard is resumed the observers fire once with the final value.
type Guard struct {
	resume func()
	done   bool
}

// Resume closes the scope. Only the first call has an effect.
func (g *Guard) Resume() {
	if g.done {
		return
	}
	g.done = true
	g.resume()
}

// batcher tracks nesting depth and the value seen when the outermost scope
// opened.
type batcher[V comparable] struct {
	depth  int
	dirty  bool
	before V
}

// suspended reports whether notifications are currently held back.
func (b *batcher[V]) suspended() bool {
	return b.depth > 0
}

// hold records the pre-batch value on the first write inside a scope.
func (b *batcher[V]) hold(cur V) {
	if !b.dirty {
		b.dirty = true
		b.before = cur
	}
}

// release leaves one scope. It returns the pre-batch value and true when the
// outermost scope closed and the value actually changed.
func (b *batcher[V]) release(cur V) (V, bool) {
	if b.depth == 0 {
		panic("geom: resume without matching suspend")
	}
	b.depth--
	if b.depth > 0 || !b.dirty {
		var zero V
		return zero, false
	}
	b.dirty = false
	if cur == b.before {
		var zero V
		return zero, false
	}
	return b.before, true
}
