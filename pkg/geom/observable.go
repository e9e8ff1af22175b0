// Package geom provides the reactive geometry primitives the viewport is
// built on: observable points, rotations and lines. Every mutation of a
// Point or Angle is pushed to its subscribers, which is how scene objects
// keep their cached triangles and hit-test boxes in step with the editor.
package geom

// Observer receives change notifications from an Observable.
//
// Observers are compared by identity when bound, so implementations should
// be pointer types.
type Observer[T any] interface {
	Notify(T)
}

// Subscription is the handle returned when an observer is bound. Closing it
// detaches the observer; the owner of the listener is expected to close its
// subscriptions when it is destroyed.
type Subscription struct {
	observer any
	closed   bool
}

// Close detaches the observer. Calling Close more than once is harmless.
func (s *Subscription) Close() {
	if s != nil {
		s.closed = true
	}
}

// Closed reports whether the subscription has been closed.
func (s *Subscription) Closed() bool {
	return s == nil || s.closed
}

// funcObserver adapts a plain function. It is always used by pointer so two
// subscriptions of the same function value remain distinct.
type funcObserver[T any] struct {
	fn func(T)
}

func (f *funcObserver[T]) Notify(v T) { f.fn(v) }

// Observable is a typed event channel scoped to the entity that owns it.
// The zero value is ready to use. It is not safe for concurrent use; all
// geometry lives on the UI loop.
type Observable[T any] struct {
	subs []*Subscription
}

// Bind registers o. If o is already bound the existing subscription is
// returned together with false.
func (ob *Observable[T]) Bind(o Observer[T]) (*Subscription, bool) {
	ob.prune()
	for _, s := range ob.subs {
		if s.observer == any(o) {
			return s, false
		}
	}
	s := &Subscription{observer: o}
	ob.subs = append(ob.subs, s)
	return s, true
}

// Subscribe registers fn and returns its subscription.
func (ob *Observable[T]) Subscribe(fn func(T)) *Subscription {
	s, _ := ob.Bind(&funcObserver[T]{fn: fn})
	return s
}

// Unbind removes o if it is bound.
func (ob *Observable[T]) Unbind(o Observer[T]) {
	for i, s := range ob.subs {
		if s.observer == any(o) {
			s.closed = true
			ob.subs = append(ob.subs[:i:i], ob.subs[i+1:]...)
			return
		}
	}
}

// Fire delivers v to every live observer in registration order. Observers
// bound while firing are not called until the next Fire.
func (ob *Observable[T]) Fire(v T) {
	subs := ob.subs
	for _, s := range subs {
		if s.closed {
			continue
		}
		s.observer.(Observer[T]).Notify(v)
	}
	ob.prune()
}

// Len returns the number of live observers.
func (ob *Observable[T]) Len() int {
	n := 0
	for _, s := range ob.subs {
		if !s.closed {
			n++
		}
	}
	return n
}

// prune drops closed subscriptions.
func (ob *Observable[T]) prune() {
	live := ob.subs[:0:0]
	for _, s := range ob.subs {
		if !s.closed {
			live = append(live, s)
		}
	}
	ob.subs = live
}
