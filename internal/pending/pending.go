// Package pending implements the value type shared by resolvers and the
// executor's completion steps: a result that is either ready now, failed now,
// or deferred until a goroutine settles it.
//
// A Value created by Ready or Fail is synchronous. A Value created by Go is
// deferred for its whole lifetime, even after it has settled, so callers can
// tell at any composition point whether a suspension was involved.
//
// The combinators keep synchronous chains synchronous: Handle, Then and All
// run their continuation on the calling goroutine when every input is
// synchronous and only spawn a goroutine when some input is deferred.
package pending

import (
	"fmt"
	"runtime/debug"
)

// Value is a settled or settling result of type T.
type Value[T any] struct {
	done chan struct{} // nil for synchronous values
	val  T
	err  error
}

// Ready returns a synchronous value.
func Ready[T any](v T) *Value[T] {
	return &Value[T]{val: v}
}

// Fail returns a synchronous failure.
func Fail[T any](err error) *Value[T] {
	return &Value[T]{err: err}
}

// Go runs fn on a new goroutine and returns a deferred value settled with its
// result. A panic in fn settles the value with a *PanicError.
func Go[T any](fn func() (T, error)) *Value[T] {
	v := &Value[T]{done: make(chan struct{})}
	go func() {
		defer close(v.done)
		defer func() {
			if r := recover(); r != nil {
				v.err = &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		v.val, v.err = fn()
	}()
	return v
}

// Deferred reports whether v was produced asynchronously.
func (v *Value[T]) Deferred() bool {
	return v.done != nil
}

// Await blocks until v settles and returns its outcome.
func (v *Value[T]) Await() (T, error) {
	if v.done != nil {
		<-v.done
	}
	return v.val, v.err
}

// Handle continues v with fn, which receives either the value or the error.
func Handle[T, U any](v *Value[T], fn func(T, error) *Value[U]) *Value[U] {
	if !v.Deferred() {
		return fn(v.val, v.err)
	}
	return Go(func() (U, error) {
		t, err := v.Await()
		return fn(t, err).Await()
	})
}

// Then continues v with fn on success and passes failures through untouched.
func Then[T, U any](v *Value[T], fn func(T) *Value[U]) *Value[U] {
	return Handle(v, func(t T, err error) *Value[U] {
		if err != nil {
			return Fail[U](err)
		}
		return fn(t)
	})
}

// All waits for every element to settle and yields their values in index
// order. If any element failed, the result fails with the error of the lowest
// failing index.
func All[T any](vs []*Value[T]) *Value[[]T] {
	collect := func() ([]T, error) {
		out := make([]T, len(vs))
		var first error
		for i, v := range vs {
			t, err := v.Await()
			if err != nil {
				if first == nil {
					first = err
				}
				continue
			}
			out[i] = t
		}
		if first != nil {
			return nil, first
		}
		return out, nil
	}
	for _, v := range vs {
		if v.Deferred() {
			return Go(collect)
		}
	}
	out, err := collect()
	if err != nil {
		return Fail[[]T](err)
	}
	return Ready(out)
}

// PanicError carries a value recovered from a panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	switch v := e.Value.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return fmt.Sprintf("panic: %v", v)
	}
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
