/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package wdxfuture implements the single-consumer future/promise pair
// described in spec.md §9 "futures and notifiers": the side doing the work
// holds a Promise, the caller keeps the matching Future, and the caller may
// independently Dismiss its own interest without canceling that work. Dismissed-vs-completed-vs-timed-out must stay distinguishable, so
// this is not a bare context.Context: a context carries only
// cancelled-or-not, and a provider that finishes after the caller stopped
// listening must not block forever trying to deliver a result nobody reads.
package wdxfuture

import (
	"context"
	"errors"
	"sync"
)

// ErrDismissed is delivered to a notifier registered after Dismiss, or
// returned by Wait, once the future has been dismissed.
var ErrDismissed = errors.New("wdxfuture: dismissed")

// ErrAlreadySet is returned by Promise.Set/SetError when the promise has
// already been resolved or dismissed.
var ErrAlreadySet = errors.New("wdxfuture: promise already resolved")

type state int

const (
	pending state = iota
	resolved
	failed
	dismissed
)

// shared is the state shared by a Future/Promise pair.
type shared[T any] struct {
	mu       sync.Mutex
	state    state
	value    T
	err      error
	done     chan struct{}
	notifier func(T)
	onError  func(error)
}

// Future is the read side of the pair: exactly one consumer waits on it or
// registers notifiers, matching the "single-consumer" contract.
type Future[T any] struct {
	s *shared[T]
}

// Promise is the write side, held by the provider performing the work.
type Promise[T any] struct {
	s *shared[T]
}

// New creates a connected Future/Promise pair.
func New[T any]() (Future[T], Promise[T]) {
	s := &shared[T]{done: make(chan struct{})}
	return Future[T]{s: s}, Promise[T]{s: s}
}

// Set resolves the promise with a value. It is a no-op error if the future
// was already dismissed; the provider's result is simply discarded, per
// §9's "dismiss" contract.
func (p Promise[T]) Set(v T) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if p.s.state != pending {
		if p.s.state == dismissed {
			return nil
		}

		return ErrAlreadySet
	}

	p.s.state = resolved
	p.s.value = v

	if p.s.notifier != nil {
		notifier := p.s.notifier
		value := v
		go notifier(value)
	}

	close(p.s.done)

	return nil
}

// SetError fails the promise. Also a no-op if already dismissed.
func (p Promise[T]) SetError(err error) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if p.s.state != pending {
		if p.s.state == dismissed {
			return nil
		}

		return ErrAlreadySet
	}

	p.s.state = failed
	p.s.err = err

	if p.s.onError != nil {
		onError := p.s.onError
		e := err
		go onError(e)
	}

	close(p.s.done)

	return nil
}

// Dismiss marks the future as no longer of interest to its consumer. A
// promise that later Sets or SetErrors after Dismiss is silently ignored:
// the provider's eventual result is simply dropped, never blocking it.
func (f Future[T]) Dismiss() {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if f.s.state != pending {
		return
	}

	f.s.state = dismissed

	if f.s.onError != nil {
		onError := f.s.onError
		go onError(ErrDismissed)
	}

	close(f.s.done)
}

// SetNotifier registers a callback invoked exactly once, asynchronously,
// when the promise resolves successfully. Registering after resolution
// invokes it immediately.
func (f Future[T]) SetNotifier(fn func(T)) {
	f.s.mu.Lock()

	switch f.s.state {
	case resolved:
		v := f.s.value
		f.s.mu.Unlock()
		go fn(v)

		return
	case pending:
		f.s.notifier = fn
		f.s.mu.Unlock()

		return
	default:
		f.s.mu.Unlock()

		return
	}
}

// SetExceptionNotifier registers a callback invoked exactly once when the
// promise fails or the future is dismissed (with ErrDismissed).
func (f Future[T]) SetExceptionNotifier(fn func(error)) {
	f.s.mu.Lock()

	switch f.s.state {
	case failed:
		e := f.s.err
		f.s.mu.Unlock()
		go fn(e)

		return
	case dismissed:
		f.s.mu.Unlock()
		go fn(ErrDismissed)

		return
	case pending:
		f.s.onError = fn
		f.s.mu.Unlock()

		return
	default:
		f.s.mu.Unlock()

		return
	}
}

// Wait blocks until the promise resolves, fails, the future is dismissed,
// or ctx is done (ctx.Err() takes precedence over a never-delivered
// result, but an already-resolved value is still returned even if ctx has
// since expired).
func (f Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.s.done:
	default:
		select {
		case <-f.s.done:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}

	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	switch f.s.state {
	case resolved:
		return f.s.value, nil
	case dismissed:
		var zero T
		return zero, ErrDismissed
	default:
		var zero T
		return zero, f.s.err
	}
}

// Done returns a channel closed once the promise's future has resolved,
// failed, or been dismissed.
func (p Promise[T]) Done() <-chan struct{} {
	return p.s.done
}

// IsDismissed reports whether the future paired with this promise was
// dismissed by its consumer.
func (p Promise[T]) IsDismissed() bool {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	return p.s.state == dismissed
}

// Chain composes g after f: the returned Future resolves once f resolves
// and g(f's value) resolves, forwarding dismissal in both directions so a
// caller dismissing the composed future also dismisses the upstream
// future it wraps.
func Chain[T, U any](f Future[T], g func(T) Future[U]) Future[U] {
	out, promise := New[U]()

	go func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go func() {
			select {
			case <-promise.Done():
				if promise.IsDismissed() {
					f.Dismiss()
				}

				cancel()
			case <-ctx.Done():
			}
		}()

		v, err := f.Wait(ctx)
		if err != nil {
			_ = promise.SetError(err)
			return
		}

		inner := g(v)

		go func() {
			select {
			case <-promise.Done():
				if promise.IsDismissed() {
					inner.Dismiss()
				}
			case <-ctx.Done():
			}
		}()

		innerV, err := inner.Wait(ctx)
		if err != nil {
			_ = promise.SetError(err)
			return
		}

		_ = promise.Set(innerV)
	}()

	return out
}
