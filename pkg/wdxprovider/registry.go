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

package wdxprovider

import "sync"

// Handle identifies one registration, returned by Register and required
// by Unregister.
type Handle uint64

// registration is the internal bookkeeping for one registered provider.
type registration[T any] struct {
	handle   Handle
	seq      int
	param    ParameterSelector
	device   DeviceSelector
	mode     CallMode
	provider T
}

// Registry[T] is a generic, specificity-ordered collection of provider
// registrations for one collaborator kind (parameter, model,
// device-description, device-extension or file provider), mirroring the
// registry-of-creators shape the platform uses elsewhere to map a
// selector key to a concrete implementation, generalized here to the
// two-axis (parameter, device) selector spec.md §4.3 requires.
type Registry[T any] struct {
	mu      sync.RWMutex
	nextSeq int
	nextH   Handle
	regs    []registration[T]
}

// NewRegistry constructs an empty Registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{}
}

// Register adds a provider under the given selectors and call mode,
// returning a Handle for later Unregister. Registration order breaks
// ties between equally specific selectors (first-registered wins).
func (r *Registry[T]) Register(param ParameterSelector, device DeviceSelector, mode CallMode, provider T) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextH++
	h := r.nextH

	r.regs = append(r.regs, registration[T]{
		handle:   h,
		seq:      r.nextSeq,
		param:    param,
		device:   device,
		mode:     mode,
		provider: provider,
	})
	r.nextSeq++

	return h
}

// Unregister removes a prior registration. It is a no-op if h is unknown.
func (r *Registry[T]) Unregister(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, reg := range r.regs {
		if reg.handle == h {
			r.regs = append(r.regs[:i], r.regs[i+1:]...)
			return
		}
	}
}

// Resolution is the outcome of resolving one (parameter, device) pair.
type Resolution[T any] struct {
	Provider T
	Mode     CallMode
	Handle   Handle
}

// Resolve finds the most specific provider registered for a parameter on
// a given feature and device, per spec.md §4.3: rank candidates by
// combined (parameter-selector, device-selector) specificity, breaking
// ties by earliest registration.
func (r *Registry[T]) Resolve(parameterID uint32, featureName, orderNumber, firmwareVersion string) (Resolution[T], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	best := -1
	bestScore := -1
	bestSeq := -1

	for i, reg := range r.regs {
		if !reg.param.matchesParameter(parameterID, featureName) {
			continue
		}

		if !reg.device.matchesDevice(orderNumber, firmwareVersion) {
			continue
		}

		score := reg.param.specificity()*10 + reg.device.specificity()

		if score > bestScore || (score == bestScore && reg.seq < bestSeq) {
			best = i
			bestScore = score
			bestSeq = reg.seq
		}
	}

	if best < 0 {
		var zero Resolution[T]
		return zero, false
	}

	reg := r.regs[best]

	return Resolution[T]{Provider: reg.provider, Mode: reg.mode, Handle: reg.handle}, true
}

// All returns every live registration, for enumeration use cases like
// change-log replay or diagnostics.
func (r *Registry[T]) All() []Resolution[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Resolution[T], 0, len(r.regs))
	for _, reg := range r.regs {
		out = append(out, Resolution[T]{Provider: reg.provider, Mode: reg.mode, Handle: reg.handle})
	}

	return out
}

// Len reports the number of live registrations.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.regs)
}
