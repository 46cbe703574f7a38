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

// Package wdxdispatch implements the Request Dispatcher (spec.md §4.4): it
// takes a batch of parameter operations, validates each against the
// compiled model, partitions the survivors by resolved provider, and
// fans calls out with per-provider call-mode and batch-wide cancellation.
// A write failure on any entry poisons every other still-undetermined
// entry addressed to the same provider within the batch ("sibling
// poisoning", §8 dispatcher invariants).
package wdxdispatch

import (
	"context"
	"regexp"
	"sync"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxinstance"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxmodel"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxprovider"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxstatus"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxvalue"
)

// Op is one batch entry: a resolved address plus, for a write, the value
// to store.
type Op struct {
	Address wdxinstance.Address
	Write   *wdxvalue.Value // nil for a read

	// DeferConnectionChanges mirrors the batch-wide
	// defer_wda_web_connection_changes flag onto each op it applies to
	// (spec.md §4.4): a write whose definition is connection-changing is
	// reported wda_connection_changes_deferred instead of being issued.
	DeferConnectionChanges bool
}

// Result is the per-entry outcome of a dispatched batch.
type Result struct {
	Value  wdxvalue.Value
	Status wdxstatus.Response
}

// ChangeNotifier is the optional hook invoked once per confirmed write,
// letting wdxevents publish a change-log entry without this package
// depending on the messaging stack directly.
type ChangeNotifier interface {
	NotifyChange(parameterID uint32, instanceID uint32, value wdxvalue.Value)
}

// Metrics is the optional instrumentation hook a Dispatcher reports
// through, implemented by wdxmetrics.
type Metrics interface {
	ObserveBatch(size int, failed int)
}

// Dispatcher executes batches of reads and writes against the provider
// registry, honoring each provider's declared call mode and propagating
// batch-wide cancellation.
type Dispatcher struct {
	Providers *wdxprovider.Collection
	Model     func() *wdxmodel.DeviceModel // returns the current compiled model; swapped atomically by the owner
	Notifier  ChangeNotifier               // optional
	Metrics   Metrics                      // optional

	// InstanceExists reports whether a class instance already exists,
	// for the dynamic-instantiation member check (spec.md §4.4). Nil
	// disables the check, so a member write is never rejected for a
	// missing instantiation.
	InstanceExists func(device wdxinstance.DeviceID, className string, instanceID uint32) bool
}

// portion groups the batch indices resolved to one provider, so a
// serialized provider's calls stay ordered and a failure inside one
// portion only poisons that portion's own undetermined entries.
type portion struct {
	resolution wdxprovider.Resolution[wdxprovider.ParameterProvider]
	indices    []int
}

// instanceKey identifies one class instance of one device, for tracking
// which instances a portion's own instantiation writes bring into being.
type instanceKey struct {
	device     wdxinstance.DeviceID
	className  string
	instanceID uint32
}

// Dispatch runs ops against the current model and provider registry,
// returning one Result per op in input order. ctx cancellation aborts any
// calls still in flight; already-settled entries keep their results and
// everything still pending reports wdxstatus.Cancelled.
func (d *Dispatcher) Dispatch(ctx context.Context, ops []Op) []Result {
	results := make([]Result, len(ops))

	portions := map[wdxprovider.Handle]*portion{}
	order := []wdxprovider.Handle{}

	for i, op := range ops {
		feature := op.Address.Definition.FeatureName
		if feature == "" {
			feature = op.Address.ClassName
		}

		res, ok := d.Providers.Parameters.Resolve(op.Address.Definition.ID, feature, "", "")
		if !ok {
			results[i] = Result{Status: wdxstatus.Err(wdxstatus.ParameterNotProvided, "")}
			continue
		}

		p, exists := portions[res.Handle]
		if !exists {
			p = &portion{resolution: res}
			portions[res.Handle] = p
			order = append(order, res.Handle)
		}

		p.indices = append(p.indices, i)
	}

	var wg sync.WaitGroup

	for _, h := range order {
		p := portions[h]

		wg.Add(1)

		go func(p *portion) {
			defer wg.Done()
			d.runPortion(ctx, ops, results, p)
		}(p)
	}

	wg.Wait()

	if d.Metrics != nil {
		failed := 0

		for _, r := range results {
			if !r.Status.IsOK() {
				failed++
			}
		}

		d.Metrics.ObserveBatch(len(ops), failed)
	}

	return results
}

// orderPortion returns a portion's indices reordered so that
// instantiation-kind writes (parameter_value_types::instantiations) run
// before every other entry, the topological sort spec.md §4.4 requires so
// a member write's instance exists by the time it is issued. It also
// returns the set of instances those instantiation writes bring into
// being, so a same-batch member write targeting one of them is not
// rejected as missing.
func orderPortion(ops []Op, p *portion) ([]int, map[instanceKey]bool) {
	created := map[instanceKey]bool{}

	instantiations := make([]int, 0, len(p.indices))
	members := make([]int, 0, len(p.indices))

	for _, i := range p.indices {
		op := ops[i]

		if op.Write != nil && op.Write.Kind() == wdxvalue.KindInstantiations {
			instantiations = append(instantiations, i)

			if insts, ok := op.Write.Instantiations(); ok {
				for _, inst := range insts {
					created[instanceKey{op.Address.Device, inst.ClassName, inst.InstanceID}] = true
				}
			}

			continue
		}

		members = append(members, i)
	}

	return append(instantiations, members...), created
}

func (d *Dispatcher) runPortion(ctx context.Context, ops []Op, results []Result, p *portion) {
	ordered, created := orderPortion(ops, p)

	// Every write is validated against the model before any provider
	// call in the portion is issued, so an invalid entry can never let a
	// sibling write reach the provider first merely because it sorts
	// earlier (spec.md §8: "if any entry in a write batch is invalid
	// before dispatch, no provider write call is made for sibling
	// entries").
	preflight := make(map[int]wdxstatus.Response, len(ordered))
	poisoned := false

	for _, i := range ordered {
		if status, invalid := d.preflight(ops[i], created); invalid {
			preflight[i] = status

			if ops[i].Write != nil {
				poisoned = true
			}
		}
	}

	runOne := func(i int) {
		if ctx.Err() != nil {
			results[i] = Result{Status: wdxstatus.Err(wdxstatus.Cancelled, "")}
			return
		}

		if status, failed := preflight[i]; failed {
			results[i] = Result{Status: status}
			return
		}

		if poisoned {
			results[i] = poisonResult(ops[i])
			return
		}

		results[i] = d.callOne(ctx, ops[i], p.resolution.Provider)

		if isPoisoningFailure(results[i], ops[i]) {
			poisoned = true
		}
	}

	if p.resolution.Mode == wdxprovider.Serialized {
		for _, i := range ordered {
			runOne(i)
		}

		return
	}

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, i := range ordered {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			mu.Lock()
			alreadyPoisoned := poisoned
			mu.Unlock()

			if ctx.Err() != nil {
				results[i] = Result{Status: wdxstatus.Err(wdxstatus.Cancelled, "")}
				return
			}

			if status, failed := preflight[i]; failed {
				results[i] = Result{Status: status}
				return
			}

			if alreadyPoisoned {
				results[i] = poisonResult(ops[i])
				return
			}

			r := d.callOne(ctx, ops[i], p.resolution.Provider)
			results[i] = r

			if isPoisoningFailure(r, ops[i]) {
				mu.Lock()
				poisoned = true
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()
}

func poisonResult(Op) Result {
	return Result{Status: wdxstatus.Err(wdxstatus.OtherInvalidValueInSet, "sibling write in this batch failed")}
}

// isPoisoningFailure reports whether a settled write result should poison
// its still-undetermined portion siblings. wda_connection_changes_deferred
// is a success-family status (spec.md §4.4: "other entries proceed
// normally"), not a failure, so it must not trigger sibling poisoning even
// though its code isn't OK.
func isPoisoningFailure(r Result, op Op) bool {
	return op.Write != nil && !r.Status.IsOK() && r.Status.Code != wdxstatus.ConnectionChangesDeferred
}

// preflight runs every check that can be decided before a provider is
// ever called: inactivity, writeability, the dynamic-instantiation member
// check, and validateWrite's type/pattern/allowed-value/length checks.
// created holds the instances this portion's own instantiation writes
// bring into being, so a member write sequenced after them is not
// rejected as missing.
func (d *Dispatcher) preflight(op Op, created map[instanceKey]bool) (wdxstatus.Response, bool) {
	def := op.Address.Definition

	if def.Inactive() {
		if op.Write != nil {
			return wdxstatus.Err(wdxstatus.ParameterNotWriteable, ""), true
		}

		return wdxstatus.Err(wdxstatus.StatusValueUnavailable, ""), true
	}

	if op.Write == nil {
		return wdxstatus.Response{}, false
	}

	if !def.Writeable {
		return wdxstatus.Err(wdxstatus.ParameterNotWriteable, ""), true
	}

	if op.Write.Kind() != wdxvalue.KindInstantiations && op.Address.ClassName != "" {
		key := instanceKey{op.Address.Device, op.Address.ClassName, op.Address.InstanceID}
		if !created[key] && d.InstanceExists != nil && !d.InstanceExists(op.Address.Device, op.Address.ClassName, op.Address.InstanceID) {
			return wdxstatus.Err(wdxstatus.MissingParameterForInstantiation, ""), true
		}
	}

	if status, ok := validateWrite(def, *op.Write); !ok {
		return status, true
	}

	return wdxstatus.Response{}, false
}

func (d *Dispatcher) callOne(ctx context.Context, op Op, provider wdxprovider.ParameterProvider) Result {
	def := op.Address.Definition

	if op.Write != nil {
		if op.DeferConnectionChanges && def.ConnectionChanging {
			return Result{Status: wdxstatus.Err(wdxstatus.ConnectionChangesDeferred, "")}
		}

		code := provider.Write(ctx, def.ID, op.Address.InstanceID, *op.Write)
		if code == wdxstatus.OK && d.Notifier != nil {
			d.Notifier.NotifyChange(def.ID, op.Address.InstanceID, *op.Write)
		}

		return Result{Status: wdxstatus.Response{Code: code}}
	}

	v, code := provider.Read(ctx, def.ID, op.Address.InstanceID)

	return Result{Value: v, Status: wdxstatus.Response{Code: code}}
}

// validateWrite checks a write's value against its definition's type,
// pattern, allowed-value and length constraints before it ever reaches a
// provider (spec.md §4.4's "validation precedes dispatch").
func validateWrite(def *wdxmodel.ParameterDefinition, v wdxvalue.Value) (wdxstatus.Response, bool) {
	if v.Kind() != def.ValueType {
		return wdxstatus.Err(wdxstatus.WrongValueType, ""), false
	}

	if len(def.Overrideables.AllowedValues) > 0 {
		allowed := false

		for _, av := range def.Overrideables.AllowedValues {
			if valuesEqual(av, v) {
				allowed = true
				break
			}
		}

		if !allowed {
			return wdxstatus.Err(wdxstatus.ValueNotAllowed, ""), false
		}
	}

	if def.Overrideables.AllowedLength != nil {
		if v.Len() < def.Overrideables.AllowedLength.Min || v.Len() > def.Overrideables.AllowedLength.Max {
			return wdxstatus.Err(wdxstatus.LengthOutOfRange, ""), false
		}
	}

	if def.Overrideables.Pattern != "" {
		s, err := v.StringValue()
		if err != nil {
			return wdxstatus.Err(wdxstatus.WrongValueType, ""), false
		}

		matched, err := regexp.MatchString(def.Overrideables.Pattern, s)
		if err != nil || !matched {
			return wdxstatus.Err(wdxstatus.PatternMismatch, ""), false
		}
	}

	return wdxstatus.Response{}, true
}

func valuesEqual(a, b wdxvalue.Value) bool {
	as, aErr := a.StringValue()
	bs, bErr := b.StringValue()

	if aErr == nil && bErr == nil {
		return as == bs
	}

	ai, aIntErr := a.Int64Value()
	bi, bIntErr := b.Int64Value()

	if aIntErr == nil && bIntErr == nil {
		return ai == bi
	}

	return false
}
