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

package wdxservice

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxdispatch"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxfile"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxfuture"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxinstance"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxlog"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxmodel"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxmonitor"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxprovider"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxstatus"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxvalue"
)

// Service binds the compiler, instance resolver, provider registry,
// dispatcher, monitoring manager and file registry into the public
// contract (spec.md §4.10). mu is the "global parameter mutex" of §5: it
// serializes model recompilation, device registration and instance
// resolution, but is never held across a provider call.
type Service struct {
	log wdxlog.Logger

	mu    sync.Mutex
	model atomic.Pointer[wdxmodel.DeviceModel]

	Devices    *wdxinstance.Collection
	Providers  *wdxprovider.Collection
	Dispatcher *wdxdispatch.Dispatcher
	Monitors   *wdxmonitor.Manager
	Files      *wdxfile.Registry
}

// New builds an empty Service: no compiled model, no registered devices or
// providers. Callers register providers and call Recompile before serving
// any traffic.
func New(log wdxlog.Logger) *Service {
	s := &Service{
		log:       log.Named("wdxservice"),
		Devices:   wdxinstance.NewCollection(),
		Providers: wdxprovider.NewCollection(),
	}

	empty := &wdxmodel.DeviceModel{
		Features:    map[string]*wdxmodel.FeatureDefinition{},
		Classes:     map[string]*wdxmodel.ClassDefinition{},
		Enums:       map[string]*wdxmodel.EnumDefinition{},
		Definitions: map[uint32]*wdxmodel.ParameterDefinition{},
		DeviceTypes: map[wdxmodel.DeviceTypeKey]*wdxmodel.DeviceTypeDescription{},
	}
	s.model.Store(empty)

	s.Dispatcher = &wdxdispatch.Dispatcher{Providers: s.Providers, Model: s.Model, InstanceExists: s.Devices.HasInstance}
	s.Monitors = wdxmonitor.NewManager(s.Dispatcher.Dispatch)
	s.Files = wdxfile.NewRegistry(s.Providers.Files)

	return s
}

// Model returns the currently compiled model. Safe to call from any
// goroutine; the returned pointer is never mutated in place.
func (s *Service) Model() *wdxmodel.DeviceModel {
	return s.model.Load()
}

// DeviceCollection exposes the registered-device registry to collaborators
// that need to resolve a path without going through the dispatcher, such
// as wdxauth.Service's permission checks.
func (s *Service) DeviceCollection() *wdxinstance.Collection {
	return s.Devices
}

// Recompile rebuilds the DeviceModel from src and atomically swaps it in.
// Existing Devices are untouched: their stored values are keyed by the
// stable parameter id, so a recompilation that leaves an id's identity
// unchanged preserves that id's value across the swap with no extra code
// (see DESIGN.md's "recompilation preserving existing instance values").
func (s *Service) Recompile(src wdxmodel.Sources) ([]wdxmodel.Diagnostic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	model, diagnostics, err := wdxmodel.Compile(src)
	if err != nil {
		return diagnostics, err
	}

	s.model.Store(model)

	s.log.Info().
		Int("features", len(model.Features)).
		Int("classes", len(model.Classes)).
		Int("deviceTypes", len(model.DeviceTypes)).
		Int("diagnostics", len(diagnostics)).
		Msg("model recompiled")

	return diagnostics, nil
}

// RegisterDevice registers a new Device, seeded from the compiled model's
// device-type description.
func (s *Service) RegisterDevice(id wdxinstance.DeviceID, orderNumber, firmwareVersion string) (*wdxinstance.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.Devices.Register(s.Model(), id, orderNumber, firmwareVersion)
}

// UnregisterDevice removes a device, e.g. on disconnect.
func (s *Service) UnregisterDevice(id wdxinstance.DeviceID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Devices.Unregister(id)
}

// resolveErrStatus maps an instance-resolution error onto its wire status.
func resolveErrStatus(err error) wdxstatus.Code {
	switch {
	case errors.Is(err, wdxinstance.ErrInvalidDeviceCollection):
		return wdxstatus.InvalidDeviceCollection
	case errors.Is(err, wdxinstance.ErrInvalidDeviceSlot):
		return wdxstatus.InvalidDeviceSlot
	case errors.Is(err, wdxinstance.ErrUnknownDevice):
		return wdxstatus.UnknownDevice
	case errors.Is(err, wdxinstance.ErrUnknownParameterPath):
		return wdxstatus.UnknownParameterPath
	case errors.Is(err, wdxinstance.ErrUnknownParameterID):
		return wdxstatus.UnknownParameterID
	default:
		return wdxstatus.InternalError
	}
}

// resolveBatch resolves every path against the current model under the
// parameter mutex, the way §5 describes bounding the mutex's holding
// window to "instance resolution, provider-portion planning". It returns
// one address per path, and pre-populates failed resolutions' results
// directly (dispatcher step 1: "pre-populated with status for instances
// already determined to be unknown").
func (s *Service) resolveBatch(deviceID string, paths []string) ([]wdxinstance.Address, []wdxdispatch.Result, []bool) {
	s.mu.Lock()
	model := s.Model()
	addrs := make([]wdxinstance.Address, len(paths))
	results := make([]wdxdispatch.Result, len(paths))
	ok := make([]bool, len(paths))

	for i, path := range paths {
		addr, err := wdxinstance.ResolvePath(model, s.Devices, deviceID, path)
		if err != nil {
			results[i] = wdxdispatch.Result{Status: wdxstatus.Err(resolveErrStatus(err), "")}
			continue
		}

		addrs[i] = addr
		ok[i] = true
	}

	s.mu.Unlock()

	return addrs, results, ok
}

// ReadByPath implements ParameterReadApi.
func (s *Service) ReadByPath(ctx context.Context, deviceID string, paths []string) []wdxdispatch.Result {
	addrs, results, ok := s.resolveBatch(deviceID, paths)

	ops := make([]wdxdispatch.Op, 0, len(paths))
	positions := make([]int, 0, len(paths))

	for i, addr := range addrs {
		if !ok[i] {
			continue
		}

		ops = append(ops, wdxdispatch.Op{Address: addr})
		positions = append(positions, i)
	}

	dispatched := s.Dispatcher.Dispatch(ctx, ops)
	for k, i := range positions {
		results[i] = dispatched[k]
	}

	return results
}

// WriteByPath implements ParameterWriteApi. deferConnectionChanges mirrors
// the wire request's defer_wda_web_connection_changes flag (spec.md
// §4.4): when set, a write whose definition is connection-changing
// reports wda_connection_changes_deferred instead of being issued.
func (s *Service) WriteByPath(ctx context.Context, deviceID string, writes []ParameterWrite, deferConnectionChanges bool) []wdxdispatch.Result {
	paths := make([]string, len(writes))
	for i, w := range writes {
		paths[i] = w.Path
	}

	addrs, results, ok := s.resolveBatch(deviceID, paths)

	ops := make([]wdxdispatch.Op, 0, len(writes))
	positions := make([]int, 0, len(writes))

	for i, addr := range addrs {
		if !ok[i] {
			continue
		}

		v := writes[i].Value
		ops = append(ops, wdxdispatch.Op{Address: addr, Write: &v, DeferConnectionChanges: deferConnectionChanges})
		positions = append(positions, i)
	}

	dispatched := s.Dispatcher.Dispatch(ctx, ops)
	for k, i := range positions {
		results[i] = dispatched[k]
	}

	return results
}

// InvokeMethod implements MethodApi. Methods are not batched, so they
// bypass the dispatcher's sibling-poisoning machinery entirely; a single
// failed invocation affects only itself.
func (s *Service) InvokeMethod(ctx context.Context, deviceID, path string, args []wdxvalue.Value) ([]wdxvalue.Value, wdxstatus.Code) {
	s.mu.Lock()
	model := s.Model()
	addr, err := wdxinstance.ResolvePath(model, s.Devices, deviceID, path)
	s.mu.Unlock()

	if err != nil {
		return nil, resolveErrStatus(err)
	}

	def := addr.Definition
	if def.ValueType != wdxvalue.KindMethod {
		return nil, wdxstatus.WrongValueType
	}

	if def.Inactive() {
		return nil, wdxstatus.StatusValueUnavailable
	}

	feature := def.FeatureName
	if feature == "" {
		feature = def.ClassName
	}

	res, ok := s.Providers.Parameters.Resolve(def.ID, feature, "", "")
	if !ok {
		return nil, wdxstatus.InternalError
	}

	return res.Provider.Invoke(ctx, def.ID, addr.InstanceID, args)
}

// CreateMonitoringList implements MonitoringApi.
func (s *Service) CreateMonitoringList(deviceID string, paths []string, oneOff bool, ttl time.Duration) (uint64, error) {
	addrs, _, ok := s.resolveBatch(deviceID, paths)

	entries := make([]wdxmonitor.Entry, 0, len(paths))

	for i, addr := range addrs {
		if !ok[i] {
			continue
		}

		entries = append(entries, wdxmonitor.Entry{Address: addr})
	}

	return s.Monitors.Create(entries, oneOff, ttl)
}

// PollMonitoringList implements MonitoringApi.
func (s *Service) PollMonitoringList(ctx context.Context, id uint64) ([]wdxmonitor.Item, error) {
	return s.Monitors.Poll(ctx, id)
}

func (s *Service) AwaitMonitoringList(ctx context.Context, id uint64) (wdxfuture.Future[[]wdxmonitor.Item], error) {
	return s.Monitors.AwaitOneOff(ctx, id)
}

// RemoveMonitoringList implements MonitoringApi.
func (s *Service) RemoveMonitoringList(id uint64) { s.Monitors.Remove(id) }

// AllMonitoringLists implements MonitoringApi.
func (s *Service) AllMonitoringLists() []uint64 { return s.Monitors.All() }

// TriggerLapseChecks implements MonitoringApi by sweeping timed-out
// monitoring lists. It does not sweep the file registry's expired upload
// ids; those are swept only by the file registry's own calls.
func (s *Service) TriggerLapseChecks() {
	s.Monitors.TriggerLapseChecks()
}

// BeginUpload implements FileApi.
func (s *Service) BeginUpload() string { return s.Files.BeginUpload() }

// AppendUpload implements FileApi.
func (s *Service) AppendUpload(uploadID string, chunk []byte) error {
	return s.Files.AppendUpload(uploadID, chunk)
}

// CommitUpload implements FileApi.
func (s *Service) CommitUpload(ctx context.Context, uploadID, deviceID, path string) (string, wdxstatus.Code) {
	s.mu.Lock()
	model := s.Model()
	addr, err := wdxinstance.ResolvePath(model, s.Devices, deviceID, path)
	s.mu.Unlock()

	if err != nil {
		return "", resolveErrStatus(err)
	}

	feature := addr.Definition.FeatureName
	if feature == "" {
		feature = addr.Definition.ClassName
	}

	return s.Files.CommitUpload(ctx, uploadID, addr.Definition.ID, feature)
}

// ReadParameterFile implements FileApi.
func (s *Service) ReadParameterFile(ctx context.Context, deviceID, path, fileID string) ([]byte, wdxstatus.Code) {
	s.mu.Lock()
	model := s.Model()
	addr, err := wdxinstance.ResolvePath(model, s.Devices, deviceID, path)
	s.mu.Unlock()

	if err != nil {
		return nil, resolveErrStatus(err)
	}

	feature := addr.Definition.FeatureName
	if feature == "" {
		feature = addr.Definition.ClassName
	}

	return s.Files.ReadFile(ctx, fileID, addr.Definition.ID, feature)
}

// RegisterParameterProvider implements BackendApi.
func (s *Service) RegisterParameterProvider(
	param wdxprovider.ParameterSelector,
	device wdxprovider.DeviceSelector,
	mode wdxprovider.CallMode,
	provider wdxprovider.ParameterProvider,
) wdxprovider.Handle {
	return s.Providers.Parameters.Register(param, device, mode, provider)
}

// RegisterModelProvider implements BackendApi.
func (s *Service) RegisterModelProvider(device wdxprovider.DeviceSelector, provider wdxprovider.ModelProvider) wdxprovider.Handle {
	return s.Providers.Models.Register(wdxprovider.ParameterSelector{Any: true}, device, wdxprovider.Concurrent, provider)
}

// RegisterDeviceDescriptionProvider implements BackendApi.
func (s *Service) RegisterDeviceDescriptionProvider(device wdxprovider.DeviceSelector, provider wdxprovider.DeviceDescriptionProvider) wdxprovider.Handle {
	return s.Providers.DeviceDescriptions.Register(wdxprovider.ParameterSelector{Any: true}, device, wdxprovider.Concurrent, provider)
}

// RegisterFileProvider implements BackendApi.
func (s *Service) RegisterFileProvider(param wdxprovider.ParameterSelector, device wdxprovider.DeviceSelector, provider wdxprovider.FileProvider) wdxprovider.Handle {
	return s.Providers.Files.Register(param, device, wdxprovider.Concurrent, provider)
}

// UnregisterParameterProvider implements BackendApi.
func (s *Service) UnregisterParameterProvider(h wdxprovider.Handle) {
	s.Providers.Parameters.Unregister(h)
}

var (
	_ ParameterReadApi  = (*Service)(nil)
	_ ParameterWriteApi = (*Service)(nil)
	_ MethodApi         = (*Service)(nil)
	_ ModelApi          = (*Service)(nil)
	_ MonitoringApi     = (*Service)(nil)
	_ FileApi           = (*Service)(nil)
	_ BackendApi        = (*Service)(nil)
)
