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

package wdxauth

import (
	"context"
	"errors"
	"time"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxdispatch"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxfuture"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxinstance"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxmodel"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxmonitor"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxservice"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxstatus"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxvalue"
)

// ErrUnauthorized is returned by the batch-shaped monitoring-list API,
// which (unlike reads/writes/methods) cannot poison individual siblings
// since a monitoring list is created atomically or not at all.
var ErrUnauthorized = errors.New("wdxauth: unauthorized")

// Backend is the caller-facing trait set Service checks permissions in
// front of. It deliberately omits BackendApi: provider registration is an
// operator/bootstrap concern, not a per-caller one.
type Backend interface {
	wdxservice.ParameterReadApi
	wdxservice.ParameterWriteApi
	wdxservice.MethodApi
	wdxservice.ModelApi
	wdxservice.MonitoringApi
	wdxservice.FileApi
}

// Service wraps a Backend, checking the caller's UserPermissions before
// every read, write, method call, file operation and monitoring-list
// creation reaches it (spec.md §4.7). It implements the same trait set as
// its Backend, so a caller holding a Service cannot tell an authorized
// call from an unauthorized-checked one by type.
type Service struct {
	Permissions UserPermissions
	Next        Backend
}

var (
	_ wdxservice.ParameterReadApi  = (*Service)(nil)
	_ wdxservice.ParameterWriteApi = (*Service)(nil)
	_ wdxservice.MethodApi         = (*Service)(nil)
	_ wdxservice.ModelApi          = (*Service)(nil)
	_ wdxservice.MonitoringApi     = (*Service)(nil)
	_ wdxservice.FileApi           = (*Service)(nil)
)

// featureOf resolves the permission-check scope for a path, or "" if the
// path doesn't resolve -- in which case the request is simply forwarded
// so Next can report the proper resolution-failure status instead of a
// misleading unauthorized one.
func (s *Service) featureOf(deviceID, path string) string {
	model := s.Next.Model()

	addr, err := wdxinstance.ResolvePath(model, s.devices(), deviceID, path)
	if err != nil {
		return ""
	}

	if addr.Definition.FeatureName != "" {
		return addr.Definition.FeatureName
	}

	return addr.ClassName
}

// devices reaches into the Backend for the device collection ResolvePath
// needs. wdxservice.Service satisfies this via its exported Devices field.
func (s *Service) devices() *wdxinstance.Collection {
	type deviceHolder interface {
		DeviceCollection() *wdxinstance.Collection
	}

	if dh, ok := s.Next.(deviceHolder); ok {
		return dh.DeviceCollection()
	}

	return wdxinstance.NewCollection()
}

// checkBatch applies permType to every resolvable feature, returning
// pre-populated results for already-determined entries (unauthorized, or
// poisoned as other_unauthorized_request_in_set once a sibling on the
// same feature fails) plus the indices still eligible to reach Next.
func (s *Service) checkBatch(features []string, permType PermissionType) ([]wdxdispatch.Result, []int) {
	results := make([]wdxdispatch.Result, len(features))
	authorized := make([]int, 0, len(features))
	unauthorizedFeatures := map[string]bool{}

	for i, f := range features {
		if f == "" {
			authorized = append(authorized, i)
			continue
		}

		if !HasPermission(f, s.Permissions, permType) {
			results[i] = wdxdispatch.Result{Status: wdxstatus.Err(wdxstatus.UnauthorizedRequest, "")}
			unauthorizedFeatures[f] = true

			continue
		}

		authorized = append(authorized, i)
	}

	for idx := 0; idx < len(authorized); {
		i := authorized[idx]

		if f := features[i]; f != "" && unauthorizedFeatures[f] {
			results[i] = wdxdispatch.Result{Status: wdxstatus.Err(wdxstatus.OtherUnauthorizedRequestInSet, "")}
			authorized = append(authorized[:idx], authorized[idx+1:]...)

			continue
		}

		idx++
	}

	return results, authorized
}

// ReadByPath implements wdxservice.ParameterReadApi.
func (s *Service) ReadByPath(ctx context.Context, deviceID string, paths []string) []wdxdispatch.Result {
	features := make([]string, len(paths))
	for i, p := range paths {
		features[i] = s.featureOf(deviceID, p)
	}

	results, authorized := s.checkBatch(features, ReadOnly)
	if len(authorized) == 0 {
		return results
	}

	subPaths := make([]string, len(authorized))
	for k, i := range authorized {
		subPaths[k] = paths[i]
	}

	subResults := s.Next.ReadByPath(ctx, deviceID, subPaths)
	for k, i := range authorized {
		results[i] = subResults[k]
	}

	return results
}

// WriteByPath implements wdxservice.ParameterWriteApi.
func (s *Service) WriteByPath(ctx context.Context, deviceID string, writes []wdxservice.ParameterWrite, deferConnectionChanges bool) []wdxdispatch.Result {
	features := make([]string, len(writes))
	for i, w := range writes {
		features[i] = s.featureOf(deviceID, w.Path)
	}

	results, authorized := s.checkBatch(features, ReadWrite)
	if len(authorized) == 0 {
		return results
	}

	subWrites := make([]wdxservice.ParameterWrite, len(authorized))
	for k, i := range authorized {
		subWrites[k] = writes[i]
	}

	subResults := s.Next.WriteByPath(ctx, deviceID, subWrites, deferConnectionChanges)
	for k, i := range authorized {
		results[i] = subResults[k]
	}

	return results
}

// InvokeMethod implements wdxservice.MethodApi. Methods always require
// read-write permission on their owning feature, regardless of caller
// intent, matching the reference implementation.
func (s *Service) InvokeMethod(ctx context.Context, deviceID, path string, args []wdxvalue.Value) ([]wdxvalue.Value, wdxstatus.Code) {
	if f := s.featureOf(deviceID, path); f != "" && !HasPermission(f, s.Permissions, ReadWrite) {
		return nil, wdxstatus.UnauthorizedRequest
	}

	return s.Next.InvokeMethod(ctx, deviceID, path, args)
}

// Model implements wdxservice.ModelApi.
func (s *Service) Model() *wdxmodel.DeviceModel { return s.Next.Model() }

// Recompile implements wdxservice.ModelApi. Recompilation and device
// registration are operator-level operations, gated on the privileged
// identities rather than a per-feature grant.
func (s *Service) Recompile(src wdxmodel.Sources) ([]wdxmodel.Diagnostic, error) {
	if !isPrivileged(s.Permissions.UserName) {
		return nil, ErrUnauthorized
	}

	return s.Next.Recompile(src)
}

// RegisterDevice implements wdxservice.ModelApi.
func (s *Service) RegisterDevice(id wdxinstance.DeviceID, orderNumber, firmwareVersion string) (*wdxinstance.Device, error) {
	if !isPrivileged(s.Permissions.UserName) {
		return nil, ErrUnauthorized
	}

	return s.Next.RegisterDevice(id, orderNumber, firmwareVersion)
}

// UnregisterDevice implements wdxservice.ModelApi.
func (s *Service) UnregisterDevice(id wdxinstance.DeviceID) {
	if !isPrivileged(s.Permissions.UserName) {
		return
	}

	s.Next.UnregisterDevice(id)
}

// CreateMonitoringList implements wdxservice.MonitoringApi. A list is
// created atomically: if any entry's feature is unauthorized, the whole
// list is rejected rather than created with a partial entry set.
func (s *Service) CreateMonitoringList(deviceID string, paths []string, oneOff bool, ttl time.Duration) (uint64, error) {
	for _, p := range paths {
		if f := s.featureOf(deviceID, p); f != "" && !HasPermission(f, s.Permissions, ReadOnly) {
			return 0, ErrUnauthorized
		}
	}

	return s.Next.CreateMonitoringList(deviceID, paths, oneOff, ttl)
}

// PollMonitoringList implements wdxservice.MonitoringApi. Permission is
// re-checked on every poll, not just at list-creation time: a grant
// revoked after the list was created is observed on the very next read,
// matching the original authorized.cpp's per-read
// determine_unauthorized_instances rather than a create-time-only check.
func (s *Service) PollMonitoringList(ctx context.Context, id uint64) ([]wdxmonitor.Item, error) {
	items, err := s.Next.PollMonitoringList(ctx, id)
	if err != nil {
		return nil, err
	}

	s.filterUnauthorizedItems(items)

	return items, nil
}

// AwaitMonitoringList implements wdxservice.MonitoringApi, applying the
// same per-delivery permission re-check as PollMonitoringList to whatever
// items the underlying future eventually resolves with.
func (s *Service) AwaitMonitoringList(ctx context.Context, id uint64) (wdxfuture.Future[[]wdxmonitor.Item], error) {
	next, err := s.Next.AwaitMonitoringList(ctx, id)
	if err != nil {
		return wdxfuture.Future[[]wdxmonitor.Item]{}, err
	}

	future, promise := wdxfuture.New[[]wdxmonitor.Item]()

	next.SetNotifier(func(items []wdxmonitor.Item) {
		s.filterUnauthorizedItems(items)
		_ = promise.Set(items)
	})
	next.SetExceptionNotifier(func(err error) {
		_ = promise.SetError(err)
	})

	return future, nil
}

// featureOfAddress resolves the permission-check scope for an already
// resolved address, the monitoring-list equivalent of featureOf.
func featureOfAddress(addr wdxinstance.Address) string {
	if addr.Definition.FeatureName != "" {
		return addr.Definition.FeatureName
	}

	return addr.ClassName
}

// filterUnauthorizedItems overwrites, in place, the result of every item
// whose feature the caller is no longer permitted to read.
func (s *Service) filterUnauthorizedItems(items []wdxmonitor.Item) {
	for i, it := range items {
		feature := featureOfAddress(it.Address)
		if feature != "" && !HasPermission(feature, s.Permissions, ReadOnly) {
			items[i].Result = wdxdispatch.Result{Status: wdxstatus.Err(wdxstatus.UnauthorizedRequest, "")}
		}
	}
}

// RemoveMonitoringList implements wdxservice.MonitoringApi.
func (s *Service) RemoveMonitoringList(id uint64) { s.Next.RemoveMonitoringList(id) }

// AllMonitoringLists implements wdxservice.MonitoringApi.
func (s *Service) AllMonitoringLists() []uint64 { return s.Next.AllMonitoringLists() }

// TriggerLapseChecks implements wdxservice.MonitoringApi.
func (s *Service) TriggerLapseChecks() { s.Next.TriggerLapseChecks() }

// BeginUpload implements wdxservice.FileApi. An upload id carries no
// target parameter yet, so there is nothing to authorize until commit.
func (s *Service) BeginUpload() string { return s.Next.BeginUpload() }

// AppendUpload implements wdxservice.FileApi.
func (s *Service) AppendUpload(uploadID string, chunk []byte) error {
	return s.Next.AppendUpload(uploadID, chunk)
}

// CommitUpload implements wdxservice.FileApi.
func (s *Service) CommitUpload(ctx context.Context, uploadID, deviceID, path string) (string, wdxstatus.Code) {
	if f := s.featureOf(deviceID, path); f != "" && !HasPermission(f, s.Permissions, ReadWrite) {
		return "", wdxstatus.UnauthorizedRequest
	}

	return s.Next.CommitUpload(ctx, uploadID, deviceID, path)
}

// ReadParameterFile implements wdxservice.FileApi.
func (s *Service) ReadParameterFile(ctx context.Context, deviceID, path, fileID string) ([]byte, wdxstatus.Code) {
	if f := s.featureOf(deviceID, path); f != "" && !HasPermission(f, s.Permissions, ReadOnly) {
		return nil, wdxstatus.UnauthorizedRequest
	}

	return s.Next.ReadParameterFile(ctx, deviceID, path, fileID)
}
