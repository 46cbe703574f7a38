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

// Package wdxservice is the thin outer binding (spec.md §4.10/§9): a set of
// capability-trait interfaces re-expressing what the reference
// implementation gets from multiple inheritance over a single
// parameter_service_i, plus one concrete Service implementing all of them
// and holding the global parameter mutex described in spec.md §5.
package wdxservice

import (
	"context"
	"time"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxdispatch"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxfuture"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxinstance"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxmodel"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxmonitor"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxprovider"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxstatus"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxvalue"
)

// ParameterWrite is one path-addressed write request.
type ParameterWrite struct {
	Path  string
	Value wdxvalue.Value
}

// ParameterReadApi reads parameter values by wire path.
type ParameterReadApi interface {
	ReadByPath(ctx context.Context, deviceID string, paths []string) []wdxdispatch.Result
}

// ParameterWriteApi writes parameter values by wire path.
type ParameterWriteApi interface {
	WriteByPath(ctx context.Context, deviceID string, writes []ParameterWrite, deferConnectionChanges bool) []wdxdispatch.Result
}

// MethodApi invokes a Method-typed parameter.
type MethodApi interface {
	InvokeMethod(ctx context.Context, deviceID, path string, args []wdxvalue.Value) ([]wdxvalue.Value, wdxstatus.Code)
}

// ModelApi exposes the compiled model and device registration.
type ModelApi interface {
	Model() *wdxmodel.DeviceModel
	Recompile(src wdxmodel.Sources) ([]wdxmodel.Diagnostic, error)
	RegisterDevice(id wdxinstance.DeviceID, orderNumber, firmwareVersion string) (*wdxinstance.Device, error)
	UnregisterDevice(id wdxinstance.DeviceID)
}

// MonitoringApi manages monitoring lists.
type MonitoringApi interface {
	CreateMonitoringList(deviceID string, paths []string, oneOff bool, ttl time.Duration) (uint64, error)
	PollMonitoringList(ctx context.Context, id uint64) ([]wdxmonitor.Item, error)
	// AwaitMonitoringList delivers a one-off list's single poll result via
	// the future protocol (spec.md §4.8) instead of a blocking Poll call.
	AwaitMonitoringList(ctx context.Context, id uint64) (wdxfuture.Future[[]wdxmonitor.Item], error)
	RemoveMonitoringList(id uint64)
	AllMonitoringLists() []uint64
	TriggerLapseChecks()
}

// FileApi manages FileID-typed parameter content and uploads.
type FileApi interface {
	BeginUpload() string
	AppendUpload(uploadID string, chunk []byte) error
	CommitUpload(ctx context.Context, uploadID, deviceID, path string) (string, wdxstatus.Code)
	ReadParameterFile(ctx context.Context, deviceID, path, fileID string) ([]byte, wdxstatus.Code)
}

// BackendApi is the registration-side trait a provider collaborator binds
// against, the counterpart to the caller-facing traits above.
type BackendApi interface {
	RegisterParameterProvider(param wdxprovider.ParameterSelector, device wdxprovider.DeviceSelector, mode wdxprovider.CallMode, provider wdxprovider.ParameterProvider) wdxprovider.Handle
	RegisterModelProvider(device wdxprovider.DeviceSelector, provider wdxprovider.ModelProvider) wdxprovider.Handle
	RegisterDeviceDescriptionProvider(device wdxprovider.DeviceSelector, provider wdxprovider.DeviceDescriptionProvider) wdxprovider.Handle
	RegisterFileProvider(param wdxprovider.ParameterSelector, device wdxprovider.DeviceSelector, provider wdxprovider.FileProvider) wdxprovider.Handle
	UnregisterParameterProvider(h wdxprovider.Handle)
}
