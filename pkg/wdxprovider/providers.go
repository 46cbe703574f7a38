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

import (
	"context"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxmodel"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxstatus"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxvalue"
)

//go:generate mockgen -source=providers.go -destination=mock_providers.go -package=wdxprovider

// ParameterProvider answers reads, writes and method calls for the
// parameters it is registered against (spec.md §4.3/§6 "collaborator
// interfaces").
type ParameterProvider interface {
	Read(ctx context.Context, parameterID uint32, instance uint32) (wdxvalue.Value, wdxstatus.Code)
	Write(ctx context.Context, parameterID uint32, instance uint32, value wdxvalue.Value) wdxstatus.Code
	Invoke(ctx context.Context, parameterID uint32, instance uint32, args []wdxvalue.Value) ([]wdxvalue.Value, wdxstatus.Code)
}

// ModelProvider supplies one or more ModelDocuments contributing features,
// classes and enums to the compiled DeviceModel.
type ModelProvider interface {
	Model(ctx context.Context) (wdxmodel.ModelDocument, error)
}

// DeviceDescriptionProvider supplies a DeviceDescriptionDocument for a
// given (order_number, firmware_version) device type.
type DeviceDescriptionProvider interface {
	DeviceDescription(ctx context.Context, orderNumber, firmwareVersion string) (wdxmodel.DeviceDescriptionDocument, error)
}

// DeviceExtensionProvider is consulted when a Device first registers,
// letting a collaborator contribute additional dynamic instantiations or
// parameter values beyond the static device-description table.
type DeviceExtensionProvider interface {
	ExtendDevice(ctx context.Context, orderNumber, firmwareVersion string, deviceID uint32) ([]wdxvalue.ClassInstantiation, error)
}

// FileProvider serves the content behind a FileID-typed parameter value,
// or accepts an uploaded blob for one (spec.md §4.8).
type FileProvider interface {
	ReadFile(ctx context.Context, fileID string) ([]byte, wdxstatus.Code)
	WriteFile(ctx context.Context, fileID string, content []byte) wdxstatus.Code
}
