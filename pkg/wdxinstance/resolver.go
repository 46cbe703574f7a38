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

package wdxinstance

import (
	"errors"
	"strconv"
	"strings"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxmodel"
)

// Resolution errors, mapped by wdxservice onto the matching
// wdxstatus.Code per spec.md §4.2's documented edge cases.
var (
	ErrUnknownDevice           = errors.New("wdxinstance: unknown device")
	ErrInvalidDeviceCollection = errors.New("wdxinstance: invalid device collection")
	ErrInvalidDeviceSlot       = errors.New("wdxinstance: invalid device slot")
	ErrUnknownParameterPath    = errors.New("wdxinstance: unknown parameter path")
	ErrUnknownParameterID      = errors.New("wdxinstance: unknown parameter id")
)

// Address identifies one (parameter definition, device, instance) target
// resolved from wire addressing.
type Address struct {
	Device     DeviceID
	Definition *wdxmodel.ParameterDefinition
	InstanceID uint32 // 0 for a non-instance (top-level) parameter
	ClassName  string // "" for a non-instance parameter
}

// ResolvePath resolves a device id plus a parameter path of the form
// "Name" (top-level), "TestClasses/2/OtherParam" (class instance member),
// against the compiled model and the target device's device-type
// features. The instance segment of a class member path is not checked
// against the device's registered instances: a path naming an instance
// that does not exist still resolves.
func ResolvePath(model *wdxmodel.DeviceModel, devices *Collection, deviceIDStr, path string) (Address, error) {
	devID, err := ParseDeviceID(deviceIDStr)
	if err != nil {
		return Address{}, errors.Join(ErrInvalidDeviceCollection, err)
	}

	dev, ok := devices.Device(devID)
	if !ok {
		return Address{}, ErrUnknownDevice
	}

	desc, ok := model.DeviceType(dev.OrderNumber, dev.FirmwareVersion)
	if !ok {
		return Address{}, ErrUnknownDevice
	}

	segments := strings.Split(path, "/")

	if len(segments) == 3 {
		className, instanceStr, paramName := segments[0], segments[1], segments[2]

		instanceID, err := strconv.ParseUint(instanceStr, 10, 32)
		if err != nil {
			return Address{}, errors.Join(ErrUnknownParameterPath, err)
		}

		class, ok := model.Class(className)
		if !ok {
			return Address{}, ErrUnknownParameterPath
		}

		def := findParameterByPath(class.Parameters, paramName)
		if def == nil {
			return Address{}, ErrUnknownParameterPath
		}

		return Address{Device: devID, Definition: def, InstanceID: uint32(instanceID), ClassName: className}, nil
	}

	if len(segments) == 1 {
		for _, featureName := range desc.Features {
			feature, ok := model.Feature(featureName)
			if !ok {
				continue
			}

			if def, ok := feature.ByPath(segments[0]); ok {
				return Address{Device: devID, Definition: def}, nil
			}
		}

		return Address{}, ErrUnknownParameterPath
	}

	return Address{}, ErrUnknownParameterPath
}

// ResolveID resolves a device id plus a global parameter id, used by the
// id-addressed variants of the read/write/method APIs (spec.md §4.2).
func ResolveID(model *wdxmodel.DeviceModel, devices *Collection, deviceIDStr string, parameterID uint32) (Address, error) {
	devID, err := ParseDeviceID(deviceIDStr)
	if err != nil {
		return Address{}, errors.Join(ErrInvalidDeviceCollection, err)
	}

	if _, ok := devices.Device(devID); !ok {
		return Address{}, ErrUnknownDevice
	}

	def, ok := model.Definition(parameterID)
	if !ok {
		return Address{}, ErrUnknownParameterID
	}

	if def.ClassName != "" {
		// A bare id addresses the class's schema, not a specific
		// instance; callers needing an instance must supply one
		// explicitly via ResolveInstanceID.
		return Address{}, ErrUnknownParameterID
	}

	return Address{Device: devID, Definition: def}, nil
}

// ResolveInstanceID resolves a device id, class instance id and member
// parameter id together.
func ResolveInstanceID(model *wdxmodel.DeviceModel, devices *Collection, deviceIDStr string, instanceID, parameterID uint32) (Address, error) {
	devID, err := ParseDeviceID(deviceIDStr)
	if err != nil {
		return Address{}, errors.Join(ErrInvalidDeviceCollection, err)
	}

	if _, ok := devices.Device(devID); !ok {
		return Address{}, ErrUnknownDevice
	}

	def, ok := model.Definition(parameterID)
	if !ok {
		return Address{}, ErrUnknownParameterID
	}

	if def.ClassName == "" {
		return Address{}, ErrUnknownParameterID
	}

	return Address{Device: devID, Definition: def, InstanceID: instanceID, ClassName: def.ClassName}, nil
}

func findParameterByPath(params map[uint32]*wdxmodel.ParameterDefinition, path string) *wdxmodel.ParameterDefinition {
	for _, p := range params {
		if strings.EqualFold(p.Path, path) {
			return p
		}
	}

	return nil
}
