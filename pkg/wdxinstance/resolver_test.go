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

package wdxinstance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxinstance"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxmodel"
)

func buildTestModel(t *testing.T) *wdxmodel.DeviceModel {
	t.Helper()

	wdm := wdxmodel.ModelDocument{
		Classes: []wdxmodel.FeatureOrClassDoc{
			{
				ID:       "TestClasses",
				BasePath: "TestClasses",
				Dynamic:  true,
				Parameters: []wdxmodel.ParameterDoc{
					{ID: 20001, Path: "OtherParam", Type: "String", Writeable: true},
				},
			},
		},
		Features: []wdxmodel.FeatureOrClassDoc{
			{
				ID:      "Devices",
				Classes: []string{"TestClasses"},
				Parameters: []wdxmodel.ParameterDoc{
					{ID: 10001, Path: "Name", Type: "String", Writeable: true},
				},
			},
		},
	}

	deviceTypes := map[wdxmodel.DeviceTypeKey]wdxmodel.DeviceDescriptionDocument{
		{OrderNumber: "750-8101", FirmwareVersion: "01.00.00"}: {
			Features: []string{"Devices"},
		},
	}

	model, _, err := wdxmodel.Compile(wdxmodel.Sources{Models: []wdxmodel.ModelDocument{wdm}, DeviceTypes: deviceTypes})
	require.NoError(t, err)

	return model
}

func TestResolvePathTopLevel(t *testing.T) {
	model := buildTestModel(t)
	devices := wdxinstance.NewCollection()

	_, err := devices.Register(model, wdxinstance.DeviceID{Collection: 2, Slot: 3}, "750-8101", "01.00.00")
	require.NoError(t, err)

	addr, err := wdxinstance.ResolvePath(model, devices, "2-3", "Name")
	require.NoError(t, err)
	assert.Equal(t, uint32(10001), addr.Definition.ID)
	assert.Equal(t, "", addr.ClassName)
}

func TestResolvePathClassInstanceMember(t *testing.T) {
	model := buildTestModel(t)
	devices := wdxinstance.NewCollection()

	dev, err := devices.Register(model, wdxinstance.DeviceID{Collection: 2, Slot: 3}, "750-8101", "01.00.00")
	require.NoError(t, err)

	class, ok := model.Class("TestClasses")
	require.True(t, ok)
	dev.AddInstance("TestClasses", class, 2, nil)

	addr, err := wdxinstance.ResolvePath(model, devices, "2-3", "TestClasses/2/OtherParam")
	require.NoError(t, err)
	assert.Equal(t, uint32(20001), addr.Definition.ID)
	assert.Equal(t, uint32(2), addr.InstanceID)
	assert.Equal(t, "TestClasses", addr.ClassName)
}

func TestResolvePathUnknownDevice(t *testing.T) {
	model := buildTestModel(t)
	devices := wdxinstance.NewCollection()

	_, err := wdxinstance.ResolvePath(model, devices, "9-9", "Name")
	assert.ErrorIs(t, err, wdxinstance.ErrUnknownDevice)
}

func TestResolvePathMalformedDeviceID(t *testing.T) {
	model := buildTestModel(t)
	devices := wdxinstance.NewCollection()

	_, err := wdxinstance.ResolvePath(model, devices, "not-a-device-id-at-all-really", "Name")
	assert.ErrorIs(t, err, wdxinstance.ErrInvalidDeviceCollection)
}

func TestResolvePathUnknownPath(t *testing.T) {
	model := buildTestModel(t)
	devices := wdxinstance.NewCollection()

	_, err := devices.Register(model, wdxinstance.DeviceID{Collection: 2, Slot: 3}, "750-8101", "01.00.00")
	require.NoError(t, err)

	_, err = wdxinstance.ResolvePath(model, devices, "2-3", "NoSuchParam")
	assert.ErrorIs(t, err, wdxinstance.ErrUnknownParameterPath)
}

func TestDeviceIDRoundTrip(t *testing.T) {
	id, err := wdxinstance.ParseDeviceID("2-3")
	require.NoError(t, err)
	assert.Equal(t, "2-3", id.String())

	id2, err := wdxinstance.ParseDeviceID("2/3")
	require.NoError(t, err)
	assert.Equal(t, id, id2)
}
