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

package wdxmodel_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxmodel"
)

func rawJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)

	return data
}

// testWDM builds the minimal two-feature, one-class metadata document used
// across these tests: a "Core" feature with a scalar String parameter, a
// "TestClasses" dynamic class with one member parameter, and a "Devices"
// feature that includes both.
func testWDM(t *testing.T) wdxmodel.ModelDocument {
	t.Helper()

	return wdxmodel.ModelDocument{
		WDMMVersion: "1.0.0",
		Name:        "test_wdm",
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
				ID: "Core",
				Parameters: []wdxmodel.ParameterDoc{
					{ID: 10001, Path: "Name", Type: "String", Writeable: true},
					{ID: 10002, Path: "Count", Type: "UInt32"},
				},
			},
			{
				ID:       "Devices",
				Includes: []string{"Core"},
				Classes:  []string{"TestClasses"},
			},
		},
	}
}

func TestCompileRoundTripRead(t *testing.T) {
	model, diags, err := wdxmodel.Compile(wdxmodel.Sources{Models: []wdxmodel.ModelDocument{testWDM(t)}})
	require.NoError(t, err)
	assert.Empty(t, diags)

	def, ok := model.Definition(10001)
	require.True(t, ok)
	assert.Equal(t, "Name", def.Path)
	assert.Equal(t, "Core", def.FeatureName)

	devices, ok := model.Feature("Devices")
	require.True(t, ok)
	_, hasCount := devices.Parameters[10002]
	assert.True(t, hasCount, "Devices should inherit Core's parameters via Includes")

	cls, ok := model.Class("TestClasses")
	require.True(t, ok)
	assert.True(t, cls.Dynamic)
	assert.Equal(t, "TestClasses", cls.BasePath)
}

func TestCompilePathResolutionAndInstanceKey(t *testing.T) {
	wdm := testWDM(t)
	wdm.Classes[0].InstanceKey = "ID"

	model, _, err := wdxmodel.Compile(wdxmodel.Sources{Models: []wdxmodel.ModelDocument{wdm}})
	require.NoError(t, err)

	cls, ok := model.Class("TestClasses")
	require.True(t, ok)
	assert.Equal(t, "ID", cls.InstanceKey)

	member, ok := cls.Parameters[20001]
	require.True(t, ok)
	assert.Equal(t, "OtherParam", member.Path)
	assert.Equal(t, "TestClasses", member.ClassName)
}

func TestCompileFeatureOverrideAppliesBeforeCrossLink(t *testing.T) {
	wdm := testWDM(t)
	wdm.Features[0].Overrides = []wdxmodel.OverrideDoc{
		{ID: 10001, DefaultValue: rawJSON(t, "fallback")},
	}

	model, diags, err := wdxmodel.Compile(wdxmodel.Sources{Models: []wdxmodel.ModelDocument{wdm}})
	require.NoError(t, err)
	assert.Empty(t, diags)

	def, ok := model.Definition(10001)
	require.True(t, ok)
	require.NotNil(t, def.Overrideables.DefaultValue)

	s, err := def.Overrideables.DefaultValue.StringValue()
	require.NoError(t, err)
	assert.Equal(t, "fallback", s)
}

func TestCompileOverrideWideningIsNonFatalDiagnostic(t *testing.T) {
	wdm := testWDM(t)
	wdm.Features[0].Parameters[0].AllowedLength = &wdxmodel.LengthConstraintDoc{Min: 1, Max: 10}
	wdm.Features[0].Overrides = []wdxmodel.OverrideDoc{
		{ID: 10001, AllowedLength: &wdxmodel.LengthConstraintDoc{Min: 0, Max: 100}},
	}

	model, diags, err := wdxmodel.Compile(wdxmodel.Sources{Models: []wdxmodel.ModelDocument{wdm}})
	require.NoError(t, err, "a widening override must not fail the whole compile")
	require.Len(t, diags, 1)
	assert.Equal(t, uint32(10001), diags[0].ParameterID)

	def, ok := model.Definition(10001)
	require.True(t, ok)
	require.NotNil(t, def.Overrideables.AllowedLength)
	assert.Equal(t, 10, def.Overrideables.AllowedLength.Max, "base constraint must survive a rejected widening override")
}

func TestCompileIncludeCycleFails(t *testing.T) {
	wdm := wdxmodel.ModelDocument{
		Features: []wdxmodel.FeatureOrClassDoc{
			{ID: "A", Includes: []string{"B"}},
			{ID: "B", Includes: []string{"A"}},
		},
	}

	_, _, err := wdxmodel.Compile(wdxmodel.Sources{Models: []wdxmodel.ModelDocument{wdm}})
	require.ErrorIs(t, err, wdxmodel.ErrIncludeCycle)
}

func TestCompileMissingTypeDropsOnlyThatParameter(t *testing.T) {
	wdm := wdxmodel.ModelDocument{
		Features: []wdxmodel.FeatureOrClassDoc{
			{
				ID: "Core",
				Parameters: []wdxmodel.ParameterDoc{
					{ID: 1, Path: "Good", Type: "String"},
					{ID: 2, Path: "Bad"},
				},
			},
		},
	}

	model, diags, err := wdxmodel.Compile(wdxmodel.Sources{Models: []wdxmodel.ModelDocument{wdm}})
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.ErrorIs(t, diags[0].Err, wdxmodel.ErrMissingType)

	_, ok := model.Definition(1)
	assert.True(t, ok)

	_, ok = model.Definition(2)
	assert.False(t, ok)
}

func TestCompileDuplicateIDFails(t *testing.T) {
	wdm := wdxmodel.ModelDocument{
		Features: []wdxmodel.FeatureOrClassDoc{
			{
				ID: "Core",
				Parameters: []wdxmodel.ParameterDoc{
					{ID: 1, Path: "A", Type: "String"},
					{ID: 1, Path: "B", Type: "String"},
				},
			},
		},
	}

	_, _, err := wdxmodel.Compile(wdxmodel.Sources{Models: []wdxmodel.ModelDocument{wdm}})
	require.ErrorIs(t, err, wdxmodel.ErrDuplicateID)
}

func TestCompileEnumCrossLink(t *testing.T) {
	wdm := wdxmodel.ModelDocument{
		Enums: []wdxmodel.EnumDoc{
			{Name: "Color", Members: []wdxmodel.EnumMemberDoc{{ID: 0, Name: "Red"}, {ID: 1, Name: "Blue"}}},
		},
		Features: []wdxmodel.FeatureOrClassDoc{
			{
				ID: "Core",
				Parameters: []wdxmodel.ParameterDoc{
					{ID: 1, Path: "Favorite", Type: "Enum", Enum: "Color"},
				},
			},
		},
	}

	model, _, err := wdxmodel.Compile(wdxmodel.Sources{Models: []wdxmodel.ModelDocument{wdm}})
	require.NoError(t, err)

	def, ok := model.Definition(1)
	require.True(t, ok)
	require.NotNil(t, def.Enum)
	assert.Equal(t, "Blue", def.Enum.Members[1])
}

func TestCompileUnresolvedEnumFails(t *testing.T) {
	wdm := wdxmodel.ModelDocument{
		Features: []wdxmodel.FeatureOrClassDoc{
			{
				ID: "Core",
				Parameters: []wdxmodel.ParameterDoc{
					{ID: 1, Path: "Favorite", Type: "Enum", Enum: "Missing"},
				},
			},
		},
	}

	_, _, err := wdxmodel.Compile(wdxmodel.Sources{Models: []wdxmodel.ModelDocument{wdm}})
	require.ErrorIs(t, err, wdxmodel.ErrUnresolvedEnum)
}

func TestCompileDeviceTypeInstantiationsAndValues(t *testing.T) {
	wdm := testWDM(t)

	deviceTypes := map[wdxmodel.DeviceTypeKey]wdxmodel.DeviceDescriptionDocument{
		{OrderNumber: "750-8101", FirmwareVersion: "01.00.00"}: {
			ModelReference: "Devices",
			Features:       []string{"Devices"},
			ParameterValues: []wdxmodel.ParameterValueDoc{
				{ID: 10001, Value: rawJSON(t, "seed-name")},
			},
			Instantiations: []wdxmodel.InstantiationDoc{
				{
					Class: "TestClasses",
					Instances: []wdxmodel.InstanceSeedDoc{
						{ID: 2, ParameterValues: []wdxmodel.ParameterValueDoc{
							{ID: 20001, Value: rawJSON(t, "seeded")},
						}},
					},
				},
			},
		},
	}

	model, _, err := wdxmodel.Compile(wdxmodel.Sources{
		Models:      []wdxmodel.ModelDocument{wdm},
		DeviceTypes: deviceTypes,
	})
	require.NoError(t, err)

	dt, ok := model.DeviceType("750-8101", "01.00.00")
	require.True(t, ok)
	require.Len(t, dt.ParameterValues, 1)
	assert.Equal(t, uint32(10001), dt.ParameterValues[0].ParameterID)

	require.Len(t, dt.Instantiations, 1)
	assert.Equal(t, "TestClasses", dt.Instantiations[0].ClassName)
	assert.Equal(t, uint32(2), dt.Instantiations[0].InstanceID)
}

func TestCompileUnresolvedModelReferenceFails(t *testing.T) {
	wdm := testWDM(t)

	deviceTypes := map[wdxmodel.DeviceTypeKey]wdxmodel.DeviceDescriptionDocument{
		{OrderNumber: "750-8101", FirmwareVersion: "01.00.00"}: {
			Features: []string{"NoSuchFeature"},
		},
	}

	_, _, err := wdxmodel.Compile(wdxmodel.Sources{
		Models:      []wdxmodel.ModelDocument{wdm},
		DeviceTypes: deviceTypes,
	})
	require.ErrorIs(t, err, wdxmodel.ErrUnresolvedModelReference)
}
