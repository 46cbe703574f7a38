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

package wdxvalue_test

import (
	"encoding/json"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxvalue"
)

func roundTrip(t *testing.T, v wdxvalue.Value) wdxvalue.Value {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var out wdxvalue.Value
	require.NoError(t, json.Unmarshal(data, &out))

	return out
}

func TestValueRoundTrip(t *testing.T) {
	boolVal, err := roundTrip(t, wdxvalue.Bool(true)).BoolValue()
	require.NoError(t, err)
	assert.True(t, boolVal)

	i, err := roundTrip(t, wdxvalue.Int32(-7)).Int64Value()
	require.NoError(t, err)
	assert.Equal(t, int64(-7), i)

	u, err := roundTrip(t, wdxvalue.Uint16(400)).Uint64Value()
	require.NoError(t, err)
	assert.Equal(t, uint64(400), u)

	f, err := roundTrip(t, wdxvalue.Float64(3.5)).Float64Value()
	require.NoError(t, err)
	assert.InDelta(t, 3.5, f, 0.0001)

	s, err := roundTrip(t, wdxvalue.String("hello")).StringValue()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	b, err := roundTrip(t, wdxvalue.Bytes([]byte{1, 2, 3, 0xff})).BytesValue()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 0xff}, b)

	ip, err := roundTrip(t, wdxvalue.IPv4(net.IPv4(192, 168, 1, 1))).IPv4Value()
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.1", ip.String())

	fid, err := roundTrip(t, wdxvalue.FileID("upload-42")).FileIDValue()
	require.NoError(t, err)
	assert.Equal(t, "upload-42", fid)

	enum, err := roundTrip(t, wdxvalue.EnumValue(3)).EnumValueID()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), enum)

	ref, err := roundTrip(t, wdxvalue.InstanceRef(9)).InstanceRefID()
	require.NoError(t, err)
	assert.Equal(t, uint32(9), ref)
}

func TestValueArrayRoundTrip(t *testing.T) {
	out := roundTrip(t, wdxvalue.Uint32Array([]uint32{1, 2, 3}))
	assert.Equal(t, wdxvalue.RankArray, out.Rank())
	assert.Equal(t, 3, out.Len())
}

func TestValueInstantiationsRoundTrip(t *testing.T) {
	in := wdxvalue.Instantiations([]wdxvalue.ClassInstantiation{
		{
			ClassName:  "TestClass",
			InstanceID: 2,
			ParameterValues: []wdxvalue.InstantiationEntry{
				{ParameterID: 20001, Value: wdxvalue.String("seed")},
			},
		},
	})

	out := roundTrip(t, in)
	insts, ok := out.Instantiations()
	require.True(t, ok)
	require.Len(t, insts, 1)
	assert.Equal(t, "TestClass", insts[0].ClassName)
	assert.Equal(t, uint32(2), insts[0].InstanceID)
	require.Len(t, insts[0].ParameterValues, 1)

	seeded, err := insts[0].ParameterValues[0].Value.StringValue()
	require.NoError(t, err)
	assert.Equal(t, "seed", seeded)
}

func TestUnknownValuePromotion(t *testing.T) {
	u := wdxvalue.Unknown("true")
	assert.True(t, u.IsUnknown())

	typed, err := u.SetTypeInternal(wdxvalue.KindBool, wdxvalue.RankScalar)
	require.NoError(t, err)

	b, err := typed.BoolValue()
	require.NoError(t, err)
	assert.True(t, b)

	_, err = wdxvalue.Unknown("not-a-bool").SetTypeInternal(wdxvalue.KindBool, wdxvalue.RankScalar)
	require.Error(t, err)
}

func TestKindRoundTrip(t *testing.T) {
	for k := wdxvalue.KindUnknown; k <= wdxvalue.KindMethod; k++ {
		parsed, ok := wdxvalue.ParseKind(k.String())
		require.Truef(t, ok, "kind %d did not round trip via its wire name", k)
		assert.Equal(t, k, parsed)
	}
}
