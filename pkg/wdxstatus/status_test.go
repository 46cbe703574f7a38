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

package wdxstatus_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxstatus"
)

func TestCodeRoundTrip(t *testing.T) {
	for c := wdxstatus.OK; c <= wdxstatus.NotAFileID; c++ {
		parsed, ok := wdxstatus.ParseCode(c.String())
		require.Truef(t, ok, "code %d did not round trip via its wire name", c)
		assert.Equal(t, c, parsed)
	}
}

func TestCodeJSON(t *testing.T) {
	data, err := json.Marshal(wdxstatus.UnknownDevice)
	require.NoError(t, err)
	assert.Equal(t, `"UNKNOWN_DEVICE"`, string(data))

	var c wdxstatus.Code
	require.NoError(t, json.Unmarshal(data, &c))
	assert.Equal(t, wdxstatus.UnknownDevice, c)
}

func TestResponse(t *testing.T) {
	assert.True(t, wdxstatus.Ok().IsOK())
	assert.False(t, wdxstatus.Err(wdxstatus.ParameterNotFound, "no such id").IsOK())
}
