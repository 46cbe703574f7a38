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

package wdxauth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxauth"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxinstance"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxlog"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxmodel"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxprovider"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxservice"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxstatus"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxvalue"
)

type nopProvider struct{}

func (nopProvider) Read(context.Context, uint32, uint32) (wdxvalue.Value, wdxstatus.Code) {
	return wdxvalue.String("ok"), wdxstatus.OK
}

func (nopProvider) Write(context.Context, uint32, uint32, wdxvalue.Value) wdxstatus.Code {
	return wdxstatus.OK
}

func (nopProvider) Invoke(context.Context, uint32, uint32, []wdxvalue.Value) ([]wdxvalue.Value, wdxstatus.Code) {
	return nil, wdxstatus.OK
}

func twoFeatureService(t *testing.T) *wdxservice.Service {
	t.Helper()

	svc := wdxservice.New(wdxlog.NewTestLogger())

	src := wdxmodel.Sources{
		Models: []wdxmodel.ModelDocument{{
			Features: []wdxmodel.FeatureOrClassDoc{
				{ID: "Core", Parameters: []wdxmodel.ParameterDoc{{ID: 1, Path: "A", Type: "String", Writeable: true}}},
				{ID: "Network", Parameters: []wdxmodel.ParameterDoc{{ID: 2, Path: "B", Type: "String", Writeable: true}}},
			},
		}},
		DeviceTypes: map[wdxmodel.DeviceTypeKey]wdxmodel.DeviceDescriptionDocument{
			{OrderNumber: "750-8101", FirmwareVersion: "01.00.00"}: {Features: []string{"Core", "Network"}},
		},
	}

	_, err := svc.Recompile(src)
	require.NoError(t, err)

	svc.RegisterParameterProvider(wdxprovider.ParameterSelector{Any: true}, wdxprovider.DeviceSelector{Any: true}, wdxprovider.Concurrent, nopProvider{})

	_, err = svc.RegisterDevice(wdxinstance.DeviceID{Collection: 1, Slot: 1}, "750-8101", "01.00.00")
	require.NoError(t, err)

	return svc
}

func TestServiceRootBypassesChecks(t *testing.T) {
	backend := twoFeatureService(t)
	auth := &wdxauth.Service{Permissions: wdxauth.UserPermissions{UserName: "root"}, Next: backend}

	results := auth.ReadByPath(context.Background(), "1-1", []string{"A", "B"})
	require.Len(t, results, 2)
	assert.True(t, results[0].Status.IsOK())
	assert.True(t, results[1].Status.IsOK())
}

func TestServiceUnauthorizedFeaturePoisonsSiblings(t *testing.T) {
	backend := twoFeatureService(t)
	auth := &wdxauth.Service{
		Permissions: wdxauth.UserPermissions{UserName: "alice", ReadPermissions: []string{"Core"}},
		Next:        backend,
	}

	results := auth.ReadByPath(context.Background(), "1-1", []string{"B", "B", "A"})
	require.Len(t, results, 3)
	assert.Equal(t, wdxstatus.UnauthorizedRequest, results[0].Status.Code)
	assert.Equal(t, wdxstatus.OtherUnauthorizedRequestInSet, results[1].Status.Code)
	assert.True(t, results[2].Status.IsOK())
}

func TestServiceRecompileRequiresPrivilegedUser(t *testing.T) {
	backend := twoFeatureService(t)
	auth := &wdxauth.Service{Permissions: wdxauth.UserPermissions{UserName: "alice"}, Next: backend}

	_, err := auth.Recompile(wdxmodel.Sources{})
	assert.ErrorIs(t, err, wdxauth.ErrUnauthorized)
}

func TestServicePollMonitoringListRechecksPermissionEveryPoll(t *testing.T) {
	backend := twoFeatureService(t)
	perms := wdxauth.UserPermissions{UserName: "alice", ReadPermissions: []string{"Core", "Network"}}
	auth := &wdxauth.Service{Permissions: perms, Next: backend}

	id, err := auth.CreateMonitoringList("1-1", []string{"A", "B"}, false, 0)
	require.NoError(t, err)

	items, err := auth.PollMonitoringList(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].Result.Status.IsOK())
	assert.True(t, items[1].Result.Status.IsOK())

	auth.Permissions.ReadPermissions = []string{"Core"}

	items, err = auth.PollMonitoringList(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].Result.Status.IsOK())
	assert.Equal(t, wdxstatus.UnauthorizedRequest, items[1].Result.Status.Code)
}
