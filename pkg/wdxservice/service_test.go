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

package wdxservice_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxinstance"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxlog"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxmodel"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxmonitor"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxprovider"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxservice"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxstatus"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxvalue"
)

// echoProvider stores whatever it's last written and echoes it back,
// blocking on a channel when told to, so tests can exercise cancellation.
type echoProvider struct {
	mu      sync.Mutex
	values  map[uint32]wdxvalue.Value
	block   chan struct{}
	invoked bool
}

func (p *echoProvider) Read(ctx context.Context, id, _ uint32) (wdxvalue.Value, wdxstatus.Code) {
	if p.block != nil {
		select {
		case <-ctx.Done():
			return wdxvalue.Value{}, wdxstatus.Cancelled
		case <-p.block:
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.values[id], wdxstatus.OK
}

func (p *echoProvider) Write(_ context.Context, id, _ uint32, v wdxvalue.Value) wdxstatus.Code {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.values == nil {
		p.values = map[uint32]wdxvalue.Value{}
	}

	p.values[id] = v

	return wdxstatus.OK
}

func (p *echoProvider) Invoke(context.Context, uint32, uint32, []wdxvalue.Value) ([]wdxvalue.Value, wdxstatus.Code) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.invoked = true

	return []wdxvalue.Value{wdxvalue.Int64(42)}, wdxstatus.OK
}

func newTestService(t *testing.T) (*wdxservice.Service, *echoProvider) {
	t.Helper()

	svc := wdxservice.New(wdxlog.NewTestLogger())

	src := wdxmodel.Sources{
		Models: []wdxmodel.ModelDocument{{
			Features: []wdxmodel.FeatureOrClassDoc{{
				ID: "Core",
				Parameters: []wdxmodel.ParameterDoc{
					{ID: 1, Path: "Name", Type: "String", Writeable: true},
					{ID: 2, Path: "Reboot", Type: "Method"},
				},
			}},
		}},
		DeviceTypes: map[wdxmodel.DeviceTypeKey]wdxmodel.DeviceDescriptionDocument{
			{OrderNumber: "750-8101", FirmwareVersion: "01.00.00"}: {Features: []string{"Core"}},
		},
	}

	_, err := svc.Recompile(src)
	require.NoError(t, err)

	provider := &echoProvider{}
	svc.RegisterParameterProvider(
		wdxprovider.ParameterSelector{FeatureName: "Core"},
		wdxprovider.DeviceSelector{Any: true},
		wdxprovider.Concurrent,
		provider,
	)

	_, err = svc.RegisterDevice(wdxinstance.DeviceID{Collection: 1, Slot: 1}, "750-8101", "01.00.00")
	require.NoError(t, err)

	return svc, provider
}

func TestReadWriteRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)

	writeResults := svc.WriteByPath(context.Background(), "1-1", []wdxservice.ParameterWrite{
		{Path: "Name", Value: wdxvalue.String("unit-under-test")},
	}, false)
	require.Len(t, writeResults, 1)
	assert.True(t, writeResults[0].Status.IsOK())

	readResults := svc.ReadByPath(context.Background(), "1-1", []string{"Name"})
	require.Len(t, readResults, 1)
	assert.True(t, readResults[0].Status.IsOK())

	s, err := readResults[0].Value.StringValue()
	require.NoError(t, err)
	assert.Equal(t, "unit-under-test", s)
}

func TestReadUnknownDeviceReportsStatus(t *testing.T) {
	svc, _ := newTestService(t)

	results := svc.ReadByPath(context.Background(), "9-9", []string{"Name"})
	require.Len(t, results, 1)
	assert.Equal(t, wdxstatus.UnknownDevice, results[0].Status.Code)
}

func TestInvokeMethod(t *testing.T) {
	svc, provider := newTestService(t)

	out, code := svc.InvokeMethod(context.Background(), "1-1", "Reboot", nil)
	assert.Equal(t, wdxstatus.OK, code)
	require.Len(t, out, 1)
	assert.True(t, provider.invoked)
}

func TestMonitoringListLifecycle(t *testing.T) {
	svc, _ := newTestService(t)

	id, err := svc.CreateMonitoringList("1-1", []string{"Name"}, false, 0)
	require.NoError(t, err)

	items, err := svc.PollMonitoringList(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Contains(t, svc.AllMonitoringLists(), id)

	svc.RemoveMonitoringList(id)
	assert.NotContains(t, svc.AllMonitoringLists(), id)
}

func TestAwaitMonitoringListDeliversViaFuture(t *testing.T) {
	svc, _ := newTestService(t)

	id, err := svc.CreateMonitoringList("1-1", []string{"Name"}, true, 0)
	require.NoError(t, err)

	future, err := svc.AwaitMonitoringList(context.Background(), id)
	require.NoError(t, err)

	done := make(chan struct{})
	future.SetNotifier(func([]wdxmonitor.Item) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("notifier never invoked")
	}
}

func TestReadCancellation(t *testing.T) {
	svc := wdxservice.New(wdxlog.NewTestLogger())

	src := wdxmodel.Sources{
		Models: []wdxmodel.ModelDocument{{
			Features: []wdxmodel.FeatureOrClassDoc{{
				ID:         "Core",
				Parameters: []wdxmodel.ParameterDoc{{ID: 1, Path: "Name", Type: "String"}},
			}},
		}},
		DeviceTypes: map[wdxmodel.DeviceTypeKey]wdxmodel.DeviceDescriptionDocument{
			{OrderNumber: "750-8101", FirmwareVersion: "01.00.00"}: {Features: []string{"Core"}},
		},
	}

	_, err := svc.Recompile(src)
	require.NoError(t, err)

	provider := &echoProvider{block: make(chan struct{})}
	svc.RegisterParameterProvider(
		wdxprovider.ParameterSelector{FeatureName: "Core"},
		wdxprovider.DeviceSelector{Any: true},
		wdxprovider.Concurrent,
		provider,
	)

	_, err = svc.RegisterDevice(wdxinstance.DeviceID{Collection: 1, Slot: 1}, "750-8101", "01.00.00")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	results := svc.ReadByPath(ctx, "1-1", []string{"Name"})
	require.Len(t, results, 1)
	assert.Equal(t, wdxstatus.Cancelled, results[0].Status.Code)

	close(provider.block)
}

func TestRecompilePreservesDeviceValues(t *testing.T) {
	svc, _ := newTestService(t)

	writeResults := svc.WriteByPath(context.Background(), "1-1", []wdxservice.ParameterWrite{
		{Path: "Name", Value: wdxvalue.String("before-recompile")},
	}, false)
	require.True(t, writeResults[0].Status.IsOK())

	src := wdxmodel.Sources{
		Models: []wdxmodel.ModelDocument{{
			Features: []wdxmodel.FeatureOrClassDoc{{
				ID: "Core",
				Parameters: []wdxmodel.ParameterDoc{
					{ID: 1, Path: "Name", Type: "String", Writeable: true},
					{ID: 2, Path: "Reboot", Type: "Method"},
					{ID: 3, Path: "NewField", Type: "String"},
				},
			}},
		}},
		DeviceTypes: map[wdxmodel.DeviceTypeKey]wdxmodel.DeviceDescriptionDocument{
			{OrderNumber: "750-8101", FirmwareVersion: "01.00.00"}: {Features: []string{"Core"}},
		},
	}

	_, err := svc.Recompile(src)
	require.NoError(t, err)

	readResults := svc.ReadByPath(context.Background(), "1-1", []string{"Name"})
	require.Len(t, readResults, 1)
	require.True(t, readResults[0].Status.IsOK())

	s, err := readResults[0].Value.StringValue()
	require.NoError(t, err)
	assert.Equal(t, "before-recompile", s, "parameter id 1 keeps its identity across recompilation, so its stored value survives the model swap")
}
