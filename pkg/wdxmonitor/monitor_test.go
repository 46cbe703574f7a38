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

package wdxmonitor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxdispatch"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxinstance"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxmodel"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxmonitor"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxstatus"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxvalue"
)

func sequencedDispatch(values []string) func(context.Context, []wdxdispatch.Op) []wdxdispatch.Result {
	i := 0

	return func(_ context.Context, ops []wdxdispatch.Op) []wdxdispatch.Result {
		v := values[i]
		if i < len(values)-1 {
			i++
		}

		out := make([]wdxdispatch.Result, len(ops))
		for j := range ops {
			out[j] = wdxdispatch.Result{Value: wdxvalue.String(v), Status: wdxstatus.Ok()}
		}

		return out
	}
}

func testAddress(t *testing.T) wdxinstance.Address {
	t.Helper()

	wdm := wdxmodel.ModelDocument{
		Features: []wdxmodel.FeatureOrClassDoc{
			{ID: "Core", Parameters: []wdxmodel.ParameterDoc{{ID: 1, Path: "A", Type: "String"}}},
		},
	}

	model, _, err := wdxmodel.Compile(wdxmodel.Sources{Models: []wdxmodel.ModelDocument{wdm}})
	require.NoError(t, err)

	def, _ := model.Definition(1)

	return wdxinstance.Address{Definition: def}
}

func TestMonitorPollDetectsChange(t *testing.T) {
	m := wdxmonitor.NewManager(sequencedDispatch([]string{"v1", "v2"}))

	id, err := m.Create([]wdxmonitor.Entry{{Address: testAddress(t)}}, false, 0)
	require.NoError(t, err)

	items, err := m.Poll(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Changed, "first poll has no prior value, must report changed")

	items, err = m.Poll(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, items[0].Changed, "v1 -> v2 must report changed")
}

func TestMonitorOneOffLapsesAfterFirstPoll(t *testing.T) {
	m := wdxmonitor.NewManager(sequencedDispatch([]string{"v1"}))

	id, err := m.Create([]wdxmonitor.Entry{{Address: testAddress(t)}}, true, 0)
	require.NoError(t, err)

	_, err = m.Poll(context.Background(), id)
	require.NoError(t, err)

	_, err = m.Poll(context.Background(), id)
	assert.ErrorIs(t, err, wdxmonitor.ErrUnknownList)
}

func TestMonitorLimitExceeded(t *testing.T) {
	m := wdxmonitor.NewManager(sequencedDispatch([]string{"v"}))

	for i := 0; i < wdxmonitor.MaxLiveLists; i++ {
		_, err := m.Create([]wdxmonitor.Entry{{Address: testAddress(t)}}, false, 0)
		require.NoError(t, err)
	}

	_, err := m.Create([]wdxmonitor.Entry{{Address: testAddress(t)}}, false, 0)
	assert.ErrorIs(t, err, wdxmonitor.ErrLimitExceeded)
}

func TestMonitorAllDoesNotConsumeOneOffOrRefresh(t *testing.T) {
	m := wdxmonitor.NewManager(sequencedDispatch([]string{"v"}))

	id, err := m.Create([]wdxmonitor.Entry{{Address: testAddress(t)}}, true, 0)
	require.NoError(t, err)

	ids := m.All()
	require.Contains(t, ids, id)

	ids = m.All()
	require.Contains(t, ids, id, "get_all_monitoring_lists must not itself lapse or poll a one-off list")
}

func TestMonitorAwaitOneOffResolvesViaNotifier(t *testing.T) {
	m := wdxmonitor.NewManager(sequencedDispatch([]string{"v1"}))

	id, err := m.Create([]wdxmonitor.Entry{{Address: testAddress(t)}}, true, 0)
	require.NoError(t, err)

	future, err := m.AwaitOneOff(context.Background(), id)
	require.NoError(t, err)

	done := make(chan []wdxmonitor.Item, 1)
	future.SetNotifier(func(items []wdxmonitor.Item) { done <- items })

	select {
	case items := <-done:
		require.Len(t, items, 1)
		assert.True(t, items[0].Changed)
	case <-time.After(time.Second):
		t.Fatal("notifier never invoked")
	}
}

func TestMonitorAwaitOneOffRejectsNonOneOffList(t *testing.T) {
	m := wdxmonitor.NewManager(sequencedDispatch([]string{"v1"}))

	id, err := m.Create([]wdxmonitor.Entry{{Address: testAddress(t)}}, false, 0)
	require.NoError(t, err)

	_, err = m.AwaitOneOff(context.Background(), id)
	assert.Error(t, err)
}

func TestMonitorLazyTimeoutExpiry(t *testing.T) {
	m := wdxmonitor.NewManager(sequencedDispatch([]string{"v"}))

	id, err := m.Create([]wdxmonitor.Entry{{Address: testAddress(t)}}, false, time.Millisecond)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	m.TriggerLapseChecks()

	_, err = m.Poll(context.Background(), id)
	assert.ErrorIs(t, err, wdxmonitor.ErrUnknownList)
}
