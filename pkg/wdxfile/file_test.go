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

package wdxfile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxfile"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxprovider"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxstatus"
)

type memFileProvider struct {
	files map[string][]byte
}

func (m *memFileProvider) ReadFile(_ context.Context, id string) ([]byte, wdxstatus.Code) {
	b, ok := m.files[id]
	if !ok {
		return nil, wdxstatus.FileNotFound
	}

	return b, wdxstatus.OK
}

func (m *memFileProvider) WriteFile(_ context.Context, id string, content []byte) wdxstatus.Code {
	if m.files == nil {
		m.files = map[string][]byte{}
	}

	m.files[id] = content

	return wdxstatus.OK
}

func TestUploadCommitThenRead(t *testing.T) {
	providers := wdxprovider.NewRegistry[wdxprovider.FileProvider]()
	backend := &memFileProvider{}
	providers.Register(wdxprovider.ParameterSelector{Any: true}, wdxprovider.DeviceSelector{Any: true}, wdxprovider.Concurrent, backend)

	reg := wdxfile.NewRegistry(providers)

	id := reg.BeginUpload()
	require.NoError(t, reg.AppendUpload(id, []byte("hello ")))
	require.NoError(t, reg.AppendUpload(id, []byte("world")))

	fileID, code := reg.CommitUpload(context.Background(), id, 1, "Core")
	require.Equal(t, wdxstatus.OK, code)
	require.NotEmpty(t, fileID)

	content, code := reg.ReadFile(context.Background(), fileID, 1, "Core")
	require.Equal(t, wdxstatus.OK, code)
	assert.Equal(t, "hello world", string(content))
}

func TestUnknownUploadIDRejected(t *testing.T) {
	providers := wdxprovider.NewRegistry[wdxprovider.FileProvider]()
	reg := wdxfile.NewRegistry(providers)

	_, code := reg.CommitUpload(context.Background(), "not-a-real-id", 1, "Core")
	assert.Equal(t, wdxstatus.UnknownUploadID, code)
}

func TestAppendToUnknownUploadID(t *testing.T) {
	providers := wdxprovider.NewRegistry[wdxprovider.FileProvider]()
	reg := wdxfile.NewRegistry(providers)

	err := reg.AppendUpload("bogus", []byte("x"))
	assert.ErrorIs(t, err, wdxfile.ErrUnknownUploadID)
}
