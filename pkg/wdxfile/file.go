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

// Package wdxfile implements the File-ID Registry (spec.md §4.8): the
// bookkeeping behind FileID-typed parameter values, including the
// upload-id handshake a caller uses to stream a new file's bytes before
// committing them to a FileID write.
package wdxfile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxprovider"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxstatus"
)

// UploadTimeout bounds how long an upload id stays valid without activity
// before it lazily expires on the next registry call (spec.md §4.8).
const UploadTimeout = 5 * time.Minute

var (
	// ErrUnknownUploadID is returned for an upload id the registry never
	// issued, or one already committed/aborted.
	ErrUnknownUploadID = errors.New("wdxfile: unknown upload id")
	// ErrUploadIDExpired is returned for an upload id whose timeout lapsed.
	ErrUploadIDExpired = errors.New("wdxfile: upload id expired")
)

type upload struct {
	id       string
	buf      []byte
	deadline time.Time
}

// UploadMetrics is an optional instrumentation hook a Registry calls after
// every upload commit attempt.
type UploadMetrics interface {
	ObserveUpload(outcome string)
}

// Registry tracks in-progress uploads and dispatches committed file
// reads/writes to the provider registered for a given FileID-typed
// parameter.
type Registry struct {
	Providers *wdxprovider.Registry[wdxprovider.FileProvider]
	Metrics   UploadMetrics

	mu      sync.Mutex
	uploads map[string]*upload
}

// NewRegistry builds an empty file registry bound to a FileProvider
// registry.
func NewRegistry(providers *wdxprovider.Registry[wdxprovider.FileProvider]) *Registry {
	return &Registry{Providers: providers, uploads: map[string]*upload{}}
}

// BeginUpload allocates a new upload id, sweeping expired uploads first.
func (r *Registry) BeginUpload() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()

	id := uuid.New().String()
	r.uploads[id] = &upload{id: id, deadline: time.Now().Add(UploadTimeout)}

	return id
}

// AppendUpload appends bytes to an in-progress upload, refreshing its
// deadline. Returns ErrUnknownUploadID/ErrUploadIDExpired as appropriate.
func (r *Registry) AppendUpload(uploadID string, chunk []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked()

	u, ok := r.uploads[uploadID]
	if !ok {
		return ErrUnknownUploadID
	}

	u.buf = append(u.buf, chunk...)
	u.deadline = time.Now().Add(UploadTimeout)

	return nil
}

// CommitUpload finalizes an upload, handing its bytes to the FileProvider
// registered for the given parameter/feature scope, and returns the new
// content's FileID value string. The upload id is consumed either way.
func (r *Registry) CommitUpload(ctx context.Context, uploadID string, parameterID uint32, featureName string) (string, wdxstatus.Code) {
	r.mu.Lock()
	r.sweepLocked()

	u, ok := r.uploads[uploadID]
	if ok {
		delete(r.uploads, uploadID)
	}

	r.mu.Unlock()

	if !ok {
		r.observeUpload("unknown_upload_id")
		return "", wdxstatus.UnknownUploadID
	}

	res, ok := r.Providers.Resolve(parameterID, featureName, "", "")
	if !ok {
		r.observeUpload("no_provider")
		return "", wdxstatus.InternalError
	}

	fileID := uuid.New().String()

	if code := res.Provider.WriteFile(ctx, fileID, u.buf); code != wdxstatus.OK {
		r.observeUpload("write_failed")
		return "", code
	}

	r.observeUpload("committed")

	return fileID, wdxstatus.OK
}

func (r *Registry) observeUpload(outcome string) {
	if r.Metrics != nil {
		r.Metrics.ObserveUpload(outcome)
	}
}

// AbortUpload discards an in-progress upload.
func (r *Registry) AbortUpload(uploadID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.uploads, uploadID)
}

// ReadFile fetches committed file content for a FileID value.
func (r *Registry) ReadFile(ctx context.Context, fileID string, parameterID uint32, featureName string) ([]byte, wdxstatus.Code) {
	r.mu.Lock()
	r.sweepLocked()
	r.mu.Unlock()

	res, ok := r.Providers.Resolve(parameterID, featureName, "", "")
	if !ok {
		return nil, wdxstatus.InternalError
	}

	return res.Provider.ReadFile(ctx, fileID)
}

func (r *Registry) sweepLocked() {
	now := time.Now()

	for id, u := range r.uploads {
		if now.After(u.deadline) {
			delete(r.uploads, id)
		}
	}
}
