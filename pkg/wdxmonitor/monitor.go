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

// Package wdxmonitor implements the Monitoring-List Manager (spec.md
// §4.6): bounded, lazily-lapsing lists of parameters a caller polls for
// changed values, reusing the dispatcher's read path on every poll.
package wdxmonitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxdispatch"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxfuture"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxinstance"
)

// MaxLiveLists is the upper bound on concurrently live monitoring lists
// (spec.md §4.6, "at most 100 live lists").
const MaxLiveLists = 100

var (
	// ErrLimitExceeded is returned by Create once MaxLiveLists lists are live.
	ErrLimitExceeded = errors.New("wdxmonitor: monitoring list limit exceeded")
	// ErrUnknownList is returned by operations naming an unknown or
	// already-lapsed list id.
	ErrUnknownList = errors.New("wdxmonitor: unknown monitoring list")
)

// Entry is one item a monitoring list tracks.
type Entry struct {
	Address wdxinstance.Address
}

// Item is one entry's result as of the last poll.
type Item struct {
	Address wdxinstance.Address
	Result  wdxdispatch.Result
	Changed bool
}

// list is the internal state of one monitoring list.
type list struct {
	id        uint64
	entries   []Entry
	oneOff    bool
	lapseAt   time.Time // zero means no timeout
	lapsed    bool
	lastValue []wdxdispatch.Result
}

// PollMetrics is an optional instrumentation hook a Manager calls after
// every completed Poll.
type PollMetrics interface {
	ObservePoll(listID uint64, duration time.Duration)
}

// Manager owns the set of live monitoring lists. IDs are monotonically
// increasing and never reused, even across lapse/cleanup (spec.md §4.6).
type Manager struct {
	Dispatch func(ctx context.Context, ops []wdxdispatch.Op) []wdxdispatch.Result
	Metrics  PollMetrics

	mu     sync.Mutex
	nextID uint64
	lists  map[uint64]*list
}

// NewManager builds an empty monitoring-list manager bound to a
// dispatcher read function.
func NewManager(dispatch func(ctx context.Context, ops []wdxdispatch.Op) []wdxdispatch.Result) *Manager {
	return &Manager{Dispatch: dispatch, lists: map[uint64]*list{}}
}

// Create registers a new monitoring list. oneOff lists lapse immediately
// after their first successful Poll; ttl, if non-zero, lapses the list
// after that much wall time regardless of polling activity.
func (m *Manager) Create(entries []Entry, oneOff bool, ttl time.Duration) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lapseLocked()

	if len(m.lists) >= MaxLiveLists {
		return 0, ErrLimitExceeded
	}

	m.nextID++
	id := m.nextID

	l := &list{id: id, entries: entries, oneOff: oneOff}
	if ttl > 0 {
		l.lapseAt = time.Now().Add(ttl)
	}

	m.lists[id] = l

	return id, nil
}

// Poll reads every entry's current value via the dispatcher and reports
// which changed since the previous poll. Polling a lapsed or unknown list
// id is ErrUnknownList.
func (m *Manager) Poll(ctx context.Context, id uint64) ([]Item, error) {
	m.mu.Lock()
	m.lapseLocked()

	l, ok := m.lists[id]
	if !ok || l.lapsed {
		m.mu.Unlock()
		return nil, ErrUnknownList
	}

	entries := append([]Entry(nil), l.entries...)
	prev := l.lastValue
	m.mu.Unlock()

	ops := make([]wdxdispatch.Op, len(entries))
	for i, e := range entries {
		ops[i] = wdxdispatch.Op{Address: e.Address}
	}

	start := time.Now()
	results := m.Dispatch(ctx, ops)

	if m.Metrics != nil {
		m.Metrics.ObservePoll(id, time.Since(start))
	}

	items := make([]Item, len(entries))
	for i, r := range results {
		changed := prev == nil || i >= len(prev) || !resultsEqual(prev[i], r)
		items[i] = Item{Address: entries[i].Address, Result: r, Changed: changed}
	}

	m.mu.Lock()
	l, ok = m.lists[id]

	if ok {
		l.lastValue = results

		if l.oneOff {
			l.lapsed = true
		}
	}

	m.mu.Unlock()

	return items, nil
}

// AwaitOneOff runs a one-off list's single poll in the background and
// returns a future for its result, letting a caller install a notifier
// (spec.md §4.8's future protocol) instead of blocking on Poll. Dismissing
// the returned future stops the caller from being notified but does not
// cancel the underlying dispatch -- matching §4.8's "cooperative,
// best-effort" cancellation contract.
func (m *Manager) AwaitOneOff(ctx context.Context, id uint64) (wdxfuture.Future[[]Item], error) {
	m.mu.Lock()
	l, ok := m.lists[id]
	m.mu.Unlock()

	if !ok || l.lapsed {
		return wdxfuture.Future[[]Item]{}, ErrUnknownList
	}

	if !l.oneOff {
		return wdxfuture.Future[[]Item]{}, errors.New("wdxmonitor: AwaitOneOff requires a one-off list")
	}

	future, promise := wdxfuture.New[[]Item]()

	go func() {
		items, err := m.Poll(ctx, id)
		if err != nil {
			_ = promise.SetError(err)
			return
		}

		_ = promise.Set(items)
	}()

	return future, nil
}

// Remove explicitly lapses a list. Removing an unknown id is a no-op.
func (m *Manager) Remove(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.lists, id)
}

// All returns the ids of every currently live list, without triggering a
// lapse check or consuming one-off semantics -- the non-refreshing
// get_all_monitoring_lists behavior spec.md §4.6 calls out explicitly.
func (m *Manager) All() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]uint64, 0, len(m.lists))
	for id, l := range m.lists {
		if !l.lapsed {
			ids = append(ids, id)
		}
	}

	return ids
}

// TriggerLapseChecks forces an immediate sweep for timed-out lists,
// rather than waiting for the next lazy check inside Create/Poll.
func (m *Manager) TriggerLapseChecks() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lapseLocked()
}

func (m *Manager) lapseLocked() {
	now := time.Now()

	for id, l := range m.lists {
		if l.lapsed {
			delete(m.lists, id)
			continue
		}

		if !l.lapseAt.IsZero() && now.After(l.lapseAt) {
			delete(m.lists, id)
		}
	}
}

func resultsEqual(a, b wdxdispatch.Result) bool {
	if a.Status.Code != b.Status.Code {
		return false
	}

	as, aErr := a.Value.StringValue()
	bs, bErr := b.Value.StringValue()

	if aErr == nil && bErr == nil {
		return as == bs
	}

	ai, aIntErr := a.Value.Int64Value()
	bi, bIntErr := b.Value.Int64Value()

	if aIntErr == nil && bIntErr == nil {
		return ai == bi
	}

	aj, aJSONErr := json.Marshal(a.Value)
	bj, bJSONErr := json.Marshal(b.Value)

	return aJSONErr == nil && bJSONErr == nil && bytes.Equal(aj, bj)
}
