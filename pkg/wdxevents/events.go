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

// Package wdxevents publishes parameter change notifications to NATS so
// external subscribers (logging pipelines, UIs, other services on the
// same bus) can observe writes the dispatcher accepts, without the
// dispatcher itself taking a dependency on a transport.
package wdxevents

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxlog"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxvalue"
)

const shutdownTimeout = 5 * time.Second

// Config configures the NATS connection a Publisher uses.
type Config struct {
	URL     string
	Subject string
}

// ChangeEvent is the wire payload published for one accepted write.
type ChangeEvent struct {
	DeviceID    string         `json:"deviceId,omitempty"`
	ParameterID uint32         `json:"parameterId"`
	InstanceID  uint32         `json:"instanceId,omitempty"`
	Value       wdxvalue.Value `json:"value"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Publisher implements wdxdispatch.ChangeNotifier, forwarding every
// accepted write onto a NATS subject.
type Publisher struct {
	cfg Config
	log wdxlog.Logger

	mu sync.Mutex
	nc *nats.Conn
}

// NewPublisher builds a Publisher. It does not connect until Start is
// called, mirroring the consumer/service lifecycle split the rest of the
// stack follows.
func NewPublisher(cfg Config, log wdxlog.Logger) *Publisher {
	return &Publisher{cfg: cfg, log: log.Named("wdxevents")}
}

// Start opens the NATS connection. It is a no-op if cfg.URL is empty,
// so the publisher can be wired unconditionally and stay dormant when
// no bus is configured.
func (p *Publisher) Start(_ context.Context) error {
	if p.cfg.URL == "" {
		return nil
	}

	nc, err := nats.Connect(p.cfg.URL, nats.Name("wdx-paramservice"))
	if err != nil {
		return fmt.Errorf("wdxevents: connect: %w", err)
	}

	p.mu.Lock()
	p.nc = nc
	p.mu.Unlock()

	p.log.Info().Str("url", p.cfg.URL).Str("subject", p.cfg.Subject).Msg("event publisher connected")

	return nil
}

// Stop drains and closes the NATS connection.
func (p *Publisher) Stop(ctx context.Context) error {
	_, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	p.mu.Lock()
	nc := p.nc
	p.nc = nil
	p.mu.Unlock()

	if nc == nil {
		return nil
	}

	if err := nc.Drain(); err != nil {
		p.log.Warn().Err(err).Msg("drain failed, closing anyway")
	}

	nc.Close()

	return nil
}

// NotifyChange implements wdxdispatch.ChangeNotifier. Publish failures are
// logged, not returned -- a down event bus must never fail a write that
// the provider itself already accepted.
func (p *Publisher) NotifyChange(parameterID, instanceID uint32, value wdxvalue.Value) {
	p.mu.Lock()
	nc := p.nc
	p.mu.Unlock()

	if nc == nil {
		return
	}

	evt := ChangeEvent{ParameterID: parameterID, InstanceID: instanceID, Value: value, Timestamp: time.Now()}

	payload, err := json.Marshal(evt)
	if err != nil {
		p.log.Error().Err(err).Uint32("parameterId", parameterID).Msg("marshal change event failed")
		return
	}

	if err := nc.Publish(p.cfg.Subject, payload); err != nil {
		p.log.Error().Err(err).Uint32("parameterId", parameterID).Msg("publish change event failed")
	}
}
