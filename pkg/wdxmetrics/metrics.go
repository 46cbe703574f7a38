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

// Package wdxmetrics instruments the dispatcher, monitoring-list manager
// and file registry with OpenTelemetry counters and histograms.
package wdxmetrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName                = "wdx.paramservice"
	metricBatchTotal         = "wdx_dispatch_batch_total"
	metricBatchFailed        = "wdx_dispatch_batch_entries_failed_total"
	metricMonitorPollLatency = "wdx_monitor_poll_latency_seconds"
	metricUploadTotal        = "wdx_file_upload_total"
)

var (
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	meterOnce sync.Once
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	batchCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	batchFailedCounter metric.Int64Counter
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	pollHistogram metric.Float64Histogram
	//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
	uploadCounter metric.Int64Counter
)

func initMeter() {
	meter := otel.Meter(meterName)

	counter, err := meter.Int64Counter(metricBatchTotal, metric.WithDescription("Total dispatched parameter batches"))
	if err != nil {
		otel.Handle(err)
	}

	batchCounter = counter

	failed, err := meter.Int64Counter(metricBatchFailed, metric.WithDescription("Total batch entries that resolved to a non-OK status"))
	if err != nil {
		otel.Handle(err)
	}

	batchFailedCounter = failed

	hist, err := meter.Float64Histogram(
		metricMonitorPollLatency,
		metric.WithDescription("Latency of a monitoring list poll"),
		metric.WithUnit("s"),
	)
	if err != nil {
		otel.Handle(err)
	}

	pollHistogram = hist

	uploads, err := meter.Int64Counter(metricUploadTotal, metric.WithDescription("Total file upload commit attempts, by outcome"))
	if err != nil {
		otel.Handle(err)
	}

	uploadCounter = uploads
}

// Recorder implements wdxdispatch.Metrics, recording each dispatched
// batch's size and failure count.
type Recorder struct{}

// ObserveBatch records one dispatched batch.
func (Recorder) ObserveBatch(size, failed int) {
	meterOnce.Do(initMeter)

	ctx := context.Background()

	if batchCounter != nil {
		batchCounter.Add(ctx, 1, metric.WithAttributes(attribute.Int("size", size)))
	}

	if failed > 0 && batchFailedCounter != nil {
		batchFailedCounter.Add(ctx, int64(failed))
	}
}

// ObservePoll implements wdxmonitor.PollMetrics, recording one
// monitoring-list poll's latency.
func (Recorder) ObservePoll(listID uint64, duration time.Duration) {
	meterOnce.Do(initMeter)

	if pollHistogram == nil {
		return
	}

	pollHistogram.Record(
		context.Background(),
		duration.Seconds(),
		metric.WithAttributes(attribute.Int64("list_id", int64(listID))),
	)
}

// ObserveUpload implements wdxfile.UploadMetrics, recording one committed
// or failed file upload.
func (Recorder) ObserveUpload(outcome string) {
	meterOnce.Do(initMeter)

	if uploadCounter == nil {
		return
	}

	uploadCounter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
