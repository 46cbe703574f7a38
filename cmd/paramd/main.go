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

// Command paramd is a minimal process wrapper around wdxservice.Service: it
// loads configuration and the model/device-description documents, compiles
// the initial model, starts the optional event publisher, and waits for a
// shutdown signal. It has no IPC transport of its own -- that is left to
// whatever collaborator embeds this package.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxconfig"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxevents"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxlog"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxservice"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/wdx/paramd.json", "Path to process config file")
	flag.Parse()

	cfg, err := wdxconfig.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := wdxlog.New(&cfg.Log)

	src, err := wdxconfig.LoadSources(cfg.ModelDir, cfg.DeviceTypeDir)
	if err != nil {
		return fmt.Errorf("failed to load model sources: %w", err)
	}

	svc := wdxservice.New(logger)

	if diagnostics, err := svc.Recompile(src); err != nil {
		return fmt.Errorf("failed to compile model: %w", err)
	} else if len(diagnostics) > 0 {
		for _, d := range diagnostics {
			logger.Warn().Uint32("parameterId", d.ParameterID).Err(d.Err).Msg("model diagnostic")
		}
	}

	publisher := wdxevents.NewPublisher(cfg.Events, logger)
	if err := publisher.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start event publisher: %w", err)
	}

	svc.Dispatcher.Notifier = publisher

	logger.Info().Str("modelDir", cfg.ModelDir).Str("deviceTypeDir", cfg.DeviceTypeDir).Msg("paramd ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := publisher.Stop(ctx); err != nil {
		logger.Warn().Err(err).Msg("event publisher shutdown error")
	}

	return nil
}
