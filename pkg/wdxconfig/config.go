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

// Package wdxconfig loads the process configuration and the model/device
// metadata documents the compiler consumes, the way the rest of the
// ecosystem loads configuration: JSON files on disk, with an optional
// single environment variable override for container deployments where
// mounting a file is inconvenient.
package wdxconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxevents"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxlog"
)

// ErrInvalidConfigSource is returned when CONFIG_SOURCE names something
// other than "file" or "env".
var ErrInvalidConfigSource = errors.New("wdxconfig: invalid CONFIG_SOURCE value")

const (
	sourceFile = "file"
	sourceEnv  = "env"

	envConfigJSON = "WDX_CONFIG_JSON"
	envSource     = "CONFIG_SOURCE"
)

// ProcessConfig is the top-level process configuration: logging, the
// on-disk locations of model/device metadata, the optional event bus, and
// the upload timeout.
type ProcessConfig struct {
	Log           wdxlog.Config    `json:"log"`
	ModelDir      string           `json:"modelDir"`
	DeviceTypeDir string           `json:"deviceTypeDir"`
	Events        wdxevents.Config `json:"events"`
	UploadTimeout time.Duration    `json:"uploadTimeout"`
}

// Validate reports whether a loaded ProcessConfig is usable.
func (c *ProcessConfig) Validate() error {
	if c.ModelDir == "" {
		return errors.New("wdxconfig: modelDir must be set")
	}

	return nil
}

// Load reads a ProcessConfig the way CONFIG_SOURCE directs: from the JSON
// file at path by default, or from the WDX_CONFIG_JSON environment
// variable when CONFIG_SOURCE=env (container deployments that prefer not
// to mount a config file).
func Load(path string) (*ProcessConfig, error) {
	source := os.Getenv(envSource)
	if source == "" {
		source = sourceFile
	}

	cfg := &ProcessConfig{UploadTimeout: 5 * time.Minute}

	switch source {
	case sourceFile:
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	case sourceEnv:
		raw := os.Getenv(envConfigJSON)
		if raw == "" {
			return nil, fmt.Errorf("wdxconfig: %s is empty", envConfigJSON)
		}

		if err := json.Unmarshal([]byte(raw), cfg); err != nil {
			return nil, fmt.Errorf("wdxconfig: unmarshal %s: %w", envConfigJSON, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfigSource, source)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFile(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("wdxconfig: read %q: %w", path, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("wdxconfig: unmarshal %q: %w", path, err)
	}

	return nil
}
