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

package wdxlog

import (
	"os"
	"strings"
)

// Config controls process-wide logger construction.
type Config struct {
	Level  string `json:"level" yaml:"level"`
	Debug  bool   `json:"debug" yaml:"debug"`
	Output string `json:"output" yaml:"output"`
}

// DefaultConfig mirrors the environment-variable overrides the rest of the
// stack uses for local/dev runs.
func DefaultConfig() *Config {
	return &Config{
		Level:  getEnvOrDefault("WDX_LOG_LEVEL", "info"),
		Debug:  getEnvBoolOrDefault("WDX_DEBUG", false),
		Output: getEnvOrDefault("WDX_LOG_OUTPUT", "stdout"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	v := strings.ToLower(os.Getenv(key))
	if v == "" {
		return defaultValue
	}

	return v == "true" || v == "1" || v == "yes" || v == "on"
}
