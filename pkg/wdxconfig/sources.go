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

package wdxconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxmodel"
)

// LoadSources reads every *.json model document under modelDir and every
// *.json device-description document under deviceTypeDir, building the
// wdxmodel.Sources value the compiler consumes. A device-description
// file's name, minus its extension, is split on the last "__" into
// (order_number, firmware_version); this mirrors how the reference
// providers key a device type's description off that same pair.
func LoadSources(modelDir, deviceTypeDir string) (wdxmodel.Sources, error) {
	src := wdxmodel.Sources{DeviceTypes: map[wdxmodel.DeviceTypeKey]wdxmodel.DeviceDescriptionDocument{}}

	models, err := readJSONDir(modelDir)
	if err != nil {
		return src, err
	}

	for name, data := range models {
		var doc wdxmodel.ModelDocument

		if err := json.Unmarshal(data, &doc); err != nil {
			return src, fmt.Errorf("wdxconfig: decode model document %q: %w", name, err)
		}

		src.Models = append(src.Models, doc)
	}

	deviceTypes, err := readJSONDir(deviceTypeDir)
	if err != nil {
		return src, err
	}

	for name, data := range deviceTypes {
		key, err := deviceTypeKeyFromFileName(name)
		if err != nil {
			return src, err
		}

		var doc wdxmodel.DeviceDescriptionDocument

		if err := json.Unmarshal(data, &doc); err != nil {
			return src, fmt.Errorf("wdxconfig: decode device description %q: %w", name, err)
		}

		src.DeviceTypes[key] = doc
	}

	return src, nil
}

func deviceTypeKeyFromFileName(name string) (wdxmodel.DeviceTypeKey, error) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))

	parts := strings.SplitN(base, "__", 2)
	if len(parts) != 2 {
		return wdxmodel.DeviceTypeKey{}, fmt.Errorf(
			"wdxconfig: device description file %q must be named <orderNumber>__<firmwareVersion>.json", name)
	}

	return wdxmodel.DeviceTypeKey{OrderNumber: parts[0], FirmwareVersion: parts[1]}, nil
}

func readJSONDir(dir string) (map[string][]byte, error) {
	out := map[string][]byte{}

	if dir == "" {
		return out, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}

		return nil, fmt.Errorf("wdxconfig: read dir %q: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("wdxconfig: read %q: %w", path, err)
		}

		out[entry.Name()] = data
	}

	return out, nil
}
