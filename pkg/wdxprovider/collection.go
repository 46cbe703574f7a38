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

package wdxprovider

// Collection bundles the five scoped registries spec.md §4.3 calls out:
// parameter, model, device-description, device-extension and file
// providers. A wdxservice.Service owns exactly one Collection.
type Collection struct {
	Parameters         *Registry[ParameterProvider]
	Models             *Registry[ModelProvider]
	DeviceDescriptions *Registry[DeviceDescriptionProvider]
	DeviceExtensions   *Registry[DeviceExtensionProvider]
	Files              *Registry[FileProvider]
}

// NewCollection builds an empty set of registries.
func NewCollection() *Collection {
	return &Collection{
		Parameters:         NewRegistry[ParameterProvider](),
		Models:             NewRegistry[ModelProvider](),
		DeviceDescriptions: NewRegistry[DeviceDescriptionProvider](),
		DeviceExtensions:   NewRegistry[DeviceExtensionProvider](),
		Files:              NewRegistry[FileProvider](),
	}
}
