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

// Package wdxprovider implements the Provider Registry (spec.md §4.3): a
// collection of scoped registries mapping a selector (which parameters
// this provider answers for, on which devices) to the collaborator
// implementation, resolved by decreasing specificity at dispatch time.
package wdxprovider

// CallMode controls how the dispatcher invokes a provider for a batch
// containing more than one of its parameters (spec.md §4.4).
type CallMode int

const (
	// Serialized delivers one parameter at a time, waiting for each
	// future to settle before issuing the next call to this provider.
	Serialized CallMode = iota
	// Concurrent allows the dispatcher to issue all of a provider's calls
	// for one batch at once.
	Concurrent
)

// ParameterSelector scopes a registration to a set of parameter ids, a
// whole feature, or "any parameter this provider's kind can serve".
type ParameterSelector struct {
	// ParameterIDs, when non-empty, is the exhaustive id list this
	// registration answers for — the most specific selector kind.
	ParameterIDs []uint32
	// FeatureName, when set (and ParameterIDs empty), answers for every
	// parameter declared on that feature.
	FeatureName string
	// Any, when true (and the above are empty), answers for any
	// parameter not more specifically claimed by another registration.
	Any bool
}

// specificity orders selectors from most to least specific, per spec.md
// §4.3's "definition-id match > feature > device scope > any" rule.
func (s ParameterSelector) specificity() int {
	switch {
	case len(s.ParameterIDs) > 0:
		return 3
	case s.FeatureName != "":
		return 2
	default:
		return 1
	}
}

func (s ParameterSelector) matchesParameter(id uint32, featureName string) bool {
	if len(s.ParameterIDs) > 0 {
		for _, want := range s.ParameterIDs {
			if want == id {
				return true
			}
		}

		return false
	}

	if s.FeatureName != "" {
		return s.FeatureName == featureName
	}

	return s.Any
}

// DeviceSelector scopes a registration to a device, an order number (all
// firmware versions), or "any device".
type DeviceSelector struct {
	OrderNumber     string
	FirmwareVersion string
	Any             bool
}

func (s DeviceSelector) specificity() int {
	switch {
	case s.OrderNumber != "" && s.FirmwareVersion != "":
		return 2
	case s.OrderNumber != "":
		return 1
	default:
		return 0
	}
}

func (s DeviceSelector) matchesDevice(orderNumber, firmwareVersion string) bool {
	if s.Any {
		return true
	}

	if s.OrderNumber != orderNumber {
		return false
	}

	return s.FirmwareVersion == "" || s.FirmwareVersion == firmwareVersion
}
