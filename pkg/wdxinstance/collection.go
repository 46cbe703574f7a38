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

package wdxinstance

import (
	"fmt"
	"sync"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxmodel"
)

// Collection is the runtime registry of Devices, keyed by DeviceID. It
// holds no model of its own: Register takes the compiled DeviceModel so it
// can seed a device's instances and values from its device-type
// description (§4.2).
type Collection struct {
	mu      sync.RWMutex
	devices map[DeviceID]*Device
}

// NewCollection builds an empty device registry.
func NewCollection() *Collection {
	return &Collection{devices: map[DeviceID]*Device{}}
}

// Register creates and seeds a Device from the compiled model's device-type
// description for (orderNumber, firmwareVersion). It is an error to
// register a DeviceID already in use, or a (orderNumber, firmwareVersion)
// pair the model has no device-type description for.
func (c *Collection) Register(model *wdxmodel.DeviceModel, id DeviceID, orderNumber, firmwareVersion string) (*Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.devices[id]; exists {
		return nil, fmt.Errorf("wdxinstance: device %s already registered", id)
	}

	desc, ok := model.DeviceType(orderNumber, firmwareVersion)
	if !ok {
		return nil, fmt.Errorf("wdxinstance: no device-type description for %s/%s", orderNumber, firmwareVersion)
	}

	dev := newDevice(id, orderNumber, firmwareVersion)
	dev.Online = true

	for _, iv := range desc.ParameterValues {
		dev.SetValue(iv.ParameterID, iv.Value)
	}

	for _, inst := range desc.Instantiations {
		class, ok := model.Class(inst.ClassName)
		if !ok {
			return nil, fmt.Errorf("wdxinstance: device-type %s/%s instantiates unknown class %q", orderNumber, firmwareVersion, inst.ClassName)
		}

		dev.AddInstance(inst.ClassName, class, inst.InstanceID, inst.ParameterValues)
	}

	c.devices[id] = dev

	return dev, nil
}

// Unregister removes a device, e.g. on disconnect.
func (c *Collection) Unregister(id DeviceID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.devices, id)
}

// Device looks up a registered device by id.
func (c *Collection) Device(id DeviceID) (*Device, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.devices[id]

	return d, ok
}

// HasInstance reports whether deviceID owns a class instance of className
// with the given instanceID, for the dispatcher's dynamic-instantiation
// member check (spec.md §4.4): a member write targeting an instance that
// neither exists yet nor is being created in the same batch fails with
// missing_parameter_for_instantiation rather than reaching a provider.
func (c *Collection) HasInstance(deviceID DeviceID, className string, instanceID uint32) bool {
	dev, ok := c.Device(deviceID)
	if !ok {
		return false
	}

	_, ok = dev.Instance(className, instanceID)

	return ok
}

// All returns every registered device, in no particular order.
func (c *Collection) All() []*Device {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Device, 0, len(c.devices))
	for _, d := range c.devices {
		out = append(out, d)
	}

	return out
}
