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

// Package wdxinstance implements the Instance Resolver (spec.md §4.2): the
// runtime registry of Devices and their class instances, and the
// translator between wire addressing ("2-3", parameter paths like
// "TestClasses/2/OtherParam") and (parameter id, instance id) pairs the
// rest of the service operates on.
package wdxinstance

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxmodel"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxvalue"
)

// DeviceID identifies one registered device slot. The wire codec is the
// "collection-slot" form used throughout spec.md's examples, e.g. "2-3"
// meaning collection 2, slot 3.
type DeviceID struct {
	Collection uint32
	Slot       uint32
}

// String renders the "C-S" wire form.
func (d DeviceID) String() string {
	return fmt.Sprintf("%d-%d", d.Collection, d.Slot)
}

// ParseDeviceID accepts both "C-S" and "C/S" wire forms.
func ParseDeviceID(s string) (DeviceID, error) {
	sep := "-"
	if strings.Contains(s, "/") {
		sep = "/"
	}

	parts := strings.SplitN(s, sep, 2)
	if len(parts) != 2 {
		return DeviceID{}, fmt.Errorf("wdxinstance: malformed device id %q", s)
	}

	collection, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return DeviceID{}, fmt.Errorf("wdxinstance: malformed device collection in %q: %w", s, err)
	}

	slot, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return DeviceID{}, fmt.Errorf("wdxinstance: malformed device slot in %q: %w", s, err)
	}

	return DeviceID{Collection: uint32(collection), Slot: uint32(slot)}, nil
}

// ClassInstance is one live instance of a ClassDefinition owned by a
// Device: its instance id, the member values it was seeded with, and
// whether its class is dynamic (copied from the ClassDefinition, whether
// the instance came from the device-description instantiation table or
// not).
type ClassInstance struct {
	ClassName  string
	InstanceID uint32
	Dynamic    bool
	values     map[uint32]wdxvalue.Value
}

// Device is one registered instance of a device type: its identity, the
// compiled device-type description it was instantiated from, and the
// live class instances and top-level parameter values it owns.
type Device struct {
	ID              DeviceID
	OrderNumber     string
	FirmwareVersion string
	Online          bool

	mu         sync.RWMutex
	values     map[uint32]wdxvalue.Value
	instances  map[string]map[uint32]*ClassInstance // class name -> instance id -> instance
	nextInstID map[string]uint32
}

// newDevice builds an empty device shell; callers seed it via
// Collection.Register using the compiled DeviceTypeDescription.
func newDevice(id DeviceID, orderNumber, firmwareVersion string) *Device {
	return &Device{
		ID:              id,
		OrderNumber:     orderNumber,
		FirmwareVersion: firmwareVersion,
		values:          map[uint32]wdxvalue.Value{},
		instances:       map[string]map[uint32]*ClassInstance{},
		nextInstID:      map[string]uint32{},
	}
}

// Value returns the current stored value for a top-level (non-instance)
// parameter, if any has been set.
func (d *Device) Value(parameterID uint32) (wdxvalue.Value, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	v, ok := d.values[parameterID]

	return v, ok
}

// SetValue stores a top-level parameter value.
func (d *Device) SetValue(parameterID uint32, v wdxvalue.Value) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.values[parameterID] = v
}

// Instance returns one class instance by class name and instance id.
func (d *Device) Instance(className string, instanceID uint32) (*ClassInstance, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	byID, ok := d.instances[className]
	if !ok {
		return nil, false
	}

	inst, ok := byID[instanceID]

	return inst, ok
}

// Instances returns every live instance of a class, in no particular order.
func (d *Device) Instances(className string) []*ClassInstance {
	d.mu.RLock()
	defer d.mu.RUnlock()

	byID := d.instances[className]
	out := make([]*ClassInstance, 0, len(byID))

	for _, inst := range byID {
		out = append(out, inst)
	}

	return out
}

// AddInstance registers a new class instance, returning its assigned id.
// For dynamic classes without an explicit id, the next unused id is
// allocated.
func (d *Device) AddInstance(className string, class *wdxmodel.ClassDefinition, explicitID uint32, seed []wdxvalue.InstantiationEntry) *ClassInstance {
	d.mu.Lock()
	defer d.mu.Unlock()

	byID, ok := d.instances[className]
	if !ok {
		byID = map[uint32]*ClassInstance{}
		d.instances[className] = byID
	}

	id := explicitID
	if id == 0 {
		id = d.nextInstID[className] + 1
	}

	if id > d.nextInstID[className] {
		d.nextInstID[className] = id
	}

	inst := &ClassInstance{ClassName: className, InstanceID: id, Dynamic: class.Dynamic, values: map[uint32]wdxvalue.Value{}}

	for _, entry := range seed {
		inst.values[entry.ParameterID] = entry.Value
	}

	byID[id] = inst

	return inst
}

// Value returns a class instance member's stored value.
func (ci *ClassInstance) Value(parameterID uint32) (wdxvalue.Value, bool) {
	v, ok := ci.values[parameterID]
	return v, ok
}

// SetValue stores a class instance member's value.
func (ci *ClassInstance) SetValue(parameterID uint32, v wdxvalue.Value) {
	ci.values[parameterID] = v
}
