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

// Package wdxmodel implements the Model Compiler (spec.md §4.1): metadata
// documents in, an immutable DeviceModel out, with feature/class include
// resolution, override application, and cross-link resolution.
package wdxmodel

import "github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxvalue"

// MethodArg is one named in/out argument of a Method-typed parameter.
type MethodArg struct {
	Name      string
	ValueType wdxvalue.Kind
	Rank      wdxvalue.Rank
}

// MethodSignature holds the argument lists of a Method-typed parameter.
type MethodSignature struct {
	InArgs  []MethodArg
	OutArgs []MethodArg
}

// LengthConstraint bounds an array/string value's length.
type LengthConstraint struct {
	Min int
	Max int
}

// Overrideables is the subset of a ParameterDefinition an Override may patch.
type Overrideables struct {
	DefaultValue  *wdxvalue.Value
	Pattern       string
	AllowedValues []wdxvalue.Value
	AllowedLength *LengthConstraint
	Inactive      bool
}

// ParameterDefinition is the compiled, immutable description of one
// parameter (spec.md §3). IDs are globally unique across the compiled
// model. Path uniqueness within a feature/class scope is not checked by
// the compiler.
type ParameterDefinition struct {
	ID            uint32
	Path          string // canonical case, compared case-insensitively by callers
	ValueType     wdxvalue.Kind
	Rank          wdxvalue.Rank
	Writeable     bool
	UserSetting   bool
	OnlyOnline    bool
	IsBeta        bool
	IsDeprecated  bool
	Overrideables Overrideables
	EnumRef       string
	Enum          *EnumDefinition // resolved weak reference, nil if EnumRef is empty or unresolved
	RefClasses    []string
	Method        *MethodSignature // non-nil only when ValueType == KindMethod
	FeatureName   string           // owning feature, "" if declared directly on a class
	ClassName     string           // owning class, "" if declared directly on a feature

	// ConnectionChanging marks a write that may disrupt the caller's own
	// transport, honoring defer_wda_web_connection_changes (§4.4).
	ConnectionChanging bool
}

// Inactive reports whether an override has deactivated this definition.
// An inactive parameter reads as status_value_unavailable and rejects
// writes with parameter_not_writeable (§4.1 step 3).
func (d *ParameterDefinition) Inactive() bool {
	return d.Overrideables.Inactive
}

// EnumDefinition names the members of an Enum value type.
type EnumDefinition struct {
	Name    string
	Members map[uint32]string
}

// ClassDefinition is a parameterized record type instantiable per device
// (spec.md §3). Dynamic classes admit provider-created instances; others
// only admit instances named in a Device's instantiation table.
type ClassDefinition struct {
	ID          string
	BasePath    string
	BaseID      uint32
	Includes    []string
	Parameters  map[uint32]*ParameterDefinition
	Dynamic     bool
	Writeable   bool
	InstanceKey string
}

// FeatureDefinition is a named, reusable bundle of parameters and class
// references (spec.md §3/Glossary).
type FeatureDefinition struct {
	Name         string
	Includes     []string
	Parameters   map[uint32]*ParameterDefinition
	Classes      []string
	IsBeta       bool
	IsDeprecated bool
}

// ByPath returns the definition whose Path matches name
// case-insensitively, searching the feature's own and included parameters
// as one set; if several share the path, which one is returned is not
// defined.
func (f *FeatureDefinition) ByPath(name string) (*ParameterDefinition, bool) {
	for _, p := range f.Parameters {
		if equalFoldPath(p.Path, name) {
			return p, true
		}
	}

	return nil, false
}

func equalFoldPath(a, b string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]

		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}

		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}

		if ca != cb {
			return false
		}
	}

	return true
}

// DeviceTypeDescription is the per-(order_number, firmware_version)
// description returned by a device-description provider: which features a
// device of this type claims, its device-scoped overrides, the
// instantiation table and initial parameter values.
type DeviceTypeDescription struct {
	OrderNumber     string
	FirmwareVersion string
	ModelReference  string
	Features        []string
	Overrides       []Override
	Instantiations  []wdxvalue.ClassInstantiation
	ParameterValues []InitialValue
}

// InitialValue seeds a definition's fixed_value at device-registration time.
type InitialValue struct {
	ParameterID uint32
	Value       wdxvalue.Value
}

// Override is a scoped patch onto a ParameterDefinition (spec.md §3/§4.1).
type Override struct {
	ParameterID   uint32
	Overrideables Overrideables
}

// DeviceModel is the immutable, compiled directory produced by the Model
// Compiler. It is shared across all readers; a recompilation produces a
// new *DeviceModel and the caller atomically swaps the pointer (§5).
type DeviceModel struct {
	Features    map[string]*FeatureDefinition
	Classes     map[string]*ClassDefinition
	Enums       map[string]*EnumDefinition
	Definitions map[uint32]*ParameterDefinition
	DeviceTypes map[DeviceTypeKey]*DeviceTypeDescription
}

// DeviceTypeKey identifies a device type by its (order_number,
// firmware_version) pair, the key device-description providers register
// under (spec.md §4.1).
type DeviceTypeKey struct {
	OrderNumber     string
	FirmwareVersion string
}

// Definition looks up a compiled parameter definition by its global id.
func (m *DeviceModel) Definition(id uint32) (*ParameterDefinition, bool) {
	d, ok := m.Definitions[id]
	return d, ok
}

// Feature looks up a compiled feature by name.
func (m *DeviceModel) Feature(name string) (*FeatureDefinition, bool) {
	f, ok := m.Features[name]
	return f, ok
}

// Class looks up a compiled class by name.
func (m *DeviceModel) Class(name string) (*ClassDefinition, bool) {
	c, ok := m.Classes[name]
	return c, ok
}

// DeviceType looks up the compiled device-type description for a given
// (order_number, firmware_version) pair.
func (m *DeviceModel) DeviceType(orderNumber, firmwareVersion string) (*DeviceTypeDescription, bool) {
	d, ok := m.DeviceTypes[DeviceTypeKey{OrderNumber: orderNumber, FirmwareVersion: firmwareVersion}]
	return d, ok
}

// FeatureParameters returns the transitive union of a feature's own and
// included parameters, already resolved at compile time.
func (m *DeviceModel) FeatureParameters(name string) map[uint32]*ParameterDefinition {
	f, ok := m.Features[name]
	if !ok {
		return nil
	}

	return f.Parameters
}
