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

package wdxmodel

import "encoding/json"

// ParameterDoc mirrors the "Parameters[]" entries of spec.md §6's metadata
// document shape. Unknown fields are ignored by encoding/json's default
// decode behavior, satisfying the compiler's forward-compatibility rule.
type ParameterDoc struct {
	ID            uint32              `json:"ID"`
	Path          string              `json:"Path"`
	Type          string              `json:"Type"`
	Rank          string              `json:"Rank,omitempty"`
	Writeable     bool                `json:"Writeable,omitempty"`
	UserSetting   bool                `json:"UserSetting,omitempty"`
	OnlyOnline    bool                `json:"OnlyOnline,omitempty"`
	Pattern       string              `json:"Pattern,omitempty"`
	DefaultValue  json.RawMessage     `json:"DefaultValue,omitempty"`
	AllowedValues json.RawMessage     `json:"AllowedValues,omitempty"`
	AllowedLength *LengthConstraintDoc `json:"AllowedLength,omitempty"`
	Enum          string              `json:"Enum,omitempty"`
	RefClass      string              `json:"RefClass,omitempty"`
	RefClasses    []string            `json:"RefClasses,omitempty"`
	InArgs        []MethodArgDoc      `json:"InArgs,omitempty"`
	OutArgs       []MethodArgDoc      `json:"OutArgs,omitempty"`
	Beta          bool                `json:"Beta,omitempty"`
	Deprecated    bool                `json:"Deprecated,omitempty"`
	ConnectionChanging bool           `json:"ConnectionChanging,omitempty"`
}

// LengthConstraintDoc mirrors the "AllowedLength" object.
type LengthConstraintDoc struct {
	Min int `json:"Min"`
	Max int `json:"Max"`
}

// MethodArgDoc mirrors one InArgs/OutArgs entry.
type MethodArgDoc struct {
	Name string `json:"Name"`
	Type string `json:"Type"`
	Rank string `json:"Rank,omitempty"`
}

// OverrideDoc mirrors one "Overrides[]" entry: an ID plus a patch.
type OverrideDoc struct {
	ID            uint32              `json:"ID"`
	Inactive      bool                `json:"Inactive,omitempty"`
	DefaultValue  json.RawMessage     `json:"DefaultValue,omitempty"`
	Pattern       string              `json:"Pattern,omitempty"`
	AllowedValues json.RawMessage     `json:"AllowedValues,omitempty"`
	AllowedLength *LengthConstraintDoc `json:"AllowedLength,omitempty"`
}

// FeatureOrClassDoc mirrors one "Features[]"/"Classes[]" entry. Classes add
// BasePath/BaseID/Dynamic on top of the shared feature shape.
type FeatureOrClassDoc struct {
	ID          string         `json:"ID"`
	Includes    []string       `json:"Includes,omitempty"`
	Classes     []string       `json:"Classes,omitempty"`
	Parameters  []ParameterDoc `json:"Parameters,omitempty"`
	Overrides   []OverrideDoc  `json:"Overrides,omitempty"`
	Beta        bool           `json:"Beta,omitempty"`
	Deprecated  bool           `json:"Deprecated,omitempty"`
	BasePath    string         `json:"BasePath,omitempty"`
	BaseID      uint32         `json:"BaseID,omitempty"`
	Dynamic     bool           `json:"Dynamic,omitempty"`
	Writeable   bool           `json:"Writeable,omitempty"`
	InstanceKey string         `json:"InstanceKey,omitempty"`
}

// EnumMemberDoc mirrors one "Enums[].Members[]" entry.
type EnumMemberDoc struct {
	ID   uint32 `json:"ID"`
	Name string `json:"Name"`
}

// EnumDoc mirrors one "Enums[]" entry.
type EnumDoc struct {
	Name    string          `json:"Name"`
	Members []EnumMemberDoc `json:"Members"`
}

// ModelDocument is the top-level shape returned by a model provider.
type ModelDocument struct {
	WDMMVersion string              `json:"WDMMVersion,omitempty"`
	Name        string              `json:"Name,omitempty"`
	Features    []FeatureOrClassDoc `json:"Features,omitempty"`
	Classes     []FeatureOrClassDoc `json:"Classes,omitempty"`
	Enums       []EnumDoc           `json:"Enums,omitempty"`
}

// InstantiationDoc mirrors one device-description "Instantiations[]" entry.
type InstantiationDoc struct {
	Class     string             `json:"Class"`
	Instances []InstanceSeedDoc  `json:"Instances"`
}

// InstanceSeedDoc mirrors one "Instantiations[].Instances[]" entry.
type InstanceSeedDoc struct {
	ID              uint32              `json:"ID"`
	ParameterValues []ParameterValueDoc `json:"ParameterValues,omitempty"`
}

// ParameterValueDoc mirrors one "ParameterValues[]" entry.
type ParameterValueDoc struct {
	ID    uint32          `json:"ID"`
	Value json.RawMessage `json:"Value"`
}

// DeviceDescriptionDocument is the top-level shape returned by a
// device-description provider for one (order_number, firmware_version).
type DeviceDescriptionDocument struct {
	ModelReference  string              `json:"ModelReference,omitempty"`
	Features        []string            `json:"Features,omitempty"`
	Instantiations  []InstantiationDoc  `json:"Instantiations,omitempty"`
	Overrides       []OverrideDoc       `json:"Overrides,omitempty"`
	ParameterValues []ParameterValueDoc `json:"ParameterValues,omitempty"`
}
