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

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxvalue"
)

// Sources bundles the raw documents the Model Compiler consumes: one
// ModelDocument per registered model provider, and one
// DeviceDescriptionDocument per registered device-description provider,
// keyed by the device type it describes (spec.md §4.1).
type Sources struct {
	Models      []ModelDocument
	DeviceTypes map[DeviceTypeKey]DeviceDescriptionDocument
}

// Compile runs the four-pass pipeline described in spec.md §4.1 and
// SPEC_FULL.md's wdxmodel module: parse, resolve includes, apply
// overrides, resolve cross-links. It returns the compiled, immutable
// DeviceModel plus any non-fatal Diagnostics, or a fatal error if the
// document set cannot be compiled at all.
func Compile(src Sources) (*DeviceModel, []Diagnostic, error) {
	c := &compilation{
		rawFeatures: map[string]FeatureOrClassDoc{},
		rawClasses:  map[string]FeatureOrClassDoc{},
		enums:       map[string]*EnumDefinition{},
	}

	// Pass 1: parse. Index every feature/class/enum doc by name and
	// reject structurally invalid value types up front.
	for _, doc := range src.Models {
		for _, f := range doc.Features {
			if _, dup := c.rawFeatures[f.ID]; dup {
				return nil, nil, fmt.Errorf("%w: feature %q declared twice", ErrDuplicatePath, f.ID)
			}

			c.rawFeatures[f.ID] = f
		}

		for _, cl := range doc.Classes {
			if _, dup := c.rawClasses[cl.ID]; dup {
				return nil, nil, fmt.Errorf("%w: class %q declared twice", ErrDuplicatePath, cl.ID)
			}

			c.rawClasses[cl.ID] = cl
		}

		for _, e := range doc.Enums {
			members := make(map[uint32]string, len(e.Members))
			for _, m := range e.Members {
				members[m.ID] = m.Name
			}

			c.enums[e.Name] = &EnumDefinition{Name: e.Name, Members: members}
		}
	}

	model := &DeviceModel{
		Features:    map[string]*FeatureDefinition{},
		Classes:     map[string]*ClassDefinition{},
		Enums:       c.enums,
		Definitions: map[uint32]*ParameterDefinition{},
		DeviceTypes: map[DeviceTypeKey]*DeviceTypeDescription{},
	}

	c.model = model

	// Pass 2: topological include resolution, classes first (features may
	// include classes, but not vice versa in this SDK's object model).
	for name := range c.rawClasses {
		if _, err := c.resolveClass(name, nil); err != nil {
			return nil, nil, err
		}
	}

	for name := range c.rawFeatures {
		if _, err := c.resolveFeature(name, nil); err != nil {
			return nil, nil, err
		}
	}

	// Pass 3: overrides, feature-scoped then device-scoped. Feature-scoped
	// overrides (declared alongside the feature doc) were already folded
	// in during resolveFeature via applyOverrideDoc; device-scoped
	// overrides apply once per DeviceTypeDescription below, against a
	// private copy so devices never mutate the shared model.
	for key, desc := range src.DeviceTypes {
		dt, err := c.buildDeviceType(key, desc)
		if err != nil {
			return nil, nil, err
		}

		model.DeviceTypes[key] = dt
	}

	// Pass 4: cross-link resolution (Enum, RefClasses) against the now
	// fully-populated model.
	for _, def := range model.Definitions {
		if def.EnumRef != "" {
			enum, ok := model.Enums[def.EnumRef]
			if !ok {
				return nil, nil, fmt.Errorf("%w: parameter %d references enum %q", ErrUnresolvedEnum, def.ID, def.EnumRef)
			}

			def.Enum = enum
		}

		for _, rc := range def.RefClasses {
			if _, ok := model.Classes[rc]; !ok {
				return nil, nil, fmt.Errorf("%w: parameter %d references class %q", ErrUnresolvedRefClass, def.ID, rc)
			}
		}
	}

	for key, dt := range model.DeviceTypes {
		for _, feature := range dt.Features {
			if _, ok := model.Features[feature]; !ok {
				return nil, nil, fmt.Errorf("%w: device type %s/%s claims feature %q", ErrUnresolvedModelReference, key.OrderNumber, key.FirmwareVersion, feature)
			}
		}
	}

	return model, c.diagnostics, nil
}

// compilation carries the working state of one Compile call.
type compilation struct {
	rawFeatures map[string]FeatureOrClassDoc
	rawClasses  map[string]FeatureOrClassDoc
	enums       map[string]*EnumDefinition
	model       *DeviceModel
	diagnostics []Diagnostic

	resolvingFeature map[string]bool
	resolvingClass   map[string]bool
}

func (c *compilation) resolveClass(name string, chain []string) (*ClassDefinition, error) {
	if existing, ok := c.model.Classes[name]; ok {
		return existing, nil
	}

	if c.resolvingClass == nil {
		c.resolvingClass = map[string]bool{}
	}

	if c.resolvingClass[name] {
		return nil, fmt.Errorf("%w: class cycle at %q (chain %v)", ErrIncludeCycle, name, chain)
	}

	doc, ok := c.rawClasses[name]
	if !ok {
		return nil, fmt.Errorf("%w: class %q", ErrUnknownInclude, name)
	}

	c.resolvingClass[name] = true
	defer delete(c.resolvingClass, name)

	cd := &ClassDefinition{
		ID:          name,
		BasePath:    doc.BasePath,
		BaseID:      doc.BaseID,
		Includes:    doc.Includes,
		Parameters:  map[uint32]*ParameterDefinition{},
		Dynamic:     doc.Dynamic,
		Writeable:   doc.Writeable,
		InstanceKey: doc.InstanceKey,
	}

	for _, inc := range doc.Includes {
		included, err := c.resolveClass(inc, append(chain, name))
		if err != nil {
			return nil, err
		}

		for id, p := range included.Parameters {
			if err := mergeParameter(cd.Parameters, id, p); err != nil {
				return nil, err
			}
		}
	}

	for _, pdoc := range doc.Parameters {
		pd, err := buildParameterDefinition(pdoc, "", name, c.model.Enums)
		if err != nil {
			if isSoftParameterError(err) {
				c.diagnostics = append(c.diagnostics, Diagnostic{ParameterID: pdoc.ID, Err: err})
				continue
			}

			return nil, err
		}

		if err := mergeParameter(cd.Parameters, pd.ID, pd); err != nil {
			return nil, err
		}
	}

	for _, od := range doc.Overrides {
		target, ok := cd.Parameters[od.ID]
		if !ok {
			return nil, fmt.Errorf("%w: class %q override %d", ErrOverrideUnknownParameter, name, od.ID)
		}

		if diag := c.applyOverrideDoc(target, od); diag != nil {
			c.diagnostics = append(c.diagnostics, *diag)
		}
	}

	for id, p := range cd.Parameters {
		c.model.Definitions[id] = p
	}

	c.model.Classes[name] = cd

	return cd, nil
}

func (c *compilation) resolveFeature(name string, chain []string) (*FeatureDefinition, error) {
	if existing, ok := c.model.Features[name]; ok {
		return existing, nil
	}

	if c.resolvingFeature == nil {
		c.resolvingFeature = map[string]bool{}
	}

	if c.resolvingFeature[name] {
		return nil, fmt.Errorf("%w: feature cycle at %q (chain %v)", ErrIncludeCycle, name, chain)
	}

	doc, ok := c.rawFeatures[name]
	if !ok {
		return nil, fmt.Errorf("%w: feature %q", ErrUnknownInclude, name)
	}

	c.resolvingFeature[name] = true
	defer delete(c.resolvingFeature, name)

	fd := &FeatureDefinition{
		Name:         name,
		Includes:     doc.Includes,
		Parameters:   map[uint32]*ParameterDefinition{},
		Classes:      doc.Classes,
		IsBeta:       doc.Beta,
		IsDeprecated: doc.Deprecated,
	}

	for _, inc := range doc.Includes {
		included, err := c.resolveFeature(inc, append(chain, name))
		if err != nil {
			return nil, err
		}

		for id, p := range included.Parameters {
			if err := mergeParameter(fd.Parameters, id, p); err != nil {
				return nil, err
			}
		}

		fd.Classes = append(fd.Classes, included.Classes...)
	}

	for _, clName := range doc.Classes {
		if _, err := c.resolveClass(clName, nil); err != nil {
			return nil, err
		}
	}

	for _, pdoc := range doc.Parameters {
		pd, err := buildParameterDefinition(pdoc, name, "", c.model.Enums)
		if err != nil {
			if isSoftParameterError(err) {
				c.diagnostics = append(c.diagnostics, Diagnostic{ParameterID: pdoc.ID, Err: err})
				continue
			}

			return nil, err
		}

		if err := mergeParameter(fd.Parameters, pd.ID, pd); err != nil {
			return nil, err
		}
	}

	for _, od := range doc.Overrides {
		target, ok := fd.Parameters[od.ID]
		if !ok {
			return nil, fmt.Errorf("%w: feature %q override %d", ErrOverrideUnknownParameter, name, od.ID)
		}

		if diag := c.applyOverrideDoc(target, od); diag != nil {
			c.diagnostics = append(c.diagnostics, *diag)
		}
	}

	for id, p := range fd.Parameters {
		c.model.Definitions[id] = p
	}

	c.model.Features[name] = fd

	return fd, nil
}

// mergeParameter inserts p into dst, rejecting a plain redefinition (two
// distinct definitions sharing an ID without one replacing the other via
// an explicit Override) as a fatal compile error per spec.md §4.1.
func mergeParameter(dst map[uint32]*ParameterDefinition, id uint32, p *ParameterDefinition) error {
	if existing, dup := dst[id]; dup && existing != p {
		return fmt.Errorf("%w: parameter id %d", ErrDuplicateID, id)
	}

	dst[id] = p

	return nil
}

// applyOverrideDoc patches target in place. Overrides that would widen
// AllowedValues/AllowedLength beyond the base definition are rejected as
// a per-parameter diagnostic rather than failing the whole compile,
// mirroring the "missing Type" single-parameter failure mode in §4.1.
func (c *compilation) applyOverrideDoc(target *ParameterDefinition, od OverrideDoc) *Diagnostic {
	patch := target.Overrideables

	if od.Inactive {
		patch.Inactive = true
	}

	if od.Pattern != "" {
		patch.Pattern = od.Pattern
	}

	if od.AllowedLength != nil {
		if target.Overrideables.AllowedLength != nil &&
			(od.AllowedLength.Min < target.Overrideables.AllowedLength.Min ||
				od.AllowedLength.Max > target.Overrideables.AllowedLength.Max) {
			return &Diagnostic{ParameterID: target.ID, Err: fmt.Errorf("%w: length", ErrOverrideWidensConstraint)}
		}

		patch.AllowedLength = &LengthConstraint{Min: od.AllowedLength.Min, Max: od.AllowedLength.Max}
	}

	if len(od.AllowedValues) > 0 {
		values, err := decodeValueList(od.AllowedValues, target.ValueType)
		if err != nil {
			return &Diagnostic{ParameterID: target.ID, Err: fmt.Errorf("%w: %v", ErrOverrideWidensConstraint, err)}
		}

		if len(target.Overrideables.AllowedValues) > 0 && len(values) > len(target.Overrideables.AllowedValues) {
			return &Diagnostic{ParameterID: target.ID, Err: fmt.Errorf("%w: allowed values", ErrOverrideWidensConstraint)}
		}

		patch.AllowedValues = values
	}

	if len(od.DefaultValue) > 0 {
		dv, err := decodeValue(od.DefaultValue, target.ValueType)
		if err != nil {
			return &Diagnostic{ParameterID: target.ID, Err: fmt.Errorf("%w: %v", ErrOverrideWidensConstraint, err)}
		}

		patch.DefaultValue = &dv
	}

	target.Overrideables = patch

	return nil
}

// buildDeviceType applies a device-scoped description on top of the
// already-compiled shared model, producing the per-device-type directory
// entry. Device-scoped Overrides never mutate model.Definitions; they are
// materialized privately on the DeviceTypeDescription and applied by
// wdxinstance at device-registration time.
func (c *compilation) buildDeviceType(key DeviceTypeKey, doc DeviceDescriptionDocument) (*DeviceTypeDescription, error) {
	dt := &DeviceTypeDescription{
		OrderNumber:     key.OrderNumber,
		FirmwareVersion: key.FirmwareVersion,
		ModelReference:  doc.ModelReference,
		Features:        doc.Features,
	}

	for _, od := range doc.Overrides {
		def, ok := c.model.Definitions[od.ID]
		if !ok {
			return nil, fmt.Errorf("%w: device %s/%s override %d", ErrOverrideUnknownParameter, key.OrderNumber, key.FirmwareVersion, od.ID)
		}

		dt.Overrides = append(dt.Overrides, Override{ParameterID: od.ID, Overrideables: overridePatch(def, od)})
	}

	for _, idoc := range doc.Instantiations {
		for _, inst := range idoc.Instances {
			entry := wdxvalue.ClassInstantiation{ClassName: idoc.Class, InstanceID: inst.ID}

			for _, pv := range inst.ParameterValues {
				def, ok := c.model.Definitions[pv.ID]
				if !ok {
					return nil, fmt.Errorf("%w: instance seed for unknown parameter %d", ErrOverrideUnknownParameter, pv.ID)
				}

				v, err := decodeValue(pv.Value, def.ValueType)
				if err != nil {
					return nil, err
				}

				entry.ParameterValues = append(entry.ParameterValues, wdxvalue.InstantiationEntry{ParameterID: pv.ID, Value: v})
			}

			dt.Instantiations = append(dt.Instantiations, entry)
		}
	}

	for _, pv := range doc.ParameterValues {
		def, ok := c.model.Definitions[pv.ID]
		if !ok {
			return nil, fmt.Errorf("%w: initial value for unknown parameter %d", ErrOverrideUnknownParameter, pv.ID)
		}

		v, err := decodeValue(pv.Value, def.ValueType)
		if err != nil {
			return nil, err
		}

		dt.ParameterValues = append(dt.ParameterValues, InitialValue{ParameterID: pv.ID, Value: v})
	}

	return dt, nil
}

// overridePatch computes the Overrideables a device-scoped override would
// produce, without mutating def, for later application by wdxinstance.
func overridePatch(def *ParameterDefinition, od OverrideDoc) Overrideables {
	patch := def.Overrideables

	if od.Inactive {
		patch.Inactive = true
	}

	if od.Pattern != "" {
		patch.Pattern = od.Pattern
	}

	if od.AllowedLength != nil {
		patch.AllowedLength = &LengthConstraint{Min: od.AllowedLength.Min, Max: od.AllowedLength.Max}
	}

	if len(od.DefaultValue) > 0 {
		if dv, err := decodeValue(od.DefaultValue, def.ValueType); err == nil {
			patch.DefaultValue = &dv
		}
	}

	if len(od.AllowedValues) > 0 {
		if values, err := decodeValueList(od.AllowedValues, def.ValueType); err == nil {
			patch.AllowedValues = values
		}
	}

	return patch
}

func buildParameterDefinition(doc ParameterDoc, feature, class string, enums map[string]*EnumDefinition) (*ParameterDefinition, error) {
	if doc.Type == "" {
		return nil, fmt.Errorf("%w: parameter %d (%s)", ErrMissingType, doc.ID, doc.Path)
	}

	kind, ok := wdxvalue.ParseKind(doc.Type)
	if !ok {
		return nil, fmt.Errorf("%w: parameter %d type %q", ErrInvalidValueType, doc.ID, doc.Type)
	}

	rank := wdxvalue.ParseRank(doc.Rank)

	pd := &ParameterDefinition{
		ID:                 doc.ID,
		Path:               doc.Path,
		ValueType:          kind,
		Rank:               rank,
		Writeable:          doc.Writeable,
		UserSetting:        doc.UserSetting,
		OnlyOnline:         doc.OnlyOnline,
		IsBeta:             doc.Beta,
		IsDeprecated:       doc.Deprecated,
		EnumRef:            doc.Enum,
		RefClasses:         doc.RefClasses,
		FeatureName:        feature,
		ClassName:          class,
		ConnectionChanging: doc.ConnectionChanging,
		Overrideables: Overrideables{
			Pattern: doc.Pattern,
		},
	}

	if doc.RefClass != "" {
		pd.RefClasses = append(pd.RefClasses, doc.RefClass)
	}

	if doc.AllowedLength != nil {
		pd.Overrideables.AllowedLength = &LengthConstraint{Min: doc.AllowedLength.Min, Max: doc.AllowedLength.Max}
	}

	if len(doc.DefaultValue) > 0 {
		dv, err := decodeValue(doc.DefaultValue, kind)
		if err != nil {
			return nil, fmt.Errorf("parameter %d default value: %w", doc.ID, err)
		}

		pd.Overrideables.DefaultValue = &dv
	}

	if len(doc.AllowedValues) > 0 {
		values, err := decodeValueList(doc.AllowedValues, kind)
		if err != nil {
			return nil, fmt.Errorf("parameter %d allowed values: %w", doc.ID, err)
		}

		pd.Overrideables.AllowedValues = values
	}

	if kind == wdxvalue.KindMethod {
		sig := &MethodSignature{}

		for _, a := range doc.InArgs {
			arg, err := buildMethodArg(a)
			if err != nil {
				return nil, err
			}

			sig.InArgs = append(sig.InArgs, arg)
		}

		for _, a := range doc.OutArgs {
			arg, err := buildMethodArg(a)
			if err != nil {
				return nil, err
			}

			sig.OutArgs = append(sig.OutArgs, arg)
		}

		pd.Method = sig
	}

	return pd, nil
}

func buildMethodArg(doc MethodArgDoc) (MethodArg, error) {
	kind, ok := wdxvalue.ParseKind(doc.Type)
	if !ok {
		return MethodArg{}, fmt.Errorf("%w: method arg %q type %q", ErrInvalidValueType, doc.Name, doc.Type)
	}

	return MethodArg{Name: doc.Name, ValueType: kind, Rank: wdxvalue.ParseRank(doc.Rank)}, nil
}

// decodeValue decodes a raw document value payload (not a full
// {"type":...,"value":...} envelope -- the bare JSON literal appropriate
// to kind) into a wdxvalue.Value of the given kind.
func decodeValue(raw json.RawMessage, kind wdxvalue.Kind) (wdxvalue.Value, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return wdxvalue.Unknown(text).SetTypeInternal(kind, wdxvalue.RankScalar)
	}

	// Non-string literals (numbers, bools) decode straight to text form
	// for the same deferred-typing path used by wire values (§9).
	return wdxvalue.Unknown(string(raw)).SetTypeInternal(kind, wdxvalue.RankScalar)
}

func decodeValueList(raw json.RawMessage, kind wdxvalue.Kind) ([]wdxvalue.Value, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}

	values := make([]wdxvalue.Value, 0, len(items))

	for _, item := range items {
		v, err := decodeValue(item, kind)
		if err != nil {
			return nil, err
		}

		values = append(values, v)
	}

	return values, nil
}

// isSoftParameterError reports whether err is the single-parameter-fatal
// ErrMissingType, which drops only the offending parameter rather than
// failing the whole feature/class compile.
func isSoftParameterError(err error) bool {
	return errors.Is(err, ErrMissingType)
}
