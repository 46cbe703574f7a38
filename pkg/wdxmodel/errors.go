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

import "errors"

// Sentinel errors returned by Compile. Callers map these to wdxstatus
// codes; this package stays independent of wdxstatus so it can be tested
// in isolation.
var (
	// ErrIncludeCycle is returned when the Includes graph of features or
	// classes contains a cycle. The whole compilation fails (spec.md §4.1).
	ErrIncludeCycle = errors.New("wdxmodel: include cycle detected")

	// ErrUnknownInclude is returned when a feature or class names an
	// Includes entry that does not exist in the document set.
	ErrUnknownInclude = errors.New("wdxmodel: unknown include target")

	// ErrMissingType is recorded when a parameter declares no Type. It is
	// a per-parameter Diagnostic: the offending parameter is dropped and
	// the rest of its feature/class compiles, per the "missing Type is
	// fatal for that parameter only" rule in spec.md §4.1 step 1.
	ErrMissingType = errors.New("wdxmodel: parameter missing Type")

	// ErrDuplicateID is returned when two parameters declare the same ID
	// without one of them being an explicit Override entry.
	ErrDuplicateID = errors.New("wdxmodel: duplicate parameter ID without override")

	// ErrDuplicatePath is returned when a feature or class ID is declared
	// twice across the model documents. Parameter paths are not checked
	// for uniqueness.
	ErrDuplicatePath = errors.New("wdxmodel: duplicate parameter path")

	// ErrUnresolvedEnum is returned when a parameter's Enum reference
	// names an enum absent from the document set.
	ErrUnresolvedEnum = errors.New("wdxmodel: unresolved enum reference")

	// ErrUnresolvedRefClass is returned when a parameter's RefClass or
	// RefClasses names a class absent from the document set.
	ErrUnresolvedRefClass = errors.New("wdxmodel: unresolved class reference")

	// ErrUnresolvedModelReference is returned when a device-type
	// description's Features list names a feature absent from the
	// compiled model. ModelReference itself is not checked.
	ErrUnresolvedModelReference = errors.New("wdxmodel: unresolved model reference")

	// ErrInvalidValueType is returned when a Type or Rank string in a
	// document does not name a known wdxvalue kind/rank.
	ErrInvalidValueType = errors.New("wdxmodel: invalid value type or rank")

	// ErrOverrideUnknownParameter is returned when an Override or
	// device-description Overrides entry names a parameter ID absent
	// from the scope it is applied in.
	ErrOverrideUnknownParameter = errors.New("wdxmodel: override names unknown parameter")

	// ErrOverrideWidensConstraint is a per-parameter diagnostic (never
	// fatal to the whole compile) recorded when an override would widen
	// AllowedValues/AllowedLength beyond the base definition. The
	// override is skipped and the base definition kept, mirroring the
	// "missing Type" single-parameter failure mode.
	ErrOverrideWidensConstraint = errors.New("wdxmodel: override widens constraint, ignored")
)

// Diagnostic records a non-fatal compile-time anomaly: the compiled model
// is still usable, but the caller may want to log or surface it.
type Diagnostic struct {
	ParameterID uint32
	Err         error
}

func (d Diagnostic) Error() string {
	return d.Err.Error()
}
