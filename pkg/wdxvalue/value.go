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

package wdxvalue

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

var (
	// ErrNullValue is returned by UnmarshalJSON when a scalar envelope
	// carries no value.
	ErrNullValue = errors.New("value_null")
	// ErrWrongKind is returned by a typed accessor when the Value does not
	// hold that kind.
	ErrWrongKind = errors.New("wrong_value_type")
	// ErrWrongRepresentation is returned when an Unknown value's raw string
	// cannot be reinterpreted as the requested Kind.
	ErrWrongRepresentation = errors.New("wrong_value_representation")
)

// ClassInstantiation describes one runtime instance of a dynamic or
// Device-declared class, optionally seeded with initial member values.
type ClassInstantiation struct {
	ClassName       string               `json:"class"`
	InstanceID      uint32               `json:"instance_id"`
	ParameterValues []InstantiationEntry `json:"parameter_values,omitempty"`
}

// InstantiationEntry seeds one member parameter of a ClassInstantiation.
type InstantiationEntry struct {
	ParameterID uint32 `json:"id"`
	Value       Value  `json:"value"`
}

// Value is the tagged, typed-value container described by SPEC_FULL.md's
// wdxvalue module: a sum type over scalars, an array-of-scalar rank
// promotion, instance/enum references, instantiation lists, byte blobs and
// file ids, plus an Unknown variant holding a raw wire string pending type
// promotion once the owning definition is known (§4.9 "type-promotion from
// unknown is deferred").
type Value struct {
	kind    Kind
	rank    Rank
	raw     string // populated only for KindUnknown
	scalars []any  // len==1 when rank==RankScalar; holds canonical Go types per Kind
	insts   []ClassInstantiation
}

// Unknown constructs a value still awaiting type promotion, carrying the
// raw textual representation as received off the wire.
func Unknown(raw string) Value {
	return Value{kind: KindUnknown, rank: RankScalar, raw: raw}
}

// IsUnknown reports whether the value has not yet been promoted to a concrete Kind.
func (v Value) IsUnknown() bool { return v.kind == KindUnknown }

// Kind returns the value's scalar kind.
func (v Value) Kind() Kind { return v.kind }

// Rank returns whether the value is a scalar or an array of Kind.
func (v Value) Rank() Rank { return v.rank }

// Len returns the number of scalar elements (1 for a scalar value).
func (v Value) Len() int { return len(v.scalars) }

func scalar(kind Kind, v any) Value {
	return Value{kind: kind, rank: RankScalar, scalars: []any{v}}
}

func array(kind Kind, vs []any) Value {
	return Value{kind: kind, rank: RankArray, scalars: vs}
}

func Bool(b bool) Value                  { return scalar(KindBool, b) }
func Int8(i int8) Value                  { return scalar(KindInt8, i) }
func Int16(i int16) Value                { return scalar(KindInt16, i) }
func Int32(i int32) Value                { return scalar(KindInt32, i) }
func Int64(i int64) Value                { return scalar(KindInt64, i) }
func Uint8(i uint8) Value                { return scalar(KindUint8, i) }
func Uint16(i uint16) Value              { return scalar(KindUint16, i) }
func Uint32(i uint32) Value              { return scalar(KindUint32, i) }
func Uint64(i uint64) Value              { return scalar(KindUint64, i) }
func Float32(f float32) Value            { return scalar(KindFloat32, f) }
func Float64(f float64) Value            { return scalar(KindFloat64, f) }
func String(s string) Value              { return scalar(KindString, s) }
func Bytes(b []byte) Value               { return scalar(KindBytes, append([]byte(nil), b...)) }
func FileID(id string) Value             { return scalar(KindFileID, id) }
func EnumValue(id uint32) Value          { return scalar(KindEnumValue, id) }
func InstanceRef(id uint32) Value        { return scalar(KindInstanceRef, id) }
func IPv4(ip net.IP) Value               { return scalar(KindIPv4Address, ip.To4()) }

// BoolArray and friends build Rank==Array values of a uniform Kind.
func BoolArray(vs []bool) Value {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}

	return array(KindBool, out)
}

func Int64Array(vs []int64) Value {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}

	return array(KindInt64, out)
}

func Uint32Array(vs []uint32) Value {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}

	return array(KindUint32, out)
}

func Float64Array(vs []float64) Value {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}

	return array(KindFloat64, out)
}

func StringArray(vs []string) Value {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}

	return array(KindString, out)
}

// Instantiations builds the value carried by a
// parameter_value_types::instantiations write (§4.4 dynamic instantiations).
func Instantiations(items []ClassInstantiation) Value {
	return Value{kind: KindInstantiations, rank: RankArray, insts: items}
}

// Instantiations returns the instantiation list, if the value holds one.
func (v Value) Instantiations() ([]ClassInstantiation, bool) {
	if v.kind != KindInstantiations {
		return nil, false
	}

	return v.insts, true
}

// BoolValue returns the scalar bool, if the value is a non-array Bool.
func (v Value) BoolValue() (bool, error) {
	b, ok := v.scalarAs(KindBool)
	if !ok {
		return false, fmt.Errorf("%w: want Boolean got %s", ErrWrongKind, v.kind)
	}

	return b.(bool), nil
}

// Int64Value widens any signed-or-unsigned integer scalar to int64.
func (v Value) Int64Value() (int64, error) {
	if !v.kind.IsInteger() || v.rank != RankScalar || len(v.scalars) != 1 {
		return 0, fmt.Errorf("%w: want integer got %s/%s", ErrWrongKind, v.kind, v.rank)
	}

	return toInt64(v.scalars[0]), nil
}

// Uint64Value converts any integer scalar, signed or unsigned, to uint64;
// a negative signed value wraps.
func (v Value) Uint64Value() (uint64, error) {
	if !v.kind.IsInteger() || v.rank != RankScalar || len(v.scalars) != 1 {
		return 0, fmt.Errorf("%w: want integer got %s/%s", ErrWrongKind, v.kind, v.rank)
	}

	return toUint64(v.scalars[0]), nil
}

// Float64Value widens Float32/Float64 scalars to float64.
func (v Value) Float64Value() (float64, error) {
	if !v.kind.IsFloat() || v.rank != RankScalar || len(v.scalars) != 1 {
		return 0, fmt.Errorf("%w: want float got %s/%s", ErrWrongKind, v.kind, v.rank)
	}

	switch s := v.scalars[0].(type) {
	case float32:
		return float64(s), nil
	case float64:
		return s, nil
	default:
		return 0, fmt.Errorf("%w: unexpected float storage %T", ErrWrongKind, s)
	}
}

// StringValue returns the scalar string, if the value is a non-array String.
func (v Value) StringValue() (string, error) {
	s, ok := v.scalarAs(KindString)
	if !ok {
		return "", fmt.Errorf("%w: want String got %s", ErrWrongKind, v.kind)
	}

	return s.(string), nil
}

// BytesValue returns the byte blob, if the value holds one.
func (v Value) BytesValue() ([]byte, error) {
	b, ok := v.scalarAs(KindBytes)
	if !ok {
		return nil, fmt.Errorf("%w: want Bytes got %s", ErrWrongKind, v.kind)
	}

	return b.([]byte), nil
}

// FileIDValue returns the file id string, if the value holds one.
func (v Value) FileIDValue() (string, error) {
	s, ok := v.scalarAs(KindFileID)
	if !ok {
		return "", fmt.Errorf("%w: want FileID got %s", ErrWrongKind, v.kind)
	}

	return s.(string), nil
}

// EnumValueID returns the numeric enum member id, if the value holds one.
func (v Value) EnumValueID() (uint32, error) {
	u, ok := v.scalarAs(KindEnumValue)
	if !ok {
		return 0, fmt.Errorf("%w: want Enum got %s", ErrWrongKind, v.kind)
	}

	return u.(uint32), nil
}

// InstanceRefID returns the referenced instance id, if the value holds one.
func (v Value) InstanceRefID() (uint32, error) {
	u, ok := v.scalarAs(KindInstanceRef)
	if !ok {
		return 0, fmt.Errorf("%w: want InstanceRef got %s", ErrWrongKind, v.kind)
	}

	return u.(uint32), nil
}

// IPv4Value returns the dotted-quad address, if the value holds one.
func (v Value) IPv4Value() (net.IP, error) {
	ip, ok := v.scalarAs(KindIPv4Address)
	if !ok {
		return nil, fmt.Errorf("%w: want IPv4Address got %s", ErrWrongKind, v.kind)
	}

	return ip.(net.IP), nil
}

func (v Value) scalarAs(kind Kind) (any, bool) {
	if v.kind != kind || v.rank != RankScalar || len(v.scalars) != 1 {
		return nil, false
	}

	return v.scalars[0], true
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	default:
		return 0
	}
}

func toUint64(v any) uint64 {
	switch n := v.(type) {
	case int8:
		return uint64(n)
	case int16:
		return uint64(n)
	case int32:
		return uint64(n)
	case int64:
		return uint64(n)
	case uint8:
		return uint64(n)
	case uint16:
		return uint64(n)
	case uint32:
		return uint64(n)
	case uint64:
		return n
	default:
		return 0
	}
}

// SetTypeInternal reinterprets an Unknown value's raw wire string as the
// given Kind/Rank once the owning ParameterDefinition is known. It is the
// deferred half of type promotion described in §4.9. A non-Unknown value is
// returned unchanged if it already matches kind/rank, or ErrWrongKind
// otherwise.
func (v Value) SetTypeInternal(kind Kind, rank Rank) (Value, error) {
	if !v.IsUnknown() {
		if v.kind == kind && v.rank == rank {
			return v, nil
		}

		return Value{}, fmt.Errorf("%w: value already typed as %s/%s", ErrWrongKind, v.kind, v.rank)
	}

	if rank == RankArray {
		// Arrays are never carried as a single raw scalar string; callers
		// must construct them directly via the typed constructors.
		return Value{}, fmt.Errorf("%w: cannot promote scalar raw value to array", ErrWrongRepresentation)
	}

	switch kind {
	case KindBool:
		b, err := strconv.ParseBool(v.raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrWrongRepresentation, err)
		}

		return Bool(b), nil
	case KindInt8, KindInt16, KindInt32, KindInt64:
		n, err := strconv.ParseInt(v.raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrWrongRepresentation, err)
		}

		return narrowSignedScalar(kind, n), nil
	case KindUint8, KindUint16, KindUint32, KindUint64:
		n, err := strconv.ParseUint(v.raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrWrongRepresentation, err)
		}

		return narrowUnsignedScalar(kind, n), nil
	case KindFloat32:
		f, err := strconv.ParseFloat(v.raw, 32)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrWrongRepresentation, err)
		}

		return Float32(float32(f)), nil
	case KindFloat64:
		f, err := strconv.ParseFloat(v.raw, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrWrongRepresentation, err)
		}

		return Float64(f), nil
	case KindString, KindFileID:
		return scalar(kind, v.raw), nil
	case KindIPv4Address:
		ip := net.ParseIP(v.raw)
		if ip == nil || ip.To4() == nil {
			return Value{}, fmt.Errorf("%w: %q is not a dotted-quad address", ErrWrongRepresentation, v.raw)
		}

		return IPv4(ip), nil
	case KindEnumValue:
		n, err := strconv.ParseUint(v.raw, 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrWrongRepresentation, err)
		}

		return EnumValue(uint32(n)), nil
	case KindInstanceRef:
		n, err := strconv.ParseUint(v.raw, 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrWrongRepresentation, err)
		}

		return InstanceRef(uint32(n)), nil
	case KindBytes:
		return Value{}, fmt.Errorf("%w: Bytes values must be set directly, not promoted from raw text", ErrWrongRepresentation)
	default:
		return Value{}, fmt.Errorf("%w: cannot promote raw value to %s", ErrWrongRepresentation, kind)
	}
}

func narrowSignedScalar(kind Kind, n int64) Value {
	switch kind {
	case KindInt8:
		return Int8(int8(n))
	case KindInt16:
		return Int16(int16(n))
	case KindInt32:
		return Int32(int32(n))
	default:
		return Int64(n)
	}
}

func narrowUnsignedScalar(kind Kind, n uint64) Value {
	switch kind {
	case KindUint8:
		return Uint8(uint8(n))
	case KindUint16:
		return Uint16(uint16(n))
	case KindUint32:
		return Uint32(uint32(n))
	default:
		return Uint64(n)
	}
}
