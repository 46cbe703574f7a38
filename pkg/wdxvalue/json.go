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
	"encoding/json"
	"fmt"
	"net"
)

// wireValue is the JSON envelope described in SPEC_FULL.md's wdxvalue
// module: {"type":..., "rank":..., "value":...}. Bytes round-trip as
// base64 (encoding/json's native []byte handling), IPv4 addresses as
// dotted quads, and enum/instance refs as plain numbers, satisfying the
// lossless-round-trip invariant in spec.md §8.
type wireValue struct {
	Type  string          `json:"type"`
	Rank  string          `json:"rank,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	w := wireValue{Type: v.kind.String()}

	if v.rank == RankArray {
		w.Rank = "Array"
	}

	var (
		payload any
		err     error
	)

	switch v.kind {
	case KindUnknown:
		payload = v.raw
	case KindInstantiations:
		payload = v.insts
	default:
		if v.rank == RankArray {
			elems := make([]json.RawMessage, len(v.scalars))

			for i, s := range v.scalars {
				raw, encErr := marshalScalar(v.kind, s)
				if encErr != nil {
					return nil, encErr
				}

				elems[i] = raw
			}

			payload = elems
		} else if len(v.scalars) == 1 {
			raw, encErr := marshalScalar(v.kind, v.scalars[0])
			if encErr != nil {
				return nil, encErr
			}

			w.Value = raw
		}
	}

	if payload != nil {
		raw, encErr := json.Marshal(payload)
		if encErr != nil {
			return nil, encErr
		}

		w.Value = raw
	}

	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	kind, ok := ParseKind(w.Type)
	if !ok {
		return fmt.Errorf("%w: unknown value type %q", ErrWrongRepresentation, w.Type)
	}

	rank := ParseRank(w.Rank)

	if kind == KindUnknown {
		var raw string
		if len(w.Value) > 0 {
			if err := json.Unmarshal(w.Value, &raw); err != nil {
				return err
			}
		}

		*v = Unknown(raw)

		return nil
	}

	if kind == KindInstantiations {
		var insts []ClassInstantiation
		if len(w.Value) > 0 {
			if err := json.Unmarshal(w.Value, &insts); err != nil {
				return err
			}
		}

		*v = Instantiations(insts)

		return nil
	}

	if rank == RankArray {
		var rawElems []json.RawMessage
		if len(w.Value) > 0 {
			if err := json.Unmarshal(w.Value, &rawElems); err != nil {
				return err
			}
		}

		scalars := make([]any, len(rawElems))

		for i, raw := range rawElems {
			s, err := unmarshalScalar(kind, raw)
			if err != nil {
				return err
			}

			scalars[i] = s
		}

		*v = array(kind, scalars)

		return nil
	}

	if len(w.Value) == 0 {
		return fmt.Errorf("%w: missing value for type %q", ErrNullValue, w.Type)
	}

	s, err := unmarshalScalar(kind, w.Value)
	if err != nil {
		return err
	}

	*v = scalar(kind, s)

	return nil
}

func marshalScalar(kind Kind, s any) (json.RawMessage, error) {
	if kind == KindIPv4Address {
		ip, ok := s.(net.IP)
		if !ok {
			return nil, fmt.Errorf("%w: IPv4Address scalar stored as %T", ErrWrongKind, s)
		}

		return json.Marshal(ip.String())
	}

	return json.Marshal(s)
}

func unmarshalScalar(kind Kind, raw json.RawMessage) (any, error) {
	switch kind {
	case KindBool:
		var b bool
		return b, json.Unmarshal(raw, &b)
	case KindInt8:
		var n int8
		return n, json.Unmarshal(raw, &n)
	case KindInt16:
		var n int16
		return n, json.Unmarshal(raw, &n)
	case KindInt32:
		var n int32
		return n, json.Unmarshal(raw, &n)
	case KindInt64:
		var n int64
		return n, json.Unmarshal(raw, &n)
	case KindUint8:
		var n uint8
		return n, json.Unmarshal(raw, &n)
	case KindUint16:
		var n uint16
		return n, json.Unmarshal(raw, &n)
	case KindUint32:
		var n uint32
		return n, json.Unmarshal(raw, &n)
	case KindUint64:
		var n uint64
		return n, json.Unmarshal(raw, &n)
	case KindFloat32:
		var f float32
		return f, json.Unmarshal(raw, &f)
	case KindFloat64:
		var f float64
		return f, json.Unmarshal(raw, &f)
	case KindString, KindFileID:
		var s string
		return s, json.Unmarshal(raw, &s)
	case KindBytes:
		var b []byte
		return b, json.Unmarshal(raw, &b)
	case KindEnumValue, KindInstanceRef:
		var n uint32
		return n, json.Unmarshal(raw, &n)
	case KindIPv4Address:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}

		ip := net.ParseIP(s)
		if ip == nil || ip.To4() == nil {
			return nil, fmt.Errorf("%w: %q is not a dotted-quad address", ErrWrongRepresentation, s)
		}

		return ip.To4(), nil
	default:
		return nil, fmt.Errorf("%w: cannot decode scalar of type %s", ErrWrongRepresentation, kind)
	}
}
