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

// Package wdxvalue implements the tagged typed-value container parameters
// carry on the wire: scalars, arrays, enum references, instance
// references, instantiation lists, byte blobs and file ids. See
// SPEC_FULL.md, MODULE: wdxvalue.
package wdxvalue

import "fmt"

// Kind identifies the scalar type carried by a Value, independent of Rank.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindIPv4Address
	KindBytes
	KindFileID
	KindEnumValue
	KindInstanceRef
	KindInstantiations
	KindMethod
)

// wireNames must match the "Type" field values used in metadata documents
// (spec §6) so the model compiler and the value codec agree on spelling.
var wireNames = map[Kind]string{
	KindUnknown:        "Unknown",
	KindBool:           "Boolean",
	KindInt8:           "Int8",
	KindInt16:          "Int16",
	KindInt32:          "Int32",
	KindInt64:          "Int64",
	KindUint8:          "UInt8",
	KindUint16:         "UInt16",
	KindUint32:         "UInt32",
	KindUint64:         "UInt64",
	KindFloat32:        "Float32",
	KindFloat64:        "Float64",
	KindString:         "String",
	KindIPv4Address:    "IPv4Address",
	KindBytes:          "Bytes",
	KindFileID:         "FileID",
	KindEnumValue:      "Enum",
	KindInstanceRef:    "InstanceRef",
	KindInstantiations: "Instantiations",
	KindMethod:         "Method",
}

var namesToKind = func() map[string]Kind {
	m := make(map[string]Kind, len(wireNames))
	for k, v := range wireNames {
		m[v] = k
	}

	return m
}()

func (k Kind) String() string {
	if name, ok := wireNames[k]; ok {
		return name
	}

	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind resolves a metadata-document "Type" string to a Kind.
func ParseKind(s string) (Kind, bool) {
	k, ok := namesToKind[s]
	return k, ok
}

// IsInteger reports whether the kind is one of the signed/unsigned integer kinds.
func (k Kind) IsInteger() bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether the kind is Float32 or Float64.
func (k Kind) IsFloat() bool {
	return k == KindFloat32 || k == KindFloat64
}

// Rank distinguishes a single scalar from an array of the same Kind.
type Rank uint8

const (
	RankScalar Rank = iota
	RankArray
)

func (r Rank) String() string {
	if r == RankArray {
		return "Array"
	}

	return "Scalar"
}

// ParseRank resolves the metadata-document "Rank" field ("Array" or empty/"Scalar").
func ParseRank(s string) Rank {
	if s == "Array" {
		return RankArray
	}

	return RankScalar
}
