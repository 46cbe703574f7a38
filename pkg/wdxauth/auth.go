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

// Package wdxauth implements the Permissions Filter (spec.md §4.7): a
// decorator in front of the dispatcher that checks a caller's per-feature
// read/write permissions before a batch ever reaches a provider, grounded
// on the reference implementation's authorized.cpp. "root" and "admin"
// bypass all permission checks; everyone else is checked per affected
// feature, and one unauthorized entry poisons its batch siblings sharing
// that feature, much as an invalid write does. Siblings that share its
// provider but not its feature are not poisoned.
package wdxauth

import (
	"context"

	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxdispatch"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxstatus"
	"github.com/WAGO/tp-firmware-sdk-sub001/pkg/wdxvalue"
)

// PermissionType distinguishes a read-only check from a read-write one.
// Methods always require ReadWrite regardless of the caller's intent,
// mirroring "methods always require readwrite permissions" in the
// reference implementation.
type PermissionType int

const (
	ReadOnly PermissionType = iota
	ReadWrite
)

// UserPermissions is the caller identity and per-feature grants the
// filter checks against.
type UserPermissions struct {
	UserName         string
	ReadPermissions  []string
	WritePermissions []string
}

// HasPermission reports whether the user may perform permType on
// featureName. "root" (and, per this build's
// admin-with-all-permissions policy, "admin") always passes.
func HasPermission(featureName string, perms UserPermissions, permType PermissionType) bool {
	if isPrivileged(perms.UserName) {
		return true
	}

	set := perms.ReadPermissions
	if permType == ReadWrite {
		set = perms.WritePermissions
	}

	for _, f := range set {
		if featureNamesEqual(f, featureName) {
			return true
		}
	}

	return false
}

func isPrivileged(userName string) bool {
	return userName == "root" || userName == "admin"
}

func featureNamesEqual(a, b string) bool {
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

// Filter wraps a Dispatcher-shaped function, checking permissions on
// every batch entry before it reaches the provider layer, and poisoning
// batch siblings on the same feature once one entry is found unauthorized.
type Filter struct {
	Permissions UserPermissions
	Next        func(ctx context.Context, ops []wdxdispatch.Op) []wdxdispatch.Result
}

// FeatureOf resolves the permission-check scope for one op: its owning
// feature, or its owning class's name when declared directly on a class.
func FeatureOf(op wdxdispatch.Op) string {
	if op.Address.Definition.FeatureName != "" {
		return op.Address.Definition.FeatureName
	}

	return op.Address.Definition.ClassName
}

// Dispatch checks every op's permission before delegating the authorized
// subset to Next, then merges the results back into batch order. An
// already-unauthorized entry is never sent to the provider; once any
// entry fails its check, every other not-yet-determined entry that
// shares its feature is marked other_unauthorized_request_in_set,
// matching determine_unauthorized_instances's same-feature poisoning.
func (f *Filter) Dispatch(ctx context.Context, ops []wdxdispatch.Op) []wdxdispatch.Result {
	results := make([]wdxdispatch.Result, len(ops))
	authorized := make([]int, 0, len(ops))

	unauthorizedFeatures := map[string]bool{}

	for i, op := range ops {
		permType := ReadOnly
		if op.Write != nil || op.Address.Definition.ValueType == wdxvalue.KindMethod {
			permType = ReadWrite
		}

		feature := FeatureOf(op)

		if !HasPermission(feature, f.Permissions, permType) {
			results[i] = wdxdispatch.Result{Status: wdxstatus.Err(wdxstatus.UnauthorizedRequest, "")}
			unauthorizedFeatures[feature] = true

			continue
		}

		authorized = append(authorized, i)
	}

	for i := range ops {
		if results[i].Status.Code == wdxstatus.UnauthorizedRequest {
			continue
		}

		if unauthorizedFeatures[FeatureOf(ops[i])] {
			results[i] = wdxdispatch.Result{Status: wdxstatus.Err(wdxstatus.OtherUnauthorizedRequestInSet, "")}

			for j, ai := range authorized {
				if ai == i {
					authorized = append(authorized[:j], authorized[j+1:]...)
					break
				}
			}
		}
	}

	if len(authorized) == 0 {
		return results
	}

	subset := make([]wdxdispatch.Op, len(authorized))
	for k, i := range authorized {
		subset[k] = ops[i]
	}

	subResults := f.Next(ctx, subset)

	for k, i := range authorized {
		results[i] = subResults[k]
	}

	return results
}
