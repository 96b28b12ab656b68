// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package policy

import "wafgw/internal/config"

// AdmitConnection applies the connection-level admission gate: the per-IP
// rule's ingress verdict, if any, wins outright; otherwise the gateway-wide
// default decides. hasRule distinguishes "no rule on file" from an explicit
// Inherit, though both fall through to the same default-based branch.
func AdmitConnection(ipIngress config.Gress, hasRule bool, global config.GenericGress) bool {
	if hasRule {
		switch ipIngress {
		case config.GressAllow:
			return true
		case config.GressDeny:
			return false
		}
	}
	return global == config.GenericGressAllow
}

// LocationBlocked reports whether target is excluded by the per-IP rule's
// location lists: an explicit blacklist entry always blocks; a non-empty
// whitelist acts as an allowlist (anything not in it is blocked); an empty
// whitelist is not treated as deny-all.
func LocationBlocked(rule config.IPRule, target string) bool {
	for _, blocked := range rule.BlacklistedLocations {
		if blocked == target {
			return true
		}
	}
	if len(rule.WhitelistLocation) == 0 {
		return false
	}
	for _, allowed := range rule.WhitelistLocation {
		if allowed == target {
			return false
		}
	}
	return true
}

// AdmitLocation applies ingress from a matched per-location rule: Deny
// always drops, Allow always proceeds, and Inherit defers to the gateway's
// global default.
func AdmitLocation(locationIngress config.Gress, global config.GenericGress) bool {
	switch locationIngress {
	case config.GressDeny:
		return false
	case config.GressAllow:
		return true
	default: // Inherit
		return global == config.GenericGressAllow
	}
}
