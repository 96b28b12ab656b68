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

// Package policy owns the two hot-reloadable rule collections: per-IP rules
// (looked up on demand, one file read per connection) and per-location
// rules (cached in memory, refreshed on filesystem change).
package policy

import (
	"errors"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"wafgw/internal/config"
)

// GetIPRule reads <ip-rules-dir>/<ip>.yaml fresh, every call. A missing file
// returns (nil, false) silently — absence means "no rule", not an error. Any
// other read or deserialize failure also returns (nil, false) but logs once.
func GetIPRule(layout config.Layout, ip string) (*config.IPRule, bool) {
	path := layout.IPRulePath(ip)

	content, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("policy: failed to read from %s, error: %v", path, err)
		}
		return nil, false
	}

	var rule config.IPRule
	if err := yaml.Unmarshal(content, &rule); err != nil {
		log.Printf("policy: failed to deserialize %s, error: %v", path, err)
		return nil, false
	}
	return &rule, true
}
